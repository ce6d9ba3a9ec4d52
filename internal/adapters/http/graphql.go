package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/overland/internal/core/domain"
	"github.com/samirrijal/overland/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services. Field names
// follow the JSON tags of the domain types, which graphql-go's default
// resolver reads.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	coordinateInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CoordinateInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"lat": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lon": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	campsiteType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Campsite",
		Fields: graphql.Fields{
			"id":                  &graphql.Field{Type: graphql.String},
			"name":                &graphql.Field{Type: graphql.String},
			"location":            &graphql.Field{Type: coordinateType},
			"type":                &graphql.Field{Type: graphql.String},
			"amenities":           &graphql.Field{Type: graphql.NewList(graphql.String)},
			"distance_from_route": &graphql.Field{Type: graphql.Float},
			"elevation":           &graphql.Field{Type: graphql.Int},
			"rating":              &graphql.Field{Type: graphql.Float},
			"cell_service":        &graphql.Field{Type: graphql.String},
			"difficulty":          &graphql.Field{Type: graphql.String},
			"vehicle_accessible":  &graphql.Field{Type: graphql.Boolean},
			"source":              &graphql.Field{Type: graphql.String},
			"description":         &graphql.Field{Type: graphql.String},
			"reservation_url":     &graphql.Field{Type: graphql.String},
		},
	})

	segmentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DaySegment",
		Fields: graphql.Fields{
			"day":                &graphql.Field{Type: graphql.Int},
			"start_point":        &graphql.Field{Type: coordinateType},
			"end_point":          &graphql.Field{Type: coordinateType},
			"distance_miles":     &graphql.Field{Type: graphql.Float},
			"drive_time_hours":   &graphql.Field{Type: graphql.Float},
			"suggested_campsite": &graphql.Field{Type: campsiteType},
		},
	})

	tripPlanType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TripPlan",
		Fields: graphql.Fields{
			"id":                     &graphql.Field{Type: graphql.String},
			"total_distance_miles":   &graphql.Field{Type: graphql.Float},
			"total_drive_time_hours": &graphql.Field{Type: graphql.Float},
			"days_needed":            &graphql.Field{Type: graphql.Int},
			"segments":               &graphql.Field{Type: graphql.NewList(segmentType)},
			"candidate_campsites":    &graphql.Field{Type: graphql.NewList(campsiteType)},
			"route_geometry":         &graphql.Field{Type: graphql.NewList(coordinateType)},
			"routing_source":         &graphql.Field{Type: graphql.String},
			"created_at": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if plan, ok := p.Source.(*domain.TripPlan); ok {
						return plan.CreatedAt.Format(time.RFC3339), nil
					}
					return nil, nil
				},
			},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"name":     &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: coordinateType},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"planTrip": &graphql.Field{
				Type:        tripPlanType,
				Description: "Plan a multi-day trip with overnight campsite suggestions",
				Args: graphql.FieldConfigArgument{
					"start":           &graphql.ArgumentConfig{Type: graphql.NewNonNull(coordinateInput)},
					"destination":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(coordinateInput)},
					"maxDetourMiles":  &graphql.ArgumentConfig{Type: graphql.Float},
					"dailyDriveHours": &graphql.ArgumentConfig{Type: graphql.Float},
					"campsiteTypes":   &graphql.ArgumentConfig{Type: graphql.NewList(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					req := deps.Planner.NewRequest(coordinateArg(p.Args["start"]), coordinateArg(p.Args["destination"]))
					if v, ok := p.Args["maxDetourMiles"].(float64); ok {
						req.MaxDetourMiles = v
					}
					if v, ok := p.Args["dailyDriveHours"].(float64); ok {
						req.DailyDriveHours = v
					}
					if raw, ok := p.Args["campsiteTypes"].([]interface{}); ok {
						req.CampsiteTypes = req.CampsiteTypes[:0]
						for _, t := range raw {
							if s, ok := t.(string); ok {
								req.CampsiteTypes = append(req.CampsiteTypes, domain.CampsiteCategory(s))
							}
						}
					}
					return deps.Planner.PlanTrip(p.Context, req)
				},
			},
			"campsite": &graphql.Field{
				Type:        campsiteType,
				Description: "Get a campsite by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Campsites.GetByID(p.Context, p.Args["id"].(string))
				},
			},
			"campsitesNearby": &graphql.Field{
				Type:        graphql.NewList(campsiteType),
				Description: "Find campsites near a location, nearest first",
				Args: graphql.FieldConfigArgument{
					"lat":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius":    &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 50.0},
					"type":      &graphql.ArgumentConfig{Type: graphql.String},
					"minRating": &graphql.ArgumentConfig{Type: graphql.Float},
					"limit":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					f := usecases.CampsiteFilter{
						Center:      domain.Coordinate{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)},
						RadiusMiles: p.Args["radius"].(float64),
					}
					if t, ok := p.Args["type"].(string); ok {
						f.Category = domain.CampsiteCategory(t)
					}
					if r, ok := p.Args["minRating"].(float64); ok {
						f.MinRating = r
					}
					sites, err := deps.Campsites.Search(p.Context, f)
					if err != nil {
						return nil, err
					}
					page, _ := paginate(sites, 0, p.Args["limit"].(int))
					return page, nil
				},
			},
			"geocode": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Resolve a place name to coordinates",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 5},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Geocode.Resolve(p.Context, p.Args["query"].(string), p.Args["limit"].(int))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func coordinateArg(v interface{}) domain.Coordinate {
	m, _ := v.(map[string]interface{})
	lat, _ := m["lat"].(float64)
	lon, _ := m["lon"].(float64)
	return domain.Coordinate{Lat: lat, Lon: lon}
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// Programming error in the schema definition.
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
