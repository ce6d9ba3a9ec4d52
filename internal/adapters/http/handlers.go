package http

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/overland/internal/core/domain"
	"github.com/samirrijal/overland/internal/core/usecases"
)

// RootHandler describes the service.
func RootHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Overland Trip Planner API",
			"version": deps.Version,
			"docs":    "/docs",
		})
	}
}

// planTripBody mirrors domain.TripRequest with optional fields so that
// omitted values pick up the configured defaults while explicit zeros are
// still rejected.
type planTripBody struct {
	Start           *domain.Coordinate        `json:"start"`
	Destination     *domain.Coordinate        `json:"destination"`
	MaxDetourMiles  *float64                  `json:"max_detour_miles"`
	DailyDriveHours *float64                  `json:"daily_drive_hours"`
	CampsiteTypes   []domain.CampsiteCategory `json:"campsite_types"`
}

func parseTripRequest(c *fiber.Ctx, planner *usecases.TripPlanner) (domain.TripRequest, error) {
	var body planTripBody
	if err := c.BodyParser(&body); err != nil {
		return domain.TripRequest{}, &domain.ValidationError{Message: "invalid request body"}
	}
	if body.Start == nil {
		return domain.TripRequest{}, &domain.ValidationError{Field: "start", Message: "is required"}
	}
	if body.Destination == nil {
		return domain.TripRequest{}, &domain.ValidationError{Field: "destination", Message: "is required"}
	}

	req := planner.NewRequest(*body.Start, *body.Destination)
	if body.MaxDetourMiles != nil {
		req.MaxDetourMiles = *body.MaxDetourMiles
	}
	if body.DailyDriveHours != nil {
		req.DailyDriveHours = *body.DailyDriveHours
	}
	if body.CampsiteTypes != nil {
		req.CampsiteTypes = body.CampsiteTypes
	}
	return req, usecases.ValidateTripRequest(req)
}

// PlanTripHandler plans a multi-day trip synchronously.
func PlanTripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := parseTripRequest(c, deps.Planner)
		if err != nil {
			return respondError(c, err, "")
		}

		plan, err := deps.Planner.PlanTrip(c.UserContext(), req)
		if err != nil {
			return respondError(c, err, "")
		}
		return c.JSON(plan)
	}
}

// SearchCampsitesHandler searches campsites around lat/lon. The versioned
// route wraps results in a PaginatedResponse; the legacy alias returns the
// bare list.
func SearchCampsitesHandler(deps *Dependencies, paginated bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		center, err := queryCoordinate(c, "lat", "lon")
		if err != nil {
			return respondError(c, err, "")
		}
		radius, err := queryFloat(c, "radius", 0)
		if err != nil {
			return respondError(c, err, "")
		}
		minRating, err := queryFloat(c, "min_rating", 0)
		if err != nil {
			return respondError(c, err, "")
		}

		sites, err := deps.Campsites.Search(c.UserContext(), usecases.CampsiteFilter{
			Center:      center,
			RadiusMiles: radius,
			Category:    domain.CampsiteCategory(c.Query("type")),
			MinRating:   minRating,
		})
		if err != nil {
			return respondError(c, err, "")
		}

		if !paginated {
			return c.JSON(sites)
		}
		offset, limit := pageParams(c, 50, 200)
		page, pg := paginate(sites, offset, limit)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// GetCampsiteHandler returns a single campsite by ID.
func GetCampsiteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Params("id"))
		if id == "" {
			return errBadRequest(c, "campsite id is required")
		}
		site, err := deps.Campsites.GetByID(c.UserContext(), id)
		if err != nil {
			return respondError(c, err, "campsite not found")
		}
		return c.JSON(site)
	}
}

// OptimizeRouteHandler suggests a campsite detour between two points.
func OptimizeRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start, err := queryCoordinate(c, "start_lat", "start_lon")
		if err != nil {
			return respondError(c, err, "")
		}
		end, err := queryCoordinate(c, "end_lat", "end_lon")
		if err != nil {
			return respondError(c, err, "")
		}
		include := true
		if raw := c.Query("include_campsites"); raw != "" {
			include, err = strconv.ParseBool(raw)
			if err != nil {
				return errBadRequest(c, "include_campsites must be a boolean")
			}
		}

		route, err := deps.Routes.Optimize(c.UserContext(), start, end, include)
		if err != nil {
			return respondError(c, err, "")
		}
		return c.JSON(route)
	}
}

// GeocodeHandler resolves a free-text place name.
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := c.Query("q")
		if len(q) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		places, err := deps.Geocode.Resolve(c.UserContext(), q, c.QueryInt("limit", 0))
		if err != nil {
			return respondError(c, err, "")
		}
		return c.JSON(places)
	}
}

// queryCoordinate reads a required coordinate pair from the query string.
func queryCoordinate(c *fiber.Ctx, latKey, lonKey string) (domain.Coordinate, error) {
	lat, err := queryBounded(c, latKey, 90)
	if err != nil {
		return domain.Coordinate{}, err
	}
	lon, err := queryBounded(c, lonKey, 180)
	if err != nil {
		return domain.Coordinate{}, err
	}
	return domain.Coordinate{Lat: lat, Lon: lon}, nil
}

func queryBounded(c *fiber.Ctx, key string, limit float64) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, &domain.ValidationError{Field: key, Message: "is required"}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) {
		return 0, &domain.ValidationError{Field: key, Message: "must be a number"}
	}
	if v < -limit || v > limit {
		return 0, &domain.ValidationError{Field: key, Message: fmt.Sprintf("must be between %g and %g", -limit, limit)}
	}
	return v, nil
}

// queryFloat reads an optional float, returning def when absent.
func queryFloat(c *fiber.Ctx, key string, def float64) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &domain.ValidationError{Field: key, Message: "must be a number"}
	}
	return v, nil
}
