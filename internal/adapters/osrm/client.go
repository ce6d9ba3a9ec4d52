// Package osrm implements ports.RouteProvider over the OSRM route service.
package osrm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/overland/internal/core/domain"
	"github.com/samirrijal/overland/internal/core/ports"
	"github.com/samirrijal/overland/internal/pkg/geospatial"
	"github.com/samirrijal/overland/internal/pkg/httpx"
	"github.com/samirrijal/overland/internal/pkg/logging"
	"github.com/samirrijal/overland/internal/pkg/metrics"
	"github.com/samirrijal/overland/internal/pkg/telemetry"
)

const providerName = "osrm"

// minStepMiles drops steps too short to be worth an instruction.
const minStepMiles = 0.1

// Client fetches driving routes from an OSRM server.
type Client struct {
	baseURL string
	profile string
	http    *httpx.Client
}

// New creates an OSRM client. Requests are bounded by timeout.
func New(baseURL, profile string, timeout time.Duration, opts ...httpx.Option) *Client {
	if profile == "" {
		profile = "driving"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: profile,
		http:    httpx.New(timeout, opts...),
	}
}

type routeResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Routes  []route `json:"routes"`
}

type route struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Geometry struct {
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"geometry"`
	Legs []struct {
		Steps []step `json:"steps"`
	} `json:"legs"`
}

type step struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Name     string  `json:"name"`
	Ref      string  `json:"ref"`
	Maneuver struct {
		Type     string `json:"type"`
		Modifier string `json:"modifier"`
	} `json:"maneuver"`
}

// FetchRoute implements ports.RouteProvider. Every failure wraps
// ports.ErrRouteUnavailable.
func (c *Client) FetchRoute(ctx context.Context, start, end domain.Coordinate) (*domain.RouteSummary, error) {
	ctx, span := telemetry.StartSpan(ctx, "osrm.FetchRoute", attribute.String(telemetry.AttrProvider, providerName))
	defer span.End()

	// OSRM takes lon,lat pairs.
	url := fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?overview=full&steps=true&geometries=geojson",
		c.baseURL, c.profile, start.Lon, start.Lat, end.Lon, end.Lat)

	began := time.Now()
	var resp routeResponse
	err := c.http.GetJSON(ctx, url, &resp)
	metrics.ObserveProvider(providerName, began, err)
	if err != nil {
		span.RecordError(err)
		logging.FromContext(ctx).Warn("osrm request failed", slog.Any("error", err))
		return nil, fmt.Errorf("%w: osrm: %v", ports.ErrRouteUnavailable, err)
	}

	return toSummary(&resp)
}

func toSummary(resp *routeResponse) (*domain.RouteSummary, error) {
	if resp.Code != "Ok" {
		return nil, fmt.Errorf("%w: osrm code %q: %s", ports.ErrRouteUnavailable, resp.Code, resp.Message)
	}
	if len(resp.Routes) == 0 {
		return nil, fmt.Errorf("%w: osrm returned no routes", ports.ErrRouteUnavailable)
	}

	r := resp.Routes[0]
	geom := make(domain.RouteGeometry, 0, len(r.Geometry.Coordinates))
	for _, pt := range r.Geometry.Coordinates {
		if len(pt) < 2 {
			return nil, fmt.Errorf("%w: osrm geometry point has %d values", ports.ErrRouteUnavailable, len(pt))
		}
		geom = append(geom, domain.Coordinate{Lat: pt[1], Lon: pt[0]})
	}
	if len(geom) < 2 {
		return nil, fmt.Errorf("%w: osrm geometry has %d points", ports.ErrRouteUnavailable, len(geom))
	}

	directions := make([]domain.DirectionStep, 0)
	for _, leg := range r.Legs {
		for _, s := range leg.Steps {
			miles := geospatial.MetersToMiles(s.Distance)
			if miles <= minStepMiles {
				continue
			}
			directions = append(directions, domain.DirectionStep{
				Instruction:      instruction(s),
				DistanceMiles:    miles,
				DurationHours:    s.Duration / 3600,
				ManeuverKind:     s.Maneuver.Type,
				ManeuverModifier: s.Maneuver.Modifier,
				RoadRef:          s.Ref,
			})
		}
	}

	return &domain.RouteSummary{
		TotalDistanceMiles: geospatial.MetersToMiles(r.Distance),
		TotalDurationHours: r.Duration / 3600,
		Geometry:           geom,
		Directions:         directions,
		Source:             domain.RouteSourceOSRM,
	}, nil
}

// instruction renders a human readable line for one step.
func instruction(s step) string {
	road := s.Name
	if road == "" {
		road = s.Ref
	}
	mod := s.Maneuver.Modifier

	var b strings.Builder
	switch s.Maneuver.Type {
	case "depart":
		b.WriteString("Head")
		if mod != "" {
			b.WriteString(" " + mod)
		}
	case "arrive":
		return "Arrive at destination"
	case "turn", "end of road", "fork", "ramp", "on ramp", "off ramp":
		b.WriteString("Turn")
		if mod != "" {
			b.WriteString(" " + mod)
		}
	case "merge":
		b.WriteString("Merge")
		if mod != "" {
			b.WriteString(" " + mod)
		}
	case "roundabout", "rotary":
		b.WriteString("Enter the roundabout")
	case "continue", "new name":
		b.WriteString("Continue")
		if mod != "" && mod != "straight" {
			b.WriteString(" " + mod)
		}
	default:
		if s.Maneuver.Type == "" {
			b.WriteString("Continue")
		} else {
			b.WriteString(strings.ToUpper(s.Maneuver.Type[:1]) + s.Maneuver.Type[1:])
		}
		if mod != "" {
			b.WriteString(" " + mod)
		}
	}
	if road != "" {
		b.WriteString(" onto " + road)
	}
	return b.String()
}
