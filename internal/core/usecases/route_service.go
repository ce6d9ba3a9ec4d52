package usecases

import (
	"context"
	"log/slog"

	"github.com/samirrijal/overland/internal/core/domain"
	"github.com/samirrijal/overland/internal/core/ports"
	"github.com/samirrijal/overland/internal/pkg/geospatial"
	"github.com/samirrijal/overland/internal/pkg/logging"
)

// waypointRadiusMiles bounds the campsite search around the route midpoint.
const waypointRadiusMiles = 30.0

// RouteService suggests campsite waypoints for a direct route.
type RouteService struct {
	campsites ports.CampsiteProvider
}

// NewRouteService creates a new RouteService.
func NewRouteService(campsites ports.CampsiteProvider) *RouteService {
	return &RouteService{campsites: campsites}
}

// Optimize returns the direct distance from start to end and, when
// includeCampsites is set, the best rated accessible campsite near the
// midpoint as a waypoint. The detour is counted as there and back.
func (s *RouteService) Optimize(ctx context.Context, start, end domain.Coordinate, includeCampsites bool) (*domain.OptimizedRoute, error) {
	if err := start.Validate("start"); err != nil {
		return nil, err
	}
	if err := end.Validate("end"); err != nil {
		return nil, err
	}

	direct := geospatial.Distance(start, end)
	out := &domain.OptimizedRoute{
		DirectDistanceMiles: round1(direct),
		Waypoints:           []domain.Waypoint{},
	}

	added := 0.0
	if includeCampsites {
		mid := geospatial.Interpolate(start, end, 0.5)
		sites, err := s.campsites.Search(ctx, ports.CampsiteQuery{
			Center:      mid,
			RadiusMiles: waypointRadiusMiles,
			Hint:        domain.RouteGeometry{start, mid},
		})
		if err != nil {
			logging.FromContext(ctx).Warn("waypoint campsite lookup failed", slog.Any("error", err))
		}

		var best *domain.Campsite
		for i := range sites {
			c := &sites[i]
			if !c.VehicleAccessible || c.Rating == nil {
				continue
			}
			if best == nil || *c.Rating > *best.Rating {
				best = c
			}
		}
		if best != nil {
			detour := best.DistanceMiles * 2
			added += detour
			out.Waypoints = append(out.Waypoints, domain.Waypoint{
				Campsite:           *best,
				AddedDistanceMiles: round1(detour),
			})
		}
	}

	out.TotalWithWaypoints = round1(direct + added)
	return out, nil
}
