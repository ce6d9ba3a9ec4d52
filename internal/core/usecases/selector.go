package usecases

import (
	"context"
	"log/slog"
	"sort"

	"github.com/samirrijal/overland/internal/core/domain"
	"github.com/samirrijal/overland/internal/core/ports"
	"github.com/samirrijal/overland/internal/pkg/logging"
)

// SelectCampsite picks the overnight stop for a day. Vehicle-accessible sites
// always win; among them the highest rating wins, with a missing rating
// ranked as 0 and ties kept in provider order. If nothing is accessible the
// first candidate in provider order is returned. Returns nil for no candidates.
func SelectCampsite(candidates []domain.Campsite) *domain.Campsite {
	if len(candidates) == 0 {
		return nil
	}

	accessible := make([]domain.Campsite, 0, len(candidates))
	for _, c := range candidates {
		if c.VehicleAccessible {
			accessible = append(accessible, c)
		}
	}

	if len(accessible) == 0 {
		best := candidates[0]
		return &best
	}

	sort.SliceStable(accessible, func(i, j int) bool {
		return accessible[i].RatingOrZero() > accessible[j].RatingOrZero()
	})
	best := accessible[0]
	return &best
}

// CampsiteFinder looks up candidates around a point and selects one of them.
type CampsiteFinder struct {
	provider ports.CampsiteProvider
	types    []domain.CampsiteCategory
}

// NewCampsiteFinder creates a finder over provider. When types is non-empty
// only candidates of those categories are considered.
func NewCampsiteFinder(provider ports.CampsiteProvider, types []domain.CampsiteCategory) *CampsiteFinder {
	return &CampsiteFinder{provider: provider, types: types}
}

// FindNear returns the selected campsite near point and every candidate the
// provider returned for it. A provider failure is logged and reported as no
// candidates; it never fails the caller.
func (f *CampsiteFinder) FindNear(ctx context.Context, point domain.Coordinate, radiusMiles float64, hint domain.RouteGeometry) (*domain.Campsite, []domain.Campsite) {
	candidates, err := f.provider.Search(ctx, ports.CampsiteQuery{
		Center:      point,
		RadiusMiles: radiusMiles,
		Hint:        hint,
	})
	if err != nil {
		logging.FromContext(ctx).Warn("campsite lookup failed",
			slog.String("provider", f.provider.Name()),
			slog.Float64("lat", point.Lat),
			slog.Float64("lon", point.Lon),
			slog.Any("error", err),
		)
		return nil, nil
	}

	candidates = filterCategories(candidates, f.types)
	return SelectCampsite(candidates), candidates
}

func filterCategories(in []domain.Campsite, types []domain.CampsiteCategory) []domain.Campsite {
	if len(types) == 0 {
		return in
	}
	out := make([]domain.Campsite, 0, len(in))
	for _, c := range in {
		for _, t := range types {
			if c.Category == t {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// dedupeCampsites keeps the first occurrence of each ID, preserving order.
func dedupeCampsites(in []domain.Campsite) []domain.Campsite {
	seen := make(map[string]struct{}, len(in))
	out := make([]domain.Campsite, 0, len(in))
	for _, c := range in {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}
