package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/samirrijal/overland/internal/core/domain"
	"github.com/samirrijal/overland/internal/core/ports"
	"github.com/samirrijal/overland/internal/pkg/metrics"
)

const (
	defaultSearchRadiusMiles = 50.0
	maxSearchRadiusMiles     = 250.0
	campsiteCacheTTL         = 600
)

// CampsiteFilter narrows a campsite search.
type CampsiteFilter struct {
	Center      domain.Coordinate
	RadiusMiles float64
	// Category is optional; empty matches every category.
	Category domain.CampsiteCategory
	// MinRating excludes unrated sites when set.
	MinRating float64
}

// CampsiteService handles campsite lookups outside of trip planning.
type CampsiteService struct {
	provider ports.CampsiteProvider
	cache    ports.CacheService
}

// NewCampsiteService creates a new CampsiteService.
func NewCampsiteService(provider ports.CampsiteProvider, cache ports.CacheService) *CampsiteService {
	return &CampsiteService{provider: provider, cache: cache}
}

// Search returns campsites around f.Center sorted by distance, nearest first.
func (s *CampsiteService) Search(ctx context.Context, f CampsiteFilter) ([]domain.Campsite, error) {
	if err := f.Center.Validate("center"); err != nil {
		return nil, err
	}
	if f.RadiusMiles <= 0 {
		f.RadiusMiles = defaultSearchRadiusMiles
	}
	if f.RadiusMiles > maxSearchRadiusMiles {
		return nil, &domain.ValidationError{Field: "radius", Message: fmt.Sprintf("must not exceed %.0f miles", maxSearchRadiusMiles)}
	}
	if f.Category != "" && !f.Category.Valid() {
		return nil, &domain.ValidationError{Field: "type", Message: fmt.Sprintf("unknown campsite type %q", f.Category)}
	}
	if f.MinRating < 0 || f.MinRating > 5 {
		return nil, &domain.ValidationError{Field: "min_rating", Message: "must be between 0 and 5"}
	}

	sites, err := s.provider.Search(ctx, ports.CampsiteQuery{Center: f.Center, RadiusMiles: f.RadiusMiles})
	if err != nil {
		return nil, fmt.Errorf("search campsites: %w", err)
	}

	out := make([]domain.Campsite, 0, len(sites))
	for _, c := range sites {
		if f.Category != "" && c.Category != f.Category {
			continue
		}
		if f.MinRating > 0 && (c.Rating == nil || *c.Rating < f.MinRating) {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceMiles < out[j].DistanceMiles
	})

	cacheCampsites(ctx, s.cache, out)
	return out, nil
}

// GetByID returns a single campsite or domain.ErrNotFound.
func (s *CampsiteService) GetByID(ctx context.Context, id string) (*domain.Campsite, error) {
	if id == "" {
		return nil, &domain.ValidationError{Field: "id", Message: "must not be empty"}
	}

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, campsiteCacheKey(id)); err == nil {
			var site domain.Campsite
			if err := json.Unmarshal(data, &site); err == nil {
				metrics.CacheHits.WithLabelValues("campsite").Inc()
				return &site, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("campsite").Inc()
	}

	site, err := s.provider.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cacheCampsites(ctx, s.cache, []domain.Campsite{*site})
	return site, nil
}

func campsiteCacheKey(id string) string {
	return "campsite:id:" + id
}

// cacheCampsites stores each site by ID so details resolve after a search.
func cacheCampsites(ctx context.Context, cache ports.CacheService, sites []domain.Campsite) {
	if cache == nil {
		return
	}
	for i := range sites {
		if data, err := json.Marshal(sites[i]); err == nil {
			_ = cache.Set(ctx, campsiteCacheKey(sites[i].ID), data, campsiteCacheTTL)
		}
	}
}
