package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samirrijal/overland/internal/core/domain"
	"github.com/samirrijal/overland/internal/core/ports"
	"github.com/samirrijal/overland/internal/pkg/metrics"
)

const geocodeCacheTTL = 86400

// GeocodeService resolves place names into coordinates.
type GeocodeService struct {
	geocoder ports.GeocodeProvider
	cache    ports.CacheService
}

// NewGeocodeService creates a new GeocodeService.
func NewGeocodeService(geocoder ports.GeocodeProvider, cache ports.CacheService) *GeocodeService {
	return &GeocodeService{geocoder: geocoder, cache: cache}
}

// Resolve returns up to limit places matching text.
func (s *GeocodeService) Resolve(ctx context.Context, text string, limit int) ([]domain.Place, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &domain.ValidationError{Field: "q", Message: "must not be empty"}
	}
	if limit <= 0 || limit > 10 {
		limit = 5
	}

	cacheKey := fmt.Sprintf("geocode:%s:%d", strings.ToLower(text), limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var places []domain.Place
			if err := json.Unmarshal(data, &places); err == nil {
				metrics.CacheHits.WithLabelValues("geocode").Inc()
				return places, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("geocode").Inc()
	}

	places, err := s.geocoder.Resolve(ctx, text, limit)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", text, err)
	}

	// Place names rarely change; cache for a day.
	if s.cache != nil {
		if data, err := json.Marshal(places); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, geocodeCacheTTL)
		}
	}

	return places, nil
}
