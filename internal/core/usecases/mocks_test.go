package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/overland/internal/core/domain"
	"github.com/samirrijal/overland/internal/core/ports"
)

// --- Mock RouteProvider ---

type mockRouteProvider struct {
	fetchFn func(ctx context.Context, start, end domain.Coordinate) (*domain.RouteSummary, error)
	calls   int
}

func (m *mockRouteProvider) FetchRoute(ctx context.Context, start, end domain.Coordinate) (*domain.RouteSummary, error) {
	m.calls++
	if m.fetchFn != nil {
		return m.fetchFn(ctx, start, end)
	}
	return nil, ports.ErrRouteUnavailable
}

// --- Mock CampsiteProvider ---

type mockCampsiteProvider struct {
	mu       sync.Mutex
	searchFn func(ctx context.Context, q ports.CampsiteQuery) ([]domain.Campsite, error)
	getFn    func(ctx context.Context, id string) (*domain.Campsite, error)
	queries  []ports.CampsiteQuery
}

func (m *mockCampsiteProvider) Search(ctx context.Context, q ports.CampsiteQuery) ([]domain.Campsite, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return nil, nil
}

func (m *mockCampsiteProvider) GetByID(ctx context.Context, id string) (*domain.Campsite, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockCampsiteProvider) Name() string { return "mock" }

// --- Mock GeocodeProvider ---

type mockGeocoder struct {
	resolveFn func(ctx context.Context, text string, limit int) ([]domain.Place, error)
	calls     int
}

func (m *mockGeocoder) Resolve(ctx context.Context, text string, limit int) ([]domain.Place, error) {
	m.calls++
	if m.resolveFn != nil {
		return m.resolveFn(ctx, text, limit)
	}
	return nil, nil
}

// --- In-memory CacheService ---

var errCacheMiss = errors.New("cache miss")

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu        sync.Mutex
	published []*domain.TripPlan
	err       error
}

func (m *mockPublisher) PublishTripPlanned(ctx context.Context, plan *domain.TripPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, plan)
	return m.err
}

func rating(v float64) *float64 { return &v }
