package ports

import (
	"context"
	"errors"

	"github.com/samirrijal/overland/internal/core/domain"
)

// ErrRouteUnavailable marks any routing failure. Callers fall back to a
// straight-line route when they see it.
var ErrRouteUnavailable = errors.New("route unavailable")

// RouteProvider fetches a driving route between two points.
type RouteProvider interface {
	// FetchRoute returns the route summary in miles and hours. Every failure
	// wraps ErrRouteUnavailable.
	FetchRoute(ctx context.Context, start, end domain.Coordinate) (*domain.RouteSummary, error)
}

// CampsiteQuery describes a campsite search around a point.
type CampsiteQuery struct {
	Center      domain.Coordinate
	RadiusMiles float64
	// Hint is the path leading to Center, if known. Offline providers use it
	// to scatter synthetic sites along the route.
	Hint  domain.RouteGeometry
	Limit int
}

// CampsiteProvider searches a campsite source.
type CampsiteProvider interface {
	// Search returns candidates within RadiusMiles of Center, each with
	// DistanceMiles measured from Center.
	Search(ctx context.Context, q CampsiteQuery) ([]domain.Campsite, error)
	// GetByID returns a single campsite or domain.ErrNotFound.
	GetByID(ctx context.Context, id string) (*domain.Campsite, error)
	// Name identifies the source in logs and metrics.
	Name() string
}

// GeocodeProvider resolves free text into named coordinates.
type GeocodeProvider interface {
	Resolve(ctx context.Context, text string, limit int) ([]domain.Place, error)
}
