package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/overland/internal/core/domain"
	"github.com/samirrijal/overland/internal/core/usecases"
	"github.com/samirrijal/overland/internal/workflows"
)

// Pinger is a backing service the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TripWorkflows runs trip planning asynchronously.
type TripWorkflows interface {
	Start(ctx context.Context, req domain.TripRequest) (string, error)
	Result(ctx context.Context, id string) (*domain.TripPlan, workflows.Status, error)
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Planner   *usecases.TripPlanner
	Campsites *usecases.CampsiteService
	Routes    *usecases.RouteService
	Geocode   *usecases.GeocodeService
	// Workflows is nil when Temporal is disabled.
	Workflows TripWorkflows
	NATS      *nats.Conn
	DB        Pinger
	Cache     Pinger
	// RoutingURL is reported by the readiness probe; empty means every
	// plan uses the straight-line fallback.
	RoutingURL string
	Version    string
}
