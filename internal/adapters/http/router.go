package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/overland/internal/pkg/metrics"
)

const (
	// Planning fans out to routing and one campsite search per day.
	planTimeout  = 30 * time.Second
	queryTimeout = 15 * time.Second
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware(LegacyRoutes))

	app.Get("/", RootHandler(deps))

	// Health & readiness (no timeout)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Post("/trips/plan", timeout.NewWithContext(PlanTripHandler(deps), planTimeout))
	v1.Post("/trips/plan/async", timeout.NewWithContext(StartPlanTripHandler(deps), queryTimeout))
	v1.Get("/trips/plan/async/:id", timeout.NewWithContext(PlanTripResultHandler(deps), queryTimeout))
	v1.Get("/campsites/search", timeout.NewWithContext(SearchCampsitesHandler(deps, true), queryTimeout))
	v1.Get("/campsites/:id", timeout.NewWithContext(GetCampsiteHandler(deps), queryTimeout))
	v1.Get("/route/optimize", timeout.NewWithContext(OptimizeRouteHandler(deps), queryTimeout))
	v1.Get("/geocode", timeout.NewWithContext(GeocodeHandler(deps), queryTimeout))

	// Unversioned aliases, see LegacyRoutes.
	legacy := app.Group("/api")
	legacy.Get("/health", HealthHandler(deps))
	legacy.Post("/trip/plan", timeout.NewWithContext(PlanTripHandler(deps), planTimeout))
	legacy.Get("/campsites/search", timeout.NewWithContext(SearchCampsitesHandler(deps, false), queryTimeout))
	legacy.Get("/campsites/:id", timeout.NewWithContext(GetCampsiteHandler(deps), queryTimeout))
	legacy.Get("/route/optimize", timeout.NewWithContext(OptimizeRouteHandler(deps), queryTimeout))

	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), planTimeout))

	SetupDocs(app)

	if deps.NATS != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
	}
}
