package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"

	"github.com/samirrijal/overland/internal/adapters/http"
	natsadapter "github.com/samirrijal/overland/internal/adapters/nats"
	"github.com/samirrijal/overland/internal/bootstrap"
	"github.com/samirrijal/overland/internal/core/usecases"
	"github.com/samirrijal/overland/internal/pkg/config"
	"github.com/samirrijal/overland/internal/pkg/logging"
	"github.com/samirrijal/overland/internal/pkg/metrics"
	"github.com/samirrijal/overland/internal/pkg/telemetry"
	"github.com/samirrijal/overland/internal/workflows"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load() // optional .env for local runs

	cfg, err := config.Load("overland-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup("overland-api", cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	svc, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer svc.Close()

	if svc.DB != nil {
		go reportPoolStats(ctx, svc)
	}

	// Separate connection for the WebSocket relay.
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	deps := &http.Dependencies{
		Planner:    svc.Planner(),
		Campsites:  usecases.NewCampsiteService(svc.Campsites, svc.CacheService()),
		Routes:     usecases.NewRouteService(svc.Campsites),
		Geocode:    usecases.NewGeocodeService(svc.Geocoder, svc.CacheService()),
		NATS:       natsConn,
		RoutingURL: cfg.Routing.BaseURL,
		Version:    version,
	}
	if svc.DB != nil {
		deps.DB = svc.DB
	}
	if svc.Cache != nil {
		deps.Cache = svc.Cache
	}

	if cfg.Temporal.Enabled {
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
			Logger:    tlog.NewStructuredLogger(slog.Default()),
		})
		if err != nil {
			slog.Warn("temporal unavailable, async planning disabled", "error", err)
		} else {
			defer tc.Close()
			deps.Workflows = workflows.NewRunner(tc, cfg.Temporal.TaskQueue)
		}
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Overland Trip Planner",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", version)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func reportPoolStats(ctx context.Context, svc *bootstrap.Services) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(svc.DB.Pool.Stat())
		}
	}
}
