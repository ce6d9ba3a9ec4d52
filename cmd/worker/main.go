package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/overland/internal/bootstrap"
	"github.com/samirrijal/overland/internal/pkg/config"
	"github.com/samirrijal/overland/internal/pkg/logging"
	"github.com/samirrijal/overland/internal/pkg/telemetry"
	"github.com/samirrijal/overland/internal/workflows"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("overland-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("overland-worker", cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

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

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.TripPlanWorkflow)
	w.RegisterActivity(&workflows.TripActivities{Planner: svc.Planner()})

	slog.Info("trip planning worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
