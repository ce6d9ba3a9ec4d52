package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/samirrijal/overland/internal/adapters/postgres"
	"github.com/samirrijal/overland/internal/core/domain"
	"github.com/samirrijal/overland/internal/pkg/config"
	"github.com/samirrijal/overland/internal/pkg/logging"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|status|seed FILE.json>")
	}
	_ = godotenv.Load()

	cfg, err := config.Load("overland-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("overland-migrate", cfg.Log.Level, "text")

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		if err := db.Migrate(ctx); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		slog.Info("all migrations applied")
	case "status":
		names, err := postgres.Migrations()
		if err != nil {
			log.Fatalf("list migrations: %v", err)
		}
		for _, n := range names {
			fmt.Println(n)
		}
	case "seed":
		if len(os.Args) < 3 {
			log.Fatal("usage: migrate seed FILE.json")
		}
		n, err := seed(ctx, postgres.NewCampsiteRepo(db), os.Args[2])
		if err != nil {
			log.Fatalf("seed: %v", err)
		}
		slog.Info("campsites seeded", "count", n, "file", os.Args[2])
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

// seed loads a JSON array of campsites into the catalog.
func seed(ctx context.Context, repo *postgres.CampsiteRepo, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var sites []domain.Campsite
	if err := json.Unmarshal(data, &sites); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	for i := range sites {
		if sites[i].ID == "" {
			return 0, fmt.Errorf("campsite %d has no id", i)
		}
		if err := sites[i].Location.Validate(sites[i].ID); err != nil {
			return 0, err
		}
		if !sites[i].Category.Valid() {
			return 0, fmt.Errorf("campsite %s: unknown type %q", sites[i].ID, sites[i].Category)
		}
	}
	if err := repo.UpsertBatch(ctx, sites); err != nil {
		return 0, err
	}
	return len(sites), nil
}
