package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/overland/internal/adapters/postgres"
	"github.com/samirrijal/overland/internal/adapters/ridb"
	"github.com/samirrijal/overland/internal/core/domain"
	"github.com/samirrijal/overland/internal/core/ports"
	"github.com/samirrijal/overland/internal/pkg/config"
	"github.com/samirrijal/overland/internal/pkg/logging"
)

// Manifest lists the regions whose campsites are copied into the catalog.
type Manifest struct {
	Source  string   `json:"source"`
	Regions []Region `json:"regions"`
}

// Region is one search circle.
type Region struct {
	Name        string            `json:"name"`
	Center      domain.Coordinate `json:"center"`
	RadiusMiles float64           `json:"radius_miles"`
	Limit       int               `json:"limit"`
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("overland-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("overland-ingestor", cfg.Log.Level, cfg.Log.Format)

	if cfg.Campsites.RIDB.APIKey == "" {
		log.Fatal("campsites.ridb.api_key is required (OVERLAND_CAMPSITES_RIDB_API_KEY)")
	}

	manifestPath := "regions.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}
	manifest, err := loadManifest(manifestPath)
	if err != nil {
		log.Fatalf("manifest: %v", err)
	}

	// Optional second arg: comma-separated region names.
	only := map[string]bool{}
	if len(os.Args) > 2 {
		for _, s := range strings.Split(os.Args[2], ",") {
			only[strings.TrimSpace(s)] = true
		}
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	r := cfg.Campsites.RIDB
	source := ridb.New(r.BaseURL, r.APIKey, r.Timeout)
	repo := postgres.NewCampsiteRepo(db)

	slog.Info("campsite ingestion starting", "regions", len(manifest.Regions), "source", manifest.Source)

	var total atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, region := range manifest.Regions {
		if len(only) > 0 && !only[region.Name] {
			continue
		}
		g.Go(func() error {
			n, err := ingestRegion(gctx, source, repo, region)
			if err != nil {
				// One bad region should not stop the others.
				slog.Error("region ingestion failed", "region", region.Name, "error", err)
				return nil
			}
			total.Add(int64(n))
			slog.Info("region ingested", "region", region.Name, "campsites", n)
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("ingestion complete", "campsites", total.Load())
}

func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, reg := range m.Regions {
		if reg.Name == "" {
			return nil, fmt.Errorf("region %d has no name", i)
		}
		if err := reg.Center.Validate(reg.Name); err != nil {
			return nil, err
		}
		if reg.RadiusMiles <= 0 {
			return nil, fmt.Errorf("region %s: radius_miles must be positive", reg.Name)
		}
	}
	return &m, nil
}

// ingestRegion copies one region from source into the catalog.
func ingestRegion(ctx context.Context, source ports.CampsiteProvider, repo *postgres.CampsiteRepo, reg Region) (int, error) {
	sites, err := source.Search(ctx, ports.CampsiteQuery{
		Center:      reg.Center,
		RadiusMiles: reg.RadiusMiles,
		Limit:       reg.Limit,
	})
	if err != nil {
		return 0, fmt.Errorf("search: %w", err)
	}
	if len(sites) == 0 {
		return 0, nil
	}
	if err := repo.UpsertBatch(ctx, sites); err != nil {
		return 0, fmt.Errorf("upsert: %w", err)
	}
	return len(sites), nil
}
