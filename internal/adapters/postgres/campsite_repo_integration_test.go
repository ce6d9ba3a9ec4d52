//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/overland/internal/adapters/postgres"
	"github.com/samirrijal/overland/internal/core/domain"
	"github.com/samirrijal/overland/internal/core/ports"
	"github.com/samirrijal/overland/internal/pkg/config"
)

// setupTestDB connects to the test database and applies migrations.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("overland-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestCampsiteRepo_UpsertSearchGet(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewCampsiteRepo(db)
	ctx := context.Background()

	rating := 4.6
	elevation := 7100
	sites := []domain.Campsite{
		{
			ID: "itest-near", Name: "Aspen Vista Pullout",
			Location: domain.Coordinate{Lat: 35.78, Lon: -105.81},
			Category: domain.CategoryDispersed, Amenities: []string{"fire_ring"},
			Rating: &rating, Elevation: &elevation, VehicleAccessible: true, Source: "itest",
		},
		{
			ID: "itest-far", Name: "Cimarron Canyon",
			Location: domain.Coordinate{Lat: 36.51, Lon: -105.19},
			Category: domain.CategoryCampground, VehicleAccessible: true, Source: "itest",
		},
	}
	if err := repo.UpsertBatch(ctx, sites); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM campsites WHERE source = 'itest'`)
	})

	got, err := repo.Search(ctx, ports.CampsiteQuery{Center: domain.Coordinate{Lat: 35.7, Lon: -105.8}, RadiusMiles: 20})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	found := false
	for _, s := range got {
		if s.ID == "itest-far" {
			t.Error("far site should be outside the radius")
		}
		if s.ID == "itest-near" {
			found = true
			if s.Rating == nil || *s.Rating != 4.6 {
				t.Errorf("rating not round-tripped: %v", s.Rating)
			}
			if s.DistanceMiles <= 0 || s.DistanceMiles > 20 {
				t.Errorf("distance = %v", s.DistanceMiles)
			}
		}
	}
	if !found {
		t.Error("near site not returned")
	}

	site, err := repo.GetByID(ctx, "itest-far")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if site.Rating != nil || site.Elevation != nil {
		t.Errorf("expected NULL rating/elevation, got %v/%v", site.Rating, site.Elevation)
	}

	if _, err := repo.GetByID(ctx, "itest-missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
