// Package bootstrap builds the adapters shared by the service binaries
// from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samirrijal/overland/internal/adapters/campsites"
	"github.com/samirrijal/overland/internal/adapters/mockdata"
	natsadapter "github.com/samirrijal/overland/internal/adapters/nats"
	"github.com/samirrijal/overland/internal/adapters/nominatim"
	"github.com/samirrijal/overland/internal/adapters/osrm"
	"github.com/samirrijal/overland/internal/adapters/postgres"
	"github.com/samirrijal/overland/internal/adapters/ridb"
	"github.com/samirrijal/overland/internal/adapters/valkey"
	"github.com/samirrijal/overland/internal/core/ports"
	"github.com/samirrijal/overland/internal/core/usecases"
	"github.com/samirrijal/overland/internal/pkg/config"
)

// Services holds the outbound adapters. Cache, Publisher and DB are nil
// when the backing service is disabled or unreachable.
type Services struct {
	Routes    ports.RouteProvider
	Campsites ports.CampsiteProvider
	Geocoder  ports.GeocodeProvider
	Cache     *valkey.Cache
	Publisher *natsadapter.Publisher
	DB        *postgres.DB

	cfg *config.Config
}

// Build connects every adapter named by cfg. Optional backends (cache, NATS)
// degrade to nil with a warning; the database is required only when enabled.
func Build(ctx context.Context, cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		s.DB = db
	}

	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, caching disabled", "addr", cfg.Valkey.Addr, "error", err)
	} else {
		s.Cache = cache
	}

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, trip events disabled", "url", cfg.NATS.URL, "error", err)
	} else {
		s.Publisher = pub
	}

	providers, err := CampsiteSources(cfg, s.DB)
	if err != nil {
		s.Close()
		return nil, err
	}
	chain := campsites.NewChain(providers...)
	slog.Info("campsite sources configured", "chain", chain.Name())

	s.Campsites = chain
	s.Routes = osrm.New(cfg.Routing.BaseURL, cfg.Routing.Profile, cfg.Routing.Timeout)
	s.Geocoder = nominatim.New(cfg.Geocoding.BaseURL, cfg.Geocoding.UserAgent, cfg.Geocoding.Timeout)
	return s, nil
}

// CampsiteSources returns one provider per configured source, in order.
// RIDB is skipped without an API key.
func CampsiteSources(cfg *config.Config, db *postgres.DB) ([]ports.CampsiteProvider, error) {
	var out []ports.CampsiteProvider
	for _, src := range cfg.Campsites.Sources {
		switch src {
		case config.SourceRIDB:
			if cfg.Campsites.RIDB.APIKey == "" {
				slog.Warn("campsites.ridb.api_key not set, skipping ridb source")
				continue
			}
			r := cfg.Campsites.RIDB
			out = append(out, ridb.New(r.BaseURL, r.APIKey, r.Timeout))
		case config.SourceCatalog:
			if db == nil {
				return nil, fmt.Errorf("campsite source %q requires a database", src)
			}
			out = append(out, postgres.NewCampsiteRepo(db))
		case config.SourceMockData:
			out = append(out, mockdata.New())
		default:
			return nil, fmt.Errorf("unknown campsite source %q", src)
		}
	}
	if len(out) == 0 {
		slog.Warn("no usable campsite source configured, falling back to mock data")
		out = append(out, mockdata.New())
	}
	return out, nil
}

// CacheService returns the cache as a port, or nil when there is none.
func (s *Services) CacheService() ports.CacheService {
	if s.Cache == nil {
		return nil
	}
	return s.Cache
}

// EventPublisher returns the publisher as a port, or nil when there is none.
func (s *Services) EventPublisher() ports.EventPublisher {
	if s.Publisher == nil {
		return nil
	}
	return s.Publisher
}

// PlannerConfig maps the planner section of the configuration.
func PlannerConfig(cfg *config.Config) usecases.PlannerConfig {
	pc := usecases.DefaultPlannerConfig()
	pc.DefaultMaxDetourMiles = cfg.Planner.DefaultMaxDetourMiles
	pc.DefaultDailyDriveHours = cfg.Planner.DefaultDailyDriveHours
	pc.FallbackSpeedMPH = cfg.Planner.FallbackSpeedMPH
	if cfg.Planner.MaxDays > 0 {
		pc.MaxDays = cfg.Planner.MaxDays
	}
	if cfg.Planner.LookupConcurrency > 0 {
		pc.LookupConcurrency = cfg.Planner.LookupConcurrency
	}
	return pc
}

// Planner builds the trip planner over the connected adapters.
func (s *Services) Planner() *usecases.TripPlanner {
	return usecases.NewTripPlanner(s.Routes, s.Campsites, s.CacheService(), s.EventPublisher(), PlannerConfig(s.cfg))
}

// Close releases every connection.
func (s *Services) Close() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Cache != nil {
		s.Cache.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}
