package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Campsites CampsitesConfig `mapstructure:"campsites"`
	Geocoding GeocodingConfig `mapstructure:"geocoding"`
	Planner   PlannerConfig   `mapstructure:"planner"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RoutingConfig configures the OSRM route provider.
type RoutingConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Profile string        `mapstructure:"profile"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CampsitesConfig selects and configures campsite sources. Sources are
// queried in order; the first non-empty answer wins.
type CampsitesConfig struct {
	Sources []string   `mapstructure:"sources"`
	RIDB    RIDBConfig `mapstructure:"ridb"`
}

type RIDBConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type GeocodingConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// PlannerConfig holds planning defaults.
type PlannerConfig struct {
	DefaultMaxDetourMiles  float64 `mapstructure:"default_max_detour_miles"`
	DefaultDailyDriveHours float64 `mapstructure:"default_daily_drive_hours"`
	FallbackSpeedMPH       float64 `mapstructure:"fallback_speed_mph"`
	// MaxDays caps how many driving days one plan may need.
	MaxDays int `mapstructure:"max_days"`
	// LookupConcurrency bounds the parallel campsite searches per plan.
	LookupConcurrency int `mapstructure:"lookup_concurrency"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TemporalConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Campsite source names accepted in campsites.sources.
const (
	SourceRIDB     = "ridb"
	SourceCatalog  = "catalog"
	SourceMockData = "mock"
)

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 35)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("routing.base_url", "https://router.project-osrm.org")
	v.SetDefault("routing.profile", "driving")
	v.SetDefault("routing.timeout", 15*time.Second)
	v.SetDefault("campsites.sources", []string{SourceRIDB, SourceMockData})
	v.SetDefault("campsites.ridb.base_url", "https://ridb.recreation.gov/api/v1")
	v.SetDefault("campsites.ridb.api_key", "")
	v.SetDefault("campsites.ridb.timeout", 10*time.Second)
	v.SetDefault("geocoding.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoding.user_agent", "OverlandTripPlanner/1.0")
	v.SetDefault("geocoding.timeout", 10*time.Second)
	v.SetDefault("planner.default_max_detour_miles", 25.0)
	v.SetDefault("planner.default_daily_drive_hours", 8.0)
	v.SetDefault("planner.fallback_speed_mph", 45.0)
	v.SetDefault("planner.max_days", 30)
	v.SetDefault("planner.lookup_concurrency", 4)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "overland")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "overland")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("temporal.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "trip-planning")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: OVERLAND_ROUTING_BASE_URL → routing.base_url
	v.SetEnvPrefix("OVERLAND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Routing.BaseURL == "" {
		errs = append(errs, "routing.base_url is required")
	}
	if c.Routing.Timeout <= 0 {
		errs = append(errs, "routing.timeout must be positive")
	}
	if len(c.Campsites.Sources) == 0 {
		errs = append(errs, "campsites.sources must list at least one source")
	}
	for _, s := range c.Campsites.Sources {
		switch s {
		case SourceRIDB:
			if c.Campsites.RIDB.BaseURL == "" {
				errs = append(errs, "campsites.ridb.base_url is required when ridb is a source")
			}
		case SourceCatalog:
			if !c.Database.Enabled {
				errs = append(errs, "database.enabled must be true when catalog is a source")
			}
		case SourceMockData:
		default:
			errs = append(errs, fmt.Sprintf("unknown campsite source %q", s))
		}
	}
	if c.Planner.DefaultMaxDetourMiles <= 0 {
		errs = append(errs, "planner.default_max_detour_miles must be positive")
	}
	if c.Planner.DefaultDailyDriveHours <= 0 || c.Planner.DefaultDailyDriveHours > 24 {
		errs = append(errs, "planner.default_daily_drive_hours must be in (0, 24]")
	}
	if c.Planner.FallbackSpeedMPH <= 0 {
		errs = append(errs, "planner.fallback_speed_mph must be positive")
	}
	if c.Planner.MaxDays < 1 || c.Planner.MaxDays > 366 {
		errs = append(errs, fmt.Sprintf("planner.max_days must be 1-366, got %d", c.Planner.MaxDays))
	}
	if c.Planner.LookupConcurrency < 1 {
		errs = append(errs, "planner.lookup_concurrency must be at least 1")
	}
	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	}
	if c.Temporal.Enabled && c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
