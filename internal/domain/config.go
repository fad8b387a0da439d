package domain

import "time"

// Config holds the complete Typeboard configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server" envPrefix:"SERVER_"`

	// Profile selects the backing infrastructure
	Profile Profile `json:"profile" env:"PROFILE"`

	// Component configurations
	Repository RepositoryConfig `json:"repository" envPrefix:"DB_"`
	Cache      CacheConfig      `json:"cache" envPrefix:"CACHE_"`
	EventBus   EventBusConfig   `json:"eventBus" envPrefix:"BUS_"`

	// Widgets
	Dashboard DashboardConfig `json:"dashboard" envPrefix:"DASHBOARD_"`
	Session   SessionConfig   `json:"session" envPrefix:"SESSION_"`

	// Observability
	Logging LoggingConfig `json:"logging" envPrefix:"LOG_"`
	Tracing TracingConfig `json:"tracing" envPrefix:"TRACING_"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `json:"host" env:"HOST"`
	Port         int           `json:"port" env:"PORT"`
	ReadTimeout  time.Duration `json:"readTimeout" env:"READ_TIMEOUT"`
	WriteTimeout time.Duration `json:"writeTimeout" env:"WRITE_TIMEOUT"`
}

// DashboardConfig holds synthetic dashboard settings.
type DashboardConfig struct {
	// Seed feeds the incident generator; equal seeds give equal datasets
	Seed uint64 `json:"seed" env:"SEED"`

	// ExportLimit is the number of CSV exports a session may make per ExportWindow
	ExportLimit  int64         `json:"exportLimit" env:"EXPORT_LIMIT"`
	ExportWindow time.Duration `json:"exportWindow" env:"EXPORT_WINDOW"`
}

// SessionConfig holds visitor session settings.
type SessionConfig struct {
	TTL time.Duration `json:"ttl" env:"TTL"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level" env:"LEVEL"`   // debug, info, warn, error
	Format string `json:"format" env:"FORMAT"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `json:"enabled" env:"ENABLED"`
	ServiceName string `json:"serviceName" env:"SERVICE_NAME"`
}

// Profile represents a deployment profile.
type Profile string

const (
	// ProfileStandalone runs on SQLite, an in-process cache and channels
	ProfileStandalone Profile = "standalone"

	// ProfileCluster runs on PostgreSQL, Redis and NATS
	ProfileCluster Profile = "cluster"
)

// DefaultConfig returns the standalone configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Profile: ProfileStandalone,
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./typeboard.db",
		},
		Cache: CacheConfig{
			Type:             "memory",
			LocalMaxSize:     10000,
			LocalTTL:         5 * time.Minute,
			SharedNamespaces: []string{SessionNamespace},
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 100,
		},
		Dashboard: DashboardConfig{
			Seed:         42,
			ExportLimit:  20,
			ExportWindow: time.Minute,
		},
		Session: SessionConfig{
			TTL: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "typeboard",
		},
	}
}

// ClusterConfig returns a configuration for multi-node deployments.
// Catalog overrides fan out over NATS; sessions and throttle counters live in Redis.
func ClusterConfig() *Config {
	cfg := DefaultConfig()
	cfg.Profile = ProfileCluster
	cfg.Repository = RepositoryConfig{
		Driver:       "postgres",
		PostgresHost: "localhost",
		PostgresPort: 5432,
		PostgresDB:   "typeboard",
	}
	cfg.Cache = CacheConfig{
		Type:             "redis",
		RedisAddr:        "localhost:6379",
		EnableTwoPhase:   true,
		LocalMaxSize:     1000,
		LocalTTL:         30 * time.Second,
		SharedNamespaces: []string{SessionNamespace},
	}
	cfg.EventBus = EventBusConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5 * time.Second,
	}
	cfg.Tracing.Enabled = true
	return cfg
}
