package domain

import (
	"context"
	"time"
)

// Repository defines the interface for catalog override persistence.
type Repository interface {
	// SaveCatalogEntry inserts or replaces the override for (table, category).
	SaveCatalogEntry(ctx context.Context, entry *CatalogEntry) error

	// GetCatalogEntry returns one override or an error wrapping ErrNotFound.
	GetCatalogEntry(ctx context.Context, table string, category CategoryKey) (*CatalogEntry, error)

	// ListCatalogEntries returns overrides for a table, or every table when table is empty.
	ListCatalogEntries(ctx context.Context, table string) ([]*CatalogEntry, error)

	// DeleteCatalogEntry removes an override.
	DeleteCatalogEntry(ctx context.Context, table string, category CategoryKey) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string `env:"DRIVER"`

	// SQLite specific
	SQLitePath string `env:"SQLITE_PATH"`

	// PostgreSQL specific
	PostgresHost     string `env:"POSTGRES_HOST"`
	PostgresPort     int    `env:"POSTGRES_PORT"`
	PostgresUser     string `env:"POSTGRES_USER"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresDB       string `env:"POSTGRES_DB"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE"`

	// Connection pool settings
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME"`
}
