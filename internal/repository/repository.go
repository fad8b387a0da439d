// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/typeboard/typeboard/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := NewWithDB(db, cfg.Driver)

	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

// NewWithDB wraps an open database. No migrations are run.
func NewWithDB(db *sql.DB, driver string) *SQLRepository {
	return &SQLRepository{
		db:     db,
		driver: driver,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveCatalogEntry inserts or replaces the override for (table, category).
func (r *SQLRepository) SaveCatalogEntry(ctx context.Context, entry *domain.CatalogEntry) error {
	if entry == nil || entry.Table == "" {
		return fmt.Errorf("%w: table is required", ErrInvalidInput)
	}
	if !entry.Category.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidInput, domain.ErrUnknownCategory)
	}
	if entry.Entry.Empty() {
		return fmt.Errorf("%w: entry is empty", ErrInvalidInput)
	}

	payload, err := json.Marshal(entry.Entry)
	if err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}

	now := r.now()

	query := `
		INSERT INTO catalog_entries (
			table_id, category, entry, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(table_id, category) DO UPDATE SET
			entry = excluded.entry,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.ExecContext(ctx, r.rebind(query),
		entry.Table, string(entry.Category), string(payload), now, now,
	); err != nil {
		return err
	}
	entry.UpdatedAt = now
	return nil
}

// GetCatalogEntry retrieves one override.
func (r *SQLRepository) GetCatalogEntry(ctx context.Context, table string, category domain.CategoryKey) (*domain.CatalogEntry, error) {
	if table == "" {
		return nil, fmt.Errorf("%w: table is required", ErrInvalidInput)
	}

	query := `
		SELECT table_id, category, entry, updated_at
		FROM catalog_entries
		WHERE table_id = ? AND category = ?
	`

	e, err := scanEntry(r.db.QueryRowContext(ctx, r.rebind(query), table, string(category)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListCatalogEntries returns overrides for table, or for every table when table is empty.
func (r *SQLRepository) ListCatalogEntries(ctx context.Context, table string) ([]*domain.CatalogEntry, error) {
	query := `
		SELECT table_id, category, entry, updated_at
		FROM catalog_entries
	`
	var args []any
	if table != "" {
		query += ` WHERE table_id = ?`
		args = append(args, table)
	}
	query += ` ORDER BY table_id, category`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.CatalogEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// DeleteCatalogEntry removes an override.
func (r *SQLRepository) DeleteCatalogEntry(ctx context.Context, table string, category domain.CategoryKey) error {
	if table == "" {
		return fmt.Errorf("%w: table is required", ErrInvalidInput)
	}

	query := `
		DELETE FROM catalog_entries
		WHERE table_id = ? AND category = ?
	`

	result, err := r.db.ExecContext(ctx, r.rebind(query), table, string(category))
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*domain.CatalogEntry, error) {
	var e domain.CatalogEntry
	var category, payload string

	if err := row.Scan(&e.Table, &category, &payload, &e.UpdatedAt); err != nil {
		return nil, err
	}

	e.Category = domain.CategoryKey(category)
	if err := json.Unmarshal([]byte(payload), &e.Entry); err != nil {
		return nil, fmt.Errorf("failed to parse catalog entry %s/%s: %w", e.Table, category, err)
	}
	return &e, nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var b strings.Builder
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			n++
		} else {
			b.WriteByte(query[i])
		}
	}
	return b.String()
}
