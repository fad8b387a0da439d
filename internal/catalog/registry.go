package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/typeboard/typeboard/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("typeboard-catalog")

// Registry holds the live catalog. Readers get a snapshot that never changes;
// reloads swap in a new snapshot built from the embedded base.
type Registry struct {
	base    *Catalog
	current atomic.Pointer[Catalog]
	version atomic.Int64
}

// NewRegistry starts with base as the live catalog.
func NewRegistry(base *Catalog) *Registry {
	r := &Registry{base: base}
	r.current.Store(base)
	return r
}

// Current returns the live snapshot.
func (r *Registry) Current() *Catalog {
	return r.current.Load()
}

// Base returns the embedded catalog without overrides.
func (r *Registry) Base() *Catalog {
	return r.base
}

// Version counts successful swaps.
func (r *Registry) Version() int64 {
	return r.version.Load()
}

// Apply rebuilds the live catalog from base plus overrides.
// On error the live catalog is left as it was.
func (r *Registry) Apply(overrides []*domain.CatalogEntry) error {
	next, err := r.base.Merge(overrides)
	if err != nil {
		return err
	}
	r.current.Store(next)
	r.version.Add(1)
	return nil
}

// Reload reads every persisted override from repo and applies them.
func (r *Registry) Reload(ctx context.Context, repo domain.Repository) error {
	ctx, span := tracer.Start(ctx, "catalog.Reload")
	defer span.End()

	overrides, err := repo.ListCatalogEntries(ctx, "")
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("list overrides: %w", err)
	}
	span.SetAttributes(attribute.Int("catalog.overrides", len(overrides)))

	// skip overrides that no longer fit the embedded tables
	valid := make([]*domain.CatalogEntry, 0, len(overrides))
	for _, o := range overrides {
		if err := r.base.Check(o); err != nil {
			slog.Warn("skipping catalog override", "table", o.Table, "category", o.Category, "error", err)
			continue
		}
		valid = append(valid, o)
	}

	if err := r.Apply(valid); err != nil {
		span.RecordError(err)
		return err
	}
	slog.Info("catalog reloaded", "overrides", len(valid), "version", r.Version())
	return nil
}
