package incident

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/typeboard/typeboard/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("typeboard-incident")

// Dataset is an immutable generated dataset.
type Dataset struct {
	seed      uint64
	incidents []domain.Incident
}

// NewDataset wraps incidents. The slice is copied.
func NewDataset(seed uint64, incidents []domain.Incident) *Dataset {
	return &Dataset{seed: seed, incidents: append([]domain.Incident(nil), incidents...)}
}

// Seed returns the seed the dataset was generated from.
func (d *Dataset) Seed() uint64 {
	return d.seed
}

// Len returns the number of incidents.
func (d *Dataset) Len() int {
	return len(d.incidents)
}

// At returns the i-th incident by value.
func (d *Dataset) At(i int) domain.Incident {
	return d.incidents[i]
}

// Each calls fn for every incident in generation order.
func (d *Dataset) Each(fn func(domain.Incident)) {
	for _, inc := range d.incidents {
		fn(inc)
	}
}

// Store generates each seed's dataset once and shares it read-only.
type Store struct {
	mu       sync.RWMutex
	sets     map[uint64]*Dataset
	group    singleflight.Group
	generate func(seed uint64) []domain.Incident
}

// NewStore creates a store backed by Generate.
func NewStore() *Store {
	return NewStoreWith(Generate)
}

// NewStoreWith creates a store with a custom generation function.
func NewStoreWith(generate func(seed uint64) []domain.Incident) *Store {
	return &Store{
		sets:     make(map[uint64]*Dataset),
		generate: generate,
	}
}

// Get returns the dataset for seed, generating it on first use.
// Concurrent first calls for the same seed share one generation.
func (s *Store) Get(ctx context.Context, seed uint64) (*Dataset, error) {
	s.mu.RLock()
	ds, ok := s.sets[seed]
	s.mu.RUnlock()
	if ok {
		return ds, nil
	}

	key := strconv.FormatUint(seed, 10)
	v, err, _ := s.group.Do(key, func() (any, error) {
		s.mu.RLock()
		existing, ok := s.sets[seed]
		s.mu.RUnlock()
		if ok {
			return existing, nil
		}

		_, span := tracer.Start(ctx, "incident.generate",
			trace.WithAttributes(attribute.Int64("dataset.seed", int64(seed))),
		)
		start := time.Now()
		generated := &Dataset{seed: seed, incidents: s.generate(seed)}
		span.SetAttributes(attribute.Int("dataset.size", generated.Len()))
		span.End()

		s.mu.Lock()
		s.sets[seed] = generated
		s.mu.Unlock()

		slog.Info("incident dataset generated",
			"seed", seed,
			"incidents", generated.Len(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return generated, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Dataset), nil
}
