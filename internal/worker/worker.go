// Package worker keeps each node's catalog in step with persisted overrides.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/typeboard/typeboard/internal/catalog"
	"github.com/typeboard/typeboard/internal/domain"
)

// ErrNotStarted is returned by Stop on a worker that never started.
var ErrNotStarted = errors.New("worker not started")

// Worker reloads the catalog registry whenever another node announces a change.
type Worker struct {
	bus      domain.EventBus
	repo     domain.Repository
	registry *catalog.Registry
	origin   string

	mu            sync.Mutex
	subscriptions []domain.Subscription
	ctx           context.Context
	cancel        context.CancelFunc

	reloads    atomic.Int64
	failures   atomic.Int64
	skipped    atomic.Int64
	lastReload atomic.Int64
}

// NewWorker creates a reload worker. origin identifies this node so it can
// ignore its own announcements.
func NewWorker(bus domain.EventBus, repo domain.Repository, registry *catalog.Registry, origin string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:      bus,
		repo:     repo,
		registry: registry,
		origin:   origin,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Origin returns the node id stamped on announcements from this process.
func (w *Worker) Origin() string {
	return w.origin
}

// Start subscribes to catalog change announcements.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	sub, err := w.bus.Subscribe(w.ctx, domain.TopicCatalogChanged, w.handleMessage)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", domain.TopicCatalogChanged, err)
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("catalog worker started",
		"topic", domain.TopicCatalogChanged,
		"origin", w.origin,
	)
	return nil
}

func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	var change domain.CatalogChange
	if err := json.Unmarshal(msg.Payload, &change); err != nil {
		w.failures.Add(1)
		slog.Error("failed to parse catalog change",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	if change.Origin != "" && change.Origin == w.origin {
		w.skipped.Add(1)
		return nil
	}

	start := time.Now()
	if err := w.registry.Reload(ctx, w.repo); err != nil {
		w.failures.Add(1)
		slog.Error("catalog reload failed",
			"table", change.Table,
			"category", change.Category,
			"error", err,
		)
		return err
	}
	w.reloads.Add(1)
	w.lastReload.Store(time.Now().UnixMilli())

	slog.Info("catalog change applied",
		"table", change.Table,
		"category", change.Category,
		"deleted", change.Deleted,
		"origin", change.Origin,
		"version", w.registry.Version(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Stop unsubscribes and cancels in-flight reloads.
func (w *Worker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.cancel()
	if w.subscriptions == nil {
		return ErrNotStarted
	}

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	slog.Info("catalog worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
	Reloads           int64    `json:"reloads"`
	Failures          int64    `json:"failures"`
	Skipped           int64    `json:"skipped"`
	CatalogVersion    int64    `json:"catalogVersion"`
	LastReload        int64    `json:"lastReload,omitempty"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	w.mu.Lock()
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	w.mu.Unlock()

	return Stats{
		SubscriptionCount: len(topics),
		Topics:            topics,
		Reloads:           w.reloads.Load(),
		Failures:          w.failures.Load(),
		Skipped:           w.skipped.Load(),
		CatalogVersion:    w.registry.Version(),
		LastReload:        w.lastReload.Load(),
	}
}

// Announce publishes change on the bus.
func Announce(ctx context.Context, bus domain.EventBus, change domain.CatalogChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal catalog change: %w", err)
	}
	return bus.Publish(ctx, domain.TopicCatalogChanged, payload)
}
