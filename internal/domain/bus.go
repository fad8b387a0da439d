package domain

import (
	"context"
	"time"
)

// EventBus defines the interface for event-driven communication.
// Supports Go channels (standalone) or NATS (cluster).
type EventBus interface {
	// Publish sends a message to a topic.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe registers a handler for a topic.
	// Returns a subscription that can be used to unsubscribe.
	Subscribe(ctx context.Context, topic string, handler MessageHandler) (Subscription, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// MessageHandler processes incoming messages.
type MessageHandler func(ctx context.Context, msg *Message) error

// Message represents an event message.
type Message struct {
	ID        string            `json:"id"`
	Topic     string            `json:"topic"`
	Payload   []byte            `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	Timestamp int64             `json:"timestamp"`
}

// Subscription represents an active subscription.
type Subscription interface {
	// Unsubscribe stops receiving messages.
	Unsubscribe() error

	// Topic returns the subscribed topic.
	Topic() string
}

// EventBusConfig holds configuration for event bus initialization.
type EventBusConfig struct {
	// Type is the bus type: "channel" or "nats"
	Type string `env:"TYPE"`

	// Channel settings
	ChannelBufferSize int `env:"CHANNEL_BUFFER"`

	// NATS settings
	NATSUrl           string        `env:"NATS_URL"`
	NATSToken         string        `env:"NATS_TOKEN"`
	NATSMaxReconnects int           `env:"NATS_MAX_RECONNECTS"`
	NATSReconnectWait time.Duration `env:"NATS_RECONNECT_WAIT"`
}

// Topic names.
const (
	// TopicCatalogChanged carries a CatalogChange after an override is stored or removed.
	TopicCatalogChanged = "typeboard.catalog.changed"
)

// CatalogChange is the payload published on TopicCatalogChanged.
type CatalogChange struct {
	Table    string      `json:"table"`
	Category CategoryKey `json:"category"`
	Deleted  bool        `json:"deleted,omitempty"`
	Origin   string      `json:"origin"`
}
