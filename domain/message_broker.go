package domain

import (
	"context"
	"time"
)

// MessageBroker defines the interface for message broker operations
type MessageBroker interface {
	// Publish sends a message to a specific topic/channel with a routing key
	Publish(ctx context.Context, topic string, routingKey string, message []byte) error

	// Subscribe listens for messages on a specific topic/channel and routing key
	Subscribe(ctx context.Context, topic string, routingKey string) (<-chan Message, error)

	// Close closes the message broker connection
	Close() error
}

// Message represents a message received from the broker
type Message struct {
	Topic      string
	RoutingKey string
	Payload    []byte
	Timestamp  time.Time
}

// SafetyAlert is published when user input contains self-harm language.
// The raw input never leaves the process; Fingerprint identifies it.
type SafetyAlert struct {
	SessionID   string    `json:"session_id,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	Keywords    []string  `json:"keywords"`
	Timestamp   time.Time `json:"timestamp"`
}
