package pubsub

import (
	"context"
	"encoding/json"
)

// Topics
const (
	// TopicModelStatus carries ModelStatus events of the loader.
	TopicModelStatus = "model_status"

	sessionTopicPrefix = "sim:"
)

// SessionTopic is the topic carrying simulator commands for a view session.
func SessionTopic(sessionID string) string {
	return sessionTopicPrefix + sessionID
}

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic (e.g., "model_status", "sim:<session>")
	Type    string          `json:"type"`    // Event type (e.g., "loading", "graph_data", "reheat")
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// Model load states
const (
	StateLoading = "loading"
	StateReady   = "ready"
	StateError   = "error"
)

// ModelStatus represents the state of the loaded graph document
type ModelStatus struct {
	State   string `json:"state"`            // loading, ready, error
	Message string `json:"message"`          // Human-readable status message
	Source  string `json:"source,omitempty"` // Where the document was loaded from
	Reason  string `json:"reason,omitempty"` // Why the load ran (startup, file change)
	Nodes   int    `json:"nodes"`
	Links   int    `json:"links"`
	Cycles  int    `json:"cycles"`
}
