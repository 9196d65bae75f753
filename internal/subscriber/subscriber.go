// Package subscriber delivers queue messages to handlers. The forecaster uses
// it to receive raw observations for online model updates.
package subscriber

import (
	"context"
	"time"

	"github.com/soltixdb/sitecast/internal/utils"
)

// MessageHandler is a function that processes incoming messages
type MessageHandler func(ctx context.Context, subject string, data []byte) error

// Subscriber defines the interface for message subscription
type Subscriber interface {
	// Subscribe subscribes to a subject/topic with the given handler
	Subscribe(ctx context.Context, subject string, handler MessageHandler) error

	// Unsubscribe unsubscribes from a subject/topic
	Unsubscribe(subject string) error

	// Close closes the subscriber and releases resources
	Close() error
}

// Config holds common subscriber configuration
type Config struct {
	// NodeID is the unique identifier for this subscriber node
	NodeID string

	// ConsumerGroup is the consumer group name for group-based consumption
	ConsumerGroup string

	// MaxRetries is how many times a failing message is delivered before
	// it is dropped
	MaxRetries int

	// BatchSize is the number of messages to fetch in a batch (where applicable)
	BatchSize int
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		ConsumerGroup: "sitecast-forecaster",
		MaxRetries:    utils.DefaultMaxRetries,
		BatchSize:     utils.DefaultBufferSize,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ConsumerGroup == "" {
		c.ConsumerGroup = d.ConsumerGroup
	}
	if c.NodeID == "" {
		c.NodeID = "forecaster"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	return c
}

// retryBackoff returns the wait before delivery attempt n (1-based), doubling
// from utils.DefaultRetryBackoff up to utils.MaxRetryBackoff.
func retryBackoff(attempt int) time.Duration {
	d := utils.DefaultRetryBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= utils.MaxRetryBackoff {
			return utils.MaxRetryBackoff
		}
	}
	return d
}
