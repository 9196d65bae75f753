// Package queue publishes model lifecycle events to a message broker.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/soltixdb/sitecast/internal/analytics/forecast"
	"github.com/soltixdb/sitecast/internal/source"
)

// Publisher publishes messages to a queue
type Publisher interface {
	// Publish publishes a message to a subject/topic
	Publish(ctx context.Context, subject string, data []byte) error

	// Close closes the connection
	Close() error
}

// Event types.
const (
	EventTrained = "model.trained"
	EventUpdated = "model.updated"
)

// ModelEvent announces a newly selected or retrained model together with
// the start of its forecast.
type ModelEvent struct {
	Type       string                     `json:"type"`
	Group      source.GroupKey            `json:"group"`
	Order      string                     `json:"order"`
	Metrics    forecast.EvaluationMetrics `json:"metrics"`
	DataPoints int                        `json:"data_points"`
	Forecast   []forecast.ForecastPoint   `json:"forecast,omitempty"`
	Time       time.Time                  `json:"time"`
}

// EventPublisher encodes model events as JSON onto one subject.
type EventPublisher struct {
	pub     Publisher
	subject string
}

// NewEventPublisher wraps pub. Events go to subject.
func NewEventPublisher(pub Publisher, subject string) *EventPublisher {
	return &EventPublisher{pub: pub, subject: subject}
}

// Publish sends ev. A nil EventPublisher drops events.
func (p *EventPublisher) Publish(ctx context.Context, ev ModelEvent) error {
	if p == nil || p.pub == nil {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	if err := p.pub.Publish(ctx, p.subject, data); err != nil {
		return fmt.Errorf("publish %s event for %s: %w", ev.Type, ev.Group, err)
	}
	return nil
}

// Close closes the underlying publisher.
func (p *EventPublisher) Close() error {
	if p == nil || p.pub == nil {
		return nil
	}
	return p.pub.Close()
}
