package queue

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/soltixdb/sitecast/internal/logging"
)

var natsLog = logging.Global().With("component", "queue.nats")

// NATSPublisher publishes through NATS JetStream
type NATSPublisher struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	mu      sync.Mutex
	streams map[string]bool
}

// newNATSPublisher connects to url with JetStream enabled
func newNATSPublisher(url, nodeID string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name(fmt.Sprintf("sitecast-publisher-%s", nodeID)),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &NATSPublisher{conn: conn, js: js, streams: make(map[string]bool)}, nil
}

// Publish waits for the JetStream ack
func (q *NATSPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := q.ensureStream(subject); err != nil {
		return err
	}
	if _, err := q.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	return nil
}

// ensureStream creates a limits-retention stream for subject on first use
func (q *NATSPublisher) ensureStream(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.streams[subject] {
		return nil
	}
	if name, err := q.js.StreamNameBySubject(subject); err == nil && name != "" {
		q.streams[subject] = true
		return nil
	}

	_, err := q.js.AddStream(&nats.StreamConfig{
		Name:     StreamName(subject),
		Subjects: []string{subject},
		MaxAge:   7 * 24 * time.Hour,
		Storage:  nats.FileStorage,
	})
	if err != nil && err != nats.ErrStreamNameAlreadyInUse {
		natsLog.Error("Failed to create stream", "subject", subject, "error", err)
		return fmt.Errorf("failed to create stream for %s: %w", subject, err)
	}
	q.streams[subject] = true
	return nil
}

// Close drains and closes the connection
func (q *NATSPublisher) Close() error {
	return q.conn.Drain()
}

// StreamName maps a subject to the JetStream stream that carries it
func StreamName(subject string) string {
	r := strings.NewReplacer(".", "_", "*", "all", ">", "rest", "-", "_")
	return "SITECAST_" + strings.ToUpper(r.Replace(subject))
}
