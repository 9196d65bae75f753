package subscriber

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/soltixdb/sitecast/internal/logging"
	"github.com/soltixdb/sitecast/internal/queue"
)

var natsLog = logging.Global().With("component", "subscriber.nats")

// natsAckWait is how long JetStream waits for an ack before redelivering.
const natsAckWait = 30 * time.Second

// NATSSubscriber implements Subscriber for NATS JetStream durable consumers
type NATSSubscriber struct {
	conn          *nats.Conn
	js            nats.JetStreamContext
	cfg           Config
	mu            sync.Mutex
	subscriptions map[string]*nats.Subscription
}

// NewNATSSubscriber connects to url with JetStream enabled
func NewNATSSubscriber(url string, cfg Config) (*NATSSubscriber, error) {
	cfg = cfg.withDefaults()
	conn, err := nats.Connect(url,
		nats.Name("sitecast-subscriber-"+cfg.NodeID),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				natsLog.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			natsLog.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &NATSSubscriber{
		conn:          conn,
		js:            js,
		cfg:           cfg,
		subscriptions: make(map[string]*nats.Subscription),
	}, nil
}

// durableName is unique per consumer group, node and subject. Durable names
// may not contain dots or wildcards.
func durableName(cfg Config, subject string) string {
	r := strings.NewReplacer(".", "_", "*", "all", ">", "rest")
	return fmt.Sprintf("%s-%s-%s", cfg.ConsumerGroup, cfg.NodeID, r.Replace(subject))
}

// Subscribe creates a durable push consumer on subject. Messages whose
// handler fails are nak'ed and redelivered up to MaxRetries times.
func (s *NATSSubscriber) Subscribe(ctx context.Context, subject string, handler MessageHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}
	if err := s.ensureStream(subject); err != nil {
		return err
	}

	durable := durableName(s.cfg, subject)
	sub, err := s.js.Subscribe(subject, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, msg.Subject, msg.Data); err != nil {
			attempt := 1
			if meta, merr := msg.Metadata(); merr == nil {
				attempt = int(meta.NumDelivered)
			}
			natsLog.Error("Failed to handle message",
				"subject", msg.Subject,
				"attempt", attempt,
				"error", err)
			_ = msg.NakWithDelay(retryBackoff(attempt))
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(durable),
		nats.ManualAck(),
		nats.MaxAckPending(s.cfg.BatchSize),
		nats.AckWait(natsAckWait),
		nats.MaxDeliver(s.cfg.MaxRetries),
		nats.DeliverAll(),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	s.subscriptions[subject] = sub
	natsLog.Info("Subscribed to subject", "subject", subject, "durable", durable)
	return nil
}

// ensureStream creates a work-queue stream for subject unless one already
// captures it. Stream names match the publisher's.
func (s *NATSSubscriber) ensureStream(subject string) error {
	if name, err := s.js.StreamNameBySubject(subject); err == nil && name != "" {
		return nil
	}

	name := queue.StreamName(subject)
	_, err := s.js.AddStream(&nats.StreamConfig{
		Name:      name,
		Subjects:  []string{subject},
		Retention: nats.WorkQueuePolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
		Replicas:  1,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("failed to create stream %s: %w", name, err)
	}
	return nil
}

// Unsubscribe unsubscribes from a subject
func (s *NATSSubscriber) Unsubscribe(subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, exists := s.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}
	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe from %s: %w", subject, err)
	}
	delete(s.subscriptions, subject)
	return nil
}

// Close drains the connection, letting in-flight handlers finish
func (s *NATSSubscriber) Close() error {
	s.mu.Lock()
	s.subscriptions = make(map[string]*nats.Subscription)
	s.mu.Unlock()

	if err := s.conn.Drain(); err != nil {
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	natsLog.Info("NATS subscriber closed")
	return nil
}
