package subscriber

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/soltixdb/sitecast/internal/logging"
)

var kafkaLog = logging.Global().With("component", "subscriber.kafka")

// KafkaSubscriber implements Subscriber for Kafka consumer groups. The topic
// name is the subject.
type KafkaSubscriber struct {
	brokers []string
	cfg     Config
	mu      sync.Mutex
	readers map[string]*kafka.Reader
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewKafkaSubscriber creates a new Kafka subscriber
func NewKafkaSubscriber(brokers []string, cfg Config) (*KafkaSubscriber, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	return &KafkaSubscriber{
		brokers: brokers,
		cfg:     cfg.withDefaults(),
		readers: make(map[string]*kafka.Reader),
		cancels: make(map[string]context.CancelFunc),
	}, nil
}

func (s *KafkaSubscriber) readerConfig(topic string) kafka.ReaderConfig {
	return kafka.ReaderConfig{
		Brokers:           s.brokers,
		GroupID:           s.cfg.ConsumerGroup,
		Topic:             topic,
		MinBytes:          1,
		MaxBytes:          10e6,
		MaxWait:           time.Second,
		CommitInterval:    time.Second,
		StartOffset:       kafka.FirstOffset,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			kafkaLog.Debug(fmt.Sprintf(msg, args...), "topic", topic)
		}),
	}
}

// Subscribe starts a consumer group reader on the subject's topic
func (s *KafkaSubscriber) Subscribe(ctx context.Context, subject string, handler MessageHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.readers[subject]; exists {
		return fmt.Errorf("already subscribed to topic: %s", subject)
	}

	reader := kafka.NewReader(s.readerConfig(subject))
	subCtx, cancel := context.WithCancel(ctx)
	s.readers[subject] = reader
	s.cancels[subject] = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.consume(subCtx, reader, subject, handler)
	}()

	kafkaLog.Info("Subscribed to Kafka topic", "topic", subject, "group", s.cfg.ConsumerGroup)
	return nil
}

// consume commits each message after its handler succeeds or after
// MaxRetries failed attempts.
func (s *KafkaSubscriber) consume(ctx context.Context, reader *kafka.Reader, subject string, handler MessageHandler) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			kafkaLog.Error("Failed to fetch message", "topic", subject, "error", err)
			if !sleepCtx(ctx, time.Second) {
				return
			}
			continue
		}

		if !s.deliver(ctx, subject, msg, handler) {
			return
		}
		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			kafkaLog.Error("Failed to commit message", "topic", subject, "offset", msg.Offset, "error", err)
		}
	}
}

// deliver runs handler with retries. It returns false when ctx ends first.
func (s *KafkaSubscriber) deliver(ctx context.Context, subject string, msg kafka.Message, handler MessageHandler) bool {
	for attempt := 1; ; attempt++ {
		err := handler(ctx, subject, msg.Value)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		if attempt >= s.cfg.MaxRetries {
			kafkaLog.Error("Dropping message after retries",
				"topic", subject,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"attempts", attempt,
				"error", err)
			return true
		}
		kafkaLog.Warn("Failed to handle message, retrying", "topic", subject, "offset", msg.Offset, "attempt", attempt, "error", err)
		if !sleepCtx(ctx, retryBackoff(attempt)) {
			return false
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Unsubscribe stops the topic's reader
func (s *KafkaSubscriber) Unsubscribe(subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancel, exists := s.cancels[subject]
	if !exists {
		return fmt.Errorf("not subscribed to topic: %s", subject)
	}
	cancel()
	delete(s.cancels, subject)

	err := s.readers[subject].Close()
	delete(s.readers, subject)
	return err
}

// Close stops every reader and waits for the consumers to return
func (s *KafkaSubscriber) Close() error {
	s.mu.Lock()
	for _, cancel := range s.cancels {
		cancel()
	}
	var errs []error
	for topic, reader := range s.readers {
		if err := reader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close reader %s: %w", topic, err))
		}
	}
	s.cancels = make(map[string]context.CancelFunc)
	s.readers = make(map[string]*kafka.Reader)
	s.mu.Unlock()

	s.wg.Wait()
	return errors.Join(errs...)
}
