package subscriber

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soltixdb/sitecast/internal/logging"
)

var redisLog = logging.Global().With("component", "subscriber.redis")

// RedisConfig holds the Redis Streams connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string // Stream prefix, shared with the publisher (default: "sitecast")
}

// RedisSubscriber implements Subscriber for Redis Streams consumer groups
type RedisSubscriber struct {
	client        *redis.Client
	redisCfg      RedisConfig
	cfg           Config
	mu            sync.Mutex
	subscriptions map[string]context.CancelFunc
}

// NewRedisSubscriber connects and pings Redis
func NewRedisSubscriber(redisCfg RedisConfig, cfg Config) (*RedisSubscriber, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         redisCfg.Addr,
		Password:     redisCfg.Password,
		DB:           redisCfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return newRedisSubscriberWithClient(client, redisCfg, cfg), nil
}

func newRedisSubscriberWithClient(client *redis.Client, redisCfg RedisConfig, cfg Config) *RedisSubscriber {
	if redisCfg.Stream == "" {
		redisCfg.Stream = "sitecast"
	}
	return &RedisSubscriber{
		client:        client,
		redisCfg:      redisCfg,
		cfg:           cfg.withDefaults(),
		subscriptions: make(map[string]context.CancelFunc),
	}
}

// streamName matches the publisher's {prefix}:{subject} naming
func (s *RedisSubscriber) streamName(subject string) string {
	return fmt.Sprintf("%s:%s", s.redisCfg.Stream, subject)
}

// Subscribe joins the consumer group on the subject's stream, creating both if needed
func (s *RedisSubscriber) Subscribe(ctx context.Context, subject string, handler MessageHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream := s.streamName(subject)
	if _, exists := s.subscriptions[stream]; exists {
		return fmt.Errorf("already subscribed to stream: %s", stream)
	}

	err := s.client.XGroupCreateMkStream(ctx, stream, s.cfg.ConsumerGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	s.subscriptions[stream] = cancel
	go s.consume(subCtx, stream, subject, handler)

	redisLog.Info("Subscribed to Redis stream", "stream", stream, "group", s.cfg.ConsumerGroup, "consumer", s.cfg.NodeID)
	return nil
}

// consume reads new entries for this consumer. A failed entry stays pending
// and is claimed again on the next pass until it has been delivered
// MaxRetries times, after which it is acknowledged and dropped.
func (s *RedisSubscriber) consume(ctx context.Context, stream, subject string, handler MessageHandler) {
	for ctx.Err() == nil {
		s.retryPending(ctx, stream, subject, handler)

		streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    s.cfg.ConsumerGroup,
			Consumer: s.cfg.NodeID,
			Streams:  []string{stream, ">"},
			Count:    int64(s.cfg.BatchSize),
			Block:    time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			redisLog.Error("Failed to read from stream", "stream", stream, "error", err)
			sleepCtx(ctx, time.Second)
			continue
		}

		for _, st := range streams {
			for _, message := range st.Messages {
				s.handle(ctx, stream, subject, message, handler)
			}
		}
	}
}

func (s *RedisSubscriber) handle(ctx context.Context, stream, subject string, message redis.XMessage, handler MessageHandler) {
	data, ok := message.Values["data"].(string)
	if !ok {
		redisLog.Warn("Invalid message format", "stream", stream, "id", message.ID)
		s.ack(ctx, stream, message.ID)
		return
	}
	if err := handler(ctx, subject, []byte(data)); err != nil {
		redisLog.Error("Failed to handle message", "stream", stream, "id", message.ID, "error", err)
		return
	}
	s.ack(ctx, stream, message.ID)
}

func (s *RedisSubscriber) retryPending(ctx context.Context, stream, subject string, handler MessageHandler) {
	pending, err := s.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream:   stream,
		Group:    s.cfg.ConsumerGroup,
		Consumer: s.cfg.NodeID,
		Idle:     retryBackoff(1),
		Start:    "-",
		End:      "+",
		Count:    int64(s.cfg.BatchSize),
	}).Result()
	if err != nil || len(pending) == 0 {
		return
	}

	for _, p := range pending {
		if p.RetryCount >= int64(s.cfg.MaxRetries) {
			redisLog.Error("Dropping message after retries", "stream", stream, "id", p.ID, "attempts", p.RetryCount)
			s.ack(ctx, stream, p.ID)
			continue
		}
		msgs, err := s.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   stream,
			Group:    s.cfg.ConsumerGroup,
			Consumer: s.cfg.NodeID,
			MinIdle:  retryBackoff(1),
			Messages: []string{p.ID},
		}).Result()
		if err != nil {
			continue
		}
		for _, m := range msgs {
			s.handle(ctx, stream, subject, m, handler)
		}
	}
}

func (s *RedisSubscriber) ack(ctx context.Context, stream, id string) {
	if err := s.client.XAck(ctx, stream, s.cfg.ConsumerGroup, id).Err(); err != nil && ctx.Err() == nil {
		redisLog.Error("Failed to ACK message", "stream", stream, "id", id, "error", err)
	}
}

// Unsubscribe stops consuming the subject's stream
func (s *RedisSubscriber) Unsubscribe(subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream := s.streamName(subject)
	cancel, exists := s.subscriptions[stream]
	if !exists {
		return fmt.Errorf("not subscribed to stream: %s", stream)
	}
	cancel()
	delete(s.subscriptions, stream)
	return nil
}

// Close stops all consumers and closes the client
func (s *RedisSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cancel := range s.subscriptions {
		cancel()
	}
	s.subscriptions = make(map[string]context.CancelFunc)

	if err := s.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}
	return nil
}
