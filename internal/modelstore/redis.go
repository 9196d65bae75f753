package modelstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soltixdb/sitecast/internal/logging"
	"github.com/soltixdb/sitecast/internal/source"
)

var redisLog = logging.Global().With("component", "modelstore.redis")

// RedisConfig configures RedisStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// RedisStore keeps one string key per group: "<prefix>:<site>-<threshold>".
type RedisStore struct {
	client *redis.Client
	codec  Codec
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(cfg RedisConfig, codec Codec) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisStore(client, cfg, codec), nil
}

func newRedisStore(client *redis.Client, cfg RedisConfig, codec Codec) *RedisStore {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "sitecast:model"
	}
	return &RedisStore{
		client: client,
		codec:  codec,
		prefix: prefix,
		ttl:    cfg.TTL,
	}
}

func (s *RedisStore) redisKey(key source.GroupKey) string {
	return s.prefix + ":" + key.String()
}

func (s *RedisStore) Save(ctx context.Context, snap *Snapshot) error {
	encoded, err := s.codec.Encode(snap)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.redisKey(snap.Key), encoded, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", snap.Key, err)
	}
	redisLog.Debug("Saved model snapshot", "group", snap.Key.String(), "bytes", len(encoded))
	return nil
}

func (s *RedisStore) Load(ctx context.Context, key source.GroupKey) (*Snapshot, error) {
	encoded, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", key, err)
	}
	return s.codec.Decode(encoded)
}

func (s *RedisStore) Delete(ctx context.Context, key source.GroupKey) error {
	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", key, err)
	}
	return nil
}

// List scans the key prefix. Keys that do not parse as groups are skipped.
func (s *RedisStore) List(ctx context.Context) ([]source.GroupKey, error) {
	var keys []source.GroupKey
	iter := s.client.Scan(ctx, 0, s.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		key, err := source.ParseGroupKey(strings.TrimPrefix(iter.Val(), s.prefix+":"))
		if err != nil {
			redisLog.Warn("Skipping foreign key", "key", iter.Val())
			continue
		}
		keys = append(keys, key)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	sortKeys(keys)
	return keys, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
