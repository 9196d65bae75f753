// Package modelstore persists fitted model snapshots per group.
package modelstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soltixdb/sitecast/internal/analytics/forecast"
	"github.com/soltixdb/sitecast/internal/config"
	"github.com/soltixdb/sitecast/internal/source"
	"github.com/soltixdb/sitecast/internal/utils"
)

// ErrNotFound is returned by Load when no snapshot exists for the key.
var ErrNotFound = errors.New("model snapshot not found")

// Snapshot is the persisted state of one group's selected model.
type Snapshot struct {
	Key          source.GroupKey       `json:"key"`
	Model        *forecast.FittedModel `json:"model"`
	DataPoints   int                   `json:"data_points"`
	LastObserved time.Time             `json:"last_observed"`
	SavedAt      time.Time             `json:"saved_at"`
}

// Store saves and restores snapshots.
type Store interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context, key source.GroupKey) (*Snapshot, error)
	Delete(ctx context.Context, key source.GroupKey) error
	List(ctx context.Context) ([]source.GroupKey, error)
	Close() error
}

// New creates the store selected by cfg.Type.
func New(cfg config.StoreConfig) (Store, error) {
	codec := Codec{Compress: cfg.Compression}

	switch utils.StoreType(cfg.Type) {
	case utils.StoreTypeMemory, "":
		return NewMemoryStore(codec), nil
	case utils.StoreTypeRedis:
		return NewRedisStore(RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.KeyPrefix,
			TTL:      cfg.TTL,
		}, codec)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
}
