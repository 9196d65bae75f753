package modelstore

import (
	"context"
	"sort"
	"sync"

	"github.com/soltixdb/sitecast/internal/source"
)

// MemoryStore keeps encoded snapshots in a map. Loads always decode, so
// callers never share model slices with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	codec Codec
	data  map[source.GroupKey][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(codec Codec) *MemoryStore {
	return &MemoryStore{
		codec: codec,
		data:  make(map[source.GroupKey][]byte),
	}
}

func (s *MemoryStore) Save(ctx context.Context, snap *Snapshot) error {
	encoded, err := s.codec.Encode(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[snap.Key] = encoded
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, key source.GroupKey) (*Snapshot, error) {
	s.mu.RLock()
	encoded, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s.codec.Decode(encoded)
}

func (s *MemoryStore) Delete(ctx context.Context, key source.GroupKey) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// List returns keys ordered by site then threshold.
func (s *MemoryStore) List(ctx context.Context) ([]source.GroupKey, error) {
	s.mu.RLock()
	keys := make([]source.GroupKey, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sortKeys(keys)
	return keys, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func sortKeys(keys []source.GroupKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].SiteID != keys[j].SiteID {
			return keys[i].SiteID < keys[j].SiteID
		}
		return keys[i].ThresholdType < keys[j].ThresholdType
	})
}
