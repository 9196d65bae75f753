package queue

import (
	"context"
	"errors"
	"sync"
)

// MemoryPublisher records published messages per subject.
// It backs local runs and tests.
type MemoryPublisher struct {
	mu       sync.RWMutex
	messages map[string][][]byte
	closed   bool
}

// NewMemoryPublisher creates an empty in-memory publisher
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{messages: make(map[string][][]byte)}
}

// Publish stores a copy of data under subject
func (q *MemoryPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errors.New("memory publisher closed")
	}
	q.messages[subject] = append(q.messages[subject], dataCopy)
	return nil
}

// Messages returns the payloads published to subject, oldest first
func (q *MemoryPublisher) Messages(subject string) [][]byte {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([][]byte, len(q.messages[subject]))
	copy(out, q.messages[subject])
	return out
}

// Close rejects further publishes
func (q *MemoryPublisher) Close() error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	return nil
}
