package subscriber

import (
	"context"
	"fmt"
	"sync"

	"github.com/soltixdb/sitecast/internal/logging"
	"github.com/soltixdb/sitecast/internal/utils"
)

var memoryLog = logging.Global().With("component", "subscriber.memory")

// memoryBufferSize bounds the pending messages per subscription.
const memoryBufferSize = 10 * utils.DefaultBufferSize

type memoryMessage struct {
	subject string
	data    []byte
}

type memorySubscription struct {
	handler MessageHandler
	ctx     context.Context
	cancel  context.CancelFunc
	ch      chan memoryMessage
}

// memoryBroker fans messages out to every memory subscription of a subject
// within the process.
type memoryBroker struct {
	mu          sync.RWMutex
	subscribers map[string][]*memorySubscription
}

var broker = &memoryBroker{subscribers: make(map[string][]*memorySubscription)}

func (b *memoryBroker) register(subject string, sub *memorySubscription) {
	b.mu.Lock()
	b.subscribers[subject] = append(b.subscribers[subject], sub)
	b.mu.Unlock()
}

func (b *memoryBroker) unregister(subject string, sub *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscribers[subject]
	for i, s := range subs {
		if s == sub {
			b.subscribers[subject] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// PublishToMemory delivers data to every memory subscriber of subject and
// returns how many subscriptions accepted it. A full subscription drops the message.
func PublishToMemory(subject string, data []byte) int {
	broker.mu.RLock()
	subs := append([]*memorySubscription(nil), broker.subscribers[subject]...)
	broker.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		select {
		case sub.ch <- memoryMessage{subject: subject, data: data}:
			delivered++
		default:
			memoryLog.Warn("Subscriber channel full, dropping message", "subject", subject)
		}
	}
	return delivered
}

// MemorySubscriber implements Subscriber for in-process delivery
type MemorySubscriber struct {
	mu            sync.Mutex
	subscriptions map[string]*memorySubscription
}

// NewMemorySubscriber creates a new in-memory subscriber
func NewMemorySubscriber() (*MemorySubscriber, error) {
	return &MemorySubscriber{subscriptions: make(map[string]*memorySubscription)}, nil
}

// Subscribe subscribes to a subject with the given handler
func (s *MemorySubscriber) Subscribe(ctx context.Context, subject string, handler MessageHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &memorySubscription{
		handler: handler,
		ctx:     subCtx,
		cancel:  cancel,
		ch:      make(chan memoryMessage, memoryBufferSize),
	}
	s.subscriptions[subject] = sub
	broker.register(subject, sub)

	go consumeMemory(sub)

	memoryLog.Debug("Subscribed to in-memory subject", "subject", subject)
	return nil
}

func consumeMemory(sub *memorySubscription) {
	for {
		select {
		case <-sub.ctx.Done():
			return
		case msg := <-sub.ch:
			if err := sub.handler(sub.ctx, msg.subject, msg.data); err != nil {
				memoryLog.Error("Failed to handle message", "subject", msg.subject, "error", err)
			}
		}
	}
}

// Unsubscribe unsubscribes from a subject
func (s *MemorySubscriber) Unsubscribe(subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, exists := s.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}
	sub.cancel()
	broker.unregister(subject, sub)
	delete(s.subscriptions, subject)
	return nil
}

// Close closes all subscriptions
func (s *MemorySubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for subject, sub := range s.subscriptions {
		sub.cancel()
		broker.unregister(subject, sub)
	}
	s.subscriptions = make(map[string]*memorySubscription)
	return nil
}
