package subscriber

import (
	"context"
	"sync"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestMemorySubscriber_Delivery(t *testing.T) {
	sub, err := NewMemorySubscriber()
	if err != nil {
		t.Fatalf("NewMemorySubscriber: %v", err)
	}
	defer func() { _ = sub.Close() }()

	var mu sync.Mutex
	var got []string
	err = sub.Subscribe(context.Background(), "test.delivery", func(ctx context.Context, subject string, data []byte) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, subject+":"+string(data))
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if n := PublishToMemory("test.delivery", []byte("a")); n != 1 {
		t.Errorf("delivered to %d subscriptions, want 1", n)
	}
	PublishToMemory("test.delivery", []byte("b"))
	PublishToMemory("test.other", []byte("ignored"))

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	})
	mu.Lock()
	defer mu.Unlock()
	if got[0] != "test.delivery:a" || got[1] != "test.delivery:b" {
		t.Errorf("got %v", got)
	}
}

func TestMemorySubscriber_SubscribeTwice(t *testing.T) {
	sub, _ := NewMemorySubscriber()
	defer func() { _ = sub.Close() }()

	noop := func(context.Context, string, []byte) error { return nil }
	if err := sub.Subscribe(context.Background(), "test.twice", noop); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := sub.Subscribe(context.Background(), "test.twice", noop); err == nil {
		t.Error("expected error on duplicate subscription")
	}
}

func TestMemorySubscriber_Unsubscribe(t *testing.T) {
	sub, _ := NewMemorySubscriber()
	defer func() { _ = sub.Close() }()

	noop := func(context.Context, string, []byte) error { return nil }
	if err := sub.Subscribe(context.Background(), "test.unsub", noop); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := sub.Unsubscribe("test.unsub"); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if n := PublishToMemory("test.unsub", []byte("x")); n != 0 {
		t.Errorf("delivered to %d subscriptions after unsubscribe", n)
	}
	if err := sub.Unsubscribe("test.unsub"); err == nil {
		t.Error("expected error unsubscribing twice")
	}
}

func TestMemorySubscriber_Close(t *testing.T) {
	sub, _ := NewMemorySubscriber()
	noop := func(context.Context, string, []byte) error { return nil }
	_ = sub.Subscribe(context.Background(), "test.close.a", noop)
	_ = sub.Subscribe(context.Background(), "test.close.b", noop)

	if err := sub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if n := PublishToMemory("test.close.a", []byte("x")); n != 0 {
		t.Errorf("delivered after close: %d", n)
	}
}
