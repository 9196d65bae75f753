package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/soltixdb/sitecast/internal/analytics/forecast"
	"github.com/soltixdb/sitecast/internal/config"
	"github.com/soltixdb/sitecast/internal/source"
)

// setupTestNATS starts an embedded JetStream server on a random port
func setupTestNATS(t *testing.T) (string, func()) {
	t.Helper()
	opts := &server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		t.Fatalf("Failed to create NATS server: %v", err)
	}
	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	return ns.ClientURL(), func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	}
}

func TestNATSPublisher_CreatesStreamAndPublishes(t *testing.T) {
	url, cleanup := setupTestNATS(t)
	defer cleanup()

	q, err := newNATSPublisher(url, "test")
	if err != nil {
		t.Fatalf("Failed to create NATS publisher: %v", err)
	}
	defer func() { _ = q.Close() }()

	subject := "sitecast.events"
	ctx := context.Background()
	for _, payload := range []string{"one", "two"} {
		if err := q.Publish(ctx, subject, []byte(payload)); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	info, err := q.js.StreamInfo(StreamName(subject))
	if err != nil {
		t.Fatalf("Expected stream %s: %v", StreamName(subject), err)
	}
	if info.State.Msgs != 2 {
		t.Errorf("Expected 2 stored messages, got %d", info.State.Msgs)
	}

	msg, err := q.js.GetMsg(StreamName(subject), 2)
	if err != nil {
		t.Fatalf("GetMsg failed: %v", err)
	}
	if string(msg.Data) != "two" {
		t.Errorf("Expected second message %q, got %q", "two", msg.Data)
	}
}

func TestNATSPublisher_ReusesExistingStream(t *testing.T) {
	url, cleanup := setupTestNATS(t)
	defer cleanup()

	q, err := newNATSPublisher(url, "test")
	if err != nil {
		t.Fatalf("Failed to create NATS publisher: %v", err)
	}
	defer func() { _ = q.Close() }()

	if _, err := q.js.AddStream(&nats.StreamConfig{
		Name:     "OPERATOR_EVENTS",
		Subjects: []string{"sitecast.>"},
	}); err != nil {
		t.Fatalf("AddStream failed: %v", err)
	}

	subject := "sitecast.events"
	if err := q.Publish(context.Background(), subject, []byte("x")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if _, err := q.js.StreamInfo(StreamName(subject)); !errors.Is(err, nats.ErrStreamNotFound) {
		t.Errorf("Expected no per-subject stream, got %v", err)
	}
	info, err := q.js.StreamInfo("OPERATOR_EVENTS")
	if err != nil {
		t.Fatalf("StreamInfo failed: %v", err)
	}
	if info.State.Msgs != 1 {
		t.Errorf("Expected the message in the existing stream, got %d", info.State.Msgs)
	}
}

func TestEventPublisher_OverNATS(t *testing.T) {
	url, cleanup := setupTestNATS(t)
	defer cleanup()

	pub, err := NewPublisher(config.QueueConfig{Type: "nats", URL: url, NodeID: "test"})
	if err != nil {
		t.Fatalf("NewPublisher failed: %v", err)
	}
	events := NewEventPublisher(pub, "sitecast.forecasts")
	defer func() { _ = events.Close() }()

	ev := ModelEvent{
		Type:       EventUpdated,
		Group:      source.GroupKey{SiteID: 5, ThresholdType: "3"},
		Order:      "SARIMA(1,1,0)(0,0,0,7)",
		Metrics:    forecast.EvaluationMetrics{AIC: -4, R2: 0.9},
		DataPoints: 41,
		Time:       time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := events.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer nc.Close()
	js, err := nc.JetStream()
	if err != nil {
		t.Fatalf("JetStream failed: %v", err)
	}

	msg, err := js.GetMsg(StreamName("sitecast.forecasts"), 1)
	if err != nil {
		t.Fatalf("GetMsg failed: %v", err)
	}
	var got ModelEvent
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("invalid event json: %v", err)
	}
	if got.Type != EventUpdated || got.Group != ev.Group || got.DataPoints != 41 {
		t.Errorf("unexpected event: %+v", got)
	}
}
