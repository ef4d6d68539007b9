package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dubinc/partner-integrity/internal/contracts"
	"github.com/dubinc/partner-integrity/internal/ports"
)

type stubOutbox struct {
	mu      sync.Mutex
	pending []ports.OutboxEvent
	sent    []string
}

func (s *stubOutbox) ListPending(_ context.Context, limit int) ([]ports.OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > len(s.pending) {
		limit = len(s.pending)
	}
	return s.pending[:limit], nil
}

func (s *stubOutbox) MarkSent(_ context.Context, eventID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, eventID)
	remaining := s.pending[:0]
	for _, rec := range s.pending {
		if rec.EventID != eventID {
			remaining = append(remaining, rec)
		}
	}
	s.pending = remaining
	return nil
}

type failingPublisher struct{ err error }

func (p failingPublisher) Publish(context.Context, string, []byte, string) error { return p.err }

func TestOutboxWorkerPublishesAndMarksSent(t *testing.T) {
	outbox := &stubOutbox{pending: []ports.OutboxEvent{
		{EventID: "evt_1", EventType: "fraud.event.recorded", PartitionKey: "pn_1", Payload: []byte(`{}`)},
		{EventID: "evt_2", EventType: "fraud.event.recorded", PartitionKey: "pn_2", Payload: []byte(`{}`)},
	}}
	publisher := NewMemoryPublisher()
	worker := NewOutboxWorker(slog.Default(), outbox, publisher, time.Second, 100)

	if err := worker.processOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(publisher.Events) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(publisher.Events))
	}
	if len(outbox.sent) != 2 {
		t.Fatalf("expected 2 marked sent, got %d", len(outbox.sent))
	}
	if publisher.Events[0].PartitionKey != "pn_1" {
		t.Fatalf("partition key = %q", publisher.Events[0].PartitionKey)
	}

	var env contracts.EventEnvelope
	if err := json.Unmarshal(publisher.Events[0].Payload, &env); err != nil {
		t.Fatalf("published payload is not an envelope: %v", err)
	}
	if env.EventID != "evt_1" || env.EventType != "fraud.event.recorded" {
		t.Fatalf("envelope = %s %s", env.EventID, env.EventType)
	}
	if env.PartitionKeyPath != "data.partner_id" {
		t.Fatalf("partition key path = %q", env.PartitionKeyPath)
	}
}

func TestOutboxWorkerLeavesPendingOnPublishFailure(t *testing.T) {
	outbox := &stubOutbox{pending: []ports.OutboxEvent{
		{EventID: "evt_1", EventType: "fraud.event.recorded", PartitionKey: "pn_1", Payload: []byte(`{}`)},
	}}
	worker := NewOutboxWorker(slog.Default(), outbox, failingPublisher{err: errors.New("broker down")}, time.Second, 100)

	if err := worker.processOnce(context.Background()); err != nil {
		t.Fatalf("iteration must not fail on publish error: %v", err)
	}
	if len(outbox.sent) != 0 {
		t.Fatal("failed publish must leave the record pending")
	}
	if len(outbox.pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(outbox.pending))
	}
}
