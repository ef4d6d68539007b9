package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/dubinc/partner-integrity/internal/application"
	"github.com/dubinc/partner-integrity/internal/contracts"
)

func TestConsumerWorkerSkipsUndecodableAndNonCanonical(t *testing.T) {
	svc := application.NewService(application.Dependencies{})
	consumer := NewMemoryConsumer()

	envelope, _ := json.Marshal(contracts.EventEnvelope{
		EventID:    "evt_1",
		EventType:  "user.registered",
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{}`),
	})
	consumer.Seed([]Message{
		{Topic: "partner.lead.created", Payload: []byte("not json")},
		{Topic: "user.registered", Payload: envelope},
	})
	worker := NewConsumerWorker(slog.Default(), consumer, svc, time.Second)

	if err := worker.processOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	remaining, _ := consumer.Poll(context.Background(), 10)
	if len(remaining) != 0 {
		t.Fatalf("messages not drained: %d left", len(remaining))
	}
}

func TestConsumerWorkerFallsBackToTopicForEventType(t *testing.T) {
	// The service rejects a canonical event with an empty payload, which
	// proves the topic fallback routed it into canonical handling.
	svc := application.NewService(application.Dependencies{})
	consumer := NewMemoryConsumer()

	envelope, _ := json.Marshal(contracts.EventEnvelope{
		EventID:    "evt_2",
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{}`),
	})
	consumer.Seed([]Message{{Topic: "partner.lead.created", Payload: envelope}})
	worker := NewConsumerWorker(slog.Default(), consumer, svc, time.Second)

	// Handling failure is logged and swallowed; the iteration still succeeds.
	if err := worker.processOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
