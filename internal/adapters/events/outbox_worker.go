package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dubinc/partner-integrity/internal/contracts"
	"github.com/dubinc/partner-integrity/internal/domain"
	"github.com/dubinc/partner-integrity/internal/ports"
)

// OutboxWorker drains the transactional outbox: rows written alongside fraud
// events are published to the broker and marked sent. A failed publish leaves
// the row pending for the next tick.
type OutboxWorker struct {
	logger    *slog.Logger
	outbox    ports.OutboxRepository
	publisher ports.EventPublisher
	interval  time.Duration
	batchSize int
}

func NewOutboxWorker(logger *slog.Logger, outbox ports.OutboxRepository, publisher ports.EventPublisher, interval time.Duration, batchSize int) *OutboxWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxWorker{
		logger: logger, outbox: outbox, publisher: publisher, interval: interval, batchSize: batchSize,
	}
}

func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if err := w.processOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "outbox iteration failed",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *OutboxWorker) processOnce(ctx context.Context) error {
	records, err := w.outbox.ListPending(ctx, w.batchSize)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, rec := range records {
		body, err := marshalEnvelope(rec)
		if err != nil {
			w.logger.ErrorContext(ctx, "outbox record undecodable",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"operation", "marshal_envelope",
				"outcome", "failure",
				"event_id", rec.EventID,
				"error", err,
			)
			continue
		}
		if err := w.publisher.Publish(ctx, rec.EventType, body, rec.PartitionKey); err != nil {
			w.logger.WarnContext(ctx, "outbox publish failed",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"operation", "publish",
				"outcome", "failure",
				"event_id", rec.EventID,
				"event_type", rec.EventType,
				"error", err,
			)
			continue
		}
		_ = w.outbox.MarkSent(ctx, rec.EventID, now)
	}
	return nil
}

// marshalEnvelope wraps an outbox payload in the canonical event envelope so
// consumers see the same shape for emitted events as for inputs.
func marshalEnvelope(rec ports.OutboxEvent) ([]byte, error) {
	env := contracts.EventEnvelope{
		EventID:          rec.EventID,
		EventType:        rec.EventType,
		EventClass:       domain.CanonicalEventClass(rec.EventType),
		OccurredAt:       rec.OccurredAt.UTC(),
		PartitionKeyPath: domain.CanonicalPartitionKeyPath(rec.EventType),
		PartitionKey:     rec.PartitionKey,
		SourceService:    "partner-integrity",
		SchemaVersion:    "v1",
		Data:             json.RawMessage(rec.Payload),
	}
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope for %s: %w", rec.EventID, err)
	}
	return body, nil
}
