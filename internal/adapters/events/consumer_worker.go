package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/dubinc/partner-integrity/internal/application"
	"github.com/dubinc/partner-integrity/internal/contracts"
)

type Message struct {
	Topic   string
	Payload []byte
}

type Consumer interface {
	Poll(ctx context.Context, max int) ([]Message, error)
}

// ConsumerWorker drains the canonical partner event topics and feeds each
// envelope through fraud evaluation and postback fan-out.
type ConsumerWorker struct {
	logger   *slog.Logger
	consumer Consumer
	service  *application.Service
	interval time.Duration
}

func NewConsumerWorker(logger *slog.Logger, consumer Consumer, service *application.Service, interval time.Duration) *ConsumerWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &ConsumerWorker{
		logger: logger, consumer: consumer, service: service, interval: interval,
	}
}

func (w *ConsumerWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.processOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "consumer iteration failed",
				"module", "events.consumer_worker",
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

func (w *ConsumerWorker) processOnce(ctx context.Context) error {
	msgs, err := w.consumer.Poll(ctx, 50)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		var env contracts.EventEnvelope
		if err := json.Unmarshal(msg.Payload, &env); err != nil {
			w.logger.WarnContext(ctx, "dropping undecodable event",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "skipped",
				"topic", msg.Topic,
				"error", err,
			)
			continue
		}
		if env.EventType == "" {
			env.EventType = msg.Topic
		}
		if err := w.service.HandleCanonicalEvent(ctx, env); err != nil {
			w.logger.WarnContext(ctx, "failed to handle canonical event",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"event_id", env.EventID,
				"event_type", env.EventType,
				"error", err,
			)
		}
	}
	return nil
}
