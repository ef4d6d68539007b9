package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dubinc/partner-integrity/internal/domain"
	"github.com/dubinc/partner-integrity/internal/ports"
)

// SendPartnerPostback enriches an event once and dispatches it to every
// enabled postback the partner has registered for the trigger. Destinations
// are independent: dispatch is concurrent and all-settled, one endpoint's
// failure never affects another's delivery. Delivery, retry, and callback
// invocation belong to the durable queue; this method's contract ends at
// enqueue.
func (s *Service) SendPartnerPostback(ctx context.Context, partnerID string, trigger domain.PostbackTrigger, data map[string]any) error {
	postbacks, err := s.postbacks.ListEnabledByTrigger(ctx, partnerID, trigger)
	if err != nil {
		s.logger.ErrorContext(ctx, "postback lookup failed",
			"module", "application.postback",
			"layer", "application",
			"operation", "send_partner_postback",
			"outcome", "failure",
			"partner_id", partnerID,
			"trigger", trigger,
			"error", err,
		)
		return nil
	}
	if len(postbacks) == 0 {
		s.logger.DebugContext(ctx, "no postbacks registered for trigger",
			"module", "application.postback",
			"layer", "application",
			"operation", "send_partner_postback",
			"outcome", "skipped",
			"partner_id", partnerID,
			"trigger", trigger,
		)
		return nil
	}

	enriched := data
	if enrich, ok := s.enrichers[trigger]; ok {
		enriched, err = enrich(ctx, data, enrichContext{
			DataSharingEnabled: s.customerDataSharingEnabled(ctx, partnerID, data),
		})
		if err != nil {
			return err
		}
	}

	payload := domain.PostbackPayload{
		EventID:   "evt_" + uuid.NewString(),
		Event:     trigger,
		CreatedAt: s.nowFn(),
		Data:      enriched,
	}

	// Resolve every adapter up front: an unknown destination is a
	// configuration error and aborts before anything is enqueued.
	adapters := make([]destinationAdapter, len(postbacks))
	for i, pb := range postbacks {
		adapter, ok := s.destinations[pb.Destination]
		if !ok {
			return fmt.Errorf("%w: %q", domain.ErrUnknownDestination, pb.Destination)
		}
		adapters[i] = adapter
	}

	var wg sync.WaitGroup
	for i, pb := range postbacks {
		wg.Add(1)
		go func(pb domain.Postback, adapter destinationAdapter) {
			defer wg.Done()
			if err := s.executePostback(ctx, pb, adapter, payload); err != nil {
				s.logger.ErrorContext(ctx, "postback dispatch failed",
					"module", "application.postback",
					"layer", "application",
					"operation", "execute_postback",
					"outcome", "failure",
					"postback_id", pb.PostbackID,
					"event_id", payload.EventID,
					"error", err,
				)
			}
		}(pb, adapters[i])
	}
	wg.Wait()
	return nil
}

func (s *Service) executePostback(ctx context.Context, pb domain.Postback, adapter destinationAdapter, payload domain.PostbackPayload) error {
	body, ok, err := adapter.Transform(payload.Event, payload)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.DebugContext(ctx, "destination has no transformer for trigger",
			"module", "application.postback",
			"layer", "application",
			"operation", "execute_postback",
			"outcome", "skipped",
			"postback_id", pb.PostbackID,
			"destination", pb.Destination,
			"trigger", payload.Event,
		)
		return nil
	}

	msgID, err := s.queue.Publish(ctx, ports.DeliveryMessage{
		URL:  pb.URL,
		Body: body,
		Headers: map[string]string{
			"Content-Type":         "application/json",
			"X-Postback-Id":        pb.PostbackID,
			"X-Postback-Signature": s.signer.Sign(pb.Secret, body),
		},
		CallbackURL:        s.callbackURL(pb.PostbackID, payload, false),
		FailureCallbackURL: s.callbackURL(pb.PostbackID, payload, true),
	})
	if err != nil {
		// Retries are the queue's job; locally this is log-and-move-on.
		s.logger.ErrorContext(ctx, "postback enqueue failed",
			"module", "application.postback",
			"layer", "application",
			"operation", "execute_postback",
			"outcome", "failure",
			"postback_id", pb.PostbackID,
			"event_id", payload.EventID,
			"error", err,
		)
		return nil
	}
	if msgID == "" {
		s.logger.WarnContext(ctx, "delivery queue returned no message id",
			"module", "application.postback",
			"layer", "application",
			"operation", "execute_postback",
			"outcome", "failure",
			"postback_id", pb.PostbackID,
			"event_id", payload.EventID,
		)
		return nil
	}
	s.logger.InfoContext(ctx, "postback enqueued",
		"module", "application.postback",
		"layer", "application",
		"operation", "execute_postback",
		"outcome", "success",
		"postback_id", pb.PostbackID,
		"event_id", payload.EventID,
		"message_id", msgID,
	)
	return nil
}

func (s *Service) callbackURL(postbackID string, payload domain.PostbackPayload, failed bool) string {
	path := "/v1/postbacks/callbacks/success"
	if failed {
		path = "/v1/postbacks/callbacks/failure"
	}
	query := url.Values{}
	query.Set("postback_id", postbackID)
	query.Set("event_id", payload.EventID)
	query.Set("event", string(payload.Event))
	if failed {
		query.Set("failed", "true")
	}
	return strings.TrimRight(s.cfg.CallbackBaseURL, "/") + path + "?" + query.Encode()
}

// customerDataSharingEnabled resolves the program flag controlling customer
// email redaction. Best-effort: missing context redacts.
func (s *Service) customerDataSharingEnabled(ctx context.Context, partnerID string, data map[string]any) bool {
	programID, ok := stringField(data, "program_id")
	if !ok {
		return false
	}
	enrollment, err := s.enrollments.Get(ctx, partnerID, programID)
	if err != nil {
		return false
	}
	return enrollment.CustomerDataSharingEnabledAt != nil
}

// CreatePostback registers a new partner endpoint; the signing secret is
// generated server-side and returned once.
func (s *Service) CreatePostback(ctx context.Context, input CreatePostbackInput) (domain.Postback, error) {
	input.URL = strings.TrimSpace(input.URL)
	if strings.TrimSpace(input.PartnerID) == "" || len(input.Triggers) == 0 {
		return domain.Postback{}, domain.ErrInvalidInput
	}
	if !strings.HasPrefix(strings.ToLower(input.URL), "https://") {
		return domain.Postback{}, domain.ErrInvalidInput
	}
	destination := domain.PostbackDestination(strings.ToLower(strings.TrimSpace(input.Destination)))
	if destination == "" {
		destination = domain.DestinationCustom
	}
	if !domain.IsValidDestination(destination) {
		return domain.Postback{}, fmt.Errorf("%w: %q", domain.ErrUnknownDestination, destination)
	}
	triggers := make([]domain.PostbackTrigger, 0, len(input.Triggers))
	seen := map[domain.PostbackTrigger]struct{}{}
	for _, raw := range input.Triggers {
		trigger := domain.PostbackTrigger(strings.TrimSpace(raw))
		if !domain.IsValidTrigger(trigger) {
			return domain.Postback{}, fmt.Errorf("%w: unknown trigger %q", domain.ErrInvalidInput, raw)
		}
		if _, dup := seen[trigger]; dup {
			continue
		}
		seen[trigger] = struct{}{}
		triggers = append(triggers, trigger)
	}

	now := s.nowFn()
	row := domain.Postback{
		PostbackID:  "pb_" + uuid.NewString(),
		PartnerID:   strings.TrimSpace(input.PartnerID),
		URL:         input.URL,
		Secret:      randomSecret(),
		Destination: destination,
		Triggers:    triggers,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.postbacks.Create(ctx, row); err != nil {
		return domain.Postback{}, err
	}
	return row, nil
}

func (s *Service) ListPostbacks(ctx context.Context, partnerID string) ([]domain.Postback, error) {
	if strings.TrimSpace(partnerID) == "" {
		return nil, domain.ErrInvalidInput
	}
	rows, err := s.postbacks.ListByPartner(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	// Secrets are returned only at creation time.
	for i := range rows {
		rows[i].Secret = ""
	}
	return rows, nil
}

func (s *Service) SetPostbackDisabled(ctx context.Context, postbackID string, disabled bool) error {
	if strings.TrimSpace(postbackID) == "" {
		return domain.ErrInvalidInput
	}
	var disabledAt *time.Time
	if disabled {
		now := s.nowFn()
		disabledAt = &now
	}
	return s.postbacks.SetDisabled(ctx, postbackID, disabledAt)
}

// RecordDeliveryOutcome persists the queue's success/failure callback for a
// dispatched postback.
func (s *Service) RecordDeliveryOutcome(ctx context.Context, input DeliveryOutcomeInput) error {
	if strings.TrimSpace(input.PostbackID) == "" || strings.TrimSpace(input.EventID) == "" {
		return domain.ErrInvalidInput
	}
	return s.postbacks.RecordDelivery(ctx, domain.PostbackDelivery{
		DeliveryID: "del_" + uuid.NewString(),
		PostbackID: input.PostbackID,
		EventID:    input.EventID,
		Trigger:    domain.PostbackTrigger(input.Trigger),
		Success:    input.Success,
		RecordedAt: s.nowFn(),
	})
}

func randomSecret() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(b)
}
