package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dubinc/partner-integrity/internal/contracts"
	"github.com/dubinc/partner-integrity/internal/domain"
)

// HandleCanonicalEvent processes one consumed lead/sale/commission event:
// fraud evaluation first (so a held commission is recorded before partners
// hear about it), then postback fan-out. Event IDs are deduplicated so broker
// redelivery stays idempotent.
func (s *Service) HandleCanonicalEvent(ctx context.Context, env contracts.EventEnvelope) error {
	if !domain.IsCanonicalInputEvent(env.EventType) {
		s.logger.DebugContext(ctx, "ignoring non-canonical event",
			"module", "application.events",
			"layer", "application",
			"operation", "handle_canonical_event",
			"outcome", "skipped",
			"event_type", env.EventType,
		)
		return nil
	}
	if s.eventDedup != nil {
		duplicate, err := s.eventDedup.IsDuplicate(ctx, env.EventID, s.nowFn())
		if err != nil {
			return fmt.Errorf("event dedup check: %w", err)
		}
		if duplicate {
			return nil
		}
	}

	var payload contracts.PartnerEventPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return fmt.Errorf("%w: decode %s payload: %v", domain.ErrInvalidInput, env.EventType, err)
	}
	if payload.PartnerID == "" || payload.ProgramID == "" {
		return fmt.Errorf("%w: %s payload missing partner_id or program_id", domain.ErrInvalidInput, env.EventType)
	}

	input := DetectFraudInput{
		ProgramID:    payload.ProgramID,
		Partner:      PartnerContext{PartnerID: payload.PartnerID},
		CommissionID: payload.CommissionID,
	}
	if payload.Partner != nil {
		input.Partner.Email = payload.Partner.Email
		input.Partner.Name = payload.Partner.Name
	}
	if payload.Customer != nil {
		input.Customer = CustomerContext{
			CustomerID: payload.Customer.CustomerID,
			Email:      payload.Customer.Email,
			Name:       payload.Customer.Name,
		}
	}
	if payload.Click != nil {
		input.Click = ClickContext{
			ClickID: payload.Click.ClickID,
			URL:     payload.Click.URL,
			Referer: payload.Click.Referer,
			IP:      payload.Click.IP,
		}
	}
	if payload.Link != nil {
		input.Click.LinkID = payload.Link.LinkID
	}

	if err := s.DetectAndRecordFraud(ctx, input); err != nil {
		return fmt.Errorf("detect and record fraud: %w", err)
	}

	if trigger, ok := domain.TriggerForEvent(env.EventType); ok {
		var raw map[string]any
		if err := json.Unmarshal(env.Data, &raw); err == nil {
			if trigger == domain.TriggerCommissionCreated {
				s.backfillCommission(ctx, raw, payload.CommissionID)
			}
			if err := s.SendPartnerPostback(ctx, payload.PartnerID, trigger, raw); err != nil {
				s.logger.ErrorContext(ctx, "postback fan-out failed",
					"module", "application.events",
					"layer", "application",
					"operation", "handle_canonical_event",
					"outcome", "failure",
					"event_id", env.EventID,
					"trigger", trigger,
					"error", err,
				)
			}
		}
	}

	if s.eventDedup != nil {
		if err := s.eventDedup.MarkProcessed(ctx, env.EventID, env.EventType, s.nowFn().Add(s.cfg.DedupTTL)); err != nil {
			s.logger.WarnContext(ctx, "event dedup mark failed",
				"module", "application.events",
				"layer", "application",
				"operation", "handle_canonical_event",
				"outcome", "failure",
				"event_id", env.EventID,
				"error", err,
			)
		}
	}
	return nil
}

// backfillCommission fills the commission section from storage when the
// producing service sent only the commission id. Best-effort: a miss leaves
// the payload as-is and the enricher decides whether it is still valid.
func (s *Service) backfillCommission(ctx context.Context, raw map[string]any, commissionID string) {
	if s.commissions == nil || commissionID == "" {
		return
	}
	if _, ok := raw["commission"].(map[string]any); ok {
		return
	}
	if _, ok := raw["amount"]; ok {
		return
	}
	rec, err := s.commissions.Get(ctx, commissionID)
	if err != nil {
		s.logger.WarnContext(ctx, "commission backfill failed",
			"module", "application.events",
			"layer", "application",
			"operation", "backfill_commission",
			"outcome", "failure",
			"commission_id", commissionID,
			"error", err,
		)
		return
	}
	raw["commission"] = map[string]any{
		"commission_id": rec.CommissionID,
		"amount":        rec.Amount,
		"currency":      rec.Currency,
		"status":        rec.Status,
	}
}
