package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dubinc/partner-integrity/internal/contracts"
	"github.com/dubinc/partner-integrity/internal/domain"
	"github.com/dubinc/partner-integrity/internal/ports"
)

// DetectFraudEvents runs every applicable detector and returns all that
// fired. The result order is fixed (self_referral, google_ads_click,
// disposable_email) regardless of detection order so downstream processing is
// deterministic. Multi-label: one evaluation can flag several types at once.
func (s *Service) DetectFraudEvents(ctx context.Context, click ClickContext, customer CustomerContext, partner PartnerContext) []DetectedFraudEvent {
	out := make([]DetectedFraudEvent, 0, 3)

	if customer.Email != "" && partner.Email != "" {
		signal := domain.DetectSelfReferral(domain.SelfReferralInput{
			CustomerEmail: customer.Email,
			PartnerEmail:  partner.Email,
			CustomerName:  customer.Name,
			PartnerName:   partner.Name,
			CustomerIP:    click.IP,
			PartnerIP:     partner.IP,
		})
		if signal != nil {
			out = append(out, DetectedFraudEvent{
				Type:    domain.FraudTypeSelfReferral,
				Reason:  strings.Join(signal.Reasons, "; "),
				Reasons: signal.Reasons,
			})
		}
	}

	if click.URL != "" {
		if signal := domain.DetectGoogleAdsClick(click.URL, click.Referer); signal != nil {
			out = append(out, DetectedFraudEvent{
				Type:       domain.FraudTypeGoogleAdsClick,
				Reason:     signal.Reasons[0],
				Reasons:    signal.Reasons,
				Parameters: signal.Parameters,
			})
		}
	}

	if customer.Email != "" {
		if emailDomain := domain.EmailDomain(customer.Email); emailDomain != "" {
			disposable, err := s.disposableDomains.IsDisposable(ctx, emailDomain)
			switch {
			case err != nil:
				// Fail-open: a denylist outage must not flag legitimate
				// customers.
				s.logger.WarnContext(ctx, "disposable domain lookup failed",
					"module", "application.fraud",
					"layer", "application",
					"operation", "detect_fraud_events",
					"outcome", "failure",
					"email_domain", emailDomain,
					"error", err,
				)
			case disposable:
				out = append(out, DetectedFraudEvent{
					Type:   domain.FraudTypeDisposableEmail,
					Reason: "Disposable email domain: " + emailDomain,
				})
			}
		}
	}

	return out
}

// DetectFraudEvent is the legacy single-result variant: the first match in
// the same priority order. New callers should use DetectFraudEvents.
func (s *Service) DetectFraudEvent(ctx context.Context, click ClickContext, customer CustomerContext, partner PartnerContext) *DetectedFraudEvent {
	events := s.DetectFraudEvents(ctx, click, customer, partner)
	if len(events) == 0 {
		return nil
	}
	return &events[0]
}

// DetectAndRecordFraud evaluates a (partner, customer, click) triple and
// persists the outcome. Detection is best-effort: persistence failures are
// logged and swallowed so the caller's transaction pipeline is never blocked.
// Only a missing enrollment propagates, since evaluation without enrollment
// context is a caller bug.
func (s *Service) DetectAndRecordFraud(ctx context.Context, input DetectFraudInput) error {
	enrollment, err := s.enrollments.Get(ctx, input.Partner.PartnerID, input.ProgramID)
	if err != nil {
		return fmt.Errorf("load enrollment %s/%s: %w", input.Partner.PartnerID, input.ProgramID, err)
	}
	if enrollment.TrustedAt != nil {
		s.logger.InfoContext(ctx, "fraud detection skipped for trusted enrollment",
			"module", "application.fraud",
			"layer", "application",
			"operation", "detect_and_record_fraud",
			"outcome", "skipped",
			"partner_id", input.Partner.PartnerID,
			"program_id", input.ProgramID,
		)
		return nil
	}

	partner := input.Partner
	if partner.IP == "" {
		if user, err := s.partnerUsers.FirstByPartner(ctx, partner.PartnerID); err == nil {
			partner.IP = user.LastLoginIP
		}
	}

	events := s.DetectFraudEvents(ctx, input.Click, input.Customer, partner)
	if len(events) == 0 {
		return nil
	}

	now := s.nowFn()
	types := make([]domain.FraudEventType, 0, len(events))
	details := make(map[string]any, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
		detail := map[string]any{}
		if len(ev.Reasons) > 0 {
			detail["reasons"] = ev.Reasons
		} else if ev.Reason != "" {
			detail["reasons"] = []string{ev.Reason}
		}
		if len(ev.Parameters) > 0 {
			detail["parameters"] = ev.Parameters
		}
		details[string(ev.Type)] = detail
	}

	typeNames := make([]string, 0, len(types))
	for _, t := range types {
		typeNames = append(typeNames, string(t))
	}
	outboxPayload, _ := json.Marshal(contracts.FraudEventRecordedPayload{
		PartnerID:  input.Partner.PartnerID,
		CustomerID: input.Customer.CustomerID,
		ProgramID:  input.ProgramID,
		Types:      typeNames,
		RecordedAt: now.Format(time.RFC3339),
	})

	_, err = s.fraudEvents.RecordTx(ctx, ports.RecordFraudParams{
		PartnerID:    input.Partner.PartnerID,
		CustomerID:   input.Customer.CustomerID,
		ProgramID:    input.ProgramID,
		LinkID:       input.Click.LinkID,
		Types:        types,
		Details:      details,
		CommissionID: input.CommissionID,
		Outbox: &ports.OutboxEvent{
			EventID:      uuid.NewString(),
			EventType:    domain.EventFraudEventRecorded,
			PartitionKey: input.Partner.PartnerID,
			Payload:      outboxPayload,
			OccurredAt:   now,
		},
		Now: now,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "fraud event persistence failed",
			"module", "application.fraud",
			"layer", "application",
			"operation", "detect_and_record_fraud",
			"outcome", "failure",
			"partner_id", input.Partner.PartnerID,
			"customer_id", input.Customer.CustomerID,
			"commission_id", input.CommissionID,
			"error", err,
		)
		return nil
	}

	s.logger.InfoContext(ctx, "fraud event recorded",
		"module", "application.fraud",
		"layer", "application",
		"operation", "detect_and_record_fraud",
		"outcome", "success",
		"partner_id", input.Partner.PartnerID,
		"customer_id", input.Customer.CustomerID,
		"types", typeNames,
	)
	return nil
}

// ListFraudEvents exposes recorded events for the review surface.
func (s *Service) ListFraudEvents(ctx context.Context, partnerID string, limit int) ([]domain.FraudEvent, error) {
	if strings.TrimSpace(partnerID) == "" {
		return nil, domain.ErrInvalidInput
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.fraudEvents.ListByPartner(ctx, partnerID, limit)
}

// SetEnrollmentTrusted flips the trust circuit-breaker for a partner/program
// pair. A trusted enrollment is never evaluated again until untrusted.
func (s *Service) SetEnrollmentTrusted(ctx context.Context, partnerID, programID string, trusted bool) error {
	if strings.TrimSpace(partnerID) == "" || strings.TrimSpace(programID) == "" {
		return domain.ErrInvalidInput
	}
	if _, err := s.enrollments.Get(ctx, partnerID, programID); err != nil {
		return err
	}
	var trustedAt *time.Time
	if trusted {
		now := s.nowFn()
		trustedAt = &now
	}
	return s.enrollments.SetTrusted(ctx, partnerID, programID, trustedAt)
}
