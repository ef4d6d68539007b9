package ports

import (
	"context"
	"time"

	"github.com/dubinc/partner-integrity/internal/domain"
)

type EnrollmentRepository interface {
	Get(ctx context.Context, partnerID, programID string) (domain.ProgramEnrollment, error)
	SetTrusted(ctx context.Context, partnerID, programID string, trustedAt *time.Time) error
}

type PartnerUserRepository interface {
	FirstByPartner(ctx context.Context, partnerID string) (domain.PartnerUser, error)
}

// OutboxEvent is written in the same transaction as the state change it
// announces; a polling worker publishes it to the broker afterwards.
type OutboxEvent struct {
	EventID      string
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

// RecordFraudParams is the single-transaction write set for one detection:
// the find-or-create on the unique (partner, customer) pair, the optional
// commission hold, and the outbox record.
type RecordFraudParams struct {
	PartnerID    string
	CustomerID   string
	ProgramID    string
	LinkID       string
	Types        []domain.FraudEventType
	Details      map[string]any
	CommissionID string
	Outbox       *OutboxEvent
	Now          time.Time
}

type FraudEventRepository interface {
	// RecordTx applies RecordFraudParams atomically. A concurrent create race
	// on the unique pair is absorbed and treated as success.
	RecordTx(ctx context.Context, params RecordFraudParams) (domain.FraudEvent, error)
	GetByPair(ctx context.Context, partnerID, customerID string) (domain.FraudEvent, error)
	ListByPartner(ctx context.Context, partnerID string, limit int) ([]domain.FraudEvent, error)
}

type CommissionRepository interface {
	Get(ctx context.Context, commissionID string) (domain.Commission, error)
}

type PostbackRepository interface {
	Create(ctx context.Context, row domain.Postback) error
	Get(ctx context.Context, postbackID string) (domain.Postback, error)
	ListByPartner(ctx context.Context, partnerID string) ([]domain.Postback, error)
	// ListEnabledByTrigger returns postbacks with a null disabled_at whose
	// triggers array contains the trigger.
	ListEnabledByTrigger(ctx context.Context, partnerID string, trigger domain.PostbackTrigger) ([]domain.Postback, error)
	SetDisabled(ctx context.Context, postbackID string, disabledAt *time.Time) error
	RecordDelivery(ctx context.Context, row domain.PostbackDelivery) error
}

type OutboxRepository interface {
	ListPending(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkSent(ctx context.Context, eventID string, at time.Time) error
}

type EventDedupRepository interface {
	IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error
}
