package application

import (
	"time"

	"github.com/dubinc/partner-integrity/internal/domain"
)

type Config struct {
	// CallbackBaseURL is the externally reachable base for the delivery
	// queue's success/failure callbacks.
	CallbackBaseURL string
	ServiceName     string
	DedupTTL        time.Duration
}

type ClickContext struct {
	ClickID string
	URL     string
	Referer string
	IP      string
	LinkID  string
}

type CustomerContext struct {
	CustomerID string
	Email      string
	Name       string
}

type PartnerContext struct {
	PartnerID string
	Email     string
	Name      string
	// IP is optional; when empty the recorder resolves it from the partner's
	// first linked user record.
	IP string
}

type DetectFraudInput struct {
	ProgramID    string
	Partner      PartnerContext
	Customer     CustomerContext
	Click        ClickContext
	CommissionID string
}

// DetectedFraudEvent is one fired detector in the aggregator's normalized,
// fixed-order result list.
type DetectedFraudEvent struct {
	Type       domain.FraudEventType
	Reason     string
	Reasons    []string
	Parameters map[string]string
}

type CreatePostbackInput struct {
	PartnerID   string
	URL         string
	Destination string
	Triggers    []string
}

type DeliveryOutcomeInput struct {
	PostbackID string
	EventID    string
	Trigger    string
	Success    bool
}
