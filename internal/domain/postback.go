package domain

import "time"

type PostbackTrigger string

const (
	TriggerLeadCreated       PostbackTrigger = "lead.created"
	TriggerSaleCreated       PostbackTrigger = "sale.created"
	TriggerCommissionCreated PostbackTrigger = "commission.created"
)

func IsValidTrigger(t PostbackTrigger) bool {
	switch t {
	case TriggerLeadCreated, TriggerSaleCreated, TriggerCommissionCreated:
		return true
	default:
		return false
	}
}

type PostbackDestination string

const (
	DestinationCustom PostbackDestination = "custom"
	DestinationSlack  PostbackDestination = "slack"
)

func IsValidDestination(d PostbackDestination) bool {
	switch d {
	case DestinationCustom, DestinationSlack:
		return true
	default:
		return false
	}
}

// Postback is a partner-configured outbound endpoint. A partner may register
// many; each is matched and dispatched independently.
type Postback struct {
	PostbackID          string              `json:"postback_id"`
	PartnerID           string              `json:"partner_id"`
	URL                 string              `json:"url"`
	Secret              string              `json:"secret,omitempty"`
	Destination         PostbackDestination `json:"destination"`
	Triggers            []PostbackTrigger   `json:"triggers"`
	DisabledAt          *time.Time          `json:"disabled_at,omitempty"`
	ConsecutiveFailures int                 `json:"consecutive_failures"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

func (p Postback) Matches(trigger PostbackTrigger) bool {
	if p.DisabledAt != nil {
		return false
	}
	for _, t := range p.Triggers {
		if t == trigger {
			return true
		}
	}
	return false
}

// PostbackPayload is the transient envelope flowing through enrichment,
// transformation, and delivery.
type PostbackPayload struct {
	EventID   string          `json:"event_id"`
	Event     PostbackTrigger `json:"event"`
	CreatedAt time.Time       `json:"created_at"`
	Data      map[string]any  `json:"data"`
}

// PostbackDelivery records one delivery outcome reported back by the queue.
type PostbackDelivery struct {
	DeliveryID string          `json:"delivery_id"`
	PostbackID string          `json:"postback_id"`
	EventID    string          `json:"event_id"`
	Trigger    PostbackTrigger `json:"trigger"`
	Success    bool            `json:"success"`
	RecordedAt time.Time       `json:"recorded_at"`
}
