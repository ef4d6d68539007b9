package contracts

import (
	"encoding/json"
	"time"
)

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	EventClass       string          `json:"event_class,omitempty"`
	OccurredAt       time.Time       `json:"occurred_at"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    string          `json:"schema_version"`
	Data             json.RawMessage `json:"data"`
}

// PartnerEventPayload is the shared shape of lead/sale/commission created
// events; optional sections are nil when the producing service did not
// include them.
type PartnerEventPayload struct {
	PartnerID    string            `json:"partner_id"`
	ProgramID    string            `json:"program_id"`
	CommissionID string            `json:"commission_id,omitempty"`
	Customer     *CustomerPayload  `json:"customer,omitempty"`
	Partner      *PartnerPayload   `json:"partner,omitempty"`
	Click        *ClickPayload     `json:"click,omitempty"`
	Link         *LinkPayload      `json:"link,omitempty"`
	Sale         *SalePayload      `json:"sale,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	OccurredAt   string            `json:"occurred_at,omitempty"`
}

type CustomerPayload struct {
	CustomerID string `json:"customer_id"`
	Email      string `json:"email,omitempty"`
	Name       string `json:"name,omitempty"`
}

type PartnerPayload struct {
	PartnerID string `json:"partner_id"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
}

type ClickPayload struct {
	ClickID string `json:"click_id"`
	URL     string `json:"url,omitempty"`
	Referer string `json:"referer,omitempty"`
	IP      string `json:"ip,omitempty"`
}

type LinkPayload struct {
	LinkID string `json:"link_id"`
	URL    string `json:"url,omitempty"`
}

type SalePayload struct {
	SaleID   string  `json:"sale_id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency,omitempty"`
}

// FraudEventRecordedPayload is the data section of fraud.event.recorded
// envelopes. The row identifier is intentionally absent: the write path
// upserts on (partner_id, customer_id), so that pair is the stable key.
type FraudEventRecordedPayload struct {
	PartnerID  string   `json:"partner_id"`
	CustomerID string   `json:"customer_id"`
	ProgramID  string   `json:"program_id"`
	Types      []string `json:"types"`
	RecordedAt string   `json:"recorded_at"`
}
