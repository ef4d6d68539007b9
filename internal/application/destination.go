package application

import (
	"encoding/json"
	"fmt"

	"github.com/dubinc/partner-integrity/internal/domain"
)

// destinationAdapter turns an enriched payload into the wire body for one
// destination type. The bool result is false when the destination has no
// transformer for the trigger, which is a no-op rather than an error.
type destinationAdapter interface {
	Transform(trigger domain.PostbackTrigger, payload domain.PostbackPayload) ([]byte, bool, error)
}

// newDestinationTable builds the closed destination dispatch table resolved
// at service construction.
func newDestinationTable() map[domain.PostbackDestination]destinationAdapter {
	return map[domain.PostbackDestination]destinationAdapter{
		domain.DestinationCustom: customAdapter{},
		domain.DestinationSlack:  slackAdapter{},
	}
}

// customAdapter delivers the enriched envelope verbatim for every trigger.
type customAdapter struct{}

func (customAdapter) Transform(_ domain.PostbackTrigger, payload domain.PostbackPayload) ([]byte, bool, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, false, fmt.Errorf("marshal postback payload: %w", err)
	}
	return body, true, nil
}

// slackAdapter renders triggers it understands as incoming-webhook messages.
type slackAdapter struct{}

func (slackAdapter) Transform(trigger domain.PostbackTrigger, payload domain.PostbackPayload) ([]byte, bool, error) {
	var text string
	switch trigger {
	case domain.TriggerLeadCreated:
		text = "New lead recorded" + slackCustomerSuffix(payload.Data)
	case domain.TriggerSaleCreated:
		text = "New sale recorded" + slackSaleSuffix(payload.Data) + slackCustomerSuffix(payload.Data)
	default:
		// No transformer for this trigger yet.
		return nil, false, nil
	}
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, false, fmt.Errorf("marshal slack payload: %w", err)
	}
	return body, true, nil
}

func slackCustomerSuffix(data map[string]any) string {
	customer, _ := data["customer"].(map[string]any)
	if customer == nil {
		return ""
	}
	if name, ok := stringField(customer, "name"); ok {
		return " for " + name
	}
	if email, ok := stringField(customer, "email"); ok {
		return " for " + email
	}
	return ""
}

func slackSaleSuffix(data map[string]any) string {
	sale, _ := data["sale"].(map[string]any)
	if sale == nil {
		return ""
	}
	amount, ok := sale["amount"].(float64)
	if !ok {
		return ""
	}
	currency, _ := sale["currency"].(string)
	if currency == "" {
		currency = "USD"
	}
	return fmt.Sprintf(" (%.2f %s)", amount, currency)
}
