package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dubinc/partner-integrity/internal/domain"
)

// enrichContext carries the program-level flags an enricher needs beyond the
// raw event data.
type enrichContext struct {
	DataSharingEnabled bool
}

// enricher normalizes a raw persisted payload into the outbound shape for one
// trigger and validates it. A validation failure is a hard error: a malformed
// payload must never reach a partner endpoint.
type enricher func(ctx context.Context, raw map[string]any, env enrichContext) (map[string]any, error)

// newEnricherTable builds the trigger dispatch table. Explicit construction,
// resolved once at service startup.
func newEnricherTable() map[domain.PostbackTrigger]enricher {
	return map[domain.PostbackTrigger]enricher{
		domain.TriggerLeadCreated:       enrichLead,
		domain.TriggerSaleCreated:       enrichSale,
		domain.TriggerCommissionCreated: enrichCommission,
	}
}

func enrichLead(_ context.Context, raw map[string]any, env enrichContext) (map[string]any, error) {
	customer, err := enrichCustomer(raw, env)
	if err != nil {
		return nil, err
	}
	out := map[string]any{
		"customer": customer,
		"click":    reshapeSection(raw, "click", "click_id", "url", "referer", "ip"),
		"link":     reshapeSection(raw, "link", "link_id", "url"),
	}
	if v, ok := raw["metadata"]; ok {
		out["metadata"] = v
	}
	if err := requireSections(domain.TriggerLeadCreated, out, "customer", "click", "link"); err != nil {
		return nil, err
	}
	return out, nil
}

func enrichSale(_ context.Context, raw map[string]any, env enrichContext) (map[string]any, error) {
	customer, err := enrichCustomer(raw, env)
	if err != nil {
		return nil, err
	}
	sale := reshapeSection(raw, "sale", "sale_id", "amount", "currency")
	out := map[string]any{
		"customer": customer,
		"sale":     sale,
		"click":    reshapeSection(raw, "click", "click_id", "url", "referer", "ip"),
		"link":     reshapeSection(raw, "link", "link_id", "url"),
	}
	if err := requireSections(domain.TriggerSaleCreated, out, "customer", "sale"); err != nil {
		return nil, err
	}
	if sale != nil {
		if _, ok := sale["amount"]; !ok {
			return nil, fmt.Errorf("%w: sale.created payload missing sale amount", domain.ErrInvalidInput)
		}
	}
	return out, nil
}

func enrichCommission(_ context.Context, raw map[string]any, env enrichContext) (map[string]any, error) {
	customer, err := enrichCustomer(raw, env)
	if err != nil {
		return nil, err
	}
	commission := map[string]any{}
	if v, ok := stringField(raw, "commission_id"); ok {
		commission["commission_id"] = v
	}
	for _, key := range []string{"amount", "currency", "status"} {
		if v, ok := raw[key]; ok {
			commission[key] = v
		}
	}
	if section, ok := raw["commission"].(map[string]any); ok {
		for k, v := range section {
			commission[k] = v
		}
	}
	out := map[string]any{
		"commission": commission,
		"customer":   customer,
	}
	if _, ok := commission["commission_id"]; !ok {
		return nil, fmt.Errorf("%w: commission.created payload missing commission_id", domain.ErrInvalidInput)
	}
	return out, nil
}

// enrichCustomer reshapes the customer section and applies the redaction
// policy: unless the program has customer data sharing enabled, the email is
// masked down to its first character, falling back to the customer's name or
// a generated pseudonym when no email exists.
func enrichCustomer(raw map[string]any, env enrichContext) (map[string]any, error) {
	section, _ := raw["customer"].(map[string]any)
	if section == nil {
		return nil, fmt.Errorf("%w: payload missing customer", domain.ErrInvalidInput)
	}
	customerID, ok := stringField(section, "customer_id")
	if !ok {
		if customerID, ok = stringField(section, "id"); !ok {
			return nil, fmt.Errorf("%w: customer missing customer_id", domain.ErrInvalidInput)
		}
	}
	email, _ := stringField(section, "email")
	name, _ := stringField(section, "name")

	out := map[string]any{"customer_id": customerID}
	if env.DataSharingEnabled {
		if email != "" {
			out["email"] = email
		}
		if name != "" {
			out["name"] = name
		}
		return out, nil
	}

	switch {
	case email != "":
		out["email"] = maskEmail(email)
	case name != "":
		out["name"] = name
	default:
		out["name"] = pseudonym(customerID)
	}
	return out, nil
}

// maskEmail keeps the first local-part character and the domain:
// john@acme.com becomes j***@acme.com.
func maskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "****"
	}
	local := email[:at]
	runes := []rune(local)
	stars := len(runes) - 1
	if stars < 1 {
		stars = 1
	}
	return string(runes[0]) + strings.Repeat("*", stars) + email[at:]
}

func pseudonym(customerID string) string {
	sum := sha256.Sum256([]byte(customerID))
	return "customer-" + hex.EncodeToString(sum[:4])
}

// reshapeSection pulls a nested section out of the raw payload, keeping only
// the allowed keys. Flat snake_case fallbacks ("click_id" at the top level)
// cover producers that have not nested their payloads yet.
func reshapeSection(raw map[string]any, name string, keys ...string) map[string]any {
	out := map[string]any{}
	if section, ok := raw[name].(map[string]any); ok {
		for _, key := range keys {
			if v, ok := section[key]; ok {
				out[key] = v
			}
		}
	}
	for _, key := range keys {
		if _, ok := out[key]; ok {
			continue
		}
		flat := key
		if !strings.Contains(key, "_") {
			flat = name + "_" + key
		}
		if v, ok := raw[flat]; ok {
			out[key] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func requireSections(trigger domain.PostbackTrigger, payload map[string]any, names ...string) error {
	for _, name := range names {
		if payload[name] == nil {
			return fmt.Errorf("%w: %s payload missing %s", domain.ErrInvalidInput, trigger, name)
		}
	}
	return nil
}

func stringField(m map[string]any, key string) (string, bool) {
	v, ok := m[key].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}
