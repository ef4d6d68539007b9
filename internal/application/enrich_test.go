package application

import (
	"context"
	"errors"
	"testing"

	"github.com/dubinc/partner-integrity/internal/domain"
)

func TestEnrichLead_MasksEmailWithoutDataSharing(t *testing.T) {
	out, err := enrichLead(context.Background(), leadData(), enrichContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	customer := out["customer"].(map[string]any)
	if customer["email"] != "j***@acme.com" {
		t.Fatalf("email = %v, want j***@acme.com", customer["email"])
	}
	if _, ok := customer["name"]; ok {
		t.Fatal("masked customer must not carry the name alongside the email")
	}
}

func TestEnrichLead_PassesEmailWithDataSharing(t *testing.T) {
	out, err := enrichLead(context.Background(), leadData(), enrichContext{DataSharingEnabled: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	customer := out["customer"].(map[string]any)
	if customer["email"] != "john@acme.com" {
		t.Fatalf("email = %v", customer["email"])
	}
	if customer["name"] != "John Doe" {
		t.Fatalf("name = %v", customer["name"])
	}
}

func TestEnrichCustomer_FallsBackToNameThenPseudonym(t *testing.T) {
	out, err := enrichCustomer(map[string]any{
		"customer": map[string]any{"customer_id": "cus_1", "name": "Jane"},
	}, enrichContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["name"] != "Jane" {
		t.Fatalf("name fallback = %v", out["name"])
	}

	out, err = enrichCustomer(map[string]any{
		"customer": map[string]any{"customer_id": "cus_1"},
	}, enrichContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	name, _ := out["name"].(string)
	if len(name) != len("customer-")+8 || name[:9] != "customer-" {
		t.Fatalf("pseudonym = %q", name)
	}
}

func TestEnrichLead_MissingCustomerFails(t *testing.T) {
	_, err := enrichLead(context.Background(), map[string]any{
		"click": map[string]any{"click_id": "clk_1"},
		"link":  map[string]any{"link_id": "lnk_1"},
	}, enrichContext{})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEnrichSale_MissingAmountFails(t *testing.T) {
	_, err := enrichSale(context.Background(), map[string]any{
		"customer": map[string]any{"customer_id": "cus_1"},
		"sale":     map[string]any{"sale_id": "sale_1", "currency": "USD"},
	}, enrichContext{})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEnrichLead_FlatFallbackKeys(t *testing.T) {
	out, err := enrichLead(context.Background(), map[string]any{
		"customer": map[string]any{"customer_id": "cus_1"},
		"click_id": "clk_9",
		"link_id":  "lnk_9",
	}, enrichContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	click := out["click"].(map[string]any)
	if click["click_id"] != "clk_9" {
		t.Fatalf("flat click_id not lifted: %v", click)
	}
	link := out["link"].(map[string]any)
	if link["link_id"] != "lnk_9" {
		t.Fatalf("flat link_id not lifted: %v", link)
	}
}

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"john@acme.com": "j***@acme.com",
		"j@acme.com":    "j*@acme.com",
		"not-an-email":  "****",
	}
	for in, want := range cases {
		if got := maskEmail(in); got != want {
			t.Fatalf("maskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}
