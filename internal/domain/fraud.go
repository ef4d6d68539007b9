package domain

import (
	"net/url"
	"strings"
	"time"
	"unicode"
)

type FraudEventType string

const (
	FraudTypeSelfReferral    FraudEventType = "self_referral"
	FraudTypeGoogleAdsClick  FraudEventType = "google_ads_click"
	FraudTypeDisposableEmail FraudEventType = "disposable_email"
)

// FraudSignal is one detector's independent output: a confidence score and
// the ordered list of reasons that contributed to it. Signals are transient
// and never persisted directly.
type FraudSignal struct {
	Type       FraudEventType    `json:"type"`
	Score      float64           `json:"score"`
	Reasons    []string          `json:"reasons,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// FraudEvent is the persisted record, unique per (partner, customer) pair.
// Repeated detections for the same pair update the existing row.
type FraudEvent struct {
	FraudEventID    string         `json:"fraud_event_id"`
	PartnerID       string         `json:"partner_id"`
	CustomerID      string         `json:"customer_id"`
	ProgramID       string         `json:"program_id"`
	LinkID          string         `json:"link_id,omitempty"`
	SelfReferral    bool           `json:"self_referral"`
	GoogleAdsClick  bool           `json:"google_ads_click"`
	DisposableEmail bool           `json:"disposable_email"`
	Details         map[string]any `json:"details,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// ProgramEnrollment is the partner/program pairing this service reads for the
// trust circuit-breaker and the customer-data-sharing flag. A set TrustedAt
// suppresses all fraud evaluation for the pair.
type ProgramEnrollment struct {
	PartnerID                    string     `json:"partner_id"`
	ProgramID                    string     `json:"program_id"`
	TrustedAt                    *time.Time `json:"trusted_at,omitempty"`
	CustomerDataSharingEnabledAt *time.Time `json:"customer_data_sharing_enabled_at,omitempty"`
	CreatedAt                    time.Time  `json:"created_at"`
}

// PartnerUser links a partner account to a platform user; the stored last
// login IP is the best-effort source for the partner side of IP matching.
type PartnerUser struct {
	PartnerID   string    `json:"partner_id"`
	UserID      string    `json:"user_id"`
	LastLoginIP string    `json:"last_login_ip,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Commission struct {
	CommissionID string    `json:"commission_id"`
	PartnerID    string    `json:"partner_id"`
	CustomerID   string    `json:"customer_id"`
	Amount       float64   `json:"amount"`
	Currency     string    `json:"currency"`
	Status       string    `json:"status"`
	FraudEventID *string   `json:"fraud_event_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	CommissionStatusPending = "pending"
	CommissionStatusHeld    = "held"
	CommissionStatusPaid    = "paid"
)

type SelfReferralInput struct {
	CustomerEmail string
	PartnerEmail  string
	CustomerName  string
	PartnerName   string
	CustomerIP    string
	PartnerIP     string
}

// genericEmailDomains are consumer mail providers that carry no identity
// signal when customer and partner share them.
var genericEmailDomains = map[string]struct{}{
	"gmail.com":      {},
	"googlemail.com": {},
	"yahoo.com":      {},
	"hotmail.com":    {},
	"outlook.com":    {},
	"live.com":       {},
	"msn.com":        {},
	"icloud.com":     {},
	"me.com":         {},
	"aol.com":        {},
	"protonmail.com": {},
	"proton.me":      {},
	"mail.com":       {},
	"gmx.com":        {},
	"yandex.com":     {},
	"zoho.com":       {},
}

// DetectSelfReferral runs the weighted identity sub-checks between a customer
// and a partner. Each firing check adds its weight and appends a reason, in
// check order; the aggregate confidence is capped at 1.0. A nil result means
// nothing fired.
func DetectSelfReferral(in SelfReferralInput) *FraudSignal {
	customerEmail := strings.ToLower(strings.TrimSpace(in.CustomerEmail))
	partnerEmail := strings.ToLower(strings.TrimSpace(in.PartnerEmail))
	if customerEmail == "" || partnerEmail == "" {
		return nil
	}

	confidence := 0.0
	reasons := make([]string, 0, 6)

	if customerEmail == partnerEmail {
		confidence += 1.0
		reasons = append(reasons, "Identical email addresses")
	}

	customerDomain := EmailDomain(customerEmail)
	partnerDomain := EmailDomain(partnerEmail)
	if customerDomain != "" && customerDomain == partnerDomain {
		if _, generic := genericEmailDomains[customerDomain]; !generic {
			confidence += 0.3
			reasons = append(reasons, "Identical custom email domains")
		}
	}

	customerUser := emailUsername(customerEmail)
	partnerUser := emailUsername(partnerEmail)
	if customerUser != "" && partnerUser != "" {
		switch sim := Similarity(customerUser, partnerUser); {
		case sim > 0.8:
			confidence += 0.4
			reasons = append(reasons, "Very similar usernames")
		case sim > 0.6:
			confidence += 0.2
			reasons = append(reasons, "Similar usernames")
		}

		if base := stripTrailingDigits(customerUser); base != "" && base == stripTrailingDigits(partnerUser) {
			confidence += 0.3
			reasons = append(reasons, "Same username ignoring trailing digits")
		}

		if sharesUsernameComponent(customerUser, partnerUser) {
			confidence += 0.15
			reasons = append(reasons, "Shared username components")
		}
	}

	customerName := NormalizeName(in.CustomerName)
	partnerName := NormalizeName(in.PartnerName)
	if customerName != "" && partnerName != "" {
		switch {
		case customerName == partnerName:
			confidence += 0.5
			reasons = append(reasons, "Identical names")
		case Similarity(customerName, partnerName) > 0.8:
			confidence += 0.4
			reasons = append(reasons, "Very similar names")
		case Similarity(customerName, partnerName) > 0.6:
			confidence += 0.2
			reasons = append(reasons, "Similar names")
		}
	}

	if in.CustomerIP != "" && in.PartnerIP != "" && SameIP(in.CustomerIP, in.PartnerIP) {
		confidence += 0.8
		reasons = append(reasons, "Matching IP addresses")
	}

	if confidence == 0 {
		return nil
	}
	if confidence > 1 {
		confidence = 1
	}
	return &FraudSignal{Type: FraudTypeSelfReferral, Score: confidence, Reasons: reasons}
}

func stripTrailingDigits(s string) string {
	return strings.TrimRightFunc(s, unicode.IsDigit)
}

// sharesUsernameComponent reports whether two multi-part usernames (split on
// dots, underscores, and hyphens) share at least one closely matching part.
// Single-part usernames are already covered by the whole-string comparison.
func sharesUsernameComponent(a, b string) bool {
	splitParts := func(s string) []string {
		return strings.FieldsFunc(s, func(r rune) bool {
			return r == '.' || r == '_' || r == '-'
		})
	}
	partsA := splitParts(a)
	partsB := splitParts(b)
	if len(partsA) < 2 || len(partsB) < 2 {
		return false
	}
	for _, pa := range partsA {
		for _, pb := range partsB {
			if Similarity(pa, pb) > 0.8 {
				return true
			}
		}
	}
	return false
}

var googleAdsParams = []string{"gclid", "gad_source", "gad_campaignid"}

// DetectGoogleAdsClick inspects a click URL for Google Ads query parameters
// and falls back to the referer when none are present. An unparsable URL is a
// non-match, never an error.
func DetectGoogleAdsClick(clickURL, referer string) *FraudSignal {
	if parsed, err := url.Parse(clickURL); err == nil && parsed != nil {
		query := parsed.Query()
		params := make(map[string]string, len(googleAdsParams))
		for _, name := range googleAdsParams {
			if v := query.Get(name); v != "" {
				params[name] = v
			}
		}
		if len(params) > 0 {
			return &FraudSignal{
				Type:       FraudTypeGoogleAdsClick,
				Score:      1,
				Reasons:    []string{"Google Ads click parameters present"},
				Parameters: params,
			}
		}
	}
	if strings.Contains(strings.ToLower(referer), "google") {
		return &FraudSignal{
			Type:    FraudTypeGoogleAdsClick,
			Score:   1,
			Reasons: []string{"Click referer indicates Google traffic"},
		}
	}
	return nil
}
