package domain

import (
	"reflect"
	"testing"
)

func TestDetectSelfReferral_IdenticalEmails(t *testing.T) {
	signal := DetectSelfReferral(SelfReferralInput{
		CustomerEmail: "john@gmail.com",
		PartnerEmail:  "John@gmail.com",
	})
	if signal == nil {
		t.Fatal("expected a signal")
	}
	if signal.Score != 1 {
		t.Fatalf("score = %v, want 1", signal.Score)
	}
	if signal.Reasons[0] != "Identical email addresses" {
		t.Fatalf("unexpected reasons: %v", signal.Reasons)
	}
}

func TestDetectSelfReferral_CustomDomainSimilarUsernameIdenticalName(t *testing.T) {
	signal := DetectSelfReferral(SelfReferralInput{
		CustomerEmail: "john@acme.com",
		PartnerEmail:  "john.d@acme.com",
		CustomerName:  "John Doe",
		PartnerName:   "john doe",
	})
	if signal == nil {
		t.Fatal("expected a signal")
	}
	// +0.3 custom domain, +0.2 similar usernames, +0.5 identical names.
	if signal.Score != 1 {
		t.Fatalf("score = %v, want capped 1", signal.Score)
	}
	want := []string{"Identical custom email domains", "Similar usernames", "Identical names"}
	if !reflect.DeepEqual(signal.Reasons, want) {
		t.Fatalf("reasons = %v, want %v", signal.Reasons, want)
	}
}

func TestDetectSelfReferral_GenericDomainCarriesNoDomainWeight(t *testing.T) {
	signal := DetectSelfReferral(SelfReferralInput{
		CustomerEmail: "john@gmail.com",
		PartnerEmail:  "johnny@gmail.com",
	})
	if signal == nil {
		t.Fatal("expected a signal")
	}
	if signal.Score != 0.2 {
		t.Fatalf("score = %v, want 0.2", signal.Score)
	}
	for _, r := range signal.Reasons {
		if r == "Identical custom email domains" {
			t.Fatal("generic domain must not add domain weight")
		}
	}
}

func TestDetectSelfReferral_TrailingDigits(t *testing.T) {
	signal := DetectSelfReferral(SelfReferralInput{
		CustomerEmail: "john@gmail.com",
		PartnerEmail:  "john42@yahoo.com",
	})
	if signal == nil {
		t.Fatal("expected a signal")
	}
	// +0.2 similar usernames, +0.3 same username ignoring trailing digits.
	if signal.Score != 0.5 {
		t.Fatalf("score = %v, want 0.5", signal.Score)
	}
}

func TestDetectSelfReferral_AllDigitUsernamesDoNotMatch(t *testing.T) {
	// Both usernames strip to the empty string; that must not count as a
	// shared base username.
	signal := DetectSelfReferral(SelfReferralInput{
		CustomerEmail: "111@x.com",
		PartnerEmail:  "222@y.com",
	})
	if signal != nil {
		t.Fatalf("expected no signal, got %+v", signal)
	}
}

func TestDetectSelfReferral_SharedUsernameComponent(t *testing.T) {
	signal := DetectSelfReferral(SelfReferralInput{
		CustomerEmail: "smith.john@gmail.com",
		PartnerEmail:  "j_smith@yahoo.com",
	})
	if signal == nil {
		t.Fatal("expected a signal")
	}
	found := false
	for _, r := range signal.Reasons {
		if r == "Shared username components" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected shared component reason, got %v", signal.Reasons)
	}
}

func TestDetectSelfReferral_MatchingIP(t *testing.T) {
	signal := DetectSelfReferral(SelfReferralInput{
		CustomerEmail: "alpha@gmail.com",
		PartnerEmail:  "omega@yahoo.com",
		CustomerIP:    "::ffff:10.0.0.7",
		PartnerIP:     "10.0.0.7",
	})
	if signal == nil {
		t.Fatal("expected a signal")
	}
	if signal.Score != 0.8 {
		t.Fatalf("score = %v, want 0.8", signal.Score)
	}
	if signal.Reasons[len(signal.Reasons)-1] != "Matching IP addresses" {
		t.Fatalf("unexpected reasons: %v", signal.Reasons)
	}
}

func TestDetectSelfReferral_NothingFires(t *testing.T) {
	if signal := DetectSelfReferral(SelfReferralInput{
		CustomerEmail: "alpha@gmail.com",
		PartnerEmail:  "zz@yahoo.com",
	}); signal != nil {
		t.Fatalf("expected nil, got %+v", signal)
	}
}

func TestDetectSelfReferral_MissingEmails(t *testing.T) {
	if signal := DetectSelfReferral(SelfReferralInput{CustomerEmail: "a@b.com"}); signal != nil {
		t.Fatal("missing partner email must not fire")
	}
	if signal := DetectSelfReferral(SelfReferralInput{PartnerEmail: "a@b.com"}); signal != nil {
		t.Fatal("missing customer email must not fire")
	}
}

func TestDetectGoogleAdsClick_Params(t *testing.T) {
	signal := DetectGoogleAdsClick("https://example.com/landing?gclid=abc123&utm_source=x", "")
	if signal == nil {
		t.Fatal("expected a signal")
	}
	if signal.Parameters["gclid"] != "abc123" {
		t.Fatalf("parameters = %v", signal.Parameters)
	}
	if signal.Score != 1 {
		t.Fatalf("score = %v, want 1", signal.Score)
	}
}

func TestDetectGoogleAdsClick_RefererFallback(t *testing.T) {
	signal := DetectGoogleAdsClick("https://example.com/landing", "https://www.google.com/")
	if signal == nil {
		t.Fatal("expected a signal from referer")
	}
	if len(signal.Parameters) != 0 {
		t.Fatalf("referer match should carry no parameters: %v", signal.Parameters)
	}
}

func TestDetectGoogleAdsClick_NoMatch(t *testing.T) {
	if signal := DetectGoogleAdsClick("https://example.com/landing?utm_source=x", "https://duckduckgo.com/"); signal != nil {
		t.Fatalf("expected nil, got %+v", signal)
	}
}

func TestDetectGoogleAdsClick_UnparsableURL(t *testing.T) {
	if signal := DetectGoogleAdsClick("http://%zz", ""); signal != nil {
		t.Fatalf("unparsable URL must be a non-match, got %+v", signal)
	}
}
