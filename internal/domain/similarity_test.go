package domain

import (
	"math"
	"testing"
)

func TestSimilarity(t *testing.T) {
	if got := Similarity("john", "john"); got != 1 {
		t.Fatalf("identical strings: got %v, want 1", got)
	}
	if got := Similarity("", "john"); got != 0 {
		t.Fatalf("empty vs non-empty: got %v, want 0", got)
	}
	if got := Similarity("john", ""); got != 0 {
		t.Fatalf("non-empty vs empty: got %v, want 0", got)
	}

	// Edit distance 2 over the longer length 6.
	got := Similarity("john", "john.d")
	want := 1 - 2.0/6.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("john vs john.d: got %v, want %v", got, want)
	}

	if a, b := Similarity("alice", "alicia"), Similarity("alicia", "alice"); a != b {
		t.Fatalf("similarity not symmetric: %v vs %v", a, b)
	}
}

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"  John   D. Smith ": "john d smith",
		"JOHN-SMITH":         "johnsmith",
		"Ana María":          "ana maría",
		"42":                 "",
	}
	for in, want := range cases {
		if got := NormalizeName(in); got != want {
			t.Fatalf("NormalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSameIP(t *testing.T) {
	if !SameIP("192.168.1.1", "192.168.1.1") {
		t.Fatal("identical IPv4 should match")
	}
	if !SameIP("::ffff:192.168.1.1", "192.168.1.1") {
		t.Fatal("IPv4-mapped IPv6 should match its IPv4 form")
	}
	if SameIP("192.168.1.1", "192.168.1.2") {
		t.Fatal("different addresses should not match")
	}
	if SameIP("not-an-ip", "192.168.1.1") {
		t.Fatal("malformed input should never match")
	}
	if SameIP("", "") {
		t.Fatal("empty input should never match")
	}
}

func TestEmailDomain(t *testing.T) {
	if got := EmailDomain("John@Acme.COM"); got != "acme.com" {
		t.Fatalf("got %q, want acme.com", got)
	}
	if got := EmailDomain("no-at-sign"); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
	if got := EmailDomain("trailing@"); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}
