package domain

import (
	"net/netip"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Similarity returns a normalized edit-distance ratio in [0,1].
// Identical strings score 1; an empty string against a non-empty one scores 0.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// NormalizeName lowercases a display name, strips everything that is not a
// letter, and collapses runs of whitespace so spelling variants compare equal.
func NormalizeName(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r):
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// SameIP compares two addresses after canonicalization. IPv4-mapped IPv6
// addresses collapse to their plain IPv4 form first. Malformed input never
// matches.
func SameIP(a, b string) bool {
	x, ok := normalizeIP(a)
	if !ok {
		return false
	}
	y, ok := normalizeIP(b)
	if !ok {
		return false
	}
	return x == y
}

func normalizeIP(raw string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

// EmailDomain returns the lowercased domain portion of an email address, or
// empty when the input has no usable domain.
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[at+1:]))
}

func emailUsername(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[:at]))
}
