package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSigner signs outbound postback bodies with HMAC-SHA256 keyed by the
// registration secret. Receivers recompute the digest to authenticate the
// sender and detect tampering.
type HMACSigner struct{}

func NewHMACSigner() *HMACSigner { return &HMACSigner{} }

func (HMACSigner) Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
