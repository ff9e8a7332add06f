// Package signature provides Razorpay payment signature verification.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Verify checks that a payment confirmation was genuinely produced by the
// gateway. The expected signature is HMAC-SHA256 over "<orderID>|<paymentID>"
// keyed with the account secret, hex-encoded.
//
// Any missing input fails verification. A false return is terminal: the
// caller must not proceed to capture or record.
func Verify(orderID, paymentID, sig, secret string) bool {
	if orderID == "" || paymentID == "" || sig == "" || secret == "" {
		return false
	}
	expected := Sign(orderID, paymentID, secret)
	return hmac.Equal([]byte(sig), []byte(expected))
}

// Sign computes the hex-encoded HMAC-SHA256 signature for an order/payment
// pair. Exported so tests and tooling can produce valid signatures.
func Sign(orderID, paymentID, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(h.Sum(nil))
}
