package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerify(t *testing.T) {
	secret := "test_secret"
	valid := Sign("order_123", "pay_456", secret)

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		sig       string
		secret    string
		want      bool
	}{
		{"valid signature", "order_123", "pay_456", valid, secret, true},
		{"tampered signature", "order_123", "pay_456", "deadbeef", secret, false},
		{"wrong order id", "order_999", "pay_456", valid, secret, false},
		{"wrong payment id", "order_123", "pay_999", valid, secret, false},
		{"wrong secret", "order_123", "pay_456", valid, "other_secret", false},
		{"missing order id", "", "pay_456", valid, secret, false},
		{"missing payment id", "order_123", "", valid, secret, false},
		{"missing signature", "order_123", "pay_456", "", secret, false},
		{"missing secret", "order_123", "pay_456", valid, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Verify(tt.orderID, tt.paymentID, tt.sig, tt.secret))
		})
	}
}

func TestSignIsDeterministic(t *testing.T) {
	a := Sign("o1", "p1", "s")
	b := Sign("o1", "p1", "s")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex-encoded SHA-256
}
