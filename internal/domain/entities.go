// Package domain contains the core business entities for the donation service.
// This is the innermost layer - no external dependencies.
package domain

import (
	"fmt"
	"math/rand"
	"time"
)

// PaymentMethod identifies which provider processed a donation.
type PaymentMethod string

const (
	MethodRazorpay PaymentMethod = "razorpay"
	MethodPayPal   PaymentMethod = "paypal"
)

// receiptTag maps a payment method to the short tag embedded in receipt numbers.
func receiptTag(method PaymentMethod) string {
	switch method {
	case MethodPayPal:
		return "PPL"
	default:
		return "RZP"
	}
}

// Frequency is the billing cadence of a recurring donation.
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// ValidFrequency reports whether f is a supported recurring cadence.
func ValidFrequency(f Frequency) bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// Donor holds the donor contact details submitted with a payment.
type Donor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// PaymentConfirmation is the client-submitted confirmation of a gateway
// payment. All three correlation fields must be present or the confirmation
// is rejected before any side effect.
type PaymentConfirmation struct {
	OrderID   string    `json:"order_id"`
	PaymentID string    `json:"payment_id"`
	Signature string    `json:"signature"`
	Donor     Donor     `json:"donor"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Recurring bool      `json:"recurring"`
	Frequency Frequency `json:"frequency,omitempty"`
}

// CaptureStatus is the normalized outcome of a provider capture.
type CaptureStatus string

const (
	CaptureCompleted CaptureStatus = "COMPLETED"
	CaptureFailed    CaptureStatus = "FAILED"
	CapturePending   CaptureStatus = "PENDING"
)

// CaptureResult is the provider-independent result of finalizing a charge.
// Amount and Currency reflect what was actually settled.
type CaptureResult struct {
	TransactionID string        `json:"transaction_id"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	Status        CaptureStatus `json:"status"`
	CaptureTime   time.Time     `json:"capture_time"`
}

// OrderRequest describes a new donation order to be created with a provider.
type OrderRequest struct {
	Method    PaymentMethod `json:"payment_method"`
	Amount    float64       `json:"amount"`
	Currency  string        `json:"currency"`
	Donor     Donor         `json:"donor"`
	Recurring bool          `json:"recurring"`
	Frequency Frequency     `json:"frequency,omitempty"`
}

// ProviderOrder is a remote order created with a provider, awaiting
// approval and capture.
type ProviderOrder struct {
	ProviderOrderID string  `json:"provider_order_id"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	Status          string  `json:"status"`
}

// DonationRecord is one entry in the append-only donation ledger. Records
// are created exactly once per transaction id and never mutated.
type DonationRecord struct {
	ReceiptNumber string        `json:"receipt_number"`
	TransactionID string        `json:"transaction_id"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	DonorName     string        `json:"donor_name"`
	DonorEmail    string        `json:"donor_email"`
	DonorPhone    string        `json:"donor_phone,omitempty"`
	Recurring     bool          `json:"recurring"`
	Frequency     Frequency     `json:"frequency,omitempty"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	CreatedAt     time.Time     `json:"created_at"`
}

// NewDonationRecord builds the ledger entry for a completed capture.
// The receipt number is cosmetic - the transaction id is the dedup key.
func NewDonationRecord(capture *CaptureResult, donor Donor, recurring bool, freq Frequency, method PaymentMethod, receiptPrefix string) *DonationRecord {
	createdAt := capture.CaptureTime
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return &DonationRecord{
		ReceiptNumber: NewReceiptNumber(receiptPrefix, method),
		TransactionID: capture.TransactionID,
		Amount:        capture.Amount,
		Currency:      capture.Currency,
		DonorName:     donor.Name,
		DonorEmail:    donor.Email,
		DonorPhone:    donor.Phone,
		Recurring:     recurring,
		Frequency:     freq,
		PaymentMethod: method,
		CreatedAt:     createdAt,
	}
}

// NewReceiptNumber generates a human-readable receipt number in the form
// <prefix>_<tag>_<epochMillis>_<zero-padded random>.
func NewReceiptNumber(prefix string, method PaymentMethod) string {
	return fmt.Sprintf("%s_%s_%d_%03d", prefix, receiptTag(method), time.Now().UnixMilli(), rand.Intn(1000))
}

// DispatchResult reports the per-channel outcome of sending receipts for a
// donation. A failure in one channel never blocks the other.
type DispatchResult struct {
	DonorSent     bool   `json:"email_sent"`
	AdminNotified bool   `json:"admin_notified"`
	DonorError    string `json:"donor_error,omitempty"`
	AdminError    string `json:"admin_error,omitempty"`
}
