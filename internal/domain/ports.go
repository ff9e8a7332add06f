// Package domain contains the core business entities for the donation service.
package domain

import "context"

// PaymentGateway abstracts a payment provider's order-creation and capture
// APIs behind one contract. Provider-specific fields stay out of the shared
// result types.
type PaymentGateway interface {
	// CreateOrder creates a remote order for the donation. Each call carries
	// a freshly generated idempotency token so client-side retries do not
	// create duplicate remote orders.
	CreateOrder(ctx context.Context, req OrderRequest) (*ProviderOrder, error)

	// CaptureOrder finalizes the charge identified by the provider's
	// reference and returns the normalized result. A status other than
	// COMPLETED is a failure even when the HTTP call itself succeeded.
	CaptureOrder(ctx context.Context, providerRef string) (*CaptureResult, error)
}

// DonationLedger persists donation records with at-most-once semantics per
// transaction id. Recording the same transaction twice returns the existing
// record unchanged.
type DonationLedger interface {
	Record(ctx context.Context, rec *DonationRecord) (*DonationRecord, error)
}

// ReceiptDispatcher sends the donor receipt and the internal admin alert.
// Dispatch never fails as a whole; per-channel outcomes are reported in the
// result.
type ReceiptDispatcher interface {
	Dispatch(ctx context.Context, rec *DonationRecord) DispatchResult
}
