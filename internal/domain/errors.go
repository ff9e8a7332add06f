// Package domain contains the core business entities for the donation service.
package domain

import "errors"

// Domain errors - represent business rule violations.
var (
	// ErrInvalidConfirmation is returned for missing or malformed input.
	ErrInvalidConfirmation = errors.New("invalid payment confirmation")

	// ErrInvalidSignature is returned when the gateway signature check fails.
	// The caller must never proceed to capture after this.
	ErrInvalidSignature = errors.New("invalid payment signature")

	// ErrBadCredentials is returned when provider credentials are missing or
	// malformed. No remote call is attempted.
	ErrBadCredentials = errors.New("provider credentials not configured")

	// ErrProviderError is returned when a provider API returns non-success
	// or an unexpected response shape.
	ErrProviderError = errors.New("payment provider error")

	// ErrCaptureNotCompleted is returned when a capture succeeded at the
	// HTTP level but the in-body status is not COMPLETED.
	ErrCaptureNotCompleted = errors.New("capture not completed")

	// ErrPersistenceFailed is returned when the ledger cannot be written.
	// The charge has already happened, so callers log and continue.
	ErrPersistenceFailed = errors.New("failed to record donation")

	// ErrRecordNotFound is returned when a ledger lookup finds nothing.
	ErrRecordNotFound = errors.New("donation record not found")
)

// DonationError wraps a domain error with an operator-facing message and a
// stable machine-readable code.
type DonationError struct {
	Err     error
	Message string
	Code    string
}

func (e *DonationError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *DonationError) Unwrap() error {
	return e.Err
}

// NewDonationError creates a new DonationError.
func NewDonationError(err error, message, code string) *DonationError {
	return &DonationError{Err: err, Message: message, Code: code}
}
