// Package service implements the donation verification and receipt pipeline.
package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/Justinbown8/sces-website-sub001/internal/domain"
	"github.com/Justinbown8/sces-website-sub001/internal/signature"
)

// emailRx is a syntactic check only; deliverability is the mail provider's
// problem.
var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// DonationService sequences the donation pipeline:
// verify -> capture -> record -> notify -> respond.
type DonationService struct {
	razorpay   domain.PaymentGateway
	paypal     domain.PaymentGateway
	ledger     domain.DonationLedger
	dispatcher domain.ReceiptDispatcher

	signatureSecret string
	receiptPrefix   string
	receiptBaseURL  string
}

// NewDonationService creates a new donation service.
func NewDonationService(
	razorpay domain.PaymentGateway,
	paypal domain.PaymentGateway,
	ledger domain.DonationLedger,
	dispatcher domain.ReceiptDispatcher,
	signatureSecret, receiptPrefix, receiptBaseURL string,
) *DonationService {
	return &DonationService{
		razorpay:        razorpay,
		paypal:          paypal,
		ledger:          ledger,
		dispatcher:      dispatcher,
		signatureSecret: signatureSecret,
		receiptPrefix:   receiptPrefix,
		receiptBaseURL:  receiptBaseURL,
	}
}

// VerifyResult is the outcome of a verified and captured gateway payment.
type VerifyResult struct {
	Success       bool      `json:"success"`
	DonationID    string    `json:"donation_id"`
	Message       string    `json:"message"`
	ReceiptURL    string    `json:"receipt_url,omitempty"`
	EmailSent     bool      `json:"email_sent"`
	AdminNotified bool      `json:"admin_notified"`
	Recorded      bool      `json:"recorded"`
	Timestamp     time.Time `json:"timestamp"`
}

// VerifyPayment verifies a Razorpay payment confirmation, captures the
// charge, records it, and dispatches receipts.
//
// Validation and signature failures abort before any side effect. A capture
// that is not COMPLETED aborts before any record is created. Once the charge
// is captured, persistence and notification failures degrade gracefully:
// money took precedence over bookkeeping, so the response still reports
// success and flags the degraded steps for manual reconciliation.
func (s *DonationService) VerifyPayment(ctx context.Context, conf domain.PaymentConfirmation) (*VerifyResult, error) {
	if err := validateConfirmation(conf); err != nil {
		return nil, err
	}

	if !signature.Verify(conf.OrderID, conf.PaymentID, conf.Signature, s.signatureSecret) {
		log.Printf("Signature verification failed for order %s", conf.OrderID)
		return nil, domain.NewDonationError(domain.ErrInvalidSignature,
			"Invalid payment signature", "INVALID_SIGNATURE")
	}

	capture, err := s.razorpay.CaptureOrder(ctx, conf.PaymentID)
	if err != nil {
		log.Printf("Capture failed for payment %s: %v", conf.PaymentID, err)
		return nil, err
	}
	if capture.Status != domain.CaptureCompleted {
		return nil, domain.NewDonationError(domain.ErrCaptureNotCompleted,
			fmt.Sprintf("payment capture returned status %s", capture.Status),
			"CAPTURE_"+string(capture.Status))
	}

	return s.finalize(ctx, capture, conf.Donor, conf.Recurring, conf.Frequency, domain.MethodRazorpay), nil
}

// CapturePayPalRequest carries the approved PayPal order to capture along
// with the donor details to record.
type CapturePayPalRequest struct {
	OrderID   string
	Donor     domain.Donor
	Recurring bool
	Frequency domain.Frequency
}

// CapturePayPalOrder captures an approved PayPal order, then records the
// donation and dispatches receipts under the same degradation rules as
// VerifyPayment.
func (s *DonationService) CapturePayPalOrder(ctx context.Context, req CapturePayPalRequest) (*VerifyResult, error) {
	if req.OrderID == "" {
		return nil, domain.NewDonationError(domain.ErrInvalidConfirmation,
			"order_id is required", "VALIDATION_ERROR")
	}
	if err := validateDonor(req.Donor); err != nil {
		return nil, err
	}
	if req.Recurring && !domain.ValidFrequency(req.Frequency) {
		return nil, domain.NewDonationError(domain.ErrInvalidConfirmation,
			"frequency must be monthly, quarterly or yearly", "VALIDATION_ERROR")
	}

	capture, err := s.paypal.CaptureOrder(ctx, req.OrderID)
	if err != nil {
		log.Printf("PayPal capture failed for order %s: %v", req.OrderID, err)
		return nil, err
	}
	if capture.Status != domain.CaptureCompleted {
		return nil, domain.NewDonationError(domain.ErrCaptureNotCompleted,
			fmt.Sprintf("capture returned status %s", capture.Status),
			"CAPTURE_"+string(capture.Status))
	}

	return s.finalize(ctx, capture, req.Donor, req.Recurring, req.Frequency, domain.MethodPayPal), nil
}

// CompleteDonationRequest records a transaction the provider has already
// captured and confirmed on the client side.
type CompleteDonationRequest struct {
	TransactionID string
	Amount        float64
	Currency      string
	Donor         domain.Donor
	Recurring     bool
	Frequency     domain.Frequency
	Method        domain.PaymentMethod
}

// CompleteDonation records an already-captured transaction and dispatches
// receipts. Replays of the same transaction id return the original record.
func (s *DonationService) CompleteDonation(ctx context.Context, req CompleteDonationRequest) (*VerifyResult, error) {
	if req.TransactionID == "" {
		return nil, domain.NewDonationError(domain.ErrInvalidConfirmation,
			"transaction_id is required", "VALIDATION_ERROR")
	}
	if req.Amount <= 0 {
		return nil, domain.NewDonationError(domain.ErrInvalidConfirmation,
			"amount must be greater than 0", "VALIDATION_ERROR")
	}
	if req.Method != domain.MethodRazorpay && req.Method != domain.MethodPayPal {
		return nil, domain.NewDonationError(domain.ErrInvalidConfirmation,
			"payment_method must be razorpay or paypal", "VALIDATION_ERROR")
	}
	if err := validateDonor(req.Donor); err != nil {
		return nil, err
	}
	if req.Recurring && !domain.ValidFrequency(req.Frequency) {
		return nil, domain.NewDonationError(domain.ErrInvalidConfirmation,
			"frequency must be monthly, quarterly or yearly", "VALIDATION_ERROR")
	}

	capture := &domain.CaptureResult{
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Status:        domain.CaptureCompleted,
		CaptureTime:   time.Now(),
	}
	return s.finalize(ctx, capture, req.Donor, req.Recurring, req.Frequency, req.Method), nil
}

// CreateOrder creates a provider order for a new donation, dispatching on
// the requested payment method.
func (s *DonationService) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.ProviderOrder, error) {
	if req.Amount <= 0 {
		return nil, domain.NewDonationError(domain.ErrInvalidConfirmation,
			"amount must be greater than 0", "VALIDATION_ERROR")
	}
	if err := validateDonor(req.Donor); err != nil {
		return nil, err
	}
	if req.Recurring && !domain.ValidFrequency(req.Frequency) {
		return nil, domain.NewDonationError(domain.ErrInvalidConfirmation,
			"frequency must be monthly, quarterly or yearly", "VALIDATION_ERROR")
	}

	switch req.Method {
	case domain.MethodRazorpay:
		return s.razorpay.CreateOrder(ctx, req)
	case domain.MethodPayPal:
		return s.paypal.CreateOrder(ctx, req)
	default:
		return nil, domain.NewDonationError(domain.ErrInvalidConfirmation,
			"payment_method must be razorpay or paypal", "VALIDATION_ERROR")
	}
}

// finalize runs the CAPTURED -> RECORDED -> NOTIFIED -> RESPONDED tail of
// the pipeline. It is only called with a COMPLETED capture, so it always
// returns a success result.
func (s *DonationService) finalize(ctx context.Context, capture *domain.CaptureResult, donor domain.Donor, recurring bool, freq domain.Frequency, method domain.PaymentMethod) *VerifyResult {
	rec := domain.NewDonationRecord(capture, donor, recurring, freq, method, s.receiptPrefix)

	recorded := true
	stored, err := s.ledger.Record(ctx, rec)
	if err != nil {
		// The charge already happened; losing the ledger write must not
		// unwind it. Log for manual reconciliation and keep going with the
		// unpersisted record.
		log.Printf("Failed to record donation %s (txn %s): %v", rec.ReceiptNumber, rec.TransactionID, err)
		recorded = false
		stored = rec
	}

	dispatch := s.dispatcher.Dispatch(ctx, stored)

	log.Printf("Donation %s completed: txn=%s method=%s recorded=%t donor_email=%t admin=%t",
		stored.ReceiptNumber, stored.TransactionID, method, recorded, dispatch.DonorSent, dispatch.AdminNotified)

	return &VerifyResult{
		Success:       true,
		DonationID:    stored.ReceiptNumber,
		Message:       "Donation completed successfully",
		ReceiptURL:    s.receiptURL(stored.ReceiptNumber),
		EmailSent:     dispatch.DonorSent,
		AdminNotified: dispatch.AdminNotified,
		Recorded:      recorded,
		Timestamp:     stored.CreatedAt,
	}
}

func (s *DonationService) receiptURL(receiptNumber string) string {
	if s.receiptBaseURL == "" {
		return ""
	}
	return s.receiptBaseURL + "/" + receiptNumber
}

// validateConfirmation checks the gateway confirmation before any side
// effect. All correlation fields must be present.
func validateConfirmation(conf domain.PaymentConfirmation) error {
	if conf.OrderID == "" || conf.PaymentID == "" || conf.Signature == "" {
		return domain.NewDonationError(domain.ErrInvalidConfirmation,
			"order_id, payment_id and signature are required", "VALIDATION_ERROR")
	}
	if conf.Amount <= 0 {
		return domain.NewDonationError(domain.ErrInvalidConfirmation,
			"amount must be greater than 0", "VALIDATION_ERROR")
	}
	if err := validateDonor(conf.Donor); err != nil {
		return err
	}
	if conf.Recurring && !domain.ValidFrequency(conf.Frequency) {
		return domain.NewDonationError(domain.ErrInvalidConfirmation,
			"frequency must be monthly, quarterly or yearly", "VALIDATION_ERROR")
	}
	return nil
}

func validateDonor(donor domain.Donor) error {
	if donor.Name == "" {
		return domain.NewDonationError(domain.ErrInvalidConfirmation,
			"donor name is required", "VALIDATION_ERROR")
	}
	if !emailRx.MatchString(donor.Email) {
		return domain.NewDonationError(domain.ErrInvalidConfirmation,
			"donor email is invalid", "VALIDATION_ERROR")
	}
	return nil
}
