// Package razorpay implements the PaymentGateway port against the Razorpay
// REST API. Orders and captures are synchronous, server-initiated calls
// authenticated with the long-lived key id/secret pair.
package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Justinbown8/sces-website-sub001/internal/domain"
)

const defaultBaseURL = "https://api.razorpay.com"

// Client implements domain.PaymentGateway using the Razorpay Orders and
// Payments APIs.
type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

// NewClient creates a new Razorpay client. baseURL may be empty to use the
// production API.
func NewClient(baseURL, keyID, keySecret string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type orderRequest struct {
	Amount   int64             `json:"amount"` // paise
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// CreateOrder creates a Razorpay order for the donation amount. The receipt
// token doubles as the idempotency key: it is generated per request, not
// derived from business data, so retried client calls create fresh orders
// on our side but Razorpay collapses retried HTTP requests.
func (c *Client) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.ProviderOrder, error) {
	if c.keyID == "" || c.keySecret == "" {
		return nil, domain.NewDonationError(domain.ErrBadCredentials,
			"Razorpay key pair is not configured", "RAZORPAY_CREDENTIALS")
	}

	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	payload := orderRequest{
		Amount:   toPaise(req.Amount),
		Currency: currency,
		Receipt:  newIdempotencyToken(),
		Notes: map[string]string{
			"donor_name":  req.Donor.Name,
			"donor_email": req.Donor.Email,
		},
	}
	if req.Recurring {
		payload.Notes["frequency"] = string(req.Frequency)
	}

	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/v1/orders", payload, &resp); err != nil {
		return nil, err
	}

	return &domain.ProviderOrder{
		ProviderOrderID: resp.ID,
		Amount:          float64(resp.Amount) / 100,
		Currency:        resp.Currency,
		Status:          resp.Status,
	}, nil
}

type paymentResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"` // created, authorized, captured, refunded, failed
	Captured bool   `json:"captured"`
	Created  int64  `json:"created_at"` // unix seconds
}

// CaptureOrder finalizes the charge for a payment id. Checkout flows with
// auto-capture return an already-captured payment; an authorized payment is
// captured explicitly. The in-body status decides the outcome regardless of
// the HTTP status.
func (c *Client) CaptureOrder(ctx context.Context, paymentID string) (*domain.CaptureResult, error) {
	if c.keyID == "" || c.keySecret == "" {
		return nil, domain.NewDonationError(domain.ErrBadCredentials,
			"Razorpay key pair is not configured", "RAZORPAY_CREDENTIALS")
	}

	var p paymentResponse
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+paymentID, nil, &p); err != nil {
		return nil, err
	}

	if p.Status == "authorized" {
		capturePayload := map[string]any{
			"amount":   p.Amount,
			"currency": p.Currency,
		}
		if err := c.do(ctx, http.MethodPost, "/v1/payments/"+paymentID+"/capture", capturePayload, &p); err != nil {
			return nil, err
		}
	}

	captureTime := time.Now()
	if p.Created > 0 {
		captureTime = time.Unix(p.Created, 0)
	}

	return &domain.CaptureResult{
		TransactionID: p.ID,
		Amount:        float64(p.Amount) / 100,
		Currency:      p.Currency,
		Status:        mapStatus(p.Status),
		CaptureTime:   captureTime,
	}, nil
}

// mapStatus normalizes a Razorpay payment status.
func mapStatus(status string) domain.CaptureStatus {
	switch status {
	case "captured":
		return domain.CaptureCompleted
	case "created", "authorized":
		return domain.CapturePending
	default:
		return domain.CaptureFailed
	}
}

// do performs an authenticated JSON request against the Razorpay API.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewDonationError(domain.ErrProviderError,
			"Razorpay request failed: "+err.Error(), "RAZORPAY_HTTP_ERROR")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return domain.NewDonationError(domain.ErrProviderError,
			fmt.Sprintf("Razorpay returned status %d: %s", resp.StatusCode, string(respBody)),
			"RAZORPAY_API_ERROR")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewDonationError(domain.ErrProviderError,
			"failed to decode Razorpay response", "RAZORPAY_DECODE_ERROR")
	}
	return nil
}

// newIdempotencyToken generates a per-request receipt token.
func newIdempotencyToken() string {
	return fmt.Sprintf("rcpt_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// toPaise converts a rupee amount to Razorpay's minor units. Rounded, not
// truncated: amounts like 1.15 have no exact float64 representation and
// truncation would undercharge by one paisa.
func toPaise(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
