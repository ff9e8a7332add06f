// Package paypal implements the PaymentGateway port against the PayPal
// Orders v2 API. Every call is preceded by an OAuth2 client-credentials
// token exchange; tokens are cached until shortly before their stated
// expiry.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Justinbown8/sces-website-sub001/internal/currency"
	"github.com/Justinbown8/sces-website-sub001/internal/domain"
)

const defaultBaseURL = "https://api-m.paypal.com"

// settlementCurrency is the currency PayPal actually settles in for this
// account. Donation amounts in INR are converted before order creation.
const settlementCurrency = "USD"

// tokenExpirySlack is subtracted from the token's stated lifetime so a
// token is never used right at its expiry boundary.
const tokenExpirySlack = 60 * time.Second

// Client implements domain.PaymentGateway using the PayPal REST API.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a new PayPal client. baseURL may be empty to use the
// live API.
func NewClient(baseURL, clientID, clientSecret string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// getAccessToken returns a valid bearer token, exchanging client credentials
// when the cached token is missing or expired.
func (c *Client) getAccessToken(ctx context.Context) (string, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return "", domain.NewDonationError(domain.ErrBadCredentials,
			"PayPal client id/secret is not configured", "PAYPAL_CREDENTIALS")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/oauth2/token", bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.NewDonationError(domain.ErrProviderError,
			"PayPal token request failed: "+err.Error(), "PAYPAL_HTTP_ERROR")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", domain.NewDonationError(domain.ErrProviderError,
			fmt.Sprintf("PayPal token exchange returned status %d: %s", resp.StatusCode, string(body)),
			"PAYPAL_AUTH_ERROR")
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", domain.NewDonationError(domain.ErrProviderError,
			"failed to decode PayPal token response", "PAYPAL_DECODE_ERROR")
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - tokenExpirySlack)
	return c.accessToken, nil
}

type amountJSON struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnitRequest struct {
	Amount      amountJSON `json:"amount"`
	Description string     `json:"description,omitempty"`
}

type createOrderRequest struct {
	Intent        string                `json:"intent"`
	PurchaseUnits []purchaseUnitRequest `json:"purchase_units"`
}

type createOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreateOrder creates a CAPTURE-intent order. The donation amount is
// converted to the settlement currency first. The PayPal-Request-Id header
// carries a per-request idempotency token.
func (c *Client) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.ProviderOrder, error) {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	from := req.Currency
	if from == "" {
		from = "INR"
	}
	usdAmount, err := currency.Convert(req.Amount, from, settlementCurrency)
	if err != nil {
		return nil, domain.NewDonationError(domain.ErrInvalidConfirmation,
			err.Error(), "UNSUPPORTED_CURRENCY")
	}
	if from != settlementCurrency {
		rate, _ := currency.Rate(from)
		log.Printf("Converted %s %.2f to %s %.2f (rate %.2f per USD)",
			from, req.Amount, settlementCurrency, usdAmount, rate)
	}

	description := "Donation to SCES"
	if req.Recurring {
		description = fmt.Sprintf("Recurring donation to SCES (%s)", req.Frequency)
	}

	payload := createOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnitRequest{
			{
				Amount: amountJSON{
					CurrencyCode: settlementCurrency,
					Value:        strconv.FormatFloat(usdAmount, 'f', 2, 64),
				},
				Description: description,
			},
		},
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v2/checkout/orders", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("PayPal-Request-Id", newIdempotencyToken())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.NewDonationError(domain.ErrProviderError,
			"PayPal order request failed: "+err.Error(), "PAYPAL_HTTP_ERROR")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, domain.NewDonationError(domain.ErrProviderError,
			fmt.Sprintf("PayPal returned status %d: %s", resp.StatusCode, string(body)),
			"PAYPAL_API_ERROR")
	}

	var orderResp createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&orderResp); err != nil {
		return nil, domain.NewDonationError(domain.ErrProviderError,
			"failed to decode PayPal order response", "PAYPAL_DECODE_ERROR")
	}

	return &domain.ProviderOrder{
		ProviderOrderID: orderResp.ID,
		Amount:          usdAmount,
		Currency:        settlementCurrency,
		Status:          orderResp.Status,
	}, nil
}

type captureResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID         string     `json:"id"`
				Status     string     `json:"status"`
				Amount     amountJSON `json:"amount"`
				CreateTime string     `json:"create_time"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

// CaptureOrder captures an approved order. The result embeds a nested
// capture object; its absence means PayPal changed the response shape and
// is a fatal protocol mismatch, not a retryable failure.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*domain.CaptureResult, error) {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v2/checkout/orders/"+orderID+"/capture", bytes.NewReader([]byte("{}")))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.NewDonationError(domain.ErrProviderError,
			"PayPal capture request failed: "+err.Error(), "PAYPAL_HTTP_ERROR")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, domain.NewDonationError(domain.ErrProviderError,
			fmt.Sprintf("PayPal capture returned status %d: %s", resp.StatusCode, string(body)),
			"PAYPAL_CAPTURE_ERROR")
	}

	var capResp captureResponse
	if err := json.NewDecoder(resp.Body).Decode(&capResp); err != nil {
		return nil, domain.NewDonationError(domain.ErrProviderError,
			"failed to decode PayPal capture response", "PAYPAL_DECODE_ERROR")
	}

	if len(capResp.PurchaseUnits) == 0 || len(capResp.PurchaseUnits[0].Payments.Captures) == 0 {
		return nil, domain.NewDonationError(domain.ErrProviderError,
			"PayPal capture response is missing the capture object", "PAYPAL_PROTOCOL_MISMATCH")
	}
	capture := capResp.PurchaseUnits[0].Payments.Captures[0]

	amount, err := strconv.ParseFloat(capture.Amount.Value, 64)
	if err != nil {
		return nil, domain.NewDonationError(domain.ErrProviderError,
			"PayPal capture amount is not numeric: "+capture.Amount.Value, "PAYPAL_PROTOCOL_MISMATCH")
	}

	captureTime := time.Now()
	if t, err := time.Parse(time.RFC3339, capture.CreateTime); err == nil {
		captureTime = t
	}

	return &domain.CaptureResult{
		TransactionID: capture.ID,
		Amount:        amount,
		Currency:      capture.Amount.CurrencyCode,
		Status:        mapStatus(capture.Status),
		CaptureTime:   captureTime,
	}, nil
}

// mapStatus normalizes a PayPal capture status.
func mapStatus(status string) domain.CaptureStatus {
	switch status {
	case "COMPLETED":
		return domain.CaptureCompleted
	case "PENDING":
		return domain.CapturePending
	default:
		return domain.CaptureFailed
	}
}

// newIdempotencyToken generates a per-request PayPal-Request-Id value.
func newIdempotencyToken() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
