// Package notify sends donor receipts and internal admin alerts.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Justinbown8/sces-website-sub001/internal/domain"
)

// ReceiptSender is the transport used by the Dispatcher. Implemented by
// Mailer; faked in tests.
type ReceiptSender interface {
	SendDonorReceipt(ctx context.Context, rec *domain.DonationRecord) error
	SendAdminAlert(ctx context.Context, rec *domain.DonationRecord) error
}

// Mailer implements ReceiptSender against the transactional mail API.
type Mailer struct {
	baseURL    string
	apiKey     string
	from       string
	adminAddr  string
	httpClient *http.Client
}

// NewMailer creates a new mail API client.
func NewMailer(baseURL, apiKey, from, adminAddr string) *Mailer {
	return &Mailer{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		from:      from,
		adminAddr: adminAddr,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

// SendDonorReceipt emails the donation receipt to the donor.
func (m *Mailer) SendDonorReceipt(ctx context.Context, rec *domain.DonationRecord) error {
	subject := fmt.Sprintf("Thank you for your donation - Receipt %s", rec.ReceiptNumber)
	return m.send(ctx, sendRequest{
		From:    m.from,
		To:      []string{rec.DonorEmail},
		Subject: subject,
		HTML:    donorReceiptHTML(rec),
	})
}

// SendAdminAlert notifies the operations inbox about a new donation.
func (m *Mailer) SendAdminAlert(ctx context.Context, rec *domain.DonationRecord) error {
	subject := fmt.Sprintf("New donation: %s %.2f (%s)", rec.Currency, rec.Amount, rec.ReceiptNumber)
	return m.send(ctx, sendRequest{
		From:    m.from,
		To:      []string{m.adminAddr},
		Subject: subject,
		HTML:    adminAlertHTML(rec),
	})
}

func (m *Mailer) send(ctx context.Context, payload sendRequest) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mail API returned status %d: %s", resp.StatusCode, string(body))
	}

	var sendResp sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&sendResp); err != nil {
		return fmt.Errorf("failed to decode mail response: %w", err)
	}
	if sendResp.Error != "" {
		return fmt.Errorf("mail API error: %s", sendResp.Error)
	}
	return nil
}

func donorReceiptHTML(rec *domain.DonationRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Thank you, %s!</h2>", rec.DonorName)
	fmt.Fprintf(&b, "<p>Your donation of <strong>%s %.2f</strong> has been received.</p>", rec.Currency, rec.Amount)
	fmt.Fprintf(&b, "<p>Receipt number: <strong>%s</strong><br>", rec.ReceiptNumber)
	fmt.Fprintf(&b, "Transaction id: %s<br>", rec.TransactionID)
	fmt.Fprintf(&b, "Date: %s</p>", rec.CreatedAt.Format("02 Jan 2006"))
	if rec.Recurring {
		fmt.Fprintf(&b, "<p>This is a recurring donation (%s).</p>", rec.Frequency)
	}
	b.WriteString("<p>Please keep this receipt for your tax records. Your support keeps children learning.</p>")
	return b.String()
}

func adminAlertHTML(rec *domain.DonationRecord) string {
	var b strings.Builder
	b.WriteString("<h3>New donation received</h3><ul>")
	fmt.Fprintf(&b, "<li>Receipt: %s</li>", rec.ReceiptNumber)
	fmt.Fprintf(&b, "<li>Amount: %s %.2f</li>", rec.Currency, rec.Amount)
	fmt.Fprintf(&b, "<li>Method: %s</li>", rec.PaymentMethod)
	fmt.Fprintf(&b, "<li>Donor: %s &lt;%s&gt;</li>", rec.DonorName, rec.DonorEmail)
	if rec.DonorPhone != "" {
		fmt.Fprintf(&b, "<li>Phone: %s</li>", rec.DonorPhone)
	}
	if rec.Recurring {
		fmt.Fprintf(&b, "<li>Recurring: %s</li>", rec.Frequency)
	}
	b.WriteString("</ul>")
	return b.String()
}
