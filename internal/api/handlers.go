// Package api contains the HTTP handlers and routing for the donation service.
package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Justinbown8/sces-website-sub001/internal/domain"
	"github.com/Justinbown8/sces-website-sub001/internal/repository"
	"github.com/Justinbown8/sces-website-sub001/internal/service"
)

// Handler contains the HTTP handlers for the donation API.
type Handler struct {
	donations *service.DonationService
	ledger    *repository.DonationRepo
}

// NewHandler creates a new API handler.
func NewHandler(donations *service.DonationService, ledger *repository.DonationRepo) *Handler {
	return &Handler{donations: donations, ledger: ledger}
}

type donorPayload struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone"`
}

func (d donorPayload) toDomain() domain.Donor {
	return domain.Donor{Name: d.Name, Email: d.Email, Phone: d.Phone}
}

// CreateOrderRequest is the JSON body for POST /payment/order.
type CreateOrderRequest struct {
	PaymentMethod string       `json:"paymentMethod" binding:"required"`
	Amount        float64      `json:"amount" binding:"required,gt=0"`
	Currency      string       `json:"currency"`
	Donor         donorPayload `json:"donor" binding:"required"`
	Recurring     bool         `json:"recurring"`
	Frequency     string       `json:"frequency"`
}

// CreateOrder handles POST /payment/order.
// Creates a provider order for the donation and returns its id for the
// client-side checkout flow.
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	order, err := h.donations.CreateOrder(c.Request.Context(), domain.OrderRequest{
		Method:    domain.PaymentMethod(req.PaymentMethod),
		Amount:    req.Amount,
		Currency:  req.Currency,
		Donor:     req.Donor.toDomain(),
		Recurring: req.Recurring,
		Frequency: domain.Frequency(req.Frequency),
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"orderId":  order.ProviderOrderID,
		"amount":   order.Amount,
		"currency": order.Currency,
		"status":   order.Status,
	})
}

// VerifyPaymentRequest is the JSON body for POST /payment/verify.
type VerifyPaymentRequest struct {
	OrderID   string       `json:"orderId" binding:"required"`
	PaymentID string       `json:"paymentId" binding:"required"`
	Signature string       `json:"signature" binding:"required"`
	Donor     donorPayload `json:"donor" binding:"required"`
	Amount    float64      `json:"amount" binding:"required,gt=0"`
	Currency  string       `json:"currency"`
	Recurring bool         `json:"recurring"`
	Frequency string       `json:"frequency"`
}

// VerifyPayment handles POST /payment/verify.
// Verifies the gateway signature, captures the charge, records it and sends
// receipts.
func (h *Handler) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	result, err := h.donations.VerifyPayment(c.Request.Context(), domain.PaymentConfirmation{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		Donor:     req.Donor.toDomain(),
		Amount:    req.Amount,
		Currency:  req.Currency,
		Recurring: req.Recurring,
		Frequency: domain.Frequency(req.Frequency),
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"donation_id":    result.DonationID,
		"message":        result.Message,
		"receipt_url":    result.ReceiptURL,
		"email_sent":     result.EmailSent,
		"admin_notified": result.AdminNotified,
		"recorded":       result.Recorded,
	})
}

// CapturePayPalRequest is the JSON body for POST /paypal/capture.
type CapturePayPalRequest struct {
	OrderID   string       `json:"orderId" binding:"required"`
	Donor     donorPayload `json:"donor" binding:"required"`
	Recurring bool         `json:"recurring"`
	Frequency string       `json:"frequency"`
}

// CapturePayPal handles POST /paypal/capture.
// Captures an approved PayPal order, records it and sends receipts.
func (h *Handler) CapturePayPal(c *gin.Context) {
	var req CapturePayPalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	result, err := h.donations.CapturePayPalOrder(c.Request.Context(), service.CapturePayPalRequest{
		OrderID:   req.OrderID,
		Donor:     req.Donor.toDomain(),
		Recurring: req.Recurring,
		Frequency: domain.Frequency(req.Frequency),
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"donation_id":    result.DonationID,
		"receipt_url":    result.ReceiptURL,
		"email_sent":     result.EmailSent,
		"admin_notified": result.AdminNotified,
	})
}

// CompleteDonationRequest is the JSON body for POST /donation/complete.
type CompleteDonationRequest struct {
	TransactionID string  `json:"transactionId" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	DonorName     string  `json:"donorName" binding:"required"`
	DonorEmail    string  `json:"donorEmail" binding:"required,email"`
	DonorPhone    string  `json:"donorPhone"`
	Recurring     bool    `json:"recurring"`
	Frequency     string  `json:"frequency"`
	PaymentMethod string  `json:"paymentMethod" binding:"required"`
	Currency      string  `json:"currency" binding:"required"`
}

// CompleteDonation handles POST /donation/complete.
// Records a transaction the provider already captured and sends receipts.
func (h *Handler) CompleteDonation(c *gin.Context) {
	var req CompleteDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	result, err := h.donations.CompleteDonation(c.Request.Context(), service.CompleteDonationRequest{
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Donor:         domain.Donor{Name: req.DonorName, Email: req.DonorEmail, Phone: req.DonorPhone},
		Recurring:     req.Recurring,
		Frequency:     domain.Frequency(req.Frequency),
		Method:        domain.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"receiptNumber": result.DonationID,
		"timestamp":     result.Timestamp.Format(time.RFC3339),
		"emailSent":     result.EmailSent,
		"adminNotified": result.AdminNotified,
	})
}

// ListDonations handles GET /donations (admin).
func (h *Handler) ListDonations(c *gin.Context) {
	filter := repository.DonationFilter{
		Method:   c.Query("method"),
		Currency: c.Query("currency"),
		Page:     intQuery(c, "page", 1),
		Limit:    intQuery(c, "limit", 50),
	}

	records, total, err := h.ledger.List(c.Request.Context(), filter)
	if err != nil {
		log.Printf("List donations failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list donations"})
		return
	}
	if records == nil {
		records = []domain.DonationRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"donations": records,
		"total":     total,
		"page":      filter.Page,
		"limit":     filter.Limit,
	})
}

// DonationStats handles GET /donations/stats (admin).
func (h *Handler) DonationStats(c *gin.Context) {
	stats, err := h.ledger.GetStats(c.Request.Context())
	if err != nil {
		log.Printf("Donation stats failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetDonation handles GET /donations/:receiptNumber (admin).
func (h *Handler) GetDonation(c *gin.Context) {
	rec, err := h.ledger.GetByReceiptNumber(c.Request.Context(), c.Param("receiptNumber"))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Donation not found"})
			return
		}
		log.Printf("Get donation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load donation"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "sces-donations",
	})
}

// handleServiceError maps domain errors to HTTP responses. Validation,
// signature and capture rejections are the caller's fault (400); credential
// and provider failures are ours (500) with the provider message preserved
// for operator diagnosis.
func handleServiceError(c *gin.Context, err error) {
	var donationErr *domain.DonationError
	if errors.As(err, &donationErr) {
		switch {
		case errors.Is(donationErr.Err, domain.ErrInvalidConfirmation),
			errors.Is(donationErr.Err, domain.ErrInvalidSignature),
			errors.Is(donationErr.Err, domain.ErrCaptureNotCompleted):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": donationErr.Message,
				"code":  donationErr.Code,
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Payment processing failed",
				"details": donationErr.Message,
				"code":    donationErr.Code,
			})
		}
		return
	}

	log.Printf("Unhandled service error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Internal server error",
		"details": err.Error(),
	})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
