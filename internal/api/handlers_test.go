package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Justinbown8/sces-website-sub001/internal/domain"
	"github.com/Justinbown8/sces-website-sub001/internal/repository"
	"github.com/Justinbown8/sces-website-sub001/internal/service"
	"github.com/Justinbown8/sces-website-sub001/internal/signature"
)

const testSecret = "rzp_test_secret"

type stubGateway struct {
	captureResult *domain.CaptureResult
	captureErr    error
	orderResult   *domain.ProviderOrder
	captureCalls  int
}

func (s *stubGateway) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.ProviderOrder, error) {
	return s.orderResult, nil
}

func (s *stubGateway) CaptureOrder(ctx context.Context, ref string) (*domain.CaptureResult, error) {
	s.captureCalls++
	return s.captureResult, s.captureErr
}

type stubDispatcher struct{}

func (stubDispatcher) Dispatch(ctx context.Context, rec *domain.DonationRecord) domain.DispatchResult {
	return domain.DispatchResult{DonorSent: true, AdminNotified: true}
}

type testEnv struct {
	router   *gin.Engine
	repo     *repository.DonationRepo
	razorpay *stubGateway
	paypal   *stubGateway
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repository.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := repository.NewDonationRepo(db)

	razorpay := &stubGateway{
		captureResult: &domain.CaptureResult{
			TransactionID: "p1",
			Amount:        500,
			Currency:      "INR",
			Status:        domain.CaptureCompleted,
			CaptureTime:   time.Now(),
		},
	}
	paypal := &stubGateway{}

	svc := service.NewDonationService(razorpay, paypal, repo, stubDispatcher{},
		testSecret, "SCES", "https://scesngo.org/receipt")
	handler := NewHandler(svc, repo)
	router := SetupRouter(handler, gin.TestMode, "admin_key")

	return &testEnv{router: router, repo: repo, razorpay: razorpay, paypal: paypal}
}

func (e *testEnv) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	jsonBody, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestVerifyPaymentEndToEnd(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/api/v1/payment/verify", gin.H{
		"orderId":   "o1",
		"paymentId": "p1",
		"signature": signature.Sign("o1", "p1", testSecret),
		"donor":     gin.H{"name": "A", "email": "a@x.com"},
		"amount":    500,
		"recurring": false,
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["donation_id"])
	assert.Equal(t, true, body["email_sent"])
	assert.Equal(t, true, body["admin_notified"])

	rec, err := env.repo.GetByTransactionID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, body["donation_id"], rec.ReceiptNumber)
}

func TestVerifyPaymentBadSignature(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/api/v1/payment/verify", gin.H{
		"orderId":   "o1",
		"paymentId": "p1",
		"signature": "bad",
		"donor":     gin.H{"name": "A", "email": "a@x.com"},
		"amount":    500,
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Invalid payment signature", body["error"])

	// Rejected before capture; no record was created.
	assert.Equal(t, 0, env.razorpay.captureCalls)
	count, err := env.repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestVerifyPaymentMissingFields(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/api/v1/payment/verify", gin.H{
		"orderId": "o1",
		"amount":  500,
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Contains(t, body["error"], "Invalid request body")
}

func TestVerifyPaymentCaptureFailed(t *testing.T) {
	env := newTestEnv(t)
	env.razorpay.captureResult = &domain.CaptureResult{
		TransactionID: "p1",
		Status:        domain.CaptureFailed,
	}

	w := env.post(t, "/api/v1/payment/verify", gin.H{
		"orderId":   "o1",
		"paymentId": "p1",
		"signature": signature.Sign("o1", "p1", testSecret),
		"donor":     gin.H{"name": "A", "email": "a@x.com"},
		"amount":    500,
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Contains(t, body["error"], "FAILED")

	count, err := env.repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCompleteDonationEndToEnd(t *testing.T) {
	env := newTestEnv(t)

	payload := gin.H{
		"transactionId": "CAP1",
		"amount":        6.02,
		"donorName":     "A",
		"donorEmail":    "a@x.com",
		"paymentMethod": "paypal",
		"currency":      "USD",
	}

	w := env.post(t, "/api/v1/donation/complete", payload)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body["receiptNumber"], "SCES_PPL_")
	assert.Equal(t, true, body["emailSent"])
	assert.Equal(t, true, body["adminNotified"])
	assert.NotEmpty(t, body["timestamp"])

	// Replaying the same transaction returns the original receipt.
	w2 := env.post(t, "/api/v1/donation/complete", payload)
	require.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, body["receiptNumber"], decode(t, w2)["receiptNumber"])

	count, err := env.repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCreateOrderEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.razorpay.orderResult = &domain.ProviderOrder{
		ProviderOrderID: "order_abc", Amount: 500, Currency: "INR", Status: "created",
	}

	w := env.post(t, "/api/v1/payment/order", gin.H{
		"paymentMethod": "razorpay",
		"amount":        500,
		"donor":         gin.H{"name": "A", "email": "a@x.com"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "order_abc", body["orderId"])
}

func TestCapturePayPalEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.paypal.captureResult = &domain.CaptureResult{
		TransactionID: "CAP7",
		Amount:        12.05,
		Currency:      "USD",
		Status:        domain.CaptureCompleted,
		CaptureTime:   time.Now(),
	}

	w := env.post(t, "/api/v1/paypal/capture", gin.H{
		"orderId": "ORDER7",
		"donor":   gin.H{"name": "A", "email": "a@x.com"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])

	rec, err := env.repo.GetByTransactionID(context.Background(), "CAP7")
	require.NoError(t, err)
	assert.Equal(t, domain.MethodPayPal, rec.PaymentMethod)
}

func TestAdminEndpointsRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/donations", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/donations", nil)
	req.Header.Set("Authorization", "Bearer admin_key")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, float64(0), body["total"])
}

func TestDonationStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	// Seed one donation through the public flow.
	w := env.post(t, "/api/v1/donation/complete", gin.H{
		"transactionId": "CAP2",
		"amount":        100,
		"donorName":     "A",
		"donorEmail":    "a@x.com",
		"paymentMethod": "razorpay",
		"currency":      "INR",
	})
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/donations/stats", nil)
	req.Header.Set("Authorization", "Bearer admin_key")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, float64(1), body["total"])
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}
