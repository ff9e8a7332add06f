package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Justinbown8/sces-website-sub001/internal/domain"
)

func TestCreateOrder(t *testing.T) {
	var gotReceipt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key_id", user)
		assert.Equal(t, "key_secret", pass)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(50000), body["amount"]) // 500 INR in paise
		assert.Equal(t, "INR", body["currency"])
		gotReceipt = body["receipt"].(string)
		assert.NotEmpty(t, gotReceipt)

		json.NewEncoder(w).Encode(map[string]any{
			"id": "order_abc", "amount": 50000, "currency": "INR", "status": "created",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "key_id", "key_secret")
	order, err := client.CreateOrder(context.Background(), domain.OrderRequest{
		Method: domain.MethodRazorpay,
		Amount: 500,
		Donor:  domain.Donor{Name: "A", Email: "a@x.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ProviderOrderID)
	assert.Equal(t, 500.0, order.Amount)
	assert.Equal(t, "created", order.Status)
}

func TestCreateOrderRoundsToPaise(t *testing.T) {
	// 1.15 has no exact float64 representation; 1.15*100 = 114.999...
	// and truncation would undercharge by one paisa.
	tests := []struct {
		rupees float64
		paise  float64
	}{
		{1.15, 115},
		{0.29, 29},
		{2.01, 201},
		{500, 50000},
	}

	var gotAmount float64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotAmount = body["amount"].(float64)
		json.NewEncoder(w).Encode(map[string]any{"id": "order_r", "amount": gotAmount, "currency": "INR", "status": "created"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "s")
	for _, tt := range tests {
		_, err := client.CreateOrder(context.Background(), domain.OrderRequest{
			Amount: tt.rupees,
			Donor:  domain.Donor{Name: "A", Email: "a@x.com"},
		})
		require.NoError(t, err)
		assert.Equal(t, tt.paise, gotAmount, "%v rupees", tt.rupees)
	}
}

func TestCreateOrderIdempotencyTokensDiffer(t *testing.T) {
	var receipts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		receipts = append(receipts, body["receipt"].(string))
		json.NewEncoder(w).Encode(map[string]any{"id": "order_x", "amount": 100, "currency": "INR", "status": "created"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "s")
	req := domain.OrderRequest{Amount: 1, Donor: domain.Donor{Name: "A", Email: "a@x.com"}}
	_, err := client.CreateOrder(context.Background(), req)
	require.NoError(t, err)
	_, err = client.CreateOrder(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, receipts, 2)
	assert.NotEqual(t, receipts[0], receipts[1])
}

func TestCaptureOrderAlreadyCaptured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payments/pay_1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"id": "pay_1", "amount": 50000, "currency": "INR",
			"status": "captured", "captured": true, "created_at": 1700000000,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "s")
	result, err := client.CaptureOrder(context.Background(), "pay_1")
	require.NoError(t, err)
	assert.Equal(t, domain.CaptureCompleted, result.Status)
	assert.Equal(t, "pay_1", result.TransactionID)
	assert.Equal(t, 500.0, result.Amount)
	assert.Equal(t, "INR", result.Currency)
}

func TestCaptureOrderAuthorizedTriggersCapture(t *testing.T) {
	captureCalled := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/payments/pay_2":
			json.NewEncoder(w).Encode(map[string]any{
				"id": "pay_2", "amount": 10000, "currency": "INR", "status": "authorized",
			})
		case "/v1/payments/pay_2/capture":
			captureCalled = true
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, float64(10000), body["amount"])
			json.NewEncoder(w).Encode(map[string]any{
				"id": "pay_2", "amount": 10000, "currency": "INR", "status": "captured",
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "s")
	result, err := client.CaptureOrder(context.Background(), "pay_2")
	require.NoError(t, err)
	assert.True(t, captureCalled)
	assert.Equal(t, domain.CaptureCompleted, result.Status)
}

func TestCaptureOrderFailedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id": "pay_3", "amount": 10000, "currency": "INR", "status": "failed",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "s")
	result, err := client.CaptureOrder(context.Background(), "pay_3")
	require.NoError(t, err)
	assert.Equal(t, domain.CaptureFailed, result.Status)
}

func TestAPIErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"description":"Invalid amount"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "s")
	_, err := client.CaptureOrder(context.Background(), "pay_4")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrProviderError))
	assert.Contains(t, err.Error(), "Invalid amount")
}

func TestMissingCredentialsNoRemoteCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "")
	_, err := client.CreateOrder(context.Background(), domain.OrderRequest{Amount: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadCredentials))

	_, err = client.CaptureOrder(context.Background(), "pay_5")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadCredentials))

	assert.False(t, called)
}
