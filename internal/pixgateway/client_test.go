package pixgateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/privehub/privehub/internal/checkout/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCharge(t *testing.T) {
	var gotAuth string
	var gotPayload createChargePayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/pix/charges", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chargeResponse{
			ID:        "abc123",
			CopyPaste: "000201pix",
			QRCode:    "data:image/png;base64,xyz",
			Status:    "pending",
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Token: "tok_test"})
	charge, err := client.CreateCharge(context.Background(), domain.CreateChargeRequest{
		AmountCents:   1990,
		CustomerName:  "Ana Silva",
		CustomerEmail: "ana@example.com",
		ProductTitle:  "Bela - Plano Basico",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok_test", gotAuth)
	assert.Equal(t, int64(1990), gotPayload.Amount)
	assert.Equal(t, "Bela - Plano Basico", gotPayload.ProductTitle)
	assert.Equal(t, "abc123", charge.ID)
	assert.Equal(t, "000201pix", charge.CopyPaste)
	assert.Equal(t, domain.ChargeStatusPending, charge.Status)
}

func TestCreateChargeErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(errorResponse{Error: "amount below minimum"})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Token: "tok_test"})
	_, err := client.CreateCharge(context.Background(), domain.CreateChargeRequest{AmountCents: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount below minimum")
}

func TestCreateChargeMissingToken(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://localhost:0"})
	_, err := client.CreateCharge(context.Background(), domain.CreateChargeRequest{AmountCents: 1990})
	require.Error(t, err)
}

func TestGetCharge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/pix/charges/abc123", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statusResponse{Status: "paid"})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Token: "tok_test"})
	status, err := client.GetCharge(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, domain.ChargeStatusApproved, status)
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, domain.ChargeStatusApproved, normalizeStatus("APPROVED"))
	assert.Equal(t, domain.ChargeStatusApproved, normalizeStatus("confirmed"))
	assert.Equal(t, domain.ChargeStatusRejected, normalizeStatus("refused"))
	assert.Equal(t, domain.ChargeStatusPending, normalizeStatus("created"))
	assert.Equal(t, domain.ChargeStatusPending, normalizeStatus(""))
}
