package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	checkoutdomain "github.com/privehub/privehub/internal/checkout/domain"
	"github.com/privehub/privehub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCheckoutService struct {
	startFn    func(ctx context.Context, req checkoutdomain.StartSessionRequest) (checkoutdomain.SessionStatus, error)
	statusFn   func(ctx context.Context, id snowflake.ID) (checkoutdomain.SessionStatus, error)
	resetFn    func(ctx context.Context, id snowflake.ID) error
	overrideFn func(ctx context.Context, id snowflake.ID, to checkoutdomain.AttemptStatus) (*checkoutdomain.PaymentAttempt, error)
	listFn     func(ctx context.Context, filter checkoutdomain.ListFilter) ([]checkoutdomain.PaymentAttempt, error)
}

func (s *stubCheckoutService) StartSession(ctx context.Context, req checkoutdomain.StartSessionRequest) (checkoutdomain.SessionStatus, error) {
	return s.startFn(ctx, req)
}

func (s *stubCheckoutService) SessionStatus(ctx context.Context, id snowflake.ID) (checkoutdomain.SessionStatus, error) {
	return s.statusFn(ctx, id)
}

func (s *stubCheckoutService) ResetSession(ctx context.Context, id snowflake.ID) error {
	return s.resetFn(ctx, id)
}

func (s *stubCheckoutService) OverrideStatus(ctx context.Context, id snowflake.ID, to checkoutdomain.AttemptStatus) (*checkoutdomain.PaymentAttempt, error) {
	return s.overrideFn(ctx, id, to)
}

func (s *stubCheckoutService) ListAttempts(ctx context.Context, filter checkoutdomain.ListFilter) ([]checkoutdomain.PaymentAttempt, error) {
	return s.listFn(ctx, filter)
}

func newTestServer(t *testing.T, svc checkoutdomain.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())
	NewServer(ServerParams{
		Gin:         engine,
		Cfg:         config.Config{},
		Log:         zap.NewNop(),
		CheckoutSvc: svc,
	})
	return engine
}

func postJSON(t *testing.T, engine *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestStartCheckoutSession(t *testing.T) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	attemptID := node.Generate()

	var gotReq checkoutdomain.StartSessionRequest
	svc := &stubCheckoutService{
		startFn: func(ctx context.Context, req checkoutdomain.StartSessionRequest) (checkoutdomain.SessionStatus, error) {
			gotReq = req
			return checkoutdomain.SessionStatus{
				AttemptID:   attemptID,
				State:       checkoutdomain.SessionStateWaiting,
				ReferenceID: "abc123",
				CopyPaste:   "000201pix",
			}, nil
		},
	}
	engine := newTestServer(t, svc)

	rec := postJSON(t, engine, "/api/checkout/sessions", gin.H{
		"customer_name":  "Ana Silva",
		"customer_email": "ana@example.com",
		"model_name":     "Bela",
		"plan_name":      "Plano Basico",
		"amount":         "19,90",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(1990), gotReq.AmountCents)
	assert.Equal(t, "Ana Silva", gotReq.CustomerName)

	var resp checkoutdomain.SessionStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, checkoutdomain.SessionStateWaiting, resp.State)
	assert.Equal(t, "abc123", resp.ReferenceID)
}

func TestStartCheckoutSessionBadAmount(t *testing.T) {
	svc := &stubCheckoutService{
		startFn: func(ctx context.Context, req checkoutdomain.StartSessionRequest) (checkoutdomain.SessionStatus, error) {
			t.Fatal("service must not be called for a malformed amount")
			return checkoutdomain.SessionStatus{}, nil
		},
	}
	engine := newTestServer(t, svc)

	rec := postJSON(t, engine, "/api/checkout/sessions", gin.H{
		"customer_name":  "Ana Silva",
		"customer_email": "ana@example.com",
		"plan_name":      "Plano Basico",
		"amount":         "9.905",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Error.Type)
	assert.Equal(t, "invalid_amount", resp.Error.Code)
}

func TestStartCheckoutSessionGatewayDown(t *testing.T) {
	svc := &stubCheckoutService{
		startFn: func(ctx context.Context, req checkoutdomain.StartSessionRequest) (checkoutdomain.SessionStatus, error) {
			return checkoutdomain.SessionStatus{}, checkoutdomain.ErrGatewayUnavailable
		},
	}
	engine := newTestServer(t, svc)

	rec := postJSON(t, engine, "/api/checkout/sessions", gin.H{
		"customer_name":  "Ana Silva",
		"customer_email": "ana@example.com",
		"plan_name":      "Plano Basico",
		"amount":         "19.90",
	})

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "service_unavailable", resp.Error.Type)
	assert.Contains(t, resp.Error.Message, "try again")
}

func TestGetCheckoutSessionNotFound(t *testing.T) {
	svc := &stubCheckoutService{
		statusFn: func(ctx context.Context, id snowflake.ID) (checkoutdomain.SessionStatus, error) {
			return checkoutdomain.SessionStatus{}, checkoutdomain.ErrNotFound
		},
	}
	engine := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/checkout/sessions/123456789", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResetCheckoutSession(t *testing.T) {
	var gotID snowflake.ID
	svc := &stubCheckoutService{
		resetFn: func(ctx context.Context, id snowflake.ID) error {
			gotID = id
			return nil
		},
	}
	engine := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/checkout/sessions/123456789", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(123456789), int64(gotID))
}

func TestOverrideAttemptStatusConflict(t *testing.T) {
	svc := &stubCheckoutService{
		overrideFn: func(ctx context.Context, id snowflake.ID, to checkoutdomain.AttemptStatus) (*checkoutdomain.PaymentAttempt, error) {
			return nil, checkoutdomain.ErrInvalidTransition
		},
	}
	engine := newTestServer(t, svc)

	payload, _ := json.Marshal(gin.H{"status": "rejected"})
	req := httptest.NewRequest(http.MethodPatch, "/api/admin/attempts/123456789/status", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestOverrideAttemptStatusRejectsUnknownStatus(t *testing.T) {
	svc := &stubCheckoutService{
		overrideFn: func(ctx context.Context, id snowflake.ID, to checkoutdomain.AttemptStatus) (*checkoutdomain.PaymentAttempt, error) {
			t.Fatal("service must not be called for an unknown status")
			return nil, nil
		},
	}
	engine := newTestServer(t, svc)

	payload, _ := json.Marshal(gin.H{"status": "bogus"})
	req := httptest.NewRequest(http.MethodPatch, "/api/admin/attempts/123456789/status", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAttempts(t *testing.T) {
	var gotFilter checkoutdomain.ListFilter
	svc := &stubCheckoutService{
		listFn: func(ctx context.Context, filter checkoutdomain.ListFilter) ([]checkoutdomain.PaymentAttempt, error) {
			gotFilter = filter
			return nil, nil
		},
	}
	engine := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/attempts?status=pending&limit=10", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, checkoutdomain.AttemptStatusPending, gotFilter.Status)
	assert.Equal(t, 10, gotFilter.Limit)
	assert.Contains(t, rec.Body.String(), `"attempts":[]`)
}
