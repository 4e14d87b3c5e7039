package pixgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/privehub/privehub/internal/checkout/domain"
)

// Config configures the PIX processor client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ domain.Gateway = (*Client)(nil)

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   strings.TrimSpace(cfg.Token),
		client:  &http.Client{Timeout: timeout},
	}
}

type createChargePayload struct {
	Amount        int64  `json:"amount"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	ProductTitle  string `json:"productTitle"`
}

type chargeResponse struct {
	ID        string `json:"id"`
	CopyPaste string `json:"copyPaste"`
	QRCode    string `json:"qrCode"`
	Status    string `json:"status"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) CreateCharge(ctx context.Context, req domain.CreateChargeRequest) (domain.Charge, error) {
	if c.token == "" {
		return domain.Charge{}, errors.New("pix token not configured")
	}

	payload := createChargePayload{
		Amount:        req.AmountCents,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		ProductTitle:  req.ProductTitle,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Charge{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pix/charges", bytes.NewReader(body))
	if err != nil {
		return domain.Charge{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return domain.Charge{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return domain.Charge{}, decodeError(resp)
	}

	var charge chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&charge); err != nil {
		return domain.Charge{}, err
	}
	if strings.TrimSpace(charge.ID) == "" {
		return domain.Charge{}, errors.New("pix_response_invalid")
	}
	return domain.Charge{
		ID:        charge.ID,
		CopyPaste: charge.CopyPaste,
		QRCode:    charge.QRCode,
		Status:    normalizeStatus(charge.Status),
	}, nil
}

func (c *Client) GetCharge(ctx context.Context, id string) (domain.ChargeStatus, error) {
	if strings.TrimSpace(id) == "" {
		return "", errors.New("charge id is empty")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/pix/charges/"+id, nil)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", decodeError(resp)
	}

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return "", err
	}
	return normalizeStatus(status.Status), nil
}

func decodeError(resp *http.Response) error {
	var payload errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Error) == "" {
		return fmt.Errorf("pix_request_failed: status %d", resp.StatusCode)
	}
	return errors.New(strings.TrimSpace(payload.Error))
}

// normalizeStatus folds the processor's status vocabulary into the three
// states the checkout flow acts on. Anything unrecognized stays pending so a
// poll tick never terminates a session on a surprise value.
func normalizeStatus(raw string) domain.ChargeStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved", "paid", "confirmed":
		return domain.ChargeStatusApproved
	case "rejected", "refused", "canceled", "cancelled":
		return domain.ChargeStatusRejected
	default:
		return domain.ChargeStatusPending
	}
}
