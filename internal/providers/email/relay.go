package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RelayConfig configures the HTTP relay provider.
type RelayConfig struct {
	BaseURL string
	APIKey  string
	From    string
	Timeout time.Duration
}

// RelayProvider sends mail through an HTTP delivery API.
type RelayProvider struct {
	baseURL string
	apiKey  string
	from    string
	client  *http.Client
}

var _ Provider = (*RelayProvider)(nil)

func NewRelayProvider(cfg RelayConfig) *RelayProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RelayProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		from:    strings.TrimSpace(cfg.From),
		client:  &http.Client{Timeout: timeout},
	}
}

type relayPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (p *RelayProvider) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	if p.apiKey == "" || p.from == "" {
		return ErrNotConfigured
	}
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}

	body, err := json.Marshal(relayPayload{
		From:    p.from,
		To:      to,
		Subject: subject,
		HTML:    htmlBody,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var payload struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Message != "" {
			return fmt.Errorf("relay_send_failed: %s", payload.Message)
		}
		return fmt.Errorf("relay_send_failed: status %d", resp.StatusCode)
	}
	return nil
}
