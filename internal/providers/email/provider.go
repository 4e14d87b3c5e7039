package email

import (
	"context"
	"errors"
)

// ErrNotConfigured reports that the active provider is missing required
// settings. Callers treat it as a hard failure for the whole pass rather than
// a per-recipient one.
var ErrNotConfigured = errors.New("email_provider_not_configured")

// Provider delivers a single HTML email.
type Provider interface {
	Send(ctx context.Context, to []string, subject, htmlBody string) error
}

// NoOpProvider drops every message. Used in development and as the fallback
// when no provider is configured for an environment that tolerates it.
type NoOpProvider struct{}

func (NoOpProvider) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	return nil
}
