package domain

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	maxNameLen  = 200
	maxEmailLen = 255
)

type StartSessionRequest struct {
	CustomerName  string
	CustomerEmail string
	ModelName     string
	PlanName      string
	AmountCents   int64
}

// Validate rejects malformed input before any gateway call is made.
func (r StartSessionRequest) Validate() error {
	name := strings.TrimSpace(r.CustomerName)
	if name == "" || len(name) > maxNameLen {
		return ErrInvalidName
	}
	email := strings.TrimSpace(r.CustomerEmail)
	if email == "" || len(email) > maxEmailLen || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(r.PlanName) == "" {
		return ErrInvalidPlan
	}
	if r.AmountCents <= 0 {
		return ErrInvalidAmount
	}
	if r.AmountCents > MaxAmountCents {
		return ErrAmountTooLarge
	}
	return nil
}

// SessionStatus is the view of a checkout session the SPA polls.
type SessionStatus struct {
	AttemptID   snowflake.ID `json:"attempt_id"`
	State       SessionState `json:"state"`
	Message     string       `json:"message,omitempty"`
	ReferenceID string       `json:"reference_id,omitempty"`
	CopyPaste   string       `json:"copy_paste,omitempty"`
	QRCode      string       `json:"qr_code,omitempty"`
	ExpiresAt   time.Time    `json:"expires_at,omitempty"`
}

type Service interface {
	// StartSession validates the request, persists a pending attempt, creates
	// the PIX charge and begins settlement polling. It returns in state
	// waiting or fails; it never leaves a caller stuck in submitting.
	StartSession(ctx context.Context, req StartSessionRequest) (SessionStatus, error)

	// SessionStatus reports the live session when one exists, otherwise the
	// persisted attempt state.
	SessionStatus(ctx context.Context, attemptID snowflake.ID) (SessionStatus, error)

	// ResetSession tears a live session down so the customer can resubmit.
	ResetSession(ctx context.Context, attemptID snowflake.ID) error

	// OverrideStatus is the admin escape hatch; forward-only transitions.
	OverrideStatus(ctx context.Context, attemptID snowflake.ID, to AttemptStatus) (*PaymentAttempt, error)

	ListAttempts(ctx context.Context, filter ListFilter) ([]PaymentAttempt, error)
}
