package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// AttemptStatus is the persisted settlement state of a checkout attempt.
// Transitions only move forward: pending -> approved | rejected | expired.
type AttemptStatus string

const (
	AttemptStatusPending  AttemptStatus = "pending"
	AttemptStatusApproved AttemptStatus = "approved"
	AttemptStatusRejected AttemptStatus = "rejected"
	AttemptStatusExpired  AttemptStatus = "expired"
)

func (s AttemptStatus) Valid() bool {
	switch s {
	case AttemptStatusPending, AttemptStatusApproved, AttemptStatusRejected, AttemptStatusExpired:
		return true
	default:
		return false
	}
}

func (s AttemptStatus) Terminal() bool {
	return s != AttemptStatusPending && s.Valid()
}

// MaxRecoveryEmails caps reminder emails per attempt across all passes.
const MaxRecoveryEmails = 3

// PaymentAttempt represents one checkout attempt.
type PaymentAttempt struct {
	ID            snowflake.ID  `json:"id" gorm:"primaryKey"`
	CustomerName  string        `json:"customer_name" gorm:"type:text;not null"`
	CustomerEmail string        `json:"customer_email" gorm:"type:text;not null"`
	ModelName     string        `json:"model_name" gorm:"type:text;not null;default:''"`
	PlanName      string        `json:"plan_name" gorm:"type:text;not null"`
	AmountCents   int64         `json:"amount_cents" gorm:"not null"`
	Currency      string        `json:"currency" gorm:"type:text;not null;default:'BRL'"`
	ProviderRef   *string       `json:"provider_ref" gorm:"type:text;index"`
	Status        AttemptStatus `json:"status" gorm:"type:text;not null;default:'pending';index:idx_payment_attempts_status_created"`
	CreatedAt     time.Time     `json:"created_at" gorm:"not null;index:idx_payment_attempts_status_created"`
	UpdatedAt     time.Time     `json:"updated_at" gorm:"not null"`
	ExpiresAt     *time.Time    `json:"expires_at"`

	RecoveryEmailCount      int        `json:"recovery_email_count" gorm:"not null;default:0"`
	RecoveryEmailLastSentAt *time.Time `json:"recovery_email_last_sent_at"`
	RecoveryEmailSent       bool       `json:"recovery_email_sent" gorm:"not null;default:false"`
}

func (PaymentAttempt) TableName() string { return "payment_attempts" }

// SessionState is the in-memory lifecycle of one checkout session. It is never
// persisted.
type SessionState string

const (
	SessionStateForm       SessionState = "form"
	SessionStateSubmitting SessionState = "submitting"
	SessionStateWaiting    SessionState = "waiting"
	SessionStateSuccess    SessionState = "success"
	SessionStateError      SessionState = "error"
)

// User-facing error wording for the two local terminal transitions. The SPA
// localizes on top of these codes.
const (
	MessagePaymentRejected = "payment not approved"
	MessageSessionExpired  = "time expired"
)
