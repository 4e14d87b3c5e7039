package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// RecoveryWindow carries the cadence boundaries for candidate selection.
type RecoveryWindow struct {
	Now                time.Time
	FirstReminderDelay time.Duration
	ReminderCooldown   time.Duration
	Limit              int
}

// ListFilter narrows admin attempt listings.
type ListFilter struct {
	Status AttemptStatus
	Limit  int
	Offset int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, attempt *PaymentAttempt) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PaymentAttempt, error)
	SetProviderRef(ctx context.Context, db *gorm.DB, id snowflake.ID, ref string, expiresAt time.Time, now time.Time) error

	// TransitionStatus moves an attempt out of pending. It reports whether a
	// row changed, so a raced terminal write is detectable.
	TransitionStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, to AttemptStatus, now time.Time) (bool, error)

	// FindRecoveryCandidates returns pending attempts due a reminder: never
	// mailed and older than the first-reminder delay, or mailed and past the
	// cooldown. Both branches respect the reminder cap and the per-branch
	// limit. The branches are disjoint on last-sent NULL-ness.
	FindRecoveryCandidates(ctx context.Context, db *gorm.DB, window RecoveryWindow) ([]PaymentAttempt, error)

	// MarkReminderSent increments the reminder counter under the cap.
	MarkReminderSent(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)

	// ExpireStalePending marks pending attempts past their expiry as expired.
	ExpireStalePending(ctx context.Context, db *gorm.DB, now time.Time, limit int) (int64, error)

	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]PaymentAttempt, error)
}
