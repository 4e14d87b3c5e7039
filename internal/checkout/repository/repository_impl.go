package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/privehub/privehub/internal/checkout/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, attempt *domain.PaymentAttempt) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_attempts (
			id, customer_name, customer_email, model_name, plan_name,
			amount_cents, currency, provider_ref, status,
			created_at, updated_at, expires_at,
			recovery_email_count, recovery_email_last_sent_at, recovery_email_sent
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		attempt.ID,
		attempt.CustomerName,
		attempt.CustomerEmail,
		attempt.ModelName,
		attempt.PlanName,
		attempt.AmountCents,
		attempt.Currency,
		attempt.ProviderRef,
		attempt.Status,
		attempt.CreatedAt,
		attempt.UpdatedAt,
		attempt.ExpiresAt,
		attempt.RecoveryEmailCount,
		attempt.RecoveryEmailLastSentAt,
		attempt.RecoveryEmailSent,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PaymentAttempt, error) {
	var item domain.PaymentAttempt
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_name, customer_email, model_name, plan_name,
			amount_cents, currency, provider_ref, status,
			created_at, updated_at, expires_at,
			recovery_email_count, recovery_email_last_sent_at, recovery_email_sent
		 FROM payment_attempts
		 WHERE id = ?
		 LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) SetProviderRef(ctx context.Context, db *gorm.DB, id snowflake.ID, ref string, expiresAt time.Time, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_attempts
		 SET provider_ref = ?, expires_at = ?, updated_at = ?
		 WHERE id = ?`,
		ref,
		expiresAt,
		now,
		id,
	).Error
}

func (r *repo) TransitionStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, to domain.AttemptStatus, now time.Time) (bool, error) {
	if !to.Terminal() {
		return false, domain.ErrInvalidTransition
	}
	res := db.WithContext(ctx).Exec(
		`UPDATE payment_attempts
		 SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		to,
		now,
		id,
		domain.AttemptStatusPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindRecoveryCandidates(ctx context.Context, db *gorm.DB, window domain.RecoveryWindow) ([]domain.PaymentAttempt, error) {
	firstCutoff := window.Now.Add(-window.FirstReminderDelay)
	followUpCutoff := window.Now.Add(-window.ReminderCooldown)

	// The two branches are disjoint (last-sent NULL vs NOT NULL), so the
	// union needs no dedup. Each branch is bounded to cap per-pass work.
	var items []domain.PaymentAttempt
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM (
			SELECT id, customer_name, customer_email, model_name, plan_name,
				amount_cents, currency, provider_ref, status,
				created_at, updated_at, expires_at,
				recovery_email_count, recovery_email_last_sent_at, recovery_email_sent
			FROM payment_attempts
			WHERE status = ? AND recovery_email_count < ?
				AND recovery_email_last_sent_at IS NULL
				AND created_at < ?
			ORDER BY created_at
			LIMIT ?
		) first_reminder
		UNION ALL
		SELECT * FROM (
			SELECT id, customer_name, customer_email, model_name, plan_name,
				amount_cents, currency, provider_ref, status,
				created_at, updated_at, expires_at,
				recovery_email_count, recovery_email_last_sent_at, recovery_email_sent
			FROM payment_attempts
			WHERE status = ? AND recovery_email_count < ?
				AND recovery_email_last_sent_at IS NOT NULL
				AND recovery_email_last_sent_at < ?
			ORDER BY recovery_email_last_sent_at
			LIMIT ?
		) follow_up`,
		domain.AttemptStatusPending,
		domain.MaxRecoveryEmails,
		firstCutoff,
		window.Limit,
		domain.AttemptStatusPending,
		domain.MaxRecoveryEmails,
		followUpCutoff,
		window.Limit,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) MarkReminderSent(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE payment_attempts
		 SET recovery_email_count = recovery_email_count + 1,
		     recovery_email_last_sent_at = ?,
		     recovery_email_sent = ?,
		     updated_at = ?
		 WHERE id = ? AND status = ? AND recovery_email_count < ?`,
		now,
		true,
		now,
		id,
		domain.AttemptStatusPending,
		domain.MaxRecoveryEmails,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) ExpireStalePending(ctx context.Context, db *gorm.DB, now time.Time, limit int) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE payment_attempts
		 SET status = ?, updated_at = ?
		 WHERE id IN (
			SELECT id FROM payment_attempts
			WHERE status = ? AND expires_at IS NOT NULL AND expires_at < ?
			LIMIT ?
		 )`,
		domain.AttemptStatusExpired,
		now,
		domain.AttemptStatusPending,
		now,
		limit,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.PaymentAttempt, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, customer_name, customer_email, model_name, plan_name,
			amount_cents, currency, provider_ref, status,
			created_at, updated_at, expires_at,
			recovery_email_count, recovery_email_last_sent_at, recovery_email_sent
		 FROM payment_attempts`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var items []domain.PaymentAttempt
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
