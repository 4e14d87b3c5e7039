package recovery

import (
	"context"
	"errors"
	"fmt"

	checkoutdomain "github.com/privehub/privehub/internal/checkout/domain"
	"github.com/privehub/privehub/internal/clock"
	"github.com/privehub/privehub/internal/config"
	"github.com/privehub/privehub/internal/observability/metrics"
	"github.com/privehub/privehub/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Repo   checkoutdomain.Repository
	Email  email.Provider
	Clock  clock.Clock
	Holder *config.RecoveryConfigHolder
}

// Service runs recovery-email passes over abandoned checkout attempts.
type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	repo   checkoutdomain.Repository
	email  email.Provider
	clock  clock.Clock
	holder *config.RecoveryConfigHolder
}

func NewService(p Params) (*Service, error) {
	if p.DB == nil || p.Log == nil || p.Repo == nil || p.Email == nil || p.Clock == nil || p.Holder == nil {
		return nil, fmt.Errorf("recovery service: missing dependency")
	}
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("recovery"),
		repo:   p.Repo,
		email:  p.Email,
		clock:  p.Clock,
		holder: p.Holder,
	}, nil
}

// Summary reports the outcome of one pass.
type Summary struct {
	Attempted int
	Sent      int
	Failures  []string
}

// RunRecoveryPass selects every attempt due a reminder and mails each one.
// Candidate selection failing aborts the pass; a single recipient failing is
// recorded and skipped so one bad address never starves the rest of the batch.
func (s *Service) RunRecoveryPass(ctx context.Context) (Summary, error) {
	cfg := s.holder.Get()
	now := s.clock.Now()

	candidates, err := s.repo.FindRecoveryCandidates(ctx, s.db, checkoutdomain.RecoveryWindow{
		Now:                now,
		FirstReminderDelay: cfg.FirstReminderDelay,
		ReminderCooldown:   cfg.ReminderCooldown,
		Limit:              cfg.BatchLimit,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("find recovery candidates: %w", err)
	}

	summary := Summary{Attempted: len(candidates)}
	for _, attempt := range candidates {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := s.sendReminder(ctx, cfg, attempt); err != nil {
			if errors.Is(err, email.ErrNotConfigured) {
				return summary, err
			}
			summary.Failures = append(summary.Failures, fmt.Sprintf("%s: %v", attempt.ID, err))
			metrics.Scheduler().AddRecoveryFailed(1)
			s.log.Warn("recovery email failed",
				zap.String("attempt_id", attempt.ID.String()),
				zap.Int("reminder", attempt.RecoveryEmailCount+1),
				zap.Error(err),
			)
			continue
		}
		summary.Sent++
		metrics.Scheduler().AddRecoverySent(1)
	}
	return summary, nil
}

func (s *Service) sendReminder(ctx context.Context, cfg config.RecoveryConfig, attempt checkoutdomain.PaymentAttempt) error {
	reminderNo := attempt.RecoveryEmailCount + 1
	subject, body, err := renderReminder(cfg.Subjects, attempt, reminderNo)
	if err != nil {
		return err
	}

	if err := s.email.Send(ctx, []string{attempt.CustomerEmail}, subject, body); err != nil {
		return err
	}

	marked, err := s.repo.MarkReminderSent(ctx, s.db, attempt.ID, s.clock.Now())
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	if !marked {
		// The attempt hit the cap or left pending between select and send.
		// The email went out; the counter guard keeps the next pass honest.
		s.log.Warn("reminder sent but not recorded",
			zap.String("attempt_id", attempt.ID.String()),
			zap.Int("reminder", reminderNo),
		)
		return nil
	}

	s.log.Info("recovery email sent",
		zap.String("attempt_id", attempt.ID.String()),
		zap.Int("reminder", reminderNo),
	)
	return nil
}
