package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	checkoutdomain "github.com/privehub/privehub/internal/checkout/domain"
	"github.com/privehub/privehub/internal/clock"
	obsmetrics "github.com/privehub/privehub/internal/observability/metrics"
	"github.com/privehub/privehub/internal/ratelimit"
	"github.com/privehub/privehub/internal/recovery"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("scheduler: missing dependency")

const overlapLockKey = "privehub:scheduler:pass"

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Repo        checkoutdomain.Repository
	RecoverySvc *recovery.Service
	Locker      *ratelimit.Locker `optional:"true"`
	Clock       clock.Clock
	Config      Config `optional:"true"`
}

type Scheduler struct {
	db          *gorm.DB
	log         *zap.Logger
	cfg         Config
	clock       clock.Clock
	repo        checkoutdomain.Repository
	recoverySvc *recovery.Service
	locker      *ratelimit.Locker
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.Repo == nil || p.RecoverySvc == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:          p.DB,
		log:         p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:         p.Config.withDefaults(),
		clock:       p.Clock,
		repo:        p.Repo,
		recoverySvc: p.RecoverySvc,
		locker:      p.Locker,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, time.Since(start))
	if err == nil {
		return nil
	}

	// treat deadline as soft-timeout
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	schedMetrics.IncJobError(name)
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	release, ok, err := s.locker.TryLock(parent, overlapLockKey, s.cfg.LockTTL)
	if err != nil {
		s.log.Warn("overlap lock unavailable, skipping pass", zap.Error(err))
		return nil
	}
	if !ok {
		s.log.Debug("another replica holds the scheduler lock, skipping pass")
		return nil
	}
	defer release()

	jobs := []struct {
		Name    string
		Enabled bool
		Run     func(context.Context) error
	}{
		{"recovery_emails", s.isJobEnabled("recovery_emails"), func(ctx context.Context) error {
			return s.runJob(ctx, "recovery_emails", s.cfg.JobTimeout, s.RecoveryEmailsJob)
		}},
		{"expire_attempts", s.isJobEnabled("expire_attempts"), func(ctx context.Context) error {
			return s.runJob(ctx, "expire_attempts", s.cfg.JobTimeout, s.ExpireAttemptsJob)
		}},
	}

	for _, job := range jobs {
		if job.Enabled {
			err = errors.Join(err, job.Run(parent))
		}
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// If EnabledJobs is empty, all jobs are enabled by default (monolith mode)
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// RecoveryEmailsJob mails reminders for abandoned pending attempts.
func (s *Scheduler) RecoveryEmailsJob(ctx context.Context) error {
	summary, err := s.recoverySvc.RunRecoveryPass(ctx)
	if err != nil {
		return err
	}
	if summary.Attempted == 0 {
		return nil
	}
	s.log.Info("recovery pass finished",
		zap.Int("attempted", summary.Attempted),
		zap.Int("sent", summary.Sent),
		zap.Int("failed", len(summary.Failures)),
	)
	if len(summary.Failures) > 0 {
		s.log.Warn("recovery pass had failures", zap.Strings("failures", summary.Failures))
	}
	return nil
}

// ExpireAttemptsJob closes out pending attempts whose checkout window lapsed
// while no session supervisor was alive, e.g. after a restart.
func (s *Scheduler) ExpireAttemptsJob(ctx context.Context) error {
	expired, err := s.repo.ExpireStalePending(ctx, s.db, s.clock.Now(), s.cfg.BatchSize)
	if err != nil {
		return err
	}
	if expired > 0 {
		s.log.Info("expired stale attempts", zap.Int64("count", expired))
	}
	return nil
}
