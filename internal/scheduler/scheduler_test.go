package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	checkoutdomain "github.com/privehub/privehub/internal/checkout/domain"
	checkoutrepo "github.com/privehub/privehub/internal/checkout/repository"
	"github.com/privehub/privehub/internal/clock"
	"github.com/privehub/privehub/internal/config"
	"github.com/privehub/privehub/internal/providers/email"
	"github.com/privehub/privehub/internal/recovery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestScheduler(t *testing.T) (*Scheduler, *gorm.DB, *snowflake.Node, *clock.FakeClock) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&checkoutdomain.PaymentAttempt{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	repo := checkoutrepo.Provide()

	recoverySvc, err := recovery.NewService(recovery.Params{
		DB:     conn,
		Log:    zap.NewNop(),
		Repo:   repo,
		Email:  email.NoOpProvider{},
		Clock:  clk,
		Holder: config.NewStaticRecoveryConfigHolder(config.DefaultRecoveryConfig()),
	})
	require.NoError(t, err)

	sched, err := New(Params{
		DB:          conn,
		Log:         zap.NewNop(),
		Repo:        repo,
		RecoverySvc: recoverySvc,
		Clock:       clk,
	})
	require.NoError(t, err)
	return sched, conn, node, clk
}

func TestRunJobTimeoutIsSoft(t *testing.T) {
	sched, _, _, _ := newTestScheduler(t)

	err := sched.runJob(context.Background(), "timeout_job", 5*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.NoError(t, err, "a deadline hit is logged, not propagated")
}

func TestRunJobPropagatesRealErrors(t *testing.T) {
	sched, _, _, _ := newTestScheduler(t)

	err := sched.runJob(context.Background(), "failing_job", time.Second, func(ctx context.Context) error {
		return assert.AnError
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "failing_job")
}

func TestExpireAttemptsJob(t *testing.T) {
	sched, conn, node, clk := newTestScheduler(t)
	ctx := context.Background()
	now := clk.Now()

	stale := now.Add(-time.Minute)
	attempt := &checkoutdomain.PaymentAttempt{
		ID:            node.Generate(),
		CustomerName:  "Ana Silva",
		CustomerEmail: "ana@example.com",
		PlanName:      "Plano Basico",
		AmountCents:   1990,
		Currency:      "BRL",
		Status:        checkoutdomain.AttemptStatusPending,
		CreatedAt:     now.Add(-time.Hour),
		UpdatedAt:     now.Add(-time.Hour),
		ExpiresAt:     &stale,
	}
	require.NoError(t, sched.repo.Insert(ctx, conn, attempt))

	require.NoError(t, sched.ExpireAttemptsJob(ctx))

	got, err := sched.repo.FindByID(ctx, conn, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, checkoutdomain.AttemptStatusExpired, got.Status)
}

func TestRunOnceWithoutLockerRunsAllJobs(t *testing.T) {
	sched, _, _, _ := newTestScheduler(t)
	assert.NoError(t, sched.RunOnce(context.Background()))
}

func TestProvideConfigFromEnv(t *testing.T) {
	t.Setenv("SCHEDULER_RUN_INTERVAL", "30s")
	t.Setenv("SCHEDULER_BATCH_SIZE", "25")
	t.Setenv("SCHEDULER_JOB_TIMEOUT", "10s")
	t.Setenv("SCHEDULER_LOCK_TTL", "90s")
	t.Setenv("SCHEDULER_ENABLED_JOBS", "expire_attempts, recovery_emails")

	cfg := ProvideConfig()
	assert.Equal(t, 30*time.Second, cfg.RunInterval)
	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, 10*time.Second, cfg.JobTimeout)
	assert.Equal(t, 90*time.Second, cfg.LockTTL)
	assert.Equal(t, []string{"expire_attempts", "recovery_emails"}, cfg.EnabledJobs)
}

func TestProvideConfigDefaults(t *testing.T) {
	t.Setenv("SCHEDULER_RUN_INTERVAL", "")
	t.Setenv("SCHEDULER_BATCH_SIZE", "not-a-number")
	t.Setenv("SCHEDULER_ENABLED_JOBS", "")

	cfg := ProvideConfig()
	defaults := DefaultConfig()
	assert.Equal(t, defaults.RunInterval, cfg.RunInterval)
	assert.Equal(t, defaults.BatchSize, cfg.BatchSize)
	assert.Equal(t, defaults.JobTimeout, cfg.JobTimeout)
	assert.Nil(t, cfg.EnabledJobs)
}

func TestIsJobEnabled(t *testing.T) {
	sched, _, _, _ := newTestScheduler(t)

	assert.True(t, sched.isJobEnabled("recovery_emails"), "empty list enables everything")

	sched.cfg.EnabledJobs = []string{"expire_attempts"}
	assert.True(t, sched.isJobEnabled("expire_attempts"))
	assert.True(t, sched.isJobEnabled("EXPIRE_ATTEMPTS"))
	assert.False(t, sched.isJobEnabled("recovery_emails"))
}
