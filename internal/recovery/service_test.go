package recovery

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	checkoutdomain "github.com/privehub/privehub/internal/checkout/domain"
	checkoutrepo "github.com/privehub/privehub/internal/checkout/repository"
	"github.com/privehub/privehub/internal/clock"
	"github.com/privehub/privehub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeProvider struct {
	mu      sync.Mutex
	sent    []sentMail
	failFor map[string]error
}

func (p *fakeProvider) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.failFor[to[0]]; ok {
		return err
	}
	p.sent = append(p.sent, sentMail{To: to[0], Subject: subject, Body: htmlBody})
	return nil
}

func (p *fakeProvider) mails() []sentMail {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]sentMail(nil), p.sent...)
}

type fixture struct {
	svc   *Service
	conn  *gorm.DB
	repo  checkoutdomain.Repository
	node  *snowflake.Node
	clk   *clock.FakeClock
	email *fakeProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&checkoutdomain.PaymentAttempt{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	provider := &fakeProvider{failFor: map[string]error{}}
	repo := checkoutrepo.Provide()

	svc, err := NewService(Params{
		DB:     conn,
		Log:    zap.NewNop(),
		Repo:   repo,
		Email:  provider,
		Clock:  clk,
		Holder: config.NewStaticRecoveryConfigHolder(config.DefaultRecoveryConfig()),
	})
	require.NoError(t, err)

	return &fixture{svc: svc, conn: conn, repo: repo, node: node, clk: clk, email: provider}
}

func (f *fixture) seedPending(t *testing.T, email string, age time.Duration) *checkoutdomain.PaymentAttempt {
	t.Helper()
	createdAt := f.clk.Now().Add(-age)
	attempt := &checkoutdomain.PaymentAttempt{
		ID:            f.node.Generate(),
		CustomerName:  "Ana Silva",
		CustomerEmail: email,
		ModelName:     "Bela",
		PlanName:      "Plano Basico",
		AmountCents:   1990,
		Currency:      "BRL",
		Status:        checkoutdomain.AttemptStatusPending,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	require.NoError(t, f.repo.Insert(context.Background(), f.conn, attempt))
	return attempt
}

func TestRecoveryPassHonorsFirstReminderDelay(t *testing.T) {
	f := newFixture(t)

	f.seedPending(t, "fresh@example.com", 4*time.Minute)
	due := f.seedPending(t, "due@example.com", 6*time.Minute)

	summary, err := f.svc.RunRecoveryPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Attempted)
	assert.Equal(t, 1, summary.Sent)
	assert.Empty(t, summary.Failures)

	mails := f.email.mails()
	require.Len(t, mails, 1)
	assert.Equal(t, "due@example.com", mails[0].To)
	assert.Equal(t, config.DefaultRecoveryConfig().Subjects[0], mails[0].Subject)
	assert.Contains(t, mails[0].Body, "Plano Basico")
	assert.Contains(t, mails[0].Body, "R$ 19,90")

	got, err := f.repo.FindByID(context.Background(), f.conn, due.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RecoveryEmailCount)
	assert.True(t, got.RecoveryEmailSent)
}

func TestRecoveryPassHonorsCooldown(t *testing.T) {
	f := newFixture(t)

	f.seedPending(t, "ana@example.com", 2*time.Hour)

	// First reminder goes out.
	summary, err := f.svc.RunRecoveryPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)

	// Thirty minutes later is still inside the cooldown.
	f.clk.Advance(30 * time.Minute)
	summary, err = f.svc.RunRecoveryPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Attempted)

	// Past the cooldown the second reminder fires, with its own subject.
	f.clk.Advance(31 * time.Minute)
	summary, err = f.svc.RunRecoveryPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)

	mails := f.email.mails()
	require.Len(t, mails, 2)
	assert.Equal(t, config.DefaultRecoveryConfig().Subjects[1], mails[1].Subject)
}

func TestRecoveryPassStopsAtCap(t *testing.T) {
	f := newFixture(t)

	f.seedPending(t, "ana@example.com", 2*time.Hour)

	for i := 0; i < checkoutdomain.MaxRecoveryEmails; i++ {
		summary, err := f.svc.RunRecoveryPass(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Sent, "reminder %d", i+1)
		f.clk.Advance(2 * time.Hour)
	}

	// The cap is reached; further passes find nothing.
	summary, err := f.svc.RunRecoveryPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Attempted)
	assert.Len(t, f.email.mails(), checkoutdomain.MaxRecoveryEmails)
}

func TestRecoveryPassIsolatesFailures(t *testing.T) {
	f := newFixture(t)

	f.seedPending(t, "bad@example.com", 2*time.Hour)
	f.seedPending(t, "good@example.com", 2*time.Hour)
	f.email.failFor["bad@example.com"] = errors.New("mailbox unavailable")

	summary, err := f.svc.RunRecoveryPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Attempted)
	assert.Equal(t, 1, summary.Sent)
	require.Len(t, summary.Failures, 1)
	assert.True(t, strings.Contains(summary.Failures[0], "mailbox unavailable"))

	mails := f.email.mails()
	require.Len(t, mails, 1)
	assert.Equal(t, "good@example.com", mails[0].To)
}

func TestRecoveryPassSkipsSettledAttempts(t *testing.T) {
	f := newFixture(t)

	settled := f.seedPending(t, "ana@example.com", 2*time.Hour)
	_, err := f.repo.TransitionStatus(context.Background(), f.conn, settled.ID, checkoutdomain.AttemptStatusApproved, f.clk.Now())
	require.NoError(t, err)

	summary, err := f.svc.RunRecoveryPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Attempted)
	assert.Empty(t, f.email.mails())
}

func TestRenderReminderEscalates(t *testing.T) {
	attempt := checkoutdomain.PaymentAttempt{
		CustomerName: "Ana Silva",
		ModelName:    "Bela",
		PlanName:     "Plano Basico",
		AmountCents:  1990,
	}
	subjects := config.DefaultRecoveryConfig().Subjects

	seen := map[string]bool{}
	for n := 1; n <= checkoutdomain.MaxRecoveryEmails; n++ {
		subject, body, err := renderReminder(subjects, attempt, n)
		require.NoError(t, err)
		assert.Equal(t, subjects[n-1], subject)
		assert.Contains(t, body, "Ana")
		assert.Contains(t, body, "R$ 19,90")
		assert.False(t, seen[body], "each reminder has distinct wording")
		seen[body] = true
	}

	_, _, err := renderReminder(subjects, attempt, checkoutdomain.MaxRecoveryEmails+1)
	assert.Error(t, err)
}
