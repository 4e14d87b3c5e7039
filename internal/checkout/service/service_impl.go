package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/privehub/privehub/internal/checkout/domain"
	"github.com/privehub/privehub/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config controls session timing.
type Config struct {
	PollInterval time.Duration
	SessionTTL   time.Duration
}

func DefaultConfig() Config {
	return Config{
		PollInterval: 3 * time.Second,
		SessionTTL:   900 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = defaults.PollInterval
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = defaults.SessionTTL
	}
	return c
}

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Gateway domain.Gateway
	Clock   clock.Clock
	Config  Config `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	gateway domain.Gateway
	clock   clock.Clock
	cfg     Config

	mu       sync.Mutex
	sessions map[snowflake.ID]*Session
}

func NewService(p Params) (*Service, error) {
	if p.DB == nil || p.Log == nil || p.GenID == nil || p.Repo == nil || p.Gateway == nil || p.Clock == nil {
		return nil, fmt.Errorf("checkout service: missing dependency")
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("checkout"),
		genID:    p.GenID,
		repo:     p.Repo,
		gateway:  p.Gateway,
		clock:    p.Clock,
		cfg:      p.Config.withDefaults(),
		sessions: make(map[snowflake.ID]*Session),
	}, nil
}

func (s *Service) StartSession(ctx context.Context, req domain.StartSessionRequest) (domain.SessionStatus, error) {
	if err := req.Validate(); err != nil {
		return domain.SessionStatus{}, err
	}

	now := s.clock.Now()
	deadline := now.Add(s.cfg.SessionTTL)
	attempt := &domain.PaymentAttempt{
		ID:            s.genID.Generate(),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		ModelName:     strings.TrimSpace(req.ModelName),
		PlanName:      strings.TrimSpace(req.PlanName),
		AmountCents:   req.AmountCents,
		Currency:      "BRL",
		Status:        domain.AttemptStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
		// Expiry is set up front so an attempt abandoned before the charge
		// exists still converges to expired via the scheduler.
		ExpiresAt: &deadline,
	}
	if err := s.repo.Insert(ctx, s.db, attempt); err != nil {
		return domain.SessionStatus{}, fmt.Errorf("insert attempt: %w", err)
	}

	charge, err := s.gateway.CreateCharge(ctx, domain.CreateChargeRequest{
		AmountCents:   attempt.AmountCents,
		CustomerName:  attempt.CustomerName,
		CustomerEmail: attempt.CustomerEmail,
		ProductTitle:  chargeTitle(attempt),
	})
	if err != nil {
		// The pending row stays behind; the recovery notifier will nudge the
		// customer, and the user can resubmit immediately.
		s.log.Warn("pix charge creation failed",
			zap.String("attempt_id", attempt.ID.String()),
			zap.Error(err),
		)
		return domain.SessionStatus{}, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	if err := s.repo.SetProviderRef(ctx, s.db, attempt.ID, charge.ID, deadline, now); err != nil {
		return domain.SessionStatus{}, fmt.Errorf("store provider ref: %w", err)
	}

	superCtx, cancel := context.WithCancel(context.Background())
	sess := newSession(attempt.ID, charge, deadline, cancel)

	s.mu.Lock()
	s.sessions[attempt.ID] = sess
	s.mu.Unlock()

	go s.supervise(superCtx, sess)

	s.log.Info("checkout session started",
		zap.String("attempt_id", attempt.ID.String()),
		zap.String("reference_id", charge.ID),
		zap.Int64("amount_cents", attempt.AmountCents),
	)
	return sess.Status(), nil
}

// supervise owns both session timers: the settlement poll loop and the
// wall-clock deadline. A terminal poll result and the deadline race through
// the same select, so whichever fires first wins and the other is torn down.
func (s *Service) supervise(ctx context.Context, sess *Session) {
	defer close(sess.done)
	// The attempt row is the durable record; once the supervisor stops, status
	// reads fall back to it, so the live entry can go.
	defer s.evict(sess)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(s.cfg.SessionTTL)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			s.expireSession(sess)
			return
		case <-ticker.C:
			if s.pollOnce(ctx, sess) {
				return
			}
		}
	}
}

// pollOnce asks the processor for the charge state. It reports true when the
// session resolved. Transport errors and unknown statuses leave the session
// untouched; the deadline bounds how long that can continue.
func (s *Service) pollOnce(ctx context.Context, sess *Session) bool {
	status, err := s.gateway.GetCharge(ctx, sess.referenceID)
	if err != nil {
		s.log.Debug("settlement poll failed",
			zap.String("reference_id", sess.referenceID),
			zap.Error(err),
		)
		return false
	}

	switch status {
	case domain.ChargeStatusApproved:
		s.settle(sess, domain.AttemptStatusApproved, domain.SessionStateSuccess, "")
		return true
	case domain.ChargeStatusRejected:
		s.settle(sess, domain.AttemptStatusRejected, domain.SessionStateError, domain.MessagePaymentRejected)
		return true
	default:
		return false
	}
}

func (s *Service) expireSession(sess *Session) {
	s.settle(sess, domain.AttemptStatusExpired, domain.SessionStateError, domain.MessageSessionExpired)
}

func (s *Service) settle(sess *Session, status domain.AttemptStatus, state domain.SessionState, message string) {
	if !sess.resolve(state, message) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	updated, err := s.repo.TransitionStatus(ctx, s.db, sess.attemptID, status, s.clock.Now())
	if err != nil {
		s.log.Error("attempt status update failed",
			zap.String("attempt_id", sess.attemptID.String()),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return
	}
	if !updated {
		s.log.Warn("attempt already terminal",
			zap.String("attempt_id", sess.attemptID.String()),
			zap.String("status", string(status)),
		)
		return
	}
	s.log.Info("checkout session settled",
		zap.String("attempt_id", sess.attemptID.String()),
		zap.String("status", string(status)),
	)
}

func (s *Service) SessionStatus(ctx context.Context, attemptID snowflake.ID) (domain.SessionStatus, error) {
	if sess, ok := s.session(attemptID); ok {
		return sess.Status(), nil
	}

	attempt, err := s.repo.FindByID(ctx, s.db, attemptID)
	if err != nil {
		return domain.SessionStatus{}, err
	}
	if attempt == nil {
		return domain.SessionStatus{}, domain.ErrNotFound
	}
	return attemptView(attempt), nil
}

func (s *Service) ResetSession(ctx context.Context, attemptID snowflake.ID) error {
	s.mu.Lock()
	sess, ok := s.sessions[attemptID]
	delete(s.sessions, attemptID)
	s.mu.Unlock()

	if ok {
		sess.Close()
		<-sess.Done()
		return nil
	}

	attempt, err := s.repo.FindByID(ctx, s.db, attemptID)
	if err != nil {
		return err
	}
	if attempt == nil {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *Service) OverrideStatus(ctx context.Context, attemptID snowflake.ID, to domain.AttemptStatus) (*domain.PaymentAttempt, error) {
	if !to.Terminal() {
		return nil, domain.ErrInvalidTransition
	}

	attempt, err := s.repo.FindByID(ctx, s.db, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, domain.ErrNotFound
	}

	updated, err := s.repo.TransitionStatus(ctx, s.db, attemptID, to, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, domain.ErrInvalidTransition
	}

	// A live session for this attempt follows the override.
	if sess, ok := s.session(attemptID); ok {
		switch to {
		case domain.AttemptStatusApproved:
			sess.resolve(domain.SessionStateSuccess, "")
		case domain.AttemptStatusRejected:
			sess.resolve(domain.SessionStateError, domain.MessagePaymentRejected)
		case domain.AttemptStatusExpired:
			sess.resolve(domain.SessionStateError, domain.MessageSessionExpired)
		}
		sess.cancel()
	}

	return s.repo.FindByID(ctx, s.db, attemptID)
}

func (s *Service) ListAttempts(ctx context.Context, filter domain.ListFilter) ([]domain.PaymentAttempt, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	return s.repo.List(ctx, s.db, filter)
}

// Shutdown tears down every live session; called from the fx stop hook.
func (s *Service) Shutdown() {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		sessions = append(sessions, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
		<-sess.Done()
	}
}

// evict removes the session from the live map if it is still the registered
// entry for its attempt.
func (s *Service) evict(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.sessions[sess.attemptID]; ok && current == sess {
		delete(s.sessions, sess.attemptID)
	}
}

func (s *Service) session(attemptID snowflake.ID) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[attemptID]
	return sess, ok
}

func attemptView(attempt *domain.PaymentAttempt) domain.SessionStatus {
	view := domain.SessionStatus{AttemptID: attempt.ID}
	if attempt.ProviderRef != nil {
		view.ReferenceID = *attempt.ProviderRef
	}
	if attempt.ExpiresAt != nil {
		view.ExpiresAt = *attempt.ExpiresAt
	}
	switch attempt.Status {
	case domain.AttemptStatusApproved:
		view.State = domain.SessionStateSuccess
	case domain.AttemptStatusRejected:
		view.State = domain.SessionStateError
		view.Message = domain.MessagePaymentRejected
	case domain.AttemptStatusExpired:
		view.State = domain.SessionStateError
		view.Message = domain.MessageSessionExpired
	default:
		view.State = domain.SessionStateWaiting
	}
	return view
}

func chargeTitle(attempt *domain.PaymentAttempt) string {
	if attempt.ModelName == "" {
		return attempt.PlanName
	}
	return attempt.ModelName + " - " + attempt.PlanName
}
