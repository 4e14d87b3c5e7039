package service

import (
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/privehub/privehub/internal/checkout/domain"
)

// Session is the live polling state for one checkout attempt. It exists only
// in memory; the attempt row is the durable record.
type Session struct {
	attemptID   snowflake.ID
	referenceID string
	copyPaste   string
	qrCode      string
	deadline    time.Time

	mu      sync.Mutex
	state   domain.SessionState
	message string

	cancel func()
	done   chan struct{}
}

func newSession(attemptID snowflake.ID, charge domain.Charge, deadline time.Time, cancel func()) *Session {
	return &Session{
		attemptID:   attemptID,
		referenceID: charge.ID,
		copyPaste:   charge.CopyPaste,
		qrCode:      charge.QRCode,
		deadline:    deadline,
		state:       domain.SessionStateWaiting,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
}

// Status returns a consistent snapshot of the session.
func (s *Session) Status() domain.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.SessionStatus{
		AttemptID:   s.attemptID,
		State:       s.state,
		Message:     s.message,
		ReferenceID: s.referenceID,
		CopyPaste:   s.copyPaste,
		QRCode:      s.qrCode,
		ExpiresAt:   s.deadline,
	}
}

// resolve applies the first terminal transition and reports whether it won.
// A late timer or poll tick that loses the race changes nothing.
func (s *Session) resolve(state domain.SessionState, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.SessionStateWaiting {
		return false
	}
	s.state = state
	s.message = message
	return true
}

// Close tears the supervisor down. Safe to call from any exit path, any
// number of times.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == domain.SessionStateWaiting {
		s.state = domain.SessionStateError
		s.message = ""
	}
	s.mu.Unlock()
	s.cancel()
}

// Done is closed once the supervisor has stopped; after that no poll call or
// timer can fire for this session.
func (s *Session) Done() <-chan struct{} {
	return s.done
}
