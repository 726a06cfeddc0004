package session

import (
	"sync"
	"time"
)

// SafetyMargin is the lead time before real expiry at which automatic
// sign-out fires, so an in-flight request never carries a dead credential.
const SafetyMargin = 60 * time.Second

// ExpirationScheduler owns at most one pending sign-out slot. Arming always
// cancels the previous slot first; both happen inside one call, so no
// two-live-timers window is observable from outside.
type ExpirationScheduler struct {
	mu         sync.Mutex
	timer      *time.Timer
	deadline   time.Time
	armed      bool
	generation uint64
	now        func() time.Time
	margin     time.Duration
	onExpire   func()
	logger     Logger
}

// NewExpirationScheduler returns a scheduler that invokes onExpire when a
// slot fires.
func NewExpirationScheduler(onExpire func()) *ExpirationScheduler {
	return &ExpirationScheduler{
		now:      time.Now,
		margin:   SafetyMargin,
		onExpire: onExpire,
		logger:   defLogger{},
	}
}

// WithClock injects a custom clock (useful for tests).
func (s *ExpirationScheduler) WithClock(clock func() time.Time) *ExpirationScheduler {
	if clock != nil {
		s.now = clock
	}
	return s
}

// WithSafetyMargin overrides the default sign-out lead time.
func (s *ExpirationScheduler) WithSafetyMargin(margin time.Duration) *ExpirationScheduler {
	if margin > 0 {
		s.margin = margin
	}
	return s
}

func (s *ExpirationScheduler) WithLogger(logger Logger) *ExpirationScheduler {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Arm schedules forced sign-out a safety margin ahead of the credential's
// expiry. A credential with no expiry arms nothing. A credential already
// inside the margin fires the sign-out path synchronously; eager expiration
// is a normal outcome of slow hydration, not an error.
func (s *ExpirationScheduler) Arm(cred Credential) {
	exp, ok := cred.ExpiryInstant()

	s.mu.Lock()
	s.cancelLocked()

	if !ok {
		s.mu.Unlock()
		s.logger.Debug("scheduler: credential carries no expiry, nothing to arm")
		return
	}

	delay := exp.Sub(s.now()) - s.margin
	if delay <= 0 {
		s.mu.Unlock()
		s.logger.Info("scheduler: credential already within expiry margin, forcing sign-out")
		s.fire()
		return
	}

	generation := s.generation
	s.deadline = exp.Add(-s.margin)
	s.armed = true
	s.timer = time.AfterFunc(delay, func() {
		s.expire(generation)
	})
	s.mu.Unlock()
}

// Cancel stops any pending slot. Idempotent, safe with nothing armed.
func (s *ExpirationScheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

// Deadline reports the instant the pending slot fires, if one is armed.
func (s *ExpirationScheduler) Deadline() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deadline, s.armed
}

func (s *ExpirationScheduler) cancelLocked() {
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.armed = false
	s.deadline = time.Time{}
}

// expire runs on the timer goroutine. The generation check makes a slot
// cancelled after its timer fired but before this ran a no-op.
func (s *ExpirationScheduler) expire(generation uint64) {
	s.mu.Lock()
	if generation != s.generation {
		s.mu.Unlock()
		return
	}
	s.armed = false
	s.timer = nil
	s.deadline = time.Time{}
	s.mu.Unlock()

	s.fire()
}

// fire runs outside the scheduler lock so the sign-out path may re-enter
// Cancel.
func (s *ExpirationScheduler) fire() {
	if s.onExpire != nil {
		s.onExpire()
	}
}
