package signin

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the derived position of a ChallengeSession.
type State string

const (
	StateLoading              State = "loading"
	StateSelectingStrategy    State = "selecting_strategy"
	StateAwaitingVerification State = "awaiting_verification"
)

const defaultMaxAttempts = 3

// ChallengeSession is the mutable second factor state of one sign in
// attempt. It is safe for concurrent use.
type ChallengeSession struct {
	mu sync.Mutex

	id              string
	factors         []SecondFactor
	current         SecondFactor
	lastPreparedKey string
	showingAll      bool
	started         bool
	attempts        int
	maxAttempts     int
	createdAt       time.Time

	hook EventHook
	now  func() time.Time
}

// Option customizes a ChallengeSession.
type Option func(*ChallengeSession)

// WithID sets the session id. A random UUID is used otherwise.
func WithID(id string) Option {
	return func(s *ChallengeSession) {
		if id != "" {
			s.id = id
		}
	}
}

// WithMaxAttempts sets how many rejected codes send the user back to
// strategy selection. Zero disables the limit.
func WithMaxAttempts(n int) Option {
	return func(s *ChallengeSession) {
		if n >= 0 {
			s.maxAttempts = n
		}
	}
}

// WithEventHook registers a transition observer.
func WithEventHook(hook EventHook) Option {
	return func(s *ChallengeSession) {
		s.hook = hook
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(s *ChallengeSession) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewChallengeSession creates a session in the loading state for the
// factors offered by the server. The list is copied and never changes.
func NewChallengeSession(factors []SecondFactor, opts ...Option) *ChallengeSession {
	s := &ChallengeSession{
		factors:     compactFactors(factors),
		maxAttempts: defaultMaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	s.createdAt = s.now()
	return s
}

// ID returns the session id.
func (s *ChallengeSession) ID() string {
	return s.id
}

// Start leaves the loading state. pick chooses the opening factor; nil uses
// DetermineStartingFactor without a preference. When no factor is chosen
// the session opens on strategy selection.
func (s *ChallengeSession) Start(pick StartingFactorFunc) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrInvalidTransition.Clone().WithMetadata(map[string]any{
			"operation": "start",
			"state":     string(s.stateLocked()),
		})
	}

	var f SecondFactor
	if pick != nil {
		f = pick(slices.Clone(s.factors))
	} else {
		f = DetermineStartingFactor(s.factors, "")
	}
	if f != nil && !s.offersLocked(f) {
		f = nil
	}

	s.started = true
	s.current = f
	s.showingAll = f == nil
	ev := s.eventLocked(EventStarted)
	s.mu.Unlock()

	s.emit(ev)
	return nil
}

// SelectFactor makes f the current factor and moves to awaiting
// verification. f must be one of the offered factors.
func (s *ChallengeSession) SelectFactor(f SecondFactor) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrInvalidTransition.Clone().WithMetadata(map[string]any{
			"operation": "select_factor",
			"state":     string(StateLoading),
		})
	}
	if f == nil || !s.offersLocked(f) {
		s.mu.Unlock()
		return ErrFactorUnavailable.Clone().WithMetadata(map[string]any{
			"factor_key": Key(f),
		})
	}

	if !SameFactor(s.current, f) {
		s.attempts = 0
	}
	s.current = f
	s.showingAll = false
	ev := s.eventLocked(EventFactorSelected)
	s.mu.Unlock()

	s.emit(ev)
	return nil
}

// ToggleAllStrategies flips between the current factor and the list of
// alternatives. The current factor is kept while the list is shown.
func (s *ChallengeSession) ToggleAllStrategies() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrInvalidTransition.Clone().WithMetadata(map[string]any{
			"operation": "toggle_all_strategies",
			"state":     string(StateLoading),
		})
	}
	if s.showingAll && s.current == nil {
		s.mu.Unlock()
		return ErrNoCurrentFactor
	}

	s.showingAll = !s.showingAll
	ev := s.eventLocked(EventStrategiesToggled)
	s.mu.Unlock()

	s.emit(ev)
	return nil
}

// MarkPrepared records that a challenge was dispatched for f, which must be
// the current factor.
func (s *ChallengeSession) MarkPrepared(f SecondFactor) error {
	s.mu.Lock()
	if !SameFactor(s.current, f) {
		s.mu.Unlock()
		return ErrFactorNotCurrent.Clone().WithMetadata(map[string]any{
			"factor_key":  Key(f),
			"current_key": Key(s.current),
		})
	}

	s.lastPreparedKey = Key(f)
	ev := s.eventLocked(EventPrepared)
	s.mu.Unlock()

	s.emit(ev)
	return nil
}

// FactorAlreadyPrepared reports whether the current factor is the one a
// challenge was last dispatched for.
func (s *ChallengeSession) FactorAlreadyPrepared() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preparedLocked()
}

// State returns the derived state.
func (s *ChallengeSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// CurrentFactor returns the current factor, nil when none was chosen.
func (s *ChallengeSession) CurrentFactor() SecondFactor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// ShowingAllStrategies reports whether the alternatives list is shown.
func (s *ChallengeSession) ShowingAllStrategies() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showingAll
}

// AvailableFactors returns a copy of the offered factors.
func (s *ChallengeSession) AvailableFactors() []SecondFactor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.factors)
}

func (s *ChallengeSession) stateLocked() State {
	switch {
	case !s.started:
		return StateLoading
	case s.showingAll:
		return StateSelectingStrategy
	default:
		return StateAwaitingVerification
	}
}

func (s *ChallengeSession) preparedLocked() bool {
	return s.current != nil && s.lastPreparedKey != "" && Key(s.current) == s.lastPreparedKey
}

func (s *ChallengeSession) offersLocked(f SecondFactor) bool {
	key := Key(f)
	for _, candidate := range s.factors {
		if Key(candidate) == key {
			return true
		}
	}
	return false
}

func (s *ChallengeSession) eventLocked(t EventType) Event {
	ev := Event{
		Type:        t,
		ChallengeID: s.id,
		State:       s.stateLocked(),
		Attempts:    s.attempts,
		OccurredAt:  s.now(),
	}
	if s.current != nil {
		ev.Strategy = s.current.Strategy()
		ev.FactorKey = Key(s.current)
	}
	return ev
}

func (s *ChallengeSession) emit(ev Event) {
	if s.hook != nil {
		s.hook(ev)
	}
}

func compactFactors(factors []SecondFactor) []SecondFactor {
	out := make([]SecondFactor, 0, len(factors))
	for _, f := range factors {
		if f != nil {
			out = append(out, f)
		}
	}
	return out
}
