package signin

import "context"

// Preparer dispatches a challenge for a factor, e.g. sends an SMS code.
type Preparer interface {
	PrepareSecondFactor(ctx context.Context, f SecondFactor) error
}

// PreparerFunc adapts a function to the Preparer interface.
type PreparerFunc func(ctx context.Context, f SecondFactor) error

// PrepareSecondFactor implements Preparer.
func (fn PreparerFunc) PrepareSecondFactor(ctx context.Context, f SecondFactor) error {
	return fn(ctx, f)
}

// Attempter checks a code for a factor. A wrong code is reported as
// (false, nil); errors are reserved for failures to check at all.
type Attempter interface {
	AttemptSecondFactor(ctx context.Context, f SecondFactor, code string) (bool, error)
}

// AttempterFunc adapts a function to the Attempter interface.
type AttempterFunc func(ctx context.Context, f SecondFactor, code string) (bool, error)

// AttemptSecondFactor implements Attempter.
func (fn AttempterFunc) AttemptSecondFactor(ctx context.Context, f SecondFactor, code string) (bool, error) {
	return fn(ctx, f, code)
}

// AttemptResult classifies a code attempt.
type AttemptResult string

const (
	AttemptVerified AttemptResult = "verified"
	AttemptRejected AttemptResult = "rejected"
	// AttemptExhausted means the attempt limit was hit and the session went
	// back to strategy selection.
	AttemptExhausted AttemptResult = "exhausted"
)

// Prepare dispatches a challenge for the current factor unless one was
// already dispatched for it or the strategy needs none. force re-sends.
// It reports whether the preparer was called.
func (s *ChallengeSession) Prepare(ctx context.Context, p Preparer, force bool) (bool, error) {
	s.mu.Lock()
	if s.stateLocked() != StateAwaitingVerification {
		state := s.stateLocked()
		s.mu.Unlock()
		return false, ErrInvalidTransition.Clone().WithMetadata(map[string]any{
			"operation": "prepare",
			"state":     string(state),
		})
	}
	f := s.current
	skip := !NeedsPreparation(f) || (!force && s.preparedLocked())
	s.mu.Unlock()

	if skip {
		return false, nil
	}

	if err := p.PrepareSecondFactor(ctx, f); err != nil {
		return false, err
	}

	// the user may have switched factors while the challenge was in flight
	if err := s.MarkPrepared(f); err != nil {
		return true, err
	}
	return true, nil
}

// Attempt checks code against the current factor. Rejections count toward
// the attempt limit; hitting it clears the prepared marker and shows the
// alternatives so the user can pick another factor or re-send a code.
// Retrying is left to the caller.
func (s *ChallengeSession) Attempt(ctx context.Context, a Attempter, code string) (AttemptResult, error) {
	s.mu.Lock()
	if s.stateLocked() != StateAwaitingVerification {
		state := s.stateLocked()
		s.mu.Unlock()
		return "", ErrInvalidTransition.Clone().WithMetadata(map[string]any{
			"operation": "attempt",
			"state":     string(state),
		})
	}
	f := s.current
	s.mu.Unlock()

	ok, err := a.AttemptSecondFactor(ctx, f, code)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if !SameFactor(s.current, f) {
		s.mu.Unlock()
		return "", ErrFactorNotCurrent.Clone().WithMetadata(map[string]any{
			"factor_key":  Key(f),
			"current_key": Key(s.current),
		})
	}

	var (
		result AttemptResult
		ev     Event
	)
	switch {
	case ok:
		result = AttemptVerified
		s.attempts = 0
		ev = s.eventLocked(EventVerified)
	default:
		s.attempts++
		if s.maxAttempts > 0 && s.attempts >= s.maxAttempts {
			ev = s.eventLocked(EventExhausted)
			result = AttemptExhausted
			s.attempts = 0
			s.lastPreparedKey = ""
			s.showingAll = true
		} else {
			result = AttemptRejected
			ev = s.eventLocked(EventRejected)
		}
	}
	s.mu.Unlock()

	s.emit(ev)
	return result, nil
}
