package signin

import goerrors "github.com/goliatone/go-errors"

const (
	textCodeInvalidTransition = "INVALID_CHALLENGE_TRANSITION"
	textCodeFactorNotCurrent  = "FACTOR_NOT_CURRENT"
	textCodeFactorUnavailable = "FACTOR_UNAVAILABLE"
	textCodeNoCurrentFactor   = "NO_CURRENT_FACTOR"
	textCodeChallengeNotFound = "CHALLENGE_NOT_FOUND"
	textCodeStrategyMismatch  = "STRATEGY_MISMATCH"
)

// ErrInvalidTransition is returned when an operation is not allowed in the
// session's current state.
var ErrInvalidTransition = goerrors.New("invalid challenge transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// ErrFactorNotCurrent is returned by MarkPrepared for a factor other than the current one.
var ErrFactorNotCurrent = goerrors.New("factor is not the current factor", goerrors.CategoryConflict).
	WithTextCode(textCodeFactorNotCurrent).
	WithCode(goerrors.CodeConflict)

// ErrFactorUnavailable is returned when selecting a factor the server did not offer.
var ErrFactorUnavailable = goerrors.New("factor is not available for this sign in", goerrors.CategoryBadInput).
	WithTextCode(textCodeFactorUnavailable).
	WithCode(goerrors.CodeBadRequest)

// ErrNoCurrentFactor is returned when leaving strategy selection without a factor to return to.
var ErrNoCurrentFactor = goerrors.New("no factor selected", goerrors.CategoryValidation).
	WithTextCode(textCodeNoCurrentFactor).
	WithCode(goerrors.CodeBadRequest)

// ErrChallengeNotFound is returned by stores for unknown or expired sessions.
var ErrChallengeNotFound = goerrors.New("challenge session not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeChallengeNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrStrategyMismatch is returned by attempters asked to verify a factor they do not handle.
var ErrStrategyMismatch = goerrors.New("attempter does not handle this strategy", goerrors.CategoryBadInput).
	WithTextCode(textCodeStrategyMismatch).
	WithCode(goerrors.CodeBadRequest)
