package resource

import (
	"time"

	"github.com/goliatone/go-auth-state/signin"
)

// SignInStatus mirrors the hosted sign in lifecycle.
type SignInStatus string

const (
	SignInStatusNeedsIdentifier   SignInStatus = "needs_identifier"
	SignInStatusNeedsFirstFactor  SignInStatus = "needs_first_factor"
	SignInStatusNeedsSecondFactor SignInStatus = "needs_second_factor"
	SignInStatusNeedsNewPassword  SignInStatus = "needs_new_password"
	SignInStatusComplete          SignInStatus = "complete"
	SignInStatusAbandoned         SignInStatus = "abandoned"
)

// SignIn is an in progress sign in attempt.
type SignIn struct {
	ID                     string                `json:"id"`
	Status                 SignInStatus          `json:"status"`
	Identifier             *string               `json:"identifier,omitempty"`
	SupportedSecondFactors []signin.SecondFactor `json:"-"`
	SecondFactorStrategy   *string               `json:"second_factor_strategy,omitempty"`
	CreatedSessionID       *string               `json:"created_session_id,omitempty"`
	AbandonAt              *time.Time            `json:"abandon_at,omitempty"`
	CreatedAt              *time.Time            `json:"created_at"`
	UpdatedAt              *time.Time            `json:"updated_at"`
}

// NeedsSecondFactor reports whether a ChallengeSession should be opened.
func (s *SignIn) NeedsSecondFactor() bool {
	return s != nil && s.Status == SignInStatusNeedsSecondFactor
}

// NewChallengeSession opens a challenge for the supported second factors.
// The sign in id becomes the session id.
func (s *SignIn) NewChallengeSession(opts ...signin.Option) *signin.ChallengeSession {
	opts = append([]signin.Option{signin.WithID(s.ID)}, opts...)
	return signin.NewChallengeSession(s.SupportedSecondFactors, opts...)
}

// ParseSignIn projects a sign in payload.
func ParseSignIn(data []byte) (*SignIn, error) {
	res, err := parseObject(data, "sign_in")
	if err != nil {
		return nil, err
	}

	return &SignIn{
		ID:                     res.Get("id").String(),
		Status:                 SignInStatus(res.Get("status").String()),
		Identifier:             optionalString(res.Get("identifier")),
		SupportedSecondFactors: projectFactors(res.Get("supported_second_factors")),
		SecondFactorStrategy:   optionalString(res.Get("second_factor_verification.strategy")),
		CreatedSessionID:       optionalString(res.Get("created_session_id")),
		AbandonAt:              unixEpochToTime(res.Get("abandon_at")),
		CreatedAt:              unixEpochToTime(res.Get("created_at")),
		UpdatedAt:              unixEpochToTime(res.Get("updated_at")),
	}, nil
}
