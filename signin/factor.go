// Package signin drives the second factor step of a sign in attempt.
//
// A ChallengeSession tracks the factors offered by the server, the factor the
// user is currently working on and whether a challenge (an SMS code for
// example) was already dispatched for it. Every mutation is atomic and
// callers observe the session through immutable snapshots.
package signin

// Strategy names a second factor strategy as reported by the server.
type Strategy string

const (
	StrategyPhoneCode  Strategy = "phone_code"
	StrategyTOTP       Strategy = "totp"
	StrategyBackupCode Strategy = "backup_code"
)

// SecondFactor is a closed set of factor variants. Strategies the client
// does not know about are carried as UnknownFactor.
type SecondFactor interface {
	Strategy() Strategy
	isSecondFactor()
}

// PhoneCodeFactor sends a one time code to a phone number.
type PhoneCodeFactor struct {
	PhoneNumberID  string
	SafeIdentifier string
	Default        bool
}

func (PhoneCodeFactor) Strategy() Strategy { return StrategyPhoneCode }
func (PhoneCodeFactor) isSecondFactor()    {}

// TOTPFactor verifies a code from an authenticator app.
type TOTPFactor struct{}

func (TOTPFactor) Strategy() Strategy { return StrategyTOTP }
func (TOTPFactor) isSecondFactor()    {}

// BackupCodeFactor verifies a single use recovery code.
type BackupCodeFactor struct{}

func (BackupCodeFactor) Strategy() Strategy { return StrategyBackupCode }
func (BackupCodeFactor) isSecondFactor()    {}

// UnknownFactor keeps a strategy this client cannot handle. Raw holds the
// original descriptor.
type UnknownFactor struct {
	Name string
	Raw  string
}

func (f UnknownFactor) Strategy() Strategy { return Strategy(f.Name) }
func (UnknownFactor) isSecondFactor()      {}

// Key identifies a factor for "same factor" checks: the strategy, plus
// ":" and the phone number id for phone codes. Nil factors have an empty key.
func Key(f SecondFactor) string {
	if f == nil {
		return ""
	}
	key := string(f.Strategy())
	if p, ok := f.(PhoneCodeFactor); ok {
		key += ":" + p.PhoneNumberID
	}
	return key
}

// SameFactor compares factors by Key.
func SameFactor(a, b SecondFactor) bool {
	if a == nil || b == nil {
		return false
	}
	return Key(a) == Key(b)
}

// NeedsPreparation reports whether a challenge must be dispatched before the
// user can enter a code.
func NeedsPreparation(f SecondFactor) bool {
	_, ok := f.(PhoneCodeFactor)
	return ok
}
