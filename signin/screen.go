package signin

// ScreenKind tells the rendering layer which view to show.
type ScreenKind string

const (
	ScreenLoading            ScreenKind = "loading"
	ScreenAlternativeMethods ScreenKind = "alternative_methods"
	ScreenPhoneCode          ScreenKind = "phone_code"
	ScreenTOTP               ScreenKind = "totp"
	ScreenBackupCode         ScreenKind = "backup_code"
	// ScreenFallback is shown for strategies this client does not support.
	ScreenFallback ScreenKind = "fallback"
)

// Screen is the display routing for the current state.
type Screen struct {
	Kind            ScreenKind
	Factor          SecondFactor
	AlreadyPrepared bool
	Alternatives    []SecondFactor
}

type screenKindVisitor struct{}

func (screenKindVisitor) PhoneCode(PhoneCodeFactor) ScreenKind   { return ScreenPhoneCode }
func (screenKindVisitor) TOTP(TOTPFactor) ScreenKind             { return ScreenTOTP }
func (screenKindVisitor) BackupCode(BackupCodeFactor) ScreenKind { return ScreenBackupCode }
func (screenKindVisitor) Unknown(UnknownFactor) ScreenKind       { return ScreenFallback }

// Screen routes the current state to a view. Unknown strategies route to
// ScreenFallback.
func (s *ChallengeSession) Screen() Screen {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.stateLocked() {
	case StateLoading:
		return Screen{Kind: ScreenLoading}
	case StateSelectingStrategy:
		return Screen{
			Kind:         ScreenAlternativeMethods,
			Factor:       s.current,
			Alternatives: s.alternativesLocked(),
		}
	}

	return Screen{
		Kind:            Visit[ScreenKind](s.current, screenKindVisitor{}),
		Factor:          s.current,
		AlreadyPrepared: s.preparedLocked(),
	}
}

// alternativesLocked lists offered factors other than the current one.
func (s *ChallengeSession) alternativesLocked() []SecondFactor {
	out := make([]SecondFactor, 0, len(s.factors))
	for _, f := range s.factors {
		if !SameFactor(f, s.current) {
			out = append(out, f)
		}
	}
	return out
}
