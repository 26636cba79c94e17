package signin

// StartingFactorFunc picks the factor a session opens with. Returning nil
// opens the session on strategy selection.
type StartingFactorFunc func(factors []SecondFactor) SecondFactor

// DetermineStartingFactor picks the preferred strategy when offered, then
// totp, then the default phone number, then any phone number, then the first
// supported factor. Unknown strategies are never picked; nil is returned when
// nothing else is offered.
func DetermineStartingFactor(factors []SecondFactor, preferred Strategy) SecondFactor {
	if len(factors) == 0 {
		return nil
	}

	if preferred != "" {
		if f := findStrategy(factors, preferred); f != nil {
			return f
		}
	}

	if f := findStrategy(factors, StrategyTOTP); f != nil {
		return f
	}

	if f := findStrategy(factors, StrategyPhoneCode); f != nil {
		return f
	}

	for _, f := range factors {
		if supported(f) {
			return f
		}
	}
	return nil
}

// PreferStrategy returns a StartingFactorFunc that favors strategy, usually
// the one the user last succeeded with.
func PreferStrategy(strategy Strategy) StartingFactorFunc {
	return func(factors []SecondFactor) SecondFactor {
		return DetermineStartingFactor(factors, strategy)
	}
}

// findStrategy returns the first factor for strategy, favoring the default
// phone number for phone codes.
func findStrategy(factors []SecondFactor, strategy Strategy) SecondFactor {
	var first SecondFactor
	for _, f := range factors {
		if !supported(f) || f.Strategy() != strategy {
			continue
		}
		if p, ok := f.(PhoneCodeFactor); ok && p.Default {
			return p
		}
		if first == nil {
			first = f
		}
	}
	return first
}

func supported(f SecondFactor) bool {
	if f == nil {
		return false
	}
	_, unknown := f.(UnknownFactor)
	return !unknown
}
