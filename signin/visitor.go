package signin

// FactorVisitor handles every SecondFactor variant. Adding a variant adds a
// method here, so every visitor stops compiling until it handles it.
type FactorVisitor[T any] interface {
	PhoneCode(PhoneCodeFactor) T
	TOTP(TOTPFactor) T
	BackupCode(BackupCodeFactor) T
	Unknown(UnknownFactor) T
}

// Visit dispatches f to the matching visitor method. A nil factor is
// reported as an empty UnknownFactor.
func Visit[T any](f SecondFactor, v FactorVisitor[T]) T {
	switch factor := f.(type) {
	case PhoneCodeFactor:
		return v.PhoneCode(factor)
	case TOTPFactor:
		return v.TOTP(factor)
	case BackupCodeFactor:
		return v.BackupCode(factor)
	case UnknownFactor:
		return v.Unknown(factor)
	default:
		return v.Unknown(UnknownFactor{})
	}
}
