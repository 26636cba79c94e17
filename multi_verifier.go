package auth

import "context"

// VerifierFunc adapts a function into a TokenVerifier.
type VerifierFunc func(ctx context.Context, token string) (*SessionClaims, error)

// Verify satisfies the TokenVerifier interface.
func (f VerifierFunc) Verify(ctx context.Context, token string) (*SessionClaims, error) {
	if f == nil {
		return nil, ErrVerifierMissing
	}
	return f(ctx, token)
}

// MultiVerifier tries verifiers in order until one succeeds.
// It treats ErrTokenMalformed as "try next" and returns the last malformed
// error if all verifiers fail.
type MultiVerifier struct {
	verifiers []TokenVerifier
}

// NewMultiVerifier filters nil verifiers and returns a composite verifier.
func NewMultiVerifier(verifiers ...TokenVerifier) *MultiVerifier {
	filtered := make([]TokenVerifier, 0, len(verifiers))
	for _, v := range verifiers {
		if v != nil {
			filtered = append(filtered, v)
		}
	}
	return &MultiVerifier{verifiers: filtered}
}

// Verify satisfies the TokenVerifier interface.
func (m *MultiVerifier) Verify(ctx context.Context, token string) (*SessionClaims, error) {
	var lastErr error
	for _, v := range m.verifiers {
		claims, err := v.Verify(ctx, token)
		if err == nil {
			return claims, nil
		}
		if IsMalformedError(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrTokenMalformed
}
