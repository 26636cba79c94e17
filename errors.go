package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeTokenExpired             = "TOKEN_EXPIRED"
	TextCodeTokenMalformed           = "TOKEN_MALFORMED"
	TextCodeTokenTemplateUnsupported = "TOKEN_TEMPLATE_UNSUPPORTED"
	TextCodeVerificationAmbiguous    = "VERIFICATION_AMBIGUOUS"
	TextCodeVerifierMissing          = "VERIFIER_MISSING"
)

// ErrTokenExpired is returned by verifiers when the session token is past its exp claim.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers tokens that fail to parse, carry a bad signature or
// unexpected issuer/audience.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenTemplateUnsupported is returned by AuthData.GetToken when a named
// template is requested during server side resolution.
var ErrTokenTemplateUnsupported = errors.New("retrieving a token template during server side resolution is not supported", errors.CategoryBadInput).
	WithTextCode(TextCodeTokenTemplateUnsupported).
	WithCode(errors.CodeBadRequest)

// ErrVerificationAmbiguous lets a verifier signal that it cannot decide
// synchronously, the resolver maps it to the interstitial state.
var ErrVerificationAmbiguous = errors.New("token verification cannot be completed synchronously", errors.CategoryAuth).
	WithTextCode(TextCodeVerificationAmbiguous).
	WithCode(errors.CodeUnauthorized)

// ErrVerifierMissing is returned when a resolver is built without a verifier.
var ErrVerifierMissing = errors.New("token verifier is required", errors.CategoryInternal).
	WithTextCode(TextCodeVerifierMissing).
	WithCode(errors.CodeInternal)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsVerificationAmbiguous reports whether err carries ErrVerificationAmbiguous.
func IsVerificationAmbiguous(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	return errors.As(err, &richErr) && richErr.TextCode == TextCodeVerificationAmbiguous
}
