package auth_test

import (
	"errors"
	"fmt"
	"testing"

	auth "github.com/goliatone/go-auth-state"
	"github.com/stretchr/testify/assert"
)

func TestErrorHelpers(t *testing.T) {
	assert.True(t, auth.IsTokenExpiredError(auth.ErrTokenExpired))
	assert.True(t, auth.IsTokenExpiredError(fmt.Errorf("verify: %w", auth.ErrTokenExpired.Clone())))
	assert.False(t, auth.IsTokenExpiredError(auth.ErrTokenMalformed))
	assert.False(t, auth.IsTokenExpiredError(nil))

	assert.True(t, auth.IsMalformedError(auth.ErrTokenMalformed))
	assert.True(t, auth.IsMalformedError(errors.New("token is malformed: bad segment")))
	assert.False(t, auth.IsMalformedError(nil))

	assert.True(t, auth.IsVerificationAmbiguous(auth.ErrVerificationAmbiguous))
	assert.False(t, auth.IsVerificationAmbiguous(errors.New("ambiguous")))
}

func TestErrorCodes(t *testing.T) {
	assert.Equal(t, auth.TextCodeTokenExpired, auth.ErrTokenExpired.TextCode)
	assert.Equal(t, 401, auth.ErrTokenExpired.Code)
	assert.Equal(t, 400, auth.ErrTokenTemplateUnsupported.Code)
}
