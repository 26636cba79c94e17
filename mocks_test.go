package auth_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	auth "github.com/goliatone/go-auth-state"
	"github.com/goliatone/go-auth-state/resource"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("test-signing-key-with-enough-entropy")

// MockBackend implements auth.Backend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) GetUser(ctx context.Context, id string) (*resource.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*resource.User)
	return user, args.Error(1)
}

func (m *MockBackend) GetSession(ctx context.Context, id string) (*resource.Session, error) {
	args := m.Called(ctx, id)
	session, _ := args.Get(0).(*resource.Session)
	return session, args.Error(1)
}

// fakeReader implements auth.RequestReader
type fakeReader struct {
	headers map[string]string
	cookies map[string]string
}

func (f fakeReader) Header(key string) string {
	return f.headers[http.CanonicalHeaderKey(key)]
}

func (f fakeReader) Cookies(key string, defaultValue ...string) string {
	if v, ok := f.cookies[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func sessionClaims(sub, sid string, issuedAt, expiresAt time.Time) *auth.SessionClaims {
	return &auth.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    "https://clerk.example.com",
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		SID: sid,
	}
}

func signHS256(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testSigningKey)
	require.NoError(t, err)
	return signed
}

func validToken(t *testing.T, sub, sid string) string {
	t.Helper()
	now := time.Now()
	return signHS256(t, sessionClaims(sub, sid, now.Add(-time.Minute), now.Add(time.Hour)))
}

func expiredToken(t *testing.T, sub, sid string) string {
	t.Helper()
	now := time.Now()
	return signHS256(t, sessionClaims(sub, sid, now.Add(-2*time.Hour), now.Add(-time.Hour)))
}

func newTestResolver(t *testing.T, opts ...auth.ResolverOption) *auth.Resolver {
	t.Helper()
	r, err := auth.NewResolver(auth.NewHMACVerifier(testSigningKey), opts...)
	require.NoError(t, err)
	return r
}
