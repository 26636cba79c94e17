package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/goliatone/go-auth-state/resource"
)

// Logger is the structured logger used across the package.
// Arguments after the message are key/value pairs; *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// TokenVerifier checks a session token signature, issuer and expiry and
// returns the verified claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*SessionClaims, error)
}

// Backend looks up full entity records for identifiers established during
// resolution.
type Backend interface {
	GetUser(ctx context.Context, userID string) (*resource.User, error)
	GetSession(ctx context.Context, sessionID string) (*resource.Session, error)
}

// Config holds resolver options
type Config interface {
	GetIssuer() string
	GetAudience() []string
	GetAuthorizedParties() []string
	GetVerifyTimeout() time.Duration
	GetClockSkew() time.Duration
	GetTimeoutStatus() string
	GetHydrationTimeout() time.Duration
}

func defLogger() Logger {
	return slog.Default().With("component", "auth")
}
