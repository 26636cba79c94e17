package auth

import (
	"context"

	"github.com/goliatone/go-router"
)

// DefaultLocalsKey is where middleware stores the AuthResult on router contexts.
const DefaultLocalsKey = "auth"

var resultCtxKey = &contextKey{"auth_result"}

type contextKey struct {
	name string
}

// WithAuthResult stores the AuthResult in the given context
func WithAuthResult(ctx context.Context, result *AuthResult) context.Context {
	return context.WithValue(ctx, resultCtxKey, result)
}

// FromContext finds the AuthResult in the context.
func FromContext(ctx context.Context) (*AuthResult, bool) {
	if ctx == nil {
		return nil, false
	}
	raw, ok := ctx.Value(resultCtxKey).(*AuthResult)
	return raw, ok && raw != nil
}

// AuthDataFromContext returns the resolved AuthData, nil for interstitials.
func AuthDataFromContext(ctx context.Context) (*AuthData, bool) {
	result, ok := FromContext(ctx)
	if !ok || result.Data == nil {
		return nil, false
	}
	return result.Data, true
}

// GetRouterAuth extracts the AuthResult from the router context
func GetRouterAuth(ctx router.Context, key string) (*AuthResult, bool) {
	if key == "" {
		key = DefaultLocalsKey
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return FromContext(ctx.Context())
	}
	result, ok := raw.(*AuthResult)
	return result, ok
}
