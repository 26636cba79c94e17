// Package authstate resolves the auth state of every request and stores it
// where handlers can read it. Adapters exist for net/http, go-router and
// fiber.
package authstate

import (
	"context"
	"net/http"

	auth "github.com/goliatone/go-auth-state"
	"github.com/goliatone/go-print"
)

const (
	HeaderAuthStatus = "X-Auth-Status"
	HeaderAuthReason = "X-Auth-Reason"
)

// DefaultInterstitialBody is served when a request needs a client side
// refresh before it can be classified.
const DefaultInterstitialBody = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Loading</title></head>
<body data-auth-status="interstitial"><script>window.location.reload()</script></body>
</html>`

// Config drives the middleware.
type Config struct {
	// Resolver is required.
	Resolver *auth.Resolver
	// Skip bypasses resolution for matching paths.
	Skip func(path string) bool

	LoadUser    bool
	LoadSession bool

	// ContextKey is the router/fiber locals key, auth.DefaultLocalsKey by default.
	ContextKey string

	// RequireSignedIn rejects anything but signed in requests with 401.
	RequireSignedIn bool

	InterstitialBody string
	Logger           auth.Logger
}

// GetDefaultConfig fills the zero values of config.
func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Resolver == nil {
		panic("AUTH: authstate middleware configuration: Resolver is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = auth.DefaultLocalsKey
	}

	if cfg.InterstitialBody == "" {
		cfg.InterstitialBody = DefaultInterstitialBody
	}

	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}

	return cfg
}

func (cfg Config) skip(path string) bool {
	return cfg.Skip != nil && cfg.Skip(path)
}

func (cfg Config) resolve(ctx context.Context, bundle *auth.CredentialBundle) *auth.AuthResult {
	var opts []auth.ResolveOption
	if cfg.LoadUser {
		opts = append(opts, auth.WithLoadUser())
	}
	if cfg.LoadSession {
		opts = append(opts, auth.WithLoadSession())
	}

	result := cfg.Resolver.Resolve(ctx, bundle, opts...)

	if errs := result.Hydration.Errors(); len(errs) > 0 {
		details := make(map[string]string, len(errs))
		for field, err := range errs {
			details[field] = err.Error()
		}
		cfg.Logger.Warn("auth hydration incomplete", "details", print.MaybePrettyJSON(details))
	}

	return result
}

// outcome is what the adapters write back when the request stops here.
type outcome struct {
	status int
	body   string
	html   bool
}

func (cfg Config) decide(result *auth.AuthResult) (outcome, bool) {
	switch {
	case result.ShowInterstitial:
		return outcome{status: http.StatusUnauthorized, body: cfg.InterstitialBody, html: true}, true
	case cfg.RequireSignedIn && !result.State.IsSignedIn():
		return outcome{status: http.StatusUnauthorized, body: http.StatusText(http.StatusUnauthorized)}, true
	default:
		return outcome{}, false
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
