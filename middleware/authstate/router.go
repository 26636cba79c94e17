package authstate

import (
	auth "github.com/goliatone/go-auth-state"
	"github.com/goliatone/go-router"
)

// New returns go-router middleware. The result is stored under
// Config.ContextKey and in the request context.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.skip(ctx.Path()) {
				return hf(ctx)
			}

			result := cfg.resolve(ctx.Context(), auth.ExtractFromRouter(ctx))

			ctx.SetHeader(HeaderAuthStatus, string(result.State.Status))
			if result.State.Reason != "" {
				ctx.SetHeader(HeaderAuthReason, string(result.State.Reason))
			}

			if out, stop := cfg.decide(result); stop {
				if out.html {
					ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
				}
				return ctx.Status(out.status).SendString(out.body)
			}

			ctx.Locals(cfg.ContextKey, result)
			ctx.SetContext(auth.WithAuthResult(ctx.Context(), result))

			return hf(ctx)
		}
	}
}
