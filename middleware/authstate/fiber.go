package authstate

import (
	"github.com/gofiber/fiber/v2"
	auth "github.com/goliatone/go-auth-state"
)

type fiberReader struct {
	c *fiber.Ctx
}

// Header reads raw request headers. Host is taken from the request line and
// never from X-Forwarded-Host, so the resolver can spot a proxy mismatch.
func (r fiberReader) Header(key string) string {
	if key == auth.HeaderHost {
		return string(r.c.Request().Host())
	}
	return r.c.Get(key)
}

func (r fiberReader) Cookies(key string, defaultValue ...string) string {
	return r.c.Cookies(key, defaultValue...)
}

// ExtractFromFiber builds a CredentialBundle from a fiber request.
func ExtractFromFiber(c *fiber.Ctx) *auth.CredentialBundle {
	if c == nil {
		return &auth.CredentialBundle{}
	}
	return auth.ExtractFromReader(fiberReader{c: c})
}

// NewFiber returns fiber middleware. The result is stored in c.Locals under
// Config.ContextKey and in the user context.
func NewFiber(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)

	return func(c *fiber.Ctx) error {
		if cfg.skip(c.Path()) {
			return c.Next()
		}

		result := cfg.resolve(c.UserContext(), ExtractFromFiber(c))

		c.Set(HeaderAuthStatus, string(result.State.Status))
		if result.State.Reason != "" {
			c.Set(HeaderAuthReason, string(result.State.Reason))
		}

		if out, stop := cfg.decide(result); stop {
			if out.html {
				c.Type("html", "utf-8")
			}
			return c.Status(out.status).SendString(out.body)
		}

		c.Locals(cfg.ContextKey, result)
		c.SetUserContext(auth.WithAuthResult(c.UserContext(), result))

		return c.Next()
	}
}

// FiberAuth reads the AuthResult stored by NewFiber.
func FiberAuth(c *fiber.Ctx, key string) (*auth.AuthResult, bool) {
	if key == "" {
		key = auth.DefaultLocalsKey
	}
	result, ok := c.Locals(key).(*auth.AuthResult)
	if ok && result != nil {
		return result, true
	}
	return auth.FromContext(c.UserContext())
}
