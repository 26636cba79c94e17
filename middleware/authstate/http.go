package authstate

import (
	"net/http"

	auth "github.com/goliatone/go-auth-state"
)

// NewHTTP returns net/http middleware, usable with chi.
func NewHTTP(config ...Config) func(http.Handler) http.Handler {
	cfg := GetDefaultConfig(config...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.skip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			result := cfg.resolve(r.Context(), auth.ExtractCredentials(r))

			w.Header().Set(HeaderAuthStatus, string(result.State.Status))
			if result.State.Reason != "" {
				w.Header().Set(HeaderAuthReason, string(result.State.Reason))
			}

			if out, stop := cfg.decide(result); stop {
				if out.html {
					w.Header().Set("Content-Type", "text/html; charset=utf-8")
				} else {
					w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				}
				w.WriteHeader(out.status)
				_, _ = w.Write([]byte(out.body))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithAuthResult(r.Context(), result)))
		})
	}
}
