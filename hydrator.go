package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-auth-state/resource"
	"github.com/goliatone/go-errors"
	"golang.org/x/sync/errgroup"
)

var errLookupPanic = errors.New("backend lookup panicked", errors.CategoryInternal)

// HydrateOptions toggles each lookup independently.
type HydrateOptions struct {
	LoadUser    bool
	LoadSession bool
}

// Hydration holds the enrichment results. A failed lookup leaves its field
// nil and records the error next to it.
type Hydration struct {
	User       *resource.User
	Session    *resource.Session
	UserErr    error
	SessionErr error
}

// Errors returns the failed lookups keyed by field name.
func (h Hydration) Errors() map[string]error {
	out := map[string]error{}
	if h.UserErr != nil {
		out["user"] = h.UserErr
	}
	if h.SessionErr != nil {
		out["session"] = h.SessionErr
	}
	return out
}

// Hydrator fetches user and session records for a resolved session.
type Hydrator struct {
	backend Backend
	timeout time.Duration
	logger  Logger
}

// HydratorOption customizes a Hydrator
type HydratorOption func(*Hydrator)

// WithHydratorTimeout bounds each lookup. Zero means no bound.
func WithHydratorTimeout(d time.Duration) HydratorOption {
	return func(h *Hydrator) {
		if d >= 0 {
			h.timeout = d
		}
	}
}

// WithHydratorLogger sets the logger
func WithHydratorLogger(logger Logger) HydratorOption {
	return func(h *Hydrator) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHydrator creates a hydrator backed by backend.
func NewHydrator(backend Backend, opts ...HydratorOption) *Hydrator {
	h := &Hydrator{
		backend: backend,
		logger:  defLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Hydrate runs the enabled lookups concurrently. Lookups never cancel each
// other and failures never escape as errors.
func (h *Hydrator) Hydrate(ctx context.Context, subjectID, sessionID string, opts HydrateOptions) Hydration {
	var out Hydration
	if h == nil || h.backend == nil {
		return out
	}

	var g errgroup.Group

	if opts.LoadUser && subjectID != "" {
		g.Go(func() error {
			out.User, out.UserErr = lookup(ctx, h.timeout, func(ctx context.Context) (*resource.User, error) {
				return h.backend.GetUser(ctx, subjectID)
			})
			return nil
		})
	}

	if opts.LoadSession && sessionID != "" {
		g.Go(func() error {
			out.Session, out.SessionErr = lookup(ctx, h.timeout, func(ctx context.Context) (*resource.Session, error) {
				return h.backend.GetSession(ctx, sessionID)
			})
			return nil
		})
	}

	_ = g.Wait()

	if out.UserErr != nil {
		h.logger.Warn("user hydration failed", "user_id", subjectID, "error", out.UserErr)
	}
	if out.SessionErr != nil {
		h.logger.Warn("session hydration failed", "session_id", sessionID, "error", out.SessionErr)
	}

	return out
}

func lookup[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (*T, error)) (res *T, err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if rec := recover(); rec != nil {
			res, err = nil, fmt.Errorf("%w: %v", errLookupPanic, rec)
		}
	}()

	res, err = fn(ctx)
	if err != nil {
		return nil, err
	}
	return res, nil
}
