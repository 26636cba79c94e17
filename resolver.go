package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-errors"
)

const defaultVerifyTimeout = 2 * time.Second

var errVerifierPanic = errors.New("token verifier panicked", errors.CategoryInternal)

// AuthResult is what a resolution hands to the rendering layer.
// Data is nil only when ShowInterstitial is set.
type AuthResult struct {
	State            AuthState `json:"state"`
	Data             *AuthData `json:"data,omitempty"`
	ShowInterstitial bool      `json:"show_interstitial,omitempty"`
	Hydration        Hydration `json:"-"`
}

// Resolver classifies a CredentialBundle into an AuthState.
type Resolver struct {
	verifier      TokenVerifier
	policy        InterstitialPolicy
	hydrator      *Hydrator
	verifyTimeout time.Duration
	logger        Logger
	activitySink  ActivitySink
	now           func() time.Time
}

// ResolverOption customizes resolver construction.
type ResolverOption func(*Resolver)

// WithResolverPolicy overrides the interstitial policy.
func WithResolverPolicy(p InterstitialPolicy) ResolverOption {
	return func(r *Resolver) {
		if p != nil {
			r.policy = p
		}
	}
}

// WithResolverHydrator enables user/session hydration.
func WithResolverHydrator(h *Hydrator) ResolverOption {
	return func(r *Resolver) {
		r.hydrator = h
	}
}

// WithResolverVerifyTimeout bounds token verification. Zero disables the bound.
func WithResolverVerifyTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d >= 0 {
			r.verifyTimeout = d
		}
	}
}

// WithResolverLogger sets the logger
func WithResolverLogger(logger Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithResolverActivitySink publishes one event per resolution.
func WithResolverActivitySink(sink ActivitySink) ResolverOption {
	return func(r *Resolver) {
		r.activitySink = normalizeActivitySink(sink)
	}
}

// WithResolverClock injects a custom clock (useful for tests).
func WithResolverClock(clock func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if clock != nil {
			r.now = clock
		}
	}
}

// NewResolver returns a resolver that delegates cryptographic checks to verifier.
func NewResolver(verifier TokenVerifier, opts ...ResolverOption) (*Resolver, error) {
	if verifier == nil {
		return nil, ErrVerifierMissing
	}

	r := &Resolver{
		verifier:      verifier,
		policy:        NewDefaultPolicy(),
		verifyTimeout: defaultVerifyTimeout,
		logger:        defLogger(),
		activitySink:  noopActivitySink{},
		now:           time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r, nil
}

// NewResolverFromConfig wires a resolver, its default policy and an optional
// hydrator from a Config.
func NewResolverFromConfig(cfg Config, verifier TokenVerifier, backend Backend, opts ...ResolverOption) (*Resolver, error) {
	policy := NewDefaultPolicy()
	policy.AuthorizedParties = cfg.GetAuthorizedParties()
	if status, ok := ParseAuthStatus(cfg.GetTimeoutStatus()); ok {
		policy.TimeoutStatus = status
	}

	base := []ResolverOption{
		WithResolverPolicy(policy),
		WithResolverVerifyTimeout(cfg.GetVerifyTimeout()),
	}
	if backend != nil {
		base = append(base, WithResolverHydrator(
			NewHydrator(backend, WithHydratorTimeout(cfg.GetHydrationTimeout())),
		))
	}

	return NewResolver(verifier, append(base, opts...)...)
}

// ResolveOption toggles per call behavior.
type ResolveOption func(*resolveOptions)

type resolveOptions struct {
	loadUser    bool
	loadSession bool
}

// WithLoadUser fetches the user record once signed in.
func WithLoadUser() ResolveOption {
	return func(o *resolveOptions) {
		o.loadUser = true
	}
}

// WithLoadSession fetches the session record once signed in.
func WithLoadSession() ResolveOption {
	return func(o *resolveOptions) {
		o.loadSession = true
	}
}

// Resolve classifies bundle and, for signed in requests, hydrates the user
// and session when asked to. It never returns an error: every failure is
// folded into the resulting state.
func (r *Resolver) Resolve(ctx context.Context, bundle *CredentialBundle, opts ...ResolveOption) *AuthResult {
	options := resolveOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	state := r.classify(ctx, bundle)
	result := &AuthResult{State: state}

	switch state.Status {
	case StatusInterstitial:
		result.ShowInterstitial = true
	case StatusSignedIn:
		data := &AuthData{
			SessionID:    state.SessionID,
			UserID:       state.SubjectID,
			sessionToken: bundle.CookieToken,
		}
		if r.hydrator != nil && (options.loadUser || options.loadSession) {
			result.Hydration = r.hydrator.Hydrate(ctx, state.SubjectID, state.SessionID, HydrateOptions{
				LoadUser:    options.loadUser,
				LoadSession: options.loadSession,
			})
			data.User = result.Hydration.User
			data.Session = result.Hydration.Session
		}
		result.Data = data
	default:
		result.Data = signedOutData(bundle)
	}

	r.logger.Debug("auth state resolved",
		"status", state.Status,
		"reason", state.Reason,
		"session_id", state.SessionID,
	)
	r.recordActivity(ctx, result)

	return result
}

func (r *Resolver) classify(ctx context.Context, bundle *CredentialBundle) AuthState {
	if bundle == nil {
		return unknownState(ReasonCredentialsUnavailable)
	}

	token, fromHeader := bundle.AuthoritativeToken()
	if token == "" {
		if bundle.MalformedAuthorization {
			return unknownState(ReasonAuthorizationMalformed)
		}
		return signedOutState(ReasonCredentialsMissing)
	}

	if v := r.policy.BeforeVerify(bundle, fromHeader); !v.Continue() {
		return fromVerdict(v)
	}

	claims, err := r.verify(ctx, token)
	if err != nil {
		return r.classifyVerifyError(bundle, err)
	}

	if claims == nil || claims.SubjectID() == "" || claims.SessionID() == "" {
		return signedOutState(ReasonClaimsIncomplete)
	}

	if v := r.policy.AfterVerify(bundle, claims, fromHeader); !v.Continue() {
		return fromVerdict(v)
	}

	return signedInState(claims)
}

func (r *Resolver) classifyVerifyError(bundle *CredentialBundle, err error) AuthState {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		r.logger.Warn("token verification timed out", "error", err)
		return fromVerdict(r.policy.OnTimeout(bundle))
	case IsVerificationAmbiguous(err):
		return interstitialState(ReasonVerificationAmbiguous)
	case errors.Is(err, errVerifierPanic):
		r.logger.Error("token verifier failed", "error", err)
		return signedOutState(ReasonVerifierFailure)
	case IsTokenExpiredError(err):
		return signedOutState(ReasonTokenExpired)
	default:
		r.logger.Debug("token verification failed", "error", err)
		return signedOutState(ReasonTokenInvalid)
	}
}

// verify runs the verifier under the configured timeout and turns panics
// into errors.
func (r *Resolver) verify(ctx context.Context, token string) (*SessionClaims, error) {
	if r.verifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.verifyTimeout)
		defer cancel()
	}

	type outcome struct {
		claims *SessionClaims
		err    error
	}

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: fmt.Errorf("%w: %v", errVerifierPanic, rec)}
			}
		}()
		claims, err := r.verifier.Verify(ctx, token)
		done <- outcome{claims: claims, err: err}
	}()

	select {
	case o := <-done:
		return o.claims, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fromVerdict never lets a policy sign a request in.
func fromVerdict(v Verdict) AuthState {
	switch v.Status {
	case StatusInterstitial:
		return interstitialState(v.Reason)
	case StatusUnknown:
		return unknownState(v.Reason)
	default:
		return signedOutState(v.Reason)
	}
}

func (r *Resolver) recordActivity(ctx context.Context, result *AuthResult) {
	event := ActivityEvent{
		EventType:  ActivityEventStateResolved,
		Status:     result.State.Status,
		Reason:     result.State.Reason,
		SubjectID:  result.State.SubjectID,
		SessionID:  result.State.SessionID,
		OccurredAt: r.now(),
	}
	if err := r.activitySink.Record(ctx, event); err != nil {
		r.logger.Warn("resolver activity sink error", "error", err)
	}

	for field, err := range result.Hydration.Errors() {
		hydrationEvent := event
		hydrationEvent.EventType = ActivityEventHydrationFailed
		hydrationEvent.Metadata = map[string]any{"field": field, "error": err.Error()}
		if err := r.activitySink.Record(ctx, hydrationEvent); err != nil {
			r.logger.Warn("resolver activity sink error", "error", err)
		}
	}
}
