// Package challengeapi exposes second factor challenge sessions over HTTP.
// Sessions are persisted in a signin.Store between requests.
package challengeapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goliatone/go-auth-state/resource"
	"github.com/goliatone/go-auth-state/signin"
	goerrors "github.com/goliatone/go-errors"
)

const maxBodySize = 64 << 10

// Logger is satisfied by *slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// HookFactory builds the event hook attached to a session for one request.
type HookFactory func(r *http.Request) signin.EventHook

// API serves the challenge endpoints.
type API struct {
	store       signin.Store
	preparer    signin.Preparer
	attempter   signin.Attempter
	maxAttempts int
	hooks       HookFactory
	logger      Logger
}

// Option customizes an API.
type Option func(*API)

// WithMaxAttempts sets the per factor attempt limit for new sessions.
func WithMaxAttempts(n int) Option {
	return func(a *API) {
		if n >= 0 {
			a.maxAttempts = n
		}
	}
}

// WithHookFactory attaches an event hook to every session a request touches.
func WithHookFactory(f HookFactory) Option {
	return func(a *API) {
		a.hooks = f
	}
}

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(a *API) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an API.
func New(store signin.Store, preparer signin.Preparer, attempter signin.Attempter, opts ...Option) *API {
	a := &API{
		store:       store,
		preparer:    preparer,
		attempter:   attempter,
		maxAttempts: 3,
		logger:      slog.Default().With("component", "challengeapi"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Router returns the chi routes, meant to be mounted under a prefix.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/", a.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", a.Get)
		r.Delete("/", a.Delete)
		r.Post("/select", a.Select)
		r.Post("/toggle", a.Toggle)
		r.Post("/prepare", a.Prepare)
		r.Post("/attempt", a.Attempt)
	})
	return r
}

// Create opens a session from a sign in payload. The optional strategy
// query parameter picks the preferred opening factor.
func (a *API) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to read body").WithCode(goerrors.CodeBadRequest))
		return
	}

	si, err := resource.ParseSignIn(body)
	if err != nil {
		writeError(w, err)
		return
	}
	if !si.NeedsSecondFactor() {
		writeError(w, goerrors.New("sign in does not need a second factor", goerrors.CategoryConflict).
			WithCode(goerrors.CodeConflict).
			WithTextCode("SECOND_FACTOR_NOT_REQUIRED").
			WithMetadata(map[string]any{"status": string(si.Status)}))
		return
	}

	session := si.NewChallengeSession(a.sessionOptions(r, signin.WithMaxAttempts(a.maxAttempts))...)

	var pick signin.StartingFactorFunc
	if strategy := r.URL.Query().Get("strategy"); strategy != "" {
		pick = signin.PreferStrategy(signin.Strategy(strategy))
	}
	if err := session.Start(pick); err != nil {
		writeError(w, err)
		return
	}

	if !a.save(w, r, session) {
		return
	}
	a.logger.Info("challenge session created", "challenge_id", session.ID(), "state", session.State())
	writeJSON(w, http.StatusCreated, newView(session))
}

func (a *API) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := a.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newView(session))
}

func (a *API) Delete(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type selectRequest struct {
	Strategy      string `json:"strategy"`
	PhoneNumberID string `json:"phone_number_id,omitempty"`
}

// Select makes the requested factor current.
func (a *API) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decode(w, r, &req) {
		return
	}

	session, ok := a.load(w, r)
	if !ok {
		return
	}

	wanted := signin.FactorRecord{Strategy: req.Strategy, PhoneNumberID: req.PhoneNumberID}.Factor()
	var factor signin.SecondFactor
	for _, f := range session.AvailableFactors() {
		if signin.SameFactor(f, wanted) {
			factor = f
			break
		}
	}

	if err := session.SelectFactor(factor); err != nil {
		writeError(w, err)
		return
	}
	a.respond(w, r, session, http.StatusOK)
}

func (a *API) Toggle(w http.ResponseWriter, r *http.Request) {
	session, ok := a.load(w, r)
	if !ok {
		return
	}
	if err := session.ToggleAllStrategies(); err != nil {
		writeError(w, err)
		return
	}
	a.respond(w, r, session, http.StatusOK)
}

// Prepare dispatches a code for the current factor. force=true re-sends.
func (a *API) Prepare(w http.ResponseWriter, r *http.Request) {
	session, ok := a.load(w, r)
	if !ok {
		return
	}

	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	sent, err := session.Prepare(r.Context(), a.preparer, force)
	if err != nil {
		a.prepareFailed(w, r, session, sent, err)
		return
	}

	if !a.save(w, r, session) {
		return
	}
	v := newView(session)
	v.Sent = &sent
	writeJSON(w, http.StatusOK, v)
}

// prepareFailed answers with the dispatch error. A challenge that did go out
// is still recorded; a store failure at that point is only logged.
func (a *API) prepareFailed(w http.ResponseWriter, r *http.Request, session *signin.ChallengeSession, sent bool, err error) {
	if sent {
		if serr := a.store.Save(r.Context(), session.Snapshot()); serr != nil {
			a.logger.Warn("failed to record dispatched challenge", "challenge_id", session.ID(), "error", serr)
		}
	}
	writeError(w, err)
}

type attemptRequest struct {
	Code string `json:"code"`
}

// Attempt verifies a code. Verified sessions are removed from the store.
func (a *API) Attempt(w http.ResponseWriter, r *http.Request) {
	var req attemptRequest
	if !decode(w, r, &req) {
		return
	}

	session, ok := a.load(w, r)
	if !ok {
		return
	}

	result, err := session.Attempt(r.Context(), a.attempter, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	if result == signin.AttemptVerified {
		if err := a.store.Delete(r.Context(), session.ID()); err != nil {
			a.logger.Warn("failed to delete verified challenge", "challenge_id", session.ID(), "error", err)
		}
	} else if !a.save(w, r, session) {
		return
	}

	v := newView(session)
	v.Result = result
	writeJSON(w, http.StatusOK, v)
}

func (a *API) sessionOptions(r *http.Request, opts ...signin.Option) []signin.Option {
	if a.hooks != nil {
		opts = append(opts, signin.WithEventHook(a.hooks(r)))
	}
	return opts
}

func (a *API) load(w http.ResponseWriter, r *http.Request) (*signin.ChallengeSession, bool) {
	snap, err := a.store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return signin.Restore(snap, a.sessionOptions(r)...), true
}

func (a *API) save(w http.ResponseWriter, r *http.Request, session *signin.ChallengeSession) bool {
	if err := a.store.Save(r.Context(), session.Snapshot()); err != nil {
		writeError(w, err)
		return false
	}
	return true
}

func (a *API) respond(w http.ResponseWriter, r *http.Request, session *signin.ChallengeSession, status int) {
	if !a.save(w, r, session) {
		return
	}
	writeJSON(w, status, newView(session))
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(v); err != nil {
		writeError(w, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body").WithCode(goerrors.CodeBadRequest))
		return false
	}
	return true
}
