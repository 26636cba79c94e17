// Package backend fetches user and session records from the hosted API.
package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-auth-state/resource"
	goerrors "github.com/goliatone/go-errors"
)

const (
	DefaultBaseURL = "https://api.clerk.com"

	defaultTimeout  = 10 * time.Second
	maxResponseSize = 1 << 20

	textCodeBackendNotFound = "BACKEND_NOT_FOUND"
	textCodeBackendRequest  = "BACKEND_REQUEST_FAILED"
)

// ErrNotFound is returned when the API reports 404 for a record.
var ErrNotFound = goerrors.New("record not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeBackendNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrRequest is returned for transport failures and non 2xx responses.
var ErrRequest = goerrors.New("backend request failed", goerrors.CategoryExternal).
	WithTextCode(textCodeBackendRequest).
	WithCode(goerrors.CodeInternal)

// Logger is satisfied by *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Client talks to the hosted backend API with a secret key.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	userAgent  string
	logger     Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithHTTPClient sets the http client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Client.
func NewClient(secretKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  "go-auth-state",
		logger:     nopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// GetUser fetches GET /v1/users/{id}.
func (c *Client) GetUser(ctx context.Context, userID string) (*resource.User, error) {
	body, err := c.get(ctx, "users", userID)
	if err != nil {
		return nil, err
	}
	return resource.ParseUser(body)
}

// GetSession fetches GET /v1/sessions/{id}.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*resource.Session, error) {
	body, err := c.get(ctx, "sessions", sessionID)
	if err != nil {
		return nil, err
	}
	return resource.ParseSession(body)
}

func (c *Client) get(ctx context.Context, kind, id string) ([]byte, error) {
	if id == "" {
		return nil, goerrors.New(kind+" id is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	endpoint := fmt.Sprintf("%s/v1/%s/%s", c.baseURL, kind, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create backend request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, c.requestError(kind, id, 0, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, c.requestError(kind, id, resp.StatusCode, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound.Clone().WithMetadata(map[string]any{
			"resource": kind,
			"id":       id,
		})
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, c.requestError(kind, id, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	c.logger.Debug("backend lookup", "resource", kind, "id", id, "status", resp.StatusCode)
	return body, nil
}

func (c *Client) requestError(kind, id string, status int, cause error) error {
	c.logger.Warn("backend lookup failed", "resource", kind, "id", id, "status", status, "error", cause)
	err := ErrRequest.Clone().WithMetadata(map[string]any{
		"resource": kind,
		"id":       id,
		"status":   status,
	})
	err.Source = cause
	return err
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
