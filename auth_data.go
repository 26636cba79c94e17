package auth

import (
	"context"

	"github.com/goliatone/go-auth-state/resource"
)

// AuthData is the resolved state contract exposed to the rendering layer.
// Signed out requests get an AuthData with empty identifiers.
type AuthData struct {
	SessionID string            `json:"session_id,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	Session   *resource.Session `json:"session,omitempty"`
	User      *resource.User    `json:"user,omitempty"`

	sessionToken string
}

// TokenOption customizes GetToken
type TokenOption func(*tokenOptions)

type tokenOptions struct {
	template string
}

// WithTemplate requests a token minted from a named template.
func WithTemplate(name string) TokenOption {
	return func(o *tokenOptions) {
		o.template = name
	}
}

// GetToken returns the raw session cookie token, or an empty string when the
// request carried none. Named templates need a round trip to the hosted API
// and are rejected with ErrTokenTemplateUnsupported.
func (d *AuthData) GetToken(_ context.Context, opts ...TokenOption) (string, error) {
	options := tokenOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	if options.template != "" {
		return "", ErrTokenTemplateUnsupported.Clone().WithMetadata(map[string]any{
			"template": options.template,
		})
	}

	if d == nil {
		return "", nil
	}
	return d.sessionToken, nil
}

// IsSignedIn reports whether the data carries a session.
func (d *AuthData) IsSignedIn() bool {
	return d != nil && d.SessionID != "" && d.UserID != ""
}

func signedOutData(bundle *CredentialBundle) *AuthData {
	data := &AuthData{}
	if bundle != nil {
		data.sessionToken = bundle.CookieToken
	}
	return data
}
