package auth

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-router"
)

const (
	HeaderAuthorization  = "Authorization"
	HeaderOrigin         = "Origin"
	HeaderHost           = "Host"
	HeaderForwardedHost  = "X-Forwarded-Host"
	HeaderForwardedPort  = "X-Forwarded-Port"
	HeaderForwardedProto = "X-Forwarded-Proto"
	HeaderReferer        = "Referer"
	HeaderUserAgent      = "User-Agent"

	CookieSession   = "__session"
	CookieClientUAT = "__client_uat"

	bearerScheme = "Bearer"
)

// CredentialBundle is the normalized, request scoped view of every
// credential and host hint the resolver looks at.
// An empty string always means the value was absent on the request.
type CredentialBundle struct {
	CookieToken    string
	ClientUAT      string
	HeaderToken    string
	Origin         string
	Host           string
	ForwardedHost  string
	ForwardedPort  string
	ForwardedProto string
	Referrer       string
	UserAgent      string

	// MalformedAuthorization is set when an Authorization header was sent
	// but did not carry a bearer credential.
	MalformedAuthorization bool
}

// HasCredentials reports whether a cookie or header token is present.
func (b *CredentialBundle) HasCredentials() bool {
	if b == nil {
		return false
	}
	return b.HeaderToken != "" || b.CookieToken != ""
}

// AuthoritativeToken returns the token the resolver verifies. Header tokens
// win over cookies.
func (b *CredentialBundle) AuthoritativeToken() (token string, fromHeader bool) {
	if b == nil {
		return "", false
	}
	if b.HeaderToken != "" {
		return b.HeaderToken, true
	}
	return b.CookieToken, false
}

// RequestReader is the subset of a framework request needed for extraction.
// router.Context implements it.
type RequestReader interface {
	Header(key string) string
	Cookies(key string, defaultValue ...string) string
}

// ExtractCredentials builds a CredentialBundle from a net/http request.
func ExtractCredentials(r *http.Request) *CredentialBundle {
	if r == nil {
		return &CredentialBundle{}
	}

	cookie := func(name string) string {
		c, err := r.Cookie(name)
		if err != nil || c == nil {
			return ""
		}
		return c.Value
	}

	host := r.Header.Get(HeaderHost)
	if host == "" {
		host = r.Host
	}

	return buildBundle(r.Header.Get, cookie, host)
}

// ExtractFromReader builds a CredentialBundle from any RequestReader.
func ExtractFromReader(r RequestReader) *CredentialBundle {
	if r == nil {
		return &CredentialBundle{}
	}
	cookie := func(name string) string {
		return r.Cookies(name)
	}
	return buildBundle(r.Header, cookie, r.Header(HeaderHost))
}

// ExtractFromRouter builds a CredentialBundle from a go-router context.
// Host is read from the Host header, which the net/http backed context does
// not expose, so Host stays empty there and origin checks are skipped.
func ExtractFromRouter(ctx router.Context) *CredentialBundle {
	if ctx == nil {
		return &CredentialBundle{}
	}
	return ExtractFromReader(ctx)
}

func buildBundle(header, cookie func(string) string, host string) *CredentialBundle {
	b := &CredentialBundle{
		CookieToken:    clean(cookie(CookieSession)),
		ClientUAT:      clean(cookie(CookieClientUAT)),
		Origin:         clean(header(HeaderOrigin)),
		Host:           clean(host),
		ForwardedHost:  firstListValue(header(HeaderForwardedHost)),
		ForwardedPort:  firstListValue(header(HeaderForwardedPort)),
		ForwardedProto: firstListValue(header(HeaderForwardedProto)),
		Referrer:       clean(header(HeaderReferer)),
		UserAgent:      clean(header(HeaderUserAgent)),
	}

	if raw := clean(header(HeaderAuthorization)); raw != "" {
		token, ok := parseBearer(raw)
		if ok {
			b.HeaderToken = token
		} else {
			b.MalformedAuthorization = true
		}
	}

	return b
}

// parseBearer strips the scheme from an Authorization header value.
func parseBearer(raw string) (string, bool) {
	l := len(bearerScheme)
	if len(raw) <= l+1 || !strings.EqualFold(raw[:l], bearerScheme) || raw[l] != ' ' {
		return "", false
	}
	token := strings.TrimSpace(raw[l+1:])
	if token == "" {
		return "", false
	}
	return token, true
}

func clean(s string) string {
	return strings.TrimSpace(s)
}

// proxies append to forwarded headers, the left most value is the client facing one
func firstListValue(s string) string {
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	return clean(s)
}
