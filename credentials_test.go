package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	auth "github.com/goliatone/go-auth-state"
	"github.com/stretchr/testify/assert"
)

func TestExtractCredentials(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://app.example.com/dashboard", nil)
	req.Header.Set("Authorization", "bearer header-token")
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("X-Forwarded-Host", "app.example.com, internal.local")
	req.Header.Set("X-Forwarded-Port", "443")
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("Referer", "https://app.example.com/login")
	req.Header.Set("User-Agent", "test-agent")
	req.AddCookie(&http.Cookie{Name: auth.CookieSession, Value: "cookie-token"})
	req.AddCookie(&http.Cookie{Name: auth.CookieClientUAT, Value: "1700000000"})

	b := auth.ExtractCredentials(req)

	assert.Equal(t, "header-token", b.HeaderToken)
	assert.Equal(t, "cookie-token", b.CookieToken)
	assert.Equal(t, "1700000000", b.ClientUAT)
	assert.Equal(t, "https://app.example.com", b.Origin)
	assert.Equal(t, "app.example.com", b.Host)
	assert.Equal(t, "app.example.com", b.ForwardedHost)
	assert.Equal(t, "443", b.ForwardedPort)
	assert.Equal(t, "https", b.ForwardedProto)
	assert.Equal(t, "https://app.example.com/login", b.Referrer)
	assert.Equal(t, "test-agent", b.UserAgent)
	assert.False(t, b.MalformedAuthorization)

	token, fromHeader := b.AuthoritativeToken()
	assert.Equal(t, "header-token", token)
	assert.True(t, fromHeader)
}

func TestExtractCredentials_AbsentValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://app.example.com/", nil)
	req.Header.Set("Origin", "   ")
	req.AddCookie(&http.Cookie{Name: auth.CookieSession, Value: ""})

	b := auth.ExtractCredentials(req)

	assert.Empty(t, b.CookieToken)
	assert.Empty(t, b.HeaderToken)
	assert.Empty(t, b.Origin)
	assert.False(t, b.HasCredentials())
	assert.False(t, b.MalformedAuthorization)
}

func TestExtractCredentials_MalformedAuthorization(t *testing.T) {
	for _, value := range []string{"Basic dXNlcjpwYXNz", "Bearer", "Bearer    ", "Bearertoken"} {
		req := httptest.NewRequest(http.MethodGet, "http://app.example.com/", nil)
		req.Header.Set("Authorization", value)

		b := auth.ExtractCredentials(req)
		assert.Empty(t, b.HeaderToken, value)
		assert.True(t, b.MalformedAuthorization, value)
	}
}

func TestExtractCredentials_NilRequest(t *testing.T) {
	b := auth.ExtractCredentials(nil)
	assert.NotNil(t, b)
	assert.False(t, b.HasCredentials())
}

func TestExtractFromReader(t *testing.T) {
	r := fakeReader{
		headers: map[string]string{
			"Host":          "app.example.com",
			"Authorization": "Bearer abc",
		},
		cookies: map[string]string{
			auth.CookieSession: " cookie ",
		},
	}

	b := auth.ExtractFromReader(r)
	assert.Equal(t, "abc", b.HeaderToken)
	assert.Equal(t, "cookie", b.CookieToken)
	assert.Equal(t, "app.example.com", b.Host)
}

func TestAuthoritativeToken_CookieOnly(t *testing.T) {
	b := &auth.CredentialBundle{CookieToken: "cookie"}
	token, fromHeader := b.AuthoritativeToken()
	assert.Equal(t, "cookie", token)
	assert.False(t, fromHeader)

	var nilBundle *auth.CredentialBundle
	token, fromHeader = nilBundle.AuthoritativeToken()
	assert.Empty(t, token)
	assert.False(t, fromHeader)
}
