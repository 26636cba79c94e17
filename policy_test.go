package auth_test

import (
	"testing"
	"time"

	auth "github.com/goliatone/go-auth-state"
	"github.com/stretchr/testify/assert"
)

func TestDefaultPolicy_BeforeVerify(t *testing.T) {
	p := auth.NewDefaultPolicy()

	tests := []struct {
		name       string
		bundle     *auth.CredentialBundle
		fromHeader bool
		want       auth.Verdict
	}{
		{
			name:   "same origin",
			bundle: &auth.CredentialBundle{Host: "app.example.com", Origin: "https://app.example.com"},
		},
		{
			name:   "no origin",
			bundle: &auth.CredentialBundle{Host: "app.example.com"},
		},
		{
			name:   "cross origin",
			bundle: &auth.CredentialBundle{Host: "app.example.com", Origin: "https://evil.example.com"},
			want:   auth.Verdict{Status: auth.StatusInterstitial, Reason: auth.ReasonCrossOrigin},
		},
		{
			name:       "cross origin header token",
			bundle:     &auth.CredentialBundle{Host: "app.example.com", Origin: "https://evil.example.com"},
			fromHeader: true,
		},
		{
			name:   "default ports are ignored",
			bundle: &auth.CredentialBundle{Host: "app.example.com:443", Origin: "https://app.example.com"},
		},
		{
			name:   "forwarded host matches host",
			bundle: &auth.CredentialBundle{Host: "app.example.com", ForwardedHost: "APP.example.com"},
		},
		{
			name:   "proxy without origin or referer",
			bundle: &auth.CredentialBundle{Host: "10.0.0.5:3000", ForwardedHost: "app.example.com"},
			want:   auth.Verdict{Status: auth.StatusInterstitial, Reason: auth.ReasonProxyAmbiguous},
		},
		{
			name: "proxy confirmed by origin",
			bundle: &auth.CredentialBundle{
				Host: "10.0.0.5:3000", ForwardedHost: "app.example.com", Origin: "https://app.example.com",
			},
		},
		{
			name: "proxy confirmed by referer",
			bundle: &auth.CredentialBundle{
				Host: "10.0.0.5:3000", ForwardedHost: "app.example.com", Referrer: "https://app.example.com/settings",
			},
		},
		{
			name: "proxy with forwarded port",
			bundle: &auth.CredentialBundle{
				Host: "10.0.0.5:3000", ForwardedHost: "app.example.com", ForwardedPort: "8443",
				Origin: "https://app.example.com:8443",
			},
		},
		{
			name: "proxy with mismatched origin",
			bundle: &auth.CredentialBundle{
				Host: "10.0.0.5:3000", ForwardedHost: "app.example.com", Origin: "https://evil.example.com",
			},
			want: auth.Verdict{Status: auth.StatusInterstitial, Reason: auth.ReasonCrossOrigin},
		},
		{
			name:   "null origin is ignored",
			bundle: &auth.CredentialBundle{Host: "app.example.com", Origin: "null"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.BeforeVerify(tt.bundle, tt.fromHeader))
		})
	}
}

func TestDefaultPolicy_ChecksCanBeDisabled(t *testing.T) {
	p := &auth.DefaultPolicy{}

	v := p.BeforeVerify(&auth.CredentialBundle{Host: "10.0.0.5", ForwardedHost: "app.example.com", Origin: "https://evil.example.com"}, false)
	assert.True(t, v.Continue())

	claims := sessionClaims("u", "s", time.Unix(100, 0), time.Unix(200, 0))
	v = p.AfterVerify(&auth.CredentialBundle{ClientUAT: "0"}, claims, false)
	assert.True(t, v.Continue())

	assert.Equal(t, auth.StatusInterstitial, p.OnTimeout(nil).Status)
}

func TestDefaultPolicy_AfterVerify(t *testing.T) {
	p := auth.NewDefaultPolicy()
	p.AuthorizedParties = []string{"https://app.example.com"}
	claims := sessionClaims("u", "s", time.Unix(1700000000, 0), time.Unix(1700003600, 0))

	assert.True(t, p.AfterVerify(&auth.CredentialBundle{ClientUAT: "1699999999"}, claims, false).Continue())
	assert.True(t, p.AfterVerify(&auth.CredentialBundle{ClientUAT: "garbage"}, claims, false).Continue())
	assert.True(t, p.AfterVerify(&auth.CredentialBundle{}, claims, false).Continue())

	assert.Equal(t,
		auth.Verdict{Status: auth.StatusInterstitial, Reason: auth.ReasonCookieOutdated},
		p.AfterVerify(&auth.CredentialBundle{ClientUAT: "1700000001"}, claims, false),
	)

	claims.AuthorizedParty = "https://evil.example.com"
	assert.Equal(t,
		auth.Verdict{Status: auth.StatusSignedOut, Reason: auth.ReasonUnauthorizedParty},
		p.AfterVerify(&auth.CredentialBundle{}, claims, true),
	)
}

func TestPolicyFuncs_Defaults(t *testing.T) {
	var p auth.PolicyFuncs

	assert.True(t, p.BeforeVerify(nil, false).Continue())
	assert.True(t, p.AfterVerify(nil, nil, false).Continue())
	assert.Equal(t, auth.StatusInterstitial, p.OnTimeout(nil).Status)
}

func TestParseAuthStatus(t *testing.T) {
	status, ok := auth.ParseAuthStatus("signed_out")
	assert.True(t, ok)
	assert.Equal(t, auth.StatusSignedOut, status)

	status, ok = auth.ParseAuthStatus("maybe")
	assert.False(t, ok)
	assert.Equal(t, auth.StatusUnknown, status)
}
