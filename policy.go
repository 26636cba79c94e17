package auth

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Verdict is a policy decision. The zero value means "keep going".
type Verdict struct {
	Status AuthStatus
	Reason Reason
}

// Continue reports whether the policy left the decision to later steps.
func (v Verdict) Continue() bool {
	return v.Status == ""
}

// InterstitialPolicy decides the boundary between signed out and
// interstitial around token verification. fromHeader is true when the
// authoritative token came from the Authorization header.
type InterstitialPolicy interface {
	BeforeVerify(b *CredentialBundle, fromHeader bool) Verdict
	AfterVerify(b *CredentialBundle, claims *SessionClaims, fromHeader bool) Verdict
	OnTimeout(b *CredentialBundle) Verdict
}

// PolicyFuncs adapts plain functions into an InterstitialPolicy. Nil
// functions always continue; a nil OnTimeout yields an interstitial.
type PolicyFuncs struct {
	Before  func(b *CredentialBundle, fromHeader bool) Verdict
	After   func(b *CredentialBundle, claims *SessionClaims, fromHeader bool) Verdict
	Timeout func(b *CredentialBundle) Verdict
}

func (p PolicyFuncs) BeforeVerify(b *CredentialBundle, fromHeader bool) Verdict {
	if p.Before == nil {
		return Verdict{}
	}
	return p.Before(b, fromHeader)
}

func (p PolicyFuncs) AfterVerify(b *CredentialBundle, claims *SessionClaims, fromHeader bool) Verdict {
	if p.After == nil {
		return Verdict{}
	}
	return p.After(b, claims, fromHeader)
}

func (p PolicyFuncs) OnTimeout(b *CredentialBundle) Verdict {
	if p.Timeout == nil {
		return Verdict{Status: StatusInterstitial, Reason: ReasonVerificationTimeout}
	}
	return p.Timeout(b)
}

// DefaultPolicy is the built in policy for cookie based requests.
//
//   - A forwarded host that differs from Host means a proxy sits in front of
//     the app. The browser facing host is then confirmed through Origin or
//     Referer; when neither is present, or they point elsewhere, the request
//     is treated as interstitial.
//   - Without a proxy, an Origin for a different host is a cross origin
//     cookie request and is treated as interstitial.
//   - A client UAT newer than the token iat means the cookie is stale
//     (interstitial); a client UAT of 0 means the client signed out.
//   - A non empty azp claim must be one of AuthorizedParties when that list
//     is configured, for header and cookie tokens alike.
//
// Header tokens skip the origin and UAT checks.
type DefaultPolicy struct {
	CheckOrigin        bool
	CheckForwardedHost bool
	CheckClientUAT     bool
	AuthorizedParties  []string
	TimeoutStatus      AuthStatus
}

var _ InterstitialPolicy = (*DefaultPolicy)(nil)

// NewDefaultPolicy returns a DefaultPolicy with every check enabled.
func NewDefaultPolicy() *DefaultPolicy {
	return &DefaultPolicy{
		CheckOrigin:        true,
		CheckForwardedHost: true,
		CheckClientUAT:     true,
		TimeoutStatus:      StatusInterstitial,
	}
}

func (p *DefaultPolicy) BeforeVerify(b *CredentialBundle, fromHeader bool) Verdict {
	if fromHeader || b == nil {
		return Verdict{}
	}

	host := normalizeHost(b.Host, "")

	if p.CheckForwardedHost && b.ForwardedHost != "" {
		forwarded := normalizeHost(b.ForwardedHost, b.ForwardedPort)
		if forwarded != host {
			seen := originHost(b.Origin)
			if seen == "" {
				seen = originHost(b.Referrer)
			}
			if seen == "" {
				return Verdict{Status: StatusInterstitial, Reason: ReasonProxyAmbiguous}
			}
			if seen != forwarded {
				return Verdict{Status: StatusInterstitial, Reason: ReasonCrossOrigin}
			}
			return Verdict{}
		}
	}

	if p.CheckOrigin && b.Origin != "" && host != "" {
		if o := originHost(b.Origin); o != "" && o != host {
			return Verdict{Status: StatusInterstitial, Reason: ReasonCrossOrigin}
		}
	}

	return Verdict{}
}

func (p *DefaultPolicy) AfterVerify(b *CredentialBundle, claims *SessionClaims, fromHeader bool) Verdict {
	if claims == nil {
		return Verdict{Status: StatusSignedOut, Reason: ReasonClaimsIncomplete}
	}

	if len(p.AuthorizedParties) > 0 && claims.AuthorizedParty != "" &&
		!slices.Contains(p.AuthorizedParties, claims.AuthorizedParty) {
		return Verdict{Status: StatusSignedOut, Reason: ReasonUnauthorizedParty}
	}

	if fromHeader || !p.CheckClientUAT || b == nil || b.ClientUAT == "" {
		return Verdict{}
	}

	uat, err := strconv.ParseInt(b.ClientUAT, 10, 64)
	if err != nil {
		return Verdict{}
	}
	if uat == 0 {
		return Verdict{Status: StatusSignedOut, Reason: ReasonClientSignedOut}
	}
	if iat := claims.IssuedAt(); !iat.IsZero() && iat.Unix() < uat {
		return Verdict{Status: StatusInterstitial, Reason: ReasonCookieOutdated}
	}

	return Verdict{}
}

func (p *DefaultPolicy) OnTimeout(*CredentialBundle) Verdict {
	status := p.TimeoutStatus
	if status != StatusSignedOut {
		status = StatusInterstitial
	}
	return Verdict{Status: status, Reason: ReasonVerificationTimeout}
}

func normalizeHost(host, port string) string {
	host = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if host == "" {
		return ""
	}
	if port != "" && !strings.Contains(host, ":") {
		host = host + ":" + port
	}
	host = strings.TrimSuffix(host, ":80")
	host = strings.TrimSuffix(host, ":443")
	return host
}

func originHost(raw string) string {
	if raw == "" || raw == "null" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return normalizeHost(u.Host, "")
}
