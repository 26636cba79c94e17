package auth

import (
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the claims carried by a hosted session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	SID             string `json:"sid,omitempty"`
	AuthorizedParty string `json:"azp,omitempty"`
	OrgID           string `json:"org_id,omitempty"`
	OrgRole         string `json:"org_role,omitempty"`
}

// SubjectID returns the user id (sub claim)
func (c *SessionClaims) SubjectID() string {
	if c == nil {
		return ""
	}
	return c.RegisteredClaims.Subject
}

// SessionID returns the session id (sid claim)
func (c *SessionClaims) SessionID() string {
	if c == nil {
		return ""
	}
	return c.SID
}

// Expires returns the expiration time
func (c *SessionClaims) Expires() time.Time {
	if c != nil && c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *SessionClaims) IssuedAt() time.Time {
	if c != nil && c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// ClaimsMap flattens the verified claims into string values. Time claims are
// rendered as epoch seconds, absent claims are omitted.
func (c *SessionClaims) ClaimsMap() map[string]string {
	out := map[string]string{}
	if c == nil {
		return out
	}

	put := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	putTime := func(k string, d *jwt.NumericDate) {
		if d != nil {
			out[k] = strconv.FormatInt(d.Unix(), 10)
		}
	}

	put("sub", c.Subject)
	put("sid", c.SID)
	put("iss", c.Issuer)
	put("jti", c.ID)
	put("azp", c.AuthorizedParty)
	put("org_id", c.OrgID)
	put("org_role", c.OrgRole)
	if len(c.Audience) > 0 {
		out["aud"] = strings.Join(c.Audience, " ")
	}
	putTime("exp", c.ExpiresAt)
	putTime("iat", c.RegisteredClaims.IssuedAt)
	putTime("nbf", c.NotBefore)

	return out
}
