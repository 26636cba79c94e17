package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	auth "github.com/goliatone/go-auth-state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACVerifier(t *testing.T) {
	v := auth.NewHMACVerifier(testSigningKey, auth.WithVerifierIssuer("https://clerk.example.com"))

	claims, err := v.Verify(context.Background(), validToken(t, "user_1", "sess_1"))
	require.NoError(t, err)
	assert.Equal(t, "user_1", claims.SubjectID())
	assert.Equal(t, "sess_1", claims.SessionID())
	assert.False(t, claims.Expires().IsZero())
}

func TestHMACVerifier_Errors(t *testing.T) {
	v := auth.NewHMACVerifier(testSigningKey)
	ctx := context.Background()

	t.Run("expired", func(t *testing.T) {
		_, err := v.Verify(ctx, expiredToken(t, "user_1", "sess_1"))
		require.Error(t, err)
		assert.True(t, auth.IsTokenExpiredError(err))
		assert.False(t, auth.IsMalformedError(err))
	})

	t.Run("wrong key", func(t *testing.T) {
		now := time.Now()
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims("user_1", "sess_1", now, now.Add(time.Hour)))
		signed, err := token.SignedString([]byte("another-key"))
		require.NoError(t, err)

		_, err = v.Verify(ctx, signed)
		require.Error(t, err)
		assert.True(t, auth.IsMalformedError(err))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		strict := auth.NewHMACVerifier(testSigningKey, auth.WithVerifierIssuer("https://other.example.com"))
		_, err := strict.Verify(ctx, validToken(t, "user_1", "sess_1"))
		require.Error(t, err)
		assert.True(t, auth.IsMalformedError(err))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify(ctx, "a.b.c")
		require.Error(t, err)
		assert.True(t, auth.IsMalformedError(err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := v.Verify(cctx, validToken(t, "user_1", "sess_1"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestHMACVerifier_Leeway(t *testing.T) {
	now := time.Now()
	token := signHS256(t, sessionClaims("user_1", "sess_1", now.Add(-time.Hour), now.Add(-5*time.Second)))

	_, err := auth.NewHMACVerifier(testSigningKey).Verify(context.Background(), token)
	require.Error(t, err)

	claims, err := auth.NewHMACVerifier(testSigningKey, auth.WithVerifierLeeway(time.Minute)).Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user_1", claims.SubjectID())
}

func TestJWKSVerifier(t *testing.T) {
	privateKey, jwks, kid := newTestJWKS(t)
	server := newJWKSServer(jwks)
	defer server.Close()

	v, err := auth.NewJWKSVerifier(server.URL+"/.well-known/jwks.json", auth.WithVerifierAudience("app"))
	require.NoError(t, err)
	defer v.Close()

	now := time.Now()
	claims := sessionClaims("user_rsa", "sess_rsa", now, now.Add(time.Hour))
	claims.Audience = jwt.ClaimStrings{"app"}

	verified, err := v.Verify(context.Background(), signRS256(t, privateKey, kid, claims))
	require.NoError(t, err)
	assert.Equal(t, "user_rsa", verified.SubjectID())
	assert.Equal(t, "app", verified.ClaimsMap()["aud"])

	// HS256 tokens are rejected by an RS256 verifier
	_, err = v.Verify(context.Background(), validToken(t, "user_1", "sess_1"))
	assert.True(t, auth.IsMalformedError(err))
}

func TestJWKSVerifierFromJSON(t *testing.T) {
	privateKey, jwks, kid := newTestJWKS(t)

	v, err := auth.NewJWKSVerifierFromJSON(jwks)
	require.NoError(t, err)
	defer v.Close()

	now := time.Now()
	verified, err := v.Verify(context.Background(), signRS256(t, privateKey, kid, sessionClaims("u", "s", now, now.Add(time.Hour))))
	require.NoError(t, err)
	assert.Equal(t, "s", verified.SessionID())

	_, err = auth.NewJWKSVerifierFromJSON(json.RawMessage(`not json`))
	assert.Error(t, err)
}

func TestMultiVerifier(t *testing.T) {
	privateKey, jwks, kid := newTestJWKS(t)
	rsaVerifier, err := auth.NewJWKSVerifierFromJSON(jwks)
	require.NoError(t, err)

	multi := auth.NewMultiVerifier(nil, auth.NewHMACVerifier(testSigningKey), rsaVerifier)
	ctx := context.Background()
	now := time.Now()

	claims, err := multi.Verify(ctx, signRS256(t, privateKey, kid, sessionClaims("rsa", "s", now, now.Add(time.Hour))))
	require.NoError(t, err)
	assert.Equal(t, "rsa", claims.SubjectID())

	claims, err = multi.Verify(ctx, validToken(t, "hmac", "s"))
	require.NoError(t, err)
	assert.Equal(t, "hmac", claims.SubjectID())

	_, err = multi.Verify(ctx, expiredToken(t, "hmac", "s"))
	assert.True(t, auth.IsTokenExpiredError(err))

	_, err = auth.NewMultiVerifier().Verify(ctx, "x")
	assert.True(t, auth.IsMalformedError(err))
}

func TestConfigVerifierOptions(t *testing.T) {
	cfg := testConfig{issuer: "https://other.example.com"}
	v := auth.NewHMACVerifier(testSigningKey, auth.ConfigVerifierOptions(cfg)...)

	_, err := v.Verify(context.Background(), validToken(t, "user_1", "sess_1"))
	assert.True(t, auth.IsMalformedError(err))
}

func TestHMACVerifier_Audience(t *testing.T) {
	now := time.Now()
	claims := sessionClaims("user_1", "sess_1", now, now.Add(time.Hour))
	claims.Audience = jwt.ClaimStrings{"mobile"}
	token := signHS256(t, claims)
	ctx := context.Background()

	cases := []struct {
		name     string
		audience []string
		ok       bool
	}{
		{name: "none configured", ok: true},
		{name: "single match", audience: []string{"mobile"}, ok: true},
		{name: "second of many", audience: []string{"web", "mobile"}, ok: true},
		{name: "no match", audience: []string{"web", "admin"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := auth.NewHMACVerifier(testSigningKey, auth.WithVerifierAudience(tc.audience...))
			verified, err := v.Verify(ctx, token)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, "user_1", verified.SubjectID())
				return
			}
			require.Error(t, err)
			assert.True(t, auth.IsMalformedError(err))
		})
	}

	t.Run("from config", func(t *testing.T) {
		cfg := testConfig{audience: []string{"web", "mobile"}}
		_, err := auth.NewHMACVerifier(testSigningKey, auth.ConfigVerifierOptions(cfg)...).Verify(ctx, token)
		require.NoError(t, err)
	})
}

func TestSessionClaims_ClaimsMap(t *testing.T) {
	issued := time.Unix(1700000000, 0)
	claims := sessionClaims("user_1", "sess_1", issued, issued.Add(time.Hour))
	claims.AuthorizedParty = "https://app.example.com"
	claims.OrgID = "org_1"

	m := claims.ClaimsMap()
	assert.Equal(t, "user_1", m["sub"])
	assert.Equal(t, "sess_1", m["sid"])
	assert.Equal(t, "https://clerk.example.com", m["iss"])
	assert.Equal(t, "https://app.example.com", m["azp"])
	assert.Equal(t, "org_1", m["org_id"])
	assert.Equal(t, "1700000000", m["iat"])
	assert.Equal(t, "1700003600", m["exp"])
	assert.NotContains(t, m, "org_role")
	assert.NotContains(t, m, "nbf")

	var nilClaims *auth.SessionClaims
	assert.Empty(t, nilClaims.ClaimsMap())
	assert.Empty(t, nilClaims.SubjectID())
}

func newTestJWKS(t *testing.T) (*rsa.PrivateKey, []byte, string) {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	kid := "test-key"
	jwk := map[string]any{
		"kty": "RSA",
		"use": "sig",
		"alg": "RS256",
		"kid": kid,
		"n":   base64.RawURLEncoding.EncodeToString(privateKey.PublicKey.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(privateKey.PublicKey.E)).Bytes()),
	}

	data, err := json.Marshal(map[string]any{"keys": []map[string]any{jwk}})
	require.NoError(t, err)

	return privateKey, data, kid
}

func newJWKSServer(jwks []byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/jwks.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(jwks)
	}))
}

func signRS256(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.Claims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid

	signed, err := token.SignedString(key)
	require.NoError(t, err)

	return signed
}
