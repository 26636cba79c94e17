package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// JWTVerifier verifies session tokens with golang-jwt using a key function.
type JWTVerifier struct {
	keyFunc  jwt.Keyfunc
	issuer   string
	audience []string
	leeway   time.Duration
	methods  []string
	logger   Logger
	jwks     *keyfunc.JWKS
}

// VerifierOption customizes a JWTVerifier
type VerifierOption func(*JWTVerifier)

// WithVerifierIssuer requires the iss claim to match.
func WithVerifierIssuer(issuer string) VerifierOption {
	return func(v *JWTVerifier) {
		v.issuer = issuer
	}
}

// WithVerifierAudience requires one of the given audiences.
func WithVerifierAudience(audience ...string) VerifierOption {
	return func(v *JWTVerifier) {
		v.audience = append(v.audience, audience...)
	}
}

// WithVerifierLeeway tolerates clock skew on exp/nbf/iat.
func WithVerifierLeeway(d time.Duration) VerifierOption {
	return func(v *JWTVerifier) {
		if d >= 0 {
			v.leeway = d
		}
	}
}

// WithVerifierMethods restricts the accepted alg header values.
func WithVerifierMethods(methods ...string) VerifierOption {
	return func(v *JWTVerifier) {
		if len(methods) > 0 {
			v.methods = methods
		}
	}
}

// WithVerifierLogger sets the logger.
func WithVerifierLogger(logger Logger) VerifierOption {
	return func(v *JWTVerifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// NewKeyfuncVerifier creates a verifier around an arbitrary jwt.Keyfunc.
func NewKeyfuncVerifier(kf jwt.Keyfunc, opts ...VerifierOption) *JWTVerifier {
	v := &JWTVerifier{
		keyFunc: kf,
		logger:  defLogger(),
		methods: []string{jwt.SigningMethodRS256.Alg()},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// NewHMACVerifier creates a verifier for HS256 signed tokens.
func NewHMACVerifier(signingKey []byte, opts ...VerifierOption) *JWTVerifier {
	kf := func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return signingKey, nil
	}
	opts = append([]VerifierOption{WithVerifierMethods(jwt.SigningMethodHS256.Alg())}, opts...)
	return NewKeyfuncVerifier(kf, opts...)
}

// NewJWKSVerifier creates a verifier that fetches and refreshes keys from a
// JWKS endpoint. Call Close to stop the background refresh.
func NewJWKSVerifier(jwksURL string, opts ...VerifierOption) (*JWTVerifier, error) {
	v := NewKeyfuncVerifier(nil, opts...)

	jwks, err := keyfunc.Get(jwksURL, keyfuncOptions(v.logger))
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load JWKS").
			WithMetadata(map[string]any{"jwks_url": jwksURL})
	}

	v.jwks = jwks
	v.keyFunc = jwks.Keyfunc
	return v, nil
}

// NewJWKSVerifierFromJSON creates a verifier from a static JWKS document.
func NewJWKSVerifierFromJSON(raw json.RawMessage, opts ...VerifierOption) (*JWTVerifier, error) {
	jwks, err := keyfunc.NewJSON(raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid JWKS document")
	}
	v := NewKeyfuncVerifier(jwks.Keyfunc, opts...)
	v.jwks = jwks
	return v, nil
}

func keyfuncOptions(logger Logger) keyfunc.Options {
	return keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			logger.Error("failed to do a background refresh of JWKS", "error", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}
}

// Close stops background JWKS refreshes, if any.
func (v *JWTVerifier) Close() {
	if v != nil && v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// Verify parses and validates a token string, returning session claims
func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (*SessionClaims, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if v.keyFunc == nil {
		return nil, ErrVerifierMissing
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithIssuedAt(),
	}
	if v.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(v.issuer))
	}
	if v.leeway > 0 {
		parserOptions = append(parserOptions, jwt.WithLeeway(v.leeway))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, v.keyFunc, parserOptions...)
	if err != nil {
		return nil, normalizeVerifyError(err)
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		if !v.audienceAllowed(claims.Audience) {
			return nil, normalizeVerifyError(jwt.ErrTokenInvalidAudience)
		}
		return claims, nil
	}

	v.logger.Error("verifier could not decode or validate claims")
	return nil, ErrTokenMalformed
}

// audienceAllowed reports whether aud holds one of the configured
// audiences. No configured audience accepts any token.
func (v *JWTVerifier) audienceAllowed(aud jwt.ClaimStrings) bool {
	if len(v.audience) == 0 {
		return true
	}
	for _, want := range v.audience {
		if want != "" && slices.Contains(aud, want) {
			return true
		}
	}
	return false
}

func normalizeVerifyError(err error) error {
	base := ErrTokenMalformed
	if errors.Is(err, jwt.ErrTokenExpired) {
		base = ErrTokenExpired
	}

	clone := base.Clone()
	if clone == nil {
		return err
	}
	clone.Source = err
	return clone.WithMetadata(map[string]any{
		"cause": err.Error(),
	})
}

// ConfigVerifierOptions maps the issuer, audience and clock skew settings of
// cfg to verifier options.
func ConfigVerifierOptions(cfg Config) []VerifierOption {
	if cfg == nil {
		return nil
	}
	opts := []VerifierOption{WithVerifierLeeway(cfg.GetClockSkew())}
	if issuer := cfg.GetIssuer(); issuer != "" {
		opts = append(opts, WithVerifierIssuer(issuer))
	}
	if audience := cfg.GetAudience(); len(audience) > 0 {
		opts = append(opts, WithVerifierAudience(audience...))
	}
	return opts
}
