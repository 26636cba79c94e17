// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	auth "github.com/goliatone/go-auth-state"
	"github.com/joho/godotenv"
)

// Config holds environment based settings for the resolver, the backend
// client, the challenge store and the demo server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	ListenAddr  string `env:"LISTEN_ADDR" envDefault:":8080"`

	// One of JWKSURL or HMACSecret is required.
	JWKSURL    string `env:"AUTH_JWKS_URL"`
	HMACSecret string `env:"AUTH_HMAC_SECRET"`

	Issuer            string        `env:"AUTH_ISSUER"`
	Audience          []string      `env:"AUTH_AUDIENCE" envSeparator:","`
	AuthorizedParties []string      `env:"AUTH_AUTHORIZED_PARTIES" envSeparator:","`
	VerifyTimeout     time.Duration `env:"AUTH_VERIFY_TIMEOUT" envDefault:"2s"`
	ClockSkew         time.Duration `env:"AUTH_CLOCK_SKEW" envDefault:"5s"`
	TimeoutStatus     string        `env:"AUTH_TIMEOUT_STATUS" envDefault:"interstitial"`
	HydrationTimeout  time.Duration `env:"AUTH_HYDRATION_TIMEOUT" envDefault:"3s"`

	// Hosted backend API used for hydration. Hydration is off without a key.
	BackendURL string `env:"AUTH_BACKEND_URL" envDefault:"https://api.clerk.com"`
	SecretKey  string `env:"AUTH_SECRET_KEY"`

	// Challenge sessions live in memory unless RedisAddr is set.
	RedisAddr            string        `env:"REDIS_ADDR"`
	ChallengeTTL         time.Duration `env:"CHALLENGE_TTL" envDefault:"10m"`
	ChallengeMaxAttempts int           `env:"CHALLENGE_MAX_ATTEMPTS" envDefault:"3"`
}

var _ auth.Config = (*Config)(nil)

// Load reads an optional .env file and parses the environment. When files
// are given they must exist.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(files...); err != nil {
		return nil, fmt.Errorf("loading env files: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks field values and cross field requirements.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Environment, validation.In("development", "production", "test")),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.ListenAddr, validation.Required),
		validation.Field(&c.JWKSURL, is.URL),
		validation.Field(&c.BackendURL, validation.Required, is.URL),
		validation.Field(&c.TimeoutStatus, validation.In(
			string(auth.StatusInterstitial),
			string(auth.StatusSignedOut),
		)),
		validation.Field(&c.VerifyTimeout, validation.By(nonNegative)),
		validation.Field(&c.ClockSkew, validation.By(nonNegative)),
		validation.Field(&c.HydrationTimeout, validation.By(nonNegative)),
		validation.Field(&c.ChallengeTTL, validation.By(nonNegative)),
		validation.Field(&c.ChallengeMaxAttempts, validation.By(func(value interface{}) error {
			if n, _ := value.(int); n < 0 {
				return fmt.Errorf("must not be negative")
			}
			return nil
		})),
	)
	if err != nil {
		return err
	}

	if c.JWKSURL == "" && c.HMACSecret == "" {
		return fmt.Errorf("one of AUTH_JWKS_URL or AUTH_HMAC_SECRET is required")
	}

	return nil
}

func nonNegative(value interface{}) error {
	if d, _ := value.(time.Duration); d < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

// IsProduction reports whether the environment is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HydrationEnabled reports whether a backend secret key is configured.
func (c *Config) HydrationEnabled() bool {
	return c.SecretKey != ""
}

func (c *Config) GetIssuer() string {
	return c.Issuer
}

func (c *Config) GetAudience() []string {
	return trimList(c.Audience)
}

func (c *Config) GetAuthorizedParties() []string {
	return trimList(c.AuthorizedParties)
}

func (c *Config) GetVerifyTimeout() time.Duration {
	return c.VerifyTimeout
}

func (c *Config) GetClockSkew() time.Duration {
	return c.ClockSkew
}

func (c *Config) GetTimeoutStatus() string {
	return c.TimeoutStatus
}

func (c *Config) GetHydrationTimeout() time.Duration {
	return c.HydrationTimeout
}

// NewLogger builds the process logger: JSON in production, text otherwise.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.LogLevel)}
	if c.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func trimList(in []string) []string {
	var out []string
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
