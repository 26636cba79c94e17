package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"ENVIRONMENT",
		"LOG_LEVEL",
		"LISTEN_ADDR",
		"AUTH_JWKS_URL",
		"AUTH_HMAC_SECRET",
		"AUTH_ISSUER",
		"AUTH_AUDIENCE",
		"AUTH_AUTHORIZED_PARTIES",
		"AUTH_VERIFY_TIMEOUT",
		"AUTH_CLOCK_SKEW",
		"AUTH_TIMEOUT_STATUS",
		"AUTH_HYDRATION_TIMEOUT",
		"AUTH_BACKEND_URL",
		"AUTH_SECRET_KEY",
		"REDIS_ADDR",
		"CHALLENGE_TTL",
		"CHALLENGE_MAX_ATTEMPTS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("AUTH_HMAC_SECRET", "secret")

	cfg, err := Load(writeEnvFile(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 2*time.Second, cfg.GetVerifyTimeout())
	assert.Equal(t, 5*time.Second, cfg.GetClockSkew())
	assert.Equal(t, 3*time.Second, cfg.GetHydrationTimeout())
	assert.Equal(t, "interstitial", cfg.GetTimeoutStatus())
	assert.Equal(t, 10*time.Minute, cfg.ChallengeTTL)
	assert.Equal(t, 3, cfg.ChallengeMaxAttempts)
	assert.Empty(t, cfg.GetAudience())
	assert.False(t, cfg.HydrationEnabled())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnvFile(t *testing.T) {
	clearConfigEnv(t)

	path := writeEnvFile(t, `
AUTH_JWKS_URL=https://clerk.example.com/.well-known/jwks.json
AUTH_ISSUER=https://clerk.example.com
AUTH_AUDIENCE=app, api
AUTH_AUTHORIZED_PARTIES=https://app.example.com,
AUTH_TIMEOUT_STATUS=signed_out
AUTH_SECRET_KEY=sk_test
ENVIRONMENT=production
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://clerk.example.com", cfg.GetIssuer())
	assert.Equal(t, []string{"app", "api"}, cfg.GetAudience())
	assert.Equal(t, []string{"https://app.example.com"}, cfg.GetAuthorizedParties())
	assert.Equal(t, "signed_out", cfg.GetTimeoutStatus())
	assert.True(t, cfg.HydrationEnabled())
	assert.True(t, cfg.IsProduction())
}

func TestLoad_MissingEnvFile(t *testing.T) {
	clearConfigEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoad_RequiresVerifierSource(t *testing.T) {
	clearConfigEnv(t)
	_, err := Load(writeEnvFile(t, ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWKS_URL")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment:   "test",
			LogLevel:      "info",
			ListenAddr:    ":0",
			HMACSecret:    "secret",
			BackendURL:    "https://api.example.com",
			TimeoutStatus: "interstitial",
		}
	}

	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"bad timeout status": func(c *Config) { c.TimeoutStatus = "signed_in" },
		"bad environment":    func(c *Config) { c.Environment = "staging" },
		"bad jwks url":       func(c *Config) { c.JWKSURL = "not a url" },
		"negative timeout":   func(c *Config) { c.VerifyTimeout = -time.Second },
		"negative attempts":  func(c *Config) { c.ChallengeMaxAttempts = -1 },
		"missing listen":     func(c *Config) { c.ListenAddr = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.NotNil(t, (&Config{}).NewLogger())
}
