package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	auth "github.com/goliatone/go-auth-state"
	"github.com/goliatone/go-auth-state/signin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "cmd-test-secret"

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func signedToken(t *testing.T) string {
	t.Helper()
	now := time.Now()
	claims := &auth.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_1",
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		SID: "sess_1",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()

	resolver, err := auth.NewResolver(auth.NewHMACVerifier([]byte(testSecret)))
	require.NoError(t, err)

	attempter, err := newAttempter([]string{"1111-2222"}, "424242")
	require.NoError(t, err)

	return newRouter(routerDeps{
		resolver:    resolver,
		store:       signin.NewMemoryStore(),
		attempter:   attempter,
		maxAttempts: 3,
		logger:      quietLogger,
	})
}

func TestRouter_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRouter_Whoami(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t))
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		State auth.AuthState `json:"state"`
		Data  struct {
			UserID    string `json:"user_id"`
			SessionID string `json:"session_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, auth.StatusSignedIn, body.State.Status)
	assert.Equal(t, "user_1", body.Data.UserID)
	assert.Equal(t, "sess_1", body.Data.SessionID)
}

func TestRouter_ChallengeFlow(t *testing.T) {
	router := testRouter(t)

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := post("/signin/challenges/", `{"id":"sia_9","status":"needs_second_factor","supported_second_factors":[{"strategy":"totp"},{"strategy":"backup_code"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"kind":"totp"`)

	rec = post("/signin/challenges/sia_9/attempt", `{"code":"424242"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"result":"verified"`)
}

func TestNewAttempter(t *testing.T) {
	attempter, err := newAttempter([]string{"1111-2222"}, "")
	require.NoError(t, err)

	ok, err := attempter.AttemptSecondFactor(t.Context(), signin.TOTPFactor{}, "")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = attempter.AttemptSecondFactor(t.Context(), signin.BackupCodeFactor{}, "11112222")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInspectCommand(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "inspect.env")
	require.NoError(t, os.WriteFile(envFile, []byte("AUTH_HMAC_SECRET="+testSecret+"\nLOG_LEVEL=error\n"), 0o600))
	os.Unsetenv("AUTH_HMAC_SECRET")
	os.Unsetenv("AUTH_JWKS_URL")
	os.Unsetenv("AUTH_SECRET_KEY")
	t.Cleanup(func() {
		os.Unsetenv("AUTH_HMAC_SECRET")
		os.Unsetenv("LOG_LEVEL")
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"inspect", "--env-file", envFile, "--token", signedToken(t)})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), `"signed_in"`)
	assert.Contains(t, out.String(), `"user_1"`)
}
