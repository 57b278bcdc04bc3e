package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeJSON is a helper that writes a JSON response, failing the test on error.
func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("failed to encode JSON response: %v", err)
	}
}

type fixture struct {
	dir     string
	secrets string
	token   string
}

func newFixture(t *testing.T, tokenURL string) fixture {
	t.Helper()
	dir := t.TempDir()
	secrets := filepath.Join(dir, "client_secret.json")
	content := fmt.Sprintf(`{"installed": {
		"client_id": "cid",
		"client_secret": "csecret",
		"auth_uri": "https://accounts.example.com/auth",
		"token_uri": %q,
		"redirect_uris": ["http://localhost"]
	}}`, tokenURL)
	require.NoError(t, os.WriteFile(secrets, []byte(content), 0o600))
	return fixture{dir: dir, secrets: secrets, token: filepath.Join(dir, "token.json")}
}

func writeToken(t *testing.T, path string, tok *oauth2.Token) {
	t.Helper()
	data, err := json.Marshal(tok)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func readToken(t *testing.T, path string) oauth2.Token {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var tok oauth2.Token
	require.NoError(t, json.Unmarshal(data, &tok))
	return tok
}

func TestProvider_Client_NoToken(t *testing.T) {
	f := newFixture(t, "http://127.0.0.1/token")
	p := NewProvider(f.secrets, f.token, nil, testLogger())

	_, err := p.Client(context.Background())
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.False(t, p.HasToken())
}

func TestProvider_Client_GarbageToken(t *testing.T) {
	f := newFixture(t, "http://127.0.0.1/token")
	require.NoError(t, os.WriteFile(f.token, []byte("{not json"), 0o600))
	p := NewProvider(f.secrets, f.token, nil, testLogger())

	_, err := p.Client(context.Background())
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestProvider_InvalidSecrets(t *testing.T) {
	dir := t.TempDir()
	secrets := filepath.Join(dir, "client_secret.json")
	require.NoError(t, os.WriteFile(secrets, []byte(`{}`), 0o600))

	p := NewProvider(secrets, filepath.Join(dir, "token.json"), nil, testLogger())
	_, err := p.Client(context.Background())
	assert.ErrorIs(t, err, ErrInvalidSecrets)

	p = NewProvider(filepath.Join(dir, "missing.json"), filepath.Join(dir, "token.json"), nil, testLogger())
	_, err = p.AuthCodeURL("state", "")
	assert.ErrorIs(t, err, ErrInvalidSecrets)
}

func TestProvider_AuthCodeURL(t *testing.T) {
	f := newFixture(t, "http://127.0.0.1/token")
	p := NewProvider(f.secrets, f.token, nil, testLogger())

	u, err := p.AuthCodeURL("xyz", "http://127.0.0.1:9999/callback")
	require.NoError(t, err)
	assert.Contains(t, u, "https://accounts.example.com/auth")
	assert.Contains(t, u, "client_id=cid")
	assert.Contains(t, u, "access_type=offline")
	assert.Contains(t, u, "state=xyz")
	assert.Contains(t, u, "youtube.upload")
}

func TestProvider_ExchangeThenClient(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		writeJSON(t, w, map[string]any{
			"access_token":  "at-1",
			"refresh_token": "rt-1",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	defer tokenServer.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer api.Close()

	f := newFixture(t, tokenServer.URL)
	p := NewProvider(f.secrets, f.token, nil, testLogger())

	require.NoError(t, p.Exchange(context.Background(), "the-code", "http://127.0.0.1:9999/callback"))
	assert.True(t, p.HasToken())
	assert.Equal(t, "rt-1", readToken(t, f.token).RefreshToken)

	client, err := p.Client(context.Background())
	require.NoError(t, err)
	resp, err := client.Get(api.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
}

func TestProvider_RefreshPersistsToken(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		writeJSON(t, w, map[string]any{
			"access_token": "fresh",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenServer.Close()

	var gotAuth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer api.Close()

	f := newFixture(t, tokenServer.URL)
	writeToken(t, f.token, &oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "rt",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(-time.Hour),
	})

	p := NewProvider(f.secrets, f.token, &http.Client{Timeout: time.Minute}, testLogger())
	client, err := p.Client(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Minute, client.Timeout)

	resp, err := client.Get(api.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "Bearer fresh", gotAuth)
	saved := readToken(t, f.token)
	assert.Equal(t, "fresh", saved.AccessToken)
	assert.Equal(t, "rt", saved.RefreshToken, "refresh token carried over")
}
