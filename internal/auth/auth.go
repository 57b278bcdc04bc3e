// Package auth supplies an authorised HTTP client for the video platform.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"

	"github.com/vmunix/archivist/internal/fsx"
)

var (
	// ErrAuthRequired is returned when no cached token exists yet.
	ErrAuthRequired = errors.New("authorization required: run 'archivist auth'")

	// ErrInvalidSecrets is returned when the client secrets file cannot be used.
	ErrInvalidSecrets = errors.New("invalid client secrets")
)

// Provider loads OAuth client secrets and a cached token, and keeps the
// token file current when the token is refreshed.
type Provider struct {
	secretsPath string
	tokenPath   string
	base        *http.Client
	log         *slog.Logger
}

// NewProvider creates a provider. base carries the transport settings for
// both token refreshes and API calls; nil uses http.DefaultClient.
func NewProvider(secretsPath, tokenPath string, base *http.Client, log *slog.Logger) *Provider {
	if log == nil {
		log = slog.Default()
	}
	if base == nil {
		base = http.DefaultClient
	}
	return &Provider{
		secretsPath: secretsPath,
		tokenPath:   tokenPath,
		base:        base,
		log:         log.With("component", "auth"),
	}
}

func (p *Provider) config(redirectURL string) (*oauth2.Config, error) {
	data, err := os.ReadFile(p.secretsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecrets, err)
	}
	cfg, err := google.ConfigFromJSON(data, youtube.YoutubeUploadScope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecrets, err)
	}
	if redirectURL != "" {
		cfg.RedirectURL = redirectURL
	}
	return cfg, nil
}

// Client returns an HTTP client that authorises every request with the
// cached token, refreshing it as needed.
func (p *Provider) Client(ctx context.Context) (*http.Client, error) {
	cfg, err := p.config("")
	if err != nil {
		return nil, err
	}
	tok, err := p.loadToken()
	if err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.base)
	src := &savingSource{
		src:  cfg.TokenSource(ctx, tok),
		last: tok.AccessToken,
		save: p.saveToken,
		log:  p.log,
	}

	client := oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src))
	client.Timeout = p.base.Timeout
	return client, nil
}

// AuthCodeURL returns the consent page URL for an interactive login.
func (p *Provider) AuthCodeURL(state, redirectURL string) (string, error) {
	cfg, err := p.config(redirectURL)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// Exchange trades an authorisation code for a token and caches it.
func (p *Provider) Exchange(ctx context.Context, code, redirectURL string) error {
	cfg, err := p.config(redirectURL)
	if err != nil {
		return err
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.base)
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange code: %w", err)
	}
	return p.saveToken(tok)
}

// HasToken reports whether a cached token file exists.
func (p *Provider) HasToken() bool {
	_, err := os.Stat(p.tokenPath)
	return err == nil
}

func (p *Provider) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(p.tokenPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrAuthRequired
	}
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil || (tok.AccessToken == "" && tok.RefreshToken == "") {
		p.log.Warn("cached token unusable", "path", p.tokenPath)
		return nil, ErrAuthRequired
	}
	return &tok, nil
}

func (p *Provider) saveToken(tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := fsx.WriteFileAtomic(p.tokenPath, data, 0o600); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	p.log.Debug("token saved", "path", p.tokenPath)
	return nil
}

// savingSource persists every newly minted token.
type savingSource struct {
	mu   sync.Mutex
	src  oauth2.TokenSource
	last string
	save func(*oauth2.Token) error
	log  *slog.Logger
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := s.save(tok); err != nil {
			// The token is still usable for this run.
			s.log.Warn("could not persist refreshed token", "error", err)
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}
