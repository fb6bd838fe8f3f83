package zoho

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/MrJamesThe3rd/dunning/internal/config"
)

// tokenTTL is shorter than the hour Zoho grants so a cached token never
// expires between being read and being used.
const tokenTTL = 3500 * time.Second

type cachedToken struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

// TokenSource hands out OAuth access tokens, refreshing them with the
// long-lived refresh token and caching them on disk between runs.
type TokenSource struct {
	cfg    config.ZohoConfig
	client *http.Client
	now    func() time.Time

	mu    sync.Mutex
	token cachedToken
}

func NewTokenSource(cfg config.ZohoConfig, client *http.Client) *TokenSource {
	return &TokenSource{cfg: cfg, client: client, now: time.Now}
}

func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.valid(s.token) {
		return s.token.AccessToken, nil
	}

	if tok, ok := s.load(); ok {
		s.token = tok
		return tok.AccessToken, nil
	}

	tok, err := s.refresh(ctx)
	if err != nil {
		return "", err
	}

	s.token = tok
	s.store(tok)

	return tok.AccessToken, nil
}

// Invalidate drops the current token, e.g. after the API rejected it.
func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = cachedToken{}

	if s.cfg.TokenFile != "" {
		_ = os.Remove(s.cfg.TokenFile)
	}
}

func (s *TokenSource) valid(t cachedToken) bool {
	return t.AccessToken != "" && s.now().Unix() < t.ExpiresAt
}

func (s *TokenSource) load() (cachedToken, bool) {
	if s.cfg.TokenFile == "" {
		return cachedToken{}, false
	}

	raw, err := os.ReadFile(s.cfg.TokenFile)
	if err != nil {
		return cachedToken{}, false
	}

	var t cachedToken
	if err := json.Unmarshal(raw, &t); err != nil {
		return cachedToken{}, false
	}

	return t, s.valid(t)
}

// store is best-effort: a token that cannot be cached is simply refreshed next run.
func (s *TokenSource) store(t cachedToken) {
	if s.cfg.TokenFile == "" {
		return
	}

	raw, err := json.Marshal(t)
	if err != nil {
		return
	}

	if err := os.MkdirAll(filepath.Dir(s.cfg.TokenFile), 0o700); err != nil {
		return
	}

	_ = os.WriteFile(s.cfg.TokenFile, raw, 0o600)
}

func (s *TokenSource) refresh(ctx context.Context) (cachedToken, error) {
	form := url.Values{
		"refresh_token": {s.cfg.RefreshToken},
		"client_id":     {s.cfg.ClientID},
		"client_secret": {s.cfg.ClientSecret},
		"grant_type":    {"refresh_token"},
	}

	endpoint := strings.TrimRight(s.cfg.AuthURL, "/") + "/oauth/v2/token"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return cachedToken{}, fmt.Errorf("creating token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return cachedToken{}, fmt.Errorf("executing token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return cachedToken{}, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return cachedToken{}, fmt.Errorf("token refresh failed with status %d: %s", resp.StatusCode, body)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		Error       string `json:"error"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return cachedToken{}, fmt.Errorf("decoding token response: %w", err)
	}

	if result.AccessToken == "" {
		return cachedToken{}, fmt.Errorf("token refresh returned no access token: %s", result.Error)
	}

	return cachedToken{
		AccessToken: result.AccessToken,
		ExpiresAt:   s.now().Add(tokenTTL).Unix(),
	}, nil
}
