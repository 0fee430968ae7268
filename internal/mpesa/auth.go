package mpesa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// TokenProvider supplies a bearer credential for gateway calls.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// OAuthTokenProvider fetches client-credentials tokens from Daraja and
// caches them until shortly before expiry. Safe for concurrent use.
type OAuthTokenProvider struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	httpClient     *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// expirySkew is subtracted from the advertised lifetime so a token is
// never handed out moments before the gateway rejects it.
const expirySkew = 30 * time.Second

func NewOAuthTokenProvider(baseURL, consumerKey, consumerSecret string) *OAuthTokenProvider {
	return &OAuthTokenProvider{
		baseURL:        baseURL,
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *OAuthTokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && time.Now().Before(p.expiresAt) {
		return p.token, nil
	}

	url := p.baseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("oauth request: %w", err)
	}
	req.SetBasicAuth(p.consumerKey, p.consumerSecret)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("oauth request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oauth failed: http=%d body=%s", resp.StatusCode, string(raw))
	}

	var res struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", fmt.Errorf("oauth decode: %w body=%s", err, string(raw))
	}
	if res.AccessToken == "" {
		return "", fmt.Errorf("oauth response missing access_token: body=%s", string(raw))
	}

	// Daraja reports expires_in as a string of seconds ("3599").
	lifetime := time.Hour
	if secs, err := strconv.Atoi(res.ExpiresIn); err == nil && secs > 0 {
		lifetime = time.Duration(secs) * time.Second
	}

	p.token = res.AccessToken
	p.expiresAt = time.Now().Add(lifetime - expirySkew)

	return p.token, nil
}
