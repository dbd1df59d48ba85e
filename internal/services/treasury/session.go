package treasury

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// rateLimitCooldown is how long a rate-limited session fetch is negatively
// cached before another attempt is allowed.
const rateLimitCooldown = 5 * time.Second

// sessionSource acquires and caches the gateway session token. Concurrent
// callers coalesce into one outstanding fetch via singleflight, and a
// rate-limited response is cached briefly so a worker stampede cannot
// hammer the gateway's auth endpoint.
type sessionSource struct {
	baseURL string
	apiKey  string
	ttl     time.Duration
	client  *http.Client
	group   singleflight.Group

	mu           sync.Mutex
	token        string
	expiresAt    time.Time
	rateLimitedAt time.Time
}

func newSessionSource(baseURL, apiKey string, ttl time.Duration, client *http.Client) *sessionSource {
	return &sessionSource{
		baseURL: baseURL,
		apiKey:  apiKey,
		ttl:     ttl,
		client:  client,
	}
}

// Token returns a valid session token, fetching one if needed.
func (s *sessionSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.token != "" && time.Now().Before(s.expiresAt) {
		token := s.token
		s.mu.Unlock()
		return token, nil
	}
	if !s.rateLimitedAt.IsZero() && time.Since(s.rateLimitedAt) < rateLimitCooldown {
		s.mu.Unlock()
		return "", &TransientError{Reason: "session endpoint rate limited"}
	}
	s.mu.Unlock()

	result, err, _ := s.group.Do("session", func() (interface{}, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Invalidate drops the cached token, typically after a 401.
func (s *sessionSource) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()
}

func (s *sessionSource) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(s.baseURL, "/")+"/v1/sessions", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-API-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &TransientError{Reason: fmt.Sprintf("session fetch failed: %v", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		s.mu.Lock()
		s.rateLimitedAt = time.Now()
		s.mu.Unlock()
		return "", &TransientError{Reason: "session endpoint rate limited"}
	case resp.StatusCode >= 500:
		return "", &TransientError{Reason: fmt.Sprintf("session endpoint returned %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
		return "", &PermanentError{Reason: fmt.Sprintf("session endpoint returned %d", resp.StatusCode)}
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &TransientError{Reason: fmt.Sprintf("failed to decode session: %v", err)}
	}
	if payload.Token == "" {
		return "", &PermanentError{Reason: "session endpoint returned empty token"}
	}

	s.mu.Lock()
	s.token = payload.Token
	s.expiresAt = time.Now().Add(s.ttl)
	s.rateLimitedAt = time.Time{}
	s.mu.Unlock()

	return payload.Token, nil
}
