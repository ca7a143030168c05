package gateway

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/spiffcs/issuewatch/internal/constants"
	"github.com/spiffcs/issuewatch/internal/log"
)

// rateLimitState tracks the quota reported by one platform.
type rateLimitState struct {
	mu        sync.RWMutex
	limited   bool
	resetAt   time.Time
	remaining int
	limit     int
}

// IsLimited returns true if we are currently rate limited.
func (s *rateLimitState) IsLimited() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.limited {
		return false
	}
	return time.Now().Before(s.resetAt)
}

// SetLimited marks the quota as exhausted until resetAt.
func (s *rateLimitState) SetLimited(resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limited = true
	s.resetAt = resetAt
}

// Update records the quota from response headers.
func (s *rateLimitState) Update(remaining, limit int, resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining = remaining
	s.limit = limit
	s.resetAt = resetAt
	s.limited = remaining == 0
}

// rateLimitTransport wraps an http.RoundTripper to stop issuing requests
// once the platform reports an exhausted quota.
type rateLimitTransport struct {
	base   http.RoundTripper
	state  *rateLimitState
	prefix string // header prefix, "X-RateLimit-" on GitHub and "RateLimit-" on GitLab
}

func newRateLimitTransport(base http.RoundTripper, prefix string) *rateLimitTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &rateLimitTransport{
		base:   base,
		state:  &rateLimitState{},
		prefix: prefix,
	}
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.state.IsLimited() {
		return nil, ErrRateLimited
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	remaining, limit, resetAt := t.parseHeaders(resp)
	if remaining >= 0 && limit > 0 {
		t.state.Update(remaining, limit, resetAt)
	}

	if remaining <= constants.RateLimitLowWatermark && remaining > 0 {
		log.Debug("rate limit low", "remaining", remaining, "resets_at", resetAt.Format(time.RFC3339))
	}

	if resp.StatusCode == http.StatusTooManyRequests ||
		(resp.StatusCode == http.StatusForbidden && remaining == 0) {
		if resetAt.IsZero() {
			resetAt = time.Now().Add(time.Minute)
		}
		t.state.SetLimited(resetAt)
		log.Warn("rate limit exceeded", "resets_at", resetAt.Format(time.RFC3339))
		_ = resp.Body.Close()
		return nil, ErrRateLimited
	}

	return resp, nil
}

// parseHeaders extracts rate limit info from response headers.
func (t *rateLimitTransport) parseHeaders(resp *http.Response) (remaining, limit int, resetAt time.Time) {
	remaining = -1
	limit = -1

	if v := resp.Header.Get(t.prefix + "Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			remaining = n
		}
	}

	if v := resp.Header.Get(t.prefix + "Limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	if v := resp.Header.Get(t.prefix + "Reset"); v != "" {
		if unix, err := strconv.ParseInt(v, 10, 64); err == nil {
			resetAt = time.Unix(unix, 0)
		}
	}

	return remaining, limit, resetAt
}
