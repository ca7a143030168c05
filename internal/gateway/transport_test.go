package gateway

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitTransportStopsWhenExhausted(t *testing.T) {
	reset := strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)

	tests := []struct {
		name    string
		prefix  string
		status  int
		headers map[string]string
	}{
		{
			name:   "github quota exhausted",
			prefix: "X-RateLimit-",
			status: http.StatusForbidden,
			headers: map[string]string{
				"X-RateLimit-Remaining": "0",
				"X-RateLimit-Limit":     "5000",
				"X-RateLimit-Reset":     reset,
			},
		},
		{
			name:   "gitlab too many requests",
			prefix: "RateLimit-",
			status: http.StatusTooManyRequests,
			headers: map[string]string{
				"RateLimit-Remaining": "0",
				"RateLimit-Limit":     "600",
				"RateLimit-Reset":     reset,
			},
		},
		{
			name:   "too many requests without headers",
			prefix: "RateLimit-",
			status: http.StatusTooManyRequests,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := &http.Client{Transport: newRateLimitTransport(nil, tt.prefix)}

			_, err := client.Get(srv.URL)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrRateLimited), "got %v", err)

			_, err = client.Get(srv.URL)
			assert.True(t, errors.Is(err, ErrRateLimited), "got %v", err)
			assert.Equal(t, 1, calls, "second request must not reach the server")
		})
	}
}

func TestRateLimitTransportPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("RateLimit-Remaining", "50")
		w.Header().Set("RateLimit-Limit", "600")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rt := newRateLimitTransport(nil, "RateLimit-")
	client := &http.Client{Transport: rt}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, rt.state.IsLimited())
}
