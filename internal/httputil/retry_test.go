// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Use a tiny base delay so tests finish quickly.
	RetryBaseDelay = 1 * time.Millisecond
}

// scriptedServer answers with statuses in order and repeats the last one.
func scriptedServer(t *testing.T, statuses ...int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(atomic.AddInt32(&calls, 1))
		if n > len(statuses) {
			n = len(statuses)
		}
		w.WriteHeader(statuses[n-1])
	}))
	t.Cleanup(ts.Close)
	return ts, &calls
}

func TestDoWithRetry(t *testing.T) {
	tests := []struct {
		name       string
		statuses   []int
		maxRetries int
		wantStatus int
		wantCalls  int32
	}{
		{"immediate success", []int{200}, 5, 200, 1},
		{"throttled twice", []int{429, 429, 200}, 5, 200, 3},
		{"unavailable once", []int{503, 200}, 3, 200, 2},
		{"exhausts retries", []int{429}, 3, 429, 4},
		{"default retries", []int{429}, 0, 429, 6},
		{"server error not retried", []int{500, 200}, 5, 500, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, calls := scriptedServer(t, tt.statuses...)

			req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
			require.NoError(t, err)

			resp, err := DoWithRetry(context.Background(), ts.Client(), req, tt.maxRetries)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(calls))
		})
	}
}

func TestDoWithRetry_ContextCancelled(t *testing.T) {
	ts, _ := scriptedServer(t, http.StatusTooManyRequests)

	// Use a longer base delay so the context cancels during the wait.
	old := RetryBaseDelay
	RetryBaseDelay = 500 * time.Millisecond
	defer func() { RetryBaseDelay = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	_, err = DoWithRetry(ctx, ts.Client(), req, 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDoWithRetry_ReplaysBody(t *testing.T) {
	var calls int32
	var bodies []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL, strings.NewReader(`{"ids":["a"]}`))
	require.NoError(t, err)

	resp, err := DoWithRetry(context.Background(), ts.Client(), req, 3)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, []string{`{"ids":["a"]}`, `{"ids":["a"]}`}, bodies)
}

func TestBackoff(t *testing.T) {
	old := RetryBaseDelay
	RetryBaseDelay = time.Second
	defer func() { RetryBaseDelay = old }()

	assert.Equal(t, time.Second, backoff(0, ""))
	assert.Equal(t, 4*time.Second, backoff(2, ""))
	assert.Equal(t, 7*time.Second, backoff(0, "7"))
	assert.Equal(t, 2*time.Second, backoff(1, "soon"))
	assert.Equal(t, MaxRetryDelay, backoff(0, "100000"))
}

func TestClient_SetsUserAgentAndLimits(t *testing.T) {
	var agents []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents = append(agents, r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := NewClient(time.Second, 1000, "roadmap-engine/test")
	require.NotNil(t, c.Limiter)

	for i := 0; i < 3; i++ {
		req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
		require.NoError(t, err)
		resp, err := c.Do(context.Background(), req)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.Equal(t, []string{"roadmap-engine/test", "roadmap-engine/test", "roadmap-engine/test"}, agents)
}

func TestClient_CancelledWhileWaiting(t *testing.T) {
	c := NewClient(time.Second, 0.001, "")
	require.True(t, c.Limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, err := http.NewRequest(http.MethodGet, "http://127.0.0.1:0", nil)
	require.NoError(t, err)

	_, err = c.Do(ctx, req)
	assert.Error(t, err)
}
