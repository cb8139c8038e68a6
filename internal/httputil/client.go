// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client is a polite API client: every request waits for the rate limiter,
// carries the configured User-Agent, and is retried on throttling.
type Client struct {
	HTTP       *http.Client
	Limiter    *rate.Limiter
	UserAgent  string
	MaxRetries int
	Logger     *zap.Logger
}

// NewClient returns a Client allowing rps requests per second with a burst
// of one. A non-positive rps disables limiting.
func NewClient(timeout time.Duration, rps float64, userAgent string) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	c := &Client{
		HTTP:      &http.Client{Timeout: timeout},
		UserAgent: userAgent,
		Logger:    zap.NewNop(),
	}
	if rps > 0 {
		c.Limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return c
}

// Do waits for the limiter and sends req with retries.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}
	if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	start := time.Now()
	resp, err := DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		return nil, err
	}
	if c.Logger != nil {
		c.Logger.Debug("http request",
			zap.String("method", req.Method),
			zap.String("url", req.URL.Redacted()),
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", time.Since(start)))
	}
	return resp, nil
}
