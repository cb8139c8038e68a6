// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP plumbing shared by the remote
// publication sources: rate limiting, retry with backoff, and request
// bodies that survive a retry.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// RetryBaseDelay is the first backoff interval. Tests override it to avoid
// real sleeps.
var RetryBaseDelay = 10 * time.Second

// MaxRetryDelay caps a single backoff interval, including server supplied
// Retry-After values.
var MaxRetryDelay = 5 * time.Minute

const defaultMaxRetries = 5

// Retryable reports whether a response status is worth retrying: the API is
// throttling us or is temporarily unavailable.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// DoWithRetry executes req and retries on 429 and 503 responses with
// exponential backoff starting at RetryBaseDelay. A Retry-After header in
// seconds overrides the computed delay.
//
// When maxRetries is 0 the default (5) is used. Requests with a body must
// have GetBody set (http.NewRequest does this for the common reader types)
// so the body can be replayed. If ctx is cancelled during a wait, ctx.Err()
// is returned. After exhausting retries the last response is returned so
// the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		try := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewinding request body: %w", err)
			}
			try.Body = body
		}

		resp, err := client.Do(try)
		if err != nil {
			return nil, err
		}
		if !Retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		wait := backoff(attempt, resp.Header.Get("Retry-After"))
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// backoff returns the wait before retry attempt+1.
func backoff(attempt int, retryAfter string) time.Duration {
	d := RetryBaseDelay << attempt
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
		d = time.Duration(secs) * time.Second
	}
	if d > MaxRetryDelay || d < 0 {
		d = MaxRetryDelay
	}
	return d
}
