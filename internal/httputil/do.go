// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil executes single HTTP exchanges against the Qualys API and
// turns non-2xx responses into typed errors.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// Headers Qualys attaches to every API response. They are captured for the
// caller and never acted on.
const (
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitToWaitSec = "X-RateLimit-ToWait-Sec"
	HeaderConcurrencyRunning = "X-Concurrency-Limit-Running"
)

// errorBodyLimit bounds how much of a failed response body Error() prints.
const errorBodyLimit = 512

// Response is a completed exchange with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// HTTPError reports a non-2xx response.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       []byte

	// RateLimitRemaining, RateLimitToWaitSec and ConcurrencyRunning hold the
	// Qualys throttling headers when the response carried them.
	RateLimitRemaining *int
	RateLimitToWaitSec *int
	ConcurrencyRunning *int
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > errorBodyLimit {
		body = body[:errorBodyLimit] + "..."
	}
	if body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, body)
}

// RateLimited reports whether the response was a 409 or 429 throttling reply.
func (e *HTTPError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusConflict
}

// Do sends req once and reads the whole body. A non-2xx status returns a
// *HTTPError alongside the Response so callers can inspect either. There is
// no retry: a throttled call surfaces to the caller as is.
func Do(ctx context.Context, client *http.Client, req *http.Request) (*Response, error) {
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, &HTTPError{
			StatusCode:         resp.StatusCode,
			Status:             resp.Status,
			Body:               body,
			RateLimitRemaining: headerInt(resp.Header, HeaderRateLimitRemaining),
			RateLimitToWaitSec: headerInt(resp.Header, HeaderRateLimitToWaitSec),
			ConcurrencyRunning: headerInt(resp.Header, HeaderConcurrencyRunning),
		}
	}
	return out, nil
}

func headerInt(h http.Header, key string) *int {
	v := strings.TrimSpace(h.Get(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}
