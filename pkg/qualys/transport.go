// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package qualys

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/qualys-vmdr/internal/httputil"
)

// Request is one logical API call.
type Request struct {
	// Module and Endpoint select the call shape (see LookupEndpoint).
	Module   string
	Endpoint string

	// Params are sent in the query string or the form body, as the
	// endpoint's Placement dictates.
	Params url.Values

	// Headers are added to the request verbatim.
	Headers http.Header
}

// Transport executes API calls and returns the raw response body.
type Transport interface {
	Call(ctx context.Context, auth *BasicAuth, req Request) ([]byte, error)
}

// HTTPTransport sends calls over HTTP with basic authentication.
type HTTPTransport struct{}

// Call resolves req against the endpoint table and sends it once. Non-2xx
// responses fail: a SIMPLE_RETURN body becomes an *APIError wrapping the
// *httputil.HTTPError, anything else is the *httputil.HTTPError itself.
func (HTTPTransport) Call(ctx context.Context, auth *BasicAuth, req Request) ([]byte, error) {
	ep, err := LookupEndpoint(req.Module, req.Endpoint)
	if err != nil {
		return nil, err
	}

	u := auth.baseURL + ep.Path
	var body io.Reader
	encoded := req.Params.Encode()
	switch ep.Placement {
	case InQuery:
		if encoded != "" {
			u += "?" + encoded
		}
	case InBody:
		body = strings.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, ep.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: building request: %w", req.Module, req.Endpoint, err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	httpReq.SetBasicAuth(auth.Username, auth.password)
	httpReq.Header.Set("User-Agent", auth.userAgent)
	for key, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	start := time.Now()
	resp, err := httputil.Do(ctx, auth.client, httpReq)
	event := auth.logger.Debug().
		Str("module", req.Module).
		Str("endpoint", req.Endpoint).
		Str("method", ep.Method).
		Dur("elapsed", time.Since(start))
	if resp != nil {
		event = event.Int("status", resp.StatusCode).Int("bytes", len(resp.Body))
	}
	event.Msg("qualys call")

	if err != nil {
		var httpErr *httputil.HTTPError
		if errors.As(err, &httpErr) {
			if apiErr := simpleReturnFromBody(httpErr.Body); apiErr != nil {
				apiErr.StatusCode = httpErr.StatusCode
				apiErr.Err = httpErr
				return nil, apiErr
			}
		}
		return nil, fmt.Errorf("%s/%s: %w", req.Module, req.Endpoint, err)
	}
	return resp.Body, nil
}
