// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package qualys

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/qualys-vmdr/internal/httputil"
)

type capturedRequest struct {
	method      string
	path        string
	query       url.Values
	form        url.Values
	user, pass  string
	contentType string
	headers     http.Header
}

func newTestAuth(t *testing.T, handler func(w http.ResponseWriter)) (*BasicAuth, *capturedRequest) {
	t.Helper()
	got := &capturedRequest{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.query = r.URL.Query()
		got.user, got.pass, _ = r.BasicAuth()
		got.contentType = r.Header.Get("Content-Type")
		got.headers = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		got.form, _ = url.ParseQuery(string(body))
		handler(w)
	}))
	t.Cleanup(ts.Close)

	auth, err := NewBasicAuth("acme_ab12", "s3cret", WithBaseURL(ts.URL), WithHTTPClient(ts.Client()), WithUserAgent("vmdr-test"))
	require.NoError(t, err)
	return auth, got
}

func TestHTTPTransportQueryPlacement(t *testing.T) {
	auth, got := newTestAuth(t, func(w http.ResponseWriter) {
		w.Write([]byte("<REPORT_LIST_OUTPUT/>"))
	})

	body, err := auth.Call(context.Background(), Request{
		Module:   "vmdr",
		Endpoint: "get_report_list",
		Params:   url.Values{"action": {"list"}, "state": {"Finished"}},
		Headers:  http.Header{"X-Requested-With": {"qualys-vmdr SDK"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "<REPORT_LIST_OUTPUT/>", string(body))

	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/api/2.0/fo/report/", got.path)
	assert.Equal(t, "list", got.query.Get("action"))
	assert.Equal(t, "Finished", got.query.Get("state"))
	assert.Empty(t, got.form)
	assert.Equal(t, "acme_ab12", got.user)
	assert.Equal(t, "s3cret", got.pass)
	assert.Equal(t, "qualys-vmdr SDK", got.headers.Get("X-Requested-With"))
	assert.Equal(t, "vmdr-test", got.headers.Get("User-Agent"))
}

func TestHTTPTransportBodyPlacement(t *testing.T) {
	auth, got := newTestAuth(t, func(w http.ResponseWriter) {
		w.Write([]byte("<SIMPLE_RETURN/>"))
	})

	_, err := auth.Call(context.Background(), Request{
		Module:   "vmdr",
		Endpoint: "launch_report",
		Params:   url.Values{"action": {"launch"}, "template_id": {"91"}},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Empty(t, got.query)
	assert.Equal(t, "application/x-www-form-urlencoded", got.contentType)
	assert.Equal(t, "launch", got.form.Get("action"))
	assert.Equal(t, "91", got.form.Get("template_id"))
}

func TestHTTPTransportTemplateEndpoint(t *testing.T) {
	auth, got := newTestAuth(t, func(w http.ResponseWriter) {
		w.Write([]byte("<REPORT_TEMPLATE_LIST/>"))
	})

	_, err := auth.Call(context.Background(), Request{Module: "vmdr", Endpoint: "get_template_list"})
	require.NoError(t, err)
	assert.Equal(t, "/msp/report_template_list.php", got.path)
	assert.Empty(t, got.query)
}

func TestHTTPTransportSimpleReturnOnErrorStatus(t *testing.T) {
	auth, _ := newTestAuth(t, func(w http.ResponseWriter) {
		w.Header().Set(httputil.HeaderConcurrencyRunning, "2")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`<SIMPLE_RETURN><RESPONSE><CODE>1960</CODE><TEXT>This API cannot be run again until 2 currently running instances have finished.</TEXT></RESPONSE></SIMPLE_RETURN>`))
	})

	_, err := auth.Call(context.Background(), Request{Module: "vmdr", Endpoint: "get_hld"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 1960, apiErr.Code)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "This API cannot be run again until 2 currently running instances have finished.", err.Error())

	var httpErr *httputil.HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.NotNil(t, httpErr.ConcurrencyRunning)
	assert.Equal(t, 2, *httpErr.ConcurrencyRunning)
}

func TestHTTPTransportPlainErrorStatus(t *testing.T) {
	auth, _ := newTestAuth(t, func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Bad Login/Password"))
	})

	_, err := auth.Call(context.Background(), Request{Module: "vmdr", Endpoint: "get_report_list"})
	var httpErr *httputil.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestHTTPTransportUnknownEndpoint(t *testing.T) {
	auth, _ := newTestAuth(t, func(w http.ResponseWriter) {})
	_, err := auth.Call(context.Background(), Request{Module: "was", Endpoint: "get_webapps"})
	assert.ErrorIs(t, err, ErrUnknownEndpoint)
}
