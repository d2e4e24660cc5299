// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package qualys holds the connection concerns shared by every Qualys API
// call: the credentials handle, the transport that executes calls, the
// endpoint table, and the errors the API can answer with.
package qualys

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/qualys-vmdr/pkg/types"
)

// DefaultPlatform is used when no platform is configured.
const DefaultPlatform = "qg1"

// platforms maps Qualys platform identifiers to their API hosts.
var platforms = map[string]string{
	"qg1":  "qualysapi.qualys.com",
	"qg2":  "qualysapi.qg2.apps.qualys.com",
	"qg3":  "qualysapi.qg3.apps.qualys.com",
	"qg4":  "qualysapi.qg4.apps.qualys.com",
	"eu1":  "qualysapi.qualys.eu",
	"eu2":  "qualysapi.qg2.apps.qualys.eu",
	"eu3":  "qualysapi.qg3.apps.qualys.it",
	"in1":  "qualysapi.qg1.apps.qualys.in",
	"ca1":  "qualysapi.qg1.apps.qualys.ca",
	"ae1":  "qualysapi.qg1.apps.qualys.ae",
	"uk1":  "qualysapi.qg1.apps.qualys.co.uk",
	"au1":  "qualysapi.qg1.apps.qualys.com.au",
	"ksa1": "qualysapi.qg1.apps.qualysksa.com",
}

// Platforms returns the known platform identifiers, sorted.
func Platforms() []string {
	out := make([]string, 0, len(platforms))
	for p := range platforms {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// BasicAuth is the credentials handle passed to every API call. It also
// carries the transport, HTTP client and logger those calls use. A
// BasicAuth is safe for concurrent use once built.
type BasicAuth struct {
	Username string
	Platform string

	password  string
	baseURL   string
	userAgent string
	client    *http.Client
	transport Transport
	logger    zerolog.Logger
}

// Option configures a BasicAuth.
type Option func(*BasicAuth)

// WithPlatform selects the Qualys platform (qg1, qg2, eu1, ...).
func WithPlatform(platform string) Option {
	return func(a *BasicAuth) {
		a.Platform = strings.ToLower(strings.TrimSpace(platform))
	}
}

// WithBaseURL overrides the API base URL derived from the platform. Private
// cloud platforms and tests use it.
func WithBaseURL(baseURL string) Option {
	return func(a *BasicAuth) {
		a.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the client HTTPTransport sends requests with.
func WithHTTPClient(client *http.Client) Option {
	return func(a *BasicAuth) {
		a.client = client
	}
}

// WithTransport replaces the transport that executes calls.
func WithTransport(t Transport) Option {
	return func(a *BasicAuth) {
		a.transport = t
	}
}

// WithLogger sets the logger calls report to. The default discards.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *BasicAuth) {
		a.logger = logger
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(a *BasicAuth) {
		a.userAgent = ua
	}
}

// NewBasicAuth builds a credentials handle for username and password.
func NewBasicAuth(username, password string, opts ...Option) (*BasicAuth, error) {
	a := &BasicAuth{
		Username:  username,
		Platform:  DefaultPlatform,
		password:  password,
		userAgent: "qualys-vmdr",
		client:    http.DefaultClient,
		transport: HTTPTransport{},
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.Username == "" || a.password == "" {
		return nil, ErrMissingCredentials
	}
	if a.baseURL == "" {
		host, ok := platforms[a.Platform]
		if !ok {
			return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownPlatform, a.Platform, strings.Join(Platforms(), ", "))
		}
		a.baseURL = "https://" + host
	}
	return a, nil
}

// NewBasicAuthFromConfig builds a credentials handle from cfg. Options are
// applied after the config, so they win.
func NewBasicAuthFromConfig(cfg types.ClientConfig, opts ...Option) (*BasicAuth, error) {
	var base []Option
	if cfg.Platform != "" {
		base = append(base, WithPlatform(cfg.Platform))
	}
	if cfg.BaseURL != "" {
		base = append(base, WithBaseURL(cfg.BaseURL))
	}
	if cfg.UserAgent != "" {
		base = append(base, WithUserAgent(cfg.UserAgent))
	}
	if cfg.Timeout > 0 {
		base = append(base, WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	return NewBasicAuth(cfg.Username, cfg.Password, append(base, opts...)...)
}

// BaseURL returns the API base URL, without a trailing slash.
func (a *BasicAuth) BaseURL() string { return a.baseURL }

// Logger returns the logger calls report to.
func (a *BasicAuth) Logger() zerolog.Logger { return a.logger }

// Call executes req with the handle's transport.
func (a *BasicAuth) Call(ctx context.Context, req Request) ([]byte, error) {
	return a.transport.Call(ctx, a, req)
}

// String identifies the handle without revealing the password.
func (a *BasicAuth) String() string {
	return fmt.Sprintf("%s@%s", a.Username, a.baseURL)
}
