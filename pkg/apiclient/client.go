// Package apiclient sends API requests for tests, optionally authorized with
// a bearer token.
//
// Token variants take their Authorization header from the TokenSource given
// to New when that source has API credentials configured, typically an
// *auth.Session. Otherwise the client keeps its own token cache, filled by
// posting the credential fixture to <baseURL>/login. The two caches never
// mix.
package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/entrhq/pwharness/pkg/fixture"
	"github.com/entrhq/pwharness/pkg/logging"
	"github.com/entrhq/pwharness/pkg/token"
	"github.com/entrhq/pwharness/pkg/transport"
)

// DefaultLoginPath is where the fallback cache fetches tokens.
const DefaultLoginPath = "/login"

// TokenSource supplies bearer headers.
type TokenSource interface {
	HasAPICredentials() bool
	APIAuthHeaders(ctx context.Context) (map[string]string, error)
}

// Client wraps the HTTP verbs against one API base URL.
type Client struct {
	baseURL  string
	doer     transport.Doer
	source   TokenSource
	fallback *token.Cache
	logger   *logging.Logger

	fixture     token.Loader
	tokenFields []string
}

// Option configures a Client.
type Option func(*Client)

// WithDoer replaces the default HTTP transport.
func WithDoer(d transport.Doer) Option {
	return func(c *Client) { c.doer = d }
}

// WithTokenSource makes token variants use the source's token.
func WithTokenSource(s TokenSource) Option {
	return func(c *Client) { c.source = s }
}

// WithFixture sets the payload posted by the fallback token fetch.
func WithFixture(l token.Loader) Option {
	return func(c *Client) { c.fixture = l }
}

// WithTokenFields overrides the fields probed by the fallback token fetch.
func WithTokenFields(fields []string) Option {
	return func(c *Client) { c.tokenFields = fields }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.doer == nil {
		d, err := transport.NewHTTPDoer(transport.Options{Logger: c.logger})
		if err != nil {
			return nil, err
		}
		c.doer = d
	}
	if c.fixture == nil {
		c.fixture = fixture.NewFile(fixture.DefaultPath)
	}

	c.fallback = token.NewCache(c.doer, c.fixture, token.Options{
		Fields: c.tokenFields,
		Logger: c.logger,
	})
	c.fallback.Configure(c.baseURL, DefaultLoginPath)
	return c, nil
}

// AuthHeaders returns the bearer header, from the token source when it is
// configured and from the client's own cache otherwise.
func (c *Client) AuthHeaders(ctx context.Context) (map[string]string, error) {
	if c.source != nil && c.source.HasAPICredentials() {
		return c.source.APIAuthHeaders(ctx)
	}
	return c.fallback.Headers(ctx)
}

// ClearToken drops the client's own cached token. A token source's cache is untouched.
func (c *Client) ClearToken() {
	c.fallback.Clear()
}

// Get sends GET <baseURL><endpoint>.
func (c *Client) Get(ctx context.Context, endpoint string, headers map[string]string) (*transport.Response, error) {
	return c.send(ctx, http.MethodGet, endpoint, nil, nil, headers, false)
}

// GetWithQuery sends GET with query parameters.
func (c *Client) GetWithQuery(ctx context.Context, endpoint string, query url.Values, headers map[string]string) (*transport.Response, error) {
	return c.send(ctx, http.MethodGet, endpoint, query, nil, headers, false)
}

// GetWithToken sends an authorized GET.
func (c *Client) GetWithToken(ctx context.Context, endpoint string, headers map[string]string) (*transport.Response, error) {
	return c.send(ctx, http.MethodGet, endpoint, nil, nil, headers, true)
}

// GetWithTokenAndQuery sends an authorized GET with query parameters.
func (c *Client) GetWithTokenAndQuery(ctx context.Context, endpoint string, query url.Values, headers map[string]string) (*transport.Response, error) {
	return c.send(ctx, http.MethodGet, endpoint, query, nil, headers, true)
}

// Post sends POST with a JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, body any, headers map[string]string) (*transport.Response, error) {
	return c.send(ctx, http.MethodPost, endpoint, nil, body, headers, false)
}

// PostWithQuery sends POST with query parameters and a JSON body.
func (c *Client) PostWithQuery(ctx context.Context, endpoint string, query url.Values, body any, headers map[string]string) (*transport.Response, error) {
	return c.send(ctx, http.MethodPost, endpoint, query, body, headers, false)
}

// PostWithToken sends an authorized POST.
func (c *Client) PostWithToken(ctx context.Context, endpoint string, body any, headers map[string]string) (*transport.Response, error) {
	return c.send(ctx, http.MethodPost, endpoint, nil, body, headers, true)
}

// PostWithTokenAndQuery sends an authorized POST with query parameters.
func (c *Client) PostWithTokenAndQuery(ctx context.Context, endpoint string, query url.Values, body any, headers map[string]string) (*transport.Response, error) {
	return c.send(ctx, http.MethodPost, endpoint, query, body, headers, true)
}

// Put sends PUT with a JSON body.
func (c *Client) Put(ctx context.Context, endpoint string, body any, headers map[string]string) (*transport.Response, error) {
	return c.send(ctx, http.MethodPut, endpoint, nil, body, headers, false)
}

// PutWithToken sends an authorized PUT.
func (c *Client) PutWithToken(ctx context.Context, endpoint string, body any, headers map[string]string) (*transport.Response, error) {
	return c.send(ctx, http.MethodPut, endpoint, nil, body, headers, true)
}

// Patch sends PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, endpoint string, body any, headers map[string]string) (*transport.Response, error) {
	return c.send(ctx, http.MethodPatch, endpoint, nil, body, headers, false)
}

// PatchWithToken sends an authorized PATCH.
func (c *Client) PatchWithToken(ctx context.Context, endpoint string, body any, headers map[string]string) (*transport.Response, error) {
	return c.send(ctx, http.MethodPatch, endpoint, nil, body, headers, true)
}

// Delete sends DELETE.
func (c *Client) Delete(ctx context.Context, endpoint string, headers map[string]string) (*transport.Response, error) {
	return c.send(ctx, http.MethodDelete, endpoint, nil, nil, headers, false)
}

// DeleteWithToken sends an authorized DELETE.
func (c *Client) DeleteWithToken(ctx context.Context, endpoint string, headers map[string]string) (*transport.Response, error) {
	return c.send(ctx, http.MethodDelete, endpoint, nil, nil, headers, true)
}

func (c *Client) send(ctx context.Context, method, endpoint string, query url.Values, body any, headers map[string]string, withToken bool) (*transport.Response, error) {
	merged := make(map[string]string, len(headers)+1)
	if withToken {
		auth, err := c.AuthHeaders(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get auth headers: %w", err)
		}
		for k, v := range auth {
			merged[http.CanonicalHeaderKey(k)] = v
		}
	}
	// caller headers win on collision
	for k, v := range headers {
		merged[http.CanonicalHeaderKey(k)] = v
	}

	c.logger.Debugf("%s %s%s", method, c.baseURL, endpoint)
	return c.doer.Do(ctx, &transport.Request{
		Method: method,
		URL:    c.baseURL + endpoint,
		Query:  query,
		Header: merged,
		Body:   body,
	})
}
