// Package token fetches API bearer tokens and caches one per Cache.
//
// A Cache holds at most one token. It is fetched on the first request and
// returned unchanged until Clear or Force; there is no expiry. A Cache is
// meant for one logical test at a time and does no locking.
package token

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/entrhq/pwharness/pkg/fixture"
	"github.com/entrhq/pwharness/pkg/logging"
	"github.com/entrhq/pwharness/pkg/transport"
)

// DefaultFields are probed, in order, for the token in a login response.
var DefaultFields = []string{"token", "access_token", "jwt", "accessToken"}

// Loader supplies the credential payload posted to the login endpoint.
type Loader interface {
	Load() (fixture.Payload, error)
}

// Issuance records where and when the cached token was obtained.
type Issuance struct {
	Endpoint string
	IssuedAt time.Time
}

// Options configures NewCache.
type Options struct {
	// Fields overrides DefaultFields
	Fields []string

	Logger *logging.Logger

	// now is replaced in tests
	now func() time.Time
}

// Cache fetches and holds a bearer token.
type Cache struct {
	doer    transport.Doer
	fixture Loader
	fields  []string
	logger  *logging.Logger
	now     func() time.Time

	baseURL   string
	loginPath string

	token    string
	issuance Issuance
}

// NewCache creates an empty, unconfigured cache.
func NewCache(doer transport.Doer, fixture Loader, opts Options) *Cache {
	if len(opts.Fields) == 0 {
		opts.Fields = DefaultFields
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.now == nil {
		opts.now = time.Now
	}
	return &Cache{
		doer:    doer,
		fixture: fixture,
		fields:  append([]string(nil), opts.Fields...),
		logger:  opts.Logger,
		now:     opts.now,
	}
}

// Configure sets the API base URL and login path. A cached token is kept.
func (c *Cache) Configure(baseURL, loginPath string) {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	c.loginPath = loginPath
}

// Configured reports whether both the base URL and login path are set.
func (c *Cache) Configured() bool {
	return c.baseURL != "" && c.loginPath != ""
}

// Endpoint returns the login URL tokens are fetched from.
func (c *Cache) Endpoint() string {
	return c.baseURL + c.loginPath
}

// Token returns the cached token, fetching it on a miss.
func (c *Cache) Token(ctx context.Context) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	if c.token != "" {
		return c.token, nil
	}
	return c.fetch(ctx)
}

// Headers returns the Authorization header for the token.
func (c *Cache) Headers(ctx context.Context) (map[string]string, error) {
	tok, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}
	return BearerHeaders(tok), nil
}

// Clear drops the cached token.
func (c *Cache) Clear() {
	c.token = ""
	c.issuance = Issuance{}
}

// Force fetches a new token regardless of the cache.
func (c *Cache) Force(ctx context.Context) (string, error) {
	c.Clear()
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	return c.fetch(ctx)
}

// Cached returns the cached token and its issuance, if any.
func (c *Cache) Cached() (string, Issuance, bool) {
	return c.token, c.issuance, c.token != ""
}

func (c *Cache) fetch(ctx context.Context) (string, error) {
	endpoint := c.Endpoint()

	payload, err := c.fixture.Load()
	if err != nil {
		return "", err
	}

	c.logger.Debugf("fetching API token from %s", endpoint)
	resp, err := c.doer.Do(ctx, &transport.Request{
		Method: http.MethodPost,
		URL:    endpoint,
		Body:   payload,
	})
	if err != nil {
		return "", fmt.Errorf("API login request failed: %w", err)
	}
	if !resp.OK() {
		return "", &TransportError{URL: endpoint, Status: resp.Status, StatusText: resp.StatusText}
	}

	tok, err := Extract(resp.Body, c.fields)
	if err != nil {
		return "", err
	}

	c.token = tok
	c.issuance = Issuance{Endpoint: endpoint, IssuedAt: c.now()}
	c.logger.Infof("obtained API token from %s", endpoint)
	return tok, nil
}

// Extract returns the first non-empty string among fields in a JSON object body.
// Only string values count as tokens: a field holding a number, bool, object
// or null is skipped as if absent.
func Extract(body []byte, fields []string) (string, error) {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}
	for _, field := range fields {
		if s, ok := obj[field].(string); ok && s != "" {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w (looked for %s)", ErrTokenNotFound, strings.Join(fields, ", "))
}

// BearerHeaders builds the Authorization header for a token.
func BearerHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
