package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pwharness/pkg/fixture"
	"github.com/entrhq/pwharness/pkg/token"
)

type seenRequest struct {
	Method string
	Path   string
	Query  url.Values
	Auth   string
	Trace  string
	Body   map[string]any
}

// apiServer records every request and hands out "fallback-token" on POST /login.
type apiServer struct {
	*httptest.Server

	mu     sync.Mutex
	seen   []seenRequest
	logins atomic.Int32
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	s := &apiServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)

		if r.URL.Path == "/login" && r.Method == http.MethodPost {
			s.logins.Add(1)
			_, _ = w.Write([]byte(`{"token": "fallback-token"}`))
			return
		}

		s.mu.Lock()
		s.seen = append(s.seen, seenRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Auth:   r.Header.Get("Authorization"),
			Trace:  r.Header.Get("X-Trace"),
			Body:   body,
		})
		s.mu.Unlock()
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *apiServer) last(t *testing.T) seenRequest {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.seen)
	return s.seen[len(s.seen)-1]
}

// stubSource is a token source with a fixed header.
type stubSource struct {
	configured bool
	calls      int
	err        error
}

func (s *stubSource) HasAPICredentials() bool { return s.configured }

func (s *stubSource) APIAuthHeaders(ctx context.Context) (map[string]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return token.BearerHeaders("session-token"), nil
}

func newClient(t *testing.T, srv *apiServer, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithFixture(fixture.Static{"username": "svc"})}, opts...)
	c, err := New(srv.URL+"/", opts...)
	require.NoError(t, err)
	return c
}

func TestClient_Verbs(t *testing.T) {
	srv := newAPIServer(t)
	c := newClient(t, srv)
	ctx := context.Background()
	q := url.Values{"page": {"3"}}
	body := map[string]any{"name": "widget"}

	tests := []struct {
		name      string
		call      func() error
		method    string
		wantQuery bool
		wantBody  bool
		wantAuth  bool
	}{
		{"get", func() error { _, err := c.Get(ctx, "/items", nil); return err }, http.MethodGet, false, false, false},
		{"get query", func() error { _, err := c.GetWithQuery(ctx, "/items", q, nil); return err }, http.MethodGet, true, false, false},
		{"get token", func() error { _, err := c.GetWithToken(ctx, "/items", nil); return err }, http.MethodGet, false, false, true},
		{"get token query", func() error { _, err := c.GetWithTokenAndQuery(ctx, "/items", q, nil); return err }, http.MethodGet, true, false, true},
		{"post", func() error { _, err := c.Post(ctx, "/items", body, nil); return err }, http.MethodPost, false, true, false},
		{"post query", func() error { _, err := c.PostWithQuery(ctx, "/items", q, body, nil); return err }, http.MethodPost, true, true, false},
		{"post token", func() error { _, err := c.PostWithToken(ctx, "/items", body, nil); return err }, http.MethodPost, false, true, true},
		{"post token query", func() error { _, err := c.PostWithTokenAndQuery(ctx, "/items", q, body, nil); return err }, http.MethodPost, true, true, true},
		{"put", func() error { _, err := c.Put(ctx, "/items", body, nil); return err }, http.MethodPut, false, true, false},
		{"put token", func() error { _, err := c.PutWithToken(ctx, "/items", body, nil); return err }, http.MethodPut, false, true, true},
		{"patch", func() error { _, err := c.Patch(ctx, "/items", body, nil); return err }, http.MethodPatch, false, true, false},
		{"patch token", func() error { _, err := c.PatchWithToken(ctx, "/items", body, nil); return err }, http.MethodPatch, false, true, true},
		{"delete", func() error { _, err := c.Delete(ctx, "/items", nil); return err }, http.MethodDelete, false, false, false},
		{"delete token", func() error { _, err := c.DeleteWithToken(ctx, "/items", nil); return err }, http.MethodDelete, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.call())
			got := srv.last(t)

			assert.Equal(t, tt.method, got.Method)
			assert.Equal(t, "/items", got.Path)
			if tt.wantQuery {
				assert.Equal(t, "3", got.Query.Get("page"))
			} else {
				assert.Empty(t, got.Query)
			}
			if tt.wantBody {
				assert.Equal(t, "widget", got.Body["name"])
			} else {
				assert.Nil(t, got.Body)
			}
			if tt.wantAuth {
				assert.Equal(t, "Bearer fallback-token", got.Auth)
			} else {
				assert.Empty(t, got.Auth)
			}
		})
	}

	assert.Equal(t, int32(1), srv.logins.Load(), "fallback token fetched once and cached")
}

func TestClient_CallerHeadersOverrideToken(t *testing.T) {
	srv := newAPIServer(t)
	c := newClient(t, srv)

	_, err := c.GetWithToken(context.Background(), "/me", map[string]string{
		"authorization": "Bearer caller",
		"X-Trace":       "abc",
	})
	require.NoError(t, err)

	got := srv.last(t)
	assert.Equal(t, "Bearer caller", got.Auth)
	assert.Equal(t, "abc", got.Trace)
}

func TestClient_DelegatesToConfiguredSource(t *testing.T) {
	srv := newAPIServer(t)
	source := &stubSource{configured: true}
	c := newClient(t, srv, WithTokenSource(source))

	_, err := c.GetWithToken(context.Background(), "/me", nil)
	require.NoError(t, err)

	assert.Equal(t, "Bearer session-token", srv.last(t).Auth)
	assert.Equal(t, 1, source.calls)
	assert.Zero(t, srv.logins.Load(), "fallback cache unused when the source is configured")
}

func TestClient_FallbackWhenSourceUnconfigured(t *testing.T) {
	srv := newAPIServer(t)
	source := &stubSource{configured: false}
	c := newClient(t, srv, WithTokenSource(source))

	headers, err := c.AuthHeaders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Authorization": "Bearer fallback-token"}, headers)
	assert.Zero(t, source.calls)
	assert.Equal(t, int32(1), srv.logins.Load())

	c.ClearToken()
	_, err = c.AuthHeaders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), srv.logins.Load())
}

func TestClient_TokenErrorStopsRequest(t *testing.T) {
	srv := newAPIServer(t)
	source := &stubSource{configured: true, err: token.ErrNotConfigured}
	c := newClient(t, srv, WithTokenSource(source))

	_, err := c.PostWithToken(context.Background(), "/items", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, token.ErrNotConfigured))

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Empty(t, srv.seen)
}

func TestClient_ResponseDecoding(t *testing.T) {
	srv := newAPIServer(t)
	c := newClient(t, srv)

	resp, err := c.Get(context.Background(), "/status", nil)
	require.NoError(t, err)
	assert.True(t, resp.OK())

	var out struct{ OK bool }
	require.NoError(t, resp.JSON(&out))
	assert.True(t, out.OK)
}
