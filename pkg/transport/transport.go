// Package transport performs the HTTP calls made by the harness: API requests
// and bearer token exchanges. Requests are sent once; nothing is retried.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/publicsuffix"

	"github.com/entrhq/pwharness/pkg/logging"
)

// Request is a single HTTP call.
type Request struct {
	Method string
	URL    string

	// Query is merged into any query already present in URL
	Query url.Values

	Header map[string]string

	// Body is JSON encoded when non-nil
	Body any
}

// Response is a fully read HTTP response.
type Response struct {
	Status     int
	StatusText string
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// Doer sends requests.
type Doer interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Options configures NewHTTPDoer.
type Options struct {
	// Timeout bounds a whole request, zero means no limit
	Timeout time.Duration

	// Transport overrides http.DefaultTransport
	Transport http.RoundTripper

	Logger *logging.Logger
}

// HTTPDoer sends requests over net/http through a retryablehttp client with
// retries switched off, keeping its request logging and error passthrough.
// Cookies set by responses are kept for later requests.
type HTTPDoer struct {
	client *retryablehttp.Client
}

// NewHTTPDoer creates an HTTP transport.
func NewHTTPDoer(opts Options) (*HTTPDoer, error) {
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	client := retryablehttp.NewClient()
	client.HTTPClient = &http.Client{
		Transport: opts.Transport,
		Jar:       jar,
		Timeout:   opts.Timeout,
	}
	client.Logger = leveledLogger{opts.Logger}
	client.RetryMax = 0
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	// disable retries
	client.CheckRetry = func(_ context.Context, _ *http.Response, err error) (bool, error) {
		return false, err
	}

	return &HTTPDoer{client: client}, nil
}

// Do sends the request and reads the whole response.
func (d *HTTPDoer) Do(ctx context.Context, req *Request) (*Response, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", req.URL, err)
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for key, values := range req.Query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var body []byte
	if req.Body != nil {
		if body, err = json.Marshal(req.Body); err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	var raw any
	if body != nil {
		raw = body
	}
	r, err := retryablehttp.NewRequestWithContext(ctx, req.Method, u.String(), raw)
	if err != nil {
		return nil, err
	}
	r.Header.Set("Accept", "application/json")
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	for key, value := range req.Header {
		r.Header.Set(key, value)
	}

	resp, err := d.client.Do(r)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, u.Redacted(), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// statusText strips the code from "404 Not Found".
func statusText(resp *http.Response) string {
	if text, ok := strings.CutPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); ok {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// leveledLogger adapts the harness logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger *logging.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Errorf("%s%s", msg, formatPairs(keysAndValues))
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Infof("%s%s", msg, formatPairs(keysAndValues))
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debugf("%s%s", msg, formatPairs(keysAndValues))
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warnf("%s%s", msg, formatPairs(keysAndValues))
}

func formatPairs(kv []interface{}) string {
	var b bytes.Buffer
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	return b.String()
}
