// Package fetch performs the HTTP GET behind the URL bar and packages it as a
// bridge task.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mochi-browser/taskbridge/core"
)

var (
	// ErrEmptyURL is returned for blank input; no request is made.
	ErrEmptyURL = errors.New("URL cannot be empty")

	// ErrBodyTooLarge is returned when a body exceeds Options.MaxBodyBytes.
	ErrBodyTooLarge = errors.New("response body too large")
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultUserAgent    = "mochi/0.1"
	DefaultMaxBodyBytes = 4 << 20
)

// Header is one response header. Names are lower-case.
type Header struct {
	Name  string
	Value string
}

// Response is a completed HTTP exchange. Any status, including 4xx and 5xx,
// is a successful fetch.
type Response struct {
	Status  int
	Headers []Header
	Body    string
}

// ErrorResponse renders err the way the UI shows a failed fetch.
func ErrorResponse(err error) *Response {
	return &Response{Body: "Error: " + err.Error()}
}

// Header returns the first value of the named header.
func (r *Response) Header(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, h := range r.Headers {
		if h.Name == name {
			return h.Value, true
		}
	}
	return "", false
}

// Options configures a Client. Zero fields take the package defaults.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	Retry        RetryPolicy
	HTTPClient   *http.Client
	Logger       core.Logger
}

// Client fetches URLs. It is safe for concurrent use.
type Client struct {
	http      *http.Client
	timeout   time.Duration
	userAgent string
	maxBody   int64
	retry     RetryPolicy
	logger    core.Logger
}

// New returns a Client configured by opts.
func New(opts Options) *Client {
	c := &Client{
		http:      opts.HTTPClient,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		maxBody:   opts.MaxBodyBytes,
		retry:     opts.Retry,
		logger:    opts.Logger,
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.maxBody <= 0 {
		c.maxBody = DefaultMaxBodyBytes
	}
	if c.logger == nil {
		c.logger = core.NewNoOpLogger()
	}
	return c
}

// NormalizeURL trims raw and prefixes http:// when it carries no scheme.
func NormalizeURL(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return "", ErrEmptyURL
	}
	if !strings.Contains(u, "://") {
		u = "http://" + u
	}
	return u, nil
}

// Fetch GETs rawURL. Transport errors are retried per the client's policy;
// HTTP error statuses are returned as responses.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	url, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		resp, err := c.do(ctx, url)
		if err == nil {
			if attempt > 0 {
				c.logger.Debug("fetch succeeded after retry",
					core.F("url", url),
					core.F("attempt", attempt))
			}
			return resp, nil
		}
		lastErr = err
		if !retryable(ctx, err) || attempt == c.retry.MaxRetries {
			break
		}

		delay := c.retry.delay(attempt)
		c.logger.Warn("fetch failed, retrying",
			core.F("url", url),
			core.F("attempt", attempt),
			core.F("maxRetries", c.retry.MaxRetries),
			core.F("delay", delay),
			core.F("error", err))
		if err := wait(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, url string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &requestError{err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, c.maxBody)
	}

	return &Response{
		Status:  res.StatusCode,
		Headers: flattenHeaders(res.Header),
		Body:    strings.ToValidUTF8(string(body), "\uFFFD"),
	}, nil
}

// requestError marks a request that could not be built; retrying cannot help.
type requestError struct{ err error }

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var reqErr *requestError
	return !errors.As(err, &reqErr) && !errors.Is(err, ErrBodyTooLarge)
}

// flattenHeaders lists one Header per value, sorted by name.
func flattenHeaders(h http.Header) []Header {
	keys := make(map[string]string, len(h))
	names := make([]string, 0, len(h))
	for key := range h {
		name := strings.ToLower(key)
		keys[name] = key
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Header, 0, len(names))
	for _, name := range names {
		for _, v := range h[keys[name]] {
			out = append(out, Header{Name: name, Value: v})
		}
	}
	return out
}

// Task wraps a fetch of rawURL for the given backend capability. On the
// threaded backend it is a blocking call; on the cooperative backend the
// request runs off the host turn and completes asynchronously.
func (c *Client) Task(capability core.Capability, rawURL string) core.Task[*Response] {
	if capability == core.CapabilityCooperative {
		return core.Async(func(ctx context.Context, complete func(*Response, error)) {
			go func() {
				complete(c.Fetch(ctx, rawURL))
			}()
		}).Named("fetch")
	}
	return core.Func(func(ctx context.Context) (*Response, error) {
		return c.Fetch(ctx, rawURL)
	}).Named("fetch")
}
