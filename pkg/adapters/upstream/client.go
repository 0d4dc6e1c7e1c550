package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultMaxBodyBytes caps decoded upstream bodies when Options leaves it unset
	DefaultMaxBodyBytes int64 = 1 << 20

	// DefaultUserAgent is sent with every upstream request
	DefaultUserAgent = "stargazer/1.0"

	// errorSnippetBytes bounds how much of a non-2xx body is kept in an Error
	errorSnippetBytes = 256
)

// Outcome labels for Observer
const (
	OutcomeOK          = "ok"
	OutcomeNetwork     = "network_error"
	OutcomeStatus      = "bad_status"
	OutcomeDecode      = "decode_error"
	OutcomeRateLimited = "rate_limited"
)

// Observer receives one observation per upstream call
type Observer interface {
	ObserveUpstream(upstream, outcome string, duration time.Duration)
}

// Options configures a Client
type Options struct {
	// Timeout bounds each request, including reading the body. Zero means no timeout.
	Timeout time.Duration

	// RateLimit is the sustained number of requests per second across all
	// upstreams. Zero disables limiting.
	RateLimit float64
	RateBurst int

	MaxBodyBytes int64
	UserAgent    string

	Observer Observer
	Logger   *zap.Logger
}

// Response is a decoded upstream reply
type Response struct {
	StatusCode int
	Body       any
}

// Client is the shared outbound HTTP client. It is safe for concurrent use.
// One Client is created per serving lifetime and released with Close.
type Client struct {
	http      *http.Client
	transport *http.Transport
	limiter   *rate.Limiter
	maxBody   int64
	userAgent string
	observer  Observer
	logger    *zap.Logger

	closed atomic.Bool
}

// New creates a new upstream client with its own connection pool
func New(opts Options) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	c := &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		transport: transport,
		maxBody:   opts.MaxBodyBytes,
		userAgent: opts.UserAgent,
		observer:  opts.Observer,
		logger:    opts.Logger,
	}

	if c.maxBody <= 0 {
		c.maxBody = DefaultMaxBodyBytes
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return c
}

// GetJSON issues a GET to rawURL and decodes the JSON body. name identifies the
// upstream in logs, metrics and errors. Any non-2xx status is an error; the
// call is never retried.
func (c *Client) GetJSON(ctx context.Context, name, rawURL string) (*Response, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	start := time.Now()
	redacted := RedactURL(rawURL)

	resp, outcome, err := c.get(ctx, name, rawURL, redacted)
	c.observe(name, outcome, time.Since(start))

	if err != nil {
		c.logger.Warn("upstream request failed",
			zap.String("upstream", name),
			zap.String("url", redacted),
			zap.String("outcome", outcome),
			zap.Error(err))
		return nil, err
	}

	c.logger.Debug("upstream request completed",
		zap.String("upstream", name),
		zap.String("url", redacted),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	return resp, nil
}

func (c *Client) get(ctx context.Context, name, rawURL, redacted string) (*Response, string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, OutcomeRateLimited, &Error{
				Upstream: name,
				URL:      redacted,
				Message:  "rate limit wait aborted",
				Err:      err,
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, OutcomeNetwork, &Error{
			Upstream: name,
			URL:      redacted,
			Message:  "failed to create request",
			Err:      scrubURLError(err),
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, OutcomeNetwork, &Error{
			Upstream: name,
			URL:      redacted,
			Message:  "request failed",
			Err:      scrubURLError(err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorSnippetBytes))
		return nil, OutcomeStatus, &Error{
			Upstream:   name,
			URL:        redacted,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status: %s", bytes.TrimSpace(snippet)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, OutcomeNetwork, &Error{
			Upstream:   name,
			URL:        redacted,
			StatusCode: resp.StatusCode,
			Message:    "failed to read body",
			Err:        scrubURLError(err),
		}
	}
	if int64(len(body)) > c.maxBody {
		return nil, OutcomeDecode, &Error{
			Upstream:   name,
			URL:        redacted,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("body exceeds %d bytes", c.maxBody),
		}
	}

	decoded, err := decodeJSON(body)
	if err != nil {
		return nil, OutcomeDecode, &Error{
			Upstream:   name,
			URL:        redacted,
			StatusCode: resp.StatusCode,
			Message:    "malformed JSON body",
			Err:        err,
		}
	}

	return &Response{StatusCode: resp.StatusCode, Body: decoded}, OutcomeOK, nil
}

// decodeJSON decodes a single JSON value. Numbers stay json.Number so they
// render exactly as the upstream sent them.
func decodeJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, err
	}
	if err := dec.Decode(new(any)); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON value")
	}
	return decoded, nil
}

func (c *Client) observe(name, outcome string, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveUpstream(name, outcome, d)
	}
}

// Close releases the connection pool. Calls after the first are no-ops.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.transport.CloseIdleConnections()
	c.logger.Info("upstream client closed")
	return nil
}

// Closed reports whether Close has been called
func (c *Client) Closed() bool {
	return c.closed.Load()
}

// scrubURLError strips the request URL, which may carry an API key, from
// errors produced by net/http.
func scrubURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
