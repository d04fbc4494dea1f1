package httpclient

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net"
	nethttp "net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/tavara-labs/go-httpkit/internal/tracking"
	"github.com/tavara-labs/go-httpkit/logger"
	"github.com/tavara-labs/go-httpkit/trace"
)

const (
	// DefaultTimeout is the default request timeout duration
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the default maximum number of retries for failed requests
	DefaultMaxRetries = 0

	// DefaultRetryDelay is the default delay between retries
	DefaultRetryDelay = 1 * time.Second

	// DefaultMaxPayloadLogBytes is the default cap on logged payload bytes
	DefaultMaxPayloadLogBytes = 1024
)

const headerAuthorization = "Authorization"

// client implements the Client interface
type client struct {
	httpClient           *nethttp.Client
	logger               logger.Logger
	config               *Config
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
	callCount            int64
}

// NewClient creates a new REST client with default configuration
func NewClient(log logger.Logger) Client {
	return NewBuilder(log).Build()
}

// Get performs a GET request
func (c *client) Get(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodGet, req)
}

// Post performs a POST request
func (c *client) Post(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPost, req)
}

// Put performs a PUT request
func (c *client) Put(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPut, req)
}

// Patch performs a PATCH request
func (c *client) Patch(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPatch, req)
}

// Delete performs a DELETE request
func (c *client) Delete(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodDelete, req)
}

// Do performs an HTTP request with the specified method.
// Transport errors, timeouts, and 5xx responses are retried up to MaxRetries
// times with exponential backoff; 4xx responses and interceptor errors are not.
func (c *client) Do(ctx context.Context, method string, req *Request) (*Response, error) {
	if err := c.validateRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()
	callCount := atomic.AddInt64(&c.callCount, 1)
	traceID := c.resolveTraceID(ctx)
	maxRetries := c.config.MaxRetries

	for attempt := 0; ; attempt++ {
		if err := c.waitForRateLimit(ctx); err != nil {
			return nil, err
		}

		httpReq, err := c.buildRequest(ctx, method, req, traceID)
		if err != nil {
			return nil, err
		}
		host := httpReq.URL.Host
		c.logRequest(httpReq, req.Body, traceID)

		logger.IncrementHTTPCalls(ctx)
		attemptStart := time.Now()
		httpResp, err := c.httpClient.Do(httpReq)
		tracking.RecordCall(ctx, method, host, responseStatus(httpResp), time.Since(attemptStart), err)

		if err != nil {
			if c.isTimeout(err) {
				if attempt < maxRetries {
					if waitErr := c.sleepBeforeRetry(ctx, method, host, attempt); waitErr != nil {
						return nil, waitErr
					}
					continue
				}
				return nil, NewTimeoutError("request timeout", c.config.Timeout)
			}
			if attempt < maxRetries {
				if waitErr := c.sleepBeforeRetry(ctx, method, host, attempt); waitErr != nil {
					return nil, waitErr
				}
				continue
			}
			return nil, NewNetworkError("request execution failed", err)
		}

		resp, err := c.buildResponse(ctx, start, callCount, httpReq, httpResp)
		if err != nil {
			if attempt < maxRetries && IsErrorType(err, NetworkError) {
				if waitErr := c.sleepBeforeRetry(ctx, method, host, attempt); waitErr != nil {
					return nil, waitErr
				}
				continue
			}
			return nil, err
		}

		if IsSuccessStatus(resp.StatusCode) {
			c.logResponse(resp, traceID)
			return resp, nil
		}

		if c.isRetryableStatus(resp.StatusCode) && attempt < maxRetries {
			if waitErr := c.sleepBeforeRetry(ctx, method, host, attempt); waitErr != nil {
				return nil, waitErr
			}
			continue
		}

		c.logResponse(resp, traceID)
		return resp, NewHTTPError(
			fmt.Sprintf("HTTP request failed with status %d", resp.StatusCode),
			resp.StatusCode,
			resp.Body,
		)
	}
}

// waitForRateLimit blocks until the configured limiter allows another attempt.
func (c *client) waitForRateLimit(ctx context.Context) error {
	if c.config.RateLimit == nil {
		return nil
	}
	if err := c.config.RateLimit.Wait(ctx); err != nil {
		return NewTimeoutError("rate limit wait aborted", c.config.Timeout)
	}
	return nil
}

// sleepBeforeRetry records the retry and sleeps for the backoff delay.
// Context cancellation aborts the wait instead of burning the full delay.
func (c *client) sleepBeforeRetry(ctx context.Context, method, host string, attempt int) error {
	tracking.RecordRetry(ctx, method, host)

	timer := time.NewTimer(c.backoffDelay(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return NewTimeoutError("retry wait aborted", c.config.Timeout)
	case <-timer.C:
		return nil
	}
}

// backoffDelay returns the exponential backoff delay for the given attempt,
// using RetryDelay as the base and capping to a reasonable maximum.
func (c *client) backoffDelay(attempt int) time.Duration {
	base := c.config.RetryDelay
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	// Cap attempt to avoid overflow when computing multiplier
	if attempt > 20 { // 2^20 = 1,048,576
		attempt = 20
	}
	// Exponential backoff: base * 2^attempt
	mult := 1 << attempt
	d := base * time.Duration(mult)
	// Cap to 30 seconds to avoid excessive sleeps
	const maxBackoff = 30 * time.Second
	if d > maxBackoff {
		d = maxBackoff
	}
	// Full jitter: random duration in [0, d)
	if d <= 0 {
		return base
	}
	maxN := big.NewInt(int64(d))
	n, err := crand.Int(crand.Reader, maxN)
	if err != nil {
		// On RNG failure, fall back to the full delay
		return d
	}
	return time.Duration(n.Int64())
}

// validateRequest validates the request before sending
func (c *client) validateRequest(req *Request) error {
	if req == nil {
		return NewValidationError("request cannot be nil", "request")
	}
	if req.URL == "" {
		return NewValidationError("URL cannot be empty", "url")
	}
	u, err := url.Parse(req.URL)
	if err != nil {
		return NewValidationError("URL is not valid", "url")
	}
	if !u.IsAbs() || u.Host == "" {
		return NewValidationError("URL must be absolute", "url")
	}
	return nil
}

// applyQuery merges request query parameters into the URL query string
func applyQuery(httpReq *nethttp.Request, req *Request) {
	if len(req.Query) == 0 {
		return
	}
	q := httpReq.URL.Query()
	for key, values := range req.Query {
		for _, value := range values {
			q.Add(key, value)
		}
	}
	httpReq.URL.RawQuery = q.Encode()
}

// applyHeaders applies headers to the HTTP request
func (c *client) applyHeaders(httpReq *nethttp.Request, req *Request) {
	// Apply default headers first
	for key, value := range c.config.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}

	// Apply request-specific headers (these override defaults)
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	// Set Content-Type if not already set and body is present
	if httpReq.Header.Get(contentTypeHeader) == "" && len(req.Body) > 0 {
		httpReq.Header.Set(contentTypeHeader, contentTypeJSON)
	}
}

// applyAuth applies authentication to the HTTP request.
// Request-specific basic auth wins over client basic auth; the bearer token
// applies only when no basic auth is configured and no Authorization header
// was set explicitly.
func (c *client) applyAuth(httpReq *nethttp.Request, req *Request) {
	auth := req.Auth
	if auth == nil {
		auth = c.config.BasicAuth
	}
	if auth != nil {
		httpReq.SetBasicAuth(auth.Username, auth.Password)
		return
	}

	if c.config.BearerToken != "" && httpReq.Header.Get(headerAuthorization) == "" {
		httpReq.Header.Set(headerAuthorization, "Bearer "+c.config.BearerToken)
	}
}

// resolveTraceID determines the trace ID used for the whole call, including retries.
func (c *client) resolveTraceID(ctx context.Context) string {
	if c.config.TraceIDExtractor != nil {
		if id, ok := c.config.TraceIDExtractor(ctx); ok && id != "" {
			return id
		}
	}
	if id, ok := trace.IDFromContext(ctx); ok {
		return id
	}
	if c.config.NewTraceID != nil {
		if id := c.config.NewTraceID(); id != "" {
			return id
		}
	}
	return trace.EnsureTraceID(ctx)
}

// applyTraceHeaders propagates trace identifiers onto the outgoing request.
// Headers already present are never overwritten so interceptors and callers
// keep full control.
func (c *client) applyTraceHeaders(ctx context.Context, httpReq *nethttp.Request, traceID string) {
	header := c.config.TraceIDHeader
	if header == "" {
		header = HeaderXRequestID
	}
	if httpReq.Header.Get(header) == "" {
		httpReq.Header.Set(header, traceID)
	}

	if !c.config.EnableW3CTrace {
		return
	}
	if httpReq.Header.Get(HeaderTraceParent) == "" {
		if _, ok := trace.ParentFromContext(ctx); !ok {
			httpReq.Header.Set(HeaderTraceParent, trace.GenerateTraceParent())
		}
	}
	carrier := requestHeaderCarrier{header: httpReq.Header}
	trace.InjectIntoHeadersWithOptions(ctx, &carrier, trace.InjectOptions{Mode: trace.InjectPreserve})
}

// buildRequest constructs an *http.Request, applies query/headers/auth/trace,
// and runs request interceptors.
func (c *client) buildRequest(ctx context.Context, method string, req *Request, traceID string) (*nethttp.Request, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, NewNetworkError("failed to create HTTP request", err)
	}

	applyQuery(httpReq, req)
	c.applyHeaders(httpReq, req)
	c.applyAuth(httpReq, req)
	c.applyTraceHeaders(ctx, httpReq, traceID)

	if err := c.runRequestInterceptors(ctx, httpReq); err != nil {
		return nil, NewInterceptorError("request interceptor failed", "request", err)
	}
	return httpReq, nil
}

// buildResponse runs response interceptors, reads the body, and builds a Response.
func (c *client) buildResponse(ctx context.Context, start time.Time, callCount int64, httpReq *nethttp.Request, httpResp *nethttp.Response) (*Response, error) {
	defer httpResp.Body.Close()

	if err := c.runResponseInterceptors(ctx, httpReq, httpResp); err != nil {
		return nil, NewInterceptorError("response interceptor failed", "response", err)
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, NewNetworkError("failed to read response body", err)
	}

	elapsed := time.Since(start)
	logger.AddHTTPElapsed(ctx, elapsed.Nanoseconds())
	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
		Headers:    httpResp.Header,
		Stats: Stats{
			ElapsedTime: elapsed,
			CallCount:   callCount,
		},
	}, nil
}

func (c *client) isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *client) isRetryableStatus(code int) bool {
	return code >= 500 && code < 600
}

// runRequestInterceptors executes all request interceptors
func (c *client) runRequestInterceptors(ctx context.Context, req *nethttp.Request) error {
	for _, interceptor := range c.requestInterceptors {
		if err := interceptor(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// runResponseInterceptors executes all response interceptors
func (c *client) runResponseInterceptors(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error {
	for _, interceptor := range c.responseInterceptors {
		if err := interceptor(ctx, req, resp); err != nil {
			return err
		}
	}
	return nil
}

func responseStatus(resp *nethttp.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

// requestHeaderCarrier adapts nethttp.Header to the trace.HeaderAccessor interface
type requestHeaderCarrier struct {
	header nethttp.Header
}

func (r *requestHeaderCarrier) Get(key string) any { return r.header.Get(key) }

func (r *requestHeaderCarrier) Set(key string, value any) {
	if s, ok := value.(string); ok {
		r.header.Set(key, s)
		return
	}
	r.header.Set(key, fmt.Sprint(value))
}
