package httpclient

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tavara-labs/go-httpkit/config"
	"github.com/tavara-labs/go-httpkit/logger"
	"github.com/tavara-labs/go-httpkit/trace"
)

// Builder provides a fluent interface for configuring the REST client
type Builder struct {
	config     *Config
	logger     logger.Logger
	httpClient *nethttp.Client
	transport  nethttp.RoundTripper
}

// NewBuilder creates a new client builder
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		config: &Config{
			Timeout:              DefaultTimeout,
			MaxRetries:           DefaultMaxRetries,
			RetryDelay:           DefaultRetryDelay,
			RequestInterceptors:  []RequestInterceptor{},
			ResponseInterceptors: []ResponseInterceptor{},
			DefaultHeaders:       make(map[string]string),
			MaxPayloadLogBytes:   DefaultMaxPayloadLogBytes,
			TraceIDHeader:        HeaderXRequestID,
			NewTraceID:           uuid.NewString,
			TraceIDExtractor:     trace.IDFromContext,
		},
		logger: log,
	}
}

// NewFromConfig creates a client builder preconfigured from cfg.
// Builder methods may still override individual settings before Build.
func NewFromConfig(cfg *config.ClientConfig, log logger.Logger) *Builder {
	b := NewBuilder(log)
	if cfg == nil {
		return b
	}

	if cfg.Timeout > 0 {
		b.config.Timeout = cfg.Timeout
	}
	b.config.MaxRetries = cfg.Retry.Max
	if cfg.Retry.Delay > 0 {
		b.config.RetryDelay = cfg.Retry.Delay
	}
	if cfg.Rate.Limit > 0 {
		b.WithRateLimit(cfg.Rate.Limit, cfg.Rate.Burst)
	}
	if cfg.Auth.Username != "" {
		b.WithBasicAuth(cfg.Auth.Username, cfg.Auth.Password)
	}
	if cfg.Auth.BearerToken != "" {
		b.WithBearerToken(cfg.Auth.BearerToken)
	}
	for key, value := range cfg.Headers {
		b.WithDefaultHeader(key, value)
	}
	b.WithPayloadLogging(cfg.Log.Payloads, cfg.Log.MaxPayloadBytes)
	if cfg.Trace.IDHeader != "" {
		b.WithTraceIDHeader(cfg.Trace.IDHeader)
	}
	b.config.EnableW3CTrace = cfg.Trace.EnableW3C
	b.transport = cfg.Transport.BuildTransport()
	return b
}

// WithTimeout sets the request timeout
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithRetries sets the retry configuration
func (b *Builder) WithRetries(maxRetries int, retryDelay time.Duration) *Builder {
	b.config.MaxRetries = maxRetries
	b.config.RetryDelay = retryDelay
	return b
}

// WithBasicAuth sets basic authentication credentials
func (b *Builder) WithBasicAuth(username, password string) *Builder {
	b.config.BasicAuth = &BasicAuth{
		Username: username,
		Password: password,
	}
	return b
}

// WithBearerToken sets a bearer token sent when no basic auth applies
func (b *Builder) WithBearerToken(token string) *Builder {
	b.config.BearerToken = token
	return b
}

// WithDefaultHeader adds a default header that will be sent with all requests
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.DefaultHeaders[key] = value
	return b
}

// WithRequestInterceptor adds a request interceptor
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.config.RequestInterceptors = append(b.config.RequestInterceptors, interceptor)
	return b
}

// WithResponseInterceptor adds a response interceptor
func (b *Builder) WithResponseInterceptor(interceptor ResponseInterceptor) *Builder {
	b.config.ResponseInterceptors = append(b.config.ResponseInterceptors, interceptor)
	return b
}

// WithRateLimit throttles outgoing attempts to rps requests per second with
// the given burst. A non-positive rps disables rate limiting.
func (b *Builder) WithRateLimit(rps float64, burst int) *Builder {
	if rps <= 0 {
		b.config.RateLimit = nil
		return b
	}
	if burst < 1 {
		burst = 1
	}
	b.config.RateLimit = rate.NewLimiter(rate.Limit(rps), burst)
	return b
}

// WithPayloadLogging enables debug-level payload logging capped at maxBytes.
// A non-positive maxBytes keeps the current cap.
func (b *Builder) WithPayloadLogging(enabled bool, maxBytes int) *Builder {
	b.config.LogPayloads = enabled
	if maxBytes > 0 {
		b.config.MaxPayloadLogBytes = maxBytes
	}
	return b
}

// WithTraceIDHeader sets the header name used for trace ID propagation.
// An empty header keeps the default.
func (b *Builder) WithTraceIDHeader(header string) *Builder {
	if header != "" {
		b.config.TraceIDHeader = header
	}
	return b
}

// WithTraceIDGenerator sets the generator used when no trace ID is present.
// A nil generator keeps the default.
func (b *Builder) WithTraceIDGenerator(generator func() string) *Builder {
	if generator != nil {
		b.config.NewTraceID = generator
	}
	return b
}

// WithTraceIDExtractor sets a custom trace ID extractor consulted before the
// context. A nil extractor keeps the default.
func (b *Builder) WithTraceIDExtractor(extractor func(ctx context.Context) (string, bool)) *Builder {
	if extractor != nil {
		b.config.TraceIDExtractor = extractor
	}
	return b
}

// WithW3CTrace enables W3C Trace Context (traceparent/tracestate) propagation
func (b *Builder) WithW3CTrace(enabled bool) *Builder {
	b.config.EnableW3CTrace = enabled
	return b
}

// WithHTTPClient supplies a custom *http.Client. A zero client timeout
// inherits the builder timeout at Build time.
func (b *Builder) WithHTTPClient(httpClient *nethttp.Client) *Builder {
	b.httpClient = httpClient
	return b
}

// WithTransport supplies a custom transport for the underlying HTTP client
func (b *Builder) WithTransport(transport nethttp.RoundTripper) *Builder {
	b.transport = transport
	return b
}

// Build creates the REST client with the configured options
func (b *Builder) Build() Client {
	if b.config.MaxPayloadLogBytes <= 0 {
		b.config.MaxPayloadLogBytes = DefaultMaxPayloadLogBytes
	}

	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &nethttp.Client{Timeout: b.config.Timeout}
	} else if httpClient.Timeout == 0 {
		httpClient.Timeout = b.config.Timeout
	}
	if b.transport != nil {
		httpClient.Transport = b.transport
	}

	return &client{
		httpClient:           httpClient,
		logger:               b.logger,
		config:               b.config,
		requestInterceptors:  b.config.RequestInterceptors,
		responseInterceptors: b.config.ResponseInterceptors,
	}
}
