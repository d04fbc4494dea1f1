// Package httpclient provides a small, composable HTTP client with
// request/response interceptors, default headers, basic auth, bearer tokens,
// body-encoding helpers, trace header propagation, client-side rate limiting,
// and a retry mechanism with exponential backoff and jitter.
//
// Retries
//   - Controlled via Builder.WithRetries(maxRetries, retryDelay).
//   - Retries occur on:
//   - Transport errors (network failures)
//   - Timeouts (context deadline exceeded or net.Error timeout)
//   - HTTP 5xx responses
//   - 4xx responses are not retried.
//
// Backoff Strategy
//   - Exponential backoff based on retryDelay: delay = retryDelay * 2^attempt
//   - Full jitter is applied: actual sleep is random in [0, delay).
//   - Delay is capped at 30 seconds to avoid excessive waits.
//
// Tracing
//   - Every outgoing request carries a trace ID header (X-Request-ID by
//     default): an existing header wins, then the context value, then a
//     generated ID.
//   - Builder.WithW3CTrace(true) additionally propagates W3C Trace Context
//     (traceparent/tracestate); headers already present are never overwritten.
//
// Notes
//   - Request bodies are re-sent by rebuilding the http.Request on each attempt.
//   - Interceptor errors are not retried and are surfaced immediately.
//   - When a rate limiter is configured it is consulted before every attempt,
//     retries included.
package httpclient
