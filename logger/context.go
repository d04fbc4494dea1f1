package logger

import (
	"context"
	"sync/atomic"
)

// contextKey is the type for context keys to avoid collisions
type contextKey string

const (
	// httpCallsKey is the context key for counting outbound HTTP calls per request
	httpCallsKey contextKey = "http_call_counter"
	// httpElapsedKey is the context key for accumulating outbound HTTP time per request
	httpElapsedKey contextKey = "http_elapsed_nanos"
)

// WithHTTPTracking creates a context that counts outbound HTTP calls and the
// time spent in them. The HTTP client increments these per attempt, so a
// request handler can log how much of its latency went to upstream calls.
func WithHTTPTracking(ctx context.Context) context.Context {
	calls := int64(0)
	elapsed := int64(0)
	ctx = context.WithValue(ctx, httpCallsKey, &calls)
	ctx = context.WithValue(ctx, httpElapsedKey, &elapsed)
	return ctx
}

// IncrementHTTPCalls increments the outbound HTTP call counter in the context
func IncrementHTTPCalls(ctx context.Context) {
	if calls, ok := ctx.Value(httpCallsKey).(*int64); ok && calls != nil {
		atomic.AddInt64(calls, 1)
	}
}

// GetHTTPCalls returns the outbound HTTP call count recorded in the context
func GetHTTPCalls(ctx context.Context) int64 {
	if calls, ok := ctx.Value(httpCallsKey).(*int64); ok && calls != nil {
		return atomic.LoadInt64(calls)
	}
	return 0
}

// AddHTTPElapsed adds elapsed nanoseconds to the outbound HTTP time in the context
func AddHTTPElapsed(ctx context.Context, nanos int64) {
	if elapsed, ok := ctx.Value(httpElapsedKey).(*int64); ok && elapsed != nil {
		atomic.AddInt64(elapsed, nanos)
	}
}

// GetHTTPElapsed returns the outbound HTTP time in nanoseconds recorded in the context
func GetHTTPElapsed(ctx context.Context) int64 {
	if elapsed, ok := ctx.Value(httpElapsedKey).(*int64); ok && elapsed != nil {
		return atomic.LoadInt64(elapsed)
	}
	return 0
}
