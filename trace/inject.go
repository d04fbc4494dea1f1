package trace

import (
	"context"
	"fmt"
	"strings"
)

// HeaderAccessor abstracts read/write access to carrier headers so trace
// propagation works across transports whose header values are not plain
// strings (HTTP headers, message broker tables, etc.).
type HeaderAccessor interface {
	Get(key string) any
	Set(key string, value any)
}

// InjectMode controls how injection treats headers already present on the carrier.
type InjectMode int

const (
	// InjectForce aligns trace headers with the effective trace context,
	// overwriting values already present on the carrier. X-Request-ID is
	// forced to match the traceparent trace-id so both stay correlated.
	InjectForce InjectMode = iota
	// InjectPreserve only fills headers that are missing or empty.
	InjectPreserve
)

// InjectOptions configures trace header injection.
type InjectOptions struct {
	Mode InjectMode
}

// InjectIntoHeaders writes trace context headers into the carrier in force mode.
// The effective traceparent is taken from the context, falling back to the value
// already on the carrier, and generated when neither yields a usable one.
func InjectIntoHeaders(ctx context.Context, headers HeaderAccessor) {
	InjectIntoHeadersWithOptions(ctx, headers, InjectOptions{Mode: InjectForce})
}

// InjectIntoHeadersWithOptions writes trace context headers into the carrier
// honoring the configured injection mode.
func InjectIntoHeadersWithOptions(ctx context.Context, headers HeaderAccessor, opts InjectOptions) {
	if opts.Mode == InjectPreserve {
		injectPreserve(ctx, headers)
		return
	}
	injectForce(ctx, headers)
}

func injectForce(ctx context.Context, headers HeaderAccessor) {
	parent, ok := ParentFromContext(ctx)
	if !ok {
		parent = headerValue(headers, HeaderTraceParent)
	}
	if traceIDFromParent(parent) == "" {
		parent = GenerateTraceParent()
	}
	headers.Set(HeaderTraceParent, parent)

	if state, ok := StateFromContext(ctx); ok {
		headers.Set(HeaderTraceState, state)
	}

	// Force alignment: request ID always mirrors the traceparent trace-id
	headers.Set(HeaderXRequestID, traceIDFromParent(parent))
}

func injectPreserve(ctx context.Context, headers HeaderAccessor) {
	if headerValue(headers, HeaderTraceParent) == "" {
		if parent, ok := ParentFromContext(ctx); ok {
			headers.Set(HeaderTraceParent, parent)
		}
	}
	if headerValue(headers, HeaderTraceState) == "" {
		if state, ok := StateFromContext(ctx); ok {
			headers.Set(HeaderTraceState, state)
		}
	}

	if headerValue(headers, HeaderXRequestID) != "" {
		return
	}
	if id, ok := IDFromContext(ctx); ok {
		headers.Set(HeaderXRequestID, id)
		return
	}
	if id := traceIDFromParent(headerValue(headers, HeaderTraceParent)); id != "" {
		headers.Set(HeaderXRequestID, id)
	}
}

// ExtractFromHeaders reads trace headers from the carrier into a derived context.
// When X-Request-ID is absent the trace ID is derived from the traceparent value
// so downstream logs still correlate with the upstream trace.
func ExtractFromHeaders(ctx context.Context, headers HeaderAccessor) context.Context {
	parent := headerValue(headers, HeaderTraceParent)
	if parent != "" {
		ctx = WithTraceParent(ctx, parent)
	}
	if state := headerValue(headers, HeaderTraceState); state != "" {
		ctx = WithTraceState(ctx, state)
	}

	if id := headerValue(headers, HeaderXRequestID); id != "" {
		return WithTraceID(ctx, id)
	}
	if id := traceIDFromParent(parent); id != "" {
		return WithTraceID(ctx, id)
	}
	return ctx
}

// headerValue reads a header through the accessor and coerces it to a string.
func headerValue(headers HeaderAccessor, key string) string {
	return safeToString(headers.Get(key))
}

// safeToString converts arbitrary header values to strings without panicking.
// Broker headers in particular may carry []byte, numbers, or nil values.
func safeToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// traceIDFromParent extracts the 32-hex trace-id field from a W3C traceparent
// value. Returns "" when the value does not carry a usable trace-id.
func traceIDFromParent(parent string) string {
	parts := strings.Split(parent, "-")
	if len(parts) < 2 {
		return ""
	}
	id := parts[1]
	if len(id) != 32 || !isLowerHex(id) {
		return ""
	}
	// All-zero trace-id is invalid per W3C Trace Context
	if id == strings.Repeat("0", 32) {
		return ""
	}
	return id
}

func isLowerHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}
