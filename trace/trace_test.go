package trace

import (
	"context"
	nethttp "net/http"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderConstants(t *testing.T) {
	assert.Equal(t, "X-Request-ID", HeaderXRequestID)
	assert.Equal(t, "traceparent", HeaderTraceParent)
	assert.Equal(t, "tracestate", HeaderTraceState)
}

func TestEnsureTraceID_UsesExisting(t *testing.T) {
	ctx := WithTraceID(context.Background(), "existing-trace-id")
	got := EnsureTraceID(ctx)
	assert.Equal(t, "existing-trace-id", got)
}

func TestEnsureTraceID_GeneratesWhenMissing(t *testing.T) {
	got := EnsureTraceID(context.Background())
	// UUID v4 format: 36 chars with hyphens
	re := regexp.MustCompile(`^[a-f0-9\-]{36}$`)
	assert.True(t, re.MatchString(strings.ToLower(got)))
}

func TestTraceParent_ContextRoundTrip(t *testing.T) {
	in := "00-0123456789abcdef0123456789abcdef-0123456789abcdef-01"
	ctx := WithTraceParent(context.Background(), in)
	out, ok := ParentFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestTraceState_ContextRoundTrip(t *testing.T) {
	in := "vendor=a:b,c=d"
	ctx := WithTraceState(context.Background(), in)
	out, ok := StateFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestGenerateTraceParent_Format(t *testing.T) {
	tp := GenerateTraceParent()
	// Basic format checks
	assert.True(t, strings.HasPrefix(tp, "00-"))
	parts := strings.Split(tp, "-")
	require.Len(t, parts, 4)
	// version, trace-id, span-id, flags
	assert.Equal(t, 2, len(parts[0]))
	assert.Equal(t, 32, len(parts[1]))
	assert.Equal(t, 16, len(parts[2]))
	assert.Equal(t, 2, len(parts[3]))
	// Lowercase hex
	hexRe := regexp.MustCompile(`^[0-9a-f]+$`)
	assert.True(t, hexRe.MatchString(parts[1]))
	assert.True(t, hexRe.MatchString(parts[2]))
	assert.Equal(t, "01", parts[3])
}

func TestIDFromContext_Missing(t *testing.T) {
	_, ok := IDFromContext(context.Background())
	assert.False(t, ok)
}

func TestInjectIntoHeadersWithOptions_Preserve_PreservesExisting(t *testing.T) {
	headers := nethttp.Header{}
	// Pre-populate headers
	headers.Set(HeaderXRequestID, "pre-xid")
	headers.Set(HeaderTraceParent, "00-0123456789abcdef0123456789abcdef-0123456789abcdef-01")
	headers.Set(HeaderTraceState, "vendor=a:b")

	// adapter
	acc := httpHeaderAccessor{h: headers}

	// Context has different values, which preserve mode must not write over
	ctx := WithTraceID(context.Background(), "ctx-xid")
	ctx = WithTraceParent(ctx, "00-aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa-bbbbbbbbbbbbbbbb-01")
	ctx = WithTraceState(ctx, "vendor=ctx")

	InjectIntoHeadersWithOptions(ctx, &acc, InjectOptions{Mode: InjectPreserve})

	assert.Equal(t, "pre-xid", headers.Get(HeaderXRequestID))
	assert.Equal(t, "00-0123456789abcdef0123456789abcdef-0123456789abcdef-01", headers.Get(HeaderTraceParent))
	assert.Equal(t, "vendor=a:b", headers.Get(HeaderTraceState))
}

func TestInjectIntoHeadersWithOptions_Preserve_FillsMissing(t *testing.T) {
	headers := nethttp.Header{}
	acc := httpHeaderAccessor{h: headers}

	// Context supplies traceparent and tracestate
	ctx := WithTraceParent(context.Background(), "00-deadbeefdeadbeefdeadbeefdeadbeef-0123456789abcdef-01")
	ctx = WithTraceState(ctx, "vendor=x")

	InjectIntoHeadersWithOptions(ctx, &acc, InjectOptions{Mode: InjectPreserve})

	assert.Equal(t, "00-deadbeefdeadbeefdeadbeefdeadbeef-0123456789abcdef-01", headers.Get(HeaderTraceParent))
	// X-Request-ID should be derived from traceparent when missing
	assert.Equal(t, "deadbeefdeadbeefdeadbeefdeadbeef", headers.Get(HeaderXRequestID))
	assert.Equal(t, "vendor=x", headers.Get(HeaderTraceState))
}

func TestInjectIntoHeaders_Force_AlignsRequestIDWithTraceParent(t *testing.T) {
	headers := nethttp.Header{}
	headers.Set(HeaderXRequestID, "stale-xid")
	headers.Set(HeaderTraceParent, "00-abcdefabcdefabcdefabcdefabcdefab-1234567890123456-01")

	acc := httpHeaderAccessor{h: headers}

	// Context carries a trace ID but no traceparent; the header traceparent wins
	ctx := WithTraceID(context.Background(), "ctx-trace-id")
	InjectIntoHeaders(ctx, &acc)

	assert.Equal(t, "abcdefabcdefabcdefabcdefabcdefab", headers.Get(HeaderXRequestID))
	assert.Equal(t, "00-abcdefabcdefabcdefabcdefabcdefab-1234567890123456-01", headers.Get(HeaderTraceParent))
}

func TestInjectIntoHeaders_Force_GeneratesWhenEmpty(t *testing.T) {
	headers := nethttp.Header{}
	acc := httpHeaderAccessor{h: headers}

	InjectIntoHeaders(context.Background(), &acc)

	tp := headers.Get(HeaderTraceParent)
	require.NotEmpty(t, tp)
	parts := strings.Split(tp, "-")
	require.Len(t, parts, 4)
	assert.Equal(t, parts[1], headers.Get(HeaderXRequestID))
}

func TestInjectIntoHeaders_Force_ContextTraceParentWins(t *testing.T) {
	headers := nethttp.Header{}
	headers.Set(HeaderTraceParent, "00-abcdefabcdefabcdefabcdefabcdefab-1234567890123456-01")

	acc := httpHeaderAccessor{h: headers}

	ctx := WithTraceParent(context.Background(), "00-deadbeefdeadbeefdeadbeefdeadbeef-0123456789abcdef-01")
	ctx = WithTraceState(ctx, "vendor=ctx")
	InjectIntoHeaders(ctx, &acc)

	assert.Equal(t, "00-deadbeefdeadbeefdeadbeefdeadbeef-0123456789abcdef-01", headers.Get(HeaderTraceParent))
	assert.Equal(t, "deadbeefdeadbeefdeadbeefdeadbeef", headers.Get(HeaderXRequestID))
	assert.Equal(t, "vendor=ctx", headers.Get(HeaderTraceState))
}

func TestExtractFromHeaders_AllHeadersPresent(t *testing.T) {
	headers := nethttp.Header{}
	headers.Set(HeaderXRequestID, "incoming-xid")
	headers.Set(HeaderTraceParent, "00-ffeeddccbbaa9988ffeeddccbbaa9988-9988776655443322-01")
	headers.Set(HeaderTraceState, "vendor=test")

	acc := httpHeaderAccessor{h: headers}
	ctx := ExtractFromHeaders(context.Background(), &acc)

	tid, ok := IDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "incoming-xid", tid)

	tp, ok := ParentFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "00-ffeeddccbbaa9988ffeeddccbbaa9988-9988776655443322-01", tp)

	ts, ok := StateFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "vendor=test", ts)
}

func TestExtractFromHeaders_DerivesTraceIDFromParent(t *testing.T) {
	headers := nethttp.Header{}
	headers.Set(HeaderTraceParent, "00-deadbeefdeadbeefdeadbeefdeadbeef-0123456789abcdef-01")

	acc := httpHeaderAccessor{h: headers}
	ctx := ExtractFromHeaders(context.Background(), &acc)

	tid, ok := IDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "deadbeefdeadbeefdeadbeefdeadbeef", tid)
}

func TestExtractFromHeaders_EmptyCarrier(t *testing.T) {
	acc := httpHeaderAccessor{h: nethttp.Header{}}
	ctx := ExtractFromHeaders(context.Background(), &acc)

	_, ok := IDFromContext(ctx)
	assert.False(t, ok)
	_, ok = ParentFromContext(ctx)
	assert.False(t, ok)
}

func TestSafeToString_VariousTypes(t *testing.T) {
	assert.Equal(t, "", safeToString(nil))
	assert.Equal(t, "plain", safeToString("plain"))
	assert.Equal(t, "bytes", safeToString([]byte("bytes")))
	assert.Equal(t, "42", safeToString(42))
	assert.Equal(t, "true", safeToString(true))
}

func TestTraceIDFromParent_RejectsMalformed(t *testing.T) {
	cases := []struct {
		name   string
		parent string
	}{
		{"empty", ""},
		{"no separators", "garbage"},
		{"short trace id", "00-abc-0123456789abcdef-01"},
		{"uppercase hex", "00-ABCDEFABCDEFABCDEFABCDEFABCDEFAB-1234567890123456-01"},
		{"non hex", "00-zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz-1234567890123456-01"},
		{"all zero", "00-00000000000000000000000000000000-1234567890123456-01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Empty(t, traceIDFromParent(tc.parent))
		})
	}
}

// Minimal http header accessor for tests
type httpHeaderAccessor struct{ h nethttp.Header }

func (a *httpHeaderAccessor) Get(key string) interface{} { return a.h.Get(key) }
func (a *httpHeaderAccessor) Set(key string, value interface{}) {
	switch v := value.(type) {
	case string:
		a.h.Set(key, v)
	default:
		a.h.Set(key, safeToString(v))
	}
}
