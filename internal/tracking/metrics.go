package tracking

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// Meter name for HTTP client metrics instrumentation
	httpMeterName = "go-httpkit/httpclient"

	// Metric names following OpenTelemetry semantic conventions
	metricHTTPClientCalls    = "http.client.calls"            // Counter
	metricHTTPClientDuration = "http.client.request.duration" // Histogram in seconds
	metricHTTPClientRetries  = "http.client.retries"          // Counter

	// Attribute keys per OTel semantic conventions
	attrHTTPRequestMethod  = "http.request.method"
	attrHTTPResponseStatus = "http.response.status_code"
	attrServerAddress      = "server.address"
	attrErrorType          = "error.type"
)

// HTTP request duration histogram buckets per OTel semantic conventions
// These are the recommended boundaries for HTTP request latency measurement
var httpDurationBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 7.5, 10,
}

var (
	// Singleton meter initialization
	httpMeter     metric.Meter
	meterOnce     sync.Once
	meterInitMu   sync.Mutex
	metricsInited bool

	// Metric instruments
	httpCallsCounter      metric.Int64Counter
	httpDurationHistogram metric.Float64Histogram
	httpRetriesCounter    metric.Int64Counter
)

// logMetricError logs a metric initialization error to stderr.
// This is a best-effort operation - metrics failures should not break the application.
func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize HTTP metric %s: %v\n", metricName, err)
	}
}

// initHTTPMeter initializes the OpenTelemetry meter and HTTP client metric instruments.
// This function is thread-safe and idempotent: it can be called multiple times but
// performs initialization only once.
func initHTTPMeter() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	// Prevent re-initialization if already set
	if httpMeter != nil {
		return
	}

	// Get meter from global meter provider
	httpMeter = otel.Meter(httpMeterName)

	// Initialize counter for client calls
	var err error
	httpCallsCounter, err = httpMeter.Int64Counter(
		metricHTTPClientCalls,
		metric.WithDescription("Total number of HTTP client round trips"),
	)
	logMetricError(metricHTTPClientCalls, err)

	// Initialize histogram for request duration with OTel-recommended buckets
	httpDurationHistogram, err = httpMeter.Float64Histogram(
		metricHTTPClientDuration,
		metric.WithDescription("Duration of HTTP client requests"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(httpDurationBuckets...),
	)
	logMetricError(metricHTTPClientDuration, err)

	// Initialize counter for retried attempts
	httpRetriesCounter, err = httpMeter.Int64Counter(
		metricHTTPClientRetries,
		metric.WithDescription("Number of HTTP client retry attempts"),
	)
	logMetricError(metricHTTPClientRetries, err)

	metricsInited = true
}

// ensureHTTPMeterInitialized ensures the HTTP meter is initialized.
// This is called lazily on the first recorded call.
func ensureHTTPMeterInitialized() {
	meterOnce.Do(initHTTPMeter)
}

// RecordCall records metrics for one HTTP client round trip.
// statusCode is zero when the attempt failed before any response arrived.
//
// Metrics recorded:
//   - http.client.calls: Counter of round trips (with method, server, status, error attributes)
//   - http.client.request.duration: Histogram of round trip durations in seconds
//
// The function is non-blocking and handles errors gracefully - metric recording
// failures will not impact request execution.
func RecordCall(ctx context.Context, method, host string, statusCode int, duration time.Duration, callErr error) {
	ensureHTTPMeterInitialized()

	attrs := buildCallAttributes(method, host, statusCode, callErr)

	if httpCallsCounter != nil {
		httpCallsCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if httpDurationHistogram != nil {
		httpDurationHistogram.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
}

// RecordRetry counts a retry attempt scheduled after a failed round trip.
func RecordRetry(ctx context.Context, method, host string) {
	ensureHTTPMeterInitialized()

	if httpRetriesCounter == nil {
		return
	}
	httpRetriesCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrHTTPRequestMethod, method),
		attribute.String(attrServerAddress, host),
	))
}

// buildCallAttributes creates the attribute set for call metrics.
// The status code attribute is omitted for transport-level failures.
func buildCallAttributes(method, host string, statusCode int, callErr error) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(attrHTTPRequestMethod, method),
		attribute.String(attrServerAddress, host),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int(attrHTTPResponseStatus, statusCode))
	}
	if errorType := classifyCallError(statusCode, callErr); errorType != "" {
		attrs = append(attrs, attribute.String(attrErrorType, errorType))
	}
	return attrs
}

// classifyCallError returns an error type string for failed round trips.
// Returns empty string for successful responses.
//
// Classification per OTel semantic conventions:
//   - 4xx/5xx responses: status code as string (e.g., "404", "503")
//   - Failures before a response: "transport"
func classifyCallError(statusCode int, callErr error) string {
	if statusCode >= 400 {
		return fmt.Sprintf("%d", statusCode)
	}
	if callErr != nil {
		return "transport"
	}
	return ""
}

// IsInitialized returns true if HTTP client metrics have been initialized.
// This is primarily useful for testing.
func IsInitialized() bool {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()
	return metricsInited
}

// ResetForTesting resets the metric state for testing purposes.
// This should only be called in tests.
func ResetForTesting() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	httpMeter = nil
	httpCallsCounter = nil
	httpDurationHistogram = nil
	httpRetriesCounter = nil
	metricsInited = false
	meterOnce = sync.Once{}
}
