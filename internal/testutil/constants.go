// Package testutil provides shared constants for testing across go-httpkit.
// These constants eliminate repeated string literals in test files and ensure consistency.
package testutil

// Test Error Messages
//
// These constants define common error messages used in test assertions.

const (
	// TestError is a generic error message for test error scenarios.
	TestError = "test error"

	// TestConnectionRefused is the common network error message for connection failures.
	TestConnectionRefused = "connection refused"
)

// Test Endpoints
//
// These constants define common URLs and hosts used across test requests.

const (
	// TestAPIHost is the fictional upstream host used in client and metrics tests.
	TestAPIHost = "api.example.com"

	// TestAPIBaseURL is the base URL built on TestAPIHost.
	TestAPIBaseURL = "https://" + TestAPIHost
)

// Test Header Values
//
// These constants define header names and content types shared by test files.

const (
	// TestContentTypeJSON is the JSON media type asserted throughout encoding tests.
	TestContentTypeJSON = "application/json"

	// TestTraceHeader is the default trace propagation header name.
	TestTraceHeader = "X-Request-ID"
)
