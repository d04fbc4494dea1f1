package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tavara-labs/go-httpkit/internal/testutil"
)

// createTestLogger creates a logger that writes to a buffer, without filtering
func createTestLogger() (*ZeroLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf)
	return &ZeroLogger{zlog: &zl}, &buf
}

// createFilteredTestLogger creates a buffer-backed logger with the default filter
func createFilteredTestLogger() (*ZeroLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf)
	return &ZeroLogger{zlog: &zl, filter: NewSensitiveDataFilter(nil)}, &buf
}

func parseLogEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var logEntry map[string]any
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)
	return logEntry
}

func TestLogEventAdapterMsg(t *testing.T) {
	logger, buf := createTestLogger()

	logger.Info().Msg(testMessage)

	logEntry := parseLogEntry(t, buf)
	assert.Equal(t, testMessage, logEntry["message"])
	assert.Equal(t, "info", logEntry["level"])
}

func TestLogEventAdapterMsgf(t *testing.T) {
	logger, buf := createTestLogger()

	logger.Info().Msgf("test %s with %d", "message", 42)

	logEntry := parseLogEntry(t, buf)
	assert.Equal(t, "test message with 42", logEntry["message"])
	assert.Equal(t, "info", logEntry["level"])
}

func TestLogEventAdapterErr(t *testing.T) {
	logger, buf := createTestLogger()

	testErr := errors.New(testutil.TestError)
	logger.Error().Err(testErr).Msg("error occurred")

	logEntry := parseLogEntry(t, buf)
	assert.Equal(t, testutil.TestError, logEntry["error"])
	assert.Equal(t, "error occurred", logEntry["message"])
	assert.Equal(t, "error", logEntry["level"])
}

func TestLogEventAdapterFieldTypes(t *testing.T) {
	logger, buf := createTestLogger()

	testErr := errors.New("chained error")
	logger.Error().
		Str("user", "alice").
		Int("attempt", 3).
		Int64("timestamp", 1640995200).
		Uint64("size", 1024).
		Dur("duration", 250*time.Millisecond).
		Err(testErr).
		Msg("failed operation")

	logEntry := parseLogEntry(t, buf)
	assert.Equal(t, "alice", logEntry["user"])
	assert.Equal(t, float64(3), logEntry["attempt"])
	assert.Equal(t, float64(1640995200), logEntry["timestamp"])
	assert.Equal(t, float64(1024), logEntry["size"])
	// zerolog renders durations in milliseconds
	assert.Equal(t, float64(250), logEntry["duration"])
	assert.Equal(t, "chained error", logEntry["error"])
	assert.Equal(t, "failed operation", logEntry["message"])
	assert.Equal(t, "error", logEntry["level"])
}

func TestLogEventAdapterInterface(t *testing.T) {
	logger, buf := createTestLogger()

	data := map[string]string{
		"key1": "value1",
		"key2": "value2",
	}
	logger.Info().Interface("data", data).Msg("structured data")

	logEntry := parseLogEntry(t, buf)
	dataField, ok := logEntry["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "value1", dataField["key1"])
	assert.Equal(t, "value2", dataField["key2"])
	assert.Equal(t, "structured data", logEntry["message"])
}

func TestLogEventAdapterBytes(t *testing.T) {
	logger, buf := createTestLogger()

	data := []byte("binary data")
	logger.Info().Bytes("payload", data).Msg("binary payload")

	logEntry := parseLogEntry(t, buf)
	assert.NotEmpty(t, logEntry["payload"])
	assert.Equal(t, "binary payload", logEntry["message"])
}

func TestLogEventAdapterAppliesFilterOnStr(t *testing.T) {
	logger, buf := createFilteredTestLogger()

	logger.Info().
		Str("username", "alice").
		Str("api_key", "sk-12345").
		Msg("request sent")

	logEntry := parseLogEntry(t, buf)
	assert.Equal(t, "alice", logEntry["username"])
	assert.Equal(t, DefaultMaskValue, logEntry["api_key"])
}

func TestLogEventAdapterAppliesFilterOnInterface(t *testing.T) {
	logger, buf := createFilteredTestLogger()

	logger.Info().
		Interface("request", map[string]any{
			"path":     "/v1/users",
			"password": "hunter2",
		}).
		Msg("payload")

	logEntry := parseLogEntry(t, buf)
	requestField, ok := logEntry["request"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/v1/users", requestField["path"])
	assert.Equal(t, DefaultMaskValue, requestField["password"])
}

func TestZeroLoggerEventLevels(t *testing.T) {
	tests := []struct {
		name  string
		event func(l *ZeroLogger) LogEvent
		level string
	}{
		{"info", func(l *ZeroLogger) LogEvent { return l.Info() }, "info"},
		{"error", func(l *ZeroLogger) LogEvent { return l.Error() }, "error"},
		{"debug", func(l *ZeroLogger) LogEvent { return l.Debug() }, "debug"},
		{"warn", func(l *ZeroLogger) LogEvent { return l.Warn() }, "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := createTestLogger()

			event := tt.event(logger)
			require.NotNil(t, event)

			adapter, ok := event.(*LogEventAdapter)
			require.True(t, ok)
			require.NotNil(t, adapter.event)

			event.Msg(tt.level + " message")

			logEntry := parseLogEntry(t, buf)
			assert.Equal(t, tt.level, logEntry["level"])
		})
	}
}

func TestZeroLoggerFatal(t *testing.T) {
	// Fatal calls os.Exit after logging, so only event creation is verified
	logger, buf := createTestLogger()

	event := logger.Fatal()
	require.NotNil(t, event)

	adapter, ok := event.(*LogEventAdapter)
	require.True(t, ok)
	require.NotNil(t, adapter.event)

	assert.Empty(t, buf.String())
}

func TestLogEventAdapterEdgeCases(t *testing.T) {
	logger, buf := createTestLogger()

	tests := []struct {
		name string
		fn   func() LogEvent
	}{
		{
			name: "empty_string_value",
			fn:   func() LogEvent { return logger.Info().Str("empty", "") },
		},
		{
			name: "zero_values",
			fn: func() LogEvent {
				return logger.Info().
					Int("zero_int", 0).
					Int64("zero_int64", 0).
					Uint64("zero_uint64", 0).
					Dur("zero_duration", 0)
			},
		},
		{
			name: "nil_error",
			fn:   func() LogEvent { return logger.Info().Err(nil) },
		},
		{
			name: "nil_interface",
			fn:   func() LogEvent { return logger.Info().Interface("nil_data", nil) },
		},
		{
			name: "empty_bytes",
			fn:   func() LogEvent { return logger.Info().Bytes("empty_bytes", []byte{}) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()

			event := tt.fn()
			event.Msg(testMessage)

			assert.NotEmpty(t, buf.String())

			logEntry := parseLogEntry(t, buf)
			assert.Equal(t, testMessage, logEntry["message"])
		})
	}
}

func TestLogEventAdapterLargeValues(t *testing.T) {
	logger, buf := createTestLogger()

	largeString := strings.Repeat("a", 10000)
	largeBytes := bytes.Repeat([]byte("b"), 5000)

	logger.Info().
		Str("large_string", largeString).
		Bytes("large_bytes", largeBytes).
		Int64("max_int64", 9223372036854775807).
		Uint64("max_uint64", 18446744073709551615).
		Msg("large values test")

	logEntry := parseLogEntry(t, buf)
	assert.Equal(t, largeString, logEntry["large_string"])
	assert.NotEmpty(t, logEntry["large_bytes"])
	assert.Equal(t, float64(9223372036854775807), logEntry["max_int64"])
	assert.Equal(t, float64(18446744073709551615), logEntry["max_uint64"])
}

func TestLogEventAdapterSpecialCharacters(t *testing.T) {
	logger, buf := createTestLogger()

	specialString := "Special chars: \n\t\r\"'\\/ 🚀 中文"

	logger.Info().
		Str("special", specialString).
		Msg("special characters test")

	logEntry := parseLogEntry(t, buf)
	assert.Equal(t, specialString, logEntry["special"])
	assert.Equal(t, "special characters test", logEntry["message"])
}

func TestLogEventAdapterReturnedTypes(t *testing.T) {
	logger, _ := createTestLogger()

	event := logger.Info()

	event = event.Str("test", "value")
	assert.Implements(t, (*LogEvent)(nil), event)

	event = event.Int("count", 1)
	assert.Implements(t, (*LogEvent)(nil), event)

	event = event.Int64("timestamp", 123)
	assert.Implements(t, (*LogEvent)(nil), event)

	event = event.Uint64("size", 456)
	assert.Implements(t, (*LogEvent)(nil), event)

	event = event.Dur("duration", time.Microsecond)
	assert.Implements(t, (*LogEvent)(nil), event)

	event = event.Interface("data", "test")
	assert.Implements(t, (*LogEvent)(nil), event)

	event = event.Bytes("bytes", []byte("test"))
	assert.Implements(t, (*LogEvent)(nil), event)

	event = event.Err(errors.New("test"))
	assert.Implements(t, (*LogEvent)(nil), event)

	event.Msg("test complete")
}
