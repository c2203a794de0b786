package logutil

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a logger that writes to a buffer for testing
func createTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestNewTimingLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := createTestLogger(&buf)

	start := time.Now()
	// Simulate some work
	time.Sleep(10 * time.Millisecond)

	timingLogger := NewTimingLogger(logger, start, "test operation", "key", "value")
	timingLogger()

	output := buf.String()
	if !strings.Contains(output, "test operation") {
		t.Errorf("Expected log to contain 'test operation', got: %s", output)
	}
	if !strings.Contains(output, "duration") {
		t.Errorf("Expected log to contain 'duration', got: %s", output)
	}
	if !strings.Contains(output, "key=value") {
		t.Errorf("Expected log to contain 'key=value', got: %s", output)
	}
	if !strings.Contains(output, "level=DEBUG") {
		t.Errorf("Expected log to be DEBUG level, got: %s", output)
	}
}

func TestNewTimingLoggerWithLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := createTestLogger(&buf)

	start := time.Now()
	time.Sleep(10 * time.Millisecond)

	timingLogger := NewTimingLoggerWithLevel(logger, slog.LevelInfo, start, "info operation")
	timingLogger()

	output := buf.String()
	if !strings.Contains(output, "info operation") {
		t.Errorf("Expected log to contain 'info operation', got: %s", output)
	}
	if !strings.Contains(output, "level=INFO") {
		t.Errorf("Expected log to be INFO level, got: %s", output)
	}
}

func TestLogAndWrapErr_WithError(t *testing.T) {
	var buf bytes.Buffer
	logger := createTestLogger(&buf)

	originalErr := errors.New("original error")
	wrappedErr := LogAndWrapErr(logger, "operation failed", originalErr, "user", "john")

	// Check the error is properly wrapped
	if wrappedErr == nil {
		t.Fatal("Expected wrapped error, got nil")
	}
	if !errors.Is(wrappedErr, originalErr) {
		t.Error("Expected wrapped error to be identifiable with errors.Is")
	}
	if !strings.Contains(wrappedErr.Error(), "operation failed") {
		t.Errorf("Expected wrapped error to contain message, got: %s", wrappedErr.Error())
	}

	// Check logging occurred
	output := buf.String()
	if !strings.Contains(output, "operation failed") {
		t.Errorf("Expected log to contain 'operation failed', got: %s", output)
	}
	if !strings.Contains(output, "user=john") {
		t.Errorf("Expected log to contain 'user=john', got: %s", output)
	}
	if !strings.Contains(output, "err=\"original error\"") {
		t.Errorf("Expected log to contain error, got: %s", output)
	}
	if !strings.Contains(output, "level=ERROR") {
		t.Errorf("Expected log to be ERROR level, got: %s", output)
	}
}

func TestLogAndWrapErr_WithNilError(t *testing.T) {
	var buf bytes.Buffer
	logger := createTestLogger(&buf)

	result := LogAndWrapErr(logger, "operation failed", nil, "user", "john")

	if result != nil {
		t.Errorf("Expected nil result for nil error, got: %v", result)
	}

	// Should not log anything
	output := buf.String()
	if output != "" {
		t.Errorf("Expected no log output for nil error, got: %s", output)
	}
}

// TestDebugAndWrapErr_WithError tests the function when a valid error is provided.
// It checks that the error is wrapped correctly and that the correct debug log is produced.
func TestDebugAndWrapErr_WithError(t *testing.T) {
	var buf bytes.Buffer
	logger := createTestLogger(&buf)

	originalErr := errors.New("original debug error")
	wrappedErr := DebugAndWrapErr(logger, "debug operation failed", originalErr, "request_id", "xyz-123")

	// 1. Check if the error is properly wrapped
	if wrappedErr == nil {
		t.Fatal("Expected wrapped error, got nil")
	}
	if !errors.Is(wrappedErr, originalErr) {
		t.Error("Expected wrapped error to be identifiable with errors.Is")
	}
	if !strings.Contains(wrappedErr.Error(), "debug operation failed") {
		t.Errorf("Expected wrapped error to contain message, got: %s", wrappedErr.Error())
	}

	// 2. Check if the logging occurred correctly
	output := buf.String()
	if !strings.Contains(output, "level=DEBUG") {
		t.Errorf("Expected log to be DEBUG level, got: %s", output)
	}
	if !strings.Contains(output, "msg=\"debug operation failed\"") {
		t.Errorf("Expected log to contain 'debug operation failed', got: %s", output)
	}
	if !strings.Contains(output, "request_id=xyz-123") {
		t.Errorf("Expected log to contain 'request_id=xyz-123', got: %s", output)
	}
	if !strings.Contains(output, "err=\"original debug error\"") {
		t.Errorf("Expected log to contain the error string, got: %s", output)
	}
}

// TestDebugAndWrapErr_WithNilError tests the function when a nil error is provided.
// It ensures that the function returns nil and does not produce any logs.
func TestDebugAndWrapErr_WithNilError(t *testing.T) {
	var buf bytes.Buffer
	logger := createTestLogger(&buf)

	result := DebugAndWrapErr(logger, "this should not be logged", nil, "user", "jane")

	// 1. Check for nil result
	if result != nil {
		t.Errorf("Expected nil result for nil error, got: %v", result)
	}

	// 2. Check that nothing was logged
	output := buf.String()
	if output != "" {
		t.Errorf("Expected no log output for nil error, got: %s", output)
	}
}

func TestRequestFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/login?from=/admin", nil)
	req.Header.Set("User-Agent", "kiosk")

	fields := RequestFields(req)
	require.Len(t, fields, 8)
	assert.Equal(t, []any{
		"method", "POST",
		"path", "/login",
		"remote_ip", req.RemoteAddr,
		"user_agent", "kiosk",
	}, fields)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" DEBUG ", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("warn"))
	assert.NoError(t, Validate(""))
	err := Validate("trace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), LevelNames())
}

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger, err := Setup(Options{Level: "warn", Format: "json", Output: &buf})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"key":"value"`)

	_, err = Setup(Options{Level: "loud"})
	assert.Error(t, err)

	_, err = Setup(Options{Format: "xml", Output: &buf})
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	logger := Noop()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	logger.Error("discarded", "err", errors.New("x"))
}
