package logger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Gopher0727/Fredagslunchen/config"
)

func newFileLogger(t *testing.T, level string) (*Logger, string) {
	t.Helper()
	logFile := filepath.Join(t.TempDir(), "test.log")
	l, err := NewLogger(&config.LoggingConfig{
		Level:    level,
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	})
	require.NoError(t, err)
	return l, logFile
}

func readEntries(t *testing.T, path string) []map[string]any {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLogger(t *testing.T) {
	t.Run("stdout json", func(t *testing.T) {
		l, err := NewLogger(&config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"})
		require.NoError(t, err)
		l.Info("test message")
	})

	t.Run("text format", func(t *testing.T) {
		l, err := NewLogger(&config.LoggingConfig{Level: "debug", Format: "text", Output: "stdout"})
		require.NoError(t, err)
		l.Debug("test debug message")
	})

	t.Run("file output", func(t *testing.T) {
		l, path := newFileLogger(t, "info")
		l.Info("test file message")
		require.NoError(t, l.Close())

		entries := readEntries(t, path)
		require.Len(t, entries, 1)
		assert.Equal(t, "test file message", entries[0]["message"])
		assert.Equal(t, "info", entries[0]["level"])
	})

	t.Run("unwritable file", func(t *testing.T) {
		_, err := NewLogger(&config.LoggingConfig{Output: "file", FilePath: filepath.Join(t.TempDir(), "missing", "x.log")})
		assert.Error(t, err)
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"WARN":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.FatalLevel,
		"invalid": zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, parseLogLevel(input))
		})
	}
}

func TestLogLevelFiltering(t *testing.T) {
	l, path := newFileLogger(t, "warn")
	l.Debug("dropped")
	l.Info("dropped")
	l.Warn("kept warn")
	l.Error("kept error")
	require.NoError(t, l.Close())

	entries := readEntries(t, path)
	require.Len(t, entries, 2)
	assert.Equal(t, "kept warn", entries[0]["message"])
	assert.Equal(t, "kept error", entries[1]["message"])
}

func TestTraceIDInLogs(t *testing.T) {
	l, path := newFileLogger(t, "debug")

	ctx := WithTraceID(context.Background(), "trace-123")
	l.InfoContext(ctx, "with trace", zap.Uint("group_id", 7))
	l.InfoContext(context.Background(), "without trace")
	l.WithFields(zap.String("component", "scores")).WarnContext(ctx, "chained")
	require.NoError(t, l.Close())

	entries := readEntries(t, path)
	require.Len(t, entries, 3)

	assert.Equal(t, "trace-123", entries[0]["trace_id"])
	assert.EqualValues(t, 7, entries[0]["group_id"])
	assert.NotContains(t, entries[1], "trace_id")
	assert.Equal(t, "trace-123", entries[2]["trace_id"])
	assert.Equal(t, "scores", entries[2]["component"])
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l, path := newFileLogger(t, "info")

	r := gin.New()
	r.Use(GinMiddleware(l))
	var seenTrace string
	r.GET("/ok", func(c *gin.Context) {
		seenTrace = GetTraceID(c.Request.Context())
		c.Status(http.StatusOK)
	})
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusForbidden) })

	t.Run("propagates incoming request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.Header.Set(RequestIDHeader, "abc")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "abc", seenTrace)
		assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
	})

	t.Run("generates request id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bad", nil))
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	})

	require.NoError(t, l.Close())
	entries := readEntries(t, path)
	require.Len(t, entries, 2)
	assert.Equal(t, "request", entries[0]["message"])
	assert.Equal(t, "abc", entries[0]["trace_id"])
	assert.Equal(t, "request rejected", entries[1]["message"])
	assert.EqualValues(t, http.StatusForbidden, entries[1]["status"])
}
