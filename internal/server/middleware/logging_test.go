package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{
			name:     "verify token masked",
			path:     "/api/auth/verify/9f2c4a1e-aaaa-bbbb-cccc-000011112222",
			expected: "/api/auth/verify/***",
		},
		{
			name:     "regular path untouched",
			path:     "/api/query",
			expected: "/api/query",
		},
		{
			name:     "verify without token untouched",
			path:     "/api/auth/verify/",
			expected: "/api/auth/verify/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizePath(tt.path))
		})
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	middleware := LoggingMiddleware(logger)
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("hello"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/visitor", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	logged := buf.String()
	assert.Contains(t, logged, "HTTP request")
	assert.Contains(t, logged, "status=201")
	assert.Contains(t, logged, "path=/api/visitor")
	assert.Contains(t, logged, "bytes_written=5")
}

func TestLoggingMiddleware_MasksVerifyToken(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	middleware := LoggingMiddleware(logger)
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify/secret-token-value", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	logged := buf.String()
	assert.NotContains(t, logged, "secret-token-value")
	assert.Contains(t, logged, "/api/auth/verify/***")
}

func TestLoggingWithSkip(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	middleware := LoggingWithSkip(logger, []string{"/api/health"})
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Пропускаемый путь не логируется
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Empty(t, buf.String())

	// Остальные логируются
	req = httptest.NewRequest(http.MethodGet, "/api/query", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Contains(t, buf.String(), "path=/api/query")
}
