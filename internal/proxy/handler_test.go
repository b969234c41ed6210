package proxy

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestHandler(t *testing.T, upstream string) (*Handler, *atomic.Int64) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := setupTestCache(t, time.Minute)

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/address/0xabc":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"balance":"42","currency":"` + r.URL.Query().Get("currency") + `"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	base := server.URL
	if upstream != "" {
		base = upstream
	}
	return NewHandler(logger, cache, map[string]string{"eth": base}), &hits
}

func doProxy(t *testing.T, handler *Handler, target, chain string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.SetPathValue("chain", chain)
	w := httptest.NewRecorder()
	handler.Proxy(w, req)
	return w
}

func TestProxy(t *testing.T) {
	handler, hits := setupTestHandler(t, "")

	w := doProxy(t, handler, "/api/proxy/eth?path=/address/0xabc&currency=usd", "eth")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	// Остальные query параметры доходят до upstream
	assert.Contains(t, w.Body.String(), `"currency":"usd"`)
	assert.Equal(t, int64(1), hits.Load())
}

func TestProxy_CacheHit(t *testing.T) {
	handler, hits := setupTestHandler(t, "")

	first := doProxy(t, handler, "/api/proxy/eth?path=/address/0xabc", "eth")
	require.Equal(t, http.StatusOK, first.Code)

	second := doProxy(t, handler, "/api/proxy/eth?path=/address/0xabc", "eth")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())

	// Повторный запрос не дошел до upstream
	assert.Equal(t, int64(1), hits.Load())
}

func TestProxy_ErrorsNotCached(t *testing.T) {
	handler, hits := setupTestHandler(t, "")

	first := doProxy(t, handler, "/api/proxy/eth?path=/nope", "eth")
	require.Equal(t, http.StatusNotFound, first.Code)

	second := doProxy(t, handler, "/api/proxy/eth?path=/nope", "eth")
	require.Equal(t, http.StatusNotFound, second.Code)

	assert.Equal(t, int64(2), hits.Load())
}

func TestProxy_UnknownChain(t *testing.T) {
	handler, _ := setupTestHandler(t, "")

	w := doProxy(t, handler, "/api/proxy/doge?path=/address/0xabc", "doge")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProxy_BadPath(t *testing.T) {
	handler, _ := setupTestHandler(t, "")

	tests := []struct {
		name   string
		target string
	}{
		{name: "missing path", target: "/api/proxy/eth"},
		{name: "absolute url", target: "/api/proxy/eth?path=https%3A%2F%2Fevil.example%2Fx"},
		{name: "protocol relative", target: "/api/proxy/eth?path=%2F%2Fevil.example%2Fx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doProxy(t, handler, tt.target, "eth")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestProxy_UpstreamDown(t *testing.T) {
	// Закрытый порт: запрос к upstream заканчивается ошибкой соединения
	handler, _ := setupTestHandler(t, "http://127.0.0.1:1")

	w := doProxy(t, handler, "/api/proxy/eth?path=/address/0xabc", "eth")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
