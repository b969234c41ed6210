package proxy

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxUpstreamBody ограничивает читаемый объем ответа внешнего API
const maxUpstreamBody = 4 << 20 // 4 MiB

// Handler forwards explorer API requests to a configured upstream per chain
type Handler struct {
	logger    *slog.Logger
	cache     *Cache
	client    *http.Client
	upstreams map[string]string // chain -> base URL
}

// NewHandler creates a proxy handler.
// upstreams отображает метку сети на базовый URL внешнего API
func NewHandler(logger *slog.Logger, cache *Cache, upstreams map[string]string) *Handler {
	return &Handler{
		logger: logger,
		cache:  cache,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		upstreams: upstreams,
	}
}

// Proxy обрабатывает GET /api/proxy/{chain}?path=...
// Форвардит path и остальные query параметры к upstream выбранной сети,
// отдавая закешированный ответ, пока тот не протух
func (h *Handler) Proxy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	chain := strings.ToLower(r.PathValue("chain"))
	base, ok := h.upstreams[chain]
	if !ok {
		h.sendError(w, fmt.Sprintf("unknown chain %q", chain), http.StatusNotFound)
		return
	}

	query := r.URL.Query()
	path := query.Get("path")
	if path == "" {
		h.sendError(w, "path query parameter is required", http.StatusBadRequest)
		return
	}
	// Только относительные пути: upstream задается конфигурацией, не клиентом
	if strings.Contains(path, "://") || strings.HasPrefix(path, "//") {
		h.sendError(w, "path must be relative", http.StatusBadRequest)
		return
	}
	query.Del("path")

	target := base + "/" + strings.TrimLeft(path, "/")
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}
	if _, err := url.Parse(target); err != nil {
		h.sendError(w, "invalid path", http.StatusBadRequest)
		return
	}

	now := time.Now()
	if body, contentType, ok := h.cache.Get(target, now); ok {
		h.logger.DebugContext(ctx, "proxy cache hit", slog.String("chain", chain))
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("X-Cache", "HIT")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build upstream request", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.ErrorContext(ctx, "upstream request failed",
			slog.String("chain", chain),
			slog.Any("error", err))
		h.sendError(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read upstream response", slog.Any("error", err))
		h.sendError(w, "upstream unavailable", http.StatusBadGateway)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}

	// Кешируются только успешные ответы
	if resp.StatusCode == http.StatusOK {
		if err := h.cache.Put(target, body, contentType, now); err != nil {
			h.logger.WarnContext(ctx, "failed to cache upstream response", slog.Any("error", err))
		}
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Cache", "MISS")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(body)
}

func (h *Handler) sendError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
