package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/addrlens/addrlens/internal/models"
	"github.com/addrlens/addrlens/internal/quota"
	"github.com/addrlens/addrlens/internal/server/storage"
	"github.com/addrlens/addrlens/pkg/api"
)

// VisitorHandler обрабатывает регистрацию анонимных посетителей
type VisitorHandler struct {
	logger   *slog.Logger
	visitors storage.VisitorStorage
}

// NewVisitorHandler создает новый handler для посетителей
func NewVisitorHandler(logger *slog.Logger, visitors storage.VisitorStorage) *VisitorHandler {
	return &VisitorHandler{
		logger:   logger,
		visitors: visitors,
	}
}

// Register обрабатывает POST /api/visitor
// Upsert посетителя по fingerprint: первый контакт создает запись,
// повторный обновляет last_seen и сетевые метаданные
func (h *VisitorHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.VisitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode visitor request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Fingerprint == "" {
		sendError(h.logger, w, "fingerprint is required", http.StatusBadRequest)
		return
	}

	now := time.Now()
	visitor, err := h.visitors.UpsertVisitor(ctx, &models.Visitor{
		Fingerprint:      req.Fingerprint,
		IPAddress:        ClientIP(r),
		UserAgent:        r.UserAgent(),
		Language:         req.Language,
		Timezone:         req.Timezone,
		ScreenResolution: req.ScreenResolution,
		Platform:         req.Platform,
		Referrer:         req.Referrer,
		FirstSeen:        now,
		LastSeen:         now,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to upsert visitor", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	remaining := quota.FreeQueryLimit - visitor.QueryCount
	if remaining < 0 {
		remaining = 0
	}

	h.logger.DebugContext(ctx, "visitor upserted",
		slog.Int64("visitor_id", visitor.ID),
		slog.Int("query_count", visitor.QueryCount))

	sendJSON(h.logger, w, api.VisitorResponse{
		VisitorID:        visitor.ID,
		QueryCount:       visitor.QueryCount,
		QueriesRemaining: remaining,
	}, http.StatusOK)
}
