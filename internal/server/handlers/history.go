package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/addrlens/addrlens/internal/auth"
	"github.com/addrlens/addrlens/internal/server/storage"
	"github.com/addrlens/addrlens/pkg/api"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// HistoryHandler обрабатывает просмотр журнала запросов
type HistoryHandler struct {
	logger     *slog.Logger
	queries    storage.QueryLogStorage
	superusers []string
}

// NewHistoryHandler создает новый handler для истории запросов
func NewHistoryHandler(logger *slog.Logger, queries storage.QueryLogStorage, superusers []string) *HistoryHandler {
	return &HistoryHandler{
		logger:     logger,
		queries:    queries,
		superusers: superusers,
	}
}

// History обрабатывает GET /api/queries/history (за auth middleware)
// Постраничный журнал собственных запросов пользователя
func (h *HistoryHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := UserFromContext(ctx)
	if user == nil {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	page, limit := parsePageParams(r)

	result, err := h.queries.ListUserQueries(ctx, user.ID, page, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list user queries", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, historyResponse(result), http.StatusOK)
}

// HistoryAll обрабатывает GET /api/queries/history/all (за auth middleware)
// Журнал всех пользователей, только для суперпользователей
func (h *HistoryHandler) HistoryAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := UserFromContext(ctx)
	if user == nil {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	// Статус суперпользователя пересчитывается на каждом чтении
	if !auth.IsSuperuser(user, h.superusers) {
		h.logger.WarnContext(ctx, "forbidden history access", slog.Int64("user_id", user.ID))
		sendError(h.logger, w, "forbidden", http.StatusForbidden)
		return
	}

	page, limit := parsePageParams(r)

	result, err := h.queries.ListAllQueries(ctx, page, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list all queries", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, historyResponse(result), http.StatusOK)
}

// parsePageParams читает page и limit из query string с дефолтами и потолком
func parsePageParams(r *http.Request) (page, limit int) {
	page = 1
	limit = defaultHistoryLimit

	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			page = v
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	return page, limit
}

func historyResponse(page *storage.QueryPage) api.HistoryResponse {
	return api.HistoryResponse{
		Queries: page.Entries,
		Pagination: api.Pagination{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.Total,
			TotalPages: page.TotalPages(),
		},
	}
}
