package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/addrlens/addrlens/internal/auth"
	"github.com/addrlens/addrlens/internal/models"
	"github.com/addrlens/addrlens/internal/quota"
	"github.com/addrlens/addrlens/internal/server/storage"
	"github.com/addrlens/addrlens/pkg/api"
)

// VisitorIDHeader несет visitor id анонимного клиента
const VisitorIDHeader = "X-Visitor-Id"

// QueryHandler обрабатывает решения по поисковым запросам и их аудит
type QueryHandler struct {
	logger  *slog.Logger
	quota   *quota.Service
	queries storage.QueryLogStorage
}

// NewQueryHandler создает новый handler для поисковых запросов
func NewQueryHandler(logger *slog.Logger, quotaService *quota.Service, queries storage.QueryLogStorage) *QueryHandler {
	return &QueryHandler{
		logger:  logger,
		quota:   quotaService,
		queries: queries,
	}
}

// Query обрабатывает POST /api/query
// Решает, разрешен ли поиск, двигает счетчик анонимной квоты и пишет
// ровно одну запись аудита — и для разрешенных, и для отклоненных вызовов
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode query request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Address == "" {
		sendError(h.logger, w, "address is required", http.StatusBadRequest)
		return
	}

	bearerToken := auth.ExtractBearerToken(r.Header.Get("Authorization"))
	visitorID := parseVisitorID(r.Header.Get(VisitorIDHeader))

	// Без какой-либо идентификации решать нечего: клиент обязан сначала
	// зарегистрировать fingerprint через /api/visitor
	if bearerToken == "" && visitorID == 0 {
		sendError(h.logger, w, "visitor id or bearer token is required", http.StatusBadRequest)
		return
	}

	decision, err := h.quota.AuthorizeQuery(ctx, bearerToken, visitorID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to authorize query", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Запись аудита несет либо visitor id, либо user id, никогда оба
	entry := &models.QueryLogEntry{
		Address:   req.Address,
		Chain:     req.Blockchain,
		QueryType: req.QueryType,
		IPAddress: ClientIP(r),
		UserAgent: r.UserAgent(),
		Status:    models.QueryStatusSuccess,
		CreatedAt: time.Now(),
	}
	if decision.Authenticated {
		entry.UserID = &decision.User.ID
	} else if visitorID != 0 {
		entry.VisitorID = &visitorID
	}
	if !decision.Allowed {
		entry.Status = models.QueryStatusRejected
	}

	// Аудит пишется best-effort: его сбой не валит сам запрос
	logID, err := h.queries.InsertQueryLog(ctx, entry)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to insert query log entry", slog.Any("error", err))
	}

	resp := api.QueryResponse{
		Allowed:       decision.Allowed,
		Authenticated: decision.Authenticated,
		RequireLogin:  decision.RequireLogin,
		Reason:        decision.Reason,
		LogID:         logID,
	}
	if decision.Allowed && !decision.Authenticated {
		remaining := decision.QueriesRemaining
		resp.QueriesRemaining = &remaining
	}

	// Исчерпанная квота не является HTTP ошибкой: клиент показывает приглашение
	// зарегистрироваться по allowed=false
	sendJSON(h.logger, w, resp, http.StatusOK)
}

// QueryResult обрабатывает POST /api/query/result
// Уточняет итог поиска в записи аудита: по log_id точно,
// без него — последняя запись пары (адрес, отправитель)
func (h *QueryHandler) QueryResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.QueryResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode query result request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if !models.ValidResultStatus(req.ResponseStatus) {
		sendError(h.logger, w, "response_status must be one of: found, no_data, invalid", http.StatusBadRequest)
		return
	}

	if req.LogID != nil {
		if err := h.queries.UpdateQueryStatusByID(ctx, *req.LogID, req.ResponseStatus); err != nil {
			h.handleUpdateError(ctx, w, err)
			return
		}
		sendJSON(h.logger, w, api.SuccessResponse{Success: true}, http.StatusOK)
		return
	}

	if req.Address == "" {
		sendError(h.logger, w, "address is required", http.StatusBadRequest)
		return
	}

	// Определяем отправителя так же, как при исходном запросе
	var userID, visitorID *int64
	if bearerToken := auth.ExtractBearerToken(r.Header.Get("Authorization")); bearerToken != "" {
		decision, err := h.quota.AuthorizeQuery(ctx, bearerToken, 0)
		if err == nil && decision.Authenticated {
			userID = &decision.User.ID
		}
	}
	if userID == nil {
		if id := parseVisitorID(r.Header.Get(VisitorIDHeader)); id != 0 {
			visitorID = &id
		}
	}

	if userID == nil && visitorID == nil {
		sendError(h.logger, w, "visitor id or bearer token is required", http.StatusBadRequest)
		return
	}

	if err := h.queries.UpdateLatestQueryStatus(ctx, req.Address, visitorID, userID, req.ResponseStatus); err != nil {
		h.handleUpdateError(ctx, w, err)
		return
	}

	sendJSON(h.logger, w, api.SuccessResponse{Success: true}, http.StatusOK)
}

// handleUpdateError обрабатывает исход backfill-обновления.
// Отсутствие строки поглощается: уточнение статуса best-effort
func (h *QueryHandler) handleUpdateError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrQueryNotFound) {
		h.logger.DebugContext(ctx, "query result backfill matched no entry")
		sendJSON(h.logger, w, api.SuccessResponse{Success: true}, http.StatusOK)
		return
	}
	h.logger.ErrorContext(ctx, "failed to update query status", slog.Any("error", err))
	sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
}

// parseVisitorID разбирает заголовок X-Visitor-Id; 0 значит "не передан"
func parseVisitorID(raw string) int64 {
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0
	}
	return id
}
