package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/addrlens/addrlens/internal/models"
	"github.com/addrlens/addrlens/pkg/api"
)

// Ключи контекста для данных, которые кладет auth middleware
type contextKey string

const (
	// UserKey ключ контекста с *models.User аутентифицированного пользователя
	UserKey contextKey = "user"
	// SessionKey ключ контекста с *models.Session активной сессии
	SessionKey contextKey = "session"
)

// UserFromContext returns the authenticated user set by the auth middleware
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(UserKey).(*models.User)
	return user
}

// SessionFromContext returns the active session set by the auth middleware
func SessionFromContext(ctx context.Context) *models.Session {
	session, _ := ctx.Value(SessionKey).(*models.Session)
	return session
}

// ClientIP извлекает IP адрес клиента из запроса.
// Проверяет заголовки X-Forwarded-For и X-Real-IP для прокси
func ClientIP(r *http.Request) string {
	// X-Forwarded-For (для прокси/load balancers): берем первый IP из списка
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return r.RemoteAddr
}

// sendJSON отправляет JSON ответ
func sendJSON(logger *slog.Logger, w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func sendError(logger *slog.Logger, w http.ResponseWriter, message string, statusCode int) {
	sendJSON(logger, w, api.ErrorResponse{Error: message}, statusCode)
}

// sendValidationError отправляет 400 со списком нарушенных правил
func sendValidationError(logger *slog.Logger, w http.ResponseWriter, message string, details []string) {
	sendJSON(logger, w, api.ErrorResponse{Error: message, Details: details}, http.StatusBadRequest)
}
