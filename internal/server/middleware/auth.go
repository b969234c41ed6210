package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/addrlens/addrlens/internal/auth"
	"github.com/addrlens/addrlens/internal/server/handlers"
	"github.com/addrlens/addrlens/internal/server/storage"
)

// AuthMiddleware создает middleware для проверки сессионного токена.
// Токен резолвится в хранилище; просроченные сессии невидимы при чтении,
// заранее их инвалидировать не нужно
func AuthMiddleware(logger *slog.Logger, sessions storage.SessionStorage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ExtractBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				logger.Warn("missing or malformed Authorization header")
				http.Error(w, "Unauthorized: missing token", http.StatusUnauthorized)
				return
			}

			session, user, err := sessions.GetSessionByToken(r.Context(), token, time.Now())
			if err != nil {
				if errors.Is(err, storage.ErrSessionNotFound) {
					logger.Warn("invalid or expired session token")
					http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
					return
				}
				logger.Error("failed to resolve session", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			// Добавляем пользователя и сессию в контекст
			ctx := context.WithValue(r.Context(), handlers.UserKey, user)
			ctx = context.WithValue(ctx, handlers.SessionKey, session)

			logger.Debug("user authenticated", "user_id", user.ID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
