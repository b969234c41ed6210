package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/addrlens/addrlens/internal/auth"
	"github.com/addrlens/addrlens/internal/mailer"
	"github.com/addrlens/addrlens/internal/models"
	"github.com/addrlens/addrlens/internal/server/storage"
	"github.com/addrlens/addrlens/internal/validation"
	"github.com/addrlens/addrlens/pkg/api"
)

// AuthHandler обрабатывает запросы жизненного цикла аккаунта и сессий
type AuthHandler struct {
	logger     *slog.Logger
	users      storage.UserStorage
	sessions   storage.SessionStorage
	resets     storage.ResetStorage
	queries    storage.QueryLogStorage
	mail       mailer.Mailer
	superusers []string
	publicURL  string
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(
	logger *slog.Logger,
	users storage.UserStorage,
	sessions storage.SessionStorage,
	resets storage.ResetStorage,
	queries storage.QueryLogStorage,
	mail mailer.Mailer,
	superusers []string,
	publicURL string,
) *AuthHandler {
	return &AuthHandler{
		logger:     logger,
		users:      users,
		sessions:   sessions,
		resets:     resets,
		queries:    queries,
		mail:       mail,
		superusers: superusers,
		publicURL:  publicURL,
	}
}

// Register обрабатывает POST /api/auth/register
// Регистрация нового аккаунта по email и паролю
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode register request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Валидация отсекается на границе, до обращений к хранилищу
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if err := validation.ValidateEmail(email); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	if violations := validation.ValidatePassword(req.Password); len(violations) > 0 {
		sendValidationError(h.logger, w, "password does not meet requirements", violations)
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	verificationToken := auth.NewToken()
	verificationExpires := auth.VerificationExpiry(now)

	user := &models.User{
		Email:               email,
		PasswordHash:        passwordHash,
		VerificationToken:   &verificationToken,
		VerificationExpires: &verificationExpires,
		Tier:                models.DefaultTier,
		VisitorID:           req.VisitorID,
		CreatedAt:           now,
	}

	id, err := h.users.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrEmailExists) {
			h.logger.WarnContext(ctx, "registration conflict", slog.String("email", email))
			sendError(h.logger, w, "email already registered", http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}
	user.ID = id

	// Письмо с подтверждением шлем best-effort, регистрацию не валим
	link := fmt.Sprintf("%s/api/auth/verify/%s", h.publicURL, verificationToken)
	if err := h.mail.SendVerification(ctx, email, link); err != nil {
		h.logger.WarnContext(ctx, "failed to send verification email", slog.Any("error", err))
	}

	h.logger.InfoContext(ctx, "user registered",
		slog.String("email", email),
		slog.Int64("user_id", id))

	sendJSON(h.logger, w, api.RegisterResponse{
		Success: true,
		User:    auth.SanitizeUser(user, h.superusers),
	}, http.StatusCreated)
}

// VerifyEmail обрабатывает GET /api/auth/verify/{token}
// Подтверждение email по одноразовой ссылке из письма
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := r.PathValue("token")
	if token == "" {
		sendError(h.logger, w, "token is required", http.StatusBadRequest)
		return
	}

	if err := h.users.VerifyEmailByToken(ctx, token, time.Now()); err != nil {
		if errors.Is(err, storage.ErrVerificationNotFound) {
			sendError(h.logger, w, "invalid or expired verification token", http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to verify email", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "email verified")

	// Браузерный переход: уводим на страницу успеха
	http.Redirect(w, r, h.publicURL+"/verified", http.StatusFound)
}

// Login обрабатывает POST /api/auth/login
// Аутентификация по email и паролю, выдает сессионный токен
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode login request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		sendError(h.logger, w, "email and password are required", http.StatusBadRequest)
		return
	}

	// Ответ одинаков для "нет такого email" и "неверный пароль":
	// наружу не отдаем сигнал для перечисления аккаунтов
	user, err := h.users.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "login failed: user not found")
			sendError(h.logger, w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		h.logger.WarnContext(ctx, "login failed: invalid password", slog.Int64("user_id", user.ID))
		sendError(h.logger, w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	now := time.Now()
	session := &models.Session{
		UserID:    user.ID,
		Token:     auth.NewToken(),
		IPAddress: ClientIP(r),
		UserAgent: r.UserAgent(),
		ExpiresAt: auth.SessionExpiry(now),
		CreatedAt: now,
	}

	if _, err := h.sessions.CreateSession(ctx, session); err != nil {
		h.logger.ErrorContext(ctx, "failed to create session", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Не критичная ошибка, логируем но не прерываем
	if err := h.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		h.logger.WarnContext(ctx, "failed to update last login", slog.Any("error", err))
	}
	user.LastLogin = &now

	h.logger.InfoContext(ctx, "user logged in", slog.Int64("user_id", user.ID))

	sendJSON(h.logger, w, api.LoginResponse{
		Success: true,
		Token:   session.Token,
		User:    auth.SanitizeUser(user, h.superusers),
	}, http.StatusOK)
}

// Logout обрабатывает POST /api/auth/logout
// Идемпотентен: успех и при отсутствующем или неизвестном токене
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := auth.ExtractBearerToken(r.Header.Get("Authorization"))
	if token != "" {
		err := h.sessions.DeleteSessionByToken(ctx, token)
		switch {
		case err == nil:
			h.logger.InfoContext(ctx, "session deleted")
		case errors.Is(err, storage.ErrSessionNotFound):
			// Неизвестный токен поглощаем молча
		default:
			h.logger.ErrorContext(ctx, "failed to delete session", slog.Any("error", err))
			sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
			return
		}
	}

	sendJSON(h.logger, w, api.SuccessResponse{Success: true}, http.StatusOK)
}

// Me обрабатывает GET /api/auth/me (за auth middleware)
// Возвращает санитизированного пользователя и состояние сессии
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := UserFromContext(ctx)
	session := SessionFromContext(ctx)
	if user == nil || session == nil {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	// "Сегодня" считается по локальному календарному дню сервера
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	queriesToday, err := h.queries.CountUserQueriesBetween(ctx, user.ID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to count today's queries", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, api.MeResponse{
		User:           auth.SanitizeUser(user, h.superusers),
		QueriesToday:   queriesToday,
		SessionExpires: session.ExpiresAt,
	}, http.StatusOK)
}

// ForgotPassword обрабатывает POST /api/auth/forgot-password
// Всегда отвечает успехом, существование email не раскрывается
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode forgot-password request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" {
		sendError(h.logger, w, "email is required", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		if !errors.Is(err, storage.ErrUserNotFound) {
			h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		}
		// Анти-enumeration: неизвестный email получает тот же ответ
		sendJSON(h.logger, w, api.SuccessResponse{Success: true}, http.StatusOK)
		return
	}

	now := time.Now()
	reset := &models.PasswordReset{
		UserID:    user.ID,
		Token:     auth.NewToken(),
		ExpiresAt: auth.ResetExpiry(now),
		CreatedAt: now,
	}

	// Выпуск нового гранта гасит все предыдущие неиспользованные
	if _, err := h.resets.CreatePasswordReset(ctx, reset); err != nil {
		h.logger.ErrorContext(ctx, "failed to create password reset", slog.Any("error", err))
		sendJSON(h.logger, w, api.SuccessResponse{Success: true}, http.StatusOK)
		return
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", h.publicURL, reset.Token)
	if err := h.mail.SendPasswordReset(ctx, user.Email, link); err != nil {
		h.logger.WarnContext(ctx, "failed to send reset email", slog.Any("error", err))
	}

	h.logger.InfoContext(ctx, "password reset issued", slog.Int64("user_id", user.ID))

	sendJSON(h.logger, w, api.SuccessResponse{Success: true}, http.StatusOK)
}

// ResetPassword обрабатывает POST /api/auth/reset-password
// Потребляет грант сброса и уничтожает все сессии пользователя
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode reset-password request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Token == "" {
		sendError(h.logger, w, "token is required", http.StatusBadRequest)
		return
	}

	if violations := validation.ValidatePassword(req.Password); len(violations) > 0 {
		sendValidationError(h.logger, w, "password does not meet requirements", violations)
		return
	}

	reset, err := h.resets.GetValidReset(ctx, req.Token, time.Now())
	if err != nil {
		if errors.Is(err, storage.ErrResetNotFound) {
			sendError(h.logger, w, "invalid or expired reset token", http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get password reset", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.users.UpdatePasswordHash(ctx, reset.UserID, passwordHash); err != nil {
		h.logger.ErrorContext(ctx, "failed to update password", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.resets.MarkResetUsed(ctx, req.Token); err != nil {
		h.logger.WarnContext(ctx, "failed to mark reset used", slog.Any("error", err))
	}

	// Смена пароля разлогинивает везде: все активные сессии уничтожаются
	deleted, err := h.sessions.DeleteUserSessions(ctx, reset.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to delete user sessions", slog.Any("error", err))
	}

	h.logger.InfoContext(ctx, "password reset consumed",
		slog.Int64("user_id", reset.UserID),
		slog.Int("sessions_deleted", deleted))

	sendJSON(h.logger, w, api.SuccessResponse{Success: true}, http.StatusOK)
}
