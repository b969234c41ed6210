package api

import (
	"time"

	"github.com/addrlens/addrlens/internal/models"
)

// RegisterRequest представляет запрос на регистрацию нового аккаунта
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	VisitorID *int64 `json:"visitor_id,omitempty"` // связь с анонимным посетителем, если был
}

// RegisterResponse представляет ответ на успешную регистрацию
type RegisterResponse struct {
	Success bool               `json:"success"`
	User    *models.PublicUser `json:"user"`
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse представляет ответ с сессионным токеном
type LoginResponse struct {
	Success bool               `json:"success"`
	Token   string             `json:"token"` // opaque bearer token сессии
	User    *models.PublicUser `json:"user"`
}

// MeResponse представляет текущего пользователя и состояние его сессии
type MeResponse struct {
	User           *models.PublicUser `json:"user"`
	QueriesToday   int                `json:"queries_today"`
	SessionExpires time.Time          `json:"session_expires"`
}

// ForgotPasswordRequest представляет запрос на сброс пароля
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest представляет применение гранта сброса пароля
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// SuccessResponse представляет общий успешный ответ без данных
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string   `json:"error"`             // описание ошибки
	Details []string `json:"details,omitempty"` // список нарушенных правил валидации
}
