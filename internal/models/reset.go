package models

import "time"

// PasswordReset представляет одноразовый грант на смену пароля.
// У пользователя в любой момент не более одного неиспользованного токена:
// выпуск нового помечает все предыдущие как использованные.
type PasswordReset struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Token     string    `json:"-"` // уникальный, одноразовый
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}
