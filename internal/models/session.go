package models

import "time"

// Session представляет подтверждение аутентификации пользователя.
// Валидна только пока expires_at в будущем; удаление немедленно и необратимо.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Token     string    `json:"-"`          // opaque bearer token, уникальный
	IPAddress string    `json:"ip_address"` // IP на момент создания
	UserAgent string    `json:"user_agent"` // User-Agent на момент создания
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Valid reports whether the session has not expired at the given moment.
func (s *Session) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
