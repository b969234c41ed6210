package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Сроки жизни выдаваемых токенов, три независимые политики
const (
	// SessionTTL срок жизни сессии
	SessionTTL = 7 * 24 * time.Hour
	// VerificationTTL срок жизни токена подтверждения email
	VerificationTTL = 24 * time.Hour
	// ResetTTL срок жизни токена сброса пароля
	ResetTTL = time.Hour
)

// NewToken генерирует opaque токен (криптографически случайный UUID).
// Используется для сессий, подтверждения email и сброса пароля.
// Вероятность коллизии пренебрежимо мала, retry-цикла нет:
// страховкой служит unique constraint в хранилище.
func NewToken() string {
	return uuid.New().String()
}

// SessionExpiry returns the absolute expiry timestamp for a session issued at now.
func SessionExpiry(now time.Time) time.Time {
	return now.Add(SessionTTL)
}

// VerificationExpiry returns the expiry timestamp for an email verification token issued at now.
func VerificationExpiry(now time.Time) time.Time {
	return now.Add(VerificationTTL)
}

// ResetExpiry returns the expiry timestamp for a password reset token issued at now.
func ResetExpiry(now time.Time) time.Time {
	return now.Add(ResetTTL)
}

// ExtractBearerToken извлекает токен из заголовка "Authorization: Bearer <token>".
// Возвращает пустую строку, если заголовок отсутствует, схема не Bearer
// или формат не состоит ровно из двух частей.
func ExtractBearerToken(header string) string {
	if header == "" {
		return ""
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return parts[1]
}
