package auth

import (
	"strings"

	"github.com/addrlens/addrlens/internal/models"
)

// IsSuperuser вычисляет итоговый статус суперпользователя:
// хранимый флаг ИЛИ членство в конфигурируемом allow-list email'ов.
// Чистая функция, пересчитывается при каждом чтении: кешированному
// значению извне доверять нельзя.
func IsSuperuser(user *models.User, allowlist []string) bool {
	if user == nil {
		return false
	}
	if user.Superuser {
		return true
	}
	for _, email := range allowlist {
		if strings.EqualFold(user.Email, email) {
			return true
		}
	}
	return false
}

// SanitizeUser проецирует пользователя во внешнее представление.
// Безусловно отбрасывает password hash и внутренние токены.
func SanitizeUser(user *models.User, allowlist []string) *models.PublicUser {
	if user == nil {
		return nil
	}
	return &models.PublicUser{
		ID:            user.ID,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		Tier:          user.Tier,
		IsSuperuser:   IsSuperuser(user, allowlist),
		CreatedAt:     user.CreatedAt,
		LastLogin:     user.LastLogin,
	}
}
