package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost фиксированная стоимость хеширования паролей
const BcryptCost = 12

// HashPassword хеширует пароль через bcrypt (одностороннее, с солью)
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

// VerifyPassword проверяет пароль против сохраненного bcrypt хеша.
// Возвращает только true/false, ничего не раскрывая о причине отказа.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
