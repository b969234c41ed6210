package validation

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	// MinPasswordLen минимальная длина пароля
	MinPasswordLen = 12

	// PasswordSymbols фиксированный набор допустимых спецсимволов
	PasswordSymbols = `!@#$%^&*()_+-=[]{};':"\|,.<>/?` + "`~"
)

// ValidatePassword проверяет пароль против всех правил сразу (без short-circuit)
// и возвращает список нарушенных правил. Пустой список означает валидный пароль.
// Правила: длина >= 12, хотя бы одна буква, хотя бы одна цифра,
// хотя бы один символ из фиксированного набора.
func ValidatePassword(password string) []string {
	if password == "" {
		return []string{"password is required"}
	}

	var violations []string

	if len(password) < MinPasswordLen {
		violations = append(violations, fmt.Sprintf("password must be at least %d characters long", MinPasswordLen))
	}

	var hasLetter, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(PasswordSymbols, r):
			hasSymbol = true
		}
	}

	if !hasLetter {
		violations = append(violations, "password must contain at least one letter")
	}
	if !hasDigit {
		violations = append(violations, "password must contain at least one number")
	}
	if !hasSymbol {
		violations = append(violations, "password must contain at least one special character")
	}

	return violations
}
