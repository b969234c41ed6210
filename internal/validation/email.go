package validation

import (
	"fmt"
	"regexp"
)

// EmailPattern определяет допустимую форму email: local@domain.tld
// Намеренно простая проверка формы, не полная грамматика RFC 5322
var EmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// MaxEmailLen максимальная длина email
const MaxEmailLen = 254

// ValidateEmail проверяет, что строка похожа на адрес вида local@domain.tld
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}

	if len(email) > MaxEmailLen {
		return fmt.Errorf("email must not exceed %d characters", MaxEmailLen)
	}

	if !EmailPattern.MatchString(email) {
		return fmt.Errorf("email must be a valid address like name@example.com")
	}

	return nil
}
