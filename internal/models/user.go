package models

import "time"

// User представляет зарегистрированный аккаунт
type User struct {
	ID                  int64      `json:"id"`
	Email               string     `json:"email"`         // уникальный без учета регистра
	PasswordHash        string     `json:"-"`             // bcrypt хеш, наружу не отдается
	EmailVerified       bool       `json:"email_verified"`
	VerificationToken   *string    `json:"-"`             // одноразовый токен подтверждения email
	VerificationExpires *time.Time `json:"-"`
	Tier                string     `json:"tier"`          // тариф, сейчас только "free"
	VisitorID           *int64     `json:"visitor_id,omitempty"` // слабая ссылка на сконвертированного посетителя
	Superuser           bool       `json:"-"`             // хранимый флаг; итоговый статус см. auth.IsSuperuser
	CreatedAt           time.Time  `json:"created_at"`
	LastLogin           *time.Time `json:"last_login,omitempty"`
}

// PublicUser is the external projection of a User.
// Contains no password hash and no internal tokens.
type PublicUser struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	EmailVerified bool       `json:"email_verified"`
	Tier          string     `json:"tier"`
	IsSuperuser   bool       `json:"is_superuser"`
	CreatedAt     time.Time  `json:"created_at"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
}

// DefaultTier назначается новым аккаунтам при регистрации
const DefaultTier = "free"
