// Package mailer определяет интерфейс исходящей почты.
// Реальная доставка выполняется внешним collaborator; сервер шлет только две
// служебные ссылки (подтверждение email и сброс пароля).
package mailer

import (
	"context"
	"log/slog"
)

// Mailer delivers account service emails
type Mailer interface {
	// SendVerification delivers a verify-email link to the address
	SendVerification(ctx context.Context, email, link string) error

	// SendPasswordReset delivers a password reset link to the address
	SendPasswordReset(ctx context.Context, email, link string) error
}

// LogMailer является заглушкой доставки: пишет ссылки в лог вместо отправки
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer создает лог-заглушку почты
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendVerification logs the verification link instead of sending it
func (m *LogMailer) SendVerification(ctx context.Context, email, link string) error {
	m.logger.InfoContext(ctx, "verification email (stub)",
		slog.String("email", email),
		slog.String("link", link))
	return nil
}

// SendPasswordReset logs the reset link instead of sending it
func (m *LogMailer) SendPasswordReset(ctx context.Context, email, link string) error {
	m.logger.InfoContext(ctx, "password reset email (stub)",
		slog.String("email", email),
		slog.String("link", link))
	return nil
}
