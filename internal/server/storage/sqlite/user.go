package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/addrlens/addrlens/internal/models"
	"github.com/addrlens/addrlens/internal/server/storage"
)

const userColumns = `id, email, password_hash, email_verified, verification_token,
	verification_expires, tier, visitor_id, is_superuser, created_at, last_login`

// CreateUser creates a new user account
func (s *Storage) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	query := `
		INSERT INTO users (email, password_hash, email_verified, verification_token,
			verification_expires, tier, visitor_id, is_superuser, created_at, last_login)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.EmailVerified,
		user.VerificationToken,
		user.VerificationExpires,
		user.Tier,
		user.VisitorID,
		user.Superuser,
		user.CreatedAt,
		user.LastLogin,
	)
	if err != nil {
		// Проверяем на duplicate email (уникальность без учета регистра,
		// COLLATE NOCASE на колонке)
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return 0, storage.ErrEmailExists
		}
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.verification_token") {
			return 0, storage.ErrDuplicateToken
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted user id: %w", err)
	}

	return id, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

// GetUserByID retrieves a user by id
func (s *Storage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// VerifyEmailByToken marks the email verified and clears the token
func (s *Storage) VerifyEmailByToken(ctx context.Context, token string, now time.Time) error {
	// Срабатывает только для неподтвержденного email с неистекшим токеном;
	// повторное использование того же токена не находит строку
	query := `
		UPDATE users
		SET email_verified = 1, verification_token = NULL, verification_expires = NULL
		WHERE verification_token = ? AND email_verified = 0 AND verification_expires > ?
	`

	result, err := s.db.ExecContext(ctx, query, token, now)
	if err != nil {
		return fmt.Errorf("failed to verify email: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrVerificationNotFound
	}

	return nil
}

// UpdateLastLogin updates the last login timestamp
func (s *Storage) UpdateLastLogin(ctx context.Context, userID int64, lastLogin time.Time) error {
	query := `UPDATE users SET last_login = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, lastLogin, userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

// UpdatePasswordHash replaces the stored password hash
func (s *Storage) UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

// scanUser читает одну строку users
func (s *Storage) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var verificationToken sql.NullString
	var verificationExpires, lastLogin sql.NullTime
	var visitorID sql.NullInt64

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.EmailVerified,
		&verificationToken,
		&verificationExpires,
		&user.Tier,
		&visitorID,
		&user.Superuser,
		&user.CreatedAt,
		&lastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if verificationToken.Valid {
		user.VerificationToken = &verificationToken.String
	}
	if verificationExpires.Valid {
		user.VerificationExpires = &verificationExpires.Time
	}
	if visitorID.Valid {
		user.VisitorID = &visitorID.Int64
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}

	return user, nil
}
