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

// CreateSession stores a new session
func (s *Storage) CreateSession(ctx context.Context, session *models.Session) (int64, error) {
	query := `
		INSERT INTO sessions (user_id, token, ip_address, user_agent, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		session.UserID,
		session.Token,
		session.IPAddress,
		session.UserAgent,
		session.ExpiresAt,
		session.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: sessions.token") {
			return 0, storage.ErrDuplicateToken
		}
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted session id: %w", err)
	}

	return id, nil
}

// GetSessionByToken retrieves an unexpired session joined with its owning user
func (s *Storage) GetSessionByToken(ctx context.Context, token string, now time.Time) (*models.Session, *models.User, error) {
	// Истечение проверяется при чтении: expires_at строго больше now.
	// Просроченные строки просто не видны, удалять их заранее не требуется
	query := `
		SELECT s.id, s.user_id, s.token, s.ip_address, s.user_agent, s.expires_at, s.created_at,
			u.id, u.email, u.password_hash, u.email_verified, u.verification_token,
			u.verification_expires, u.tier, u.visitor_id, u.is_superuser, u.created_at, u.last_login
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = ? AND s.expires_at > ?
	`

	session := &models.Session{}
	user := &models.User{}
	var verificationToken sql.NullString
	var verificationExpires, lastLogin sql.NullTime
	var visitorID sql.NullInt64

	err := s.db.QueryRowContext(ctx, query, token, now).Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.IPAddress,
		&session.UserAgent,
		&session.ExpiresAt,
		&session.CreatedAt,
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
			return nil, nil, storage.ErrSessionNotFound
		}
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
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

	return session, user, nil
}

// DeleteSessionByToken deletes a session by token value
func (s *Storage) DeleteSessionByToken(ctx context.Context, token string) error {
	query := `DELETE FROM sessions WHERE token = ?`

	result, err := s.db.ExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrSessionNotFound
	}

	return nil
}

// DeleteUserSessions deletes all sessions of a user
func (s *Storage) DeleteUserSessions(ctx context.Context, userID int64) (int, error) {
	query := `DELETE FROM sessions WHERE user_id = ?`

	result, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}

// DeleteExpiredSessions removes all sessions expired at now
func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	query := `DELETE FROM sessions WHERE expires_at <= ?`

	result, err := s.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}
