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

// CreatePasswordReset stores a new reset grant, invalidating the user's
// prior unused grants first
func (s *Storage) CreatePasswordReset(ctx context.Context, reset *models.PasswordReset) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Сначала гасим все неиспользованные гранты пользователя, чтобы после
	// вставки действовал ровно один
	if _, err := tx.ExecContext(ctx,
		`UPDATE password_resets SET used = 1 WHERE user_id = ? AND used = 0`,
		reset.UserID,
	); err != nil {
		return 0, fmt.Errorf("failed to invalidate prior resets: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO password_resets (user_id, token, expires_at, used, created_at)
		VALUES (?, ?, ?, 0, ?)`,
		reset.UserID,
		reset.Token,
		reset.ExpiresAt,
		reset.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: password_resets.token") {
			return 0, storage.ErrDuplicateToken
		}
		return 0, fmt.Errorf("failed to insert password reset: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted reset id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit password reset: %w", err)
	}

	return id, nil
}

// GetValidReset retrieves an unused, unexpired reset grant by token
func (s *Storage) GetValidReset(ctx context.Context, token string, now time.Time) (*models.PasswordReset, error) {
	query := `
		SELECT id, user_id, token, expires_at, used, created_at
		FROM password_resets
		WHERE token = ? AND used = 0 AND expires_at > ?
	`

	reset := &models.PasswordReset{}

	err := s.db.QueryRowContext(ctx, query, token, now).Scan(
		&reset.ID,
		&reset.UserID,
		&reset.Token,
		&reset.ExpiresAt,
		&reset.Used,
		&reset.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrResetNotFound
		}
		return nil, fmt.Errorf("failed to get password reset: %w", err)
	}

	return reset, nil
}

// MarkResetUsed consumes a reset grant by token
func (s *Storage) MarkResetUsed(ctx context.Context, token string) error {
	query := `UPDATE password_resets SET used = 1 WHERE token = ?`

	result, err := s.db.ExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("failed to mark reset used: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrResetNotFound
	}

	return nil
}
