package storage

import (
	"context"
	"time"

	"github.com/addrlens/addrlens/internal/models"
)

// SessionStorage defines interface for session persistence
type SessionStorage interface {
	// CreateSession stores a new session and returns its id
	// Returns ErrDuplicateToken on token collision
	CreateSession(ctx context.Context, session *models.Session) (int64, error)

	// GetSessionByToken retrieves a session joined with its owning user.
	// Only returns a row while expires_at > now; expired sessions are
	// unreadable without being proactively deleted.
	// Returns ErrSessionNotFound otherwise.
	GetSessionByToken(ctx context.Context, token string, now time.Time) (*models.Session, *models.User, error)

	// DeleteSessionByToken deletes a session by token value
	// Returns ErrSessionNotFound if no such session exists
	DeleteSessionByToken(ctx context.Context, token string) error

	// DeleteUserSessions deletes all sessions of a user
	// Returns number of deleted sessions
	DeleteUserSessions(ctx context.Context, userID int64) (int, error)

	// DeleteExpiredSessions removes all sessions expired at now.
	// Maintenance sweep, safe to run repeatedly; no-op if none expired.
	// Returns number of deleted sessions
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
}
