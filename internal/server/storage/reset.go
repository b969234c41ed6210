package storage

import (
	"context"
	"time"

	"github.com/addrlens/addrlens/internal/models"
)

// ResetStorage defines interface for password reset grant persistence
type ResetStorage interface {
	// CreatePasswordReset stores a new reset grant and returns its id.
	// Side effect: all prior unused grants of the same user are marked used
	// before the insert, so exactly one unused grant exists afterwards.
	CreatePasswordReset(ctx context.Context, reset *models.PasswordReset) (int64, error)

	// GetValidReset retrieves a reset grant by token, only while it is
	// unused and unexpired at now.
	// Returns ErrResetNotFound otherwise.
	GetValidReset(ctx context.Context, token string, now time.Time) (*models.PasswordReset, error)

	// MarkResetUsed consumes a reset grant by token
	// Returns ErrResetNotFound if no such grant exists
	MarkResetUsed(ctx context.Context, token string) error
}
