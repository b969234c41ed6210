package storage

import (
	"context"
	"time"

	"github.com/addrlens/addrlens/internal/models"
)

// UserStorage defines interface for user account persistence
type UserStorage interface {
	// CreateUser creates a new user and returns its id
	// Returns ErrEmailExists if the email is already taken (case-insensitive)
	CreateUser(ctx context.Context, user *models.User) (int64, error)

	// GetUserByEmail retrieves a user by email, case-insensitively
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by id
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// VerifyEmailByToken marks the email verified for the user holding the
	// given verification token, clearing the token. Only succeeds if the token
	// matches, has not expired at now, and the email is not yet verified.
	// Returns ErrVerificationNotFound otherwise.
	VerifyEmailByToken(ctx context.Context, token string, now time.Time) error

	// UpdateLastLogin updates the last login timestamp
	// Returns ErrUserNotFound if user doesn't exist
	UpdateLastLogin(ctx context.Context, userID int64, lastLogin time.Time) error

	// UpdatePasswordHash replaces the stored password hash
	// Returns ErrUserNotFound if user doesn't exist
	UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error
}
