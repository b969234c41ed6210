package storage

import "errors"

// Common storage errors.
// Not-found условия и конфликты уникальности возвращаются sentinel
// ошибками; все прочие сбои хранилища оборачиваются через %w.
var (
	// ErrVisitorNotFound indicates that no visitor matches the given id or fingerprint
	ErrVisitorNotFound = errors.New("visitor not found")

	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists indicates that a user with this email already exists (case-insensitive)
	ErrEmailExists = errors.New("email already registered")

	// ErrSessionNotFound indicates that no unexpired session matches the token
	ErrSessionNotFound = errors.New("session not found")

	// ErrVerificationNotFound indicates that no pending unexpired verification matches the token
	ErrVerificationNotFound = errors.New("verification token not found")

	// ErrResetNotFound indicates that no valid (unused, unexpired) reset matches the token
	ErrResetNotFound = errors.New("password reset not found")

	// ErrDuplicateToken indicates a unique token collision on insert
	ErrDuplicateToken = errors.New("token already exists")

	// ErrQueryNotFound indicates that no query log entry matched the update
	ErrQueryNotFound = errors.New("query log entry not found")
)
