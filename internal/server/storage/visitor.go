package storage

import (
	"context"

	"github.com/addrlens/addrlens/internal/models"
)

// VisitorStorage defines interface for anonymous visitor persistence
type VisitorStorage interface {
	// UpsertVisitor inserts a visitor by fingerprint or, if one already exists,
	// refreshes last_seen and network metadata leaving query_count untouched.
	// Returns the current row either way.
	UpsertVisitor(ctx context.Context, visitor *models.Visitor) (*models.Visitor, error)

	// GetVisitorByFingerprint retrieves a visitor by fingerprint
	// Returns ErrVisitorNotFound if no such visitor exists
	GetVisitorByFingerprint(ctx context.Context, fingerprint string) (*models.Visitor, error)

	// GetVisitorByID retrieves a visitor by numeric id
	// Returns ErrVisitorNotFound if no such visitor exists
	GetVisitorByID(ctx context.Context, id int64) (*models.Visitor, error)

	// IncrementQueryCount atomically adds one to the visitor's query counter
	// and returns the new value. The add happens in the storage layer, not as
	// read-modify-write in application code.
	// Returns ErrVisitorNotFound if no such visitor exists
	IncrementQueryCount(ctx context.Context, id int64) (int, error)
}
