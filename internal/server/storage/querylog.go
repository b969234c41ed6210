package storage

import (
	"context"
	"time"

	"github.com/addrlens/addrlens/internal/models"
)

// QueryPage represents one page of the query audit log
type QueryPage struct {
	Entries []*models.QueryLogEntry
	Total   int // общее число записей, не только на этой странице
	Page    int
	Limit   int
}

// TotalPages returns the number of pages for the page size of this result.
func (p *QueryPage) TotalPages() int {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

// QueryLogStorage defines interface for the append-only query audit log
type QueryLogStorage interface {
	// InsertQueryLog appends an audit entry and returns its id.
	// The id is handed back to clients so the result backfill can target
	// the exact row instead of guessing by recency.
	InsertQueryLog(ctx context.Context, entry *models.QueryLogEntry) (int64, error)

	// UpdateQueryStatusByID backfills the outcome status of a specific entry
	// Returns ErrQueryNotFound if no such entry exists
	UpdateQueryStatusByID(ctx context.Context, id int64, status string) error

	// UpdateLatestQueryStatus backfills the outcome status of the most recent
	// entry for the (address, requester) pair. Kept for clients that do not
	// echo the log id back; races under concurrent identical-address requests.
	// Returns ErrQueryNotFound if nothing matched
	UpdateLatestQueryStatus(ctx context.Context, address string, visitorID, userID *int64, status string) error

	// ListUserQueries returns one page of a user's entries, newest first,
	// with total count
	ListUserQueries(ctx context.Context, userID int64, page, limit int) (*QueryPage, error)

	// ListAllQueries returns one page of all entries, newest first.
	// Operator-only variant of ListUserQueries
	ListAllQueries(ctx context.Context, page, limit int) (*QueryPage, error)

	// CountUserQueriesBetween counts a user's entries created in [from, to)
	CountUserQueriesBetween(ctx context.Context, userID int64, from, to time.Time) (int, error)
}
