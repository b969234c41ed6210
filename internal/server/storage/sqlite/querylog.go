package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/addrlens/addrlens/internal/models"
	"github.com/addrlens/addrlens/internal/server/storage"
)

const queryLogColumns = `id, visitor_id, user_id, address, chain, query_type,
	ip_address, user_agent, status, created_at`

// InsertQueryLog appends an audit entry and returns its id
func (s *Storage) InsertQueryLog(ctx context.Context, entry *models.QueryLogEntry) (int64, error) {
	query := `
		INSERT INTO query_log (visitor_id, user_id, address, chain, query_type,
			ip_address, user_agent, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		entry.VisitorID,
		entry.UserID,
		entry.Address,
		entry.Chain,
		entry.QueryType,
		entry.IPAddress,
		entry.UserAgent,
		entry.Status,
		entry.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert query log entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted entry id: %w", err)
	}

	return id, nil
}

// UpdateQueryStatusByID backfills the outcome status of a specific entry
func (s *Storage) UpdateQueryStatusByID(ctx context.Context, id int64, status string) error {
	query := `UPDATE query_log SET status = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update query status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrQueryNotFound
	}

	return nil
}

// UpdateLatestQueryStatus backfills the most recent entry for (address, requester)
func (s *Storage) UpdateLatestQueryStatus(ctx context.Context, address string, visitorID, userID *int64, status string) error {
	// Обновление по recency, fallback для клиентов без log_id.
	// Одинаковые адреса от одного отправителя в коротком окне могут
	// попасть не в ту строку; точный путь — UpdateQueryStatusByID.
	// IS вместо = из-за NULL в visitor_id/user_id
	query := `
		UPDATE query_log
		SET status = ?
		WHERE id = (
			SELECT id FROM query_log
			WHERE address = ? AND visitor_id IS ? AND user_id IS ?
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		)
	`

	result, err := s.db.ExecContext(ctx, query, status, address, visitorID, userID)
	if err != nil {
		return fmt.Errorf("failed to update latest query status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrQueryNotFound
	}

	return nil
}

// ListUserQueries returns one page of a user's entries, newest first
func (s *Storage) ListUserQueries(ctx context.Context, userID int64, page, limit int) (*storage.QueryPage, error) {
	return s.listQueries(ctx, `WHERE user_id = ?`, []interface{}{userID}, page, limit)
}

// ListAllQueries returns one page of all entries, newest first
func (s *Storage) ListAllQueries(ctx context.Context, page, limit int) (*storage.QueryPage, error) {
	return s.listQueries(ctx, ``, nil, page, limit)
}

// CountUserQueriesBetween counts a user's entries created in [from, to)
func (s *Storage) CountUserQueriesBetween(ctx context.Context, userID int64, from, to time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM query_log WHERE user_id = ? AND created_at >= ? AND created_at < ?`

	var count int
	if err := s.db.QueryRowContext(ctx, query, userID, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count queries: %w", err)
	}

	return count, nil
}

// listQueries общий код пагинации для ListUserQueries и ListAllQueries
func (s *Storage) listQueries(ctx context.Context, where string, args []interface{}, page, limit int) (*storage.QueryPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM query_log ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count query log entries: %w", err)
	}

	listQuery := `SELECT ` + queryLogColumns + ` FROM query_log ` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	listArgs := append(append([]interface{}{}, args...), limit, (page-1)*limit)

	rows, err := s.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query log entries: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []*models.QueryLogEntry

	for rows.Next() {
		entry := &models.QueryLogEntry{}
		var visitorID, entryUserID sql.NullInt64

		if err := rows.Scan(
			&entry.ID,
			&visitorID,
			&entryUserID,
			&entry.Address,
			&entry.Chain,
			&entry.QueryType,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.Status,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan query log entry: %w", err)
		}

		if visitorID.Valid {
			entry.VisitorID = &visitorID.Int64
		}
		if entryUserID.Valid {
			entry.UserID = &entryUserID.Int64
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return &storage.QueryPage{
		Entries: entries,
		Total:   total,
		Page:    page,
		Limit:   limit,
	}, nil
}
