package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/addrlens/addrlens/internal/models"
	"github.com/addrlens/addrlens/internal/server/storage"
)

// UpsertVisitor inserts a visitor by fingerprint or refreshes an existing one
func (s *Storage) UpsertVisitor(ctx context.Context, visitor *models.Visitor) (*models.Visitor, error) {
	// При конфликте по fingerprint обновляем last_seen и сетевые метаданные,
	// query_count не трогаем
	query := `
		INSERT INTO visitors (fingerprint, ip_address, user_agent, language, timezone,
			screen_resolution, platform, referrer, query_count, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			ip_address = excluded.ip_address,
			user_agent = excluded.user_agent,
			language = excluded.language,
			timezone = excluded.timezone,
			screen_resolution = excluded.screen_resolution,
			platform = excluded.platform,
			last_seen = excluded.last_seen
	`

	_, err := s.db.ExecContext(ctx, query,
		visitor.Fingerprint,
		visitor.IPAddress,
		visitor.UserAgent,
		visitor.Language,
		visitor.Timezone,
		visitor.ScreenResolution,
		visitor.Platform,
		visitor.Referrer,
		visitor.FirstSeen,
		visitor.LastSeen,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert visitor: %w", err)
	}

	return s.GetVisitorByFingerprint(ctx, visitor.Fingerprint)
}

// GetVisitorByFingerprint retrieves a visitor by fingerprint
func (s *Storage) GetVisitorByFingerprint(ctx context.Context, fingerprint string) (*models.Visitor, error) {
	query := `
		SELECT id, fingerprint, ip_address, user_agent, language, timezone,
			screen_resolution, platform, referrer, query_count, first_seen, last_seen
		FROM visitors
		WHERE fingerprint = ?
	`

	return s.scanVisitor(s.db.QueryRowContext(ctx, query, fingerprint))
}

// GetVisitorByID retrieves a visitor by numeric id
func (s *Storage) GetVisitorByID(ctx context.Context, id int64) (*models.Visitor, error) {
	query := `
		SELECT id, fingerprint, ip_address, user_agent, language, timezone,
			screen_resolution, platform, referrer, query_count, first_seen, last_seen
		FROM visitors
		WHERE id = ?
	`

	return s.scanVisitor(s.db.QueryRowContext(ctx, query, id))
}

// IncrementQueryCount atomically adds one to the visitor's counter
func (s *Storage) IncrementQueryCount(ctx context.Context, id int64) (int, error) {
	// Атомарный инкремент на стороне хранилища, не read-modify-write в коде.
	// RETURNING отдает значение из той же операции
	query := `
		UPDATE visitors
		SET query_count = query_count + 1
		WHERE id = ?
		RETURNING query_count
	`

	var count int
	err := s.db.QueryRowContext(ctx, query, id).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, storage.ErrVisitorNotFound
		}
		return 0, fmt.Errorf("failed to increment query count: %w", err)
	}

	return count, nil
}

// scanVisitor читает одну строку visitors
func (s *Storage) scanVisitor(row *sql.Row) (*models.Visitor, error) {
	visitor := &models.Visitor{}

	err := row.Scan(
		&visitor.ID,
		&visitor.Fingerprint,
		&visitor.IPAddress,
		&visitor.UserAgent,
		&visitor.Language,
		&visitor.Timezone,
		&visitor.ScreenResolution,
		&visitor.Platform,
		&visitor.Referrer,
		&visitor.QueryCount,
		&visitor.FirstSeen,
		&visitor.LastSeen,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrVisitorNotFound
		}
		return nil, fmt.Errorf("failed to get visitor: %w", err)
	}

	return visitor, nil
}
