package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/addrlens/addrlens/internal/models"
)

// setupTestStorage создает хранилище для теста
func setupTestStorage(t *testing.T) (*Storage, func()) {
	t.Helper()
	ctx := context.Background()

	// Используем in-memory database для тестов
	storage, err := New(ctx, ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		_ = storage.Close()
	}

	return storage, cleanup
}

// createTestUser вставляет пользователя и возвращает его id
func createTestUser(t *testing.T, ctx context.Context, s *Storage, email string) int64 {
	t.Helper()

	id, err := s.CreateUser(ctx, &models.User{
		Email:        email,
		PasswordHash: "$2a$12$testhash",
		Tier:         models.DefaultTier,
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)

	return id
}

// createTestVisitor вставляет посетителя и возвращает его
func createTestVisitor(t *testing.T, ctx context.Context, s *Storage, fingerprint string) *models.Visitor {
	t.Helper()

	now := time.Now()
	visitor, err := s.UpsertVisitor(ctx, &models.Visitor{
		Fingerprint: fingerprint,
		IPAddress:   "127.0.0.1",
		UserAgent:   "test-agent",
		FirstSeen:   now,
		LastSeen:    now,
	})
	require.NoError(t, err)

	return visitor
}

// timePtr helper
func timePtr(t time.Time) *time.Time {
	return &t
}

// newToken helper для уникальных токенов в тестах
func newToken() string {
	return uuid.New().String()
}
