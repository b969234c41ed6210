package quota

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/addrlens/addrlens/internal/models"
	"github.com/addrlens/addrlens/internal/server/storage"
)

// mockSessionStorage is a mock implementation of SessionStorage for testing
type mockSessionStorage struct {
	sessions map[string]*models.Session // token -> Session
	users    map[int64]*models.User
	getError error
}

func (m *mockSessionStorage) CreateSession(ctx context.Context, session *models.Session) (int64, error) {
	return 0, nil
}

func (m *mockSessionStorage) GetSessionByToken(ctx context.Context, token string, now time.Time) (*models.Session, *models.User, error) {
	if m.getError != nil {
		return nil, nil, m.getError
	}
	session, ok := m.sessions[token]
	if !ok || !session.Valid(now) {
		return nil, nil, storage.ErrSessionNotFound
	}
	return session, m.users[session.UserID], nil
}

func (m *mockSessionStorage) DeleteSessionByToken(ctx context.Context, token string) error {
	return nil
}

func (m *mockSessionStorage) DeleteUserSessions(ctx context.Context, userID int64) (int, error) {
	return 0, nil
}

func (m *mockSessionStorage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

// mockVisitorStorage is a mock implementation of VisitorStorage for testing
type mockVisitorStorage struct {
	visitors       map[int64]*models.Visitor
	getError       error
	incrementError error
}

func (m *mockVisitorStorage) UpsertVisitor(ctx context.Context, visitor *models.Visitor) (*models.Visitor, error) {
	return visitor, nil
}

func (m *mockVisitorStorage) GetVisitorByFingerprint(ctx context.Context, fingerprint string) (*models.Visitor, error) {
	return nil, storage.ErrVisitorNotFound
}

func (m *mockVisitorStorage) GetVisitorByID(ctx context.Context, id int64) (*models.Visitor, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	visitor, ok := m.visitors[id]
	if !ok {
		return nil, storage.ErrVisitorNotFound
	}
	return visitor, nil
}

func (m *mockVisitorStorage) IncrementQueryCount(ctx context.Context, id int64) (int, error) {
	if m.incrementError != nil {
		return 0, m.incrementError
	}
	visitor, ok := m.visitors[id]
	if !ok {
		return 0, storage.ErrVisitorNotFound
	}
	visitor.QueryCount++
	return visitor.QueryCount, nil
}

func newTestService(sessions *mockSessionStorage, visitors *mockVisitorStorage) *Service {
	logger := slog.New(slog.DiscardHandler)
	return NewService(logger, sessions, visitors)
}

func TestAuthorizeQuery_Authenticated(t *testing.T) {
	user := &models.User{ID: 7, Email: "user@test.com"}
	sessions := &mockSessionStorage{
		sessions: map[string]*models.Session{
			"valid-token": {ID: 1, UserID: 7, Token: "valid-token", ExpiresAt: time.Now().Add(time.Hour)},
		},
		users: map[int64]*models.User{7: user},
	}
	visitors := &mockVisitorStorage{visitors: map[int64]*models.Visitor{}}
	svc := newTestService(sessions, visitors)

	decision, err := svc.AuthorizeQuery(context.Background(), "valid-token", 0)
	require.NoError(t, err)

	assert.True(t, decision.Allowed)
	assert.True(t, decision.Authenticated)
	require.NotNil(t, decision.User)
	assert.Equal(t, int64(7), decision.User.ID)
}

func TestAuthorizeQuery_ExpiredSessionFallsBackToVisitor(t *testing.T) {
	sessions := &mockSessionStorage{
		sessions: map[string]*models.Session{
			"expired": {ID: 1, UserID: 7, Token: "expired", ExpiresAt: time.Now().Add(-time.Hour)},
		},
	}
	visitors := &mockVisitorStorage{
		visitors: map[int64]*models.Visitor{1: {ID: 1, QueryCount: 0}},
	}
	svc := newTestService(sessions, visitors)

	decision, err := svc.AuthorizeQuery(context.Background(), "expired", 1)
	require.NoError(t, err)

	// Просроченный токен не дает аутентификации, но анонимная квота работает
	assert.True(t, decision.Allowed)
	assert.False(t, decision.Authenticated)
	assert.Equal(t, 2, decision.QueriesRemaining)
}

func TestAuthorizeQuery_MissingVisitorID(t *testing.T) {
	svc := newTestService(
		&mockSessionStorage{},
		&mockVisitorStorage{visitors: map[int64]*models.Visitor{}},
	)

	decision, err := svc.AuthorizeQuery(context.Background(), "", 0)
	require.NoError(t, err)

	assert.False(t, decision.Allowed)
	assert.True(t, decision.RequireLogin)
	assert.Equal(t, ReasonLoginRequired, decision.Reason)
}

func TestAuthorizeQuery_UnknownVisitor(t *testing.T) {
	svc := newTestService(
		&mockSessionStorage{},
		&mockVisitorStorage{visitors: map[int64]*models.Visitor{}},
	)

	decision, err := svc.AuthorizeQuery(context.Background(), "", 42)
	require.NoError(t, err)

	assert.False(t, decision.Allowed)
	assert.True(t, decision.RequireLogin)
}

func TestAuthorizeQuery_QuotaProgression(t *testing.T) {
	visitors := &mockVisitorStorage{
		visitors: map[int64]*models.Visitor{1: {ID: 1, QueryCount: 0}},
	}
	svc := newTestService(&mockSessionStorage{}, visitors)

	// Три бесплатных запроса с остатками 2, 1, 0
	for _, wantRemaining := range []int{2, 1, 0} {
		decision, err := svc.AuthorizeQuery(context.Background(), "", 1)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.False(t, decision.Authenticated)
		assert.Equal(t, wantRemaining, decision.QueriesRemaining)
	}

	// Четвертый отклоняется без инкремента
	decision, err := svc.AuthorizeQuery(context.Background(), "", 1)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.True(t, decision.RequireLogin)
	assert.Equal(t, FreeQueryLimit, visitors.visitors[1].QueryCount)

	// Счетчик не двигается и при повторных отказах
	_, err = svc.AuthorizeQuery(context.Background(), "", 1)
	require.NoError(t, err)
	assert.Equal(t, FreeQueryLimit, visitors.visitors[1].QueryCount)
}

func TestAuthorizeQuery_CeilingWithoutMutation(t *testing.T) {
	visitors := &mockVisitorStorage{
		visitors: map[int64]*models.Visitor{1: {ID: 1, QueryCount: FreeQueryLimit}},
	}
	svc := newTestService(&mockSessionStorage{}, visitors)

	decision, err := svc.AuthorizeQuery(context.Background(), "", 1)
	require.NoError(t, err)

	assert.False(t, decision.Allowed)
	assert.Equal(t, FreeQueryLimit, visitors.visitors[1].QueryCount)
}

func TestAuthorizeQuery_StorageErrors(t *testing.T) {
	storeErr := errors.New("disk exploded")

	t.Run("session lookup failure", func(t *testing.T) {
		svc := newTestService(
			&mockSessionStorage{getError: storeErr},
			&mockVisitorStorage{},
		)
		_, err := svc.AuthorizeQuery(context.Background(), "token", 1)
		assert.ErrorIs(t, err, storeErr)
	})

	t.Run("visitor lookup failure", func(t *testing.T) {
		svc := newTestService(
			&mockSessionStorage{},
			&mockVisitorStorage{getError: storeErr},
		)
		_, err := svc.AuthorizeQuery(context.Background(), "", 1)
		assert.ErrorIs(t, err, storeErr)
	})
}
