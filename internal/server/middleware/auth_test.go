package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/addrlens/addrlens/internal/models"
	"github.com/addrlens/addrlens/internal/server/handlers"
	"github.com/addrlens/addrlens/internal/server/storage"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError,
	}
	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}

// mockSessionStorage is a mock implementation of SessionStorage for testing
type mockSessionStorage struct {
	sessions map[string]*models.Session
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

// testHandler проверяет, что middleware положил пользователя и сессию в контекст
func testHandler(t *testing.T, expectedUserID int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := handlers.UserFromContext(r.Context())
		require.NotNil(t, user, "user should be in context")
		assert.Equal(t, expectedUserID, user.ID)

		session := handlers.SessionFromContext(r.Context())
		require.NotNil(t, session, "session should be in context")
		assert.Equal(t, expectedUserID, session.UserID)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

func newTestSessions() *mockSessionStorage {
	return &mockSessionStorage{
		sessions: map[string]*models.Session{
			"valid-token": {
				ID:        1,
				UserID:    7,
				Token:     "valid-token",
				ExpiresAt: time.Now().Add(time.Hour),
			},
			"expired-token": {
				ID:        2,
				UserID:    7,
				Token:     "expired-token",
				ExpiresAt: time.Now().Add(-time.Hour),
			},
		},
		users: map[int64]*models.User{
			7: {ID: 7, Email: "user@test.com"},
		},
	}
}

func TestAuthMiddleware_Success(t *testing.T) {
	logger := setupTestLogger()
	authMiddleware := AuthMiddleware(logger, newTestSessions())

	wrappedHandler := authMiddleware(testHandler(t, 7))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer valid-token")

	w := httptest.NewRecorder()
	wrappedHandler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestAuthMiddleware_MissingAuthHeader(t *testing.T) {
	logger := setupTestLogger()
	authMiddleware := AuthMiddleware(logger, newTestSessions())

	wrappedHandler := authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	wrappedHandler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	logger := setupTestLogger()
	authMiddleware := AuthMiddleware(logger, newTestSessions())

	tests := []struct {
		name   string
		header string
	}{
		{name: "wrong scheme", header: "Basic valid-token"},
		{name: "missing token", header: "Bearer"},
		{name: "extra parts", header: "Bearer valid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrappedHandler := authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Authorization", tt.header)
			w := httptest.NewRecorder()
			wrappedHandler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthMiddleware_UnknownToken(t *testing.T) {
	logger := setupTestLogger()
	authMiddleware := AuthMiddleware(logger, newTestSessions())

	wrappedHandler := authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer unknown-token")
	w := httptest.NewRecorder()
	wrappedHandler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ExpiredSession(t *testing.T) {
	logger := setupTestLogger()
	authMiddleware := AuthMiddleware(logger, newTestSessions())

	wrappedHandler := authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	w := httptest.NewRecorder()
	wrappedHandler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_StorageError(t *testing.T) {
	logger := setupTestLogger()
	sessions := newTestSessions()
	sessions.getError = errors.New("storage down")
	authMiddleware := AuthMiddleware(logger, sessions)

	wrappedHandler := authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()
	wrappedHandler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
