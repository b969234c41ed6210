package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/addrlens/addrlens/pkg/api"
)

func TestVisitorRegister(t *testing.T) {
	env := setupTestEnv(t)

	req := jsonRequest(t, http.MethodPost, "/api/visitor", api.VisitorRequest{
		Fingerprint: "abc123",
		Language:    "en-US",
		Timezone:    "Europe/Berlin",
		Platform:    "Linux x86_64",
	})
	req.Header.Set("User-Agent", "test-agent")
	w := httptest.NewRecorder()
	env.visitor.Register(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[api.VisitorResponse](t, w)
	assert.NotZero(t, resp.VisitorID)
	assert.Equal(t, 0, resp.QueryCount)
	assert.Equal(t, 3, resp.QueriesRemaining)
}

func TestVisitorRegister_RepeatKeepsCount(t *testing.T) {
	env := setupTestEnv(t)
	visitorID := registerVisitor(t, env, "abc123")

	// Тратим один бесплатный запрос
	_, err := env.store.IncrementQueryCount(context.Background(), visitorID)
	require.NoError(t, err)

	// Повторная регистрация того же fingerprint не сбрасывает счетчик
	req := jsonRequest(t, http.MethodPost, "/api/visitor", api.VisitorRequest{Fingerprint: "abc123"})
	w := httptest.NewRecorder()
	env.visitor.Register(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[api.VisitorResponse](t, w)
	assert.Equal(t, visitorID, resp.VisitorID)
	assert.Equal(t, 1, resp.QueryCount)
	assert.Equal(t, 2, resp.QueriesRemaining)
}

func TestVisitorRegister_MissingFingerprint(t *testing.T) {
	env := setupTestEnv(t)

	req := jsonRequest(t, http.MethodPost, "/api/visitor", api.VisitorRequest{})
	w := httptest.NewRecorder()
	env.visitor.Register(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVisitorRegister_InvalidBody(t *testing.T) {
	env := setupTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/visitor", nil)
	w := httptest.NewRecorder()
	env.visitor.Register(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
