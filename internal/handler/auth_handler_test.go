//go:build unit

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-directory-app/internal/logger"
	"go-directory-app/internal/session"
)

// mockSessionManager is a mock implementation of the session.Manager interface.
type mockSessionManager struct {
	values        map[string]interface{}
	destroyCalled bool
	renewCalled   bool
}

// Ensure mockSessionManager implements the session.Manager interface.
var _ session.Manager = (*mockSessionManager)(nil)

func newMockSession() *mockSessionManager {
	return &mockSessionManager{values: map[string]interface{}{}}
}

func (m *mockSessionManager) LoadAndSave(next http.Handler) http.Handler { return next }
func (m *mockSessionManager) Put(_ context.Context, key string, val interface{}) {
	m.values[key] = val
}
func (m *mockSessionManager) GetString(_ context.Context, key string) string {
	s, _ := m.values[key].(string)
	return s
}
func (m *mockSessionManager) PopString(ctx context.Context, key string) string {
	s := m.GetString(ctx, key)
	delete(m.values, key)
	return s
}
func (m *mockSessionManager) RenewToken(_ context.Context) error {
	m.renewCalled = true
	return nil
}
func (m *mockSessionManager) Remove(_ context.Context, key string) { delete(m.values, key) }
func (m *mockSessionManager) Destroy(_ context.Context) error {
	m.destroyCalled = true
	m.values = map[string]interface{}{}
	return nil
}

func TestLogoutHandler(t *testing.T) {
	sm := newMockSession()
	sm.values[session.SubjectKey] = "alice"
	// The authenticator is not used by the logout handler.
	h := NewAuthHandler(nil, sm, logger.Nop())

	req := httptest.NewRequest("GET", "/auth/logout", nil)
	rr := httptest.NewRecorder()

	appErr := h.handleLogout(rr, req)
	require.Nil(t, appErr)

	assert.True(t, sm.destroyCalled)
	assert.Empty(t, sm.GetString(req.Context(), session.SubjectKey))
	assert.Equal(t, http.StatusFound, rr.Code)

	location, err := rr.Result().Location()
	require.NoError(t, err)
	assert.Equal(t, "/", location.Path)
}

func TestLoginHandler_WithoutProvider(t *testing.T) {
	h := NewAuthHandler(nil, newMockSession(), logger.Nop())

	appErr := h.handleLogin(httptest.NewRecorder(), httptest.NewRequest("GET", "/auth/login", nil))
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.Code)
}

func TestRandString(t *testing.T) {
	a, err := randString(16)
	require.NoError(t, err)
	b, err := randString(16)
	require.NoError(t, err)

	assert.Len(t, a, 22)
	assert.NotEqual(t, a, b)
}
