//go:build unit

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-directory-app/internal/apperr"
	"go-directory-app/internal/auth"
	"go-directory-app/internal/logger"
	"go-directory-app/internal/session"
)

// mockSessionManager returns a fixed subject.
type mockSessionManager struct {
	subject string
}

var _ session.Manager = (*mockSessionManager)(nil)

func (m *mockSessionManager) LoadAndSave(next http.Handler) http.Handler { return next }
func (m *mockSessionManager) Put(context.Context, string, interface{})   {}
func (m *mockSessionManager) GetString(context.Context, string) string   { return m.subject }
func (m *mockSessionManager) PopString(context.Context, string) string   { return "" }
func (m *mockSessionManager) RenewToken(context.Context) error           { return nil }
func (m *mockSessionManager) Destroy(context.Context) error              { return nil }
func (m *mockSessionManager) Remove(context.Context, string)             {}

type stubTokens map[string]string

func (s stubTokens) Verify(raw string) (string, error) {
	if sub, ok := s[raw]; ok {
		return sub, nil
	}
	return "", errors.New("bad token")
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, false, body["ok"])
	return body["error"].(string)
}

func TestAuthorizer(t *testing.T) {
	e, err := auth.NewMemoryEnforcer()
	require.NoError(t, err)
	auth.SeedDefaultPolicies(e, []string{"alice"}, logger.Nop())

	var seen *UserInfo
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserInfo(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	tokens := stubTokens{"alice-token": "alice", "bob-token": "bob"}

	testCases := []struct {
		name     string
		subject  string
		bearer   string
		method   string
		path     string
		wantCode int
		wantSub  string
	}{
		{"anonymous public page", "", "", "GET", "/businesses/joes-pizza", http.StatusNoContent, AnonymousSubject},
		{"anonymous admin", "", "", "POST", "/admin/delete-business", http.StatusUnauthorized, ""},
		{"non-admin session", "bob", "", "POST", "/admin/delete-business", http.StatusForbidden, ""},
		{"non-admin keeps public access", "bob", "", "GET", "/search", http.StatusNoContent, "bob"},
		{"admin session", "alice", "", "POST", "/admin/delete-business", http.StatusNoContent, "alice"},
		{"admin token", "", "alice-token", "PUT", "/admin/business/joes-pizza", http.StatusNoContent, "alice"},
		{"non-admin token", "", "bob-token", "PUT", "/admin/business/joes-pizza", http.StatusForbidden, ""},
		{"invalid token", "", "garbage", "GET", "/", http.StatusUnauthorized, ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			seen = nil
			h := Authorizer(e, &mockSessionManager{subject: tc.subject}, tokens, logger.Nop())(ok)
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tc.bearer)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantCode, rr.Code)
			if tc.wantSub == "" {
				assert.Nil(t, seen)
				decodeError(t, rr)
				return
			}
			require.NotNil(t, seen)
			assert.Equal(t, tc.wantSub, seen.Subject)
		})
	}
}

func TestAuthorizer_TokensDisabled(t *testing.T) {
	e, err := auth.NewMemoryEnforcer()
	require.NoError(t, err)
	auth.SeedDefaultPolicies(e, nil, logger.Nop())

	h := Authorizer(e, &mockSessionManager{}, nil, logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest("GET", "/admin/business/x", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestFromError(t *testing.T) {
	testCases := []struct {
		err  error
		code int
		msg  string
	}{
		{apperr.Validation("missing required field: %s", "name"), http.StatusBadRequest, "missing required field: name"},
		{apperr.NotFound("page %s not found", "/businesses/x"), http.StatusNotFound, "page /businesses/x not found"},
		{apperr.Unauthorized("login"), http.StatusUnauthorized, "login"},
		{apperr.Forbidden("nope"), http.StatusForbidden, "nope"},
		{apperr.RateLimited("slow down"), http.StatusTooManyRequests, "slow down"},
		{apperr.Storage("failed to write", errors.New("EROFS")), http.StatusInternalServerError, "failed to write"},
		{errors.New("secret detail"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tc := range testCases {
		e := FromError(tc.err)
		assert.Equal(t, tc.code, e.Code)
		assert.Equal(t, tc.msg, e.Message)
	}
	assert.Nil(t, FromError(nil))
}

func TestJSONError(t *testing.T) {
	mw := JSONError(logger.Nop())

	h := mw(func(w http.ResponseWriter, r *http.Request) *AppError {
		return FromError(apperr.RateLimited("too many reviews"))
	})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/reviews", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "too many reviews", decodeError(t, rr))

	panicking := mw(func(w http.ResponseWriter, r *http.Request) *AppError {
		panic("boom")
	})
	rr = httptest.NewRecorder()
	panicking.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Internal Server Error", decodeError(t, rr))
}
