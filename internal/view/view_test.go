//go:build unit

package view

import (
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-directory-app/internal/middleware"
	"go-directory-app/web"
)

func TestView_RenderEmbeddedTemplates(t *testing.T) {
	v, err := New(web.TemplateFS)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	err = v.Render(rr, req, "error.html", map[string]interface{}{"StatusCode": 404, "StatusText": "Not Found"})
	require.NoError(t, err)

	body := rr.Body.String()
	assert.Contains(t, body, "<h1>404</h1>")
	assert.Contains(t, body, "Sign in")
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
}

func TestView_RenderShowsSignedInUser(t *testing.T) {
	v, err := New(web.TemplateFS)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(middleware.SetUserInfo(req.Context(), &middleware.UserInfo{Subject: "alice", Via: "session"}))
	rr := httptest.NewRecorder()
	require.NoError(t, v.Render(rr, req, "home.html", map[string]interface{}{"Listings": nil}))
	assert.Contains(t, rr.Body.String(), "Sign out")
	assert.Contains(t, rr.Body.String(), "No businesses to show yet.")
}

func TestView_UnknownTemplate(t *testing.T) {
	v, err := New(fstest.MapFS{})
	require.NoError(t, err)
	err = v.Render(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil), "missing.html", nil)
	assert.Error(t, err)
}
