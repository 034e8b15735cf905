package handler

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"net/http"

	"go-directory-app/internal/auth"
	"go-directory-app/internal/logger"
	"go-directory-app/internal/middleware"
	"go-directory-app/internal/session"
)

// AuthHandler holds the dependencies for the authentication handlers.
type AuthHandler struct {
	auth    *auth.Authenticator
	session session.Manager
	log     logger.Logger
}

// NewAuthHandler creates a new AuthHandler. a is nil when no OIDC provider is
// configured; login then reports the service as unavailable.
func NewAuthHandler(a *auth.Authenticator, sm session.Manager, log logger.Logger) *AuthHandler {
	return &AuthHandler{auth: a, session: sm, log: log}
}

var errSignInDisabled = errors.New("oidc provider not configured")

// handleLogin redirects the user to the OIDC provider to log in. A random
// state kept in the session protects the callback against CSRF.
func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if h.auth == nil {
		return &middleware.AppError{Error: errSignInDisabled, Message: "Sign-in is not available", Code: http.StatusServiceUnavailable}
	}
	state, err := randString(16)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Internal Server Error", Code: http.StatusInternalServerError}
	}
	h.session.Put(r.Context(), session.StateKey, state)
	http.Redirect(w, r, h.auth.AuthCodeURL(state), http.StatusFound)
	return nil
}

// handleCallback exchanges the authorization code, verifies the ID token and
// stores its subject in a renewed session.
func (h *AuthHandler) handleCallback(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if h.auth == nil {
		return &middleware.AppError{Error: errSignInDisabled, Message: "Sign-in is not available", Code: http.StatusServiceUnavailable}
	}
	state := h.session.PopString(r.Context(), session.StateKey)
	if state == "" || r.URL.Query().Get("state") != state {
		return &middleware.AppError{Error: errors.New("state mismatch"), Message: "state did not match", Code: http.StatusBadRequest}
	}

	oauth2Token, err := h.auth.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to exchange token", Code: http.StatusInternalServerError}
	}
	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return &middleware.AppError{Error: errors.New("missing id_token"), Message: "No id_token field in oauth2 token", Code: http.StatusInternalServerError}
	}
	idToken, err := h.auth.IDTokenVerifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to verify ID Token", Code: http.StatusInternalServerError}
	}

	if err := h.session.RenewToken(r.Context()); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to renew session", Code: http.StatusInternalServerError}
	}
	h.session.Put(r.Context(), session.SubjectKey, idToken.Subject)
	h.log.Info("signed in: " + idToken.Subject)

	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}

// handleLogout destroys the session and returns to the home page.
func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := h.session.Destroy(r.Context()); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to sign out", Code: http.StatusInternalServerError}
	}
	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}

// randString generates a random URL-safe string for the 'state' parameter.
func randString(nByte int) (string, error) {
	b := make([]byte, nByte)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
