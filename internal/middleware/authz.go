package middleware

import (
	"net/http"
	"strings"

	"github.com/casbin/casbin/v2"

	"go-directory-app/internal/apperr"
	"go-directory-app/internal/logger"
	"go-directory-app/internal/session"
)

// TokenVerifier resolves a bearer token to a subject.
type TokenVerifier interface {
	Verify(raw string) (string, error)
}

// Authorizer resolves the caller from the session, or from a bearer token
// when tokens is non-nil, and checks the request against Casbin. Every caller
// also holds the anonymous role's permissions. A denied anonymous caller gets
// 401, a denied authenticated caller 403.
func Authorizer(e casbin.IEnforcer, sm session.Manager, tokens TokenVerifier, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := &UserInfo{Subject: AnonymousSubject}
			if sub := sm.GetString(r.Context(), session.SubjectKey); sub != "" {
				user = &UserInfo{Subject: sub, Via: "session"}
			}
			if raw, ok := bearerToken(r); ok && tokens != nil {
				sub, err := tokens.Verify(raw)
				if err != nil {
					WriteError(w, FromError(apperr.Unauthorized("invalid or expired token")))
					return
				}
				user = &UserInfo{Subject: sub, Via: "token"}
			}
			r = r.WithContext(SetUserInfo(r.Context(), user))

			allowed, err := e.Enforce(user.Subject, r.URL.Path, r.Method)
			if err == nil && !allowed && !user.IsAnonymous() {
				allowed, err = e.Enforce(AnonymousSubject, r.URL.Path, r.Method)
			}
			if err != nil {
				log.Error(err, "authorization check failed")
				WriteError(w, &AppError{Error: err, Message: "Authorization error", Code: http.StatusInternalServerError})
				return
			}
			if !allowed {
				if user.IsAnonymous() {
					WriteError(w, FromError(apperr.Unauthorized("authentication required")))
					return
				}
				WriteError(w, FromError(apperr.Forbidden("admin role required")))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return raw, raw != ""
}
