package middleware

import "context"

// contextKey defines a custom type for context keys to avoid collisions.
type contextKey string

const userContextKey = contextKey("user")

// AnonymousSubject is the subject of callers with no session or token.
const AnonymousSubject = "anonymous"

// UserInfo represents the caller as resolved by the Authorizer.
type UserInfo struct {
	Subject string
	Via     string // "session", "token" or "" for anonymous callers
}

// IsAnonymous reports whether the caller has no identity.
func (u *UserInfo) IsAnonymous() bool {
	return u.Subject == AnonymousSubject
}

// GetUserInfo retrieves the user information from the request context.
func GetUserInfo(ctx context.Context) *UserInfo {
	if userInfo, ok := ctx.Value(userContextKey).(*UserInfo); ok {
		return userInfo
	}
	return &UserInfo{Subject: AnonymousSubject}
}

// SetUserInfo adds the user information to the request context.
func SetUserInfo(ctx context.Context, userInfo *UserInfo) context.Context {
	return context.WithValue(ctx, userContextKey, userInfo)
}
