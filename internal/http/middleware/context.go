package middleware

import "context"

type contextKey string

const authContextKey contextKey = "auth"

// Auth is what a guard attaches to the request context once the presented
// token checked out. RefreshJTI is only set by the refresh guard.
type Auth struct {
	UserID     string
	SessionID  string
	RefreshJTI string
}

func withAuth(ctx context.Context, auth Auth) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}

func AuthFromContext(ctx context.Context) (Auth, bool) {
	a, ok := ctx.Value(authContextKey).(Auth)
	return a, ok
}
