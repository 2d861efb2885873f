package session

import "context"

type contextKey string

const authContextKey contextKey = "auth"

// AuthContext is the identity attached to a request by Manager.Require.
type AuthContext struct {
	Authenticated bool
	UserID        int64
	Username      string
}

// Anonymous is the AuthContext of a request without a session.
var Anonymous = AuthContext{}

// Authenticated returns the AuthContext for a logged in user.
func Authenticated(userID int64, username string) AuthContext {
	return AuthContext{Authenticated: true, UserID: userID, Username: username}
}

// WithAuth returns a copy of ctx carrying ac.
func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, ac)
}

// FromContext returns the AuthContext stored in ctx, or Anonymous.
func FromContext(ctx context.Context) AuthContext {
	if ac, ok := ctx.Value(authContextKey).(AuthContext); ok {
		return ac
	}
	return Anonymous
}
