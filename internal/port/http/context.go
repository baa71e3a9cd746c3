package http

import "context"

// ContextKey keeps request-scoped values from colliding with other packages.
type ContextKey string

// UserIDCtxKey holds the authenticated caller id set by Authenticate.
const UserIDCtxKey = ContextKey("user_id")

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDCtxKey).(string)
	return id, ok && id != ""
}
