package handlers

import (
	"net/http"
)

type contextKey string

// UserIDContextKey carries the authenticated user's id from the JWT
// middleware into handlers.
const UserIDContextKey = contextKey("user_id")

// authorizedFor reports whether the request may act on userID. The id comes
// from the verified token, so a client cannot operate on another user's data
// by editing the path or body. Requests that never passed the JWT middleware
// carry no id and are left to their own guards.
func authorizedFor(r *http.Request, userID int) bool {
	v := r.Context().Value(UserIDContextKey)
	if v == nil {
		return true
	}
	id, ok := v.(int)
	return ok && id == userID
}
