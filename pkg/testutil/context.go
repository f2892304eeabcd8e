package testutil

import (
	"context"
	"net/http"

	"idv/internal/platform/middleware"
	"idv/pkg/requestcontext"
)

// WithUserID adds a user ID to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithUserID(req *http.Request, userID string) *http.Request {
	if userID == "" {
		return req
	}
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

// WithAuth adds the user ID and the calling service provider, the state
// RequireAuth leaves behind for a valid token.
func WithAuth(req *http.Request, userID, clientID string) *http.Request {
	req = WithUserID(req, userID)
	if clientID != "" {
		req = req.WithContext(context.WithValue(req.Context(), middleware.ContextKeyClientID, clientID))
	}
	return req
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
