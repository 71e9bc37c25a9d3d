package testutil

import (
	"context"
	"net/http"

	"hemolink/internal/platform/middleware"
)

// WithUserID adds an authenticated user ID to the request context, the way
// the auth middleware would after validating a bearer token.
func WithUserID(req *http.Request, userID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyUserID, userID)
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
