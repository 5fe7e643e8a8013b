// Package shared holds cross-cutting helpers used by multiple verticals.
package shared

import "context"

// UserContext is the authenticated principal attached to each request.
type UserContext struct {
	ID        int64  `json:"user_id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	WorkingID string `json:"working_id"`
}

type contextKey string

const userContextKey contextKey = "resinflow.user"

// ContextWithUser attaches the authenticated user to the context.
func ContextWithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user, or nil outside an
// authenticated request.
func UserFromContext(ctx context.Context) *UserContext {
	user, _ := ctx.Value(userContextKey).(*UserContext)
	return user
}
