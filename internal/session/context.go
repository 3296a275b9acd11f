package session

import (
	"context"
	"strings"

	"teamspace.org/internal/user"
)

// Principal is the authenticated identity derived from a verified access
// token at the boundary.
type Principal struct {
	UserID string
	Email  string
	Role   user.Role
}

type principalContextKey struct{}

// ContextWithPrincipal attaches the authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, &p)
}

// PrincipalFromContext extracts the authenticated principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	v, ok := ctx.Value(principalContextKey{}).(*Principal)
	if !ok || v == nil || strings.TrimSpace(v.UserID) == "" {
		return Principal{}, false
	}
	return *v, true
}
