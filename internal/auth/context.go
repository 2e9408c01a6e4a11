// Package auth provides identity resolution helpers.
//
// A request's identity is the User matched by its bearer credential, or
// absent. Absence is a normal outcome: anonymous requests flow through every
// read path unchanged and are only rejected by mutations that require an
// attributable identity.
package auth

import (
	"context"

	"github.com/photoshare/photoshare/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// identityContextKey is the context key for storing the resolved identity.
	identityContextKey contextKey = "identity"
)

// ContextWithIdentity attaches the resolved user to the context.
func ContextWithIdentity(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, identityContextKey, user)
}

// IdentityFromContext retrieves the resolved identity from the context.
// Returns nil for anonymous requests.
func IdentityFromContext(ctx context.Context) *model.User {
	user, ok := ctx.Value(identityContextKey).(*model.User)
	if !ok {
		return nil
	}
	return user
}

// LoginFromContext is a convenience function to get the caller's login.
// Returns empty string for anonymous requests.
func LoginFromContext(ctx context.Context) string {
	user := IdentityFromContext(ctx)
	if user == nil {
		return ""
	}
	return user.GithubLogin
}
