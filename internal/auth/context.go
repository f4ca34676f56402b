// Package auth carries the signed-in user's identity through request
// contexts.
package auth

import "context"

type contextKey struct{}

// Identity describes the authenticated user behind a request.
type Identity struct {
	UserID    int64
	SessionID int64
	Email     string
	Name      string
}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext extracts the identity set by the auth middleware. The
// second return is false on unauthenticated requests.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
