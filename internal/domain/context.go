package domain

import "context"

type principalKey struct{}

// Principal carries the authenticated identity through request context.
type Principal struct {
	ID      string
	Name    string
	IsAdmin bool
}

// WithPrincipal stores a Principal in the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext extracts the Principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
