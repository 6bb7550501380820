package auth

import (
	"context"

	"github.com/user/landing-go/apperror"
)

// contextKey is unexported so no other package can collide with it.
type contextKey string

const claimsContextKey contextKey = "auth_claims"

// NewContextWithClaims returns a child of ctx carrying verified claims.
func NewContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext returns the claims stored by the Gate. ok is false on
// routes the Gate does not wrap.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok && claims != nil
}

// ErrNoAuthContext is returned by handlers that expect the Gate to have run
// but find no claims.
var ErrNoAuthContext = apperror.NewAuthError("authentication required", nil)

// MustClaims returns the request's claims or ErrNoAuthContext.
func MustClaims(ctx context.Context) (*Claims, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return nil, ErrNoAuthContext
	}
	return claims, nil
}
