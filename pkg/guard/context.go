package guard

import (
	"context"
	"errors"

	"github.com/Ryan-Har/commonground/pkg/models"
)

type contextKey struct{}

var principalKey contextKey

// ErrUnauthenticated is returned by MustPrincipal when the request carries
// no principal.
var ErrUnauthenticated = errors.New("unauthenticated")

// WithPrincipal returns a copy of ctx carrying p. A nil p leaves ctx as is.
func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	if p == nil {
		return ctx
	}
	return context.WithValue(ctx, principalKey, p)
}

// OptionalPrincipal returns the principal, or false for a guest.
func OptionalPrincipal(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*models.Principal)
	return p, ok && p != nil
}

// MustPrincipal returns the principal or ErrUnauthenticated.
func MustPrincipal(ctx context.Context) (*models.Principal, error) {
	p, ok := OptionalPrincipal(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return p, nil
}
