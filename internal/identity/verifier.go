// Package identity answers "may this call act as that identity?".
package identity

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_verifier.go -package=mocks github.com/starford/inscribe/internal/identity Verifier

import (
	"context"
	"fmt"

	"github.com/starford/inscribe/internal/apperr"
	"github.com/starford/inscribe/internal/models"
)

// Verifier fails with apperr.ErrUnauthorized when the invoking principal
// cannot act as id.
type Verifier interface {
	Assert(ctx context.Context, id models.Identity) error
}

type principalKey struct{}

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, principalKey{}, id)
}

// PrincipalFrom returns the principal attached by the transport, if any.
func PrincipalFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(principalKey{}).(models.Identity)
	return id, ok && id != ""
}

// ContextVerifier accepts a call when the context principal equals the identity.
type ContextVerifier struct{}

// Assert implements Verifier.
func (ContextVerifier) Assert(ctx context.Context, id models.Identity) error {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return fmt.Errorf("identity: no principal for %s: %w", id, apperr.ErrUnauthorized)
	}
	if id == "" || p != id {
		return fmt.Errorf("identity: %s cannot act as %s: %w", p, id, apperr.ErrUnauthorized)
	}
	return nil
}
