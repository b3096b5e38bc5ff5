// Package api implements the Inscribe REST API using chi.
package api

import (
	"net/http"
	"strings"

	"github.com/starford/inscribe/internal/identity"
	"github.com/starford/inscribe/internal/models"
)

// IdentityHeader names the acting identity when authentication is disabled.
const IdentityHeader = "X-Identity"

// Authenticator resolves a bearer token to an identity.
type Authenticator interface {
	Lookup(token string) (models.Identity, bool)
}

// AuthMiddleware attaches the calling principal to the request context.
//
// With tokens == nil (disabled mode) the principal is taken verbatim from the
// X-Identity header, and requests without one carry no principal. Otherwise
// every request must present "Authorization: Bearer <token>" for a token
// known to tokens.
func AuthMiddleware(tokens Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokens == nil {
				if id := strings.TrimSpace(r.Header.Get(IdentityHeader)); id != "" {
					r = r.WithContext(identity.WithPrincipal(r.Context(), models.Identity(id)))
				}
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			id, ok := tokens.Lookup(token)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r.WithContext(identity.WithPrincipal(r.Context(), id)))
		})
	}
}
