package auth

import (
	"net/http"

	"github.com/logify-app/logify/internal/platform/httpx"
	"github.com/logify-app/logify/internal/shared"
)

// Gate is the read-side authorization check applied to protected routes.
type Gate struct{}

// Authorize returns the session's principal, or ErrUnauthenticated when the
// session is absent, expired, destroyed, or never carried one. It does not
// mutate the session or extend its lifetime.
func (Gate) Authorize(sess *shared.Session) (*shared.Principal, error) {
	if sess == nil {
		return nil, shared.ErrUnauthenticated
	}
	principal := sess.Principal()
	if principal == nil {
		return nil, shared.ErrUnauthenticated
	}
	return principal, nil
}

// RequireUser guards an HTTP subtree behind Authorize.
func (g Gate) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := g.Authorize(shared.SessionFromContext(r.Context())); err != nil {
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
