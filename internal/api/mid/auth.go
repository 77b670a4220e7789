package mid

import (
	"context"
	"net/http"

	"github.com/ahrav/secaudit/internal/api/errs"
	"github.com/ahrav/secaudit/internal/infra/auth"
	"github.com/ahrav/secaudit/pkg/web"
)

type claimsKey struct{}

// Authenticator verifies the Authorization header of a request.
type Authenticator interface {
	Authenticate(header string) (auth.Claims, error)
}

// GetClaims returns the claims stored by Authorize.
func GetClaims(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(auth.Claims)
	return c, ok
}

// Authorize rejects requests without a valid token, and callers that are
// not administrators, with 401.
func Authorize(a Authenticator) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			claims, err := a.Authenticate(r.Header.Get("Authorization"))
			if err != nil {
				return errs.New(errs.Unauthenticated, err)
			}
			if !claims.Admin {
				return errs.Newf(errs.Unauthenticated, "administrator privileges required")
			}

			ctx = context.WithValue(ctx, claimsKey{}, claims)
			return next(ctx, r)
		}

		return h
	}

	return m
}
