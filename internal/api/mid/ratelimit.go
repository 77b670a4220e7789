package mid

import (
	"context"
	"net"
	"net/http"

	"github.com/ahrav/secaudit/internal/api/errs"
	"github.com/ahrav/secaudit/pkg/web"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(key string) bool
}

// RateLimit rejects callers that exceed their token bucket with 429. The
// caller is keyed by identity when Authorize ran first, else by remote host.
func RateLimit(l Limiter) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			key := r.RemoteAddr
			if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
				key = host
			}
			if claims, ok := GetClaims(ctx); ok {
				key = claims.Identity
			}

			if !l.Allow(key) {
				return errs.Newf(errs.ResourceExhausted, "rate limit exceeded")
			}
			return next(ctx, r)
		}

		return h
	}

	return m
}
