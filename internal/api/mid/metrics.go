package mid

import (
	"context"
	"net/http"
	"time"

	"github.com/ahrav/secaudit/pkg/web"
)

// RequestMetrics records per-route request counts and latency.
type RequestMetrics interface {
	IncRequestsTotal(ctx context.Context, method, path string, status int)
	ObserveRequestDuration(ctx context.Context, method, path string, duration time.Duration)
}

// Metrics updates request metrics for every route.
func Metrics(metrics RequestMetrics) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			start := time.Now()
			resp := next(ctx, r)

			route := r.Pattern
			if route == "" {
				route = r.URL.Path
			}
			metrics.IncRequestsTotal(ctx, r.Method, route, statusOf(resp))
			metrics.ObserveRequestDuration(ctx, r.Method, route, time.Since(start))

			return resp
		}

		return h
	}

	return m
}
