// Package mid contains the middleware chain applied to every API route.
package mid

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/secaudit/pkg/common/otel"
	"github.com/ahrav/secaudit/pkg/web"
)

// Otel opens a span named after the matched route, makes the tracer
// available to handlers and marks the span failed on 5xx responses.
func Otel(tracer trace.Tracer) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			ctx = otel.InjectTracing(ctx, tracer)

			ctx, span := tracer.Start(ctx, "api."+r.Pattern,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.route", r.Pattern),
				))
			defer span.End()

			resp := next(ctx, r)

			status := statusOf(resp)
			span.SetAttributes(attribute.Int("http.status_code", status))
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}

			return resp
		}

		return h
	}

	return m
}
