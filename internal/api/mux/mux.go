// Package mux wires the application middleware and routes into a single
// http.Handler.
package mux

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/secaudit/internal/api"
	"github.com/ahrav/secaudit/internal/api/mid"
	"github.com/ahrav/secaudit/internal/domain/scanning"
	"github.com/ahrav/secaudit/pkg/common/logger"
	"github.com/ahrav/secaudit/pkg/web"
)

// Options represent optional parameters.
type Options struct {
	corsOrigin []string
}

// WithCORS provides configuration options for CORS.
func WithCORS(origins []string) func(opts *Options) {
	return func(opts *Options) {
		opts.corsOrigin = origins
	}
}

// ScanService is the application surface the scan routes call.
type ScanService interface {
	StartScan(ctx context.Context, settings scanning.Settings) (*scanning.Job, error)
	GetScan(ctx context.Context, jobID uuid.UUID) (*scanning.Job, error)
	ListScans(ctx context.Context, limit int) ([]*scanning.Job, error)
	CancelScan(ctx context.Context, jobID uuid.UUID) error
	DeleteScan(ctx context.Context, jobID uuid.UUID) error
}

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Build   string
	Log     *logger.Logger
	Tracer  trace.Tracer
	Metrics api.APIMetrics
	Scans   ScanService
	Auth    mid.Authenticator
	Limiter mid.Limiter
	// Ready reports whether backing stores are reachable.
	Ready func(ctx context.Context) error
}

// RouteAdder defines behavior that sets the routes to bind for an instance
// of the service.
type RouteAdder interface {
	Add(app *web.App, cfg Config)
}

// WebAPI constructs a http.Handler with all application routes bound.
func WebAPI(cfg Config, routeAdder RouteAdder, options ...func(opts *Options)) http.Handler {
	logger := func(ctx context.Context, msg string, args ...any) {
		cfg.Log.Info(ctx, msg, args...)
	}

	app := web.NewApp(
		logger,
		cfg.Tracer,
		mid.Otel(cfg.Tracer),
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(cfg.Metrics),
		mid.Panics(),
	)

	var opts Options
	for _, option := range options {
		option(&opts)
	}

	if len(opts.corsOrigin) > 0 {
		app.EnableCORS(opts.corsOrigin)
	}

	routeAdder.Add(app, cfg)

	return app
}
