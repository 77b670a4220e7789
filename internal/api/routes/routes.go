// Package routes binds every route group served by the scan API.
package routes

import (
	"github.com/ahrav/secaudit/internal/api/mux"
	"github.com/ahrav/secaudit/internal/api/routes/health"
	"github.com/ahrav/secaudit/internal/api/routes/scans"
	"github.com/ahrav/secaudit/pkg/web"
)

// Routes constructs an add value which provides the implementation of
// RouteAdder for specifying what routes to bind to this instance.
func Routes() add {
	return add{}
}

type add struct{}

// Add implements the RouteAdder interface.
func (add) Add(app *web.App, cfg mux.Config) {
	health.Routes(app, health.Config{
		Build: cfg.Build,
		Log:   cfg.Log,
		Ready: cfg.Ready,
	})

	scans.Routes(app, scans.Config{
		Log:     cfg.Log,
		Scans:   cfg.Scans,
		Auth:    cfg.Auth,
		Limiter: cfg.Limiter,
		Metrics: cfg.Metrics,
	})
}
