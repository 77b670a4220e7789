// Package scans serves the administrative scan endpoints.
package scans

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ahrav/secaudit/internal/api"
	"github.com/ahrav/secaudit/internal/api/errs"
	"github.com/ahrav/secaudit/internal/api/mid"
	"github.com/ahrav/secaudit/internal/domain/scanning"
	"github.com/ahrav/secaudit/pkg/common/logger"
	"github.com/ahrav/secaudit/pkg/common/otel"
	"github.com/ahrav/secaudit/pkg/web"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Service is the application surface used by the scan handlers.
type Service interface {
	StartScan(ctx context.Context, settings scanning.Settings) (*scanning.Job, error)
	GetScan(ctx context.Context, jobID uuid.UUID) (*scanning.Job, error)
	ListScans(ctx context.Context, limit int) ([]*scanning.Job, error)
	CancelScan(ctx context.Context, jobID uuid.UUID) error
	DeleteScan(ctx context.Context, jobID uuid.UUID) error
}

// Config contains the dependencies needed by the scan handlers.
type Config struct {
	Log     *logger.Logger
	Scans   Service
	Auth    mid.Authenticator
	Limiter mid.Limiter
	Metrics api.APIMetrics
}

// Routes binds all the scan endpoints.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authorized := mid.Authorize(cfg.Auth)
	limited := mid.RateLimit(cfg.Limiter)

	app.HandlerFunc(http.MethodPost, version, "/scans", start(cfg), authorized, limited)
	app.HandlerFunc(http.MethodGet, version, "/scans", list(cfg), authorized)
	app.HandlerFunc(http.MethodGet, version, "/scans/{id}", get(cfg), authorized)
	app.HandlerFunc(http.MethodDelete, version, "/scans/{id}", remove(cfg), authorized)
	app.HandlerFunc(http.MethodPost, version, "/scans/{id}/cancel", cancel(cfg), authorized)
}

// startRequest represents the request payload for starting a scan.
type startRequest struct {
	ScanType   string   `json:"scanType" validate:"required,oneof=quick full custom"`
	ScanDepth  string   `json:"scanDepth" validate:"omitempty,oneof=standard deep"`
	Categories []string `json:"categories" validate:"required_if=ScanType custom,omitempty,min=1"`
}

// Decode implements the web.Decoder interface.
func (sr *startRequest) Decode(data []byte) error {
	return json.Unmarshal(data, sr)
}

// Validate implements the validator interface used by web.Decode.
func (sr *startRequest) Validate() error {
	return errs.Check(sr)
}

// startResponse represents the response for starting a scan.
type startResponse struct {
	ID     uuid.UUID          `json:"id"`
	Status scanning.JobStatus `json:"status"`
}

// Encode implements the web.Encoder interface.
func (sr startResponse) Encode() ([]byte, string, error) {
	data, err := json.Marshal(sr)
	if err != nil {
		return nil, "", err
	}
	return data, "application/json", nil
}

// HTTPStatus reports 201 for a created scan.
func (startResponse) HTTPStatus() int { return http.StatusCreated }

// cancelResponse acknowledges a cancellation request.
type cancelResponse struct {
	ID      uuid.UUID `json:"id"`
	Message string    `json:"message"`
}

// Encode implements the web.Encoder interface.
func (cr cancelResponse) Encode() ([]byte, string, error) {
	data, err := json.Marshal(cr)
	if err != nil {
		return nil, "", err
	}
	return data, "application/json", nil
}

// HTTPStatus reports 202: the run stops asynchronously.
func (cancelResponse) HTTPStatus() int { return http.StatusAccepted }

func start(cfg Config) web.HandlerFunc {
	return func(ctx context.Context, r *http.Request) web.Encoder {
		cfg.Metrics.IncScanRequestsTotal(ctx)

		var req startRequest
		if err := web.Decode(r, &req); err != nil {
			cfg.Metrics.IncScanRequestErrors(ctx, "invalid_request")
			return errs.New(errs.InvalidArgument, err)
		}

		settings, err := scanning.NewSettings(
			scanning.ScanType(req.ScanType),
			scanning.ScanDepth(req.ScanDepth),
			req.Categories,
		)
		if err != nil {
			cfg.Metrics.IncScanRequestErrors(ctx, "invalid_settings")
			return errs.New(errs.InvalidArgument, err)
		}

		ctx, span := otel.AddSpan(ctx, otel.Tracer(ctx), "scans.start",
			attribute.String("scan.type", req.ScanType),
			attribute.StringSlice("scan.categories", req.Categories),
		)
		defer span.End()

		job, err := cfg.Scans.StartScan(ctx, settings)
		if err != nil {
			if errors.Is(err, scanning.ErrQueueFull) {
				cfg.Metrics.IncScanRequestErrors(ctx, "queue_full")
				return errs.New(errs.ResourceExhausted, err)
			}
			cfg.Metrics.IncScanRequestErrors(ctx, "internal")
			return errs.New(errs.Internal, err)
		}

		if claims, ok := mid.GetClaims(ctx); ok {
			cfg.Log.Info(ctx, "Scan requested", "job_id", job.JobID(), "requested_by", claims.Identity)
		}

		return startResponse{ID: job.JobID(), Status: job.Status()}
	}
}

func list(cfg Config) web.HandlerFunc {
	return func(ctx context.Context, r *http.Request) web.Encoder {
		limit := defaultListLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				return errs.Newf(errs.InvalidArgument, "limit must be a positive integer")
			}
			limit = min(n, maxListLimit)
		}

		jobs, err := cfg.Scans.ListScans(ctx, limit)
		if err != nil {
			return errs.New(errs.Internal, err)
		}
		if jobs == nil {
			jobs = []*scanning.Job{}
		}
		return web.JSONEncoder{Value: jobs}
	}
}

func get(cfg Config) web.HandlerFunc {
	return func(ctx context.Context, r *http.Request) web.Encoder {
		id, err := jobID(r)
		if err != nil {
			return err
		}

		job, gerr := cfg.Scans.GetScan(ctx, id)
		if gerr != nil {
			return mapError(gerr)
		}
		return web.JSONEncoder{Value: job}
	}
}

func remove(cfg Config) web.HandlerFunc {
	return func(ctx context.Context, r *http.Request) web.Encoder {
		id, err := jobID(r)
		if err != nil {
			return err
		}

		if derr := cfg.Scans.DeleteScan(ctx, id); derr != nil {
			return mapError(derr)
		}
		return web.JSONEncoder{Value: map[string]string{"id": id.String(), "message": "scan deleted"}}
	}
}

func cancel(cfg Config) web.HandlerFunc {
	return func(ctx context.Context, r *http.Request) web.Encoder {
		id, err := jobID(r)
		if err != nil {
			return err
		}

		if cerr := cfg.Scans.CancelScan(ctx, id); cerr != nil {
			return mapError(cerr)
		}
		return cancelResponse{ID: id, Message: "scan cancellation requested"}
	}
}

// jobID parses the {id} path parameter.
func jobID(r *http.Request) (uuid.UUID, *errs.Error) {
	id, err := uuid.Parse(web.Param(r, "id"))
	if err != nil {
		return uuid.Nil, errs.Newf(errs.InvalidArgument, "invalid scan id %q", web.Param(r, "id"))
	}
	return id, nil
}

func mapError(err error) *errs.Error {
	switch {
	case errors.Is(err, scanning.ErrJobNotFound):
		return errs.New(errs.NotFound, err)
	case errors.Is(err, scanning.ErrScanNotActive):
		return errs.New(errs.FailedPrecondition, err)
	default:
		return errs.New(errs.Internal, err)
	}
}
