package scanning

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domain "github.com/ahrav/secaudit/internal/domain/scanning"
	"github.com/ahrav/secaudit/pkg/common/logger"
)

// scheduler is the part of Dispatcher the scan service needs.
type scheduler interface {
	Submit(ctx context.Context, jobID uuid.UUID) error
	Cancel(ctx context.Context, jobID uuid.UUID) error
	Active(jobID uuid.UUID) bool
}

// ScanService is the entry point used by the request surface. It creates
// jobs and hands them to the dispatcher without waiting for the run.
type ScanService struct {
	jobs       *JobService
	dispatcher scheduler

	logger *logger.Logger
	tracer trace.Tracer
}

// NewScanService creates a ScanService.
func NewScanService(jobs *JobService, dispatcher scheduler, logger *logger.Logger, tracer trace.Tracer) *ScanService {
	return &ScanService{
		jobs:       jobs,
		dispatcher: dispatcher,
		logger:     logger.With("component", "scan_service"),
		tracer:     tracer,
	}
}

// StartScan creates a pending job and queues it. When the queue is full the
// job is marked failed and ErrQueueFull is returned.
func (s *ScanService) StartScan(ctx context.Context, settings domain.Settings) (*domain.Job, error) {
	ctx, span := s.tracer.Start(ctx, "scan_service.start_scan")
	defer span.End()

	job, err := s.jobs.Create(ctx, settings)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create job")
		return nil, err
	}
	span.SetAttributes(attribute.String("job_id", job.JobID().String()))

	if err := s.dispatcher.Submit(ctx, job.JobID()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to queue job")
		if _, uerr := s.jobs.Update(ctx, job.JobID(), domain.JobPatch{
			Status: domain.Ptr(domain.JobStatusFailed),
			Error:  domain.Ptr(err.Error()),
		}); uerr != nil {
			s.logger.Error(ctx, "Failed to mark unqueued job failed", "job_id", job.JobID(), "error", uerr)
		}
		return nil, err
	}
	span.SetStatus(codes.Ok, "scan queued")

	return job, nil
}

// GetScan returns a job.
func (s *ScanService) GetScan(ctx context.Context, jobID uuid.UUID) (*domain.Job, error) {
	return s.jobs.Get(ctx, jobID)
}

// ListScans returns up to limit jobs, newest first.
func (s *ScanService) ListScans(ctx context.Context, limit int) ([]*domain.Job, error) {
	return s.jobs.List(ctx, limit)
}

// CancelScan aborts a queued or running job.
func (s *ScanService) CancelScan(ctx context.Context, jobID uuid.UUID) error {
	if _, err := s.jobs.Get(ctx, jobID); err != nil {
		return err
	}
	return s.dispatcher.Cancel(ctx, jobID)
}

// DeleteScan removes a job, cancelling it first when it is still active.
func (s *ScanService) DeleteScan(ctx context.Context, jobID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "scan_service.delete_scan",
		trace.WithAttributes(attribute.String("job_id", jobID.String())))
	defer span.End()

	if s.dispatcher.Active(jobID) {
		if err := s.dispatcher.Cancel(ctx, jobID); err != nil && !errors.Is(err, domain.ErrScanNotActive) {
			span.RecordError(err)
			return fmt.Errorf("failed to cancel scan before delete (job_id: %s): %w", jobID, err)
		}
		span.AddEvent("scan_cancelled_before_delete")
	}

	if err := s.jobs.Delete(ctx, jobID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete job")
		return err
	}
	return nil
}
