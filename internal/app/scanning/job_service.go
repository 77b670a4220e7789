// Package scanning provides the services that create, run and track security
// scan jobs.
package scanning

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domain "github.com/ahrav/secaudit/internal/domain/scanning"
	"github.com/ahrav/secaudit/pkg/common/logger"
)

// lockStripes bounds the per-job mutex table.
const lockStripes = 64

// JobService is the only write path for scan jobs. Updates to one job are
// serialized so concurrent readers never observe a lost update.
type JobService struct {
	repo         domain.JobRepository
	timeProvider domain.TimeProvider

	locks [lockStripes]sync.Mutex

	logger *logger.Logger
	tracer trace.Tracer
}

// JobServiceOption customizes a JobService.
type JobServiceOption func(*JobService)

// WithJobClock sets the clock stamped on newly created jobs.
func WithJobClock(tp domain.TimeProvider) JobServiceOption {
	return func(s *JobService) { s.timeProvider = tp }
}

// NewJobService creates a new instance of the job service with required dependencies.
func NewJobService(repo domain.JobRepository, logger *logger.Logger, tracer trace.Tracer, opts ...JobServiceOption) *JobService {
	s := &JobService{
		repo:   repo,
		logger: logger.With("component", "job_service"),
		tracer: tracer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *JobService) lockFor(jobID uuid.UUID) *sync.Mutex {
	return &s.locks[int(jobID[15])%lockStripes]
}

// Create persists a new pending job with a fresh id.
func (s *JobService) Create(ctx context.Context, settings domain.Settings) (*domain.Job, error) {
	jobID := uuid.New()
	ctx, span := s.tracer.Start(ctx, "job_service.create",
		trace.WithAttributes(
			attribute.String("job_id", jobID.String()),
			attribute.String("scan_type", string(settings.ScanType)),
		))
	defer span.End()

	var opts []domain.JobOption
	if s.timeProvider != nil {
		opts = append(opts, domain.WithTimeProvider(s.timeProvider))
	}
	job := domain.NewJob(jobID, settings, opts...)

	if err := s.repo.CreateJob(ctx, job); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create job")
		return nil, fmt.Errorf("failed to create job (job_id: %s): %w", jobID, err)
	}
	span.SetStatus(codes.Ok, "job created")
	s.logger.Info(ctx, "Scan job created", "job_id", jobID, "scan_type", settings.ScanType)

	return job, nil
}

// Update applies a partial update to a job and persists the result. Updates
// to the same job are applied one at a time.
func (s *JobService) Update(ctx context.Context, jobID uuid.UUID, patch domain.JobPatch) (*domain.Job, error) {
	ctx, span := s.tracer.Start(ctx, "job_service.update",
		trace.WithAttributes(attribute.String("job_id", jobID.String())))
	defer span.End()

	mu := s.lockFor(jobID)
	mu.Lock()
	defer mu.Unlock()

	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load job")
		return nil, fmt.Errorf("failed to load job (job_id: %s): %w", jobID, err)
	}

	if err := job.Apply(patch); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "patch rejected")
		return nil, fmt.Errorf("failed to apply update (job_id: %s): %w", jobID, err)
	}

	if err := s.repo.UpdateJob(ctx, job); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist job")
		return nil, fmt.Errorf("failed to persist job (job_id: %s): %w", jobID, err)
	}
	span.SetAttributes(
		attribute.String("status", job.Status().String()),
		attribute.Int("progress", job.Progress()),
	)

	return job, nil
}

// Get returns a job by id.
func (s *JobService) Get(ctx context.Context, jobID uuid.UUID) (*domain.Job, error) {
	ctx, span := s.tracer.Start(ctx, "job_service.get",
		trace.WithAttributes(attribute.String("job_id", jobID.String())))
	defer span.End()

	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get job (job_id: %s): %w", jobID, err)
	}
	return job, nil
}

// List returns up to limit jobs, newest first.
func (s *JobService) List(ctx context.Context, limit int) ([]*domain.Job, error) {
	ctx, span := s.tracer.Start(ctx, "job_service.list",
		trace.WithAttributes(attribute.Int("limit", limit)))
	defer span.End()

	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	jobs, err := s.repo.ListJobs(ctx, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list jobs")
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	span.SetAttributes(attribute.Int("job_count", len(jobs)))
	return jobs, nil
}

// Delete removes a job.
func (s *JobService) Delete(ctx context.Context, jobID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "job_service.delete",
		trace.WithAttributes(attribute.String("job_id", jobID.String())))
	defer span.End()

	mu := s.lockFor(jobID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.repo.DeleteJob(ctx, jobID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete job")
		return fmt.Errorf("failed to delete job (job_id: %s): %w", jobID, err)
	}
	s.logger.Info(ctx, "Scan job deleted", "job_id", jobID)
	return nil
}
