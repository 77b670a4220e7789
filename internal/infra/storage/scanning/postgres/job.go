package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/secaudit/internal/domain/scanning"
	"github.com/ahrav/secaudit/internal/infra/storage"
)

// jobStore implements scanning.JobRepository using PostgreSQL as the backing store.
// Collections and the report are held as JSONB columns next to the scalar
// lifecycle fields.
var _ scanning.JobRepository = (*jobStore)(nil)

type jobStore struct {
	db     *pgxpool.Pool
	tracer trace.Tracer
}

// NewJobStore creates a new PostgreSQL-backed job repository with tracing capabilities.
func NewJobStore(pool *pgxpool.Pool, tracer trace.Tracer) *jobStore {
	return &jobStore{db: pool, tracer: tracer}
}

// defaultDBAttributes defines standard OpenTelemetry attributes for database operations.
var defaultDBAttributes = []attribute.KeyValue{
	attribute.String("db.system", "postgresql"),
}

func withAttrs(extra ...attribute.KeyValue) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(defaultDBAttributes)+len(extra))
	attrs = append(attrs, defaultDBAttributes...)
	return append(attrs, extra...)
}

const jobColumns = `job_id, status, progress, current_check, settings, vulnerabilities,
	recommendations, total_checks, passed_checks, failed_checks, risk_score, report,
	error, created_at, started_at, completed_at, updated_at`

// jobRow is the column-level encoding of a job snapshot.
type jobRow struct {
	id              pgtype.UUID
	status          string
	progress        int32
	currentCheck    pgtype.Text
	settings        []byte
	vulnerabilities []byte
	recommendations []byte
	totalChecks     int32
	passedChecks    int32
	failedChecks    int32
	riskScore       pgtype.Float8
	report          []byte
	errMsg          pgtype.Text
	createdAt       pgtype.Timestamptz
	startedAt       pgtype.Timestamptz
	completedAt     pgtype.Timestamptz
	updatedAt       pgtype.Timestamptz
}

func encodeJob(job *scanning.Job) (jobRow, error) {
	s := job.Snapshot()

	row := jobRow{
		id:           pgtype.UUID{Bytes: s.ID, Valid: true},
		status:       string(s.Status),
		progress:     int32(s.Progress),
		totalChecks:  int32(s.TotalChecks),
		passedChecks: int32(s.PassedChecks),
		failedChecks: int32(s.FailedChecks),
		createdAt:    pgtype.Timestamptz{Time: s.CreatedAt, Valid: true},
		updatedAt:    pgtype.Timestamptz{Time: s.UpdatedAt, Valid: true},
	}
	if s.CurrentCheck != nil {
		row.currentCheck = pgtype.Text{String: *s.CurrentCheck, Valid: true}
	}
	if s.RiskScore != nil {
		row.riskScore = pgtype.Float8{Float64: *s.RiskScore, Valid: true}
	}
	if s.Error != nil {
		row.errMsg = pgtype.Text{String: *s.Error, Valid: true}
	}
	if s.StartedAt != nil {
		row.startedAt = pgtype.Timestamptz{Time: *s.StartedAt, Valid: true}
	}
	if s.CompletedAt != nil {
		row.completedAt = pgtype.Timestamptz{Time: *s.CompletedAt, Valid: true}
	}

	var err error
	if row.settings, err = json.Marshal(s.Settings); err != nil {
		return jobRow{}, fmt.Errorf("encode settings: %w", err)
	}
	if row.vulnerabilities, err = json.Marshal(s.Vulnerabilities); err != nil {
		return jobRow{}, fmt.Errorf("encode vulnerabilities: %w", err)
	}
	if row.recommendations, err = json.Marshal(s.Recommendations); err != nil {
		return jobRow{}, fmt.Errorf("encode recommendations: %w", err)
	}
	if s.Report != nil {
		if row.report, err = json.Marshal(s.Report); err != nil {
			return jobRow{}, fmt.Errorf("encode report: %w", err)
		}
	}
	return row, nil
}

func (r jobRow) args() []any {
	return []any{
		r.id, r.status, r.progress, r.currentCheck, r.settings, r.vulnerabilities,
		r.recommendations, r.totalChecks, r.passedChecks, r.failedChecks, r.riskScore,
		r.report, r.errMsg, r.createdAt, r.startedAt, r.completedAt, r.updatedAt,
	}
}

func scanJob(row pgx.Row) (*scanning.Job, error) {
	var r jobRow
	err := row.Scan(
		&r.id, &r.status, &r.progress, &r.currentCheck, &r.settings, &r.vulnerabilities,
		&r.recommendations, &r.totalChecks, &r.passedChecks, &r.failedChecks, &r.riskScore,
		&r.report, &r.errMsg, &r.createdAt, &r.startedAt, &r.completedAt, &r.updatedAt,
	)
	if err != nil {
		return nil, err
	}

	status, err := scanning.ParseJobStatus(r.status)
	if err != nil {
		return nil, err
	}

	s := scanning.JobSnapshot{
		ID:           r.id.Bytes,
		Status:       status,
		Progress:     int(r.progress),
		TotalChecks:  int(r.totalChecks),
		PassedChecks: int(r.passedChecks),
		FailedChecks: int(r.failedChecks),
		CreatedAt:    r.createdAt.Time.UTC(),
		UpdatedAt:    r.updatedAt.Time.UTC(),
	}
	if r.currentCheck.Valid {
		s.CurrentCheck = &r.currentCheck.String
	}
	if r.riskScore.Valid {
		s.RiskScore = &r.riskScore.Float64
	}
	if r.errMsg.Valid {
		s.Error = &r.errMsg.String
	}
	if r.startedAt.Valid {
		t := r.startedAt.Time.UTC()
		s.StartedAt = &t
	}
	if r.completedAt.Valid {
		t := r.completedAt.Time.UTC()
		s.CompletedAt = &t
	}

	if err := json.Unmarshal(r.settings, &s.Settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if err := json.Unmarshal(r.vulnerabilities, &s.Vulnerabilities); err != nil {
		return nil, fmt.Errorf("decode vulnerabilities: %w", err)
	}
	if err := json.Unmarshal(r.recommendations, &s.Recommendations); err != nil {
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}
	if len(r.report) > 0 {
		s.Report = new(scanning.Report)
		if err := json.Unmarshal(r.report, s.Report); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
	}

	return scanning.ReconstructJob(s), nil
}

// CreateJob persists a new scan job.
func (r *jobStore) CreateJob(ctx context.Context, job *scanning.Job) error {
	dbAttrs := withAttrs(
		attribute.String("job_id", job.JobID().String()),
		attribute.String("status", string(job.Status())),
	)

	return storage.ExecuteAndTrace(ctx, r.tracer, "postgres.create_job", dbAttrs, func(ctx context.Context) error {
		row, err := encodeJob(job)
		if err != nil {
			return err
		}

		_, err = r.db.Exec(ctx, `INSERT INTO scan_jobs (`+jobColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
			row.args()...,
		)
		if err != nil {
			return fmt.Errorf("CreateJob insert error: %w", err)
		}
		return nil
	})
}

// UpdateJob replaces the mutable state of an existing job.
func (r *jobStore) UpdateJob(ctx context.Context, job *scanning.Job) error {
	dbAttrs := withAttrs(
		attribute.String("job_id", job.JobID().String()),
		attribute.String("status", string(job.Status())),
		attribute.Int("progress", job.Progress()),
	)

	return storage.ExecuteAndTrace(ctx, r.tracer, "postgres.update_job", dbAttrs, func(ctx context.Context) error {
		span := trace.SpanFromContext(ctx)

		row, err := encodeJob(job)
		if err != nil {
			return err
		}

		tag, err := r.db.Exec(ctx, `UPDATE scan_jobs SET
				status = $2, progress = $3, current_check = $4, settings = $5,
				vulnerabilities = $6, recommendations = $7, total_checks = $8,
				passed_checks = $9, failed_checks = $10, risk_score = $11, report = $12,
				error = $13, created_at = $14, started_at = $15, completed_at = $16,
				updated_at = $17
			WHERE job_id = $1`,
			row.args()...,
		)
		if err != nil {
			return fmt.Errorf("UpdateJob query error: %w", err)
		}

		if tag.RowsAffected() == 0 {
			span.SetAttributes(attribute.Bool("job_not_found", true))
			return fmt.Errorf("%w: %s", scanning.ErrJobNotFound, job.JobID())
		}
		return nil
	})
}

// GetJob retrieves a scan job by id.
func (r *jobStore) GetJob(ctx context.Context, jobID uuid.UUID) (*scanning.Job, error) {
	dbAttrs := withAttrs(attribute.String("job_id", jobID.String()))

	var job *scanning.Job
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.get_job", dbAttrs, func(ctx context.Context) error {
		var err error
		job, err = scanJob(r.db.QueryRow(ctx,
			`SELECT `+jobColumns+` FROM scan_jobs WHERE job_id = $1`,
			pgtype.UUID{Bytes: jobID, Valid: true},
		))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return scanning.ErrJobNotFound
			}
			return fmt.Errorf("GetJob query error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return job, nil
}

// ListJobs returns up to limit jobs, newest first.
func (r *jobStore) ListJobs(ctx context.Context, limit int) ([]*scanning.Job, error) {
	dbAttrs := withAttrs(attribute.Int("limit", limit))

	var jobs []*scanning.Job
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.list_jobs", dbAttrs, func(ctx context.Context) error {
		rows, err := r.db.Query(ctx,
			`SELECT `+jobColumns+` FROM scan_jobs ORDER BY created_at DESC, job_id LIMIT $1`,
			limit,
		)
		if err != nil {
			return fmt.Errorf("ListJobs query error: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			job, err := scanJob(rows)
			if err != nil {
				return fmt.Errorf("ListJobs scan error: %w", err)
			}
			jobs = append(jobs, job)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("ListJobs rows error: %w", err)
		}

		trace.SpanFromContext(ctx).SetAttributes(attribute.Int("jobs_returned", len(jobs)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return jobs, nil
}

// DeleteJob removes a job record.
func (r *jobStore) DeleteJob(ctx context.Context, jobID uuid.UUID) error {
	dbAttrs := withAttrs(attribute.String("job_id", jobID.String()))

	return storage.ExecuteAndTrace(ctx, r.tracer, "postgres.delete_job", dbAttrs, func(ctx context.Context) error {
		tag, err := r.db.Exec(ctx, `DELETE FROM scan_jobs WHERE job_id = $1`, pgtype.UUID{Bytes: jobID, Valid: true})
		if err != nil {
			return fmt.Errorf("DeleteJob query error: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return scanning.ErrJobNotFound
		}
		return nil
	})
}

// LastCompletedAt returns the completion time of the most recent completed job.
func (r *jobStore) LastCompletedAt(ctx context.Context) (time.Time, bool, error) {
	var completed pgtype.Timestamptz
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.last_completed_at", withAttrs(), func(ctx context.Context) error {
		err := r.db.QueryRow(ctx,
			`SELECT MAX(completed_at) FROM scan_jobs WHERE status = 'completed'`,
		).Scan(&completed)
		if err != nil {
			return fmt.Errorf("LastCompletedAt query error: %w", err)
		}
		return nil
	})
	if err != nil {
		return time.Time{}, false, err
	}
	if !completed.Valid {
		return time.Time{}, false, nil
	}
	return completed.Time.UTC(), true, nil
}
