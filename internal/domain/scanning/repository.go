// Package scanning provides domain types and interfaces for managing security
// scan jobs: their lifecycle, findings and aggregated reports.
package scanning

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/secaudit/pkg/config"
)

// JobRepository defines the persistence operations for scan jobs.
type JobRepository interface {
	// CreateJob inserts a new job record.
	CreateJob(ctx context.Context, job *Job) error

	// UpdateJob replaces the stored state of an existing job.
	UpdateJob(ctx context.Context, job *Job) error

	// GetJob retrieves a job by id, returning ErrJobNotFound when absent.
	GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error)

	// ListJobs returns up to limit jobs ordered newest first.
	ListJobs(ctx context.Context, limit int) ([]*Job, error)

	// DeleteJob removes a job, returning ErrJobNotFound when absent.
	DeleteJob(ctx context.Context, jobID uuid.UUID) error

	// LastCompletedAt returns the completion time of the newest completed job.
	LastCompletedAt(ctx context.Context) (time.Time, bool, error)
}

// SecurityConfigRepository stores the application's security configuration
// document.
type SecurityConfigRepository interface {
	GetSecurityConfig(ctx context.Context) (*config.SecurityConfig, error)
	SaveSecurityConfig(ctx context.Context, cfg *config.SecurityConfig) error
}

// Notification is a structured message broadcast to administrators.
type Notification struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Severity  string `json:"severity"`
	ActionURL string `json:"actionUrl,omitempty"`
	JobID     string `json:"jobId"`
}

// Notifier delivers notifications. Failures are reported to the caller, who
// logs them without affecting job state.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
