package scanning

import "fmt"

// JobStatus represents the current state of a scan job.
type JobStatus string

const (
	// JobStatusPending indicates a job has been created but not yet started.
	JobStatusPending JobStatus = "pending"

	// JobStatusInProgress indicates checks are executing.
	JobStatusInProgress JobStatus = "in_progress"

	// JobStatusCompleted indicates every selected check ran and a report exists.
	JobStatusCompleted JobStatus = "completed"

	// JobStatusFailed indicates the scan itself could not run to completion.
	JobStatusFailed JobStatus = "failed"
)

func (s JobStatus) String() string { return string(s) }

// IsTerminal reports whether no further transitions are possible.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ParseJobStatus converts a string to a JobStatus.
func ParseJobStatus(s string) (JobStatus, error) {
	switch JobStatus(s) {
	case JobStatusPending, JobStatusInProgress, JobStatusCompleted, JobStatusFailed:
		return JobStatus(s), nil
	default:
		return "", fmt.Errorf("unknown job status %q", s)
	}
}

// ValidateTransition checks if a status transition is valid and returns an error if not.
func (s JobStatus) ValidateTransition(target JobStatus) error {
	if !s.isValidTransition(target) {
		return fmt.Errorf("%w: from %s to %s", ErrInvalidTransition, s, target)
	}
	return nil
}

// isValidTransition enforces pending -> in_progress -> {completed, failed}.
// A pending job may also fail directly when the run cannot start.
func (s JobStatus) isValidTransition(target JobStatus) bool {
	switch s {
	case JobStatusPending:
		return target == JobStatusInProgress || target == JobStatusFailed
	case JobStatusInProgress:
		return target == JobStatusCompleted || target == JobStatusFailed
	case JobStatusCompleted, JobStatusFailed:
		// Terminal states - no further transitions allowed.
		return false
	default:
		return false
	}
}
