// Package memory provides in-process implementations of the scanning
// repositories for development, the CLI and tests.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/secaudit/internal/domain/scanning"
)

var _ scanning.JobRepository = (*JobStore)(nil)

// JobStore keeps job snapshots in a map. Every read returns a fresh Job so
// callers never share state with the store.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]scanning.JobSnapshot
}

// NewJobStore creates an empty in-memory job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[uuid.UUID]scanning.JobSnapshot)}
}

// CreateJob stores a new job. An existing id is overwritten.
func (s *JobStore) CreateJob(ctx context.Context, job *scanning.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.JobID()] = job.Snapshot()
	return nil
}

// UpdateJob replaces the stored state of an existing job.
func (s *JobStore) UpdateJob(ctx context.Context, job *scanning.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.JobID()]; !ok {
		return scanning.ErrJobNotFound
	}
	s.jobs[job.JobID()] = job.Snapshot()
	return nil
}

// GetJob retrieves a job by id.
func (s *JobStore) GetJob(ctx context.Context, jobID uuid.UUID) (*scanning.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.jobs[jobID]
	if !ok {
		return nil, scanning.ErrJobNotFound
	}
	return scanning.ReconstructJob(snap), nil
}

// ListJobs returns up to limit jobs, newest first.
func (s *JobStore) ListJobs(ctx context.Context, limit int) ([]*scanning.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	snaps := make([]scanning.JobSnapshot, 0, len(s.jobs))
	for _, snap := range s.jobs {
		snaps = append(snaps, snap)
	}
	s.mu.RUnlock()

	slices.SortFunc(snaps, func(a, b scanning.JobSnapshot) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	if limit >= 0 && len(snaps) > limit {
		snaps = snaps[:limit]
	}

	jobs := make([]*scanning.Job, 0, len(snaps))
	for _, snap := range snaps {
		jobs = append(jobs, scanning.ReconstructJob(snap))
	}
	return jobs, nil
}

// DeleteJob removes a job.
func (s *JobStore) DeleteJob(ctx context.Context, jobID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[jobID]; !ok {
		return scanning.ErrJobNotFound
	}
	delete(s.jobs, jobID)
	return nil
}

// LastCompletedAt returns the newest completion time among completed jobs.
func (s *JobStore) LastCompletedAt(ctx context.Context) (time.Time, bool, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		latest time.Time
		found  bool
	)
	for _, snap := range s.jobs {
		if snap.Status != scanning.JobStatusCompleted || snap.CompletedAt == nil {
			continue
		}
		if !found || snap.CompletedAt.After(latest) {
			latest, found = *snap.CompletedAt, true
		}
	}
	return latest, found, nil
}
