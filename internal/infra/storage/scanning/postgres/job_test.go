package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/secaudit/internal/domain/checks"
	"github.com/ahrav/secaudit/internal/domain/scanning"
	"github.com/ahrav/secaudit/internal/infra/storage"
)

type mockTimeProvider struct{ current time.Time }

func (m *mockTimeProvider) Now() time.Time { return m.current }

func setupJobTest(t *testing.T) (context.Context, *pgxpool.Pool, *jobStore, func()) {
	t.Helper()

	db, cleanup := storage.SetupTestContainer(t)
	store := NewJobStore(db, storage.NoOpTracer())
	ctx := context.Background()

	return ctx, db, store, cleanup
}

func createTestJob(t *testing.T, created time.Time) *scanning.Job {
	t.Helper()

	settings, err := scanning.NewSettings(scanning.ScanTypeCustom, scanning.ScanDepthDeep, []string{"vulnerability"})
	require.NoError(t, err)

	return scanning.NewJob(uuid.New(), settings, scanning.WithTimeProvider(&mockTimeProvider{current: created}))
}

func TestJobStore_CreateAndGet(t *testing.T) {
	t.Parallel()
	ctx, _, store, cleanup := setupJobTest(t)
	defer cleanup()

	job := createTestJob(t, time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, store.CreateJob(ctx, job))

	loaded, err := store.GetJob(ctx, job.JobID())
	require.NoError(t, err)

	assert.Equal(t, job.Snapshot(), loaded.Snapshot())
}

func TestJobStore_GetMissing(t *testing.T) {
	t.Parallel()
	ctx, _, store, cleanup := setupJobTest(t)
	defer cleanup()

	_, err := store.GetJob(ctx, uuid.New())
	assert.ErrorIs(t, err, scanning.ErrJobNotFound)

	assert.ErrorIs(t, store.DeleteJob(ctx, uuid.New()), scanning.ErrJobNotFound)
}

func TestJobStore_UpdateToCompletion(t *testing.T) {
	t.Parallel()
	ctx, _, store, cleanup := setupJobTest(t)
	defer cleanup()

	job := createTestJob(t, time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, store.CreateJob(ctx, job))

	require.NoError(t, job.Apply(scanning.JobPatch{
		Status:      scanning.Ptr(scanning.JobStatusInProgress),
		TotalChecks: scanning.Ptr(1),
	}))
	require.NoError(t, store.UpdateJob(ctx, job))

	require.NoError(t, job.Apply(scanning.JobPatch{
		FailedChecks: scanning.Ptr(1),
		AppendVulnerabilities: []scanning.Vulnerability{{
			ID:       "v1",
			Name:     "Code Injection via eval",
			Severity: checks.SeverityMedium,
			Category: checks.CategoryVulnerability,
			CWE:      "CWE-94",
		}},
	}))
	require.NoError(t, job.Apply(scanning.JobPatch{
		Status:       scanning.Ptr(scanning.JobStatusCompleted),
		TotalChecks:  scanning.Ptr(1),
		PassedChecks: scanning.Ptr(0),
		FailedChecks: scanning.Ptr(1),
		RiskScore:    scanning.Ptr(0.0),
		Report:       &scanning.Report{Summary: scanning.Summary{TotalChecks: 1, FailedChecks: 1}},
	}))
	require.NoError(t, store.UpdateJob(ctx, job))

	loaded, err := store.GetJob(ctx, job.JobID())
	require.NoError(t, err)

	assert.Equal(t, scanning.JobStatusCompleted, loaded.Status())
	assert.Equal(t, 100, loaded.Progress())
	require.Len(t, loaded.Vulnerabilities(), 1)
	assert.Equal(t, "CWE-94", loaded.Vulnerabilities()[0].CWE)
	score, ok := loaded.RiskScore()
	assert.True(t, ok)
	assert.Zero(t, score)
	require.NotNil(t, loaded.Report())
	assert.Equal(t, 1, loaded.Report().Summary.FailedChecks)

	last, ok, err := store.LastCompletedAt(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.WithinDuration(t, job.GetTimeline().CompletedAt(), last, time.Millisecond)
}

func TestJobStore_UpdateMissing(t *testing.T) {
	t.Parallel()
	ctx, _, store, cleanup := setupJobTest(t)
	defer cleanup()

	job := createTestJob(t, time.Now().UTC())
	assert.ErrorIs(t, store.UpdateJob(ctx, job), scanning.ErrJobNotFound)
}

func TestJobStore_ListNewestFirst(t *testing.T) {
	t.Parallel()
	ctx, _, store, cleanup := setupJobTest(t)
	defer cleanup()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := range 3 {
		job := createTestJob(t, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.CreateJob(ctx, job))
		ids = append(ids, job.JobID())
	}

	jobs, err := store.ListJobs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, ids[2], jobs[0].JobID())
	assert.Equal(t, ids[1], jobs[1].JobID())

	_, ok, err := store.LastCompletedAt(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJobStore_Delete(t *testing.T) {
	t.Parallel()
	ctx, _, store, cleanup := setupJobTest(t)
	defer cleanup()

	job := createTestJob(t, time.Now().UTC())
	require.NoError(t, store.CreateJob(ctx, job))
	require.NoError(t, store.DeleteJob(ctx, job.JobID()))

	_, err := store.GetJob(ctx, job.JobID())
	assert.ErrorIs(t, err, scanning.ErrJobNotFound)
}
