package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/secaudit/internal/domain/scanning"
)

type mockTimeProvider struct{ current time.Time }

func (m *mockTimeProvider) Now() time.Time { return m.current }

func newJob(t *testing.T, created time.Time) *scanning.Job {
	t.Helper()

	settings, err := scanning.NewSettings(scanning.ScanTypeQuick, scanning.ScanDepthStandard, nil)
	require.NoError(t, err)
	return scanning.NewJob(uuid.New(), settings, scanning.WithTimeProvider(&mockTimeProvider{current: created}))
}

func TestJobStore_CRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewJobStore()
	job := newJob(t, time.Now())

	require.NoError(t, store.CreateJob(ctx, job))

	loaded, err := store.GetJob(ctx, job.JobID())
	require.NoError(t, err)
	assert.Equal(t, job.Snapshot(), loaded.Snapshot())

	require.NoError(t, job.Apply(scanning.JobPatch{Status: scanning.Ptr(scanning.JobStatusInProgress)}))
	assert.Equal(t, scanning.JobStatusPending, loaded.Status(), "loaded copy is detached from the caller's job")

	require.NoError(t, store.UpdateJob(ctx, job))
	loaded, err = store.GetJob(ctx, job.JobID())
	require.NoError(t, err)
	assert.Equal(t, scanning.JobStatusInProgress, loaded.Status())

	require.NoError(t, store.DeleteJob(ctx, job.JobID()))
	_, err = store.GetJob(ctx, job.JobID())
	assert.ErrorIs(t, err, scanning.ErrJobNotFound)
	assert.ErrorIs(t, store.DeleteJob(ctx, job.JobID()), scanning.ErrJobNotFound)
	assert.ErrorIs(t, store.UpdateJob(ctx, job), scanning.ErrJobNotFound)
}

func TestJobStore_ListNewestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewJobStore()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i := range 4 {
		job := newJob(t, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, store.CreateJob(ctx, job))
		ids = append(ids, job.JobID())
	}

	jobs, err := store.ListJobs(ctx, 3)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, []uuid.UUID{ids[3], ids[2], ids[1]}, []uuid.UUID{jobs[0].JobID(), jobs[1].JobID(), jobs[2].JobID()})
}

func TestJobStore_LastCompletedAt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewJobStore()

	_, ok, err := store.LastCompletedAt(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	tp := &mockTimeProvider{current: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	settings, err := scanning.NewSettings(scanning.ScanTypeQuick, "", nil)
	require.NoError(t, err)
	job := scanning.NewJob(uuid.New(), settings, scanning.WithTimeProvider(tp))
	require.NoError(t, store.CreateJob(ctx, job))

	require.NoError(t, job.Apply(scanning.JobPatch{Status: scanning.Ptr(scanning.JobStatusInProgress)}))
	tp.current = tp.current.Add(time.Minute)
	require.NoError(t, job.Apply(scanning.JobPatch{
		Status:    scanning.Ptr(scanning.JobStatusCompleted),
		RiskScore: scanning.Ptr(100.0),
		Report:    &scanning.Report{},
	}))
	require.NoError(t, store.UpdateJob(ctx, job))

	failed := newJob(t, tp.current.Add(time.Hour))
	require.NoError(t, store.CreateJob(ctx, failed))

	last, ok, err := store.LastCompletedAt(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, tp.current, last)
}

func TestJobStore_HonoursContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewJobStore()
	assert.ErrorIs(t, store.CreateJob(ctx, newJob(t, time.Now())), context.Canceled)
	_, err := store.ListJobs(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
}
