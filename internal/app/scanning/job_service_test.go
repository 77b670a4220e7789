package scanning

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/secaudit/internal/domain/scanning"
	"github.com/ahrav/secaudit/internal/infra/storage/scanning/memory"
	"github.com/ahrav/secaudit/pkg/common/logger"
)

func TestJobService_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc := NewJobService(memory.NewJobStore(), logger.Noop(), testTracer)

	job, err := svc.Create(ctx, newSettings(scanning.ScanTypeQuick))
	require.NoError(t, err)
	assert.Equal(t, scanning.JobStatusPending, job.Status())
	assert.NotEqual(t, uuid.Nil, job.JobID())

	loaded, err := svc.Get(ctx, job.JobID())
	require.NoError(t, err)
	assert.Equal(t, job.Snapshot(), loaded.Snapshot())
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func TestJobService_CreateUsesClock(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewJobService(memory.NewJobStore(), logger.Noop(), testTracer, WithJobClock(fixedClock(at)))

	job, err := svc.Create(context.Background(), newSettings(scanning.ScanTypeFull))
	require.NoError(t, err)
	assert.Equal(t, at, job.CreatedAt())
}

func TestJobService_CreateStoreError(t *testing.T) {
	repo := new(mockJobRepository)
	repo.On("CreateJob", mock.Anything, mock.Anything).Return(errors.New("db down"))

	svc := NewJobService(repo, logger.Noop(), testTracer)
	_, err := svc.Create(context.Background(), newSettings(scanning.ScanTypeFull))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	repo.AssertExpectations(t)
}

func TestJobService_Update(t *testing.T) {
	ctx := context.Background()
	svc := NewJobService(memory.NewJobStore(), logger.Noop(), testTracer)
	job, err := svc.Create(ctx, newSettings(scanning.ScanTypeQuick))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, job.JobID(), scanning.JobPatch{
		Status:      scanning.Ptr(scanning.JobStatusInProgress),
		Progress:    scanning.Ptr(10),
		TotalChecks: scanning.Ptr(4),
	})
	require.NoError(t, err)
	assert.Equal(t, scanning.JobStatusInProgress, updated.Status())

	_, err = svc.Update(ctx, job.JobID(), scanning.JobPatch{Progress: scanning.Ptr(5)})
	require.ErrorIs(t, err, scanning.ErrProgressRegression)

	loaded, err := svc.Get(ctx, job.JobID())
	require.NoError(t, err)
	assert.Equal(t, 10, loaded.Progress(), "rejected patch must not be persisted")

	_, err = svc.Update(ctx, uuid.New(), scanning.JobPatch{Progress: scanning.Ptr(1)})
	require.ErrorIs(t, err, scanning.ErrJobNotFound)
}

func TestJobService_ConcurrentUpdatesAreSerialized(t *testing.T) {
	ctx := context.Background()
	svc := NewJobService(memory.NewJobStore(), logger.Noop(), testTracer)
	job, err := svc.Create(ctx, newSettings(scanning.ScanTypeQuick))
	require.NoError(t, err)
	_, err = svc.Update(ctx, job.JobID(), scanning.JobPatch{Status: scanning.Ptr(scanning.JobStatusInProgress)})
	require.NoError(t, err)

	const writers = 20
	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Update(ctx, job.JobID(), scanning.JobPatch{
				AppendVulnerabilities: []scanning.Vulnerability{{ID: uuid.NewString()}},
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	loaded, err := svc.Get(ctx, job.JobID())
	require.NoError(t, err)
	assert.Len(t, loaded.Vulnerabilities(), writers)
}

func TestJobService_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewJobService(memory.NewJobStore(), logger.Noop(), testTracer)

	for range 3 {
		_, err := svc.Create(ctx, newSettings(scanning.ScanTypeQuick))
		require.NoError(t, err)
	}

	jobs, err := svc.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	_, err = svc.List(ctx, 0)
	require.Error(t, err)

	require.NoError(t, svc.Delete(ctx, jobs[0].JobID()))
	_, err = svc.Get(ctx, jobs[0].JobID())
	require.ErrorIs(t, err, scanning.ErrJobNotFound)
	require.ErrorIs(t, svc.Delete(ctx, jobs[0].JobID()), scanning.ErrJobNotFound)
}
