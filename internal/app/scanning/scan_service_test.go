package scanning

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/secaudit/internal/app/assessment"
	"github.com/ahrav/secaudit/internal/domain/checks"
	"github.com/ahrav/secaudit/internal/domain/scanning"
	"github.com/ahrav/secaudit/internal/infra/storage/scanning/memory"
	"github.com/ahrav/secaudit/pkg/common/logger"
)

func TestScanService_StartScanRunsToCompletion(t *testing.T) {
	jobs := NewJobService(memory.NewJobStore(), logger.Noop(), testTracer)
	notifier := new(mockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	orch := NewOrchestrator(jobs, staticSelector{passing("a"), failing("b", checks.SeverityLow)},
		assessment.NewAggregator(testTracer), checks.Environment{}, notifier,
		logger.Noop(), testMetrics(), testTracer)
	d := NewDispatcher(orch, 1, 4, logger.Noop(), testMetrics())
	startDispatcher(t, d)

	svc := NewScanService(jobs, d, logger.Noop(), testTracer)
	job, err := svc.StartScan(context.Background(), newSettings(scanning.ScanTypeQuick))
	require.NoError(t, err)
	assert.Equal(t, scanning.JobStatusPending, job.Status())

	require.Eventually(t, func() bool {
		j, err := svc.GetScan(context.Background(), job.JobID())
		return err == nil && j.Status() == scanning.JobStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	done, err := svc.GetScan(context.Background(), job.JobID())
	require.NoError(t, err)
	score, _ := done.RiskScore()
	assert.Equal(t, 50.0, score)

	listed, err := svc.ListScans(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	require.Eventually(t, func() bool { return !d.Active(job.JobID()) }, 5*time.Second, 10*time.Millisecond)
	err = svc.CancelScan(context.Background(), job.JobID())
	require.ErrorIs(t, err, scanning.ErrScanNotActive)
}

func TestScanService_QueueFullMarksJobFailed(t *testing.T) {
	jobs := NewJobService(memory.NewJobStore(), logger.Noop(), testTracer)
	d := NewDispatcher(runnerFunc(func(context.Context, uuid.UUID) error { return nil }),
		1, 1, logger.Noop(), testMetrics())
	svc := NewScanService(jobs, d, logger.Noop(), testTracer)

	_, err := svc.StartScan(context.Background(), newSettings(scanning.ScanTypeQuick))
	require.NoError(t, err)

	_, err = svc.StartScan(context.Background(), newSettings(scanning.ScanTypeQuick))
	require.ErrorIs(t, err, scanning.ErrQueueFull)

	listed, err := jobs.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, listed, 2)

	var failed int
	for _, j := range listed {
		if j.Status() == scanning.JobStatusFailed {
			failed++
			assert.Equal(t, scanning.ErrQueueFull.Error(), j.FailureReason())
		}
	}
	assert.Equal(t, 1, failed)
}

func TestScanService_DeleteCancelsActiveScan(t *testing.T) {
	jobs := NewJobService(memory.NewJobStore(), logger.Noop(), testTracer)
	started := make(chan struct{})
	stopped := make(chan struct{})
	d := NewDispatcher(runnerFunc(func(ctx context.Context, _ uuid.UUID) error {
		close(started)
		<-ctx.Done()
		close(stopped)
		return ctx.Err()
	}), 1, 1, logger.Noop(), testMetrics())
	startDispatcher(t, d)

	svc := NewScanService(jobs, d, logger.Noop(), testTracer)
	job, err := svc.StartScan(context.Background(), newSettings(scanning.ScanTypeQuick))
	require.NoError(t, err)
	<-started

	require.NoError(t, svc.DeleteScan(context.Background(), job.JobID()))

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("delete did not cancel the running scan")
	}
	_, err = svc.GetScan(context.Background(), job.JobID())
	require.ErrorIs(t, err, scanning.ErrJobNotFound)

	require.ErrorIs(t, svc.DeleteScan(context.Background(), uuid.New()), scanning.ErrJobNotFound)
}
