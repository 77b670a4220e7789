package scanning

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	domain "github.com/ahrav/secaudit/internal/domain/scanning"
	"github.com/ahrav/secaudit/pkg/common/logger"
)

const (
	// DefaultQueueSize is the number of runs that may wait for a worker.
	DefaultQueueSize = 16
	// DefaultWorkers is the number of runs executed concurrently.
	DefaultWorkers = 2
)

// Runner executes one scan job to a terminal state.
type Runner interface {
	Run(ctx context.Context, jobID uuid.UUID) error
}

// Dispatcher runs submitted jobs on a fixed pool of workers draining a
// bounded queue. Submit never blocks the caller.
type Dispatcher struct {
	runner  Runner
	queue   chan uuid.UUID
	workers int

	mu       sync.Mutex
	queued   map[uuid.UUID]bool // value is true once cancelled while queued
	inFlight map[uuid.UUID]context.CancelFunc

	logger  *logger.Logger
	metrics ScanMetrics
}

// NewDispatcher creates a dispatcher. Non-positive sizes fall back to the
// defaults.
func NewDispatcher(runner Runner, workers, queueSize int, logger *logger.Logger, metrics ScanMetrics) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Dispatcher{
		runner:   runner,
		queue:    make(chan uuid.UUID, queueSize),
		workers:  workers,
		queued:   make(map[uuid.UUID]bool),
		inFlight: make(map[uuid.UUID]context.CancelFunc),
		logger:   logger.With("component", "scan_dispatcher", "workers", workers, "queue_size", queueSize),
		metrics:  metrics,
	}
}

// Run starts the workers and blocks until ctx is done. Runs still executing
// at shutdown observe the cancellation.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info(ctx, "Starting scan dispatcher")

	g, ctx := errgroup.WithContext(ctx)
	for range d.workers {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case jobID := <-d.queue:
					d.execute(ctx, jobID)
				}
			}
		})
	}

	err := g.Wait()
	d.logger.Info(context.Background(), "Scan dispatcher stopped")
	return err
}

// Submit queues a job for execution. It returns ErrQueueFull when every slot
// is taken.
func (d *Dispatcher) Submit(ctx context.Context, jobID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.queued[jobID]; ok {
		return nil
	}
	if _, ok := d.inFlight[jobID]; ok {
		return nil
	}

	select {
	case d.queue <- jobID:
		d.queued[jobID] = false
		d.logger.Debug(ctx, "Scan queued", "job_id", jobID)
		return nil
	default:
		d.metrics.IncQueueRejected(ctx)
		return domain.ErrQueueFull
	}
}

// Cancel aborts a queued or running job. It returns ErrScanNotActive when the
// job is neither.
func (d *Dispatcher) Cancel(ctx context.Context, jobID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cancel, ok := d.inFlight[jobID]; ok {
		cancel()
		d.logger.Info(ctx, "Cancelling running scan", "job_id", jobID)
		return nil
	}
	if _, ok := d.queued[jobID]; ok {
		d.queued[jobID] = true
		d.logger.Info(ctx, "Cancelling queued scan", "job_id", jobID)
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrScanNotActive, jobID)
}

// Active reports whether a job is queued or running.
func (d *Dispatcher) Active(jobID uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, queued := d.queued[jobID]
	_, running := d.inFlight[jobID]
	return queued || running
}

// execute runs one job with its own cancellation and panic boundary.
func (d *Dispatcher) execute(ctx context.Context, jobID uuid.UUID) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.mu.Lock()
	if d.queued[jobID] {
		cancel()
	}
	delete(d.queued, jobID)
	d.inFlight[jobID] = cancel
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		delete(d.inFlight, jobID)
		d.mu.Unlock()
	}()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error(ctx, "Scan run panicked", "job_id", jobID, "panic", r)
		}
	}()

	if err := d.runner.Run(runCtx, jobID); err != nil {
		if errors.Is(err, context.Canceled) {
			d.logger.Info(ctx, "Scan run cancelled", "job_id", jobID)
			return
		}
		d.logger.Error(ctx, "Scan run failed", "job_id", jobID, "error", err)
	}
}
