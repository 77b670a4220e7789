package scanning

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ahrav/secaudit/internal/domain/checks"
	"github.com/ahrav/secaudit/internal/domain/scanning"
)

var testTracer = noop.NewTracerProvider().Tracer("test")

func testMetrics() ScanMetrics {
	m, err := NewScanMetrics(noopmetric.NewMeterProvider())
	if err != nil {
		panic(err)
	}
	return m
}

// countingMetrics records scan lifecycle counters.
type countingMetrics struct {
	mu                                    sync.Mutex
	started, completed, failed, cancelled int
}

func (m *countingMetrics) IncScansStarted(context.Context) { m.inc(&m.started) }
func (m *countingMetrics) IncScansCompleted(context.Context) { m.inc(&m.completed) }
func (m *countingMetrics) IncScansFailed(context.Context) { m.inc(&m.failed) }
func (m *countingMetrics) IncScansCancelled(context.Context) { m.inc(&m.cancelled) }

func (m *countingMetrics) AddActiveScans(context.Context, int64) {}
func (m *countingMetrics) ObserveCheck(context.Context, string, string, time.Duration) {}
func (m *countingMetrics) IncQueueRejected(context.Context) {}

func (m *countingMetrics) inc(n *int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*n++
}

// snapshot returns started, completed, failed and cancelled in that order.
func (m *countingMetrics) snapshot() [4]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return [4]int{m.started, m.completed, m.failed, m.cancelled}
}

// mockJobRepository implements scanning.JobRepository for testing.
type mockJobRepository struct{ mock.Mock }

func (m *mockJobRepository) CreateJob(ctx context.Context, job *scanning.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *mockJobRepository) UpdateJob(ctx context.Context, job *scanning.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *mockJobRepository) GetJob(ctx context.Context, jobID uuid.UUID) (*scanning.Job, error) {
	args := m.Called(ctx, jobID)
	if job := args.Get(0); job != nil {
		return job.(*scanning.Job), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockJobRepository) ListJobs(ctx context.Context, limit int) ([]*scanning.Job, error) {
	args := m.Called(ctx, limit)
	if jobs := args.Get(0); jobs != nil {
		return jobs.([]*scanning.Job), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockJobRepository) DeleteJob(ctx context.Context, jobID uuid.UUID) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

func (m *mockJobRepository) LastCompletedAt(ctx context.Context) (time.Time, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(time.Time), args.Bool(1), args.Error(2)
}

// mockNotifier implements scanning.Notifier for testing.
type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, n scanning.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// staticSelector returns a fixed list of checks regardless of settings.
type staticSelector []checks.Definition

func (s staticSelector) Select(scanning.Settings) []checks.Definition { return s }

// passingTools reports every tool as clean.
type passingTools struct{}

func (passingTools) Run(_ context.Context, tool, _ string) checks.ToolReport {
	return checks.ToolReport{Tool: tool, Ran: true, Passed: true}
}

func passing(name string) checks.Definition {
	return checks.Definition{
		Name:     name,
		Category: checks.CategoryConfiguration,
		Severity: checks.SeverityMedium,
		Run: func(context.Context, checks.Environment) (checks.Result, error) {
			return checks.Pass(), nil
		},
	}
}

func failing(name string, sev checks.Severity) checks.Definition {
	return checks.Definition{
		Name:     name,
		Category: checks.CategoryVulnerability,
		Severity: sev,
		CWE:      "CWE-1",
		Run: func(context.Context, checks.Environment) (checks.Result, error) {
			return checks.Result{
				Severity:    sev,
				Description: name + " detected",
				CWE:         "CWE-1",
				Remediation: "fix " + name,
				Recommendation: &checks.Advice{
					Title:  "Fix " + name,
					Effort: "low",
					Cost:   "minimal",
				},
			}, nil
		},
	}
}

func newSettings(scanType scanning.ScanType, categories ...string) scanning.Settings {
	s, err := scanning.NewSettings(scanType, scanning.ScanDepthStandard, categories)
	if err != nil {
		panic(err)
	}
	return s
}
