package scanning

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/secaudit/internal/app/assessment"
	catalogue "github.com/ahrav/secaudit/internal/app/checks"
	"github.com/ahrav/secaudit/internal/domain/checks"
	"github.com/ahrav/secaudit/internal/domain/scanning"
	"github.com/ahrav/secaudit/internal/infra/patternscan"
	"github.com/ahrav/secaudit/internal/infra/storage/scanning/memory"
	"github.com/ahrav/secaudit/pkg/common/logger"
)

type orchestratorSuite struct {
	jobs     *JobService
	notifier *mockNotifier
	metrics  ScanMetrics
}

func newOrchestratorSuite() *orchestratorSuite {
	return &orchestratorSuite{
		jobs:     NewJobService(memory.NewJobStore(), logger.Noop(), testTracer),
		notifier: new(mockNotifier),
		metrics:  testMetrics(),
	}
}

func (s *orchestratorSuite) orchestrator(sel CheckSelector, env checks.Environment, opts ...OrchestratorOption) *Orchestrator {
	return NewOrchestrator(
		s.jobs,
		sel,
		assessment.NewAggregator(testTracer),
		env,
		s.notifier,
		logger.Noop(),
		s.metrics,
		testTracer,
		opts...,
	)
}

func (s *orchestratorSuite) newJob(t *testing.T, settings scanning.Settings) uuid.UUID {
	t.Helper()
	job, err := s.jobs.Create(context.Background(), settings)
	require.NoError(t, err)
	return job.JobID()
}

func titled(title string) any {
	return mock.MatchedBy(func(n scanning.Notification) bool { return n.Title == title })
}

func TestOrchestrator_CompletesAndReports(t *testing.T) {
	s := newOrchestratorSuite()
	s.notifier.On("Notify", mock.Anything, titled("Security scan completed")).Return(nil).Once()

	sel := staticSelector{
		passing("a"),
		failing("b", checks.SeverityHigh),
		passing("c"),
		failing("d", checks.SeverityMedium),
	}
	jobID := s.newJob(t, newSettings(scanning.ScanTypeFull))

	require.NoError(t, s.orchestrator(sel, checks.Environment{}).Run(context.Background(), jobID))

	job, err := s.jobs.Get(context.Background(), jobID)
	require.NoError(t, err)

	assert.Equal(t, scanning.JobStatusCompleted, job.Status())
	assert.Equal(t, 100, job.Progress())
	assert.Empty(t, job.CurrentCheck())
	assert.Equal(t, 4, job.TotalChecks())
	assert.Equal(t, 2, job.PassedChecks())
	assert.Equal(t, 2, job.FailedChecks())

	score, ok := job.RiskScore()
	require.True(t, ok)
	assert.Equal(t, 50.0, score)

	vulns := job.Vulnerabilities()
	require.Len(t, vulns, 2)
	assert.Equal(t, "b", vulns[0].Name)
	assert.Equal(t, checks.SeverityHigh, vulns[0].Severity)
	assert.Equal(t, "CWE-1", vulns[0].CWE)
	assert.Equal(t, "Fix b", vulns[0].Recommendation)
	assert.NotEmpty(t, vulns[0].ID)

	recs := job.Recommendations()
	require.Len(t, recs, 2)
	assert.Equal(t, scanning.PriorityHigh, recs[0].Priority)
	assert.Equal(t, scanning.PriorityMedium, recs[1].Priority)

	report := job.Report()
	require.NotNil(t, report)
	assert.Equal(t, 4, report.Summary.TotalChecks)
	assert.Equal(t, scanning.RiskHigh, report.RiskAssessment.OverallRisk)
	assert.Len(t, report.RemediationPlan.Immediate, 1)

	s.notifier.AssertExpectations(t)
}

func TestOrchestrator_ProgressIsMonotonic(t *testing.T) {
	s := newOrchestratorSuite()
	s.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	var jobID uuid.UUID
	var seen []int
	observe := func(name string) checks.Definition {
		def := passing(name)
		def.Run = func(ctx context.Context, _ checks.Environment) (checks.Result, error) {
			job, err := s.jobs.Get(ctx, jobID)
			if err != nil {
				return checks.Result{}, err
			}
			assert.Equal(t, name, job.CurrentCheck())
			assert.Equal(t, scanning.JobStatusInProgress, job.Status())
			seen = append(seen, job.Progress())
			return checks.Pass(), nil
		}
		return def
	}

	jobID = s.newJob(t, newSettings(scanning.ScanTypeFull))
	sel := staticSelector{observe("one"), observe("two"), observe("three")}
	require.NoError(t, s.orchestrator(sel, checks.Environment{}).Run(context.Background(), jobID))

	assert.Equal(t, []int{0, 33, 67}, seen)
}

func TestOrchestrator_CheckFailuresDoNotAbort(t *testing.T) {
	tests := []struct {
		name         string
		def          checks.Definition
		opts         []OrchestratorOption
		wantName     string
		wantSeverity checks.Severity
		wantDetails  string
	}{
		{
			name: "panic",
			def: checks.Definition{
				Name:     "Exploding Check",
				Category: checks.CategoryLogging,
				Run: func(context.Context, checks.Environment) (checks.Result, error) {
					panic("boom")
				},
			},
			wantName:     "Exploding Check",
			wantSeverity: checks.SeverityHigh,
			wantDetails:  "boom",
		},
		{
			name: "returned error",
			def: checks.Definition{
				Name:     "Broken Check",
				Category: checks.CategoryLogging,
				Run: func(context.Context, checks.Environment) (checks.Result, error) {
					return checks.Result{}, errors.New("disk on fire")
				},
			},
			wantName:     "Broken Check",
			wantSeverity: checks.SeverityHigh,
			wantDetails:  "disk on fire",
		},
		{
			name: "budget exceeded",
			def: checks.Definition{
				Name:     "Slow Check",
				Category: checks.CategoryLogging,
				Run: func(ctx context.Context, _ checks.Environment) (checks.Result, error) {
					<-ctx.Done()
					return checks.Result{}, ctx.Err()
				},
			},
			opts:         []OrchestratorOption{WithCheckTimeout(20 * time.Millisecond)},
			wantName:     "Slow Check",
			wantSeverity: checks.SeverityHigh,
			wantDetails:  "budget",
		},
		{
			name: "scan failure",
			def: checks.Definition{
				Name:     "Config Check",
				Category: checks.CategoryConfiguration,
				Run: func(context.Context, checks.Environment) (checks.Result, error) {
					return checks.ScanFailureResult("config unavailable", errors.New("no rows")), nil
				},
			},
			wantName:     "Scan Failure: Config Check",
			wantSeverity: checks.SeverityMedium,
			wantDetails:  "no rows",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newOrchestratorSuite()
			s.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

			jobID := s.newJob(t, newSettings(scanning.ScanTypeFull))
			sel := staticSelector{tt.def, passing("after")}
			require.NoError(t, s.orchestrator(sel, checks.Environment{}, tt.opts...).Run(context.Background(), jobID))

			job, err := s.jobs.Get(context.Background(), jobID)
			require.NoError(t, err)
			assert.Equal(t, scanning.JobStatusCompleted, job.Status())
			assert.Equal(t, 1, job.PassedChecks())
			assert.Equal(t, 1, job.FailedChecks())

			vulns := job.Vulnerabilities()
			require.Len(t, vulns, 1)
			assert.Equal(t, tt.wantName, vulns[0].Name)
			assert.Equal(t, tt.wantSeverity, vulns[0].Severity)
			assert.Contains(t, vulns[0].Details, tt.wantDetails)
			if tt.wantSeverity == checks.SeverityHigh {
				assert.Contains(t, vulns[0].Description, tt.def.Name)
			}
		})
	}
}

func TestOrchestrator_Cancelled(t *testing.T) {
	s := newOrchestratorSuite()
	s.notifier.On("Notify", mock.Anything, titled("Security scan failed")).Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cancelling := passing("cancel")
	cancelling.Run = func(context.Context, checks.Environment) (checks.Result, error) {
		cancel()
		return checks.Pass(), nil
	}
	never := passing("never")
	never.Run = func(context.Context, checks.Environment) (checks.Result, error) {
		t.Fatal("check after cancellation must not run")
		return checks.Result{}, nil
	}

	jobID := s.newJob(t, newSettings(scanning.ScanTypeFull))
	err := s.orchestrator(staticSelector{passing("first"), cancelling, never}, checks.Environment{}).Run(ctx, jobID)
	require.ErrorIs(t, err, context.Canceled)

	job, err := s.jobs.Get(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, scanning.JobStatusFailed, job.Status())
	assert.Equal(t, "scan cancelled", job.FailureReason())
	assert.Zero(t, job.PassedChecks())
	assert.Zero(t, job.FailedChecks())
	_, hasScore := job.RiskScore()
	assert.False(t, hasScore)

	s.notifier.AssertExpectations(t)
}

func TestOrchestrator_CancelledBeforeStart(t *testing.T) {
	s := newOrchestratorSuite()
	s.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobID := s.newJob(t, newSettings(scanning.ScanTypeFull))
	err := s.orchestrator(staticSelector{passing("a")}, checks.Environment{}).Run(ctx, jobID)
	require.ErrorIs(t, err, context.Canceled)

	job, err := s.jobs.Get(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, scanning.JobStatusFailed, job.Status())
	assert.Equal(t, "scan cancelled", job.FailureReason())
}

func TestOrchestrator_StoreUnavailable(t *testing.T) {
	repo := new(mockJobRepository)
	repo.On("GetJob", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	notifier := new(mockNotifier)
	notifier.On("Notify", mock.Anything, titled("Security scan failed")).Return(nil).Once()

	o := NewOrchestrator(
		NewJobService(repo, logger.Noop(), testTracer),
		staticSelector{passing("a")},
		assessment.NewAggregator(testTracer),
		checks.Environment{},
		notifier,
		logger.Noop(),
		testMetrics(),
		testTracer,
	)

	err := o.Run(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	repo.AssertNotCalled(t, "UpdateJob", mock.Anything, mock.Anything)
	notifier.AssertExpectations(t)
}

func TestOrchestrator_OutcomeMetrics(t *testing.T) {
	abortingStore := func(t *testing.T) *JobService {
		repo := new(mockJobRepository)
		job := scanning.NewJob(uuid.New(), newSettings(scanning.ScanTypeFull))
		repo.On("GetJob", mock.Anything, mock.Anything).Return(job, nil)
		repo.On("UpdateJob", mock.Anything, mock.Anything).Return(nil).Once()
		repo.On("UpdateJob", mock.Anything, mock.Anything).Return(errors.New("disk full"))
		return NewJobService(repo, logger.Noop(), testTracer)
	}

	tests := []struct {
		name   string
		jobs   func(t *testing.T) *JobService
		cancel bool
		// started, completed, failed, cancelled
		want [4]int
	}{
		{name: "completed", want: [4]int{1, 1, 0, 0}},
		{name: "cancelled", cancel: true, want: [4]int{1, 0, 0, 1}},
		{name: "aborted", jobs: abortingStore, want: [4]int{1, 0, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newOrchestratorSuite()
			s.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)
			recorded := new(countingMetrics)
			s.metrics = recorded

			jobID := s.newJob(t, newSettings(scanning.ScanTypeFull))
			if tt.jobs != nil {
				s.jobs = tt.jobs(t)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			check := passing("a")
			check.Run = func(context.Context, checks.Environment) (checks.Result, error) {
				if tt.cancel {
					cancel()
				}
				return checks.Pass(), nil
			}

			_ = s.orchestrator(staticSelector{check}, checks.Environment{}).Run(ctx, jobID)
			assert.Equal(t, tt.want, recorded.snapshot())
		})
	}
}

func TestOrchestrator_MissingJobIsNotNotified(t *testing.T) {
	s := newOrchestratorSuite()
	recorded := new(countingMetrics)
	s.metrics = recorded

	err := s.orchestrator(staticSelector{passing("a")}, checks.Environment{}).Run(context.Background(), uuid.New())
	require.ErrorIs(t, err, scanning.ErrJobNotFound)

	s.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	assert.Equal(t, [4]int{0, 0, 1, 0}, recorded.snapshot())
}

func TestOrchestrator_NotificationFailureKeepsJobCompleted(t *testing.T) {
	s := newOrchestratorSuite()
	s.notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	jobID := s.newJob(t, newSettings(scanning.ScanTypeFull))
	require.NoError(t, s.orchestrator(staticSelector{passing("a")}, checks.Environment{}).Run(context.Background(), jobID))

	job, err := s.jobs.Get(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, scanning.JobStatusCompleted, job.Status())
	score, _ := job.RiskScore()
	assert.Equal(t, 100.0, score)
}

func TestOrchestrator_TerminalJobIsStable(t *testing.T) {
	s := newOrchestratorSuite()
	s.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	jobID := s.newJob(t, newSettings(scanning.ScanTypeFull))
	o := s.orchestrator(staticSelector{passing("a")}, checks.Environment{})
	require.NoError(t, o.Run(context.Background(), jobID))

	first, err := s.jobs.Get(context.Background(), jobID)
	require.NoError(t, err)

	// A second run cannot move a terminal job.
	require.Error(t, o.Run(context.Background(), jobID))

	second, err := s.jobs.Get(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, first.Snapshot(), second.Snapshot())
}

func TestOrchestrator_EvalInVulnerabilityScan(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "src", "handler.js"),
		[]byte("function handle(input) {\n  return eval(input);\n}\n"),
		0o644,
	))

	s := newOrchestratorSuite()
	s.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	env := checks.Environment{
		SourceRoot: root,
		Patterns:   patternscan.New(logger.Noop(), testTracer),
		Tools:      passingTools{},
	}
	jobID := s.newJob(t, newSettings(scanning.ScanTypeCustom, "vulnerability"))
	require.NoError(t, s.orchestrator(catalogue.NewRegistry(), env).Run(context.Background(), jobID))

	job, err := s.jobs.Get(context.Background(), jobID)
	require.NoError(t, err)
	require.Equal(t, scanning.JobStatusCompleted, job.Status())
	assert.Equal(t, job.TotalChecks(), job.PassedChecks()+job.FailedChecks())

	vulns := job.Vulnerabilities()
	require.Len(t, vulns, 1)
	assert.Equal(t, checks.CategoryVulnerability, vulns[0].Category)
	assert.Equal(t, checks.SeverityMedium, vulns[0].Severity)
	assert.Equal(t, "CWE-94", vulns[0].CWE)
	assert.Contains(t, vulns[0].Details, "src/handler.js:2")
}

func TestRiskScore(t *testing.T) {
	assert.Equal(t, 100.0, riskScore(0, 10))
	assert.Equal(t, 0.0, riskScore(10, 10))
	assert.Equal(t, 75.0, riskScore(1, 4))
	assert.Equal(t, 100.0, riskScore(0, 0))
}
