package scanning

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/secaudit/internal/app/assessment"
	"github.com/ahrav/secaudit/internal/domain/checks"
	domain "github.com/ahrav/secaudit/internal/domain/scanning"
	"github.com/ahrav/secaudit/pkg/common/logger"
)

const (
	// DefaultCheckTimeout bounds a single check when none is configured.
	DefaultCheckTimeout = 2 * time.Minute

	errScanCancelled  = "scan cancelled"
	scanFailurePrefix = "Scan Failure: "

	outcomePassed  = "passed"
	outcomeFailed  = "failed"
	outcomeErrored = "errored"
)

// jobManager is the part of JobService the orchestrator writes through.
type jobManager interface {
	Get(ctx context.Context, jobID uuid.UUID) (*domain.Job, error)
	Update(ctx context.Context, jobID uuid.UUID, patch domain.JobPatch) (*domain.Job, error)
}

// CheckSelector returns the checks enabled by a job's settings, in
// execution order.
type CheckSelector interface {
	Select(settings domain.Settings) []checks.Definition
}

// ReportBuilder aggregates a finished run into a report.
type ReportBuilder interface {
	Aggregate(ctx context.Context, in assessment.Input) *domain.Report
}

// Orchestrator drives a single job through the pending -> in_progress ->
// {completed, failed} lifecycle, running each selected check in turn and
// persisting progress after every check.
type Orchestrator struct {
	jobs       jobManager
	registry   CheckSelector
	aggregator ReportBuilder
	env        checks.Environment
	notifier   domain.Notifier

	checkTimeout time.Duration
	actionURL    func(uuid.UUID) string

	logger  *logger.Logger
	metrics ScanMetrics
	tracer  trace.Tracer
}

// OrchestratorOption customizes an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithCheckTimeout sets the per-check time budget.
func WithCheckTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.checkTimeout = d
		}
	}
}

// WithActionURL sets the link attached to notifications for a job.
func WithActionURL(fn func(uuid.UUID) string) OrchestratorOption {
	return func(o *Orchestrator) { o.actionURL = fn }
}

// NewOrchestrator creates an Orchestrator. env is the read-only environment
// every check in every run receives.
func NewOrchestrator(
	jobs jobManager,
	registry CheckSelector,
	aggregator ReportBuilder,
	env checks.Environment,
	notifier domain.Notifier,
	logger *logger.Logger,
	metrics ScanMetrics,
	tracer trace.Tracer,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		jobs:         jobs,
		registry:     registry,
		aggregator:   aggregator,
		env:          env,
		notifier:     notifier,
		checkTimeout: DefaultCheckTimeout,
		actionURL:    func(id uuid.UUID) string { return "/v1/scans/" + id.String() },
		logger:       logger.With("component", "scan_orchestrator"),
		metrics:      metrics,
		tracer:       tracer,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// runState accumulates the outcome of a run between checks.
type runState struct {
	total           int
	passed          int
	failed          int
	vulnerabilities []domain.Vulnerability
	recommendations []domain.Recommendation
}

// Run executes every selected check for the job. Cancelling ctx aborts the run
// and leaves the job failed with "scan cancelled". The returned error reports
// why the run did not complete; the job record already reflects it.
func (o *Orchestrator) Run(ctx context.Context, jobID uuid.UUID) error {
	ctx, span := o.tracer.Start(ctx, "scan_orchestrator.run",
		trace.WithAttributes(attribute.String("job_id", jobID.String())))
	defer span.End()

	logger := o.logger.With("job_id", jobID)

	// Job writes must land even after the run itself is cancelled.
	storeCtx := context.WithoutCancel(ctx)

	job, err := o.jobs.Get(storeCtx, jobID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load job")
		o.metrics.IncScansFailed(storeCtx)
		o.fail(storeCtx, logger, jobID, fmt.Sprintf("failed to load scan job: %v", err))
		return fmt.Errorf("failed to load job (job_id: %s): %w", jobID, err)
	}

	if ctx.Err() != nil {
		return o.cancelled(storeCtx, logger, span, jobID)
	}

	defs := o.registry.Select(job.Settings())
	st := &runState{total: len(defs)}
	start := time.Now()

	if _, err := o.jobs.Update(storeCtx, jobID, domain.JobPatch{
		Status:       domain.Ptr(domain.JobStatusInProgress),
		Progress:     domain.Ptr(0),
		TotalChecks:  domain.Ptr(st.total),
		PassedChecks: domain.Ptr(0),
		FailedChecks: domain.Ptr(0),
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to start job")
		o.metrics.IncScansFailed(storeCtx)
		o.fail(storeCtx, logger, jobID, fmt.Sprintf("failed to start scan: %v", err))
		return fmt.Errorf("failed to start job (job_id: %s): %w", jobID, err)
	}

	o.metrics.IncScansStarted(ctx)
	o.metrics.AddActiveScans(ctx, 1)
	defer o.metrics.AddActiveScans(storeCtx, -1)

	span.SetAttributes(attribute.Int("total_checks", st.total))
	logger.Info(ctx, "Scan started", "total_checks", st.total)

	for i, def := range defs {
		if ctx.Err() != nil {
			return o.cancelled(storeCtx, logger, span, jobID)
		}

		if _, err := o.jobs.Update(storeCtx, jobID, domain.JobPatch{CurrentCheck: domain.Ptr(def.Name)}); err != nil {
			return o.abort(storeCtx, logger, span, jobID, err)
		}

		res, checkErr := o.runCheck(ctx, def)
		if ctx.Err() != nil {
			return o.cancelled(storeCtx, logger, span, jobID)
		}

		patch := domain.JobPatch{Progress: domain.Ptr(progressAfter(i+1, st.total))}
		if checkErr == nil && res.Passed {
			st.passed++
		} else {
			st.failed++
			vuln, rec := buildFinding(def, res, checkErr)
			st.vulnerabilities = append(st.vulnerabilities, vuln)
			patch.AppendVulnerabilities = []domain.Vulnerability{vuln}
			if rec != nil {
				st.recommendations = append(st.recommendations, *rec)
				patch.AppendRecommendations = []domain.Recommendation{*rec}
			}
		}
		patch.PassedChecks = domain.Ptr(st.passed)
		patch.FailedChecks = domain.Ptr(st.failed)

		if _, err := o.jobs.Update(storeCtx, jobID, patch); err != nil {
			return o.abort(storeCtx, logger, span, jobID, err)
		}
	}

	risk := riskScore(st.failed, st.total)
	report := o.aggregator.Aggregate(ctx, assessment.Input{
		Settings:        job.Settings(),
		TotalChecks:     st.total,
		PassedChecks:    st.passed,
		FailedChecks:    st.failed,
		RiskScore:       risk,
		Duration:        time.Since(start),
		Vulnerabilities: st.vulnerabilities,
		Recommendations: st.recommendations,
	})

	if _, err := o.jobs.Update(storeCtx, jobID, domain.JobPatch{
		Status:    domain.Ptr(domain.JobStatusCompleted),
		Progress:  domain.Ptr(100),
		RiskScore: domain.Ptr(risk),
		Report:    report,
	}); err != nil {
		return o.abort(storeCtx, logger, span, jobID, err)
	}

	o.metrics.IncScansCompleted(storeCtx)
	span.SetAttributes(
		attribute.Int("failed_checks", st.failed),
		attribute.Float64("risk_score", risk),
	)
	span.SetStatus(codes.Ok, "scan completed")
	logger.Info(ctx, "Scan completed",
		"passed_checks", st.passed,
		"failed_checks", st.failed,
		"risk_score", risk,
	)

	level := report.RiskAssessment.OverallRisk
	o.notify(storeCtx, logger, domain.Notification{
		Title: "Security scan completed",
		Body: fmt.Sprintf("%d of %d checks failed. Risk score %.0f, overall risk %s.",
			st.failed, st.total, risk, level),
		Severity:  string(level),
		ActionURL: o.actionURL(jobID),
		JobID:     jobID.String(),
	})

	return nil
}

// runCheck executes one check under the per-check budget. Panics are
// recovered into errors naming the check.
func (o *Orchestrator) runCheck(ctx context.Context, def checks.Definition) (res checks.Result, err error) {
	ctx, cancel := context.WithTimeout(ctx, o.checkTimeout)
	defer cancel()

	ctx, span := o.tracer.Start(ctx, "scan_orchestrator.check",
		trace.WithAttributes(
			attribute.String("check", def.Name),
			attribute.String("category", def.Category.String()),
		))
	defer span.End()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("check %q panicked: %v", def.Name, r)
		}

		outcome := outcomePassed
		switch {
		case err != nil:
			outcome = outcomeErrored
			span.RecordError(err)
			span.SetStatus(codes.Error, "check errored")
		case !res.Passed:
			outcome = outcomeFailed
		}
		span.SetAttributes(attribute.String("outcome", outcome))
		o.metrics.ObserveCheck(ctx, def.Category.String(), outcome, time.Since(start))
	}()

	if def.Run == nil {
		return checks.Result{}, fmt.Errorf("check %q has no implementation", def.Name)
	}
	res, err = def.Run(ctx, o.env)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("check %q exceeded its %s budget: %w", def.Name, o.checkTimeout, err)
	}
	return res, err
}

// cancelled marks the job failed after the run's context was cancelled.
func (o *Orchestrator) cancelled(ctx context.Context, logger *logger.Logger, span trace.Span, jobID uuid.UUID) error {
	span.AddEvent("scan_cancelled")
	span.SetStatus(codes.Error, errScanCancelled)
	o.metrics.IncScansCancelled(ctx)
	logger.Warn(ctx, "Scan cancelled")
	o.fail(ctx, logger, jobID, errScanCancelled)
	return context.Canceled
}

// abort marks the job failed after the job store rejected an update.
func (o *Orchestrator) abort(ctx context.Context, logger *logger.Logger, span trace.Span, jobID uuid.UUID, cause error) error {
	span.RecordError(cause)
	span.SetStatus(codes.Error, "scan aborted")
	o.metrics.IncScansFailed(ctx)
	o.fail(ctx, logger, jobID, fmt.Sprintf("scan aborted: %v", cause))
	return fmt.Errorf("scan aborted (job_id: %s): %w", jobID, cause)
}

// fail persists the failed state with zeroed counters and sends a failure
// notification. Errors here are logged only. A job that no longer exists
// gets no notification. Callers count the outcome in metrics.
func (o *Orchestrator) fail(ctx context.Context, logger *logger.Logger, jobID uuid.UUID, reason string) {
	logger.Error(ctx, "Scan failed", "reason", reason)

	if _, err := o.jobs.Update(ctx, jobID, domain.JobPatch{
		Status:       domain.Ptr(domain.JobStatusFailed),
		Error:        domain.Ptr(reason),
		PassedChecks: domain.Ptr(0),
		FailedChecks: domain.Ptr(0),
	}); err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			logger.Warn(ctx, "Scan job no longer exists, skipping failure notification")
			return
		}
		logger.Error(ctx, "Failed to record scan failure", "error", err)
	}

	o.notify(ctx, logger, domain.Notification{
		Title:     "Security scan failed",
		Body:      reason,
		Severity:  string(checks.SeverityHigh),
		ActionURL: o.actionURL(jobID),
		JobID:     jobID.String(),
	})
}

func (o *Orchestrator) notify(ctx context.Context, logger *logger.Logger, n domain.Notification) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.Notify(ctx, n); err != nil {
		logger.Warn(ctx, "Failed to send scan notification", "title", n.Title, "error", err)
	}
}

// progressAfter is the rounded percentage of checks finished.
func progressAfter(done, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// riskScore is 100 minus the percentage of failed checks.
func riskScore(failed, total int) float64 {
	if total == 0 {
		return 100
	}
	return math.Max(0, 100-float64(failed)/float64(total)*100)
}

// buildFinding turns a failing check into a vulnerability and, when advice
// is available, a recommendation. A check that returned an error is recorded
// as a high severity failure naming the check.
func buildFinding(def checks.Definition, res checks.Result, checkErr error) (domain.Vulnerability, *domain.Recommendation) {
	v := domain.Vulnerability{
		ID:          uuid.NewString(),
		Name:        def.Name,
		Description: res.Description,
		Severity:    res.Severity,
		Category:    def.Category,
		Details:     res.Details,
		CWE:         res.CWE,
		CVSS:        res.CVSS,
		Remediation: res.Remediation,
		Impact:      res.Impact,
		Likelihood:  res.Likelihood,
	}

	if checkErr != nil {
		v.Severity = checks.SeverityHigh
		v.Description = fmt.Sprintf("The %s check failed to complete.", def.Name)
		v.Details = checkErr.Error()
		v.CWE = def.CWE
		v.CVSS = def.CVSS
		v.Remediation = fmt.Sprintf("Investigate why the %s check failed and run the scan again.", def.Name)
		v.Recommendation = v.Remediation
		return v, &domain.Recommendation{
			ID:             uuid.NewString(),
			Title:          "Investigate failed check: " + def.Name,
			Description:    v.Description,
			Priority:       domain.PriorityHigh,
			Category:       def.Category,
			Implementation: v.Remediation,
			Effort:         "low",
			Cost:           "minimal",
		}
	}

	if res.ScanFailure {
		v.Name = scanFailurePrefix + def.Name
	}
	if v.Severity == "" {
		v.Severity = def.Severity
	}
	if v.Description == "" {
		v.Description = def.Description
	}

	advice := res.Recommendation
	if advice == nil {
		v.Recommendation = v.Remediation
		return v, nil
	}
	v.Recommendation = advice.Title
	return v, &domain.Recommendation{
		ID:             uuid.NewString(),
		Title:          advice.Title,
		Description:    advice.Description,
		Priority:       domain.PriorityFor(v.Severity),
		Category:       def.Category,
		Implementation: advice.Implementation,
		Effort:         advice.Effort,
		Cost:           advice.Cost,
	}
}
