package scanning

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Job is one invocation of the scan engine and its durable state. The job
// service is its only writer; all mutation goes through Apply so lifecycle
// invariants hold for every store implementation.
type Job struct {
	jobID           uuid.UUID
	status          JobStatus
	progress        int
	currentCheck    string
	settings        Settings
	vulnerabilities []Vulnerability
	recommendations []Recommendation
	totalChecks     int
	passedChecks    int
	failedChecks    int
	riskScore       *float64
	report          *Report
	errMsg          string
	timeline        *Timeline
}

// JobOption customizes job construction.
type JobOption func(*Job)

// WithTimeProvider sets the clock used for the job timeline.
func WithTimeProvider(tp TimeProvider) JobOption {
	return func(j *Job) { j.timeline = NewTimeline(tp) }
}

// NewJob creates a pending job with the provided id and settings.
func NewJob(jobID uuid.UUID, settings Settings, opts ...JobOption) *Job {
	j := &Job{
		jobID:    jobID,
		status:   JobStatusPending,
		settings: settings.clone(),
		timeline: NewTimeline(new(realTimeProvider)),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// JobSnapshot is the externally visible shape of a job. It is what the API
// returns and what stores persist.
type JobSnapshot struct {
	ID              uuid.UUID        `json:"id"`
	Status          JobStatus        `json:"status"`
	Progress        int              `json:"progress"`
	CurrentCheck    *string          `json:"currentCheck"`
	Settings        Settings         `json:"settings"`
	Vulnerabilities []Vulnerability  `json:"vulnerabilities"`
	Recommendations []Recommendation `json:"recommendations"`
	TotalChecks     int              `json:"totalChecks"`
	PassedChecks    int              `json:"passedChecks"`
	FailedChecks    int              `json:"failedChecks"`
	RiskScore       *float64         `json:"riskScore"`
	Report          *Report          `json:"report"`
	Error           *string          `json:"error"`
	CreatedAt       time.Time        `json:"createdAt"`
	StartedAt       *time.Time       `json:"startedAt,omitempty"`
	CompletedAt     *time.Time       `json:"completedAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// ReconstructJob creates a Job from stored fields, bypassing creation invariants.
// This should only be used by repositories when loading from storage.
func ReconstructJob(s JobSnapshot) *Job {
	j := &Job{
		jobID:           s.ID,
		status:          s.Status,
		progress:        s.Progress,
		settings:        s.Settings.clone(),
		vulnerabilities: slices.Clone(s.Vulnerabilities),
		recommendations: slices.Clone(s.Recommendations),
		totalChecks:     s.TotalChecks,
		passedChecks:    s.PassedChecks,
		failedChecks:    s.FailedChecks,
		report:          s.Report,
	}
	if s.CurrentCheck != nil {
		j.currentCheck = *s.CurrentCheck
	}
	if s.RiskScore != nil {
		score := *s.RiskScore
		j.riskScore = &score
	}
	if s.Error != nil {
		j.errMsg = *s.Error
	}

	var started, completed time.Time
	if s.StartedAt != nil {
		started = *s.StartedAt
	}
	if s.CompletedAt != nil {
		completed = *s.CompletedAt
	}
	j.timeline = ReconstructTimeline(s.CreatedAt, started, completed, s.UpdatedAt)

	return j
}

// JobID returns the unique identifier for this scan job.
func (j *Job) JobID() uuid.UUID { return j.jobID }

// Status returns the current execution status of the scan job.
func (j *Job) Status() JobStatus { return j.status }

// Progress returns the completion percentage.
func (j *Job) Progress() int { return j.progress }

// CurrentCheck returns the name of the executing check, empty when idle.
func (j *Job) CurrentCheck() string { return j.currentCheck }

// Settings returns the selection captured at creation.
func (j *Job) Settings() Settings { return j.settings.clone() }

// Vulnerabilities returns the recorded vulnerabilities in append order.
func (j *Job) Vulnerabilities() []Vulnerability { return slices.Clone(j.vulnerabilities) }

// Recommendations returns the recorded recommendations in append order.
func (j *Job) Recommendations() []Recommendation { return slices.Clone(j.recommendations) }

// TotalChecks returns the number of selected checks.
func (j *Job) TotalChecks() int { return j.totalChecks }

// PassedChecks returns the number of checks that passed.
func (j *Job) PassedChecks() int { return j.passedChecks }

// FailedChecks returns the number of checks that failed.
func (j *Job) FailedChecks() int { return j.failedChecks }

// RiskScore returns the score of a completed job.
func (j *Job) RiskScore() (float64, bool) {
	if j.riskScore == nil {
		return 0, false
	}
	return *j.riskScore, true
}

// Report returns the aggregated report of a completed job.
func (j *Job) Report() *Report { return j.report }

// FailureReason returns the error recorded on a failed job.
func (j *Job) FailureReason() string { return j.errMsg }

// CreatedAt returns when this scan job was created.
func (j *Job) CreatedAt() time.Time { return j.timeline.CreatedAt() }

// EndTime returns when this scan job reached a terminal state.
func (j *Job) EndTime() (time.Time, bool) {
	if j.status.IsTerminal() {
		return j.timeline.CompletedAt(), true
	}
	return time.Time{}, false
}

// GetTimeline provides access to the job's timeline information.
func (j *Job) GetTimeline() *Timeline { return j.timeline }

// Apply validates and applies a partial update. A rejected patch leaves the
// job untouched.
func (j *Job) Apply(p JobPatch) error {
	if j.status.IsTerminal() {
		return fmt.Errorf("%w: job %s is %s", ErrJobTerminal, j.jobID, j.status)
	}

	next := j.clone()

	if p.Status != nil && *p.Status != next.status {
		if err := next.status.ValidateTransition(*p.Status); err != nil {
			return err
		}
		if *p.Status == JobStatusInProgress {
			next.timeline.MarkStarted()
		}
		next.status = *p.Status
	}

	if p.Progress != nil {
		v := *p.Progress
		if v < 0 || v > 100 || v < next.progress {
			return fmt.Errorf("%w: %d -> %d", ErrProgressRegression, next.progress, v)
		}
		next.progress = v
	}

	if p.CurrentCheck != nil {
		next.currentCheck = *p.CurrentCheck
	}

	next.vulnerabilities = append(next.vulnerabilities, p.AppendVulnerabilities...)
	next.recommendations = append(next.recommendations, p.AppendRecommendations...)

	for _, c := range []struct {
		src *int
		dst *int
	}{
		{p.TotalChecks, &next.totalChecks},
		{p.PassedChecks, &next.passedChecks},
		{p.FailedChecks, &next.failedChecks},
	} {
		if c.src == nil {
			continue
		}
		if *c.src < 0 {
			return fmt.Errorf("%w: negative check counter", ErrInvalidPatch)
		}
		*c.dst = *c.src
	}

	if p.RiskScore != nil {
		score := *p.RiskScore
		if math.IsNaN(score) || score < 0 || score > 100 {
			return fmt.Errorf("%w: risk score %v outside [0, 100]", ErrInvalidPatch, score)
		}
		next.riskScore = &score
	}
	if p.Report != nil {
		next.report = p.Report
	}
	if p.Error != nil {
		next.errMsg = *p.Error
	}

	if err := next.checkInvariants(); err != nil {
		return err
	}

	if next.status.IsTerminal() {
		next.currentCheck = ""
		if next.status == JobStatusCompleted {
			next.progress = 100
		}
		next.timeline.MarkCompleted()
	} else {
		next.timeline.UpdateLastUpdate()
	}

	*j = *next
	return nil
}

func (j *Job) checkInvariants() error {
	if j.passedChecks+j.failedChecks > j.totalChecks {
		return fmt.Errorf("%w: passed %d + failed %d exceeds total %d",
			ErrInvalidPatch, j.passedChecks, j.failedChecks, j.totalChecks)
	}

	switch j.status {
	case JobStatusCompleted:
		if j.report == nil || j.riskScore == nil {
			return fmt.Errorf("%w: completed job requires report and risk score", ErrInvalidPatch)
		}
		if j.passedChecks+j.failedChecks != j.totalChecks {
			return fmt.Errorf("%w: completed job must account for every check", ErrInvalidPatch)
		}
		if j.errMsg != "" {
			return fmt.Errorf("%w: completed job cannot carry an error", ErrInvalidPatch)
		}
	case JobStatusFailed:
		if j.errMsg == "" {
			return fmt.Errorf("%w: failed job requires an error", ErrInvalidPatch)
		}
		if j.report != nil || j.riskScore != nil {
			return fmt.Errorf("%w: failed job cannot carry a report", ErrInvalidPatch)
		}
	default:
		if j.report != nil || j.riskScore != nil || j.errMsg != "" {
			return fmt.Errorf("%w: report, risk score and error are terminal-only", ErrInvalidPatch)
		}
	}
	return nil
}

func (j *Job) clone() *Job {
	c := *j
	c.settings = j.settings.clone()
	c.vulnerabilities = slices.Clone(j.vulnerabilities)
	c.recommendations = slices.Clone(j.recommendations)
	c.timeline = j.timeline.clone()
	return &c
}

// Snapshot returns a detached copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	s := JobSnapshot{
		ID:              j.jobID,
		Status:          j.status,
		Progress:        j.progress,
		Settings:        j.settings.clone(),
		Vulnerabilities: slices.Clone(j.vulnerabilities),
		Recommendations: slices.Clone(j.recommendations),
		TotalChecks:     j.totalChecks,
		PassedChecks:    j.passedChecks,
		FailedChecks:    j.failedChecks,
		Report:          j.report,
		CreatedAt:       j.timeline.CreatedAt(),
		UpdatedAt:       j.timeline.LastUpdate(),
	}
	if s.Vulnerabilities == nil {
		s.Vulnerabilities = []Vulnerability{}
	}
	if s.Recommendations == nil {
		s.Recommendations = []Recommendation{}
	}
	if j.currentCheck != "" {
		name := j.currentCheck
		s.CurrentCheck = &name
	}
	if j.riskScore != nil {
		score := *j.riskScore
		s.RiskScore = &score
	}
	if j.errMsg != "" {
		msg := j.errMsg
		s.Error = &msg
	}
	if started := j.timeline.StartedAt(); !started.IsZero() {
		s.StartedAt = &started
	}
	if completed := j.timeline.CompletedAt(); !completed.IsZero() {
		s.CompletedAt = &completed
	}
	return s
}

// MarshalJSON renders the job in its snapshot shape.
func (j *Job) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.Snapshot())
}
