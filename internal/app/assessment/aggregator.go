// Package assessment turns the findings of a finished scan into the report
// attached to a completed job: risk assessment, compliance mapping and a
// time-bucketed remediation plan.
package assessment

import (
	"context"
	"math"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/secaudit/internal/domain/checks"
	"github.com/ahrav/secaudit/internal/domain/scanning"
)

const (
	maxTopRisks = 5

	immediateLimit = 3
	shortTermLimit = 5

	deadlineImmediate = "24 hours"
	deadlineShortTerm = "7 days"
	deadlineLongTerm  = "30 days"

	costCritical  = 2000
	costImportant = 500
	costMinor     = 100
	costCurrency  = "USD"
)

// Input is the outcome of a scan run handed to the aggregator.
type Input struct {
	Settings        scanning.Settings
	TotalChecks     int
	PassedChecks    int
	FailedChecks    int
	RiskScore       float64
	Duration        time.Duration
	Vulnerabilities []scanning.Vulnerability
	Recommendations []scanning.Recommendation
}

// Aggregator builds scan reports. It holds no state between calls.
type Aggregator struct {
	tracer trace.Tracer
}

// NewAggregator creates an Aggregator.
func NewAggregator(tracer trace.Tracer) *Aggregator {
	return &Aggregator{tracer: tracer}
}

// Aggregate produces the report for a completed scan.
func (a *Aggregator) Aggregate(ctx context.Context, in Input) *scanning.Report {
	_, span := a.tracer.Start(ctx, "assessment.aggregate",
		trace.WithAttributes(
			attribute.Int("total_checks", in.TotalChecks),
			attribute.Int("vulnerabilities", len(in.Vulnerabilities)),
		))
	defer span.End()

	risk := AssessRisk(in.Vulnerabilities)
	report := &scanning.Report{
		Summary: scanning.Summary{
			TotalChecks:     in.TotalChecks,
			PassedChecks:    in.PassedChecks,
			FailedChecks:    in.FailedChecks,
			Vulnerabilities: len(in.Vulnerabilities),
			RiskScore:       in.RiskScore,
			Duration:        in.Duration.Round(time.Millisecond).String(),
			ScanType:        in.Settings.ScanType,
			ScanDepth:       in.Settings.ScanDepth,
		},
		Vulnerabilities: slices.Clone(in.Vulnerabilities),
		Recommendations: slices.Clone(in.Recommendations),
		Compliance:      MapCompliance(in.PassedChecks, in.TotalChecks, risk.Counts),
		RiskAssessment:  risk,
		RemediationPlan: PlanRemediation(in.Vulnerabilities),
	}
	if report.Vulnerabilities == nil {
		report.Vulnerabilities = []scanning.Vulnerability{}
	}
	if report.Recommendations == nil {
		report.Recommendations = []scanning.Recommendation{}
	}

	span.SetAttributes(
		attribute.String("overall_risk", string(risk.OverallRisk)),
		attribute.Int("impact_score", risk.ImpactScore),
	)
	return report
}

// AssessRisk buckets vulnerabilities by severity and derives the overall
// risk. Critical findings weigh the same as high ones.
func AssessRisk(vulns []scanning.Vulnerability) scanning.RiskAssessment {
	var counts scanning.SeverityCounts
	for _, v := range vulns {
		counts.Add(v.Severity)
	}
	high := counts.Critical + counts.High

	overall := scanning.RiskLow
	switch {
	case high > 0:
		overall = scanning.RiskHigh
	case counts.Medium > 2:
		overall = scanning.RiskMedium
	}

	top := make([]scanning.Vulnerability, 0, maxTopRisks)
	for _, v := range vulns {
		if v.Severity.AtLeastHigh() {
			top = append(top, v)
		}
	}
	// Critical before high; stable keeps check order within a level.
	slices.SortStableFunc(top, func(a, b scanning.Vulnerability) int {
		return b.Severity.Rank() - a.Severity.Rank()
	})
	if len(top) > maxTopRisks {
		top = top[:maxTopRisks]
	}

	return scanning.RiskAssessment{
		OverallRisk: overall,
		ImpactScore: min(100, 10*high+5*counts.Medium+counts.Low),
		Counts:      counts,
		TopRisks:    top,
	}
}

// regime describes one regulatory framework the scan is mapped onto.
type regime struct {
	name         string
	requirements []string
	// penalty is subtracted from the score of regimes this scan can only
	// partially evidence; such regimes are never reported compliant.
	penalty    int
	unverified string
}

var regimes = []regime{
	{
		name: "GDPR",
		requirements: []string{
			"Encryption of personal data at rest and in transit",
			"Published privacy policy and cookie consent",
			"Designated data protection officer",
			"Defined data retention period",
		},
	},
	{
		name: "CCPA",
		requirements: []string{
			"Consumer privacy notice",
			"Reasonable security procedures for personal information",
			"Limits on collection and retention of personal information",
		},
	},
	{
		name: "HIPAA",
		requirements: []string{
			"Access controls and unique user identification",
			"Audit controls over systems holding health information",
			"Transmission security and encryption",
			"Contingency plan with tested backups",
		},
		penalty:    10,
		unverified: "Administrative and physical safeguards cannot be verified by an automated scan.",
	},
	{
		name: "SOX",
		requirements: []string{
			"Audited access to financial systems",
			"Retained and tamper-evident audit logs",
			"Change and backup controls",
		},
	},
}

// MapCompliance scores each regime from the pass ratio and the severity
// counts.
func MapCompliance(passed, total int, counts scanning.SeverityCounts) map[string]scanning.ComplianceResult {
	base := 0
	if total > 0 {
		base = int(math.Round(float64(passed) / float64(total) * 100))
	}
	high := counts.Critical + counts.High
	generic := max(0, base-20*high-10*counts.Medium)

	out := make(map[string]scanning.ComplianceResult, len(regimes))
	for _, r := range regimes {
		score := max(0, generic-r.penalty)
		out[r.name] = scanning.ComplianceResult{
			Regime:       r.name,
			Score:        score,
			Compliant:    r.unverified == "" && score >= 80 && high == 0,
			Requirements: slices.Clone(r.requirements),
			Notes:        r.unverified,
		}
	}
	return out
}

// PlanRemediation schedules fixes: the first critical findings immediately,
// the rest of the critical and the first important ones in the short term,
// and everything else in the long term.
func PlanRemediation(vulns []scanning.Vulnerability) scanning.RemediationPlan {
	var critical, important, minor []scanning.Vulnerability
	for _, v := range vulns {
		switch {
		case v.Severity.AtLeastHigh():
			critical = append(critical, v)
		case v.Severity == checks.SeverityMedium:
			important = append(important, v)
		default:
			minor = append(minor, v)
		}
	}

	plan := scanning.RemediationPlan{
		Immediate: []scanning.RemediationItem{},
		ShortTerm: []scanning.RemediationItem{},
		LongTerm:  []scanning.RemediationItem{},
		EstimatedCost: scanning.Cost{
			Amount:   costCritical*len(critical) + costImportant*len(important) + costMinor*len(minor),
			Currency: costCurrency,
		},
	}

	immediate, restCritical := split(critical, immediateLimit)
	soon, restImportant := split(important, shortTermLimit)

	plan.Immediate = appendItems(plan.Immediate, immediate, deadlineImmediate)
	plan.ShortTerm = appendItems(plan.ShortTerm, restCritical, deadlineShortTerm)
	plan.ShortTerm = appendItems(plan.ShortTerm, soon, deadlineShortTerm)
	plan.LongTerm = appendItems(plan.LongTerm, restImportant, deadlineLongTerm)
	plan.LongTerm = appendItems(plan.LongTerm, minor, deadlineLongTerm)

	switch {
	case len(critical) > 0:
		plan.EstimatedTimeToFix = "24-48 hours"
	case len(important) > 0:
		plan.EstimatedTimeToFix = "1-2 weeks"
	default:
		plan.EstimatedTimeToFix = "1 month"
	}
	return plan
}

func split(vs []scanning.Vulnerability, n int) (head, tail []scanning.Vulnerability) {
	if len(vs) <= n {
		return vs, nil
	}
	return vs[:n], vs[n:]
}

func appendItems(dst []scanning.RemediationItem, vs []scanning.Vulnerability, deadline string) []scanning.RemediationItem {
	for _, v := range vs {
		action := v.Remediation
		if action == "" {
			action = v.Recommendation
		}
		dst = append(dst, scanning.RemediationItem{
			VulnerabilityID: v.ID,
			Title:           v.Name,
			Severity:        v.Severity,
			Action:          action,
			Deadline:        deadline,
		})
	}
	return dst
}
