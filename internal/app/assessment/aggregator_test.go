package assessment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ahrav/secaudit/internal/domain/checks"
	"github.com/ahrav/secaudit/internal/domain/scanning"
)

func vulns(sevs ...checks.Severity) []scanning.Vulnerability {
	out := make([]scanning.Vulnerability, len(sevs))
	for i, s := range sevs {
		out[i] = scanning.Vulnerability{
			ID:          fmt.Sprintf("v%d", i),
			Name:        fmt.Sprintf("check %d", i),
			Severity:    s,
			Remediation: "fix it",
		}
	}
	return out
}

func repeat(s checks.Severity, n int) []checks.Severity {
	out := make([]checks.Severity, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func TestAssessRisk(t *testing.T) {
	tests := []struct {
		name        string
		sevs        []checks.Severity
		wantOverall scanning.RiskLevel
		wantImpact  int
	}{
		{name: "no findings", wantOverall: scanning.RiskLow, wantImpact: 0},
		{
			name:        "two medium stays low",
			sevs:        repeat(checks.SeverityMedium, 2),
			wantOverall: scanning.RiskLow,
			wantImpact:  10,
		},
		{
			name:        "three medium",
			sevs:        repeat(checks.SeverityMedium, 3),
			wantOverall: scanning.RiskMedium,
			wantImpact:  15,
		},
		{
			name:        "single high",
			sevs:        []checks.Severity{checks.SeverityHigh, checks.SeverityLow},
			wantOverall: scanning.RiskHigh,
			wantImpact:  11,
		},
		{
			name:        "critical counts as high",
			sevs:        []checks.Severity{checks.SeverityCritical},
			wantOverall: scanning.RiskHigh,
			wantImpact:  10,
		},
		{
			name:        "impact capped",
			sevs:        repeat(checks.SeverityHigh, 12),
			wantOverall: scanning.RiskHigh,
			wantImpact:  100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssessRisk(vulns(tt.sevs...))
			assert.Equal(t, tt.wantOverall, got.OverallRisk)
			assert.Equal(t, tt.wantImpact, got.ImpactScore)
		})
	}
}

func TestAssessRiskTopRisks(t *testing.T) {
	sevs := append(repeat(checks.SeverityHigh, 5), checks.SeverityMedium, checks.SeverityCritical)
	got := AssessRisk(vulns(sevs...))

	require.Len(t, got.TopRisks, maxTopRisks)
	assert.Equal(t, checks.SeverityCritical, got.TopRisks[0].Severity)
	assert.Equal(t, "v0", got.TopRisks[1].ID)
	for _, v := range got.TopRisks {
		assert.True(t, v.Severity.AtLeastHigh())
	}
	assert.Equal(t, scanning.SeverityCounts{Critical: 1, High: 5, Medium: 1}, got.Counts)
}

func TestMapCompliance(t *testing.T) {
	t.Run("clean scan", func(t *testing.T) {
		got := MapCompliance(63, 63, scanning.SeverityCounts{})

		require.Len(t, got, 4)
		for _, name := range []string{"GDPR", "CCPA", "SOX"} {
			assert.Equal(t, 100, got[name].Score, name)
			assert.True(t, got[name].Compliant, name)
			assert.NotEmpty(t, got[name].Requirements, name)
		}
		assert.Equal(t, 90, got["HIPAA"].Score)
		assert.False(t, got["HIPAA"].Compliant)
		assert.NotEmpty(t, got["HIPAA"].Notes)
	})

	t.Run("medium findings lower the score", func(t *testing.T) {
		got := MapCompliance(8, 10, scanning.SeverityCounts{Medium: 2})
		assert.Equal(t, 60, got["GDPR"].Score)
		assert.False(t, got["GDPR"].Compliant)
	})

	t.Run("any high is non compliant", func(t *testing.T) {
		got := MapCompliance(99, 100, scanning.SeverityCounts{High: 1})
		assert.Equal(t, 79, got["SOX"].Score)
		assert.False(t, got["SOX"].Compliant)
	})

	t.Run("score floors at zero", func(t *testing.T) {
		got := MapCompliance(1, 10, scanning.SeverityCounts{High: 3})
		for _, r := range got {
			assert.Zero(t, r.Score, r.Regime)
		}
	})

	t.Run("no checks", func(t *testing.T) {
		got := MapCompliance(0, 0, scanning.SeverityCounts{})
		assert.Zero(t, got["GDPR"].Score)
	})
}

func TestPlanRemediation(t *testing.T) {
	sevs := append(repeat(checks.SeverityHigh, 4), repeat(checks.SeverityMedium, 7)...)
	sevs = append(sevs, checks.SeverityLow)
	plan := PlanRemediation(vulns(sevs...))

	require.Len(t, plan.Immediate, 3)
	require.Len(t, plan.ShortTerm, 1+5)
	require.Len(t, plan.LongTerm, 2+1)

	assert.Equal(t, "v0", plan.Immediate[0].VulnerabilityID)
	assert.Equal(t, deadlineImmediate, plan.Immediate[0].Deadline)
	assert.Equal(t, "v3", plan.ShortTerm[0].VulnerabilityID)
	assert.Equal(t, checks.SeverityMedium, plan.ShortTerm[1].Severity)
	assert.Equal(t, deadlineLongTerm, plan.LongTerm[2].Deadline)
	assert.Equal(t, "fix it", plan.LongTerm[2].Action)

	assert.Equal(t, scanning.Cost{Amount: 4*2000 + 7*500 + 100, Currency: "USD"}, plan.EstimatedCost)
	assert.Equal(t, "24-48 hours", plan.EstimatedTimeToFix)
}

func TestPlanRemediationTimeToFix(t *testing.T) {
	assert.Equal(t, "1-2 weeks", PlanRemediation(vulns(checks.SeverityMedium)).EstimatedTimeToFix)
	assert.Equal(t, "1 month", PlanRemediation(vulns(checks.SeverityLow)).EstimatedTimeToFix)

	empty := PlanRemediation(nil)
	assert.Equal(t, "1 month", empty.EstimatedTimeToFix)
	assert.Zero(t, empty.EstimatedCost.Amount)
	assert.NotNil(t, empty.Immediate)
}

func TestAggregate(t *testing.T) {
	agg := NewAggregator(noop.NewTracerProvider().Tracer("test"))
	settings, err := scanning.NewSettings(scanning.ScanTypeFull, scanning.ScanDepthDeep, nil)
	require.NoError(t, err)

	report := agg.Aggregate(context.Background(), Input{
		Settings:     settings,
		TotalChecks:  63,
		PassedChecks: 63,
		RiskScore:    100,
		Duration:     1500 * time.Millisecond,
	})

	require.NotNil(t, report)
	assert.Equal(t, "1.5s", report.Summary.Duration)
	assert.Equal(t, scanning.ScanTypeFull, report.Summary.ScanType)
	assert.Equal(t, scanning.ScanDepthDeep, report.Summary.ScanDepth)
	assert.Equal(t, 100.0, report.Summary.RiskScore)
	assert.Equal(t, scanning.RiskLow, report.RiskAssessment.OverallRisk)
	assert.Empty(t, report.Vulnerabilities)
	assert.NotNil(t, report.Vulnerabilities)

	for name, c := range report.Compliance {
		assert.Equal(t, name != "HIPAA", c.Compliant, name)
	}
}
