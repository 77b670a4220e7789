package scanning

import "github.com/ahrav/secaudit/internal/domain/checks"

// Report is the aggregated output persisted on a completed job.
type Report struct {
	Summary         Summary                     `json:"summary"`
	Vulnerabilities []Vulnerability             `json:"vulnerabilities"`
	Recommendations []Recommendation            `json:"recommendations"`
	Compliance      map[string]ComplianceResult `json:"compliance"`
	RiskAssessment  RiskAssessment              `json:"riskAssessment"`
	RemediationPlan RemediationPlan             `json:"remediationPlan"`
}

// Summary holds headline numbers for a completed scan.
type Summary struct {
	TotalChecks     int       `json:"totalChecks"`
	PassedChecks    int       `json:"passedChecks"`
	FailedChecks    int       `json:"failedChecks"`
	Vulnerabilities int       `json:"vulnerabilities"`
	RiskScore       float64   `json:"riskScore"`
	Duration        string    `json:"duration"`
	ScanType        ScanType  `json:"scanType"`
	ScanDepth       ScanDepth `json:"scanDepth"`
}

// ComplianceResult scores the scan against one regulatory regime.
type ComplianceResult struct {
	Regime       string   `json:"regime"`
	Score        int      `json:"score"`
	Compliant    bool     `json:"compliant"`
	Requirements []string `json:"requirements"`
	Notes        string   `json:"notes,omitempty"`
}

// SeverityCounts buckets vulnerabilities by severity.
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Add counts one vulnerability of severity s.
func (c *SeverityCounts) Add(s checks.Severity) {
	switch s {
	case checks.SeverityCritical:
		c.Critical++
	case checks.SeverityHigh:
		c.High++
	case checks.SeverityMedium:
		c.Medium++
	case checks.SeverityLow:
		c.Low++
	}
}

// RiskLevel is the overall risk verdict.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskAssessment summarizes the severity distribution.
type RiskAssessment struct {
	OverallRisk RiskLevel       `json:"overallRisk"`
	ImpactScore int             `json:"impactScore"`
	Counts      SeverityCounts  `json:"counts"`
	TopRisks    []Vulnerability `json:"topRisks"`
}

// RemediationItem is one scheduled fix in the remediation plan.
type RemediationItem struct {
	VulnerabilityID string          `json:"vulnerabilityId"`
	Title           string          `json:"title"`
	Severity        checks.Severity `json:"severity"`
	Action          string          `json:"action"`
	Deadline        string          `json:"deadline"`
}

// Cost is a monetary estimate.
type Cost struct {
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
}

// RemediationPlan is the prioritized, time-bucketed fix list.
type RemediationPlan struct {
	Immediate          []RemediationItem `json:"immediate"`
	ShortTerm          []RemediationItem `json:"shortTerm"`
	LongTerm           []RemediationItem `json:"longTerm"`
	EstimatedCost      Cost              `json:"estimatedCost"`
	EstimatedTimeToFix string            `json:"estimatedTimeToFix"`
}
