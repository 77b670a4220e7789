package scanning

import "github.com/ahrav/secaudit/internal/domain/checks"

// Vulnerability is a failed check recorded on a job. Values are immutable
// once appended.
type Vulnerability struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Severity       checks.Severity `json:"severity"`
	Category       checks.Category `json:"category"`
	Recommendation string          `json:"recommendation"`
	Details        string          `json:"details"`
	CWE            string          `json:"cwe"`
	CVSS           string          `json:"cvss"`
	Remediation    string          `json:"remediation"`
	Impact         string          `json:"impact"`
	Likelihood     string          `json:"likelihood"`
}

// Priority is the urgency of a Recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
)

// PriorityFor maps a vulnerability severity to a recommendation priority.
func PriorityFor(s checks.Severity) Priority {
	if s.AtLeastHigh() {
		return PriorityHigh
	}
	return PriorityMedium
}

// Recommendation is remediation advice appended alongside a Vulnerability.
type Recommendation struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Priority       Priority        `json:"priority"`
	Category       checks.Category `json:"category"`
	Implementation string          `json:"implementation"`
	Effort         string          `json:"effort"`
	Cost           string          `json:"cost"`
}
