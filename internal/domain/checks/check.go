package checks

import "context"

// Func evaluates one check. A returned error means the check itself broke and
// is recorded by the caller as a high severity failure; problems reading the
// inputs are reported through a scan failure Result instead.
type Func func(ctx context.Context, env Environment) (Result, error)

// Definition describes one catalogue entry. Severity, CWE and CVSS are the
// defaults applied when a failing Result leaves them empty.
type Definition struct {
	Name        string
	Description string
	Category    Category
	Severity    Severity
	CWE         string
	CVSS        string
	Run         Func
}

// Result is the outcome of a single check invocation.
type Result struct {
	Passed      bool
	Severity    Severity
	Description string
	Details     string
	CWE         string
	CVSS        string
	Impact      string
	Likelihood  string
	Remediation string

	// Recommendation is filled for failing results that carry remediation
	// advice. A nil Recommendation produces no recommendation entry.
	Recommendation *Advice

	// ScanFailure marks results describing a check that could not read its
	// inputs rather than a detected weakness.
	ScanFailure bool
}

// Advice is the recommendation payload attached to a failing Result.
type Advice struct {
	Title          string
	Description    string
	Implementation string
	Effort         string
	Cost           string
}

// Pass returns a passing Result.
func Pass() Result { return Result{Passed: true} }

// ScanFailureResult describes a check that could not complete because its
// inputs were unavailable.
func ScanFailureResult(description string, err error) Result {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return Result{
		Passed:      false,
		Severity:    SeverityMedium,
		Description: description,
		Details:     details,
		ScanFailure: true,
	}
}
