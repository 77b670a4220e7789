package checks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ahrav/secaudit/internal/domain/checks"
)

// maxScanAge is how old the newest completed scan may be before regular
// scanning is considered lapsed.
const maxScanAge = 30 * day

// hardcodedSecrets runs the secret detector over the source tree.
func hardcodedSecrets(ctx context.Context, env checks.Environment) (checks.Result, error) {
	if env.Secrets == nil {
		return checks.ScanFailureResult("Secret detector is not available.", nil), nil
	}

	findings, err := env.Secrets.Detect(ctx, env.SourceRoot, env.Excludes)
	if err != nil {
		if ctx.Err() != nil {
			return checks.Result{}, ctx.Err()
		}
		return checks.ScanFailureResult("The source tree could not be searched for secrets.", err), nil
	}
	if len(findings) == 0 {
		return checks.Pass(), nil
	}

	files := make(map[string]struct{}, len(findings))
	refs := make([]string, 0, maxReportedHits)
	for _, f := range findings {
		files[f.File] = struct{}{}
		if len(refs) < maxReportedHits {
			refs = append(refs, fmt.Sprintf("%s:%d (%s)", f.File, f.Line, f.RuleID))
		}
	}

	return checks.Result{
		Details: fmt.Sprintf("%d secret(s) in %d file(s): %s", len(findings), len(files), strings.Join(refs, ", ")),
	}, nil
}

// regularScanning checks that a scan has completed within maxScanAge.
func regularScanning(ctx context.Context, env checks.Environment) (checks.Result, error) {
	if env.History == nil {
		return checks.ScanFailureResult("Scan history is not available.", nil), nil
	}

	last, ok, err := env.History.LastCompletedAt(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return checks.Result{}, ctx.Err()
		}
		return checks.ScanFailureResult("Scan history could not be read.", err), nil
	}
	if !ok {
		return checks.Result{Details: "no security scan has completed before this one"}, nil
	}

	if age := env.Clock().Sub(last); age > maxScanAge {
		return checks.Result{
			Details: fmt.Sprintf("last completed scan was %d days ago (%s)", int(age/day), last.Format(time.DateOnly)),
		}, nil
	}
	return checks.Pass(), nil
}

// toolCheck maps an external tool report onto a check result.
func toolCheck(tool string) checks.Func {
	return func(ctx context.Context, env checks.Environment) (checks.Result, error) {
		if env.Tools == nil {
			return checks.ScanFailureResult(tool+" could not be run: no tool runner configured.", nil), nil
		}

		report := env.Tools.Run(ctx, tool, env.SourceRoot)
		if report.Passed {
			return checks.Pass(), nil
		}
		if !report.Ran {
			res := checks.ScanFailureResult(report.Summary, nil)
			res.Details = report.Details
			return res, nil
		}

		return checks.Result{
			Severity:    report.Severity,
			Description: report.Summary,
			Details: fmt.Sprintf("critical: %d, high: %d, moderate: %d",
				report.Critical, report.High, report.Moderate),
		}, nil
	}
}
