package checks

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ahrav/secaudit/internal/domain/checks"
)

// maxReportedHits bounds the file:line list in a pattern check's details.
const maxReportedHits = 5

// hits is the aggregated outcome of a pattern scan.
type hits struct {
	matches int
	files   int
	refs    []string
}

func (h hits) empty() bool { return h.matches == 0 }

// String renders "<n> match(es) in <k> file(s): path:line, ...".
func (h hits) String() string {
	s := fmt.Sprintf("%d match(es) in %d file(s)", h.matches, h.files)
	if len(h.refs) > 0 {
		s += ": " + strings.Join(h.refs, ", ")
	}
	return s
}

// scanSource runs patterns over the environment's source tree. A missing or
// unreadable root is reported as an error; a deadline or cancellation that
// cuts the walk short is returned as the context error.
func scanSource(ctx context.Context, env checks.Environment, patterns []checks.Pattern) (hits, error) {
	info, err := os.Stat(env.SourceRoot)
	if err != nil {
		return hits{}, fmt.Errorf("source root: %w", err)
	}
	if !info.IsDir() {
		return hits{}, fmt.Errorf("source root %s is not a directory", env.SourceRoot)
	}

	var h hits
	for report := range env.Patterns.Scan(ctx, env.SourceRoot, patterns, env.Excludes) {
		h.files++
		h.matches += report.Matches
		for _, line := range report.Lines {
			if len(h.refs) == maxReportedHits {
				break
			}
			h.refs = append(h.refs, fmt.Sprintf("%s:%d", report.RelPath, line.Line))
		}
	}
	if err := ctx.Err(); err != nil {
		return hits{}, err
	}
	return h, nil
}

// patternCheck fails when any pattern matches the source tree.
func patternCheck(patterns ...checks.Pattern) checks.Func {
	return func(ctx context.Context, env checks.Environment) (checks.Result, error) {
		h, err := scanSource(ctx, env, patterns)
		if err != nil {
			if ctx.Err() != nil {
				return checks.Result{}, err
			}
			return checks.ScanFailureResult("The source tree could not be scanned.", err), nil
		}
		if h.empty() {
			return checks.Pass(), nil
		}
		return checks.Result{Details: h.String()}, nil
	}
}
