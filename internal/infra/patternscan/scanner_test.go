package patternscan

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ahrav/secaudit/internal/domain/checks"
	"github.com/ahrav/secaudit/pkg/common/logger"
)

func newTestScanner(opts ...Option) *Scanner {
	return New(logger.Noop(), noop.NewTracerProvider().Tracer("test"), opts...)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func collect(ctx context.Context, s *Scanner, root string, patterns []checks.Pattern, excludes []string) []checks.MatchReport {
	var out []checks.MatchReport
	for r := range s.Scan(ctx, root, patterns, excludes) {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b checks.MatchReport) int { return strings.Compare(a.RelPath, b.RelPath) })
	return out
}

var evalPattern = []checks.Pattern{{Name: "eval", Expr: `\beval\s*\(`}}

func TestScan_MatchesWithContext(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "src/app.js", "const a = 1;\nconst b = 2;\neval(input);\nconst c = 3;\nconst d = 4;\nconst e = 5;\n")

	reports := collect(context.Background(), newTestScanner(), root, evalPattern, nil)
	require.Len(t, reports, 1)

	r := reports[0]
	assert.Equal(t, "src/app.js", r.RelPath)
	assert.Equal(t, 1, r.Matches)
	require.Len(t, r.Lines, 1)
	assert.Equal(t, 3, r.Lines[0].Line)
	assert.Equal(t, "eval(input);", r.Lines[0].Text)
	assert.Equal(t, []string{"const a = 1;", "const b = 2;"}, r.Lines[0].Before)
	assert.Equal(t, []string{"const c = 3;", "const d = 4;"}, r.Lines[0].After)
}

func TestScan_ContextClippedAtFileEdges(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "one.js", "eval(x)\n")

	reports := collect(context.Background(), newTestScanner(), root, evalPattern, nil)
	require.Len(t, reports, 1)
	assert.Empty(t, reports[0].Lines[0].Before)
	assert.Empty(t, reports[0].Lines[0].After)
}

func TestScan_SkipsDeniedDirectoriesAndFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "node_modules/lib/index.js", "eval(a)")
	writeFile(t, root, ".git/hooks/pre-commit.sh", "eval(a)")
	writeFile(t, root, "dist/bundle.js", "eval(a)")
	writeFile(t, root, "package.json", `{"scripts": {"x": "eval(a)"}}`)
	writeFile(t, root, "image.png", "eval(a)")
	writeFile(t, root, "generated/skip.js", "eval(a)")
	writeFile(t, root, "src/keep.ts", "eval(a)")

	reports := collect(context.Background(), newTestScanner(), root, evalPattern, []string{"generated/"})
	require.Len(t, reports, 1)
	assert.Equal(t, "src/keep.ts", reports[0].RelPath)
}

func TestScan_SkipsTraversalNames(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "evil..js", "eval(a)")
	writeFile(t, root, "dir..x/inner.js", "eval(a)")
	writeFile(t, root, `back\slash.js`, "eval(a)")
	writeFile(t, root, "fine.js", "eval(a)")

	var reports []checks.MatchReport
	assert.NotPanics(t, func() {
		reports = collect(context.Background(), newTestScanner(), root, evalPattern, nil)
	})
	require.Len(t, reports, 1)
	assert.Equal(t, "fine.js", reports[0].RelPath)
}

func TestScan_RejectFiltersLines(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "urls.js", "fetch('http://localhost:3000')\nfetch('http://api.example.com')\n")

	patterns := []checks.Pattern{{
		Name:   "plaintext http",
		Expr:   `http://[a-zA-Z0-9.-]+`,
		Reject: `http://(localhost|127\.0\.0\.1)`,
	}}
	reports := collect(context.Background(), newTestScanner(), root, patterns, nil)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].Matches)
	assert.Equal(t, 2, reports[0].Lines[0].Line)
}

func TestScan_InvalidPatternIsSkipped(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.js", "eval(a)")

	patterns := []checks.Pattern{
		{Name: "lookahead", Expr: `(?=eval)`},
		evalPattern[0],
	}
	reports := collect(context.Background(), newTestScanner(), root, patterns, nil)
	require.Len(t, reports, 1)
}

func TestScan_PathologicalPatternIsBounded(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "big.txt.js", strings.Repeat("a", 1<<19)+"b")

	patterns := []checks.Pattern{{Name: "redos", Expr: `(a+)+$`}}

	start := time.Now()
	_ = collect(context.Background(), newTestScanner(), root, patterns, nil)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestScan_PatternTimeoutSkipsPattern(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "huge.js", strings.Repeat("x = 1;\n", 1<<20)+"eval(a)\n")

	s := newTestScanner(WithPatternTimeout(time.Nanosecond), WithMaxFileSize(1<<30))
	reports := collect(context.Background(), s, root, evalPattern, nil)
	assert.Empty(t, reports, "a pattern over budget is skipped for the file")
}

func TestScan_MaxFileSize(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "large.js", strings.Repeat(" ", 64)+"eval(a)")

	reports := collect(context.Background(), newTestScanner(WithMaxFileSize(16)), root, evalPattern, nil)
	assert.Empty(t, reports)
}

func TestScan_ExcludedNames(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "app.js", "eval(a)")
	writeFile(t, root, "vendor.bundle.js", "eval(b)")

	reports := collect(context.Background(), newTestScanner(WithExcludedNames("vendor.bundle.js")), root, evalPattern, nil)
	require.Len(t, reports, 1)
	assert.Equal(t, "app.js", reports[0].RelPath)
}

func TestScan_StopsOnCancelAndEarlyBreak(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, name := range []string{"a.js", "b.js", "c.js"} {
		writeFile(t, root, name, "eval(a)")
	}
	s := newTestScanner()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, collect(ctx, s, root, evalPattern, nil))

	count := 0
	for range s.Scan(context.Background(), root, evalPattern, nil) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestScan_UnreadableFileIsSkipped(t *testing.T) {
	t.Parallel()

	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}

	root := t.TempDir()
	writeFile(t, root, "locked.js", "eval(a)")
	writeFile(t, root, "open.js", "eval(a)")
	require.NoError(t, os.Chmod(filepath.Join(root, "locked.js"), 0o000))

	reports := collect(context.Background(), newTestScanner(), root, evalPattern, nil)
	require.Len(t, reports, 1)
	assert.Equal(t, "open.js", reports[0].RelPath)
}
