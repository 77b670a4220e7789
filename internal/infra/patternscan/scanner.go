// Package patternscan walks a source tree and matches regular expressions
// against file contents. Every pattern evaluation is bounded by a wall-clock
// budget so a pathological expression or file can never stall a scan.
package patternscan

import (
	"context"
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	regexp "github.com/wasilibs/go-re2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/secaudit/internal/domain/checks"
	"github.com/ahrav/secaudit/internal/infra/sourcetree"
	"github.com/ahrav/secaudit/pkg/common/logger"
)

var _ checks.PatternScanner = (*Scanner)(nil)

const (
	defaultPatternTimeout = time.Second
	defaultMaxFileSize    = 1 << 20
	contextLines          = 2
)

// scannedExtensions lists the text, source and config extensions that are
// matched. Anything else is treated as binary or unknown.
var scannedExtensions = map[string]struct{}{
	".js": {}, ".jsx": {}, ".ts": {}, ".tsx": {}, ".mjs": {}, ".cjs": {},
	".json": {}, ".go": {}, ".py": {}, ".rb": {}, ".php": {}, ".java": {},
	".env": {}, ".yml": {}, ".yaml": {}, ".toml": {}, ".ini": {}, ".conf": {},
	".config": {}, ".html": {}, ".htm": {}, ".ejs": {}, ".hbs": {}, ".vue": {},
	".svelte": {}, ".sql": {}, ".sh": {}, ".xml": {}, ".properties": {},
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithPatternTimeout overrides the per-pattern, per-file budget.
func WithPatternTimeout(d time.Duration) Option {
	return func(s *Scanner) { s.patternTimeout = d }
}

// WithMaxFileSize skips files larger than n bytes.
func WithMaxFileSize(n int64) Option {
	return func(s *Scanner) { s.maxFileSize = n }
}

// WithExcludedNames adds file names that are never matched.
func WithExcludedNames(names ...string) Option {
	return func(s *Scanner) { s.extraNames = append(s.extraNames, names...) }
}

// Scanner implements checks.PatternScanner.
type Scanner struct {
	patternTimeout time.Duration
	maxFileSize    int64
	extraNames     []string
	policy         sourcetree.Policy

	logger *logger.Logger
	tracer trace.Tracer
}

// New creates a Scanner.
func New(log *logger.Logger, tracer trace.Tracer, opts ...Option) *Scanner {
	s := &Scanner{
		patternTimeout: defaultPatternTimeout,
		maxFileSize:    defaultMaxFileSize,
		logger:         log.With("component", "pattern_scanner"),
		tracer:         tracer,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.policy = sourcetree.NewPolicy(nil, s.extraNames...)
	return s
}

type compiledPattern struct {
	name   string
	re     *regexp.Regexp
	reject *regexp.Regexp
}

// Scan lazily yields one report per file with at least one match. Files and
// directories that cannot be read are logged and skipped. Iteration stops
// early when ctx is cancelled or the consumer stops ranging.
func (s *Scanner) Scan(
	ctx context.Context,
	root string,
	patterns []checks.Pattern,
	excludes []string,
) iter.Seq[checks.MatchReport] {
	return func(yield func(checks.MatchReport) bool) {
		ctx, span := s.tracer.Start(ctx, "pattern_scanner.scan",
			trace.WithAttributes(
				attribute.String("root", root),
				attribute.Int("pattern_count", len(patterns)),
			))
		defer span.End()

		compiled := s.compile(ctx, patterns)
		if len(compiled) == 0 {
			span.AddEvent("no_valid_patterns")
			return
		}

		policy := s.policy.WithExcludes(excludes)

		var filesScanned, filesMatched int
		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				s.logger.Warn(ctx, "skipping unreadable path", "path", path, "error", err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if path == root {
				return nil
			}

			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return nil
			}

			name := d.Name()
			if sourcetree.Unsafe(name) {
				s.logger.Warn(ctx, "skipping entry with path traversal sequence", "path", rel)
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if policy.SkipDir(name, rel) {
					return fs.SkipDir
				}
				return nil
			}

			if !d.Type().IsRegular() || !shouldScan(policy, name, rel) {
				return nil
			}

			info, infoErr := d.Info()
			if infoErr != nil {
				s.logger.Warn(ctx, "skipping file without stat", "path", rel, "error", infoErr)
				return nil
			}
			if info.Size() > s.maxFileSize {
				return nil
			}

			filesScanned++
			report, ok := s.scanFile(ctx, path, filepath.ToSlash(rel), compiled)
			if !ok {
				return nil
			}
			filesMatched++
			if !yield(report) {
				return fs.SkipAll
			}
			return nil
		})

		span.SetAttributes(
			attribute.Int("files_scanned", filesScanned),
			attribute.Int("files_matched", filesMatched),
		)
		if walkErr != nil {
			// Cancellation ends the walk like a timeout; it is not a scan failure.
			span.RecordError(walkErr)
			if !errors.Is(walkErr, context.Canceled) && !errors.Is(walkErr, context.DeadlineExceeded) {
				span.SetStatus(codes.Error, "walk failed")
				s.logger.Warn(ctx, "source walk ended early", "root", root, "error", walkErr)
			}
		}
	}
}

func (s *Scanner) compile(ctx context.Context, patterns []checks.Pattern) []compiledPattern {
	out := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p.Expr)
		if err != nil {
			s.logger.Warn(ctx, "skipping invalid pattern", "pattern", p.Name, "error", err)
			continue
		}
		cp := compiledPattern{name: p.Name, re: re}
		if p.Reject != "" {
			reject, err := regexp.Compile(p.Reject)
			if err != nil {
				s.logger.Warn(ctx, "ignoring invalid reject pattern", "pattern", p.Name, "error", err)
			} else {
				cp.reject = reject
			}
		}
		out = append(out, cp)
	}
	return out
}

func shouldScan(policy sourcetree.Policy, name, rel string) bool {
	if _, ok := scannedExtensions[strings.ToLower(filepath.Ext(name))]; !ok {
		return false
	}
	return !policy.SkipFile(name, rel)
}

func (s *Scanner) scanFile(
	ctx context.Context,
	path, rel string,
	patterns []compiledPattern,
) (checks.MatchReport, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn(ctx, "skipping unreadable file", "path", rel, "error", err)
		return checks.MatchReport{}, false
	}
	content := string(data)
	idx := newLineIndex(content)

	total := 0
	hitLines := make(map[int]struct{})
	for _, p := range patterns {
		matches, err := s.matchWithBudget(ctx, p.re, content)
		if err != nil {
			s.logger.Warn(ctx, "pattern skipped for file",
				"pattern", p.name, "path", rel, "error", err)
			continue
		}
		for _, m := range matches {
			line := idx.lineOf(m[0])
			if p.reject != nil && p.reject.MatchString(idx.text(line)) {
				continue
			}
			total++
			hitLines[line] = struct{}{}
		}
	}
	if total == 0 {
		return checks.MatchReport{}, false
	}

	lines := make([]int, 0, len(hitLines))
	for l := range hitLines {
		lines = append(lines, l)
	}
	slices.Sort(lines)

	report := checks.MatchReport{RelPath: rel, Matches: total, Lines: make([]checks.MatchLine, 0, len(lines))}
	for _, l := range lines {
		report.Lines = append(report.Lines, checks.MatchLine{
			Line:   l + 1,
			Text:   idx.text(l),
			Before: idx.window(l-contextLines, l),
			After:  idx.window(l+1, l+1+contextLines),
		})
	}
	return report, true
}

// errPatternTimeout is returned when a pattern exceeds its budget on a file.
var errPatternTimeout = errors.New("pattern exceeded time budget")

// matchWithBudget runs one pattern against content. RE2 matching cannot be
// interrupted, so the match runs on its own goroutine and is abandoned when
// the budget or ctx expires; linear-time matching guarantees it finishes.
func (s *Scanner) matchWithBudget(ctx context.Context, re *regexp.Regexp, content string) ([][]int, error) {
	type result struct {
		matches [][]int
		err     error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: errors.New("pattern evaluation panicked")}
			}
		}()
		done <- result{matches: re.FindAllStringIndex(content, -1)}
	}()

	timer := time.NewTimer(s.patternTimeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.matches, r.err
	case <-timer.C:
		return nil, errPatternTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
