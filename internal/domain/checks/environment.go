package checks

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/ahrav/secaudit/pkg/config"
)

// ErrSecurityConfigNotFound is returned when no security configuration
// document has been stored yet.
var ErrSecurityConfigNotFound = errors.New("security configuration not found")

// Environment is everything a check may read. Checks never write through it.
type Environment struct {
	SourceRoot string
	Excludes   []string
	Patterns   PatternScanner
	Tools      ToolRunner
	Secrets    SecretDetector
	Config     ConfigReader
	History    ScanHistory
	Now        func() time.Time
}

// Clock returns the current time, defaulting to time.Now.
func (e Environment) Clock() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// Pattern is a named regular expression applied by the pattern scanner.
// Reject, when set, is a second expression; lines matching it are dropped.
type Pattern struct {
	Name   string
	Expr   string
	Reject string
}

// MatchLine is a single matching line with surrounding context.
type MatchLine struct {
	Line   int      `json:"line"`
	Text   string   `json:"text"`
	Before []string `json:"before,omitempty"`
	After  []string `json:"after,omitempty"`
}

// MatchReport lists the matches of all patterns within one file.
type MatchReport struct {
	RelPath string      `json:"relPath"`
	Matches int         `json:"matches"`
	Lines   []MatchLine `json:"lines"`
}

// PatternScanner walks a source tree lazily yielding one report per file with
// at least one match.
type PatternScanner interface {
	Scan(ctx context.Context, root string, patterns []Pattern, excludes []string) iter.Seq[MatchReport]
}

// ToolReport is the normalized outcome of an external tool invocation.
type ToolReport struct {
	Tool     string
	Ran      bool
	Passed   bool
	Severity Severity
	Critical int
	High     int
	Moderate int
	Summary  string
	Details  string
}

// Names of the external scanning tools a ToolRunner accepts.
const (
	ToolNpmAudit = "npm-audit"
	ToolSnyk     = "snyk"
	ToolRetire   = "retire"
)

// ToolRunner invokes external scanning tools.
type ToolRunner interface {
	Run(ctx context.Context, tool string, dir string) ToolReport
}

// SecretFinding is a hardcoded secret located in the source tree.
type SecretFinding struct {
	RuleID  string
	File    string
	Line    int
	Snippet string
}

// SecretDetector searches the source tree for hardcoded credentials. Paths
// containing any of excludes are not searched.
type SecretDetector interface {
	Detect(ctx context.Context, root string, excludes []string) ([]SecretFinding, error)
}

// ConfigReader exposes the persisted security configuration.
type ConfigReader interface {
	GetSecurityConfig(ctx context.Context) (*config.SecurityConfig, error)
}

// ScanHistory answers questions about earlier scans.
type ScanHistory interface {
	LastCompletedAt(ctx context.Context) (time.Time, bool, error)
}
