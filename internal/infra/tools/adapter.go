// Package tools runs third-party security scanners as subprocesses and
// normalizes their JSON reports into checks.ToolReport values. A missing or
// broken tool is reported, never raised.
package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/secaudit/internal/domain/checks"
	"github.com/ahrav/secaudit/pkg/common/logger"
)

var _ checks.ToolRunner = (*Adapter)(nil)

// Tool describes how to invoke and parse one scanner.
type Tool struct {
	Name    string
	Command string
	Args    []string

	// ErrorMarkers are stderr substrings meaning the tool could not run.
	ErrorMarkers []string

	parse parseFunc
}

// DefaultTools returns the built-in tool definitions.
func DefaultTools() map[string]Tool {
	return map[string]Tool{
		checks.ToolNpmAudit: {
			Name:         checks.ToolNpmAudit,
			Command:      "npm",
			Args:         []string{"audit", "--json"},
			ErrorMarkers: []string{"ENOLOCK", "EAUDITNOLOCK", "ENOAUDIT", "npm ERR!"},
			parse:        parseNpmAudit,
		},
		checks.ToolSnyk: {
			Name:         checks.ToolSnyk,
			Command:      "snyk",
			Args:         []string{"test", "--json"},
			ErrorMarkers: []string{"Authentication error", "MissingApiTokenError", "`snyk` requires an authenticated account"},
			parse:        parseSnyk,
		},
		checks.ToolRetire: {
			Name:         checks.ToolRetire,
			Command:      "retire",
			Args:         []string{"--outputformat", "json", "--exitwith", "0"},
			ErrorMarkers: []string{"Error:", "Could not"},
			parse:        parseRetire,
		},
	}
}

// Override replaces the command and arguments of a built-in tool.
type Override struct {
	Name    string
	Command string
	Args    []string
}

// Adapter implements checks.ToolRunner.
type Adapter struct {
	tools     map[string]Tool
	waitDelay time.Duration

	logger *logger.Logger
	tracer trace.Tracer
}

// New creates an Adapter over the default tools with the given overrides
// applied. Overrides naming unknown tools are ignored with a warning.
func New(log *logger.Logger, tracer trace.Tracer, overrides ...Override) *Adapter {
	a := &Adapter{
		tools:     DefaultTools(),
		waitDelay: 2 * time.Second,
		logger:    log.With("component", "tool_adapter"),
		tracer:    tracer,
	}

	for _, o := range overrides {
		t, ok := a.tools[o.Name]
		if !ok {
			a.logger.Warn(context.Background(), "ignoring override for unknown tool", "tool", o.Name)
			continue
		}
		if o.Command != "" {
			t.Command = o.Command
		}
		if o.Args != nil {
			t.Args = o.Args
		}
		a.tools[o.Name] = t
	}
	return a
}

// Run invokes the named tool in dir and classifies its output. It always
// returns a report; ctx bounds the subprocess.
func (a *Adapter) Run(ctx context.Context, name string, dir string) checks.ToolReport {
	ctx, span := a.tracer.Start(ctx, "tool_adapter.run",
		trace.WithAttributes(
			attribute.String("tool", name),
			attribute.String("dir", dir),
		))
	defer span.End()

	tool, ok := a.tools[name]
	if !ok {
		span.SetStatus(codes.Error, "unknown tool")
		return couldNotRun(name, "tool is not registered", "")
	}

	stdout, stderr, exitCode, runErr := a.execute(ctx, tool, dir)
	span.SetAttributes(attribute.Int("exit_code", exitCode))

	if ctxErr := ctx.Err(); ctxErr != nil {
		span.RecordError(ctxErr)
		span.SetStatus(codes.Error, "tool interrupted")
		return couldNotRun(name, "tool did not finish before the check deadline", ctxErr.Error())
	}

	if runErr != nil && exitCode < 0 {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, "tool failed to start")
		a.logger.Warn(ctx, "external tool failed to start", "tool", name, "error", runErr)
		return couldNotRun(name, "tool is not installed or not executable", runErr.Error())
	}

	// A schema-valid report is trusted whatever the exit status: most of these
	// tools exit non-zero precisely because they found vulnerabilities.
	c, parseErr := tool.parse(stdout)
	if parseErr == nil {
		report := classify(name, c)
		span.SetAttributes(
			attribute.Int("critical", c.critical),
			attribute.Int("high", c.high),
			attribute.Int("moderate", c.moderate),
		)
		return report
	}

	span.RecordError(parseErr)
	span.SetStatus(codes.Error, "tool output unusable")

	reason := "tool produced no usable JSON report"
	var te *toolError
	switch {
	case errors.As(parseErr, &te):
		reason = "tool reported an error: " + te.msg
	case hasMarker(stderr, tool.ErrorMarkers):
		reason = "tool reported a configuration error"
	case exitCode != 0:
		reason = fmt.Sprintf("tool exited with status %d", exitCode)
	}

	a.logger.Warn(ctx, "external tool could not be run",
		"tool", name, "exit_code", exitCode, "reason", reason)

	return couldNotRun(name, reason, truncate(strings.TrimSpace(string(stderr)), 512))
}

// execute runs the tool non-interactively. exitCode is -1 when the process
// never started.
func (a *Adapter) execute(ctx context.Context, tool Tool, dir string) ([]byte, []byte, int, error) {
	cmd := exec.CommandContext(ctx, tool.Command, tool.Args...)
	cmd.Dir = dir
	cmd.Stdin = nil
	cmd.Env = append(os.Environ(), "CI=true", "NO_COLOR=1", "FORCE_COLOR=0", "NPM_CONFIG_FUND=false")
	cmd.WaitDelay = a.waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), stderr.Bytes(), 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), stderr.Bytes(), exitErr.ExitCode(), err
	}
	return stdout.Bytes(), stderr.Bytes(), -1, err
}

func classify(name string, c counts) checks.ToolReport {
	r := checks.ToolReport{
		Tool:     name,
		Ran:      true,
		Critical: c.critical,
		High:     c.high,
		Moderate: c.moderate,
	}

	switch {
	case c.critical > 0 || c.high > 0:
		r.Severity = checks.SeverityHigh
		r.Summary = fmt.Sprintf("%s found vulnerabilities: %d critical, %d high, %d moderate",
			name, c.critical, c.high, c.moderate)
	case c.moderate > 0:
		r.Severity = checks.SeverityMedium
		r.Summary = fmt.Sprintf("%s found vulnerabilities: %d moderate", name, c.moderate)
	default:
		r.Passed = true
		r.Summary = fmt.Sprintf("%s found no critical, high or moderate vulnerabilities", name)
	}
	return r
}

func couldNotRun(name, reason, details string) checks.ToolReport {
	return checks.ToolReport{
		Tool:     name,
		Ran:      false,
		Passed:   false,
		Severity: checks.SeverityMedium,
		Summary:  fmt.Sprintf("%s could not be run (tool misconfigured): %s", name, reason),
		Details:  details,
	}
}

func hasMarker(stderr []byte, markers []string) bool {
	for _, m := range markers {
		if bytes.Contains(stderr, []byte(m)) {
			return true
		}
	}
	return false
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
