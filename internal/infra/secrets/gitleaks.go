// Package secrets detects hardcoded credentials in a source tree using the
// gitleaks rule set.
package secrets

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/secaudit/internal/domain/checks"
	"github.com/ahrav/secaudit/internal/infra/sourcetree"
	"github.com/ahrav/secaudit/pkg/common/logger"
)

var _ checks.SecretDetector = (*Gitleaks)(nil)

const (
	maxFileSize = 1 << 20
	// readerBufferKB sizes DetectReader chunks so files under maxFileSize are
	// scanned in one fragment and line numbers stay file-relative.
	readerBufferKB = 1100
)

// Gitleaks implements checks.SecretDetector over the embedded default rules.
type Gitleaks struct {
	detector *detect.Detector

	logger *logger.Logger
	tracer trace.Tracer
}

// NewGitleaks builds a detector from the gitleaks default configuration.
func NewGitleaks(log *logger.Logger, tracer trace.Tracer) (*Gitleaks, error) {
	detector, err := setupGitleaksDetector()
	if err != nil {
		return nil, err
	}

	return &Gitleaks{
		detector: detector,
		logger:   log.With("component", "gitleaks_detector"),
		tracer:   tracer,
	}, nil
}

// setupGitleaksDetector initializes the Gitleaks detector using the embedded
// default configuration. A private viper instance keeps the rule parsing
// away from the service configuration.
func setupGitleaksDetector() (*detect.Detector, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(bytes.NewBufferString(config.DefaultConfig)); err != nil {
		return nil, fmt.Errorf("failed to read embedded config: %w", err)
	}

	var vc config.ViperConfig
	if err := v.Unmarshal(&vc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal embedded config: %w", err)
	}

	cfg, err := vc.Translate()
	if err != nil {
		return nil, fmt.Errorf("failed to translate ViperConfig to Config: %w", err)
	}

	return detect.NewDetector(cfg), nil
}

// Detect walks root and returns every secret found outside excludes.
// Unreadable entries are logged and skipped; only a failure to walk root
// itself is returned.
func (g *Gitleaks) Detect(ctx context.Context, root string, excludes []string) ([]checks.SecretFinding, error) {
	ctx, span := g.tracer.Start(ctx, "gitleaks_detector.detect",
		trace.WithAttributes(
			attribute.String("root", root),
			attribute.Int("num_rules", len(g.detector.Config.Rules)),
		))
	defer span.End()

	if _, err := os.Stat(root); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "source root unavailable")
		return nil, fmt.Errorf("source root %s: %w", root, err)
	}

	policy := sourcetree.NewPolicy(excludes)

	var findings []checks.SecretFinding
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			g.logger.Warn(ctx, "skipping unreadable path", "path", path, "error", err)
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
			g.logger.Warn(ctx, "skipping entry with path traversal sequence", "path", rel)
			return skip(d)
		}
		if d.IsDir() {
			if policy.SkipDir(name, rel) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || policy.SkipFile(name, rel) {
			return nil
		}

		fileFindings, err := g.detectFile(path, filepath.ToSlash(rel))
		if err != nil {
			g.logger.Warn(ctx, "skipping file", "path", rel, "error", err)
			return nil
		}
		findings = append(findings, fileFindings...)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "walk interrupted")
		return findings, fmt.Errorf("walking %s: %w", root, err)
	}

	span.SetAttributes(attribute.Int("findings.count", len(findings)))
	span.SetStatus(codes.Ok, "detection completed")
	return findings, nil
}

func (g *Gitleaks) detectFile(path, rel string) ([]checks.SecretFinding, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 || info.Size() > maxFileSize {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	// Binary content is not worth scanning.
	if bytes.IndexByte(data[:min(len(data), 512)], 0) >= 0 {
		return nil, nil
	}

	results, err := g.detector.DetectReader(bytes.NewReader(data), readerBufferKB)
	if err != nil {
		return nil, err
	}

	out := make([]checks.SecretFinding, 0, len(results))
	for _, f := range results {
		out = append(out, checks.SecretFinding{
			RuleID:  f.RuleID,
			File:    rel,
			Line:    f.StartLine + 1,
			Snippet: f.Description,
		})
	}
	return out, nil
}

func skip(d fs.DirEntry) error {
	if d.IsDir() {
		return fs.SkipDir
	}
	return nil
}
