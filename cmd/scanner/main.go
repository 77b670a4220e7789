// Command scanner runs a single security scan against a directory and prints
// the finished job as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/ahrav/secaudit/internal/app/assessment"
	appChecks "github.com/ahrav/secaudit/internal/app/checks"
	appScanning "github.com/ahrav/secaudit/internal/app/scanning"
	"github.com/ahrav/secaudit/internal/domain/checks"
	"github.com/ahrav/secaudit/internal/domain/scanning"
	notifymem "github.com/ahrav/secaudit/internal/infra/notify/memory"
	"github.com/ahrav/secaudit/internal/infra/patternscan"
	"github.com/ahrav/secaudit/internal/infra/secrets"
	"github.com/ahrav/secaudit/internal/infra/storage/scanning/memory"
	"github.com/ahrav/secaudit/internal/infra/tools"
	"github.com/ahrav/secaudit/pkg/common/logger"
	baseline "github.com/ahrav/secaudit/pkg/config"
)

// Exit codes beyond the usual 0 and 1.
const (
	exitFailed   = 1
	exitHighRisk = 2
)

func main() {
	_, _ = maxprocs.Set()

	var (
		root       = flag.String("root", ".", "source tree to scan")
		scanType   = flag.String("type", string(scanning.ScanTypeFull), "scan type: quick, full or custom")
		categories = flag.String("categories", "", "comma separated categories for a custom scan")
		configPath = flag.String("config", "", "YAML security baseline")
		logLevel   = flag.String("log-level", "warn", "log level")
	)
	flag.Parse()

	log := logger.New(os.Stderr, logger.ParseLevel(*logLevel), "SECAUDIT-SCANNER", func(context.Context) string { return "" })

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code, err := run(ctx, log, *root, *scanType, *categories, *configPath)
	if err != nil {
		log.Error(ctx, "scan", "err", err)
		stop()
		os.Exit(exitFailed)
	}
	stop()
	os.Exit(code)
}

func run(ctx context.Context, log *logger.Logger, root, scanType, categories, configPath string) (int, error) {
	var cats []string
	if categories != "" {
		cats = strings.Split(categories, ",")
	}
	settings, err := scanning.NewSettings(scanning.ScanType(scanType), scanning.ScanDepthStandard, cats)
	if err != nil {
		return 0, err
	}

	var doc *baseline.SecurityConfig
	if configPath != "" {
		if doc, err = baseline.NewFileLoader(configPath).Load(ctx); err != nil {
			return 0, fmt.Errorf("loading baseline: %w", err)
		}
	}

	tracer := noop.NewTracerProvider().Tracer("secaudit-scanner")

	detector, err := secrets.NewGitleaks(log, tracer)
	if err != nil {
		return 0, fmt.Errorf("creating secret detector: %w", err)
	}

	jobRepo := memory.NewJobStore()
	env := checks.Environment{
		SourceRoot: root,
		Patterns:   patternscan.New(log, tracer),
		Tools:      tools.New(log, tracer),
		Secrets:    detector,
		Config:     memory.NewSecurityConfigStore(doc),
		History:    jobRepo,
	}

	notifier := notifymem.New()
	if err := notifier.Subscribe(ctx, func(n scanning.Notification) error {
		log.Info(ctx, n.Title, "body", n.Body, "severity", n.Severity)
		return nil
	}); err != nil {
		return 0, err
	}

	metrics, err := appScanning.NewScanMetrics(noopmetric.NewMeterProvider())
	if err != nil {
		return 0, err
	}

	jobs := appScanning.NewJobService(jobRepo, log, tracer)
	orchestrator := appScanning.NewOrchestrator(
		jobs,
		appChecks.NewRegistry(),
		assessment.NewAggregator(tracer),
		env,
		notifier,
		log,
		metrics,
		tracer,
	)

	job, err := jobs.Create(ctx, settings)
	if err != nil {
		return 0, err
	}

	// The job record carries the outcome; a cancelled run still prints it.
	if err := orchestrator.Run(ctx, job.JobID()); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn(ctx, "scan did not complete", "err", err)
	}

	done, err := jobs.Get(context.WithoutCancel(ctx), job.JobID())
	if err != nil {
		return 0, err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(done); err != nil {
		return 0, fmt.Errorf("encoding job: %w", err)
	}

	switch {
	case done.Status() == scanning.JobStatusFailed:
		return exitFailed, nil
	case done.Report() != nil && done.Report().RiskAssessment.OverallRisk == scanning.RiskHigh:
		return exitHighRisk, nil
	}
	return 0, nil
}
