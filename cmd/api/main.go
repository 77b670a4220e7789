package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/secaudit/internal/api"
	"github.com/ahrav/secaudit/internal/api/debug"
	"github.com/ahrav/secaudit/internal/api/mux"
	"github.com/ahrav/secaudit/internal/api/routes"
	"github.com/ahrav/secaudit/internal/app/assessment"
	appChecks "github.com/ahrav/secaudit/internal/app/checks"
	appScanning "github.com/ahrav/secaudit/internal/app/scanning"
	"github.com/ahrav/secaudit/internal/config"
	"github.com/ahrav/secaudit/internal/domain/checks"
	"github.com/ahrav/secaudit/internal/domain/scanning"
	"github.com/ahrav/secaudit/internal/infra/auth"
	"github.com/ahrav/secaudit/internal/infra/notify"
	"github.com/ahrav/secaudit/internal/infra/notify/kafka"
	"github.com/ahrav/secaudit/internal/infra/notify/lognotify"
	"github.com/ahrav/secaudit/internal/infra/patternscan"
	"github.com/ahrav/secaudit/internal/infra/secrets"
	"github.com/ahrav/secaudit/internal/infra/storage"
	"github.com/ahrav/secaudit/internal/infra/storage/scanning/memory"
	"github.com/ahrav/secaudit/internal/infra/storage/scanning/postgres"
	"github.com/ahrav/secaudit/internal/infra/tools"
	"github.com/ahrav/secaudit/pkg/common"
	"github.com/ahrav/secaudit/pkg/common/logger"
	"github.com/ahrav/secaudit/pkg/common/otel"
	baseline "github.com/ahrav/secaudit/pkg/config"
)

var build = "develop"

const serviceType = "secaudit-api"

func main() {
	// Set the correct number of threads for the service
	_, _ = maxprocs.Set()

	hostname, err := os.Hostname()
	if err != nil {
		log.Fatalf("failed to get hostname: %v", err)
	}

	configPath := flag.String("config", os.Getenv("SECSCAN_CONFIG"), "path to the service configuration file")
	flag.Parse()

	var log *logger.Logger

	logEvents := logger.Events{
		Error: func(ctx context.Context, r logger.Record) {
			errorAttrs := map[string]any{
				"error_message": r.Message,
				"error_time":    r.Time.UTC().Format(time.RFC3339),
				"trace_id":      otel.GetTraceID(ctx),
			}
			for k, v := range r.Attributes {
				errorAttrs[k] = v
			}

			errorAttrsJSON, err := json.Marshal(errorAttrs)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to marshal error attributes: %v\n", err)
				return
			}
			fmt.Fprintf(os.Stderr, "Error event: %s, details: %s\n", r.Message, errorAttrsJSON)
		},
	}

	traceIDFn := func(ctx context.Context) string {
		return otel.GetTraceID(ctx)
	}

	svcName := fmt.Sprintf("SECAUDIT-API-%s", hostname)
	metadata := map[string]string{
		"service":  svcName,
		"hostname": hostname,
		"app":      serviceType,
	}

	level := logger.ParseLevel(os.Getenv("SECSCAN_LOG_LEVEL"))
	log = logger.NewWithMetadata(os.Stdout, level, svcName, traceIDFn, logEvents, metadata)

	ctx := context.Background()

	if err := run(ctx, log, hostname, *configPath); err != nil {
		log.Error(ctx, "startup", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger, hostname, configPath string) error {
	// -------------------------------------------------------------------------
	// GOMAXPROCS
	log.Info(ctx, "startup", "GOMAXPROCS", runtime.GOMAXPROCS(0), "build", build)

	// -------------------------------------------------------------------------
	// Configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// -------------------------------------------------------------------------
	// Start Tracing Support
	log.Info(ctx, "startup", "status", "initializing tracing support")

	tel, teardown, err := otel.InitTelemetry(log, otel.Config{
		ServiceName:      cfg.Telemetry.ServiceName,
		ExporterEndpoint: cfg.Telemetry.Endpoint,
		ExcludedRoutes: map[string]struct{}{
			"/v1/readiness": {},
			"/v1/liveness":  {},
			"/debug":        {},
			"/metrics":      {},
		},
		Probability:        cfg.Telemetry.Probability,
		ResourceAttributes: map[string]string{"library.language": "go", "host.name": hostname},
		InsecureExporter:   cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	defer teardown(ctx)

	tracer := tel.TracerProvider.Tracer(cfg.Telemetry.ServiceName)

	// -------------------------------------------------------------------------
	// Storage
	log.Info(ctx, "startup", "status", "initializing storage", "driver", cfg.Store.Driver)

	var (
		jobRepo    scanning.JobRepository
		configRepo scanning.SecurityConfigRepository
		ready      = func(context.Context) error { return nil }
	)
	switch cfg.Store.Driver {
	case "postgres":
		pool, err := openPool(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer pool.Close()

		db, err := storage.RunMigrations(pool, "file://db/migrations")
		if err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		defer db.Close()

		jobRepo = postgres.NewJobStore(pool, tracer)
		configRepo = postgres.NewSecurityConfigStore(pool, tracer)
		ready = pool.Ping
	default:
		jobRepo = memory.NewJobStore()
		configRepo = memory.NewSecurityConfigStore(nil)
	}

	if err := seedBaseline(ctx, log, configRepo, cfg.Baseline); err != nil {
		return err
	}

	// -------------------------------------------------------------------------
	// Notifications
	notifiers := notify.Multi{lognotify.New(log)}
	if cfg.Kafka.Enabled {
		log.Info(ctx, "startup", "status", "connecting kafka notifier", "brokers", cfg.Kafka.Brokers)
		kn, err := kafka.ConnectWithRetry(kafka.Config{
			Brokers:  cfg.Kafka.Brokers,
			Topic:    cfg.Kafka.Topic,
			ClientID: cfg.Kafka.ClientID,
		}, log, tracer)
		if err != nil {
			return fmt.Errorf("connecting kafka notifier: %w", err)
		}
		defer kn.Close()
		notifiers = append(notifiers, kn)
	}

	// -------------------------------------------------------------------------
	// Scan engine
	env, err := newEnvironment(cfg, log, tracer, configRepo, jobRepo)
	if err != nil {
		return err
	}

	scanMetrics, err := appScanning.NewScanMetrics(tel.MeterProvider)
	if err != nil {
		return fmt.Errorf("creating scan metrics: %w", err)
	}

	jobs := appScanning.NewJobService(jobRepo, log, tracer)
	orchestrator := appScanning.NewOrchestrator(
		jobs,
		appChecks.NewRegistry(),
		assessment.NewAggregator(tracer),
		env,
		notifiers,
		log,
		scanMetrics,
		tracer,
		appScanning.WithCheckTimeout(cfg.Scan.CheckTimeout),
		appScanning.WithActionURL(func(id uuid.UUID) string {
			return strings.TrimSuffix(cfg.Web.PublicURL, "/") + "/v1/scans/" + id.String()
		}),
	)
	dispatcher := appScanning.NewDispatcher(orchestrator, cfg.Scan.Workers, cfg.Scan.QueueSize, log, scanMetrics)
	scanService := appScanning.NewScanService(jobs, dispatcher, log, tracer)

	tokens, err := auth.NewTokenStore(cfg.Auth.Tokens)
	if err != nil {
		return fmt.Errorf("loading api tokens: %w", err)
	}

	// -------------------------------------------------------------------------
	// Start API Service
	log.Info(ctx, "startup", "status", "initializing API support")

	apiMetrics, err := api.NewAPIMetrics(tel.MeterProvider)
	if err != nil {
		return fmt.Errorf("creating metrics collector: %w", err)
	}

	webAPI := mux.WebAPI(mux.Config{
		Build:   build,
		Log:     log,
		Tracer:  tracer,
		Metrics: apiMetrics,
		Scans:   scanService,
		Auth:    tokens,
		Limiter: common.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Ready:   ready,
	},
		routes.Routes(),
		mux.WithCORS(cfg.Web.CORSAllowedOrigins),
	)

	apiServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Web.APIHost, cfg.Web.APIPort),
		Handler:      otelhttp.NewHandler(webAPI, "secaudit-api"),
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     logger.NewStdLogger(log, logger.LevelError),
	}
	debugServer := &http.Server{
		Addr:     cfg.Web.DebugHost,
		Handler:  debug.Mux(),
		ErrorLog: logger.NewStdLogger(log, logger.LevelError),
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(gctx, "startup", "status", "dispatcher started", "workers", cfg.Scan.Workers)
		return dispatcher.Run(gctx)
	})

	g.Go(func() error {
		log.Info(gctx, "startup", "status", "debug router started", "host", debugServer.Addr)
		if err := debugServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(gctx, "shutdown", "status", "debug router closed", "host", debugServer.Addr, "msg", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info(gctx, "startup", "status", "api router started", "host", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// -------------------------------------------------------------------------
	// Shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info(ctx, "shutdown", "status", "shutdown started")
		defer log.Info(ctx, "shutdown", "status", "shutdown complete")

		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Web.ShutdownTimeout)
		defer cancel()

		_ = debugServer.Shutdown(sctx)
		if err := apiServer.Shutdown(sctx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func openPool(ctx context.Context, cfg config.StoreConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing db config: %w", err)
	}
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.ConnConfig.Tracer = otelpgx.NewTracer()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating db pool: %w", err)
	}
	return pool, nil
}

// seedBaseline stores the baseline document when no security configuration
// has been persisted yet.
func seedBaseline(ctx context.Context, log *logger.Logger, repo scanning.SecurityConfigRepository, path string) error {
	if path == "" {
		return nil
	}

	_, err := repo.GetSecurityConfig(ctx)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, checks.ErrSecurityConfigNotFound):
		return fmt.Errorf("reading security config: %w", err)
	}

	doc, err := baseline.NewFileLoader(path).Load(ctx)
	if err != nil {
		return fmt.Errorf("loading baseline %s: %w", path, err)
	}
	if err := repo.SaveSecurityConfig(ctx, doc); err != nil {
		return fmt.Errorf("seeding security config: %w", err)
	}
	log.Info(ctx, "startup", "status", "security config seeded", "baseline", path)
	return nil
}

func newEnvironment(
	cfg *config.Config,
	log *logger.Logger,
	tracer trace.Tracer,
	configRepo checks.ConfigReader,
	history checks.ScanHistory,
) (checks.Environment, error) {
	detector, err := secrets.NewGitleaks(log, tracer)
	if err != nil {
		return checks.Environment{}, fmt.Errorf("creating secret detector: %w", err)
	}

	overrides := make([]tools.Override, 0, len(cfg.Tools))
	for _, t := range cfg.Tools {
		overrides = append(overrides, tools.Override{Name: t.Name, Command: t.Command, Args: t.Args})
	}

	return checks.Environment{
		SourceRoot: cfg.Scan.SourceRoot,
		Excludes:   cfg.Scan.ExcludePaths,
		Patterns: patternscan.New(log, tracer,
			patternscan.WithPatternTimeout(cfg.Scan.PatternTimeout),
			patternscan.WithMaxFileSize(cfg.Scan.MaxFileSize),
		),
		Tools:   tools.New(log, tracer, overrides...),
		Secrets: detector,
		Config:  configRepo,
		History: history,
	}, nil
}
