package scanning

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ScanMetrics defines the metrics recorded by the scan engine.
type ScanMetrics interface {
	// Scan lifecycle metrics
	IncScansStarted(ctx context.Context)
	IncScansCompleted(ctx context.Context)
	IncScansFailed(ctx context.Context)
	IncScansCancelled(ctx context.Context)
	AddActiveScans(ctx context.Context, delta int64)

	// Check metrics
	ObserveCheck(ctx context.Context, category, outcome string, duration time.Duration)

	// Dispatcher metrics
	IncQueueRejected(ctx context.Context)
}

// scanMetrics implements ScanMetrics using OpenTelemetry instruments.
type scanMetrics struct {
	scansStarted   metric.Int64Counter
	scansCompleted metric.Int64Counter
	scansFailed    metric.Int64Counter
	scansCancelled metric.Int64Counter
	activeScans    metric.Int64UpDownCounter

	checksExecuted metric.Int64Counter
	checkDuration  metric.Float64Histogram

	queueRejected metric.Int64Counter
}

const namespace = "secaudit_scan"

// NewScanMetrics creates a new ScanMetrics instance.
func NewScanMetrics(mp metric.MeterProvider) (*scanMetrics, error) {
	meter := mp.Meter(namespace, metric.WithInstrumentationVersion("v0.1.0"))

	m := new(scanMetrics)
	var err error

	if m.scansStarted, err = meter.Int64Counter(
		"scans_started_total",
		metric.WithDescription("Total number of scans started"),
	); err != nil {
		return nil, err
	}

	if m.scansCompleted, err = meter.Int64Counter(
		"scans_completed_total",
		metric.WithDescription("Total number of scans that produced a report"),
	); err != nil {
		return nil, err
	}

	if m.scansFailed, err = meter.Int64Counter(
		"scans_failed_total",
		metric.WithDescription("Total number of scans that could not run to completion"),
	); err != nil {
		return nil, err
	}

	if m.scansCancelled, err = meter.Int64Counter(
		"scans_cancelled_total",
		metric.WithDescription("Total number of scans cancelled by an operator or shutdown"),
	); err != nil {
		return nil, err
	}

	if m.activeScans, err = meter.Int64UpDownCounter(
		"active_scans",
		metric.WithDescription("Number of scans currently executing"),
	); err != nil {
		return nil, err
	}

	if m.checksExecuted, err = meter.Int64Counter(
		"checks_executed_total",
		metric.WithDescription("Total number of checks executed, by category and outcome"),
	); err != nil {
		return nil, err
	}

	if m.checkDuration, err = meter.Float64Histogram(
		"check_duration_seconds",
		metric.WithDescription("Time taken to execute each check"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.queueRejected, err = meter.Int64Counter(
		"queue_rejected_total",
		metric.WithDescription("Total number of scans rejected because the queue was full"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *scanMetrics) IncScansStarted(ctx context.Context)   { m.scansStarted.Add(ctx, 1) }
func (m *scanMetrics) IncScansCompleted(ctx context.Context) { m.scansCompleted.Add(ctx, 1) }
func (m *scanMetrics) IncScansFailed(ctx context.Context)    { m.scansFailed.Add(ctx, 1) }
func (m *scanMetrics) IncScansCancelled(ctx context.Context) { m.scansCancelled.Add(ctx, 1) }
func (m *scanMetrics) IncQueueRejected(ctx context.Context)  { m.queueRejected.Add(ctx, 1) }

func (m *scanMetrics) AddActiveScans(ctx context.Context, delta int64) {
	m.activeScans.Add(ctx, delta)
}

func (m *scanMetrics) ObserveCheck(ctx context.Context, category, outcome string, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("category", category),
		attribute.String("outcome", outcome),
	)
	m.checksExecuted.Add(ctx, 1, attrs)
	m.checkDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("category", category)))
}
