// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics tracks document numbering, conversion, and ledger activity.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	numbersAllocatedTotal *Counter
	documentCreatedTotal  *Counter
	documentAmountTotal   *Counter
	conversionTotal       *Counter
	ledgerEntryTotal      *Counter
	migrationEntryTotal   *Counter

	// Gauge metrics (point-in-time values)
	ledgerUnreconciledCount *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	ledgerProvider LedgerMetricsProvider
}

// LedgerMetricsProvider supplies ledger state for periodic gauge collection.
// The interface keeps the telemetry layer from depending on the ledger domain
// directly.
type LedgerMetricsProvider interface {
	// GetUnreconciledCount returns the number of unreconciled ledger entries for a tenant
	GetUnreconciledCount(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	LedgerProvider  LedgerMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:          cfg.Meter,
		logger:         logger,
		stopChan:       make(chan struct{}),
		ledgerProvider: cfg.LedgerProvider,
	}

	var err error

	bm.numbersAllocatedTotal, err = NewCounter(
		cfg.Meter,
		"opsdesk_document_numbers_allocated_total",
		"Total number of document numbers allocated",
		"{numbers}",
	)
	if err != nil {
		return nil, err
	}

	bm.documentCreatedTotal, err = NewCounter(
		cfg.Meter,
		"opsdesk_document_created_total",
		"Total number of documents created",
		"{documents}",
	)
	if err != nil {
		return nil, err
	}

	bm.documentAmountTotal, err = NewCounter(
		cfg.Meter,
		"opsdesk_document_amount_total",
		"Total document amount in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	bm.conversionTotal, err = NewCounter(
		cfg.Meter,
		"opsdesk_po_conversion_total",
		"Total number of purchase order to invoice conversion attempts",
		"{conversions}",
	)
	if err != nil {
		return nil, err
	}

	bm.ledgerEntryTotal, err = NewCounter(
		cfg.Meter,
		"opsdesk_ledger_entry_total",
		"Total number of ledger entries recorded",
		"{entries}",
	)
	if err != nil {
		return nil, err
	}

	bm.migrationEntryTotal, err = NewCounter(
		cfg.Meter,
		"opsdesk_ledger_migration_entry_total",
		"Total number of legacy records processed by the ledger migration",
		"{records}",
	)
	if err != nil {
		return nil, err
	}

	bm.ledgerUnreconciledCount, err = NewGauge(
		cfg.Meter,
		"opsdesk_ledger_unreconciled_count",
		"Number of ledger entries not yet reconciled",
		"{entries}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// DocumentKind labels number allocation and document creation metrics.
type DocumentKind string

const (
	DocumentKindInvoice       DocumentKind = "invoice"
	DocumentKindPurchaseOrder DocumentKind = "purchase_order"
	DocumentKindSalesOrder    DocumentKind = "sales_order"
)

// ConversionResult labels the outcome of a conversion attempt.
type ConversionResult string

const (
	ConversionResultSuccess  ConversionResult = "success"
	ConversionResultConflict ConversionResult = "conflict"
	ConversionResultReplayed ConversionResult = "replayed"
)

// MigrationOutcome labels the outcome of processing one legacy record.
type MigrationOutcome string

const (
	MigrationOutcomeMigrated MigrationOutcome = "migrated"
	MigrationOutcomeSkipped  MigrationOutcome = "skipped"
	MigrationOutcomeFailed   MigrationOutcome = "failed"
)

// RecordNumberAllocated records one document number allocation.
func (bm *BusinessMetrics) RecordNumberAllocated(ctx context.Context, tenantID uuid.UUID, kind DocumentKind) {
	bm.numbersAllocatedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrDocumentKind.String(string(kind)),
	)
}

// RecordDocumentCreated records a document creation along with its total amount in cents.
func (bm *BusinessMetrics) RecordDocumentCreated(ctx context.Context, tenantID uuid.UUID, kind DocumentKind, amountCents int64) {
	bm.documentCreatedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrDocumentKind.String(string(kind)),
	)
	bm.documentAmountTotal.Add(ctx, amountCents,
		AttrTenantID.String(tenantID.String()),
		AttrDocumentKind.String(string(kind)),
	)
}

// RecordConversion records an attempt to convert a purchase order into an invoice.
func (bm *BusinessMetrics) RecordConversion(ctx context.Context, tenantID uuid.UUID, result ConversionResult) {
	bm.conversionTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrConversionResult.String(string(result)),
	)
}

// RecordLedgerEntry records a ledger append.
func (bm *BusinessMetrics) RecordLedgerEntry(ctx context.Context, tenantID uuid.UUID, entryType, revenueSource string) {
	bm.ledgerEntryTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrEntryType.String(entryType),
		AttrRevenueSource.String(revenueSource),
	)
}

// RecordMigrationEntry records the outcome of one legacy record during migration.
func (bm *BusinessMetrics) RecordMigrationEntry(ctx context.Context, tenantID uuid.UUID, source string, outcome MigrationOutcome) {
	bm.migrationEntryTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrLegacySource.String(source),
		AttrMigrationOutcome.String(string(outcome)),
	)
}

// RecordUnreconciledCount records the current unreconciled ledger entry count.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordUnreconciledCount(ctx context.Context, tenantID uuid.UUID, count int64) {
	bm.ledgerUnreconciledCount.Record(ctx, count,
		AttrTenantID.String(tenantID.String()),
	)
}

// TenantProvider provides tenant IDs for periodic metrics collection.
type TenantProvider interface {
	GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// Non-blocking; use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, tenantProvider, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectLedgerMetrics(ctx, tenantProvider)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectLedgerMetrics(ctx, tenantProvider)
		}
	}
}

func (bm *BusinessMetrics) collectLedgerMetrics(ctx context.Context, tenantProvider TenantProvider) {
	if bm.ledgerProvider == nil {
		bm.logger.Debug("No ledger provider configured, skipping ledger metrics collection")
		return
	}

	tenantIDs, err := tenantProvider.GetActiveTenantIDs(ctx)
	if err != nil {
		bm.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		count, err := bm.ledgerProvider.GetUnreconciledCount(ctx, tenantID)
		if err != nil {
			bm.logger.Warn("Failed to get unreconciled count for tenant",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			continue
		}
		bm.RecordUnreconciledCount(ctx, tenantID, count)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
