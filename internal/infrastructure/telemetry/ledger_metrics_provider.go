// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLedgerMetricsProvider implements LedgerMetricsProvider by querying the
// ledger_entries table directly for aggregated counts.
type GormLedgerMetricsProvider struct {
	db *gorm.DB
}

// NewGormLedgerMetricsProvider creates a new GormLedgerMetricsProvider.
func NewGormLedgerMetricsProvider(db *gorm.DB) *GormLedgerMetricsProvider {
	return &GormLedgerMetricsProvider{db: db}
}

// GetUnreconciledCount returns the number of unreconciled ledger entries for a tenant.
func (p *GormLedgerMetricsProvider) GetUnreconciledCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("ledger_entries").
		Where("tenant_id = ? AND is_reconciled = ?", tenantID, false).
		Count(&count).Error

	return count, err
}

// GormTenantProvider implements TenantProvider by listing the tenants that
// have ledger activity.
type GormTenantProvider struct {
	db *gorm.DB
}

// NewGormTenantProvider creates a new GormTenantProvider.
func NewGormTenantProvider(db *gorm.DB) *GormTenantProvider {
	return &GormTenantProvider{db: db}
}

// GetActiveTenantIDs returns the distinct tenant IDs present in the ledger.
func (p *GormTenantProvider) GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("ledger_entries").
		Distinct("tenant_id").
		Find(&ids).Error

	return ids, err
}
