package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/opsdesk/backend/internal/domain/ledger"
	"github.com/opsdesk/backend/internal/infrastructure/persistence/models"
)

// GormLegacyRepository implements ledger.LegacyRepository over the three
// pre-ledger transaction tables. Strictly read-only.
type GormLegacyRepository struct {
	db *gorm.DB
}

// NewGormLegacyRepository creates a new GormLegacyRepository
func NewGormLegacyRepository(db *gorm.DB) *GormLegacyRepository {
	return &GormLegacyRepository{db: db}
}

// ListTransactions returns all rows from the transactions table, oldest first.
func (r *GormLegacyRepository) ListTransactions(ctx context.Context) ([]ledger.LegacyTransaction, error) {
	var rows []models.LegacyTransactionModel
	if err := dbFromContext(ctx, r.db).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]ledger.LegacyTransaction, len(rows))
	for i := range rows {
		records[i] = rows[i].ToDomain()
	}
	return records, nil
}

// ListSubscriptionTransactions returns all rows from the subscription
// transactions table, oldest first.
func (r *GormLegacyRepository) ListSubscriptionTransactions(ctx context.Context) ([]ledger.LegacySubscriptionTransaction, error) {
	var rows []models.LegacySubscriptionTransactionModel
	if err := dbFromContext(ctx, r.db).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]ledger.LegacySubscriptionTransaction, len(rows))
	for i := range rows {
		records[i] = rows[i].ToDomain()
	}
	return records, nil
}

// ListCreditLedger returns all rows from the credit ledger table, oldest first.
func (r *GormLegacyRepository) ListCreditLedger(ctx context.Context) ([]ledger.LegacyCreditLedger, error) {
	var rows []models.LegacyCreditLedgerModel
	if err := dbFromContext(ctx, r.db).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]ledger.LegacyCreditLedger, len(rows))
	for i := range rows {
		records[i] = rows[i].ToDomain()
	}
	return records, nil
}

// CountTransactions counts rows in the transactions table.
func (r *GormLegacyRepository) CountTransactions(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.LegacyTransactionModel{})
}

// CountSubscriptionTransactions counts rows in the subscription transactions table.
func (r *GormLegacyRepository) CountSubscriptionTransactions(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.LegacySubscriptionTransactionModel{})
}

// CountCreditLedger counts rows in the credit ledger table.
func (r *GormLegacyRepository) CountCreditLedger(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.LegacyCreditLedgerModel{})
}

func (r *GormLegacyRepository) count(ctx context.Context, model any) (int64, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).Model(model).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
