package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/opsdesk/backend/internal/domain/ledger"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/opsdesk/backend/internal/infrastructure/persistence/models"
)

// GormLedgerRepository implements ledger.Repository using GORM. Entries are
// written once and never updated, except for reconciliation metadata.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Append inserts a new entry. A duplicate ledger ID or legacy backlink
// surfaces as ALREADY_EXISTS via the unique indexes.
func (r *GormLedgerRepository) Append(ctx context.Context, entry *ledger.Entry) error {
	model := models.LedgerEntryModelFromDomain(entry)
	if err := dbFromContext(ctx, r.db).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByLedgerID loads an entry by its human-readable ledger ID.
func (r *GormLedgerRepository) FindByLedgerID(ctx context.Context, ledgerID string) (*ledger.Entry, error) {
	var model models.LedgerEntryModel
	if err := dbFromContext(ctx, r.db).
		Where("ledger_id = ?", ledgerID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByBacklink reports whether an entry derived from the given legacy
// record has already been appended.
func (r *GormLedgerRepository) ExistsByBacklink(ctx context.Context, source ledger.LegacySource, legacyID string) (bool, error) {
	column, err := backlinkColumn(source)
	if err != nil {
		return false, err
	}

	var count int64
	if err := dbFromContext(ctx, r.db).
		Model(&models.LedgerEntryModel{}).
		Where(column+" = ?", legacyID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountBySource counts entries carrying a backlink of the given source.
func (r *GormLedgerRepository) CountBySource(ctx context.Context, source ledger.LegacySource) (int64, error) {
	column, err := backlinkColumn(source)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := dbFromContext(ctx, r.db).
		Model(&models.LedgerEntryModel{}).
		Where(column + " IS NOT NULL").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// List returns entries matching the filter, newest first by default.
func (r *GormLedgerRepository) List(ctx context.Context, filter shared.Filter) ([]ledger.Entry, error) {
	var rows []models.LedgerEntryModel
	query := applyLedgerFilter(
		dbFromContext(ctx, r.db).Model(&models.LedgerEntryModel{}),
		filter,
	)

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]ledger.Entry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, nil
}

// Count returns the number of entries matching the filter.
func (r *GormLedgerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := applyLedgerFilterWithoutPagination(
		dbFromContext(ctx, r.db).Model(&models.LedgerEntryModel{}),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumByType totals entry amounts per type in cents, honoring the same
// filters as List.
func (r *GormLedgerRepository) SumByType(ctx context.Context, filter shared.Filter) (map[ledger.EntryType]int64, error) {
	type row struct {
		Type string
		Sum  int64
	}
	var rows []row

	query := applyLedgerFilterWithoutPagination(
		dbFromContext(ctx, r.db).Model(&models.LedgerEntryModel{}),
		filter,
	)
	if err := query.
		Select("type, COALESCE(SUM(amount_cents), 0) AS sum").
		Group("type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make(map[ledger.EntryType]int64, len(rows))
	for _, r := range rows {
		totals[ledger.EntryType(r.Type)] = r.Sum
	}
	return totals, nil
}

// MarkReconciled adds reconciliation metadata to an existing entry.
func (r *GormLedgerRepository) MarkReconciled(ctx context.Context, ledgerID, by string) error {
	now := time.Now()
	result := dbFromContext(ctx, r.db).
		Model(&models.LedgerEntryModel{}).
		Where("ledger_id = ?", ledgerID).
		Updates(map[string]interface{}{
			"is_reconciled": true,
			"reconciled_by": by,
			"reconciled_at": now,
			"updated_at":    now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// backlinkColumn maps a legacy source onto its backlink column.
func backlinkColumn(source ledger.LegacySource) (string, error) {
	switch source {
	case ledger.LegacySourceTransactions:
		return "transaction_id", nil
	case ledger.LegacySourceSubscriptionTransactions:
		return "subscription_transaction_id", nil
	case ledger.LegacySourceCreditLedger:
		return "credit_ledger_id", nil
	default:
		return "", shared.NewDomainError("INVALID_LEGACY_SOURCE", "Unknown legacy source")
	}
}

// ledgerSortFields contains allowed sort fields for ledger entries
var ledgerSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"ledger_id":        true,
	"amount_cents":     true,
	"type":             true,
	"revenue_source":   true,
	"transaction_date": true,
	"recorded_at":      true,
}

// applyLedgerFilter applies filtering, ordering and pagination for ledger queries
func applyLedgerFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = applyLedgerFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, ledgerSortFields, "transaction_date")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// applyLedgerFilterWithoutPagination applies filter options without pagination
func applyLedgerFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "company_id":
			query = query.Where("company_id = ?", value)
		case "type":
			query = query.Where("type = ?", value)
		case "revenue_source":
			query = query.Where("revenue_source = ?", value)
		case "from":
			if t, ok := value.(time.Time); ok {
				query = query.Where("transaction_date >= ?", t)
			}
		case "to":
			if t, ok := value.(time.Time); ok {
				query = query.Where("transaction_date <= ?", t)
			}
		}
	}
	return query
}
