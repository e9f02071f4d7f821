package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opsdesk/backend/internal/domain/billing"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/opsdesk/backend/internal/infrastructure/persistence/models"
)

// GormPurchaseOrderRepository implements billing.PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByIDForTenant finds a purchase order by ID within a tenant
func (r *GormPurchaseOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := dbFromContext(ctx, r.db).
		Preload("Items").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a purchase order by its document number for a tenant
func (r *GormPurchaseOrderRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, poNumber string) (*billing.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := dbFromContext(ctx, r.db).
		Preload("Items").
		Where("tenant_id = ? AND po_number = ?", tenantID, poNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds purchase orders for a tenant with filtering
func (r *GormPurchaseOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.PurchaseOrder, error) {
	var rows []models.PurchaseOrderModel
	query := applyDocumentFilter(
		dbFromContext(ctx, r.db).Model(&models.PurchaseOrderModel{}).Where("tenant_id = ?", tenantID),
		filter, purchaseOrderSortFields,
	)

	if err := query.Preload("Items").Find(&rows).Error; err != nil {
		return nil, err
	}

	orders := make([]billing.PurchaseOrder, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, nil
}

// CountForTenant counts purchase orders for a tenant with optional filters
func (r *GormPurchaseOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := applyDocumentFilterWithoutPagination(
		dbFromContext(ctx, r.db).Model(&models.PurchaseOrderModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a purchase order together with its line items.
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, order *billing.PurchaseOrder) error {
	model := models.PurchaseOrderModelFromDomain(order)
	return dbFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(model).Error; err != nil {
			if isUniqueViolation(err) {
				return shared.ErrAlreadyExists
			}
			return err
		}
		return saveDocumentItems(tx, model.ID, model.Items)
	})
}

// SaveWithLock persists the order with an optimistic version check. The
// version loaded with the aggregate must still be current; the update bumps
// it in the same statement, so a concurrent writer hits zero affected rows.
func (r *GormPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *billing.PurchaseOrder) error {
	model := models.PurchaseOrderModelFromDomain(order)
	loadedVersion := model.Version
	model.Version++
	err := dbFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.PurchaseOrderModel{}).
			Where("id = ? AND tenant_id = ? AND version = ?", model.ID, model.TenantID, loadedVersion).
			Updates(map[string]interface{}{
				"vendor_name":             model.VendorName,
				"vendor_email":            model.VendorEmail,
				"vendor_address":          model.VendorAddress,
				"subtotal_cents":          model.SubtotalCents,
				"tax_rate":                model.TaxRate,
				"tax_cents":               model.TaxCents,
				"tax_overridden":          model.TaxOverridden,
				"discount_cents":          model.DiscountCents,
				"total_cents":             model.TotalCents,
				"status":                  model.Status,
				"notes":                   model.Notes,
				"converted_to_invoice_id": model.ConvertedToInvoiceID,
				"updated_by":              model.UpdatedBy,
				"version":                 model.Version,
				"updated_at":              model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return saveDocumentItems(tx, model.ID, model.Items)
	})
	if err != nil {
		return err
	}
	order.Version = model.Version
	return nil
}

// saveDocumentItems reconciles the stored line items of a document with the
// given set: rows absent from items are deleted, the rest upserted.
func saveDocumentItems(tx *gorm.DB, documentID uuid.UUID, items []models.DocumentItemModel) error {
	if len(items) == 0 {
		return tx.Where("document_id = ?", documentID).
			Delete(&models.DocumentItemModel{}).Error
	}

	currentIDs := make([]uuid.UUID, len(items))
	for i, item := range items {
		currentIDs[i] = item.ID
	}
	if err := tx.Where("document_id = ? AND id NOT IN ?", documentID, currentIDs).
		Delete(&models.DocumentItemModel{}).Error; err != nil {
		return err
	}

	for i := range items {
		items[i].DocumentID = documentID
		if err := tx.Save(&items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// purchaseOrderSortFields contains allowed sort fields for purchase orders
var purchaseOrderSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"po_number":   true,
	"vendor_name": true,
	"status":      true,
	"total_cents": true,
}

// applyDocumentFilter applies filtering, ordering and pagination shared by
// the billing document repositories.
func applyDocumentFilter(query *gorm.DB, filter shared.Filter, allowedSortFields map[string]bool) *gorm.DB {
	query = applyDocumentFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, allowedSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// applyDocumentFilterWithoutPagination applies filter options without pagination
func applyDocumentFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "source_po_id":
			query = query.Where("source_po_id = ?", value)
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at <= ?", t)
			}
		}
	}
	return query
}
