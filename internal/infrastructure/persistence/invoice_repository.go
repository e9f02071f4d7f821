package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opsdesk/backend/internal/domain/billing"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/opsdesk/backend/internal/infrastructure/persistence/models"
)

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByIDForTenant finds an invoice by ID within a tenant
func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
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

// FindByNumber finds an invoice by its document number for a tenant
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := dbFromContext(ctx, r.db).
		Preload("Items").
		Where("tenant_id = ? AND invoice_number = ?", tenantID, invoiceNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds invoices for a tenant with filtering
func (r *GormInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Invoice, error) {
	var rows []models.InvoiceModel
	query := applyDocumentFilter(
		dbFromContext(ctx, r.db).Model(&models.InvoiceModel{}).Where("tenant_id = ?", tenantID),
		filter, invoiceSortFields,
	)

	if err := query.Preload("Items").Find(&rows).Error; err != nil {
		return nil, err
	}

	invoices := make([]billing.Invoice, len(rows))
	for i := range rows {
		invoices[i] = *rows[i].ToDomain()
	}
	return invoices, nil
}

// CountForTenant counts invoices for a tenant with optional filters
func (r *GormInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := applyDocumentFilterWithoutPagination(
		dbFromContext(ctx, r.db).Model(&models.InvoiceModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountBySourcePO counts invoices back-linked to the given purchase order.
func (r *GormInvoiceRepository) CountBySourcePO(ctx context.Context, tenantID, poID uuid.UUID) (int64, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).
		Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND source_po_id = ?", tenantID, poID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates an invoice together with its line items.
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
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

// SaveWithLock persists the invoice with an optimistic version check.
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	loadedVersion := model.Version
	model.Version++
	err := dbFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.InvoiceModel{}).
			Where("id = ? AND tenant_id = ? AND version = ?", model.ID, model.TenantID, loadedVersion).
			Updates(map[string]interface{}{
				"billing_name":    model.BillingName,
				"billing_email":   model.BillingEmail,
				"billing_address": model.BillingAddress,
				"subtotal_cents":  model.SubtotalCents,
				"discount_cents":  model.DiscountCents,
				"tax_cents":       model.TaxCents,
				"total_cents":     model.TotalCents,
				"status":          model.Status,
				"notes":           model.Notes,
				"sent_at":         model.SentAt,
				"paid_at":         model.PaidAt,
				"cancelled_at":    model.CancelledAt,
				"updated_by":      model.UpdatedBy,
				"version":         model.Version,
				"updated_at":      model.UpdatedAt,
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
	invoice.Version = model.Version
	return nil
}

// invoiceSortFields contains allowed sort fields for invoices
var invoiceSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"invoice_number": true,
	"billing_name":   true,
	"status":         true,
	"total_cents":    true,
	"sent_at":        true,
	"paid_at":        true,
}
