package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/shared"
)

// PurchaseOrderRepository defines persistence operations for purchase orders
type PurchaseOrderRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrder, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, poNumber string) (*PurchaseOrder, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]PurchaseOrder, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, order *PurchaseOrder) error
	// SaveWithLock persists the aggregate with an optimistic version check
	// and fails with CONCURRENCY_CONFLICT when the row moved underneath.
	SaveWithLock(ctx context.Context, order *PurchaseOrder) error
}

// InvoiceRepository defines persistence operations for invoices
type InvoiceRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*Invoice, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Invoice, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	// CountBySourcePO counts invoices whose SourcePOID back-link points at
	// the given purchase order. More than one is an invariant violation.
	CountBySourcePO(ctx context.Context, tenantID, poID uuid.UUID) (int64, error)
	Save(ctx context.Context, invoice *Invoice) error
	SaveWithLock(ctx context.Context, invoice *Invoice) error
}
