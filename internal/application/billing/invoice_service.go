package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/billing"
	"github.com/opsdesk/backend/internal/domain/numbering"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/opsdesk/backend/internal/domain/shared/valueobject"
)

// InvoiceService handles invoice business operations
type InvoiceService struct {
	invoiceRepo billing.InvoiceRepository
	allocator   NumberAllocator
	uow         shared.UnitOfWork
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo billing.InvoiceRepository,
	allocator NumberAllocator,
	uow shared.UnitOfWork,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		allocator:   allocator,
		uow:         uow,
	}
}

// Create creates a standalone invoice, allocating its number and inserting
// the invoice in one transaction.
func (s *InvoiceService) Create(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	var invoice *billing.Invoice

	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		invoiceNumber, err := s.allocator.Allocate(ctx, tenantID, numbering.KindInvoice)
		if err != nil {
			return err
		}

		invoice, err = billing.NewInvoice(tenantID, invoiceNumber, billing.BillingDetails{
			Name:    req.Billing.Name,
			Email:   req.Billing.Email,
			Address: req.Billing.Address,
		})
		if err != nil {
			return err
		}

		if req.CreatedBy != nil {
			invoice.SetCreatedBy(*req.CreatedBy)
		}

		for _, item := range req.Items {
			if _, err := invoice.AddItem(item.Description, item.Quantity, valueobject.NewMoneyFromDecimal(item.UnitPrice)); err != nil {
				return err
			}
		}

		if req.Tax != nil {
			if err := invoice.SetTax(valueobject.NewMoneyFromDecimal(*req.Tax)); err != nil {
				return err
			}
		}

		if req.Discount != nil {
			if err := invoice.SetDiscount(valueobject.NewMoneyFromDecimal(*req.Discount)); err != nil {
				return err
			}
		}

		if req.Notes != "" {
			if err := invoice.SetNotes(req.Notes); err != nil {
				return err
			}
		}

		return s.invoiceRepo.Save(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// GetByID retrieves an invoice by ID
func (s *InvoiceService) GetByID(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// GetByNumber retrieves an invoice by its document number
func (s *InvoiceService) GetByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByNumber(ctx, tenantID, invoiceNumber)
	if err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// List retrieves invoices with filtering and pagination
func (s *InvoiceService) List(ctx context.Context, tenantID uuid.UUID, filter DocumentListFilter) (*shared.Paginated[InvoiceListResponse], error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  make(map[string]any),
	}
	domainFilter.Normalize()

	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	invoices, err := s.invoiceRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}

	total, err := s.invoiceRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}

	result := shared.NewPaginated(ToInvoiceListResponses(invoices), total, domainFilter.Page, domainFilter.PageSize)
	return &result, nil
}

// Update applies a partial update to an invoice
func (s *InvoiceService) Update(ctx context.Context, tenantID, invoiceID uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	if req.Billing != nil {
		if err := invoice.SetBilling(billing.BillingDetails{
			Name:    req.Billing.Name,
			Email:   req.Billing.Email,
			Address: req.Billing.Address,
		}); err != nil {
			return nil, err
		}
	}

	if req.Tax != nil {
		if err := invoice.SetTax(valueobject.NewMoneyFromDecimal(*req.Tax)); err != nil {
			return nil, err
		}
	}

	if req.Discount != nil {
		if err := invoice.SetDiscount(valueobject.NewMoneyFromDecimal(*req.Discount)); err != nil {
			return nil, err
		}
	}

	if req.Notes != nil {
		if err := invoice.SetNotes(*req.Notes); err != nil {
			return nil, err
		}
	}

	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// AddItem appends a line item to an invoice
func (s *InvoiceService) AddItem(ctx context.Context, tenantID, invoiceID uuid.UUID, req LineItemRequest) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	if _, err := invoice.AddItem(req.Description, req.Quantity, valueobject.NewMoneyFromDecimal(req.UnitPrice)); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// UpdateItem applies a partial update to a line item
func (s *InvoiceService) UpdateItem(ctx context.Context, tenantID, invoiceID, itemID uuid.UUID, req UpdateLineItemRequest) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	var unitPrice *valueobject.Money
	if req.UnitPrice != nil {
		p := valueobject.NewMoneyFromDecimal(*req.UnitPrice)
		unitPrice = &p
	}

	if err := invoice.UpdateItem(itemID, req.Description, req.Quantity, unitPrice); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// RemoveItem removes a line item from an invoice
func (s *InvoiceService) RemoveItem(ctx context.Context, tenantID, invoiceID, itemID uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	if err := invoice.RemoveItem(itemID); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// Send marks a draft invoice as sent
func (s *InvoiceService) Send(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, tenantID, invoiceID, (*billing.Invoice).MarkSent)
}

// MarkPaid marks an invoice as paid
func (s *InvoiceService) MarkPaid(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, tenantID, invoiceID, (*billing.Invoice).MarkPaid)
}

// Cancel cancels an invoice
func (s *InvoiceService) Cancel(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, tenantID, invoiceID, (*billing.Invoice).Cancel)
}

func (s *InvoiceService) transition(ctx context.Context, tenantID, invoiceID uuid.UUID, apply func(*billing.Invoice) error) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	if err := apply(invoice); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(invoice)
	return &response, nil
}
