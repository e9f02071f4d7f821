package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/billing"
	"github.com/opsdesk/backend/internal/domain/numbering"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/opsdesk/backend/internal/domain/shared/valueobject"
)

// NumberAllocator issues the next sequential document number for a kind.
// This decouples the billing services from the concrete counter service.
type NumberAllocator interface {
	Allocate(ctx context.Context, tenantID uuid.UUID, kind numbering.DocumentKind) (string, error)
}

// PurchaseOrderService handles purchase order business operations
type PurchaseOrderService struct {
	poRepo    billing.PurchaseOrderRepository
	allocator NumberAllocator
	uow       shared.UnitOfWork
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(
	poRepo billing.PurchaseOrderRepository,
	allocator NumberAllocator,
	uow shared.UnitOfWork,
) *PurchaseOrderService {
	return &PurchaseOrderService{
		poRepo:    poRepo,
		allocator: allocator,
		uow:       uow,
	}
}

// Create creates a new purchase order, allocating its document number and
// inserting the order in one transaction so a failed insert never burns a
// number.
func (s *PurchaseOrderService) Create(ctx context.Context, tenantID uuid.UUID, req CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	var order *billing.PurchaseOrder

	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		poNumber, err := s.allocator.Allocate(ctx, tenantID, numbering.KindPurchaseOrder)
		if err != nil {
			return err
		}

		order, err = billing.NewPurchaseOrder(tenantID, poNumber, billing.VendorInfo{
			Name:    req.Vendor.Name,
			Email:   req.Vendor.Email,
			Address: req.Vendor.Address,
		}, req.TaxRate)
		if err != nil {
			return err
		}

		if req.CreatedBy != nil {
			order.SetCreatedBy(*req.CreatedBy)
		}

		for _, item := range req.Items {
			if _, err := order.AddItem(item.Description, item.Quantity, valueobject.NewMoneyFromDecimal(item.UnitPrice)); err != nil {
				return err
			}
		}

		if req.Discount != nil {
			if err := order.SetDiscount(valueobject.NewMoneyFromDecimal(*req.Discount)); err != nil {
				return err
			}
		}

		if req.Notes != "" {
			if err := order.SetNotes(req.Notes); err != nil {
				return err
			}
		}

		return s.poRepo.Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// GetByID retrieves a purchase order by ID
func (s *PurchaseOrderService) GetByID(ctx context.Context, tenantID, poID uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.poRepo.FindByIDForTenant(ctx, tenantID, poID)
	if err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// GetByNumber retrieves a purchase order by its document number
func (s *PurchaseOrderService) GetByNumber(ctx context.Context, tenantID uuid.UUID, poNumber string) (*PurchaseOrderResponse, error) {
	order, err := s.poRepo.FindByNumber(ctx, tenantID, poNumber)
	if err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// List retrieves purchase orders with filtering and pagination
func (s *PurchaseOrderService) List(ctx context.Context, tenantID uuid.UUID, filter DocumentListFilter) (*shared.Paginated[PurchaseOrderListResponse], error) {
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

	orders, err := s.poRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}

	total, err := s.poRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}

	result := shared.NewPaginated(ToPurchaseOrderListResponses(orders), total, domainFilter.Page, domainFilter.PageSize)
	return &result, nil
}

// Update applies a partial update to a purchase order
func (s *PurchaseOrderService) Update(ctx context.Context, tenantID, poID uuid.UUID, req UpdatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	order, err := s.poRepo.FindByIDForTenant(ctx, tenantID, poID)
	if err != nil {
		return nil, err
	}

	if req.Vendor != nil {
		if err := order.SetVendor(billing.VendorInfo{
			Name:    req.Vendor.Name,
			Email:   req.Vendor.Email,
			Address: req.Vendor.Address,
		}); err != nil {
			return nil, err
		}
	}

	// An explicit tax amount overrides the rate; setting a rate clears any
	// previous override.
	if req.Tax != nil {
		if err := order.SetManualTax(valueobject.NewMoneyFromDecimal(*req.Tax)); err != nil {
			return nil, err
		}
	} else if req.TaxRate != nil {
		if err := order.SetTaxRate(*req.TaxRate); err != nil {
			return nil, err
		}
	}

	if req.Discount != nil {
		if err := order.SetDiscount(valueobject.NewMoneyFromDecimal(*req.Discount)); err != nil {
			return nil, err
		}
	}

	if req.Notes != nil {
		if err := order.SetNotes(*req.Notes); err != nil {
			return nil, err
		}
	}

	if err := s.poRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// AddItem appends a line item to a purchase order
func (s *PurchaseOrderService) AddItem(ctx context.Context, tenantID, poID uuid.UUID, req LineItemRequest) (*PurchaseOrderResponse, error) {
	order, err := s.poRepo.FindByIDForTenant(ctx, tenantID, poID)
	if err != nil {
		return nil, err
	}

	if _, err := order.AddItem(req.Description, req.Quantity, valueobject.NewMoneyFromDecimal(req.UnitPrice)); err != nil {
		return nil, err
	}

	if err := s.poRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// UpdateItem applies a partial update to a line item
func (s *PurchaseOrderService) UpdateItem(ctx context.Context, tenantID, poID, itemID uuid.UUID, req UpdateLineItemRequest) (*PurchaseOrderResponse, error) {
	order, err := s.poRepo.FindByIDForTenant(ctx, tenantID, poID)
	if err != nil {
		return nil, err
	}

	var unitPrice *valueobject.Money
	if req.UnitPrice != nil {
		p := valueobject.NewMoneyFromDecimal(*req.UnitPrice)
		unitPrice = &p
	}

	if err := order.UpdateItem(itemID, req.Description, req.Quantity, unitPrice); err != nil {
		return nil, err
	}

	if err := s.poRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// RemoveItem removes a line item from a purchase order
func (s *PurchaseOrderService) RemoveItem(ctx context.Context, tenantID, poID, itemID uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.poRepo.FindByIDForTenant(ctx, tenantID, poID)
	if err != nil {
		return nil, err
	}

	if err := order.RemoveItem(itemID); err != nil {
		return nil, err
	}

	if err := s.poRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// Cancel cancels a purchase order. Converted orders cannot be cancelled.
func (s *PurchaseOrderService) Cancel(ctx context.Context, tenantID, poID uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.poRepo.FindByIDForTenant(ctx, tenantID, poID)
	if err != nil {
		return nil, err
	}

	if err := order.Cancel(); err != nil {
		return nil, err
	}

	if err := s.poRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}
