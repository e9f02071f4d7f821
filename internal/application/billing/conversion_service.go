package billing

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/billing"
	"github.com/opsdesk/backend/internal/domain/numbering"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/opsdesk/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// ConversionService turns purchase orders into invoices. A purchase order
// can be converted at most once; the invoice insert, the back-link on the
// order and the invoice number allocation all commit in one transaction.
type ConversionService struct {
	poRepo      billing.PurchaseOrderRepository
	invoiceRepo billing.InvoiceRepository
	allocator   NumberAllocator
	uow         shared.UnitOfWork
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	logger      *zap.Logger
}

// NewConversionService creates a new ConversionService. The idempotency
// store may be nil, in which case Idempotency-Key handling is disabled.
func NewConversionService(
	poRepo billing.PurchaseOrderRepository,
	invoiceRepo billing.InvoiceRepository,
	allocator NumberAllocator,
	uow shared.UnitOfWork,
	idempotency shared.IdempotencyStore,
	logger *zap.Logger,
) *ConversionService {
	return &ConversionService{
		poRepo:      poRepo,
		invoiceRepo: invoiceRepo,
		allocator:   allocator,
		uow:         uow,
		idempotency: idempotency,
		idemConfig:  shared.DefaultIdempotencyConfig(),
		logger:      logger,
	}
}

// Convert creates an invoice from the selected line items of a purchase
// order. idempotencyKey may be empty; when set and already claimed by a
// previous request, the invoice produced by that request is returned
// instead of running the conversion again.
func (s *ConversionService) Convert(ctx context.Context, tenantID, poID uuid.UUID, req ConvertPurchaseOrderRequest, idempotencyKey string) (*InvoiceResponse, error) {
	if idempotencyKey != "" && s.idempotency != nil {
		fresh, err := s.idempotency.MarkProcessed(ctx, conversionIdempotencyKey(tenantID, poID, idempotencyKey), s.idemConfig.TTL)
		if err != nil {
			// Treat an unreachable store as a miss; the ALREADY_CONVERTED
			// guard still prevents a double conversion.
			s.logger.Warn("Idempotency store unavailable, proceeding without replay protection",
				zap.Error(err))
		} else if !fresh {
			return s.replayConversion(ctx, tenantID, poID)
		}
	}

	var invoice *billing.Invoice

	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.poRepo.FindByIDForTenant(ctx, tenantID, poID)
		if err != nil {
			return err
		}

		// Fail before allocating a number; MarkConverted would catch both
		// cases later, but only after burning work inside the transaction.
		if order.IsConverted() {
			return shared.ErrAlreadyConverted
		}
		if order.IsCancelled() {
			return shared.ErrImmutableSource
		}

		selected, err := order.SelectItems(req.ItemIndexes)
		if err != nil {
			return err
		}

		subtotal := valueobject.Zero
		for _, item := range selected {
			subtotal = subtotal.Add(item.Total)
		}

		tax := resolveTax(order, subtotal, req.Overrides)

		discount := valueobject.Zero
		if req.Overrides.Discount != nil {
			discount = valueobject.NewMoneyFromDecimal(*req.Overrides.Discount)
		}

		invoiceNumber, err := s.allocator.Allocate(ctx, tenantID, numbering.KindInvoice)
		if err != nil {
			return err
		}

		invoice, err = billing.NewInvoiceFromConversion(order, invoiceNumber, selected, tax, discount,
			mergeNotes(order.Notes, req.Overrides.Notes))
		if err != nil {
			return err
		}

		if req.ConvertedBy != nil {
			invoice.SetCreatedBy(*req.ConvertedBy)
		}

		if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
			return err
		}

		if err := order.MarkConverted(invoice.ID); err != nil {
			return err
		}
		if req.ConvertedBy != nil {
			order.SetUpdatedBy(*req.ConvertedBy)
		}

		return s.poRepo.SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Purchase order converted to invoice",
		zap.String("tenant_id", tenantID.String()),
		zap.String("po_id", poID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber))

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// replayConversion returns the invoice created by the request that first
// claimed the idempotency key.
func (s *ConversionService) replayConversion(ctx context.Context, tenantID, poID uuid.UUID) (*InvoiceResponse, error) {
	order, err := s.poRepo.FindByIDForTenant(ctx, tenantID, poID)
	if err != nil {
		return nil, err
	}
	if order.ConvertedToInvoiceID == nil {
		// Key claimed but no invoice on record: the original request died
		// mid-flight. Report the conflict instead of guessing.
		return nil, shared.NewDomainError("IDEMPOTENCY_CONFLICT",
			"A request with this idempotency key is already in progress or failed")
	}

	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, *order.ConvertedToInvoiceID)
	if err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// resolveTax applies the override precedence: an explicit tax amount wins,
// then an overriding rate, then the purchase order's own rate. Rates are
// always recomputed against the subtotal of the selected items, not the
// full order.
func resolveTax(order *billing.PurchaseOrder, subtotal valueobject.Money, overrides ConversionOverrides) valueobject.Money {
	if overrides.Tax != nil {
		return valueobject.NewMoneyFromDecimal(*overrides.Tax)
	}
	if overrides.TaxRate != nil {
		return subtotal.ApplyPercent(*overrides.TaxRate)
	}
	return subtotal.ApplyPercent(order.TaxRate)
}

// mergeNotes joins the purchase order notes with conversion notes.
func mergeNotes(poNotes, conversionNotes string) string {
	poNotes = strings.TrimSpace(poNotes)
	conversionNotes = strings.TrimSpace(conversionNotes)
	switch {
	case poNotes == "":
		return conversionNotes
	case conversionNotes == "":
		return poNotes
	default:
		return poNotes + "\n" + conversionNotes
	}
}

// conversionIdempotencyKey namespaces the caller-supplied key per tenant
// and purchase order.
func conversionIdempotencyKey(tenantID, poID uuid.UUID, key string) string {
	return "convert:" + tenantID.String() + ":" + poID.String() + ":" + key
}
