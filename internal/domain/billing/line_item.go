package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/opsdesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// LineItem is a single billable line on a purchase order or invoice.
// Total is always recomputed from quantity and unit price; values supplied
// by callers are never trusted.
type LineItem struct {
	ID          uuid.UUID
	DocumentID  uuid.UUID
	Description string
	Quantity    decimal.Decimal
	UnitPrice   valueobject.Money
	Total       valueobject.Money
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewLineItem creates a line item and computes its total.
func NewLineItem(documentID uuid.UUID, description string, quantity decimal.Decimal, unitPrice valueobject.Money) (*LineItem, error) {
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Line item description cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Line item quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_UNIT_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	return &LineItem{
		ID:          uuid.New(),
		DocumentID:  documentID,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Total:       unitPrice.MulQuantity(quantity),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// UpdateQuantity changes the quantity and recomputes the total.
func (i *LineItem) UpdateQuantity(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Line item quantity must be positive")
	}
	i.Quantity = quantity
	i.Total = i.UnitPrice.MulQuantity(quantity)
	i.UpdatedAt = time.Now()
	return nil
}

// UpdateUnitPrice changes the unit price and recomputes the total.
func (i *LineItem) UpdateUnitPrice(unitPrice valueobject.Money) error {
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_UNIT_PRICE", "Unit price cannot be negative")
	}
	i.UnitPrice = unitPrice
	i.Total = unitPrice.MulQuantity(i.Quantity)
	i.UpdatedAt = time.Now()
	return nil
}

// SetDescription updates the line description.
func (i *LineItem) SetDescription(description string) error {
	if description == "" {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Line item description cannot be empty")
	}
	i.Description = description
	i.UpdatedAt = time.Now()
	return nil
}

// copyFor clones the line item for a new parent document, keeping the
// monetary values as computed on the source.
func (i LineItem) copyFor(documentID uuid.UUID) LineItem {
	now := time.Now()
	clone := i
	clone.ID = uuid.New()
	clone.DocumentID = documentID
	clone.CreatedAt = now
	clone.UpdatedAt = now
	return clone
}
