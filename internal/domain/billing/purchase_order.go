package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/opsdesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft     PurchaseOrderStatus = "draft"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "cancelled"
)

// IsValid checks if the status is a valid PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusDraft, PurchaseOrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PurchaseOrderStatus
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// VendorInfo holds the supplier details printed on a purchase order.
type VendorInfo struct {
	Name    string
	Email   string
	Address string
}

// PurchaseOrder is the aggregate root for a vendor purchase order.
//
// Lifecycle: freely editable while in draft and not yet converted; once
// ConvertedToInvoiceID is set the order is immutable and can never be
// converted again. Cancelled orders refuse both edits and conversion.
type PurchaseOrder struct {
	shared.TenantAggregateRoot
	PONumber             string
	Vendor               VendorInfo
	Items                []LineItem
	Subtotal             valueobject.Money
	TaxRate              decimal.Decimal
	Tax                  valueobject.Money
	TaxOverridden        bool
	Discount             valueobject.Money
	Total                valueobject.Money
	Status               PurchaseOrderStatus
	Notes                string
	ConvertedToInvoiceID *uuid.UUID
}

// NewPurchaseOrder creates a draft purchase order.
func NewPurchaseOrder(tenantID uuid.UUID, poNumber string, vendor VendorInfo, taxRate decimal.Decimal) (*PurchaseOrder, error) {
	if poNumber == "" {
		return nil, shared.NewDomainError("INVALID_PO_NUMBER", "PO number cannot be empty")
	}
	if vendor.Name == "" {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor name cannot be empty")
	}
	if taxRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_TAX_RATE", "Tax rate cannot be negative")
	}

	return &PurchaseOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PONumber:            poNumber,
		Vendor:              vendor,
		Items:               make([]LineItem, 0),
		TaxRate:             taxRate,
		Status:              PurchaseOrderStatusDraft,
	}, nil
}

// IsConverted returns true once the order has produced an invoice.
func (o *PurchaseOrder) IsConverted() bool {
	return o.ConvertedToInvoiceID != nil
}

// IsCancelled returns true if the order was cancelled.
func (o *PurchaseOrder) IsCancelled() bool {
	return o.Status == PurchaseOrderStatusCancelled
}

// CanModify returns true while the order accepts edits.
func (o *PurchaseOrder) CanModify() bool {
	return !o.IsConverted() && !o.IsCancelled()
}

// guardModify rejects edits on converted or cancelled orders.
func (o *PurchaseOrder) guardModify() error {
	if o.IsConverted() {
		return shared.NewDomainError("IMMUTABLE_SOURCE",
			fmt.Sprintf("Purchase order %s was converted to an invoice and is read-only", o.PONumber))
	}
	if o.IsCancelled() {
		return shared.NewDomainError("IMMUTABLE_SOURCE",
			fmt.Sprintf("Purchase order %s is cancelled and is read-only", o.PONumber))
	}
	return nil
}

// AddItem appends a line item and recomputes the totals.
func (o *PurchaseOrder) AddItem(description string, quantity decimal.Decimal, unitPrice valueobject.Money) (*LineItem, error) {
	if err := o.guardModify(); err != nil {
		return nil, err
	}

	item, err := NewLineItem(o.ID, description, quantity, unitPrice)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.recalculateTotals()
	o.touch()
	return item, nil
}

// UpdateItem updates an existing line item and recomputes the totals.
// Nil fields are left unchanged.
func (o *PurchaseOrder) UpdateItem(itemID uuid.UUID, description *string, quantity *decimal.Decimal, unitPrice *valueobject.Money) error {
	if err := o.guardModify(); err != nil {
		return err
	}

	for idx := range o.Items {
		if o.Items[idx].ID != itemID {
			continue
		}
		if description != nil {
			if err := o.Items[idx].SetDescription(*description); err != nil {
				return err
			}
		}
		if quantity != nil {
			if err := o.Items[idx].UpdateQuantity(*quantity); err != nil {
				return err
			}
		}
		if unitPrice != nil {
			if err := o.Items[idx].UpdateUnitPrice(*unitPrice); err != nil {
				return err
			}
		}
		o.recalculateTotals()
		o.touch()
		return nil
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Purchase order item not found")
}

// RemoveItem removes a line item and recomputes the totals.
func (o *PurchaseOrder) RemoveItem(itemID uuid.UUID) error {
	if err := o.guardModify(); err != nil {
		return err
	}

	for idx, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			o.recalculateTotals()
			o.touch()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Purchase order item not found")
}

// SetTaxRate replaces the percentage tax rate and clears any manual tax
// override, so tax is derived from the subtotal again.
func (o *PurchaseOrder) SetTaxRate(rate decimal.Decimal) error {
	if err := o.guardModify(); err != nil {
		return err
	}
	if rate.IsNegative() {
		return shared.NewDomainError("INVALID_TAX_RATE", "Tax rate cannot be negative")
	}
	o.TaxRate = rate
	o.TaxOverridden = false
	o.recalculateTotals()
	o.touch()
	return nil
}

// SetManualTax fixes the tax to an explicit amount, overriding the rate
// derivation until SetTaxRate is called again.
func (o *PurchaseOrder) SetManualTax(tax valueobject.Money) error {
	if err := o.guardModify(); err != nil {
		return err
	}
	if tax.IsNegative() {
		return shared.NewDomainError("INVALID_TAX", "Tax cannot be negative")
	}
	o.Tax = tax
	o.TaxOverridden = true
	o.recalculateTotals()
	o.touch()
	return nil
}

// SetDiscount applies an absolute discount amount.
func (o *PurchaseOrder) SetDiscount(discount valueobject.Money) error {
	if err := o.guardModify(); err != nil {
		return err
	}
	if discount.IsNegative() {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	o.Discount = discount
	o.recalculateTotals()
	o.touch()
	return nil
}

// SetVendor replaces the vendor details.
func (o *PurchaseOrder) SetVendor(vendor VendorInfo) error {
	if err := o.guardModify(); err != nil {
		return err
	}
	if vendor.Name == "" {
		return shared.NewDomainError("INVALID_VENDOR", "Vendor name cannot be empty")
	}
	o.Vendor = vendor
	o.touch()
	return nil
}

// SetNotes replaces the free-form notes.
func (o *PurchaseOrder) SetNotes(notes string) error {
	if err := o.guardModify(); err != nil {
		return err
	}
	o.Notes = notes
	o.touch()
	return nil
}

// Cancel moves the order to its terminal cancelled state. Converted orders
// cannot be cancelled.
func (o *PurchaseOrder) Cancel() error {
	if o.IsConverted() {
		return shared.NewDomainError("IMMUTABLE_SOURCE",
			fmt.Sprintf("Purchase order %s was converted to an invoice and cannot be cancelled", o.PONumber))
	}
	if o.IsCancelled() {
		return shared.NewDomainError("INVALID_STATE", "Purchase order is already cancelled")
	}
	o.Status = PurchaseOrderStatusCancelled
	o.touch()
	return nil
}

// SelectItems materializes the line items addressed by the given indexes.
// The selection must be non-empty, in-bounds and free of duplicates.
func (o *PurchaseOrder) SelectItems(indexes []int) ([]LineItem, error) {
	if len(indexes) == 0 {
		return nil, shared.NewDomainError("EMPTY_SELECTION",
			fmt.Sprintf("No line items selected on purchase order %s", o.PONumber))
	}

	seen := make(map[int]bool, len(indexes))
	selected := make([]LineItem, 0, len(indexes))
	for _, idx := range indexes {
		if idx < 0 || idx >= len(o.Items) {
			return nil, shared.NewDomainError("INVALID_SELECTION",
				fmt.Sprintf("Index %d is out of range for purchase order %s with %d items", idx, o.PONumber, len(o.Items)))
		}
		if seen[idx] {
			return nil, shared.NewDomainError("INVALID_SELECTION",
				fmt.Sprintf("Index %d selected more than once on purchase order %s", idx, o.PONumber))
		}
		seen[idx] = true
		selected = append(selected, o.Items[idx])
	}
	return selected, nil
}

// MarkConverted records the invoice back-link. A purchase order converts at
// most once; second attempts fail with ALREADY_CONVERTED, and cancelled
// orders refuse conversion outright.
func (o *PurchaseOrder) MarkConverted(invoiceID uuid.UUID) error {
	if o.IsConverted() {
		return shared.NewDomainError("ALREADY_CONVERTED",
			fmt.Sprintf("Purchase order %s was already converted to invoice %s", o.PONumber, o.ConvertedToInvoiceID))
	}
	if o.IsCancelled() {
		return shared.NewDomainError("IMMUTABLE_SOURCE",
			fmt.Sprintf("Purchase order %s is cancelled and cannot be converted", o.PONumber))
	}
	if invoiceID == uuid.Nil {
		return shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	o.ConvertedToInvoiceID = &invoiceID
	o.touch()
	return nil
}

// recalculateTotals recomputes subtotal, tax and total from the line items.
// All arithmetic is integer cents.
func (o *PurchaseOrder) recalculateTotals() {
	subtotal := valueobject.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.Total)
	}
	o.Subtotal = subtotal
	if !o.TaxOverridden {
		o.Tax = subtotal.ApplyPercent(o.TaxRate)
	}
	o.Total = subtotal.Add(o.Tax).Sub(o.Discount)
}

// touch bumps the edit stamp. The optimistic-lock version is advanced by
// the repository on save, not here.
func (o *PurchaseOrder) touch() {
	o.UpdatedAt = time.Now()
}

// ItemCount returns the number of line items.
func (o *PurchaseOrder) ItemCount() int {
	return len(o.Items)
}
