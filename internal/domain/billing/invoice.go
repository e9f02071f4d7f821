package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/opsdesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true for the immutable end states.
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// BillingDetails holds the customer details printed on an invoice.
type BillingDetails struct {
	Name    string
	Email   string
	Address string
}

// Invoice is the aggregate root for a customer invoice, created either
// directly or by converting a purchase order.
//
// Lifecycle: editable while draft or sent; immutable once paid or cancelled.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber string
	Billing       BillingDetails
	Items         []LineItem
	Subtotal      valueobject.Money
	Discount      valueobject.Money
	Tax           valueobject.Money
	Total         valueobject.Money
	Status        InvoiceStatus
	Notes         string
	SourcePOID    *uuid.UUID
	SentAt        *time.Time
	PaidAt        *time.Time
	CancelledAt   *time.Time
}

// NewInvoice creates a draft invoice with no line items.
func NewInvoice(tenantID uuid.UUID, invoiceNumber string, billing BillingDetails) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if billing.Name == "" {
		return nil, shared.NewDomainError("INVALID_BILLING_DETAILS", "Billing name cannot be empty")
	}

	return &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       invoiceNumber,
		Billing:             billing,
		Items:               make([]LineItem, 0),
		Status:              InvoiceStatusDraft,
	}, nil
}

// NewInvoiceFromConversion creates a draft invoice out of line items
// selected from a purchase order. The caller supplies the already-resolved
// monetary figures; the subtotal is still recomputed from the copied items
// and cross-checked, never trusted.
func NewInvoiceFromConversion(po *PurchaseOrder, invoiceNumber string, items []LineItem, tax, discount valueobject.Money, notes string) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("EMPTY_SELECTION",
			fmt.Sprintf("No line items selected on purchase order %s", po.PONumber))
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(po.TenantID),
		InvoiceNumber:       invoiceNumber,
		Billing: BillingDetails{
			Name:    po.Vendor.Name,
			Email:   po.Vendor.Email,
			Address: po.Vendor.Address,
		},
		Items:      make([]LineItem, 0, len(items)),
		Tax:        tax,
		Discount:   discount,
		Status:     InvoiceStatusDraft,
		Notes:      notes,
		SourcePOID: &po.ID,
	}
	for _, item := range items {
		inv.Items = append(inv.Items, item.copyFor(inv.ID))
	}

	subtotal := valueobject.Zero
	for _, item := range inv.Items {
		subtotal = subtotal.Add(item.Total)
	}
	inv.Subtotal = subtotal
	inv.Total = subtotal.Add(tax).Sub(discount)

	return inv, nil
}

// CanModify returns true while the invoice accepts edits.
func (i *Invoice) CanModify() bool {
	return !i.Status.IsTerminal()
}

// guardModify rejects edits once the invoice is paid or cancelled.
func (i *Invoice) guardModify() error {
	if i.Status.IsTerminal() {
		return shared.NewDomainError("IMMUTABLE_SOURCE",
			fmt.Sprintf("Invoice %s is %s and is read-only", i.InvoiceNumber, i.Status))
	}
	return nil
}

// AddItem appends a line item and recomputes the totals.
func (i *Invoice) AddItem(description string, quantity decimal.Decimal, unitPrice valueobject.Money) (*LineItem, error) {
	if err := i.guardModify(); err != nil {
		return nil, err
	}

	item, err := NewLineItem(i.ID, description, quantity, unitPrice)
	if err != nil {
		return nil, err
	}

	i.Items = append(i.Items, *item)
	i.recalculateTotals()
	i.touch()
	return item, nil
}

// UpdateItem updates an existing line item and recomputes the totals.
// Nil fields are left unchanged.
func (i *Invoice) UpdateItem(itemID uuid.UUID, description *string, quantity *decimal.Decimal, unitPrice *valueobject.Money) error {
	if err := i.guardModify(); err != nil {
		return err
	}

	for idx := range i.Items {
		if i.Items[idx].ID != itemID {
			continue
		}
		if description != nil {
			if err := i.Items[idx].SetDescription(*description); err != nil {
				return err
			}
		}
		if quantity != nil {
			if err := i.Items[idx].UpdateQuantity(*quantity); err != nil {
				return err
			}
		}
		if unitPrice != nil {
			if err := i.Items[idx].UpdateUnitPrice(*unitPrice); err != nil {
				return err
			}
		}
		i.recalculateTotals()
		i.touch()
		return nil
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Invoice item not found")
}

// RemoveItem removes a line item and recomputes the totals.
func (i *Invoice) RemoveItem(itemID uuid.UUID) error {
	if err := i.guardModify(); err != nil {
		return err
	}

	for idx, item := range i.Items {
		if item.ID == itemID {
			i.Items = append(i.Items[:idx], i.Items[idx+1:]...)
			i.recalculateTotals()
			i.touch()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Invoice item not found")
}

// SetTax fixes the tax amount.
func (i *Invoice) SetTax(tax valueobject.Money) error {
	if err := i.guardModify(); err != nil {
		return err
	}
	if tax.IsNegative() {
		return shared.NewDomainError("INVALID_TAX", "Tax cannot be negative")
	}
	i.Tax = tax
	i.recalculateTotals()
	i.touch()
	return nil
}

// SetDiscount applies an absolute discount amount.
func (i *Invoice) SetDiscount(discount valueobject.Money) error {
	if err := i.guardModify(); err != nil {
		return err
	}
	if discount.IsNegative() {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	i.Discount = discount
	i.recalculateTotals()
	i.touch()
	return nil
}

// SetBilling replaces the billing details.
func (i *Invoice) SetBilling(billing BillingDetails) error {
	if err := i.guardModify(); err != nil {
		return err
	}
	if billing.Name == "" {
		return shared.NewDomainError("INVALID_BILLING_DETAILS", "Billing name cannot be empty")
	}
	i.Billing = billing
	i.touch()
	return nil
}

// SetNotes replaces the free-form notes.
func (i *Invoice) SetNotes(notes string) error {
	if err := i.guardModify(); err != nil {
		return err
	}
	i.Notes = notes
	i.touch()
	return nil
}

// MarkSent transitions draft -> sent.
func (i *Invoice) MarkSent() error {
	if i.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot send invoice %s in %s status", i.InvoiceNumber, i.Status))
	}
	now := time.Now()
	i.Status = InvoiceStatusSent
	i.SentAt = &now
	i.touch()
	return nil
}

// MarkPaid transitions draft/sent -> paid (terminal).
func (i *Invoice) MarkPaid() error {
	if i.Status.IsTerminal() {
		return shared.NewDomainError("IMMUTABLE_SOURCE",
			fmt.Sprintf("Invoice %s is %s and cannot be marked paid", i.InvoiceNumber, i.Status))
	}
	now := time.Now()
	i.Status = InvoiceStatusPaid
	i.PaidAt = &now
	i.touch()
	return nil
}

// Cancel transitions draft/sent -> cancelled (terminal).
func (i *Invoice) Cancel() error {
	if i.Status.IsTerminal() {
		return shared.NewDomainError("IMMUTABLE_SOURCE",
			fmt.Sprintf("Invoice %s is %s and cannot be cancelled", i.InvoiceNumber, i.Status))
	}
	now := time.Now()
	i.Status = InvoiceStatusCancelled
	i.CancelledAt = &now
	i.touch()
	return nil
}

// recalculateTotals recomputes subtotal and total from the line items.
func (i *Invoice) recalculateTotals() {
	subtotal := valueobject.Zero
	for _, item := range i.Items {
		subtotal = subtotal.Add(item.Total)
	}
	i.Subtotal = subtotal
	i.Total = subtotal.Add(i.Tax).Sub(i.Discount)
}

// touch bumps the edit stamp. The optimistic-lock version is advanced by
// the repository on save, not here.
func (i *Invoice) touch() {
	i.UpdatedAt = time.Now()
}

// ItemCount returns the number of line items.
func (i *Invoice) ItemCount() int {
	return len(i.Items)
}
