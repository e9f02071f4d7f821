package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/billing"
	"github.com/opsdesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PurchaseOrderModel is the persistence model for the PurchaseOrder
// aggregate root. Monetary columns are integer cents.
type PurchaseOrderModel struct {
	TenantAggregateModel
	PONumber             string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_purchase_order_tenant_number,priority:2"`
	VendorName           string               `gorm:"type:varchar(200);not null"`
	VendorEmail          string               `gorm:"type:varchar(200)"`
	VendorAddress        string               `gorm:"type:varchar(500)"`
	Items                []DocumentItemModel  `gorm:"foreignKey:DocumentID;references:ID"`
	SubtotalCents        int64                `gorm:"not null;default:0"`
	TaxRate              decimal.Decimal      `gorm:"type:decimal(9,4);not null;default:0"`
	TaxCents             int64                `gorm:"not null;default:0"`
	TaxOverridden        bool                 `gorm:"not null;default:false"`
	DiscountCents        int64                `gorm:"not null;default:0"`
	TotalCents           int64                `gorm:"not null;default:0"`
	Status               string               `gorm:"type:varchar(20);not null;default:'draft';index"`
	Notes                string               `gorm:"type:text"`
	ConvertedToInvoiceID *uuid.UUID           `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder.
func (m *PurchaseOrderModel) ToDomain() *billing.PurchaseOrder {
	order := &billing.PurchaseOrder{
		PONumber: m.PONumber,
		Vendor: billing.VendorInfo{
			Name:    m.VendorName,
			Email:   m.VendorEmail,
			Address: m.VendorAddress,
		},
		Subtotal:             valueobject.NewMoneyFromCents(m.SubtotalCents),
		TaxRate:              m.TaxRate,
		Tax:                  valueobject.NewMoneyFromCents(m.TaxCents),
		TaxOverridden:        m.TaxOverridden,
		Discount:             valueobject.NewMoneyFromCents(m.DiscountCents),
		Total:                valueobject.NewMoneyFromCents(m.TotalCents),
		Status:               billing.PurchaseOrderStatus(m.Status),
		Notes:                m.Notes,
		ConvertedToInvoiceID: m.ConvertedToInvoiceID,
		Items:                make([]billing.LineItem, len(m.Items)),
	}
	m.PopulateTenantAggregateRoot(&order.TenantAggregateRoot)
	for i, item := range m.Items {
		order.Items[i] = *item.ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain PurchaseOrder.
func (m *PurchaseOrderModel) FromDomain(o *billing.PurchaseOrder) {
	m.FromDomainTenantAggregateRoot(o.TenantAggregateRoot)
	m.PONumber = o.PONumber
	m.VendorName = o.Vendor.Name
	m.VendorEmail = o.Vendor.Email
	m.VendorAddress = o.Vendor.Address
	m.SubtotalCents = o.Subtotal.Cents()
	m.TaxRate = o.TaxRate
	m.TaxCents = o.Tax.Cents()
	m.TaxOverridden = o.TaxOverridden
	m.DiscountCents = o.Discount.Cents()
	m.TotalCents = o.Total.Cents()
	m.Status = o.Status.String()
	m.Notes = o.Notes
	m.ConvertedToInvoiceID = o.ConvertedToInvoiceID
	m.Items = make([]DocumentItemModel, len(o.Items))
	for i, item := range o.Items {
		m.Items[i] = *DocumentItemModelFromDomain(&item)
	}
}

// PurchaseOrderModelFromDomain creates a new persistence model from a domain PurchaseOrder.
func PurchaseOrderModelFromDomain(o *billing.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{}
	m.FromDomain(o)
	return m
}

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	TenantAggregateModel
	InvoiceNumber  string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_tenant_number,priority:2"`
	BillingName    string              `gorm:"type:varchar(200);not null"`
	BillingEmail   string              `gorm:"type:varchar(200)"`
	BillingAddress string              `gorm:"type:varchar(500)"`
	Items          []DocumentItemModel `gorm:"foreignKey:DocumentID;references:ID"`
	SubtotalCents  int64               `gorm:"not null;default:0"`
	DiscountCents  int64               `gorm:"not null;default:0"`
	TaxCents       int64               `gorm:"not null;default:0"`
	TotalCents     int64               `gorm:"not null;default:0"`
	Status         string              `gorm:"type:varchar(20);not null;default:'draft';index"`
	Notes          string              `gorm:"type:text"`
	SourcePOID     *uuid.UUID          `gorm:"type:uuid;index"`
	SentAt         *time.Time
	PaidAt         *time.Time
	CancelledAt    *time.Time
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	inv := &billing.Invoice{
		InvoiceNumber: m.InvoiceNumber,
		Billing: billing.BillingDetails{
			Name:    m.BillingName,
			Email:   m.BillingEmail,
			Address: m.BillingAddress,
		},
		Subtotal:    valueobject.NewMoneyFromCents(m.SubtotalCents),
		Discount:    valueobject.NewMoneyFromCents(m.DiscountCents),
		Tax:         valueobject.NewMoneyFromCents(m.TaxCents),
		Total:       valueobject.NewMoneyFromCents(m.TotalCents),
		Status:      billing.InvoiceStatus(m.Status),
		Notes:       m.Notes,
		SourcePOID:  m.SourcePOID,
		SentAt:      m.SentAt,
		PaidAt:      m.PaidAt,
		CancelledAt: m.CancelledAt,
		Items:       make([]billing.LineItem, len(m.Items)),
	}
	m.PopulateTenantAggregateRoot(&inv.TenantAggregateRoot)
	for i, item := range m.Items {
		inv.Items[i] = *item.ToDomain()
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.BillingName = inv.Billing.Name
	m.BillingEmail = inv.Billing.Email
	m.BillingAddress = inv.Billing.Address
	m.SubtotalCents = inv.Subtotal.Cents()
	m.DiscountCents = inv.Discount.Cents()
	m.TaxCents = inv.Tax.Cents()
	m.TotalCents = inv.Total.Cents()
	m.Status = inv.Status.String()
	m.Notes = inv.Notes
	m.SourcePOID = inv.SourcePOID
	m.SentAt = inv.SentAt
	m.PaidAt = inv.PaidAt
	m.CancelledAt = inv.CancelledAt
	m.Items = make([]DocumentItemModel, len(inv.Items))
	for i, item := range inv.Items {
		m.Items[i] = *DocumentItemModelFromDomain(&item)
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// DocumentItemModel is the persistence model for a billing LineItem. Both
// purchase orders and invoices store their lines here, keyed by the parent
// document ID.
type DocumentItemModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	DocumentID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description    string          `gorm:"type:varchar(500);not null"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPriceCents int64           `gorm:"not null"`
	TotalCents     int64           `gorm:"not null"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentItemModel) TableName() string {
	return "document_items"
}

// ToDomain converts the persistence model to a domain LineItem.
func (m *DocumentItemModel) ToDomain() *billing.LineItem {
	return &billing.LineItem{
		ID:          m.ID,
		DocumentID:  m.DocumentID,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   valueobject.NewMoneyFromCents(m.UnitPriceCents),
		Total:       valueobject.NewMoneyFromCents(m.TotalCents),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// DocumentItemModelFromDomain creates a new persistence model from a domain LineItem.
func DocumentItemModelFromDomain(i *billing.LineItem) *DocumentItemModel {
	return &DocumentItemModel{
		ID:             i.ID,
		DocumentID:     i.DocumentID,
		Description:    i.Description,
		Quantity:       i.Quantity,
		UnitPriceCents: i.UnitPrice.Cents(),
		TotalCents:     i.Total.Cents(),
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}
