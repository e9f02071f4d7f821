package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// VendorRequest carries vendor details on purchase order requests
type VendorRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200"`
	Email   string `json:"email" binding:"omitempty,email,max=200"`
	Address string `json:"address" binding:"max=500"`
}

// BillingRequest carries billing details on invoice requests
type BillingRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200"`
	Email   string `json:"email" binding:"omitempty,email,max=200"`
	Address string `json:"address" binding:"max=500"`
}

// LineItemRequest represents a line item on create requests
type LineItemRequest struct {
	Description string          `json:"description" binding:"required,min=1,max=500"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
}

// UpdateLineItemRequest represents a partial line item update
type UpdateLineItemRequest struct {
	Description *string          `json:"description" binding:"omitempty,min=1,max=500"`
	Quantity    *decimal.Decimal `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
}

// CreatePurchaseOrderRequest represents a request to create a purchase order
type CreatePurchaseOrderRequest struct {
	Vendor    VendorRequest     `json:"vendor" binding:"required"`
	TaxRate   decimal.Decimal   `json:"tax_rate"`
	Discount  *decimal.Decimal  `json:"discount"`
	Notes     string            `json:"notes" binding:"max=2000"`
	Items     []LineItemRequest `json:"items" binding:"omitempty,dive"`
	CreatedBy *uuid.UUID        `json:"-"`
}

// UpdatePurchaseOrderRequest represents a partial purchase order update
type UpdatePurchaseOrderRequest struct {
	Vendor   *VendorRequest   `json:"vendor"`
	TaxRate  *decimal.Decimal `json:"tax_rate"`
	Tax      *decimal.Decimal `json:"tax"`
	Discount *decimal.Decimal `json:"discount"`
	Notes    *string          `json:"notes" binding:"omitempty,max=2000"`
}

// ConversionOverrides optionally adjusts the financial figures applied
// when converting a purchase order to an invoice. An explicit Tax amount
// takes precedence over TaxRate, which in turn takes precedence over the
// purchase order's own rate.
type ConversionOverrides struct {
	Tax      *decimal.Decimal `json:"tax"`
	TaxRate  *decimal.Decimal `json:"tax_rate"`
	Discount *decimal.Decimal `json:"discount"`
	Notes    string           `json:"notes" binding:"max=2000"`
}

// ConvertPurchaseOrderRequest selects line items to carry into the invoice
type ConvertPurchaseOrderRequest struct {
	ItemIndexes []int               `json:"item_indexes" binding:"required,min=1"`
	Overrides   ConversionOverrides `json:"overrides"`
	ConvertedBy *uuid.UUID          `json:"-"`
}

// CreateInvoiceRequest represents a request to create an invoice directly
type CreateInvoiceRequest struct {
	Billing   BillingRequest    `json:"billing" binding:"required"`
	Tax       *decimal.Decimal  `json:"tax"`
	Discount  *decimal.Decimal  `json:"discount"`
	Notes     string            `json:"notes" binding:"max=2000"`
	Items     []LineItemRequest `json:"items" binding:"omitempty,dive"`
	CreatedBy *uuid.UUID        `json:"-"`
}

// UpdateInvoiceRequest represents a partial invoice update
type UpdateInvoiceRequest struct {
	Billing  *BillingRequest  `json:"billing"`
	Tax      *decimal.Decimal `json:"tax"`
	Discount *decimal.Decimal `json:"discount"`
	Notes    *string          `json:"notes" binding:"omitempty,max=2000"`
}

// DocumentListFilter represents filter options for document lists
type DocumentListFilter struct {
	Status   string `form:"status"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// LineItemResponse represents a line item in API responses
type LineItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// VendorResponse represents vendor details in API responses
type VendorResponse struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID                   uuid.UUID          `json:"id"`
	TenantID             uuid.UUID          `json:"tenant_id"`
	PONumber             string             `json:"po_number"`
	Vendor               VendorResponse     `json:"vendor"`
	Items                []LineItemResponse `json:"items"`
	Subtotal             decimal.Decimal    `json:"subtotal"`
	TaxRate              decimal.Decimal    `json:"tax_rate"`
	Tax                  decimal.Decimal    `json:"tax"`
	TaxOverridden        bool               `json:"tax_overridden"`
	Discount             decimal.Decimal    `json:"discount"`
	Total                decimal.Decimal    `json:"total"`
	Status               string             `json:"status"`
	Notes                string             `json:"notes"`
	ConvertedToInvoiceID *uuid.UUID         `json:"converted_to_invoice_id"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
	Version              int                `json:"version"`
}

// PurchaseOrderListResponse represents a list item for purchase orders
type PurchaseOrderListResponse struct {
	ID         uuid.UUID       `json:"id"`
	PONumber   string          `json:"po_number"`
	VendorName string          `json:"vendor_name"`
	Total      decimal.Decimal `json:"total"`
	Status     string          `json:"status"`
	Converted  bool            `json:"converted"`
	CreatedAt  time.Time       `json:"created_at"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID            uuid.UUID          `json:"id"`
	TenantID      uuid.UUID          `json:"tenant_id"`
	InvoiceNumber string             `json:"invoice_number"`
	Billing       VendorResponse     `json:"billing"`
	Items         []LineItemResponse `json:"items"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	Discount      decimal.Decimal    `json:"discount"`
	Tax           decimal.Decimal    `json:"tax"`
	Total         decimal.Decimal    `json:"total"`
	Status        string             `json:"status"`
	Notes         string             `json:"notes"`
	SourcePOID    *uuid.UUID         `json:"source_po_id"`
	SentAt        *time.Time         `json:"sent_at"`
	PaidAt        *time.Time         `json:"paid_at"`
	CancelledAt   *time.Time         `json:"cancelled_at"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Version       int                `json:"version"`
}

// InvoiceListResponse represents a list item for invoices
type InvoiceListResponse struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	BillingName   string          `json:"billing_name"`
	Total         decimal.Decimal `json:"total"`
	Status        string          `json:"status"`
	SourcePOID    *uuid.UUID      `json:"source_po_id"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToLineItemResponses converts domain line items to responses
func ToLineItemResponses(items []billing.LineItem) []LineItemResponse {
	responses := make([]LineItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, LineItemResponse{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.Decimal(),
			Total:       item.Total.Decimal(),
		})
	}
	return responses
}

// ToPurchaseOrderResponse converts a domain PurchaseOrder to PurchaseOrderResponse
func ToPurchaseOrderResponse(o *billing.PurchaseOrder) PurchaseOrderResponse {
	return PurchaseOrderResponse{
		ID:       o.ID,
		TenantID: o.TenantID,
		PONumber: o.PONumber,
		Vendor: VendorResponse{
			Name:    o.Vendor.Name,
			Email:   o.Vendor.Email,
			Address: o.Vendor.Address,
		},
		Items:                ToLineItemResponses(o.Items),
		Subtotal:             o.Subtotal.Decimal(),
		TaxRate:              o.TaxRate,
		Tax:                  o.Tax.Decimal(),
		TaxOverridden:        o.TaxOverridden,
		Discount:             o.Discount.Decimal(),
		Total:                o.Total.Decimal(),
		Status:               o.Status.String(),
		Notes:                o.Notes,
		ConvertedToInvoiceID: o.ConvertedToInvoiceID,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
		Version:              o.Version,
	}
}

// ToPurchaseOrderListResponses converts domain purchase orders to list responses
func ToPurchaseOrderListResponses(orders []billing.PurchaseOrder) []PurchaseOrderListResponse {
	responses := make([]PurchaseOrderListResponse, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		responses = append(responses, PurchaseOrderListResponse{
			ID:         o.ID,
			PONumber:   o.PONumber,
			VendorName: o.Vendor.Name,
			Total:      o.Total.Decimal(),
			Status:     o.Status.String(),
			Converted:  o.IsConverted(),
			CreatedAt:  o.CreatedAt,
		})
	}
	return responses
}

// ToInvoiceResponse converts a domain Invoice to InvoiceResponse
func ToInvoiceResponse(i *billing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:            i.ID,
		TenantID:      i.TenantID,
		InvoiceNumber: i.InvoiceNumber,
		Billing: VendorResponse{
			Name:    i.Billing.Name,
			Email:   i.Billing.Email,
			Address: i.Billing.Address,
		},
		Items:       ToLineItemResponses(i.Items),
		Subtotal:    i.Subtotal.Decimal(),
		Discount:    i.Discount.Decimal(),
		Tax:         i.Tax.Decimal(),
		Total:       i.Total.Decimal(),
		Status:      i.Status.String(),
		Notes:       i.Notes,
		SourcePOID:  i.SourcePOID,
		SentAt:      i.SentAt,
		PaidAt:      i.PaidAt,
		CancelledAt: i.CancelledAt,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
		Version:     i.Version,
	}
}

// ToInvoiceListResponses converts domain invoices to list responses
func ToInvoiceListResponses(invoices []billing.Invoice) []InvoiceListResponse {
	responses := make([]InvoiceListResponse, 0, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		responses = append(responses, InvoiceListResponse{
			ID:            inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			BillingName:   inv.Billing.Name,
			Total:         inv.Total.Decimal(),
			Status:        inv.Status.String(),
			SourcePOID:    inv.SourcePOID,
			CreatedAt:     inv.CreatedAt,
		})
	}
	return responses
}
