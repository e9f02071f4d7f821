package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/opsdesk/backend/internal/application/billing"
)

// IdempotencyKeyHeader carries the client-chosen replay-protection key on
// conversion requests.
const IdempotencyKeyHeader = "Idempotency-Key"

// PurchaseOrderHandler handles purchase order-related API endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	orderService      *billingapp.PurchaseOrderService
	conversionService *billingapp.ConversionService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(
	orderService *billingapp.PurchaseOrderService,
	conversionService *billingapp.ConversionService,
) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		orderService:      orderService,
		conversionService: conversionService,
	}
}

// Create creates a new purchase order with optional line items; the PO number
// is allocated automatically.
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req billingapp.CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	if userID, err := getUserID(c); err == nil && userID != uuid.Nil {
		req.CreatedBy = &userID
	}

	order, err := h.orderService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, order)
}

// GetByID returns a single purchase order with its line items.
func (h *PurchaseOrderHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	poID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), tenantID, poID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// GetByNumber looks up a purchase order by its document number.
func (h *PurchaseOrderHandler) GetByNumber(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	poNumber := c.Param("number")
	if poNumber == "" {
		h.BadRequest(c, "PO number is required")
		return
	}

	order, err := h.orderService.GetByNumber(c.Request.Context(), tenantID, poNumber)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// List returns purchase orders with optional status filter and pagination.
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter billingapp.DocumentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.orderService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Update changes vendor, tax, discount or notes of an open purchase order.
func (h *PurchaseOrderHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	poID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	var req billingapp.UpdatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	order, err := h.orderService.Update(c.Request.Context(), tenantID, poID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// AddItem appends a line item to an open purchase order and recomputes totals.
func (h *PurchaseOrderHandler) AddItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	poID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	var req billingapp.LineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	order, err := h.orderService.AddItem(c.Request.Context(), tenantID, poID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// UpdateItem changes a line item of an open purchase order and recomputes totals.
func (h *PurchaseOrderHandler) UpdateItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	poID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var req billingapp.UpdateLineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	order, err := h.orderService.UpdateItem(c.Request.Context(), tenantID, poID, itemID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// RemoveItem deletes a line item from an open purchase order and recomputes totals.
func (h *PurchaseOrderHandler) RemoveItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	poID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	order, err := h.orderService.RemoveItem(c.Request.Context(), tenantID, poID, itemID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// Cancel cancels an open purchase order; cancelled orders can no longer be
// edited or converted.
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	poID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	order, err := h.orderService.Cancel(c.Request.Context(), tenantID, poID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// Convert creates an invoice from selected purchase order line items. Supply
// an Idempotency-Key header to make the request safely retryable; a replayed
// key returns the invoice created by the first request.
func (h *PurchaseOrderHandler) Convert(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	poID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	var req billingapp.ConvertPurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	if userID, err := getUserID(c); err == nil && userID != uuid.Nil {
		req.ConvertedBy = &userID
	}

	idempotencyKey := c.GetHeader(IdempotencyKeyHeader)

	invoice, err := h.conversionService.Convert(c.Request.Context(), tenantID, poID, req, idempotencyKey)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, invoice)
}
