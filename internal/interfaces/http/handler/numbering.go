package handler

import (
	"github.com/gin-gonic/gin"
	numberingapp "github.com/opsdesk/backend/internal/application/numbering"
	"github.com/opsdesk/backend/internal/domain/numbering"
)

// CounterHandler handles document counter API endpoints
type CounterHandler struct {
	BaseHandler
	counterService *numberingapp.CounterService
}

// NewCounterHandler creates a new CounterHandler
func NewCounterHandler(counterService *numberingapp.CounterService) *CounterHandler {
	return &CounterHandler{
		counterService: counterService,
	}
}

// parseKind resolves the :kind path parameter to a DocumentKind.
func (h *CounterHandler) parseKind(c *gin.Context) (numbering.DocumentKind, bool) {
	kind := numbering.DocumentKind(c.Param("kind"))
	if !kind.IsValid() {
		h.BadRequest(c, "Unknown document kind: "+c.Param("kind"))
		return "", false
	}
	return kind, true
}

// GetConfig returns the numbering configuration and current counter value,
// including a preview of the next number.
func (h *CounterHandler) GetConfig(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	kind, ok := h.parseKind(c)
	if !ok {
		return
	}

	counter, err := h.counterService.GetConfig(c.Request.Context(), tenantID, kind)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, counter)
}

// UpdateConfig changes prefix, format or padding. The running counter value
// is not affected.
func (h *CounterHandler) UpdateConfig(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	kind, ok := h.parseKind(c)
	if !ok {
		return
	}

	var req numberingapp.UpdateCounterConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	counter, err := h.counterService.UpdateConfig(c.Request.Context(), tenantID, kind, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, counter)
}

// Preview renders the number the next allocation would produce without
// claiming it.
func (h *CounterHandler) Preview(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	kind, ok := h.parseKind(c)
	if !ok {
		return
	}

	preview, err := h.counterService.Preview(c.Request.Context(), tenantID, kind)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, preview)
}

// SetCounter is the administrative override of the counter value. Lowering the
// value can cause duplicate numbers and is intentionally allowed for year-
// end resets.
func (h *CounterHandler) SetCounter(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	kind, ok := h.parseKind(c)
	if !ok {
		return
	}

	var req numberingapp.SetCounterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	counter, err := h.counterService.SetCounter(c.Request.Context(), tenantID, kind, req.Value)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, counter)
}

// ResetCounter restarts numbering for a kind so the next allocation renders as 1.
func (h *CounterHandler) ResetCounter(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	kind, ok := h.parseKind(c)
	if !ok {
		return
	}

	counter, err := h.counterService.ResetCounter(c.Request.Context(), tenantID, kind)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, counter)
}
