package handler

import (
	"github.com/gin-gonic/gin"
	ledgerapp "github.com/opsdesk/backend/internal/application/ledger"
)

// LedgerHandler handles financial ledger API endpoints
type LedgerHandler struct {
	BaseHandler
	ledgerService    *ledgerapp.LedgerService
	migrationService *ledgerapp.MigrationService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(
	ledgerService *ledgerapp.LedgerService,
	migrationService *ledgerapp.MigrationService,
) *LedgerHandler {
	return &LedgerHandler{
		ledgerService:    ledgerService,
		migrationService: migrationService,
	}
}

// Record appends a live revenue event to the financial ledger. Refunds and
// chargebacks carry negative amounts.
func (h *LedgerHandler) Record(c *gin.Context) {
	var req ledgerapp.RecordEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	entry, err := h.ledgerService.Record(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, entry)
}

// Get returns a single ledger entry addressed by its ledger ID.
func (h *LedgerHandler) Get(c *gin.Context) {
	ledgerID := c.Param("ledgerId")
	if ledgerID == "" {
		h.BadRequest(c, "Ledger ID is required")
		return
	}

	entry, err := h.ledgerService.Get(c.Request.Context(), ledgerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entry)
}

// List returns ledger entries newest first, filtered by company, type, source
// or date window.
func (h *LedgerHandler) List(c *gin.Context) {
	var filter ledgerapp.EntryListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.ledgerService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Summary totals entry amounts by type over the filter window and reports
// the net.
func (h *LedgerHandler) Summary(c *gin.Context) {
	var filter ledgerapp.EntryListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	summary, err := h.ledgerService.Summary(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// RunMigration copies legacy transactions, subscription transactions and
// credit ledger rows into the unified ledger. Safe to re-run; already-
// migrated records are skipped.
func (h *LedgerHandler) RunMigration(c *gin.Context) {
	summary, err := h.migrationService.Run(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// VerifyMigration compares legacy record counts against migrated entry
// counts per source without writing anything.
func (h *LedgerHandler) VerifyMigration(c *gin.Context) {
	report, err := h.migrationService.Verify(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, report)
}
