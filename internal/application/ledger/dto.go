package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// RecordEntryRequest represents a request to record a live revenue event
type RecordEntryRequest struct {
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	Currency        string          `json:"currency" binding:"required,len=3"`
	Type            string          `json:"type" binding:"required"`
	RevenueSource   string          `json:"revenue_source" binding:"required"`
	CompanyID       uuid.UUID       `json:"company_id" binding:"required"`
	UserID          *uuid.UUID      `json:"user_id"`
	Description     string          `json:"description" binding:"max=1000"`
	TransactionDate time.Time       `json:"transaction_date"`
}

// EntryListFilter represents filter options for ledger entry lists
type EntryListFilter struct {
	CompanyID *uuid.UUID `form:"company_id"`
	Type      string     `form:"type"`
	Source    string     `form:"revenue_source"`
	From      *time.Time `form:"from" time_format:"2006-01-02"`
	To        *time.Time `form:"to" time_format:"2006-01-02"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// BacklinkResponse exposes the legacy backlink on an entry
type BacklinkResponse struct {
	TransactionID             *string `json:"transaction_id,omitempty"`
	SubscriptionTransactionID *string `json:"subscription_transaction_id,omitempty"`
	CreditLedgerID            *string `json:"credit_ledger_id,omitempty"`
}

// EntryResponse represents a ledger entry in API responses
type EntryResponse struct {
	ID              uuid.UUID         `json:"id"`
	LedgerID        string            `json:"ledger_id"`
	Amount          decimal.Decimal   `json:"amount"`
	Currency        string            `json:"currency"`
	Type            string            `json:"type"`
	RevenueSource   string            `json:"revenue_source"`
	CompanyID       uuid.UUID         `json:"company_id"`
	UserID          *uuid.UUID        `json:"user_id"`
	Description     string            `json:"description"`
	TransactionDate time.Time         `json:"transaction_date"`
	RecordedAt      time.Time         `json:"recorded_at"`
	IsReconciled    bool              `json:"is_reconciled"`
	ReconciledBy    string            `json:"reconciled_by,omitempty"`
	ReconciledAt    *time.Time        `json:"reconciled_at,omitempty"`
	Legacy          *BacklinkResponse `json:"legacy,omitempty"`
}

// SummaryResponse aggregates entry amounts by type over a filter window
type SummaryResponse struct {
	TotalsByType map[string]decimal.Decimal `json:"totals_by_type"`
	Net          decimal.Decimal            `json:"net"`
	EntryCount   int64                      `json:"entry_count"`
}

// MigrationError describes one legacy record that failed to migrate
type MigrationError struct {
	Source   string `json:"source"`
	LegacyID string `json:"legacy_id"`
	Message  string `json:"message"`
}

// MigrationSummary is the result of a migration run
type MigrationSummary struct {
	Success       bool             `json:"success"`
	TotalMigrated int              `json:"total_migrated"`
	Skipped       int              `json:"skipped"`
	Errors        []MigrationError `json:"errors"`
}

// SourceVerification compares legacy and migrated counts for one source
type SourceVerification struct {
	Source        string `json:"source"`
	LegacyCount   int64  `json:"legacy_count"`
	MigratedCount int64  `json:"migrated_count"`
	Match         bool   `json:"match"`
}

// VerificationReport is the result of a read-only verification pass
type VerificationReport struct {
	Sources []SourceVerification `json:"sources"`
	Match   bool                 `json:"match"`
}

// ToEntryResponse converts a domain Entry to EntryResponse
func ToEntryResponse(e *ledger.Entry) EntryResponse {
	resp := EntryResponse{
		ID:              e.ID,
		LedgerID:        e.LedgerID,
		Amount:          e.Amount.Decimal(),
		Currency:        string(e.Currency),
		Type:            e.Type.String(),
		RevenueSource:   e.RevenueSource.String(),
		CompanyID:       e.CompanyID,
		UserID:          e.UserID,
		Description:     e.Description,
		TransactionDate: e.TransactionDate,
		RecordedAt:      e.RecordedAt,
		IsReconciled:    e.IsReconciled,
		ReconciledBy:    e.ReconciledBy,
		ReconciledAt:    e.ReconciledAt,
	}
	if !e.Legacy.IsZero() {
		resp.Legacy = &BacklinkResponse{
			TransactionID:             e.Legacy.TransactionID,
			SubscriptionTransactionID: e.Legacy.SubscriptionTransactionID,
			CreditLedgerID:            e.Legacy.CreditLedgerID,
		}
	}
	return resp
}

// ToEntryResponses converts domain entries to responses
func ToEntryResponses(entries []ledger.Entry) []EntryResponse {
	responses := make([]EntryResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, ToEntryResponse(&entries[i]))
	}
	return responses
}
