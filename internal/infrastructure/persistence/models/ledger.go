package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/ledger"
	"github.com/opsdesk/backend/internal/domain/shared/valueobject"
)

// LedgerEntryModel is the persistence model for a ledger Entry. Rows are
// append-only; the only column that ever changes after insert is the
// reconciliation triple. Each of the three backlink columns carries its own
// unique index so a legacy record can be migrated at most once.
type LedgerEntryModel struct {
	BaseModel
	LedgerID                  string     `gorm:"type:varchar(30);not null;uniqueIndex:idx_ledger_entry_ledger_id"`
	AmountCents               int64      `gorm:"not null"`
	Currency                  string     `gorm:"type:varchar(3);not null"`
	Type                      string     `gorm:"type:varchar(30);not null;index"`
	RevenueSource             string     `gorm:"type:varchar(30);not null;index"`
	CompanyID                 uuid.UUID  `gorm:"type:uuid;not null;index"`
	UserID                    *uuid.UUID `gorm:"type:uuid;index"`
	Description               string     `gorm:"type:text"`
	TransactionDate           time.Time  `gorm:"not null;index"`
	RecordedAt                time.Time  `gorm:"not null"`
	IsReconciled              bool       `gorm:"not null;default:false"`
	ReconciledBy              string     `gorm:"type:varchar(50)"`
	ReconciledAt              *time.Time
	TransactionID             *string `gorm:"type:varchar(64);uniqueIndex:idx_ledger_entry_transaction_id"`
	SubscriptionTransactionID *string `gorm:"type:varchar(64);uniqueIndex:idx_ledger_entry_subscription_tx_id"`
	CreditLedgerID            *string `gorm:"type:varchar(64);uniqueIndex:idx_ledger_entry_credit_ledger_id"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain Entry.
func (m *LedgerEntryModel) ToDomain() *ledger.Entry {
	return &ledger.Entry{
		BaseEntity:      m.BaseModel.ToDomain(),
		LedgerID:        m.LedgerID,
		Amount:          valueobject.NewMoneyFromCents(m.AmountCents),
		Currency:        valueobject.Currency(m.Currency),
		Type:            ledger.EntryType(m.Type),
		RevenueSource:   ledger.RevenueSource(m.RevenueSource),
		CompanyID:       m.CompanyID,
		UserID:          m.UserID,
		Description:     m.Description,
		TransactionDate: m.TransactionDate,
		RecordedAt:      m.RecordedAt,
		IsReconciled:    m.IsReconciled,
		ReconciledBy:    m.ReconciledBy,
		ReconciledAt:    m.ReconciledAt,
		Legacy: ledger.Backlink{
			TransactionID:             m.TransactionID,
			SubscriptionTransactionID: m.SubscriptionTransactionID,
			CreditLedgerID:            m.CreditLedgerID,
		},
	}
}

// FromDomain populates the persistence model from a domain Entry.
func (m *LedgerEntryModel) FromDomain(e *ledger.Entry) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.LedgerID = e.LedgerID
	m.AmountCents = e.Amount.Cents()
	m.Currency = string(e.Currency)
	m.Type = e.Type.String()
	m.RevenueSource = e.RevenueSource.String()
	m.CompanyID = e.CompanyID
	m.UserID = e.UserID
	m.Description = e.Description
	m.TransactionDate = e.TransactionDate
	m.RecordedAt = e.RecordedAt
	m.IsReconciled = e.IsReconciled
	m.ReconciledBy = e.ReconciledBy
	m.ReconciledAt = e.ReconciledAt
	m.TransactionID = e.Legacy.TransactionID
	m.SubscriptionTransactionID = e.Legacy.SubscriptionTransactionID
	m.CreditLedgerID = e.Legacy.CreditLedgerID
}

// LedgerEntryModelFromDomain creates a new persistence model from a domain Entry.
func LedgerEntryModelFromDomain(e *ledger.Entry) *LedgerEntryModel {
	m := &LedgerEntryModel{}
	m.FromDomain(e)
	return m
}

// LegacyTransactionModel maps the pre-ledger transactions table. Read-only:
// the migration job only ever selects from it.
type LegacyTransactionModel struct {
	ID              string     `gorm:"type:varchar(64);primary_key"`
	CompanyID       uuid.UUID  `gorm:"type:uuid;not null"`
	UserID          *uuid.UUID `gorm:"type:uuid"`
	AmountCents     int64      `gorm:"not null"`
	Currency        string     `gorm:"type:varchar(3);not null"`
	Type            string     `gorm:"type:varchar(20);not null"`
	StripePaymentID string     `gorm:"type:varchar(64)"`
	Description     string     `gorm:"type:text"`
	CreatedAt       time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LegacyTransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the row to a domain LegacyTransaction.
func (m *LegacyTransactionModel) ToDomain() ledger.LegacyTransaction {
	return ledger.LegacyTransaction{
		ID:              m.ID,
		CompanyID:       m.CompanyID,
		UserID:          m.UserID,
		Amount:          valueobject.NewMoneyFromCents(m.AmountCents),
		Currency:        valueobject.Currency(m.Currency),
		Type:            m.Type,
		StripePaymentID: m.StripePaymentID,
		Description:     m.Description,
		CreatedAt:       m.CreatedAt,
	}
}

// LegacySubscriptionTransactionModel maps the pre-ledger subscription
// transactions table.
type LegacySubscriptionTransactionModel struct {
	ID                   string    `gorm:"type:varchar(64);primary_key"`
	CompanyID            uuid.UUID `gorm:"type:uuid;not null"`
	AmountCents          int64     `gorm:"not null"`
	Currency             string    `gorm:"type:varchar(3);not null"`
	Type                 string    `gorm:"type:varchar(20);not null"`
	StripeSubscriptionID string    `gorm:"type:varchar(64)"`
	PlanName             string    `gorm:"type:varchar(100)"`
	CreatedAt            time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LegacySubscriptionTransactionModel) TableName() string {
	return "subscription_transactions"
}

// ToDomain converts the row to a domain LegacySubscriptionTransaction.
func (m *LegacySubscriptionTransactionModel) ToDomain() ledger.LegacySubscriptionTransaction {
	return ledger.LegacySubscriptionTransaction{
		ID:                   m.ID,
		CompanyID:            m.CompanyID,
		Amount:               valueobject.NewMoneyFromCents(m.AmountCents),
		Currency:             valueobject.Currency(m.Currency),
		Type:                 m.Type,
		StripeSubscriptionID: m.StripeSubscriptionID,
		PlanName:             m.PlanName,
		CreatedAt:            m.CreatedAt,
	}
}

// LegacyCreditLedgerModel maps the pre-ledger credit ledger table.
type LegacyCreditLedgerModel struct {
	ID          string     `gorm:"type:varchar(64);primary_key"`
	CompanyID   uuid.UUID  `gorm:"type:uuid;not null"`
	UserID      *uuid.UUID `gorm:"type:uuid"`
	AmountCents int64      `gorm:"not null"`
	Currency    string     `gorm:"type:varchar(3);not null"`
	Reason      string     `gorm:"type:varchar(200)"`
	CreatedAt   time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LegacyCreditLedgerModel) TableName() string {
	return "credit_ledger"
}

// ToDomain converts the row to a domain LegacyCreditLedger.
func (m *LegacyCreditLedgerModel) ToDomain() ledger.LegacyCreditLedger {
	return ledger.LegacyCreditLedger{
		ID:          m.ID,
		CompanyID:   m.CompanyID,
		UserID:      m.UserID,
		Amount:      valueobject.NewMoneyFromCents(m.AmountCents),
		Currency:    valueobject.Currency(m.Currency),
		Reason:      m.Reason,
		CreatedAt:   m.CreatedAt,
	}
}
