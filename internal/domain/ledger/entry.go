package ledger

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/opsdesk/backend/internal/domain/shared/valueobject"
)

// EntryType classifies the money movement recorded by a ledger entry.
type EntryType string

const (
	TypeSubscriptionCharge EntryType = "subscription_charge"
	TypeSubscriptionRefund EntryType = "subscription_refund"
	TypeOneTimePayment     EntryType = "one_time_payment"
	TypeCreditPurchase     EntryType = "credit_purchase"
	TypeRefund             EntryType = "refund"
	TypeChargeback         EntryType = "chargeback"
	TypeAdjustment         EntryType = "adjustment"
)

// IsValid checks if the entry type is known
func (t EntryType) IsValid() bool {
	switch t {
	case TypeSubscriptionCharge, TypeSubscriptionRefund, TypeOneTimePayment,
		TypeCreditPurchase, TypeRefund, TypeChargeback, TypeAdjustment:
		return true
	}
	return false
}

// String returns the string representation of EntryType
func (t EntryType) String() string {
	return string(t)
}

// RevenueSource identifies where the money movement originated.
type RevenueSource string

const (
	SourceStripeSubscription RevenueSource = "stripe_subscription"
	SourceStripePayment      RevenueSource = "stripe_payment"
	SourceManual             RevenueSource = "manual"
	SourceReferralBonus      RevenueSource = "referral_bonus"
	SourceCreditAdjustment   RevenueSource = "credit_adjustment"
)

// IsValid checks if the revenue source is known
func (s RevenueSource) IsValid() bool {
	switch s {
	case SourceStripeSubscription, SourceStripePayment, SourceManual,
		SourceReferralBonus, SourceCreditAdjustment:
		return true
	}
	return false
}

// String returns the string representation of RevenueSource
func (s RevenueSource) String() string {
	return string(s)
}

// ReconciledBySystemMigration marks entries back-filled by the migration job.
const ReconciledBySystemMigration = "system_migration"

// Backlink points a ledger entry at the legacy record it was derived from.
// At most one of the three fields is ever set; the populated field is used
// as a uniqueness key to keep repeated migration runs from double-inserting.
type Backlink struct {
	TransactionID             *string
	SubscriptionTransactionID *string
	CreditLedgerID            *string
}

// IsZero returns true when no legacy backlink is set (live-path entries).
func (b Backlink) IsZero() bool {
	return b.TransactionID == nil && b.SubscriptionTransactionID == nil && b.CreditLedgerID == nil
}

// count returns how many backlink fields are populated.
func (b Backlink) count() int {
	n := 0
	if b.TransactionID != nil {
		n++
	}
	if b.SubscriptionTransactionID != nil {
		n++
	}
	if b.CreditLedgerID != nil {
		n++
	}
	return n
}

// Entry is one immutable record of a single money movement. Entries are
// append-only: after insert the only permitted change is adding
// reconciliation metadata.
type Entry struct {
	shared.BaseEntity
	LedgerID        string
	Amount          valueobject.Money
	Currency        valueobject.Currency
	Type            EntryType
	RevenueSource   RevenueSource
	CompanyID       uuid.UUID
	UserID          *uuid.UUID
	Description     string
	TransactionDate time.Time
	RecordedAt      time.Time
	IsReconciled    bool
	ReconciledBy    string
	ReconciledAt    *time.Time
	Legacy          Backlink
}

// NewEntry creates a ledger entry with a freshly generated ledger ID.
func NewEntry(companyID uuid.UUID, amount valueobject.Money, currency valueobject.Currency, entryType EntryType, source RevenueSource, transactionDate time.Time) (*Entry, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if currency == "" {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency cannot be empty")
	}
	if !entryType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTRY_TYPE", fmt.Sprintf("Unknown ledger entry type %q", entryType))
	}
	if !source.IsValid() {
		return nil, shared.NewDomainError("INVALID_REVENUE_SOURCE", fmt.Sprintf("Unknown revenue source %q", source))
	}
	if transactionDate.IsZero() {
		transactionDate = time.Now()
	}

	return &Entry{
		BaseEntity:      shared.NewBaseEntity(),
		LedgerID:        NewLedgerID(time.Now()),
		Amount:          amount,
		Currency:        currency,
		Type:            entryType,
		RevenueSource:   source,
		CompanyID:       companyID,
		TransactionDate: transactionDate,
		RecordedAt:      time.Now(),
	}, nil
}

// WithUser attributes the entry to a user within the company.
func (e *Entry) WithUser(userID uuid.UUID) *Entry {
	e.UserID = &userID
	return e
}

// WithDescription sets the free-form description.
func (e *Entry) WithDescription(description string) *Entry {
	e.Description = description
	return e
}

// WithBacklink attaches the legacy backlink. Exactly one field may be set.
func (e *Entry) WithBacklink(link Backlink) error {
	if link.count() != 1 {
		return shared.NewDomainError("INVALID_BACKLINK", "Exactly one legacy backlink field must be set")
	}
	e.Legacy = link
	return nil
}

// MarkReconciled stamps the reconciliation metadata. It is the only
// mutation allowed after an entry has been recorded.
func (e *Entry) MarkReconciled(by string) {
	now := time.Now()
	e.IsReconciled = true
	e.ReconciledBy = by
	e.ReconciledAt = &now
	e.UpdatedAt = now
}

// NewLedgerID generates a human-readable ledger ID: TXN-<year>-<6 digits>.
// Randomness comes from crypto/rand; a collision is astronomically unlikely
// and is not retried here — the unique index on ledger_id surfaces it as an
// insert error instead.
func NewLedgerID(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		// crypto/rand only fails when the platform entropy source is
		// broken; fall back to the entry creation timestamp.
		n = big.NewInt(now.UnixNano() % 1_000_000)
	}
	return fmt.Sprintf("TXN-%d-%06d", now.Year(), n.Int64())
}
