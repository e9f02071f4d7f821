package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/opsdesk/backend/internal/domain/shared/valueobject"
)

// LegacySource names one of the three pre-ledger transaction tables.
type LegacySource string

const (
	LegacySourceTransactions             LegacySource = "transactions"
	LegacySourceSubscriptionTransactions LegacySource = "subscription_transactions"
	LegacySourceCreditLedger             LegacySource = "credit_ledger"
)

// String returns the string representation of LegacySource
func (s LegacySource) String() string {
	return string(s)
}

// AllLegacySources lists the migration sources in processing order.
func AllLegacySources() []LegacySource {
	return []LegacySource{
		LegacySourceTransactions,
		LegacySourceSubscriptionTransactions,
		LegacySourceCreditLedger,
	}
}

// LegacyTransaction is a record from the generic transactions table.
type LegacyTransaction struct {
	ID              string
	CompanyID       uuid.UUID
	UserID          *uuid.UUID
	Amount          valueobject.Money
	Currency        valueobject.Currency
	Type            string // payment | refund | chargeback
	StripePaymentID string
	Description     string
	CreatedAt       time.Time
}

// LegacySubscriptionTransaction is a record from the subscription
// transactions table.
type LegacySubscriptionTransaction struct {
	ID                   string
	CompanyID            uuid.UUID
	Amount               valueobject.Money
	Currency             valueobject.Currency
	Type                 string // subscription | refund
	StripeSubscriptionID string
	PlanName             string
	CreatedAt            time.Time
}

// LegacyCreditLedger is a record from the credit-ledger table. Positive
// amounts are credit purchases; zero or negative amounts are adjustments.
type LegacyCreditLedger struct {
	ID        string
	CompanyID uuid.UUID
	UserID    *uuid.UUID
	Amount    valueobject.Money
	Currency  valueobject.Currency
	Reason    string
	CreatedAt time.Time
}

// MapLegacyTransaction maps a generic transaction onto a ledger entry.
// Fixed mapping: payment -> one_time_payment, refund -> refund,
// chargeback -> chargeback; a Stripe payment ID selects stripe_payment,
// otherwise the source is manual.
func MapLegacyTransaction(tx LegacyTransaction) (*Entry, error) {
	var entryType EntryType
	switch tx.Type {
	case "payment":
		entryType = TypeOneTimePayment
	case "refund":
		entryType = TypeRefund
	case "chargeback":
		entryType = TypeChargeback
	default:
		return nil, shared.NewDomainError("UNMAPPED_LEGACY_TYPE",
			fmt.Sprintf("Transaction %s has unmapped type %q", tx.ID, tx.Type))
	}

	source := SourceManual
	if tx.StripePaymentID != "" {
		source = SourceStripePayment
	}

	entry, err := NewEntry(tx.CompanyID, tx.Amount, tx.Currency, entryType, source, tx.CreatedAt)
	if err != nil {
		return nil, err
	}
	if tx.UserID != nil {
		entry.WithUser(*tx.UserID)
	}
	entry.WithDescription(tx.Description)
	id := tx.ID
	if err := entry.WithBacklink(Backlink{TransactionID: &id}); err != nil {
		return nil, err
	}
	return entry, nil
}

// MapLegacySubscriptionTransaction maps a subscription transaction onto a
// ledger entry. Fixed mapping: subscription -> subscription_charge,
// refund -> subscription_refund; a Stripe subscription ID selects
// stripe_subscription, otherwise manual.
func MapLegacySubscriptionTransaction(tx LegacySubscriptionTransaction) (*Entry, error) {
	var entryType EntryType
	switch tx.Type {
	case "subscription":
		entryType = TypeSubscriptionCharge
	case "refund":
		entryType = TypeSubscriptionRefund
	default:
		return nil, shared.NewDomainError("UNMAPPED_LEGACY_TYPE",
			fmt.Sprintf("Subscription transaction %s has unmapped type %q", tx.ID, tx.Type))
	}

	source := SourceManual
	if tx.StripeSubscriptionID != "" {
		source = SourceStripeSubscription
	}

	entry, err := NewEntry(tx.CompanyID, tx.Amount, tx.Currency, entryType, source, tx.CreatedAt)
	if err != nil {
		return nil, err
	}
	entry.WithDescription(tx.PlanName)
	id := tx.ID
	if err := entry.WithBacklink(Backlink{SubscriptionTransactionID: &id}); err != nil {
		return nil, err
	}
	return entry, nil
}

// MapLegacyCreditLedger maps a credit-ledger record onto a ledger entry.
// Positive amounts become credit purchases, everything else an adjustment;
// the revenue source is always credit_adjustment.
func MapLegacyCreditLedger(rec LegacyCreditLedger) (*Entry, error) {
	entryType := TypeAdjustment
	if rec.Amount.IsPositive() {
		entryType = TypeCreditPurchase
	}

	entry, err := NewEntry(rec.CompanyID, rec.Amount, rec.Currency, entryType, SourceCreditAdjustment, rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if rec.UserID != nil {
		entry.WithUser(*rec.UserID)
	}
	entry.WithDescription(rec.Reason)
	id := rec.ID
	if err := entry.WithBacklink(Backlink{CreditLedgerID: &id}); err != nil {
		return nil, err
	}
	return entry, nil
}
