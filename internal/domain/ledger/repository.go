package ledger

import (
	"context"

	"github.com/opsdesk/backend/internal/domain/shared"
)

// Repository persists ledger entries. The ledger is append-only; the only
// update path is adding reconciliation metadata.
type Repository interface {
	// Append inserts a new entry. A duplicate ledger ID or legacy backlink
	// fails with ALREADY_EXISTS.
	Append(ctx context.Context, entry *Entry) error

	// FindByLedgerID loads an entry by its human-readable ledger ID.
	FindByLedgerID(ctx context.Context, ledgerID string) (*Entry, error)

	// ExistsByBacklink reports whether an entry derived from the given
	// legacy record has already been appended.
	ExistsByBacklink(ctx context.Context, source LegacySource, legacyID string) (bool, error)

	// CountBySource counts entries carrying a backlink of the given source.
	CountBySource(ctx context.Context, source LegacySource) (int64, error)

	// List returns entries matching the filter, newest first.
	List(ctx context.Context, filter shared.Filter) ([]Entry, error)

	// Count returns the number of entries matching the filter.
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// SumByType totals entry amounts per type, in cents, honoring the
	// same filters as List.
	SumByType(ctx context.Context, filter shared.Filter) (map[EntryType]int64, error)

	// MarkReconciled adds reconciliation metadata to an existing entry.
	MarkReconciled(ctx context.Context, ledgerID, by string) error
}

// LegacyRepository reads the three pre-ledger transaction tables. All
// methods are read-only; the migration job never mutates legacy data.
type LegacyRepository interface {
	ListTransactions(ctx context.Context) ([]LegacyTransaction, error)
	ListSubscriptionTransactions(ctx context.Context) ([]LegacySubscriptionTransaction, error)
	ListCreditLedger(ctx context.Context) ([]LegacyCreditLedger, error)

	CountTransactions(ctx context.Context) (int64, error)
	CountSubscriptionTransactions(ctx context.Context) (int64, error)
	CountCreditLedger(ctx context.Context) (int64, error)
}
