package ledger

import (
	"context"

	"github.com/opsdesk/backend/internal/domain/ledger"
	"github.com/opsdesk/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// MigrationService back-fills the ledger from the three legacy transaction
// tables. Runs are idempotent: each legacy record is keyed by its backlink,
// records already migrated are skipped, and every insert commits in its own
// transaction so one bad record never rolls back the batch.
type MigrationService struct {
	ledgerRepo ledger.Repository
	legacyRepo ledger.LegacyRepository
	uow        shared.UnitOfWork
	logger     *zap.Logger
}

// NewMigrationService creates a new MigrationService
func NewMigrationService(
	ledgerRepo ledger.Repository,
	legacyRepo ledger.LegacyRepository,
	uow shared.UnitOfWork,
	logger *zap.Logger,
) *MigrationService {
	return &MigrationService{
		ledgerRepo: ledgerRepo,
		legacyRepo: legacyRepo,
		uow:        uow,
		logger:     logger,
	}
}

// Run migrates all unmigrated legacy records into the ledger. Legacy data
// itself is never mutated. Per-record failures are collected into the
// summary; the run keeps going.
func (s *MigrationService) Run(ctx context.Context) (*MigrationSummary, error) {
	summary := &MigrationSummary{Errors: make([]MigrationError, 0)}

	s.logger.Info("Ledger migration started")

	if err := s.migrateTransactions(ctx, summary); err != nil {
		return nil, err
	}
	if err := s.migrateSubscriptionTransactions(ctx, summary); err != nil {
		return nil, err
	}
	if err := s.migrateCreditLedger(ctx, summary); err != nil {
		return nil, err
	}

	summary.Success = len(summary.Errors) == 0

	s.logger.Info("Ledger migration finished",
		zap.Int("migrated", summary.TotalMigrated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", len(summary.Errors)))

	return summary, nil
}

// Verify compares legacy record counts against migrated entry counts per
// source. Read-only; safe to run at any time.
func (s *MigrationService) Verify(ctx context.Context) (*VerificationReport, error) {
	report := &VerificationReport{Match: true}

	counters := []struct {
		source ledger.LegacySource
		count  func(context.Context) (int64, error)
	}{
		{ledger.LegacySourceTransactions, s.legacyRepo.CountTransactions},
		{ledger.LegacySourceSubscriptionTransactions, s.legacyRepo.CountSubscriptionTransactions},
		{ledger.LegacySourceCreditLedger, s.legacyRepo.CountCreditLedger},
	}

	for _, c := range counters {
		legacyCount, err := c.count(ctx)
		if err != nil {
			return nil, err
		}
		migratedCount, err := s.ledgerRepo.CountBySource(ctx, c.source)
		if err != nil {
			return nil, err
		}

		match := legacyCount == migratedCount
		if !match {
			report.Match = false
		}
		report.Sources = append(report.Sources, SourceVerification{
			Source:        c.source.String(),
			LegacyCount:   legacyCount,
			MigratedCount: migratedCount,
			Match:         match,
		})
	}

	return report, nil
}

func (s *MigrationService) migrateTransactions(ctx context.Context, summary *MigrationSummary) error {
	records, err := s.legacyRepo.ListTransactions(ctx)
	if err != nil {
		return err
	}

	for _, record := range records {
		s.migrateOne(ctx, summary, ledger.LegacySourceTransactions, record.ID, func() (*ledger.Entry, error) {
			return ledger.MapLegacyTransaction(record)
		})
	}
	return nil
}

func (s *MigrationService) migrateSubscriptionTransactions(ctx context.Context, summary *MigrationSummary) error {
	records, err := s.legacyRepo.ListSubscriptionTransactions(ctx)
	if err != nil {
		return err
	}

	for _, record := range records {
		s.migrateOne(ctx, summary, ledger.LegacySourceSubscriptionTransactions, record.ID, func() (*ledger.Entry, error) {
			return ledger.MapLegacySubscriptionTransaction(record)
		})
	}
	return nil
}

func (s *MigrationService) migrateCreditLedger(ctx context.Context, summary *MigrationSummary) error {
	records, err := s.legacyRepo.ListCreditLedger(ctx)
	if err != nil {
		return err
	}

	for _, record := range records {
		s.migrateOne(ctx, summary, ledger.LegacySourceCreditLedger, record.ID, func() (*ledger.Entry, error) {
			return ledger.MapLegacyCreditLedger(record)
		})
	}
	return nil
}

// migrateOne migrates a single legacy record inside its own transaction.
// Failures are recorded on the summary, never returned.
func (s *MigrationService) migrateOne(ctx context.Context, summary *MigrationSummary, source ledger.LegacySource, legacyID string, mapRecord func() (*ledger.Entry, error)) {
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.ledgerRepo.ExistsByBacklink(ctx, source, legacyID)
		if err != nil {
			return err
		}
		if exists {
			summary.Skipped++
			return nil
		}

		entry, err := mapRecord()
		if err != nil {
			return err
		}
		entry.MarkReconciled(ledger.ReconciledBySystemMigration)

		if err := s.ledgerRepo.Append(ctx, entry); err != nil {
			return err
		}

		summary.TotalMigrated++
		return nil
	})
	if err != nil {
		s.logger.Warn("Legacy record failed to migrate",
			zap.String("source", source.String()),
			zap.String("legacy_id", legacyID),
			zap.Error(err))
		summary.Errors = append(summary.Errors, MigrationError{
			Source:   source.String(),
			LegacyID: legacyID,
			Message:  err.Error(),
		})
	}
}
