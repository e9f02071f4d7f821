package ledger

import (
	"context"

	"github.com/opsdesk/backend/internal/domain/ledger"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/opsdesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerService records live revenue events and serves the read side of
// the financial ledger.
type LedgerService struct {
	ledgerRepo ledger.Repository
	logger     *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(ledgerRepo ledger.Repository, logger *zap.Logger) *LedgerService {
	return &LedgerService{ledgerRepo: ledgerRepo, logger: logger}
}

// Record appends a live-path entry. Live entries carry no legacy backlink
// and start unreconciled.
func (s *LedgerService) Record(ctx context.Context, req RecordEntryRequest) (*EntryResponse, error) {
	entry, err := ledger.NewEntry(
		req.CompanyID,
		valueobject.NewMoneyFromDecimal(req.Amount),
		valueobject.Currency(req.Currency),
		ledger.EntryType(req.Type),
		ledger.RevenueSource(req.RevenueSource),
		req.TransactionDate,
	)
	if err != nil {
		return nil, err
	}

	if req.UserID != nil {
		entry.WithUser(*req.UserID)
	}
	if req.Description != "" {
		entry.WithDescription(req.Description)
	}

	if err := s.ledgerRepo.Append(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("Ledger entry recorded",
		zap.String("ledger_id", entry.LedgerID),
		zap.String("type", entry.Type.String()),
		zap.Int64("amount_cents", entry.Amount.Cents()))

	response := ToEntryResponse(entry)
	return &response, nil
}

// Get retrieves an entry by its human-readable ledger ID
func (s *LedgerService) Get(ctx context.Context, ledgerID string) (*EntryResponse, error) {
	entry, err := s.ledgerRepo.FindByLedgerID(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	response := ToEntryResponse(entry)
	return &response, nil
}

// List returns ledger entries matching the filter, newest first.
func (s *LedgerService) List(ctx context.Context, filter EntryListFilter) (*shared.Paginated[EntryResponse], error) {
	domainFilter := toDomainFilter(filter)

	entries, err := s.ledgerRepo.List(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	total, err := s.ledgerRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	result := shared.NewPaginated(ToEntryResponses(entries), total, domainFilter.Page, domainFilter.PageSize)
	return &result, nil
}

// Summary totals entry amounts per type over the filter window. Refunds
// and chargebacks are stored as negative amounts, so the net is a plain
// sum across types.
func (s *LedgerService) Summary(ctx context.Context, filter EntryListFilter) (*SummaryResponse, error) {
	domainFilter := toDomainFilter(filter)

	sums, err := s.ledgerRepo.SumByType(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	count, err := s.ledgerRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]decimal.Decimal, len(sums))
	net := decimal.Zero
	for entryType, cents := range sums {
		d := valueobject.NewMoneyFromCents(cents).Decimal()
		totals[entryType.String()] = d
		net = net.Add(d)
	}

	return &SummaryResponse{
		TotalsByType: totals,
		Net:          net,
		EntryCount:   count,
	}, nil
}

func toDomainFilter(filter EntryListFilter) shared.Filter {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "transaction_date",
		OrderDir: "desc",
		Filters:  make(map[string]any),
	}
	domainFilter.Normalize()

	if filter.CompanyID != nil {
		domainFilter.Filters["company_id"] = *filter.CompanyID
	}
	if filter.Type != "" {
		domainFilter.Filters["type"] = filter.Type
	}
	if filter.Source != "" {
		domainFilter.Filters["revenue_source"] = filter.Source
	}
	if filter.From != nil {
		domainFilter.Filters["from"] = *filter.From
	}
	if filter.To != nil {
		domainFilter.Filters["to"] = *filter.To
	}
	return domainFilter
}
