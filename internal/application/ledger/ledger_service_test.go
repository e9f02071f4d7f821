package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLedgerService_Record(t *testing.T) {
	t.Run("records a live entry", func(t *testing.T) {
		repo := new(MockLedgerRepository)
		service := NewLedgerService(repo, zap.NewNop())

		repo.On("Append", mock.Anything, mock.MatchedBy(func(e *ledger.Entry) bool {
			return e.Legacy.IsZero() && !e.IsReconciled
		})).Return(nil)

		resp, err := service.Record(context.Background(), RecordEntryRequest{
			Amount:          decimal.RequireFromString("49.99"),
			Currency:        "USD",
			Type:            "one_time_payment",
			RevenueSource:   "stripe_payment",
			CompanyID:       uuid.New(),
			Description:     "Starter plan top-up",
			TransactionDate: time.Now(),
		})
		require.NoError(t, err)

		assert.Regexp(t, `^TXN-\d{4}-\d{6}$`, resp.LedgerID)
		assert.True(t, resp.Amount.Equal(decimal.RequireFromString("49.99")))
		assert.Nil(t, resp.Legacy)
		assert.False(t, resp.IsReconciled)
		repo.AssertExpectations(t)
	})

	t.Run("rejects unknown entry type", func(t *testing.T) {
		repo := new(MockLedgerRepository)
		service := NewLedgerService(repo, zap.NewNop())

		_, err := service.Record(context.Background(), RecordEntryRequest{
			Amount:        decimal.NewFromInt(10),
			Currency:      "USD",
			Type:          "barter",
			RevenueSource: "manual",
			CompanyID:     uuid.New(),
		})
		assert.Error(t, err)
		repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})
}

func TestLedgerService_Summary(t *testing.T) {
	repo := new(MockLedgerRepository)
	service := NewLedgerService(repo, zap.NewNop())

	repo.On("SumByType", mock.Anything, mock.Anything).Return(map[ledger.EntryType]int64{
		ledger.TypeSubscriptionCharge: 100000,
		ledger.TypeRefund:             -2500,
	}, nil)
	repo.On("Count", mock.Anything, mock.Anything).Return(int64(42), nil)

	resp, err := service.Summary(context.Background(), EntryListFilter{})
	require.NoError(t, err)

	assert.True(t, resp.TotalsByType["subscription_charge"].Equal(decimal.RequireFromString("1000.00")))
	assert.True(t, resp.TotalsByType["refund"].Equal(decimal.RequireFromString("-25.00")))
	assert.True(t, resp.Net.Equal(decimal.RequireFromString("975.00")))
	assert.Equal(t, int64(42), resp.EntryCount)
}
