package numbering

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/numbering"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCounterRepository is a mock implementation of CounterRepository
type MockCounterRepository struct {
	mock.Mock
}

func (m *MockCounterRepository) FindForTenant(ctx context.Context, tenantID uuid.UUID, kind numbering.DocumentKind) (*numbering.DocumentCounter, error) {
	args := m.Called(ctx, tenantID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*numbering.DocumentCounter), args.Error(1)
}

func (m *MockCounterRepository) Save(ctx context.Context, counter *numbering.DocumentCounter) error {
	args := m.Called(ctx, counter)
	return args.Error(0)
}

func (m *MockCounterRepository) Allocate(ctx context.Context, tenantID uuid.UUID, kind numbering.DocumentKind) (string, error) {
	args := m.Called(ctx, tenantID, kind)
	return args.String(0), args.Error(1)
}

func createTestCounter(t *testing.T, tenantID uuid.UUID) *numbering.DocumentCounter {
	counter, err := numbering.NewDocumentCounter(tenantID, numbering.KindInvoice, "INV-", numbering.FormatRunningOnly, 5)
	require.NoError(t, err)
	return counter
}

func TestCounterService_GetConfig(t *testing.T) {
	tenantID := uuid.New()

	t.Run("returns existing config", func(t *testing.T) {
		repo := new(MockCounterRepository)
		service := NewCounterService(repo)
		counter := createTestCounter(t, tenantID)
		counter.CurrentCounter = 41

		repo.On("FindForTenant", mock.Anything, tenantID, numbering.KindInvoice).Return(counter, nil)

		resp, err := service.GetConfig(context.Background(), tenantID, numbering.KindInvoice)
		require.NoError(t, err)
		assert.Equal(t, "invoice", resp.Kind)
		assert.Equal(t, int64(41), resp.CurrentCounter)
		assert.Equal(t, "INV-00042", resp.NextNumber)
		repo.AssertExpectations(t)
	})

	t.Run("creates default config on first access", func(t *testing.T) {
		repo := new(MockCounterRepository)
		service := NewCounterService(repo)

		repo.On("FindForTenant", mock.Anything, tenantID, numbering.KindPurchaseOrder).Return(nil, shared.ErrNotFound)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*numbering.DocumentCounter")).Return(nil)

		resp, err := service.GetConfig(context.Background(), tenantID, numbering.KindPurchaseOrder)
		require.NoError(t, err)
		assert.Equal(t, "PO-", resp.Prefix)
		assert.Equal(t, "running_only", resp.Format)
		assert.Equal(t, int64(0), resp.CurrentCounter)
		assert.Equal(t, "PO-00001", resp.NextNumber)
		repo.AssertExpectations(t)
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		repo := new(MockCounterRepository)
		service := NewCounterService(repo)

		_, err := service.GetConfig(context.Background(), tenantID, numbering.DocumentKind("receipt"))
		assert.Error(t, err)
	})
}

func TestCounterService_UpdateConfig(t *testing.T) {
	tenantID := uuid.New()
	repo := new(MockCounterRepository)
	service := NewCounterService(repo)
	counter := createTestCounter(t, tenantID)
	counter.CurrentCounter = 7

	repo.On("FindForTenant", mock.Anything, tenantID, numbering.KindInvoice).Return(counter, nil)
	repo.On("Save", mock.Anything, counter).Return(nil)

	resp, err := service.UpdateConfig(context.Background(), tenantID, numbering.KindInvoice, UpdateCounterConfigRequest{
		Prefix:       "R",
		Format:       "year_running",
		LeadingZeros: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "R", resp.Prefix)
	assert.Equal(t, "year_running", resp.Format)
	// Counter survives a config change.
	assert.Equal(t, int64(7), resp.CurrentCounter)
	repo.AssertExpectations(t)
}

func TestCounterService_Preview(t *testing.T) {
	tenantID := uuid.New()
	repo := new(MockCounterRepository)
	service := NewCounterService(repo)
	counter := createTestCounter(t, tenantID)
	counter.CurrentCounter = 99

	repo.On("FindForTenant", mock.Anything, tenantID, numbering.KindInvoice).Return(counter, nil)

	resp, err := service.Preview(context.Background(), tenantID, numbering.KindInvoice)
	require.NoError(t, err)
	assert.Equal(t, "INV-00100", resp.NextNumber)
	// Preview never consumes a number.
	assert.Equal(t, int64(99), counter.CurrentCounter)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCounterService_SetCounter(t *testing.T) {
	tenantID := uuid.New()

	t.Run("overrides the counter", func(t *testing.T) {
		repo := new(MockCounterRepository)
		service := NewCounterService(repo)
		counter := createTestCounter(t, tenantID)

		repo.On("FindForTenant", mock.Anything, tenantID, numbering.KindInvoice).Return(counter, nil)
		repo.On("Save", mock.Anything, counter).Return(nil)

		resp, err := service.SetCounter(context.Background(), tenantID, numbering.KindInvoice, 500)
		require.NoError(t, err)
		assert.Equal(t, int64(500), resp.CurrentCounter)
		assert.Equal(t, "INV-00501", resp.NextNumber)
	})

	t.Run("rejects values below one", func(t *testing.T) {
		repo := new(MockCounterRepository)
		service := NewCounterService(repo)
		counter := createTestCounter(t, tenantID)

		repo.On("FindForTenant", mock.Anything, tenantID, numbering.KindInvoice).Return(counter, nil)

		_, err := service.SetCounter(context.Background(), tenantID, numbering.KindInvoice, 0)
		assert.Error(t, err)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestCounterService_ResetCounter(t *testing.T) {
	tenantID := uuid.New()
	repo := new(MockCounterRepository)
	service := NewCounterService(repo)
	counter := createTestCounter(t, tenantID)
	counter.CurrentCounter = 250

	repo.On("FindForTenant", mock.Anything, tenantID, numbering.KindInvoice).Return(counter, nil)
	repo.On("Save", mock.Anything, counter).Return(nil)

	resp, err := service.ResetCounter(context.Background(), tenantID, numbering.KindInvoice)
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.CurrentCounter)
	assert.Equal(t, "INV-00001", resp.NextNumber)
}

func TestCounterService_Allocate(t *testing.T) {
	tenantID := uuid.New()
	repo := new(MockCounterRepository)
	service := NewCounterService(repo)

	repo.On("Allocate", mock.Anything, tenantID, numbering.KindInvoice).Return("INV-00001", nil)

	number, err := service.Allocate(context.Background(), tenantID, numbering.KindInvoice)
	require.NoError(t, err)
	assert.Equal(t, "INV-00001", number)
	repo.AssertExpectations(t)
}

func TestCounterService_Allocate_UnknownKind(t *testing.T) {
	repo := new(MockCounterRepository)
	service := NewCounterService(repo)

	_, err := service.Allocate(context.Background(), uuid.New(), numbering.DocumentKind("quote"))
	assert.Error(t, err)
	repo.AssertNotCalled(t, "Allocate", mock.Anything, mock.Anything, mock.Anything)
}
