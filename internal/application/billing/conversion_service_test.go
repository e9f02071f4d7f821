package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/billing"
	"github.com/opsdesk/backend/internal/domain/numbering"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/opsdesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockPurchaseOrderRepository is a mock implementation of PurchaseOrderRepository
type MockPurchaseOrderRepository struct {
	mock.Mock
}

func (m *MockPurchaseOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, poNumber string) (*billing.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, poNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]billing.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPurchaseOrderRepository) Save(ctx context.Context, order *billing.PurchaseOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *billing.PurchaseOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// MockInvoiceRepository is a mock implementation of InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) CountBySourcePO(ctx context.Context, tenantID, poID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, poID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

// MockNumberAllocator is a mock implementation of NumberAllocator
type MockNumberAllocator struct {
	mock.Mock
}

func (m *MockNumberAllocator) Allocate(ctx context.Context, tenantID uuid.UUID, kind numbering.DocumentKind) (string, error) {
	args := m.Called(ctx, tenantID, kind)
	return args.String(0), args.Error(1)
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// passthroughUoW runs the function without a backing transaction.
type passthroughUoW struct{}

func (passthroughUoW) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type conversionFixture struct {
	poRepo      *MockPurchaseOrderRepository
	invoiceRepo *MockInvoiceRepository
	allocator   *MockNumberAllocator
	service     *ConversionService
}

func newConversionFixture() *conversionFixture {
	poRepo := new(MockPurchaseOrderRepository)
	invoiceRepo := new(MockInvoiceRepository)
	allocator := new(MockNumberAllocator)
	service := NewConversionService(poRepo, invoiceRepo, allocator, passthroughUoW{}, nil, zap.NewNop())
	return &conversionFixture{
		poRepo:      poRepo,
		invoiceRepo: invoiceRepo,
		allocator:   allocator,
		service:     service,
	}
}

func createConvertiblePO(t *testing.T, tenantID uuid.UUID, taxRate int64) *billing.PurchaseOrder {
	order, err := billing.NewPurchaseOrder(tenantID, "PO-00007", billing.VendorInfo{
		Name:  "Acme Supplies",
		Email: "billing@acme.test",
	}, decimal.NewFromInt(taxRate))
	require.NoError(t, err)

	_, err = order.AddItem("Widgets", decimal.NewFromInt(1), valueobject.NewMoneyFromCents(100000))
	require.NoError(t, err)
	_, err = order.AddItem("Gadgets", decimal.NewFromInt(1), valueobject.NewMoneyFromCents(150000))
	require.NoError(t, err)
	return order
}

func TestConversionService_Convert(t *testing.T) {
	tenantID := uuid.New()

	t.Run("converts selected items with the order tax rate", func(t *testing.T) {
		f := newConversionFixture()
		order := createConvertiblePO(t, tenantID, 10)

		f.poRepo.On("FindByIDForTenant", mock.Anything, tenantID, order.ID).Return(order, nil)
		f.allocator.On("Allocate", mock.Anything, tenantID, numbering.KindInvoice).Return("INV-00042", nil)
		f.invoiceRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Invoice")).Return(nil)
		f.poRepo.On("SaveWithLock", mock.Anything, order).Return(nil)

		resp, err := f.service.Convert(context.Background(), tenantID, order.ID, ConvertPurchaseOrderRequest{
			ItemIndexes: []int{0},
		}, "")
		require.NoError(t, err)

		assert.Equal(t, "INV-00042", resp.InvoiceNumber)
		assert.True(t, resp.Subtotal.Equal(decimal.RequireFromString("1000.00")))
		assert.True(t, resp.Tax.Equal(decimal.RequireFromString("100.00")))
		assert.True(t, resp.Total.Equal(decimal.RequireFromString("1100.00")))
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "Widgets", resp.Items[0].Description)
		require.NotNil(t, resp.SourcePOID)
		assert.Equal(t, order.ID, *resp.SourcePOID)

		require.NotNil(t, order.ConvertedToInvoiceID)
		assert.Equal(t, resp.ID, *order.ConvertedToInvoiceID)
		f.poRepo.AssertExpectations(t)
		f.invoiceRepo.AssertExpectations(t)
	})

	t.Run("explicit tax amount wins over rate override", func(t *testing.T) {
		f := newConversionFixture()
		order := createConvertiblePO(t, tenantID, 10)

		f.poRepo.On("FindByIDForTenant", mock.Anything, tenantID, order.ID).Return(order, nil)
		f.allocator.On("Allocate", mock.Anything, tenantID, numbering.KindInvoice).Return("INV-00001", nil)
		f.invoiceRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.poRepo.On("SaveWithLock", mock.Anything, order).Return(nil)

		tax := decimal.RequireFromString("12.34")
		rate := decimal.NewFromInt(50)
		resp, err := f.service.Convert(context.Background(), tenantID, order.ID, ConvertPurchaseOrderRequest{
			ItemIndexes: []int{0, 1},
			Overrides:   ConversionOverrides{Tax: &tax, TaxRate: &rate},
		}, "")
		require.NoError(t, err)

		assert.True(t, resp.Tax.Equal(tax))
		assert.True(t, resp.Total.Equal(decimal.RequireFromString("2512.34")))
	})

	t.Run("rate override wins over order rate", func(t *testing.T) {
		f := newConversionFixture()
		order := createConvertiblePO(t, tenantID, 10)

		f.poRepo.On("FindByIDForTenant", mock.Anything, tenantID, order.ID).Return(order, nil)
		f.allocator.On("Allocate", mock.Anything, tenantID, numbering.KindInvoice).Return("INV-00001", nil)
		f.invoiceRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.poRepo.On("SaveWithLock", mock.Anything, order).Return(nil)

		rate := decimal.NewFromInt(20)
		resp, err := f.service.Convert(context.Background(), tenantID, order.ID, ConvertPurchaseOrderRequest{
			ItemIndexes: []int{0, 1},
			Overrides:   ConversionOverrides{TaxRate: &rate},
		}, "")
		require.NoError(t, err)

		assert.True(t, resp.Tax.Equal(decimal.RequireFromString("500.00")))
	})

	t.Run("discount override reduces the total", func(t *testing.T) {
		f := newConversionFixture()
		order := createConvertiblePO(t, tenantID, 0)

		f.poRepo.On("FindByIDForTenant", mock.Anything, tenantID, order.ID).Return(order, nil)
		f.allocator.On("Allocate", mock.Anything, tenantID, numbering.KindInvoice).Return("INV-00001", nil)
		f.invoiceRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.poRepo.On("SaveWithLock", mock.Anything, order).Return(nil)

		discount := decimal.RequireFromString("100.00")
		resp, err := f.service.Convert(context.Background(), tenantID, order.ID, ConvertPurchaseOrderRequest{
			ItemIndexes: []int{0},
			Overrides:   ConversionOverrides{Discount: &discount},
		}, "")
		require.NoError(t, err)

		assert.True(t, resp.Total.Equal(decimal.RequireFromString("900.00")))
	})

	t.Run("merges order and conversion notes", func(t *testing.T) {
		f := newConversionFixture()
		order := createConvertiblePO(t, tenantID, 0)
		require.NoError(t, order.SetNotes("Net 30"))

		f.poRepo.On("FindByIDForTenant", mock.Anything, tenantID, order.ID).Return(order, nil)
		f.allocator.On("Allocate", mock.Anything, tenantID, numbering.KindInvoice).Return("INV-00001", nil)
		f.invoiceRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.poRepo.On("SaveWithLock", mock.Anything, order).Return(nil)

		resp, err := f.service.Convert(context.Background(), tenantID, order.ID, ConvertPurchaseOrderRequest{
			ItemIndexes: []int{0},
			Overrides:   ConversionOverrides{Notes: "Rush order"},
		}, "")
		require.NoError(t, err)

		assert.Equal(t, "Net 30\nRush order", resp.Notes)
	})

	t.Run("already converted order is rejected", func(t *testing.T) {
		f := newConversionFixture()
		order := createConvertiblePO(t, tenantID, 10)
		require.NoError(t, order.MarkConverted(uuid.New()))

		f.poRepo.On("FindByIDForTenant", mock.Anything, tenantID, order.ID).Return(order, nil)

		_, err := f.service.Convert(context.Background(), tenantID, order.ID, ConvertPurchaseOrderRequest{
			ItemIndexes: []int{0},
		}, "")
		assert.ErrorIs(t, err, shared.ErrAlreadyConverted)
		f.allocator.AssertNotCalled(t, "Allocate", mock.Anything, mock.Anything, mock.Anything)
		f.invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("cancelled order is rejected", func(t *testing.T) {
		f := newConversionFixture()
		order := createConvertiblePO(t, tenantID, 10)
		require.NoError(t, order.Cancel())

		f.poRepo.On("FindByIDForTenant", mock.Anything, tenantID, order.ID).Return(order, nil)

		_, err := f.service.Convert(context.Background(), tenantID, order.ID, ConvertPurchaseOrderRequest{
			ItemIndexes: []int{0},
		}, "")
		assert.ErrorIs(t, err, shared.ErrImmutableSource)
	})

	t.Run("empty selection is rejected", func(t *testing.T) {
		f := newConversionFixture()
		order := createConvertiblePO(t, tenantID, 10)

		f.poRepo.On("FindByIDForTenant", mock.Anything, tenantID, order.ID).Return(order, nil)

		_, err := f.service.Convert(context.Background(), tenantID, order.ID, ConvertPurchaseOrderRequest{
			ItemIndexes: []int{},
		}, "")
		assert.ErrorIs(t, err, shared.ErrEmptySelection)
	})

	t.Run("out of range index is rejected", func(t *testing.T) {
		f := newConversionFixture()
		order := createConvertiblePO(t, tenantID, 10)

		f.poRepo.On("FindByIDForTenant", mock.Anything, tenantID, order.ID).Return(order, nil)

		_, err := f.service.Convert(context.Background(), tenantID, order.ID, ConvertPurchaseOrderRequest{
			ItemIndexes: []int{5},
		}, "")
		assert.ErrorIs(t, err, shared.ErrInvalidSelection)
	})

	t.Run("allocation failure aborts without saving", func(t *testing.T) {
		f := newConversionFixture()
		order := createConvertiblePO(t, tenantID, 10)

		f.poRepo.On("FindByIDForTenant", mock.Anything, tenantID, order.ID).Return(order, nil)
		f.allocator.On("Allocate", mock.Anything, tenantID, numbering.KindInvoice).Return("", shared.ErrCounterConflict)

		_, err := f.service.Convert(context.Background(), tenantID, order.ID, ConvertPurchaseOrderRequest{
			ItemIndexes: []int{0},
		}, "")
		assert.ErrorIs(t, err, shared.ErrCounterConflict)
		f.invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		f.poRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestConversionService_Convert_Idempotency(t *testing.T) {
	tenantID := uuid.New()

	t.Run("replayed key returns the original invoice", func(t *testing.T) {
		f := newConversionFixture()
		store := new(MockIdempotencyStore)
		f.service.idempotency = store

		order := createConvertiblePO(t, tenantID, 10)
		invoiceID := uuid.New()
		require.NoError(t, order.MarkConverted(invoiceID))

		existing, err := billing.NewInvoice(tenantID, "INV-00042", billing.BillingDetails{Name: "Acme Supplies"})
		require.NoError(t, err)
		existing.ID = invoiceID

		store.On("MarkProcessed", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(false, nil)
		f.poRepo.On("FindByIDForTenant", mock.Anything, tenantID, order.ID).Return(order, nil)
		f.invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, invoiceID).Return(existing, nil)

		resp, err := f.service.Convert(context.Background(), tenantID, order.ID, ConvertPurchaseOrderRequest{
			ItemIndexes: []int{0},
		}, "req-1")
		require.NoError(t, err)

		assert.Equal(t, "INV-00042", resp.InvoiceNumber)
		f.allocator.AssertNotCalled(t, "Allocate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("fresh key runs the conversion", func(t *testing.T) {
		f := newConversionFixture()
		store := new(MockIdempotencyStore)
		f.service.idempotency = store

		order := createConvertiblePO(t, tenantID, 10)

		store.On("MarkProcessed", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(true, nil)
		f.poRepo.On("FindByIDForTenant", mock.Anything, tenantID, order.ID).Return(order, nil)
		f.allocator.On("Allocate", mock.Anything, tenantID, numbering.KindInvoice).Return("INV-00001", nil)
		f.invoiceRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.poRepo.On("SaveWithLock", mock.Anything, order).Return(nil)

		_, err := f.service.Convert(context.Background(), tenantID, order.ID, ConvertPurchaseOrderRequest{
			ItemIndexes: []int{0},
		}, "req-2")
		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("claimed key without an invoice reports a conflict", func(t *testing.T) {
		f := newConversionFixture()
		store := new(MockIdempotencyStore)
		f.service.idempotency = store

		order := createConvertiblePO(t, tenantID, 10)

		store.On("MarkProcessed", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(false, nil)
		f.poRepo.On("FindByIDForTenant", mock.Anything, tenantID, order.ID).Return(order, nil)

		_, err := f.service.Convert(context.Background(), tenantID, order.ID, ConvertPurchaseOrderRequest{
			ItemIndexes: []int{0},
		}, "req-3")
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "IDEMPOTENCY_CONFLICT", domainErr.Code)
	})
}
