package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/opsdesk/backend/internal/domain/billing"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/opsdesk/backend/internal/domain/shared/valueobject"
)

// newMockPurchaseOrderRepository creates a GormPurchaseOrderRepository with a mocked SQL connection
func newMockPurchaseOrderRepository(t *testing.T) (*GormPurchaseOrderRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormPurchaseOrderRepository(gormDB), mock, mockDB
}

func purchaseOrderRows(id, tenantID uuid.UUID, poNumber, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "version", "tenant_id",
		"po_number", "vendor_name", "vendor_email", "vendor_address",
		"subtotal_cents", "tax_rate", "tax_cents", "tax_overridden",
		"discount_cents", "total_cents", "status", "notes", "converted_to_invoice_id",
	}).AddRow(id, now, now, 1, tenantID,
		poNumber, "Acme Supplies", "billing@acme.test", "1 Acme Way",
		250000, decimal.RequireFromString("10"), 25000, false,
		0, 275000, status, "", nil)
}

func TestGormPurchaseOrderRepository_FindByIDForTenant(t *testing.T) {
	t.Run("finds order with its line items", func(t *testing.T) {
		repo, mock, mockDB := newMockPurchaseOrderRepository(t)
		defer mockDB.Close()

		orderID := uuid.New()
		tenantID := uuid.New()
		itemID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT \* FROM "purchase_orders" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, orderID, 1).
			WillReturnRows(purchaseOrderRows(orderID, tenantID, "PO-00007", "draft"))

		itemRows := sqlmock.NewRows([]string{
			"id", "document_id", "description", "quantity", "unit_price_cents", "total_cents", "created_at", "updated_at",
		}).AddRow(itemID, orderID, "Widgets", decimal.RequireFromString("5"), 50000, 250000, now, now)

		mock.ExpectQuery(`SELECT \* FROM "document_items" WHERE "document_items"\."document_id" = \$1`).
			WithArgs(orderID).
			WillReturnRows(itemRows)

		order, err := repo.FindByIDForTenant(context.Background(), tenantID, orderID)

		assert.NoError(t, err)
		require.NotNil(t, order)
		assert.Equal(t, "PO-00007", order.PONumber)
		assert.Equal(t, "Acme Supplies", order.Vendor.Name)
		require.Len(t, order.Items, 1)
		assert.Equal(t, "Widgets", order.Items[0].Description)
		assert.Equal(t, valueobject.NewMoneyFromCents(250000), order.Items[0].Total)
		assert.Equal(t, valueobject.NewMoneyFromCents(275000), order.Total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing order", func(t *testing.T) {
		repo, mock, mockDB := newMockPurchaseOrderRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		orderID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "purchase_orders" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, orderID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		order, err := repo.FindByIDForTenant(context.Background(), tenantID, orderID)

		assert.Nil(t, order)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPurchaseOrderRepository_SaveWithLock(t *testing.T) {
	newOrder := func(t *testing.T) *billing.PurchaseOrder {
		t.Helper()
		order, err := billing.NewPurchaseOrder(uuid.New(), "PO-00007",
			billing.VendorInfo{Name: "Acme Supplies"}, decimal.RequireFromString("10"))
		require.NoError(t, err)
		return order
	}

	t.Run("bumps version on successful save", func(t *testing.T) {
		repo, mock, mockDB := newMockPurchaseOrderRepository(t)
		defer mockDB.Close()

		order := newOrder(t)
		require.Equal(t, 1, order.Version)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "purchase_orders" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM "document_items"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := repo.SaveWithLock(context.Background(), order)

		assert.NoError(t, err)
		assert.Equal(t, 2, order.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns concurrency conflict when version moved", func(t *testing.T) {
		repo, mock, mockDB := newMockPurchaseOrderRepository(t)
		defer mockDB.Close()

		order := newOrder(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "purchase_orders" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.SaveWithLock(context.Background(), order)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Equal(t, 1, order.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
