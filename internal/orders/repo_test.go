package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/enums"
	"github.com/grocerly/grocerly-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	splitOrders := `
CREATE TABLE IF NOT EXISTS split_orders (
  id TEXT PRIMARY KEY,
  parent_checkout_id TEXT NOT NULL,
  customer_id TEXT NOT NULL,
  vendor_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending_confirmation',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL,
  subtotal_cents INTEGER NOT NULL,
  delivery_fee_cents INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  delivery_address TEXT,
  delivery_slot TEXT NOT NULL,
  version INTEGER NOT NULL DEFAULT 1,
  delivered_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  line_total_cents INTEGER NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(splitOrders).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	return db
}

func createSplitOrder(t *testing.T, db *gorm.DB, parent, customer, vendor uuid.UUID, created time.Time, status enums.OrderStatus, totalCents int) *models.SplitOrder {
	t.Helper()

	order := &models.SplitOrder{
		ID:               uuid.New(),
		ParentCheckoutID: parent,
		CustomerID:       customer,
		VendorID:         vendor,
		Status:           status,
		PaymentStatus:    enums.PaymentStatusPending,
		PaymentMethod:    enums.PaymentMethodCard,
		SubtotalCents:    totalCents - 10,
		DeliveryFeeCents: 10,
		TotalCents:       totalCents,
		DeliverySlot:     "2026-03-02T09:00",
		Version:          1,
		CreatedAt:        created,
		UpdatedAt:        created,
	}
	require.NoError(t, db.Create(order).Error)

	item := &models.OrderItem{
		ID:             uuid.New(),
		OrderID:        order.ID,
		ProductID:      uuid.New(),
		Name:           "Oat Milk 1L",
		UnitPriceCents: totalCents - 10,
		Quantity:       1,
		LineTotalCents: totalCents - 10,
		CreatedAt:      created,
	}
	require.NoError(t, db.Create(item).Error)
	return order
}

func TestRepositoryFindByParentCheckoutID_stableOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	parent := uuid.New()
	customer := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)
	first := createSplitOrder(t, db, parent, customer, uuid.New(), now.Add(-time.Minute), enums.OrderStatusConfirmed, 110)
	second := createSplitOrder(t, db, parent, customer, uuid.New(), now, enums.OrderStatusPendingConfirmation, 320)
	createSplitOrder(t, db, uuid.New(), customer, uuid.New(), now, enums.OrderStatusConfirmed, 999)

	siblings, err := repo.FindByParentCheckoutID(context.Background(), parent)
	require.NoError(t, err)
	require.Len(t, siblings, 2)
	assert.Equal(t, first.ID, siblings[0].ID)
	assert.Equal(t, second.ID, siblings[1].ID)
	require.Len(t, siblings[0].Items, 1)
	assert.Equal(t, "Oat Milk 1L", siblings[0].Items[0].Name)
}

func TestRepositoryListCustomerOrders_pagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	customer := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)
	older := createSplitOrder(t, db, uuid.New(), customer, uuid.New(), now.Add(-time.Hour), enums.OrderStatusDelivered, 110)
	newer := createSplitOrder(t, db, uuid.New(), customer, uuid.New(), now, enums.OrderStatusConfirmed, 320)

	list, err := repo.ListCustomerOrders(context.Background(), customer, pagination.Params{Limit: 1}, OrderFilters{})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, newer.ID, list.Orders[0].ID)
	assert.NotEmpty(t, list.NextCursor)

	second, err := repo.ListCustomerOrders(context.Background(), customer, pagination.Params{Limit: 1, Cursor: list.NextCursor}, OrderFilters{})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Equal(t, older.ID, second.Orders[0].ID)
	assert.Empty(t, second.NextCursor)
}

func TestRepositoryListVendorOrders_filters(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	vendor := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)
	confirmed := createSplitOrder(t, db, uuid.New(), uuid.New(), vendor, now, enums.OrderStatusConfirmed, 320)
	createSplitOrder(t, db, uuid.New(), uuid.New(), vendor, now.Add(-time.Minute), enums.OrderStatusShipped, 110)

	status := enums.OrderStatusConfirmed
	list, err := repo.ListVendorOrders(context.Background(), vendor, pagination.Params{Limit: 10}, OrderFilters{Status: &status})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, confirmed.ID, list.Orders[0].ID)

	from := now.Add(-30 * time.Second)
	list, err = repo.ListVendorOrders(context.Background(), vendor, pagination.Params{Limit: 10}, OrderFilters{DateFrom: &from})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, confirmed.ID, list.Orders[0].ID)
}

func TestRepositoryUpdateGuarded(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := createSplitOrder(t, db, uuid.New(), uuid.New(), uuid.New(), time.Now().UTC(), enums.OrderStatusPendingConfirmation, 110)

	ok, err := repo.UpdateGuarded(context.Background(), order.ID, 1, map[string]any{
		"status": enums.OrderStatusConfirmed,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	reloaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, reloaded.Status)
	assert.Equal(t, 2, reloaded.Version)

	// Stale version writes nothing.
	ok, err = repo.UpdateGuarded(context.Background(), order.ID, 1, map[string]any{
		"status": enums.OrderStatusProcessing,
	})
	require.NoError(t, err)
	assert.False(t, ok)

	reloaded, err = repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, reloaded.Status)
	assert.Equal(t, 2, reloaded.Version)
}
