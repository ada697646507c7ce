package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/pagination"
)

// Repository defines persistence operations for split orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSplitOrders(ctx context.Context, orders []*models.SplitOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.SplitOrder, error)
	FindByParentCheckoutID(ctx context.Context, parentCheckoutID uuid.UUID) ([]models.SplitOrder, error)
	ListCustomerOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)
	ListVendorOrders(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)
	UpdateGuarded(ctx context.Context, orderID uuid.UUID, expectedVersion int, updates map[string]any) (bool, error)
	FindStalePendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.SplitOrder, error)
}
