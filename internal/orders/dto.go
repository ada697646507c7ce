package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/enums"
)

// OrderFilters describe the inputs supported by the order lists.
type OrderFilters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	DateFrom      *time.Time
	DateTo        *time.Time
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []models.SplitOrder `json:"orders"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

// VendorOrderView is one sibling's slice of the super-order view.
type VendorOrderView struct {
	OrderID          uuid.UUID         `json:"order_id"`
	VendorID         uuid.UUID         `json:"vendor_id"`
	Status           enums.OrderStatus `json:"status"`
	SubtotalCents    int               `json:"subtotal_cents"`
	DeliveryFeeCents int               `json:"delivery_fee_cents"`
	TotalCents       int               `json:"total_cents"`
	ItemCount        int               `json:"item_count"`
}

// SuperOrderView folds all siblings of one checkout into a single customer
// facing summary.
type SuperOrderView struct {
	ParentCheckoutID uuid.UUID         `json:"parent_checkout_id"`
	OverallStatus    enums.OrderStatus `json:"overall_status"`
	TotalCents       int               `json:"total_cents"`
	CreatedAt        time.Time         `json:"created_at"`
	Orders           []VendorOrderView `json:"orders"`
}

// CancelCheckoutResult reports the per-sibling outcome of a checkout-wide
// cancellation.
type CancelCheckoutResult struct {
	ParentCheckoutID uuid.UUID   `json:"parent_checkout_id"`
	Cancelled        []uuid.UUID `json:"cancelled"`
	NotCancellable   []uuid.UUID `json:"not_cancellable"`
}
