package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/grocerly/grocerly-backend/pkg/enums"
)

// OrderPlacedEvent is emitted once per vendor order created by a checkout.
type OrderPlacedEvent struct {
	OrderID          uuid.UUID `json:"orderId"`
	ParentCheckoutID uuid.UUID `json:"parentCheckoutId"`
	CustomerID       uuid.UUID `json:"customerId"`
	VendorID         uuid.UUID `json:"vendorId"`
	TotalCents       int64     `json:"totalCents"`
	ItemCount        int       `json:"itemCount"`
}

// OrderStatusChangedEvent is emitted when a vendor moves an order along the
// fulfillment chain.
type OrderStatusChangedEvent struct {
	OrderID          uuid.UUID         `json:"orderId"`
	ParentCheckoutID uuid.UUID         `json:"parentCheckoutId"`
	CustomerID       uuid.UUID         `json:"customerId"`
	VendorID         uuid.UUID         `json:"vendorId"`
	PreviousStatus   enums.OrderStatus `json:"previousStatus"`
	Status           enums.OrderStatus `json:"status"`
}

// OrderCancelledEvent is emitted when a pre-shipment order is cancelled.
type OrderCancelledEvent struct {
	OrderID          uuid.UUID `json:"orderId"`
	ParentCheckoutID uuid.UUID `json:"parentCheckoutId"`
	CustomerID       uuid.UUID `json:"customerId"`
	VendorID         uuid.UUID `json:"vendorId"`
	CancelledAt      time.Time `json:"cancelledAt"`
	Reason           string    `json:"reason,omitempty"`
}
