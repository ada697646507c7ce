package enums

import "fmt"

// OrderStatus tracks the fulfillment lifecycle of a split order.
type OrderStatus string

const (
	OrderStatusPendingConfirmation OrderStatus = "pending_confirmation"
	OrderStatusConfirmed           OrderStatus = "confirmed"
	OrderStatusProcessing          OrderStatus = "processing"
	OrderStatusShipped             OrderStatus = "shipped"
	OrderStatusOutForDelivery      OrderStatus = "out_for_delivery"
	OrderStatusDelivered           OrderStatus = "delivered"
	OrderStatusCancelled           OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPendingConfirmation,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// statusRank orders the progression chain from least to most advanced.
// Cancelled carries no rank; it is excluded from progress comparisons.
var statusRank = map[OrderStatus]int{
	OrderStatusPendingConfirmation: 0,
	OrderStatusConfirmed:           1,
	OrderStatusProcessing:          2,
	OrderStatusShipped:             3,
	OrderStatusOutForDelivery:      4,
	OrderStatusDelivered:           5,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// Rank returns the progression rank and whether the status participates in
// the progression chain (cancelled does not).
func (o OrderStatus) Rank() (int, bool) {
	rank, ok := statusRank[o]
	return rank, ok
}

// IsTerminal reports whether no further transitions are allowed.
func (o OrderStatus) IsTerminal() bool {
	return o == OrderStatusDelivered || o == OrderStatusCancelled
}

// IsCancellable reports whether an order in this status may still be
// cancelled. Once a vendor has handed the order to a courier (shipped and
// later) cancellation is refused.
func (o OrderStatus) IsCancellable() bool {
	switch o {
	case OrderStatusPendingConfirmation, OrderStatusConfirmed, OrderStatusProcessing:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the hop from o to next is allowed. Every
// forward hop must be explicit (no skipping stages) so downstream consumers
// observe each stage exactly once.
func (o OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if o.IsTerminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return o.IsCancellable()
	}
	current, ok := o.Rank()
	if !ok {
		return false
	}
	target, ok := next.Rank()
	if !ok {
		return false
	}
	return target == current+1
}
