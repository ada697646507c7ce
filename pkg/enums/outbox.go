package enums

// OutboxEventType identifies domain events stored in the outbox.
type OutboxEventType string

const (
	EventOrderPlaced        OutboxEventType = "order.placed"
	EventOrderStatusChanged OutboxEventType = "order.status_changed"
	EventOrderCancelled     OutboxEventType = "order.cancelled"
)

// OutboxAggregateType identifies the aggregate an event belongs to.
type OutboxAggregateType string

const (
	AggregateSplitOrder OutboxAggregateType = "split_order"
	AggregateCheckout   OutboxAggregateType = "checkout"
)
