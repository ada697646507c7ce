package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/enums"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	"github.com/grocerly/grocerly-backend/pkg/money"
	"github.com/grocerly/grocerly-backend/pkg/outbox"
	"github.com/grocerly/grocerly-backend/pkg/outbox/idempotency"
	"github.com/grocerly/grocerly-backend/pkg/outbox/payloads"
)

const orderPlacedConsumer = "order-placed-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// OrdersConsumer watches order.placed events and writes one notification for
// the vendor and one for the customer per vendor order.
type OrdersConsumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewOrdersConsumer builds the order placement consumer.
func NewOrdersConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*OrdersConsumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("orders subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &OrdersConsumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *OrdersConsumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *OrdersConsumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventOrderPlaced) {
		c.logg.Info(logCtx, "skipping non-placement event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderPlacedConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload payloads.OrderPlacedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, orderPlacedConsumer, eventID)
		return processResult{nack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"order_id":  payload.OrderID.String(),
		"vendor_id": payload.VendorID.String(),
	})

	if err := c.handleOrderPlaced(ctx, payload, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, orderPlacedConsumer, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func (c *OrdersConsumer) handleOrderPlaced(ctx context.Context, payload payloads.OrderPlacedEvent, logCtx context.Context) error {
	if payload.OrderID == uuid.Nil || payload.VendorID == uuid.Nil || payload.CustomerID == uuid.Nil {
		return fmt.Errorf("placed event missing ids")
	}

	amount := money.Format(int(payload.TotalCents))
	orderID := payload.OrderID

	vendorNotification := &models.Notification{
		RecipientID: payload.VendorID,
		Type:        enums.NotificationOrderPlaced,
		Title:       "New order received",
		Message:     fmt.Sprintf("You have a new order with %d items totalling %s.", payload.ItemCount, amount),
		OrderID:     &orderID,
	}
	if err := c.repo.Create(ctx, vendorNotification); err != nil {
		return err
	}

	customerNotification := &models.Notification{
		RecipientID: payload.CustomerID,
		Type:        enums.NotificationOrderPlaced,
		Title:       "Order placed",
		Message:     fmt.Sprintf("Your order of %s is awaiting vendor confirmation.", amount),
		OrderID:     &orderID,
	}
	if err := c.repo.Create(ctx, customerNotification); err != nil {
		return err
	}

	c.logg.Info(logCtx, "order placement notifications written")
	return nil
}
