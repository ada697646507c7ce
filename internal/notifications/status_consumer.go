package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/enums"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	"github.com/grocerly/grocerly-backend/pkg/outbox"
	"github.com/grocerly/grocerly-backend/pkg/outbox/idempotency"
	"github.com/grocerly/grocerly-backend/pkg/outbox/payloads"
)

const orderStatusConsumer = "order-status-notifications"

// StatusConsumer watches status change and cancellation events and keeps the
// customer informed about each vendor order's progress.
type StatusConsumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewStatusConsumer builds the fulfillment status consumer.
func NewStatusConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*StatusConsumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &StatusConsumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *StatusConsumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (c *StatusConsumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	statusChanged := eventType == string(enums.EventOrderStatusChanged)
	cancelled := eventType == string(enums.EventOrderCancelled)
	if !statusChanged && !cancelled {
		c.logg.Info(logCtx, "skipping unrelated event")
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

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderStatusConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var handleErr error
	if statusChanged {
		var payload payloads.OrderStatusChangedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			c.logg.Error(logCtx, "failed to parse payload", err)
			_ = c.idempotency.Delete(ctx, orderStatusConsumer, eventID)
			return processResult{nack: true}
		}
		handleErr = c.handleStatusChanged(ctx, payload, logCtx)
	} else {
		var payload payloads.OrderCancelledEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			c.logg.Error(logCtx, "failed to parse payload", err)
			_ = c.idempotency.Delete(ctx, orderStatusConsumer, eventID)
			return processResult{nack: true}
		}
		handleErr = c.handleCancelled(ctx, payload, logCtx)
	}

	if handleErr != nil {
		c.logg.Error(logCtx, "notification handling failed", handleErr)
		_ = c.idempotency.Delete(ctx, orderStatusConsumer, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *StatusConsumer) handleStatusChanged(ctx context.Context, payload payloads.OrderStatusChangedEvent, logCtx context.Context) error {
	if payload.OrderID == uuid.Nil || payload.CustomerID == uuid.Nil {
		return fmt.Errorf("status event missing ids")
	}

	orderID := payload.OrderID
	notification := &models.Notification{
		RecipientID: payload.CustomerID,
		Type:        enums.NotificationOrderStatusChanged,
		Title:       statusTitle(payload.Status),
		Message:     fmt.Sprintf("Your order is now %s.", statusLabel(payload.Status)),
		OrderID:     &orderID,
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "status notification written")
	return nil
}

func (c *StatusConsumer) handleCancelled(ctx context.Context, payload payloads.OrderCancelledEvent, logCtx context.Context) error {
	if payload.OrderID == uuid.Nil || payload.CustomerID == uuid.Nil {
		return fmt.Errorf("cancel event missing ids")
	}

	message := "Your order has been cancelled."
	if payload.Reason != "" {
		message = fmt.Sprintf("Your order has been cancelled. Reason: %s", payload.Reason)
	}

	orderID := payload.OrderID
	notification := &models.Notification{
		RecipientID: payload.CustomerID,
		Type:        enums.NotificationOrderCancelled,
		Title:       "Order cancelled",
		Message:     message,
		OrderID:     &orderID,
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "cancellation notification written")
	return nil
}

func statusTitle(status enums.OrderStatus) string {
	switch status {
	case enums.OrderStatusOutForDelivery:
		return "Order out for delivery"
	case enums.OrderStatusDelivered:
		return "Order delivered"
	default:
		return "Order update"
	}
}

func statusLabel(status enums.OrderStatus) string {
	return strings.ReplaceAll(string(status), "_", " ")
}
