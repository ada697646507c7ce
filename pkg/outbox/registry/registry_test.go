package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/grocerly/grocerly-backend/pkg/config"
	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/enums"
	"github.com/grocerly/grocerly-backend/pkg/outbox"
	"github.com/grocerly/grocerly-backend/pkg/outbox/payloads"
)

func testConfig() config.PubSubConfig {
	return config.PubSubConfig{
		OrdersTopic:       "orders-events",
		NotificationTopic: "notification-events",
	}
}

func envelopeRow(t *testing.T, eventType enums.OutboxEventType, data interface{}) models.OutboxEvent {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       raw,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateSplitOrder,
		AggregateID:   uuid.New(),
		Payload:       payload,
	}
}

func TestNewEventRegistry_RequiresTopics(t *testing.T) {
	if _, err := NewEventRegistry(config.PubSubConfig{NotificationTopic: "n"}); err == nil {
		t.Fatalf("expected error without orders topic")
	}
	if _, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: "o"}); err == nil {
		t.Fatalf("expected error without notification topic")
	}
}

func TestResolve_OrderPlacedRoutesToOrdersTopic(t *testing.T) {
	reg, err := NewEventRegistry(testConfig())
	if err != nil {
		t.Fatalf("NewEventRegistry: %v", err)
	}

	placed := payloads.OrderPlacedEvent{
		OrderID:          uuid.New(),
		ParentCheckoutID: uuid.New(),
		CustomerID:       uuid.New(),
		VendorID:         uuid.New(),
		TotalCents:       15000,
		ItemCount:        3,
	}
	row := envelopeRow(t, enums.EventOrderPlaced, placed)

	resolved, err := reg.Resolve(row)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Descriptor.Topic != "orders-events" {
		t.Fatalf("unexpected topic: %s", resolved.Descriptor.Topic)
	}
	decoded, ok := resolved.Payload.(*payloads.OrderPlacedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if decoded.OrderID != placed.OrderID || decoded.TotalCents != placed.TotalCents {
		t.Fatalf("payload round trip mismatch: %+v", decoded)
	}
}

func TestResolve_StatusEventsRouteToNotificationTopic(t *testing.T) {
	reg, err := NewEventRegistry(testConfig())
	if err != nil {
		t.Fatalf("NewEventRegistry: %v", err)
	}

	for _, eventType := range []enums.OutboxEventType{
		enums.EventOrderStatusChanged,
		enums.EventOrderCancelled,
	} {
		row := envelopeRow(t, eventType, map[string]any{"orderId": uuid.NewString()})
		resolved, err := reg.Resolve(row)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", eventType, err)
		}
		if resolved.Descriptor.Topic != "notification-events" {
			t.Fatalf("Resolve(%s): unexpected topic %s", eventType, resolved.Descriptor.Topic)
		}
	}
}

func TestResolve_UnsupportedEventTypeIsNonRetryable(t *testing.T) {
	reg, err := NewEventRegistry(testConfig())
	if err != nil {
		t.Fatalf("NewEventRegistry: %v", err)
	}

	row := envelopeRow(t, enums.OutboxEventType("order.unknown"), map[string]any{})
	_, err = reg.Resolve(row)
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected NonRetryableError, got %v", err)
	}
}

func TestResolve_AggregateMismatchIsNonRetryable(t *testing.T) {
	reg, err := NewEventRegistry(testConfig())
	if err != nil {
		t.Fatalf("NewEventRegistry: %v", err)
	}

	row := envelopeRow(t, enums.EventOrderPlaced, map[string]any{})
	row.AggregateType = enums.AggregateCheckout
	_, err = reg.Resolve(row)
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected NonRetryableError, got %v", err)
	}
}

func TestResolve_MissingPayloadIsNonRetryable(t *testing.T) {
	reg, err := NewEventRegistry(testConfig())
	if err != nil {
		t.Fatalf("NewEventRegistry: %v", err)
	}

	row := envelopeRow(t, enums.EventOrderPlaced, nil)
	_, err = reg.Resolve(row)
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected NonRetryableError, got %v", err)
	}
}
