package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/enums"
	pkgerrors "github.com/grocerly/grocerly-backend/pkg/errors"
)

func checkoutSibling(customerID, parent uuid.UUID, created time.Time, status enums.OrderStatus, subtotal, fee int) *models.SplitOrder {
	return &models.SplitOrder{
		ID:               uuid.New(),
		ParentCheckoutID: parent,
		CustomerID:       customerID,
		VendorID:         uuid.New(),
		Status:           status,
		PaymentStatus:    enums.PaymentStatusPending,
		PaymentMethod:    enums.PaymentMethodCard,
		SubtotalCents:    subtotal,
		DeliveryFeeCents: fee,
		TotalCents:       subtotal + fee,
		Version:          1,
		CreatedAt:        created,
		Items: []models.OrderItem{
			{ID: uuid.New(), ProductID: uuid.New(), Name: "Bananas", UnitPriceCents: subtotal, Quantity: 2, LineTotalCents: subtotal},
		},
	}
}

func TestAggregateSumsTotalsAndBreakdown(t *testing.T) {
	customerID := uuid.New()
	parent := uuid.New()
	now := time.Now().UTC()

	first := checkoutSibling(customerID, parent, now.Add(-time.Second), enums.OrderStatusConfirmed, 100, 10)
	second := checkoutSibling(customerID, parent, now, enums.OrderStatusPendingConfirmation, 300, 20)
	repo := newStubOrdersRepo(first, second)
	svc := newTestService(t, repo, &stubOutbox{})

	view, err := svc.Aggregate(context.Background(), customerID, parent)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if view.TotalCents != 430 {
		t.Fatalf("expected total 430, got %d", view.TotalCents)
	}
	if view.OverallStatus != enums.OrderStatusPendingConfirmation {
		t.Fatalf("expected pending_confirmation overall, got %s", view.OverallStatus)
	}
	if len(view.Orders) != 2 {
		t.Fatalf("expected 2 sibling views, got %d", len(view.Orders))
	}
	if view.Orders[0].OrderID != first.ID || view.Orders[1].OrderID != second.ID {
		t.Fatal("expected deterministic sibling order by creation time")
	}
	if view.Orders[0].ItemCount != 2 {
		t.Fatalf("expected item count 2, got %d", view.Orders[0].ItemCount)
	}
}

func TestAggregateIgnoresCancelledForOverall(t *testing.T) {
	customerID := uuid.New()
	parent := uuid.New()
	now := time.Now().UTC()

	cancelled := checkoutSibling(customerID, parent, now.Add(-time.Second), enums.OrderStatusCancelled, 100, 10)
	delivered := checkoutSibling(customerID, parent, now, enums.OrderStatusDelivered, 300, 20)
	repo := newStubOrdersRepo(cancelled, delivered)
	svc := newTestService(t, repo, &stubOutbox{})

	view, err := svc.Aggregate(context.Background(), customerID, parent)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if view.OverallStatus != enums.OrderStatusDelivered {
		t.Fatalf("expected delivered overall, got %s", view.OverallStatus)
	}
}

func TestAggregateAllCancelled(t *testing.T) {
	customerID := uuid.New()
	parent := uuid.New()
	now := time.Now().UTC()

	repo := newStubOrdersRepo(
		checkoutSibling(customerID, parent, now.Add(-time.Second), enums.OrderStatusCancelled, 100, 10),
		checkoutSibling(customerID, parent, now, enums.OrderStatusCancelled, 300, 20),
	)
	svc := newTestService(t, repo, &stubOutbox{})

	view, err := svc.Aggregate(context.Background(), customerID, parent)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if view.OverallStatus != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled overall, got %s", view.OverallStatus)
	}
}

func TestAggregateUnknownCheckout(t *testing.T) {
	repo := newStubOrdersRepo()
	svc := newTestService(t, repo, &stubOutbox{})

	_, err := svc.Aggregate(context.Background(), uuid.New(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestAggregateOtherCustomerForbidden(t *testing.T) {
	parent := uuid.New()
	repo := newStubOrdersRepo(
		checkoutSibling(uuid.New(), parent, time.Now().UTC(), enums.OrderStatusConfirmed, 100, 10),
	)
	svc := newTestService(t, repo, &stubOutbox{})

	_, err := svc.Aggregate(context.Background(), uuid.New(), parent)
	assertCode(t, err, pkgerrors.CodeForbidden)
}
