package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/enums"
	pkgerrors "github.com/grocerly/grocerly-backend/pkg/errors"
	"github.com/grocerly/grocerly-backend/pkg/outbox"
	"github.com/grocerly/grocerly-backend/pkg/outbox/payloads"
	"github.com/grocerly/grocerly-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes the fulfillment operations on split orders. Each sibling
// moves through the status chain independently; no operation here ever spans
// two vendors' orders except the checkout-wide cancel.
type Service interface {
	GetForCustomer(ctx context.Context, customerID, orderID uuid.UUID) (*models.SplitOrder, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)
	ListForVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.SplitOrder, error)
	Cancel(ctx context.Context, input CancelInput) (*models.SplitOrder, error)
	CancelCheckout(ctx context.Context, customerID, parentCheckoutID uuid.UUID, reason string) (*CancelCheckoutResult, error)
	Aggregate(ctx context.Context, customerID, parentCheckoutID uuid.UUID) (*SuperOrderView, error)
}

// UpdateStatusInput captures a vendor-side fulfillment transition.
type UpdateStatusInput struct {
	OrderID         uuid.UUID
	VendorID        uuid.UUID
	NextStatus      enums.OrderStatus
	ExpectedVersion int
}

// CancelInput captures a customer-side cancellation of a single order.
type CancelInput struct {
	OrderID         uuid.UUID
	CustomerID      uuid.UUID
	ExpectedVersion int
	Reason          string
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds the orders service with the required dependencies.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: publisher}, nil
}

// GetForCustomer loads one order restricted to its owning customer.
func (s *service) GetForCustomer(ctx context.Context, customerID, orderID uuid.UUID) (*models.SplitOrder, error) {
	if customerID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id and order id are required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to customer")
	}
	return order, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	list, err := s.repo.ListCustomerOrders(ctx, customerID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer orders")
	}
	return list, nil
}

func (s *service) ListForVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	list, err := s.repo.ListVendorOrders(ctx, vendorID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor orders")
	}
	return list, nil
}

// UpdateStatus moves one order a single step along the fulfillment chain.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.SplitOrder, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor identity missing")
	}
	if !input.NextStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]any{"status": string(input.NextStatus)})
	}
	if input.NextStatus == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "use the cancel operation to cancel an order")
	}
	if input.ExpectedVersion < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expected version is required")
	}

	var updated *models.SplitOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.VendorID != input.VendorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to vendor")
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is in a terminal state").
				WithDetails(map[string]any{"status": string(order.Status)})
		}
		if !order.Status.CanTransitionTo(input.NextStatus) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "invalid status transition").
				WithDetails(map[string]any{
					"from": string(order.Status),
					"to":   string(input.NextStatus),
				})
		}

		updates := map[string]any{"status": input.NextStatus}
		if input.NextStatus == enums.OrderStatusDelivered {
			updates["delivered_at"] = time.Now()
		}
		ok, err := repo.UpdateGuarded(ctx, order.ID, input.ExpectedVersion, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently, please retry").
				WithDetails(map[string]any{"expected_version": input.ExpectedVersion})
		}

		previous := order.Status
		if err := s.emitStatusChanged(ctx, tx, order, previous, input.NextStatus); err != nil {
			return err
		}

		updated, err = repo.FindByID(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Cancel cancels a single order while it is still cancellable.
func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.SplitOrder, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if input.ExpectedVersion < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expected version is required")
	}

	var updated *models.SplitOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.CustomerID != input.CustomerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to customer")
		}

		if err := s.cancelOrder(ctx, tx, repo, order, input.ExpectedVersion, input.Reason); err != nil {
			return err
		}

		updated, err = repo.FindByID(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CancelCheckout cancels every cancellable sibling of one checkout and
// reports the ones that already shipped.
func (s *service) CancelCheckout(ctx context.Context, customerID, parentCheckoutID uuid.UUID, reason string) (*CancelCheckoutResult, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if parentCheckoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "parent checkout id required")
	}

	result := &CancelCheckoutResult{ParentCheckoutID: parentCheckoutID}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		siblings, err := repo.FindByParentCheckoutID(ctx, parentCheckoutID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout orders")
		}
		if len(siblings) == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "checkout not found")
		}
		if siblings[0].CustomerID != customerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "checkout does not belong to customer")
		}

		for i := range siblings {
			order := siblings[i]
			if order.Status == enums.OrderStatusCancelled {
				result.Cancelled = append(result.Cancelled, order.ID)
				continue
			}
			if !order.Status.IsCancellable() {
				result.NotCancellable = append(result.NotCancellable, order.ID)
				continue
			}
			if err := s.cancelOrder(ctx, tx, repo, &order, order.Version, reason); err != nil {
				return err
			}
			result.Cancelled = append(result.Cancelled, order.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// cancelOrder performs the guarded cancel write plus event emit. The caller
// already verified ownership.
func (s *service) cancelOrder(ctx context.Context, tx *gorm.DB, repo Repository, order *models.SplitOrder, expectedVersion int, reason string) error {
	if order.Status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is in a terminal state").
			WithDetails(map[string]any{"status": string(order.Status)})
	}
	if !order.Status.IsCancellable() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").
			WithDetails(map[string]any{"status": string(order.Status)})
	}

	now := time.Now()
	ok, err := repo.UpdateGuarded(ctx, order.ID, expectedVersion, map[string]any{
		"status":       enums.OrderStatusCancelled,
		"cancelled_at": now,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently, please retry").
			WithDetails(map[string]any{"expected_version": expectedVersion})
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCancelled,
		AggregateType: enums.AggregateSplitOrder,
		AggregateID:   order.ID,
		Version:       1,
		Data: payloads.OrderCancelledEvent{
			OrderID:          order.ID,
			ParentCheckoutID: order.ParentCheckoutID,
			CustomerID:       order.CustomerID,
			VendorID:         order.VendorID,
			CancelledAt:      now,
			Reason:           reason,
		},
	}
	return s.outbox.Emit(ctx, tx, event)
}

func (s *service) emitStatusChanged(ctx context.Context, tx *gorm.DB, order *models.SplitOrder, previous, next enums.OrderStatus) error {
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateSplitOrder,
		AggregateID:   order.ID,
		Version:       1,
		Data: payloads.OrderStatusChangedEvent{
			OrderID:          order.ID,
			ParentCheckoutID: order.ParentCheckoutID,
			CustomerID:       order.CustomerID,
			VendorID:         order.VendorID,
			PreviousStatus:   previous,
			Status:           next,
		},
	}
	return s.outbox.Emit(ctx, tx, event)
}
