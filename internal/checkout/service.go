package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/internal/cart"
	"github.com/grocerly/grocerly-backend/internal/catalog"
	"github.com/grocerly/grocerly-backend/internal/orders"
	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/enums"
	pkgerrors "github.com/grocerly/grocerly-backend/pkg/errors"
	"github.com/grocerly/grocerly-backend/pkg/metrics"
	"github.com/grocerly/grocerly-backend/pkg/outbox"
	"github.com/grocerly/grocerly-backend/pkg/outbox/payloads"
	"github.com/grocerly/grocerly-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service executes the checkout orchestration: group the cart by vendor,
// verify every minimum, then split into per-vendor orders atomically.
type Service interface {
	Execute(ctx context.Context, customerID uuid.UUID, input CheckoutInput) (*CheckoutResult, error)
}

// CheckoutInput captures the shopper's submission.
type CheckoutInput struct {
	ExpectedVersion int
	PaymentMethod   enums.PaymentMethod
	DeliveryAddress types.Address
	DeliverySlot    string
}

// CheckoutResult is the synchronous response: the correlation id plus the
// orders just created, one per vendor.
type CheckoutResult struct {
	ParentCheckoutID uuid.UUID
	Orders           []models.SplitOrder
}

const (
	outcomeSuccess    = "success"
	outcomeValidation = "validation_failed"
	outcomeConflict   = "version_conflict"
	outcomeError      = "error"
)

type service struct {
	tx         txRunner
	cartRepo   cart.CartRepository
	ordersRepo orders.Repository
	catalog    catalog.Lookup
	outbox     outboxPublisher
	metrics    *metrics.CheckoutMetrics
}

// NewService builds the checkout service. Metrics may be nil in tests.
func NewService(
	tx txRunner,
	cartRepo cart.CartRepository,
	ordersRepo orders.Repository,
	lookup catalog.Lookup,
	publisher outboxPublisher,
	checkoutMetrics *metrics.CheckoutMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if lookup == nil {
		return nil, fmt.Errorf("catalog lookup required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:         tx,
		cartRepo:   cartRepo,
		ordersRepo: ordersRepo,
		catalog:    lookup,
		outbox:     publisher,
		metrics:    checkoutMetrics,
	}, nil
}

func (s *service) Execute(ctx context.Context, customerID uuid.UUID, input CheckoutInput) (*CheckoutResult, error) {
	started := time.Now()
	result, err := s.execute(ctx, customerID, input)
	outcome := outcomeForError(err)
	s.metrics.IncAttempt(outcome)
	s.metrics.ObserveDuration(outcome, time.Since(started))
	if result != nil {
		s.metrics.AddOrdersCreated(len(result.Orders))
	}
	return result, err
}

func (s *service) execute(ctx context.Context, customerID uuid.UUID, input CheckoutInput) (*CheckoutResult, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if input.ExpectedVersion < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expected cart version is required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").
			WithDetails(map[string]any{"payment_method": string(input.PaymentMethod)})
	}
	if err := input.DeliveryAddress.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery address")
	}

	record, err := s.cartRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if record.Version != input.ExpectedVersion {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart was modified concurrently, please retry").
			WithDetails(map[string]any{"expected_version": input.ExpectedVersion, "version": record.Version})
	}

	groups, err := BuildVendorGroups(ctx, record.Items, s.catalog, input.DeliveryAddress.Area)
	if err != nil {
		return nil, err
	}
	if err := requireAllMinimumsMet(groups); err != nil {
		return nil, err
	}

	parentCheckoutID := uuid.New()
	created := buildSplitOrders(parentCheckoutID, customerID, groups, input)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		// Guarded bump: if another request touched the cart since the
		// version check above, nothing is written.
		bumped, err := cartRepo.BumpVersion(ctx, record.ID, input.ExpectedVersion)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "guard cart version")
		}
		if !bumped {
			return pkgerrors.New(pkgerrors.CodeConflict, "cart was modified concurrently, please retry").
				WithDetails(map[string]any{"expected_version": input.ExpectedVersion})
		}

		if err := ordersRepo.CreateSplitOrders(ctx, created); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create split orders")
		}
		if err := cartRepo.DeleteItems(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		for _, order := range created {
			if err := s.emitOrderPlaced(ctx, tx, customerID, order); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &CheckoutResult{ParentCheckoutID: parentCheckoutID}
	for _, order := range created {
		result.Orders = append(result.Orders, *order)
	}
	return result, nil
}

// requireAllMinimumsMet aborts the whole checkout when any vendor group falls
// short; there are no partial checkouts.
func requireAllMinimumsMet(groups []VendorGroup) error {
	var shortfalls []map[string]any
	for _, group := range groups {
		if !group.MeetsMinimum {
			shortfalls = append(shortfalls, map[string]any{
				"vendor_id":       group.VendorID.String(),
				"shortfall_cents": group.ShortfallCents,
			})
		}
	}
	if len(shortfalls) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "minimum order value not met").
		WithDetails(map[string]any{"vendors": shortfalls})
}

func buildSplitOrders(parentCheckoutID, customerID uuid.UUID, groups []VendorGroup, input CheckoutInput) []*models.SplitOrder {
	address := input.DeliveryAddress
	created := make([]*models.SplitOrder, 0, len(groups))
	for _, group := range groups {
		order := &models.SplitOrder{
			ID:               uuid.New(),
			ParentCheckoutID: parentCheckoutID,
			CustomerID:       customerID,
			VendorID:         group.VendorID,
			Status:           enums.OrderStatusPendingConfirmation,
			PaymentStatus:    enums.PaymentStatusPending,
			PaymentMethod:    input.PaymentMethod,
			SubtotalCents:    group.SubtotalCents,
			DeliveryFeeCents: group.DeliveryFeeCents,
			TotalCents:       group.SubtotalCents + group.DeliveryFeeCents,
			DeliveryAddress:  &address,
			DeliverySlot:     input.DeliverySlot,
			Version:          1,
		}
		for _, item := range group.Items {
			order.Items = append(order.Items, models.OrderItem{
				OrderID:        order.ID,
				ProductID:      item.ProductID,
				Name:           item.ProductName,
				UnitPriceCents: item.UnitPriceCents,
				Quantity:       item.Quantity,
				LineTotalCents: item.UnitPriceCents * item.Quantity,
			})
		}
		created = append(created, order)
	}
	return created
}

func (s *service) emitOrderPlaced(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, order *models.SplitOrder) error {
	itemCount := 0
	for _, item := range order.Items {
		itemCount += item.Quantity
	}
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateSplitOrder,
		AggregateID:   order.ID,
		Version:       1,
		Actor: &outbox.ActorRef{
			CustomerID: &customerID,
			Role:       enums.RoleCustomer.String(),
		},
		Data: payloads.OrderPlacedEvent{
			OrderID:          order.ID,
			ParentCheckoutID: order.ParentCheckoutID,
			CustomerID:       order.CustomerID,
			VendorID:         order.VendorID,
			TotalCents:       int64(order.TotalCents),
			ItemCount:        itemCount,
		},
	}
	return s.outbox.Emit(ctx, tx, event)
}

func outcomeForError(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	appErr := pkgerrors.As(err)
	if appErr == nil {
		return outcomeError
	}
	switch appErr.Code() {
	case pkgerrors.CodeValidation:
		return outcomeValidation
	case pkgerrors.CodeConflict:
		return outcomeConflict
	default:
		return outcomeError
	}
}
