package orders

import (
	"context"

	"github.com/google/uuid"

	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/enums"
	pkgerrors "github.com/grocerly/grocerly-backend/pkg/errors"
)

// Aggregate folds every sibling of one checkout into a super-order view.
// Pure read; calling it twice on unchanged rows yields the same view.
func (s *service) Aggregate(ctx context.Context, customerID, parentCheckoutID uuid.UUID) (*SuperOrderView, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if parentCheckoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "parent checkout id required")
	}

	siblings, err := s.repo.FindByParentCheckoutID(ctx, parentCheckoutID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout orders")
	}
	if len(siblings) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout not found")
	}
	if siblings[0].CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "checkout does not belong to customer")
	}

	view := &SuperOrderView{
		ParentCheckoutID: parentCheckoutID,
		OverallStatus:    overallStatus(siblings),
		CreatedAt:        siblings[0].CreatedAt,
		Orders:           make([]VendorOrderView, 0, len(siblings)),
	}
	for i := range siblings {
		order := siblings[i]
		view.TotalCents += order.TotalCents
		view.Orders = append(view.Orders, VendorOrderView{
			OrderID:          order.ID,
			VendorID:         order.VendorID,
			Status:           order.Status,
			SubtotalCents:    order.SubtotalCents,
			DeliveryFeeCents: order.DeliveryFeeCents,
			TotalCents:       order.TotalCents,
			ItemCount:        itemCount(order),
		})
	}
	return view, nil
}

// overallStatus is cancelled only when every sibling is cancelled. Otherwise
// it is the least advanced status among the siblings still in flight, so the
// view never claims more progress than the slowest vendor has made.
func overallStatus(siblings []models.SplitOrder) enums.OrderStatus {
	overall := enums.OrderStatusCancelled
	minRank := -1
	for i := range siblings {
		rank, ok := siblings[i].Status.Rank()
		if !ok {
			continue
		}
		if minRank == -1 || rank < minRank {
			minRank = rank
			overall = siblings[i].Status
		}
	}
	return overall
}

func itemCount(order models.SplitOrder) int {
	count := 0
	for i := range order.Items {
		count += order.Items[i].Quantity
	}
	return count
}
