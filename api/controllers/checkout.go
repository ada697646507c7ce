package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/grocerly/grocerly-backend/api/responses"
	"github.com/grocerly/grocerly-backend/api/validators"
	checkoutsvc "github.com/grocerly/grocerly-backend/internal/checkout"
	orderssvc "github.com/grocerly/grocerly-backend/internal/orders"
	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/enums"
	pkgerrors "github.com/grocerly/grocerly-backend/pkg/errors"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	"github.com/grocerly/grocerly-backend/pkg/types"
)

// Checkout submits the customer's cart and splits it into per-vendor orders.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		result, err := svc.Execute(r.Context(), customerID, checkoutsvc.CheckoutInput{
			ExpectedVersion: payload.ExpectedVersion,
			PaymentMethod:   method,
			DeliveryAddress: payload.DeliveryAddress,
			DeliverySlot:    payload.DeliverySlot,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(result))
	}
}

// SuperOrderDetail folds every sibling of one checkout into a single view.
func SuperOrderDetail(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		parentCheckoutID, err := pathUUID(r, "checkoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Aggregate(r.Context(), customerID, parentCheckoutID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CancelCheckout cancels every still-cancellable sibling of a checkout.
func CancelCheckout(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		parentCheckoutID, err := pathUUID(r, "checkoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancelRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CancelCheckout(r.Context(), customerID, parentCheckoutID, payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type checkoutRequest struct {
	ExpectedVersion int           `json:"expected_version" validate:"required,min=1"`
	PaymentMethod   string        `json:"payment_method" validate:"required"`
	DeliveryAddress types.Address `json:"delivery_address" validate:"required"`
	DeliverySlot    string        `json:"delivery_slot" validate:"required"`
}

type cancelRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type checkoutResponse struct {
	ParentCheckoutID uuid.UUID       `json:"parent_checkout_id"`
	Orders           []orderResponse `json:"orders"`
}

func newCheckoutResponse(result *checkoutsvc.CheckoutResult) checkoutResponse {
	if result == nil {
		return checkoutResponse{}
	}
	resp := checkoutResponse{
		ParentCheckoutID: result.ParentCheckoutID,
		Orders:           make([]orderResponse, 0, len(result.Orders)),
	}
	for i := range result.Orders {
		resp.Orders = append(resp.Orders, newOrderResponse(&result.Orders[i]))
	}
	return resp
}

type orderResponse struct {
	OrderID          uuid.UUID           `json:"order_id"`
	ParentCheckoutID uuid.UUID           `json:"parent_checkout_id"`
	VendorID         uuid.UUID           `json:"vendor_id"`
	Status           string              `json:"status"`
	PaymentStatus    string              `json:"payment_status"`
	PaymentMethod    string              `json:"payment_method"`
	SubtotalCents    int                 `json:"subtotal_cents"`
	DeliveryFeeCents int                 `json:"delivery_fee_cents"`
	TotalCents       int                 `json:"total_cents"`
	Version          int                 `json:"version"`
	DeliverySlot     string              `json:"delivery_slot"`
	Items            []orderItemResponse `json:"items"`
}

type orderItemResponse struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	UnitPriceCents int       `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
	LineTotalCents int       `json:"line_total_cents"`
}

func newOrderResponse(order *models.SplitOrder) orderResponse {
	resp := orderResponse{
		OrderID:          order.ID,
		ParentCheckoutID: order.ParentCheckoutID,
		VendorID:         order.VendorID,
		Status:           string(order.Status),
		PaymentStatus:    string(order.PaymentStatus),
		PaymentMethod:    string(order.PaymentMethod),
		SubtotalCents:    order.SubtotalCents,
		DeliveryFeeCents: order.DeliveryFeeCents,
		TotalCents:       order.TotalCents,
		Version:          order.Version,
		DeliverySlot:     order.DeliverySlot,
		Items:            make([]orderItemResponse, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID:      item.ProductID,
			Name:           item.Name,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			LineTotalCents: item.LineTotalCents,
		})
	}
	return resp
}
