package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	checkoutsvc "github.com/grocerly/grocerly-backend/internal/checkout"
	orderssvc "github.com/grocerly/grocerly-backend/internal/orders"
	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/enums"
	pkgerrors "github.com/grocerly/grocerly-backend/pkg/errors"
	"github.com/grocerly/grocerly-backend/pkg/pagination"
)

type stubCheckoutService struct {
	result *checkoutsvc.CheckoutResult
	err    error
	input  *checkoutsvc.CheckoutInput
}

func (s *stubCheckoutService) Execute(ctx context.Context, customerID uuid.UUID, input checkoutsvc.CheckoutInput) (*checkoutsvc.CheckoutResult, error) {
	s.input = &input
	return s.result, s.err
}

type stubOrderService struct {
	order       *models.SplitOrder
	list        *orderssvc.OrderList
	view        *orderssvc.SuperOrderView
	cancelled   *orderssvc.CancelCheckoutResult
	err         error
	lastUpdate  *orderssvc.UpdateStatusInput
	lastFilters *orderssvc.OrderFilters
}

func (s *stubOrderService) GetForCustomer(ctx context.Context, customerID, orderID uuid.UUID) (*models.SplitOrder, error) {
	return s.order, s.err
}

func (s *stubOrderService) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params, filters orderssvc.OrderFilters) (*orderssvc.OrderList, error) {
	s.lastFilters = &filters
	return s.list, s.err
}

func (s *stubOrderService) ListForVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters orderssvc.OrderFilters) (*orderssvc.OrderList, error) {
	s.lastFilters = &filters
	return s.list, s.err
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, input orderssvc.UpdateStatusInput) (*models.SplitOrder, error) {
	s.lastUpdate = &input
	return s.order, s.err
}

func (s *stubOrderService) Cancel(ctx context.Context, input orderssvc.CancelInput) (*models.SplitOrder, error) {
	return s.order, s.err
}

func (s *stubOrderService) CancelCheckout(ctx context.Context, customerID, parentCheckoutID uuid.UUID, reason string) (*orderssvc.CancelCheckoutResult, error) {
	return s.cancelled, s.err
}

func (s *stubOrderService) Aggregate(ctx context.Context, customerID, parentCheckoutID uuid.UUID) (*orderssvc.SuperOrderView, error) {
	return s.view, s.err
}

func routeRequest(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func checkoutBody() string {
	return `{
		"expected_version": 1,
		"payment_method": "card",
		"delivery_address": {"line1": "1 Main St", "city": "Springfield", "postal_code": "12345", "area": "central"},
		"delivery_slot": "2026-09-01T10:00"
	}`
}

func TestCheckoutCreatesOrders(t *testing.T) {
	customerID := uuid.New()
	parentCheckoutID := uuid.New()
	svc := &stubCheckoutService{
		result: &checkoutsvc.CheckoutResult{
			ParentCheckoutID: parentCheckoutID,
			Orders: []models.SplitOrder{
				{ID: uuid.New(), ParentCheckoutID: parentCheckoutID, VendorID: uuid.New(), Status: enums.OrderStatusPendingConfirmation, TotalCents: 110},
				{ID: uuid.New(), ParentCheckoutID: parentCheckoutID, VendorID: uuid.New(), Status: enums.OrderStatusPendingConfirmation, TotalCents: 320},
			},
		},
	}
	handler := Checkout(svc, nil)

	req := withCustomer(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody())), customerID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data checkoutResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ParentCheckoutID != parentCheckoutID {
		t.Fatalf("unexpected parent checkout id: %s", envelope.Data.ParentCheckoutID)
	}
	if len(envelope.Data.Orders) != 2 || envelope.Data.Orders[1].TotalCents != 320 {
		t.Fatalf("unexpected orders: %+v", envelope.Data.Orders)
	}
	if svc.input == nil || svc.input.PaymentMethod != enums.PaymentMethodCard {
		t.Fatalf("unexpected input: %+v", svc.input)
	}
}

func TestCheckoutRejectsUnknownPaymentMethod(t *testing.T) {
	handler := Checkout(&stubCheckoutService{}, nil)
	body := strings.Replace(checkoutBody(), `"card"`, `"barter"`, 1)

	req := withCustomer(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body)), uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutMinimumNotMetSurfacesDetails(t *testing.T) {
	svc := &stubCheckoutService{
		err: pkgerrors.New(pkgerrors.CodeValidation, "minimum order value not met").
			WithDetails(map[string]any{"vendors": []map[string]any{{"vendor_id": uuid.NewString(), "shortfall_cents": 200}}}),
	}
	handler := Checkout(svc, nil)

	req := withCustomer(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody())), uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Message != "minimum order value not met" {
		t.Fatalf("unexpected message: %s", envelope.Error.Message)
	}
	if envelope.Error.Details["vendors"] == nil {
		t.Fatalf("expected shortfall details, got %+v", envelope.Error.Details)
	}
}

func TestSuperOrderDetailReturnsView(t *testing.T) {
	customerID := uuid.New()
	parentCheckoutID := uuid.New()
	svc := &stubOrderService{
		view: &orderssvc.SuperOrderView{
			ParentCheckoutID: parentCheckoutID,
			OverallStatus:    enums.OrderStatusConfirmed,
			TotalCents:       430,
		},
	}
	handler := SuperOrderDetail(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/checkouts/"+parentCheckoutID.String(), nil)
	req = routeRequest(withCustomer(req, customerID), map[string]string{"checkoutId": parentCheckoutID.String()})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data orderssvc.SuperOrderView `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OverallStatus != enums.OrderStatusConfirmed || envelope.Data.TotalCents != 430 {
		t.Fatalf("unexpected view: %+v", envelope.Data)
	}
}

func TestSuperOrderDetailBadID(t *testing.T) {
	handler := SuperOrderDetail(&stubOrderService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/checkouts/not-a-uuid", nil)
	req = routeRequest(withCustomer(req, uuid.New()), map[string]string{"checkoutId": "not-a-uuid"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCancelCheckoutReportsPartialOutcome(t *testing.T) {
	parentCheckoutID := uuid.New()
	cancelledID := uuid.New()
	keptID := uuid.New()
	svc := &stubOrderService{
		cancelled: &orderssvc.CancelCheckoutResult{
			ParentCheckoutID: parentCheckoutID,
			Cancelled:        []uuid.UUID{cancelledID},
			NotCancellable:   []uuid.UUID{keptID},
		},
	}
	handler := CancelCheckout(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkouts/"+parentCheckoutID.String()+"/cancel", strings.NewReader(`{"reason":"changed my mind"}`))
	req = routeRequest(withCustomer(req, uuid.New()), map[string]string{"checkoutId": parentCheckoutID.String()})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data orderssvc.CancelCheckoutResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Cancelled) != 1 || envelope.Data.Cancelled[0] != cancelledID {
		t.Fatalf("unexpected cancelled set: %+v", envelope.Data.Cancelled)
	}
	if len(envelope.Data.NotCancellable) != 1 || envelope.Data.NotCancellable[0] != keptID {
		t.Fatalf("unexpected not-cancellable set: %+v", envelope.Data.NotCancellable)
	}
}
