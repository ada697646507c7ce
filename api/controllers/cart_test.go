package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/grocerly/grocerly-backend/api/middleware"
	cartsvc "github.com/grocerly/grocerly-backend/internal/cart"
	"github.com/grocerly/grocerly-backend/pkg/db/models"
	pkgerrors "github.com/grocerly/grocerly-backend/pkg/errors"
)

type stubCartService struct {
	record *models.Cart
	err    error
	added  *cartsvc.AddItemInput
}

func (s *stubCartService) GetOrCreate(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	return s.record, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, customerID uuid.UUID, input cartsvc.AddItemInput) (*models.Cart, error) {
	s.added = &input
	return s.record, s.err
}

func (s *stubCartService) UpdateItemQuantity(ctx context.Context, customerID uuid.UUID, input cartsvc.UpdateItemInput) (*models.Cart, error) {
	return s.record, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, customerID uuid.UUID, productID uuid.UUID, expectedVersion int) (*models.Cart, error) {
	return s.record, s.err
}

func (s *stubCartService) Clear(ctx context.Context, customerID uuid.UUID, expectedVersion int) (*models.Cart, error) {
	return s.record, s.err
}

func withCustomer(req *http.Request, customerID uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithCustomerID(req.Context(), customerID.String()))
}

func TestCartFetchSuccess(t *testing.T) {
	customerID := uuid.New()
	record := &models.Cart{
		ID:         uuid.New(),
		CustomerID: customerID,
		Version:    3,
		Items: []models.CartItem{
			{ProductID: uuid.New(), VendorID: uuid.New(), ProductName: "Apples", UnitPriceCents: 250, Quantity: 2},
		},
	}
	handler := CartFetch(&stubCartService{record: record}, nil)

	req := withCustomer(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), customerID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data cartResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.CartID != record.ID {
		t.Fatalf("unexpected cart id: %s", envelope.Data.CartID)
	}
	if envelope.Data.SubtotalCents != 500 || envelope.Data.Subtotal != "5.00" {
		t.Fatalf("unexpected subtotal: %d %s", envelope.Data.SubtotalCents, envelope.Data.Subtotal)
	}
	if envelope.Data.Items[0].LineTotalCents != 500 {
		t.Fatalf("unexpected line total: %d", envelope.Data.Items[0].LineTotalCents)
	}
}

func TestCartFetchMissingIdentity(t *testing.T) {
	handler := CartFetch(&stubCartService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartAddItemValidatesBody(t *testing.T) {
	handler := CartAddItem(&stubCartService{}, nil)

	body := `{"product_id":"` + uuid.NewString() + `","quantity":0,"expected_version":1}`
	req := withCustomer(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body)), uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero quantity got %d", resp.Code)
	}
}

func TestCartAddItemPassesInput(t *testing.T) {
	customerID := uuid.New()
	productID := uuid.New()
	svc := &stubCartService{record: &models.Cart{ID: uuid.New(), CustomerID: customerID, Version: 2}}
	handler := CartAddItem(svc, nil)

	body := `{"product_id":"` + productID.String() + `","quantity":3,"expected_version":1}`
	req := withCustomer(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body)), customerID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.added == nil || svc.added.ProductID != productID || svc.added.Quantity != 3 || svc.added.ExpectedVersion != 1 {
		t.Fatalf("unexpected input: %+v", svc.added)
	}
}

func TestCartClearConflict(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeConflict, "cart was modified concurrently, please retry")}
	handler := CartClear(svc, nil)

	req := withCustomer(httptest.NewRequest(http.MethodDelete, "/api/v1/cart?expected_version=1", nil), uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}
