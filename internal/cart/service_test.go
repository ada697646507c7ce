package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/internal/catalog"
	"github.com/grocerly/grocerly-backend/pkg/db/models"
	pkgerrors "github.com/grocerly/grocerly-backend/pkg/errors"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubCatalog struct {
	products map[uuid.UUID]*catalog.ProductInfo
}

func (s *stubCatalog) GetProduct(ctx context.Context, productID uuid.UUID) (*catalog.ProductInfo, error) {
	if info, ok := s.products[productID]; ok {
		return info, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (s *stubCatalog) GetVendorTerms(ctx context.Context, vendorID uuid.UUID) (*catalog.VendorTerms, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
}

// stubRepo keeps a single cart in memory and mimics the version guard.
type stubRepo struct {
	cart  *models.Cart
	items map[uuid.UUID]*models.CartItem
}

func newStubRepo() *stubRepo {
	return &stubRepo{items: map[uuid.UUID]*models.CartItem{}}
}

func (s *stubRepo) WithTx(tx *gorm.DB) CartRepository { return s }

func (s *stubRepo) FindByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	if s.cart == nil || s.cart.CustomerID != customerID {
		return nil, gorm.ErrRecordNotFound
	}
	snapshot := *s.cart
	snapshot.Items = nil
	for _, item := range s.items {
		snapshot.Items = append(snapshot.Items, *item)
	}
	return &snapshot, nil
}

func (s *stubRepo) Create(ctx context.Context, record *models.Cart) (*models.Cart, error) {
	record.ID = uuid.New()
	record.Version = 1
	s.cart = record
	return record, nil
}

func (s *stubRepo) FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	if item, ok := s.items[productID]; ok {
		return item, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) SaveItem(ctx context.Context, item *models.CartItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	s.items[item.ProductID] = item
	return nil
}

func (s *stubRepo) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error {
	delete(s.items, productID)
	return nil
}

func (s *stubRepo) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	s.items = map[uuid.UUID]*models.CartItem{}
	return nil
}

func (s *stubRepo) BumpVersion(ctx context.Context, cartID uuid.UUID, expectedVersion int) (bool, error) {
	if s.cart == nil || s.cart.Version != expectedVersion {
		return false, nil
	}
	s.cart.Version++
	return true, nil
}

func newTestService(t *testing.T, repo *stubRepo, products map[uuid.UUID]*catalog.ProductInfo) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, &stubCatalog{products: products})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestGetOrCreate_CreatesOnFirstUse(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, nil)
	customerID := uuid.New()

	record, err := svc.GetOrCreate(context.Background(), customerID)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if record.Version != 1 {
		t.Fatalf("expected version 1, got %d", record.Version)
	}

	again, err := svc.GetOrCreate(context.Background(), customerID)
	if err != nil {
		t.Fatalf("GetOrCreate second call: %v", err)
	}
	if again.ID != record.ID {
		t.Fatalf("expected the same cart to be returned")
	}
}

func TestAddItem_SnapshotsPriceAndVendor(t *testing.T) {
	repo := newStubRepo()
	productID := uuid.New()
	vendorID := uuid.New()
	svc := newTestService(t, repo, map[uuid.UUID]*catalog.ProductInfo{
		productID: {ID: productID, VendorID: vendorID, Name: "Whole Milk", PriceCents: 450, Available: true},
	})
	customerID := uuid.New()

	if _, err := svc.GetOrCreate(context.Background(), customerID); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	record, err := svc.AddItem(context.Background(), customerID, AddItemInput{
		ProductID:       productID,
		Quantity:        2,
		ExpectedVersion: 1,
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if len(record.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(record.Items))
	}
	item := record.Items[0]
	if item.UnitPriceCents != 450 || item.VendorID != vendorID || item.ProductName != "Whole Milk" {
		t.Fatalf("snapshot mismatch: %+v", item)
	}
	if item.Quantity != 2 || item.Position != 0 {
		t.Fatalf("unexpected item state: %+v", item)
	}
	if record.Version != 2 {
		t.Fatalf("expected version bump to 2, got %d", record.Version)
	}
}

func TestAddItem_ExistingLineIncrementsQuantity(t *testing.T) {
	repo := newStubRepo()
	productID := uuid.New()
	svc := newTestService(t, repo, map[uuid.UUID]*catalog.ProductInfo{
		productID: {ID: productID, VendorID: uuid.New(), Name: "Eggs", PriceCents: 350, Available: true},
	})
	customerID := uuid.New()

	if _, err := svc.AddItem(context.Background(), customerID, AddItemInput{ProductID: productID, Quantity: 1, ExpectedVersion: 1}); err != nil {
		t.Fatalf("first AddItem: %v", err)
	}
	record, err := svc.AddItem(context.Background(), customerID, AddItemInput{ProductID: productID, Quantity: 3, ExpectedVersion: 2})
	if err != nil {
		t.Fatalf("second AddItem: %v", err)
	}
	if len(record.Items) != 1 {
		t.Fatalf("expected upsert to keep a single line, got %d", len(record.Items))
	}
	if record.Items[0].Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", record.Items[0].Quantity)
	}
}

func TestAddItem_StaleVersionConflicts(t *testing.T) {
	repo := newStubRepo()
	productID := uuid.New()
	svc := newTestService(t, repo, map[uuid.UUID]*catalog.ProductInfo{
		productID: {ID: productID, VendorID: uuid.New(), Name: "Bread", PriceCents: 250, Available: true},
	})
	customerID := uuid.New()

	if _, err := svc.AddItem(context.Background(), customerID, AddItemInput{ProductID: productID, Quantity: 1, ExpectedVersion: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	_, err := svc.AddItem(context.Background(), customerID, AddItemInput{ProductID: productID, Quantity: 1, ExpectedVersion: 1})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAddItem_UnavailableProductRejected(t *testing.T) {
	repo := newStubRepo()
	productID := uuid.New()
	svc := newTestService(t, repo, map[uuid.UUID]*catalog.ProductInfo{
		productID: {ID: productID, VendorID: uuid.New(), Name: "Seasonal Berries", PriceCents: 799, Available: false},
	})

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{ProductID: productID, Quantity: 1, ExpectedVersion: 1})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddItem_QuantityMustBePositive(t *testing.T) {
	svc := newTestService(t, newStubRepo(), nil)
	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{ProductID: uuid.New(), Quantity: 0, ExpectedVersion: 1})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateItemQuantity(t *testing.T) {
	repo := newStubRepo()
	productID := uuid.New()
	svc := newTestService(t, repo, map[uuid.UUID]*catalog.ProductInfo{
		productID: {ID: productID, VendorID: uuid.New(), Name: "Butter", PriceCents: 550, Available: true},
	})
	customerID := uuid.New()

	if _, err := svc.AddItem(context.Background(), customerID, AddItemInput{ProductID: productID, Quantity: 1, ExpectedVersion: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	record, err := svc.UpdateItemQuantity(context.Background(), customerID, UpdateItemInput{
		ProductID:       productID,
		Quantity:        5,
		ExpectedVersion: 2,
	})
	if err != nil {
		t.Fatalf("UpdateItemQuantity: %v", err)
	}
	if record.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", record.Items[0].Quantity)
	}
}

func TestUpdateItemQuantity_MissingLine(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, nil)
	customerID := uuid.New()
	if _, err := svc.GetOrCreate(context.Background(), customerID); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	_, err := svc.UpdateItemQuantity(context.Background(), customerID, UpdateItemInput{
		ProductID:       uuid.New(),
		Quantity:        2,
		ExpectedVersion: 1,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoveItemAndClear(t *testing.T) {
	repo := newStubRepo()
	first := uuid.New()
	second := uuid.New()
	svc := newTestService(t, repo, map[uuid.UUID]*catalog.ProductInfo{
		first:  {ID: first, VendorID: uuid.New(), Name: "Apples", PriceCents: 199, Available: true},
		second: {ID: second, VendorID: uuid.New(), Name: "Pears", PriceCents: 299, Available: true},
	})
	customerID := uuid.New()

	if _, err := svc.AddItem(context.Background(), customerID, AddItemInput{ProductID: first, Quantity: 1, ExpectedVersion: 1}); err != nil {
		t.Fatalf("AddItem first: %v", err)
	}
	if _, err := svc.AddItem(context.Background(), customerID, AddItemInput{ProductID: second, Quantity: 1, ExpectedVersion: 2}); err != nil {
		t.Fatalf("AddItem second: %v", err)
	}

	record, err := svc.RemoveItem(context.Background(), customerID, first, 3)
	if err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if len(record.Items) != 1 || record.Items[0].ProductID != second {
		t.Fatalf("unexpected items after remove: %+v", record.Items)
	}

	record, err = svc.Clear(context.Background(), customerID, 4)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(record.Items) != 0 {
		t.Fatalf("expected empty cart after clear")
	}
	if record.Version != 5 {
		t.Fatalf("expected clear to bump version, got %d", record.Version)
	}
}
