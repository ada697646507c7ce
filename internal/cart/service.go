package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/internal/catalog"
	"github.com/grocerly/grocerly-backend/pkg/db/models"
	pkgerrors "github.com/grocerly/grocerly-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the versioned cart operations. Every mutation carries the
// version the caller last saw; a mismatch fails with a conflict instead of
// silently merging concurrent edits.
type Service interface {
	GetOrCreate(ctx context.Context, customerID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, customerID uuid.UUID, input AddItemInput) (*models.Cart, error)
	UpdateItemQuantity(ctx context.Context, customerID uuid.UUID, input UpdateItemInput) (*models.Cart, error)
	RemoveItem(ctx context.Context, customerID, productID uuid.UUID, expectedVersion int) (*models.Cart, error)
	Clear(ctx context.Context, customerID uuid.UUID, expectedVersion int) (*models.Cart, error)
}

// AddItemInput captures an add-to-cart request.
type AddItemInput struct {
	ProductID       uuid.UUID
	Quantity        int
	ExpectedVersion int
}

// UpdateItemInput captures a quantity change for an existing line.
type UpdateItemInput struct {
	ProductID       uuid.UUID
	Quantity        int
	ExpectedVersion int
}

type service struct {
	repo    CartRepository
	tx      txRunner
	catalog catalog.Lookup
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, lookup catalog.Lookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if lookup == nil {
		return nil, fmt.Errorf("catalog lookup required")
	}
	return &service{repo: repo, tx: tx, catalog: lookup}, nil
}

// GetOrCreate returns the customer's cart, creating an empty one on first use.
func (s *service) GetOrCreate(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	record, err := s.repo.FindByCustomer(ctx, customerID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	created, err := s.repo.Create(ctx, &models.Cart{CustomerID: customerID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return created, nil
}

// AddItem upserts a cart line. An existing line for the product has its
// quantity incremented; a new line is appended after the last position with
// the catalog price and vendor snapshotted onto it.
func (s *service) AddItem(ctx context.Context, customerID uuid.UUID, input AddItemInput) (*models.Cart, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	record, err := s.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}

	product, err := s.catalog.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Available {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available").
			WithDetails(map[string]any{"product_id": product.ID.String()})
	}

	if err := s.mutate(ctx, record, input.ExpectedVersion, func(txRepo CartRepository) error {
		existing, err := txRepo.FindItem(ctx, record.ID, input.ProductID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if existing != nil {
			existing.Quantity += input.Quantity
			return txRepo.SaveItem(ctx, existing)
		}
		return txRepo.SaveItem(ctx, &models.CartItem{
			CartID:         record.ID,
			ProductID:      product.ID,
			VendorID:       product.VendorID,
			ProductName:    product.Name,
			UnitPriceCents: product.PriceCents,
			Quantity:       input.Quantity,
			Position:       nextPosition(record.Items),
		})
	}); err != nil {
		return nil, err
	}

	return s.reload(ctx, customerID)
}

// UpdateItemQuantity sets the quantity for an existing line.
func (s *service) UpdateItemQuantity(ctx context.Context, customerID uuid.UUID, input UpdateItemInput) (*models.Cart, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	record, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if err := s.mutate(ctx, record, input.ExpectedVersion, func(txRepo CartRepository) error {
		existing, err := txRepo.FindItem(ctx, record.ID, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return err
		}
		existing.Quantity = input.Quantity
		return txRepo.SaveItem(ctx, existing)
	}); err != nil {
		return nil, err
	}

	return s.reload(ctx, customerID)
}

// RemoveItem deletes a line from the cart.
func (s *service) RemoveItem(ctx context.Context, customerID, productID uuid.UUID, expectedVersion int) (*models.Cart, error) {
	record, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if err := s.mutate(ctx, record, expectedVersion, func(txRepo CartRepository) error {
		if _, err := txRepo.FindItem(ctx, record.ID, productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return err
		}
		return txRepo.DeleteItem(ctx, record.ID, productID)
	}); err != nil {
		return nil, err
	}

	return s.reload(ctx, customerID)
}

// Clear removes every line. Clearing still bumps the version so a checkout
// racing against it fails cleanly.
func (s *service) Clear(ctx context.Context, customerID uuid.UUID, expectedVersion int) (*models.Cart, error) {
	record, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if err := s.mutate(ctx, record, expectedVersion, func(txRepo CartRepository) error {
		return txRepo.DeleteItems(ctx, record.ID)
	}); err != nil {
		return nil, err
	}

	return s.reload(ctx, customerID)
}

// mutate applies fn inside a transaction after winning the version check.
func (s *service) mutate(ctx context.Context, record *models.Cart, expectedVersion int, fn func(txRepo CartRepository) error) error {
	if expectedVersion < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "expected version is required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		ok, err := txRepo.BumpVersion(ctx, record.ID, expectedVersion)
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "cart was modified concurrently, please retry").
				WithDetails(map[string]any{"expected_version": expectedVersion})
		}
		return fn(txRepo)
	})
}

func (s *service) load(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	record, err := s.repo.FindByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return record, nil
}

func (s *service) reload(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	record, err := s.repo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return record, nil
}

func nextPosition(items []models.CartItem) int {
	next := 0
	for _, item := range items {
		if item.Position >= next {
			next = item.Position + 1
		}
	}
	return next
}
