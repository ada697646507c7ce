package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/pkg/db/models"
	pkgerrors "github.com/grocerly/grocerly-backend/pkg/errors"
)

type repository interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
}

// Lookup is the catalog surface consumed by cart and checkout. It never
// caches: vendor terms and availability are resolved from the tables on every
// call.
type Lookup interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductInfo, error)
	GetVendorTerms(ctx context.Context, vendorID uuid.UUID) (*VendorTerms, error)
}

type service struct {
	repo repository
}

// NewService builds the catalog lookup backed by the provided repository.
func NewService(repo repository) (Lookup, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// GetProduct returns price, owning vendor, and availability for the product.
func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductInfo, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": productID.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return &ProductInfo{
		ID:         product.ID,
		VendorID:   product.VendorID,
		Name:       product.Name,
		PriceCents: product.PriceCents,
		Available:  product.IsActive,
	}, nil
}

// GetVendorTerms returns the vendor's delivery fee and minimum order threshold.
func (s *service) GetVendorTerms(ctx context.Context, vendorID uuid.UUID) (*VendorTerms, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	vendor, err := s.repo.FindVendor(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found").
				WithDetails(map[string]any{"vendor_id": vendorID.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	return &VendorTerms{
		VendorID:         vendor.ID,
		Name:             vendor.Name,
		DeliveryFeeCents: vendor.DeliveryFeeCents,
		MinOrderCents:    vendor.MinOrderCents,
		ServiceAreas:     vendor.ServiceAreas,
		Active:           vendor.IsActive,
	}, nil
}
