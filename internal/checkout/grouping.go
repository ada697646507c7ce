package checkout

import (
	"context"

	"github.com/google/uuid"

	"github.com/grocerly/grocerly-backend/internal/catalog"
	"github.com/grocerly/grocerly-backend/pkg/db/models"
	pkgerrors "github.com/grocerly/grocerly-backend/pkg/errors"
)

// VendorGroup is one vendor's slice of the cart, priced with the snapshot
// prices the shopper saw and the vendor's terms resolved fresh.
type VendorGroup struct {
	VendorID         uuid.UUID
	VendorName       string
	Items            []models.CartItem
	SubtotalCents    int
	DeliveryFeeCents int
	MinOrderCents    int
	MeetsMinimum     bool
	ShortfallCents   int
}

// BuildVendorGroups partitions cart items by vendor. Vendors appear in the
// order their first item was added to the cart, and each group keeps the cart
// insertion order of its items. Availability and vendor terms are resolved
// against the live catalog on every call, never cached here.
func BuildVendorGroups(ctx context.Context, items []models.CartItem, lookup catalog.Lookup, deliveryArea string) ([]VendorGroup, error) {
	if lookup == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog lookup required")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	groupIndex := map[uuid.UUID]int{}
	groups := []VendorGroup{}

	for i := range items {
		item := items[i]
		product, err := lookup.GetProduct(ctx, item.ProductID)
		if err != nil {
			appErr := pkgerrors.As(err)
			if appErr != nil && appErr.Code() == pkgerrors.CodeNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is no longer available").
					WithDetails(map[string]any{"product_id": item.ProductID.String()})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve product")
		}
		if !product.Available {
			// One unavailable product fails the whole grouping; items are
			// never silently dropped.
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is no longer available").
				WithDetails(map[string]any{"product_id": item.ProductID.String()})
		}

		idx, seen := groupIndex[item.VendorID]
		if !seen {
			terms, err := lookup.GetVendorTerms(ctx, item.VendorID)
			if err != nil {
				appErr := pkgerrors.As(err)
				if appErr != nil && appErr.Code() == pkgerrors.CodeNotFound {
					return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor is no longer available").
						WithDetails(map[string]any{"vendor_id": item.VendorID.String()})
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve vendor terms")
			}
			if !terms.Active {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor is no longer available").
					WithDetails(map[string]any{"vendor_id": item.VendorID.String()})
			}
			if deliveryArea != "" && !terms.ServesArea(deliveryArea) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor does not deliver to this area").
					WithDetails(map[string]any{
						"vendor_id": item.VendorID.String(),
						"area":      deliveryArea,
					})
			}
			groups = append(groups, VendorGroup{
				VendorID:         item.VendorID,
				VendorName:       terms.Name,
				DeliveryFeeCents: terms.DeliveryFeeCents,
				MinOrderCents:    terms.MinOrderCents,
			})
			idx = len(groups) - 1
			groupIndex[item.VendorID] = idx
		}

		group := &groups[idx]
		group.Items = append(group.Items, item)
		group.SubtotalCents += item.UnitPriceCents * item.Quantity
	}

	for i := range groups {
		group := &groups[i]
		group.MeetsMinimum = group.SubtotalCents >= group.MinOrderCents
		if !group.MeetsMinimum {
			group.ShortfallCents = group.MinOrderCents - group.SubtotalCents
		}
	}
	return groups, nil
}
