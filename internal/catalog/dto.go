package catalog

import "github.com/google/uuid"

// ProductInfo is the slice of a catalog product the cart and checkout flows
// depend on. Prices here are live catalog prices, not cart snapshots.
type ProductInfo struct {
	ID         uuid.UUID
	VendorID   uuid.UUID
	Name       string
	PriceCents int
	Available  bool
}

// VendorTerms carries the commercial terms resolved fresh on every checkout.
type VendorTerms struct {
	VendorID         uuid.UUID
	Name             string
	DeliveryFeeCents int
	MinOrderCents    int
	ServiceAreas     []string
	Active           bool
}

// ServesArea reports whether the vendor delivers to the given area. Vendors
// with no configured areas deliver everywhere.
func (t VendorTerms) ServesArea(area string) bool {
	if len(t.ServiceAreas) == 0 {
		return true
	}
	for _, candidate := range t.ServiceAreas {
		if candidate == area {
			return true
		}
	}
	return false
}
