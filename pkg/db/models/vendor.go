package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Vendor carries the commercial terms the grouping engine resolves fresh on
// every checkout attempt: delivery fee and minimum order threshold.
type Vendor struct {
	ID               uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name             string         `gorm:"column:name;not null"`
	DeliveryFeeCents int            `gorm:"column:delivery_fee_cents;not null;default:0"`
	MinOrderCents    int            `gorm:"column:min_order_cents;not null;default:0"`
	ServiceAreas     pq.StringArray `gorm:"column:service_areas;type:text[]"`
	IsActive         bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
