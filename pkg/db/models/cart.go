package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/grocerly/grocerly-backend/pkg/enums"
)

// Cart is the single unified cart per customer. Version increments on every
// mutation and guards checkout against concurrent edits.
type Cart struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID        `gorm:"column:customer_id;type:uuid;not null;uniqueIndex:ux_carts_customer"`
	Status     enums.CartStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Version    int              `gorm:"column:version;not null;default:1"`
	Items      []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
