package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/bloomcart-backend/pkg/db/types"
	"github.com/angelmondragon/bloomcart-backend/pkg/enums"
)

type Promotion struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Name        string               `gorm:"column:name;not null"`
	Description *string              `gorm:"column:description"`
	Scope       enums.PromotionScope `gorm:"column:scope;not null;default:'ALL'"`
	Discount    int                  `gorm:"column:discount;not null;default:0"`
	Districts   dbtypes.StringList   `gorm:"column:districts;type:text;not null;default:'[]'"`
	StoreIDs    dbtypes.StringList   `gorm:"column:store_ids;type:text;not null;default:'[]'"`
	ProductIDs  dbtypes.StringList   `gorm:"column:product_ids;type:text;not null;default:'[]'"`
	StartsAt    *time.Time           `gorm:"column:starts_at"`
	EndsAt      *time.Time           `gorm:"column:ends_at"`
	IsActive    bool                 `gorm:"column:is_active;not null"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Promotion) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// Running reports whether now falls inside the promotion window. Open ends are unbounded.
func (p Promotion) Running(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return false
	}
	if p.EndsAt != nil && now.After(*p.EndsAt) {
		return false
	}
	return true
}
