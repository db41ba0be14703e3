package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegionalPrice is the surcharge added to every base price in a district.
type RegionalPrice struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	District        string    `gorm:"column:district;not null;uniqueIndex"`
	AdditionalPrice int64     `gorm:"column:additional_price;not null;default:0"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *RegionalPrice) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
