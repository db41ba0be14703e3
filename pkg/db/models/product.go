package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloomcart-backend/pkg/pricing"
)

// NewProductWindow is how long after import a product is flagged as new.
const NewProductWindow = 7 * 24 * time.Hour

// Product is the catalogue entry. TotalStock mirrors SUM(product_stocks.quantity).
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name        string           `gorm:"column:name;not null"`
	Description *string          `gorm:"column:description"`
	Category    string           `gorm:"column:category;not null;default:''"`
	ImageURL    *string          `gorm:"column:image_url"`
	BasePrice   int64            `gorm:"column:base_price;not null"`
	Discount    pricing.Discount `gorm:"column:discount;not null;default:0"`
	TotalStock  int              `gorm:"column:total_stock;not null;default:0"`
	IsActive    bool             `gorm:"column:is_active;not null"`
	ImportedAt  time.Time        `gorm:"column:imported_at;not null"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`

	Stocks []ProductStock `gorm:"foreignKey:ProductID;references:ID"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	if p.ImportedAt.IsZero() {
		p.ImportedAt = time.Now().UTC()
	}
	return nil
}

// IsNew reports whether the product was imported within NewProductWindow of now.
func (p Product) IsNew(now time.Time) bool {
	if p.ImportedAt.IsZero() {
		return false
	}
	return now.Sub(p.ImportedAt) <= NewProductWindow
}

// ProductStock is the quantity of a product held by one store.
type ProductStock struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_product_stocks_product_store"`
	StoreID   uuid.UUID `gorm:"column:store_id;type:uuid;not null;uniqueIndex:idx_product_stocks_product_store"`
	Quantity  int       `gorm:"column:quantity;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *ProductStock) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
