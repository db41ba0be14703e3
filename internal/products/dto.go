package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bloomcart-backend/pkg/db/models"
	"github.com/angelmondragon/bloomcart-backend/pkg/pricing"
)

// ProductDTO is the catalogue view of a product. Stocks is only filled on detail reads.
type ProductDTO struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	Category    string           `json:"category"`
	ImageURL    *string          `json:"image_url,omitempty"`
	BasePrice   int64            `json:"base_price"`
	Discount    pricing.Discount `json:"discount"`
	TotalStock  int              `json:"total_stock"`
	IsActive    bool             `json:"is_active"`
	IsNew       bool             `json:"is_new"`
	ImportedAt  time.Time        `json:"imported_at"`
	Stocks      []StockDTO       `json:"stocks,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// StockDTO is one row of the per-store ledger.
type StockDTO struct {
	StoreID   uuid.UUID `json:"store_id"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StockUpdateInput sets the quantity a store holds of a product.
type StockUpdateInput struct {
	ProductID uuid.UUID
	StoreID   uuid.UUID
	Quantity  int
}

// FromModel maps a product, computing the new flag against now.
func FromModel(m *models.Product, now time.Time) *ProductDTO {
	if m == nil {
		return nil
	}
	dto := &ProductDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Category:    m.Category,
		ImageURL:    m.ImageURL,
		BasePrice:   m.BasePrice,
		Discount:    m.Discount,
		TotalStock:  m.TotalStock,
		IsActive:    m.IsActive,
		IsNew:       m.IsNew(now),
		ImportedAt:  m.ImportedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if len(m.Stocks) > 0 {
		dto.Stocks = make([]StockDTO, 0, len(m.Stocks))
		for _, s := range m.Stocks {
			dto.Stocks = append(dto.Stocks, StockDTO{StoreID: s.StoreID, Quantity: s.Quantity, UpdatedAt: s.UpdatedAt})
		}
	}
	return dto
}
