package cartdto

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/bloomcart-backend/pkg/pricing"
)

// RegionFields is the delivery region a cart request is priced and stocked for.
type RegionFields struct {
	District string     `json:"district,omitempty" validate:"max=100"`
	Ward     string     `json:"ward,omitempty" validate:"max=100"`
	StoreID  *uuid.UUID `json:"store_id,omitempty"`
}

// AddItemRequest adds quantity to the user's remote cart.
type AddItemRequest struct {
	UserID    string    `json:"user_id,omitempty" validate:"max=128"`
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
	RegionFields
}

// UpdateItemRequest sets the quantity of an existing line.
type UpdateItemRequest struct {
	UserID    string    `json:"user_id,omitempty" validate:"max=128"`
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"min=1"`
	RegionFields
}

// SyncItem is one pushed line. Only product_id and quantity are trusted.
type SyncItem struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Name      string           `json:"name,omitempty"`
	Price     int64            `json:"price,omitempty"`
	ImageURL  *string          `json:"image_url,omitempty"`
	Discount  pricing.Discount `json:"discount,omitempty"`
	Quantity  int              `json:"quantity" validate:"min=1"`
}

// SyncRequest replaces the remote cart with the pushed list.
type SyncRequest struct {
	UserID string     `json:"user_id,omitempty" validate:"max=128"`
	Items  []SyncItem `json:"items" validate:"max=200,dive"`
	RegionFields
}

// SessionItemRequest adds to the session cart.
type SessionItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// SessionQuantityRequest sets a session cart line quantity.
type SessionQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=1"`
}

// RegionRequest picks the session delivery region. An empty district clears it.
type RegionRequest struct {
	District string `json:"district" validate:"max=100"`
	Ward     string `json:"ward,omitempty" validate:"max=100"`
}
