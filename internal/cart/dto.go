package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bloomcart-backend/pkg/db/models"
	"github.com/angelmondragon/bloomcart-backend/pkg/pricing"
	"github.com/angelmondragon/bloomcart-backend/pkg/types"
)

// ItemDTO is one cart line as the client sees it.
type ItemDTO struct {
	ProductID uuid.UUID        `json:"product_id"`
	Name      string           `json:"name"`
	Price     int64            `json:"price"`
	ImageURL  *string          `json:"image_url,omitempty"`
	Discount  pricing.Discount `json:"discount"`
	Quantity  int              `json:"quantity"`
}

// CartDTO is the remote cart of one user.
type CartDTO struct {
	UserID    string    `json:"user_id"`
	Items     []ItemDTO `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AddInput adds Quantity of a product, merging into an existing line.
type AddInput struct {
	ProductID uuid.UUID
	Quantity  int
	Region    types.Region
}

// UpdateInput sets the quantity of an existing line.
type UpdateInput struct {
	ProductID uuid.UUID
	Quantity  int
	Region    types.Region
}

// SyncInput carries the full item list pushed by a client.
type SyncInput struct {
	Items  []ItemDTO
	Region types.Region
}

func fromModel(cart *models.Cart) *CartDTO {
	out := &CartDTO{UserID: cart.UserID, Items: make([]ItemDTO, 0, len(cart.Items)), UpdatedAt: cart.UpdatedAt}
	for _, item := range cart.Items {
		out.Items = append(out.Items, ItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			ImageURL:  item.ImageURL,
			Discount:  pricing.Discount(item.Discount),
			Quantity:  item.Quantity,
		})
	}
	return out
}

// emptyCart is what Get-style reads return for a user that has never added anything.
func emptyCart(userID string) *CartDTO {
	return &CartDTO{UserID: userID, Items: []ItemDTO{}}
}

func findLine(cart *models.Cart, productID uuid.UUID) *models.CartItem {
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			return &cart.Items[i]
		}
	}
	return nil
}
