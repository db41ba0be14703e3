package cartsync

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/bloomcart-backend/pkg/pricing"
	"github.com/angelmondragon/bloomcart-backend/pkg/types"
)

// Item is a cart line snapshot. The same shape is stored locally and pushed remotely.
type Item struct {
	ProductID uuid.UUID        `json:"product_id"`
	Name      string           `json:"name"`
	Price     int64            `json:"price"`
	ImageURL  *string          `json:"image_url,omitempty"`
	Discount  pricing.Discount `json:"discount"`
	Quantity  int              `json:"quantity"`
}

// Repository is one cart backend. owner is a guest id locally and a user id remotely.
type Repository interface {
	Load(ctx context.Context, owner string) ([]Item, error)
	Save(ctx context.Context, owner string, items []Item, region types.Region) error
	Clear(ctx context.Context, owner string) error
}

// MergeFunc folds incoming lines into base and returns the new list.
type MergeFunc func(base, incoming []Item) []Item

// MergeByProduct keeps one line per product id. Quantities add up and the latest snapshot
// wins. Lines keep the position where their product first appeared.
func MergeByProduct(base, incoming []Item) []Item {
	out := make([]Item, 0, len(base)+len(incoming))
	index := make(map[uuid.UUID]int, len(base)+len(incoming))
	for _, src := range [][]Item{base, incoming} {
		for _, item := range src {
			if pos, ok := index[item.ProductID]; ok {
				qty := out[pos].Quantity + item.Quantity
				out[pos] = item
				out[pos].Quantity = qty
				continue
			}
			index[item.ProductID] = len(out)
			out = append(out, item)
		}
	}
	return out
}

// Session identifies whose cart a request works on. GuestID names the local cart;
// UserID is set once the shopper is authenticated.
type Session struct {
	GuestID string
	UserID  string
}

func (s Session) Authenticated() bool {
	return strings.TrimSpace(s.UserID) != ""
}

func (s Session) localKey() string {
	if id := strings.TrimSpace(s.GuestID); id != "" {
		return id
	}
	if s.Authenticated() {
		return "user-" + strings.TrimSpace(s.UserID)
	}
	return ""
}

func quantityOf(items []Item, productID uuid.UUID) (int, bool) {
	for _, item := range items {
		if item.ProductID == productID {
			return item.Quantity, true
		}
	}
	return 0, false
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
