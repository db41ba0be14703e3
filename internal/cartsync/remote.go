package cartsync

import (
	"context"
	"fmt"

	"github.com/angelmondragon/bloomcart-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/types"
)

type remoteCart interface {
	Get(ctx context.Context, userID string) (*cart.CartDTO, error)
	Sync(ctx context.Context, userID string, input cart.SyncInput) (*cart.CartDTO, error)
	Clear(ctx context.Context, userID string) (*cart.CartDTO, error)
}

// RemoteRepository adapts the server-side cart service to Repository.
// A missing remote cart reads as empty and clears as a no-op.
type RemoteRepository struct {
	carts remoteCart
}

func NewRemoteRepository(carts remoteCart) (*RemoteRepository, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	return &RemoteRepository{carts: carts}, nil
}

func (r *RemoteRepository) Load(ctx context.Context, userID string) ([]Item, error) {
	dto, err := r.carts.Get(ctx, userID)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			return []Item{}, nil
		}
		return nil, err
	}
	items := make([]Item, 0, len(dto.Items))
	for _, line := range dto.Items {
		items = append(items, Item{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			ImageURL:  line.ImageURL,
			Discount:  line.Discount,
			Quantity:  line.Quantity,
		})
	}
	return items, nil
}

func (r *RemoteRepository) Save(ctx context.Context, userID string, items []Item, region types.Region) error {
	lines := make([]cart.ItemDTO, 0, len(items))
	for _, item := range items {
		lines = append(lines, cart.ItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			ImageURL:  item.ImageURL,
			Discount:  item.Discount,
			Quantity:  item.Quantity,
		})
	}
	_, err := r.carts.Sync(ctx, userID, cart.SyncInput{Items: lines, Region: region})
	return err
}

func (r *RemoteRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.carts.Clear(ctx, userID); err != nil && !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		return err
	}
	return nil
}
