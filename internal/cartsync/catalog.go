package cartsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloomcart-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/pricing"
	"github.com/angelmondragon/bloomcart-backend/pkg/types"
)

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type regionalPricer interface {
	Quote(ctx context.Context, region types.Region, basePrice int64, discount any) (pricing.Quote, error)
}

// CatalogSnapshots builds line snapshots from the catalogue at the region's price.
type CatalogSnapshots struct {
	products productFinder
	prices   regionalPricer
}

func NewCatalogSnapshots(products productFinder, prices regionalPricer) (*CatalogSnapshots, error) {
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if prices == nil {
		return nil, fmt.Errorf("regional pricer required")
	}
	return &CatalogSnapshots{products: products, prices: prices}, nil
}

// Snapshot returns a zero-quantity line for the product.
func (c *CatalogSnapshots) Snapshot(ctx context.Context, region types.Region, productID uuid.UUID) (Item, error) {
	product, err := c.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Item{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": productID.String()})
		}
		return Item{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "product is not available").
			WithDetails(map[string]any{"product_id": productID.String()})
	}
	quote, err := c.prices.Quote(ctx, region, product.BasePrice, product.Discount)
	if err != nil {
		return Item{}, err
	}
	return Item{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     quote.FinalBasePrice,
		ImageURL:  product.ImageURL,
		Discount:  quote.Discount,
	}, nil
}
