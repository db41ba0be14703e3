package regional

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	product "github.com/angelmondragon/bloomcart-backend/internal/products"
	"github.com/angelmondragon/bloomcart-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/pricing"
	"github.com/angelmondragon/bloomcart-backend/pkg/types"
)

type catalogRepository interface {
	List(ctx context.Context, filter product.ListFilter) ([]models.Product, error)
}

// ProductView is a product priced and stocked for one region.
type ProductView struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	Category        string           `json:"category"`
	ImageURL        *string          `json:"image_url,omitempty"`
	BasePrice       int64            `json:"base_price"`
	AdditionalPrice int64            `json:"additional_price"`
	FinalBasePrice  int64            `json:"final_base_price"`
	Discount        pricing.Discount `json:"discount"`
	Price           int64            `json:"price"`
	RegionalStock   int              `json:"regional_stock"`
	Available       bool             `json:"available"`
	IsNew           bool             `json:"is_new"`
	ImportedAt      time.Time        `json:"imported_at"`
}

// Catalog answers "what can this region buy and at what price".
type Catalog interface {
	ProductsByRegion(ctx context.Context, region types.Region, category string) ([]ProductView, error)
}

type catalog struct {
	products catalogRepository
	stock    StockResolver
	prices   PriceResolver
	now      func() time.Time
}

// NewCatalog combines the stock and price resolvers over the product list.
func NewCatalog(products catalogRepository, stock StockResolver, prices PriceResolver) (Catalog, error) {
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock resolver required")
	}
	if prices == nil {
		return nil, fmt.Errorf("price resolver required")
	}
	return &catalog{products: products, stock: stock, prices: prices, now: time.Now}, nil
}

func (c *catalog) ProductsByRegion(ctx context.Context, region types.Region, category string) ([]ProductView, error) {
	list, err := c.products.List(ctx, product.ListFilter{Category: category, ActiveOnly: true})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	levels, err := c.stock.Resolve(ctx, region, list)
	if err != nil {
		return nil, err
	}
	additional, err := c.prices.AdditionalPrice(ctx, region.District)
	if err != nil {
		return nil, err
	}

	now := c.now()
	views := make([]ProductView, 0, len(list))
	for i, p := range list {
		quote := pricing.Resolve(p.BasePrice, additional, p.Discount)
		views = append(views, ProductView{
			ID:              p.ID,
			Name:            p.Name,
			Category:        p.Category,
			ImageURL:        p.ImageURL,
			BasePrice:       p.BasePrice,
			AdditionalPrice: additional,
			FinalBasePrice:  quote.FinalBasePrice,
			Discount:        quote.Discount,
			Price:           quote.Price,
			RegionalStock:   levels[i].RegionalStock,
			Available:       levels[i].Available,
			IsNew:           p.IsNew(now),
			ImportedAt:      p.ImportedAt,
		})
	}
	return views, nil
}
