package regional

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloomcart-backend/internal/stores"
	"github.com/angelmondragon/bloomcart-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/types"
)

type districtLocator interface {
	ByDistrict(ctx context.Context, district, ward string) ([]stores.StoreDTO, error)
}

type storeLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type stockRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	StockLedger(ctx context.Context, productIDs, storeIDs []uuid.UUID) ([]models.ProductStock, error)
}

// StockLevel is a product's quantity inside the candidate store set.
type StockLevel struct {
	ProductID     uuid.UUID `json:"product_id"`
	RegionalStock int       `json:"regional_stock"`
	Available     bool      `json:"available"`
}

// StockResolver restricts stock to the stores serving a region.
type StockResolver interface {
	// CandidateStores returns nil for a zero region, meaning no restriction.
	CandidateStores(ctx context.Context, region types.Region) ([]uuid.UUID, error)
	// Resolve returns one level per product in input order; unavailable products are kept.
	Resolve(ctx context.Context, region types.Region, products []models.Product) ([]StockLevel, error)
	AvailableQuantity(ctx context.Context, region types.Region, productID uuid.UUID) (int, error)
}

type stockResolver struct {
	locator districtLocator
	stores  storeLookup
	stock   stockRepository
}

// NewStockResolver builds a StockResolver.
func NewStockResolver(locator districtLocator, storesRepo storeLookup, stock stockRepository) (StockResolver, error) {
	if locator == nil {
		return nil, fmt.Errorf("store locator required")
	}
	if storesRepo == nil {
		return nil, fmt.Errorf("store lookup required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	return &stockResolver{locator: locator, stores: storesRepo, stock: stock}, nil
}

func (r *stockResolver) CandidateStores(ctx context.Context, region types.Region) ([]uuid.UUID, error) {
	switch {
	case region.HasStore():
		store, err := r.stores.FindByID(ctx, *region.StoreID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
		}
		if !store.IsActive {
			return []uuid.UUID{}, nil
		}
		return []uuid.UUID{store.ID}, nil
	case region.HasDistrict():
		list, err := r.locator.ByDistrict(ctx, region.District, "")
		if err != nil {
			return nil, err
		}
		ids := make([]uuid.UUID, 0, len(list))
		for _, s := range list {
			ids = append(ids, s.ID)
		}
		return ids, nil
	default:
		return nil, nil
	}
}

func (r *stockResolver) Resolve(ctx context.Context, region types.Region, products []models.Product) ([]StockLevel, error) {
	levels := make([]StockLevel, len(products))
	for i, p := range products {
		levels[i].ProductID = p.ID
	}
	if len(products) == 0 {
		return levels, nil
	}

	if region.IsZero() {
		for i, p := range products {
			levels[i].RegionalStock = p.TotalStock
			levels[i].Available = p.TotalStock > 0
		}
		return levels, nil
	}

	candidates, err := r.CandidateStores(ctx, region)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return levels, nil
	}

	productIDs := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		productIDs = append(productIDs, p.ID)
	}
	rows, err := r.stock.StockLedger(ctx, productIDs, candidates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock ledger")
	}

	sums := make(map[uuid.UUID]int, len(products))
	for _, row := range rows {
		sums[row.ProductID] += row.Quantity
	}
	for i := range levels {
		levels[i].RegionalStock = sums[levels[i].ProductID]
		levels[i].Available = levels[i].RegionalStock > 0
	}
	return levels, nil
}

func (r *stockResolver) AvailableQuantity(ctx context.Context, region types.Region, productID uuid.UUID) (int, error) {
	product, err := r.stock.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	levels, err := r.Resolve(ctx, region, []models.Product{*product})
	if err != nil {
		return 0, err
	}
	return levels[0].RegionalStock, nil
}
