package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloomcart-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type storeLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// Service exposes product reads and the admin stock edit.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	UpdateStoreStock(ctx context.Context, input StockUpdateInput) (*ProductDTO, error)
}

type service struct {
	repo   Repository
	stores storeLookup
	tx     txRunner
	logg   *logger.Logger
	now    func() time.Time
}

// NewService wires product operations.
func NewService(repo Repository, stores storeLookup, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store lookup required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:   repo,
		stores: stores,
		tx:     tx,
		logg:   logg,
		now:    time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByIDWithStocks(ctx, id)
	if err != nil {
		return nil, mapLoadError(err)
	}
	return FromModel(product, s.now()), nil
}

// UpdateStoreStock overwrites one store's quantity and recomputes the aggregate in the
// same transaction, so total_stock always equals the ledger sum after the edit.
func (s *service) UpdateStoreStock(ctx context.Context, input StockUpdateInput) (*ProductDTO, error) {
	if input.ProductID == uuid.Nil || input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id and store_id are required")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be zero or greater").
			WithDetails(map[string]any{"quantity": input.Quantity})
	}

	if _, err := s.stores.FindByID(ctx, input.StoreID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}

	var total int
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.LockForStockUpdate(ctx, input.ProductID); err != nil {
			return err
		}
		if err := repo.UpsertStoreStock(ctx, input.ProductID, input.StoreID, input.Quantity); err != nil {
			return err
		}
		var err error
		total, err = repo.RecomputeTotalStock(ctx, input.ProductID)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store stock")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"product_id":  input.ProductID.String(),
		"store_id":    input.StoreID.String(),
		"quantity":    input.Quantity,
		"total_stock": total,
	})
	s.logg.Info(logCtx, "store stock updated")

	return s.Get(ctx, input.ProductID)
}

func mapLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
}
