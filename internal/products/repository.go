package product

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/bloomcart-backend/pkg/db/models"
)

// ListFilter narrows catalogue reads. Empty fields do not filter.
type ListFilter struct {
	Category   string
	ActiveOnly bool
}

// Repository is the product and per-store stock persistence surface.
type Repository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDWithStocks(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	List(ctx context.Context, filter ListFilter) ([]models.Product, error)
	StockLedger(ctx context.Context, productIDs, storeIDs []uuid.UUID) ([]models.ProductStock, error)
	LockForStockUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpsertStoreStock(ctx context.Context, productID, storeID uuid.UUID, quantity int) error
	RecomputeTotalStock(ctx context.Context, productID uuid.UUID) (int, error)
	WithTx(tx *gorm.DB) Repository
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// FindByID loads the product without associations.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDWithStocks loads the product and its per-store ledger.
func (r *repository) FindByIDWithStocks(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Stocks", func(db *gorm.DB) *gorm.DB { return db.Order("store_id ASC") }).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads the listed products with their ledgers. Missing ids are skipped.
func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var products []models.Product
	if err := r.db.WithContext(ctx).Preload("Stocks").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// List returns products ordered newest import first, with their ledgers.
func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Preload("Stocks")
	if c := strings.TrimSpace(filter.Category); c != "" {
		q = q.Where("category = ?", c)
	}
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	var products []models.Product
	if err := q.Order("imported_at DESC, name ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// StockLedger returns ledger rows for productIDs held by any of storeIDs.
func (r *repository) StockLedger(ctx context.Context, productIDs, storeIDs []uuid.UUID) ([]models.ProductStock, error) {
	if len(productIDs) == 0 || len(storeIDs) == 0 {
		return []models.ProductStock{}, nil
	}
	var rows []models.ProductStock
	err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Where("store_id IN ?", storeIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// LockForStockUpdate loads the product row, taking a row lock where the dialect supports it.
func (r *repository) LockForStockUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var product models.Product
	if err := q.First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// UpsertStoreStock sets the quantity for (product, store); the latest write wins.
func (r *repository) UpsertStoreStock(ctx context.Context, productID, storeID uuid.UUID, quantity int) error {
	row := models.ProductStock{
		ProductID: productID,
		StoreID:   storeID,
		Quantity:  quantity,
		UpdatedAt: time.Now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "store_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
		}).
		Create(&row).Error
}

// RecomputeTotalStock rewrites products.total_stock from the ledger and returns the new total.
func (r *repository) RecomputeTotalStock(ctx context.Context, productID uuid.UUID) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.ProductStock{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	err = r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{"total_stock": total, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}
