package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloomcart-backend/pkg/db/models"
	"github.com/angelmondragon/bloomcart-backend/pkg/geo"
	"github.com/angelmondragon/bloomcart-backend/pkg/pricing"
)

// MustCreateStore inserts an active store. A nil point leaves it without coordinates.
func MustCreateStore(t testing.TB, tx *gorm.DB, district, ward string, p *geo.Point) *models.Store {
	t.Helper()
	store := &models.Store{
		ID:       uuid.New(),
		Name:     fmt.Sprintf("Store %s", uuid.NewString()[:8]),
		Address:  "1 Đồng Khởi",
		District: district,
		Ward:     ward,
		IsActive: true,
	}
	store.SetLocation(p)
	if err := tx.Create(store).Error; err != nil {
		t.Fatalf("create store: %v", err)
	}
	return store
}

// MustCreateProduct inserts an active product imported at importedAt (now when zero).
func MustCreateProduct(t testing.TB, tx *gorm.DB, name string, basePrice int64, discount int, importedAt time.Time) *models.Product {
	t.Helper()
	if importedAt.IsZero() {
		importedAt = time.Now().UTC()
	}
	product := &models.Product{
		ID:         uuid.New(),
		Name:       name,
		Category:   "bouquet",
		BasePrice:  basePrice,
		Discount:   pricing.Discount(discount),
		IsActive:   true,
		ImportedAt: importedAt,
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

// MustSetStock writes a ledger row and keeps products.total_stock equal to the ledger sum.
func MustSetStock(t testing.TB, tx *gorm.DB, productID, storeID uuid.UUID, quantity int) {
	t.Helper()
	row := &models.ProductStock{ProductID: productID, StoreID: storeID, Quantity: quantity}
	if err := tx.Create(row).Error; err != nil {
		t.Fatalf("create stock: %v", err)
	}
	err := tx.Exec(
		"UPDATE products SET total_stock = (SELECT COALESCE(SUM(quantity), 0) FROM product_stocks WHERE product_id = ?) WHERE id = ?",
		productID, productID,
	).Error
	if err != nil {
		t.Fatalf("recompute total stock: %v", err)
	}
}
