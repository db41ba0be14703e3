package promotions

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/bloomcart-backend/pkg/db/models"
)

// Repository handles promotion persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, promo *models.Promotion) error {
	return r.db.WithContext(ctx).Create(promo).Error
}

// ListActive returns promotions flagged active. The date window is checked by the caller.
func (r *Repository) ListActive(ctx context.Context) ([]models.Promotion, error) {
	var rows []models.Promotion
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
