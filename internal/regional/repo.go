package regional

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/bloomcart-backend/pkg/db/models"
)

// PriceRepository persists district surcharges.
type PriceRepository struct {
	db *gorm.DB
}

// NewPriceRepository binds a GORM DB to regional price operations.
func NewPriceRepository(db *gorm.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// FindByDistrict returns gorm.ErrRecordNotFound when the district has no surcharge.
func (r *PriceRepository) FindByDistrict(ctx context.Context, district string) (*models.RegionalPrice, error) {
	var row models.RegionalPrice
	if err := r.db.WithContext(ctx).Where("district = ?", strings.TrimSpace(district)).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *PriceRepository) List(ctx context.Context) ([]models.RegionalPrice, error) {
	var rows []models.RegionalPrice
	if err := r.db.WithContext(ctx).Order("district ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Upsert sets the surcharge for row.District, creating the row when missing.
func (r *PriceRepository) Upsert(ctx context.Context, row *models.RegionalPrice) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "district"}},
			DoUpdates: clause.AssignmentColumns([]string{"additional_price", "updated_at"}),
		}).
		Create(row).Error
}

// DeleteByDistrict reports whether a row was removed.
func (r *PriceRepository) DeleteByDistrict(ctx context.Context, district string) (bool, error) {
	res := r.db.WithContext(ctx).Where("district = ?", strings.TrimSpace(district)).Delete(&models.RegionalPrice{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
