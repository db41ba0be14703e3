package stores

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloomcart-backend/pkg/db/models"
	"github.com/angelmondragon/bloomcart-backend/pkg/geo"
)

// ListFilter narrows store listings. Empty fields do not filter.
type ListFilter struct {
	District   string
	Ward       string
	ActiveOnly bool
}

// Repository handles store persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to store operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new store row.
func (r *Repository) Create(ctx context.Context, store *models.Store) error {
	if store == nil {
		return fmt.Errorf("store is required")
	}
	return r.db.WithContext(ctx).Create(store).Error
}

// FindByID loads a store by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// Update saves the provided store.
func (r *Repository) Update(ctx context.Context, store *models.Store) error {
	if store == nil {
		return fmt.Errorf("store is required")
	}
	return r.db.WithContext(ctx).Save(store).Error
}

// List returns stores matching the filter ordered by district, ward and name.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Store, error) {
	q := r.db.WithContext(ctx).Model(&models.Store{})
	if d := strings.TrimSpace(filter.District); d != "" {
		q = q.Where("district = ?", d)
	}
	if w := strings.TrimSpace(filter.Ward); w != "" {
		q = q.Where("ward = ?", w)
	}
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}

	var stores []models.Store
	if err := q.Order("district ASC, ward ASC, name ASC").Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// FindActiveWithinBounds returns active, geocoded stores inside box.
// The box is a coarse pre-filter; callers refine with geo.Distance.
func (r *Repository) FindActiveWithinBounds(ctx context.Context, box geo.BoundingBox) ([]models.Store, error) {
	var stores []models.Store
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat).
		Where("longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng).
		Find(&stores).Error
	if err != nil {
		return nil, err
	}
	return stores, nil
}

// ListActiveDistrictWards returns the district/ward pairs of active stores.
func (r *Repository) ListActiveDistrictWards(ctx context.Context) ([]models.Store, error) {
	var rows []models.Store
	err := r.db.WithContext(ctx).
		Model(&models.Store{}).
		Select("district", "ward").
		Where("is_active = ?", true).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListMissingLocation returns up to limit active stores that have not been geocoded, oldest first.
func (r *Repository) ListMissingLocation(ctx context.Context, limit int) ([]models.Store, error) {
	q := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("(latitude IS NULL OR longitude IS NULL)").
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var stores []models.Store
	if err := q.Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}
