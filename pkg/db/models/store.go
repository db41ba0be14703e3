package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloomcart-backend/pkg/geo"
)

// Store is a physical shop that holds stock and fulfils deliveries.
// Latitude and Longitude stay nil until the address has been geocoded.
type Store struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Address   string    `gorm:"column:address;not null"`
	District  string    `gorm:"column:district;not null;index"`
	Ward      string    `gorm:"column:ward;not null;default:''"`
	Phone     *string   `gorm:"column:phone"`
	Latitude  *float64  `gorm:"column:latitude"`
	Longitude *float64  `gorm:"column:longitude"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Store) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// Location returns nil when either coordinate is missing.
func (s Store) Location() *geo.Point {
	if s.Latitude == nil || s.Longitude == nil {
		return nil
	}
	return &geo.Point{Lat: *s.Latitude, Lng: *s.Longitude}
}

// SetLocation stores p, or clears the coordinates when p is nil.
func (s *Store) SetLocation(p *geo.Point) {
	if p == nil {
		s.Latitude, s.Longitude = nil, nil
		return
	}
	lat, lng := p.Lat, p.Lng
	s.Latitude, s.Longitude = &lat, &lng
}
