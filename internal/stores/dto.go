package stores

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bloomcart-backend/pkg/db/models"
	"github.com/angelmondragon/bloomcart-backend/pkg/geo"
)

// StoreDTO is the public store shape. DistanceKm is only set by proximity lookups.
type StoreDTO struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Address    string     `json:"address"`
	District   string     `json:"district"`
	Ward       string     `json:"ward"`
	Phone      *string    `json:"phone,omitempty"`
	Location   *geo.Point `json:"location,omitempty"`
	IsActive   bool       `json:"is_active"`
	DistanceKm *float64   `json:"distance_km,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Region is one district with the wards its active stores sit in.
type Region struct {
	District string   `json:"district"`
	Wards    []string `json:"wards"`
}

// CreateStoreInput holds creation-time data for a store. Location skips geocoding when set.
type CreateStoreInput struct {
	Name     string
	Address  string
	District string
	Ward     string
	Phone    *string
	Location *geo.Point
	IsActive *bool
}

// UpdateStoreInput carries the mutable store fields; nil leaves a field untouched.
type UpdateStoreInput struct {
	Name     *string
	Address  *string
	District *string
	Ward     *string
	Phone    *string
	Location *geo.Point
	IsActive *bool
}

func (u UpdateStoreInput) changesAddress() bool {
	return u.Address != nil || u.District != nil || u.Ward != nil
}

// FromModel maps the persisted store into a DTO.
func FromModel(m *models.Store) *StoreDTO {
	if m == nil {
		return nil
	}
	return &StoreDTO{
		ID:        m.ID,
		Name:      m.Name,
		Address:   m.Address,
		District:  m.District,
		Ward:      m.Ward,
		Phone:     cloneStringPtr(m.Phone),
		Location:  m.Location(),
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func fromModels(list []models.Store) []StoreDTO {
	out := make([]StoreDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}

// ToModel prepares the GORM model, defaulting the store to active.
func (c CreateStoreInput) ToModel() *models.Store {
	model := &models.Store{
		Name:     strings.TrimSpace(c.Name),
		Address:  strings.TrimSpace(c.Address),
		District: strings.TrimSpace(c.District),
		Ward:     strings.TrimSpace(c.Ward),
		Phone:    cloneStringPtr(c.Phone),
		IsActive: true,
	}
	if c.IsActive != nil {
		model.IsActive = *c.IsActive
	}
	model.SetLocation(c.Location)
	return model
}

func cloneStringPtr(v *string) *string {
	if v == nil {
		return nil
	}
	cpy := *v
	return &cpy
}
