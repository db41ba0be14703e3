package promotions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bloomcart-backend/internal/stores"
	"github.com/angelmondragon/bloomcart-backend/pkg/db/models"
	"github.com/angelmondragon/bloomcart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/types"
)

type promotionRepository interface {
	ListActive(ctx context.Context) ([]models.Promotion, error)
}

type districtLocator interface {
	ByDistrict(ctx context.Context, district, ward string) ([]stores.StoreDTO, error)
}

// PromotionDTO is a promotion a region may present.
type PromotionDTO struct {
	ID          uuid.UUID            `json:"id"`
	Name        string               `json:"name"`
	Description *string              `json:"description,omitempty"`
	Scope       enums.PromotionScope `json:"scope"`
	Discount    int                  `json:"discount"`
	Districts   []string             `json:"districts"`
	StoreIDs    []string             `json:"store_ids"`
	ProductIDs  []string             `json:"product_ids"`
	StartsAt    *time.Time           `json:"starts_at,omitempty"`
	EndsAt      *time.Time           `json:"ends_at,omitempty"`
}

// Service filters promotions by region. It never feeds the price resolver.
type Service interface {
	Applicable(ctx context.Context, region types.Region) ([]PromotionDTO, error)
}

type service struct {
	repo    promotionRepository
	locator districtLocator
	now     func() time.Time
}

func NewService(repo promotionRepository, locator districtLocator) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promotion repository required")
	}
	if locator == nil {
		return nil, fmt.Errorf("store locator required")
	}
	return &service{repo: repo, locator: locator, now: time.Now}, nil
}

// Applicable returns running promotions for region. ALL always matches; DISTRICT matches
// the region district; STORE matches the pinned store, or any store of the district.
func (s *service) Applicable(ctx context.Context, region types.Region) ([]PromotionDTO, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promotions")
	}

	var districtStores []string
	loadedStores := false
	now := s.now()

	out := make([]PromotionDTO, 0, len(rows))
	for _, p := range rows {
		if !p.Running(now) {
			continue
		}
		match := false
		switch p.Scope {
		case enums.PromotionScopeAll:
			match = true
		case enums.PromotionScopeDistrict:
			match = region.HasDistrict() && p.Districts.Contains(region.District)
		case enums.PromotionScopeStore:
			if region.HasStore() {
				match = p.StoreIDs.Contains(region.StoreID.String())
				break
			}
			if !region.HasDistrict() {
				break
			}
			if !loadedStores {
				list, err := s.locator.ByDistrict(ctx, region.District, "")
				if err != nil {
					return nil, err
				}
				for _, st := range list {
					districtStores = append(districtStores, st.ID.String())
				}
				loadedStores = true
			}
			for _, id := range districtStores {
				if p.StoreIDs.Contains(id) {
					match = true
					break
				}
			}
		}
		if match {
			out = append(out, fromModel(p))
		}
	}
	return out, nil
}

func fromModel(p models.Promotion) PromotionDTO {
	return PromotionDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Scope:       p.Scope,
		Discount:    p.Discount,
		Districts:   nonNil(p.Districts),
		StoreIDs:    nonNil(p.StoreIDs),
		ProductIDs:  nonNil(p.ProductIDs),
		StartsAt:    p.StartsAt,
		EndsAt:      p.EndsAt,
	}
}

func nonNil(list []string) []string {
	if len(list) == 0 {
		return []string{}
	}
	return append([]string(nil), list...)
}
