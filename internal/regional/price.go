package regional

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/bloomcart-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/logger"
	"github.com/angelmondragon/bloomcart-backend/pkg/pricing"
	"github.com/angelmondragon/bloomcart-backend/pkg/redis"
	"github.com/angelmondragon/bloomcart-backend/pkg/types"
)

const defaultPriceCacheTTL = 10 * time.Minute

type priceRepository interface {
	FindByDistrict(ctx context.Context, district string) (*models.RegionalPrice, error)
	List(ctx context.Context) ([]models.RegionalPrice, error)
	Upsert(ctx context.Context, row *models.RegionalPrice) error
	DeleteByDistrict(ctx context.Context, district string) (bool, error)
}

type priceCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	RegionalPriceKey(district string) string
}

// RegionalPriceDTO is one district surcharge.
type RegionalPriceDTO struct {
	District        string    `json:"district"`
	AdditionalPrice int64     `json:"additional_price"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PriceResolver adds the district surcharge to base prices and applies discounts.
type PriceResolver interface {
	AdditionalPrice(ctx context.Context, district string) (int64, error)
	Quote(ctx context.Context, region types.Region, basePrice int64, discount any) (pricing.Quote, error)
}

// PriceService administers district surcharges and keeps the cache coherent.
type PriceService interface {
	List(ctx context.Context) ([]RegionalPriceDTO, error)
	Set(ctx context.Context, district string, additional int64) (*RegionalPriceDTO, error)
	Delete(ctx context.Context, district string) error
}

// Prices implements PriceResolver and PriceService.
type Prices struct {
	repo  priceRepository
	cache priceCache
	ttl   time.Duration
	logg  *logger.Logger
}

// NewPriceService builds the resolver and the admin surface over one repository.
// A nil cache reads straight from the database.
func NewPriceService(repo priceRepository, cache priceCache, ttl time.Duration, logg *logger.Logger) (*Prices, error) {
	if repo == nil {
		return nil, fmt.Errorf("regional price repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ttl <= 0 {
		ttl = defaultPriceCacheTTL
	}
	return &Prices{repo: repo, cache: cache, ttl: ttl, logg: logg}, nil
}

func (s *Prices) AdditionalPrice(ctx context.Context, district string) (int64, error) {
	district = strings.TrimSpace(district)
	if district == "" {
		return 0, nil
	}
	if v, ok := s.cached(ctx, district); ok {
		return v, nil
	}

	var additional int64
	row, err := s.repo.FindByDistrict(ctx, district)
	switch {
	case err == nil:
		additional = row.AdditionalPrice
	case errors.Is(err, gorm.ErrRecordNotFound):
		additional = 0
	default:
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load regional price")
	}

	s.store(ctx, district, additional)
	return additional, nil
}

// Quote prices a product for region. A store-only region carries no surcharge.
func (s *Prices) Quote(ctx context.Context, region types.Region, basePrice int64, discount any) (pricing.Quote, error) {
	additional, err := s.AdditionalPrice(ctx, region.District)
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.Resolve(basePrice, additional, discount), nil
}

func (s *Prices) List(ctx context.Context) ([]RegionalPriceDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list regional prices")
	}
	out := make([]RegionalPriceDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, RegionalPriceDTO{District: r.District, AdditionalPrice: r.AdditionalPrice, UpdatedAt: r.UpdatedAt})
	}
	return out, nil
}

func (s *Prices) Set(ctx context.Context, district string, additional int64) (*RegionalPriceDTO, error) {
	district = strings.TrimSpace(district)
	if district == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "district is required")
	}
	if additional < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "additional_price must be zero or greater")
	}

	row := &models.RegionalPrice{District: district, AdditionalPrice: additional, UpdatedAt: time.Now().UTC()}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save regional price")
	}
	s.invalidate(ctx, district)
	return &RegionalPriceDTO{District: district, AdditionalPrice: additional, UpdatedAt: row.UpdatedAt}, nil
}

func (s *Prices) Delete(ctx context.Context, district string) error {
	district = strings.TrimSpace(district)
	if district == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "district is required")
	}
	deleted, err := s.repo.DeleteByDistrict(ctx, district)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete regional price")
	}
	s.invalidate(ctx, district)
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "regional price not found")
	}
	return nil
}

// cached reports a hit only for a well formed value; every cache failure is a miss.
func (s *Prices) cached(ctx context.Context, district string) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	raw, err := s.cache.Get(ctx, s.cache.RegionalPriceKey(district))
	if err != nil {
		if !redis.IsNil(err) {
			s.warn(ctx, district, "regional price cache read failed", err)
		}
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.warn(ctx, district, "regional price cache holds a malformed value", err)
		return 0, false
	}
	return v, true
}

func (s *Prices) store(ctx context.Context, district string, additional int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.RegionalPriceKey(district), strconv.FormatInt(additional, 10), s.ttl); err != nil {
		s.warn(ctx, district, "regional price cache write failed", err)
	}
}

func (s *Prices) invalidate(ctx context.Context, district string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.RegionalPriceKey(district)); err != nil {
		s.warn(ctx, district, "regional price cache invalidation failed", err)
	}
}

func (s *Prices) warn(ctx context.Context, district, msg string, err error) {
	logCtx := s.logg.WithFields(ctx, map[string]any{"district": district, "error": err.Error()})
	s.logg.Warn(logCtx, msg)
}
