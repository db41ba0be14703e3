package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloomcart-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/logger"
	"github.com/angelmondragon/bloomcart-backend/pkg/maps"
)

type storeRepository interface {
	Create(ctx context.Context, store *models.Store) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	Update(ctx context.Context, store *models.Store) error
	List(ctx context.Context, filter ListFilter) ([]models.Store, error)
	ListMissingLocation(ctx context.Context, limit int) ([]models.Store, error)
}

// Geocoder resolves a store address to coordinates. *maps.Client satisfies it.
type Geocoder interface {
	Geocode(ctx context.Context, req maps.GeocodeRequest) (*maps.GeocodeResult, error)
}

// Service exposes store administration.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error)
	List(ctx context.Context, filter ListFilter) ([]StoreDTO, error)
	Create(ctx context.Context, input CreateStoreInput) (*StoreDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateStoreInput) (*StoreDTO, error)
	BackfillLocations(ctx context.Context, limit int) (BackfillResult, error)
}

// BackfillResult summarises one geocoding reconciliation pass.
type BackfillResult struct {
	Scanned  int `json:"scanned"`
	Geocoded int `json:"geocoded"`
	Failed   int `json:"failed"`
}

type service struct {
	repo     storeRepository
	geocoder Geocoder
	logg     *logger.Logger
}

// NewService builds the store admin service. A nil geocoder saves stores without
// coordinates unless the caller supplies them.
func NewService(repo storeRepository, geocoder Geocoder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, geocoder: geocoder, logg: logg}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error) {
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(store), nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]StoreDTO, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}
	return fromModels(rows), nil
}

func (s *service) Create(ctx context.Context, input CreateStoreInput) (*StoreDTO, error) {
	store := input.ToModel()
	if err := validateStore(store); err != nil {
		return nil, err
	}
	if input.Location != nil && !input.Location.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coordinates")
	}
	if input.Location == nil {
		s.locate(ctx, store)
	}

	if err := s.repo.Create(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
	}
	return FromModel(store), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateStoreInput) (*StoreDTO, error) {
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		store.Name = strings.TrimSpace(*input.Name)
	}
	if input.Address != nil {
		store.Address = strings.TrimSpace(*input.Address)
	}
	if input.District != nil {
		store.District = strings.TrimSpace(*input.District)
	}
	if input.Ward != nil {
		store.Ward = strings.TrimSpace(*input.Ward)
	}
	if input.Phone != nil {
		store.Phone = cloneStringPtr(input.Phone)
	}
	if input.IsActive != nil {
		store.IsActive = *input.IsActive
	}
	if err := validateStore(store); err != nil {
		return nil, err
	}

	switch {
	case input.Location != nil:
		if !input.Location.Valid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coordinates")
		}
		store.SetLocation(input.Location)
	case input.changesAddress():
		// old coordinates are dropped; the backfill job retries if geocoding fails here
		store.SetLocation(nil)
		s.locate(ctx, store)
	}

	if err := s.repo.Update(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store")
	}
	return FromModel(store), nil
}

func (s *service) BackfillLocations(ctx context.Context, limit int) (BackfillResult, error) {
	var result BackfillResult
	if s.geocoder == nil {
		return result, pkgerrors.New(pkgerrors.CodeDependency, "geocoder not configured")
	}

	pending, err := s.repo.ListMissingLocation(ctx, limit)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores missing location")
	}
	result.Scanned = len(pending)

	var errs error
	for i := range pending {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		store := &pending[i]
		res, err := s.geocoder.Geocode(ctx, geocodeRequest(store))
		if err != nil {
			result.Failed++
			errs = multierr.Append(errs, fmt.Errorf("geocode store %s: %w", store.ID, err))
			continue
		}
		store.SetLocation(&res.Location)
		if err := s.repo.Update(ctx, store); err != nil {
			result.Failed++
			errs = multierr.Append(errs, fmt.Errorf("save store %s: %w", store.ID, err))
			continue
		}
		result.Geocoded++
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"scanned":  result.Scanned,
		"geocoded": result.Geocoded,
		"failed":   result.Failed,
	})
	s.logg.Info(logCtx, "store location backfill finished")

	if errs != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "store location backfill incomplete").
			WithDetails(map[string]any{"failed": result.Failed})
	}
	return result, nil
}

// locate geocodes store in place. Failures leave the store without coordinates.
func (s *service) locate(ctx context.Context, store *models.Store) {
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"store_name": store.Name,
		"district":   store.District,
	})
	if s.geocoder == nil {
		s.logg.Warn(logCtx, "geocoder not configured, store saved without location")
		return
	}
	res, err := s.geocoder.Geocode(ctx, geocodeRequest(store))
	if err != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "geocoding failed, store saved without location")
		return
	}
	store.SetLocation(&res.Location)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return store, nil
}

func geocodeRequest(store *models.Store) maps.GeocodeRequest {
	return maps.GeocodeRequest{Address: store.Address, Ward: store.Ward, District: store.District}
}

func validateStore(store *models.Store) error {
	missing := make([]string, 0, 3)
	if store.Name == "" {
		missing = append(missing, "name")
	}
	if store.Address == "" {
		missing = append(missing, "address")
	}
	if store.District == "" {
		missing = append(missing, "district")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing store fields").
			WithDetails(map[string]any{"fields": missing})
	}
	return nil
}
