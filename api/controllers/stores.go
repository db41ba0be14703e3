package controllers

import (
	"net/http"

	"github.com/angelmondragon/bloomcart-backend/api/responses"
	"github.com/angelmondragon/bloomcart-backend/api/validators"
	"github.com/angelmondragon/bloomcart-backend/internal/stores"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/geo"
	"github.com/angelmondragon/bloomcart-backend/pkg/logger"
)

const maxNearestRadiusKm = 50

// StoreList returns active stores, narrowed to ?district= and ?ward= when given.
func StoreList(locator stores.Locator, svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if locator == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		district := validators.ParseQueryString(r, "district", maxRegionParamLen)
		ward := validators.ParseQueryString(r, "ward", maxRegionParamLen)
		if district == "" && ward != "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "ward requires a district"))
			return
		}

		var (
			list []stores.StoreDTO
			err  error
		)
		if district != "" {
			list, err = locator.ByDistrict(r.Context(), district, ward)
		} else {
			list, err = svc.List(r.Context(), stores.ListFilter{ActiveOnly: true})
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteList(w, list)
	}
}

// StoreNearest returns up to five active stores around ?latitude=&longitude=, nearest first.
func StoreNearest(locator stores.Locator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if locator == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store locator unavailable"))
			return
		}

		lat, err := validators.ParseQueryFloat(r, "latitude", -90, 90)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lng, err := validators.ParseQueryFloat(r, "longitude", -180, 180)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if lat == nil || lng == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "latitude and longitude are required"))
			return
		}
		radius, err := validators.ParseQueryFloat(r, "max_distance", 0, maxNearestRadiusKm)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q := stores.NearestQuery{Point: geo.Point{Lat: *lat, Lng: *lng}}
		if radius != nil {
			q.MaxDistanceKm = *radius
		}

		list, err := locator.Nearest(r.Context(), q)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteList(w, list)
	}
}

// StoreRegions lists districts and their wards that have an active store.
func StoreRegions(locator stores.Locator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if locator == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store locator unavailable"))
			return
		}

		regions, err := locator.Regions(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteList(w, regions)
	}
}

type storeCreateRequest struct {
	Name     string     `json:"name" validate:"required,max=200"`
	Address  string     `json:"address" validate:"required,max=500"`
	District string     `json:"district" validate:"required,max=100"`
	Ward     string     `json:"ward" validate:"required,max=100"`
	Phone    *string    `json:"phone,omitempty" validate:"omitempty,max=32"`
	Location *geo.Point `json:"location,omitempty"`
	IsActive *bool      `json:"is_active,omitempty"`
}

func (r storeCreateRequest) toInput() stores.CreateStoreInput {
	return stores.CreateStoreInput{
		Name:     r.Name,
		Address:  r.Address,
		District: r.District,
		Ward:     r.Ward,
		Phone:    r.Phone,
		Location: r.Location,
		IsActive: r.IsActive,
	}
}

type storeUpdateRequest struct {
	Name     *string    `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Address  *string    `json:"address,omitempty" validate:"omitempty,min=1,max=500"`
	District *string    `json:"district,omitempty" validate:"omitempty,min=1,max=100"`
	Ward     *string    `json:"ward,omitempty" validate:"omitempty,min=1,max=100"`
	Phone    *string    `json:"phone,omitempty" validate:"omitempty,max=32"`
	Location *geo.Point `json:"location,omitempty"`
	IsActive *bool      `json:"is_active,omitempty"`
}

func (r storeUpdateRequest) toInput() stores.UpdateStoreInput {
	return stores.UpdateStoreInput{
		Name:     r.Name,
		Address:  r.Address,
		District: r.District,
		Ward:     r.Ward,
		Phone:    r.Phone,
		Location: r.Location,
		IsActive: r.IsActive,
	}
}

// AdminCreateStore saves a store. Geocoding failures leave the location empty for the backfill job.
func AdminCreateStore(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		var payload storeCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, store)
	}
}

func AdminUpdateStore(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		storeID, err := validators.ParsePathUUID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload storeUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.Update(r.Context(), storeID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, store)
	}
}
