package controllers

import (
	"net/http"

	"github.com/angelmondragon/bloomcart-backend/api/responses"
	"github.com/angelmondragon/bloomcart-backend/api/validators"
	"github.com/angelmondragon/bloomcart-backend/internal/regional"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/logger"
)

type regionalPriceRequest struct {
	AdditionalPrice *int64 `json:"additional_price" validate:"required,min=0"`
}

func AdminListRegionalPrices(svc regional.PriceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "regional price service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteList(w, list)
	}
}

// AdminSetRegionalPrice upserts the surcharge for /{district}. Cached lookups for it are dropped.
func AdminSetRegionalPrice(svc regional.PriceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "regional price service unavailable"))
			return
		}

		district, err := validators.ParsePathString(r, "district", maxRegionParamLen)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload regionalPriceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := svc.Set(r.Context(), district, *payload.AdditionalPrice)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, price)
	}
}

func AdminDeleteRegionalPrice(svc regional.PriceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "regional price service unavailable"))
			return
		}

		district, err := validators.ParsePathString(r, "district", maxRegionParamLen)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), district); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
