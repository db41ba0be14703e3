package controllers

import (
	"net/http"

	"github.com/angelmondragon/bloomcart-backend/api/responses"
	"github.com/angelmondragon/bloomcart-backend/internal/promotions"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/logger"
)

// PromotionsByRegion lists running promotions for ?district= or ?store_id=.
func PromotionsByRegion(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotion service unavailable"))
			return
		}

		region, err := regionFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.Applicable(r.Context(), region)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteList(w, list)
	}
}
