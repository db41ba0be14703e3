package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/bloomcart-backend/api/responses"
	"github.com/angelmondragon/bloomcart-backend/api/validators"
	productsvc "github.com/angelmondragon/bloomcart-backend/internal/products"
	"github.com/angelmondragon/bloomcart-backend/internal/regional"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/logger"
	"github.com/angelmondragon/bloomcart-backend/pkg/types"
)

const maxRegionParamLen = 100

// ProductsByRegion lists products with stock and price resolved for ?district= or ?store_id=.
// Neither means the whole network at base prices.
func ProductsByRegion(catalog regional.Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		region, err := regionFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category := validators.ParseQueryString(r, "category", maxRegionParamLen)

		views, err := catalog.ProductsByRegion(r.Context(), region, category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteList(w, views)
	}
}

func ProductDetail(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := validators.ParsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

type stockUpdateRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	StoreID   uuid.UUID `json:"store_id" validate:"required"`
	Quantity  *int      `json:"quantity" validate:"required,min=0"`
}

// AdminUpdateStock sets one store's quantity and returns the product with the recomputed total.
func AdminUpdateStock(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		var payload stockUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateStoreStock(r.Context(), productsvc.StockUpdateInput{
			ProductID: payload.ProductID,
			StoreID:   payload.StoreID,
			Quantity:  *payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// regionFromQuery reads ?district=&ward=&store_id=.
func regionFromQuery(r *http.Request) (types.Region, error) {
	storeID, err := validators.ParseQueryUUID(r, "store_id")
	if err != nil {
		return types.Region{}, err
	}
	return types.NewRegion(
		validators.ParseQueryString(r, "district", maxRegionParamLen),
		validators.ParseQueryString(r, "ward", maxRegionParamLen),
		storeID,
	), nil
}
