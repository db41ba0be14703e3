package cart

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	cartdto "github.com/angelmondragon/bloomcart-backend/api/controllers/cart/dto"
	"github.com/angelmondragon/bloomcart-backend/api/middleware"
	"github.com/angelmondragon/bloomcart-backend/api/responses"
	"github.com/angelmondragon/bloomcart-backend/api/validators"
	cartsvc "github.com/angelmondragon/bloomcart-backend/internal/cart"
	"github.com/angelmondragon/bloomcart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/logger"
	"github.com/angelmondragon/bloomcart-backend/pkg/pricing"
	"github.com/angelmondragon/bloomcart-backend/pkg/types"
)

// CartAdd merges a product into the caller's remote cart.
func CartAdd(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload cartdto.AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := cartOwner(r, payload.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.Add(r.Context(), userID, cartsvc.AddInput{
			ProductID: payload.ProductID,
			Quantity:  payload.Quantity,
			Region:    toRegion(payload.RegionFields),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

// CartUpdate sets the quantity of an existing line.
func CartUpdate(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload cartdto.UpdateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := cartOwner(r, payload.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.UpdateQuantity(r.Context(), userID, cartsvc.UpdateInput{
			ProductID: payload.ProductID,
			Quantity:  payload.Quantity,
			Region:    toRegion(payload.RegionFields),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

// CartRemoveItem drops one line from /cart/{userId}/{productId}.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := cartOwner(r, chi.URLParam(r, "userId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.Remove(r.Context(), userID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

// CartClear empties the cart. Clearing a cart that does not exist succeeds.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := cartOwner(r, chi.URLParam(r, "userId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.Clear(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

// CartSync replaces the remote cart with the client's full list.
func CartSync(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload cartdto.SyncRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := cartOwner(r, payload.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]cartsvc.ItemDTO, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, cartsvc.ItemDTO{
				ProductID: item.ProductID,
				Name:      item.Name,
				Price:     item.Price,
				ImageURL:  item.ImageURL,
				Discount:  pricing.Discount(pricing.NormalizeDiscount(item.Discount)),
				Quantity:  item.Quantity,
			})
		}

		cart, err := svc.Sync(r.Context(), userID, cartsvc.SyncInput{
			Items:  items,
			Region: toRegion(payload.RegionFields),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

// CartFetch returns /cart/{userId}. A user who never saved a cart gets 404 NOT_FOUND.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := cartOwner(r, chi.URLParam(r, "userId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

// cartOwner resolves whose cart a request touches. Only admins may name another user.
func cartOwner(r *http.Request, requested string) (string, error) {
	caller := middleware.UserIDFromContext(r.Context())
	if caller == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	requested = strings.TrimSpace(requested)
	if requested == "" || requested == caller {
		return caller, nil
	}
	if middleware.RoleFromContext(r.Context()) != string(enums.RoleAdmin) {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "cannot access another user's cart")
	}
	return requested, nil
}

func toRegion(f cartdto.RegionFields) types.Region {
	return types.NewRegion(f.District, f.Ward, f.StoreID)
}
