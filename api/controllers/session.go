package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	cartdto "github.com/angelmondragon/bloomcart-backend/api/controllers/cart/dto"
	"github.com/angelmondragon/bloomcart-backend/api/middleware"
	"github.com/angelmondragon/bloomcart-backend/api/responses"
	"github.com/angelmondragon/bloomcart-backend/api/validators"
	"github.com/angelmondragon/bloomcart-backend/internal/cartsync"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/logger"
	"github.com/angelmondragon/bloomcart-backend/pkg/types"
)

// SessionCart is the slice of the sync engine the storefront session endpoints use.
type SessionCart interface {
	Items(ctx context.Context, sess cartsync.Session) ([]cartsync.Item, error)
	Add(ctx context.Context, sess cartsync.Session, productID uuid.UUID, quantity int) ([]cartsync.Item, error)
	UpdateQuantity(ctx context.Context, sess cartsync.Session, productID uuid.UUID, quantity int) ([]cartsync.Item, error)
	Remove(ctx context.Context, sess cartsync.Session, productID uuid.UUID) ([]cartsync.Item, error)
	Clear(ctx context.Context, sess cartsync.Session) error
	Login(ctx context.Context, sess cartsync.Session) ([]cartsync.Item, error)
	Logout(ctx context.Context, sess cartsync.Session) ([]cartsync.Item, error)
	Region(ctx context.Context, sess cartsync.Session) (types.Region, error)
	SetRegion(ctx context.Context, sess cartsync.Session, district, ward string) (types.Region, error)
}

type sessionCartResponse struct {
	Items []cartsync.Item `json:"items"`
	Count int             `json:"count"`
}

func newSessionCartResponse(items []cartsync.Item) sessionCartResponse {
	if items == nil {
		items = []cartsync.Item{}
	}
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return sessionCartResponse{Items: items, Count: count}
}

func sessionFrom(r *http.Request) cartsync.Session {
	return cartsync.Session{
		GuestID: middleware.GuestIDFromContext(r.Context()),
		UserID:  middleware.UserIDFromContext(r.Context()),
	}
}

func SessionCartGet(engine SessionCart, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}
		items, err := engine.Items(r.Context(), sessionFrom(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionCartResponse(items))
	}
}

// SessionCartAdd merges a product into the session cart, checked against regional stock.
func SessionCartAdd(engine SessionCart, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}
		var payload cartdto.SessionItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := engine.Add(r.Context(), sessionFrom(r), payload.ProductID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionCartResponse(items))
	}
}

func SessionCartUpdate(engine SessionCart, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}
		productID, err := validators.ParsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload cartdto.SessionQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := engine.UpdateQuantity(r.Context(), sessionFrom(r), productID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionCartResponse(items))
	}
}

func SessionCartRemove(engine SessionCart, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}
		productID, err := validators.ParsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := engine.Remove(r.Context(), sessionFrom(r), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionCartResponse(items))
	}
}

func SessionCartClear(engine SessionCart, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}
		if err := engine.Clear(r.Context(), sessionFrom(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionCartResponse(nil))
	}
}

// SessionCartLogin attaches the guest cart to the authenticated user.
func SessionCartLogin(engine SessionCart, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}
		items, err := engine.Login(r.Context(), sessionFrom(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionCartResponse(items))
	}
}

// SessionCartLogout waits for the pending remote push before answering.
func SessionCartLogout(engine SessionCart, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}
		items, err := engine.Logout(r.Context(), sessionFrom(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionCartResponse(items))
	}
}

func SessionRegionGet(engine SessionCart, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}
		region, err := engine.Region(r.Context(), sessionFrom(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, region)
	}
}

func SessionRegionSet(engine SessionCart, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}
		var payload cartdto.RegionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		region, err := engine.SetRegion(r.Context(), sessionFrom(r), payload.District, payload.Ward)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, region)
	}
}
