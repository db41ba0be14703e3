package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/bloomcart-backend/api/responses"
	"github.com/angelmondragon/bloomcart-backend/api/validators"
	"github.com/angelmondragon/bloomcart-backend/internal/shipping"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/geo"
	"github.com/angelmondragon/bloomcart-backend/pkg/logger"
)

type shippingQuoteRequest struct {
	Latitude   *float64    `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude  *float64    `json:"longitude,omitempty" validate:"omitempty,longitude"`
	District   string      `json:"district,omitempty" validate:"max=100"`
	ProductIDs []uuid.UUID `json:"product_ids" validate:"max=100"`
	BaseFee    *int64      `json:"base_fee,omitempty" validate:"omitempty,min=0"`
}

func (p shippingQuoteRequest) toInput() shipping.QuoteInput {
	input := shipping.QuoteInput{
		District:   p.District,
		ProductIDs: p.ProductIDs,
		BaseFee:    p.BaseFee,
	}
	if p.Latitude != nil && p.Longitude != nil {
		input.Point = &geo.Point{Lat: *p.Latitude, Lng: *p.Longitude}
	}
	return input
}

// ShippingCalculate quotes delivery from the nearest store that can fill every listed product.
func ShippingCalculate(estimator shipping.Estimator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if estimator == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping estimator unavailable"))
			return
		}

		var payload shippingQuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if (payload.Latitude == nil) != (payload.Longitude == nil) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "latitude and longitude must be sent together"))
			return
		}
		input := payload.toInput()
		if input.Point == nil && payload.District == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "coordinates or district are required"))
			return
		}

		quote, err := estimator.Quote(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}
