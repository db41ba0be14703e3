package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/bloomcart-backend/api/responses"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/logger"
)

const (
	GuestIDHeader   = "X-Guest-Id"
	maxGuestIDBytes = 128
)

// GuestSession reads the client generated guest id that keys the local cart.
// Authenticated callers may omit it.
func GuestSession(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guestID := strings.TrimSpace(r.Header.Get(GuestIDHeader))
			if len(guestID) > maxGuestIDBytes || strings.ContainsAny(guestID, ": ") {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid guest id"))
				return
			}
			if guestID == "" && UserIDFromContext(r.Context()) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, GuestIDHeader+" header required"))
				return
			}

			ctx := r.Context()
			if guestID != "" {
				ctx = WithGuestID(ctx, guestID)
				if logg != nil {
					ctx = logg.WithGuestID(ctx, guestID)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
