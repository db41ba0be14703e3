package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/bloomcart-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/bloomcart-backend/api/controllers/cart"
	"github.com/angelmondragon/bloomcart-backend/api/middleware"
	"github.com/angelmondragon/bloomcart-backend/internal/cart"
	products "github.com/angelmondragon/bloomcart-backend/internal/products"
	"github.com/angelmondragon/bloomcart-backend/internal/promotions"
	"github.com/angelmondragon/bloomcart-backend/internal/regional"
	"github.com/angelmondragon/bloomcart-backend/internal/shipping"
	"github.com/angelmondragon/bloomcart-backend/internal/stores"
	"github.com/angelmondragon/bloomcart-backend/pkg/config"
	"github.com/angelmondragon/bloomcart-backend/pkg/enums"
	"github.com/angelmondragon/bloomcart-backend/pkg/logger"
	"github.com/angelmondragon/bloomcart-backend/pkg/metrics"
	"github.com/angelmondragon/bloomcart-backend/pkg/redis"
)

// Services are the collaborators the HTTP surface is built over. A nil service
// keeps its routes mounted; the handlers answer with an internal error.
type Services struct {
	DB          controllers.Pinger
	Redis       *redis.Client
	Stores      stores.Service
	Locator     stores.Locator
	Products    products.Service
	Catalog     regional.Catalog
	Prices      regional.PriceService
	Promotions  promotions.Service
	Shipping    shipping.Estimator
	Cart        cart.Service
	SessionCart controllers.SessionCart
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, svc.HTTPMetrics),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	readiness := map[string]controllers.Pinger{}
	if svc.DB != nil {
		readiness["db"] = svc.DB
	}
	if svc.Redis != nil {
		readiness["redis"] = svc.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})
	if svc.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(svc.Gatherer, promhttp.HandlerOpts{}))
	}

	publicLimit := passThrough
	idempotent := passThrough
	if svc.Redis != nil {
		publicLimit = middleware.RateLimit(
			middleware.NewRateLimitPolicy("public", cfg.HTTP.RateLimitWindow, cfg.HTTP.RateLimitPerIP),
			svc.Redis,
			logg,
		)
		idempotent = middleware.Idempotency(svc.Redis, logg)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/by-region", controllers.ProductsByRegion(svc.Catalog, logg))
			r.Get("/{productId}", controllers.ProductDetail(svc.Products, logg))
		})

		r.Route("/stores", func(r chi.Router) {
			r.Get("/", controllers.StoreList(svc.Locator, svc.Stores, logg))
			r.With(publicLimit).Get("/nearest", controllers.StoreNearest(svc.Locator, logg))
			r.Get("/regions", controllers.StoreRegions(svc.Locator, logg))
		})

		r.Get("/promotions", controllers.PromotionsByRegion(svc.Promotions, logg))
		r.With(publicLimit).Post("/shipping/calculate", controllers.ShippingCalculate(svc.Shipping, logg))

		r.Route("/session", func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Use(middleware.GuestSession(logg))
			r.Use(idempotent)

			r.Get("/cart", controllers.SessionCartGet(svc.SessionCart, logg))
			r.Delete("/cart", controllers.SessionCartClear(svc.SessionCart, logg))
			r.Post("/cart/items", controllers.SessionCartAdd(svc.SessionCart, logg))
			r.Patch("/cart/items/{productId}", controllers.SessionCartUpdate(svc.SessionCart, logg))
			r.Delete("/cart/items/{productId}", controllers.SessionCartRemove(svc.SessionCart, logg))
			r.Post("/cart/login", controllers.SessionCartLogin(svc.SessionCart, logg))
			r.Post("/cart/logout", controllers.SessionCartLogout(svc.SessionCart, logg))
			r.Get("/region", controllers.SessionRegionGet(svc.SessionCart, logg))
			r.Put("/region", controllers.SessionRegionSet(svc.SessionCart, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(idempotent)

			r.Post("/add", cartcontrollers.CartAdd(svc.Cart, logg))
			r.Put("/update", cartcontrollers.CartUpdate(svc.Cart, logg))
			r.Post("/sync", cartcontrollers.CartSync(svc.Cart, logg))
			r.Get("/{userId}", cartcontrollers.CartFetch(svc.Cart, logg))
			r.Delete("/{userId}", cartcontrollers.CartClear(svc.Cart, logg))
			r.Delete("/{userId}/{productId}", cartcontrollers.CartRemoveItem(svc.Cart, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.RoleAdmin), logg))
		r.Use(idempotent)

		r.Post("/products/stock", controllers.AdminUpdateStock(svc.Products, logg))
		r.Post("/stores", controllers.AdminCreateStore(svc.Stores, logg))
		r.Put("/stores/{storeId}", controllers.AdminUpdateStore(svc.Stores, logg))
		r.Route("/regional-prices", func(r chi.Router) {
			r.Get("/", controllers.AdminListRegionalPrices(svc.Prices, logg))
			r.Put("/{district}", controllers.AdminSetRegionalPrice(svc.Prices, logg))
			r.Delete("/{district}", controllers.AdminDeleteRegionalPrice(svc.Prices, logg))
		})
	})

	return r
}

func passThrough(next http.Handler) http.Handler {
	return next
}
