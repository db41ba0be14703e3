package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/bloomcart-backend/api/routes"
	"github.com/angelmondragon/bloomcart-backend/internal/cart"
	"github.com/angelmondragon/bloomcart-backend/internal/cartsync"
	products "github.com/angelmondragon/bloomcart-backend/internal/products"
	"github.com/angelmondragon/bloomcart-backend/internal/promotions"
	"github.com/angelmondragon/bloomcart-backend/internal/regional"
	"github.com/angelmondragon/bloomcart-backend/internal/shipping"
	"github.com/angelmondragon/bloomcart-backend/internal/stores"
	"github.com/angelmondragon/bloomcart-backend/pkg/config"
	"github.com/angelmondragon/bloomcart-backend/pkg/db"
	"github.com/angelmondragon/bloomcart-backend/pkg/debounce"
	"github.com/angelmondragon/bloomcart-backend/pkg/instance"
	"github.com/angelmondragon/bloomcart-backend/pkg/logger"
	"github.com/angelmondragon/bloomcart-backend/pkg/maps"
	"github.com/angelmondragon/bloomcart-backend/pkg/metrics"
	"github.com/angelmondragon/bloomcart-backend/pkg/migrate"
	"github.com/angelmondragon/bloomcart-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pushes := debounce.New(cfg.Cart.SyncDebounce)
	defer pushes.Close()

	svc, err := buildServices(ctx, cfg, logg, dbClient, redisClient, pushes)
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
	})

	server := &http.Server{
		Addr:         addr,
		Handler:      routes.NewRouter(cfg, logg, svc),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func buildServices(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, pushes *debounce.Scheduler) (routes.Services, error) {
	gormDB := dbClient.DB()

	var geocoder stores.Geocoder
	if cfg.GoogleMaps.APIKey != "" {
		mapsClient, err := maps.NewClient(cfg.GoogleMaps.APIKey, maps.WithRegion(cfg.GoogleMaps.RegionCode, cfg.GoogleMaps.LanguageCode))
		if err != nil {
			return routes.Services{}, err
		}
		geocoder = mapsClient
	} else {
		logg.Warn(ctx, "google maps key not set, store addresses will not be geocoded")
	}

	storesRepo := stores.NewRepository(gormDB)
	locator, err := stores.NewLocator(storesRepo, stores.LocatorDefaults{
		MaxDistanceKm: cfg.Shipping.MaxDistanceKm,
		Limit:         cfg.Shipping.MaxStores,
	})
	if err != nil {
		return routes.Services{}, err
	}
	storeService, err := stores.NewService(storesRepo, geocoder, logg)
	if err != nil {
		return routes.Services{}, err
	}

	productsRepo := products.NewRepository(gormDB)
	productService, err := products.NewService(productsRepo, storesRepo, dbClient, logg)
	if err != nil {
		return routes.Services{}, err
	}

	stock, err := regional.NewStockResolver(locator, storesRepo, productsRepo)
	if err != nil {
		return routes.Services{}, err
	}
	prices, err := regional.NewPriceService(regional.NewPriceRepository(gormDB), redisClient, cfg.RegionalPrice.CacheTTL, logg)
	if err != nil {
		return routes.Services{}, err
	}
	catalog, err := regional.NewCatalog(productsRepo, stock, prices)
	if err != nil {
		return routes.Services{}, err
	}

	promotionService, err := promotions.NewService(promotions.NewRepository(gormDB), locator)
	if err != nil {
		return routes.Services{}, err
	}

	estimator, err := shipping.NewEstimator(locator, productsRepo, metrics.NewShippingMetrics(prometheus.DefaultRegisterer), logg, cfg.Shipping)
	if err != nil {
		return routes.Services{}, err
	}

	cartService, err := cart.NewService(cart.NewRepository(gormDB), dbClient, productsRepo, stock, prices, logg)
	if err != nil {
		return routes.Services{}, err
	}

	local, err := cartsync.NewLocalRepository(redisClient, cfg.Cart.LocalTTL, logg)
	if err != nil {
		return routes.Services{}, err
	}
	remote, err := cartsync.NewRemoteRepository(cartService)
	if err != nil {
		return routes.Services{}, err
	}
	snapshots, err := cartsync.NewCatalogSnapshots(productsRepo, prices)
	if err != nil {
		return routes.Services{}, err
	}
	engine, err := cartsync.NewEngine(local, remote, stock, snapshots, pushes, logg)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		DB:          dbClient,
		Redis:       redisClient,
		Stores:      storeService,
		Locator:     locator,
		Products:    productService,
		Catalog:     catalog,
		Prices:      prices,
		Promotions:  promotionService,
		Shipping:    estimator,
		Cart:        cartService,
		SessionCart: engine,
		HTTPMetrics: metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		Gatherer:    prometheus.DefaultGatherer,
	}, nil
}
