package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	productsvc "github.com/angelmondragon/bloomcart-backend/internal/products"
	"github.com/angelmondragon/bloomcart-backend/internal/promotions"
	"github.com/angelmondragon/bloomcart-backend/internal/regional"
	"github.com/angelmondragon/bloomcart-backend/internal/shipping"
	"github.com/angelmondragon/bloomcart-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/types"
)

type stubCatalog struct {
	views      []regional.ProductView
	lastRegion types.Region
	lastCat    string
}

func (s *stubCatalog) ProductsByRegion(_ context.Context, region types.Region, category string) ([]regional.ProductView, error) {
	s.lastRegion, s.lastCat = region, category
	return s.views, nil
}

type stubProductService struct {
	lastStock productsvc.StockUpdateInput
	stockErr  error
}

func (s *stubProductService) Get(_ context.Context, id uuid.UUID) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{ID: id, Name: "Rose"}, nil
}

func (s *stubProductService) UpdateStoreStock(_ context.Context, input productsvc.StockUpdateInput) (*productsvc.ProductDTO, error) {
	s.lastStock = input
	if s.stockErr != nil {
		return nil, s.stockErr
	}
	return &productsvc.ProductDTO{ID: input.ProductID, TotalStock: input.Quantity}, nil
}

func TestProductsByRegionReadsQuery(t *testing.T) {
	catalog := &stubCatalog{views: []regional.ProductView{{ID: uuid.New(), Price: 110000, Available: true}}}
	r := chi.NewRouter()
	r.Get("/api/v1/products", ProductsByRegion(catalog, nil))

	storeID := uuid.New()
	resp := serveController(r, http.MethodGet, "/api/v1/products?district=Qu%E1%BA%ADn+1&store_id="+storeID.String()+"&category=roses", "")
	if resp.Code != http.StatusOK || decodeListCount(t, resp) != 1 {
		t.Fatalf("expected one product, got %d %s", resp.Code, resp.Body.String())
	}
	if !catalog.lastRegion.HasStore() || *catalog.lastRegion.StoreID != storeID || catalog.lastRegion.District != "Quận 1" {
		t.Fatalf("unexpected region %+v", catalog.lastRegion)
	}
	if catalog.lastCat != "roses" {
		t.Fatalf("unexpected category %q", catalog.lastCat)
	}

	resp = serveController(r, http.MethodGet, "/api/v1/products?store_id=nope", "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad store id got %d", resp.Code)
	}
}

func TestAdminUpdateStock(t *testing.T) {
	svc := &stubProductService{}
	r := chi.NewRouter()
	r.Post("/api/admin/v1/products/stock", AdminUpdateStock(svc, nil))
	productID, storeID := uuid.New(), uuid.New()

	resp := serveController(r, http.MethodPost, "/api/admin/v1/products/stock", `{"product_id":"`+productID.String()+`","store_id":"`+storeID.String()+`"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without quantity got %d", resp.Code)
	}

	resp = serveController(r, http.MethodPost, "/api/admin/v1/products/stock", `{"product_id":"`+productID.String()+`","store_id":"`+storeID.String()+`","quantity":-1}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative quantity got %d", resp.Code)
	}

	resp = serveController(r, http.MethodPost, "/api/admin/v1/products/stock", `{"product_id":"`+productID.String()+`","store_id":"`+storeID.String()+`","quantity":0}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for zero quantity got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastStock.ProductID != productID || svc.lastStock.StoreID != storeID || svc.lastStock.Quantity != 0 {
		t.Fatalf("unexpected input %+v", svc.lastStock)
	}

	svc.stockErr = pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	resp = serveController(r, http.MethodPost, "/api/admin/v1/products/stock", `{"product_id":"`+productID.String()+`","store_id":"`+storeID.String()+`","quantity":3}`)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

type stubEstimator struct {
	last  shipping.QuoteInput
	err   error
	calls int
}

func (s *stubEstimator) Quote(_ context.Context, input shipping.QuoteInput) (*shipping.Quote, error) {
	s.calls++
	s.last = input
	if s.err != nil {
		return nil, s.err
	}
	return &shipping.Quote{Fee: 30000, DistanceKm: 2.5, ETAMinutes: 35}, nil
}

func TestShippingCalculate(t *testing.T) {
	est := &stubEstimator{}
	r := chi.NewRouter()
	r.Post("/api/v1/shipping/calculate", ShippingCalculate(est, nil))

	for _, body := range []string{`{}`, `{"latitude":10.77}`, `{"latitude":95,"longitude":106.7}`, `{"district":"Quận 1","base_fee":-1}`} {
		resp := serveController(r, http.MethodPost, "/api/v1/shipping/calculate", body)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", body, resp.Code)
		}
	}
	if est.calls != 0 {
		t.Fatalf("estimator should not run for invalid input, ran %d times", est.calls)
	}

	productID := uuid.New()
	resp := serveController(r, http.MethodPost, "/api/v1/shipping/calculate", `{"latitude":10.77,"longitude":106.70,"district":"Quận 3","product_ids":["`+productID.String()+`"]}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if est.last.Point == nil || est.last.Point.Lat != 10.77 || est.last.District != "Quận 3" {
		t.Fatalf("unexpected input %+v", est.last)
	}
	if len(est.last.ProductIDs) != 1 || est.last.ProductIDs[0] != productID || est.last.BaseFee != nil {
		t.Fatalf("unexpected products or fee %+v", est.last)
	}

	est.err = pkgerrors.New(pkgerrors.CodeNoCoverage, "no store covers the destination")
	resp = serveController(r, http.MethodPost, "/api/v1/shipping/calculate", `{"district":"Huyện Cần Giờ"}`)
	if code := decodeErrorCode(t, resp); code != pkgerrors.CodeNoCoverage {
		t.Fatalf("expected no coverage, got %d %s", resp.Code, code)
	}
}

type stubPromotions struct {
	lastRegion types.Region
}

func (s *stubPromotions) Applicable(_ context.Context, region types.Region) ([]promotions.PromotionDTO, error) {
	s.lastRegion = region
	return []promotions.PromotionDTO{{ID: uuid.New(), Name: "Tết"}}, nil
}

func TestPromotionsByRegion(t *testing.T) {
	svc := &stubPromotions{}
	r := chi.NewRouter()
	r.Get("/api/v1/promotions", PromotionsByRegion(svc, nil))

	resp := serveController(r, http.MethodGet, "/api/v1/promotions?district=Qu%E1%BA%ADn+5", "")
	if resp.Code != http.StatusOK || decodeListCount(t, resp) != 1 {
		t.Fatalf("expected one promotion, got %d", resp.Code)
	}
	if svc.lastRegion.District != "Quận 5" {
		t.Fatalf("unexpected region %+v", svc.lastRegion)
	}
}

type stubPriceService struct {
	lastDistrict string
	lastAmount   int64
	deleteErr    error
}

func (s *stubPriceService) List(context.Context) ([]regional.RegionalPriceDTO, error) {
	return []regional.RegionalPriceDTO{{District: "Quận 1", AdditionalPrice: 10000}}, nil
}

func (s *stubPriceService) Set(_ context.Context, district string, additional int64) (*regional.RegionalPriceDTO, error) {
	s.lastDistrict, s.lastAmount = district, additional
	return &regional.RegionalPriceDTO{District: district, AdditionalPrice: additional}, nil
}

func (s *stubPriceService) Delete(_ context.Context, district string) error {
	s.lastDistrict = district
	return s.deleteErr
}

func TestAdminRegionalPrices(t *testing.T) {
	svc := &stubPriceService{}
	r := chi.NewRouter()
	r.Get("/api/admin/v1/regional-prices", AdminListRegionalPrices(svc, nil))
	r.Put("/api/admin/v1/regional-prices/{district}", AdminSetRegionalPrice(svc, nil))
	r.Delete("/api/admin/v1/regional-prices/{district}", AdminDeleteRegionalPrice(svc, nil))

	resp := serveController(r, http.MethodGet, "/api/admin/v1/regional-prices", "")
	if resp.Code != http.StatusOK || decodeListCount(t, resp) != 1 {
		t.Fatalf("expected one price, got %d", resp.Code)
	}

	resp = serveController(r, http.MethodPut, "/api/admin/v1/regional-prices/Qu%E1%BA%ADn%201", `{"additional_price":-5}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative surcharge got %d", resp.Code)
	}

	resp = serveController(r, http.MethodPut, "/api/admin/v1/regional-prices/Qu%E1%BA%ADn%201", `{"additional_price":0}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastDistrict != "Quận 1" || svc.lastAmount != 0 {
		t.Fatalf("unexpected set %q %d", svc.lastDistrict, svc.lastAmount)
	}

	resp = serveController(r, http.MethodDelete, "/api/admin/v1/regional-prices/Qu%E1%BA%ADn%201", "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}

	svc.deleteErr = pkgerrors.New(pkgerrors.CodeNotFound, "regional price not found")
	resp = serveController(r, http.MethodDelete, "/api/admin/v1/regional-prices/Qu%E1%BA%ADn%209", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	r := chi.NewRouter()
	r.Get("/health/live", HealthLive(cfg))
	r.Get("/health/ready", HealthReady(cfg, map[string]Pinger{"db": ok, "redis": ok}, nil))
	r.Get("/health/degraded", HealthReady(cfg, map[string]Pinger{"db": ok, "redis": down}, nil))

	resp := serveController(r, http.MethodGet, "/health/live", "")
	if resp.Code != http.StatusOK || resp.Header().Get("X-Bloomcart-Env") != "test" {
		t.Fatalf("unexpected live response %d %v", resp.Code, resp.Header())
	}

	resp = serveController(r, http.MethodGet, "/health/ready", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected ready got %d", resp.Code)
	}

	resp = serveController(r, http.MethodGet, "/health/degraded", "")
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
	if code := decodeErrorCode(t, resp); code != pkgerrors.CodeDependency {
		t.Fatalf("unexpected code %s", code)
	}
}
