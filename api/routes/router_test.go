package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/bloomcart-backend/api/middleware"
	products "github.com/angelmondragon/bloomcart-backend/internal/products"
	pkgAuth "github.com/angelmondragon/bloomcart-backend/pkg/auth"
	"github.com/angelmondragon/bloomcart-backend/pkg/config"
	"github.com/angelmondragon/bloomcart-backend/pkg/enums"
	"github.com/angelmondragon/bloomcart-backend/pkg/logger"
	"github.com/angelmondragon/bloomcart-backend/pkg/metrics"
	"github.com/angelmondragon/bloomcart-backend/pkg/redis/redistest"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubProducts struct {
	stockCalls int
}

func (s *stubProducts) Get(_ context.Context, id uuid.UUID) (*products.ProductDTO, error) {
	return &products.ProductDTO{ID: id}, nil
}

func (s *stubProducts) UpdateStoreStock(_ context.Context, input products.StockUpdateInput) (*products.ProductDTO, error) {
	s.stockCalls++
	return &products.ProductDTO{ID: input.ProductID, TotalStock: input.Quantity}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		HTTP: config.HTTPConfig{
			CORSOrigins:     []string{"http://localhost:3000"},
			RateLimitWindow: time.Minute,
			RateLimitPerIP:  2,
		},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "bloomcart-test", ExpirationMinutes: 5},
	}
}

func newTestRouter(t *testing.T, prods *stubProducts) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testConfig()
	reg := prometheus.NewRegistry()
	handler := NewRouter(cfg, logger.Nop(), Services{
		DB:          stubPinger{},
		Redis:       redistest.NewClient(),
		Products:    prods,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Gatherer:    reg,
	})
	return handler, cfg
}

func bearer(t *testing.T, cfg *config.Config, role enums.Role) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: "user-1", Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func TestHealthRoutes(t *testing.T) {
	router, _ := newTestRouter(t, &stubProducts{})

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
		if resp.Header().Get("X-Request-Id") == "" {
			t.Fatalf("%s: expected a request id header", path)
		}
	}
}

func TestMetricsEndpointExposesHTTPCounters(t *testing.T) {
	router, _ := newTestRouter(t, &stubProducts{})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "bloomcart_http_requests_total") {
		t.Fatalf("expected http counters in scrape, got %s", resp.Body.String())
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	prods := &stubProducts{}
	router, cfg := newTestRouter(t, prods)
	body := `{"product_id":"` + uuid.NewString() + `","store_id":"` + uuid.NewString() + `","quantity":4}`

	send := func(auth, key string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/products/stock", strings.NewReader(body))
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp.Code
	}

	if code := send("", "k1"); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", code)
	}
	if code := send(bearer(t, cfg, enums.RoleCustomer), "k1"); code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", code)
	}
	if code := send(bearer(t, cfg, enums.RoleAdmin), ""); code != http.StatusBadRequest {
		t.Fatalf("expected 400 without idempotency key got %d", code)
	}
	admin := bearer(t, cfg, enums.RoleAdmin)
	for i := 0; i < 2; i++ {
		if code := send(admin, "k1"); code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200 got %d", i, code)
		}
	}
	if prods.stockCalls != 1 {
		t.Fatalf("expected the replay to skip the handler, got %d calls", prods.stockCalls)
	}
}

func TestSessionRoutesRequireCaller(t *testing.T) {
	router, _ := newTestRouter(t, &stubProducts{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/session/cart", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without guest id got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session/cart", nil)
	req.Header.Set(middleware.GuestIDHeader, "guest-1")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from the unwired engine got %d", resp.Code)
	}
}

func TestShippingCalculateIsRateLimited(t *testing.T) {
	router, _ := newTestRouter(t, &stubProducts{})

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/shipping/calculate", strings.NewReader(`{"district":"Quận 1"}`))
		req.RemoteAddr = "203.0.113.9:4000"
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		last = resp.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on the third call got %d", last)
	}
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t, &stubProducts{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/session/cart/items", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", middleware.GuestIDHeader)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}
