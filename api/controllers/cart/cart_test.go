package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/bloomcart-backend/api/middleware"
	cartsvc "github.com/angelmondragon/bloomcart-backend/internal/cart"
	"github.com/angelmondragon/bloomcart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
)

type stubCartService struct {
	err        error
	lastUser   string
	lastAdd    cartsvc.AddInput
	lastUpdate cartsvc.UpdateInput
	lastSync   cartsvc.SyncInput
	lastRemove uuid.UUID
	cleared    int
}

func (s *stubCartService) result(userID string) (*cartsvc.CartDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &cartsvc.CartDTO{UserID: userID, Items: []cartsvc.ItemDTO{}}, nil
}

func (s *stubCartService) Get(_ context.Context, userID string) (*cartsvc.CartDTO, error) {
	s.lastUser = userID
	return s.result(userID)
}

func (s *stubCartService) Add(_ context.Context, userID string, input cartsvc.AddInput) (*cartsvc.CartDTO, error) {
	s.lastUser, s.lastAdd = userID, input
	return s.result(userID)
}

func (s *stubCartService) UpdateQuantity(_ context.Context, userID string, input cartsvc.UpdateInput) (*cartsvc.CartDTO, error) {
	s.lastUser, s.lastUpdate = userID, input
	return s.result(userID)
}

func (s *stubCartService) Remove(_ context.Context, userID string, productID uuid.UUID) (*cartsvc.CartDTO, error) {
	s.lastUser, s.lastRemove = userID, productID
	return s.result(userID)
}

func (s *stubCartService) Clear(_ context.Context, userID string) (*cartsvc.CartDTO, error) {
	s.lastUser = userID
	s.cleared++
	return s.result(userID)
}

func (s *stubCartService) Sync(_ context.Context, userID string, input cartsvc.SyncInput) (*cartsvc.CartDTO, error) {
	s.lastUser, s.lastSync = userID, input
	return s.result(userID)
}

func newCartRouter(svc cartsvc.Service, userID string, role enums.Role) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithUserID(req.Context(), userID)
			ctx = middleware.WithRole(ctx, string(role))
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Post("/api/v1/cart/add", CartAdd(svc, nil))
	r.Put("/api/v1/cart/update", CartUpdate(svc, nil))
	r.Post("/api/v1/cart/sync", CartSync(svc, nil))
	r.Get("/api/v1/cart/{userId}", CartFetch(svc, nil))
	r.Delete("/api/v1/cart/{userId}", CartClear(svc, nil))
	r.Delete("/api/v1/cart/{userId}/{productId}", CartRemoveItem(svc, nil))
	return r
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return payload.Error.Code
}

func TestCartAddUsesTokenUserAndRegion(t *testing.T) {
	svc := &stubCartService{}
	productID := uuid.New()
	body := `{"product_id":"` + productID.String() + `","quantity":2,"district":" Quận 1 "}`

	resp := serve(newCartRouter(svc, "user-1", enums.RoleCustomer), http.MethodPost, "/api/v1/cart/add", body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastUser != "user-1" {
		t.Fatalf("expected token user, got %q", svc.lastUser)
	}
	if svc.lastAdd.ProductID != productID || svc.lastAdd.Quantity != 2 {
		t.Fatalf("unexpected add input %+v", svc.lastAdd)
	}
	if svc.lastAdd.Region.District != "Quận 1" {
		t.Fatalf("expected trimmed district, got %q", svc.lastAdd.Region.District)
	}
}

func TestCartAddRejectsZeroQuantity(t *testing.T) {
	svc := &stubCartService{}
	body := `{"product_id":"` + uuid.NewString() + `","quantity":0}`

	resp := serve(newCartRouter(svc, "user-1", enums.RoleCustomer), http.MethodPost, "/api/v1/cart/add", body)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.lastUser != "" {
		t.Fatal("service should not be called")
	}
}

func TestCartAddSurfacesInsufficientStock(t *testing.T) {
	productID := uuid.New()
	svc := &stubCartService{err: pkgerrors.InsufficientStock(productID.String(), 5, 4)}
	body := `{"product_id":"` + productID.String() + `","quantity":3}`

	resp := serve(newCartRouter(svc, "user-1", enums.RoleCustomer), http.MethodPost, "/api/v1/cart/add", body)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != string(pkgerrors.CodeInsufficientStock) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestCartOwnerMustMatchUnlessAdmin(t *testing.T) {
	svc := &stubCartService{}

	resp := serve(newCartRouter(svc, "user-1", enums.RoleCustomer), http.MethodGet, "/api/v1/cart/user-2", "")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}

	resp = serve(newCartRouter(svc, "admin-1", enums.RoleAdmin), http.MethodGet, "/api/v1/cart/user-2", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
	if svc.lastUser != "user-2" {
		t.Fatalf("expected admin to read user-2, got %q", svc.lastUser)
	}

	body := `{"user_id":"user-2","product_id":"` + uuid.NewString() + `","quantity":1}`
	resp = serve(newCartRouter(svc, "user-1", enums.RoleCustomer), http.MethodPut, "/api/v1/cart/update", body)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for body user mismatch got %d", resp.Code)
	}
}

func TestCartRemoveAndClear(t *testing.T) {
	svc := &stubCartService{}
	router := newCartRouter(svc, "user-1", enums.RoleCustomer)
	productID := uuid.New()

	resp := serve(router, http.MethodDelete, "/api/v1/cart/user-1/"+productID.String(), "")
	if resp.Code != http.StatusOK || svc.lastRemove != productID {
		t.Fatalf("expected removal of %s, got %d %s", productID, resp.Code, svc.lastRemove)
	}

	resp = serve(router, http.MethodDelete, "/api/v1/cart/user-1/not-a-uuid", "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad product id got %d", resp.Code)
	}

	resp = serve(router, http.MethodDelete, "/api/v1/cart/user-1", "")
	if resp.Code != http.StatusOK || svc.cleared != 1 {
		t.Fatalf("expected clear, got %d cleared=%d", resp.Code, svc.cleared)
	}
}

func TestCartRemoveMissingLineIsNotFound(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")}
	resp := serve(newCartRouter(svc, "user-1", enums.RoleCustomer), http.MethodDelete, "/api/v1/cart/user-1/"+uuid.NewString(), "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCartFetchWithoutSavedCartIsNotFound(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")}
	resp := serve(newCartRouter(svc, "user-1", enums.RoleCustomer), http.MethodGet, "/api/v1/cart/user-1", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != string(pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND got %s", code)
	}
	if svc.lastUser != "user-1" {
		t.Fatalf("expected lookup for user-1, got %q", svc.lastUser)
	}
}

func TestCartSyncNormalisesDiscounts(t *testing.T) {
	svc := &stubCartService{}
	productID := uuid.New()
	body := `{"items":[{"product_id":"` + productID.String() + `","quantity":3,"discount":"25%"}],"district":"Quận 3"}`

	resp := serve(newCartRouter(svc, "user-1", enums.RoleCustomer), http.MethodPost, "/api/v1/cart/sync", body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.lastSync.Items) != 1 {
		t.Fatalf("expected one item, got %+v", svc.lastSync.Items)
	}
	item := svc.lastSync.Items[0]
	if item.ProductID != productID || item.Quantity != 3 || item.Discount != 25 {
		t.Fatalf("unexpected synced item %+v", item)
	}
	if svc.lastSync.Region.District != "Quận 3" {
		t.Fatalf("unexpected region %+v", svc.lastSync.Region)
	}
}

func TestCartSyncEmptyListIsAllowed(t *testing.T) {
	svc := &stubCartService{}
	resp := serve(newCartRouter(svc, "user-1", enums.RoleCustomer), http.MethodPost, "/api/v1/cart/sync", `{"items":[]}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastSync.Items == nil || len(svc.lastSync.Items) != 0 {
		t.Fatalf("expected an empty, non-nil item list, got %#v", svc.lastSync.Items)
	}
}
