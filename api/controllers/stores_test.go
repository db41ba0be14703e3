package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/bloomcart-backend/internal/stores"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/geo"
)

type stubLocator struct {
	byDistrict   []stores.StoreDTO
	nearest      []stores.StoreDTO
	regions      []stores.Region
	lastDistrict string
	lastWard     string
	lastNearest  stores.NearestQuery
}

func (s *stubLocator) ByDistrict(_ context.Context, district, ward string) ([]stores.StoreDTO, error) {
	s.lastDistrict, s.lastWard = district, ward
	return s.byDistrict, nil
}

func (s *stubLocator) Nearest(_ context.Context, q stores.NearestQuery) ([]stores.StoreDTO, error) {
	s.lastNearest = q
	return s.nearest, nil
}

func (s *stubLocator) Candidates(context.Context, stores.LocateQuery) ([]stores.StoreDTO, error) {
	return nil, nil
}

func (s *stubLocator) Regions(context.Context) ([]stores.Region, error) {
	return s.regions, nil
}

type stubStoreService struct {
	all        []stores.StoreDTO
	lastFilter stores.ListFilter
	lastCreate stores.CreateStoreInput
	lastUpdate stores.UpdateStoreInput
	updateErr  error
}

func (s *stubStoreService) GetByID(context.Context, uuid.UUID) (*stores.StoreDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
}

func (s *stubStoreService) List(_ context.Context, filter stores.ListFilter) ([]stores.StoreDTO, error) {
	s.lastFilter = filter
	return s.all, nil
}

func (s *stubStoreService) Create(_ context.Context, input stores.CreateStoreInput) (*stores.StoreDTO, error) {
	s.lastCreate = input
	return &stores.StoreDTO{ID: uuid.New(), Name: input.Name, District: input.District, Ward: input.Ward, IsActive: true}, nil
}

func (s *stubStoreService) Update(_ context.Context, id uuid.UUID, input stores.UpdateStoreInput) (*stores.StoreDTO, error) {
	s.lastUpdate = input
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return &stores.StoreDTO{ID: id}, nil
}

func (s *stubStoreService) BackfillLocations(context.Context, int) (stores.BackfillResult, error) {
	return stores.BackfillResult{}, nil
}

func serveController(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
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

func decodeListCount(t *testing.T, resp *httptest.ResponseRecorder) int {
	t.Helper()
	var envelope struct {
		Data []json.RawMessage `json:"data"`
		Meta struct {
			Count int `json:"count"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if envelope.Meta.Count != len(envelope.Data) {
		t.Fatalf("meta count %d does not match %d items", envelope.Meta.Count, len(envelope.Data))
	}
	return envelope.Meta.Count
}

func decodeErrorCode(t *testing.T, resp *httptest.ResponseRecorder) pkgerrors.Code {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return pkgerrors.Code(payload.Error.Code)
}

func newStoresRouter(locator stores.Locator, svc stores.Service) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/v1/stores", StoreList(locator, svc, nil))
	r.Get("/api/v1/stores/nearest", StoreNearest(locator, nil))
	r.Get("/api/v1/stores/regions", StoreRegions(locator, nil))
	r.Post("/api/admin/v1/stores", AdminCreateStore(svc, nil))
	r.Put("/api/admin/v1/stores/{storeId}", AdminUpdateStore(svc, nil))
	return r
}

func TestStoreListByDistrictAndWard(t *testing.T) {
	locator := &stubLocator{byDistrict: []stores.StoreDTO{{ID: uuid.New(), District: "Quận 3", Ward: "Phường 6"}}}
	svc := &stubStoreService{}
	router := newStoresRouter(locator, svc)

	resp := serveController(router, http.MethodGet, "/api/v1/stores?district=Qu%E1%BA%ADn+3&ward=Ph%C6%B0%E1%BB%9Dng+6", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if decodeListCount(t, resp) != 1 {
		t.Fatal("expected one store")
	}
	if locator.lastDistrict != "Quận 3" || locator.lastWard != "Phường 6" {
		t.Fatalf("unexpected locator args %q %q", locator.lastDistrict, locator.lastWard)
	}
}

func TestStoreListWithoutDistrictListsActiveStores(t *testing.T) {
	locator := &stubLocator{}
	svc := &stubStoreService{all: []stores.StoreDTO{{ID: uuid.New()}, {ID: uuid.New()}}}
	router := newStoresRouter(locator, svc)

	resp := serveController(router, http.MethodGet, "/api/v1/stores", "")
	if resp.Code != http.StatusOK || decodeListCount(t, resp) != 2 {
		t.Fatalf("expected two stores, got %d %s", resp.Code, resp.Body.String())
	}
	if !svc.lastFilter.ActiveOnly {
		t.Fatal("expected active-only filter")
	}

	resp = serveController(router, http.MethodGet, "/api/v1/stores?ward=Ph%C6%B0%E1%BB%9Dng+6", "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for ward without district got %d", resp.Code)
	}
}

func TestStoreNearestValidatesCoordinates(t *testing.T) {
	locator := &stubLocator{nearest: []stores.StoreDTO{{ID: uuid.New()}}}
	router := newStoresRouter(locator, &stubStoreService{})

	cases := []string{
		"/api/v1/stores/nearest",
		"/api/v1/stores/nearest?latitude=10.77",
		"/api/v1/stores/nearest?latitude=91&longitude=106.7",
		"/api/v1/stores/nearest?latitude=abc&longitude=106.7",
		"/api/v1/stores/nearest?latitude=10.77&longitude=106.7&max_distance=500",
	}
	for _, path := range cases {
		resp := serveController(router, http.MethodGet, path, "")
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", path, resp.Code)
		}
		if code := decodeErrorCode(t, resp); code != pkgerrors.CodeValidation {
			t.Fatalf("%s: unexpected code %s", path, code)
		}
	}

	resp := serveController(router, http.MethodGet, "/api/v1/stores/nearest?latitude=10.7769&longitude=106.7009&max_distance=5", "")
	if resp.Code != http.StatusOK || decodeListCount(t, resp) != 1 {
		t.Fatalf("expected one store, got %d", resp.Code)
	}
	want := stores.NearestQuery{Point: geo.Point{Lat: 10.7769, Lng: 106.7009}, MaxDistanceKm: 5}
	if locator.lastNearest != want {
		t.Fatalf("unexpected query %+v", locator.lastNearest)
	}
}

func TestStoreRegions(t *testing.T) {
	locator := &stubLocator{regions: []stores.Region{{District: "Quận 1", Wards: []string{"Bến Nghé"}}}}
	resp := serveController(newStoresRouter(locator, &stubStoreService{}), http.MethodGet, "/api/v1/stores/regions", "")
	if resp.Code != http.StatusOK || decodeListCount(t, resp) != 1 {
		t.Fatalf("expected one region, got %d %s", resp.Code, resp.Body.String())
	}
}

func TestAdminCreateStore(t *testing.T) {
	svc := &stubStoreService{}
	router := newStoresRouter(&stubLocator{}, svc)

	resp := serveController(router, http.MethodPost, "/api/admin/v1/stores", `{"name":"Hoa Sài Gòn"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields got %d", resp.Code)
	}

	body := `{"name":"Hoa Sài Gòn","address":"12 Lê Lợi","district":"Quận 1","ward":"Bến Nghé","location":{"latitude":10.77,"longitude":106.70}}`
	resp = serveController(router, http.MethodPost, "/api/admin/v1/stores", body)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastCreate.Location == nil || svc.lastCreate.Location.Lat != 10.77 {
		t.Fatalf("expected location to pass through, got %+v", svc.lastCreate)
	}
}

func TestAdminUpdateStore(t *testing.T) {
	svc := &stubStoreService{}
	router := newStoresRouter(&stubLocator{}, svc)

	resp := serveController(router, http.MethodPut, "/api/admin/v1/stores/not-a-uuid", `{"is_active":false}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	resp = serveController(router, http.MethodPut, "/api/admin/v1/stores/"+uuid.NewString(), `{"is_active":false}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastUpdate.IsActive == nil || *svc.lastUpdate.IsActive {
		t.Fatalf("expected deactivation, got %+v", svc.lastUpdate)
	}

	svc.updateErr = pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	resp = serveController(router, http.MethodPut, "/api/admin/v1/stores/"+uuid.NewString(), `{"name":"x"}`)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
