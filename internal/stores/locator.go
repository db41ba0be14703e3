package stores

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/bloomcart-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/geo"
)

const (
	DefaultMaxDistanceKm = 10.0
	DefaultNearestLimit  = 5

	regionsFlightKey = "regions"
)

// Lookup modes reported by LocateQuery.Mode.
const (
	ModeDistrict  = "district"
	ModeProximity = "proximity"
)

// NearestQuery asks for active stores around Point. Zero radius or limit take the locator defaults.
type NearestQuery struct {
	Point         geo.Point
	MaxDistanceKm float64
	Limit         int
}

// LocateQuery resolves a candidate store set. Point wins over District when both are set.
type LocateQuery struct {
	District      string
	Ward          string
	Point         *geo.Point
	MaxDistanceKm float64
	Limit         int
}

// Mode reports which lookup Candidates will run, or "" when the query is unusable.
func (q LocateQuery) Mode() string {
	switch {
	case q.Point != nil:
		return ModeProximity
	case strings.TrimSpace(q.District) != "":
		return ModeDistrict
	default:
		return ""
	}
}

type locatorRepository interface {
	List(ctx context.Context, filter ListFilter) ([]models.Store, error)
	FindActiveWithinBounds(ctx context.Context, box geo.BoundingBox) ([]models.Store, error)
	ListActiveDistrictWards(ctx context.Context) ([]models.Store, error)
}

// Locator finds the stores that can serve a district or a coordinate.
// An empty result is never an error.
type Locator interface {
	ByDistrict(ctx context.Context, district, ward string) ([]StoreDTO, error)
	Nearest(ctx context.Context, q NearestQuery) ([]StoreDTO, error)
	Candidates(ctx context.Context, q LocateQuery) ([]StoreDTO, error)
	Regions(ctx context.Context) ([]Region, error)
}

// LocatorDefaults caps proximity searches that do not ask for a radius or limit.
type LocatorDefaults struct {
	MaxDistanceKm float64
	Limit         int
}

type locator struct {
	repo     locatorRepository
	defaults LocatorDefaults
	flight   singleflight.Group
}

// NewLocator builds a Locator over the store repository.
func NewLocator(repo locatorRepository, defaults LocatorDefaults) (Locator, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if defaults.MaxDistanceKm <= 0 {
		defaults.MaxDistanceKm = DefaultMaxDistanceKm
	}
	if defaults.Limit <= 0 {
		defaults.Limit = DefaultNearestLimit
	}
	return &locator{repo: repo, defaults: defaults}, nil
}

func (l *locator) ByDistrict(ctx context.Context, district, ward string) ([]StoreDTO, error) {
	district = strings.TrimSpace(district)
	if district == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "district is required")
	}
	rows, err := l.repo.List(ctx, ListFilter{District: district, Ward: ward, ActiveOnly: true})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores by district")
	}
	return fromModels(rows), nil
}

func (l *locator) Nearest(ctx context.Context, q NearestQuery) ([]StoreDTO, error) {
	if !q.Point.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coordinates").
			WithDetails(map[string]any{"latitude": q.Point.Lat, "longitude": q.Point.Lng})
	}
	radius := q.MaxDistanceKm
	if radius <= 0 {
		radius = l.defaults.MaxDistanceKm
	}
	limit := q.Limit
	if limit <= 0 || limit > l.defaults.Limit {
		limit = l.defaults.Limit
	}

	rows, err := l.repo.FindActiveWithinBounds(ctx, geo.BoundsAround(q.Point, radius))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find nearby stores")
	}

	type ranked struct {
		store    *models.Store
		distance float64
	}
	hits := make([]ranked, 0, len(rows))
	for i := range rows {
		if !rows[i].IsActive {
			continue
		}
		loc := rows[i].Location()
		if loc == nil {
			continue
		}
		d := geo.Distance(q.Point, *loc)
		if d > radius {
			continue
		}
		hits = append(hits, ranked{store: &rows[i], distance: d})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].distance != hits[j].distance {
			return hits[i].distance < hits[j].distance
		}
		return hits[i].store.Name < hits[j].store.Name
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]StoreDTO, 0, len(hits))
	for _, h := range hits {
		dto := FromModel(h.store)
		km := geo.Round2(h.distance)
		dto.DistanceKm = &km
		out = append(out, *dto)
	}
	return out, nil
}

func (l *locator) Candidates(ctx context.Context, q LocateQuery) ([]StoreDTO, error) {
	switch q.Mode() {
	case ModeProximity:
		return l.Nearest(ctx, NearestQuery{Point: *q.Point, MaxDistanceKm: q.MaxDistanceKm, Limit: q.Limit})
	case ModeDistrict:
		return l.ByDistrict(ctx, q.District, q.Ward)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "district or coordinates are required")
	}
}

// Regions folds active stores into district -> wards. Concurrent callers share one query.
func (l *locator) Regions(ctx context.Context) ([]Region, error) {
	// A cancelled leader must not fail the callers sharing its flight.
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := l.flight.Do(regionsFlightKey, func() (any, error) {
		rows, err := l.repo.ListActiveDistrictWards(flightCtx)
		if err != nil {
			return nil, err
		}
		return foldRegions(rows), nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list regions")
	}
	shared := v.([]Region)
	out := make([]Region, len(shared))
	for i, r := range shared {
		out[i] = Region{District: r.District, Wards: append([]string(nil), r.Wards...)}
	}
	return out, nil
}

func foldRegions(rows []models.Store) []Region {
	wardsByDistrict := map[string]map[string]struct{}{}
	for _, row := range rows {
		district := strings.TrimSpace(row.District)
		if district == "" {
			continue
		}
		wards, ok := wardsByDistrict[district]
		if !ok {
			wards = map[string]struct{}{}
			wardsByDistrict[district] = wards
		}
		if ward := strings.TrimSpace(row.Ward); ward != "" {
			wards[ward] = struct{}{}
		}
	}

	regions := make([]Region, 0, len(wardsByDistrict))
	for district, set := range wardsByDistrict {
		wards := make([]string, 0, len(set))
		for w := range set {
			wards = append(wards, w)
		}
		sort.Strings(wards)
		regions = append(regions, Region{District: district, Wards: wards})
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].District < regions[j].District })
	return regions
}
