package shipping

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/bloomcart-backend/internal/stores"
	"github.com/angelmondragon/bloomcart-backend/pkg/config"
	"github.com/angelmondragon/bloomcart-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/geo"
	"github.com/angelmondragon/bloomcart-backend/pkg/logger"
	"github.com/angelmondragon/bloomcart-backend/pkg/metrics"
)

type candidateLocator interface {
	Candidates(ctx context.Context, q stores.LocateQuery) ([]stores.StoreDTO, error)
}

type stockLedger interface {
	StockLedger(ctx context.Context, productIDs, storeIDs []uuid.UUID) ([]models.ProductStock, error)
}

type quoteMetrics interface {
	ObserveQuote(mode string, distanceKm float64, fee int64)
	IncOutcome(outcome, mode string)
}

// QuoteInput describes a delivery destination. Point wins over District when both are set.
// A nil BaseFee uses the configured default.
type QuoteInput struct {
	Point      *geo.Point
	District   string
	ProductIDs []uuid.UUID
	BaseFee    *int64
}

// StoreSummary identifies the store a quote ships from.
type StoreSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Address  string    `json:"address"`
	District string    `json:"district"`
	Ward     string    `json:"ward"`
}

// Quote is a non-binding delivery estimate; no stock is reserved.
type Quote struct {
	Fee        int64        `json:"fee"`
	DistanceKm float64      `json:"distance_km"`
	ETAMinutes int          `json:"eta_minutes"`
	Store      StoreSummary `json:"store"`
}

// Estimator produces delivery quotes.
type Estimator interface {
	Quote(ctx context.Context, input QuoteInput) (*Quote, error)
}

type estimator struct {
	locator   candidateLocator
	stock     stockLedger
	metrics   quoteMetrics
	logg      *logger.Logger
	schedule  FeeSchedule
	baseFee   int64
	maxKm     float64
	maxStores int
}

// NewEstimator wires the shipping quote. metrics may be nil.
func NewEstimator(locator candidateLocator, stock stockLedger, m *metrics.ShippingMetrics, logg *logger.Logger, cfg config.ShippingConfig) (Estimator, error) {
	if locator == nil {
		return nil, fmt.Errorf("store locator required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	e := &estimator{
		locator:   locator,
		stock:     stock,
		logg:      logg,
		schedule:  ScheduleFromConfig(cfg),
		baseFee:   cfg.BaseFee,
		maxKm:     cfg.MaxDistanceKm,
		maxStores: cfg.MaxStores,
	}
	if m != nil {
		e.metrics = m
	}
	if e.maxKm <= 0 {
		e.maxKm = stores.DefaultMaxDistanceKm
	}
	if e.maxStores <= 0 {
		e.maxStores = stores.DefaultNearestLimit
	}
	return e, nil
}

func (e *estimator) Quote(ctx context.Context, input QuoteInput) (*Quote, error) {
	baseFee := e.baseFee
	if input.BaseFee != nil {
		baseFee = *input.BaseFee
	}
	if baseFee < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base shipping fee must be zero or greater")
	}

	query := stores.LocateQuery{
		District:      input.District,
		Point:         input.Point,
		MaxDistanceKm: e.maxKm,
		Limit:         e.maxStores,
	}
	mode := query.Mode()

	candidates, err := e.locator.Candidates(ctx, query)
	if err != nil {
		e.outcome(ctx, metrics.QuoteOutcomeError, mode, err)
		return nil, err
	}
	if len(candidates) == 0 {
		e.outcome(ctx, metrics.QuoteOutcomeNoCoverage, mode, nil)
		return nil, noCoverage(input)
	}

	chosen := candidates[0]
	if len(input.ProductIDs) > 0 && input.Point != nil {
		chosen, err = e.firstCovering(ctx, candidates, input.ProductIDs)
		if err != nil {
			e.outcome(ctx, metrics.QuoteOutcomeError, mode, err)
			return nil, err
		}
	}

	distance := 0.0
	if input.Point != nil && chosen.Location != nil {
		distance = geo.Round2(geo.Distance(*chosen.Location, *input.Point))
	}

	quote := &Quote{
		Fee:        e.schedule.Fee(baseFee, distance),
		DistanceKm: distance,
		ETAMinutes: ETAMinutes(distance),
		Store: StoreSummary{
			ID:       chosen.ID,
			Name:     chosen.Name,
			Address:  chosen.Address,
			District: chosen.District,
			Ward:     chosen.Ward,
		},
	}
	if e.metrics != nil {
		e.metrics.ObserveQuote(mode, quote.DistanceKm, quote.Fee)
	}
	return quote, nil
}

// firstCovering keeps locator order and falls back to the first candidate.
func (e *estimator) firstCovering(ctx context.Context, candidates []stores.StoreDTO, productIDs []uuid.UUID) (stores.StoreDTO, error) {
	storeIDs := make([]uuid.UUID, 0, len(candidates))
	for _, c := range candidates {
		storeIDs = append(storeIDs, c.ID)
	}
	rows, err := e.stock.StockLedger(ctx, productIDs, storeIDs)
	if err != nil {
		return stores.StoreDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock ledger")
	}

	held := make(map[uuid.UUID]map[uuid.UUID]int, len(candidates))
	for _, row := range rows {
		if held[row.StoreID] == nil {
			held[row.StoreID] = map[uuid.UUID]int{}
		}
		held[row.StoreID][row.ProductID] += row.Quantity
	}

	for _, c := range candidates {
		covers := true
		for _, pid := range productIDs {
			if held[c.ID][pid] < 1 {
				covers = false
				break
			}
		}
		if covers {
			return c, nil
		}
	}
	return candidates[0], nil
}

func (e *estimator) outcome(ctx context.Context, outcome, mode string, err error) {
	if e.metrics != nil {
		e.metrics.IncOutcome(outcome, mode)
	}
	if err != nil && !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		e.logg.Error(e.logg.WithField(ctx, "mode", mode), "shipping quote failed", err)
	}
}

func noCoverage(input QuoteInput) error {
	details := map[string]any{}
	if input.District != "" {
		details["district"] = input.District
	}
	if input.Point != nil {
		details["latitude"] = input.Point.Lat
		details["longitude"] = input.Point.Lng
	}
	return pkgerrors.New(pkgerrors.CodeNoCoverage, "no store serves this area").WithDetails(details)
}
