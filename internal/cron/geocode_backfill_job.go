package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/bloomcart-backend/internal/stores"
	"github.com/angelmondragon/bloomcart-backend/pkg/logger"
)

const defaultBackfillBatch = 50

type GeocodeBackfillJobParams struct {
	Logger    *logger.Logger
	Stores    storeBackfiller
	BatchSize int
}

type storeBackfiller interface {
	BackfillLocations(ctx context.Context, limit int) (stores.BackfillResult, error)
}

// NewGeocodeBackfillJob retries geocoding for active stores saved without coordinates.
func NewGeocodeBackfillJob(params GeocodeBackfillJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Stores == nil {
		return nil, fmt.Errorf("store service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBackfillBatch
	}
	return &geocodeBackfillJob{
		logg:   params.Logger,
		stores: params.Stores,
		batch:  batch,
	}, nil
}

type geocodeBackfillJob struct {
	logg   *logger.Logger
	stores storeBackfiller
	batch  int
}

func (j *geocodeBackfillJob) Name() string { return "store-geocode-backfill" }

func (j *geocodeBackfillJob) Run(ctx context.Context) error {
	result, err := j.stores.BackfillLocations(ctx, j.batch)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"batch_size": j.batch,
		"scanned":    result.Scanned,
		"geocoded":   result.Geocoded,
		"failed":     result.Failed,
	})
	if err != nil {
		j.logg.Warn(logCtx, "store geocode backfill incomplete")
		return fmt.Errorf("store geocode backfill: %w", err)
	}
	j.logg.Info(logCtx, "store geocode backfill complete")
	return nil
}
