package cartsync

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/logger"
	"github.com/angelmondragon/bloomcart-backend/pkg/redis"
	"github.com/angelmondragon/bloomcart-backend/pkg/types"
)

type localStore interface {
	Get(ctx context.Context, key string) (string, error)
	MGet(ctx context.Context, keys ...string) ([]string, []bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	LocalCartKey(guestID string) string
	LocalDistrictKey(guestID string) string
	LocalWardKey(guestID string) string
}

// LocalRepository keeps guest carts in redis as a JSON item array, with the picked
// district and ward under their own keys.
type LocalRepository struct {
	store localStore
	ttl   time.Duration
	logg  *logger.Logger
}

// NewLocalRepository builds the guest cart store. A zero ttl keeps keys forever.
func NewLocalRepository(store localStore, ttl time.Duration, logg *logger.Logger) (*LocalRepository, error) {
	if store == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &LocalRepository{store: store, ttl: ttl, logg: logg}, nil
}

// Load returns the guest's items. A missing or unreadable document is an empty cart.
func (r *LocalRepository) Load(ctx context.Context, guestID string) ([]Item, error) {
	raw, err := r.store.Get(ctx, r.store.LocalCartKey(guestID))
	if err != nil {
		if redis.IsNil(err) {
			return []Item{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load local cart")
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		ctx = r.logg.WithGuestID(ctx, guestID)
		r.logg.Warn(ctx, "discarding unreadable local cart")
		return []Item{}, nil
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// Save overwrites the guest's items. The region is stored separately through SetRegion.
func (r *LocalRepository) Save(ctx context.Context, guestID string, items []Item, _ types.Region) error {
	if items == nil {
		items = []Item{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode local cart")
	}
	if err := r.store.Set(ctx, r.store.LocalCartKey(guestID), string(payload), r.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save local cart")
	}
	return nil
}

func (r *LocalRepository) Clear(ctx context.Context, guestID string) error {
	if err := r.store.Del(ctx, r.store.LocalCartKey(guestID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear local cart")
	}
	return nil
}

// Region returns the district and ward the guest picked, zero when none.
func (r *LocalRepository) Region(ctx context.Context, guestID string) (types.Region, error) {
	values, found, err := r.store.MGet(ctx, r.store.LocalDistrictKey(guestID), r.store.LocalWardKey(guestID))
	if err != nil {
		return types.Region{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load local region")
	}
	var district, ward string
	if found[0] {
		district = values[0]
	}
	if found[1] {
		ward = values[1]
	}
	return types.NewRegion(district, ward, nil), nil
}

// SetRegion stores the picked district and ward. Empty parts delete their key.
func (r *LocalRepository) SetRegion(ctx context.Context, guestID string, region types.Region) error {
	writes := []struct {
		key   string
		value string
	}{
		{r.store.LocalDistrictKey(guestID), strings.TrimSpace(region.District)},
		{r.store.LocalWardKey(guestID), strings.TrimSpace(region.Ward)},
	}
	for _, w := range writes {
		var err error
		if w.value == "" {
			err = r.store.Del(ctx, w.key)
		} else {
			err = r.store.Set(ctx, w.key, w.value, r.ttl)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save local region")
		}
	}
	return nil
}
