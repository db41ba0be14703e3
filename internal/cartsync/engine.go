package cartsync

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/bloomcart-backend/pkg/debounce"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/logger"
	"github.com/angelmondragon/bloomcart-backend/pkg/types"
)

// LocalStore is the guest-side backend. It also remembers the picked region.
type LocalStore interface {
	Repository
	Region(ctx context.Context, guestID string) (types.Region, error)
	SetRegion(ctx context.Context, guestID string, region types.Region) error
}

// StockChecker reports how much of a product the region can supply.
type StockChecker interface {
	AvailableQuantity(ctx context.Context, region types.Region, productID uuid.UUID) (int, error)
}

// Snapshotter builds the catalogue snapshot for a new or refreshed line.
type Snapshotter interface {
	Snapshot(ctx context.Context, region types.Region, productID uuid.UUID) (Item, error)
}

type pushScheduler interface {
	Schedule(key string, fn debounce.Func) bool
	Flush(key string)
}

// Engine keeps the local cart current on every mutation and, for authenticated
// sessions, schedules a debounced push of the full list to the remote cart.
type Engine struct {
	local     LocalStore
	remote    Repository
	stock     StockChecker
	snapshots Snapshotter
	pushes    pushScheduler
	merge     MergeFunc
	logg      *logger.Logger
}

// Option customises an Engine.
type Option func(*Engine)

// WithMergeFunc replaces MergeByProduct.
func WithMergeFunc(fn MergeFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.merge = fn
		}
	}
}

func NewEngine(local LocalStore, remote Repository, stock StockChecker, snapshots Snapshotter, pushes pushScheduler, logg *logger.Logger, opts ...Option) (*Engine, error) {
	if local == nil {
		return nil, fmt.Errorf("local repository required")
	}
	if remote == nil {
		return nil, fmt.Errorf("remote repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock checker required")
	}
	if snapshots == nil {
		return nil, fmt.Errorf("snapshotter required")
	}
	if pushes == nil {
		return nil, fmt.Errorf("push scheduler required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	e := &Engine{
		local:     local,
		remote:    remote,
		stock:     stock,
		snapshots: snapshots,
		pushes:    pushes,
		merge:     MergeByProduct,
		logg:      logg,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Items(ctx context.Context, sess Session) ([]Item, error) {
	key, err := requireSession(sess)
	if err != nil {
		return nil, err
	}
	return e.local.Load(ctx, key)
}

// Add merges quantity of a product into the cart. The resulting line must fit regional stock.
func (e *Engine) Add(ctx context.Context, sess Session, productID uuid.UUID, quantity int) ([]Item, error) {
	key, err := requireSession(sess)
	if err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if quantity < 1 {
		return nil, invalidQuantity(quantity)
	}

	region, err := e.local.Region(ctx, key)
	if err != nil {
		return nil, err
	}
	items, err := e.local.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	current, _ := quantityOf(items, productID)
	if err := e.checkStock(ctx, region, productID, current+quantity); err != nil {
		return nil, err
	}

	line, err := e.snapshots.Snapshot(ctx, region, productID)
	if err != nil {
		return nil, err
	}
	line.Quantity = quantity
	return e.commit(ctx, sess, key, region, e.merge(items, []Item{line}))
}

func (e *Engine) UpdateQuantity(ctx context.Context, sess Session, productID uuid.UUID, quantity int) ([]Item, error) {
	key, err := requireSession(sess)
	if err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, invalidQuantity(quantity)
	}

	region, err := e.local.Region(ctx, key)
	if err != nil {
		return nil, err
	}
	items, err := e.local.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if _, ok := quantityOf(items, productID); !ok {
		return nil, lineNotFound(productID)
	}
	if err := e.checkStock(ctx, region, productID, quantity); err != nil {
		return nil, err
	}

	next := cloneItems(items)
	for i := range next {
		if next[i].ProductID == productID {
			next[i].Quantity = quantity
		}
	}
	return e.commit(ctx, sess, key, region, next)
}

// Remove drops a line. A product that is not in the cart is reported and nothing changes.
func (e *Engine) Remove(ctx context.Context, sess Session, productID uuid.UUID) ([]Item, error) {
	key, err := requireSession(sess)
	if err != nil {
		return nil, err
	}
	items, err := e.local.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if _, ok := quantityOf(items, productID); !ok {
		return nil, lineNotFound(productID)
	}

	next := make([]Item, 0, len(items))
	for _, item := range items {
		if item.ProductID != productID {
			next = append(next, item)
		}
	}
	region, err := e.local.Region(ctx, key)
	if err != nil {
		return nil, err
	}
	return e.commit(ctx, sess, key, region, next)
}

// Clear empties the cart. Clearing an empty or unknown cart succeeds.
func (e *Engine) Clear(ctx context.Context, sess Session) error {
	key, err := requireSession(sess)
	if err != nil {
		return err
	}
	if err := e.local.Clear(ctx, key); err != nil {
		return err
	}
	if sess.Authenticated() {
		userID := strings.TrimSpace(sess.UserID)
		e.pushes.Schedule(userID, func(ctx context.Context) {
			if err := e.remote.Clear(ctx, userID); err != nil {
				e.logPushFailure(ctx, userID, "remote cart clear failed", err)
			}
		})
	}
	return nil
}

// Login moves the cart home to the user's remote cart. A non-empty local cart is
// adopted and pushed; an empty one is seeded from the remote cart.
func (e *Engine) Login(ctx context.Context, sess Session) ([]Item, error) {
	if !sess.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login requires an authenticated user")
	}
	key, err := requireSession(sess)
	if err != nil {
		return nil, err
	}
	items, err := e.local.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	region, err := e.local.Region(ctx, key)
	if err != nil {
		return nil, err
	}

	if len(items) > 0 {
		e.schedulePush(sess, items, region)
		return items, nil
	}

	remote, err := e.remote.Load(ctx, strings.TrimSpace(sess.UserID))
	if err != nil {
		return nil, err
	}
	if len(remote) == 0 {
		return remote, nil
	}
	if err := e.local.Save(ctx, key, remote, region); err != nil {
		return nil, err
	}
	return remote, nil
}

// Logout waits for the pending push. The local cart keeps its contents.
func (e *Engine) Logout(ctx context.Context, sess Session) ([]Item, error) {
	key, err := requireSession(sess)
	if err != nil {
		return nil, err
	}
	if sess.Authenticated() {
		e.pushes.Flush(strings.TrimSpace(sess.UserID))
	}
	return e.local.Load(ctx, key)
}

func (e *Engine) Region(ctx context.Context, sess Session) (types.Region, error) {
	key, err := requireSession(sess)
	if err != nil {
		return types.Region{}, err
	}
	return e.local.Region(ctx, key)
}

// SetRegion stores the picked district and ward. A ward without a district is rejected.
func (e *Engine) SetRegion(ctx context.Context, sess Session, district, ward string) (types.Region, error) {
	key, err := requireSession(sess)
	if err != nil {
		return types.Region{}, err
	}
	region := types.NewRegion(district, ward, nil)
	if region.Ward != "" && !region.HasDistrict() {
		return types.Region{}, pkgerrors.New(pkgerrors.CodeValidation, "ward requires a district")
	}
	if err := e.local.SetRegion(ctx, key, region); err != nil {
		return types.Region{}, err
	}
	return region, nil
}

func (e *Engine) checkStock(ctx context.Context, region types.Region, productID uuid.UUID, requested int) error {
	available, err := e.stock.AvailableQuantity(ctx, region, productID)
	if err != nil {
		return err
	}
	if requested > available {
		return pkgerrors.InsufficientStock(productID.String(), requested, available)
	}
	return nil
}

func (e *Engine) commit(ctx context.Context, sess Session, key string, region types.Region, items []Item) ([]Item, error) {
	if err := e.local.Save(ctx, key, items, region); err != nil {
		return nil, err
	}
	if sess.Authenticated() {
		e.schedulePush(sess, items, region)
	}
	return items, nil
}

// schedulePush replaces any pending or running push for the user with this list.
func (e *Engine) schedulePush(sess Session, items []Item, region types.Region) {
	userID := strings.TrimSpace(sess.UserID)
	snapshot := cloneItems(items)
	e.pushes.Schedule(userID, func(ctx context.Context) {
		if err := e.remote.Save(ctx, userID, snapshot, region); err != nil {
			e.logPushFailure(ctx, userID, "remote cart push failed", err)
		}
	})
}

// Superseded pushes end with a cancelled ctx and are not reported.
func (e *Engine) logPushFailure(ctx context.Context, userID, msg string, err error) {
	if ctx.Err() != nil {
		return
	}
	ctx = e.logg.WithUserID(ctx, userID)
	e.logg.Error(ctx, msg, err)
}

func requireSession(sess Session) (string, error) {
	key := sess.localKey()
	if key == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "guest id is required")
	}
	return key, nil
}

func invalidQuantity(q int) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
		WithDetails(map[string]any{"quantity": q})
}

func lineNotFound(productID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found").
		WithDetails(map[string]any{"product_id": productID.String()})
}
