package cartsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bloomcart-backend/pkg/debounce"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/logger"
	"github.com/angelmondragon/bloomcart-backend/pkg/redis/redistest"
	"github.com/angelmondragon/bloomcart-backend/pkg/types"
)

type stubStock map[uuid.UUID]int

func (s stubStock) AvailableQuantity(_ context.Context, _ types.Region, productID uuid.UUID) (int, error) {
	return s[productID], nil
}

type stubSnapshots struct {
	names map[uuid.UUID]string
}

func (s stubSnapshots) Snapshot(_ context.Context, region types.Region, productID uuid.UUID) (Item, error) {
	name, ok := s.names[productID]
	if !ok {
		return Item{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	price := int64(100000)
	if region.District == "Quận 1" {
		price = 110000
	}
	return Item{ProductID: productID, Name: name, Price: price}, nil
}

type savedCart struct {
	items  []Item
	region types.Region
}

type stubRemote struct {
	mu      sync.Mutex
	carts   map[string][]Item
	saves   []savedCart
	clears  int
	saveErr error
}

func newStubRemote() *stubRemote {
	return &stubRemote{carts: map[string][]Item{}}
}

func (r *stubRemote) Load(_ context.Context, userID string) ([]Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneItems(r.carts[userID]), nil
}

func (r *stubRemote) Save(_ context.Context, userID string, items []Item, region types.Region) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, savedCart{items: cloneItems(items), region: region})
	if r.saveErr != nil {
		return r.saveErr
	}
	r.carts[userID] = cloneItems(items)
	return nil
}

func (r *stubRemote) Clear(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
	delete(r.carts, userID)
	return nil
}

func (r *stubRemote) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}

type engineFixture struct {
	engine *Engine
	local  *LocalRepository
	remote *stubRemote
	pushes *debounce.Scheduler
	stock  stubStock
	rose   uuid.UUID
	lily   uuid.UUID
}

func newEngineFixture(t *testing.T, opts ...Option) *engineFixture {
	t.Helper()
	local, err := NewLocalRepository(redistest.NewClient(), time.Hour, logger.Nop())
	if err != nil {
		t.Fatalf("local repository: %v", err)
	}
	rose, lily := uuid.New(), uuid.New()
	stock := stubStock{rose: 5, lily: 10}
	remote := newStubRemote()
	pushes := debounce.New(time.Hour)
	t.Cleanup(pushes.Close)

	engine, err := NewEngine(local, remote, stock, stubSnapshots{names: map[uuid.UUID]string{rose: "Rose", lily: "Lily"}}, pushes, logger.Nop(), opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return &engineFixture{engine: engine, local: local, remote: remote, pushes: pushes, stock: stock, rose: rose, lily: lily}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if !pkgerrors.Is(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestNewEngineRequiresDependencies(t *testing.T) {
	if _, err := NewEngine(nil, nil, nil, nil, nil, nil); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}

func TestGuestAddMergesAndChecksStock(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	guest := Session{GuestID: "guest-1"}

	if _, err := f.engine.Add(ctx, guest, f.rose, 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	items, err := f.engine.Add(ctx, guest, f.rose, 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 5 {
		t.Fatalf("expected one line of 5, got %+v", items)
	}

	_, err = f.engine.Add(ctx, guest, f.rose, 1)
	requireCode(t, err, pkgerrors.CodeInsufficientStock)

	stored, err := f.engine.Items(ctx, guest)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(stored) != 1 || stored[0].Quantity != 5 {
		t.Fatalf("expected local cart unchanged at 5, got %+v", stored)
	}
	if f.pushes.Pending("") || f.remote.saveCount() != 0 {
		t.Fatal("guest mutations must not push remotely")
	}
}

func TestAddRejectedAtStockFourKeepsLineAtTwo(t *testing.T) {
	f := newEngineFixture(t)
	f.stock[f.rose] = 4
	ctx := context.Background()
	guest := Session{GuestID: "guest-1"}

	if _, err := f.engine.Add(ctx, guest, f.rose, 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := f.engine.Add(ctx, guest, f.rose, 3)
	requireCode(t, err, pkgerrors.CodeInsufficientStock)

	items, _ := f.engine.Items(ctx, guest)
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Fatalf("expected line to stay at 2, got %+v", items)
	}
}

func TestAddUsesSelectedRegionForSnapshot(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	guest := Session{GuestID: "guest-1"}

	if _, err := f.engine.SetRegion(ctx, guest, "Quận 1", "Bến Nghé"); err != nil {
		t.Fatalf("set region: %v", err)
	}
	items, err := f.engine.Add(ctx, guest, f.lily, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if items[0].Price != 110000 {
		t.Fatalf("expected regional price, got %d", items[0].Price)
	}

	region, err := f.engine.Region(ctx, guest)
	if err != nil {
		t.Fatalf("region: %v", err)
	}
	if region.District != "Quận 1" || region.Ward != "Bến Nghé" {
		t.Fatalf("unexpected region %+v", region)
	}

	_, err = f.engine.SetRegion(ctx, guest, "", "Bến Nghé")
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestRemoveAndUpdateQuantity(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	guest := Session{GuestID: "guest-1"}

	if _, err := f.engine.Add(ctx, guest, f.rose, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err := f.engine.Remove(ctx, guest, f.lily)
	requireCode(t, err, pkgerrors.CodeNotFound)
	items, _ := f.engine.Items(ctx, guest)
	if len(items) != 1 {
		t.Fatalf("expected cart unchanged, got %+v", items)
	}

	_, err = f.engine.UpdateQuantity(ctx, guest, f.rose, 0)
	requireCode(t, err, pkgerrors.CodeValidation)
	_, err = f.engine.UpdateQuantity(ctx, guest, f.rose, 6)
	requireCode(t, err, pkgerrors.CodeInsufficientStock)
	_, err = f.engine.UpdateQuantity(ctx, guest, f.lily, 1)
	requireCode(t, err, pkgerrors.CodeNotFound)

	items, err = f.engine.UpdateQuantity(ctx, guest, f.rose, 4)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if items[0].Quantity != 4 {
		t.Fatalf("expected quantity 4, got %+v", items)
	}

	items, err = f.engine.Remove(ctx, guest, f.rose)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty cart, got %+v", items)
	}
}

func TestAuthenticatedMutationsCoalesceIntoOnePush(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	sess := Session{GuestID: "guest-1", UserID: "user-1"}

	if _, err := f.engine.Add(ctx, sess, f.rose, 1); err != nil {
		t.Fatalf("add rose: %v", err)
	}
	if _, err := f.engine.Add(ctx, sess, f.lily, 2); err != nil {
		t.Fatalf("add lily: %v", err)
	}
	if _, err := f.engine.UpdateQuantity(ctx, sess, f.rose, 3); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !f.pushes.Pending("user-1") {
		t.Fatal("expected a pending push")
	}

	f.pushes.Flush("user-1")

	if got := f.remote.saveCount(); got != 1 {
		t.Fatalf("expected one coalesced push, got %d", got)
	}
	pushed := f.remote.saves[0].items
	if len(pushed) != 2 || pushed[0].Quantity != 3 || pushed[1].Quantity != 2 {
		t.Fatalf("expected latest list to be pushed, got %+v", pushed)
	}
}

func TestLoginAdoptsNonEmptyLocalCart(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	f.remote.carts["user-1"] = []Item{{ProductID: f.lily, Name: "Lily", Quantity: 7}}

	if _, err := f.engine.Add(ctx, Session{GuestID: "guest-1"}, f.rose, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	items, err := f.engine.Login(ctx, Session{GuestID: "guest-1", UserID: "user-1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if len(items) != 1 || items[0].ProductID != f.rose {
		t.Fatalf("expected local cart adopted, got %+v", items)
	}

	f.pushes.Flush("user-1")
	remote, _ := f.remote.Load(ctx, "user-1")
	if len(remote) != 1 || remote[0].ProductID != f.rose || remote[0].Quantity != 2 {
		t.Fatalf("expected local cart pushed, got %+v", remote)
	}
}

func TestLoginSeedsEmptyLocalFromRemote(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	f.remote.carts["user-1"] = []Item{{ProductID: f.lily, Name: "Lily", Quantity: 7}}
	sess := Session{GuestID: "guest-1", UserID: "user-1"}

	items, err := f.engine.Login(ctx, sess)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 7 {
		t.Fatalf("expected remote cart, got %+v", items)
	}
	local, _ := f.engine.Items(ctx, sess)
	if len(local) != 1 || local[0].ProductID != f.lily {
		t.Fatalf("expected local seeded from remote, got %+v", local)
	}
	if f.pushes.Pending("user-1") {
		t.Fatal("seeding must not push back")
	}

	_, err = f.engine.Login(ctx, Session{GuestID: "guest-2"})
	requireCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLogoutFlushesAndKeepsLocal(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	sess := Session{GuestID: "guest-1", UserID: "user-1"}

	if _, err := f.engine.Add(ctx, sess, f.rose, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	items, err := f.engine.Logout(ctx, sess)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if f.remote.saveCount() != 1 {
		t.Fatalf("expected logout to flush the pending push, got %d saves", f.remote.saveCount())
	}
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Fatalf("expected local contents kept, got %+v", items)
	}

	guestItems, _ := f.engine.Items(ctx, Session{GuestID: "guest-1"})
	if len(guestItems) != 1 {
		t.Fatalf("expected guest cart to keep the items, got %+v", guestItems)
	}
}

func TestClearIsIdempotentAndClearsRemote(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	sess := Session{GuestID: "guest-1", UserID: "user-1"}

	if err := f.engine.Clear(ctx, Session{GuestID: "empty"}); err != nil {
		t.Fatalf("clear empty: %v", err)
	}
	if _, err := f.engine.Add(ctx, sess, f.rose, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.engine.Clear(ctx, sess); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := f.engine.Clear(ctx, sess); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	f.pushes.Flush("user-1")

	if f.remote.saveCount() != 0 {
		t.Fatalf("expected the clear to supersede the pending push, got %d saves", f.remote.saveCount())
	}
	if f.remote.clears != 1 {
		t.Fatalf("expected one remote clear, got %d", f.remote.clears)
	}
	items, _ := f.engine.Items(ctx, sess)
	if len(items) != 0 {
		t.Fatalf("expected empty local cart, got %+v", items)
	}
}

func TestPushFailureDoesNotFailMutation(t *testing.T) {
	f := newEngineFixture(t)
	f.remote.saveErr = errors.New("remote down")
	sess := Session{GuestID: "guest-1", UserID: "user-1"}

	if _, err := f.engine.Add(context.Background(), sess, f.rose, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	f.pushes.Flush("user-1")
	if f.remote.saveCount() != 1 {
		t.Fatalf("expected the push to be attempted, got %d", f.remote.saveCount())
	}
	items, _ := f.engine.Items(context.Background(), sess)
	if len(items) != 1 {
		t.Fatalf("expected local cart kept, got %+v", items)
	}
}

func TestCustomMergeFunc(t *testing.T) {
	replace := func(base, incoming []Item) []Item {
		out := cloneItems(base)
		for _, in := range incoming {
			found := false
			for i := range out {
				if out[i].ProductID == in.ProductID {
					out[i] = in
					found = true
				}
			}
			if !found {
				out = append(out, in)
			}
		}
		return out
	}
	f := newEngineFixture(t, WithMergeFunc(replace))
	guest := Session{GuestID: "guest-1"}

	if _, err := f.engine.Add(context.Background(), guest, f.lily, 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	items, err := f.engine.Add(context.Background(), guest, f.lily, 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if items[0].Quantity != 3 {
		t.Fatalf("expected custom merge to replace quantity, got %+v", items)
	}
}

func TestSessionWithoutIdentityIsRejected(t *testing.T) {
	f := newEngineFixture(t)
	_, err := f.engine.Items(context.Background(), Session{})
	requireCode(t, err, pkgerrors.CodeValidation)

	items, err := f.engine.Items(context.Background(), Session{UserID: "user-9"})
	if err != nil || len(items) != 0 {
		t.Fatalf("expected an empty cart for a user without guest id, got %v %v", items, err)
	}
}
