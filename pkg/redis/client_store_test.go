package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/bloomcart-backend/pkg/redis"
	"github.com/angelmondragon/bloomcart-backend/pkg/redis/redistest"
)

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	mock := redistest.NewStore()
	client := redis.NewWithStore(mock)

	if err := client.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := client.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Fatalf("expected v, got %q err=%v", got, err)
	}
	if mock.TTL("k") != time.Minute {
		t.Fatalf("expected ttl recorded, got %v", mock.TTL("k"))
	}

	if err := client.Del(ctx, "k"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, "k"); !redis.IsNil(err) {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestMGetReportsMissingKeys(t *testing.T) {
	ctx := context.Background()
	client := redis.NewWithStore(redistest.NewStore())
	_ = client.Set(ctx, "a", "1", 0)
	_ = client.Set(ctx, "c", "3", 0)

	values, found, err := client.MGet(ctx, "a", "b", "c")
	if err != nil {
		t.Fatalf("mget: %v", err)
	}
	if values[0] != "1" || values[2] != "3" || values[1] != "" {
		t.Fatalf("unexpected values %v", values)
	}
	if !found[0] || found[1] || !found[2] {
		t.Fatalf("unexpected found flags %v", found)
	}
}

func TestIncrWithTTLSetsExpiryOnce(t *testing.T) {
	ctx := context.Background()
	mock := redistest.NewStore()
	client := redis.NewWithStore(mock)

	for want := int64(1); want <= 3; want++ {
		got, err := client.IncrWithTTL(ctx, "counter", time.Minute)
		if err != nil {
			t.Fatalf("incr: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}
	if mock.TTL("counter") != time.Minute {
		t.Fatalf("expected ttl to be set, got %v", mock.TTL("counter"))
	}
}

func TestSetNX(t *testing.T) {
	ctx := context.Background()
	client := redis.NewWithStore(redistest.NewStore())

	ok, err := client.SetNX(ctx, "lock", "a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first setnx to win, ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, "lock", "b", time.Minute)
	if err != nil || ok {
		t.Fatalf("expected second setnx to lose, ok=%v err=%v", ok, err)
	}
}

func TestStoreErrorSurfacesThroughClient(t *testing.T) {
	mock := redistest.NewStore()
	mock.Err = errors.New("connection refused")
	client := redis.NewWithStore(mock)

	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected ping to fail")
	}
	if _, err := client.Get(context.Background(), "k"); err == nil || redis.IsNil(err) {
		t.Fatalf("expected a transport error, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close over a store should be a no-op, got %v", err)
	}
}
