// Package redistest provides an in-process redis stand-in for tests.
package redistest

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/bloomcart-backend/pkg/redis"
)

// Store implements redis.Commands in memory. TTLs are recorded but never expire.
type Store struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration

	// Err, when set, is returned by every command.
	Err error
}

var _ redis.Commands = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		data: map[string]string{},
		ttls: map[string]time.Duration{},
	}
}

// NewClient returns a Client backed by a fresh Store.
func NewClient() *redis.Client {
	return redis.NewWithStore(NewStore())
}

func (m *Store) Ping(context.Context) *goredis.StatusCmd {
	if m.Err != nil {
		return goredis.NewStatusResult("", m.Err)
	}
	return goredis.NewStatusResult("PONG", nil)
}

func (m *Store) Set(_ context.Context, key string, value any, ttl time.Duration) *goredis.StatusCmd {
	if m.Err != nil {
		return goredis.NewStatusResult("", m.Err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = stringify(value)
	m.ttls[key] = ttl
	return goredis.NewStatusResult("OK", nil)
}

func (m *Store) Get(_ context.Context, key string) *goredis.StringCmd {
	if m.Err != nil {
		return goredis.NewStringResult("", m.Err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (m *Store) MGet(_ context.Context, keys ...string) *goredis.SliceCmd {
	if m.Err != nil {
		return goredis.NewSliceResult(nil, m.Err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]any, len(keys))
	for i, key := range keys {
		if v, ok := m.data[key]; ok {
			out[i] = v
		}
	}
	return goredis.NewSliceResult(out, nil)
}

func (m *Store) SetNX(_ context.Context, key string, value any, ttl time.Duration) *goredis.BoolCmd {
	if m.Err != nil {
		return goredis.NewBoolResult(false, m.Err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[key]; exists {
		return goredis.NewBoolResult(false, nil)
	}
	m.data[key] = stringify(value)
	m.ttls[key] = ttl
	return goredis.NewBoolResult(true, nil)
}

func (m *Store) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	if m.Err != nil {
		return goredis.NewIntResult(0, m.Err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for _, key := range keys {
		if _, ok := m.data[key]; ok {
			removed++
		}
		delete(m.data, key)
		delete(m.ttls, key)
	}
	return goredis.NewIntResult(removed, nil)
}

func (m *Store) Incr(_ context.Context, key string) *goredis.IntCmd {
	if m.Err != nil {
		return goredis.NewIntResult(0, m.Err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	if raw, ok := m.data[key]; ok {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return goredis.NewIntResult(0, fmt.Errorf("value is not an integer"))
		}
		n = parsed
	}
	n++
	m.data[key] = strconv.FormatInt(n, 10)
	return goredis.NewIntResult(n, nil)
}

func (m *Store) Expire(_ context.Context, key string, ttl time.Duration) *goredis.BoolCmd {
	if m.Err != nil {
		return goredis.NewBoolResult(false, m.Err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return goredis.NewBoolResult(false, nil)
	}
	m.ttls[key] = ttl
	return goredis.NewBoolResult(true, nil)
}

// TTL returns the expiry recorded for key.
func (m *Store) TTL(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttls[key]
}

// Keys lists stored keys. Order is unspecified.
func (m *Store) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
