package cache

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMemoryTokenStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	store := NewMemoryTokenStore(WithClock(func() time.Time { return now }))

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", "tok", time.Minute))
	tok, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", tok)

	now = now.Add(time.Minute)
	_, ok, _ = store.Get(ctx, "k")
	assert.False(t, ok, "token is expired at its deadline")
}

// fakeRedis answers Get from a map and records Set expirations
type fakeRedis struct {
	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (r *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return redis.NewStringResult("", r.getErr)
	}
	v, ok := r.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (r *fakeRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value.(string)
	r.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestRedisTokenStore(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	store := &RedisTokenStore{client: rdb, keyPrefix: "gateway:"}

	_, ok, err := store.Get(ctx, "singpay:token:client")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "singpay:token:client", "tok", 3500*time.Second))
	assert.Equal(t, "tok", rdb.values["gateway:singpay:token:client"])
	assert.Equal(t, 3500*time.Second, rdb.ttls["gateway:singpay:token:client"])

	tok, ok, err := store.Get(ctx, "singpay:token:client")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", tok)

	rdb.getErr = errors.New("connection refused")
	_, _, err = store.Get(ctx, "singpay:token:client")
	assert.ErrorContains(t, err, "connection refused")
}

func TestNewRedisTokenStore_DefaultPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	store := NewRedisTokenStore(client, "")
	assert.Equal(t, "gateway:", store.keyPrefix)
}

func TestTokenStoreFactory_CreateStore(t *testing.T) {
	ctx := context.Background()

	t.Run("redis disabled", func(t *testing.T) {
		f := NewTokenStoreFactory(config.RedisConfig{Enabled: false})

		store, closer, err := f.CreateStore(ctx)

		require.NoError(t, err)
		assert.IsType(t, &MemoryTokenStore{}, store)
		assert.Nil(t, closer)
	})

	t.Run("redis reachable", func(t *testing.T) {
		rdb := newFakeRedis()
		f := NewTokenStoreFactory(config.RedisConfig{Enabled: true, Host: "redis", Port: 6379})
		f.connect = func(context.Context, config.RedisConfig) (TokenStore, io.Closer, error) {
			return &RedisTokenStore{client: rdb, keyPrefix: "gateway:"}, io.NopCloser(nil), nil
		}

		store, closer, err := f.CreateStore(ctx)

		require.NoError(t, err)
		assert.IsType(t, &RedisTokenStore{}, store)
		assert.NotNil(t, closer)
	})

	t.Run("redis down falls back", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		f := NewTokenStoreFactory(config.RedisConfig{Enabled: true}, WithLogger(zap.New(core)))
		f.connect = func(context.Context, config.RedisConfig) (TokenStore, io.Closer, error) {
			return nil, nil, errors.New("dial tcp: connection refused")
		}

		store, _, err := f.CreateStore(ctx)

		require.NoError(t, err)
		assert.IsType(t, &MemoryTokenStore{}, store)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("redis down without fallback", func(t *testing.T) {
		f := NewTokenStoreFactory(config.RedisConfig{Enabled: true}, WithInMemoryFallback(false))
		f.connect = func(context.Context, config.RedisConfig) (TokenStore, io.Closer, error) {
			return nil, nil, errors.New("dial tcp: connection refused")
		}

		_, _, err := f.CreateStore(ctx)

		assert.ErrorContains(t, err, "redis required")
	})
}
