package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/packfinderz-cart/pkg/config"
	"github.com/angelmondragon/packfinderz-cart/pkg/db/models"
	"github.com/angelmondragon/packfinderz-cart/pkg/redis"
)

func setupRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return NewRedisStore(redis.NewFromClient(raw), ttl), mr
}

func setupDBStore(t *testing.T) *DBStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.CartSlot{}))
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewDBStore(conn, time.Hour)
}

// exerciseStore runs the behavior every backend must share.
func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "slot", []byte(`{"items":[]}`)))
	got, err := store.Get(ctx, "slot")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, string(got))

	require.NoError(t, store.Set(ctx, "slot", []byte(`{"items":[1]}`)))
	got, err = store.Get(ctx, "slot")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[1]}`, string(got))

	slot := NewSlot(store, "slot")
	require.NoError(t, slot.Clear(ctx))
	_, err = slot.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, slot.Clear(ctx), "clearing an empty slot should succeed")
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value))
	value[0] = 'z'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
	got[1] = 'z'

	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestRedisStore(t *testing.T) {
	store, _ := setupRedisStore(t, 0)
	exerciseStore(t, store)
}

func TestRedisStoreNamespaceAndTTL(t *testing.T) {
	store, mr := setupRedisStore(t, time.Hour)
	require.NoError(t, store.Set(context.Background(), "b2b-marketplace-cart", []byte("{}")))

	assert.True(t, mr.Exists("pf:cart:b2b-marketplace-cart"))
	assert.Equal(t, time.Hour, mr.TTL("pf:cart:b2b-marketplace-cart"))

	mr.FastForward(2 * time.Hour)
	_, err := store.Get(context.Background(), "b2b-marketplace-cart")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreConnectionError(t *testing.T) {
	store, mr := setupRedisStore(t, 0)
	mr.Close()

	_, err := store.Get(context.Background(), "slot")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestDBStore(t *testing.T) {
	exerciseStore(t, setupDBStore(t))
}

func TestDBStoreExpiry(t *testing.T) {
	store := setupDBStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "slot", []byte("{}")))
	_, err := store.Get(ctx, "slot")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = store.Get(ctx, "slot")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "slot", []byte(`{"items":[]}`)))
	got, err := store.Get(ctx, "slot")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, string(got))
}

type failingStore struct {
	calls int
	err   error
}

func (f *failingStore) Get(context.Context, string) ([]byte, error) {
	f.calls++
	return nil, f.err
}

func (f *failingStore) Set(context.Context, string, []byte) error {
	f.calls++
	return f.err
}

func (f *failingStore) Delete(context.Context, string) error {
	f.calls++
	return f.err
}

func TestBreakerStoreOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &failingStore{err: errors.New("connection refused")}
	store := NewBreakerStore(inner, "test", config.BreakerConfig{
		MaxRequests:         1,
		Timeout:             time.Minute,
		ConsecutiveFailures: 2,
	}, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := store.Set(ctx, "slot", []byte("{}"))
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrUnavailable))
	}
	assert.Equal(t, "open", store.State())

	_, err := store.Get(ctx, "slot")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, inner.calls, "open breaker should not reach the backend")
}

func TestBreakerStoreTreatsNotFoundAsSuccess(t *testing.T) {
	inner := &failingStore{err: ErrNotFound}
	store := NewBreakerStore(inner, "test", config.BreakerConfig{ConsecutiveFailures: 1, Timeout: time.Minute}, nil)

	for i := 0; i < 3; i++ {
		_, err := store.Get(context.Background(), "slot")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, "closed", store.State())
	assert.Equal(t, 3, inner.calls)
}

func TestNewSelectsBackend(t *testing.T) {
	cfg := config.Config{Cart: config.CartConfig{StorageBackend: config.StorageBackendMemory}}
	store, err := New(cfg, Deps{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	cfg.Cart.StorageBackend = config.StorageBackendRedis
	_, err = New(cfg, Deps{})
	assert.Error(t, err, "redis backend without a client")

	redisStore, _ := setupRedisStore(t, 0)
	store, err = New(cfg, Deps{Redis: redisStore.client})
	require.NoError(t, err)
	assert.IsType(t, &BreakerStore{}, store)

	cfg.Cart.StorageBackend = config.StorageBackendDB
	_, err = New(cfg, Deps{})
	assert.Error(t, err, "db backend without a connection")

	store, err = New(cfg, Deps{DB: setupDBStore(t).db})
	require.NoError(t, err)
	assert.IsType(t, &BreakerStore{}, store)

	cfg.Cart.StorageBackend = "s3"
	_, err = New(cfg, Deps{})
	assert.Error(t, err)
}
