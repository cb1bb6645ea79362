package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/packfinderz-cart/pkg/config"
	"github.com/angelmondragon/packfinderz-cart/pkg/logger"
	"github.com/angelmondragon/packfinderz-cart/pkg/redis"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when nothing is stored under a key.
	ErrNotFound = errors.New("storage: key not found")
	// ErrUnavailable is returned while the backend is short-circuited.
	ErrUnavailable = errors.New("storage: backend unavailable")
)

// Store is a byte-oriented key/value store for persisted cart documents.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Slot binds a Store to a single key.
type Slot struct {
	store Store
	key   string
}

func NewSlot(store Store, key string) *Slot {
	return &Slot{store: store, key: key}
}

func (s *Slot) Key() string {
	return s.key
}

// Load returns the stored payload or ErrNotFound.
func (s *Slot) Load(ctx context.Context) ([]byte, error) {
	return s.store.Get(ctx, s.key)
}

func (s *Slot) Save(ctx context.Context, value []byte) error {
	return s.store.Set(ctx, s.key, value)
}

// Clear removes the payload. Clearing an empty slot is not an error.
func (s *Slot) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.key); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// Deps carries the optional clients a backend may need.
type Deps struct {
	Redis  *redis.Client
	DB     *gorm.DB
	Logger *logger.Logger
}

// New selects the backend named by cfg.Cart.StorageBackend. Remote backends are
// wrapped in a circuit breaker.
func New(cfg config.Config, deps Deps) (Store, error) {
	var (
		store Store
		name  = strings.ToLower(strings.TrimSpace(cfg.Cart.StorageBackend))
	)
	switch name {
	case "", config.StorageBackendMemory:
		return NewMemoryStore(), nil
	case config.StorageBackendRedis:
		if deps.Redis == nil {
			return nil, fmt.Errorf("storage backend %q requires a redis client", name)
		}
		store = NewRedisStore(deps.Redis, cfg.Cart.SlotTTL)
	case config.StorageBackendDB:
		if deps.DB == nil {
			return nil, fmt.Errorf("storage backend %q requires a database", name)
		}
		store = NewDBStore(deps.DB, cfg.Cart.SlotTTL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Cart.StorageBackend)
	}
	return NewBreakerStore(store, name, cfg.Breaker, deps.Logger), nil
}
