package cart

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/packfinderz-cart/internal/events"
	"github.com/angelmondragon/packfinderz-cart/pkg/enums"
	"github.com/angelmondragon/packfinderz-cart/pkg/logger"
	"github.com/angelmondragon/packfinderz-cart/pkg/metrics"
)

// SlotFactory builds the slot persisted under key.
type SlotFactory func(key string) Slot

type RegistryParams struct {
	BaseKey        string
	Slots          SlotFactory
	Currency       enums.Currency
	Logger         *logger.Logger
	Metrics        *metrics.CartMetrics
	Events         events.Publisher
	StorageTimeout time.Duration
	// IdleTTL drops a session's Manager once it has gone unused this long.
	// Zero keeps managers for the life of the registry.
	IdleTTL time.Duration
	Now     func() time.Time
}

type registryEntry struct {
	manager  *Manager
	lastUsed atomic.Int64
}

// Registry hands out one hydrated Manager per cart session. Each instance
// assumes it is the only writer of a session's slot while the Manager is cached.
type Registry struct {
	params   RegistryParams
	mu       sync.RWMutex
	managers map[string]*registryEntry
	group    singleflight.Group
}

func NewRegistry(p RegistryParams) (*Registry, error) {
	if p.Slots == nil {
		return nil, errors.New("slot factory is required")
	}
	if strings.TrimSpace(p.BaseKey) == "" {
		return nil, errors.New("base storage key is required")
	}
	if p.IdleTTL < 0 {
		return nil, errors.New("idle ttl must not be negative")
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &Registry{params: p, managers: make(map[string]*registryEntry)}, nil
}

// SlotKey returns the storage key for sessionID. An empty session maps to the base key.
func (r *Registry) SlotKey(sessionID string) string {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return r.params.BaseKey
	}
	return r.params.BaseKey + ":" + sessionID
}

// Manager returns the cart for sessionID, hydrating it on first use or after
// the cached Manager went idle. Concurrent first requests for the same session
// share one hydration.
func (r *Registry) Manager(ctx context.Context, sessionID string) (*Manager, error) {
	now := r.params.Now()
	if m, ok := r.cached(sessionID, now); ok {
		return m, nil
	}

	v, err, _ := r.group.Do(sessionID, func() (any, error) {
		if existing, ok := r.cached(sessionID, now); ok {
			return existing, nil
		}

		created, err := NewManager(ManagerParams{
			SessionID:      sessionID,
			Slot:           r.params.Slots(r.SlotKey(sessionID)),
			Currency:       r.params.Currency,
			Logger:         r.params.Logger,
			Metrics:        r.params.Metrics,
			Events:         r.params.Events,
			StorageTimeout: r.params.StorageTimeout,
		})
		if err != nil {
			return nil, err
		}
		created.Hydrate(context.WithoutCancel(ctx))

		entry := &registryEntry{manager: created}
		entry.lastUsed.Store(now.UnixNano())
		r.mu.Lock()
		r.managers[sessionID] = entry
		r.mu.Unlock()
		return created, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Manager), nil
}

// cached returns the live Manager for sessionID and marks it used. An idle
// Manager is forgotten so the caller hydrates a fresh one.
func (r *Registry) cached(sessionID string, now time.Time) (*Manager, bool) {
	r.mu.RLock()
	entry, ok := r.managers[sessionID]
	live := ok && !r.idle(entry, now)
	if live {
		entry.lastUsed.Store(now.UnixNano())
	}
	r.mu.RUnlock()

	if ok && !live {
		r.forgetIfIdle(sessionID, now)
	}
	if !live {
		return nil, false
	}
	return entry.manager, true
}

func (r *Registry) idle(entry *registryEntry, now time.Time) bool {
	if r.params.IdleTTL <= 0 {
		return false
	}
	return now.Sub(time.Unix(0, entry.lastUsed.Load())) >= r.params.IdleTTL
}

// forgetIfIdle must hold the write lock while it checks so a concurrent
// lookup cannot refresh an entry that is about to be dropped.
func (r *Registry) forgetIfIdle(sessionID string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.managers[sessionID]
	if !ok || !r.idle(entry, now) {
		return false
	}
	delete(r.managers, sessionID)
	return true
}

// EvictIdle forgets every Manager unused for IdleTTL and returns how many went.
func (r *Registry) EvictIdle() int {
	if r.params.IdleTTL <= 0 {
		return 0
	}
	now := r.params.Now()

	r.mu.RLock()
	var stale []string
	for sessionID, entry := range r.managers {
		if r.idle(entry, now) {
			stale = append(stale, sessionID)
		}
	}
	r.mu.RUnlock()

	evicted := 0
	for _, sessionID := range stale {
		if r.forgetIfIdle(sessionID, now) {
			evicted++
		}
	}
	return evicted
}

// RunEviction calls EvictIdle every interval until ctx is done.
func (r *Registry) RunEviction(ctx context.Context, interval time.Duration) {
	if r.params.IdleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.EvictIdle(); n > 0 && r.params.Logger != nil {
				r.params.Logger.Debug(r.params.Logger.WithField(ctx, "evicted", n), "cart managers evicted")
			}
		}
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.managers)
}
