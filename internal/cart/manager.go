package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/angelmondragon/packfinderz-cart/internal/catalog"
	"github.com/angelmondragon/packfinderz-cart/internal/events"
	"github.com/angelmondragon/packfinderz-cart/internal/storage"
	"github.com/angelmondragon/packfinderz-cart/pkg/enums"
	"github.com/angelmondragon/packfinderz-cart/pkg/logger"
	"github.com/angelmondragon/packfinderz-cart/pkg/metrics"
)

const defaultStorageTimeout = 2 * time.Second

// Slot is the persistence side channel owned by a Manager.
type Slot interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, value []byte) error
	Clear(ctx context.Context) error
}

// HydrationResult reports how the initial cart was obtained.
type HydrationResult string

const (
	HydrationRestored HydrationResult = "restored"
	HydrationEmpty    HydrationResult = "empty"
	HydrationCorrupt  HydrationResult = "corrupt"
	HydrationFailed   HydrationResult = "failed"
)

type ManagerParams struct {
	SessionID      string
	Slot           Slot
	Currency       enums.Currency
	Logger         *logger.Logger
	Metrics        *metrics.CartMetrics
	Events         events.Publisher
	StorageTimeout time.Duration
}

// Manager owns one cart and its slot. Every operation is serialized and a
// successful mutation is persisted before the lock is released.
type Manager struct {
	mu        sync.Mutex
	cart      Cart
	hydrated  bool
	sessionID string
	slot      Slot
	logg      *logger.Logger
	metrics   *metrics.CartMetrics
	events    events.Publisher
	timeout   time.Duration
}

func NewManager(p ManagerParams) (*Manager, error) {
	if p.Slot == nil {
		return nil, errors.New("cart slot is required")
	}
	if p.Currency == "" {
		p.Currency = enums.CurrencyUSD
	}
	if !p.Currency.IsValid() {
		return nil, errors.New("invalid cart currency " + string(p.Currency))
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Events == nil {
		p.Events = events.NoopPublisher{}
	}
	if p.StorageTimeout <= 0 {
		p.StorageTimeout = defaultStorageTimeout
	}
	return &Manager{
		cart:      New(p.Currency),
		sessionID: p.SessionID,
		slot:      p.Slot,
		logg:      p.Logger,
		metrics:   p.Metrics,
		events:    p.Events,
		timeout:   p.StorageTimeout,
	}, nil
}

func (m *Manager) SessionID() string {
	return m.sessionID
}

// Hydrate reads the slot once. Later calls return HydrationRestored or
// HydrationEmpty without touching storage. A corrupt document is deleted.
func (m *Manager) Hydrate(ctx context.Context) HydrationResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hydrated {
		if m.cart.IsEmpty() {
			return HydrationEmpty
		}
		return HydrationRestored
	}
	return m.hydrateLocked(ctx)
}

func (m *Manager) hydrateLocked(ctx context.Context) HydrationResult {
	m.hydrated = true
	ctx = m.logCtx(ctx)
	result := m.restore(ctx)
	m.metrics.IncHydration(string(result))
	return result
}

func (m *Manager) restore(ctx context.Context) HydrationResult {
	sctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	data, err := m.slot.Load(sctx)
	if errors.Is(err, storage.ErrNotFound) {
		return HydrationEmpty
	}
	if err != nil {
		m.metrics.IncStorageFailure("load")
		m.logg.Error(ctx, "cart.hydrate.failed", err)
		return HydrationFailed
	}

	restored, err := Decode(data, m.cart.Currency)
	if err != nil {
		m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), "cart.hydrate.corrupt")
		if clearErr := m.slot.Clear(sctx); clearErr != nil {
			m.metrics.IncStorageFailure("clear")
			m.logg.Error(ctx, "cart.hydrate.clear_failed", clearErr)
		}
		return HydrationCorrupt
	}
	m.cart = restored
	if restored.IsEmpty() {
		return HydrationEmpty
	}
	return HydrationRestored
}

// Add puts quantity units of product in the cart, merging with an existing line.
func (m *Manager) Add(ctx context.Context, product *catalog.Product, quantity int) (Cart, error) {
	return m.Dispatch(ctx, AddItem(product, quantity))
}

// Remove drops the line for productID. Removing an absent product is not an error.
func (m *Manager) Remove(ctx context.Context, productID string) (Cart, error) {
	return m.Dispatch(ctx, RemoveItem(productID))
}

// SetQuantity replaces the line quantity; zero or less removes the line.
func (m *Manager) SetQuantity(ctx context.Context, productID string, quantity int) (Cart, error) {
	return m.Dispatch(ctx, SetQuantity(productID, quantity))
}

func (m *Manager) Clear(ctx context.Context) (Cart, error) {
	return m.Dispatch(ctx, ClearCart())
}

// Get is a pure lookup.
func (m *Manager) Get(ctx context.Context, productID string) (LineItem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureHydrated(ctx)
	return m.cart.Get(productID)
}

// Snapshot returns a copy of the current cart.
func (m *Manager) Snapshot(ctx context.Context) Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureHydrated(ctx)
	return withItems(m.cart.Items, m.cart.Currency)
}

// Dispatch applies action atomically. Rejected actions leave the cart
// untouched; storage failures are logged and never fail the operation.
func (m *Manager) Dispatch(ctx context.Context, action Action) (Cart, error) {
	start := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureHydrated(ctx)
	ctx = m.logCtx(ctx)

	next, err := Reduce(m.cart, action)
	if err != nil {
		m.metrics.ObserveOperation(action.Kind.String(), "rejected", time.Since(start))
		m.logg.Debug(m.logg.WithFields(ctx, map[string]any{
			"action": action.Kind.String(),
			"reason": err.Error(),
		}), "cart.operation.rejected")
		return withItems(m.cart.Items, m.cart.Currency), err
	}

	m.cart = next
	m.persist(ctx, action)
	m.metrics.ObserveOperation(action.Kind.String(), "ok", time.Since(start))
	m.events.Publish(ctx, m.event(action))
	return withItems(next.Items, next.Currency), nil
}

func (m *Manager) ensureHydrated(ctx context.Context) {
	if !m.hydrated {
		m.hydrateLocked(ctx)
	}
}

func (m *Manager) persist(ctx context.Context, action Action) {
	data, err := Encode(m.cart)
	if err != nil {
		m.metrics.IncStorageFailure("encode")
		m.logg.Error(ctx, "cart.persist.failed", err)
		return
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
	defer cancel()
	if err := m.slot.Save(sctx, data); err != nil {
		m.metrics.IncStorageFailure("save")
		m.logg.Error(m.logg.WithField(ctx, "action", action.Kind.String()), "cart.persist.failed", err)
	}
}

func (m *Manager) event(action Action) events.Event {
	var eventType events.Type
	switch action.Kind {
	case ActionAdd:
		eventType = events.TypeItemAdded
	case ActionRemove:
		eventType = events.TypeItemRemoved
	case ActionSetQuantity:
		eventType = events.TypeQuantityChanged
		if action.Quantity <= 0 {
			eventType = events.TypeItemRemoved
		}
	default:
		eventType = events.TypeCleared
	}

	evt := events.New(eventType, m.sessionID)
	evt.ProductID = action.ProductID
	if action.Kind == ActionAdd && action.Product != nil {
		evt.ProductID = action.Product.ID
	}
	if action.Quantity > 0 {
		evt.Quantity = action.Quantity
	}
	evt.TotalItems = m.cart.TotalItems
	evt.TotalAmount = m.cart.TotalAmount
	evt.Currency = m.cart.Currency
	return evt
}

func (m *Manager) logCtx(ctx context.Context) context.Context {
	if m.sessionID == "" {
		return ctx
	}
	return m.logg.WithSessionID(ctx, m.sessionID)
}
