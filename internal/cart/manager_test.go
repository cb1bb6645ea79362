package cart

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/packfinderz-cart/internal/events"
	"github.com/angelmondragon/packfinderz-cart/internal/storage"
	"github.com/angelmondragon/packfinderz-cart/pkg/enums"
	"github.com/angelmondragon/packfinderz-cart/pkg/logger"
	"github.com/angelmondragon/packfinderz-cart/pkg/metrics"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, evt events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

type brokenSlot struct {
	loadErr  error
	saveErr  error
	saves    int
	clears   int
	loadHits int
}

func (b *brokenSlot) Load(context.Context) ([]byte, error) {
	b.loadHits++
	return nil, b.loadErr
}

func (b *brokenSlot) Save(context.Context, []byte) error {
	b.saves++
	return b.saveErr
}

func (b *brokenSlot) Clear(context.Context) error {
	b.clears++
	return nil
}

func newTestManager(t *testing.T, slot Slot) (*Manager, *recordingPublisher, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	pub := &recordingPublisher{}
	m, err := NewManager(ManagerParams{
		SessionID: "sess-1",
		Slot:      slot,
		Currency:  enums.CurrencyUSD,
		Logger:    logger.New(logger.Options{ServiceName: "test", Level: zerolog.DebugLevel, Output: &buf}),
		Events:    pub,
	})
	require.NoError(t, err)
	return m, pub, &buf
}

func TestManagerPersistsEveryMutation(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	slot := storage.NewSlot(store, "b2b-marketplace-cart")
	m, pub, _ := newTestManager(t, slot)

	assert.Equal(t, HydrationEmpty, m.Hydrate(ctx))

	_, err := m.Add(ctx, product("A", "100", 2), 3)
	require.NoError(t, err)
	_, err = m.Add(ctx, product("B", "2.50", 1), 4)
	require.NoError(t, err)
	_, err = m.SetQuantity(ctx, "B", 6)
	require.NoError(t, err)
	current, err := m.Remove(ctx, "A")
	require.NoError(t, err)

	data, err := slot.Load(ctx)
	require.NoError(t, err)
	stored, err := Decode(data, enums.CurrencyUSD)
	require.NoError(t, err)
	assert.True(t, stored.Equal(current))
	assert.True(t, stored.Equal(m.Snapshot(ctx)))

	_, err = m.Clear(ctx)
	require.NoError(t, err)
	data, err = slot.Load(ctx)
	require.NoError(t, err)
	stored, err = Decode(data, enums.CurrencyUSD)
	require.NoError(t, err)
	assert.True(t, stored.IsEmpty())

	require.Len(t, pub.events, 5)
	assert.Equal(t, events.TypeItemAdded, pub.events[0].Type)
	assert.Equal(t, "A", pub.events[0].ProductID)
	assert.Equal(t, events.TypeQuantityChanged, pub.events[2].Type)
	assert.Equal(t, events.TypeItemRemoved, pub.events[3].Type)
	assert.Equal(t, events.TypeCleared, pub.events[4].Type)
	assert.Equal(t, "sess-1", pub.events[4].SessionID)
}

func TestManagerRejectionDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	slot := &brokenSlot{loadErr: storage.ErrNotFound}
	m, pub, _ := newTestManager(t, slot)

	before, err := m.Add(ctx, product("A", "100", 2), 3)
	require.NoError(t, err)
	assert.Equal(t, 1, slot.saves)

	after, err := m.SetQuantity(ctx, "A", 1)
	require.Error(t, err)
	assert.True(t, IsRejection(err))
	assert.True(t, after.Equal(before))
	assert.Equal(t, 1, slot.saves)
	assert.Len(t, pub.events, 1)
}

func TestManagerHydratesFromStorage(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	slot := storage.NewSlot(store, "key")

	first, _, _ := newTestManager(t, slot)
	want, err := first.Add(ctx, product("A", "100", 2), 3)
	require.NoError(t, err)

	second, _, _ := newTestManager(t, slot)
	assert.Equal(t, HydrationRestored, second.Hydrate(ctx))
	assert.True(t, second.Snapshot(ctx).Equal(want))

	item, ok := second.Get(ctx, "A")
	require.True(t, ok)
	assert.Equal(t, 3, item.Quantity)
	_, ok = second.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestManagerWipesCorruptStorage(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "key", []byte(`{"items":[{"productId":"A","quantity":"lots"}]}`)))

	reg := prometheus.NewRegistry()
	m, _, buf := newTestManager(t, storage.NewSlot(store, "key"))
	m.metrics = metrics.NewCartMetrics(reg)

	assert.Equal(t, HydrationCorrupt, m.Hydrate(ctx))
	assert.True(t, m.Snapshot(ctx).IsEmpty())
	_, err := store.Get(ctx, "key")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Contains(t, buf.String(), "cart.hydrate.corrupt")
	expected := `
# HELP cart_hydrations_total Cart hydrations partitioned by outcome.
# TYPE cart_hydrations_total counter
cart_hydrations_total{result="corrupt"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "cart_hydrations_total"))

	// hydration only happens once
	require.NoError(t, store.Set(ctx, "key", []byte(`garbage`)))
	assert.Equal(t, HydrationEmpty, m.Hydrate(ctx))
}

func TestManagerSurvivesStorageFailures(t *testing.T) {
	ctx := context.Background()
	slot := &brokenSlot{loadErr: errors.New("disk on fire"), saveErr: errors.New("quota exceeded")}
	m, _, buf := newTestManager(t, slot)

	assert.Equal(t, HydrationFailed, m.Hydrate(ctx))
	assert.Zero(t, slot.clears, "read failures must not wipe the slot")

	c, err := m.Add(ctx, product("A", "100", 2), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, c.TotalItems)
	assert.Equal(t, 1, slot.saves)

	logs := buf.String()
	assert.Contains(t, logs, "cart.hydrate.failed")
	assert.Contains(t, logs, "cart.persist.failed")
	assert.Contains(t, logs, `"cart_session_id":"sess-1"`)
}

func TestManagerHydratesLazily(t *testing.T) {
	ctx := context.Background()
	slot := &brokenSlot{loadErr: storage.ErrNotFound}
	m, _, _ := newTestManager(t, slot)

	_, err := m.Remove(ctx, "nothing")
	require.NoError(t, err)
	m.Hydrate(ctx)
	m.Snapshot(ctx)
	assert.Equal(t, 1, slot.loadHits)
	assert.Equal(t, 1, slot.saves, "no-op remove still persists")
}

func TestManagerSerializesConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t, storage.NewSlot(storage.NewMemoryStore(), "key"))
	p := product("A", "0.10", 1)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Add(ctx, p, 2)
		}()
	}
	wg.Wait()

	c := m.Snapshot(ctx)
	assert.Equal(t, 100, c.TotalItems)
	assert.Equal(t, "10", c.TotalAmount.String())
}

func TestManagerSnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t, storage.NewSlot(storage.NewMemoryStore(), "key"))
	_, err := m.Add(ctx, product("A", "1", 1), 1)
	require.NoError(t, err)

	snap := m.Snapshot(ctx)
	snap.Items[0].Quantity = 99
	item, _ := m.Get(ctx, "A")
	assert.Equal(t, 1, item.Quantity)
}

func TestNewManagerValidation(t *testing.T) {
	_, err := NewManager(ManagerParams{})
	assert.Error(t, err)

	_, err = NewManager(ManagerParams{Slot: &brokenSlot{}, Currency: "XYZ"})
	assert.Error(t, err)

	m, err := NewManager(ManagerParams{Slot: &brokenSlot{loadErr: storage.ErrNotFound}})
	require.NoError(t, err)
	assert.Equal(t, enums.CurrencyUSD, m.Snapshot(context.Background()).Currency)
	assert.Empty(t, m.SessionID())
}
