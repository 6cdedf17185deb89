package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breakfast-order-service/internal/availability"
	"breakfast-order-service/internal/catalog"
	"breakfast-order-service/internal/docstore"
	"breakfast-order-service/internal/order"
	"breakfast-order-service/internal/roster"
	"breakfast-order-service/internal/window"
)

const waitFor = 2 * time.Second
const tick = 10 * time.Millisecond

type views struct {
	mu  sync.Mutex
	all []View
}

func (v *views) push(view View) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.all = append(v.all, view)
}

func (v *views) last() View {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.all) == 0 {
		return View{}
	}
	return v.all[len(v.all)-1]
}

func completed(roomID, mainID, drinkID string) order.RoomOrder {
	return order.RoomOrder{
		RoomID:       roomID,
		OrderSets:    []order.OrderSet{{ID: "default-0", MainID: mainID, DrinkID: drinkID}},
		IsCompleted:  true,
		HasBreakfast: true,
	}
}

func newTestBoard(t *testing.T, store docstore.Store, now time.Time) (*Board, *views) {
	t.Helper()
	loc := time.FixedZone("CST", 8*3600)
	seen := &views{}
	b := New(store, catalog.Default(), roster.Default(), window.DefaultPolicy(loc), Options{
		Now:      func() time.Time { return now },
		OnChange: seen.push,
	})
	t.Cleanup(func() { _ = b.Close() })
	require.NoError(t, b.Start(context.Background()))
	require.Eventually(t, func() bool { return seen.last().Loaded }, waitFor, tick)
	return b, seen
}

func evening() time.Time {
	return time.Date(2026, 3, 10, 20, 0, 0, 0, time.FixedZone("CST", 8*3600))
}

func TestBoardFollowsStore(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	defer store.Close()

	b, seen := newTestBoard(t, store, evening())
	assert.Equal(t, "2026-03-11", b.DateKey())
	assert.False(t, seen.last().Restricted)

	require.NoError(t, store.MergeWriteOrder(ctx, "2026-03-11", "101", completed("101", "w1", "wa")))
	require.Eventually(t, func() bool {
		return seen.last().Aggregate.Completed == 1
	}, waitFor, tick)

	view := seen.last()
	assert.Equal(t, 1, view.Aggregate.Kitchen.Count("w1"))
	assert.Equal(t, 1, view.Aggregate.Kitchen.HashBrowns)
	require.NotNil(t, b.Record("101"))
	assert.Nil(t, b.Record("102"))

	require.NoError(t, store.WriteAvailability(ctx, availability.Settings{IsChineseClosed: true}))
	require.Eventually(t, func() bool { return b.Settings().IsChineseClosed }, waitFor, tick)
}

func TestBoardDateChangeDropsOldDate(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	defer store.Close()

	require.NoError(t, store.MergeWriteOrder(ctx, "2026-03-12", "201", completed("201", "c8", "ce")))
	b, seen := newTestBoard(t, store, evening())

	moved, err := b.Shift(ctx, 1)
	require.NoError(t, err)
	require.True(t, moved)
	require.Eventually(t, func() bool {
		v := seen.last()
		return v.Loaded && v.DateKey == "2026-03-12" && v.Aggregate.Completed == 1
	}, waitFor, tick)

	moved, err = b.Shift(ctx, -1)
	require.NoError(t, err)
	require.True(t, moved)
	require.Eventually(t, func() bool {
		v := seen.last()
		return v.Loaded && v.DateKey == "2026-03-11"
	}, waitFor, tick)

	require.NoError(t, store.MergeWriteOrder(ctx, "2026-03-12", "202", completed("202", "c9", "ch")))
	time.Sleep(100 * time.Millisecond)
	view := seen.last()
	assert.Equal(t, "2026-03-11", view.DateKey)
	assert.Empty(t, view.Records, "records of the previous date must not leak")

	moved, err = b.Shift(ctx, -5)
	require.NoError(t, err)
	assert.False(t, moved, "dates before today are ignored")
}

func TestBoardOptimisticWrite(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	defer store.Close()

	b, seen := newTestBoard(t, store, evening())

	store.Fail(errors.New("network unreachable"))
	err := b.MergeWriteOrder(ctx, b.DateKey(), "101", completed("101", "w2", "wb"))
	require.Error(t, err)
	assert.False(t, b.Blocked())

	rec := b.Record("101")
	require.NotNil(t, rec, "local state keeps the failed write")
	assert.Equal(t, "w2", rec.OrderSets[0].MainID)
	assert.Equal(t, 1, seen.last().Aggregate.Completed)

	store.Fail(nil)
	require.NoError(t, b.MergeWriteOrder(ctx, b.DateKey(), "102", completed("102", "w1", "wa")))
	loaded, err := store.LoadOrders(ctx, b.DateKey())
	require.NoError(t, err)
	assert.Contains(t, loaded, "102")
}

func TestBoardBlocksOnPermissionDenied(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	defer store.Close()

	b, seen := newTestBoard(t, store, evening())

	store.Fail(fmt.Errorf("%w: rules rejected the read", docstore.ErrPermissionDenied))
	require.Eventually(t, func() bool { return seen.last().Blocked }, waitFor, tick)

	err := b.MergeWriteOrder(ctx, b.DateKey(), "101", completed("101", "w1", "wa"))
	assert.True(t, IsBlocked(err))
	assert.Nil(t, b.Record("101"))
}

func TestBoardOverride(t *testing.T) {
	late := time.Date(2026, 3, 10, 23, 30, 0, 0, time.FixedZone("CST", 8*3600))
	store := docstore.NewMemory()
	defer store.Close()

	b, seen := newTestBoard(t, store, late)
	require.True(t, seen.last().Restricted)

	require.NoError(t, b.ToggleOverride())
	require.Eventually(t, func() bool {
		v := seen.last()
		return v.Override && !v.Restricted
	}, waitFor, tick)

	_, err := b.Shift(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, b.Override(), "changing date drops the override")
	assert.ErrorIs(t, b.ToggleOverride(), window.ErrOverrideUnavailable)
}
