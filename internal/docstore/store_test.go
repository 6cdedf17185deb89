package docstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"breakfast-order-service/internal/availability"
	"breakfast-order-service/internal/order"
)

type recorder struct {
	mu        sync.Mutex
	snapshots []Records
	settings  []availability.Settings
	errs      []error
}

func (r *recorder) onOrders(records Records) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, records)
}

func (r *recorder) onSettings(s availability.Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = append(r.settings, s)
}

func (r *recorder) onError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) lastOrders() (Records, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return nil, 0
	}
	return r.snapshots[len(r.snapshots)-1], len(r.snapshots)
}

func (r *recorder) lastSettings() (availability.Settings, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.settings) == 0 {
		return availability.Settings{}, 0
	}
	return r.settings[len(r.settings)-1], len(r.settings)
}

func (r *recorder) errCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

const waitFor = 2 * time.Second
const tick = 10 * time.Millisecond

func sampleOrder(roomID string) order.RoomOrder {
	return order.RoomOrder{
		RoomID:       roomID,
		OrderSets:    []order.OrderSet{{ID: "default-0", MainID: "w1", DrinkID: "wa"}},
		IsCompleted:  true,
		HasBreakfast: true,
	}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	rec := &recorder{}

	unsubscribe, err := store.SubscribeOrders(ctx, "2026-03-11", rec.onOrders, rec.onError)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, n := rec.lastOrders()
		return n >= 1
	}, waitFor, tick, "initial snapshot")

	require.NoError(t, store.MergeWriteOrder(ctx, "2026-03-11", "101", sampleOrder("101")))
	require.NoError(t, store.MergeWriteOrder(ctx, "2026-03-12", "102", sampleOrder("102")))

	require.Eventually(t, func() bool {
		last, _ := rec.lastOrders()
		_, ok := last["101"]
		return ok
	}, waitFor, tick, "snapshot with the written room")

	last, _ := rec.lastOrders()
	_, leaked := last["102"]
	assert.False(t, leaked, "other dates must not leak into the subscription")

	loaded, err := store.LoadOrders(ctx, "2026-03-11")
	require.NoError(t, err)
	assert.Equal(t, "w1", loaded["101"].OrderSets[0].MainID)

	overwrite := sampleOrder("101")
	overwrite.IsCompleted = false
	require.NoError(t, store.MergeWriteOrder(ctx, "2026-03-11", "101", overwrite))
	require.Eventually(t, func() bool {
		last, _ := rec.lastOrders()
		r, ok := last["101"]
		return ok && !r.IsCompleted
	}, waitFor, tick, "record overwritten")

	unsubscribe()
	unsubscribe()
	_, before := rec.lastOrders()
	require.NoError(t, store.MergeWriteOrder(ctx, "2026-03-11", "103", sampleOrder("103")))
	time.Sleep(100 * time.Millisecond)
	_, after := rec.lastOrders()
	assert.Equal(t, before, after, "no delivery after unsubscribe")

	settingsRec := &recorder{}
	unsubscribeSettings, err := store.SubscribeAvailability(ctx, settingsRec.onSettings, settingsRec.onError)
	require.NoError(t, err)
	defer unsubscribeSettings()

	require.Eventually(t, func() bool {
		s, n := settingsRec.lastSettings()
		return n >= 1 && !s.HasOutage()
	}, waitFor, tick, "default settings")

	require.NoError(t, store.WriteAvailability(ctx, availability.Settings{IsChineseClosed: true, UnavailableItems: []string{"w2", "w2"}}))
	require.Eventually(t, func() bool {
		s, _ := settingsRec.lastSettings()
		return s.IsChineseClosed && len(s.UnavailableItems) == 1
	}, waitFor, tick, "settings pushed")

	settings, err := store.LoadAvailability(ctx)
	require.NoError(t, err)
	assert.True(t, settings.IsChineseClosed)
	assert.Equal(t, []string{"w2"}, settings.UnavailableItems)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemory()
	defer store.Close()
	exerciseStore(t, store)
}

func TestMemoryStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	defer store.Close()

	rec := &recorder{}
	unsubscribe, err := store.SubscribeOrders(ctx, "2026-03-11", rec.onOrders, rec.onError)
	require.NoError(t, err)
	defer unsubscribe()

	denied := permissionDenied(errors.New("rules rejected the read"))
	store.Fail(denied)
	require.Eventually(t, func() bool { return rec.errCount() == 1 }, waitFor, tick)

	err = store.MergeWriteOrder(ctx, "2026-03-11", "101", sampleOrder("101"))
	assert.True(t, IsPermissionDenied(err))

	store.Fail(nil)
	assert.NoError(t, store.MergeWriteOrder(ctx, "2026-03-11", "101", sampleOrder("101")))
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(RedisOptions{Addr: mr.Addr()})
	store := NewRedis(client, zap.NewNop())
	defer store.Close()

	exerciseStore(t, store)

	raw := mr.HGet("daily_orders:2026-03-11", "101")
	assert.Contains(t, raw, `"roomId":"101"`)
	assert.True(t, mr.Exists("app_settings:availability"))
}

func TestRedisErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		denied bool
	}{
		{name: "noperm", err: errors.New("NOPERM this user has no permissions to run the 'hset' command"), denied: true},
		{name: "noauth", err: errors.New("NOAUTH Authentication required."), denied: true},
		{name: "network", err: errors.New("dial tcp: connection refused"), denied: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.denied, IsPermissionDenied(redisError(tc.err)))
		})
	}
	assert.NoError(t, redisError(nil))
}

func TestPostgresErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		denied bool
	}{
		{name: "insufficient privilege", err: &pgconn.PgError{Code: "42501", Message: "permission denied for table daily_orders"}, denied: true},
		{name: "wrapped", err: fmt.Errorf("load: %w", &pgconn.PgError{Code: "42501"}), denied: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, denied: false},
		{name: "network", err: errors.New("dial tcp: connection refused"), denied: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.denied, IsPermissionDenied(postgresError(tc.err)))
		})
	}
	assert.NoError(t, postgresError(nil))
}

func TestOpenMemoryByDefault(t *testing.T) {
	store, err := Open(context.Background(), Options{}, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()
	_, ok := store.(*Memory)
	assert.True(t, ok)

	_, err = Open(context.Background(), Options{Driver: "firestore"}, zap.NewNop())
	assert.Error(t, err)
}
