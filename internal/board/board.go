// Package board keeps one terminal's live view of the shared store: the
// availability flags plus the records of the selected service date, with the
// aggregation recomputed on every change.
package board

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"breakfast-order-service/internal/aggregate"
	"breakfast-order-service/internal/availability"
	"breakfast-order-service/internal/catalog"
	"breakfast-order-service/internal/docstore"
	"breakfast-order-service/internal/order"
	"breakfast-order-service/internal/roster"
	"breakfast-order-service/internal/window"
)

// View is what a terminal renders.
type View struct {
	DateKey      string                `json:"dateKey"`
	Today        string                `json:"today"`
	Status       window.Status         `json:"status"`
	Override     bool                  `json:"override"`
	Restricted   bool                  `json:"restricted"`
	Loaded       bool                  `json:"loaded"`
	Blocked      bool                  `json:"blocked"`
	Settings     availability.Settings `json:"settings"`
	Records      docstore.Records      `json:"records"`
	Aggregate    aggregate.Result      `json:"aggregate"`
	CanGoBack    bool                  `json:"canGoBack"`
	CanGoForward bool                  `json:"canGoForward"`
}

type Options struct {
	Now      func() time.Time
	Logger   *zap.Logger
	OnChange func(View)
}

type Board struct {
	store  docstore.Store
	menu   *catalog.Menu
	rooms  *roster.Roster
	now    func() time.Time
	logger *zap.Logger

	onChange func(View)
	notifyMu sync.Mutex
	sent     uint64

	mu            sync.Mutex
	session       *window.Session
	records       docstore.Records
	settings      availability.Settings
	loaded        bool
	blocked       bool
	generation    uint64
	version       uint64
	unsubOrders   docstore.Unsubscribe
	unsubSettings docstore.Unsubscribe
	closed        bool
}

func New(store docstore.Store, menu *catalog.Menu, rooms *roster.Roster, policy window.Policy, opts Options) *Board {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Board{
		store:    store,
		menu:     menu,
		rooms:    rooms,
		now:      opts.Now,
		logger:   opts.Logger,
		onChange: opts.OnChange,
		session:  window.NewSession(policy, opts.Now()),
		records:  docstore.Records{},
		settings: availability.Settings{UnavailableItems: []string{}},
	}
}

// Start subscribes to the availability document and the selected date.
func (b *Board) Start(ctx context.Context) error {
	unsub, err := b.store.SubscribeAvailability(ctx, b.onSettings, b.onStoreError)
	if err != nil {
		b.onStoreError(err)
		return err
	}
	b.mu.Lock()
	b.unsubSettings = unsub
	b.mu.Unlock()
	return b.resubscribe(ctx)
}

// resubscribe drops the current date's subscription before opening the
// selected one. Snapshots tagged with an older generation are ignored.
func (b *Board) resubscribe(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return docstore.ErrClosed
	}
	if b.unsubOrders != nil {
		b.unsubOrders()
		b.unsubOrders = nil
	}
	b.generation++
	gen := b.generation
	key := b.session.Key()
	b.records = docstore.Records{}
	b.loaded = false
	b.mu.Unlock()
	b.notify()

	unsub, err := b.store.SubscribeOrders(ctx, key,
		func(records docstore.Records) { b.onOrders(gen, records) },
		func(err error) { b.onOrdersError(gen, err) },
	)
	if err != nil {
		b.onStoreError(err)
		return err
	}

	b.mu.Lock()
	if gen != b.generation || b.closed {
		b.mu.Unlock()
		unsub()
		return nil
	}
	b.unsubOrders = unsub
	b.mu.Unlock()
	return nil
}

func (b *Board) onOrders(gen uint64, records docstore.Records) {
	b.mu.Lock()
	if gen != b.generation {
		b.mu.Unlock()
		return
	}
	b.records = records.Clone()
	b.loaded = true
	b.mu.Unlock()
	b.notify()
}

func (b *Board) onSettings(settings availability.Settings) {
	b.mu.Lock()
	b.settings = settings.Normalize()
	b.mu.Unlock()
	b.notify()
}

func (b *Board) onOrdersError(gen uint64, err error) {
	b.mu.Lock()
	stale := gen != b.generation
	b.mu.Unlock()
	if stale {
		return
	}
	b.onStoreError(err)
}

// onStoreError blocks the board on permission failures and otherwise keeps
// the last good snapshot.
func (b *Board) onStoreError(err error) {
	if docstore.IsPermissionDenied(err) {
		b.logger.Error("document store denied access", zap.Error(err))
		b.mu.Lock()
		b.blocked = true
		b.mu.Unlock()
		b.notify()
		return
	}
	b.logger.Warn("document store error", zap.Error(err))
}

func (b *Board) SelectDate(ctx context.Context, date time.Time) (bool, error) {
	b.mu.Lock()
	changed := b.session.Select(b.now(), date)
	b.mu.Unlock()
	if !changed {
		return false, nil
	}
	return true, b.resubscribe(ctx)
}

func (b *Board) Shift(ctx context.Context, offset int) (bool, error) {
	b.mu.Lock()
	changed := b.session.Shift(b.now(), offset)
	b.mu.Unlock()
	if !changed {
		return false, nil
	}
	return true, b.resubscribe(ctx)
}

func (b *Board) ToggleOverride() error {
	b.mu.Lock()
	err := b.session.ToggleOverride(b.now())
	b.mu.Unlock()
	if err == nil {
		b.notify()
	}
	return err
}

func (b *Board) DateKey() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session.Key()
}

func (b *Board) Override() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session.Override()
}

func (b *Board) Blocked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.blocked
}

// Record returns the room's record on the selected date, or nil.
func (b *Board) Record(roomID string) *order.RoomOrder {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.records.Lookup(roomID)
}

func (b *Board) Settings() availability.Settings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settings.Normalize()
}

// MergeWriteOrder applies rec locally when dateKey is the selected date and
// then writes it to the store. A failed write leaves the local state in
// place; a permission failure blocks the board.
func (b *Board) MergeWriteOrder(ctx context.Context, dateKey, roomID string, rec order.RoomOrder) error {
	b.mu.Lock()
	if b.blocked {
		b.mu.Unlock()
		return docstore.ErrPermissionDenied
	}
	local := dateKey == b.session.Key()
	if local {
		next := b.records.Clone()
		rec.RoomID = roomID
		next[roomID] = rec.Clone()
		b.records = next
	}
	b.mu.Unlock()
	if local {
		b.notify()
	}

	if err := b.store.MergeWriteOrder(ctx, dateKey, roomID, rec); err != nil {
		b.logger.Warn("room write failed",
			zap.String("dateKey", dateKey),
			zap.String("roomId", roomID),
			zap.Error(err),
		)
		b.onStoreError(err)
		return err
	}
	return nil
}

// WriteAvailability applies settings locally and then writes them.
func (b *Board) WriteAvailability(ctx context.Context, settings availability.Settings) error {
	b.mu.Lock()
	if b.blocked {
		b.mu.Unlock()
		return docstore.ErrPermissionDenied
	}
	b.settings = settings.Normalize()
	b.mu.Unlock()
	b.notify()

	if err := b.store.WriteAvailability(ctx, settings); err != nil {
		b.logger.Warn("availability write failed", zap.Error(err))
		b.onStoreError(err)
		return err
	}
	return nil
}

// View builds the current view.
func (b *Board) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	view, _ := b.viewLocked()
	return view
}

func (b *Board) viewLocked() (View, uint64) {
	now := b.now()
	policy := b.session.Policy()
	selected := b.session.Selected()
	b.version++
	return View{
		DateKey:      b.session.Key(),
		Today:        window.Key(policy.Today(now)),
		Status:       b.session.Status(now),
		Override:     b.session.Override(),
		Restricted:   b.session.Restricted(now),
		Loaded:       b.loaded,
		Blocked:      b.blocked,
		Settings:     b.settings.Normalize(),
		Records:      b.records,
		Aggregate:    aggregate.Compute(b.menu, b.rooms, b.records),
		CanGoBack:    policy.InHorizon(now, window.AddDays(selected, -1)),
		CanGoForward: policy.InHorizon(now, window.AddDays(selected, 1)),
	}, b.version
}

// notify pushes the current view. Views computed before one already sent
// are dropped so a slow callback never sees state move backwards.
func (b *Board) notify() {
	if b.onChange == nil {
		return
	}
	b.mu.Lock()
	view, version := b.viewLocked()
	b.mu.Unlock()

	b.notifyMu.Lock()
	defer b.notifyMu.Unlock()
	if version <= b.sent {
		return
	}
	b.sent = version
	b.onChange(view)
}

func (b *Board) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	unsubs := []docstore.Unsubscribe{b.unsubOrders, b.unsubSettings}
	b.unsubOrders = nil
	b.unsubSettings = nil
	b.mu.Unlock()

	for _, unsub := range unsubs {
		if unsub != nil {
			unsub()
		}
	}
	return nil
}

// IsBlocked reports whether err should put a terminal into the blocked state.
func IsBlocked(err error) bool {
	return errors.Is(err, docstore.ErrPermissionDenied)
}
