package docstore

import (
	"context"
	"sync"

	"breakfast-order-service/internal/availability"
	"breakfast-order-service/internal/order"
)

// Memory is an in-process Store. It backs single-node deployments and tests.
type Memory struct {
	mu       sync.RWMutex
	days     map[string]Records
	settings availability.Settings
	failure  error
	closed   bool

	orders    *hub[Records]
	available *hub[availability.Settings]
}

func NewMemory() *Memory {
	return &Memory{
		days:      make(map[string]Records),
		orders:    newHub[Records](),
		available: newHub[availability.Settings](),
	}
}

// Fail makes every following call return err and reports it to current
// subscribers. Passing nil restores normal operation.
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	m.failure = err
	m.mu.Unlock()
	if err == nil {
		return
	}
	for _, key := range m.orders.keys() {
		m.orders.fail(key, err)
	}
	m.available.fail(settingsDocument, err)
}

func (m *Memory) check() error {
	if m.closed {
		return ErrClosed
	}
	return m.failure
}

func (m *Memory) LoadOrders(ctx context.Context, dateKey string) (Records, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	return m.days[dateKey].Clone(), nil
}

func (m *Memory) MergeWriteOrder(ctx context.Context, dateKey, roomID string, rec order.RoomOrder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if err := m.check(); err != nil {
		m.mu.Unlock()
		return err
	}
	day := m.days[dateKey]
	if day == nil {
		day = make(Records)
		m.days[dateKey] = day
	}
	rec = rec.Clone()
	rec.RoomID = roomID
	day[roomID] = rec
	m.orders.publish(dateKey, day.Clone())
	m.mu.Unlock()
	return nil
}

func (m *Memory) SubscribeOrders(ctx context.Context, dateKey string, onSnapshot func(Records), onError func(error)) (Unsubscribe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	sub, unsubscribe := m.orders.subscribe(dateKey, onSnapshot, onError)
	sub.push(event[Records]{value: m.days[dateKey].Clone()})
	return unsubscribe, nil
}

func (m *Memory) LoadAvailability(ctx context.Context) (availability.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(); err != nil {
		return availability.Settings{}, err
	}
	return m.settings.Normalize(), nil
}

func (m *Memory) WriteAvailability(ctx context.Context, settings availability.Settings) error {
	m.mu.Lock()
	if err := m.check(); err != nil {
		m.mu.Unlock()
		return err
	}
	m.settings = settings.Normalize()
	m.available.publish(settingsDocument, m.settings.Normalize())
	m.mu.Unlock()
	return nil
}

func (m *Memory) SubscribeAvailability(ctx context.Context, onSnapshot func(availability.Settings), onError func(error)) (Unsubscribe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	sub, unsubscribe := m.available.subscribe(settingsDocument, onSnapshot, onError)
	sub.push(event[availability.Settings]{value: m.settings.Normalize()})
	return unsubscribe, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.orders.closeAll()
	m.available.closeAll()
	return nil
}
