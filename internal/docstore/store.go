// Package docstore is the shared document store every terminal reads and
// writes: one document per service date holding a record per room, plus one
// global availability document. Drivers push full snapshots to subscribers
// and overwrite a room's record as a whole on write.
package docstore

import (
	"context"
	"errors"
	"fmt"

	"breakfast-order-service/internal/availability"
	"breakfast-order-service/internal/order"
)

// ErrPermissionDenied is returned (wrapped) when the backend refuses access.
// Callers treat it as a blocking condition, not a transient failure.
var ErrPermissionDenied = errors.New("docstore: permission denied")

var ErrClosed = errors.New("docstore: closed")

func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

func permissionDenied(cause error) error {
	return fmt.Errorf("%w: %v", ErrPermissionDenied, cause)
}

// Records maps room id to that room's record for one service date.
type Records map[string]order.RoomOrder

func (r Records) Clone() Records {
	out := make(Records, len(r))
	for id, rec := range r {
		out[id] = rec.Clone()
	}
	return out
}

// Lookup returns a copy of the room's record, or nil when the room has none.
func (r Records) Lookup(roomID string) *order.RoomOrder {
	rec, ok := r[roomID]
	if !ok {
		return nil
	}
	out := rec.Clone()
	return &out
}

// Unsubscribe stops a subscription. It is safe to call more than once and
// no callback runs after it returns, except one already in progress.
type Unsubscribe func()

// Store is implemented by every driver. Snapshots handed to callbacks are
// shared between subscribers and must not be modified.
type Store interface {
	LoadOrders(ctx context.Context, dateKey string) (Records, error)
	MergeWriteOrder(ctx context.Context, dateKey, roomID string, rec order.RoomOrder) error
	SubscribeOrders(ctx context.Context, dateKey string, onSnapshot func(Records), onError func(error)) (Unsubscribe, error)

	LoadAvailability(ctx context.Context) (availability.Settings, error)
	WriteAvailability(ctx context.Context, settings availability.Settings) error
	SubscribeAvailability(ctx context.Context, onSnapshot func(availability.Settings), onError func(error)) (Unsubscribe, error)

	Close() error
}

const (
	ordersCollection   = "daily_orders"
	settingsCollection = "app_settings"
	settingsDocument   = "availability"
)
