package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"breakfast-order-service/internal/availability"
	"breakfast-order-service/internal/order"
)

// Redis keeps each service date in a hash "daily_orders:<date>" with one
// field per room and the availability document in "app_settings:availability".
// Writes publish on the document's key so every node refreshes its
// subscribers.
type Redis struct {
	client *redis.Client
	logger *zap.Logger

	mu      sync.Mutex
	nextID  int
	watches map[int]context.CancelFunc
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisClient(opts RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

func NewRedis(client *redis.Client, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, logger: logger, watches: make(map[int]context.CancelFunc)}
}

func ordersKey(dateKey string) string {
	return ordersCollection + ":" + dateKey
}

func settingsKey() string {
	return settingsCollection + ":" + settingsDocument
}

func redisError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, prefix := range []string{"NOPERM", "NOAUTH", "WRONGPASS"} {
		if strings.HasPrefix(msg, prefix) {
			return permissionDenied(err)
		}
	}
	return err
}

func (r *Redis) Ping(ctx context.Context) error {
	return redisError(r.client.Ping(ctx).Err())
}

func (r *Redis) LoadOrders(ctx context.Context, dateKey string) (Records, error) {
	fields, err := r.client.HGetAll(ctx, ordersKey(dateKey)).Result()
	if err != nil {
		return nil, redisError(err)
	}
	out := make(Records, len(fields))
	for roomID, raw := range fields {
		var rec order.RoomOrder
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			r.logger.Warn("skipping unreadable room record",
				zap.String("dateKey", dateKey),
				zap.String("roomId", roomID),
				zap.Error(err),
			)
			continue
		}
		rec.RoomID = roomID
		out[roomID] = rec
	}
	return out, nil
}

func (r *Redis) MergeWriteOrder(ctx context.Context, dateKey, roomID string, rec order.RoomOrder) error {
	rec.RoomID = roomID
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode room record: %w", err)
	}
	key := ordersKey(dateKey)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, roomID, payload)
		pipe.Publish(ctx, key, roomID)
		return nil
	})
	return redisError(err)
}

func (r *Redis) SubscribeOrders(ctx context.Context, dateKey string, onSnapshot func(Records), onError func(error)) (Unsubscribe, error) {
	key := ordersKey(dateKey)
	return r.watch(ctx, key, func(ctx context.Context) (func(), error) {
		records, err := r.LoadOrders(ctx, dateKey)
		if err != nil {
			return nil, err
		}
		return func() { onSnapshot(records) }, nil
	}, onError)
}

func (r *Redis) LoadAvailability(ctx context.Context) (availability.Settings, error) {
	raw, err := r.client.Get(ctx, settingsKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return availability.Settings{UnavailableItems: []string{}}, nil
	}
	if err != nil {
		return availability.Settings{}, redisError(err)
	}
	var settings availability.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return availability.Settings{}, fmt.Errorf("decode availability: %w", err)
	}
	return settings.Normalize(), nil
}

func (r *Redis) WriteAvailability(ctx context.Context, settings availability.Settings) error {
	payload, err := json.Marshal(settings.Normalize())
	if err != nil {
		return fmt.Errorf("encode availability: %w", err)
	}
	key := settingsKey()
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, payload, 0)
		pipe.Publish(ctx, key, settingsDocument)
		return nil
	})
	return redisError(err)
}

func (r *Redis) SubscribeAvailability(ctx context.Context, onSnapshot func(availability.Settings), onError func(error)) (Unsubscribe, error) {
	return r.watch(ctx, settingsKey(), func(ctx context.Context) (func(), error) {
		settings, err := r.LoadAvailability(ctx)
		if err != nil {
			return nil, err
		}
		return func() { onSnapshot(settings) }, nil
	}, onError)
}

// watch subscribes to channel and runs reload once up front and again for
// every message, all on one goroutine so snapshots arrive in order. reload
// returns the delivery to run unless the subscription has stopped meanwhile.
func (r *Redis) watch(ctx context.Context, channel string, reload func(context.Context) (func(), error), onError func(error)) (Unsubscribe, error) {
	watchCtx, cancel := context.WithCancel(context.Background())
	pubsub := r.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, redisError(err)
	}

	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.watches[id] = cancel
	r.mu.Unlock()

	var stopped atomic.Bool
	report := func(err error) {
		if stopped.Load() || onError == nil {
			return
		}
		onError(err)
	}
	deliver := func() {
		if stopped.Load() {
			return
		}
		emit, err := reload(watchCtx)
		if err != nil {
			if watchCtx.Err() == nil {
				r.logger.Warn("docstore reload failed", zap.String("key", channel), zap.Error(err))
				report(err)
			}
			return
		}
		if !stopped.Load() {
			emit()
		}
	}

	messages := pubsub.Channel()
	go func() {
		deliver()
		for {
			select {
			case <-watchCtx.Done():
				return
			case _, ok := <-messages:
				if !ok {
					if watchCtx.Err() == nil {
						report(errors.New("docstore: subscription channel closed"))
					}
					return
				}
				deliver()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			stopped.Store(true)
			cancel()
			_ = pubsub.Close()
			r.mu.Lock()
			delete(r.watches, id)
			r.mu.Unlock()
		})
	}, nil
}

func (r *Redis) Close() error {
	r.mu.Lock()
	watches := r.watches
	r.watches = make(map[int]context.CancelFunc)
	r.mu.Unlock()
	for _, cancel := range watches {
		cancel()
	}
	return r.client.Close()
}
