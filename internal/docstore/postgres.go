package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"breakfast-order-service/internal/availability"
	"breakfast-order-service/internal/order"
)

const (
	ordersChannel   = "daily_orders_updates"
	settingsChannel = "app_settings_updates"

	insufficientPrivilege = "42501"

	listenWaitTimeout = 5 * time.Second
)

const schema = `
create table if not exists daily_orders (
  date_key   text        not null,
  room_id    text        not null,
  record     jsonb       not null,
  updated_at timestamptz not null default now(),
  primary key (date_key, room_id)
);
create table if not exists app_settings (
  id         text        primary key,
  settings   jsonb       not null,
  updated_at timestamptz not null default now()
);
`

// Postgres stores one row per room and date in daily_orders and the
// availability document in app_settings. Writes NOTIFY with the date key so
// every node reloads the affected document for its subscribers.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger

	orders    *hub[Records]
	available *hub[availability.Settings]

	// refreshMu serializes every load that ends in a push to subscribers.
	refreshMu sync.Mutex

	started    sync.Once
	listenOnce sync.Once
	listening  chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, postgresError(err)
	}
	return pool, nil
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Postgres{
		pool:      pool,
		logger:    logger,
		orders:    newHub[Records](),
		available: newHub[availability.Settings](),
		listening: make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func postgresError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == insufficientPrivilege {
		return permissionDenied(err)
	}
	return err
}

// Migrate creates the tables when they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schema)
	return postgresError(err)
}

func (p *Postgres) LoadOrders(ctx context.Context, dateKey string) (Records, error) {
	rows, err := p.pool.Query(ctx, `select room_id, record from daily_orders where date_key = $1`, dateKey)
	if err != nil {
		return nil, postgresError(err)
	}
	defer rows.Close()

	out := make(Records)
	for rows.Next() {
		var (
			roomID string
			raw    []byte
		)
		if err := rows.Scan(&roomID, &raw); err != nil {
			return nil, postgresError(err)
		}
		var rec order.RoomOrder
		if err := json.Unmarshal(raw, &rec); err != nil {
			p.logger.Warn("skipping unreadable room record",
				zap.String("dateKey", dateKey),
				zap.String("roomId", roomID),
				zap.Error(err),
			)
			continue
		}
		rec.RoomID = roomID
		out[roomID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, postgresError(err)
	}
	return out, nil
}

func (p *Postgres) MergeWriteOrder(ctx context.Context, dateKey, roomID string, rec order.RoomOrder) error {
	rec.RoomID = roomID
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode room record: %w", err)
	}

	return p.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			insert into daily_orders (date_key, room_id, record, updated_at)
			values ($1, $2, $3, now())
			on conflict (date_key, room_id)
			do update set record = excluded.record, updated_at = now()
		`, dateKey, roomID, payload); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `select pg_notify($1, $2)`, ordersChannel, dateKey)
		return err
	})
}

func (p *Postgres) LoadAvailability(ctx context.Context) (availability.Settings, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `select settings from app_settings where id = $1`, settingsDocument).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return availability.Settings{UnavailableItems: []string{}}, nil
	}
	if err != nil {
		return availability.Settings{}, postgresError(err)
	}
	var settings availability.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return availability.Settings{}, fmt.Errorf("decode availability: %w", err)
	}
	return settings.Normalize(), nil
}

func (p *Postgres) WriteAvailability(ctx context.Context, settings availability.Settings) error {
	payload, err := json.Marshal(settings.Normalize())
	if err != nil {
		return fmt.Errorf("encode availability: %w", err)
	}
	return p.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			insert into app_settings (id, settings, updated_at)
			values ($1, $2, now())
			on conflict (id) do update set settings = excluded.settings, updated_at = now()
		`, settingsDocument, payload); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `select pg_notify($1, $2)`, settingsChannel, settingsDocument)
		return err
	})
}

func (p *Postgres) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return postgresError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return postgresError(err)
	}
	return postgresError(tx.Commit(ctx))
}

// SubscribeOrders registers the subscriber, waits for the listener, and only
// then loads the first snapshot, so no NOTIFY between load and registration
// can be missed.
func (p *Postgres) SubscribeOrders(ctx context.Context, dateKey string, onSnapshot func(Records), onError func(error)) (Unsubscribe, error) {
	return subscribeLoaded(ctx, p.orders, dateKey, &p.refreshMu, p.awaitListening,
		func(ctx context.Context) (Records, error) { return p.LoadOrders(ctx, dateKey) },
		onSnapshot, onError)
}

func (p *Postgres) SubscribeAvailability(ctx context.Context, onSnapshot func(availability.Settings), onError func(error)) (Unsubscribe, error) {
	return subscribeLoaded(ctx, p.available, settingsDocument, &p.refreshMu, p.awaitListening,
		p.LoadAvailability, onSnapshot, onError)
}

func (p *Postgres) ensureStarted() {
	p.started.Do(func() {
		go p.listenLoop(p.ctx)
	})
}

// awaitListening starts the listener and waits until its first LISTEN is in
// place. If that takes longer than listenWaitTimeout the caller goes ahead;
// the listener reloads every subscribed document once it connects.
func (p *Postgres) awaitListening(ctx context.Context) error {
	p.ensureStarted()
	timer := time.NewTimer(listenWaitTimeout)
	defer timer.Stop()
	select {
	case <-p.listening:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		p.logger.Warn("docstore LISTEN not ready; loading without it")
		return nil
	}
}

func (p *Postgres) refreshOrders(ctx context.Context, dateKey string) {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()
	records, err := p.LoadOrders(ctx, dateKey)
	if err != nil {
		p.logger.Warn("orders reload failed", zap.String("dateKey", dateKey), zap.Error(err))
		p.orders.fail(dateKey, err)
		return
	}
	p.orders.publish(dateKey, records)
}

func (p *Postgres) refreshAvailability(ctx context.Context) {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()
	settings, err := p.LoadAvailability(ctx)
	if err != nil {
		p.logger.Warn("availability reload failed", zap.Error(err))
		p.available.fail(settingsDocument, err)
		return
	}
	p.available.publish(settingsDocument, settings)
}

// refreshAll reloads every watched document each time the listener
// connects, since notifications sent before LISTEN was in place are lost.
func (p *Postgres) refreshAll(ctx context.Context) {
	for _, dateKey := range p.orders.keys() {
		p.refreshOrders(ctx, dateKey)
	}
	if len(p.available.keys()) > 0 {
		p.refreshAvailability(ctx)
	}
}

func (p *Postgres) listenLoop(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := p.pool.Acquire(ctx)
		if err != nil {
			p.logger.Warn("docstore LISTEN acquire failed", zap.Error(err))
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = minDuration(backoff*2, 30*time.Second)
			continue
		}

		_, err = conn.Exec(ctx, `listen `+ordersChannel)
		if err == nil {
			_, err = conn.Exec(ctx, `listen `+settingsChannel)
		}
		if err != nil {
			conn.Release()
			p.logger.Warn("docstore LISTEN failed", zap.Error(err))
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = minDuration(backoff*2, 30*time.Second)
			continue
		}

		backoff = time.Second
		p.listenOnce.Do(func() { close(p.listening) })
		p.refreshAll(ctx)

		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				break
			}
			switch n.Channel {
			case ordersChannel:
				if p.orders.has(n.Payload) {
					p.refreshOrders(ctx, n.Payload)
				}
			case settingsChannel:
				p.refreshAvailability(ctx)
			}
		}

		conn.Release()
		if !sleepCtx(ctx, backoff) {
			return
		}
		backoff = minDuration(backoff*2, 30*time.Second)
	}
}

func (p *Postgres) Close() error {
	p.cancel()
	p.orders.closeAll()
	p.available.closeAll()
	p.pool.Close()
	return nil
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
