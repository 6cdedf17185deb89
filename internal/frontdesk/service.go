// Package frontdesk runs every room write a terminal can request: it loads
// the stored record, checks the ordering window, replays the change through
// an order.Editor and writes the resulting record back as a whole.
package frontdesk

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"breakfast-order-service/internal/aggregate"
	"breakfast-order-service/internal/availability"
	"breakfast-order-service/internal/catalog"
	"breakfast-order-service/internal/docstore"
	"breakfast-order-service/internal/order"
	"breakfast-order-service/internal/queue"
	"breakfast-order-service/internal/roster"
	"breakfast-order-service/internal/window"
)

// Writer persists records. The store itself satisfies it; a live board can
// stand in so its terminal sees the write before the store confirms it.
type Writer interface {
	MergeWriteOrder(ctx context.Context, dateKey, roomID string, rec order.RoomOrder) error
	WriteAvailability(ctx context.Context, settings availability.Settings) error
}

// Events receives a notification after each successful room write.
type Events interface {
	PublishOrderSaved(ctx context.Context, ev queue.OrderSavedEvent) error
}

type Service struct {
	store  docstore.Store
	writer Writer
	events Events
	menu   *catalog.Menu
	rooms  *roster.Roster
	policy window.Policy
	now    func() time.Time
	logger *zap.Logger
}

type Option func(*Service)

func WithWriter(w Writer) Option {
	return func(s *Service) { s.writer = w }
}

func WithEvents(ev Events) Option {
	return func(s *Service) { s.events = ev }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store docstore.Store, menu *catalog.Menu, rooms *roster.Roster, policy window.Policy, opts ...Option) *Service {
	s := &Service{
		store:  store,
		writer: store,
		menu:   menu,
		rooms:  rooms,
		policy: policy,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Clone returns a copy of s with opts applied. Terminals use it to route
// writes through their own board.
func (s *Service) Clone(opts ...Option) *Service {
	out := *s
	for _, opt := range opts {
		opt(&out)
	}
	return &out
}

func (s *Service) Menu() *catalog.Menu { return s.menu }

func (s *Service) Rooms() *roster.Roster { return s.rooms }

func (s *Service) Policy() window.Policy { return s.policy }

func (s *Service) Store() docstore.Store { return s.store }

func (s *Service) Now() time.Time { return s.now() }

// Request identifies a room write.
type Request struct {
	DateKey  string
	RoomID   string
	Actor    order.Actor
	Override bool
}

// Result is what a write hands back to the terminal.
type Result struct {
	DateKey string          `json:"dateKey"`
	Record  order.RoomOrder `json:"record"`
	Set     *order.OrderSet `json:"set,omitempty"`
	Notice  string          `json:"notice,omitempty"`
}

// ResolveDate parses key in the policy's zone. Guests always act on
// tomorrow's service date.
func (s *Service) ResolveDate(key string, actor order.Actor) (time.Time, error) {
	if !actor.IsStaff() {
		return s.policy.Tomorrow(s.now()), nil
	}
	date, err := window.ParseKey(key, s.policy.Location)
	if err != nil {
		return time.Time{}, order.ValidationError(order.ErrDateOutOfRange, "date must be YYYY-MM-DD", map[string]any{"date": key})
	}
	return date, nil
}

// authorize checks the ordering window for a write. The override only
// counts for staff.
func (s *Service) authorize(req Request) (string, error) {
	date, err := s.ResolveDate(req.DateKey, req.Actor)
	if err != nil {
		return "", err
	}
	key := window.Key(date)
	status := s.policy.Evaluate(s.now(), date)
	if status.Reason == window.ReasonBeyondHorizon {
		return "", order.ValidationError(order.ErrDateOutOfRange, "date is beyond the booking horizon", map[string]any{"date": key})
	}
	if !window.Writable(status, req.Override && req.Actor.IsStaff()) {
		return "", order.ConflictError(order.ErrOrderingLocked, status.Label, map[string]any{
			"date":             key,
			"reason":           status.Reason,
			"staffOverridable": status.StaffOverridable,
		})
	}
	return key, nil
}

func (s *Service) load(ctx context.Context, dateKey, roomID string) (*order.RoomOrder, availability.Settings, error) {
	records, err := s.store.LoadOrders(ctx, dateKey)
	if err != nil {
		return nil, availability.Settings{}, err
	}
	settings, err := s.store.LoadAvailability(ctx)
	if err != nil {
		return nil, availability.Settings{}, err
	}
	return records.Lookup(roomID), settings, nil
}

func (s *Service) open(ctx context.Context, req Request) (string, *order.Editor, error) {
	key, err := s.authorize(req)
	if err != nil {
		return "", nil, err
	}
	prev, settings, err := s.load(ctx, key, req.RoomID)
	if err != nil {
		return "", nil, err
	}
	editor, err := order.NewEditor(s.menu, s.rooms, req.RoomID, settings, req.Actor, prev)
	if err != nil {
		return "", nil, err
	}
	return key, editor, nil
}

func (s *Service) write(ctx context.Context, req Request, dateKey string, rec order.RoomOrder) error {
	if err := s.writer.MergeWriteOrder(ctx, dateKey, req.RoomID, rec); err != nil {
		s.logger.Warn("room write failed",
			zap.String("dateKey", dateKey),
			zap.String("roomId", req.RoomID),
			zap.Error(err),
		)
		return err
	}
	if s.events != nil {
		ev := queue.OrderSavedEvent{
			Type:        queue.OrderSavedRK,
			DateKey:     dateKey,
			RoomID:      req.RoomID,
			IsCompleted: rec.IsCompleted,
			Role:        string(req.Actor.Role),
			StaffName:   rec.StaffName,
			SavedAt:     s.now().UTC(),
		}
		if err := s.events.PublishOrderSaved(ctx, ev); err != nil {
			s.logger.Warn("order saved event failed", zap.String("dateKey", dateKey), zap.String("roomId", req.RoomID), zap.Error(err))
		}
	}
	return nil
}

// Submit confirms a whole-record proposal.
func (s *Service) Submit(ctx context.Context, req Request, p order.Proposal) (Result, error) {
	key, editor, err := s.open(ctx, req)
	if err != nil {
		return Result{}, err
	}
	if req.Actor.IsStaff() && strings.TrimSpace(p.StaffName) == "" {
		p.StaffName = req.Actor.Name
	}
	rec, err := editor.Apply(p)
	if err != nil {
		return Result{}, err
	}
	if err := s.write(ctx, req, key, rec); err != nil {
		return Result{}, err
	}
	res := Result{DateKey: key, Record: rec}
	if rec.McDonaldsVoucher {
		res.Notice = order.VoucherNotice
	}
	return res, nil
}

// AddSet appends one set and saves the room as a draft.
func (s *Service) AddSet(ctx context.Context, req Request, acknowledged bool) (Result, error) {
	key, editor, err := s.open(ctx, req)
	if err != nil {
		return Result{}, err
	}
	set, err := editor.AddSet(acknowledged)
	if err != nil {
		return Result{}, err
	}
	rec := editor.Draft()
	if err := s.write(ctx, req, key, rec); err != nil {
		return Result{}, err
	}
	return Result{DateKey: key, Record: rec, Set: &set}, nil
}

func (s *Service) RemoveSet(ctx context.Context, req Request, setID string) (Result, error) {
	key, editor, err := s.open(ctx, req)
	if err != nil {
		return Result{}, err
	}
	if err := editor.RemoveSet(setID); err != nil {
		return Result{}, err
	}
	rec := editor.Draft()
	if err := s.write(ctx, req, key, rec); err != nil {
		return Result{}, err
	}
	return Result{DateKey: key, Record: rec}, nil
}

// Clear resets the room to empty default sets.
func (s *Service) Clear(ctx context.Context, req Request) (Result, error) {
	key, editor, err := s.open(ctx, req)
	if err != nil {
		return Result{}, err
	}
	rec := editor.Clear()
	if err := s.write(ctx, req, key, rec); err != nil {
		return Result{}, err
	}
	return Result{DateKey: key, Record: rec}, nil
}

// ToggleBreakfast flips the room's breakfast authorization. Staff only.
func (s *Service) ToggleBreakfast(ctx context.Context, req Request) (Result, error) {
	if !req.Actor.IsStaff() {
		return Result{}, order.ForbiddenError(order.ErrStaffOnly, "only staff can change breakfast authorization", nil)
	}
	if !s.rooms.Contains(req.RoomID) {
		return Result{}, order.NotFoundError(order.ErrRoomNotFound, "room not found", map[string]any{"roomId": req.RoomID})
	}
	key, err := s.authorize(req)
	if err != nil {
		return Result{}, err
	}
	prev, _, err := s.load(ctx, key, req.RoomID)
	if err != nil {
		return Result{}, err
	}
	rec := order.ToggleBreakfast(req.RoomID, prev)
	if err := s.write(ctx, req, key, rec); err != nil {
		return Result{}, err
	}
	return Result{DateKey: key, Record: rec}, nil
}

// SetAvailability replaces the availability document. Staff only.
func (s *Service) SetAvailability(ctx context.Context, actor order.Actor, settings availability.Settings) (availability.Settings, error) {
	if !actor.IsStaff() {
		return availability.Settings{}, order.ForbiddenError(order.ErrStaffOnly, "only staff can change availability", nil)
	}
	for _, id := range settings.UnavailableItems {
		if _, ok := s.menu.Lookup(id); !ok {
			return availability.Settings{}, order.ValidationError(order.ErrItemNotFound, "unknown menu item", map[string]any{"itemId": id})
		}
	}
	settings = settings.Normalize()
	if err := s.writer.WriteAvailability(ctx, settings); err != nil {
		s.logger.Warn("availability write failed", zap.Error(err))
		return availability.Settings{}, err
	}
	return settings, nil
}

// RoomDetail is the editing view of one room.
type RoomDetail struct {
	DateKey        string                `json:"dateKey"`
	Room           roster.Room           `json:"room"`
	Exists         bool                  `json:"exists"`
	Status         aggregate.RoomStatus  `json:"status"`
	Record         order.RoomOrder       `json:"record"`
	LinkedByOthers []string              `json:"linkedByOthers"`
	Selectable     []catalog.MenuItem    `json:"selectable"`
	Settings       availability.Settings `json:"settings"`
	Window         window.Status         `json:"window"`
}

// Room returns the stored record, or the default draft a terminal starts
// from, plus the rooms that name this one in their combine lists.
func (s *Service) Room(ctx context.Context, dateKey, roomID string, actor order.Actor) (RoomDetail, error) {
	date, err := s.ResolveDate(dateKey, actor)
	if err != nil {
		return RoomDetail{}, err
	}
	key := window.Key(date)
	records, err := s.store.LoadOrders(ctx, key)
	if err != nil {
		return RoomDetail{}, err
	}
	settings, err := s.store.LoadAvailability(ctx)
	if err != nil {
		return RoomDetail{}, err
	}
	prev := records.Lookup(roomID)
	editor, err := order.NewEditor(s.menu, s.rooms, roomID, settings, actor, prev)
	if err != nil {
		return RoomDetail{}, err
	}

	linked := aggregate.LinkedBy(s.rooms, records)[roomID]
	if linked == nil {
		linked = []string{}
	}
	return RoomDetail{
		DateKey:        key,
		Room:           editor.Room(),
		Exists:         prev != nil,
		Status:         aggregate.Status(prev),
		Record:         editor.Order(),
		LinkedByOthers: linked,
		Selectable:     availability.SelectableItems(s.menu, settings),
		Settings:       settings.Normalize(),
		Window:         s.policy.Evaluate(s.now(), date),
	}, nil
}

// Day is the dashboard view of one service date.
type Day struct {
	DateKey   string                `json:"dateKey"`
	Window    window.Status         `json:"window"`
	Settings  availability.Settings `json:"settings"`
	Records   docstore.Records      `json:"records"`
	Aggregate aggregate.Result      `json:"aggregate"`
}

func (s *Service) Day(ctx context.Context, dateKey string) (Day, error) {
	date, err := window.ParseKey(dateKey, s.policy.Location)
	if err != nil {
		return Day{}, order.ValidationError(order.ErrDateOutOfRange, "date must be YYYY-MM-DD", map[string]any{"date": dateKey})
	}
	key := window.Key(date)
	records, err := s.store.LoadOrders(ctx, key)
	if err != nil {
		return Day{}, err
	}
	settings, err := s.store.LoadAvailability(ctx)
	if err != nil {
		return Day{}, err
	}
	return Day{
		DateKey:   key,
		Window:    s.policy.Evaluate(s.now(), date),
		Settings:  settings.Normalize(),
		Records:   records,
		Aggregate: aggregate.Compute(s.menu, s.rooms, records),
	}, nil
}
