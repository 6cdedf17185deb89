package order

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"breakfast-order-service/internal/availability"
	"breakfast-order-service/internal/catalog"
	"breakfast-order-service/internal/roster"
)

// Editor holds the working copy of one room's record while a terminal edits
// it. Every mutation keeps the record consistent; Draft and Confirm produce
// the record that is written back.
type Editor struct {
	menu     *catalog.Menu
	room     roster.Room
	settings availability.Settings
	actor    Actor
	stored   map[string]OrderSet
	order    RoomOrder
}

// NewEditor opens room for editing. prev is the stored record or nil.
// Non-staff actors may only edit rooms whose breakfast has been authorized.
func NewEditor(menu *catalog.Menu, rooms *roster.Roster, roomID string, settings availability.Settings, actor Actor, prev *RoomOrder) (*Editor, error) {
	room, ok := rooms.Lookup(roomID)
	if !ok {
		return nil, NotFoundError(ErrRoomNotFound, "room not found", map[string]any{"roomId": roomID})
	}
	if !actor.IsStaff() && (prev == nil || !prev.HasBreakfast) {
		return nil, ForbiddenError(ErrBreakfastNotAuthorized, "breakfast is not included for this room", map[string]any{"roomId": roomID})
	}

	e := &Editor{
		menu:     menu,
		room:     room,
		settings: settings.Normalize(),
		actor:    actor,
		stored:   map[string]OrderSet{},
	}
	if prev != nil {
		e.order = prev.Clone()
		e.order.RoomID = room.ID
		for _, set := range prev.OrderSets {
			e.stored[set.ID] = set
		}
		if len(e.order.OrderSets) == 0 {
			e.order.OrderSets = DefaultSets(room.DefaultQuota)
		}
	} else {
		e.order = RoomOrder{
			RoomID:       room.ID,
			OrderSets:    DefaultSets(room.DefaultQuota),
			HasBreakfast: true,
		}
	}
	return e, nil
}

// DefaultSets returns quota empty non-add-on sets.
func DefaultSets(quota int) []OrderSet {
	sets := make([]OrderSet, 0, quota)
	for i := 0; i < quota; i++ {
		sets = append(sets, OrderSet{ID: fmt.Sprintf("default-%d", i)})
	}
	return sets
}

func (e *Editor) Room() roster.Room {
	return e.room
}

func (e *Editor) Actor() Actor {
	return e.actor
}

// Order returns a copy of the working record.
func (e *Editor) Order() RoomOrder {
	return e.order.Clone()
}

func (e *Editor) Sets() []OrderSet {
	return append([]OrderSet(nil), e.order.OrderSets...)
}

func (e *Editor) setIndex(setID string) (int, error) {
	idx, ok := e.order.FindSet(setID)
	if !ok {
		return -1, NotFoundError(ErrSetNotFound, "order set not found", map[string]any{"setId": setID})
	}
	return idx, nil
}

// resolve looks up an item for a new selection. The item must be of kind and
// selectable under the current outage flags, unless it is the value already
// stored on the set.
func (e *Editor) resolve(setID, itemID string, kind catalog.Kind) (catalog.MenuItem, error) {
	item, ok := e.menu.Lookup(itemID)
	if !ok {
		return catalog.MenuItem{}, ValidationError(ErrItemNotFound, "menu item not found", map[string]any{"itemId": itemID})
	}
	if item.Kind != kind {
		return catalog.MenuItem{}, ValidationError(ErrItemKindMismatch, fmt.Sprintf("item %s is not a %s", itemID, kind), map[string]any{"itemId": itemID})
	}
	if stored, ok := e.stored[setID]; ok && (stored.MainID == itemID || stored.DrinkID == itemID) {
		return item, nil
	}
	if !e.settings.IsItemSelectable(item) {
		return catalog.MenuItem{}, ConflictError(ErrItemUnavailable, "menu item is unavailable", map[string]any{"itemId": itemID})
	}
	return item, nil
}

func (e *Editor) guardSelection() error {
	if e.order.IsSpecial() {
		return ConflictError(ErrSpecialStatusActive, "clear no-breakfast or voucher before choosing items", nil)
	}
	return nil
}

// SelectMain sets or clears (itemID "" or "none") the main of a set.
func (e *Editor) SelectMain(setID, itemID string) error {
	if err := e.guardSelection(); err != nil {
		return err
	}
	idx, err := e.setIndex(setID)
	if err != nil {
		return err
	}
	if itemID == "" || itemID == noneSelection {
		e.order.OrderSets[idx].MainID = ""
		return nil
	}
	item, err := e.resolve(setID, itemID, catalog.KindMain)
	if err != nil {
		return err
	}
	e.order.OrderSets[idx] = e.order.OrderSets[idx].WithItem(e.menu, item, "")
	return nil
}

// SelectDrink sets or clears the drink of a set. Sugar is recorded only for
// sugar-optional drinks and defaults to SugarNormal.
func (e *Editor) SelectDrink(setID, itemID string, sugar Sugar) error {
	if err := e.guardSelection(); err != nil {
		return err
	}
	idx, err := e.setIndex(setID)
	if err != nil {
		return err
	}
	if itemID == "" || itemID == noneSelection {
		e.order.OrderSets[idx].DrinkID = ""
		e.order.OrderSets[idx].DrinkSugar = ""
		return nil
	}
	item, err := e.resolve(setID, itemID, catalog.KindDrink)
	if err != nil {
		return err
	}
	if sugar == "" {
		sugar = SugarNormal
	}
	if sugar != SugarNormal && sugar != SugarNone {
		return ValidationError(ErrSugarNotSupported, "unknown sugar option", map[string]any{"sugar": sugar})
	}
	if !item.HasSugarOption && sugar == SugarNone {
		return ValidationError(ErrSugarNotSupported, "drink has no sugar option", map[string]any{"itemId": itemID})
	}
	e.order.OrderSets[idx] = e.order.OrderSets[idx].WithItem(e.menu, item, sugar)
	return nil
}

// SetSugar changes the sugar choice of a set's current drink.
func (e *Editor) SetSugar(setID string, sugar Sugar) error {
	idx, err := e.setIndex(setID)
	if err != nil {
		return err
	}
	set := e.order.OrderSets[idx]
	item, ok := e.menu.Lookup(set.DrinkID)
	if !ok || !item.HasSugarOption {
		return ValidationError(ErrSugarNotSupported, "drink has no sugar option", map[string]any{"setId": setID})
	}
	if sugar != SugarNormal && sugar != SugarNone {
		return ValidationError(ErrSugarNotSupported, "unknown sugar option", map[string]any{"sugar": sugar})
	}
	e.order.OrderSets[idx].DrinkSugar = sugar
	return nil
}

// AddSet appends an empty set. A set beyond the room quota is an add-on and
// a guest must acknowledge the extra charge first. The record drops back to
// draft.
func (e *Editor) AddSet(acknowledged bool) (OrderSet, error) {
	isAddOn := len(e.order.OrderSets) >= e.room.DefaultQuota
	if isAddOn && !e.actor.IsStaff() && !acknowledged {
		return OrderSet{}, ValidationError(ErrPaymentAckRequired, "additional sets are charged at the counter", map[string]any{"quota": e.room.DefaultQuota})
	}
	set := OrderSet{ID: "addon-" + uuid.NewString(), IsAddOn: isAddOn}
	e.order.OrderSets = append(e.order.OrderSets, set)
	e.order.IsCompleted = false
	return set, nil
}

// RemoveSet drops a set. Staff only; the record drops back to draft.
func (e *Editor) RemoveSet(setID string) error {
	if !e.actor.IsStaff() {
		return ForbiddenError(ErrStaffOnly, "only staff can remove sets", nil)
	}
	idx, err := e.setIndex(setID)
	if err != nil {
		return err
	}
	e.order.OrderSets = append(e.order.OrderSets[:idx], e.order.OrderSets[idx+1:]...)
	e.order.IsCompleted = false
	return nil
}

// SetNoBreakfast raises or lowers the no-breakfast flag. Raising it lowers
// the voucher flag.
func (e *Editor) SetNoBreakfast(on bool) {
	e.order.NoBreakfast = on
	if on {
		e.order.McDonaldsVoucher = false
	}
}

// SetVoucher raises or lowers the voucher flag. Raising it lowers
// no-breakfast and returns the notice the terminal must show.
func (e *Editor) SetVoucher(on bool) string {
	e.order.McDonaldsVoucher = on
	if !on {
		return ""
	}
	e.order.NoBreakfast = false
	return VoucherNotice
}

// VoucherNotice is shown when a room switches to a take-away voucher.
const VoucherNotice = "McDonald's is closed today. The guest will receive a McDonald's voucher to redeem at the counter."

func (e *Editor) SetCalls(call7am, call8am bool) {
	e.order.Call7am = call7am
	e.order.Call8am = call8am
}

func (e *Editor) SetNote(note string) {
	e.order.Note = note
}

// ValidateCombineRoom checks a room code being added to a combine list. Codes
// are free-form but exactly three characters long.
func ValidateCombineRoom(self string, existing []string, candidate string) (string, error) {
	candidate = strings.TrimSpace(candidate)
	if utf8.RuneCountInString(candidate) != 3 {
		return "", ValidationError(ErrCombineRoomInvalid, "room code must be 3 characters", map[string]any{"room": candidate})
	}
	if candidate == self {
		return "", ValidationError(ErrCombineRoomSelf, "cannot combine a room with itself", map[string]any{"room": candidate})
	}
	for _, id := range existing {
		if id == candidate {
			return "", ValidationError(ErrCombineRoomDuplicate, "room already combined", map[string]any{"room": candidate})
		}
	}
	return candidate, nil
}

func (e *Editor) AddCombineRoom(roomID string) error {
	id, err := ValidateCombineRoom(e.room.ID, e.order.CombineWithRooms, roomID)
	if err != nil {
		return err
	}
	e.order.CombineWithRooms = append(e.order.CombineWithRooms, id)
	return nil
}

func (e *Editor) RemoveCombineRoom(roomID string) {
	kept := e.order.CombineWithRooms[:0:0]
	for _, id := range e.order.CombineWithRooms {
		if id != roomID {
			kept = append(kept, id)
		}
	}
	e.order.CombineWithRooms = kept
}

// SetCombine replaces the combine list, validating each entry in order.
func (e *Editor) SetCombine(rooms []string) error {
	next := make([]string, 0, len(rooms))
	for _, r := range rooms {
		id, err := ValidateCombineRoom(e.room.ID, next, r)
		if err != nil {
			return err
		}
		next = append(next, id)
	}
	e.order.CombineWithRooms = next
	return nil
}

// Draft returns the record as an incomplete save.
func (e *Editor) Draft() RoomOrder {
	out := e.order.normalize(e.menu)
	out.IsCompleted = false
	return out
}

// Confirm returns the record as a completed order. Staff must sign it.
func (e *Editor) Confirm(staffName string) (RoomOrder, error) {
	out := e.order.normalize(e.menu)
	if e.actor.IsStaff() {
		staffName = strings.TrimSpace(staffName)
		if staffName == "" {
			staffName = strings.TrimSpace(e.actor.Name)
		}
		if staffName == "" {
			return RoomOrder{}, ValidationError(ErrStaffNameRequired, "staff name is required", nil)
		}
		out.StaffName = staffName
	}
	out.IsCompleted = true
	e.order = out.Clone()
	return out, nil
}

// Clear resets the record to quota empty sets. The breakfast authorization
// survives.
func (e *Editor) Clear() RoomOrder {
	e.order = RoomOrder{
		RoomID:       e.room.ID,
		OrderSets:    DefaultSets(e.room.DefaultQuota),
		HasBreakfast: e.order.HasBreakfast,
	}
	return e.order.normalize(e.menu)
}

// ToggleBreakfast flips the breakfast authorization. A room with no record
// gets an empty authorized draft.
func ToggleBreakfast(roomID string, prev *RoomOrder) RoomOrder {
	if prev == nil {
		return RoomOrder{RoomID: roomID, OrderSets: []OrderSet{}, HasBreakfast: true}
	}
	out := prev.Clone()
	out.RoomID = roomID
	out.HasBreakfast = !prev.HasBreakfast
	if out.OrderSets == nil {
		out.OrderSets = []OrderSet{}
	}
	return out
}

// Proposal is a complete record submitted by a terminal in one request.
type Proposal struct {
	OrderSets           []OrderSet `json:"orderSets"`
	Call7am             bool       `json:"call7am"`
	Call8am             bool       `json:"call8am"`
	Note                string     `json:"note"`
	CombineWithRooms    []string   `json:"combineWithRooms"`
	NoBreakfast         bool       `json:"noBreakfast"`
	McDonaldsVoucher    bool       `json:"mcdonaldsVoucher"`
	StaffName           string     `json:"staffName"`
	AcknowledgedPayment bool       `json:"acknowledgedPayment"`
}

// Apply replays p through the editor's mutators so every rule holds for a
// whole-record submit, then confirms it.
func (e *Editor) Apply(p Proposal) (RoomOrder, error) {
	wanted := make(map[string]struct{}, len(p.OrderSets))
	for _, set := range p.OrderSets {
		if set.ID == "" {
			continue
		}
		if _, dup := wanted[set.ID]; dup {
			return RoomOrder{}, ValidationError(ErrSetDuplicate, "order set listed more than once", map[string]any{"setId": set.ID})
		}
		wanted[set.ID] = struct{}{}
	}
	for _, set := range e.Sets() {
		if _, ok := wanted[set.ID]; !ok {
			if err := e.RemoveSet(set.ID); err != nil {
				return RoomOrder{}, err
			}
		}
	}

	if p.NoBreakfast {
		e.SetNoBreakfast(true)
	} else if p.McDonaldsVoucher {
		e.SetVoucher(true)
	} else {
		e.SetNoBreakfast(false)
		e.SetVoucher(false)
	}

	for _, want := range p.OrderSets {
		id := want.ID
		if _, ok := e.order.FindSet(id); !ok {
			added, err := e.AddSet(p.AcknowledgedPayment)
			if err != nil {
				return RoomOrder{}, err
			}
			id = added.ID
		}
		if e.order.IsSpecial() {
			continue
		}
		if err := e.SelectMain(id, want.MainID); err != nil {
			return RoomOrder{}, err
		}
		if err := e.SelectDrink(id, want.DrinkID, want.DrinkSugar); err != nil {
			return RoomOrder{}, err
		}
	}

	e.SetCalls(p.Call7am, p.Call8am)
	e.SetNote(p.Note)
	if err := e.SetCombine(p.CombineWithRooms); err != nil {
		return RoomOrder{}, err
	}
	return e.Confirm(p.StaffName)
}
