// Package aggregate derives the dashboard and kitchen views of one service
// date from a snapshot of room records. Everything here is a pure function of
// its inputs and is recomputed from scratch on every snapshot.
package aggregate

import (
	"math"

	"breakfast-order-service/internal/catalog"
	"breakfast-order-service/internal/order"
	"breakfast-order-service/internal/roster"
)

type RoomStatus string

const (
	StatusEmpty       RoomStatus = "EMPTY"
	StatusAuthorized  RoomStatus = "AUTHORIZED"
	StatusDraft       RoomStatus = "DRAFT"
	StatusOrdered     RoomStatus = "ORDERED"
	StatusNoBreakfast RoomStatus = "NO_BREAKFAST"
	StatusVoucher     RoomStatus = "VOUCHER"
)

// Call labels shown on a tile for a present category.
const (
	CallWestern = "7C"
	CallChinese = "8C"
	CallNone    = "NC"
)

// Status classifies a room record for display. A present record with
// hasBreakfast and nothing entered is AUTHORIZED, never EMPTY or DRAFT.
func Status(rec *order.RoomOrder) RoomStatus {
	if rec == nil {
		return StatusEmpty
	}
	if rec.IsCompleted {
		switch {
		case rec.NoBreakfast:
			return StatusNoBreakfast
		case rec.McDonaldsVoucher:
			return StatusVoucher
		}
		return StatusOrdered
	}
	if !allEmpty(rec.OrderSets) || rec.HasNote() {
		return StatusDraft
	}
	if rec.HasBreakfast {
		return StatusAuthorized
	}
	return StatusEmpty
}

func allEmpty(sets []order.OrderSet) bool {
	for _, set := range sets {
		if !set.IsEmpty() {
			return false
		}
	}
	return true
}

type Tile struct {
	RoomID       string     `json:"roomId"`
	TypeLabel    string     `json:"typeLabel"`
	Floor        int        `json:"floor"`
	Status       RoomStatus `json:"status"`
	HasBreakfast bool       `json:"hasBreakfast"`
	HasNote      bool       `json:"hasNote"`
	StaffName    string     `json:"staffName,omitempty"`
	Sets         int        `json:"sets"`
	AddOns       int        `json:"addOns"`
	WesternCall  string     `json:"westernCall,omitempty"`
	ChineseCall  string     `json:"chineseCall,omitempty"`
	GroupID      string     `json:"groupId,omitempty"`
	GroupColor   string     `json:"groupColor,omitempty"`
	LinkedBy     []string   `json:"linkedBy,omitempty"`
}

// Result is everything the dashboard and the report need for one date.
type Result struct {
	Groups     []Group `json:"groups"`
	Kitchen    Kitchen `json:"kitchen"`
	Billing    Billing `json:"billing"`
	Completed  int     `json:"completed"`
	TotalRooms int     `json:"totalRooms"`
	Progress   float64 `json:"progress"`
	Tiles      []Tile  `json:"tiles"`
}

// Compute runs every aggregation over one snapshot.
func Compute(menu *catalog.Menu, rooms *roster.Roster, orders map[string]order.RoomOrder) Result {
	groups := LinkedGroups(rooms, orders)
	kitchen := CountKitchen(menu, rooms, orders)
	completed := CompletedRooms(rooms, orders)

	return Result{
		Groups:     groups,
		Kitchen:    kitchen,
		Billing:    Bill(menu, kitchen),
		Completed:  completed,
		TotalRooms: rooms.Len(),
		Progress:   Progress(completed, rooms.Len()),
		Tiles:      Tiles(menu, rooms, orders, groups),
	}
}

func CompletedRooms(rooms *roster.Roster, orders map[string]order.RoomOrder) int {
	n := 0
	for _, room := range rooms.Rooms() {
		if rec, ok := orders[room.ID]; ok && rec.IsCompleted {
			n++
		}
	}
	return n
}

// Progress is completed/total as a percentage rounded to one decimal.
func Progress(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(completed)*1000/float64(total)) / 10
}

// Tiles builds one tile per roster room in roster order.
func Tiles(menu *catalog.Menu, rooms *roster.Roster, orders map[string]order.RoomOrder, groups []Group) []Tile {
	groupOf := make(map[string]Group)
	for _, g := range groups {
		for _, id := range g.Members {
			groupOf[id] = g
		}
	}
	linkedBy := LinkedBy(rooms, orders)

	all := rooms.Rooms()
	tiles := make([]Tile, 0, len(all))
	for _, room := range all {
		tile := Tile{
			RoomID:    room.ID,
			TypeLabel: room.Type.Label(),
			Floor:     room.Floor,
			Status:    StatusEmpty,
			LinkedBy:  linkedBy[room.ID],
		}
		if g, ok := groupOf[room.ID]; ok {
			tile.GroupID = g.ID
			tile.GroupColor = g.Color
		}
		if rec, ok := orders[room.ID]; ok {
			tile.Status = Status(&rec)
			tile.HasBreakfast = rec.HasBreakfast
			tile.HasNote = rec.HasNote()
			tile.StaffName = rec.StaffName
			for _, set := range rec.EffectiveSets() {
				tile.Sets++
				if set.IsAddOn {
					tile.AddOns++
				}
			}
			if tile.Status == StatusOrdered {
				tile.WesternCall = callLabel(rec.HasCategory(menu, catalog.CategoryWestern), rec.Call7am, CallWestern)
				tile.ChineseCall = callLabel(rec.HasCategory(menu, catalog.CategoryChinese), rec.Call8am, CallChinese)
			}
		}
		tiles = append(tiles, tile)
	}
	return tiles
}

func callLabel(present, call bool, label string) string {
	if !present {
		return ""
	}
	if call {
		return label
	}
	return CallNone
}
