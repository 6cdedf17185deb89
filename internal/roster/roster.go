package roster

import (
	"sort"
	"strconv"
)

type RoomType string

const (
	RoomSingle RoomType = "SINGLE"
	RoomDouble RoomType = "DOUBLE"
	RoomQuad   RoomType = "QUAD"
)

// Label is the printed room type, e.g. "2-Pax".
func (t RoomType) Label() string {
	switch t {
	case RoomSingle:
		return "1-Pax"
	case RoomQuad:
		return "4-Pax"
	default:
		return "2-Pax"
	}
}

func (t RoomType) Quota() int {
	switch t {
	case RoomSingle:
		return 1
	case RoomQuad:
		return 4
	default:
		return 2
	}
}

type Room struct {
	ID           string   `json:"id"`
	Type         RoomType `json:"type"`
	DefaultQuota int      `json:"defaultQuota"`
	Floor        int      `json:"floor"`
}

type Roster struct {
	rooms []Room
	index map[string]int
}

func New(rooms []Room) *Roster {
	r := &Roster{index: make(map[string]int, len(rooms))}
	for _, room := range rooms {
		if room.ID == "" {
			continue
		}
		if _, dup := r.index[room.ID]; dup {
			continue
		}
		if room.DefaultQuota < 1 {
			room.DefaultQuota = room.Type.Quota()
		}
		r.index[room.ID] = len(r.rooms)
		r.rooms = append(r.rooms, room)
	}
	return r
}

func (r *Roster) Rooms() []Room {
	out := make([]Room, len(r.rooms))
	copy(out, r.rooms)
	return out
}

func (r *Roster) Len() int {
	return len(r.rooms)
}

func (r *Roster) Lookup(id string) (Room, bool) {
	i, ok := r.index[id]
	if !ok {
		return Room{}, false
	}
	return r.rooms[i], true
}

func (r *Roster) Contains(id string) bool {
	_, ok := r.index[id]
	return ok
}

// Floors returns floor numbers highest first.
func (r *Roster) Floors() []int {
	seen := make(map[int]struct{})
	floors := make([]int, 0)
	for _, room := range r.rooms {
		if _, ok := seen[room.Floor]; ok {
			continue
		}
		seen[room.Floor] = struct{}{}
		floors = append(floors, room.Floor)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(floors)))
	return floors
}

func (r *Roster) OnFloor(floor int) []Room {
	out := make([]Room, 0)
	for _, room := range r.rooms {
		if room.Floor == floor {
			out = append(out, room)
		}
	}
	return out
}

type numberRange struct {
	start int
	end   int
}

var (
	roomRanges = []numberRange{
		{100, 139},
		{200, 222},
		{231, 239},
		{251, 268},
	}
	singleRanges = []numberRange{
		{231, 239},
		{251, 268},
	}
	excludedRooms = map[int]bool{
		104: true, 114: true, 124: true, 134: true,
		204: true, 214: true,
		234: true,
		254: true, 264: true,
	}
	quadRooms = map[int]bool{117: true, 118: true, 119: true, 207: true, 212: true}
)

func roomType(number int) RoomType {
	if quadRooms[number] {
		return RoomQuad
	}
	for _, rg := range singleRanges {
		if number >= rg.start && number <= rg.end {
			return RoomSingle
		}
	}
	return RoomDouble
}

// Default builds the hotel's room list. 1xx rooms sit on 14F, 2xx on 13F.
func Default() *Roster {
	rooms := make([]Room, 0, 96)
	for _, rg := range roomRanges {
		for n := rg.start; n <= rg.end; n++ {
			if excludedRooms[n] {
				continue
			}
			kind := roomType(n)
			floor := 13
			if n/100 == 1 {
				floor = 14
			}
			rooms = append(rooms, Room{
				ID:           strconv.Itoa(n),
				Type:         kind,
				DefaultQuota: kind.Quota(),
				Floor:        floor,
			})
		}
	}
	return New(rooms)
}
