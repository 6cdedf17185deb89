package roster

import "testing"

func TestDefaultRoster(t *testing.T) {
	r := Default()

	if r.Len() != 81 {
		t.Fatalf("expected 81 rooms, got %d", r.Len())
	}

	cases := []struct {
		id     string
		exists bool
		kind   RoomType
		quota  int
		floor  int
	}{
		{id: "101", exists: true, kind: RoomDouble, quota: 2, floor: 14},
		{id: "104", exists: false},
		{id: "117", exists: true, kind: RoomQuad, quota: 4, floor: 14},
		{id: "207", exists: true, kind: RoomQuad, quota: 4, floor: 13},
		{id: "222", exists: true, kind: RoomDouble, quota: 2, floor: 13},
		{id: "223", exists: false},
		{id: "231", exists: true, kind: RoomSingle, quota: 1, floor: 13},
		{id: "234", exists: false},
		{id: "268", exists: true, kind: RoomSingle, quota: 1, floor: 13},
	}

	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			room, ok := r.Lookup(tc.id)
			if ok != tc.exists {
				t.Fatalf("expected exists=%v, got %v", tc.exists, ok)
			}
			if !ok {
				return
			}
			if room.Type != tc.kind || room.DefaultQuota != tc.quota || room.Floor != tc.floor {
				t.Fatalf("unexpected room %+v", room)
			}
		})
	}

	floors := r.Floors()
	if len(floors) != 2 || floors[0] != 14 || floors[1] != 13 {
		t.Fatalf("expected floors [14 13], got %v", floors)
	}
	if got := len(r.OnFloor(14)); got != 36 {
		t.Fatalf("expected 36 rooms on 14F, got %d", got)
	}
}

func TestNewFillsQuotaFromType(t *testing.T) {
	r := New([]Room{{ID: "501", Type: RoomQuad}, {ID: "501", Type: RoomSingle}, {ID: ""}})
	if r.Len() != 1 {
		t.Fatalf("expected duplicates and blanks dropped, got %d rooms", r.Len())
	}
	room, _ := r.Lookup("501")
	if room.DefaultQuota != 4 {
		t.Fatalf("expected quota 4, got %d", room.DefaultQuota)
	}
	if RoomQuad.Label() != "4-Pax" {
		t.Fatalf("unexpected label %s", RoomQuad.Label())
	}
}
