package aggregate

import (
	"fmt"

	"breakfast-order-service/internal/order"
	"breakfast-order-service/internal/roster"
)

// Palette is the rotating set of display colors for linked-room groups.
var Palette = []string{"blue", "purple", "amber", "pink", "cyan", "rose"}

type Group struct {
	ID      string   `json:"id"`
	Color   string   `json:"color"`
	Members []string `json:"members"`
}

type disjointSet struct {
	parent map[string]string
}

func newDisjointSet(ids []string) *disjointSet {
	ds := &disjointSet{parent: make(map[string]string, len(ids))}
	for _, id := range ids {
		ds.parent[id] = id
	}
	return ds
}

func (d *disjointSet) find(id string) string {
	root := id
	for d.parent[root] != root {
		root = d.parent[root]
	}
	for d.parent[id] != root {
		next := d.parent[id]
		d.parent[id] = root
		id = next
	}
	return root
}

func (d *disjointSet) union(a, b string) {
	ra, rb := d.find(a), d.find(b)
	if ra != rb {
		d.parent[ra] = rb
	}
}

// LinkedGroups joins rooms through the combine lists of completed records,
// treating references as undirected. Draft lists are ignored and only
// references between roster rooms count. A group is
// returned when it has more than one member and at least one completed
// record; groups are numbered and colored in roster order of their first
// member.
func LinkedGroups(rooms *roster.Roster, orders map[string]order.RoomOrder) []Group {
	all := rooms.Rooms()
	ids := make([]string, 0, len(all))
	for _, room := range all {
		ids = append(ids, room.ID)
	}
	ds := newDisjointSet(ids)

	for _, room := range all {
		rec, ok := orders[room.ID]
		if !ok || !rec.IsCompleted {
			continue
		}
		for _, target := range rec.CombineWithRooms {
			if target == room.ID || !rooms.Contains(target) {
				continue
			}
			ds.union(room.ID, target)
		}
	}

	members := make(map[string][]string)
	roots := make([]string, 0)
	for _, id := range ids {
		root := ds.find(id)
		if _, seen := members[root]; !seen {
			roots = append(roots, root)
		}
		members[root] = append(members[root], id)
	}

	groups := make([]Group, 0)
	for _, root := range roots {
		list := members[root]
		if len(list) < 2 || !anyCompleted(list, orders) {
			continue
		}
		n := len(groups)
		groups = append(groups, Group{
			ID:      fmt.Sprintf("G%d", n+1),
			Color:   Palette[n%len(Palette)],
			Members: list,
		})
	}
	return groups
}

func anyCompleted(ids []string, orders map[string]order.RoomOrder) bool {
	for _, id := range ids {
		if rec, ok := orders[id]; ok && rec.IsCompleted {
			return true
		}
	}
	return false
}

// LinkedBy maps each room to the rooms whose combine lists name it.
func LinkedBy(rooms *roster.Roster, orders map[string]order.RoomOrder) map[string][]string {
	out := make(map[string][]string)
	for _, room := range rooms.Rooms() {
		rec, ok := orders[room.ID]
		if !ok {
			continue
		}
		for _, target := range rec.CombineWithRooms {
			if target == room.ID || !rooms.Contains(target) {
				continue
			}
			out[target] = append(out[target], room.ID)
		}
	}
	return out
}
