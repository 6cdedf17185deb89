package aggregate

import (
	"breakfast-order-service/internal/catalog"
	"breakfast-order-service/internal/order"
	"breakfast-order-service/internal/roster"
)

// Kitchen holds the tallies over completed records of one service date.
type Kitchen struct {
	Items       map[string]int `json:"items"`
	NoSugar     map[string]int `json:"noSugar"`
	HashBrowns  int            `json:"hashBrowns"`
	NoBreakfast int            `json:"noBreakfast"`
	Vouchers    int            `json:"vouchers"`
	Sets        int            `json:"sets"`
}

func (k Kitchen) Count(itemID string) int {
	return k.Items[itemID]
}

// Sweetened is the count of a sugar-optional drink served with sugar.
func (k Kitchen) Sweetened(drinkID string) int {
	return k.Items[drinkID] - k.NoSugar[drinkID]
}

// CountKitchen tallies the completed records of roster rooms. Special-status
// records only bump their counters. Unknown item ids are skipped.
func CountKitchen(menu *catalog.Menu, rooms *roster.Roster, orders map[string]order.RoomOrder) Kitchen {
	k := Kitchen{Items: map[string]int{}, NoSugar: map[string]int{}}

	for _, room := range rooms.Rooms() {
		rec, ok := orders[room.ID]
		if !ok || !rec.IsCompleted {
			continue
		}
		if rec.NoBreakfast {
			k.NoBreakfast++
			continue
		}
		if rec.McDonaldsVoucher {
			k.Vouchers++
			continue
		}
		for _, set := range rec.EffectiveSets() {
			counted := false
			western := false
			if main, ok := menu.Lookup(set.MainID); ok {
				k.Items[main.ID]++
				counted = true
				western = main.Category == catalog.CategoryWestern
			}
			if drink, ok := menu.Lookup(set.DrinkID); ok {
				k.Items[drink.ID]++
				counted = true
				if drink.Category == catalog.CategoryWestern {
					western = true
				}
				if drink.HasSugarOption && set.IsNoSugar() {
					k.NoSugar[drink.ID]++
				}
			}
			if western {
				k.HashBrowns++
			}
			if counted {
				k.Sets++
			}
		}
	}
	return k
}
