package order

import (
	"strings"

	"breakfast-order-service/internal/catalog"
)

type Sugar string

const (
	SugarNormal Sugar = "Normal"
	SugarNone   Sugar = "No Sugar"
)

// noneSelection is what terminals send for an explicit "no need" choice.
const noneSelection = "none"

type OrderSet struct {
	ID         string `json:"id"`
	MainID     string `json:"mainId"`
	DrinkID    string `json:"drinkId"`
	DrinkSugar Sugar  `json:"drinkSugar,omitempty"`
	IsAddOn    bool   `json:"isAddOn"`
}

func (s OrderSet) IsEmpty() bool {
	return s.MainID == "" && s.DrinkID == ""
}

func (s OrderSet) IsNoSugar() bool {
	return s.DrinkSugar == SugarNone
}

// Categories returns the categories of the set's known items.
func (s OrderSet) Categories(menu *catalog.Menu) []catalog.Category {
	out := make([]catalog.Category, 0, 2)
	for _, id := range []string{s.MainID, s.DrinkID} {
		if id == "" {
			continue
		}
		item, ok := menu.Lookup(id)
		if !ok {
			continue
		}
		if len(out) == 1 && out[0] == item.Category {
			continue
		}
		out = append(out, item.Category)
	}
	return out
}

func (s OrderSet) HasCategory(menu *catalog.Menu, category catalog.Category) bool {
	for _, c := range s.Categories(menu) {
		if c == category {
			return true
		}
	}
	return false
}

// WithItem assigns item to the main or drink slot by kind. When the other
// slot holds an item of a different category that slot is cleared, so a set
// never mixes WESTERN and CHINESE.
func (s OrderSet) WithItem(menu *catalog.Menu, item catalog.MenuItem, sugar Sugar) OrderSet {
	switch item.Kind {
	case catalog.KindMain:
		s.MainID = item.ID
		if drink, ok := menu.Lookup(s.DrinkID); ok && drink.Category != item.Category {
			s.DrinkID = ""
			s.DrinkSugar = ""
		}
	case catalog.KindDrink:
		s.DrinkID = item.ID
		s.DrinkSugar = ""
		if item.HasSugarOption {
			s.DrinkSugar = sugar
		}
		if main, ok := menu.Lookup(s.MainID); ok && main.Category != item.Category {
			s.MainID = ""
		}
	}
	return s
}

type RoomOrder struct {
	RoomID           string     `json:"roomId"`
	OrderSets        []OrderSet `json:"orderSets"`
	Call7am          bool       `json:"call7am"`
	Call8am          bool       `json:"call8am"`
	IsCompleted      bool       `json:"isCompleted"`
	Note             string     `json:"note,omitempty"`
	CombineWithRooms []string   `json:"combineWithRooms,omitempty"`
	NoBreakfast      bool       `json:"noBreakfast,omitempty"`
	McDonaldsVoucher bool       `json:"mcdonaldsVoucher,omitempty"`
	HasBreakfast     bool       `json:"hasBreakfast"`
	StaffName        string     `json:"staffName,omitempty"`
}

func (o RoomOrder) Clone() RoomOrder {
	out := o
	if o.OrderSets != nil {
		out.OrderSets = append([]OrderSet(nil), o.OrderSets...)
	}
	if o.CombineWithRooms != nil {
		out.CombineWithRooms = append([]string(nil), o.CombineWithRooms...)
	}
	return out
}

// IsSpecial is true for no-breakfast and voucher records.
func (o RoomOrder) IsSpecial() bool {
	return o.NoBreakfast || o.McDonaldsVoucher
}

// EffectiveSets is the view every derived computation uses: a special-status
// record has no sets, whatever is stored.
func (o RoomOrder) EffectiveSets() []OrderSet {
	if o.IsSpecial() {
		return nil
	}
	return o.OrderSets
}

func (o RoomOrder) HasCategory(menu *catalog.Menu, category catalog.Category) bool {
	for _, set := range o.EffectiveSets() {
		if set.HasCategory(menu, category) {
			return true
		}
	}
	return false
}

func (o RoomOrder) HasNote() bool {
	return strings.TrimSpace(o.Note) != ""
}

// HasContent is true when the record carries anything a guest or staff
// member entered, as opposed to a bare breakfast authorization.
func (o RoomOrder) HasContent() bool {
	return len(o.OrderSets) > 0 || o.HasNote()
}

func (o RoomOrder) FindSet(id string) (int, bool) {
	for i, set := range o.OrderSets {
		if set.ID == id {
			return i, true
		}
	}
	return -1, false
}

// normalize applies the save-time invariants: call flags need their category.
func (o RoomOrder) normalize(menu *catalog.Menu) RoomOrder {
	out := o.Clone()
	if out.NoBreakfast && out.McDonaldsVoucher {
		out.McDonaldsVoucher = false
	}
	if !out.HasCategory(menu, catalog.CategoryWestern) {
		out.Call7am = false
	}
	if !out.HasCategory(menu, catalog.CategoryChinese) {
		out.Call8am = false
	}
	if len(out.CombineWithRooms) == 0 {
		out.CombineWithRooms = nil
	}
	if out.OrderSets == nil {
		out.OrderSets = []OrderSet{}
	}
	return out
}

type Role string

const (
	RoleStaff Role = "STAFF"
	RoleGuest Role = "GUEST"
)

type Actor struct {
	Role Role
	Name string
}

func (a Actor) IsStaff() bool {
	return a.Role == RoleStaff
}

func Staff(name string) Actor {
	return Actor{Role: RoleStaff, Name: name}
}

func Guest() Actor {
	return Actor{Role: RoleGuest}
}
