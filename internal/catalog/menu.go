package catalog

import "strings"

type Category string

const (
	CategoryWestern Category = "WESTERN"
	CategoryChinese Category = "CHINESE"
)

type Kind string

const (
	KindMain  Kind = "main"
	KindDrink Kind = "drink"
)

type MenuItem struct {
	ID             string   `json:"id"`
	Code           string   `json:"code"`
	Name           string   `json:"name"`
	NameEN         string   `json:"nameEn"`
	Category       Category `json:"category"`
	Kind           Kind     `json:"type"`
	HasSugarOption bool     `json:"hasSugarOption,omitempty"`
}

// ShortCode strips the brackets from the printed code: "(01)" -> "01".
func (m MenuItem) ShortCode() string {
	return strings.NewReplacer("(", "", ")", "").Replace(m.Code)
}

// SugarSplit maps a sugar-optional drink onto the virtual line that reports
// its unsweetened servings separately.
type SugarSplit struct {
	DrinkID string `json:"drinkId"`
	LineID  string `json:"lineId"`
	Label   string `json:"label"`
}

type Menu struct {
	items  []MenuItem
	byID   map[string]MenuItem
	prices map[string]int
	splits []SugarSplit

	billingMains  []string
	billingDrinks []string
}

func NewMenu(items []MenuItem, prices map[string]int, splits []SugarSplit, billingMains, billingDrinks []string) *Menu {
	m := &Menu{
		items:         make([]MenuItem, 0, len(items)),
		byID:          make(map[string]MenuItem, len(items)),
		prices:        make(map[string]int, len(prices)),
		billingMains:  append([]string(nil), billingMains...),
		billingDrinks: append([]string(nil), billingDrinks...),
	}
	for _, item := range items {
		if _, dup := m.byID[item.ID]; dup {
			continue
		}
		m.items = append(m.items, item)
		m.byID[item.ID] = item
	}
	for id, price := range prices {
		m.prices[id] = price
	}
	for _, split := range splits {
		item, ok := m.byID[split.DrinkID]
		if !ok || !item.HasSugarOption {
			continue
		}
		m.splits = append(m.splits, split)
	}
	return m
}

func (m *Menu) Items() []MenuItem {
	out := make([]MenuItem, len(m.items))
	copy(out, m.items)
	return out
}

func (m *Menu) Lookup(id string) (MenuItem, bool) {
	item, ok := m.byID[id]
	return item, ok
}

// Filter returns the items of one category and kind in catalog order.
func (m *Menu) Filter(category Category, kind Kind) []MenuItem {
	out := make([]MenuItem, 0)
	for _, item := range m.items {
		if item.Category == category && item.Kind == kind {
			out = append(out, item)
		}
	}
	return out
}

// Price returns the unit price for a catalog item or a virtual split line.
func (m *Menu) Price(id string) (int, bool) {
	price, ok := m.prices[id]
	return price, ok
}

func (m *Menu) SugarSplits() []SugarSplit {
	out := make([]SugarSplit, len(m.splits))
	copy(out, m.splits)
	return out
}

func (m *Menu) SplitFor(drinkID string) (SugarSplit, bool) {
	for _, split := range m.splits {
		if split.DrinkID == drinkID {
			return split, true
		}
	}
	return SugarSplit{}, false
}

// BillingMains lists priced main ids in printed order.
func (m *Menu) BillingMains() []string {
	return append([]string(nil), m.billingMains...)
}

// BillingDrinks lists priced drink ids in printed order. Split lines of a
// drink are emitted by the billing code, not listed here.
func (m *Menu) BillingDrinks() []string {
	return append([]string(nil), m.billingDrinks...)
}
