package availability

import (
	"sort"

	"breakfast-order-service/internal/catalog"
)

// Settings are the process-wide outage flags. They are not scoped to a
// service date.
type Settings struct {
	IsMcDonaldsClosed bool     `json:"isMcDonaldsClosed"`
	IsChineseClosed   bool     `json:"isChineseClosed"`
	UnavailableItems  []string `json:"unavailableItems"`
}

func (s Settings) CategoryClosed(category catalog.Category) bool {
	switch category {
	case catalog.CategoryWestern:
		return s.IsMcDonaldsClosed
	case catalog.CategoryChinese:
		return s.IsChineseClosed
	}
	return false
}

func (s Settings) IsUnavailable(itemID string) bool {
	for _, id := range s.UnavailableItems {
		if id == itemID {
			return true
		}
	}
	return false
}

// IsItemSelectable reports whether a new selection of item may be made.
func (s Settings) IsItemSelectable(item catalog.MenuItem) bool {
	if s.CategoryClosed(item.Category) {
		return false
	}
	return !s.IsUnavailable(item.ID)
}

// HasOutage is true when any flag is raised; the dashboard highlights it.
func (s Settings) HasOutage() bool {
	return s.IsMcDonaldsClosed || s.IsChineseClosed || len(s.UnavailableItems) > 0
}

// ToggleItem flips one item's out-of-stock flag.
func (s Settings) ToggleItem(itemID string) Settings {
	out := s.Normalize()
	if out.IsUnavailable(itemID) {
		kept := make([]string, 0, len(out.UnavailableItems))
		for _, id := range out.UnavailableItems {
			if id != itemID {
				kept = append(kept, id)
			}
		}
		out.UnavailableItems = kept
		return out
	}
	out.UnavailableItems = append(out.UnavailableItems, itemID)
	sort.Strings(out.UnavailableItems)
	return out
}

// Normalize drops blanks and duplicates and sorts the item list.
func (s Settings) Normalize() Settings {
	seen := make(map[string]struct{}, len(s.UnavailableItems))
	items := make([]string, 0, len(s.UnavailableItems))
	for _, id := range s.UnavailableItems {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		items = append(items, id)
	}
	sort.Strings(items)
	s.UnavailableItems = items
	return s
}

// SelectableItems returns every catalog item a new selection may use.
func SelectableItems(menu *catalog.Menu, s Settings) []catalog.MenuItem {
	out := make([]catalog.MenuItem, 0)
	for _, item := range menu.Items() {
		if s.IsItemSelectable(item) {
			out = append(out, item)
		}
	}
	return out
}
