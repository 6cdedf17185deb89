// Package report renders one service date as the printable kitchen sheet and
// the spreadsheet export.
package report

import (
	"strings"
	"time"

	"breakfast-order-service/internal/aggregate"
	"breakfast-order-service/internal/catalog"
	"breakfast-order-service/internal/order"
	"breakfast-order-service/internal/roster"
)

type Special string

const (
	SpecialNone        Special = ""
	SpecialNoBreakfast Special = "NO_BREAKFAST"
	SpecialVoucher     Special = "VOUCHER"
)

const (
	LabelNoBreakfast = "不需要早餐 (No Breakfast)"
	LabelVoucher     = "麥當勞餐券 (Voucher)"

	unsweetenedPrefix = "清"
	noSugarSuffix     = "(無糖)"
	orderSeparator    = "、"
)

// Row is one room line of the report.
type Row struct {
	RoomID    string
	TypeLabel string
	Quota     int
	Completed bool
	Special   Special

	Call7am     bool
	Call8am     bool
	WesternCall string
	ChineseCall string

	Western     []string
	Chinese     []string
	CombineWith []string
	Remark      string
	Note        string
}

func (r Row) WesternText() string { return strings.Join(r.Western, orderSeparator) }

func (r Row) ChineseText() string { return strings.Join(r.Chinese, orderSeparator) }

// SpecialLabel is the text printed across the order columns of a special row.
func (r Row) SpecialLabel() string {
	switch r.Special {
	case SpecialNoBreakfast:
		return LabelNoBreakfast
	case SpecialVoucher:
		return LabelVoucher
	}
	return ""
}

type Report struct {
	DateKey     string
	GeneratedAt time.Time
	Rows        []Row
	Result      aggregate.Result

	menu *catalog.Menu
}

// Completed returns the rows of completed rooms in roster order.
func (r Report) Completed() []Row {
	out := make([]Row, 0, r.Result.Completed)
	for _, row := range r.Rows {
		if row.Completed {
			out = append(out, row)
		}
	}
	return out
}

func (r Report) Menu() *catalog.Menu { return r.menu }

// Build lays out every roster room; rooms without a completed record get a
// blank row.
func Build(menu *catalog.Menu, rooms *roster.Roster, dateKey string, records map[string]order.RoomOrder, generatedAt time.Time) Report {
	rep := Report{
		DateKey:     dateKey,
		GeneratedAt: generatedAt,
		Result:      aggregate.Compute(menu, rooms, records),
		menu:        menu,
	}
	for _, room := range rooms.Rooms() {
		row := Row{RoomID: room.ID, TypeLabel: room.Type.Label(), Quota: room.DefaultQuota}
		if rec, ok := records[room.ID]; ok && rec.IsCompleted {
			fillRow(menu, &row, rec)
		}
		rep.Rows = append(rep.Rows, row)
	}
	return rep
}

func fillRow(menu *catalog.Menu, row *Row, rec order.RoomOrder) {
	row.Completed = true
	row.Remark = strings.TrimSpace(rec.Note)
	switch {
	case rec.NoBreakfast:
		row.Special = SpecialNoBreakfast
		row.Note = row.Remark
		return
	case rec.McDonaldsVoucher:
		row.Special = SpecialVoucher
		row.Note = row.Remark
		return
	}
	row.CombineWith = append([]string(nil), rec.CombineWithRooms...)
	row.Note = CombinedNote(rec)

	for _, set := range rec.OrderSets {
		text, category, ok := FormatSet(menu, set)
		if !ok {
			continue
		}
		switch category {
		case catalog.CategoryWestern:
			row.Western = append(row.Western, text)
		case catalog.CategoryChinese:
			row.Chinese = append(row.Chinese, text)
		}
	}
	row.Call7am = rec.Call7am && len(row.Western) > 0
	row.Call8am = rec.Call8am && len(row.Chinese) > 0
	row.WesternCall = callText(len(row.Western) > 0, rec.Call7am, aggregate.CallWestern)
	row.ChineseCall = callText(len(row.Chinese) > 0, rec.Call8am, aggregate.CallChinese)
}

func callText(present, call bool, label string) string {
	if !present {
		return ""
	}
	if call {
		return label
	}
	return aggregate.CallNone
}

// FormatSet renders a set as "(01+A)". An unsweetened drink with a sugar
// split is prefixed "清"; any other no-sugar drink gets a "(無糖)" suffix.
func FormatSet(menu *catalog.Menu, set order.OrderSet) (string, catalog.Category, bool) {
	main, hasMain := menu.Lookup(set.MainID)
	drink, hasDrink := menu.Lookup(set.DrinkID)
	if !hasMain && !hasDrink {
		return "", "", false
	}

	var mainCode, drinkCode, suffix string
	if hasMain {
		mainCode = main.ShortCode()
	}
	if hasDrink {
		drinkCode = drink.ShortCode()
		if set.IsNoSugar() {
			if _, split := menu.SplitFor(drink.ID); split {
				drinkCode = unsweetenedPrefix + drinkCode
			} else {
				suffix = noSugarSuffix
			}
		}
	}

	var text string
	switch {
	case hasMain && hasDrink:
		text = "(" + mainCode + "+" + drinkCode + ")"
	case hasMain:
		text = "(" + mainCode + ")"
	default:
		text = "(" + drinkCode + ")"
	}

	category := drink.Category
	if hasMain {
		category = main.Category
	}
	return text + suffix, category, true
}

// CombinedNote prefixes the note with the rooms whose trays go together.
func CombinedNote(rec order.RoomOrder) string {
	note := strings.TrimSpace(rec.Note)
	if len(rec.CombineWithRooms) == 0 {
		return note
	}
	prefix := "[與 " + strings.Join(rec.CombineWithRooms, ", ") + " 同放]"
	if note == "" {
		return prefix
	}
	return prefix + " " + note
}

// ObjectKey is where an archived report for dateKey is stored.
func ObjectKey(dateKey, ext string) string {
	return "reports/" + dateKey + "/breakfast-" + dateKey + "." + ext
}

// ArchivePrefix is the object store prefix holding the archived reports of dateKey.
func ArchivePrefix(dateKey string) string {
	return "reports/" + dateKey + "/"
}
