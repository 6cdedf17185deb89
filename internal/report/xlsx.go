package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"breakfast-order-service/internal/aggregate"
	"breakfast-order-service/internal/catalog"
)

const (
	DetailsSheet = "訂單明細 (Details)"
	KitchenSheet = "廚房統計 (Kitchen)"

	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var detailsHeader = []string{"日期", "房號", "房型", "西式早餐(7點)", "中式早餐(8點)", "7點通知", "8點通知", "備註"}

var kitchenHeader = []string{"項目", "數量", "單價", "小計"}

// XLSX renders the two-sheet workbook.
func XLSX(rep Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DetailsSheet); err != nil {
		return nil, fmt.Errorf("name details sheet: %w", err)
	}
	if _, err := f.NewSheet(KitchenSheet); err != nil {
		return nil, fmt.Errorf("create kitchen sheet: %w", err)
	}
	f.SetActiveSheet(0)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := writeDetails(f, rep, headerStyle); err != nil {
		return nil, err
	}
	if err := writeKitchen(f, rep, headerStyle); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, header []string, widths []float64, style int) error {
	for i, title := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return fmt.Errorf("set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("set header style: %w", err)
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if i < len(widths) {
			if err := f.SetColWidth(sheet, col, col, widths[i]); err != nil {
				return fmt.Errorf("set column width: %w", err)
			}
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func writeDetails(f *excelize.File, rep Report, headerStyle int) error {
	if err := writeHeader(f, DetailsSheet, detailsHeader, []float64{12, 8, 8, 50, 50, 10, 10, 30}, headerStyle); err != nil {
		return err
	}
	for i, r := range rep.Rows {
		line := i + 2
		var err error
		switch {
		case !r.Completed:
			err = writeRow(f, DetailsSheet, line, rep.DateKey, r.RoomID, r.TypeLabel, "", "", "", "", "")
		case r.Special != SpecialNone:
			err = writeRow(f, DetailsSheet, line, rep.DateKey, r.RoomID, r.TypeLabel, r.SpecialLabel(), "", "", "", r.Note)
		default:
			err = writeRow(f, DetailsSheet, line, rep.DateKey, r.RoomID, r.TypeLabel, r.WesternText(), r.ChineseText(), r.WesternCall, r.ChineseCall, r.Note)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func writeKitchen(f *excelize.File, rep Report, headerStyle int) error {
	if err := writeHeader(f, KitchenSheet, kitchenHeader, []float64{40, 12, 10, 12}, headerStyle); err != nil {
		return err
	}
	menu := rep.Menu()
	k := rep.Result.Kitchen
	bill := rep.Result.Billing

	var rows [][]any
	section := func(title string) {
		if len(rows) > 0 {
			rows = append(rows, []any{""})
		}
		rows = append(rows, []any{"--- " + title + " ---"})
	}
	items := func(category catalog.Category, kind catalog.Kind) {
		for _, item := range menu.Filter(category, kind) {
			rows = append(rows, []any{item.Code + " " + item.Name, k.Count(item.ID)})
		}
	}
	billed := func(lines []aggregate.BillingLine) {
		for _, line := range lines {
			label := line.Code + " " + line.Label
			if line.Virtual {
				label = line.Label
			}
			rows = append(rows, []any{label, line.Count, line.UnitPrice, line.Subtotal})
		}
	}

	section("西式主餐 (Western Main)")
	items(catalog.CategoryWestern, catalog.KindMain)
	rows = append(rows, []any{"附餐: 薯餅 (Hash Brown)", k.HashBrowns})
	section("西式飲料 (Western Drink)")
	items(catalog.CategoryWestern, catalog.KindDrink)
	section("中式主餐 (Chinese Main)")
	billed(bill.Mains)
	section("中式飲料 (Chinese Drink)")
	billed(bill.Drinks)
	section("特殊狀態 (Status)")
	rows = append(rows, []any{LabelNoBreakfast, k.NoBreakfast}, []any{LabelVoucher, k.Vouchers})
	rows = append(rows, []any{""}, []any{"總計 (Total)", "", "", bill.GrandTotal})

	for i, values := range rows {
		if err := writeRow(f, KitchenSheet, i+2, values...); err != nil {
			return err
		}
	}
	return nil
}
