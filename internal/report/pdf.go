package report

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/phpdave11/gofpdf"

	"breakfast-order-service/internal/aggregate"
	"breakfast-order-service/internal/catalog"
)

const PDFContentType = "application/pdf"

// PDFOptions configures page rendering. FontPath points at a TrueType font
// with CJK glyphs; without one the sheet is printed in core Arial with the
// English item names.
type PDFOptions struct {
	FontPath string
}

const (
	pdfMargin     = 10.0
	pdfLineHeight = 5.0
	pdfFontFamily = "report"
)

var tableWidths = []float64{12, 16, 12, 12, 85, 85, 55}

type pdfWriter struct {
	pdf     *gofpdf.Fpdf
	family  string
	unicode bool
	menu    *catalog.Menu
}

func (w *pdfWriter) text(s string) string {
	if w.unicode {
		return s
	}
	s = strings.NewReplacer(unsweetenedPrefix, "*", noSugarSuffix, "(NS)", orderSeparator, ", ").Replace(s)
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return '?'
		}
		return r
	}, s)
}

func (w *pdfWriter) font(style string, size float64) {
	if w.unicode && style == "B" {
		style = ""
	}
	w.pdf.SetFont(w.family, style, size)
}

// PDF renders the A4 landscape kitchen sheet: the room table followed by
// the kitchen and billing summary.
func PDF(rep Report, opts PDFOptions) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)

	w := &pdfWriter{pdf: pdf, family: "Arial", menu: rep.Menu()}
	if path := strings.TrimSpace(opts.FontPath); path != "" {
		pdf.AddUTF8Font(pdfFontFamily, "", path)
		w.family = pdfFontFamily
		w.unicode = true
	}

	pdf.AddPage()
	w.font("B", 14)
	pdf.CellFormat(0, 8, w.text("Breakfast Orders "+rep.DateKey), "", 1, "C", false, 0, "")
	w.font("", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Completed %d / %d rooms (%.1f%%)  Generated %s",
		rep.Result.Completed, rep.Result.TotalRooms, rep.Result.Progress,
		rep.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	w.roomTable(rep.Completed())
	w.summary(rep.Result)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return out.Bytes(), nil
}

func (w *pdfWriter) tableHeader() {
	w.font("B", 9)
	w.pdf.SetFillColor(235, 235, 235)
	headers := []string{"7C", "Room", "8C", "Qty", "7am McDonald's", "8am Chinese", "Note"}
	if w.unicode {
		headers = []string{"7C", "Room", "8C", "份數", "7點麥當勞", "8點老漿家", "備註"}
	}
	for i, h := range headers {
		w.pdf.CellFormat(tableWidths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	w.pdf.Ln(-1)
	w.font("", 9)
}

func (w *pdfWriter) note(r Row) string {
	if w.unicode || len(r.CombineWith) == 0 {
		return w.text(r.Note)
	}
	prefix := "[with " + strings.Join(r.CombineWith, ", ") + "]"
	if r.Remark == "" {
		return prefix
	}
	return prefix + " " + w.text(r.Remark)
}

func (w *pdfWriter) specialLabel(r Row) string {
	if w.unicode {
		return r.SpecialLabel()
	}
	if r.Special == SpecialVoucher {
		return "MCDONALD'S VOUCHER"
	}
	return "NO BREAKFAST"
}

func check(on bool) string {
	if on {
		return "V"
	}
	return ""
}

func (w *pdfWriter) ensureSpace(h float64, redraw func()) {
	_, pageH := w.pdf.GetPageSize()
	if w.pdf.GetY()+h <= pageH-pdfMargin {
		return
	}
	w.pdf.AddPage()
	if redraw != nil {
		redraw()
	}
}

func (w *pdfWriter) roomTable(rows []Row) {
	w.tableHeader()
	for _, r := range rows {
		cells := []string{check(r.Call7am), r.RoomID, check(r.Call8am), fmt.Sprint(r.Quota), w.text(r.WesternText()), w.text(r.ChineseText()), w.note(r)}
		widths := tableWidths
		if r.Special != SpecialNone {
			cells = []string{"", r.RoomID, "", fmt.Sprint(r.Quota), w.specialLabel(r), w.note(r)}
			widths = []float64{tableWidths[0], tableWidths[1], tableWidths[2], tableWidths[3], tableWidths[4] + tableWidths[5], tableWidths[6]}
		}
		w.row(cells, widths)
	}
}

// row draws one bordered table row, growing it to the tallest wrapped cell.
func (w *pdfWriter) row(cells []string, widths []float64) {
	lines := 1
	for i, c := range cells {
		if n := len(w.pdf.SplitText(c, widths[i]-2)); n > lines {
			lines = n
		}
	}
	h := float64(lines) * pdfLineHeight
	w.ensureSpace(h, w.tableHeader)

	x, y := w.pdf.GetXY()
	for i, c := range cells {
		w.pdf.Rect(x, y, widths[i], h, "D")
		w.pdf.SetXY(x, y)
		align := "C"
		if i >= len(cells)-3 {
			align = "L"
		}
		w.pdf.MultiCell(widths[i], pdfLineHeight, c, "", align, false)
		x += widths[i]
	}
	w.pdf.SetXY(pdfMargin, y+h)
}

func (w *pdfWriter) itemLabel(id, fallback string) string {
	item, ok := w.menu.Lookup(id)
	if !ok {
		return w.text(fallback)
	}
	if w.unicode {
		return item.Code + " " + item.Name
	}
	return item.Code + " " + item.NameEN
}

func (w *pdfWriter) lineLabel(line aggregate.BillingLine) string {
	if !line.Virtual {
		return w.itemLabel(line.ID, line.Label)
	}
	if w.unicode {
		return line.Label
	}
	for _, split := range w.menu.SugarSplits() {
		if split.LineID == line.ID {
			return w.itemLabel(split.DrinkID, line.Label) + " (no sugar)"
		}
	}
	return w.text(line.Label)
}

func (w *pdfWriter) summary(res aggregate.Result) {
	k := res.Kitchen
	w.ensureSpace(60, nil)
	w.pdf.Ln(4)

	w.sectionTitle("Western (McDonald's)")
	for _, item := range w.menu.Filter(catalog.CategoryWestern, catalog.KindMain) {
		w.countLine(w.itemLabel(item.ID, item.Name), k.Count(item.ID))
	}
	w.countLine("Hash Brown", k.HashBrowns)
	for _, item := range w.menu.Filter(catalog.CategoryWestern, catalog.KindDrink) {
		w.countLine(w.itemLabel(item.ID, item.Name), k.Count(item.ID))
	}

	w.pdf.Ln(2)
	w.sectionTitle("Chinese")
	w.font("B", 9)
	for i, h := range []string{"Item", "Qty", "Price", "Subtotal"} {
		w.pdf.CellFormat([]float64{90, 20, 20, 25}[i], 6, h, "1", 0, "C", false, 0, "")
	}
	w.pdf.Ln(-1)
	w.font("", 9)
	for _, line := range append(append([]aggregate.BillingLine(nil), res.Billing.Mains...), res.Billing.Drinks...) {
		w.ensureSpace(6, nil)
		w.pdf.CellFormat(90, 6, w.lineLabel(line), "1", 0, "L", false, 0, "")
		w.pdf.CellFormat(20, 6, fmt.Sprint(line.Count), "1", 0, "C", false, 0, "")
		w.pdf.CellFormat(20, 6, fmt.Sprint(line.UnitPrice), "1", 0, "C", false, 0, "")
		w.pdf.CellFormat(25, 6, fmt.Sprint(line.Subtotal), "1", 1, "R", false, 0, "")
	}
	w.font("B", 10)
	w.pdf.CellFormat(130, 7, "Total (NT$)", "1", 0, "R", false, 0, "")
	w.pdf.CellFormat(25, 7, fmt.Sprint(res.Billing.GrandTotal), "1", 1, "R", false, 0, "")

	w.pdf.Ln(2)
	w.sectionTitle("Status")
	w.countLine("No Breakfast", k.NoBreakfast)
	w.countLine("McDonald's Voucher", k.Vouchers)
}

func (w *pdfWriter) sectionTitle(title string) {
	w.ensureSpace(12, nil)
	w.font("B", 11)
	w.pdf.CellFormat(0, 7, title, "B", 1, "L", false, 0, "")
	w.font("", 9)
}

func (w *pdfWriter) countLine(label string, count int) {
	w.ensureSpace(pdfLineHeight, nil)
	w.pdf.CellFormat(90, pdfLineHeight, label, "", 0, "L", false, 0, "")
	w.pdf.CellFormat(20, pdfLineHeight, fmt.Sprint(count), "", 1, "R", false, 0, "")
}
