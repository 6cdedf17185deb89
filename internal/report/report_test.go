package report

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"breakfast-order-service/internal/catalog"
	"breakfast-order-service/internal/docstore"
	"breakfast-order-service/internal/order"
	"breakfast-order-service/internal/roster"
)

func sampleRecords() map[string]order.RoomOrder {
	return map[string]order.RoomOrder{
		"101": {
			RoomID: "101",
			OrderSets: []order.OrderSet{
				{ID: "default-0", MainID: "w1", DrinkID: "wa"},
				{ID: "default-1", MainID: "c6", DrinkID: "ce", DrinkSugar: order.SugarNone},
			},
			Call7am:          true,
			IsCompleted:      true,
			HasBreakfast:     true,
			CombineWithRooms: []string{"102"},
			Note:             "late checkout",
		},
		"102": {RoomID: "102", NoBreakfast: true, IsCompleted: true, Note: "early flight"},
		"103": {RoomID: "103", OrderSets: []order.OrderSet{{ID: "default-0", MainID: "w2"}}},
	}
}

func TestFormatSet(t *testing.T) {
	menu := catalog.Default()
	cases := []struct {
		name     string
		set      order.OrderSet
		want     string
		category catalog.Category
	}{
		{name: "main and drink", set: order.OrderSet{MainID: "w1", DrinkID: "wa"}, want: "(01+A)", category: catalog.CategoryWestern},
		{name: "main only", set: order.OrderSet{MainID: "c9"}, want: "(09)", category: catalog.CategoryChinese},
		{name: "drink only", set: order.OrderSet{DrinkID: "ch"}, want: "(H)", category: catalog.CategoryChinese},
		{name: "unsweetened split", set: order.OrderSet{MainID: "c6", DrinkID: "ce", DrinkSugar: order.SugarNone}, want: "(06+清E)", category: catalog.CategoryChinese},
		{name: "sweetened", set: order.OrderSet{MainID: "c6", DrinkID: "cg", DrinkSugar: order.SugarNormal}, want: "(06+G)", category: catalog.CategoryChinese},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, category, ok := FormatSet(menu, tc.set)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.category, category)
		})
	}

	_, _, ok := FormatSet(menu, order.OrderSet{MainID: "zz"})
	assert.False(t, ok)
}

func TestFormatSetNoSugarWithoutSplit(t *testing.T) {
	menu := catalog.NewMenu([]catalog.MenuItem{
		{ID: "d1", Code: "(X)", Category: catalog.CategoryChinese, Kind: catalog.KindDrink, HasSugarOption: true},
	}, nil, nil, nil, nil)
	got, _, ok := FormatSet(menu, order.OrderSet{DrinkID: "d1", DrinkSugar: order.SugarNone})
	require.True(t, ok)
	assert.Equal(t, "(X)(無糖)", got)
}

func TestBuild(t *testing.T) {
	rooms := roster.Default()
	rep := Build(catalog.Default(), rooms, "2026-03-11", sampleRecords(), time.Now())

	require.Len(t, rep.Rows, rooms.Len())
	completed := rep.Completed()
	require.Len(t, completed, 2, "drafts are left out of the printed table")

	first := completed[0]
	assert.Equal(t, "101", first.RoomID)
	assert.Equal(t, []string{"(01+A)"}, first.Western)
	assert.Equal(t, []string{"(06+清E)"}, first.Chinese)
	assert.Equal(t, "7C", first.WesternCall)
	assert.Equal(t, "NC", first.ChineseCall)
	assert.Equal(t, "[與 102 同放] late checkout", first.Note)

	special := completed[1]
	assert.Equal(t, SpecialNoBreakfast, special.Special)
	assert.Equal(t, LabelNoBreakfast, special.SpecialLabel())
	assert.Equal(t, "early flight", special.Note)
}

func TestXLSX(t *testing.T) {
	rep := Build(catalog.Default(), roster.Default(), "2026-03-11", sampleRecords(), time.Now())
	body, err := XLSX(rep)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DetailsSheet, KitchenSheet}, f.GetSheetList())

	rows, err := f.GetRows(DetailsSheet)
	require.NoError(t, err)
	require.Len(t, rows, roster.Default().Len()+1)
	assert.Equal(t, "房號", rows[0][1])

	var room101, room102 []string
	for _, r := range rows[1:] {
		switch r[1] {
		case "101":
			room101 = r
		case "102":
			room102 = r
		}
	}
	require.NotNil(t, room101)
	assert.Equal(t, "(01+A)", room101[3])
	assert.Equal(t, "(06+清E)", room101[4])
	assert.Equal(t, "7C", room101[5])
	assert.Equal(t, "NC", room101[6])
	require.NotNil(t, room102)
	assert.Equal(t, LabelNoBreakfast, room102[3])

	kitchen, err := f.GetRows(KitchenSheet)
	require.NoError(t, err)
	var total string
	for _, r := range kitchen {
		if len(r) >= 4 && r[0] == "總計 (Total)" {
			total = r[3]
		}
	}
	assert.Equal(t, "105", total, "c6 70 plus one unsweetened ice soy milk 35")
}

func TestPDF(t *testing.T) {
	rep := Build(catalog.Default(), roster.Default(), "2026-03-11", sampleRecords(), time.Now())
	body, err := PDF(rep, PDFOptions{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

type memoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memoryUploader) PutObject(ctx context.Context, key string, body []byte, contentType string, cacheControl string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = body
	return "https://cdn.example.test/" + key, nil
}

func TestArchive(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	defer store.Close()
	for id, rec := range sampleRecords() {
		require.NoError(t, store.MergeWriteOrder(ctx, "2026-03-11", id, rec))
	}

	disabled := NewGenerator(store, catalog.Default(), roster.Default(), nil, PDFOptions{}, nil)
	assert.ErrorIs(t, disabled.Archive(ctx, "2026-03-11"), ErrArchiveDisabled)

	uploader := &memoryUploader{}
	gen := NewGenerator(store, catalog.Default(), roster.Default(), uploader, PDFOptions{}, nil)
	out, err := gen.ArchiveReports(ctx, "2026-03-11")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.test/reports/2026-03-11/breakfast-2026-03-11.pdf", out.PDFURL)
	assert.Contains(t, uploader.objects, "reports/2026-03-11/breakfast-2026-03-11.xlsx")
}
