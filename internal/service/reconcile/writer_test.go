package reconcile

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"actreco/internal/model"
	"actreco/internal/service/office"
)

func fixedNow(year int, month time.Month) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, 17, 15, 4, 5, 0, time.Local)
	}
}

func noCost(string) (string, bool, error) { return "", false, nil }

var pricingsSection = model.Section{
	Name:     model.PricingsSection,
	Columns:  model.ColumnMap{Date: 3, Amount: 4, Path: 5},
	StartRow: 6,
}

func TestWriteSection_LumpExpansion(t *testing.T) {
	t.Parallel()

	w := NewWriter(Options{PrepayMonths: 3, Now: fixedNow(2025, time.April), CostLookup: noCost}, nil)
	sheet := office.NewMemorySheet("Client")

	res := w.WriteSection(sheet, pricingsSection, []model.Entry{
		{Kind: model.EntryLump, Name: "ALL 1,200,000.txt", Amount: "1,200,000", Path: "/c/Pricings/ALL 1,200,000.txt"},
	})
	if res.Rows != 3 || res.Skipped || len(res.Warnings) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	wantDates := []string{"2025-05-01", "2025-06-01", "2025-07-01"}
	for i, d := range wantDates {
		row := 6 + i
		if got := sheet.Cell(row, 3); got != d {
			t.Fatalf("row %d date=%q, want %q", row, got, d)
		}
		if got := sheet.Cell(row, 4); got != "1,200,000" {
			t.Fatalf("row %d amount=%q", row, got)
		}
		if got := sheet.Cell(row, 5); got != "/c/Pricings/ALL 1,200,000.txt" {
			t.Fatalf("row %d path=%q", row, got)
		}
	}
	if sheet.Cell(9, 3) != "" {
		t.Fatalf("unexpected fourth row")
	}
}

func TestProjectMonths_DecemberRollover(t *testing.T) {
	t.Parallel()

	got := ProjectMonths(time.Date(2025, time.December, 31, 23, 0, 0, 0, time.UTC), 2)
	want := []string{"2026-01-01", "2026-02-01"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestWriteSection_EmptyPricingsUsesDefaultPrice(t *testing.T) {
	t.Parallel()

	w := NewWriter(Options{PrepayMonths: 2, DefaultPrice: "500", Now: fixedNow(2025, time.December)}, nil)
	sheet := office.NewMemorySheet("Client")

	res := w.WriteSection(sheet, pricingsSection, nil)
	if res.Rows != 2 {
		t.Fatalf("rows=%d, want 2", res.Rows)
	}
	for i, d := range []string{"2026-01-01", "2026-02-01"} {
		row := 6 + i
		if sheet.Cell(row, 3) != d || sheet.Cell(row, 4) != "500" || sheet.Cell(row, 5) != model.DefaultPricePath {
			t.Fatalf("row %d = (%q, %q, %q)", row, sheet.Cell(row, 3), sheet.Cell(row, 4), sheet.Cell(row, 5))
		}
	}
}

func TestWriteSection_PricingsDatedBeforeLump(t *testing.T) {
	t.Parallel()

	w := NewWriter(Options{PrepayMonths: 1, Now: fixedNow(2025, time.April)}, nil)
	sheet := office.NewMemorySheet("Client")

	res := w.WriteSection(sheet, pricingsSection, []model.Entry{
		{Kind: model.EntryLump, Name: "ALL 900.txt", Amount: "900", Path: "p3"},
		{Kind: model.EntryDated, Name: "2025-02-01 200.txt", Date: "2025-02-01", Amount: "200", Path: "p2"},
		{Kind: model.EntryDated, Name: "2025-01-01 100.txt", Date: "2025-01-01", Amount: "100", Path: "p1"},
	})
	if res.Rows != 3 {
		t.Fatalf("rows=%d", res.Rows)
	}
	got := []string{sheet.Cell(6, 3), sheet.Cell(7, 3), sheet.Cell(8, 3)}
	want := []string{"2025-01-01", "2025-02-01", "2025-05-01"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("dates=%v, want %v", got, want)
	}
}

func TestWriteSection_DatedWithCostAndPath(t *testing.T) {
	t.Parallel()

	costs := map[string]string{"/c/Bank-OT/2025-04-05 300": "15"}
	lookup := func(dir string) (string, bool, error) {
		v, ok := costs[dir]
		return v, ok, nil
	}
	w := NewWriter(Options{CostLookup: lookup}, nil)
	sheet := office.NewMemorySheet("Client")
	section := model.Section{Name: "Bank-OT", Columns: model.ColumnMap{Date: 4, Amount: 5, Cost: 6, Path: 7}, StartRow: 2}

	res := w.WriteSection(sheet, section, []model.Entry{
		{Kind: model.EntryDated, Name: "2025-04-20 1,000", Date: "2025-04-20", Amount: "1,000", Path: "/c/Bank-OT/2025-04-20 1,000"},
		{Kind: model.EntryDated, Name: "2025-04-05 300", Date: "2025-04-05", Amount: "300", Path: "/c/Bank-OT/2025-04-05 300"},
		{Kind: model.EntryLump, Name: "ALL 5", Amount: "5"},
	})
	if res.Rows != 2 {
		t.Fatalf("rows=%d, want 2 (lump ignored outside Pricings)", res.Rows)
	}
	if sheet.Cell(2, 4) != "2025-04-05" || sheet.Cell(2, 6) != "15" || sheet.Cell(2, 7) != "/c/Bank-OT/2025-04-05 300" {
		t.Fatalf("row 2 mismatch: %v", sheet.Snapshot())
	}
	if sheet.Cell(3, 4) != "2025-04-20" || sheet.Cell(3, 5) != "1,000" || sheet.Cell(3, 6) != "" {
		t.Fatalf("row 3 mismatch: %v", sheet.Snapshot())
	}
}

func TestWriteSection_EmptyNonPricingsSkipped(t *testing.T) {
	t.Parallel()

	w := NewWriter(Options{}, nil)
	sheet := office.NewMemorySheet("Client")

	res := w.WriteSection(sheet, model.Section{Name: "Card-IN", Columns: model.ColumnMap{Date: 1, Amount: 2}, StartRow: 1}, nil)
	if !res.Skipped || res.Rows != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if sheet.Len() != 0 {
		t.Fatalf("expected no writes, got %v", sheet.Snapshot())
	}
}

func TestWriteSection_Idempotent(t *testing.T) {
	t.Parallel()

	entries := []model.Entry{
		{Kind: model.EntryDated, Name: "2025-01-02 10", Date: "2025-01-02", Amount: "10", Path: "a"},
		{Kind: model.EntryDated, Name: "2025-01-10 20", Date: "2025-01-10", Amount: "20", Path: "b"},
	}
	section := model.Section{Name: "EHF-IN", Columns: model.ColumnMap{Date: 1, Amount: 2, Path: 3}, StartRow: 4}
	w := NewWriter(Options{ClearStale: true, CostLookup: noCost}, nil)
	sheet := office.NewMemorySheet("Client")

	w.WriteSection(sheet, section, entries)
	first := sheet.Snapshot()
	w.WriteSection(sheet, section, entries)
	if !reflect.DeepEqual(first, sheet.Snapshot()) {
		t.Fatalf("second run changed cells:\n first=%v\nsecond=%v", first, sheet.Snapshot())
	}
}

func TestWriteSection_ClearStaleRows(t *testing.T) {
	t.Parallel()

	section := model.Section{Name: "Card-OT", Columns: model.ColumnMap{Date: 1, Amount: 2}, StartRow: 1}
	w := NewWriter(Options{ClearStale: true}, nil)
	sheet := office.NewMemorySheet("Client")
	for r := 1; r <= 3; r++ {
		_ = sheet.SetCell(r, 1, "old")
		_ = sheet.SetCell(r, 2, "old")
	}
	_ = sheet.SetCell(5, 1, "total")

	w.WriteSection(sheet, section, []model.Entry{
		{Kind: model.EntryDated, Name: "2025-01-01 1", Date: "2025-01-01", Amount: "1"},
	})
	if sheet.Cell(1, 1) != "2025-01-01" || sheet.Cell(2, 1) != "" || sheet.Cell(3, 2) != "" {
		t.Fatalf("stale rows not cleared: %v", sheet.Snapshot())
	}
	if sheet.Cell(5, 1) != "total" {
		t.Fatalf("cell below the data block must be kept")
	}
}

func TestWriteSection_EmptyRerunClearsPreviousRows(t *testing.T) {
	t.Parallel()

	section := model.Section{Name: "Bank-OT", Columns: model.ColumnMap{Date: 1, Amount: 2, Path: 3}, StartRow: 6}
	w := NewWriter(Options{ClearStale: true, CostLookup: noCost}, nil)
	sheet := office.NewMemorySheet("Client")

	first := w.WriteSection(sheet, section, []model.Entry{
		{Kind: model.EntryDated, Name: "2025-01-02 10", Date: "2025-01-02", Amount: "10", Path: "a"},
	})
	if first.Rows != 1 {
		t.Fatalf("first run: %+v", first)
	}

	second := w.WriteSection(sheet, section, nil)
	if !second.Skipped || second.Rows != 0 {
		t.Fatalf("second run: %+v", second)
	}
	if sheet.Len() != 0 {
		t.Fatalf("rows from the previous run left behind: %v", sheet.Snapshot())
	}
}

func TestWriteSection_CellFailureIsWarning(t *testing.T) {
	t.Parallel()

	w := NewWriter(Options{}, nil)
	sheet := office.NewMemorySheet("Client")
	sheet.FailCells = map[[2]int]bool{{1, 2}: true}
	section := model.Section{Name: "Bank-IN", Columns: model.ColumnMap{Date: 1, Amount: 2}, StartRow: 1}

	res := w.WriteSection(sheet, section, []model.Entry{
		{Kind: model.EntryDated, Name: "2025-01-01 1", Date: "2025-01-01", Amount: "1"},
		{Kind: model.EntryDated, Name: "2025-01-02 2", Date: "2025-01-02", Amount: "2"},
	})
	if len(res.Warnings) != 1 {
		t.Fatalf("warnings=%v", res.Warnings)
	}
	var we *model.WriteError
	if !errors.As(res.Warnings[0], &we) {
		t.Fatalf("expected WriteError, got %T", res.Warnings[0])
	}
	if sheet.Cell(2, 2) != "2" {
		t.Fatalf("run must continue after a failed cell")
	}
}
