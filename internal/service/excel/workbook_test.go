package excel

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"actreco/internal/model"
)

func writeFixture(t *testing.T, build func(f *excelize.File)) string {
	t.Helper()
	f := NewTemplateWorkbook()
	if build != nil {
		build(f)
	}
	path := filepath.Join(t.TempDir(), "template.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	_ = f.Close()
	return path
}

func TestOpenMissingFile(t *testing.T) {
	t.Parallel()
	_, err := Open(filepath.Join(t.TempDir(), "nope.xlsx"))
	var nf *model.NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "file" {
		t.Fatalf("expected file NotFoundError, got %v", err)
	}
}

func TestSheetNotFound(t *testing.T) {
	t.Parallel()
	wb, err := Open(writeFixture(t, nil))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer wb.Close()

	if _, err := wb.Sheet("Missing"); !errors.Is(err, model.ErrSheetNotFound) {
		t.Fatalf("expected ErrSheetNotFound, got %v", err)
	}
}

func TestSetClearAndRead(t *testing.T) {
	t.Parallel()
	wb, err := Open(writeFixture(t, func(f *excelize.File) {
		_ = f.SetCellFormula(TemplateSheet, "D1", "SUM(C1:C2)")
	}))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer wb.Close()

	sheet, err := wb.Sheet(TemplateSheet)
	if err != nil {
		t.Fatalf("sheet: %v", err)
	}
	if err := sheet.SetCell(6, 3, "2025-04-01"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := sheet.CellValue(6, 3)
	if err != nil || got != "2025-04-01" {
		t.Fatalf("C6 = %q, %v", got, err)
	}
	if err := sheet.ClearCell(6, 3); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got, _ := sheet.CellValue(6, 3); got != "" {
		t.Fatalf("expected cleared cell, got %q", got)
	}
	if err := sheet.ClearCell(1, 4); err != nil {
		t.Fatalf("clear formula: %v", err)
	}
	if formula, _ := wb.File().GetCellFormula(TemplateSheet, "D1"); formula == "" {
		t.Fatalf("formula cell must be left intact")
	}
}

func TestReplaceAllSkipsFormulas(t *testing.T) {
	t.Parallel()
	wb, err := Open(writeFixture(t, func(f *excelize.File) {
		_ = f.SetCellValue(TemplateSheet, "A1", "Client: {ComName}")
		_ = f.SetCellValue(TemplateSheet, "B3", "{ComName} / {ComName}")
		_ = f.SetCellValue(TemplateSheet, "C4", "{Phone}")
	}))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer wb.Close()

	sheet, _ := wb.Sheet(TemplateSheet)
	text, err := sheet.Text()
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	if !strings.Contains(text, "{ComName}") || !strings.Contains(text, "{Phone}") {
		t.Fatalf("text missing tokens: %q", text)
	}

	n, err := sheet.ReplaceAll("{ComName}", "Acme")
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 replacements, got %d", n)
	}
	if got, _ := sheet.CellValue(3, 2); got != "Acme / Acme" {
		t.Fatalf("B3 = %q", got)
	}
	if got, _ := sheet.CellValue(4, 3); got != "{Phone}" {
		t.Fatalf("C4 should be untouched, got %q", got)
	}
}

func TestSaveAsAndRecalculate(t *testing.T) {
	t.Parallel()
	wb, err := Open(writeFixture(t, nil))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sheet, _ := wb.Sheet(TemplateSheet)
	_ = sheet.SetCell(1, 1, "x")
	_ = wb.File().SetCellValue(TemplateSheet, "B1", 2)
	_ = wb.File().SetCellValue(TemplateSheet, "B2", 3)
	_ = wb.File().SetCellFormula(TemplateSheet, "B3", "SUM(B1:B2)")
	if err := wb.Recalculate(); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	out := filepath.Join(t.TempDir(), "nested", "out.xlsx")
	if err := wb.SaveAs(out); err != nil {
		t.Fatalf("save as: %v", err)
	}
	if err := wb.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := wb.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()
	if v, _ := f.GetCellValue(TemplateSheet, "A1"); v != "x" {
		t.Fatalf("A1 = %q", v)
	}
	if formula, _ := f.GetCellFormula(TemplateSheet, "B3"); formula != "SUM(B1:B2)" {
		t.Fatalf("B3 formula = %q", formula)
	}
	if v, _ := f.CalcCellValue(TemplateSheet, "B3"); v != "5" {
		t.Fatalf("B3 = %q, want 5", v)
	}
}

func TestIsolateSheet(t *testing.T) {
	t.Parallel()
	wb, err := Open(writeFixture(t, func(f *excelize.File) {
		_, _ = f.NewSheet("Other")
	}))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer wb.Close()

	name, err := wb.IsolateSheet(TemplateSheet, "Acme: North/East")
	if err != nil {
		t.Fatalf("isolate: %v", err)
	}
	if name != "Acme_ North_East" {
		t.Fatalf("sheet name = %q", name)
	}
	list := wb.File().GetSheetList()
	if len(list) != 1 || list[0] != name {
		t.Fatalf("sheets = %v", list)
	}
	if v, _ := wb.File().GetCellValue(name, HeaderCell); v != "Data for Acme: North/East" {
		t.Fatalf("header = %q", v)
	}
}

func TestDuplicatePerClient(t *testing.T) {
	t.Parallel()
	wb, err := Open(writeFixture(t, func(f *excelize.File) {
		_ = f.SetCellValue(TemplateSheet, "C5", "Date")
	}))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer wb.Close()

	created, err := wb.DuplicatePerClient(TemplateSheet, []string{"Alpha", "Beta", "alpha"})
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if len(created) != 3 || created[0] != "Alpha" || created[2] != "alpha (1)" {
		t.Fatalf("created = %v", created)
	}
	f := wb.File()
	if v, _ := f.GetCellValue("Beta", "C5"); v != "Date" {
		t.Fatalf("copied cell = %q", v)
	}
	if v, _ := f.GetCellValue("Beta", HeaderCell); v != "Data for Beta" {
		t.Fatalf("header = %q", v)
	}
	for i, want := range []string{"Alpha", "Beta", "alpha"} {
		cell, _ := excelize.CoordinatesToCellName(1, IndexStartRow+i)
		if v, _ := f.GetCellValue(IndexSheet, cell); v != want {
			t.Fatalf("%s = %q, want %q", cell, v, want)
		}
	}
}

func TestSanitizeSheetName(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("я", 40)
	if got := SanitizeSheetName(long); len([]rune(got)) != 31 {
		t.Fatalf("expected 31 runes, got %d", len([]rune(got)))
	}
	if got := SanitizeSheetName("[a]*?"); got != "_a___" {
		t.Fatalf("got %q", got)
	}
	if got := SanitizeSheetName("  "); got != "Sheet" {
		t.Fatalf("got %q", got)
	}
}
