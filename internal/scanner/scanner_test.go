package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
	"time"

	"actreco/internal/model"
)

func mkdirs(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if err := os.MkdirAll(p, 0755); err != nil {
			t.Fatalf("mkdir %s: %v", p, err)
		}
	}
}

func touch(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("mkdir %s: %v", p, err)
		}
		if err := os.WriteFile(p, nil, 0644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
}

func TestScanSection_Folders(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := filepath.Join(root, "Bank-OT")
	mkdirs(t,
		filepath.Join(dir, "2025-04-22 1,500,000"),
		filepath.Join(dir, "2025-03-01 200 аванс"),
		filepath.Join(dir, "misc"),
	)
	touch(t, filepath.Join(dir, "2025-05-01 999.txt"), filepath.Join(dir, "notes.txt"))

	entries, err := ScanSection(root, model.Section{Name: "Bank-OT"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries=%d, want 2: %+v", len(entries), entries)
	}
	got := []string{entries[0].Name, entries[1].Name}
	sort.Strings(got)
	want := []string{"2025-03-01 200 аванс", "2025-04-22 1,500,000"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for _, e := range entries {
		if filepath.Dir(e.Path) != dir {
			t.Fatalf("unexpected path %q", e.Path)
		}
	}
}

func TestScanSection_PricingsTxtOnly(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := filepath.Join(root, model.PricingsSection)
	touch(t,
		filepath.Join(dir, "ALL 1,200,000.txt"),
		filepath.Join(dir, "2025-01-01 500.txt"),
		filepath.Join(dir, "2025-01-02 600.doc"),
		filepath.Join(dir, "notes.txt"),
	)
	mkdirs(t, filepath.Join(dir, "2025-02-01 700.txt"))

	entries, err := ScanSection(root, model.Section{Name: model.PricingsSection})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries=%d, want 2: %+v", len(entries), entries)
	}
	kinds := map[model.EntryKind]int{}
	for _, e := range entries {
		kinds[e.Kind]++
	}
	if kinds[model.EntryLump] != 1 || kinds[model.EntryDated] != 1 {
		t.Fatalf("unexpected kinds: %v", kinds)
	}
}

func TestScanSection_MissingFolder(t *testing.T) {
	t.Parallel()

	_, err := ScanSection(t.TempDir(), model.Section{Name: "Card-IN"})
	var nf *model.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Kind != "folder" {
		t.Fatalf("kind=%q", nf.Kind)
	}
}

func TestFindCost(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, filepath.Join(dir, "invoice.pdf"), filepath.Join(dir, "#Cost 12,500.txt"))

	got, ok, err := FindCost(dir)
	if err != nil || !ok || got != "12,500" {
		t.Fatalf("got (%q, %v, %v)", got, ok, err)
	}

	empty := t.TempDir()
	if _, ok, err := FindCost(empty); ok || err != nil {
		t.Fatalf("expected no cost, got ok=%v err=%v", ok, err)
	}
}

func TestFindContractFiles_SkipsIgnored(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	touch(t,
		filepath.Join(root, "Client A", ContractFileName),
		filepath.Join(root, "Group", "Client B", ContractFileName),
		filepath.Join(root, "@ Weak", "Client C", ContractFileName),
		filepath.Join(root, "ALL", ContractFileName),
		filepath.Join(root, "Client D", "other.contract"),
	)

	res, err := FindContractFiles(root, DefaultIgnoredFolders)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	sort.Strings(res.Files)
	want := []string{
		filepath.Join(root, "Client A", ContractFileName),
		filepath.Join(root, "Group", "Client B", ContractFileName),
	}
	if !reflect.DeepEqual(res.Files, want) {
		t.Fatalf("files=%v, want %v", res.Files, want)
	}
	if len(res.Ignored) != 2 {
		t.Fatalf("ignored=%v", res.Ignored)
	}
}

func TestLatestXLSX(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	older := filepath.Join(dir, "2025-01-01.xlsx")
	newer := filepath.Join(dir, "2025-01-01_v1.XLSX")
	touch(t, older, newer, filepath.Join(dir, "notes.txt"))

	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	got, ok, err := LatestXLSX(dir)
	if err != nil || !ok {
		t.Fatalf("latest: ok=%v err=%v", ok, err)
	}
	if got != newer {
		t.Fatalf("got %q, want %q", got, newer)
	}
}

func TestFindActRecoFolder_CaseInsensitive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mkdirs(t, filepath.Join(dir, "ACTRECO"))

	got, ok := FindActRecoFolder(dir)
	if !ok || got != filepath.Join(dir, "ACTRECO") {
		t.Fatalf("got (%q, %v)", got, ok)
	}
}

func TestClientFolders(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	mkdirs(t,
		filepath.Join(base, "Client 10"),
		filepath.Join(base, "Client 9"),
		filepath.Join(base, "ALL"),
	)
	touch(t, filepath.Join(base, "readme.txt"))

	got, err := ClientFolders(base)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"Client 9", "Client 10"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
