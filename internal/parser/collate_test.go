package parser

import (
	"reflect"
	"testing"

	"actreco/internal/model"
)

func TestSortNames_NumericAware(t *testing.T) {
	t.Parallel()

	names := []string{
		"2024-1-20 50.txt",
		"2024-1-100 7.txt",
		"2024-1-5 200.txt",
	}
	SortNames(names)

	want := []string{
		"2024-1-5 200.txt",
		"2024-1-20 50.txt",
		"2024-1-100 7.txt",
	}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("got %v, want %v", names, want)
	}
}

func TestSortEntries_ByName(t *testing.T) {
	t.Parallel()

	entries := []model.Entry{
		{Name: "2025-03-01 10"},
		{Name: "2025-01-15 20"},
		{Name: "2025-02-01 30"},
	}
	SortEntries(entries)

	got := []string{entries[0].Name, entries[1].Name, entries[2].Name}
	want := []string{"2025-01-15 20", "2025-02-01 30", "2025-03-01 10"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
