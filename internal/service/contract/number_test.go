package contract

import (
	"testing"

	"actreco/internal/model"
)

func TestNumber_DefaultFormat(t *testing.T) {
	t.Parallel()

	got := Generator{}.Number(model.ContractContext{
		ContractPrefix: "RC",
		ComName:        "Mechanical Silk",
		Day:            "5",
		Month:          "4",
		Year:           "2025",
	})
	if got != "RC-MS-05042025" {
		t.Fatalf("got %q, want RC-MS-05042025", got)
	}
}

func TestNumber_ExplicitNumberWins(t *testing.T) {
	t.Parallel()

	got := Generator{}.Number(model.ContractContext{
		ContractPrefix: "RC",
		ComName:        "Mechanical Silk",
		ContractNumber: "  42/2025 ",
	})
	if got != "42/2025" {
		t.Fatalf("got %q", got)
	}
}

func TestNumber_BlankNumberIsGenerated(t *testing.T) {
	t.Parallel()

	got := Generator{FallbackPrefix: "AC"}.Number(model.ContractContext{
		ComName:        "«Mechanical» silk 'works'",
		Day:            "22",
		Month:          "12",
		Year:           "2025",
		ContractNumber: "   ",
	})
	if got != "AC-MSW-22122025" {
		t.Fatalf("got %q", got)
	}
}

func TestNumber_CustomFormatFirstOccurrenceOnly(t *testing.T) {
	t.Parallel()

	got := Generator{}.Number(model.ContractContext{
		ContractPrefix: "RC",
		ComName:        "Alpha Beta",
		Day:            "1",
		Month:          "2",
		Year:           "2026",
		ContractFormat: "{Year}/{CName}/{Year}",
	})
	if got != "2026/AB/{Year}" {
		t.Fatalf("got %q", got)
	}
}

func TestNumber_MissingDateParts(t *testing.T) {
	t.Parallel()

	got := Generator{}.Number(model.ContractContext{ContractPrefix: "RC", ComName: "Solo"})
	if got != "RC-S-" {
		t.Fatalf("got %q", got)
	}
}

func TestInitials_Cyrillic(t *testing.T) {
	t.Parallel()

	if got := Initials("ООО «шёлковый путь»"); got != "ОШП" {
		t.Fatalf("got %q", got)
	}
	if got := Initials(""); got != "" {
		t.Fatalf("got %q", got)
	}
}
