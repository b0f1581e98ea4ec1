package store

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"CoPenny/internal/domain/models"
)

func TestParseDateLayouts(t *testing.T) {
	cases := map[string]time.Time{
		"2024-03-15":           time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		"15-03-2024":           time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		"15/03/2024":           time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		"15.03.2024":           time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		"2024-03-15T10:00:00Z": time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, ok := ParseDate(in)
		if !ok {
			t.Fatalf("ParseDate(%q) failed", in)
		}
		if !got.Equal(want) {
			t.Fatalf("ParseDate(%q) = %v, want %v", in, got, want)
		}
	}

	if _, ok := ParseDate("yesterday"); ok {
		t.Fatal("expected parse failure")
	}
}

func TestResolveColumnsAliases(t *testing.T) {
	cm := ResolveColumns([]string{"ts", "monthly_expense_total", "CATEGORY", "narration"})
	if cm.Date != 0 || cm.Amount != 1 || cm.Category != 2 || cm.Merchant != 3 {
		t.Fatalf("aliases not resolved: %+v", cm)
	}
	resolved := cm.Resolved()
	if resolved["amount"] != "monthly_expense_total" || resolved["merchant"] != "narration" {
		t.Fatalf("resolved names wrong: %v", resolved)
	}

	none := ResolveColumns([]string{"foo", "bar"})
	if none.HasDate() || none.HasAmount() {
		t.Fatalf("unexpected resolution: %+v", none)
	}
	if len(none.Resolved()) != 0 {
		t.Fatalf("resolved should be empty: %v", none.Resolved())
	}
}

func TestLoadCSVCoercion(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "t.csv", `date,amount,category
2024-01-01,-100.50,Food
not-a-date,-25,Food
2024-01-02,garbage,Food
`)

	ds, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(ds.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(ds.Rows))
	}
	if ds.Rows[0].Amount != -100.50 {
		t.Fatalf("amount not parsed: %v", ds.Rows[0].Amount)
	}
	// Bad date keeps a zero time, bad amount keeps zero.
	if !ds.Rows[1].Date.IsZero() {
		t.Fatalf("bad date should stay zero: %v", ds.Rows[1].Date)
	}
	if ds.Rows[2].Amount != 0 {
		t.Fatalf("bad amount should stay zero: %v", ds.Rows[2].Amount)
	}

	// Rows with a zero date are excluded once a date filter applies.
	filtered := ds.filter(2024, 1)
	if len(filtered) != 2 {
		t.Fatalf("date filter wrong: %d rows", len(filtered))
	}
	if len(ds.filter(0, 0)) != 3 {
		t.Fatal("no filter must return every row")
	}
}

func TestLoadCSVKeepsExactAmounts(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "t.csv", `date,amount,category
2024-01-01,-123456789012345678.91,Transfer
`)

	ds, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(ds.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(ds.Rows))
	}

	want := decimal.RequireFromString("-123456789012345678.91")
	row := ds.Rows[0]
	if !row.Exact.Equal(want) {
		t.Fatalf("exact amount lost: %s", row.Exact)
	}
	// The float view cannot hold this many digits; the decimal must.
	if decimal.NewFromFloat(row.Amount).Equal(want) {
		t.Fatal("fixture must exceed float64 precision")
	}
}

func TestExactAmountFallsBackToFloat(t *testing.T) {
	tx := models.Transaction{Amount: 12.5}
	if !tx.ExactAmount().Equal(decimal.NewFromFloat(12.5)) {
		t.Fatalf("fallback wrong: %s", tx.ExactAmount())
	}
}

func TestLoadCSVMissingFile(t *testing.T) {
	if _, err := LoadCSV("/nonexistent/file.csv"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
