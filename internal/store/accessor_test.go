package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

const sampleCSV = `date,amount,category,merchant
2024-03-01,-15000,Rent,Landlord
2024-03-05,-500,Groceries,BigBasket
2024-03-09,-500,Groceries,DMart
2024-04-02,-2000,Transport,Uber
2023-12-20,-1000,Gifts,Amazon
`

func newTestAccessor(t *testing.T, csv string) *Accessor {
	t.Helper()
	dir := t.TempDir()
	shared := writeCSV(t, dir, "transactions.csv", csv)
	return NewAccessor(shared, filepath.Join(dir, "users"))
}

func TestTotalSpendFilters(t *testing.T) {
	a := newTestAccessor(t, sampleCSV)
	ctx := context.Background()

	all, err := a.TotalSpend(ctx, "", 0, 0)
	if err != nil {
		t.Fatalf("total spend: %v", err)
	}
	if all.Total != -19000 {
		t.Fatalf("total = %v, want -19000", all.Total)
	}

	march, _ := a.TotalSpend(ctx, "", 2024, 3)
	if march.Total != -16000 {
		t.Fatalf("march total = %v, want -16000", march.Total)
	}
	if march.Year != 2024 || march.Month != 3 {
		t.Fatalf("filters not echoed: %+v", march)
	}

	year2023, _ := a.TotalSpend(ctx, "", 2023, 0)
	if year2023.Total != -1000 {
		t.Fatalf("2023 total = %v, want -1000", year2023.Total)
	}
}

func TestTotalSpendNoData(t *testing.T) {
	a := NewAccessor(filepath.Join(t.TempDir(), "missing.csv"), t.TempDir())
	res, err := a.TotalSpend(context.Background(), "", 0, 0)
	if err != nil {
		t.Fatalf("total spend: %v", err)
	}
	if res.Total != 0 || res.Notes != "No data available" {
		t.Fatalf("unexpected no-data result: %+v", res)
	}
}

func TestTotalSpendMissingAmountColumn(t *testing.T) {
	a := newTestAccessor(t, "date,description\n2024-01-01,coffee\n")
	res, _ := a.TotalSpend(context.Background(), "", 0, 0)
	if res.Notes != "amount column not found" {
		t.Fatalf("unexpected notes %q", res.Notes)
	}
}

func TestMonthlySpendOrdering(t *testing.T) {
	a := newTestAccessor(t, sampleCSV)
	res, err := a.MonthlySpend(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("monthly spend: %v", err)
	}
	if len(res.Items) != 3 {
		t.Fatalf("expected 3 months, got %v", res.Items)
	}
	// Ascending by year then month.
	if res.Items[0].Year != 2023 || res.Items[0].Month != 12 {
		t.Fatalf("first item wrong: %+v", res.Items[0])
	}
	if res.Items[1].Month != 3 || res.Items[1].Spent != -16000 {
		t.Fatalf("march aggregate wrong: %+v", res.Items[1])
	}
}

func TestDailySpendGroupsByDay(t *testing.T) {
	a := newTestAccessor(t, sampleCSV)
	res, err := a.DailySpend(context.Background(), "", 2024, 3)
	if err != nil {
		t.Fatalf("daily spend: %v", err)
	}
	if len(res.Items) != 3 {
		t.Fatalf("expected 3 days, got %v", res.Items)
	}
	if res.Items[0].Date != "2024-03-01" || res.Items[0].Spent != -15000 {
		t.Fatalf("first day wrong: %+v", res.Items[0])
	}
}

func TestCategoryStatsSortedBySpend(t *testing.T) {
	a := newTestAccessor(t, sampleCSV)
	res, err := a.CategoryStats(context.Background(), "", 2024, 3)
	if err != nil {
		t.Fatalf("category stats: %v", err)
	}
	// Descending spend: groceries (-1000) before rent (-15000).
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 categories, got %v", res.Items)
	}
	if res.Items[0].Category != "Groceries" || res.Items[0].Count != 2 {
		t.Fatalf("first category wrong: %+v", res.Items[0])
	}
	if res.Items[1].Category != "Rent" || res.Items[1].Spent != -15000 {
		t.Fatalf("second category wrong: %+v", res.Items[1])
	}
}

func TestMerchantStatsTopN(t *testing.T) {
	a := newTestAccessor(t, sampleCSV)
	res, err := a.MerchantStats(context.Background(), "", 0, 0, 2)
	if err != nil {
		t.Fatalf("merchant stats: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("topN not applied: %v", res.Items)
	}
}

func TestTimeCoverage(t *testing.T) {
	a := newTestAccessor(t, sampleCSV)
	cov, err := a.TimeCoverage(context.Background(), "")
	if err != nil {
		t.Fatalf("time coverage: %v", err)
	}
	if cov.Start != "2023-12-20" || cov.End != "2024-04-02" || cov.Rows != 5 {
		t.Fatalf("unexpected coverage: %+v", cov)
	}
}

func TestUserUploadTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	shared := writeCSV(t, dir, "shared.csv", sampleCSV)

	userDir := filepath.Join(dir, "users")
	a := NewAccessor(shared, userDir)

	if err := os.MkdirAll(filepath.Join(userDir, "alice"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeCSV(t, filepath.Join(userDir, "alice"), "transactions.csv",
		"date,amount\n2025-01-01,-42\n")

	res, _ := a.TotalSpend(context.Background(), "alice", 0, 0)
	if res.Total != -42 {
		t.Fatalf("user upload not preferred: %v", res.Total)
	}

	// Other users still read the shared file.
	other, _ := a.TotalSpend(context.Background(), "bob", 0, 0)
	if other.Total != -19000 {
		t.Fatalf("shared fallback broken: %v", other.Total)
	}
}

func TestRows(t *testing.T) {
	a := newTestAccessor(t, sampleCSV)
	rows := a.Rows("")
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}

	noAmount := newTestAccessor(t, "date,description\n2024-01-01,coffee\n")
	if noAmount.Rows("") != nil {
		t.Fatal("rows without amount column must be nil")
	}
}

func TestSummary(t *testing.T) {
	a := newTestAccessor(t, sampleCSV)
	s, err := a.Summary(context.Background(), "")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.TotalSpend != -19000 {
		t.Fatalf("total wrong: %v", s.TotalSpend)
	}
	if len(s.TopCategories) != 4 {
		t.Fatalf("expected 4 categories, got %v", s.TopCategories)
	}
	if s.Coverage.Rows != 5 {
		t.Fatalf("coverage missing: %+v", s.Coverage)
	}

	empty := NewAccessor(filepath.Join(t.TempDir(), "none.csv"), t.TempDir())
	es, _ := empty.Summary(context.Background(), "")
	if es.Notes != "No data available" {
		t.Fatalf("expected no-data note, got %q", es.Notes)
	}
}

func TestNormalizeUserID(t *testing.T) {
	cases := map[string]string{
		"":               "guest",
		"alice@x.com":    "alice@x_com",
		"two words here": "two_words_here",
		"plain":          "plain",
	}
	for in, want := range cases {
		if got := NormalizeUserID(in); got != want {
			t.Fatalf("NormalizeUserID(%q) = %q, want %q", in, got, want)
		}
	}
}
