package usecase

import (
	"context"
	"errors"
	"testing"

	"CoPenny/internal/domain/models"
)

func historicalFixture() *fakeTxStore {
	return &fakeTxStore{
		totals: map[[2]int]*models.TotalSpendResult{
			{2023, 0}: {Year: 2023, Total: -12000},
			{2024, 0}: {Year: 2024, Total: -18000},
			{2025, 0}: {Year: 2025, Total: -6000},
			{2024, 3}: {Year: 2024, Month: 3, Total: -16000},
		},
		monthly: []models.MonthlySpend{
			{Year: 2023, Month: 12, Spent: -12000},
			{Year: 2024, Month: 3, Spent: -16000},
			{Year: 2024, Month: 4, Spent: -2000},
			{Year: 2025, Month: 1, Spent: -6000},
		},
	}
}

func TestAvailableYears(t *testing.T) {
	h := NewHistorical(historicalFixture(), &scriptedCompleter{replies: []string{""}}, nil)
	years, err := h.AvailableYears(context.Background(), "u")
	if err != nil {
		t.Fatalf("available years: %v", err)
	}
	want := []int{2023, 2024, 2025}
	if len(years) != len(want) {
		t.Fatalf("years %v, want %v", years, want)
	}
	for i := range want {
		if years[i] != want[i] {
			t.Fatalf("years %v, want %v", years, want)
		}
	}
}

func TestAnalyzeYearRangeSwapsBounds(t *testing.T) {
	h := NewHistorical(historicalFixture(), &scriptedCompleter{replies: []string{"spend went up"}}, nil)
	res, err := h.Analyze(context.Background(), "u", "compare 2025 with 2023")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Period != "2023 to 2025" {
		t.Fatalf("range bounds not swapped: %q", res.Period)
	}
	if len(res.YearTotals) != 3 {
		t.Fatalf("expected 3 year totals, got %v", res.YearTotals)
	}
	if res.Total != -36000 {
		t.Fatalf("range total = %v, want -36000", res.Total)
	}
	if res.Summary != "spend went up" {
		t.Fatalf("summary not narrated: %q", res.Summary)
	}
}

func TestAnalyzeYearWithMonth(t *testing.T) {
	h := NewHistorical(historicalFixture(), &scriptedCompleter{replies: []string{"a march to remember"}}, nil)
	res, err := h.Analyze(context.Background(), "u", "how was march 2024")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Period != "March 2024" {
		t.Fatalf("unexpected period %q", res.Period)
	}
	if res.Total != -16000 {
		t.Fatalf("total = %v, want -16000", res.Total)
	}
	if res.Query != "how was march 2024" {
		t.Fatalf("query not echoed: %q", res.Query)
	}
	// A month-scoped query carries no monthly breakdown.
	if res.Monthly != nil {
		t.Fatalf("monthly breakdown unexpected: %v", res.Monthly)
	}
}

func TestAnalyzeSingleYear(t *testing.T) {
	h := NewHistorical(historicalFixture(), &scriptedCompleter{replies: []string{"steady year"}}, nil)
	res, err := h.Analyze(context.Background(), "u", "what about 2024")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Period != "year 2024" || res.Total != -18000 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.Monthly) == 0 {
		t.Fatal("year query should include monthly breakdown")
	}
}

func TestAnalyzeNoYearListsAvailable(t *testing.T) {
	h := NewHistorical(historicalFixture(), &scriptedCompleter{replies: []string{""}}, nil)
	res, err := h.Analyze(context.Background(), "u", "how was last year")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Notes == "" || res.Total != 0 {
		t.Fatalf("expected guidance notes, got %+v", res)
	}
}

func TestAnalyzeMissingDataPropagatesNote(t *testing.T) {
	h := NewHistorical(&fakeTxStore{}, &scriptedCompleter{replies: []string{""}}, nil)
	res, err := h.Analyze(context.Background(), "u", "spending in 2019")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Notes != "No data available" {
		t.Fatalf("unexpected notes %q", res.Notes)
	}
}

func TestNarrateDegradesToEmpty(t *testing.T) {
	h := NewHistorical(historicalFixture(), &scriptedCompleter{err: errors.New("llm down")}, nil)
	res, err := h.AnalyzeYear(context.Background(), "u", 2024)
	if err != nil {
		t.Fatalf("analyze year: %v", err)
	}
	if res.Summary != "" {
		t.Fatalf("summary should be empty on llm failure, got %q", res.Summary)
	}
	if res.Total != -18000 {
		t.Fatalf("aggregates must survive llm failure: %+v", res)
	}
}

func TestParseYears(t *testing.T) {
	if got := parseYears("2023 versus 2024 versus 2025"); len(got) != 2 || got[0] != 2023 || got[1] != 2024 {
		t.Fatalf("parseYears capped at two, got %v", got)
	}
	if got := parseYears("room 12345 in 876"); len(got) != 0 {
		t.Fatalf("non-year digits matched: %v", got)
	}
}
