package charts

import (
	"encoding/base64"
	"testing"

	"CoPenny/internal/domain/models"
)

func chartInputs() Inputs {
	return Inputs{
		Categories: &models.CategoryStatsResult{Items: []models.CategoryStat{
			{Category: "Rent", Spent: -15000, Count: 1},
			{Category: "Groceries", Spent: -1000, Count: 2},
		}},
		Daily: &models.DailySpendResult{Items: []models.DailySpend{
			{Date: "2024-03-01", Spent: -15000},
			{Date: "2024-03-05", Spent: -500},
			{Date: "2024-03-09", Spent: -500},
		}},
		Merchants: &models.MerchantStatsResult{Items: []models.MerchantStat{
			{Merchant: "Landlord", Spent: -15000, Count: 1},
		}},
	}
}

func TestRenderDefaults(t *testing.T) {
	r := NewRenderer(nil)
	out := r.Render("how does my spending look", chartInputs())

	if _, ok := out["spending_pie"]; !ok {
		t.Fatalf("default pie missing: %v", keysOf(out))
	}
	if _, ok := out["spending_trend"]; !ok {
		t.Fatalf("default trend missing: %v", keysOf(out))
	}
	if _, ok := out["category_bar"]; ok {
		t.Fatalf("bar not requested: %v", keysOf(out))
	}

	// Values are valid base64 PNG payloads.
	b, err := base64.StdEncoding.DecodeString(out["spending_pie"])
	if err != nil || len(b) == 0 {
		t.Fatalf("pie not base64 png: %v", err)
	}
}

func TestRenderKeywordSelection(t *testing.T) {
	r := NewRenderer(nil)
	out := r.Render("bar chart of my top merchants", chartInputs())

	if _, ok := out["category_bar"]; !ok {
		t.Fatalf("bar missing: %v", keysOf(out))
	}
	if _, ok := out["top_merchants"]; !ok {
		t.Fatalf("merchants missing: %v", keysOf(out))
	}
	if _, ok := out["spending_pie"]; ok {
		t.Fatalf("pie not requested: %v", keysOf(out))
	}
}

func TestRenderEmptyInputs(t *testing.T) {
	r := NewRenderer(nil)
	out := r.Render("pie chart please", Inputs{})
	if len(out) != 0 {
		t.Fatalf("no data must render no charts: %v", keysOf(out))
	}
}

func TestRenderTrendNeedsTwoPoints(t *testing.T) {
	r := NewRenderer(nil)
	in := chartInputs()
	in.Daily.Items = in.Daily.Items[:1]

	out := r.Render("trend please", in)
	if _, ok := out["spending_trend"]; ok {
		t.Fatal("single point must not produce a trend")
	}
}

func TestRenderZeroCategorySkipped(t *testing.T) {
	r := NewRenderer(nil)
	in := Inputs{Categories: &models.CategoryStatsResult{Items: []models.CategoryStat{
		{Category: "Empty", Spent: 0},
	}}}

	out := r.Render("pie", in)
	if _, ok := out["spending_pie"]; ok {
		t.Fatal("all-zero categories must not produce a pie")
	}
}

func keysOf(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
