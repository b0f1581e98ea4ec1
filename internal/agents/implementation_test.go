package agents

import (
	"strings"
	"testing"

	"CoPenny/internal/domain/models"
)

func TestPlanStructure(t *testing.T) {
	p := NewPlanner()
	allocation := []models.Recommendation{
		{Category: "Large Cap Equity", AllocationPercentage: 60, Rationale: "core holding"},
		{Category: "Debt", AllocationPercentage: 30},
	}

	plan := p.Generate("moderate", allocation, nil)
	if plan.RiskProfile != "Moderate" {
		t.Fatalf("risk profile not normalized: %q", plan.RiskProfile)
	}
	// KYC first, one step per allocation line, monitoring last.
	if len(plan.ActionPlan) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(plan.ActionPlan))
	}
	if !strings.Contains(plan.ActionPlan[0].Title, "KYC") {
		t.Fatalf("first step should be KYC: %q", plan.ActionPlan[0].Title)
	}
	if !strings.Contains(plan.ActionPlan[1].Title, "60%") {
		t.Fatalf("allocation step missing percentage: %q", plan.ActionPlan[1].Title)
	}
	if !strings.Contains(plan.ActionPlan[3].Title, "Monitoring") {
		t.Fatalf("last step should be monitoring: %q", plan.ActionPlan[3].Title)
	}
	// 90% allocated leaves a remainder note.
	if !strings.Contains(plan.ShortExplanation, "remaining 10%") {
		t.Fatalf("remainder note missing:\n%s", plan.ShortExplanation)
	}
}

func TestNormalizeRiskProfile(t *testing.T) {
	cases := map[string]string{
		"safe":         "Safe",
		" AGGRESSIVE ": "Aggressive",
		"moderate":     "Moderate",
		"":             "Moderate",
		"whatever":     "Moderate",
	}
	for in, want := range cases {
		if got := normalizeRiskProfile(in); got != want {
			t.Fatalf("normalizeRiskProfile(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFundSuggestionPrefersRecommendedAssets(t *testing.T) {
	got := fundSuggestion("Mid Cap", []string{"Axis Bluechip Fund", "Kotak Emerging Equity Mid Cap"})
	if got != "Kotak Emerging Equity Mid Cap" {
		t.Fatalf("expected keyword-matched asset, got %q", got)
	}

	// No keyword match falls back to the first asset.
	got = fundSuggestion("Gold", []string{"Axis Bluechip Fund"})
	if got != "Axis Bluechip Fund" {
		t.Fatalf("expected first asset fallback, got %q", got)
	}
}

func TestFundSuggestionTableLookup(t *testing.T) {
	got := fundSuggestion("Small Cap Equity", nil)
	if got != fundSuggestions["small_cap"][0] {
		t.Fatalf("unexpected fund %q", got)
	}
	// Unmapped categories default to large cap.
	got = fundSuggestion("Cryptocurrency", nil)
	if got != fundSuggestions["large_cap"][0] {
		t.Fatalf("unexpected default fund %q", got)
	}
}

func TestCategoryInstructionsBranches(t *testing.T) {
	etf := categoryInstructions("Nifty ETF", "Nippon India ETF Nifty BeES")
	if !strings.Contains(strings.Join(etf, " "), "Demat") {
		t.Fatalf("etf instructions missing demat step: %v", etf)
	}
	fd := categoryInstructions("Fixed Deposit", "")
	if !strings.Contains(strings.Join(fd, " "), "Fixed Deposit") {
		t.Fatalf("fd instructions wrong: %v", fd)
	}
	mf := categoryInstructions("Equity", "HDFC Top 100")
	if !strings.Contains(strings.Join(mf, " "), "Direct Plan") {
		t.Fatalf("mutual fund instructions wrong: %v", mf)
	}
}

func TestSuggestSIPVsLumpsum(t *testing.T) {
	allocation := []models.Recommendation{
		{Category: "Large Cap", AllocationPercentage: 50},
		{Category: "Mid Cap", AllocationPercentage: 30},
	}

	safe := suggestSIPVsLumpsum("Safe", allocation)
	if !strings.Contains(safe.Reason, "conservative") {
		t.Fatalf("safe reason wrong: %q", safe.Reason)
	}
	// 80% equity adds the high-exposure benefit line.
	found := false
	for _, b := range safe.Benefits {
		if strings.Contains(b, "high equity exposure") {
			found = true
		}
	}
	if !found {
		t.Fatalf("high equity benefit missing: %v", safe.Benefits)
	}

	moderate := suggestSIPVsLumpsum("Moderate", nil)
	if !strings.Contains(strings.Join(moderate.LumpsumWhen, " "), "70% SIP") {
		t.Fatalf("moderate lumpsum guidance missing: %v", moderate.LumpsumWhen)
	}
}

func TestPlanMarkdown(t *testing.T) {
	p := NewPlanner()
	plan := p.Generate("aggressive", []models.Recommendation{
		{Category: "Equity", AllocationPercentage: 100},
	}, nil)

	md := plan.Markdown()
	for _, section := range []string{
		"Your Investment Implementation Plan",
		"SIP vs Lumpsum Recommendation",
		"Step-by-Step Action Plan",
		"Platform Suggestions",
	} {
		if !strings.Contains(md, section) {
			t.Fatalf("markdown missing section %q", section)
		}
	}
}
