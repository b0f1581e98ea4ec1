package agents

import (
	"strings"
	"testing"

	"CoPenny/internal/domain/models"
)

func TestAnalyzeClassification(t *testing.T) {
	a := NewAnalyst()

	bad := a.Analyze(FinancialData{Income: 1000, Expenses: map[string]float64{"Rent": 1200}})
	if bad.FinancialHealth != HealthBad {
		t.Fatalf("expected Bad, got %q", bad.FinancialHealth)
	}

	atRisk := a.Analyze(FinancialData{Income: 1000, Expenses: map[string]float64{"Rent": 900}, SavingsGoal: 200})
	if atRisk.FinancialHealth != HealthAtRisk {
		t.Fatalf("expected At Risk, got %q", atRisk.FinancialHealth)
	}

	good := a.Analyze(FinancialData{Income: 1000, Expenses: map[string]float64{"Rent": 500}, SavingsGoal: 200})
	if good.FinancialHealth != HealthGood {
		t.Fatalf("expected Good, got %q", good.FinancialHealth)
	}
	if good.Surplus != 500 || good.ExtraSurplus != 300 {
		t.Fatalf("surplus math wrong: %+v", good)
	}
}

func TestExtractFinancialData(t *testing.T) {
	a := NewAnalyst()

	summary := &models.TransactionSummary{
		TopCategories: []models.CategoryStat{
			{Category: "Rent", Spent: 15000},
			{Category: "Groceries", Spent: 5000},
		},
	}
	profile := &models.Profile{MonthlyIncome: 50000}

	data := a.ExtractFinancialData(summary, profile)
	if data.Income != 50000 {
		t.Fatalf("income not carried: %v", data.Income)
	}
	if data.SavingsGoal != 10000 {
		t.Fatalf("savings goal should default to 20%% of income, got %v", data.SavingsGoal)
	}
	if data.Expenses["Rent"] != 15000 {
		t.Fatalf("expenses not extracted: %v", data.Expenses)
	}

	// No income means no invented savings goal.
	noProfile := a.ExtractFinancialData(summary, nil)
	if noProfile.Income != 0 || noProfile.SavingsGoal != 0 {
		t.Fatalf("missing income must stay zero: %+v", noProfile)
	}

	// Without categories the monthly average stands in.
	avgOnly := a.ExtractFinancialData(&models.TransactionSummary{MonthlyAverage: 1234}, nil)
	if avgOnly.Expenses["Other"] != 1234 {
		t.Fatalf("monthly average fallback missing: %v", avgOnly.Expenses)
	}
}

func TestDescribe(t *testing.T) {
	r := &AnalysisResult{FinancialHealth: HealthGood, Income: 100, TotalExpenses: 40, Surplus: 60, SavingsGoal: 20}
	got := r.Describe()
	if !strings.Contains(got, "Financial health: Good") || !strings.Contains(got, "surplus 60.00") {
		t.Fatalf("unexpected description: %q", got)
	}
}
