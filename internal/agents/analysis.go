package agents

import (
	"fmt"

	"CoPenny/internal/domain/models"
)

// Health statuses.
const (
	HealthGood   = "Good"
	HealthAtRisk = "At Risk"
	HealthBad    = "Bad"
)

// FinancialData is the analysis input assembled from the transaction
// summary and the user's profile.
type FinancialData struct {
	Income      float64
	Expenses    map[string]float64
	SavingsGoal float64
}

// AnalysisResult is the financial health report.
type AnalysisResult struct {
	Income          float64  `json:"income"`
	TotalExpenses   float64  `json:"total_expenses"`
	Surplus         float64  `json:"surplus"`
	SavingsGoal     float64  `json:"savings_goal"`
	ExtraSurplus    float64  `json:"extra_surplus"`
	FinancialHealth string   `json:"financial_health"`
	Insights        []string `json:"insights"`
}

// Analyst classifies financial health from income, expenses and savings
// goal. Rule-based; the per-user feature snapshot stored at upload time
// can refine the spike threshold but never changes the rules.
type Analyst struct{}

// NewAnalyst creates the analysis stage.
func NewAnalyst() *Analyst {
	return &Analyst{}
}

// Analyze produces the health report. Deterministic, no external calls.
func (a *Analyst) Analyze(data FinancialData) *AnalysisResult {
	var totalExpenses float64
	for _, v := range data.Expenses {
		totalExpenses += v
	}
	surplus := data.Income - totalExpenses
	goalGap := surplus - data.SavingsGoal

	health := classify(data.Income, totalExpenses, data.SavingsGoal, surplus)

	var insights []string
	switch health {
	case HealthBad:
		insights = append(insights, "⚠️ Financial health is poor. Expenses exceed savings target.")
	case HealthAtRisk:
		insights = append(insights, "⚠️ Financial health is at risk. Surplus is low compared to savings goal.")
	default:
		insights = append(insights, "✅ Financial health is good. You are meeting savings goals.")
	}

	return &AnalysisResult{
		Income:          data.Income,
		TotalExpenses:   totalExpenses,
		Surplus:         surplus,
		SavingsGoal:     data.SavingsGoal,
		ExtraSurplus:    goalGap,
		FinancialHealth: health,
		Insights:        insights,
	}
}

func classify(income, totalExpenses, savingsGoal, surplus float64) string {
	switch {
	case totalExpenses > income:
		return HealthBad
	case surplus < savingsGoal:
		return HealthAtRisk
	default:
		return HealthGood
	}
}

// ExtractFinancialData assembles analysis input from a transaction
// summary and profile. Missing income is reported as zero, never
// estimated, so dummy numbers do not leak into the analysis.
func (a *Analyst) ExtractFinancialData(summary *models.TransactionSummary, profile *models.Profile) FinancialData {
	var income float64
	if profile != nil {
		income = profile.MonthlyIncome
	}

	expenses := make(map[string]float64)
	if summary != nil {
		if len(summary.TopCategories) > 0 {
			for _, c := range summary.TopCategories {
				expenses[c.Category] = c.Spent
			}
		} else if summary.MonthlyAverage > 0 {
			expenses["Other"] = summary.MonthlyAverage
		}
	}

	var savingsGoal float64
	if savingsGoal == 0 && income > 0 {
		savingsGoal = income * 0.2
	}

	return FinancialData{
		Income:      income,
		Expenses:    expenses,
		SavingsGoal: savingsGoal,
	}
}

// Describe renders the report as context lines for a prompt.
func (r *AnalysisResult) Describe() string {
	return fmt.Sprintf(
		"Financial health: %s (income %.2f, expenses %.2f, surplus %.2f, savings goal %.2f)",
		r.FinancialHealth, r.Income, r.TotalExpenses, r.Surplus, r.SavingsGoal,
	)
}
