package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one parsed row of a user's transactions CSV.
// Negative amounts are outflows. Exact carries the amount exactly as
// parsed from the file; Amount is its float64 view for arithmetic
// that tolerates rounding.
type Transaction struct {
	Date     time.Time
	Amount   float64
	Exact    decimal.Decimal
	Category string
	Merchant string
}

// ExactAmount returns the decimal parsed from the file, falling back
// to the float for rows built in code.
func (t Transaction) ExactAmount() decimal.Decimal {
	if !t.Exact.IsZero() {
		return t.Exact
	}
	return decimal.NewFromFloat(t.Amount)
}

// TotalSpendResult echoes the requested filters back alongside the total.
type TotalSpendResult struct {
	Year  int     `json:"year,omitempty"`
	Month int     `json:"month,omitempty"`
	Total float64 `json:"total"`
	Notes string  `json:"notes,omitempty"`
}

// MonthlySpend is one month's aggregate.
type MonthlySpend struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Spent float64 `json:"spent"`
}

// MonthlySpendResult lists per-month aggregates for an optional year filter.
type MonthlySpendResult struct {
	Year  int            `json:"year,omitempty"`
	Items []MonthlySpend `json:"items"`
	Notes string         `json:"notes,omitempty"`
}

// DailySpend is one day's aggregate.
type DailySpend struct {
	Date  string  `json:"date"`
	Spent float64 `json:"spent"`
}

// DailySpendResult lists per-day aggregates.
type DailySpendResult struct {
	Year  int          `json:"year,omitempty"`
	Month int          `json:"month,omitempty"`
	Items []DailySpend `json:"items"`
	Notes string       `json:"notes,omitempty"`
}

// CategoryStat is one category's aggregate.
type CategoryStat struct {
	Category string  `json:"category"`
	Spent    float64 `json:"spent"`
	Count    int     `json:"count"`
}

// CategoryStatsResult lists category aggregates sorted descending by spend.
type CategoryStatsResult struct {
	Year  int            `json:"year,omitempty"`
	Month int            `json:"month,omitempty"`
	Items []CategoryStat `json:"items"`
	Notes string         `json:"notes,omitempty"`
}

// MerchantStat is one merchant's aggregate.
type MerchantStat struct {
	Merchant string  `json:"merchant"`
	Spent    float64 `json:"spent"`
	Count    int     `json:"count"`
}

// MerchantStatsResult lists top-N merchant aggregates.
type MerchantStatsResult struct {
	Year  int            `json:"year,omitempty"`
	Month int            `json:"month,omitempty"`
	Items []MerchantStat `json:"items"`
	Notes string         `json:"notes,omitempty"`
}

// TimeCoverage describes the date range present in the data.
type TimeCoverage struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
	Rows  int    `json:"rows"`
	Notes string `json:"notes,omitempty"`
}

// CSVDescription summarizes the shape of a loaded transactions file.
type CSVDescription struct {
	Columns  []string          `json:"columns"`
	Resolved map[string]string `json:"resolved"`
	Rows     int               `json:"rows"`
	Notes    string            `json:"notes,omitempty"`
}

// TransactionSummary feeds the agent pipeline's data context.
type TransactionSummary struct {
	TotalSpend      float64        `json:"total_spend"`
	MonthlyAverage  float64        `json:"monthly_average"`
	SavingsRate     float64        `json:"savings_rate"`
	TopCategories   []CategoryStat `json:"top_categories"`
	Coverage        TimeCoverage   `json:"coverage"`
	MonthlyPatterns []MonthlySpend `json:"monthly_patterns"`
	Notes           string         `json:"notes,omitempty"`
}

// HealthReport is a rule-based financial health classification.
type HealthReport struct {
	Status          string   `json:"status"`
	Score           int      `json:"score"`
	Observations    []string `json:"observations"`
	Recommendations []string `json:"recommendations"`
}
