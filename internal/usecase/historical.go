package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"CoPenny/internal/agents"
	"CoPenny/internal/domain/models"
	"CoPenny/internal/domain/repository"
	"CoPenny/pkg/logger"
)

// Historical answers questions about past spending periods: a single
// year, a month within a year, or a year range. Aggregates come from
// the transaction store; one completion turns them into a narrative.
type Historical struct {
	transactions repository.TransactionStore
	llm          agents.Completer
	log          *logger.Logger
}

// NewHistorical creates the historical analysis usecase.
func NewHistorical(transactions repository.TransactionStore, completer agents.Completer, log *logger.Logger) *Historical {
	return &Historical{
		transactions: transactions,
		llm:          completer,
		log:          log,
	}
}

// YearTotal is one year's spend within a range query.
type YearTotal struct {
	Year  int     `json:"year"`
	Total float64 `json:"total"`
}

// HistoricalResult is the aggregate-plus-narrative answer.
type HistoricalResult struct {
	Query      string                `json:"query"`
	Period     string                `json:"period"`
	Total      float64               `json:"total"`
	YearTotals []YearTotal           `json:"year_totals,omitempty"`
	Monthly    []models.MonthlySpend `json:"monthly,omitempty"`
	Categories []models.CategoryStat `json:"categories,omitempty"`
	Summary    string                `json:"summary,omitempty"`
	Notes      string                `json:"notes,omitempty"`
}

// AvailableYears lists the distinct years present in the user's data,
// ascending.
func (h *Historical) AvailableYears(ctx context.Context, userID string) ([]int, error) {
	monthly, err := h.transactions.MonthlySpend(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	var years []int
	seen := make(map[int]struct{})
	for _, m := range monthly.Items {
		if _, ok := seen[m.Year]; ok {
			continue
		}
		seen[m.Year] = struct{}{}
		years = append(years, m.Year)
	}
	return years, nil
}

// AnalyzeYear aggregates one year.
func (h *Historical) AnalyzeYear(ctx context.Context, userID string, year int) (*HistoricalResult, error) {
	return h.analyzePeriod(ctx, userID, fmt.Sprintf("year %d", year), year, 0)
}

// Analyze parses the free-text query for a year, a month-in-year or a
// year range and aggregates the matching slice.
func (h *Historical) Analyze(ctx context.Context, userID, query string) (*HistoricalResult, error) {
	years := parseYears(query)
	_, month := ExtractYearMonth(query)

	switch {
	case len(years) >= 2:
		return h.analyzeRange(ctx, userID, query, years[0], years[1])
	case len(years) == 1 && month != 0:
		res, err := h.analyzePeriod(ctx, userID,
			fmt.Sprintf("%s %d", time.Month(month), years[0]), years[0], month)
		if err != nil {
			return nil, err
		}
		res.Query = query
		return res, nil
	case len(years) == 1:
		res, err := h.analyzePeriod(ctx, userID, fmt.Sprintf("year %d", years[0]), years[0], 0)
		if err != nil {
			return nil, err
		}
		res.Query = query
		return res, nil
	default:
		available, err := h.AvailableYears(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &HistoricalResult{
			Query: query,
			Notes: fmt.Sprintf("no year found in query; available years: %v", available),
		}, nil
	}
}

func (h *Historical) analyzePeriod(ctx context.Context, userID, period string, year, month int) (*HistoricalResult, error) {
	total, err := h.transactions.TotalSpend(ctx, userID, year, month)
	if err != nil {
		return nil, err
	}
	if total.Notes != "" {
		return &HistoricalResult{Period: period, Notes: total.Notes}, nil
	}

	res := &HistoricalResult{
		Period: period,
		Total:  total.Total,
	}

	if month == 0 {
		if monthly, err := h.transactions.MonthlySpend(ctx, userID, year); err == nil {
			res.Monthly = monthly.Items
		}
	}
	if categories, err := h.transactions.CategoryStats(ctx, userID, year, month); err == nil {
		items := categories.Items
		if len(items) > 5 {
			items = items[:5]
		}
		res.Categories = items
	}

	res.Summary = h.narrate(ctx, res)
	return res, nil
}

func (h *Historical) analyzeRange(ctx context.Context, userID, query string, from, to int) (*HistoricalResult, error) {
	if from > to {
		from, to = to, from
	}

	res := &HistoricalResult{
		Query:  query,
		Period: fmt.Sprintf("%d to %d", from, to),
	}
	for year := from; year <= to; year++ {
		total, err := h.transactions.TotalSpend(ctx, userID, year, 0)
		if err != nil {
			return nil, err
		}
		if total.Notes != "" {
			res.Notes = total.Notes
			return res, nil
		}
		res.YearTotals = append(res.YearTotals, YearTotal{Year: year, Total: total.Total})
		res.Total += total.Total
	}

	res.Summary = h.narrate(ctx, res)
	return res, nil
}

// narrate asks the model for a short comparison of the aggregates. An
// LLM failure leaves the summary empty; the numbers stand alone.
func (h *Historical) narrate(ctx context.Context, res *HistoricalResult) string {
	var sb strings.Builder
	sb.WriteString("Summarize this spending data in 2-3 warm, plain sentences. ")
	sb.WriteString("Point out the largest category and any notable change. Do not invent numbers.\n\n")
	sb.WriteString("Period: " + res.Period + "\n")
	sb.WriteString("Total spend: " + strconv.FormatFloat(res.Total, 'f', 2, 64) + "\n")
	for _, yt := range res.YearTotals {
		sb.WriteString(fmt.Sprintf("- %d: %.2f\n", yt.Year, yt.Total))
	}
	for _, c := range res.Categories {
		sb.WriteString(fmt.Sprintf("- %s: %.2f (%d transactions)\n", c.Category, c.Spent, c.Count))
	}

	summary, err := h.llm.Complete(ctx, sb.String(), "")
	if err != nil {
		if h.log != nil {
			h.log.Warn("historical narration failed", logger.Error(err))
		}
		return ""
	}
	return strings.TrimSpace(summary)
}

// parseYears extracts up to two four-digit years from the query.
func parseYears(query string) []int {
	matches := yearRe.FindAllString(query, 2)
	years := make([]int, 0, len(matches))
	for _, m := range matches {
		if y, err := strconv.Atoi(m); err == nil {
			years = append(years, y)
		}
	}
	return years
}
