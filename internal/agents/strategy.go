package agents

import (
	"context"
	"fmt"
	"strings"

	"CoPenny/internal/domain/models"
	"CoPenny/internal/llm"
)

// Strategist generates an investment strategy from retrieved knowledge,
// the user's risk profile, transaction patterns and market context.
type Strategist struct {
	llm Completer
}

// NewStrategist creates the strategy stage.
func NewStrategist(c Completer) *Strategist {
	return &Strategist{llm: c}
}

// Generate produces a strategy. It never returns an error: extraction
// failures truncate the raw reply into the summary, an LLM error yields
// a summary describing the error; both keep empty slices and a "medium"
// time horizon.
func (s *Strategist) Generate(
	ctx context.Context,
	query string,
	chunks []models.Chunk,
	profile *models.RiskProfile,
	summary *models.TransactionSummary,
	market *models.MarketContext,
) *models.Strategy {
	prompt := s.buildPrompt(query, chunks, profile, summary, market)

	reply, err := s.llm.Complete(ctx, prompt, "")
	if err != nil {
		return fallbackStrategy(fmt.Sprintf("Strategy generation encountered an error: %v", err))
	}

	var strategy models.Strategy
	if !llm.ExtractInto(reply, &strategy) {
		summaryText := reply
		if len(summaryText) > 200 {
			summaryText = summaryText[:200]
		}
		return fallbackStrategy(summaryText)
	}
	if strategy.Recommendations == nil {
		strategy.Recommendations = []models.Recommendation{}
	}
	if strategy.ActionItems == nil {
		strategy.ActionItems = []string{}
	}
	return &strategy
}

func fallbackStrategy(summary string) *models.Strategy {
	return &models.Strategy{
		StrategySummary: summary,
		Recommendations: []models.Recommendation{},
		ActionItems:     []string{},
		TimeHorizon:     "medium",
	}
}

func (s *Strategist) buildPrompt(
	query string,
	chunks []models.Chunk,
	profile *models.RiskProfile,
	summary *models.TransactionSummary,
	market *models.MarketContext,
) string {
	var sb strings.Builder

	sb.WriteString("You are a financial strategy advisor. Generate a personalized investment strategy based on the provided context.\n\n")
	sb.WriteString("USER QUERY: " + query + "\n\n")

	if len(chunks) > 0 {
		sb.WriteString("RELEVANT KNOWLEDGE:\n")
		top := chunks
		if len(top) > 5 {
			top = top[:5]
		}
		for i, c := range top {
			sb.WriteString(fmt.Sprintf("\n[%d] %s\n", i+1, c.Content))
			if c.Metadata.Title != "" {
				sb.WriteString(fmt.Sprintf("   Source: %s\n", c.Metadata.Title))
			}
		}
		sb.WriteString("\n")
	}

	if profile != nil {
		sb.WriteString("\nUSER RISK PROFILE:\n")
		sb.WriteString(fmt.Sprintf("- Risk tolerance: %s\n", profile.RiskTolerance))
		sb.WriteString(fmt.Sprintf("- Investment goals: %s\n", profile.Goals))
		sb.WriteString(fmt.Sprintf("- Time horizon: %s\n", profile.TimeHorizon))
	}

	if summary != nil {
		sb.WriteString("\nTRANSACTION PATTERNS:\n")
		sb.WriteString(fmt.Sprintf("- Monthly spending: %.2f\n", summary.MonthlyAverage))
		sb.WriteString(fmt.Sprintf("- Savings rate: %.1f%%\n", summary.SavingsRate))
		var cats []string
		for _, c := range summary.TopCategories {
			cats = append(cats, c.Category)
		}
		sb.WriteString(fmt.Sprintf("- Top categories: %s\n", strings.Join(cats, ", ")))
	}

	if market != nil {
		sb.WriteString("\nCURRENT MARKET CONTEXT:\n")
		sb.WriteString(fmt.Sprintf("- Market conditions: %s\n", market.Conditions))
		sb.WriteString(fmt.Sprintf("- Key indicators: %v\n", market.Indicators))
	}

	sb.WriteString(`
Generate a comprehensive strategy recommendation in JSON format:
{
    "strategy_summary": "Brief 2-3 sentence summary",
    "recommendations": [
        {
            "category": "string (e.g., Equity, Debt, Hybrid)",
            "allocation_percentage": number,
            "rationale": "why this allocation",
            "specific_products": ["product1", "product2"] (optional)
        }
    ],
    "action_items": ["action1", "action2"],
    "risk_notes": "risk considerations",
    "time_horizon": "short/medium/long term focus"
}

Be specific, data-driven, and align with the user's risk profile and goals.`)

	return sb.String()
}
