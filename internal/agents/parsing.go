package agents

import (
	"context"
	"fmt"
	"strings"

	"CoPenny/internal/domain/models"
	"CoPenny/internal/llm"
)

var greetings = map[string]struct{}{
	"hello":        {},
	"hi":           {},
	"hey":          {},
	"good morning": {},
	"good evening": {},
	"how are you":  {},
}

// Parser extracts intent and data requirements from a user message.
type Parser struct {
	llm Completer
}

// NewParser creates the parsing stage.
func NewParser(c Completer) *Parser {
	return &Parser{llm: c}
}

// Parse analyzes a message and returns its intent. It never returns an
// error: extraction failures fall back to keyword matching.
func (p *Parser) Parse(ctx context.Context, message string, turns []models.Turn) *models.Intent {
	normalized := strings.ToLower(strings.TrimSpace(message))

	// Fast path for simple greetings, saving LLM quota.
	if _, ok := greetings[normalized]; ok || len(normalized) < 4 {
		return &models.Intent{
			QueryType: models.QueryGeneralKnowledge,
			Intent:    "greeting",
			Keywords:  []string{},
		}
	}

	prompt := p.buildPrompt(message, turns)

	reply, err := p.llm.Complete(ctx, prompt, "")
	if err != nil {
		return p.fallback(message)
	}

	var intent models.Intent
	if !llm.ExtractInto(reply, &intent) {
		return p.fallback(message)
	}
	return &intent
}

func (p *Parser) buildPrompt(message string, turns []models.Turn) string {
	var sb strings.Builder
	sb.WriteString("Analyze this financial query and extract structured information.\n\n")
	sb.WriteString("User Query: " + message + "\n\n")

	if len(turns) > 0 {
		recent := turns
		if len(recent) > 3 {
			recent = recent[len(recent)-3:]
		}
		sb.WriteString("Recent Context:\n")
		for _, t := range recent {
			sb.WriteString(fmt.Sprintf("%s: %s\n", t.Role, t.Content))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(`Determine:
1. Query type (transaction_analysis, investment_advice, market_question, general_knowledge, portfolio_question, risk_assessment)
2. Whether it requires knowledge retrieval (VectorDB) - for strategy, market insights, education
3. Whether it requires transaction data (CSV/DB) - for spending, budget, cashflow
4. Whether it requires real-time market data - for current prices, NAV, market conditions
5. Key keywords for knowledge search (if applicable)
6. Whether user risk profile is needed

Respond in JSON format:
{
    "query_type": "string",
    "intent": "brief description",
    "requires_knowledge": true/false,
    "requires_transaction_data": true/false,
    "requires_market_data": true/false,
    "keywords": ["keyword1", "keyword2"],
    "risk_profile_needed": true/false
}`)
	return sb.String()
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// fallback assigns intent by keyword matching when the LLM reply is
// unusable, plus a qualitative allocation inference for investment
// queries.
func (p *Parser) fallback(message string) *models.Intent {
	lower := strings.ToLower(message)

	intent := &models.Intent{}
	switch {
	case containsAny(lower, "spend", "expense", "budget", "transaction", "cashflow"):
		intent.QueryType = models.QueryTransactionAnalysis
		intent.RequiresTransactionData = true
	case containsAny(lower, "invest", "portfolio", "sip", "mutual fund", "stock", "allocation"):
		intent.QueryType = models.QueryInvestmentAdvice
		intent.RequiresKnowledge = true
	case containsAny(lower, "market", "price", "nav", "current"):
		intent.QueryType = models.QueryMarketQuestion
		intent.RequiresMarketData = true
		intent.RequiresKnowledge = true
	default:
		intent.QueryType = models.QueryGeneralKnowledge
		intent.RequiresKnowledge = true
	}

	if len(message) > 100 {
		intent.Intent = message[:100]
	} else {
		intent.Intent = message
	}

	// Keywords: words longer than 3 chars, at most 5.
	for _, word := range strings.Fields(lower) {
		if len(word) > 3 {
			intent.Keywords = append(intent.Keywords, word)
			if len(intent.Keywords) == 5 {
				break
			}
		}
	}
	if intent.Keywords == nil {
		intent.Keywords = []string{}
	}

	intent.RiskProfileNeeded = strings.Contains(lower, "risk") || strings.Contains(lower, "investment")

	if intent.QueryType == models.QueryInvestmentAdvice {
		intent.InferredAllocation = inferAllocation(lower)
	}

	return intent
}

// Qualitative weight guesses: "largely/mostly" ~ 75%, "some/a bit" ~ 15%.
const (
	majorWeight = 75
	minorWeight = 15
)

// inferAllocation maps qualitative phrases ("largely blue chip, some mid
// cap") onto approximate major/minor allocation buckets.
func inferAllocation(lower string) []models.Allocation {
	present := func(phrases ...string) bool {
		return containsAny(lower, phrases...)
	}

	var major, minor string

	if present("blue chip", "large cap") {
		major = "Large Cap / Blue Chip"
	}
	if present("index", "nifty", "sensex") && major == "" {
		major = "Index Funds (Nifty/Sensex)"
	}

	switch {
	case present("mid cap"):
		minor = "Mid Cap"
	case present("small cap"):
		minor = "Small Cap"
	case present("tech", "technology", "new "):
		minor = "Emerging/Theme Tech"
	}

	// A lone major intent still deserves diversification: fill index as minor.
	if major != "" && minor == "" {
		minor = "Index Funds (Nifty/Sensex)"
	}

	if major == "" && minor == "" {
		return nil
	}

	var out []models.Allocation
	remaining := 100.0
	if major != "" {
		out = append(out, models.Allocation{Bucket: major, Percent: majorWeight})
		remaining -= majorWeight
	}
	if minor != "" {
		w := float64(minorWeight)
		if w > remaining {
			w = remaining
		}
		out = append(out, models.Allocation{Bucket: minor, Percent: w})
	}
	return out
}
