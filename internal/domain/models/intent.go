package models

// Query types produced by the parsing stage.
const (
	QueryTransactionAnalysis = "transaction_analysis"
	QueryInvestmentAdvice    = "investment_advice"
	QueryMarketQuestion      = "market_question"
	QueryGeneralKnowledge    = "general_knowledge"
	QueryPortfolioQuestion   = "portfolio_question"
	QueryRiskAssessment      = "risk_assessment"
)

// Intent is the parsed shape of one incoming message. It is produced once
// per message and consumed by every downstream stage; never persisted.
type Intent struct {
	QueryType               string       `json:"query_type"`
	Intent                  string       `json:"intent"`
	RequiresKnowledge       bool         `json:"requires_knowledge"`
	RequiresTransactionData bool         `json:"requires_transaction_data"`
	RequiresMarketData      bool         `json:"requires_market_data"`
	Keywords                []string     `json:"keywords"`
	RiskProfileNeeded       bool         `json:"risk_profile_needed"`
	InferredAllocation      []Allocation `json:"inferred_allocation,omitempty"`
}

// Allocation is a qualitative portfolio split inferred from phrases like
// "largely blue chip, some mid cap".
type Allocation struct {
	Bucket  string  `json:"bucket"`
	Percent float64 `json:"percent"`
}

// IsInvestment reports whether the intent should run the full
// strategy pipeline.
func (i *Intent) IsInvestment() bool {
	switch i.QueryType {
	case QueryInvestmentAdvice, QueryPortfolioQuestion, QueryMarketQuestion:
		return true
	}
	return false
}
