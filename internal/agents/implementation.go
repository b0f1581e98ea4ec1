package agents

import (
	"fmt"
	"strings"

	"CoPenny/internal/domain/models"
)

// Planner turns an allocation into a step-by-step execution plan with
// fund and platform suggestions. Entirely deterministic rule tables, no
// external calls.
type Planner struct{}

// NewPlanner creates the implementation-plan stage.
func NewPlanner() *Planner {
	return &Planner{}
}

// Popular investment platforms in India.
var platforms = map[string][]string{
	"mutual_funds": {"Groww", "Zerodha", "Kuvera", "Paytm Money", "ET Money", "HDFC Securities"},
	"etf":          {"Zerodha", "Groww", "Upstox", "ICICI Direct", "HDFC Securities"},
	"gold":         {"Groww", "Zerodha", "Paytm Money", "SBI Gold ETF", "HDFC Gold ETF"},
	"fd":           {"Bank websites", "Bank mobile apps", "CRED", "Groww", "Paytm Money"},
}

// Fund suggestions by fund type; the first entry is the default pick.
var fundSuggestions = map[string][]string{
	"large_cap": {
		"HDFC Top 100 Fund - Direct Growth",
		"ICICI Prudential Bluechip Fund - Direct Growth",
		"SBI Bluechip Fund - Direct Growth",
		"Nippon India Large Cap Fund - Direct Growth",
	},
	"mid_cap": {
		"HDFC Mid-Cap Opportunities Fund - Direct Growth",
		"SBI Magnum Midcap Fund - Direct Growth",
		"ICICI Prudential Midcap Fund - Direct Growth",
	},
	"small_cap": {
		"HDFC Small Cap Fund - Direct Growth",
		"SBI Small Cap Fund - Direct Growth",
		"Nippon India Small Cap Fund - Direct Growth",
	},
	"index_fund": {
		"HDFC Index Fund - Nifty 50 Plan - Direct Growth",
		"ICICI Prudential Nifty Index Fund - Direct Growth",
		"UTI Nifty Index Fund - Direct Growth",
	},
	"etf": {
		"Nippon India ETF Nifty BeES",
		"ICICI Prudential Nifty ETF",
		"HDFC Nifty 50 ETF",
		"SBI Nifty ETF",
	},
	"debt": {
		"HDFC Short Term Debt Fund - Direct Growth",
		"ICICI Prudential Short Term Fund - Direct Growth",
		"SBI Magnum Gilt Fund - Direct Growth",
	},
	"hybrid": {
		"HDFC Balanced Advantage Fund - Direct Growth",
		"ICICI Prudential Balanced Advantage Fund - Direct Growth",
		"SBI Balanced Advantage Fund - Direct Growth",
	},
	"gold": {
		"SBI Gold ETF",
		"HDFC Gold ETF",
		"ICICI Prudential Gold ETF",
		"Nippon India Gold ETF",
	},
}

// Ordered keyword-to-fund-type mapping; first match wins.
var categoryMapping = []struct {
	keyword  string
	fundType string
}{
	{"large cap", "large_cap"},
	{"large-cap", "large_cap"},
	{"mid cap", "mid_cap"},
	{"mid-cap", "mid_cap"},
	{"small cap", "small_cap"},
	{"small-cap", "small_cap"},
	{"index fund", "index_fund"},
	{"index", "index_fund"},
	{"etf", "etf"},
	{"debt", "debt"},
	{"fixed deposit", "fd"},
	{"fd", "fd"},
	{"gold", "gold"},
	{"hybrid", "hybrid"},
	{"balanced", "hybrid"},
	{"equity", "large_cap"},
}

// PlanStep is one step of the execution plan.
type PlanStep struct {
	Step           int      `json:"step"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	FundSuggestion string   `json:"fund_suggestion,omitempty"`
	Instructions   []string `json:"instructions"`
	EstimatedTime  string   `json:"estimated_time,omitempty"`
}

// SIPSuggestion is the SIP-vs-lumpsum recommendation.
type SIPSuggestion struct {
	Recommendation string   `json:"recommendation"`
	Reason         string   `json:"reason"`
	Frequency      string   `json:"frequency"`
	StartDate      string   `json:"start_date"`
	Benefits       []string `json:"benefits"`
	LumpsumWhen    []string `json:"lumpsum_when_to_use"`
	Considerations []string `json:"lumpsum_considerations"`
}

// Plan is the full implementation plan.
type Plan struct {
	RiskProfile         string              `json:"risk_profile"`
	ShortExplanation    string              `json:"short_explanation"`
	ActionPlan          []PlanStep          `json:"action_plan"`
	PlatformSuggestions map[string][]string `json:"platform_suggestions"`
	SIPVsLumpsum        SIPSuggestion       `json:"sip_vs_lumpsum"`
}

// Generate builds the plan from a normalized risk profile and the
// effective allocation. recommendedAssets, when present, overrides the
// fund-suggestion tables.
func (p *Planner) Generate(riskProfile string, allocation []models.Recommendation, recommendedAssets []string) *Plan {
	riskProfile = normalizeRiskProfile(riskProfile)

	return &Plan{
		RiskProfile:         riskProfile,
		ShortExplanation:    shortExplanation(riskProfile, allocation),
		ActionPlan:          actionPlan(allocation, recommendedAssets),
		PlatformSuggestions: suggestPlatforms(allocation),
		SIPVsLumpsum:        suggestSIPVsLumpsum(riskProfile, allocation),
	}
}

func normalizeRiskProfile(rp string) string {
	switch strings.ToLower(strings.TrimSpace(rp)) {
	case "safe":
		return "Safe"
	case "aggressive":
		return "Aggressive"
	default:
		return "Moderate"
	}
}

func shortExplanation(riskProfile string, allocation []models.Recommendation) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Based on your %s risk profile, here's your investment plan:\n\n", riskProfile))
	sb.WriteString("Your portfolio is divided into:\n")

	var total float64
	for _, rec := range allocation {
		category := rec.Category
		if category == "" {
			category = "Unknown"
		}
		pct := rec.EffectiveAllocation()
		total += pct
		sb.WriteString(fmt.Sprintf("• **%s**: %.0f%%", category, pct))
		if rec.Rationale != "" {
			sb.WriteString(" - " + rec.Rationale)
		}
		sb.WriteString("\n")
	}

	if total < 100 {
		sb.WriteString(fmt.Sprintf("\n*Note: Total allocation is %.0f%%. Consider allocating the remaining %.0f%% to emergency fund or savings.*\n", total, 100-total))
	}

	return sb.String()
}

func actionPlan(allocation []models.Recommendation, recommendedAssets []string) []PlanStep {
	steps := []PlanStep{{
		Step:        1,
		Title:       "Complete KYC (Know Your Customer)",
		Description: "You need to complete KYC before investing. This is a one-time process.",
		Instructions: []string{
			"Choose a platform (we'll suggest options below)",
			"Download the app or visit the website",
			"Sign up with your PAN card, Aadhaar, and bank details",
			"Complete e-KYC (usually takes 5-10 minutes)",
			"Link your bank account",
		},
		EstimatedTime: "10-15 minutes",
	}}

	stepNum := 2
	for _, rec := range allocation {
		category := rec.Category
		if category == "" {
			category = "Unknown"
		}
		pct := rec.EffectiveAllocation()
		fund := fundSuggestion(category, recommendedAssets)

		steps = append(steps, PlanStep{
			Step:           stepNum,
			Title:          fmt.Sprintf("Invest %.0f%% in %s", pct, category),
			Description:    fmt.Sprintf("Allocate %.0f%% of your investment amount to %s funds.", pct, category),
			FundSuggestion: fund,
			Instructions:   categoryInstructions(category, fund),
			EstimatedTime:  "5-10 minutes per fund",
		})
		stepNum++
	}

	steps = append(steps, PlanStep{
		Step:        stepNum,
		Title:       "Set Up Regular Monitoring",
		Description: "Review your portfolio periodically to ensure it stays aligned with your goals.",
		Instructions: []string{
			"Check your portfolio once a month",
			"Review performance quarterly",
			"Rebalance if allocation drifts by more than 5%",
			"Continue SIPs as planned",
		},
		EstimatedTime: "Ongoing",
	})

	return steps
}

func fundSuggestion(category string, recommendedAssets []string) string {
	categoryLower := strings.ToLower(category)

	if len(recommendedAssets) > 0 {
		for _, asset := range recommendedAssets {
			assetLower := strings.ToLower(asset)
			for _, keyword := range strings.Fields(categoryLower) {
				if strings.Contains(assetLower, keyword) {
					return asset
				}
			}
		}
		return recommendedAssets[0]
	}

	fundType := "large_cap"
	for _, m := range categoryMapping {
		if strings.Contains(categoryLower, m.keyword) {
			fundType = m.fundType
			break
		}
	}

	funds, ok := fundSuggestions[fundType]
	if !ok || len(funds) == 0 {
		funds = fundSuggestions["large_cap"]
	}
	if len(funds) == 0 {
		return "Consult with a financial advisor"
	}
	return funds[0]
}

func categoryInstructions(category, fund string) []string {
	categoryLower := strings.ToLower(category)

	switch {
	case strings.Contains(categoryLower, "etf") || strings.Contains(categoryLower, "exchange traded"):
		return []string{
			fmt.Sprintf("Search for '%s' in the app", fund),
			"Click 'Buy' or 'Invest'",
			"Enter the amount you want to invest",
			"Choose 'Market Order' (executes immediately) or 'Limit Order' (executes at your price)",
			"Review and confirm the order",
			"The ETF units will be credited to your Demat account",
		}
	case strings.Contains(categoryLower, "gold"):
		return []string{
			fmt.Sprintf("Search for '%s' or 'Gold ETF'", fund),
			"Click 'Invest' or 'Buy'",
			"Enter investment amount",
			"Choose SIP (recommended) or Lumpsum",
			"Set up auto-debit if doing SIP",
			"Confirm the transaction",
		}
	case strings.Contains(categoryLower, "fd") || strings.Contains(categoryLower, "fixed deposit"):
		return []string{
			"Open your bank's mobile app or website",
			"Navigate to 'Fixed Deposit' or 'FD' section",
			"Click 'Open New FD'",
			"Enter the amount and tenure (recommended: 1-3 years)",
			"Choose interest payout frequency (monthly/quarterly/at maturity)",
			"Review terms and confirm",
		}
	default: // Mutual funds
		return []string{
			fmt.Sprintf("Search for '%s' in the investment app", fund),
			"Click on the fund name to see details",
			"Click 'Invest' or 'Start SIP'",
			"Enter the investment amount",
			"Choose 'Direct Plan - Growth' (lower fees)",
			"Select SIP frequency (monthly recommended) or Lumpsum",
			"Set up auto-debit from your bank account (for SIP)",
			"Review all details and confirm",
		}
	}
}

func suggestPlatforms(allocation []models.Recommendation) map[string][]string {
	var hasETF, hasMF, hasGold bool
	for _, rec := range allocation {
		cat := strings.ToLower(rec.Category)
		isETF := strings.Contains(cat, "etf") || strings.Contains(cat, "exchange traded")
		if isETF {
			hasETF = true
			continue
		}
		if strings.Contains(cat, "equity") || strings.Contains(cat, "mutual") || strings.Contains(cat, "fund") {
			hasMF = true
		}
		if strings.Contains(cat, "gold") {
			hasGold = true
		}
	}

	suggested := map[string][]string{
		"mutual_funds": {},
		"etf":          {},
		"general":      {"Groww", "Zerodha", "Kuvera"},
	}
	if hasMF || hasGold {
		suggested["mutual_funds"] = platforms["mutual_funds"][:3]
	}
	if hasETF {
		suggested["etf"] = platforms["etf"][:3]
	}
	return suggested
}

var equityCategories = []string{"equity", "large cap", "mid cap", "small cap", "index", "etf"}

func suggestSIPVsLumpsum(riskProfile string, allocation []models.Recommendation) SIPSuggestion {
	var equityPct float64
	for _, rec := range allocation {
		cat := strings.ToLower(rec.Category)
		for _, eq := range equityCategories {
			if strings.Contains(cat, eq) {
				equityPct += rec.EffectiveAllocation()
				break
			}
		}
	}

	suggestion := SIPSuggestion{
		Recommendation: "SIP (Systematic Investment Plan)",
		Frequency:      "Monthly",
		StartDate:      "1st or 15th of each month",
		Benefits: []string{
			"Reduces impact of market volatility",
			"Builds investment discipline",
			"Averages out purchase price",
			"Requires smaller initial capital",
		},
		LumpsumWhen: []string{
			"You have a large amount ready (bonus, tax refund)",
			"Market is in a correction phase",
			"You're comfortable with timing the market",
		},
		Considerations: []string{
			"Higher risk if market falls immediately after investment",
			"Requires larger initial capital",
			"Better for experienced investors",
		},
	}

	switch riskProfile {
	case "Safe":
		suggestion.Reason = "SIP is safer as it spreads risk over time. Perfect for conservative investors."
	case "Moderate":
		suggestion.Reason = "SIP helps moderate investors build wealth gradually while managing risk."
		suggestion.LumpsumWhen = append(suggestion.LumpsumWhen, "Consider 70% SIP + 30% Lumpsum for balance")
	default: // Aggressive
		suggestion.Reason = "Even aggressive investors benefit from SIP discipline. Consider 60% SIP + 40% Lumpsum if you have capital ready."
		suggestion.LumpsumWhen = append(suggestion.LumpsumWhen, "You can take advantage of market dips with lumpsum")
	}

	if equityPct > 60 {
		suggestion.Benefits = append(suggestion.Benefits, "Especially important for high equity exposure")
	}

	return suggestion
}

// Markdown renders the plan as a user-friendly markdown document.
func (p *Plan) Markdown() string {
	var sb strings.Builder

	sb.WriteString("## 📋 Your Investment Implementation Plan\n")
	sb.WriteString(p.ShortExplanation)
	sb.WriteString("\n---\n")

	sip := p.SIPVsLumpsum
	sb.WriteString("## 💡 SIP vs Lumpsum Recommendation\n")
	sb.WriteString(fmt.Sprintf("**Recommendation:** %s\n", sip.Recommendation))
	sb.WriteString(fmt.Sprintf("**Why:** %s\n\n", sip.Reason))
	sb.WriteString("**SIP Benefits:**\n")
	for _, b := range sip.Benefits {
		sb.WriteString("• " + b + "\n")
	}
	sb.WriteString(fmt.Sprintf("\n**SIP Frequency:** %s\n", sip.Frequency))
	sb.WriteString(fmt.Sprintf("**Start Date:** %s\n", sip.StartDate))
	sb.WriteString("\n---\n")

	sb.WriteString("## 📝 Step-by-Step Action Plan\n\n")
	for _, step := range p.ActionPlan {
		sb.WriteString(fmt.Sprintf("### Step %d: %s\n", step.Step, step.Title))
		sb.WriteString(step.Description + "\n\n")
		if step.FundSuggestion != "" {
			sb.WriteString(fmt.Sprintf("**Suggested Fund:** %s\n\n", step.FundSuggestion))
		}
		sb.WriteString("**Instructions:**\n")
		for i, instruction := range step.Instructions {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, instruction))
		}
		if step.EstimatedTime != "" {
			sb.WriteString(fmt.Sprintf("\n*Estimated time: %s*\n", step.EstimatedTime))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## 🏪 Platform Suggestions\n\n")
	sb.WriteString("**Recommended Platforms:**\n")
	for _, platform := range p.PlatformSuggestions["general"] {
		sb.WriteString(fmt.Sprintf("• **%s** - User-friendly, low fees, good for beginners\n", platform))
	}
	if mf := p.PlatformSuggestions["mutual_funds"]; len(mf) > 0 {
		sb.WriteString("\n**For Mutual Funds:**\n")
		for _, platform := range mf {
			sb.WriteString("• " + platform + "\n")
		}
	}
	if etf := p.PlatformSuggestions["etf"]; len(etf) > 0 {
		sb.WriteString("\n**For ETFs:**\n")
		for _, platform := range etf {
			sb.WriteString("• " + platform + "\n")
		}
	}
	sb.WriteString("\n*Note: All platforms are regulated by SEBI. Choose based on your comfort and features you need.*\n")

	return sb.String()
}
