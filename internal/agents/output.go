package agents

import (
	"fmt"
	"sort"
	"strings"

	"CoPenny/internal/domain/models"
)

// Formatter assembles the final answer text. It is a pure function of
// its inputs: no LLM call, byte-identical output for identical inputs.
type Formatter struct{}

// NewFormatter creates the output stage.
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Format builds the strategy response envelope.
func (f *Formatter) Format(
	strategy *models.Strategy,
	assessment *models.RiskAssessment,
	insights *models.TransactionSummary,
	sources []models.Chunk,
) *models.ChatResponse {
	var parts []string

	if strategy != nil && strategy.StrategySummary != "" {
		parts = append(parts, "**Investment Strategy:**\n"+strategy.StrategySummary)
	}

	recommendations := models.EffectiveRecommendations(strategy, assessment)
	if len(recommendations) > 0 {
		parts = append(parts, "\n**Recommended Allocation:**")
		top := recommendations
		if len(top) > 5 {
			top = top[:5]
		}
		for _, rec := range top {
			category := rec.Category
			if category == "" {
				category = "Unknown"
			}
			parts = append(parts, fmt.Sprintf("- **%s**: %.0f%% - %s", category, rec.EffectiveAllocation(), rec.Rationale))
		}
	}

	if assessment != nil && len(assessment.RiskWarnings) > 0 {
		parts = append(parts, "\n**Risk Considerations:**")
		warnings := assessment.RiskWarnings
		if len(warnings) > 3 {
			warnings = warnings[:3]
		}
		for _, w := range warnings {
			parts = append(parts, "- "+w)
		}
	}

	if insights != nil {
		parts = append(parts, "\n**Your Financial Patterns:**")
		if insights.MonthlyAverage != 0 {
			parts = append(parts, fmt.Sprintf("- Monthly spending: ₹%.0f", insights.MonthlyAverage))
		}
		if insights.SavingsRate != 0 {
			parts = append(parts, fmt.Sprintf("- Savings rate: %.1f%%", insights.SavingsRate))
		}
	}

	if strategy != nil && len(strategy.ActionItems) > 0 {
		parts = append(parts, "\n**Next Steps:**")
		items := strategy.ActionItems
		if len(items) > 5 {
			items = items[:5]
		}
		for _, item := range items {
			parts = append(parts, "- "+item)
		}
	}

	if titles := sourceTitles(sources); len(titles) > 0 {
		parts = append(parts, fmt.Sprintf("\n*Based on insights from: %s*", strings.Join(titles, ", ")))
	}

	resp := &models.ChatResponse{
		Answer: strings.Join(parts, "\n"),
		Status: models.StatusSuccess,
		Type:   models.TypeStrategy,
		Metadata: map[string]interface{}{
			"knowledge_sources_count": len(sources),
		},
		Data: map[string]interface{}{
			"strategy":        strategy,
			"risk_assessment": assessment,
		},
	}
	if assessment != nil {
		resp.Metadata["risk_score"] = assessment.RiskScore
		resp.Metadata["risk_alignment"] = assessment.RiskAlignment
		resp.Metadata["suitability"] = assessment.Suitability
	}
	return resp
}

// FormatSimple builds a plain text response for non-strategy queries.
func (f *Formatter) FormatSimple(answer string, sources []models.Chunk) *models.ChatResponse {
	resp := &models.ChatResponse{
		Answer: answer,
		Status: models.StatusSuccess,
		Type:   models.TypeText,
	}
	if titles := sourceTitles(sources); len(titles) > 0 {
		resp.Metadata = map[string]interface{}{
			"knowledge_sources": titles,
		}
	}
	return resp
}

// sourceTitles returns up to 3 distinct titles from the first 3 chunks,
// sorted for deterministic output.
func sourceTitles(sources []models.Chunk) []string {
	head := sources
	if len(head) > 3 {
		head = head[:3]
	}
	seen := make(map[string]struct{})
	var titles []string
	for _, c := range head {
		title := c.Metadata.Title
		if title == "" {
			continue
		}
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}
