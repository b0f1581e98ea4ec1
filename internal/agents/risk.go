package agents

import (
	"context"
	"fmt"
	"strings"

	"CoPenny/internal/domain/models"
	"CoPenny/internal/llm"
)

// RiskAssessor validates that a strategy aligns with the user's risk
// profile and produces risk-adjusted recommendations.
type RiskAssessor struct {
	llm Completer
}

// NewRiskAssessor creates the risk stage.
func NewRiskAssessor(c Completer) *RiskAssessor {
	return &RiskAssessor{llm: c}
}

// Assess never returns an error. An unusable reply yields the neutral
// assessment (medium alignment, score 5, suitable); an LLM error yields
// an "unknown" alignment with a warning carrying the error text.
func (r *RiskAssessor) Assess(
	ctx context.Context,
	strategy *models.Strategy,
	profile *models.RiskProfile,
	chunks []models.Chunk,
) *models.RiskAssessment {
	prompt := r.buildPrompt(strategy, profile, chunks)

	reply, err := r.llm.Complete(ctx, prompt, "")
	if err != nil {
		return &models.RiskAssessment{
			RiskAlignment:           "unknown",
			RiskScore:               5,
			AdjustedRecommendations: []models.Recommendation{},
			RiskWarnings:            []string{fmt.Sprintf("Risk assessment error: %v", err)},
			Suitability:             "unknown",
		}
	}

	var assessment models.RiskAssessment
	if !llm.ExtractInto(reply, &assessment) {
		return &models.RiskAssessment{
			RiskAlignment:           "medium",
			RiskScore:               5,
			AdjustedRecommendations: []models.Recommendation{},
			RiskWarnings:            []string{},
			Suitability:             "suitable",
		}
	}
	if assessment.AdjustedRecommendations == nil {
		assessment.AdjustedRecommendations = []models.Recommendation{}
	}
	if assessment.RiskWarnings == nil {
		assessment.RiskWarnings = []string{}
	}
	return &assessment
}

func (r *RiskAssessor) buildPrompt(
	strategy *models.Strategy,
	profile *models.RiskProfile,
	chunks []models.Chunk,
) string {
	tolerance := "moderate"
	goals := ""
	horizon := "medium"
	if profile != nil {
		if profile.RiskTolerance != "" {
			tolerance = profile.RiskTolerance
		}
		goals = profile.Goals
		if profile.TimeHorizon != "" {
			horizon = profile.TimeHorizon
		}
	}

	var sb strings.Builder
	sb.WriteString("You are a risk assessment specialist. Validate and adjust investment strategy based on risk profile.\n\n")
	sb.WriteString("USER RISK PROFILE:\n")
	sb.WriteString(fmt.Sprintf("- Risk tolerance: %s\n", tolerance))
	sb.WriteString(fmt.Sprintf("- Goals: %s\n", goals))
	sb.WriteString(fmt.Sprintf("- Time horizon: %s\n\n", horizon))

	sb.WriteString("PROPOSED STRATEGY:\n")
	summary := "N/A"
	if strategy != nil && strategy.StrategySummary != "" {
		summary = strategy.StrategySummary
	}
	sb.WriteString(summary + "\n")
	if strategy != nil && len(strategy.Recommendations) > 0 {
		sb.WriteString("Recommendations:\n")
		for _, rec := range strategy.Recommendations {
			sb.WriteString(fmt.Sprintf("- %s: %.0f%% (%s)\n", rec.Category, rec.AllocationPercentage, rec.Rationale))
		}
	}

	// Only risk-specific guidance is relevant here.
	riskChunks := models.FilterChunksByType(chunks, "risk_guidance")
	if len(riskChunks) > 0 {
		sb.WriteString("\nRISK GUIDANCE:\n")
		for _, c := range riskChunks {
			sb.WriteString("- " + c.Content + "\n")
		}
	}

	sb.WriteString(`
Assess and provide risk-adjusted feedback in JSON:
{
    "risk_alignment": "high/medium/low (how well strategy matches risk profile)",
    "risk_score": number (1-10, where 10 is highest risk),
    "adjustments_needed": true/false,
    "adjusted_recommendations": [
        {
            "category": "string",
            "allocation_percentage": number,
            "adjusted_allocation": number,
            "rationale": "why adjustment needed"
        }
    ],
    "risk_warnings": ["warning1", "warning2"],
    "suitability": "suitable/moderately_suitable/not_suitable"
}`)

	return sb.String()
}
