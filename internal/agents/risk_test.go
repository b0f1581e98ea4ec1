package agents

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestAssessErrorFallback(t *testing.T) {
	r := NewRiskAssessor(&fakeCompleter{err: errors.New("timeout")})
	assessment := r.Assess(context.Background(), nil, nil, nil)

	if assessment.RiskAlignment != "unknown" || assessment.Suitability != "unknown" {
		t.Fatalf("unexpected fallback: %+v", assessment)
	}
	if assessment.RiskScore != 5 {
		t.Fatalf("unexpected score %d", assessment.RiskScore)
	}
	if len(assessment.RiskWarnings) != 1 || !strings.Contains(assessment.RiskWarnings[0], "timeout") {
		t.Fatalf("error not carried in warning: %v", assessment.RiskWarnings)
	}
}

func TestAssessGarbageReplyNeutral(t *testing.T) {
	r := NewRiskAssessor(&fakeCompleter{reply: "looks fine to me"})
	assessment := r.Assess(context.Background(), nil, nil, nil)

	if assessment.RiskAlignment != "medium" || assessment.Suitability != "suitable" {
		t.Fatalf("unexpected neutral assessment: %+v", assessment)
	}
	if assessment.AdjustedRecommendations == nil || assessment.RiskWarnings == nil {
		t.Fatalf("neutral slices must be non-nil: %+v", assessment)
	}
}

func TestAssessDecodesReply(t *testing.T) {
	r := NewRiskAssessor(&fakeCompleter{reply: `{
		"risk_alignment": "low",
		"risk_score": 8,
		"adjustments_needed": true,
		"adjusted_recommendations": [
			{"category": "Equity", "allocation_percentage": 70, "adjusted_allocation": 40, "rationale": "too hot"}
		],
		"risk_warnings": ["high equity exposure"],
		"suitability": "moderately_suitable"
	}`})
	assessment := r.Assess(context.Background(), nil, nil, nil)

	if assessment.RiskScore != 8 || !assessment.AdjustmentsNeeded {
		t.Fatalf("assessment not decoded: %+v", assessment)
	}
	if len(assessment.AdjustedRecommendations) != 1 {
		t.Fatalf("adjusted recommendations not decoded: %+v", assessment)
	}
	rec := assessment.AdjustedRecommendations[0]
	if rec.AdjustedAllocation == nil || *rec.AdjustedAllocation != 40 {
		t.Fatalf("adjusted allocation not decoded: %+v", rec)
	}
	if rec.EffectiveAllocation() != 40 {
		t.Fatalf("effective allocation should prefer adjustment, got %v", rec.EffectiveAllocation())
	}
}
