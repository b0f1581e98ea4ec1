package agents

import (
	"fmt"
	"strings"
	"testing"

	"CoPenny/internal/domain/models"
)

func sampleStrategy() *models.Strategy {
	return &models.Strategy{
		StrategySummary: "Balanced equity-debt split suited to a moderate profile.",
		Recommendations: []models.Recommendation{
			{Category: "Equity", AllocationPercentage: 60, Rationale: "growth"},
			{Category: "Debt", AllocationPercentage: 40, Rationale: "stability"},
		},
		ActionItems: []string{"Start a monthly SIP", "Build an emergency fund"},
	}
}

func TestFormatDeterministic(t *testing.T) {
	f := NewFormatter()
	assessment := &models.RiskAssessment{RiskScore: 4, RiskAlignment: "high", Suitability: "suitable"}
	sources := []models.Chunk{
		{Content: "a", Metadata: models.ChunkMetadata{Title: "Zeta Guide"}},
		{Content: "b", Metadata: models.ChunkMetadata{Title: "Alpha Guide"}},
	}

	first := f.Format(sampleStrategy(), assessment, nil, sources)
	second := f.Format(sampleStrategy(), assessment, nil, sources)
	if first.Answer != second.Answer {
		t.Fatalf("format is not deterministic:\n%s\n---\n%s", first.Answer, second.Answer)
	}
	// Titles sorted regardless of retrieval order.
	if !strings.Contains(first.Answer, "Alpha Guide, Zeta Guide") {
		t.Fatalf("source titles not sorted: %s", first.Answer)
	}
}

func TestFormatRiskOverridePrecedence(t *testing.T) {
	f := NewFormatter()
	strategy := sampleStrategy()
	adjusted := 35.0
	assessment := &models.RiskAssessment{
		AdjustedRecommendations: []models.Recommendation{
			{Category: "Equity", AllocationPercentage: 60, AdjustedAllocation: &adjusted, Rationale: "too aggressive"},
		},
	}

	resp := f.Format(strategy, assessment, nil, nil)
	if !strings.Contains(resp.Answer, "**Equity**: 35%") {
		t.Fatalf("adjusted allocation not used: %s", resp.Answer)
	}
	if strings.Contains(resp.Answer, "**Debt**") {
		t.Fatalf("strategy recommendations should be superseded: %s", resp.Answer)
	}
}

func TestFormatCapsRecommendationsAndWarnings(t *testing.T) {
	f := NewFormatter()
	strategy := &models.Strategy{StrategySummary: "s"}
	for i := 1; i <= 7; i++ {
		strategy.Recommendations = append(strategy.Recommendations, models.Recommendation{
			Category:             fmt.Sprintf("Bucket%d", i),
			AllocationPercentage: 10,
		})
	}
	assessment := &models.RiskAssessment{
		RiskWarnings: []string{"w1", "w2", "w3", "w4"},
	}

	resp := f.Format(strategy, assessment, nil, nil)
	if !strings.Contains(resp.Answer, "Bucket5") || strings.Contains(resp.Answer, "Bucket6") {
		t.Fatalf("recommendations not capped at 5: %s", resp.Answer)
	}
	if !strings.Contains(resp.Answer, "- w3") || strings.Contains(resp.Answer, "- w4") {
		t.Fatalf("warnings not capped at 3: %s", resp.Answer)
	}
}

func TestFormatMetadata(t *testing.T) {
	f := NewFormatter()
	assessment := &models.RiskAssessment{RiskScore: 7, RiskAlignment: "low", Suitability: "not_suitable"}
	sources := []models.Chunk{{Content: "a", Metadata: models.ChunkMetadata{Title: "T"}}}

	resp := f.Format(sampleStrategy(), assessment, nil, sources)
	if resp.Type != models.TypeStrategy || resp.Status != models.StatusSuccess {
		t.Fatalf("unexpected envelope: type=%q status=%q", resp.Type, resp.Status)
	}
	if resp.Metadata["knowledge_sources_count"] != 1 {
		t.Fatalf("unexpected source count: %v", resp.Metadata["knowledge_sources_count"])
	}
	if resp.Metadata["risk_score"] != 7 {
		t.Fatalf("risk score missing: %v", resp.Metadata)
	}
}

func TestFormatSimple(t *testing.T) {
	f := NewFormatter()
	resp := f.FormatSimple("plain answer", nil)
	if resp.Answer != "plain answer" || resp.Type != models.TypeText {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Metadata != nil {
		t.Fatalf("metadata should be absent without sources: %v", resp.Metadata)
	}

	withSources := f.FormatSimple("x", []models.Chunk{
		{Metadata: models.ChunkMetadata{Title: "Guide"}},
		{Metadata: models.ChunkMetadata{Title: "Guide"}},
	})
	titles, ok := withSources.Metadata["knowledge_sources"].([]string)
	if !ok || len(titles) != 1 || titles[0] != "Guide" {
		t.Fatalf("titles not deduplicated: %v", withSources.Metadata)
	}
}
