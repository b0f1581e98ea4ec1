package agents

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestStrategistFallbackOnError(t *testing.T) {
	s := NewStrategist(&fakeCompleter{err: errors.New("quota exceeded")})
	strategy := s.Generate(context.Background(), "q", nil, nil, nil, nil)

	if !strings.Contains(strategy.StrategySummary, "quota exceeded") {
		t.Fatalf("error not surfaced in summary: %q", strategy.StrategySummary)
	}
	if strategy.TimeHorizon != "medium" {
		t.Fatalf("unexpected time horizon %q", strategy.TimeHorizon)
	}
	if strategy.Recommendations == nil || strategy.ActionItems == nil {
		t.Fatalf("fallback slices must be non-nil: %+v", strategy)
	}
}

func TestStrategistFallbackTruncatesRawReply(t *testing.T) {
	long := strings.Repeat("x", 300)
	s := NewStrategist(&fakeCompleter{reply: long})
	strategy := s.Generate(context.Background(), "q", nil, nil, nil, nil)

	if len(strategy.StrategySummary) != 200 {
		t.Fatalf("summary not truncated to 200, got %d", len(strategy.StrategySummary))
	}
}

func TestStrategistExtractsFencedJSON(t *testing.T) {
	reply := "Here you go:\n```json\n" + `{
		"strategy_summary": "60/40 split",
		"recommendations": [
			{"category": "Equity", "allocation_percentage": 60, "rationale": "growth"}
		],
		"action_items": ["start sip"],
		"time_horizon": "long"
	}` + "\n```"
	s := NewStrategist(&fakeCompleter{reply: reply})
	strategy := s.Generate(context.Background(), "q", nil, nil, nil, nil)

	if strategy.StrategySummary != "60/40 split" {
		t.Fatalf("summary not decoded: %q", strategy.StrategySummary)
	}
	if len(strategy.Recommendations) != 1 || strategy.Recommendations[0].AllocationPercentage != 60 {
		t.Fatalf("recommendations not decoded: %+v", strategy.Recommendations)
	}
	if strategy.TimeHorizon != "long" {
		t.Fatalf("time horizon not decoded: %q", strategy.TimeHorizon)
	}
}

func TestStrategistNormalizesNilSlices(t *testing.T) {
	s := NewStrategist(&fakeCompleter{reply: `{"strategy_summary": "minimal"}`})
	strategy := s.Generate(context.Background(), "q", nil, nil, nil, nil)

	if strategy.Recommendations == nil || strategy.ActionItems == nil {
		t.Fatalf("decoded strategy slices must be non-nil: %+v", strategy)
	}
}
