package models

// RiskAssessment is the output of the risk stage. When
// AdjustedRecommendations is non-empty it supersedes the strategy's
// recommendations in every downstream consumer.
type RiskAssessment struct {
	RiskAlignment           string           `json:"risk_alignment"`
	RiskScore               int              `json:"risk_score"`
	AdjustmentsNeeded       bool             `json:"adjustments_needed"`
	AdjustedRecommendations []Recommendation `json:"adjusted_recommendations"`
	RiskWarnings            []string         `json:"risk_warnings"`
	Suitability             string           `json:"suitability"`
}

// EffectiveRecommendations resolves the risk-over-strategy precedence in
// one place: risk-adjusted recommendations win whenever they exist.
func EffectiveRecommendations(s *Strategy, r *RiskAssessment) []Recommendation {
	if r != nil && len(r.AdjustedRecommendations) > 0 {
		return r.AdjustedRecommendations
	}
	if s == nil {
		return nil
	}
	return s.Recommendations
}
