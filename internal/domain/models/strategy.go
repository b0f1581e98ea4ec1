package models

// Recommendation is one allocation line in an investment strategy.
// AllocationPercentage is 0-100 but percentages across a strategy are not
// guaranteed to sum to 100.
type Recommendation struct {
	Category             string   `json:"category"`
	AllocationPercentage float64  `json:"allocation_percentage"`
	AdjustedAllocation   *float64 `json:"adjusted_allocation,omitempty"`
	Rationale            string   `json:"rationale"`
	SpecificProducts     []string `json:"specific_products,omitempty"`
}

// EffectiveAllocation returns the risk-adjusted allocation when present,
// else the strategy's own percentage.
func (r *Recommendation) EffectiveAllocation() float64 {
	if r.AdjustedAllocation != nil {
		return *r.AdjustedAllocation
	}
	return r.AllocationPercentage
}

// Strategy is the output of the strategy stage.
type Strategy struct {
	StrategySummary string           `json:"strategy_summary"`
	Recommendations []Recommendation `json:"recommendations"`
	ActionItems     []string         `json:"action_items"`
	RiskNotes       string           `json:"risk_notes"`
	TimeHorizon     string           `json:"time_horizon"`
}

// RiskProfile describes a user's investing posture.
type RiskProfile struct {
	RiskTolerance string `json:"risk_tolerance"`
	Goals         string `json:"goals"`
	TimeHorizon   string `json:"time_horizon"`
}
