package models

import "time"

// User is a registered account.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	Name         string    `json:"name" bson:"name"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// Profile is a user's investing profile.
type Profile struct {
	UserID        string    `json:"user_id" bson:"_id"`
	RiskTolerance string    `json:"risk_tolerance" bson:"risk_tolerance"`
	Goals         string    `json:"goals" bson:"goals"`
	TimeHorizon   string    `json:"time_horizon" bson:"time_horizon"`
	MonthlyIncome float64   `json:"monthly_income" bson:"monthly_income"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// RiskProfile converts the stored profile into the pipeline's shape.
func (p *Profile) RiskProfile() *RiskProfile {
	if p == nil {
		return nil
	}
	return &RiskProfile{
		RiskTolerance: p.RiskTolerance,
		Goals:         p.Goals,
		TimeHorizon:   p.TimeHorizon,
	}
}

// CSVMetadata records a user's uploaded transactions file.
type CSVMetadata struct {
	UserID     string    `json:"user_id" bson:"_id"`
	Filename   string    `json:"filename" bson:"filename"`
	Rows       int       `json:"rows" bson:"rows"`
	Columns    []string  `json:"columns" bson:"columns"`
	UploadedAt time.Time `json:"uploaded_at" bson:"uploaded_at"`
}

// ModelInfo is the per-user feature snapshot stored at upload time.
type ModelInfo struct {
	UserID         string             `json:"user_id" bson:"_id"`
	MonthlyTotals  map[string]float64 `json:"monthly_totals" bson:"monthly_totals"`
	CategoryShares map[string]float64 `json:"category_shares" bson:"category_shares"`
	SpikeThreshold float64            `json:"spike_threshold" bson:"spike_threshold"`
	TrainedAt      time.Time          `json:"trained_at" bson:"trained_at"`
}

// Subscription tiers.
const (
	TierFree       = "free"
	TierPro        = "pro"
	TierEnterprise = "enterprise"
)

// TierLimits are the feature gates of a subscription tier.
type TierLimits struct {
	Transactions int `json:"transactions"`
	AIQueries    int `json:"ai_queries"`
}

// Limits maps tier name to its gates. A limit of -1 means unlimited.
var Limits = map[string]TierLimits{
	TierFree:       {Transactions: 500, AIQueries: 20},
	TierPro:        {Transactions: 10000, AIQueries: 500},
	TierEnterprise: {Transactions: -1, AIQueries: -1},
}

// Subscription is a user's plan and usage counters.
type Subscription struct {
	UserID    string    `json:"user_id" bson:"_id"`
	Tier      string    `json:"tier" bson:"tier"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
	Usage     Usage     `json:"usage" bson:"usage"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Usage counts consumed quota within the current period.
type Usage struct {
	Transactions int `json:"transactions" bson:"transactions"`
	AIQueries    int `json:"ai_queries" bson:"ai_queries"`
}

// CanQuery reports whether the subscription still has AI query quota.
func (s *Subscription) CanQuery() bool {
	lim, ok := Limits[s.Tier]
	if !ok {
		lim = Limits[TierFree]
	}
	return lim.AIQueries < 0 || s.Usage.AIQueries < lim.AIQueries
}
