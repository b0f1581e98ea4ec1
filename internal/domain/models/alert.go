package models

import "time"

// Alert types.
const (
	AlertLargeTransaction = "large_transaction"
	AlertHighExpense      = "high_expense"
	AlertDataQuality      = "data_quality"
)

// Alert severities.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Alert is one cashflow alert raised for a user.
type Alert struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Type      string    `json:"type" bson:"type"`
	Severity  string    `json:"severity" bson:"severity"`
	Title     string    `json:"title" bson:"title"`
	Message   string    `json:"message" bson:"message"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
