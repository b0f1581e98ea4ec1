package models

import "time"

// Quote is the latest trade observed for a symbol.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// MarketContext is the market snippet injected into strategy prompts.
type MarketContext struct {
	Conditions string            `json:"conditions"`
	Indicators map[string]string `json:"indicators"`
	AsOf       time.Time         `json:"as_of"`
}
