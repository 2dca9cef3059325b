package models

import "time"

// Tick is a single trade observation from a market-data feed.
type Tick struct {
	Symbol    string
	Timestamp int64 // unix seconds
	Price     float64
	Volume    float64
}

// Candle is an OHLCV record used to warm guards from recent history.
type Candle struct {
	Bucket time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// GuardEvent is a persisted detection event, a guard.Event plus the session
// context the core itself does not know about.
type GuardEvent struct {
	Symbol string    `json:"symbol"`
	TS     time.Time `json:"ts"`
	Kind   string    `json:"kind"`
	Drop   float64   `json:"drop"`
	Peak   float64   `json:"peak"`
	Price  float64   `json:"price"`
	Source string    `json:"source"` // "live" or "replay"
}

// ReplayJob is a request to re-run stored ticks through a fresh guard.
type ReplayJob struct {
	Symbol string    `json:"symbol"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
}
