package models

// Requests for the guard HTTP endpoints. Defined in domain for consistency
// and reuse; binding and validation happen in pkg/http.

type GateRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type StatusRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type ConfigureRequest struct {
	Symbol      string   `json:"symbol" validate:"required"`
	Enabled     *bool    `json:"enabled,omitempty"`
	Hazard      *float64 `json:"hazard,omitempty" validate:"omitempty,gt=0"`
	MinDown     *float64 `json:"min_down,omitempty" validate:"omitempty,gte=0"`
	CooldownSec *float64 `json:"cooldown_sec,omitempty" validate:"omitempty,gte=0"`
}

type FillRequest struct {
	Symbol string  `json:"symbol" validate:"required"`
	Price  float64 `json:"price" validate:"gt=0"`
}

type ExitEvaluateRequest struct {
	Symbol         string   `json:"symbol" validate:"required"`
	Price          float64  `json:"price" validate:"required,gt=0"`
	PeakPrice      *float64 `json:"peak_price,omitempty" validate:"omitempty,gt=0"`
	BarsSinceEntry int      `json:"bars_since_entry" validate:"gte=0"`
	InitialRPrice  *float64 `json:"initial_r_price,omitempty" validate:"omitempty,gt=0"`
	PartialExited  float64  `json:"partial_exited" validate:"gte=0,lte=1"`
	ATRValue       *float64 `json:"atr_value,omitempty" validate:"omitempty,gt=0"`
}

type EventsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
}

type ReplayRequest struct {
	Symbol string `json:"symbol" validate:"required"`
	From   string `json:"from" validate:"required"`
	To     string `json:"to" validate:"required"`
}
