package guard

import "math"

// TrailMode selects the trailing-stop rule.
type TrailMode string

const (
	// TrailPercent exits fully when price pulls back from peak by TrailPct.
	TrailPercent TrailMode = "percent"
	// TrailATR is a recognized mode with no trailing computation yet. It is
	// kept decision-inert on purpose so callers can configure it ahead of
	// the ATR rule landing; do not treat it as a percent alias.
	TrailATR TrailMode = "atr"
)

// Exit decision reasons.
const (
	ExitReasonTrailPercent = "trail_percent"
	ExitReasonTimeStop     = "time_stop"
)

// PartialLevel is a reward-multiple threshold and the fraction to exit there.
// Declared for forward compatibility; the partial-exit computation is inert
// until the R-unit conversion is settled.
type PartialLevel struct {
	RR       float64 `json:"rr" yaml:"rr" validate:"gte=0"`
	Fraction float64 `json:"fraction" yaml:"fraction" validate:"gte=0,lte=1"`
}

// ExitConfig holds the exit policy parameters. CooldownBars, DailyLossCapR,
// and FreezeOnExit are configuration surface for caller-side risk management;
// the decision itself does not consume them.
type ExitConfig struct {
	TrailMode      TrailMode      `yaml:"trail_mode"`
	TrailPct       float64        `yaml:"trail_percent"`
	TimeStopBars   int            `yaml:"time_stop_bars"`
	PartialEnabled bool           `yaml:"partial_enabled"`
	PartialLevels  []PartialLevel `yaml:"partial_levels"`
	CooldownBars   int            `yaml:"cooldown_bars"`
	DailyLossCapR  float64        `yaml:"daily_loss_cap_r"`
	FreezeOnExit   bool           `yaml:"freeze_on_exit"`
}

// DefaultExitConfig returns the exit policy defaults.
func DefaultExitConfig() ExitConfig {
	return ExitConfig{
		TrailMode:    TrailPercent,
		TrailPct:     0.1,
		TimeStopBars: 0,
	}
}

// PositionState is per-position mutable state, created at entry and discarded
// at full exit. Owned by the caller; only EvaluateExit mutates the peak.
type PositionState struct {
	peak    float64
	hasPeak bool

	// BarsSinceEntry is incremented by the caller once per bar.
	BarsSinceEntry int
	// PartialExited is the cumulative fraction already exited via partials.
	PartialExited float64

	initialR    float64
	hasInitialR bool
}

// SetInitialR records the price distance for one unit of risk. Consumed only
// by the (currently inert) partial-exit path.
func (s *PositionState) SetInitialR(r float64) {
	if r > 0 && !math.IsNaN(r) && !math.IsInf(r, 0) {
		s.initialR = r
		s.hasInitialR = true
	}
}

// InitialR returns the R price distance and whether one was set.
func (s *PositionState) InitialR() (float64, bool) { return s.initialR, s.hasInitialR }

// Peak returns the highest price seen since entry and whether any price has
// been observed yet.
func (s *PositionState) Peak() (float64, bool) { return s.peak, s.hasPeak }

// ExitDecision is the outcome of one per-bar evaluation. Reason is empty
// when Exit is false.
type ExitDecision struct {
	Exit            bool    `json:"exit"`
	Reason          string  `json:"reason,omitempty"`
	PartialFraction float64 `json:"partial_fraction"`
}

// EvaluateExit decides once per bar whether to fully or partially exit.
// Rules apply in strict order and are mutually exclusive per call: peak
// tracking always happens first, then percent trail, then time stop. The
// caller guarantees currentPrice is a finite positive number. atrValue is
// accepted for the TrailATR mode, which performs no computation yet.
func EvaluateExit(cfg ExitConfig, state *PositionState, currentPrice float64, atrValue *float64) ExitDecision {
	if !state.hasPeak || currentPrice > state.peak {
		state.peak = currentPrice
		state.hasPeak = true
	}

	switch cfg.TrailMode {
	case TrailPercent:
		if cfg.TrailPct > 0 {
			pullback := (state.peak - currentPrice) / state.peak
			if pullback >= cfg.TrailPct {
				return ExitDecision{Exit: true, Reason: ExitReasonTrailPercent, PartialFraction: 1.0}
			}
		}
	case TrailATR:
		// No trail rule active. atrValue stays unread until the ATR rule
		// is implemented.
		_ = atrValue
	}

	if cfg.TimeStopBars > 0 && state.BarsSinceEntry >= cfg.TimeStopBars {
		return ExitDecision{Exit: true, Reason: ExitReasonTimeStop, PartialFraction: 1.0}
	}

	// Partial exits by reward multiple are declared in configuration but the
	// computation stays a no-op: the initial-R conversion is unresolved, so
	// no partial is ever emitted here.

	return ExitDecision{}
}
