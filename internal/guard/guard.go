// Package guard implements the drawdown entry gate and the exit policy
// evaluator. Both are pure in-memory state machines driven by caller-supplied
// price ticks; persistence, transport, and order execution live elsewhere.
package guard

import (
	"math"
	"time"
)

// EventDownDetected is the kind emitted when a drop from peak arms the gate.
const EventDownDetected = "down_detected"

// Gate decision reasons.
const (
	ReasonDisabled        = "disabled"
	ReasonMinDownDisabled = "min_down_disabled"
	ReasonMinDownNotMet   = "min_down_not_met"
)

// Config holds the entry guard parameters.
type Config struct {
	// Enabled is the master switch; disabled means always pass-through.
	Enabled bool
	// Hazard is a scale parameter reserved for a full change-point model.
	// Validated (must be > 0) but not consumed by the current heuristic.
	Hazard float64
	// MinDown is the relative drop from peak required to arm the gate
	// (0.005 = 0.5%). Zero disables gating with a distinct reason.
	MinDown float64
	// Cooldown is the minimum spacing between emitted detection events.
	// It throttles event visibility only, never the gate state.
	Cooldown time.Duration
}

// DefaultConfig returns the guard defaults used when no config section is set.
func DefaultConfig() Config {
	return Config{
		Enabled:  true,
		Hazard:   250,
		MinDown:  0.005,
		Cooldown: 30 * time.Second,
	}
}

// ConfigUpdate is a partial reconfiguration. Nil fields are left untouched;
// fields that fail validation are silently skipped so one bad value from an
// admin endpoint cannot wedge the rest of the update.
type ConfigUpdate struct {
	Enabled  *bool
	Hazard   *float64
	MinDown  *float64
	Cooldown *time.Duration
}

// Event is a detection event forwarded by callers to logging and alerting.
type Event struct {
	TS    time.Time `json:"ts"`
	Kind  string    `json:"kind"`
	Drop  float64   `json:"drop"`
	Peak  float64   `json:"peak"`
	Price float64   `json:"price"`
}

// Decision is the answer to "is entry currently allowed?".
type Decision struct {
	AllowEntry bool     `json:"allow_entry"`
	Reasons    []string `json:"reasons"`
	State      Snapshot `json:"state"`
}

// Snapshot is a read-only view of configuration and state for diagnostics.
// Optional prices are nil until the first valid tick is seen.
type Snapshot struct {
	Enabled      bool          `json:"enabled"`
	Hazard       float64       `json:"hazard"`
	MinDown      float64       `json:"min_down"`
	Cooldown     time.Duration `json:"cooldown"`
	PeakPrice    *float64      `json:"peak_price,omitempty"`
	LastPrice    *float64      `json:"last_price,omitempty"`
	DownDetected bool          `json:"down_detected"`
	LastEventAt  time.Time     `json:"last_event_at,omitempty"`
}

// EntryGuard tracks a running peak over a price stream and flags a
// sufficient-drop condition gating new entries. One instance per
// symbol/session; callers serialize access externally.
type EntryGuard struct {
	cfg Config

	peak    float64
	hasPeak bool
	last    float64
	hasLast bool

	downDetected bool
	lastEventAt  time.Time
}

// New creates an entry guard with the given configuration. Invalid values
// fall back to defaults field-by-field, mirroring Configure semantics.
func New(cfg Config) *EntryGuard {
	g := &EntryGuard{cfg: DefaultConfig()}
	g.Configure(ConfigUpdate{
		Enabled:  &cfg.Enabled,
		Hazard:   &cfg.Hazard,
		MinDown:  &cfg.MinDown,
		Cooldown: &cfg.Cooldown,
	})
	return g
}

// Configure applies a partial update. Invalid values are ignored without
// error; valid fields still apply.
func (g *EntryGuard) Configure(u ConfigUpdate) {
	if u.Enabled != nil {
		g.cfg.Enabled = *u.Enabled
	}
	if u.Hazard != nil && *u.Hazard > 0 && !math.IsInf(*u.Hazard, 0) && !math.IsNaN(*u.Hazard) {
		g.cfg.Hazard = *u.Hazard
	}
	if u.MinDown != nil && *u.MinDown >= 0 && !math.IsInf(*u.MinDown, 0) && !math.IsNaN(*u.MinDown) {
		g.cfg.MinDown = *u.MinDown
	}
	if u.Cooldown != nil && *u.Cooldown >= 0 {
		g.cfg.Cooldown = *u.Cooldown
	}
}

// Update feeds one tick into the detector. A zero ts means wall-clock time;
// callers replaying stored ticks supply their own timestamps for determinism.
// Returns a detection event when a drop first crosses MinDown and the
// cooldown window has elapsed, nil otherwise. Malformed prices are absorbed
// as no-ops so upstream glitches cannot corrupt the detector.
func (g *EntryGuard) Update(price float64, ts time.Time) *Event {
	if !g.cfg.Enabled {
		// No detection progresses while disabled; still track the last
		// finite price so status stays informative.
		if !math.IsNaN(price) && !math.IsInf(price, 0) {
			g.last = price
			g.hasLast = true
		}
		return nil
	}
	if !validPrice(price) {
		return nil
	}
	now := ts
	if now.IsZero() {
		now = time.Now()
	}

	if !g.hasPeak {
		g.peak = price
		g.hasPeak = true
		g.last = price
		g.hasLast = true
		return nil
	}

	if price > g.peak {
		// A new high invalidates any prior drop signal.
		g.peak = price
		g.last = price
		g.downDetected = false
		return nil
	}

	drop := 0.0
	if g.peak > 0 {
		drop = (g.peak - price) / g.peak
	}
	g.last = price
	g.hasLast = true

	if g.downDetected && g.cfg.MinDown > 0 && drop < g.cfg.MinDown {
		// Price recovered back inside the band.
		g.downDetected = false
		return nil
	}

	if !g.downDetected && g.cfg.MinDown > 0 && drop >= g.cfg.MinDown {
		g.downDetected = true
		if now.Sub(g.lastEventAt) >= g.cfg.Cooldown {
			g.lastEventAt = now
			return &Event{TS: now, Kind: EventDownDetected, Drop: drop, Peak: g.peak, Price: price}
		}
	}
	return nil
}

// Evaluate answers whether entry is currently allowed. Read-only: callers
// are expected to Update on each tick and Evaluate to query the gate.
func (g *EntryGuard) Evaluate() Decision {
	d := Decision{State: g.Status()}
	switch {
	case !g.cfg.Enabled:
		d.AllowEntry = true
		d.Reasons = []string{ReasonDisabled}
	case g.cfg.MinDown <= 0:
		d.AllowEntry = true
		d.Reasons = []string{ReasonMinDownDisabled}
	default:
		d.AllowEntry = g.downDetected
		if !d.AllowEntry {
			d.Reasons = []string{ReasonMinDownNotMet}
		}
	}
	return d
}

// OnEntryFilled re-anchors the peak at the fill price and clears detection.
// The last event timestamp survives so cooldown visibility persists across
// fills.
func (g *EntryGuard) OnEntryFilled(price float64) {
	if validPrice(price) {
		g.peak = price
		g.hasPeak = true
	}
	g.downDetected = false
}

// Status snapshots all configuration and state fields.
func (g *EntryGuard) Status() Snapshot {
	s := Snapshot{
		Enabled:      g.cfg.Enabled,
		Hazard:       g.cfg.Hazard,
		MinDown:      g.cfg.MinDown,
		Cooldown:     g.cfg.Cooldown,
		DownDetected: g.downDetected,
		LastEventAt:  g.lastEventAt,
	}
	if g.hasPeak {
		p := g.peak
		s.PeakPrice = &p
	}
	if g.hasLast {
		l := g.last
		s.LastPrice = &l
	}
	return s
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}
