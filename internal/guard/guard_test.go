package guard

import (
	"math"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{Enabled: true, Hazard: 250, MinDown: 0.005, Cooldown: 0}
}

func tick(sec int) time.Time {
	return time.Date(2024, 10, 10, 10, 0, sec, 0, time.UTC)
}

func TestPeakMonotonic(t *testing.T) {
	g := New(testConfig())
	prices := []float64{100, 99, 104, 101, 104, 110, 90}
	prevPeak := 0.0
	for i, p := range prices {
		g.Update(p, tick(i))
		s := g.Status()
		if s.PeakPrice == nil {
			t.Fatalf("peak unset after update %d", i)
		}
		if *s.PeakPrice < prevPeak {
			t.Fatalf("peak decreased at %d: %v < %v", i, *s.PeakPrice, prevPeak)
		}
		prevPeak = *s.PeakPrice
	}
	if prevPeak != 110 {
		t.Fatalf("expected final peak 110, got %v", prevPeak)
	}
}

func TestNewPeakClearsDetection(t *testing.T) {
	g := New(testConfig())
	g.Update(100, tick(0))
	g.Update(99, tick(1)) // 1% drop, detected
	if !g.Status().DownDetected {
		t.Fatalf("expected detection after 1%% drop")
	}
	g.Update(101, tick(2)) // new high
	if g.Status().DownDetected {
		t.Fatalf("new peak must clear detection")
	}
}

func TestDetectionBoundary(t *testing.T) {
	const minDown = 0.005
	cfg := testConfig()
	cfg.MinDown = minDown

	// Drop slightly inside the band must not arm the gate.
	g := New(cfg)
	g.Update(100, tick(0))
	g.Update(100*(1-minDown)+1e-9, tick(1))
	if g.Status().DownDetected {
		t.Fatalf("drop below min_down must not detect")
	}

	// Drop exactly equal to min_down must arm it.
	g = New(cfg)
	g.Update(100, tick(0))
	ev := g.Update(100*(1-minDown), tick(1))
	if !g.Status().DownDetected {
		t.Fatalf("drop equal to min_down must detect")
	}
	if ev == nil || ev.Kind != EventDownDetected {
		t.Fatalf("expected down_detected event, got %+v", ev)
	}
	if ev.Peak != 100 {
		t.Fatalf("event peak = %v, want 100", ev.Peak)
	}
}

func TestRecoveryBoundary(t *testing.T) {
	cfg := testConfig()
	cfg.MinDown = 0.01
	g := New(cfg)
	g.Update(100, tick(0))
	g.Update(98, tick(1))
	if !g.Status().DownDetected {
		t.Fatalf("expected detection")
	}

	// Drop exactly at min_down does not clear.
	g.Update(99, tick(2))
	if !g.Status().DownDetected {
		t.Fatalf("drop equal to min_down must not clear detection")
	}

	// Strictly inside the band clears.
	g.Update(99.5, tick(3))
	if g.Status().DownDetected {
		t.Fatalf("recovery inside band must clear detection")
	}
}

func TestCooldownSuppressesEventsNotState(t *testing.T) {
	cfg := testConfig()
	cfg.Cooldown = 60 * time.Second
	g := New(cfg)

	g.Update(100, tick(0))
	ev := g.Update(99, tick(1))
	if ev == nil {
		t.Fatalf("first qualifying drop must emit an event")
	}
	if !g.Status().DownDetected {
		t.Fatalf("expected detection")
	}

	// Recover, then drop again inside the cooldown window.
	g.Update(99.9, tick(2))
	if g.Status().DownDetected {
		t.Fatalf("expected recovery")
	}
	ev = g.Update(99, tick(3))
	if ev != nil {
		t.Fatalf("event within cooldown must be suppressed, got %+v", ev)
	}
	if !g.Status().DownDetected {
		t.Fatalf("cooldown must not suppress the state transition")
	}

	// Past the window, events flow again.
	g.Update(99.9, tick(4))
	ev = g.Update(99, tick(70))
	if ev == nil {
		t.Fatalf("expected event after cooldown elapsed")
	}
}

func TestDisabledPassThrough(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	g := New(cfg)
	g.Update(100, tick(0))
	g.Update(90, tick(1))

	d := g.Evaluate()
	if !d.AllowEntry {
		t.Fatalf("disabled guard must allow entry")
	}
	if len(d.Reasons) != 1 || d.Reasons[0] != ReasonDisabled {
		t.Fatalf("reasons = %v, want [disabled]", d.Reasons)
	}
	if d.State.PeakPrice != nil {
		t.Fatalf("no detection must progress while disabled")
	}
	if d.State.LastPrice == nil || *d.State.LastPrice != 90 {
		t.Fatalf("disabled guard still records last price")
	}
}

func TestMinDownZeroPassThrough(t *testing.T) {
	cfg := testConfig()
	cfg.MinDown = 0
	g := New(cfg)
	g.Update(100, tick(0))
	g.Update(50, tick(1))

	d := g.Evaluate()
	if !d.AllowEntry {
		t.Fatalf("min_down=0 must allow entry")
	}
	if len(d.Reasons) != 1 || d.Reasons[0] != ReasonMinDownDisabled {
		t.Fatalf("reasons = %v, want [min_down_disabled]", d.Reasons)
	}
}

func TestGateBlocksUntilDrop(t *testing.T) {
	g := New(testConfig())
	g.Update(100, tick(0))
	d := g.Evaluate()
	if d.AllowEntry {
		t.Fatalf("gate must block before a qualifying drop")
	}
	if len(d.Reasons) != 1 || d.Reasons[0] != ReasonMinDownNotMet {
		t.Fatalf("reasons = %v, want [min_down_not_met]", d.Reasons)
	}

	g.Update(99, tick(1))
	if !g.Evaluate().AllowEntry {
		t.Fatalf("gate must open after qualifying drop")
	}
}

func TestEvaluateBeforeAnyUpdate(t *testing.T) {
	g := New(testConfig())
	d := g.Evaluate()
	if d.AllowEntry {
		t.Fatalf("unarmed gate must block")
	}
	if d.State.PeakPrice != nil || d.State.LastPrice != nil {
		t.Fatalf("prices must be unset before first tick")
	}
}

func TestFillResetsGuard(t *testing.T) {
	g := New(testConfig())
	g.Update(120, tick(0))
	g.Update(100, tick(1))
	if !g.Status().DownDetected {
		t.Fatalf("expected detection")
	}

	g.OnEntryFilled(100)
	s := g.Status()
	if s.DownDetected {
		t.Fatalf("fill must clear detection")
	}
	if s.PeakPrice == nil || *s.PeakPrice != 100 {
		t.Fatalf("fill must re-anchor peak at fill price, got %+v", s.PeakPrice)
	}
	if s.LastEventAt.IsZero() {
		t.Fatalf("fill must preserve last event timestamp")
	}
}

func TestFillWithInvalidPriceClearsOnly(t *testing.T) {
	g := New(testConfig())
	g.Update(120, tick(0))
	g.Update(100, tick(1))
	g.OnEntryFilled(-1)
	s := g.Status()
	if s.DownDetected {
		t.Fatalf("fill must clear detection even with invalid price")
	}
	if s.PeakPrice == nil || *s.PeakPrice != 120 {
		t.Fatalf("invalid fill price must not move the peak")
	}
}

func TestMalformedTicksAbsorbed(t *testing.T) {
	g := New(testConfig())
	g.Update(100, tick(0))
	for _, p := range []float64{0, -5, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if ev := g.Update(p, tick(1)); ev != nil {
			t.Fatalf("malformed price %v must be a no-op", p)
		}
	}
	s := g.Status()
	if *s.PeakPrice != 100 || *s.LastPrice != 100 {
		t.Fatalf("malformed ticks must not change state: %+v", s)
	}
}

func TestEqualToPeakIsNotNewPeak(t *testing.T) {
	g := New(testConfig())
	g.Update(100, tick(0))
	g.Update(99, tick(1))
	if !g.Status().DownDetected {
		t.Fatalf("expected detection")
	}
	// Price equal to peak is drop=0, strictly inside the band: recovery.
	g.Update(100, tick(2))
	s := g.Status()
	if s.DownDetected {
		t.Fatalf("price back at peak must clear detection")
	}
	if *s.PeakPrice != 100 {
		t.Fatalf("price equal to peak must not record a new peak")
	}
}

func TestConfigureSkipsInvalidFields(t *testing.T) {
	g := New(testConfig())
	badHazard := -1.0
	goodMinDown := 0.02
	badCooldown := -time.Second
	g.Configure(ConfigUpdate{Hazard: &badHazard, MinDown: &goodMinDown, Cooldown: &badCooldown})

	s := g.Status()
	if s.Hazard != 250 {
		t.Fatalf("invalid hazard must be ignored, got %v", s.Hazard)
	}
	if s.MinDown != 0.02 {
		t.Fatalf("valid min_down must apply, got %v", s.MinDown)
	}
	if s.Cooldown != 0 {
		t.Fatalf("invalid cooldown must be ignored, got %v", s.Cooldown)
	}
}

func TestDeterministicReplay(t *testing.T) {
	prices := []float64{100, 101, 100.2, 99.8, 100.5, 99.1, 102, 101.2}
	run := func() []Event {
		g := New(testConfig())
		var evs []Event
		for i, p := range prices {
			if ev := g.Update(p, tick(i)); ev != nil {
				evs = append(evs, *ev)
			}
		}
		return evs
	}
	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("replay diverged: %d vs %d events", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("replay diverged at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}
