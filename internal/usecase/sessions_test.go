package usecase

import (
	"testing"
	"time"

	"TradeGuard/internal/guard"
)

func registryDefaults() guard.Config {
	return guard.Config{Enabled: true, Hazard: 250, MinDown: 0.01, Cooldown: 0}
}

func at(sec int) time.Time {
	return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(sec) * time.Second)
}

func TestSessionIsolation(t *testing.T) {
	r := NewSessionRegistry(registryDefaults())

	r.Update("AAA", 100, at(0))
	ev := r.Update("AAA", 99, at(1))
	if ev == nil {
		t.Fatalf("expected detection event for AAA")
	}

	r.Update("BBB", 100, at(0))
	r.Update("BBB", 99.9, at(1))

	if d := r.Evaluate("AAA"); !d.AllowEntry {
		t.Fatalf("AAA detected a drop, gate should open, reasons=%v", d.Reasons)
	}
	d := r.Evaluate("BBB")
	if d.AllowEntry {
		t.Fatalf("BBB has no detection, gate should stay closed")
	}
	if len(d.Reasons) != 1 || d.Reasons[0] != guard.ReasonMinDownNotMet {
		t.Fatalf("unexpected reasons %v", d.Reasons)
	}
}

func TestStatusBeforeFirstTick(t *testing.T) {
	r := NewSessionRegistry(registryDefaults())

	if _, ok := r.Status("GHOST"); ok {
		t.Fatalf("unknown symbol should have no session")
	}

	r.Update("AAA", 100, at(0))
	snap, ok := r.Status("AAA")
	if !ok {
		t.Fatalf("expected session after first tick")
	}
	if snap.PeakPrice == nil || *snap.PeakPrice != 100 {
		t.Fatalf("unexpected peak %v", snap.PeakPrice)
	}
}

func TestConfigurePerSymbol(t *testing.T) {
	r := NewSessionRegistry(registryDefaults())
	r.Update("AAA", 100, at(0))
	r.Update("BBB", 100, at(0))

	md := 0.05
	r.Configure("AAA", guard.ConfigUpdate{MinDown: &md})

	snapA, _ := r.Status("AAA")
	snapB, _ := r.Status("BBB")
	if snapA.MinDown != 0.05 {
		t.Fatalf("AAA min_down = %v, want 0.05", snapA.MinDown)
	}
	if snapB.MinDown != 0.01 {
		t.Fatalf("BBB min_down changed to %v", snapB.MinDown)
	}
}

func TestSymbolsSorted(t *testing.T) {
	r := NewSessionRegistry(registryDefaults())
	r.Update("ZZZ", 1, at(0))
	r.Update("AAA", 1, at(0))
	r.Update("MMM", 1, at(0))

	syms := r.Symbols()
	if len(syms) != 3 || syms[0] != "AAA" || syms[1] != "MMM" || syms[2] != "ZZZ" {
		t.Fatalf("unexpected symbols %v", syms)
	}
}

func TestSessionKeyNormalization(t *testing.T) {
	r := NewSessionRegistry(registryDefaults())
	r.Update(" aapl ", 100, at(0))

	snap, ok := r.Status("AAPL")
	if !ok {
		t.Fatalf("expected session under normalized key")
	}
	if snap.LastPrice == nil || *snap.LastPrice != 100 {
		t.Fatalf("unexpected last price %v", snap.LastPrice)
	}
	if syms := r.Symbols(); len(syms) != 1 || syms[0] != "AAPL" {
		t.Fatalf("unexpected symbols %v", syms)
	}
}

func TestFillClearsDetection(t *testing.T) {
	r := NewSessionRegistry(registryDefaults())
	r.Update("AAA", 100, at(0))
	r.Update("AAA", 98, at(1))
	if d := r.Evaluate("AAA"); !d.AllowEntry {
		t.Fatalf("expected open gate after detection")
	}

	r.Fill("AAA", 98)
	if d := r.Evaluate("AAA"); d.AllowEntry {
		t.Fatalf("fill should clear detection and close the gate")
	}
}
