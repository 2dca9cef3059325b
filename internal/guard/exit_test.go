package guard

import "testing"

func TestTrailPercentScenario(t *testing.T) {
	cfg := ExitConfig{TrailMode: TrailPercent, TrailPct: 0.1}
	st := &PositionState{}

	// Peak reaches 112; threshold is 100.8. None of these trigger.
	for _, p := range []float64{100, 105, 112, 110, 101} {
		d := EvaluateExit(cfg, st, p, nil)
		if d.Exit {
			t.Fatalf("price %v must not trigger exit: %+v", p, d)
		}
	}
	if peak, ok := st.Peak(); !ok || peak != 112 {
		t.Fatalf("peak = %v, want 112", peak)
	}

	d := EvaluateExit(cfg, st, 100, nil)
	if !d.Exit || d.Reason != ExitReasonTrailPercent || d.PartialFraction != 1.0 {
		t.Fatalf("price 100 must trigger full trail exit, got %+v", d)
	}
}

func TestTrailPercentExactBoundary(t *testing.T) {
	cfg := ExitConfig{TrailMode: TrailPercent, TrailPct: 0.1}
	st := &PositionState{}
	EvaluateExit(cfg, st, 100, nil)

	// Pullback exactly equal to the trail percent triggers.
	d := EvaluateExit(cfg, st, 90, nil)
	if !d.Exit || d.Reason != ExitReasonTrailPercent {
		t.Fatalf("pullback equal to trail_percent must exit, got %+v", d)
	}
}

func TestTimeStop(t *testing.T) {
	cfg := ExitConfig{TrailMode: TrailPercent, TrailPct: 0.5, TimeStopBars: 3}
	st := &PositionState{}

	for bar, p := range []float64{100, 101, 102} {
		st.BarsSinceEntry = bar
		d := EvaluateExit(cfg, st, p, nil)
		if d.Exit {
			t.Fatalf("bar %d must not exit: %+v", bar, d)
		}
	}

	st.BarsSinceEntry = 3
	d := EvaluateExit(cfg, st, 103, nil)
	if !d.Exit || d.Reason != ExitReasonTimeStop || d.PartialFraction != 1.0 {
		t.Fatalf("bar 3 must trigger time stop, got %+v", d)
	}
}

func TestTimeStopZeroDisables(t *testing.T) {
	cfg := ExitConfig{TrailMode: TrailPercent, TrailPct: 0.5, TimeStopBars: 0}
	st := &PositionState{BarsSinceEntry: 1000}
	if d := EvaluateExit(cfg, st, 100, nil); d.Exit {
		t.Fatalf("time_stop_bars=0 must never force an exit, got %+v", d)
	}
}

func TestTrailWinsOverTimeStop(t *testing.T) {
	cfg := ExitConfig{TrailMode: TrailPercent, TrailPct: 0.05, TimeStopBars: 2}
	st := &PositionState{BarsSinceEntry: 5}
	EvaluateExit(ExitConfig{}, st, 100, nil) // seed peak only

	d := EvaluateExit(cfg, st, 90, nil)
	if d.Reason != ExitReasonTrailPercent {
		t.Fatalf("trail rule precedes time stop, got %+v", d)
	}
}

func TestATRModeIsInert(t *testing.T) {
	atr := 2.5
	cfg := ExitConfig{TrailMode: TrailATR, TrailPct: 0.1}
	st := &PositionState{}
	EvaluateExit(cfg, st, 100, &atr)

	// A pullback that would trip the percent rule does nothing under atr.
	d := EvaluateExit(cfg, st, 50, &atr)
	if d.Exit {
		t.Fatalf("atr mode performs no trailing yet, got %+v", d)
	}
	if peak, _ := st.Peak(); peak != 100 {
		t.Fatalf("peak tracking still runs under atr mode, got %v", peak)
	}
}

func TestPartialLevelsNeverEmit(t *testing.T) {
	cfg := ExitConfig{
		TrailMode:      TrailPercent,
		TrailPct:       0.5,
		PartialEnabled: true,
		PartialLevels:  []PartialLevel{{RR: 1, Fraction: 0.5}, {RR: 2, Fraction: 0.5}},
	}
	st := &PositionState{}
	st.SetInitialR(2)
	EvaluateExit(cfg, st, 100, nil)

	// Large favorable move; partial path is declared but inert.
	d := EvaluateExit(cfg, st, 140, nil)
	if d.Exit || d.PartialFraction != 0 {
		t.Fatalf("partial exits must stay inert, got %+v", d)
	}
	if st.PartialExited != 0 {
		t.Fatalf("no partial fraction may accrue, got %v", st.PartialExited)
	}
}

func TestPeakUpdatesEvenWithoutExit(t *testing.T) {
	cfg := ExitConfig{TrailMode: TrailPercent, TrailPct: 0.2}
	st := &PositionState{}
	for _, p := range []float64{100, 120, 110, 130} {
		EvaluateExit(cfg, st, p, nil)
	}
	if peak, _ := st.Peak(); peak != 130 {
		t.Fatalf("peak = %v, want 130", peak)
	}
}
