package usecase

import (
	"testing"

	"TradeGuard/internal/domain/models"
	"TradeGuard/internal/guard"
)

func exitTestConfig() guard.ExitConfig {
	return guard.ExitConfig{TrailMode: guard.TrailPercent, TrailPct: 0.1}
}

func TestExitEvaluateSeedsPeakFromRequest(t *testing.T) {
	m := newFakeMetrics()
	s := NewExitService(exitTestConfig(), m)

	peak := 112.0
	res := s.Evaluate(&models.ExitEvaluateRequest{
		Symbol:    "AAA",
		Price:     100,
		PeakPrice: &peak,
	})

	// Pullback from the carried 112 peak is 10.7%, past the 10% trail.
	if !res.Decision.Exit || res.Decision.Reason != guard.ExitReasonTrailPercent {
		t.Fatalf("unexpected decision %+v", res.Decision)
	}
	if res.PeakPrice != 112 {
		t.Fatalf("peak = %v, want carried 112", res.PeakPrice)
	}
	if m.count("exit:"+guard.ExitReasonTrailPercent) != 1 {
		t.Fatalf("exit metric not recorded")
	}
}

func TestExitEvaluateNoExitReturnsUpdatedPeak(t *testing.T) {
	s := NewExitService(exitTestConfig(), newFakeMetrics())

	peak := 100.0
	res := s.Evaluate(&models.ExitEvaluateRequest{
		Symbol:    "AAA",
		Price:     104,
		PeakPrice: &peak,
	})

	if res.Decision.Exit {
		t.Fatalf("rising price should not exit: %+v", res.Decision)
	}
	if res.PeakPrice != 104 {
		t.Fatalf("peak = %v, want 104 after new high", res.PeakPrice)
	}
}

func TestExitEvaluateTimeStop(t *testing.T) {
	m := newFakeMetrics()
	cfg := exitTestConfig()
	cfg.TimeStopBars = 5
	s := NewExitService(cfg, m)

	res := s.Evaluate(&models.ExitEvaluateRequest{
		Symbol:         "AAA",
		Price:          100,
		BarsSinceEntry: 5,
	})
	if !res.Decision.Exit || res.Decision.Reason != guard.ExitReasonTimeStop {
		t.Fatalf("unexpected decision %+v", res.Decision)
	}
	if res.BarsSinceEntry != 5 {
		t.Fatalf("bars = %d, want 5 passed through", res.BarsSinceEntry)
	}
}

func TestExitEvaluateATRModeInert(t *testing.T) {
	cfg := guard.ExitConfig{TrailMode: guard.TrailATR, TrailPct: 0.1}
	s := NewExitService(cfg, newFakeMetrics())

	peak := 200.0
	atr := 3.5
	res := s.Evaluate(&models.ExitEvaluateRequest{
		Symbol:    "AAA",
		Price:     100,
		PeakPrice: &peak,
		ATRValue:  &atr,
	})
	if res.Decision.Exit {
		t.Fatalf("atr mode must stay decision-inert, got %+v", res.Decision)
	}
}
