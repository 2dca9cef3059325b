package usecase

import (
	"context"
	"testing"

	"TradeGuard/internal/domain/models"
)

func warmupCandles(symbol string, closes ...float64) []models.Candle {
	out := make([]models.Candle, 0, len(closes))
	for i, c := range closes {
		out = append(out, models.Candle{Bucket: at(i * 60), Symbol: symbol, Close: c})
	}
	return out
}

func TestWarmupSeedsPeak(t *testing.T) {
	sessions := NewSessionRegistry(registryDefaults())
	source := &fakeCandles{candles: map[string][]models.Candle{
		"AAA": warmupCandles("AAA", 100, 110, 105),
	}}
	w := NewWarmup(source, sessions, 120)

	if err := w.Run(context.Background(), []string{"AAA"}); err != nil {
		t.Fatalf("run: %v", err)
	}

	snap, ok := sessions.Status("AAA")
	if !ok {
		t.Fatalf("expected warmed session")
	}
	if snap.PeakPrice == nil || *snap.PeakPrice != 110 {
		t.Fatalf("peak = %v, want 110", snap.PeakPrice)
	}
	if snap.LastPrice == nil || *snap.LastPrice != 105 {
		t.Fatalf("last = %v, want 105", snap.LastPrice)
	}
}

func TestWarmupPartialFailure(t *testing.T) {
	sessions := NewSessionRegistry(registryDefaults())
	source := &fakeCandles{candles: map[string][]models.Candle{
		"BBB": warmupCandles("BBB", 50, 51),
	}}
	w := NewWarmup(source, sessions, 120)

	err := w.Run(context.Background(), []string{"AAA", "BBB"})
	if err == nil {
		t.Fatalf("expected error for missing AAA history")
	}
	if _, ok := sessions.Status("BBB"); !ok {
		t.Fatalf("BBB should still be warmed despite AAA failure")
	}
}

func TestWarmupNilSource(t *testing.T) {
	w := NewWarmup(nil, NewSessionRegistry(registryDefaults()), 0)
	if err := w.Run(context.Background(), []string{"AAA"}); err != nil {
		t.Fatalf("nil source should no-op, got %v", err)
	}
}
