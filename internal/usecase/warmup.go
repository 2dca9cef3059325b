package usecase

import (
	"context"
	"fmt"

	drepo "TradeGuard/internal/domain/repository"
)

// Warmup seeds each session's guard with recent candle closes so the gate
// starts from real peak history instead of a cold state after restart.
type Warmup struct {
	source   drepo.CandleSource
	sessions *SessionRegistry
	bars     int
}

func NewWarmup(source drepo.CandleSource, sessions *SessionRegistry, bars int) *Warmup {
	if bars <= 0 {
		bars = 120
	}
	return &Warmup{source: source, sessions: sessions, bars: bars}
}

// Run warms all given symbols. Failures are per-symbol: one unreachable
// history endpoint must not block the others.
func (w *Warmup) Run(ctx context.Context, symbols []string) error {
	if w.source == nil {
		return nil
	}
	var firstErr error
	for _, sym := range symbols {
		candles, err := w.source.RecentCandles(ctx, sym, w.bars)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("warmup %s: %w", sym, err)
			}
			continue
		}
		for _, c := range candles {
			w.sessions.Update(sym, c.Close, c.Bucket)
		}
	}
	return firstErr
}
