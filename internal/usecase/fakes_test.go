package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"TradeGuard/internal/domain/models"
)

// fakeMetrics counts recorder calls by name.
type fakeMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{counts: make(map[string]int)}
}

func (m *fakeMetrics) bump(k string) {
	m.mu.Lock()
	m.counts[k]++
	m.mu.Unlock()
}

func (m *fakeMetrics) count(k string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[k]
}

func (m *fakeMetrics) RecordTick(symbol string)                  { m.bump("tick") }
func (m *fakeMetrics) RecordEvent(symbol, kind, source string)   { m.bump("event:" + source) }
func (m *fakeMetrics) RecordGate(symbol, reason string, a bool)  { m.bump("gate") }
func (m *fakeMetrics) RecordExit(symbol, reason string)          { m.bump("exit:" + reason) }
func (m *fakeMetrics) RecordError(kind string)                   { m.bump("error:" + kind) }
func (m *fakeMetrics) RecordLastPrice(symbol string, p float64)  { m.bump("last_price") }
func (m *fakeMetrics) RecordLatency(op string, seconds float64)  { m.bump("latency") }

// fakePublisher records published events.
type fakePublisher struct {
	events []*models.GuardEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, e *models.GuardEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

// fakeStorage keeps ticks and events in memory.
type fakeStorage struct {
	ticks  []*models.Tick
	events []*models.GuardEvent
}

func (s *fakeStorage) Init(context.Context) error { return nil }

func (s *fakeStorage) StoreTick(_ context.Context, t *models.Tick) error {
	s.ticks = append(s.ticks, t)
	return nil
}

func (s *fakeStorage) StoreEvent(_ context.Context, e *models.GuardEvent) error {
	s.events = append(s.events, e)
	return nil
}

func (s *fakeStorage) QueryTicks(_ context.Context, symbol string, from, to time.Time, limit int) ([]*models.Tick, error) {
	out := make([]*models.Tick, 0, len(s.ticks))
	for _, t := range s.ticks {
		if t.Symbol != symbol {
			continue
		}
		ts := time.Unix(t.Timestamp, 0)
		if ts.Before(from) || ts.After(to) {
			continue
		}
		out = append(out, t)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStorage) QueryEvents(_ context.Context, symbol string, from, to time.Time, limit int) ([]*models.GuardEvent, error) {
	out := make([]*models.GuardEvent, 0, len(s.events))
	for _, e := range s.events {
		if e.Symbol == symbol {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStorage) Health(context.Context) error { return nil }
func (s *fakeStorage) Close() error                 { return nil }

// fakeCandles serves a fixed candle series per symbol.
type fakeCandles struct {
	candles map[string][]models.Candle
	err     error
}

func (c *fakeCandles) RecentCandles(_ context.Context, symbol string, n int) ([]models.Candle, error) {
	if c.err != nil {
		return nil, c.err
	}
	cs, ok := c.candles[symbol]
	if !ok {
		return nil, fmt.Errorf("no candles for %s", symbol)
	}
	return cs, nil
}
