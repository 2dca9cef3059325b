package middleware

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"TradeGuard/internal/domain/models"
)

type countingProc struct {
	mu    sync.Mutex
	ticks []*models.Tick
	err   error
}

func (p *countingProc) Process(_ context.Context, t *models.Tick) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.ticks = append(p.ticks, t)
	return nil
}

func (p *countingProc) seen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ticks)
}

type nopMetrics struct{}

func (nopMetrics) RecordTick(string)               {}
func (nopMetrics) RecordEvent(_, _, _ string)      {}
func (nopMetrics) RecordGate(_, _ string, _ bool)  {}
func (nopMetrics) RecordExit(_, _ string)          {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)   {}

func pipelineTick(price float64) *models.Tick {
	return &models.Tick{Symbol: "AAA", Timestamp: time.Now().Unix(), Price: price, Volume: 1}
}

func TestPipelineRejectsMalformedTicks(t *testing.T) {
	proc := &countingProc{}
	p := NewTickPipeline(proc, nopMetrics{})

	cases := []*models.Tick{
		nil,
		{Symbol: "", Timestamp: 1, Price: 1},
		{Symbol: "AAA", Timestamp: 0, Price: 1},
		{Symbol: "AAA", Timestamp: 1, Price: -1},
	}
	for i, tc := range cases {
		if err := p.Process(context.Background(), tc); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	if proc.seen() != 0 {
		t.Fatalf("malformed ticks reached processor")
	}
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	proc := &countingProc{}
	p := NewTickPipeline(proc, nopMetrics{}, WithMaxRPS(1))

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := p.Process(ctx, pipelineTick(100+float64(i))); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	// With 1 tick/sec only the first of a burst passes.
	if proc.seen() != 1 {
		t.Fatalf("throttle passed %d ticks, want 1", proc.seen())
	}
}

func TestPipelineBuffersOnError(t *testing.T) {
	proc := &countingProc{err: fmt.Errorf("downstream down")}
	p := NewTickPipeline(proc, nopMetrics{}, WithBufferSize(10))

	if err := p.Process(context.Background(), pipelineTick(100)); err == nil {
		t.Fatalf("expected downstream error to surface")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("failed tick not buffered, buffer len %d", len(p.bufCh))
	}
}

func TestPipelineFlushesBuffer(t *testing.T) {
	proc := &countingProc{err: fmt.Errorf("downstream down")}
	p := NewTickPipeline(proc, nopMetrics{}, WithBufferSize(10))

	ctx := context.Background()
	_ = p.Process(ctx, pipelineTick(100))

	proc.mu.Lock()
	proc.err = nil
	proc.mu.Unlock()

	p.Start(ctx)
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for proc.seen() == 0 {
		select {
		case <-deadline:
			t.Fatalf("buffered tick never flushed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
