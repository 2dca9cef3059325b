package usecase

import (
	"context"
	"fmt"
	"time"

	"TradeGuard/internal/domain/models"
	drepo "TradeGuard/internal/domain/repository"
)

// EventSourceLive tags events produced by the live feed, as opposed to
// replay jobs.
const EventSourceLive = "live"

// TickProcessor drives guards from incoming ticks and routes detection
// events to the configured backend.
type TickProcessor struct {
	sessions *SessionRegistry
	journal  *EventJournal
	pub      drepo.Publisher
	store    drepo.Storage
	metrics  drepo.Metrics
	backend  string
}

// NewTickProcessor creates a new TickProcessor instance.
func NewTickProcessor(
	sessions *SessionRegistry,
	journal *EventJournal,
	pub drepo.Publisher,
	store drepo.Storage,
	metrics drepo.Metrics,
	backend string,
) *TickProcessor {
	return &TickProcessor{
		sessions: sessions,
		journal:  journal,
		pub:      pub,
		store:    store,
		metrics:  metrics,
		backend:  backend,
	}
}

// Process feeds a single tick into the symbol's guard and forwards any
// detection event. Tick persistence only happens on the clickhouse backend;
// on kafka the raw ticks are already on the bus.
func (p *TickProcessor) Process(ctx context.Context, t *models.Tick) error {
	if t == nil {
		return fmt.Errorf("tick is nil")
	}

	start := time.Now()
	t.Symbol = SessionKey(t.Symbol)
	p.metrics.RecordTick(t.Symbol)

	ev := p.sessions.Update(t.Symbol, t.Price, time.Unix(t.Timestamp, 0))

	var err error
	if p.backend == "clickhouse" && p.store != nil {
		err = p.store.StoreTick(ctx, t)
	}

	if ev != nil {
		ge := &models.GuardEvent{
			Symbol: t.Symbol,
			TS:     ev.TS,
			Kind:   ev.Kind,
			Drop:   ev.Drop,
			Peak:   ev.Peak,
			Price:  ev.Price,
			Source: EventSourceLive,
		}
		p.journal.Append(ge)
		p.metrics.RecordEvent(t.Symbol, ev.Kind, EventSourceLive)
		if ferr := p.forward(ctx, ge); ferr != nil && err == nil {
			err = ferr
		}
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process tick: %w", err)
	}
	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

func (p *TickProcessor) forward(ctx context.Context, e *models.GuardEvent) error {
	switch p.backend {
	case "kafka":
		if p.pub == nil {
			return fmt.Errorf("kafka backend without publisher")
		}
		return p.pub.Publish(ctx, e)
	case "clickhouse":
		if p.store == nil {
			return fmt.Errorf("clickhouse backend without storage")
		}
		return p.store.StoreEvent(ctx, e)
	default:
		return fmt.Errorf("unknown backend: %s", p.backend)
	}
}

// Close closes underlying resources if available.
func (p *TickProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
