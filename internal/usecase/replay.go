package usecase

import (
	"context"
	"fmt"
	"time"

	"TradeGuard/internal/domain/models"
	drepo "TradeGuard/internal/domain/repository"
	"TradeGuard/internal/guard"
	"TradeGuard/pkg/queue"
)

// EventSourceReplay tags events reproduced from stored ticks.
const EventSourceReplay = "replay"

// ReplayRunner re-runs a stored tick range through a fresh guard. Because
// the guard takes caller-supplied timestamps, a replay over the same ticks
// reproduces the exact same event sequence the live run emitted.
type ReplayRunner struct {
	store    drepo.Storage
	journal  *EventJournal
	defaults guard.Config
	metrics  drepo.Metrics
}

// replayTickLimit bounds how many ticks a single job may load.
const replayTickLimit = 500000

func NewReplayRunner(store drepo.Storage, journal *EventJournal, defaults guard.Config, metrics drepo.Metrics) *ReplayRunner {
	return &ReplayRunner{store: store, journal: journal, defaults: defaults, metrics: metrics}
}

// Name implements queue.Job.
func (r *ReplayRunner) Name() string { return "guard_replay" }

// Type implements queue.Job.
func (r *ReplayRunner) Type() string { return "replay" }

// Handle implements queue.Job: load the tick range, drive a fresh guard,
// and persist the resulting events tagged as replays.
func (r *ReplayRunner) Handle(ctx context.Context, payload interface{}) error {
	job, err := queue.ParsePayload[models.ReplayJob](payload)
	if err != nil {
		return fmt.Errorf("replay payload: %w", err)
	}
	if r.store == nil {
		return fmt.Errorf("replay requires clickhouse storage")
	}

	start := time.Now()
	ticks, err := r.store.QueryTicks(ctx, job.Symbol, job.From, job.To, replayTickLimit)
	if err != nil {
		r.metrics.RecordError("replay_query")
		return fmt.Errorf("replay query: %w", err)
	}

	g := guard.New(r.defaults)
	emitted := 0
	for _, t := range ticks {
		ev := g.Update(t.Price, time.Unix(t.Timestamp, 0))
		if ev == nil {
			continue
		}
		ge := &models.GuardEvent{
			Symbol: job.Symbol,
			TS:     ev.TS,
			Kind:   ev.Kind,
			Drop:   ev.Drop,
			Peak:   ev.Peak,
			Price:  ev.Price,
			Source: EventSourceReplay,
		}
		if err := r.store.StoreEvent(ctx, ge); err != nil {
			r.metrics.RecordError("replay_store")
			return fmt.Errorf("replay store event: %w", err)
		}
		r.journal.Append(ge)
		r.metrics.RecordEvent(job.Symbol, ev.Kind, EventSourceReplay)
		emitted++
	}

	r.metrics.RecordLatency("replay", time.Since(start).Seconds())
	return nil
}

var _ queue.Job = (*ReplayRunner)(nil)
