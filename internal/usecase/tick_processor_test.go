package usecase

import (
	"context"
	"testing"

	"TradeGuard/internal/domain/models"
)

func processorTick(symbol string, sec int, price float64) *models.Tick {
	return &models.Tick{Symbol: symbol, Timestamp: at(sec).Unix(), Price: price, Volume: 1}
}

func TestProcessKafkaBackendPublishesEvents(t *testing.T) {
	sessions := NewSessionRegistry(registryDefaults())
	journal := NewEventJournal(16)
	pub := &fakePublisher{}
	m := newFakeMetrics()
	p := NewTickProcessor(sessions, journal, pub, nil, m, "kafka")

	ctx := context.Background()
	if err := p.Process(ctx, processorTick("AAA", 0, 100)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Process(ctx, processorTick("AAA", 1, 98)); err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	e := pub.events[0]
	if e.Kind != "down_detected" || e.Source != EventSourceLive {
		t.Fatalf("unexpected event %+v", e)
	}
	if got := journal.Recent("AAA", 10); len(got) != 1 {
		t.Fatalf("journal has %d events, want 1", len(got))
	}
	if m.count("event:live") != 1 {
		t.Fatalf("event metric count = %d", m.count("event:live"))
	}
	if m.count("tick") != 2 {
		t.Fatalf("tick metric count = %d", m.count("tick"))
	}
}

func TestProcessClickhouseBackendStores(t *testing.T) {
	sessions := NewSessionRegistry(registryDefaults())
	journal := NewEventJournal(16)
	store := &fakeStorage{}
	m := newFakeMetrics()
	p := NewTickProcessor(sessions, journal, nil, store, m, "clickhouse")

	ctx := context.Background()
	_ = p.Process(ctx, processorTick("AAA", 0, 100))
	_ = p.Process(ctx, processorTick("AAA", 1, 98))

	if len(store.ticks) != 2 {
		t.Fatalf("stored %d ticks, want 2", len(store.ticks))
	}
	if len(store.events) != 1 {
		t.Fatalf("stored %d events, want 1", len(store.events))
	}
	if store.events[0].Source != EventSourceLive {
		t.Fatalf("event source = %s", store.events[0].Source)
	}
}

func TestProcessNilTick(t *testing.T) {
	p := NewTickProcessor(NewSessionRegistry(registryDefaults()), NewEventJournal(4), nil, &fakeStorage{}, newFakeMetrics(), "clickhouse")
	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatalf("nil tick should error")
	}
}

func TestProcessQuietTickNoEvent(t *testing.T) {
	sessions := NewSessionRegistry(registryDefaults())
	journal := NewEventJournal(16)
	pub := &fakePublisher{}
	p := NewTickProcessor(sessions, journal, pub, nil, newFakeMetrics(), "kafka")

	ctx := context.Background()
	_ = p.Process(ctx, processorTick("AAA", 0, 100))
	_ = p.Process(ctx, processorTick("AAA", 1, 99.95))

	if len(pub.events) != 0 {
		t.Fatalf("drop below min_down published %d events", len(pub.events))
	}
}
