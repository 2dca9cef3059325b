package usecase

import (
	"context"
	"testing"

	"TradeGuard/internal/domain/models"
)

func seedReplayStore() *fakeStorage {
	store := &fakeStorage{}
	prices := []float64{100, 101, 100.9, 99.8, 100.2, 102, 100.5}
	for i, p := range prices {
		store.ticks = append(store.ticks, &models.Tick{
			Symbol: "AAA", Timestamp: at(i).Unix(), Price: p, Volume: 1,
		})
	}
	return store
}

func TestReplayReproducesEvents(t *testing.T) {
	store := seedReplayStore()
	journal := NewEventJournal(16)
	m := newFakeMetrics()
	r := NewReplayRunner(store, journal, registryDefaults(), m)

	job := models.ReplayJob{Symbol: "AAA", From: at(0), To: at(10)}
	if err := r.Handle(context.Background(), job); err != nil {
		t.Fatalf("handle: %v", err)
	}

	// 99.8 is a 1.188% drop from the 101 peak, 100.5 a 1.47% drop from 102.
	if len(store.events) != 2 {
		t.Fatalf("stored %d events, want 2", len(store.events))
	}
	for _, e := range store.events {
		if e.Source != EventSourceReplay {
			t.Fatalf("event source = %s, want replay", e.Source)
		}
	}
	if !store.events[0].TS.Equal(at(3)) {
		t.Fatalf("first event ts = %v, want %v", store.events[0].TS, at(3))
	}
	if m.count("event:replay") != 2 {
		t.Fatalf("replay metric count = %d", m.count("event:replay"))
	}
}

func TestReplayDeterministic(t *testing.T) {
	for run := 0; run < 2; run++ {
		store := seedReplayStore()
		r := NewReplayRunner(store, NewEventJournal(16), registryDefaults(), newFakeMetrics())
		job := models.ReplayJob{Symbol: "AAA", From: at(0), To: at(10)}
		if err := r.Handle(context.Background(), job); err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		if len(store.events) != 2 {
			t.Fatalf("run %d stored %d events, want 2", run, len(store.events))
		}
	}
}

func TestReplayWithoutStorage(t *testing.T) {
	r := NewReplayRunner(nil, NewEventJournal(4), registryDefaults(), newFakeMetrics())
	job := models.ReplayJob{Symbol: "AAA", From: at(0), To: at(10)}
	if err := r.Handle(context.Background(), job); err == nil {
		t.Fatalf("replay without storage should error")
	}
}

func TestReplayRejectsBadPayload(t *testing.T) {
	r := NewReplayRunner(&fakeStorage{}, NewEventJournal(4), registryDefaults(), newFakeMetrics())
	if err := r.Handle(context.Background(), 42); err == nil {
		t.Fatalf("non-job payload should error")
	}
}
