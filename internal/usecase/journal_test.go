package usecase

import (
	"fmt"
	"testing"

	"TradeGuard/internal/domain/models"
)

func journalEvent(symbol string, sec int) *models.GuardEvent {
	return &models.GuardEvent{
		Symbol: symbol,
		TS:     at(sec),
		Kind:   "down_detected",
		Source: EventSourceLive,
	}
}

func TestJournalNewestFirst(t *testing.T) {
	j := NewEventJournal(8)
	for i := 0; i < 3; i++ {
		j.Append(journalEvent("AAA", i))
	}

	got := j.Recent("AAA", 10)
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].TS.After(got[i-1].TS) {
			t.Fatalf("events not newest first: %v then %v", got[i-1].TS, got[i].TS)
		}
	}
}

func TestJournalWraparound(t *testing.T) {
	j := NewEventJournal(4)
	for i := 0; i < 6; i++ {
		j.Append(journalEvent("AAA", i))
	}

	got := j.Recent("AAA", 10)
	if len(got) != 4 {
		t.Fatalf("got %d events, want 4 after wraparound", len(got))
	}
	if !got[0].TS.Equal(at(5)) {
		t.Fatalf("newest event ts = %v, want %v", got[0].TS, at(5))
	}
	if !got[3].TS.Equal(at(2)) {
		t.Fatalf("oldest surviving event ts = %v, want %v", got[3].TS, at(2))
	}
}

func TestJournalSymbolFilter(t *testing.T) {
	j := NewEventJournal(16)
	for i := 0; i < 4; i++ {
		j.Append(journalEvent(fmt.Sprintf("SYM%d", i%2), i))
	}

	got := j.Recent("SYM0", 10)
	if len(got) != 2 {
		t.Fatalf("got %d events for SYM0, want 2", len(got))
	}
	for _, e := range got {
		if e.Symbol != "SYM0" {
			t.Fatalf("filter leaked symbol %s", e.Symbol)
		}
	}

	all := j.Recent("", 10)
	if len(all) != 4 {
		t.Fatalf("empty symbol should match all, got %d", len(all))
	}
}

func TestJournalLimit(t *testing.T) {
	j := NewEventJournal(16)
	for i := 0; i < 10; i++ {
		j.Append(journalEvent("AAA", i))
	}

	got := j.Recent("AAA", 3)
	if len(got) != 3 {
		t.Fatalf("got %d events, want limit 3", len(got))
	}
	if !got[0].TS.Equal(at(9)) {
		t.Fatalf("limited result should start at newest, got %v", got[0].TS)
	}

	if r := j.Recent("AAA", 0); r != nil {
		t.Fatalf("zero limit should return nil, got %d", len(r))
	}
}
