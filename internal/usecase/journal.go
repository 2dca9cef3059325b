package usecase

import (
	"sync"

	"TradeGuard/internal/domain/models"
)

// EventJournal keeps the most recent detection events in memory so the
// events API stays useful when ClickHouse is not the configured backend.
type EventJournal struct {
	mu   sync.Mutex
	buf  []*models.GuardEvent
	next int
	full bool
}

// NewEventJournal creates a ring journal holding up to size events.
func NewEventJournal(size int) *EventJournal {
	if size <= 0 {
		size = 512
	}
	return &EventJournal{buf: make([]*models.GuardEvent, size)}
}

// Append records one event, evicting the oldest when full.
func (j *EventJournal) Append(e *models.GuardEvent) {
	j.mu.Lock()
	j.buf[j.next] = e
	j.next = (j.next + 1) % len(j.buf)
	if j.next == 0 {
		j.full = true
	}
	j.mu.Unlock()
}

// Recent returns up to limit most-recent events for a symbol, newest first.
// An empty symbol matches all.
func (j *EventJournal) Recent(symbol string, limit int) []*models.GuardEvent {
	if limit <= 0 {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	n := j.next
	count := n
	if j.full {
		count = len(j.buf)
	}
	out := make([]*models.GuardEvent, 0, limit)
	for i := 0; i < count && len(out) < limit; i++ {
		idx := (n - 1 - i + len(j.buf)) % len(j.buf)
		e := j.buf[idx]
		if e == nil {
			break
		}
		if symbol != "" && e.Symbol != symbol {
			continue
		}
		out = append(out, e)
	}
	return out
}
