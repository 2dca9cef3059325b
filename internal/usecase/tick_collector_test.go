package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"TradeGuard/internal/domain/models"
)

// fakeStream fails its first read session and serves ticks after the
// collector reconnects.
type fakeStream struct {
	mu         sync.Mutex
	reads      int
	reconnects int
	connected  bool
	ticks      []*models.Tick
}

func (s *fakeStream) Connect(context.Context) error {
	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) Subscribe(context.Context) error { return nil }

func (s *fakeStream) Close() error {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *fakeStream) Reconnect(context.Context) error {
	s.mu.Lock()
	s.reconnects++
	s.connected = true
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) Read(context.Context) (<-chan *models.Tick, <-chan error) {
	s.mu.Lock()
	s.reads++
	first := s.reads == 1
	ticks := s.ticks
	s.mu.Unlock()

	tkCh := make(chan *models.Tick, len(ticks)+1)
	errCh := make(chan error, 1)
	if first {
		// Mirror the real client: error out, then close both channels.
		errCh <- errors.New("read: connection reset")
		close(tkCh)
		close(errCh)
		return tkCh, errCh
	}
	for _, t := range ticks {
		tkCh <- t
	}
	return tkCh, errCh
}

func (s *fakeStream) counters() (reads, reconnects int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads, s.reconnects
}

func TestCollectorResumesAfterStreamError(t *testing.T) {
	stream := &fakeStream{ticks: []*models.Tick{
		{Symbol: "AAA", Timestamp: at(0).Unix(), Price: 100, Volume: 1},
	}}
	m := newFakeMetrics()
	sessions := NewSessionRegistry(registryDefaults())
	proc := NewTickProcessor(sessions, NewEventJournal(0), &fakePublisher{}, nil, m, "kafka")
	c := NewTickCollector(stream, proc, m, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for m.count("tick") == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("no tick processed after the stream error")
		}
		time.Sleep(10 * time.Millisecond)
	}

	reads, reconnects := stream.counters()
	if reconnects == 0 {
		t.Fatalf("expected a reconnect after the read error")
	}
	if reads < 2 {
		t.Fatalf("expected a fresh read after reconnect, reads=%d", reads)
	}
}
