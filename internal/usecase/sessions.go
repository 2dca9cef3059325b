package usecase

import (
	"sort"
	"strings"
	"sync"
	"time"

	"TradeGuard/internal/guard"
)

// SessionKey normalizes a symbol into its registry key. Feed payloads,
// Kafka messages, and API callers disagree on casing and padding.
func SessionKey(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// SessionRegistry owns one EntryGuard per symbol and serializes access to it.
// The guard itself is a plain single-threaded state machine; the registry is
// the required external serialization point when feed, API, and replay
// workers touch the same symbol.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*session
	defaults guard.Config
}

type session struct {
	mu    sync.Mutex
	guard *guard.EntryGuard
}

// NewSessionRegistry creates a registry that seeds new sessions with the
// given guard defaults.
func NewSessionRegistry(defaults guard.Config) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*session),
		defaults: defaults,
	}
}

func (r *SessionRegistry) session(symbol string) *session {
	key := SessionKey(symbol)
	r.mu.Lock()
	s, ok := r.sessions[key]
	if !ok {
		s = &session{guard: guard.New(r.defaults)}
		r.sessions[key] = s
	}
	r.mu.Unlock()
	return s
}

// Update feeds one tick into the symbol's guard, creating the session on
// first sight. Returns the detection event, if any.
func (r *SessionRegistry) Update(symbol string, price float64, ts time.Time) *guard.Event {
	s := r.session(symbol)
	s.mu.Lock()
	ev := s.guard.Update(price, ts)
	s.mu.Unlock()
	return ev
}

// Evaluate answers the entry gate for a symbol.
func (r *SessionRegistry) Evaluate(symbol string) guard.Decision {
	s := r.session(symbol)
	s.mu.Lock()
	d := s.guard.Evaluate()
	s.mu.Unlock()
	return d
}

// Fill resets the symbol's guard after an entry fill.
func (r *SessionRegistry) Fill(symbol string, price float64) {
	s := r.session(symbol)
	s.mu.Lock()
	s.guard.OnEntryFilled(price)
	s.mu.Unlock()
}

// Configure applies a partial config update to one symbol's guard.
func (r *SessionRegistry) Configure(symbol string, u guard.ConfigUpdate) {
	s := r.session(symbol)
	s.mu.Lock()
	s.guard.Configure(u)
	s.mu.Unlock()
}

// Status snapshots one symbol's guard. The second return is false when the
// symbol has no session yet.
func (r *SessionRegistry) Status(symbol string) (guard.Snapshot, bool) {
	r.mu.Lock()
	s, ok := r.sessions[SessionKey(symbol)]
	r.mu.Unlock()
	if !ok {
		return guard.Snapshot{}, false
	}
	s.mu.Lock()
	snap := s.guard.Status()
	s.mu.Unlock()
	return snap, true
}

// Symbols lists all active sessions, sorted for stable output.
func (r *SessionRegistry) Symbols() []string {
	r.mu.Lock()
	out := make([]string, 0, len(r.sessions))
	for sym := range r.sessions {
		out = append(out, sym)
	}
	r.mu.Unlock()
	sort.Strings(out)
	return out
}

// Defaults returns the guard config new sessions start from.
func (r *SessionRegistry) Defaults() guard.Config { return r.defaults }
