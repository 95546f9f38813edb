package server

import (
	"errors"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/lox/klondike/internal/game"
)

// ErrGameNotFound is returned when no session is stored under an id
var ErrGameNotFound = errors.New("game not found")

// sessionEntry guards one game session. Requests for the same game are
// serialised on mu; the session itself is not safe for concurrent use.
type sessionEntry struct {
	id       string
	mu       sync.Mutex
	session  *game.Session
	lastUsed time.Time
	clock    quartz.Clock
	conns    map[*Connection]struct{} // attached WebSocket clients, guarded by mu
}

// With runs fn with exclusive access to the session and marks the entry as used
func (e *sessionEntry) With(fn func(*game.Session)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = e.clock.Now()
	fn(e.session)
}

// reapable reports whether no client is attached and the entry has been
// unused for at least maxIdle
func (e *sessionEntry) reapable(maxIdle time.Duration) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.conns) == 0 && e.clock.Since(e.lastUsed) >= maxIdle
}

// closeConnections disconnects every client attached to the entry
func (e *sessionEntry) closeConnections() {
	e.mu.Lock()
	conns := make([]*Connection, 0, len(e.conns))
	for c := range e.conns {
		conns = append(conns, c)
	}
	e.mu.Unlock()

	for _, c := range conns {
		_ = c.Close() // Ignore close errors for a removed game
	}
}

// Store keeps live sessions in memory keyed by the id they were created with
type Store struct {
	mu      sync.RWMutex
	entries map[string]*sessionEntry
	clock   quartz.Clock
}

// NewStore creates an empty store
func NewStore(clock quartz.Clock) *Store {
	return &Store{
		entries: make(map[string]*sessionEntry),
		clock:   clock,
	}
}

// Add stores session under its current game id and returns that id
func (st *Store) Add(session *game.Session) string {
	e := &sessionEntry{
		id:       session.ID(),
		session:  session,
		lastUsed: st.clock.Now(),
		clock:    st.clock,
		conns:    make(map[*Connection]struct{}),
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.entries[e.id] = e
	return e.id
}

// Get returns the entry for id
func (st *Store) Get(id string) (*sessionEntry, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	e, ok := st.entries[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return e, nil
}

// Delete removes id and returns its entry so the caller can disconnect
// attached clients
func (st *Store) Delete(id string) (*sessionEntry, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.entries[id]
	if !ok {
		return nil, false
	}
	delete(st.entries, id)
	return e, true
}

// Len returns the number of stored sessions
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.entries)
}

// ReapIdle removes sessions unused for at least maxIdle and returns their
// ids. Sessions with attached clients are kept.
func (st *Store) ReapIdle(maxIdle time.Duration) []string {
	st.mu.Lock()
	defer st.mu.Unlock()

	var reaped []string
	for id, e := range st.entries {
		if e.reapable(maxIdle) {
			delete(st.entries, id)
			reaped = append(reaped, id)
		}
	}
	return reaped
}
