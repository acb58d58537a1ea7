package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Snapshot is a read-only copy of a user's session.
type Snapshot struct {
	State           State
	PendingClass    string
	PendingSheet    string
	PromptMessageID int
}

type entry struct {
	s       *Session
	touched time.Time
}

// Manager holds one session per user. Sessions expire after ttl of
// inactivity and the map never grows beyond max entries; when full the
// least recently touched session is evicted.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*entry
	ttl      time.Duration
	max      int
	clock    clockwork.Clock
}

// NewManager creates a manager. ttl <= 0 disables expiry, maxSessions <= 0 disables the bound.
func NewManager(ttl time.Duration, maxSessions int, clock clockwork.Clock) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{
		sessions: make(map[int64]*entry),
		ttl:      ttl,
		max:      maxSessions,
		clock:    clock,
	}
}

// Begin starts a new flow for userID, replacing any session in progress.
func (m *Manager) Begin(ctx context.Context, userID int64, ev Event) error {
	s := newSession()
	if err := s.fire(ctx, ev); err != nil {
		return fmt.Errorf("begin %s: %w", ev, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[userID]; !ok {
		m.evictLocked()
	}
	m.sessions[userID] = &entry{s: s, touched: m.clock.Now()}
	return nil
}

// Advance fires ev on the user's session. A session that reaches Idle is
// dropped along with its pending data.
func (m *Manager) Advance(ctx context.Context, userID int64, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.liveLocked(userID)
	if e == nil {
		return fmt.Errorf("%s: no session in progress", ev)
	}
	if err := e.s.fire(ctx, ev); err != nil {
		return fmt.Errorf("%s: %w", ev, err)
	}
	if e.s.State() == Idle {
		delete(m.sessions, userID)
		return nil
	}
	e.touched = m.clock.Now()
	return nil
}

// Update mutates the pending data of an existing session.
// It reports false when the user has no session.
func (m *Manager) Update(userID int64, fn func(s *Session)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.liveLocked(userID)
	if e == nil {
		return false
	}
	fn(e.s)
	e.touched = m.clock.Now()
	return true
}

// Get returns a snapshot; users without a live session are Idle.
func (m *Manager) Get(userID int64) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.liveLocked(userID)
	if e == nil {
		return Snapshot{State: Idle}
	}
	return Snapshot{
		State:           e.s.State(),
		PendingClass:    e.s.PendingClass,
		PendingSheet:    e.s.PendingSheet,
		PromptMessageID: e.s.PromptMessageID,
	}
}

// State is shorthand for Get(userID).State.
func (m *Manager) State(userID int64) State {
	return m.Get(userID).State
}

// Clear drops the user's session.
func (m *Manager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// Sweep removes expired sessions and returns how many were dropped.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, e := range m.sessions {
		if m.expiredLocked(e) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of sessions held, expired ones included.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) liveLocked(userID int64) *entry {
	e, ok := m.sessions[userID]
	if !ok {
		return nil
	}
	if m.expiredLocked(e) {
		delete(m.sessions, userID)
		return nil
	}
	return e
}

func (m *Manager) expiredLocked(e *entry) bool {
	return m.ttl > 0 && m.clock.Since(e.touched) > m.ttl
}

func (m *Manager) evictLocked() {
	if m.max <= 0 || len(m.sessions) < m.max {
		return
	}
	var (
		oldestID int64
		oldest   time.Time
		found    bool
	)
	for id, e := range m.sessions {
		if !found || e.touched.Before(oldest) {
			oldestID, oldest, found = id, e.touched, true
		}
	}
	if found {
		delete(m.sessions, oldestID)
	}
}
