// Package session tracks the game sessions running on a server.
package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session describes one active game.
type Session struct {
	// ID is the session UUID, shared with the game and its run record.
	ID string
	// Player is the display name or remote address of the player.
	Player string
	// State is the game's current state name.
	State string
	// Hero is the chosen hero class; empty until one is picked.
	Hero string
	// StartedAt is when the session was opened.
	StartedAt time.Time
}

// Manager tracks all active sessions.
// All methods are safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewManager creates an empty session Manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Open registers a new session for player under a fresh UUID.
//
// Postcondition: Returns a copy of the created Session.
func (m *Manager) Open(player string) Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := &Session{
		ID:        uuid.NewString(),
		Player:    player,
		StartedAt: m.now(),
	}
	m.sessions[sess.ID] = sess
	return *sess
}

// Close removes a session.
//
// Postcondition: Returns an error if id is not registered.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("session %q not found", id)
	}
	delete(m.sessions, id)
	return nil
}

// Update applies fn to the session under the manager lock.
//
// Precondition: fn must not call back into m.
// Postcondition: Returns an error if id is not registered.
func (m *Manager) Update(id string, fn func(*Session)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("session %q not found", id)
	}
	fn(sess)
	return nil
}

// Get returns a copy of the session with id.
func (m *Manager) Get(id string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// List returns copies of all sessions, oldest first.
func (m *Manager) List() []Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
