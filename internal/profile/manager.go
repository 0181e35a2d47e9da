package profile

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/flow"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/storage"
)

// SessionStore defines the storage operations the Manager needs.
// Implemented by storage.Store.
type SessionStore interface {
	GetSession(id string) (storage.Session, error)
	SaveSession(id, currentStep, chatMode, profileJSON string) error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// State is the per-session conversational state the pipeline needs
// between turns.
type State struct {
	Step    flow.Step
	Mode    string
	Profile *ProfileData
}

// Manager provides cached, structured access to session state stored in
// SQLite. Saves write through the cache so a turn's result is visible
// to the next turn immediately.
type Manager struct {
	store SessionStore
	clock Clock
	ttl   time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	state State
	at    time.Time
}

// NewManager creates a Manager with a 60-second cache TTL.
func NewManager(store SessionStore) *Manager {
	return NewManagerWithClock(store, realClock{}, 60*time.Second)
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store SessionStore, clock Clock, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		clock: clock,
		ttl:   ttl,
		cache: make(map[string]cacheEntry),
	}
}

// State returns the session's current step, mode, and profile snapshot,
// from cache when fresh.
func (m *Manager) State(sessionID string) (State, error) {
	m.mu.RLock()
	if e, ok := m.cache[sessionID]; ok && m.clock.Now().Before(e.at.Add(m.ttl)) {
		st := copyState(e.state)
		m.mu.RUnlock()
		return st, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock.
	if e, ok := m.cache[sessionID]; ok && m.clock.Now().Before(e.at.Add(m.ttl)) {
		return copyState(e.state), nil
	}

	sess, err := m.store.GetSession(sessionID)
	if err != nil {
		return State{}, fmt.Errorf("loading session %s: %w", sessionID, err)
	}

	var data ProfileData
	if sess.ProfileJSON != "" {
		if err := json.Unmarshal([]byte(sess.ProfileJSON), &data); err != nil {
			return State{}, fmt.Errorf("decoding profile for session %s: %w", sessionID, err)
		}
	}

	st := State{Step: flow.Step(sess.CurrentStep), Mode: sess.ChatMode, Profile: &data}
	m.cache[sessionID] = cacheEntry{state: copyState(st), at: m.clock.Now()}
	return st, nil
}

// Save persists the post-turn state and refreshes the cache.
func (m *Manager) Save(sessionID string, st State) error {
	b, err := json.Marshal(st.Profile)
	if err != nil {
		return fmt.Errorf("encoding profile for session %s: %w", sessionID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.SaveSession(sessionID, string(st.Step), st.Mode, string(b)); err != nil {
		return fmt.Errorf("saving session %s: %w", sessionID, err)
	}

	m.cache[sessionID] = cacheEntry{state: copyState(st), at: m.clock.Now()}
	return nil
}

// Invalidate drops the session from the cache.
func (m *Manager) Invalidate(sessionID string) {
	m.mu.Lock()
	delete(m.cache, sessionID)
	m.mu.Unlock()
}

func copyState(st State) State {
	return State{Step: st.Step, Mode: st.Mode, Profile: st.Profile.Clone()}
}
