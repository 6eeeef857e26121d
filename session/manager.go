// Package session manages live assembly sessions (SPEC_FULL.md §C.4):
// each Session wraps one assembler.Program across repeated Build calls,
// and every state change is published through a Broadcaster for
// subscribed websocket clients.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/dynasm-thumb2/dynasm/assembler"
	"github.com/dynasm-thumb2/dynasm/config"
)

var (
	ErrSessionLimit    = errors.New("session: manager is at its configured session capacity")
	ErrSessionNotFound = errors.New("session: no session with that id")
)

// Manager creates, looks up and destroys named sessions (grounded on
// the teacher's api/session_manager.go), bounded by config.APIConfig's
// MaxSessions.
type Manager struct {
	asmCfg config.AssemblerConfig
	max    int
	bus    *Broadcaster

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(apiCfg config.APIConfig, asmCfg config.AssemblerConfig, bus *Broadcaster) *Manager {
	return &Manager{
		asmCfg:   asmCfg,
		max:      apiCfg.MaxSessions,
		bus:      bus,
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.max > 0 && len(m.sessions) >= m.max {
		return nil, ErrSessionLimit
	}

	s := &Session{
		ID:        newID(),
		CreatedAt: time.Now(),
		program:   assembler.NewProgram(m.asmCfg),
		bus:       m.bus,
	}
	m.sessions[s.ID] = s
	m.bus.Publish(Event{Type: EventCreated, SessionID: s.ID, At: s.CreatedAt})
	return s, nil
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	m.bus.Publish(Event{Type: EventDestroyed, SessionID: id, At: time.Now()})
	return true
}

func newID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
