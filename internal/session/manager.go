package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"linketron/internal/language"
)

// Manager holds sessions in memory keyed by chat id. Scratch files live under
// dir/<chat id>/ and are removed with the session.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	locks    map[int64]*sync.Mutex
	dir      string
	now      func() time.Time
}

func NewManager(artifactDir string) *Manager {
	return &Manager{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*sync.Mutex),
		dir:      artifactDir,
		now:      time.Now,
	}
}

// Lock serializes work for one chat; other chats proceed concurrently.
func (m *Manager) Lock(chatID int64) func() {
	m.mu.Lock()
	l, ok := m.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[chatID] = l
	}
	m.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Get returns a copy of the chat's session; an unknown chat is idle.
func (m *Manager) Get(chatID int64) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[chatID]
	if !ok {
		return Session{State: StateIdle, Language: language.Default}
	}
	return s.clone()
}

// Update applies fn to the session under the manager lock and returns the result.
func (m *Manager) Update(chatID int64, fn func(s *Session)) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		s = &Session{State: StateIdle, Language: language.Default}
		m.sessions[chatID] = s
	}
	fn(s)
	s.UpdatedAt = m.now()
	return s.clone()
}

// Reset forgets the session and deletes its scratch files.
func (m *Manager) Reset(chatID int64) {
	m.mu.Lock()
	delete(m.sessions, chatID)
	m.mu.Unlock()
	m.removeArtifacts(chatID)
}

// ArtifactPath returns a per-chat file path, creating the chat directory.
func (m *Manager) ArtifactPath(chatID int64, name string) (string, error) {
	dir := m.chatDir(chatID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("artifact dir: %w", err)
	}
	return filepath.Join(dir, filepath.Base(name)), nil
}

// SweepIdle drops sessions untouched for longer than ttl and returns how many.
// Chats currently holding their lock are skipped.
func (m *Manager) SweepIdle(ttl time.Duration) int {
	cutoff := m.now().Add(-ttl)
	var stale []int64
	m.mu.Lock()
	for id, s := range m.sessions {
		if !s.UpdatedAt.Before(cutoff) {
			continue
		}
		if l, ok := m.locks[id]; ok {
			if !l.TryLock() {
				continue
			}
			l.Unlock()
		}
		delete(m.sessions, id)
		stale = append(stale, id)
	}
	m.mu.Unlock()
	for _, id := range stale {
		m.removeArtifacts(id)
	}
	return len(stale)
}

// FindByAuthState returns the chat waiting for an OAuth answer with this state.
func (m *Manager) FindByAuthState(state string) (int64, bool) {
	if state == "" {
		return 0, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, s := range m.sessions {
		if s.AuthState == state {
			return id, true
		}
	}
	return 0, false
}

// Len is the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) chatDir(chatID int64) string {
	return filepath.Join(m.dir, strconv.FormatInt(chatID, 10))
}

func (m *Manager) removeArtifacts(chatID int64) {
	if m.dir == "" {
		return
	}
	_ = os.RemoveAll(m.chatDir(chatID))
}
