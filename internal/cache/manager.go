package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type entry struct {
	data    []byte
	expires time.Time
}

// Manager is the in-process Cache used when no Redis host is configured
type Manager struct {
	ttl     time.Duration
	now     func() time.Time
	entries map[string]map[string]entry
	gens    map[string]int64
	mu      sync.RWMutex
}

// NewManager creates a new in-memory cache
func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		ttl:     ttlOrDefault(ttl),
		now:     time.Now,
		entries: make(map[string]map[string]entry),
		gens:    make(map[string]int64),
	}
}

// Get gets a value for a user
func (m *Manager) Get(_ context.Context, userID, key string, dst any) (bool, error) {
	m.mu.RLock()
	e, ok := m.entries[userID][key]
	m.mu.RUnlock()

	if !ok || !m.now().Before(e.expires) {
		return false, nil
	}
	if err := json.Unmarshal(e.data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// Generation returns the user's current generation
func (m *Manager) Generation(_ context.Context, userID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gens[userID], nil
}

// Set sets a value for a user. Values computed under a stale generation are
// dropped.
func (m *Manager) Set(_ context.Context, userID string, gen int64, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gens[userID] {
		return nil
	}
	if m.entries[userID] == nil {
		m.entries[userID] = make(map[string]entry)
	}
	m.entries[userID][key] = entry{data: data, expires: m.now().Add(m.ttl)}
	return nil
}

// InvalidateUser clears all values for a user
func (m *Manager) InvalidateUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userID)
	m.gens[userID]++
	return nil
}

func (m *Manager) Close() error { return nil }

var _ Cache = (*Manager)(nil)
