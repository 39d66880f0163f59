package handlers

import "sync"

// User states constants
const (
	stateNone              = "none"
	stateWaitingForGlucose = "waiting_for_glucose"
)

// stateManager tracks which prompt each Telegram user is answering
type stateManager struct {
	mu     sync.RWMutex
	states map[int64]string
}

func newStateManager() *stateManager {
	return &stateManager{states: make(map[int64]string)}
}

func (m *stateManager) set(telegramID int64, state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state == stateNone {
		delete(m.states, telegramID)
		return
	}
	m.states[telegramID] = state
}

func (m *stateManager) get(telegramID int64) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.states[telegramID]; ok {
		return s
	}
	return stateNone
}
