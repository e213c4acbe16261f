// Package store provides the in-memory ledger.Store.
package store

import (
	"context"
	"sync"

	"github.com/moneyflow/ledger-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps the last saved state as a deep copy.
type Memory struct {
	mu    sync.RWMutex
	state *ledger.State
	saves int
	err   error
}

func NewMemory() *Memory {
	return &Memory{}
}

// NewMemoryWith returns a store that already holds s.
func NewMemoryWith(s *ledger.State) *Memory {
	return &Memory{state: s.Clone()}
}

func (m *Memory) Load(_ context.Context) (*ledger.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return nil, ledger.ErrNoState
	}
	return m.state.Clone(), nil
}

func (m *Memory) Save(_ context.Context, s *ledger.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.state = s.Clone()
	m.saves++
	return nil
}

// Saves counts successful saves.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// FailSaves makes every following Save return err until called with nil.
func (m *Memory) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}
