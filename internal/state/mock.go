package state

import (
	"context"
	"slices"
	"sync"
)

// Mock is a test double for Manager. Saves are recorded synchronously.
type Mock struct {
	mu         sync.Mutex
	queueState *QueueState
	saves      []QueueState
	closed     bool
}

// NewMock creates a new mock state manager for testing.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) SaveQueue(state QueueState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state.IDs = slices.Clone(state.IDs)
	m.saves = append(m.saves, state)
	m.queueState = &state
}

func (m *Mock) GetQueue(_ context.Context) (*QueueState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queueState, nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test helpers

func (m *Mock) SetQueue(state *QueueState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queueState = state
}

// Saves returns every state passed to SaveQueue, oldest first.
func (m *Mock) Saves() []QueueState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.saves)
}

func (m *Mock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
