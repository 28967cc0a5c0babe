package storage

import (
	"sync"

	"trek/internal/model"
)

// Memory keeps the last saved snapshot in process memory. It backs the
// explicit memory driver for throwaway runs and doubles as the test
// adapter: saves are counted and failures can be injected.
type Memory struct {
	mu       sync.Mutex
	snapshot []model.Item
	saves    int
	failWith error
}

func NewMemory() *Memory { return &Memory{} }

// Seed primes the snapshot as if a previous run had saved it.
func (m *Memory) Seed(items []model.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = model.CloneAll(items)
}

func (m *Memory) Load() ([]model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	if m.snapshot == nil {
		return []model.Item{}, nil
	}
	return model.CloneAll(m.snapshot), nil
}

func (m *Memory) Save(items []model.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.snapshot = model.CloneAll(items)
	m.saves++
	return nil
}

func (m *Memory) Close() error { return nil }

// FailWith makes every following Load and Save return err. Passing nil
// restores normal operation.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

// Saves reports how many saves succeeded.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
