// Package store defines the Scenario Store contract and the backends that do
// not need a database: an in-memory map and a client for a remote API server.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"scenario-engine/internal/simulation"
)

// Store persists one ScenarioInput per owner with insert-or-replace semantics.
// Results are never stored; they are recomputed from the input.
type Store interface {
	// Load returns nil, nil when the owner has no scenario.
	Load(ctx context.Context, ownerID string) (*simulation.ScenarioInput, error)
	// Save replaces any scenario previously stored for the owner.
	Save(ctx context.Context, ownerID string, input simulation.ScenarioInput) error
}

// Pinger is implemented by stores that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ValidateOwnerID rejects empty or whitespace-only owner keys.
func ValidateOwnerID(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return fmt.Errorf("owner id is required")
	}
	return nil
}

// MemoryStore keeps scenarios in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	scenarios map[string]simulation.ScenarioInput
	records   map[string]Record
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scenarios: make(map[string]simulation.ScenarioInput),
		records:   make(map[string]Record),
	}
}

func (m *MemoryStore) Load(_ context.Context, ownerID string) (*simulation.ScenarioInput, error) {
	if err := ValidateOwnerID(ownerID); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	in, ok := m.scenarios[ownerID]
	if !ok {
		return nil, nil
	}
	return &in, nil
}

func (m *MemoryStore) Save(_ context.Context, ownerID string, input simulation.ScenarioInput) error {
	if err := ValidateOwnerID(ownerID); err != nil {
		return err
	}
	m.mu.Lock()
	m.scenarios[ownerID] = input
	m.records[ownerID] = NewRecord(ownerID)
	m.mu.Unlock()
	return nil
}

// List returns stored owners ordered by owner id.
func (m *MemoryStore) List(context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OwnerID < out[j].OwnerID })
	return out, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

// Len returns the number of stored scenarios.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.scenarios)
}
