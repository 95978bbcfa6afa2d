package rules

import (
	"context"
	"sync"
)

// Snapshot is the persisted state of the store
type Snapshot struct {
	Rules        []Rule
	ActiveRuleID string
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{ActiveRuleID: s.ActiveRuleID, Rules: make([]Rule, len(s.Rules))}
	for i, r := range s.Rules {
		out.Rules[i] = r.Clone()
	}
	return out
}

// Persister loads and saves the rule set.
// Load returns an empty snapshot, not an error, when nothing was saved yet.
type Persister interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}

// MemoryPersister keeps the snapshot in process memory
type MemoryPersister struct {
	mu    sync.Mutex
	snap  Snapshot
	saves int
	// SaveErr, when set, is returned from Save without storing anything
	SaveErr error
}

// NewMemoryPersister returns a persister pre-loaded with snap
func NewMemoryPersister(snap Snapshot) *MemoryPersister {
	return &MemoryPersister{snap: snap.clone()}
}

// Load returns a copy of the stored snapshot
func (m *MemoryPersister) Load(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.clone(), nil
}

// Save replaces the stored snapshot
func (m *MemoryPersister) Save(ctx context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.snap = snap.clone()
	m.saves++
	return nil
}

// Saves returns how many successful saves happened
func (m *MemoryPersister) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
