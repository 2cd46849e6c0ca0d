package contextmgr

import (
	"sort"
	"sync"

	"contextcore/pkg/config"
)

// MultiAgentContextManager maps participant identity to a ContextManager. All
// managers share one immutable config but keep independent budgets and state,
// so one participant's compaction never affects another's. Entries are
// created lazily on first use.
//
// Different participants may call concurrently as long as each touches only
// its own entry; entry creation is synchronized to avoid duplicates.
type MultiAgentContextManager struct {
	mu         sync.RWMutex
	cfg        config.ManagerConfig
	modelLimit int
	opts       []Option
	managers   map[string]*ContextManager
}

// NewMultiAgentContextManager creates a keyed collection of context managers
// sharing cfg and the given model context limit. Configuration errors fail
// fast here so lazy per-participant creation cannot fail later.
func NewMultiAgentContextManager(cfg config.ManagerConfig, modelLimit int, opts ...Option) (*MultiAgentContextManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &MultiAgentContextManager{
		cfg:        cfg,
		modelLimit: modelLimit,
		opts:       opts,
		managers:   make(map[string]*ContextManager),
	}, nil
}

// ContextFor returns the context manager for the given participant, creating
// it on first use.
func (m *MultiAgentContextManager) ContextFor(agentID string) (*ContextManager, error) {
	m.mu.RLock()
	cm, exists := m.managers[agentID]
	m.mu.RUnlock()
	if exists {
		return cm, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another caller may have created it between the locks.
	if cm, exists := m.managers[agentID]; exists {
		return cm, nil
	}

	cm, err := NewContextManager(agentID, m.cfg, m.modelLimit, m.opts...)
	if err != nil {
		return nil, err
	}
	m.managers[agentID] = cm
	return cm, nil
}

// Has reports whether a manager already exists for the participant, without
// creating one.
func (m *MultiAgentContextManager) Has(agentID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.managers[agentID]
	return exists
}

// AgentIDs returns the participants with live managers, sorted for stable
// iteration.
func (m *MultiAgentContextManager) AgentIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.managers))
	for id := range m.managers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Remove discards the participant's manager and releases its monitor.
func (m *MultiAgentContextManager) Remove(agentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cm, exists := m.managers[agentID]; exists {
		cm.Close()
		delete(m.managers, agentID)
	}
}

// Close releases every manager in the collection.
func (m *MultiAgentContextManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, cm := range m.managers {
		cm.Close()
		delete(m.managers, id)
	}
}
