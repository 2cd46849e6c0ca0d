package contextmgr

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contextcore/pkg/config"
)

func newTestMulti(t *testing.T) *MultiAgentContextManager {
	t.Helper()
	cfg := config.DefaultManagerConfig()
	cfg.OutputReserve = 0
	mgr, err := NewMultiAgentContextManager(cfg, 1000)
	require.NoError(t, err)
	return mgr
}

func TestMultiAgentLazyCreation(t *testing.T) {
	mgr := newTestMulti(t)

	assert.False(t, mgr.Has("architect"))
	assert.Empty(t, mgr.AgentIDs())

	cm, err := mgr.ContextFor("architect")
	require.NoError(t, err)
	require.NotNil(t, cm)
	assert.Equal(t, "architect", cm.AgentID())
	assert.True(t, mgr.Has("architect"))

	// Same participant gets the same manager.
	again, err := mgr.ContextFor("architect")
	require.NoError(t, err)
	assert.Same(t, cm, again)
}

func TestMultiAgentInvalidConfig(t *testing.T) {
	cfg := config.DefaultManagerConfig()
	cfg.Strategy = "bogus"

	_, err := NewMultiAgentContextManager(cfg, 1000)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

// One participant's compaction must never affect another's conversation.
func TestMultiAgentIsolation(t *testing.T) {
	mgr := newTestMulti(t)

	architect, err := mgr.ContextFor("architect")
	require.NoError(t, err)
	coder, err := mgr.ContextFor("coder")
	require.NoError(t, err)

	coder.AddMessage(RoleSystem, "You are a coding assistant")
	for i := 0; i < 100; i++ {
		coder.AddMessage(RoleUser, fmt.Sprintf("filler question number %d with some padding text", i))
		coder.AddMessage(RoleAssistant, fmt.Sprintf("filler answer number %d with some padding text", i))
	}
	architect.AddMessage(RoleUser, "plan the next story")

	_, compacted := coder.CompactIfNeeded()
	require.True(t, compacted)

	assert.Equal(t, 1, architect.MessageCount(),
		"compacting one participant must not touch another")
}

func TestMultiAgentConcurrentCreation(t *testing.T) {
	mgr := newTestMulti(t)

	const goroutines = 16
	managers := make([]*ContextManager, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			cm, err := mgr.ContextFor("shared")
			assert.NoError(t, err)
			managers[i] = cm
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		assert.Same(t, managers[0], managers[i],
			"concurrent first use must not create duplicate managers")
	}
	assert.Equal(t, []string{"shared"}, mgr.AgentIDs())
}

func TestMultiAgentRemove(t *testing.T) {
	mgr := newTestMulti(t)

	_, err := mgr.ContextFor("architect")
	require.NoError(t, err)
	_, err = mgr.ContextFor("coder")
	require.NoError(t, err)
	assert.Equal(t, []string{"architect", "coder"}, mgr.AgentIDs())

	mgr.Remove("architect")
	assert.False(t, mgr.Has("architect"))
	assert.Equal(t, []string{"coder"}, mgr.AgentIDs())

	// Removing an unknown participant is a no-op.
	mgr.Remove("unknown")

	mgr.Close()
	assert.Empty(t, mgr.AgentIDs())
}

// A monitor shared across participants must survive one of them going away:
// removing a participant closes its manager, and the survivor's next
// compaction still records through the same monitor.
func TestMultiAgentSharedMonitorSurvivesRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compaction.log")
	monitor := NewMonitor(path, config.MonitorFormatJSON, false)

	cfg := config.DefaultManagerConfig()
	cfg.OutputReserve = 0
	mgr, err := NewMultiAgentContextManager(cfg, 1000, WithMonitor(monitor))
	require.NoError(t, err)

	_, err = mgr.ContextFor("architect")
	require.NoError(t, err)
	coder, err := mgr.ContextFor("coder")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		coder.AddMessage(RoleUser, fmt.Sprintf("filler question number %d with some padding text", i))
		coder.AddMessage(RoleAssistant, fmt.Sprintf("filler answer number %d with some padding text", i))
	}

	mgr.Remove("architect")
	require.NotPanics(t, func() { coder.Compact() })

	mgr.Close()
	monitor.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"agent_id":"coder"`)
}
