package contextmgr

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contextcore/pkg/config"
)

func sampleRecord() MonitorRecord {
	return MonitorRecord{
		Timestamp:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		AgentID:      "coder-001",
		Strategy:     "smart",
		Trigger:      "auto",
		BeforeCount:  42,
		AfterCount:   18,
		BeforeTokens: 9000,
		AfterTokens:  4200,
		Actions:      []string{"pruned 3 tool outputs"},
		Preview:      "Running tests now",
	}
}

func TestMonitorWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compaction.log")
	m := NewMonitor(path, config.MonitorFormatJSON, false)

	m.Record(sampleRecord())
	m.Record(sampleRecord())
	m.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var rec MonitorRecord
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "coder-001", rec.AgentID)
	assert.Equal(t, "smart", rec.Strategy)
	assert.Equal(t, 9000, rec.BeforeTokens)
	assert.Equal(t, 4200, rec.AfterTokens)
	assert.Equal(t, "Running tests now", rec.Preview)
}

func TestMonitorHumanFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compaction.log")
	m := NewMonitor(path, config.MonitorFormatHuman, false)

	m.Record(sampleRecord())
	m.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	line := strings.TrimSpace(string(data))
	assert.Contains(t, line, "agent=coder-001")
	assert.Contains(t, line, "strategy=smart")
	assert.Contains(t, line, "tokens=9000->4200")
	assert.Contains(t, line, "messages=42->18")
}

func TestMonitorRedactsPreview(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compaction.log")
	m := NewMonitor(path, config.MonitorFormatJSON, true)

	m.Record(sampleRecord())
	m.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rec MonitorRecord
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &rec))
	assert.Empty(t, rec.Preview, "redaction must strip conversation content")
	assert.Equal(t, 9000, rec.BeforeTokens, "sizes are not sensitive")
}

// A monitor pointed at an unwritable path must swallow the failure.
func TestMonitorWriteFailureIsSwallowed(t *testing.T) {
	m := NewMonitor(filepath.Join(t.TempDir(), "missing", "nested", "compaction.log"),
		config.MonitorFormatJSON, false)

	m.Record(sampleRecord())
	m.Close()
}

// Closing twice must be a no-op, and recording after close must discard the
// record instead of panicking. A shared monitor sees both once its users
// shut down at different times.
func TestMonitorCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compaction.log")
	m := NewMonitor(path, config.MonitorFormatJSON, false)

	m.Record(sampleRecord())
	m.Close()
	m.Close()
	m.Record(sampleRecord())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 1, "records after close must be discarded")
}
