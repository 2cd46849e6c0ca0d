package contextmgr

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"contextcore/pkg/config"
	"contextcore/pkg/logx"
)

// MonitorRecord is one before/after compaction event written to the monitor
// log. Preview is populated only when sensitive redaction is disabled.
type MonitorRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	AgentID      string    `json:"agent_id"`
	Strategy     string    `json:"strategy"`
	Trigger      string    `json:"trigger"`
	BeforeCount  int       `json:"before_count"`
	AfterCount   int       `json:"after_count"`
	BeforeTokens int       `json:"before_tokens"`
	AfterTokens  int       `json:"after_tokens"`
	Degraded     bool      `json:"degraded,omitempty"`
	Actions      []string  `json:"actions,omitempty"`
	Preview      string    `json:"preview,omitempty"`
}

// Monitor writes compaction records to a log file as a best-effort side
// effect. Records are handed to a single writer goroutine through a buffered
// channel; when the buffer is full the record is dropped so a slow disk can
// never stall the LLM call path. Write failures are logged and swallowed.
type Monitor struct {
	path    string
	format  string
	redact  bool
	logger  *logx.Logger
	records chan MonitorRecord
	done    chan struct{}

	mu     sync.Mutex
	closed bool
}

const monitorBufferSize = 64

// NewMonitor creates a monitor writing to the given path in the given format
// and starts its writer goroutine.
func NewMonitor(path, format string, redact bool) *Monitor {
	m := &Monitor{
		path:    path,
		format:  format,
		redact:  redact,
		logger:  logx.NewLogger("monitor"),
		records: make(chan MonitorRecord, monitorBufferSize),
		done:    make(chan struct{}),
	}
	go m.run()
	return m
}

// Record queues a compaction record for writing. Never blocks and never
// returns an error; a saturated buffer drops the record, and a closed
// monitor discards it.
func (m *Monitor) Record(rec MonitorRecord) {
	if m.redact {
		rec.Preview = ""
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	select {
	case m.records <- rec:
	default:
		m.logger.Debug("monitor buffer full, dropping record for %s", rec.AgentID)
	}
}

// Close flushes queued records and stops the writer goroutine. Safe to call
// more than once; later calls are no-ops.
func (m *Monitor) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.records)
	m.mu.Unlock()
	<-m.done
}

func (m *Monitor) run() {
	defer close(m.done)
	for rec := range m.records {
		if err := m.write(rec); err != nil {
			m.logger.Warn("monitor write failed: %v", err)
		}
	}
}

func (m *Monitor) write(rec MonitorRecord) error {
	f, err := os.OpenFile(m.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open monitor log: %w", err)
	}
	defer f.Close()

	var line string
	if m.format == config.MonitorFormatJSON {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal monitor record: %w", err)
		}
		line = string(data)
	} else {
		line = formatHuman(rec)
	}

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("failed to write monitor record: %w", err)
	}
	return nil
}

func formatHuman(rec MonitorRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] agent=%s strategy=%s trigger=%s tokens=%d->%d messages=%d->%d",
		rec.Timestamp.Format(time.RFC3339), rec.AgentID, rec.Strategy, rec.Trigger,
		rec.BeforeTokens, rec.AfterTokens, rec.BeforeCount, rec.AfterCount)
	if rec.Degraded {
		b.WriteString(" degraded=true")
	}
	if len(rec.Actions) > 0 {
		fmt.Fprintf(&b, " actions=%q", strings.Join(rec.Actions, "; "))
	}
	if rec.Preview != "" {
		fmt.Fprintf(&b, " preview=%q", rec.Preview)
	}
	return b.String()
}
