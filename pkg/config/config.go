// Package config provides configuration for the context management subsystem.
//
// A ManagerConfig is constructed once, validated eagerly, and shared read-only
// across every conversation that uses it. Invalid configuration fails fast at
// setup; nothing in this package raises errors mid-compaction.
package config

import (
	"errors"
	"fmt"
)

// Compaction strategy identifiers. The set is closed: the optimizer factory
// maps each value to a concrete optimizer, and anything else is a
// configuration error at lookup time.
const (
	StrategyTruncate      = "truncate"
	StrategySlidingWindow = "sliding_window"
	StrategyPruneTools    = "prune_tools"
	StrategySmart         = "smart"
)

// Monitor output formats.
const (
	MonitorFormatHuman = "human"
	MonitorFormatJSON  = "json"
)

// Defaults applied by DefaultManagerConfig.
const (
	DefaultCompactThreshold = 0.8
	DefaultCompactWatermark = 0.5
	DefaultOutputReserve    = 8000
)

// ErrInvalidConfig is the sentinel for all configuration validation failures.
var ErrInvalidConfig = errors.New("invalid configuration")

// ManagerConfig holds the settings for context compaction. It is immutable
// after construction and safe to share across conversations; each
// ContextManager keeps its own budget and state.
type ManagerConfig struct {
	// AutoCompact enables threshold-triggered compaction on append.
	AutoCompact bool `json:"auto_compact" yaml:"auto_compact"`

	// CompactThreshold is the usage ratio (estimated/usable) that triggers
	// automatic compaction. Must be in (0, 1].
	CompactThreshold float64 `json:"compact_threshold" yaml:"compact_threshold"`

	// CompactWatermark sets the compaction target as a fraction of the usable
	// budget. It sits below CompactThreshold so one pass leaves headroom and
	// the next turn does not immediately re-trigger. Must be in (0, 1).
	CompactWatermark float64 `json:"compact_watermark" yaml:"compact_watermark"`

	// Strategy selects the optimizer: truncate, sliding_window, prune_tools,
	// or smart.
	Strategy string `json:"strategy" yaml:"strategy"`

	// OutputReserve is the token allowance held back for the model's reply.
	OutputReserve int `json:"output_reserve" yaml:"output_reserve"`

	// Monitor settings. Monitoring is best-effort: write failures are logged
	// and swallowed, never surfaced to the caller.
	MonitorEnabled bool   `json:"monitor_enabled" yaml:"monitor_enabled"`
	MonitorPath    string `json:"monitor_path" yaml:"monitor_path"`
	MonitorFormat  string `json:"monitor_format" yaml:"monitor_format"`

	// RedactSensitive replaces message content with lengths in monitor
	// records.
	RedactSensitive bool `json:"redact_sensitive" yaml:"redact_sensitive"`
}

// DefaultManagerConfig returns the defaults used when context management is
// enabled without explicit settings.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		AutoCompact:      true,
		CompactThreshold: DefaultCompactThreshold,
		CompactWatermark: DefaultCompactWatermark,
		Strategy:         StrategySmart,
		OutputReserve:    DefaultOutputReserve,
		MonitorEnabled:   false,
		MonitorFormat:    MonitorFormatHuman,
		RedactSensitive:  true,
	}
}

// ValidStrategy reports whether name is a member of the closed strategy set.
func ValidStrategy(name string) bool {
	switch name {
	case StrategyTruncate, StrategySlidingWindow, StrategyPruneTools, StrategySmart:
		return true
	default:
		return false
	}
}

// Validate checks the config and returns an ErrInvalidConfig-wrapped error on
// the first violation. Call it at construction; a validated config cannot fail
// later.
func (c *ManagerConfig) Validate() error {
	if c.CompactThreshold <= 0 || c.CompactThreshold > 1 {
		return fmt.Errorf("%w: compact_threshold %.3f must be in (0, 1]", ErrInvalidConfig, c.CompactThreshold)
	}
	if c.CompactWatermark <= 0 || c.CompactWatermark >= 1 {
		return fmt.Errorf("%w: compact_watermark %.3f must be in (0, 1)", ErrInvalidConfig, c.CompactWatermark)
	}
	if c.CompactWatermark >= c.CompactThreshold {
		return fmt.Errorf("%w: compact_watermark %.3f must be below compact_threshold %.3f so compaction lands under its own trigger",
			ErrInvalidConfig, c.CompactWatermark, c.CompactThreshold)
	}
	if !ValidStrategy(c.Strategy) {
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, c.Strategy)
	}
	if c.OutputReserve < 0 {
		return fmt.Errorf("%w: output_reserve %d must be non-negative", ErrInvalidConfig, c.OutputReserve)
	}
	if c.MonitorFormat != MonitorFormatHuman && c.MonitorFormat != MonitorFormatJSON {
		return fmt.Errorf("%w: monitor_format %q must be %q or %q", ErrInvalidConfig, c.MonitorFormat, MonitorFormatHuman, MonitorFormatJSON)
	}
	if c.MonitorEnabled && c.MonitorPath == "" {
		return fmt.Errorf("%w: monitor_enabled requires monitor_path", ErrInvalidConfig)
	}
	return nil
}
