// Package diag provides the structured diagnostics logger that accumulates
// non-fatal DomainWarnings alongside solver results, per spec §7: "a logger
// accumulates per-element warnings and is always returned alongside
// results."
package diag

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Kind classifies a non-fatal domain warning.
type Kind string

const (
	WarnMultipleSlack             Kind = "multiple_slack"
	WarnContingencyDeviceNotFound Kind = "contingency_device_not_found"
	WarnLODFClipped               Kind = "lodf_clipped"
	WarnAntennaContingency        Kind = "antenna_contingency"
	WarnSingularFallback          Kind = "singular_fallback"
	WarnIslandNoSlack             Kind = "island_no_slack"
	WarnHELMTruncated             Kind = "helm_truncated"
)

// Warning is one accumulated diagnostic, addressable by island/element index
// so callers can correlate it with the offending part of the snapshot.
type Warning struct {
	Kind       Kind
	Island     int
	ElementIdx int
	Message    string
}

// Level mirrors the teacher-pack's LogLevel enumeration (chaos-utils
// reporting.LogLevel).
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Config configures a Logger the way chaos-utils' LoggerConfig does.
type Config struct {
	Level  Level
	Output io.Writer
}

// Logger wraps zerolog for structured output while also retaining an
// in-memory slice so callers can inspect warnings programmatically without
// re-parsing the log stream.
type Logger struct {
	mu       sync.Mutex
	zl       zerolog.Logger
	warnings []Warning
}

// New creates a Logger with the given configuration.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	zl := zerolog.New(cfg.Output).With().Timestamp().Logger()
	switch cfg.Level {
	case LevelDebug:
		zl = zl.Level(zerolog.DebugLevel)
	case LevelError:
		zl = zl.Level(zerolog.ErrorLevel)
	case LevelWarn:
		zl = zl.Level(zerolog.WarnLevel)
	default:
		zl = zl.Level(zerolog.InfoLevel)
	}
	return &Logger{zl: zl}
}

// NewSilent creates a Logger that discards log output but still accumulates
// Warnings() for programmatic inspection — the default for library callers
// that don't want stdout chatter (e.g. test code, per-solve driver loops).
func NewSilent() *Logger {
	return New(Config{Level: LevelError, Output: io.Discard})
}

// Warn records a non-fatal DomainWarning: both emitted as a structured log
// event and appended to the in-memory slice returned via Warnings().
func (l *Logger) Warn(kind Kind, island, elementIdx int, msg string) {
	l.mu.Lock()
	l.warnings = append(l.warnings, Warning{Kind: kind, Island: island, ElementIdx: elementIdx, Message: msg})
	l.mu.Unlock()

	l.zl.Warn().
		Str("kind", string(kind)).
		Int("island", island).
		Int("element_idx", elementIdx).
		Msg(msg)
}

// Warnings returns a copy of all warnings accumulated so far.
func (l *Logger) Warnings() []Warning {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Warning, len(l.warnings))
	copy(out, l.warnings)
	return out
}

// Info logs a non-warning informational event (e.g. solver convergence
// summary) without accumulating it as a Warning.
func (l *Logger) Info(msg string, fields map[string]any) {
	ev := l.zl.Info()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}
