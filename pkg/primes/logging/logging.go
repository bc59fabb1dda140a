// Package logging wraps charmbracelet/log with per-component loggers and a
// rotating log file. Loggers obtained before Init discard everything, so
// packages can hold a logger in a package variable.
//
//	if err := logging.Init(logging.DefaultConfig()); err != nil {
//	    return err
//	}
//	defer logging.Close()
//
//	logging.Get("history").Info("run recorded", "id", id)
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// ErrInvalidLevel is returned for an unknown level name.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel accepts debug, info, warn (or warning) and error in any case.
// An empty string means info.
func ParseLevel(s string) (log.Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "":
		return log.InfoLevel, nil
	case "warning":
		return log.WarnLevel, nil
	}

	level, err := log.ParseLevel(name)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
	return level, nil
}

// Config configures Init.
type Config struct {
	Level      string
	Path       string // empty uses DefaultLogPath()
	Rotation   RotationConfig
	Components map[string]string // per-component level overrides

	// ConsoleLevel mirrors records to stderr at this level. Empty disables it.
	ConsoleLevel string
}

// Logger writes one component's records to the log file and, at --verbose,
// to stderr. Init and Close rebuild loggers in place, so a logger held in a
// package variable follows the live configuration.
type Logger struct {
	sinks []*log.Logger
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.emit(log.DebugLevel, msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.emit(log.InfoLevel, msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.emit(log.WarnLevel, msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.emit(log.ErrorLevel, msg, args) }

// With returns a child logger carrying extra key/value pairs.
func (l *Logger) With(args ...interface{}) *Logger {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	child := &Logger{sinks: make([]*log.Logger, len(l.sinks))}
	for i, sink := range l.sinks {
		child.sinks[i] = sink.With(args...)
	}
	return child
}

func (l *Logger) emit(level log.Level, msg string, args []interface{}) {
	reg.mu.RLock()
	sinks := l.sinks
	reg.mu.RUnlock()

	for _, sink := range sinks {
		sink.Log(level, msg, args...)
	}
}

// registry is the process-wide logging setup.
type registry struct {
	mu        sync.RWMutex
	writer    *RotatingWriter // nil until Init
	level     log.Level
	overrides map[string]log.Level
	console   bool
	conLevel  log.Level
	loggers   map[string]*Logger
}

var reg = &registry{
	level:     log.InfoLevel,
	overrides: map[string]log.Level{},
	loggers:   map[string]*Logger{},
}

// Init opens the log file and points every component logger at it.
// Calling Init again replaces the previous setup.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	overrides := make(map[string]log.Level, len(cfg.Components))
	for comp, name := range cfg.Components {
		if overrides[comp], err = ParseLevel(name); err != nil {
			return fmt.Errorf("parsing level for component %s: %w", comp, err)
		}
	}

	var conLevel log.Level
	console := cfg.ConsoleLevel != ""
	if console {
		if conLevel, err = ParseLevel(cfg.ConsoleLevel); err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if err := reg.closeWriter(); err != nil {
		return err
	}

	writer, err := NewRotatingWriter(path, cfg.Rotation)
	if err != nil {
		return fmt.Errorf("creating log writer: %w", err)
	}

	reg.writer = writer
	reg.level = level
	reg.overrides = overrides
	reg.console = console
	reg.conLevel = conLevel
	reg.rebuild()
	return nil
}

// Close flushes and closes the log file. Loggers go back to discarding.
func Close() error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	err := reg.closeWriter()
	reg.level = log.InfoLevel
	reg.overrides = map[string]log.Level{}
	reg.console = false
	reg.rebuild()
	return err
}

// Get returns the logger for a component, creating it on first use.
func Get(component string) *Logger {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if logger, ok := reg.loggers[component]; ok {
		return logger
	}
	logger := &Logger{sinks: reg.sinksFor(component)}
	reg.loggers[component] = logger
	return logger
}

// closeWriter must be called with mu held.
func (r *registry) closeWriter() error {
	if r.writer == nil {
		return nil
	}
	err := r.writer.Close()
	r.writer = nil
	if err != nil {
		return fmt.Errorf("closing log writer: %w", err)
	}
	return nil
}

// rebuild must be called with mu held.
func (r *registry) rebuild() {
	for component, logger := range r.loggers {
		logger.sinks = r.sinksFor(component)
	}
}

// sinksFor must be called with mu held.
func (r *registry) sinksFor(component string) []*log.Logger {
	if r.writer == nil {
		return []*log.Logger{log.NewWithOptions(io.Discard, log.Options{Prefix: component})}
	}

	level := r.level
	if override, ok := r.overrides[component]; ok {
		level = override
	}

	sinks := []*log.Logger{log.NewWithOptions(r.writer, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          component,
	})}
	if r.console {
		sinks = append(sinks, log.NewWithOptions(os.Stderr, log.Options{
			Level:           r.conLevel,
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		}))
	}
	return sinks
}

// DefaultLogPath returns $XDG_STATE_HOME/primes/primes.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "primes", "primes.log")
}

// DefaultConfig logs at info to DefaultLogPath with default rotation.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Path:     DefaultLogPath(),
		Rotation: DefaultRotationConfig(),
	}
}
