// Package output renders counting results in the formats selectable with
// --output (plain, json, yaml, pretty, template).
//
// Formatters are looked up by name in a registry:
//
//	formatter, err := output.Get("json")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, result); err != nil {
//	    return err
//	}
package output

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/primes/pkg/primes/counter"
	"github.com/jamesainslie/primes/pkg/primes/logging"
)

var logger = logging.Get("output")

// Result is everything known about one counting run.
type Result struct {
	// ID identifies the run in the history store. Empty when history is off.
	ID string

	// Max is the inclusive bound that was scanned.
	Max int32

	// Primes is the number of primes found.
	Primes int64

	// CPUSeconds is the process CPU time spent counting.
	CPUSeconds float64

	// Wall is the wall-clock duration of the run.
	Wall time.Duration

	// StartedAt is when the run began.
	StartedAt time.Time

	// Host is the machine the run executed on.
	Host string
}

// NewResult builds a Result from a finished counting run.
func NewResult(run counter.Result, startedAt time.Time, wall time.Duration) *Result {
	host, err := os.Hostname()
	if err != nil {
		logger.Debug("hostname unavailable", "error", err)
		host = ""
	}

	return &Result{
		Max:        run.Max,
		Primes:     run.Primes,
		CPUSeconds: run.CPUSeconds,
		Wall:       wall,
		StartedAt:  startedAt,
		Host:       host,
	}
}

// Counter converts back to the counter package's result.
func (r *Result) Counter() counter.Result {
	return counter.Result{Max: r.Max, Primes: r.Primes, CPUSeconds: r.CPUSeconds}
}

// Message returns the canonical one-line summary.
func (r *Result) Message() string {
	return r.Counter().Message()
}

// Formatter writes a Result in a specific format.
type Formatter interface {
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates an empty formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds or replaces the formatter called name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new instance of the formatter called name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %v)", name, r.availableLocked())
	}
	return factory(), nil
}

// Available returns the registered formatter names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.availableLocked()
}

func (r *Registry) availableLocked() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in formatters.
var DefaultRegistry = NewRegistry()

// Register adds a formatter to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a formatter from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available lists the default registry's formatters.
func Available() []string {
	return DefaultRegistry.Available()
}
