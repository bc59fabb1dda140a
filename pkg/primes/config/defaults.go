// Package config provides configuration management for the primes benchmark.
package config

// Default configuration values for primes.
const (
	// AppName names the XDG subdirectories and the environment prefix.
	AppName = "primes"

	// EnvPrefix prefixes environment overrides (PRIMES_OUTPUT, PRIMES_HISTORY_ENABLED, ...).
	EnvPrefix = "PRIMES"

	// DefaultOutput is the formatter used when none is requested.
	DefaultOutput = "plain"

	// DefaultRetentionDays is how long run history is kept.
	DefaultRetentionDays = 30

	// DefaultLogLevel is the log file level.
	DefaultLogLevel = "info"

	// DefaultLogMaxSize is the log rotation threshold.
	DefaultLogMaxSize = "10MiB"
)

// DefaultComponentLevels holds the per-component log levels written to new config files.
var DefaultComponentLevels = map[string]string{
	"cli":     "info",
	"counter": "info",
	"history": "info",
	"output":  "warn",
}
