//go:build !unix

package counter

import "time"

// processStart approximates process start for platforms without a CPU clock.
var processStart = time.Now()

// CPUTime returns the time elapsed since the process started.
// Platforms without a process CPU clock fall back to monotonic wall time,
// which is an upper bound for a single-threaded computation.
func CPUTime() time.Duration {
	return time.Since(processStart)
}
