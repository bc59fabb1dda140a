//go:build unix && !linux

package counter

import "time"

// CPUTime returns the CPU time consumed by the whole process.
// On non-Linux unix platforms, this sums user and system time from getrusage.
func CPUTime() time.Duration {
	return rusageTime()
}
