//go:build linux

package counter

import (
	"time"

	"golang.org/x/sys/unix"
)

// CPUTime returns the CPU time consumed by the whole process.
// On Linux, this reads the per-process CPU clock.
func CPUTime() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_PROCESS_CPUTIME_ID, &ts); err != nil {
		logger.Warn("process cpu clock unavailable", "error", err)
		return rusageTime()
	}
	return time.Duration(ts.Nano())
}
