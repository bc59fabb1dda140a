//go:build unix

package counter

import (
	"time"

	"golang.org/x/sys/unix"
)

// rusageTime returns user plus system time from getrusage(RUSAGE_SELF).
func rusageTime() time.Duration {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		logger.Warn("getrusage failed", "error", err)
		return 0
	}
	return time.Duration(ru.Utime.Nano() + ru.Stime.Nano())
}
