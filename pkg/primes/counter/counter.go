// Package counter implements the prime counting benchmark: a deliberately
// naive trial-division scan whose cost grows with the square of the bound.
//
// Basic usage:
//
//	max := counter.ParseBound(os.Args[1])
//	res := counter.Run(max)
//	fmt.Println(res.Message())
package counter

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jamesainslie/primes/pkg/primes/logging"
)

// UsageLine is printed when the command is invoked with the wrong number of arguments.
const UsageLine = "Usage: primes <max up to 2^31>"

// logger is the package-level logger for counting runs.
var logger = logging.Get("counter")

// Result holds the outcome of a single counting run.
type Result struct {
	// Max is the inclusive upper bound that was scanned.
	Max int32

	// Primes is the number of primes found in [1, Max].
	Primes int64

	// CPUSeconds is the process CPU time spent in the scan.
	CPUSeconds float64
}

// Message renders the result line printed on success.
func (r Result) Message() string {
	return fmt.Sprintf("This machine calculated all %d prime numbers under %d in %s seconds",
		r.Primes, r.Max, FormatSeconds(r.CPUSeconds))
}

// Count returns how many numbers in [1, max] survive trial division.
//
// Every candidate is divided by 2, 3, ... until a divisor is found. The
// candidate counts as prime only when the first divisor is the candidate
// itself. For 1 the inner loop never runs and i stays at 2, so 1 is not
// counted; for 2 the loop stops immediately at i == 2 == num.
func Count(max int32) int64 {
	bound := int64(max)
	var primes int64
	for num := int64(1); num <= bound; num++ {
		i := int64(2)
		for i <= num {
			if num%i == 0 {
				break
			}
			i++
		}
		if i == num {
			primes++
		}
	}
	return primes
}

// Run counts primes up to max and measures the process CPU time spent doing so.
func Run(max int32) Result {
	logger.Debug("counting primes", "max", max)

	start := CPUTime()
	primes := Count(max)
	elapsed := CPUTime() - start

	seconds := elapsed.Seconds()
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}

	logger.Debug("count finished", "max", max, "primes", primes, "cpu", elapsed)

	return Result{
		Max:        max,
		Primes:     primes,
		CPUSeconds: seconds,
	}
}

// CPUDuration converts the result's CPU seconds back to a duration.
func (r Result) CPUDuration() time.Duration {
	return time.Duration(r.CPUSeconds * float64(time.Second))
}

// FormatSeconds renders seconds the way printf's %g does: six significant
// digits, trailing zeros trimmed, exponent notation for very small or
// very large values.
func FormatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'g', 6, 64)
}
