package lifecycle

import (
	"sync/atomic"
	"time"
)

var (
	shuttingDown atomic.Bool
	drainStart   atomic.Int64
)

// BeginShutdown marks the process as draining. The first call records the
// drain start; later calls are no-ops. Returns true on the first call.
func BeginShutdown() bool {
	if !shuttingDown.CompareAndSwap(false, true) {
		return false
	}
	drainStart.Store(time.Now().UnixNano())
	return true
}

// SetShuttingDown sets or clears the shutdown flag directly. Clearing also
// forgets the drain start.
func SetShuttingDown(v bool) {
	if v {
		BeginShutdown()
		return
	}
	shuttingDown.Store(false)
	drainStart.Store(0)
}

// IsShuttingDown returns true while the process is draining and should not receive new traffic.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}

// DrainDuration returns how long the process has been draining, or zero.
func DrainDuration() time.Duration {
	start := drainStart.Load()
	if start == 0 || !IsShuttingDown() {
		return 0
	}
	return time.Since(time.Unix(0, start))
}
