package smb

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/diegodancourt/SmbSharp/internal/logger"
)

// ============================================================================
// Availability Probe
// ============================================================================

// AvailabilityCell caches a one-time determination of whether the client
// tool exists and is runnable.
//
// The cell is tri-state (unknown/true/false) and computes its value at
// most once, using a double-checked lock: a fast unsynchronized read
// once determined, and a synchronized re-check-then-compute path the
// first time. It is never reset for its lifetime.
//
// The cell is instance-scoped rather than a package-level static so
// tests can construct a fresh one; stores built without an explicit
// cell share sharedAvailability, preserving the at-most-once-per-process
// behavior under default wiring.
type AvailabilityCell struct {
	mu        sync.Mutex
	done      atomic.Bool
	available atomic.Bool
}

// NewAvailabilityCell returns an undetermined cell.
func NewAvailabilityCell() *AvailabilityCell {
	return &AvailabilityCell{}
}

// sharedAvailability is the process-wide cell used by default wiring.
var sharedAvailability = NewAvailabilityCell()

// determine returns the cached result, computing it on first use.
func (c *AvailabilityCell) determine(compute func() bool) bool {
	// Fast path: already determined, no lock taken.
	if c.done.Load() {
		return c.available.Load()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done.Load() {
		return c.available.Load()
	}
	c.available.Store(compute())
	c.done.Store(true)
	return c.available.Load()
}

// Available reports whether the client tool is runnable, probing it with
// a trivial version query on first call and caching the result for the
// lifetime of the cell.
//
// Any failure during the probe - binary missing, spawn error, non-zero
// exit - is treated as "unavailable" and never propagated.
func (s *SMBStore) Available(ctx context.Context) bool {
	return s.probe.determine(func() bool {
		res, err := s.invoker.Run(ctx, s.clientPath, []string{"--version"}, nil)
		if err != nil {
			logger.Warn("Client tool %s is not runnable: %v", s.clientPath, err)
			return false
		}
		if res.ExitCode != 0 {
			logger.Warn("Client tool %s version query exited with %d", s.clientPath, res.ExitCode)
			return false
		}
		return true
	})
}
