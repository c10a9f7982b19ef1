// Package throttle rate-limits measurements per device.
package throttle

import (
	"time"

	"github.com/lautis/ruuvitag-listener/internal/mac"
)

const (
	// Entries older than this multiple of the interval are swept.
	staleThresholdMultiplier = 10
	// Number of ShouldEmit calls between sweep checks.
	sweepCheckInterval = 100
	// Minimum tracked devices before a sweep is worthwhile. Typical
	// deployments have far fewer tags than this, so small stable maps
	// never pay the sweep cost.
	sweepSizeThreshold = 50
)

// Throttle allows at most one emission per device per interval. The first
// sighting of a device always passes. Stale entries are swept periodically
// so memory stays bounded when devices disappear.
//
// Throttle is not safe for concurrent use; the pipeline's single consumer
// owns it.
type Throttle struct {
	interval   time.Duration
	lastSeen   map[mac.Address]time.Time
	checkCount int

	now func() time.Time // replaced in tests
}

// New creates a throttle. A zero interval disables throttling: every
// observation is accepted.
func New(interval time.Duration) *Throttle {
	return &Throttle{
		interval: interval,
		lastSeen: make(map[mac.Address]time.Time),
		now:      time.Now,
	}
}

// ShouldEmit reports whether a reading from addr should pass. The per-device
// clock resets only on an accepted observation; a blocked observation leaves
// the recorded instant untouched.
func (t *Throttle) ShouldEmit(addr mac.Address) bool {
	t.checkCount++
	if t.checkCount >= sweepCheckInterval {
		t.checkCount = 0
		if len(t.lastSeen) > sweepSizeThreshold {
			t.sweep()
		}
	}

	now := t.now()
	if last, ok := t.lastSeen[addr]; ok && now.Sub(last) < t.interval {
		return false
	}
	t.lastSeen[addr] = now
	return true
}

// sweep drops entries not updated within staleThresholdMultiplier intervals.
// With a zero interval there is no meaningful staleness threshold, so the
// sweep is a no-op.
func (t *Throttle) sweep() {
	if t.interval == 0 {
		return
	}

	threshold := t.interval * staleThresholdMultiplier
	now := t.now()
	for addr, last := range t.lastSeen {
		if now.Sub(last) > threshold {
			delete(t.lastSeen, addr)
		}
	}
}
