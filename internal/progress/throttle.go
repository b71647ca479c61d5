package progress

import "time"

// Throttle decides when a recurring progress update should actually be
// sent: every N units processed, or every D wall-clock time, whichever
// comes first. Mirrors the source's:
//
//	if (g_scan_count % 500 == 0 || (now - g_last_scan_notify) >= 3) { ... }
//	if (g_delete_count % 50 == 0 || (now - g_last_notify) >= 2) { ... }
//
// but as a value owned by the single operation using it rather than a
// process global, so two recursive operations on different connections
// don't fight over one last-notify timestamp.
type Throttle struct {
	every    int
	interval time.Duration
	count    int
	last     time.Time
	now      func() time.Time
}

// NewThrottle returns a Throttle that fires every `every` calls to Tick or
// every `interval` of wall time since the last fire, whichever is sooner.
func NewThrottle(every int, interval time.Duration) *Throttle {
	return &Throttle{every: every, interval: interval, now: time.Now, last: time.Now()}
}

// Tick records one unit of progress and reports whether an update should
// be emitted now.
func (t *Throttle) Tick() bool {
	t.count++
	now := t.now()
	if t.every > 0 && t.count%t.every == 0 {
		t.last = now
		return true
	}
	if t.interval > 0 && now.Sub(t.last) >= t.interval {
		t.last = now
		return true
	}
	return false
}

// Count returns the number of Tick calls so far.
func (t *Throttle) Count() int {
	return t.count
}
