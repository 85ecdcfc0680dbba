// Package sched provides small scheduling helpers for coalescing bursts of work.
package sched

import (
	"sync"
	"time"
)

// DefaultDebounceInterval is used when a Debouncer is constructed with a non-positive interval.
const DefaultDebounceInterval = 200 * time.Millisecond

// Debouncer coalesces rapid successive triggers into a single invocation of the
// most recently supplied function. Only the last function passed to Trigger
// before the interval elapses runs.
type Debouncer struct {
	interval time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer builds a Debouncer firing after the given interval of quiet.
func NewDebouncer(interval time.Duration) *Debouncer {
	if interval <= 0 {
		interval = DefaultDebounceInterval
	}
	return &Debouncer{interval: interval}
}

// Interval reports the configured quiet interval.
func (d *Debouncer) Interval() time.Duration {
	return d.interval
}

// Trigger schedules fn to run once the interval elapses without another
// trigger. A pending invocation scheduled earlier is cancelled.
func (d *Debouncer) Trigger(fn func()) {
	if fn == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, fn)
}

// Cancel drops any pending invocation.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
