package orchestrator

import (
	"sync"
	"time"
)

// DefaultQuiet is the debounce window used when none is given.
const DefaultQuiet = 150 * time.Millisecond

// Debouncer delays a request until no newer one has arrived for the quiet
// period, then hands the latest request to fire.
type Debouncer struct {
	quiet time.Duration
	fire  func(Request)

	mu      sync.Mutex
	timer   *time.Timer
	latest  Request
	gen     uint64
	stopped bool
}

// NewDebouncer returns a Debouncer. A non-positive quiet uses DefaultQuiet.
func NewDebouncer(quiet time.Duration, fire func(Request)) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	return &Debouncer{quiet: quiet, fire: fire}
}

// Touch records req as the latest request and restarts the quiet period.
func (d *Debouncer) Touch(req Request) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.latest = req
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.gen
	d.timer = time.AfterFunc(d.quiet, func() { d.expire(gen) })
}

func (d *Debouncer) expire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	req := d.latest
	d.timer = nil
	d.mu.Unlock()
	d.fire(req)
}

// Cancel drops a pending trigger. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	return true
}

// Pending reports whether a trigger is waiting for its quiet period.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels any pending trigger and ignores further Touch calls.
func (d *Debouncer) Stop() {
	d.Cancel()
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
}
