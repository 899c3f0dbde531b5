package wizard

import (
	"sync"
	"time"
)

// Debouncer runs at most one pending call per key. A new Trigger for the same
// key restarts the delay and replaces the pending call.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*debounceEntry
	seq     uint64
	stopped bool
}

type debounceEntry struct {
	timer *time.Timer
	seq   uint64
}

// NewDebouncer builds a debouncer with a fixed delay.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &Debouncer{delay: delay, pending: make(map[string]*debounceEntry)}
}

// Delay returns the configured inactivity window.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Trigger schedules fn for key after the delay, dropping any call already pending for key.
func (d *Debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if prev, ok := d.pending[key]; ok {
		prev.timer.Stop()
	}
	d.seq++
	seq := d.seq
	entry := &debounceEntry{seq: seq}
	entry.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current, ok := d.pending[key]
		if !ok || current.seq != seq {
			d.mu.Unlock()
			return
		}
		delete(d.pending, key)
		d.mu.Unlock()
		fn()
	})
	d.pending[key] = entry
}

// Cancel drops the pending call for key and reports whether one existed.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry, ok := d.pending[key]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(d.pending, key)
	return true
}

// Pending reports whether a call is scheduled for key.
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// Stop drops every pending call. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, entry := range d.pending {
		entry.timer.Stop()
		delete(d.pending, key)
	}
	d.stopped = true
}
