package core

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid calls per key into one, fired after a quiet
// period. Keys are independent: scheduling key A never resets key B.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	entries map[int]*debounceEntry
	closed  bool
}

type debounceEntry struct {
	timer *time.Timer
	fn    func()
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:   delay,
		entries: make(map[int]*debounceEntry),
	}
}

// Schedule replaces any pending call for key; only the latest fn runs.
func (d *Debouncer) Schedule(key int, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if e, ok := d.entries[key]; ok {
		e.timer.Stop()
	}
	e := &debounceEntry{fn: fn}
	e.timer = time.AfterFunc(d.delay, func() { d.fire(key, e) })
	d.entries[key] = e
}

func (d *Debouncer) fire(key int, e *debounceEntry) {
	d.mu.Lock()
	cur, ok := d.entries[key]
	if d.closed || !ok || cur != e {
		// superseded or cancelled between timer fire and lock
		d.mu.Unlock()
		return
	}
	delete(d.entries, key)
	d.mu.Unlock()
	e.fn()
}

// Cancel drops any pending call for key.
func (d *Debouncer) Cancel(key int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.entries[key]; ok {
		e.timer.Stop()
		delete(d.entries, key)
	}
}

// Flush runs every pending call now, in no particular order.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	fns := make([]func(), 0, len(d.entries))
	for key, e := range d.entries {
		e.timer.Stop()
		fns = append(fns, e.fn)
		delete(d.entries, key)
	}
	d.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Close cancels everything pending; the Debouncer is unusable afterwards.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for key, e := range d.entries {
		e.timer.Stop()
		delete(d.entries, key)
	}
}
