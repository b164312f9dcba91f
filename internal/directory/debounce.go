// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package directory

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid consecutive saves against the same slug into a
// single write. Each new schedule cancels and replaces the pending timer
// for that slug. Close cancels everything so no late write can hit a stale
// slug after the owning surface goes away.
type Debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	timers map[string]*time.Timer
	closed bool
}

// NewDebouncer creates a debouncer with a fixed delay.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:  delay,
		timers: make(map[string]*time.Timer),
	}
}

// Schedule runs fn after the delay unless another Schedule for the same
// slug replaces it first.
func (d *Debouncer) Schedule(slug string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if t, ok := d.timers[slug]; ok {
		t.Stop()
	}
	d.timers[slug] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.closed {
			d.mu.Unlock()
			return
		}
		delete(d.timers, slug)
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending write for slug, if any.
func (d *Debouncer) Cancel(slug string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[slug]; ok {
		t.Stop()
		delete(d.timers, slug)
	}
}

// Pending reports whether a write is scheduled for slug.
func (d *Debouncer) Pending(slug string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.timers[slug]
	return ok
}

// Close cancels every pending write. The debouncer accepts no further
// schedules afterward.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for slug, t := range d.timers {
		t.Stop()
		delete(d.timers, slug)
	}
}
