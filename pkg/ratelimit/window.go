// Package ratelimit bounds successful completions per trailing window.
package ratelimit

import (
	"sort"
	"sync"
	"time"
)

// Defaults for the process-wide admission window.
const (
	DefaultLimit  = 10
	DefaultWindow = time.Minute
)

// Window is a sliding-window counter. Admission checks do not record;
// callers record a timestamp only once a request has succeeded, so the
// window bounds successes rather than attempts.
type Window struct {
	mu     sync.Mutex
	stamps []time.Time
	limit  int
	length time.Duration
}

// New creates a Window admitting at most limit recorded events per length.
// Non-positive values select the defaults.
func New(limit int, length time.Duration) *Window {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if length <= 0 {
		length = DefaultWindow
	}
	return &Window{limit: limit, length: length}
}

// TryAdmit evicts stale timestamps and reports whether another request may
// proceed at now.
func (w *Window) TryAdmit(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.evict(now)
	return len(w.stamps) < w.limit
}

// Record adds now to the window and reports whether it was kept. Requests
// admitted concurrently can all succeed; once the window already holds
// limit stamps the extra ones are dropped, so at most limit are retained.
func (w *Window) Record(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.evict(now)
	if len(w.stamps) >= w.limit {
		return false
	}

	// Concurrent requests can finish out of order; keep the slice sorted so
	// eviction stays a prefix trim.
	i := sort.Search(len(w.stamps), func(i int) bool { return w.stamps[i].After(now) })
	w.stamps = append(w.stamps, time.Time{})
	copy(w.stamps[i+1:], w.stamps[i:])
	w.stamps[i] = now
	return true
}

// Used returns the number of timestamps inside the window at now.
func (w *Window) Used(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.evict(now)
	return len(w.stamps)
}

// Limit returns the configured ceiling.
func (w *Window) Limit() int {
	return w.limit
}

func (w *Window) evict(now time.Time) {
	cutoff := now.Add(-w.length)
	n := 0
	for n < len(w.stamps) && w.stamps[n].Before(cutoff) {
		n++
	}
	if n > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[n:]...)
	}
}
