// Package availability tracks per-model cooldowns after retryable failures.
package availability

import (
	"sync"
	"time"
)

// DefaultCooldown is how long a model is skipped after a retryable failure.
const DefaultCooldown = 5 * time.Minute

// Ledger maps model identifiers to cooldown expiry times. A model with no
// entry, or whose entry has expired, is available. Expired entries are
// removed on lookup; there is no background sweep.
type Ledger struct {
	mu       sync.Mutex
	entries  map[string]time.Time
	cooldown time.Duration
	nowFunc  func() time.Time
}

// New creates a Ledger. A non-positive cooldown selects DefaultCooldown.
func New(cooldown time.Duration) *Ledger {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Ledger{
		entries:  make(map[string]time.Time),
		cooldown: cooldown,
		nowFunc:  time.Now,
	}
}

// SetClock replaces the time source used by IsAvailable.
func (l *Ledger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nowFunc = now
}

// IsAvailable reports whether model may be tried now.
func (l *Ledger) IsAvailable(model string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	expiry, ok := l.entries[model]
	if !ok {
		return true
	}
	if l.nowFunc().Before(expiry) {
		return false
	}
	delete(l.entries, model)
	return true
}

// MarkUnavailable puts model in cooldown until now plus the cooldown.
// Any previous entry is overwritten.
func (l *Ledger) MarkUnavailable(model string, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[model] = now.Add(l.cooldown)
}

// Expiry returns the stored cooldown expiry for model, if any. It does not
// clean up expired entries.
func (l *Ledger) Expiry(model string) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	expiry, ok := l.entries[model]
	return expiry, ok
}

// Len returns the number of stored entries, expired or not.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
