package orchestrator

import (
	"sync"

	"github.com/tradepulse/tradepulse/internal/domain/filter"
)

// slot identifies one (channel, mode) pair.  Each slot holds at most one
// outstanding request at any time.
type slot struct {
	channel filter.Channel
	mode    filter.Mode
}

// InFlightTracker records the key of the most recently issued request per
// slot to suppress duplicate concurrent issuance.  "Issued" is the operative
// word: the stored key may belong to a request still in flight or one whose
// result is already cached — either way it is authoritative for that key and
// re-issuing would be redundant.
type InFlightTracker struct {
	mu   sync.Mutex
	last map[slot]string
}

// NewInFlightTracker constructs an empty tracker.
func NewInFlightTracker() *InFlightTracker {
	return &InFlightTracker{last: make(map[slot]string)}
}

// ShouldIssue reports whether a request for key should go to the network on
// the given slot.  A repeat of the slot's last issued key returns false; a
// genuinely new key updates the slot and returns true.  This is what stops
// redundant re-fetching when the filter oscillates back to a value already
// being resolved.
func (t *InFlightTracker) ShouldIssue(channel filter.Channel, mode filter.Mode, key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := slot{channel, mode}
	if t.last[s] == key {
		return false
	}
	t.last[s] = key
	return true
}

// Forget clears the slot's stored key if it still equals key.  Called when a
// request fails so the same key can be retried by the next filter change.
func (t *InFlightTracker) Forget(channel filter.Channel, mode filter.Mode, key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := slot{channel, mode}
	if t.last[s] == key {
		delete(t.last, s)
	}
}
