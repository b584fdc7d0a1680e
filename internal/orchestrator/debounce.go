package orchestrator

import (
	"sync"
	"time"

	"github.com/tradepulse/tradepulse/internal/domain/filter"
)

// DebounceState is the scheduler's two-state machine.
type DebounceState string

const (
	// DebounceIdle means no final fetch is pending.
	DebounceIdle DebounceState = "idle"
	// DebouncePending means a trailing timer is armed.
	DebouncePending DebounceState = "pending"
)

// Debouncer coalesces bursts of filter-change events into a single trailing
// action after a quiet period.  Continuous interaction (drags) gets a longer
// window than discrete clicks so a slider can be ridden without firing finals
// mid-drag.
//
// Classic trailing-edge debounce: every observation cancels the previous
// timer and re-arms, so only the most recent timer fires.  The fired action
// always receives the latest snapshot observed, not the one present when the
// timer was armed — multiple changes may accrue during the wait.
type Debouncer struct {
	dragQuiet  time.Duration
	clickQuiet time.Duration
	fire       func(filter.Snapshot)
	onCollapse func()

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	gen     uint64
	latest  filter.Snapshot
}

// NewDebouncer constructs a Debouncer.  fire runs on a timer goroutine once
// the quiet period elapses with no further observations.  onCollapse, if
// non-nil, is invoked for every observation that invalidated a pending timer
// (a measure of how much work the debounce absorbed).
func NewDebouncer(dragQuiet, clickQuiet time.Duration, fire func(filter.Snapshot), onCollapse func()) *Debouncer {
	return &Debouncer{
		dragQuiet:  dragQuiet,
		clickQuiet: clickQuiet,
		fire:       fire,
		onCollapse: onCollapse,
	}
}

// Observe records a filter change and (re)arms the trailing timer with the
// quiet period selected by reason.
func (d *Debouncer) Observe(snap filter.Snapshot, reason filter.Reason) {
	quiet := d.clickQuiet
	if reason == filter.ReasonDrag {
		quiet = d.dragQuiet
	}

	d.mu.Lock()
	d.latest = snap
	if d.timer != nil {
		d.timer.Stop()
		if d.pending && d.onCollapse != nil {
			d.onCollapse()
		}
	}
	d.pending = true
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(quiet, func() { d.fireNow(gen) })
	d.mu.Unlock()
}

// fireNow transitions back to Idle and invokes fire with the latest snapshot
// captured at fire time.  The generation check discards a timer that lost the
// Stop race against a newer Observe.
func (d *Debouncer) fireNow(gen uint64) {
	d.mu.Lock()
	if !d.pending || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	snap := d.latest
	d.mu.Unlock()

	d.fire(snap)
}

// State returns the scheduler's current state.
func (d *Debouncer) State() DebounceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending {
		return DebouncePending
	}
	return DebounceIdle
}

// Stop cancels any pending timer without firing.  Used on session close.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = false
}
