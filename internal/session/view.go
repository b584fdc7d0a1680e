// Package session owns the per-dashboard-session state: one coordinator per
// session driving fetches, one view accumulating the latest results for the
// HTTP layer to serve, and a manager handling lifecycle and idle eviction.
package session

import (
	"sync"
	"time"

	"github.com/tradepulse/tradepulse/internal/domain/filter"
	"github.com/tradepulse/tradepulse/internal/orchestrator"
	"github.com/tradepulse/tradepulse/pkg/errors"
	"github.com/tradepulse/tradepulse/pkg/types/trade"
)

// ChannelResult is the latest applied payload for one channel.  Preview marks
// low-fidelity data that a final fetch will shortly replace; the summary is
// only recomputed on final applications, so a preview result carries the
// previous final's summary.
type ChannelResult struct {
	Payload   orchestrator.Payload `json:"payload"`
	Preview   bool                 `json:"preview"`
	Summary   trade.Summary        `json:"summary"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// ErrorInfo is the last surfaced fetch failure, kept for the state endpoint.
type ErrorInfo struct {
	Code       string    `json:"code"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// State is the session snapshot the rendering layer polls: the interaction
// flag that selects lightweight visual mode, per-channel loading indicators,
// and the last error if any.
type State struct {
	Interacting bool            `json:"interacting"`
	Debounce    string          `json:"debounce"`
	Loading     map[string]bool `json:"loading"`
	LastError   *ErrorInfo      `json:"last_error,omitempty"`
}

// View accumulates coordinator output for one session.  It implements
// orchestrator.ResultSink; every mutation is its own small critical section
// so the coordinator's goroutines never block each other here for long.
type View struct {
	mu          sync.RWMutex
	results     map[filter.Channel]ChannelResult
	loading     map[filter.Channel]bool
	interacting bool
	lastError   *ErrorInfo
	now         func() time.Time
}

// NewView returns an empty view.
func NewView() *View {
	return &View{
		results: make(map[filter.Channel]ChannelResult),
		loading: make(map[filter.Channel]bool),
		now:     time.Now,
	}
}

// ApplyPreview stores a low-fidelity payload, keeping the previous summary.
func (v *View) ApplyPreview(channel filter.Channel, payload orchestrator.Payload) {
	v.mu.Lock()
	defer v.mu.Unlock()
	prev := v.results[channel]
	v.results[channel] = ChannelResult{
		Payload:   payload,
		Preview:   true,
		Summary:   prev.Summary,
		UpdatedAt: v.now(),
	}
}

// ApplyFinal stores an authoritative payload with its recomputed summary and
// clears any error left from an earlier failed run.
func (v *View) ApplyFinal(channel filter.Channel, payload orchestrator.Payload, summary trade.Summary) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.results[channel] = ChannelResult{
		Payload:   payload,
		Preview:   false,
		Summary:   summary,
		UpdatedAt: v.now(),
	}
	v.lastError = nil
}

// SetInteracting records the interaction flag.
func (v *View) SetInteracting(interacting bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.interacting = interacting
}

// SetLoading records a slow-fetch indicator transition for one channel.
func (v *View) SetLoading(channel filter.Channel, visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading[channel] = visible
}

// NotifyError records a surfaced fetch failure.
func (v *View) NotifyError(err error) {
	if err == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastError = &ErrorInfo{
		Code:       string(errors.GetCode(err)),
		Message:    err.Error(),
		OccurredAt: v.now(),
	}
}

// Result returns the latest applied result for a channel.
func (v *View) Result(channel filter.Channel) (ChannelResult, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	r, ok := v.results[channel]
	return r, ok
}

// State returns the current session state.  The debounce field is filled in
// by the caller, which owns the coordinator.
func (v *View) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	loading := make(map[string]bool, len(v.loading))
	for ch, visible := range v.loading {
		loading[string(ch)] = visible
	}
	st := State{
		Interacting: v.interacting,
		Loading:     loading,
	}
	if v.lastError != nil {
		e := *v.lastError
		st.LastError = &e
	}
	return st
}
