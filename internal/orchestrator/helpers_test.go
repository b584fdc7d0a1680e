package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tradepulse/tradepulse/internal/domain/filter"
	"github.com/tradepulse/tradepulse/pkg/types/trade"
)

// fakeBackend is a controllable QueryService.  Tests set fn to script
// completion order, delays, and failures; calls are counted per key.
type fakeBackend struct {
	mu     sync.Mutex
	calls  int
	byKey  map[string]int
	fn     func(ctx context.Context, ch filter.Channel, mode filter.Mode, snap filter.Snapshot) (Payload, error)
}

func newFakeBackend(fn func(ctx context.Context, ch filter.Channel, mode filter.Mode, snap filter.Snapshot) (Payload, error)) *fakeBackend {
	return &fakeBackend{byKey: make(map[string]int), fn: fn}
}

func (b *fakeBackend) Query(ctx context.Context, ch filter.Channel, mode filter.Mode, snap filter.Snapshot) (Payload, error) {
	key := filter.BuildKey(snap, ch.Fields())
	b.mu.Lock()
	b.calls++
	b.byKey[string(mode)+"|"+key]++
	fn := b.fn
	b.mu.Unlock()
	if fn != nil {
		return fn(ctx, ch, mode, snap)
	}
	return "payload:" + key, nil
}

func (b *fakeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func (b *fakeBackend) callsForKey(mode filter.Mode, key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.byKey[string(mode)+"|"+key]
}

// loadingEvent records one SetLoading invocation.
type loadingEvent struct {
	channel filter.Channel
	visible bool
}

// recordSink is a ResultSink that records everything for assertions.
type recordSink struct {
	mu          sync.Mutex
	previews    map[filter.Channel][]Payload
	finals      map[filter.Channel][]Payload
	summaries   []trade.Summary
	interacting []bool
	loading     []loadingEvent
	errs        []error
}

func newRecordSink() *recordSink {
	return &recordSink{
		previews: make(map[filter.Channel][]Payload),
		finals:   make(map[filter.Channel][]Payload),
	}
}

func (s *recordSink) ApplyPreview(ch filter.Channel, payload Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previews[ch] = append(s.previews[ch], payload)
}

func (s *recordSink) ApplyFinal(ch filter.Channel, payload Payload, summary trade.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finals[ch] = append(s.finals[ch], payload)
	s.summaries = append(s.summaries, summary)
}

func (s *recordSink) SetInteracting(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interacting = append(s.interacting, v)
}

func (s *recordSink) SetLoading(ch filter.Channel, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = append(s.loading, loadingEvent{ch, visible})
}

func (s *recordSink) NotifyError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *recordSink) finalCount(ch filter.Channel) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.finals[ch])
}

func (s *recordSink) lastFinal(ch filter.Channel) Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.finals[ch])
	if n == 0 {
		return nil
	}
	return s.finals[ch][n-1]
}

func (s *recordSink) previewCount(ch filter.Channel) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.previews[ch])
}

func (s *recordSink) loadingEvents() []loadingEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]loadingEvent, len(s.loading))
	copy(out, s.loading)
	return out
}

func (s *recordSink) errorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errs)
}

// waitFor polls cond until it returns true or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}

// snapWith builds a valid snapshot whose key varies with the given countries.
func snapWith(countries ...string) filter.Snapshot {
	return filter.Snapshot{
		Start:     filter.Month{Year: 2023, Month: 1},
		End:       filter.Month{Year: 2023, Month: 12},
		Countries: countries,
	}
}
