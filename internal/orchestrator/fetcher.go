package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/tradepulse/tradepulse/internal/domain/filter"
	"github.com/tradepulse/tradepulse/internal/infrastructure/monitoring/logging"
	"github.com/tradepulse/tradepulse/internal/infrastructure/monitoring/metrics"
	"github.com/tradepulse/tradepulse/pkg/errors"
)

// QueryService is the backend query contract the fetcher consumes.  The
// implementation lives in internal/infrastructure/query; tests substitute
// fakes with controllable completion.
type QueryService interface {
	Query(ctx context.Context, channel filter.Channel, mode filter.Mode, snapshot filter.Snapshot) (Payload, error)
}

// LoadingFunc is invoked when a final fetch crosses the slow threshold
// (visible=true) and again when it completes (visible=false).  Fast
// completions never invoke it, so quick responses cannot flicker an
// indicator.
type LoadingFunc func(channel filter.Channel, visible bool)

// cacheKey prefixes a normalized filter key with the fetch mode so preview
// and final payloads occupy distinct cache entries.
func cacheKey(mode filter.Mode, key string) string {
	return string(mode) + "|" + key
}

// handle tracks one outstanding request on a slot: its generation number and
// the cancellation for its context.
type handle struct {
	gen    uint64
	cancel context.CancelFunc
}

// call carries the outcome of one in-flight backend request so that duplicate
// fetches for the same key can join it instead of being dropped.  done is
// closed exactly once, after payload and err are set.
type call struct {
	done    chan struct{}
	payload Payload
	err     error
}

// inflightKey identifies an in-flight call: the slot plus the normalized key.
type inflightKey struct {
	s   slot
	key string
}

// Fetcher wraps backend queries with the orchestration invariants: cache
// short-circuiting, duplicate joining, and at most one outstanding request
// per (channel, mode) slot with last-issued-wins semantics.
//
// Supersession is enforced two ways: the previous handle's context is
// canceled at issuance time, and every completion re-checks that its
// generation is still the slot's current one before any state is mutated.
// A completion that lost either way is discarded silently.  A repeat fetch
// for the slot's in-flight key never re-issues: it waits on the outstanding
// call and shares its outcome, so the in-flight request stays authoritative
// for that key.
type Fetcher struct {
	backend  QueryService
	cache    *ResultCache
	inflight *InFlightTracker
	log      logging.Logger
	metrics  *metrics.Metrics

	slowThreshold  time.Duration
	requestTimeout time.Duration // zero: never abort a hung request
	onLoading      LoadingFunc

	mu      sync.Mutex
	gens    map[slot]uint64
	handles map[slot]*handle
	calls   map[inflightKey]*call
}

// FetcherOption customises a Fetcher.
type FetcherOption func(*Fetcher)

// WithSlowThreshold sets how long a final fetch may run before the loading
// indicator shows.
func WithSlowThreshold(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.slowThreshold = d }
}

// WithRequestTimeout bounds each backend call.  Zero (the default) preserves
// the original behavior of never aborting a hung request.
func WithRequestTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.requestTimeout = d }
}

// WithLoadingFunc sets the slow-fetch indicator sink.
func WithLoadingFunc(fn LoadingFunc) FetcherOption {
	return func(f *Fetcher) { f.onLoading = fn }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) FetcherOption {
	return func(f *Fetcher) { f.metrics = m }
}

// NewFetcher constructs a Fetcher over the given backend, cache, and tracker.
func NewFetcher(backend QueryService, cache *ResultCache, inflight *InFlightTracker, log logging.Logger, opts ...FetcherOption) *Fetcher {
	if log == nil {
		log = logging.NewNopLogger()
	}
	f := &Fetcher{
		backend:       backend,
		cache:         cache,
		inflight:      inflight,
		log:           log.Named("fetcher"),
		slowThreshold: 100 * time.Millisecond,
		gens:          make(map[slot]uint64),
		handles:       make(map[slot]*handle),
		calls:         make(map[inflightKey]*call),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch resolves one query for the snapshot on the given slot.
//
// Resolution order: result cache (synchronous hit, no network), duplicate
// joining (a repeat of the slot's in-flight key waits on the outstanding
// request and shares its outcome), then the network, canceling whatever the
// slot had outstanding.  Superseded or aborted requests fail with
// ErrCodeCanceled, which callers swallow.
func (f *Fetcher) Fetch(ctx context.Context, channel filter.Channel, mode filter.Mode, snap filter.Snapshot) (Payload, error) {
	key := filter.BuildKey(snap, channel.Fields())
	// Preview payloads are row-limited; they must never satisfy a final
	// lookup, so the cache entry is namespaced by mode as well.
	ck := cacheKey(mode, key)

	if payload, ok := f.cache.Get(channel, ck); ok {
		f.count(channel, mode, "hit")
		if f.metrics != nil {
			f.metrics.CacheHitsTotal.WithLabelValues(string(channel)).Inc()
		}
		return payload, nil
	}
	if f.metrics != nil {
		f.metrics.CacheMissesTotal.WithLabelValues(string(channel)).Inc()
	}

	s := slot{channel, mode}

	f.mu.Lock()
	if !f.inflight.ShouldIssue(channel, mode, key) {
		if cl, ok := f.calls[inflightKey{s, key}]; ok {
			f.mu.Unlock()
			f.count(channel, mode, "joined")
			if f.metrics != nil {
				f.metrics.InFlightSkips.WithLabelValues(string(channel), string(mode)).Inc()
			}
			return f.await(ctx, cl)
		}
		// The tracker remembers the key but nothing is outstanding and the
		// cache no longer holds the result (a bounded cache evicted it).
		// The stored key is stale; reissue.
		f.inflight.Forget(channel, mode, key)
		f.inflight.ShouldIssue(channel, mode, key)
	}

	cl := &call{done: make(chan struct{})}
	f.calls[inflightKey{s, key}] = cl
	qctx, gen := f.supersedeLocked(ctx, s)
	f.mu.Unlock()

	f.count(channel, mode, "issued")

	indicator := f.armIndicator(channel, mode)
	start := time.Now()
	payload, err := f.backend.Query(qctx, channel, mode, snap)
	indicator.finish()

	if f.metrics != nil {
		f.metrics.FetchDuration.WithLabelValues(string(channel), string(mode)).
			Observe(time.Since(start).Seconds())
	}

	if !f.retire(s, gen) {
		// A newer request took the slot while this one was in flight.  Its
		// result, success or failure, must never be applied.
		f.count(channel, mode, "canceled")
		return f.conclude(s, key, cl, nil,
			errors.Canceled("superseded by a newer request").WithDetail(key))
	}

	if err != nil {
		f.inflight.Forget(channel, mode, key)
		if errors.IsCanceled(err) {
			f.count(channel, mode, "canceled")
			return f.conclude(s, key, cl, nil, errors.Canceled("fetch aborted").WithCause(err))
		}
		f.count(channel, mode, "error")
		if qctx.Err() == context.DeadlineExceeded {
			return f.conclude(s, key, cl, nil,
				errors.Wrap(err, errors.ErrCodeTimeout, "backend query timed out"))
		}
		return f.conclude(s, key, cl, nil,
			errors.Wrap(err, errors.CodeUnknown, "backend query failed"))
	}

	f.cache.Put(channel, ck, payload)
	f.count(channel, mode, "ok")
	if f.metrics != nil {
		f.metrics.CacheEntries.WithLabelValues(string(channel)).Set(float64(f.cache.Len(channel)))
	}
	return f.conclude(s, key, cl, payload, nil)
}

// conclude publishes the call's outcome to any joined duplicates and returns
// it.  The registry entry is removed only if it still belongs to this call:
// a later request for the same key may have replaced it.
func (f *Fetcher) conclude(s slot, key string, cl *call, payload Payload, err error) (Payload, error) {
	f.mu.Lock()
	k := inflightKey{s, key}
	if cur, ok := f.calls[k]; ok && cur == cl {
		delete(f.calls, k)
	}
	f.mu.Unlock()

	cl.payload = payload
	cl.err = err
	close(cl.done)
	return payload, err
}

// await blocks until the joined call resolves or the caller's context ends.
func (f *Fetcher) await(ctx context.Context, cl *call) (Payload, error) {
	select {
	case <-cl.done:
		return cl.payload, cl.err
	case <-ctx.Done():
		return nil, errors.Canceled("fetch aborted").WithCause(ctx.Err())
	}
}

// supersedeLocked cancels the slot's outstanding handle, bumps its generation,
// and returns a fresh request context bound to the new generation.  Callers
// hold f.mu.
func (f *Fetcher) supersedeLocked(ctx context.Context, s slot) (context.Context, uint64) {
	if prev, ok := f.handles[s]; ok {
		prev.cancel()
	}

	f.gens[s]++
	gen := f.gens[s]

	var qctx context.Context
	var cancel context.CancelFunc
	if f.requestTimeout > 0 {
		qctx, cancel = context.WithTimeout(ctx, f.requestTimeout)
	} else {
		qctx, cancel = context.WithCancel(ctx)
	}
	f.handles[s] = &handle{gen: gen, cancel: cancel}
	return qctx, gen
}

// retire reports whether gen is still the slot's current generation and, if
// so, releases its handle.  This is the completion-time "still the active
// handle" check that closes the race where cancellation is asynchronous.
func (f *Fetcher) retire(s slot, gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gens[s] != gen {
		return false
	}
	if h, ok := f.handles[s]; ok && h.gen == gen {
		h.cancel()
		delete(f.handles, s)
	}
	return true
}

// CancelAll aborts every outstanding request.  Called when the session closes.
func (f *Fetcher) CancelAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for s, h := range f.handles {
		h.cancel()
		f.gens[s]++ // ensure in-flight completions retire as superseded
		delete(f.handles, s)
	}
}

// slowIndicator manages the loading-indicator timer for one fetch.  The
// completed flag resolves the race between the timer firing and the fetch
// finishing: whichever locks first decides whether the indicator ever shows,
// and if it showed it is always hidden again.
type slowIndicator struct {
	timer     *time.Timer
	mu        sync.Mutex
	fired     bool
	completed bool
	show      func(bool)
}

func (si *slowIndicator) finish() {
	if si == nil {
		return
	}
	si.timer.Stop()
	si.mu.Lock()
	si.completed = true
	fired := si.fired
	si.mu.Unlock()
	if fired {
		si.show(false)
	}
}

// armIndicator starts the slow-fetch timer for final-mode requests.  Preview
// fetches never show an indicator; they are superseded too quickly to matter.
func (f *Fetcher) armIndicator(channel filter.Channel, mode filter.Mode) *slowIndicator {
	if mode != filter.ModeFinal || f.onLoading == nil || f.slowThreshold <= 0 {
		return nil
	}
	si := &slowIndicator{}
	si.show = func(visible bool) { f.onLoading(channel, visible) }
	si.timer = time.AfterFunc(f.slowThreshold, func() {
		si.mu.Lock()
		if si.completed {
			si.mu.Unlock()
			return
		}
		si.fired = true
		si.mu.Unlock()
		si.show(true)
	})
	return si
}

func (f *Fetcher) count(channel filter.Channel, mode filter.Mode, outcome string) {
	if f.metrics != nil {
		f.metrics.FetchesTotal.WithLabelValues(string(channel), string(mode), outcome).Inc()
	}
}
