package orchestrator

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tradepulse/tradepulse/internal/domain/filter"
	"github.com/tradepulse/tradepulse/internal/infrastructure/monitoring/logging"
	"github.com/tradepulse/tradepulse/internal/infrastructure/monitoring/metrics"
	"github.com/tradepulse/tradepulse/pkg/errors"
	"github.com/tradepulse/tradepulse/pkg/types/trade"
)

// ResultSink is the rendering-layer collaborator.  Preview applications carry
// low-fidelity data for immediate feedback; final applications carry the
// authoritative payload plus the summary statistics recomputed only then.
type ResultSink interface {
	ApplyPreview(channel filter.Channel, payload Payload)
	ApplyFinal(channel filter.Channel, payload Payload, summary trade.Summary)
	SetInteracting(interacting bool)
	SetLoading(channel filter.Channel, visible bool)
	NotifyError(err error)
}

// Config carries the coordinator's tunables.
type Config struct {
	DragQuiet       time.Duration
	ClickQuiet      time.Duration
	SlowThreshold   time.Duration
	RequestTimeout  time.Duration
	CacheMaxEntries int
}

// Coordinator is the top-level orchestrator for one dashboard session.  On
// every filter change it fires an immediate preview fetch per channel and
// schedules a delayed final fetch through the debouncer; it owns the
// interaction state the rendering layer uses to pick a lightweight visual
// mode.
//
// State machine: Settled ⇄ Interacting.  Any filter mutation moves to
// Interacting synchronously; only the successful completion of the final
// fetches for the latest snapshot moves back to Settled.  Canceled or
// superseded completions never settle anything.
type Coordinator struct {
	fetcher   *Fetcher
	debouncer *Debouncer
	sink      ResultSink
	log       logging.Logger
	metrics   *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	interacting bool
	finalGen    uint64
	closed      bool
}

// NewCoordinator wires a coordinator from its collaborators.  The caller
// provides the backend service; cache, tracker, fetcher, and debouncer are
// owned internally — one instance per session, never shared.
func NewCoordinator(backend QueryService, sink ResultSink, cfg Config, log logging.Logger, m *metrics.Metrics) *Coordinator {
	if log == nil {
		log = logging.NewNopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())

	c := &Coordinator{
		sink:    sink,
		log:     log.Named("coordinator"),
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
	}

	cache := NewResultCache(cfg.CacheMaxEntries)
	tracker := NewInFlightTracker()
	c.fetcher = NewFetcher(backend, cache, tracker, log,
		WithSlowThreshold(cfg.SlowThreshold),
		WithRequestTimeout(cfg.RequestTimeout),
		WithLoadingFunc(sink.SetLoading),
		WithMetrics(m),
	)

	var onCollapse func()
	if m != nil {
		onCollapse = m.DebounceCollapsed.Inc
	}
	c.debouncer = NewDebouncer(cfg.DragQuiet, cfg.ClickQuiet, c.runFinal, onCollapse)

	return c
}

// Bootstrap performs the session's initial authoritative fetch with the given
// snapshot, bypassing the debounce.  Callers invoke it once the reference
// data (country and category lookups) has loaded; until then no fetch may be
// issued.
func (c *Coordinator) Bootstrap(snap filter.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	c.runFinal(snap)
	return nil
}

// OnFilterChange is the session's single entry point for filter mutations.
// It validates the snapshot, flips the interaction flag synchronously, fires
// the preview path immediately, and (re)arms the final timer.
func (c *Coordinator) OnFilterChange(snap filter.Snapshot, reason filter.Reason) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	if !reason.Valid() {
		return errors.Validation("unknown interaction reason").WithDetail(string(reason))
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New(errors.ErrCodeSessionClosed, "coordinator is closed")
	}
	wasInteracting := c.interacting
	c.interacting = true
	c.mu.Unlock()

	if !wasInteracting {
		c.sink.SetInteracting(true)
	}

	// Immediate feedback: preview every channel with the new snapshot.
	for _, ch := range filter.Channels {
		ch := ch
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.fetchPreview(ch, snap)
		}()
	}

	c.debouncer.Observe(snap, reason)
	return nil
}

// fetchPreview resolves one preview fetch.  Preview failures are logged and
// otherwise ignored — a final fetch will shortly supersede them and the UI
// keeps showing the last good result.
func (c *Coordinator) fetchPreview(channel filter.Channel, snap filter.Snapshot) {
	payload, err := c.fetcher.Fetch(c.ctx, channel, filter.ModePreview, snap)
	if err != nil {
		if errors.IsCanceled(err) {
			c.log.Debug("preview superseded", logging.String("channel", string(channel)))
			return
		}
		c.log.Warn("preview fetch failed",
			logging.String("channel", string(channel)),
			logging.Err(err),
		)
		return
	}
	c.sink.ApplyPreview(channel, payload)
}

// runFinal resolves the authoritative fetches for snap across all channels.
// Invoked by the debouncer after the quiet period, or directly by Bootstrap.
func (c *Coordinator) runFinal(snap filter.Snapshot) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.finalGen++
	gen := c.finalGen
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		g, _ := errgroup.WithContext(c.ctx)
		for _, ch := range filter.Channels {
			ch := ch
			g.Go(func() error {
				payload, err := c.fetcher.Fetch(c.ctx, ch, filter.ModeFinal, snap)
				if err != nil {
					return err
				}
				if !c.isCurrentFinal(gen) {
					// A newer final run started while this one resolved;
					// its results stand, ours do not.
					return errors.Canceled("final run superseded")
				}
				c.applyFinal(ch, payload)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			if errors.IsCanceled(err) {
				return
			}
			c.log.Error("final fetch failed", logging.Err(err))
			c.sink.NotifyError(err)
			// Remain Interacting: the next filter change retries naturally.
			return
		}

		// Settle only if no newer final run has been scheduled meanwhile.
		c.mu.Lock()
		settle := gen == c.finalGen && !c.closed
		if settle {
			c.interacting = false
		}
		c.mu.Unlock()
		if settle {
			c.sink.SetInteracting(false)
		}
	}()
}

// applyFinal hands a final payload to the sink, recomputing the derived
// summary statistics for shipment rows.  Cache-hit replays pass through the
// same path, so repeated application yields identical statistics.
func (c *Coordinator) applyFinal(channel filter.Channel, payload Payload) {
	var summary trade.Summary
	if rows, ok := payload.([]trade.Shipment); ok {
		summary = trade.Summarize(rows)
	}
	c.sink.ApplyFinal(channel, payload, summary)
}

func (c *Coordinator) isCurrentFinal(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.finalGen
}

// IsInteracting reports whether the session is mid-interaction.
func (c *Coordinator) IsInteracting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interacting
}

// DebounceState exposes the scheduler state for the session's state endpoint.
func (c *Coordinator) DebounceState() DebounceState {
	return c.debouncer.State()
}

// Close cancels outstanding work and waits for orchestration goroutines to
// drain.  The coordinator is unusable afterwards.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.debouncer.Stop()
	c.cancel()
	c.fetcher.CancelAll()
	c.wg.Wait()
}

// Flush waits for all currently spawned orchestration goroutines to finish.
// Intended for tests that need deterministic completion points.
func (c *Coordinator) Flush() {
	c.wg.Wait()
}
