package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tradepulse/tradepulse/internal/config"
	"github.com/tradepulse/tradepulse/internal/domain/filter"
	"github.com/tradepulse/tradepulse/internal/infrastructure/monitoring/logging"
	"github.com/tradepulse/tradepulse/internal/infrastructure/monitoring/metrics"
	"github.com/tradepulse/tradepulse/internal/orchestrator"
	"github.com/tradepulse/tradepulse/pkg/errors"
)

// sweepInterval is how often idle sessions are checked for eviction.
const sweepInterval = time.Minute

// Session binds one coordinator to one view under a stable ID.
type Session struct {
	ID        string
	CreatedAt time.Time

	coord *orchestrator.Coordinator
	view  *View

	mu         sync.Mutex
	lastActive time.Time
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// ApplyFilters forwards a filter mutation to the coordinator.
func (s *Session) ApplyFilters(snap filter.Snapshot, reason filter.Reason) error {
	s.touch()
	return s.coord.OnFilterChange(snap, reason)
}

// State returns the session state including the live debounce phase.
func (s *Session) State() State {
	st := s.view.State()
	st.Debounce = string(s.coord.DebounceState())
	return st
}

// Result returns the latest applied result for one channel.
func (s *Session) Result(channel filter.Channel) (ChannelResult, bool) {
	s.touch()
	return s.view.Result(channel)
}

// Close tears the session's coordinator down.
func (s *Session) Close() {
	s.coord.Close()
}

// Manager owns every live session.  One backend client is shared; each
// session gets its own coordinator, cache, and debounce timer.
type Manager struct {
	backend     orchestrator.QueryService
	cfg         config.OrchestratorConfig
	log         logging.Logger
	metrics     *metrics.Metrics
	idleTimeout time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager builds an empty session manager.
func NewManager(backend orchestrator.QueryService, cfg config.OrchestratorConfig, log logging.Logger, m *metrics.Metrics) *Manager {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Manager{
		backend:     backend,
		cfg:         cfg,
		log:         log.Named("session"),
		metrics:     m,
		idleTimeout: cfg.SessionIdleTimeout,
		sessions:    make(map[string]*Session),
	}
}

// Create opens a new session and bootstraps it with the given initial
// snapshot so the first poll already has authoritative data on the way.
func (m *Manager) Create(snap filter.Snapshot) (*Session, error) {
	m.mu.RLock()
	cfg := m.cfg
	m.mu.RUnlock()

	view := NewView()
	coord := orchestrator.NewCoordinator(m.backend, view, orchestrator.Config{
		DragQuiet:       cfg.DragQuiet,
		ClickQuiet:      cfg.ClickQuiet,
		SlowThreshold:   cfg.SlowThreshold,
		RequestTimeout:  cfg.RequestTimeout,
		CacheMaxEntries: cfg.CacheMaxEntries,
	}, m.log, m.metrics)

	if err := coord.Bootstrap(snap); err != nil {
		coord.Close()
		return nil, err
	}

	s := &Session{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now(),
		coord:      coord,
		view:       view,
		lastActive: time.Now(),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	count := len(m.sessions)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.ActiveSessions.Set(float64(count))
	}
	m.log.Info("session created", logging.String("session_id", s.ID))
	return s, nil
}

// Get looks a session up by ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session not found").WithDetail(id)
	}
	s.touch()
	return s, nil
}

// Close tears one session down and removes it.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	count := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return errors.New(errors.ErrCodeSessionNotFound, "session not found").WithDetail(id)
	}

	s.Close()
	if m.metrics != nil {
		m.metrics.ActiveSessions.Set(float64(count))
	}
	m.log.Info("session closed", logging.String("session_id", id))
	return nil
}

// UpdateOrchestratorConfig swaps the tunables used for sessions created from
// now on.  Live coordinators keep the settings they were built with.
func (m *Manager) UpdateOrchestratorConfig(cfg config.OrchestratorConfig) {
	m.mu.Lock()
	m.cfg = cfg
	m.idleTimeout = cfg.SessionIdleTimeout
	m.mu.Unlock()
	m.log.Info("orchestrator settings updated",
		logging.Duration("drag_quiet", cfg.DragQuiet),
		logging.Duration("click_quiet", cfg.ClickQuiet),
	)
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Run sweeps idle sessions until ctx is canceled, then closes everything.
// A zero idle timeout disables eviction.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.CloseAll()
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *Manager) evictIdle() {
	m.mu.Lock()
	if m.idleTimeout <= 0 {
		m.mu.Unlock()
		return
	}
	cutoff := time.Now().Add(-m.idleTimeout)

	var expired []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			delete(m.sessions, id)
			expired = append(expired, s)
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
		m.log.Info("idle session evicted", logging.String("session_id", s.ID))
	}
	if len(expired) > 0 && m.metrics != nil {
		m.metrics.ActiveSessions.Set(float64(count))
	}
}

// CloseAll tears every session down, used at shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
	if m.metrics != nil {
		m.metrics.ActiveSessions.Set(0)
	}
}
