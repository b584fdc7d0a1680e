package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tradepulse/tradepulse/internal/domain/filter"
	"github.com/tradepulse/tradepulse/internal/session"
	"github.com/tradepulse/tradepulse/pkg/errors"
)

// SessionHandler exposes the session lifecycle and the filter-change entry
// point the dashboard calls on every interaction.
type SessionHandler struct {
	manager *session.Manager
	ready   func() bool
}

// SessionHandlerOption customizes a SessionHandler.
type SessionHandlerOption func(*SessionHandler)

// WithReadyGate makes session creation fail with 503 until ready returns
// true.  The dashboard needs country locations and the HS taxonomy before
// its first orchestrated fetch is useful.
func WithReadyGate(ready func() bool) SessionHandlerOption {
	return func(h *SessionHandler) { h.ready = ready }
}

// NewSessionHandler builds the handler over the session manager.
func NewSessionHandler(m *session.Manager, opts ...SessionHandlerOption) *SessionHandler {
	h := &SessionHandler{manager: m}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes mounts the session endpoints on an API group.
func (h *SessionHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/sessions", h.Create)
	api.POST("/sessions/:id/filters", h.ApplyFilters)
	api.GET("/sessions/:id/state", h.State)
	api.GET("/sessions/:id/results/:channel", h.Results)
	api.DELETE("/sessions/:id", h.Delete)
}

// CreateSessionRequest optionally seeds the session with an initial filter
// snapshot; omitted fields mean "no filter".
type CreateSessionRequest struct {
	Filters filter.Snapshot `json:"filters"`
}

// CreateSessionResponse returns the new session's ID.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

// Create opens a session and bootstraps its first authoritative fetch.
func (h *SessionHandler) Create(c *gin.Context) {
	if h.ready != nil && !h.ready() {
		respondError(c, errors.New(errors.ErrCodeRefDataNotLoaded,
			"reference data not loaded yet"))
		return
	}

	var req CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, errors.Validation("malformed session request").WithCause(err))
			return
		}
	}

	s, err := h.manager.Create(req.Filters)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreateSessionResponse{SessionID: s.ID})
}

// FilterChangeRequest carries one interaction: the full new snapshot and the
// reason that selects the debounce window.
type FilterChangeRequest struct {
	Reason  filter.Reason   `json:"reason"`
	Filters filter.Snapshot `json:"filters"`
}

// ApplyFilters accepts a filter mutation.  202: previews are on the way and
// the final fetch is scheduled; poll state and results to observe them.
func (h *SessionHandler) ApplyFilters(c *gin.Context) {
	s, err := h.manager.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var req FilterChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Validation("malformed filter change").WithCause(err))
		return
	}

	if err := s.ApplyFilters(req.Filters, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, s.State())
}

// State returns the session's interaction, loading, and error state.
func (h *SessionHandler) State(c *gin.Context) {
	s, err := h.manager.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.State())
}

// ResultResponse wraps one channel's latest result.
type ResultResponse struct {
	Channel string                `json:"channel"`
	Result  session.ChannelResult `json:"result"`
}

// Results returns the latest applied payload for one channel.  404 before
// anything has been applied; the dashboard retries on its poll interval.
func (h *SessionHandler) Results(c *gin.Context) {
	s, err := h.manager.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	ch := filter.Channel(c.Param("channel"))
	if !ch.Valid() {
		respondError(c, errors.New(errors.ErrCodeChannelUnknown, "unknown channel").
			WithDetail(c.Param("channel")))
		return
	}

	r, ok := s.Result(ch)
	if !ok {
		respondError(c, errors.NotFound("no result applied yet").WithDetail(string(ch)))
		return
	}
	c.JSON(http.StatusOK, ResultResponse{Channel: string(ch), Result: r})
}

// Delete closes a session and frees its coordinator.
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.manager.Close(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
