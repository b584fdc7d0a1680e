package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepulse/tradepulse/internal/config"
	"github.com/tradepulse/tradepulse/internal/domain/filter"
	"github.com/tradepulse/tradepulse/internal/infrastructure/monitoring/logging"
	"github.com/tradepulse/tradepulse/internal/orchestrator"
	"github.com/tradepulse/tradepulse/internal/session"
	"github.com/tradepulse/tradepulse/pkg/errors"
	"github.com/tradepulse/tradepulse/pkg/types/trade"
)

type stubBackend struct{}

func (stubBackend) Query(ctx context.Context, ch filter.Channel, mode filter.Mode, snap filter.Snapshot) (orchestrator.Payload, error) {
	if ch == filter.ChannelShipments {
		return []trade.Shipment{{HSCode: "4204", OriginCountryCode: "CN", DestinationCountryCode: "DE", TotalValueUSD: 42, TradeCount: 1}}, nil
	}
	return []trade.CountryMonthStat{{CountryCode: "CN", SumOfUSD: 42}}, nil
}

func newSessionRouter(t *testing.T) (*gin.Engine, *session.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := session.NewManager(stubBackend{}, config.OrchestratorConfig{
		DragQuiet:     20 * time.Millisecond,
		ClickQuiet:    10 * time.Millisecond,
		PreviewLimit:  10,
		FinalLimit:    100,
		SlowThreshold: 50 * time.Millisecond,
	}, logging.NewNopLogger(), nil)
	t.Cleanup(m.CloseAll)

	r := gin.New()
	NewSessionHandler(m).RegisterRoutes(r.Group("/api/v1"))
	return r, m
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/sessions", CreateSessionRequest{})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp CreateSessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func TestSessionHandler_CreateAndState(t *testing.T) {
	r, _ := newSessionRouter(t)
	id := createSession(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/v1/sessions/"+id+"/state", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var st session.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Nil(t, st.LastError)
}

func TestSessionHandler_CreateGatedOnReferenceData(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := session.NewManager(stubBackend{}, config.OrchestratorConfig{
		DragQuiet:  20 * time.Millisecond,
		ClickQuiet: 10 * time.Millisecond,
	}, logging.NewNopLogger(), nil)
	t.Cleanup(m.CloseAll)

	ready := false
	r := gin.New()
	NewSessionHandler(m, WithReadyGate(func() bool { return ready })).
		RegisterRoutes(r.Group("/api/v1"))

	w := doJSON(t, r, http.MethodPost, "/api/v1/sessions", CreateSessionRequest{})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(errors.ErrCodeRefDataNotLoaded), resp.Code)

	ready = true
	w = doJSON(t, r, http.MethodPost, "/api/v1/sessions", CreateSessionRequest{})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestSessionHandler_UnknownSession(t *testing.T) {
	r, _ := newSessionRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/sessions/nope/state", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(errors.ErrCodeSessionNotFound), resp.Code)
}

func TestSessionHandler_ApplyFilters(t *testing.T) {
	r, _ := newSessionRouter(t)
	id := createSession(t, r)

	req := FilterChangeRequest{
		Reason: filter.ReasonClick,
		Filters: filter.Snapshot{
			Countries: []string{"CN"},
			Direction: trade.DirectionExport,
		},
	}
	w := doJSON(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/filters", req)
	require.Equal(t, http.StatusAccepted, w.Code)

	var st session.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.True(t, st.Interacting)
}

func TestSessionHandler_ApplyFiltersRejectsBadReason(t *testing.T) {
	r, _ := newSessionRouter(t)
	id := createSession(t, r)

	req := FilterChangeRequest{Reason: "hover"}
	w := doJSON(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/filters", req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(errors.ErrCodeValidation), resp.Code)
}

func TestSessionHandler_ApplyFiltersRejectsMalformedBody(t *testing.T) {
	r, _ := newSessionRouter(t)
	id := createSession(t, r)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/filters",
		bytes.NewReader([]byte(`{"reason":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_Results(t *testing.T) {
	r, _ := newSessionRouter(t)
	id := createSession(t, r)

	// The bootstrap final lands asynchronously; poll until it does.
	deadline := time.Now().Add(time.Second)
	var w *httptest.ResponseRecorder
	for time.Now().Before(deadline) {
		w = doJSON(t, r, http.MethodGet,
			fmt.Sprintf("/api/v1/sessions/%s/results/%s", id, filter.ChannelShipments), nil)
		if w.Code == http.StatusOK {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, http.StatusOK, w.Code, "bootstrap result never became available")

	var resp ResultResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(filter.ChannelShipments), resp.Channel)
	assert.False(t, resp.Result.Preview)
	assert.Equal(t, 1, resp.Result.Summary.FlowCount)
}

func TestSessionHandler_ResultsUnknownChannel(t *testing.T) {
	r, _ := newSessionRouter(t)
	id := createSession(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/v1/sessions/"+id+"/results/bogus", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(errors.ErrCodeChannelUnknown), resp.Code)
}

func TestSessionHandler_Delete(t *testing.T) {
	r, m := newSessionRouter(t)
	id := createSession(t, r)
	require.Equal(t, 1, m.Len())

	w := doJSON(t, r, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, m.Len())

	w = doJSON(t, r, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
