package query

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepulse/tradepulse/internal/config"
	"github.com/tradepulse/tradepulse/internal/domain/filter"
	"github.com/tradepulse/tradepulse/pkg/errors"
	"github.com/tradepulse/tradepulse/pkg/types/trade"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(
		config.BackendConfig{BaseURL: srv.URL},
		config.OrchestratorConfig{PreviewLimit: 5, FinalLimit: 9},
	)
	require.NoError(t, err)
	return c, srv
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	_, err := NewClient(config.BackendConfig{BaseURL: "ftp://example.com"}, config.OrchestratorConfig{})
	require.Error(t, err)

	_, err = NewClient(config.BackendConfig{BaseURL: "://nope"}, config.OrchestratorConfig{})
	require.Error(t, err)
}

func TestClient_ShipmentsEncodesFilters(t *testing.T) {
	var gotQuery map[string][]string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/shipments", r.URL.Path)
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"year":2023,"month":3,"hs_code":"5407","origin_country_code":"JP","destination_country_code":"US","total_value_usd":1200.5,"trade_count":4}]`))
	}))

	snap := filter.Snapshot{
		Start:         filter.Month{Year: 2023, Month: 1},
		End:           filter.Month{Year: 2023, Month: 6},
		Countries:     []string{"US", "JP"},
		Companies:     []string{"Acme Corp"},
		Categories:    []string{"54"},
		SubCategories: []string{"07"},
		Direction:     trade.DirectionImport,
	}
	rows, err := c.Shipments(context.Background(), snap, 100)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "5407", rows[0].HSCode)
	assert.Equal(t, 1200.5, rows[0].TotalValueUSD)

	assert.Equal(t, []string{"2023-01-01"}, gotQuery["start_date"])
	assert.Equal(t, []string{"2023-06-30"}, gotQuery["end_date"])
	assert.Equal(t, []string{"US", "JP"}, gotQuery["country"])
	assert.Equal(t, []string{"Acme Corp"}, gotQuery["company"])
	assert.Equal(t, []string{"54"}, gotQuery["hs_code_prefix"])
	assert.Equal(t, []string{"07"}, gotQuery["hs_code_suffix"])
	assert.Equal(t, []string{"import"}, gotQuery["direction"])
	assert.Equal(t, []string{"100"}, gotQuery["limit"])
}

func TestClient_ShipmentsOmitsEmptyFilters(t *testing.T) {
	var gotQuery map[string][]string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`[]`))
	}))

	_, err := c.Shipments(context.Background(), filter.Snapshot{}, 50)
	require.NoError(t, err)

	assert.NotContains(t, gotQuery, "start_date")
	assert.NotContains(t, gotQuery, "end_date")
	assert.NotContains(t, gotQuery, "country")
	assert.NotContains(t, gotQuery, "direction")
	assert.Equal(t, []string{"50"}, gotQuery["limit"])
}

func TestClient_CountryStatsEncodesFilters(t *testing.T) {
	var gotQuery map[string][]string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/country-trade-stats/monthly", r.URL.Path)
		gotQuery = r.URL.Query()
		w.Write([]byte(`[{"hs_code":"540710","year":2023,"month":2,"country_code":"KR","sum_of_usd":88.25,"trade_count":2,"amount_share_pct":1.5}]`))
	}))

	snap := filter.Snapshot{
		Start:      filter.Month{Year: 2023, Month: 1},
		End:        filter.Month{Year: 2023, Month: 12},
		Countries:  []string{"KR"},
		Categories: []string{"54", "42"},
	}
	rows, err := c.CountryStats(context.Background(), snap, 200)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "KR", rows[0].CountryCode)
	assert.Equal(t, 88.25, rows[0].SumOfUSD)

	assert.Equal(t, []string{"2023-01"}, gotQuery["start_year_month"])
	assert.Equal(t, []string{"2023-12"}, gotQuery["end_year_month"])
	assert.Equal(t, []string{"KR"}, gotQuery["country"])
	assert.Equal(t, []string{"54", "42"}, gotQuery["hs_code"])
	assert.Equal(t, []string{"200"}, gotQuery["limit"])
}

func TestClient_QueryModeSelectsRowLimit(t *testing.T) {
	var limits []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limits = append(limits, r.URL.Query().Get("limit"))
		w.Write([]byte(`[]`))
	}))

	_, err := c.Query(context.Background(), filter.ChannelShipments, filter.ModePreview, filter.Snapshot{})
	require.NoError(t, err)
	_, err = c.Query(context.Background(), filter.ChannelShipments, filter.ModeFinal, filter.Snapshot{})
	require.NoError(t, err)

	assert.Equal(t, []string{"5", "9"}, limits)
}

func TestClient_QueryRejectsUnknownChannel(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	_, err := c.Query(context.Background(), filter.Channel("bogus"), filter.ModeFinal, filter.Snapshot{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidation, errors.GetCode(err))
}

func TestClient_NonOKBecomesNetworkError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))

	_, err := c.Shipments(context.Background(), filter.Snapshot{}, 10)
	require.Error(t, err)
	assert.True(t, errors.IsNetwork(err))

	var ae *errors.AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusInternalServerError, ae.Status)
	assert.Contains(t, ae.Detail, "upstream exploded")
}

func TestClient_ContextCancellationIsCanceled(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := c.Shipments(ctx, filter.Snapshot{}, 10)
	require.Error(t, err)
	assert.True(t, errors.IsCanceled(err))
}

func TestClient_MalformedBodyIsNetworkError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "a list"`))
	}))

	_, err := c.CountryStats(context.Background(), filter.Snapshot{}, 10)
	require.Error(t, err)
	assert.True(t, errors.IsNetwork(err))
}

func TestClient_ReferenceDataEndpoints(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/country-locations":
			w.Write([]byte(`[{"country_code":"JP","country_name":"Japan","latitude":36.2,"longitude":138.2}]`))
		case "/hs-code-categories":
			w.Write([]byte(`[{"id":"54","name":"synthetic filaments","display_name":"Synthetic Filaments","sort_order":3}]`))
		case "/companies":
			w.Write([]byte(`[{"id":"c-1","name":"Toray Industries","country_code":"JP","type":"exporter"}]`))
		case "/health":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))

	countries, err := c.CountryLocations(context.Background())
	require.NoError(t, err)
	require.Len(t, countries, 1)
	assert.Equal(t, "JP", countries[0].Code)
	assert.Equal(t, 36.2, countries[0].Latitude)

	cats, err := c.HSCodeCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "54", cats[0].ID)

	companies, err := c.Companies(context.Background())
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Toray Industries", companies[0].Name)

	require.NoError(t, c.Ping(context.Background()))
}

func TestClient_PingFailsOnUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := NewClient(
		config.BackendConfig{BaseURL: srv.URL, DialTimeout: 200 * time.Millisecond},
		config.OrchestratorConfig{PreviewLimit: 1, FinalLimit: 1},
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.Error(t, c.Ping(ctx))
}
