// Package query implements the HTTP client for the external trade-data
// backend.  It translates filter snapshots into the backend's query-string
// contract and decodes the JSON row sets the orchestrator caches.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tradepulse/tradepulse/internal/config"
	"github.com/tradepulse/tradepulse/internal/domain/filter"
	"github.com/tradepulse/tradepulse/internal/infrastructure/monitoring/logging"
	"github.com/tradepulse/tradepulse/internal/orchestrator"
	"github.com/tradepulse/tradepulse/pkg/errors"
	"github.com/tradepulse/tradepulse/pkg/types/trade"
)

// maxErrorBody bounds how much of an upstream error body is kept as detail.
const maxErrorBody = 2048

// Client talks to the trade-data backend over HTTP.  It satisfies
// orchestrator.QueryService; one Client is shared by every session.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	userAgent    string
	previewLimit int
	finalLimit   int
	log          logging.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client logger.
func WithLogger(log logging.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient builds a backend client from configuration.  The base URL must be
// absolute; a trailing slash is tolerated.  No overall client timeout is set
// — per-request deadlines come from the caller's context, so a hung request
// without a deadline stays pending until it is superseded.
func NewClient(backend config.BackendConfig, orch config.OrchestratorConfig, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(backend.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid backend base URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New(errors.ErrCodeBadRequest, "backend base URL scheme must be http or https").
			WithDetail(backend.BaseURL)
	}

	dialTimeout := backend.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}
	transport := &http.Transport{
		DialContext:         (&net.Dialer{Timeout: dialTimeout}).DialContext,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(backend.BaseURL, "/"),
		httpClient:   &http.Client{Transport: transport},
		userAgent:    backend.UserAgent,
		previewLimit: orch.PreviewLimit,
		finalLimit:   orch.FinalLimit,
		log:          logging.NewNopLogger(),
	}
	if c.userAgent == "" {
		c.userAgent = "tradepulse/" + config.Version
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Query dispatches one fetch for a channel.  The mode selects the row limit:
// previews request a truncated result set, finals the full one.
func (c *Client) Query(ctx context.Context, channel filter.Channel, mode filter.Mode, snap filter.Snapshot) (orchestrator.Payload, error) {
	limit := c.finalLimit
	if mode == filter.ModePreview {
		limit = c.previewLimit
	}
	switch channel {
	case filter.ChannelShipments:
		return c.Shipments(ctx, snap, limit)
	case filter.ChannelCountryStats:
		return c.CountryStats(ctx, snap, limit)
	default:
		return nil, errors.Validation("unknown query channel").WithDetail(string(channel))
	}
}

// Shipments fetches raw shipment flows matching the snapshot.
func (c *Client) Shipments(ctx context.Context, snap filter.Snapshot, limit int) ([]trade.Shipment, error) {
	q := url.Values{}
	if !snap.Start.IsZero() {
		q.Set("start_date", snap.Start.FirstDay())
		q.Set("end_date", snap.End.LastDay())
	}
	for _, cc := range snap.Countries {
		q.Add("country", cc)
	}
	for _, co := range snap.Companies {
		q.Add("company", co)
	}
	for _, p := range snap.Categories {
		q.Add("hs_code_prefix", p)
	}
	for _, s := range snap.SubCategories {
		q.Add("hs_code_suffix", s)
	}
	addDirection(q, snap.Direction)
	q.Set("limit", strconv.Itoa(limit))

	var rows []trade.Shipment
	if err := c.get(ctx, "/shipments", q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// CountryStats fetches pre-aggregated country/month statistics matching the
// snapshot.  Company and sub-category selections have no counterpart in the
// aggregated table and are not sent.
func (c *Client) CountryStats(ctx context.Context, snap filter.Snapshot, limit int) ([]trade.CountryMonthStat, error) {
	q := url.Values{}
	if !snap.Start.IsZero() {
		q.Set("start_year_month", snap.Start.String())
		q.Set("end_year_month", snap.End.String())
	}
	for _, cc := range snap.Countries {
		q.Add("country", cc)
	}
	for _, p := range snap.Categories {
		q.Add("hs_code", p)
	}
	addDirection(q, snap.Direction)
	q.Set("limit", strconv.Itoa(limit))

	var rows []trade.CountryMonthStat
	if err := c.get(ctx, "/country-trade-stats/monthly", q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// CountryLocations fetches the country reference data set.
func (c *Client) CountryLocations(ctx context.Context) ([]trade.Country, error) {
	var rows []trade.Country
	if err := c.get(ctx, "/country-locations", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Companies fetches the company reference data set backing the company-name
// filter.  The backend returns the full list ordered by name.
func (c *Client) Companies(ctx context.Context) ([]trade.Company, error) {
	var rows []trade.Company
	if err := c.get(ctx, "/companies", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// HSCodeCategories fetches the HS category reference data set.
func (c *Client) HSCodeCategories(ctx context.Context) ([]trade.Category, error) {
	var rows []trade.Category
	if err := c.get(ctx, "/hs-code-categories", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Ping checks backend reachability for readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	return c.get(ctx, "/health", nil, nil)
}

func addDirection(q url.Values, d trade.Direction) {
	if d != "" && d != trade.DirectionBoth {
		q.Set("direction", string(d))
	}
}

// get performs one GET against the backend and decodes a JSON response into
// result.  Non-2xx responses become ErrCodeNetwork errors carrying the
// upstream status and a truncated body; transport failures caused by context
// cancellation keep context.Canceled in the chain so callers can classify
// them as silent supersessions.
func (c *Client) get(ctx context.Context, path string, q url.Values, result interface{}) error {
	fullURL := c.baseURL + path
	if len(q) > 0 {
		fullURL += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeNetwork, "build backend request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeNetwork, "backend request failed").
			WithDetail(path)
	}
	defer resp.Body.Close()

	c.log.Debug("backend query",
		logging.String("path", path),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errors.Network(resp.StatusCode, strings.TrimSpace(string(body))).
			WithDetail(fmt.Sprintf("%s: %s", path, strings.TrimSpace(string(body))))
	}

	if result == nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return errors.Wrap(err, errors.ErrCodeNetwork, "decode backend response").
			WithDetail(path)
	}
	return nil
}
