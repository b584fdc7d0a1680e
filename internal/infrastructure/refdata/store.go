// Package refdata loads and serves the slow-moving reference data sets the
// dashboard needs before it can render anything: country locations, HS code
// categories, and the company list behind the company selector.  All are
// fetched from the backend once, held in memory, and optionally warmed
// through redis so a restart does not hammer the backend.
package refdata

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/tradepulse/tradepulse/internal/infrastructure/database/redis"
	"github.com/tradepulse/tradepulse/internal/infrastructure/monitoring/logging"
	"github.com/tradepulse/tradepulse/pkg/errors"
	"github.com/tradepulse/tradepulse/pkg/types/trade"
)

const (
	keyCountries  = "refdata:countries"
	keyCategories = "refdata:categories"
	keyCompanies  = "refdata:companies"
)

// Source is the upstream provider of reference data, implemented by the
// backend query client.
type Source interface {
	CountryLocations(ctx context.Context) ([]trade.Country, error)
	HSCodeCategories(ctx context.Context) ([]trade.Category, error)
	Companies(ctx context.Context) ([]trade.Company, error)
}

// Store holds the reference data sets in memory.  A Store starts empty;
// Load fills it, and readiness probes gate traffic on Ready.
type Store struct {
	source Source
	cache  redis.Cache // nil when redis is disabled
	log    logging.Logger
	ttl    time.Duration
	group  singleflight.Group

	mu         sync.RWMutex
	countries  []trade.Country
	categories []trade.Category
	companies  []trade.Company
	loaded     bool
}

// Option customises a Store.
type Option func(*Store)

// WithCache adds a redis warm layer in front of the source.
func WithCache(c redis.Cache) Option {
	return func(s *Store) { s.cache = c }
}

// WithTTL sets how long cached reference data stays fresh.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// NewStore builds an empty store over the given source.
func NewStore(source Source, log logging.Logger, opts ...Option) *Store {
	s := &Store{
		source: source,
		log:    log,
		ttl:    6 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches all data sets and replaces the in-memory copies.  The fetches
// run concurrently; if any fails nothing is replaced, so a previously loaded
// store keeps serving stale data rather than going empty.
func (s *Store) Load(ctx context.Context) error {
	var (
		countries  []trade.Country
		categories []trade.Category
		companies  []trade.Company
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		countries, err = s.loadCountries(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.loadCategories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		companies, err = s.loadCompanies(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, errors.ErrCodeRefDataUnavailable, "reference data load failed")
	}

	s.mu.Lock()
	s.countries = countries
	s.categories = categories
	s.companies = companies
	s.loaded = true
	s.mu.Unlock()

	s.log.Info("reference data loaded",
		logging.Int("countries", len(countries)),
		logging.Int("categories", len(categories)),
		logging.Int("companies", len(companies)),
	)
	return nil
}

func (s *Store) loadCountries(ctx context.Context) ([]trade.Country, error) {
	if s.cache == nil {
		return s.source.CountryLocations(ctx)
	}
	var rows []trade.Country
	err := s.cache.GetOrSet(ctx, keyCountries, &rows, s.ttl, func(ctx context.Context) (interface{}, error) {
		return s.source.CountryLocations(ctx)
	})
	if err != nil {
		// Degrade to the source when the cache layer misbehaves.
		s.log.Warn("country cache read failed, querying source", logging.Err(err))
		return s.source.CountryLocations(ctx)
	}
	return rows, nil
}

func (s *Store) loadCategories(ctx context.Context) ([]trade.Category, error) {
	if s.cache == nil {
		return s.source.HSCodeCategories(ctx)
	}
	var rows []trade.Category
	err := s.cache.GetOrSet(ctx, keyCategories, &rows, s.ttl, func(ctx context.Context) (interface{}, error) {
		return s.source.HSCodeCategories(ctx)
	})
	if err != nil {
		s.log.Warn("category cache read failed, querying source", logging.Err(err))
		return s.source.HSCodeCategories(ctx)
	}
	return rows, nil
}

func (s *Store) loadCompanies(ctx context.Context) ([]trade.Company, error) {
	if s.cache == nil {
		return s.source.Companies(ctx)
	}
	var rows []trade.Company
	err := s.cache.GetOrSet(ctx, keyCompanies, &rows, s.ttl, func(ctx context.Context) (interface{}, error) {
		return s.source.Companies(ctx)
	})
	if err != nil {
		s.log.Warn("company cache read failed, querying source", logging.Err(err))
		return s.source.Companies(ctx)
	}
	return rows, nil
}

// ensureLoaded lazily loads the store on first use.  Concurrent callers
// collapse into one Load.
func (s *Store) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	_, err, _ := s.group.Do("load", func() (interface{}, error) {
		return nil, s.Load(ctx)
	})
	return err
}

// Countries returns the country reference set, loading it on first use.
func (s *Store) Countries(ctx context.Context) ([]trade.Country, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]trade.Country, len(s.countries))
	copy(out, s.countries)
	return out, nil
}

// Categories returns the HS category reference set, loading it on first use.
func (s *Store) Categories(ctx context.Context) ([]trade.Category, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]trade.Category, len(s.categories))
	copy(out, s.categories)
	return out, nil
}

// Companies returns the company reference set, loading it on first use.
func (s *Store) Companies(ctx context.Context) ([]trade.Company, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]trade.Company, len(s.companies))
	copy(out, s.companies)
	return out, nil
}

// Ready reports whether the store has loaded at least once.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}
