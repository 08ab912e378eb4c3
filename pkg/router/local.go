package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jusunglee/mrt-go/internal/graph"
	"github.com/jusunglee/mrt-go/internal/loader"
	"github.com/jusunglee/mrt-go/internal/metrics"
	"github.com/jusunglee/mrt-go/internal/models"
	"github.com/jusunglee/mrt-go/internal/search"
	"github.com/jusunglee/mrt-go/internal/stationcode"
	"github.com/jusunglee/mrt-go/internal/store"
)

var validate = validator.New()

// LocalClient implements the Client interface over networks loaded from disk
type LocalClient struct {
	store      *store.Store
	manager    *loader.Manager
	cache      *cache.Cache
	metrics    *metrics.Collector
	maxWorkers int
}

// NewLocal loads every network in config.NetworkDir and starts the reload loop
func NewLocal(config Config) (*LocalClient, error) {
	policy, err := graph.ParseTransferPolicy(config.TransferPolicy)
	if err != nil {
		return nil, err
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 1
	}

	s := store.NewStore()
	m := loader.NewManager(config.NetworkDir, s, graph.Options{Transfers: policy}, config.MaxWorkers, config.ReloadInterval)

	c := &LocalClient{
		store:      s,
		manager:    m,
		metrics:    config.Metrics,
		maxWorkers: config.MaxWorkers,
	}
	if config.CacheTTL > 0 {
		c.cache = cache.New(config.CacheTTL, 2*config.CacheTTL)
	}

	m.OnUpdate(func(networks []string) {
		if c.cache != nil {
			c.cache.Flush()
		}
		if c.metrics != nil {
			c.metrics.ObserveReload(len(networks))
		}
	})

	if err := m.Reload(context.Background()); err != nil {
		return nil, err
	}
	m.Start()

	return c, nil
}

// Close stops the reload loop
func (c *LocalClient) Close() {
	c.manager.Stop()
}

func (c *LocalClient) GetNetworks() []string {
	return c.store.GetNetworks()
}

func (c *LocalClient) GetNetworkInfo(network string) (models.NetworkInfo, error) {
	return c.store.GetNetworkInfo(network)
}

func (c *LocalClient) GetStations(network, line string) ([]models.Station, error) {
	return c.store.GetStations(network, line)
}

func (c *LocalClient) GetStationsByLocation(network string, lat, lon float64, limit int) ([]models.Station, error) {
	return c.store.GetStationsByLocation(network, lat, lon, limit)
}

func (c *LocalClient) GetLastUpdate() time.Time {
	return c.store.GetLastUpdate()
}

// Reload re-reads the network directory now
func (c *LocalClient) Reload(ctx context.Context) error {
	return c.manager.Reload(ctx)
}

// FindRoute answers a single query, from the cache when possible
func (c *LocalClient) FindRoute(ctx context.Context, network, start, end string, allowWalking bool) (*models.Itinerary, error) {
	it, err := c.findRoute(ctx, network, start, end, allowWalking)
	c.observe(err)
	return it, err
}

// cachedRoute remembers the graph an itinerary was found on. A search that
// finishes after a reload may store a result for the replaced graph.
type cachedRoute struct {
	graph     *graph.Graph
	itinerary *models.Itinerary
}

func routeKey(network, start, end string, allowWalking bool) string {
	return fmt.Sprintf("%s|%s|%s|%t", network, start, end, allowWalking)
}

func (c *LocalClient) findRoute(ctx context.Context, network, start, end string, allowWalking bool) (*models.Itinerary, error) {
	g, err := c.store.GetNetwork(network)
	if err != nil {
		return nil, err
	}

	key := routeKey(network, start, end, allowWalking)
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok && v.(cachedRoute).graph == g {
			if c.metrics != nil {
				c.metrics.CacheHits.Inc()
			}
			return v.(cachedRoute).itinerary, nil
		}
		if c.metrics != nil {
			c.metrics.CacheMisses.Inc()
		}
	}

	began := time.Now()
	it, err := FindRoute(ctx, g, start, end, allowWalking)
	if c.metrics != nil {
		c.metrics.ObserveSearch(time.Since(began))
	}
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.SetDefault(key, cachedRoute{graph: g, itinerary: it})
	}
	return it, nil
}

// FindRoutes answers a batch of queries concurrently.
// Failed queries carry their error in the result and do not affect the others.
func (c *LocalClient) FindRoutes(ctx context.Context, network string, queries []models.RouteQuery) ([]models.RouteResult, error) {
	if _, err := c.store.GetNetwork(network); err != nil {
		return nil, err
	}

	results := make([]models.RouteResult, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxWorkers)

	for i, q := range queries {
		g.Go(func() error {
			results[i].Query = q
			if err := validate.Struct(q); err != nil {
				c.observe(err)
				results[i].Error = err.Error()
				return nil
			}

			it, err := c.FindRoute(gctx, network, q.Start, q.End, q.AllowWalking)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			resp := it.ConvertToResponse()
			results[i].Itinerary = &resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Debug().Str("network", network).Int("queries", len(queries)).Msg("Batch routed")
	return results, nil
}

func (c *LocalClient) observe(err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveQuery(Outcome(err))
}

// Outcome classifies a query error for metrics
func Outcome(err error) string {
	var verr validator.ValidationErrors
	switch {
	case err == nil:
		return metrics.OutcomeFound
	case errors.Is(err, search.ErrNoRoute):
		return metrics.OutcomeNoRoute
	case errors.Is(err, stationcode.ErrMalformedCode),
		errors.Is(err, graph.ErrUnknownStation),
		errors.Is(err, store.ErrUnknownNetwork),
		errors.As(err, &verr):
		return metrics.OutcomeBadRequest
	}
	return metrics.OutcomeError
}
