package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Outcome labels for route queries
const (
	OutcomeFound      = "found"
	OutcomeNoRoute    = "no_route"
	OutcomeBadRequest = "bad_request"
	OutcomeError      = "error"
)

type Collector struct {
	reg *prometheus.Registry

	Queries        *prometheus.CounterVec // outcome label
	SearchDuration prometheus.Histogram
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter

	Networks      prometheus.Gauge
	Reloads       prometheus.Counter
	LastReloadAge prometheus.GaugeFunc
}

// NewCollector registers every route and reload metric on its own registry.
// lastReload reports when networks were last swapped in.
func NewCollector(lastReload func() time.Time) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "railroute_queries_total",
			Help: "Route queries by outcome.",
		}, []string{"outcome"}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "railroute_search_duration_seconds",
			Help:    "Duration of uncached route searches.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "railroute_cache_hits_total",
			Help: "Route queries answered from the itinerary cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "railroute_cache_misses_total",
			Help: "Route queries not found in the itinerary cache.",
		}),
		Networks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "railroute_networks",
			Help: "Number of loaded network stages.",
		}),
		Reloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "railroute_reloads_total",
			Help: "Successful network reloads.",
		}),
	}
	c.LastReloadAge = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "railroute_last_reload_age_seconds",
		Help: "Seconds since networks were last loaded.",
	}, func() float64 {
		if lastReload == nil {
			return 0
		}
		t := lastReload()
		if t.IsZero() {
			return 0
		}
		return time.Since(t).Seconds()
	})

	reg.MustRegister(
		c.Queries, c.SearchDuration,
		c.CacheHits, c.CacheMisses,
		c.Networks, c.Reloads, c.LastReloadAge,
	)

	return c
}

// ObserveQuery counts one route query
func (c *Collector) ObserveQuery(outcome string) {
	c.Queries.WithLabelValues(outcome).Inc()
}

// ObserveSearch records the duration of one search
func (c *Collector) ObserveSearch(d time.Duration) {
	c.SearchDuration.Observe(d.Seconds())
}

// ObserveReload records a successful load of n networks
func (c *Collector) ObserveReload(n int) {
	c.Reloads.Inc()
	c.Networks.Set(float64(n))
}

func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Metrics server error")
		}
	}()
	log.Info().Str("addr", addr).Msg("Metrics listening")
	return srv
}
