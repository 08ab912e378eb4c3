package router

import (
	"context"
	"time"

	"github.com/jusunglee/mrt-go/internal/metrics"
	"github.com/jusunglee/mrt-go/internal/models"
)

// Client defines the interface for querying loaded rail networks
type Client interface {
	GetNetworks() []string
	GetNetworkInfo(network string) (models.NetworkInfo, error)
	GetStations(network, line string) ([]models.Station, error)
	GetStationsByLocation(network string, lat, lon float64, limit int) ([]models.Station, error)

	FindRoute(ctx context.Context, network, start, end string, allowWalking bool) (*models.Itinerary, error)
	FindRoutes(ctx context.Context, network string, queries []models.RouteQuery) ([]models.RouteResult, error)

	GetLastUpdate() time.Time
}

// Config holds configuration for the router client
type Config struct {
	NetworkDir string
	// ReloadInterval re-reads NetworkDir periodically; zero loads once
	ReloadInterval time.Duration
	// TransferPolicy is "strict" or "mirror"
	TransferPolicy string
	MaxWorkers     int
	// CacheTTL of computed itineraries; zero disables the cache
	CacheTTL time.Duration
	Metrics  *metrics.Collector
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		NetworkDir:     "networks",
		TransferPolicy: "strict",
		MaxWorkers:     4,
		CacheTTL:       10 * time.Minute,
	}
}
