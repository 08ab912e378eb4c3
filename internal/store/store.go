package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jusunglee/mrt-go/internal/geo"
	"github.com/jusunglee/mrt-go/internal/graph"
	"github.com/jusunglee/mrt-go/internal/models"
)

// ErrUnknownNetwork is returned when no network stage is loaded under a name
var ErrUnknownNetwork = errors.New("unknown network")

// ErrUnknownLine is returned when a network has no stations on a line
var ErrUnknownLine = errors.New("unknown line")

// Store manages the in-memory set of built network graphs.
// Graphs are replaced wholesale on update, never mutated.
type Store struct {
	mu         sync.RWMutex
	networks   map[string]*graph.Graph
	names      []string
	lastUpdate time.Time
}

// NewStore creates a new store instance
func NewStore() *Store {
	return &Store{
		networks: make(map[string]*graph.Graph),
	}
}

// UpdateNetworks replaces the loaded networks
func (s *Store) UpdateNetworks(networks map[string]*graph.Graph) {
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.networks = networks
	s.names = names
	s.lastUpdate = time.Now()
}

// GetNetwork returns the graph of one network stage
func (s *Store) GetNetwork(name string) (*graph.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.networks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNetwork, name)
	}
	return g, nil
}

// GetNetworks returns the names of all loaded networks
func (s *Store) GetNetworks() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]string, len(s.names))
	copy(result, s.names)
	return result
}

// GetNetworkInfo summarises one network stage
func (s *Store) GetNetworkInfo(name string) (models.NetworkInfo, error) {
	g, err := s.GetNetwork(name)
	if err != nil {
		return models.NetworkInfo{}, err
	}
	return models.NetworkInfo{
		Name:       name,
		Stations:   len(g.Stations()),
		Lines:      g.Lines(),
		LastUpdate: s.GetLastUpdate(),
	}, nil
}

// GetStations returns all stations of a network, optionally limited to one line
func (s *Store) GetStations(network, line string) ([]models.Station, error) {
	g, err := s.GetNetwork(network)
	if err != nil {
		return nil, err
	}
	if line == "" {
		return g.Stations(), nil
	}

	line = strings.ToUpper(line)
	stations, ok := g.StationsByLine(line)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrUnknownLine, line, network)
	}
	return stations, nil
}

// GetStationsByLocation returns the stations of a network nearest to a point.
// Stations without coordinates are skipped.
func (s *Store) GetStationsByLocation(network string, lat, lon float64, limit int) ([]models.Station, error) {
	g, err := s.GetNetwork(network)
	if err != nil {
		return nil, err
	}

	type stationDist struct {
		station  models.Station
		distance float64
	}

	origin := models.Location{Lat: lat, Lon: lon}
	var stations []stationDist
	for _, station := range g.Stations() {
		if station.Location == nil {
			continue
		}
		stations = append(stations, stationDist{station, geo.Haversine(origin, *station.Location)})
	}

	sort.SliceStable(stations, func(i, j int) bool {
		return stations[i].distance < stations[j].distance
	})

	if limit > len(stations) {
		limit = len(stations)
	}
	result := make([]models.Station, 0, max(limit, 0))
	for i := 0; i < limit; i++ {
		result = append(result, stations[i].station)
	}

	return result, nil
}

// GetLastUpdate returns the last update time
func (s *Store) GetLastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}
