package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"gopkg.in/yaml.v3"

	"github.com/jusunglee/mrt-go/internal/graph"
	"github.com/jusunglee/mrt-go/internal/models"
)

const (
	// CoordinatesFile is looked up next to the network files
	CoordinatesFile = "station_coordinates.csv"

	filePrefix = "network_"
	fileSuffix = ".yml"
)

// ErrInvalidNetworkFile is returned for network files that fail to parse or validate
var ErrInvalidNetworkFile = errors.New("invalid network file")

type segmentEntry struct {
	Duration        int    `yaml:"duration" validate:"gte=0"`
	DwellAscending  int    `yaml:"dwell_time_asc" validate:"gte=0"`
	DwellDescending int    `yaml:"dwell_time_desc" validate:"gte=0"`
	Mode            string `yaml:"mode" validate:"omitempty,oneof=train walk"`
	EdgeType        string `yaml:"edge_type"`
}

type transferEntry struct {
	Duration int `yaml:"duration" validate:"gte=0"`
}

// networkFile is the on-disk layout of network_<stage>.yml
type networkFile struct {
	Schema                 int                       `yaml:"schema" validate:"eq=1"`
	Stations               map[string]string         `yaml:"stations" validate:"required,min=1,dive,keys,required,endkeys,required"`
	Segments               map[string]segmentEntry   `yaml:"segments" validate:"required,dive"`
	Transfers              map[string]transferEntry  `yaml:"transfers" validate:"dive"`
	ConditionalTransfers   map[string]map[string]int `yaml:"conditional_transfers" validate:"dive,dive,gte=0"`
	NonLinearLineTerminals map[string][]string       `yaml:"non_linear_line_terminals" validate:"dive,min=1,dive,required"`
	Pseudonyms             map[string]string         `yaml:"pseudonyms" validate:"dive,required"`
}

type coordinateRow struct {
	Code string  `csv:"code"`
	Name string  `csv:"name"`
	Lat  float64 `csv:"lat"`
	Lon  float64 `csv:"lon"`
}

var validate = validator.New()

// StageName extracts the stage from a file name such as network_tel_4.yml
func StageName(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasPrefix(base, filePrefix) || !strings.HasSuffix(base, fileSuffix) {
		return "", false
	}
	stage := strings.TrimSuffix(strings.TrimPrefix(base, filePrefix), fileSuffix)
	return stage, stage != ""
}

// FileName is the inverse of StageName
func FileName(stage string) string {
	return filePrefix + stage + fileSuffix
}

// ParseNetwork decodes and validates one network file
func ParseNetwork(name string, r io.Reader) (*models.NetworkData, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var file networkFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidNetworkFile, name, err)
	}
	if err := validate.Struct(file); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidNetworkFile, name, err)
	}

	data := &models.NetworkData{
		Name:               name,
		NonLinearTerminals: file.NonLinearLineTerminals,
		Pseudonyms:         file.Pseudonyms,
	}

	for _, code := range sortedKeys(file.Stations) {
		data.Stations = append(data.Stations, models.Station{Code: code, Name: file.Stations[code]})
	}

	for _, key := range sortedKeys(file.Segments) {
		from, to, err := splitPair(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: segment %v", ErrInvalidNetworkFile, name, err)
		}
		entry := file.Segments[key]
		data.Segments = append(data.Segments, models.Segment{
			From:            from,
			To:              to,
			Duration:        entry.Duration,
			DwellAscending:  entry.DwellAscending,
			DwellDescending: entry.DwellDescending,
			Mode:            models.Mode(entry.Mode),
			EdgeType:        entry.EdgeType,
		})
	}

	for _, key := range sortedKeys(file.Transfers) {
		from, to, err := splitPair(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: transfer %v", ErrInvalidNetworkFile, name, err)
		}
		data.Transfers = append(data.Transfers, models.Transfer{From: from, To: to, Duration: file.Transfers[key].Duration})
	}

	for _, prior := range sortedKeys(file.ConditionalTransfers) {
		for _, next := range sortedKeys(file.ConditionalTransfers[prior]) {
			data.ConditionalTransfers = append(data.ConditionalTransfers, models.ConditionalTransfer{
				Prior:    prior,
				Next:     next,
				Duration: file.ConditionalTransfers[prior][next],
			})
		}
	}

	return data, nil
}

// ParseCoordinates reads a code,name,lat,lon CSV
func ParseCoordinates(r io.Reader) (map[string]models.Location, error) {
	var rows []*coordinateRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parse coordinates: %w", err)
	}

	coords := make(map[string]models.Location, len(rows))
	for _, row := range rows {
		coords[row.Code] = models.Location{Lat: row.Lat, Lon: row.Lon}
	}
	return coords, nil
}

// ApplyCoordinates attaches known coordinates to the stations of data.
// Pseudonym codes borrow the coordinates of their canonical station and are
// added to coords.
func ApplyCoordinates(data *models.NetworkData, coords map[string]models.Location) {
	for pseudo, canonical := range data.Pseudonyms {
		if _, ok := coords[pseudo]; ok {
			continue
		}
		if loc, ok := coords[canonical]; ok {
			coords[pseudo] = loc
		}
	}
	for i := range data.Stations {
		if loc, ok := coords[data.Stations[i].Code]; ok {
			data.Stations[i].Location = &loc
		}
	}
}

// LoadFile reads one network file and attaches coordinates when given
func LoadFile(path string, coords map[string]models.Location) (*models.NetworkData, error) {
	name, ok := StageName(path)
	if !ok {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := ParseNetwork(name, f)
	if err != nil {
		return nil, err
	}
	if coords != nil {
		ApplyCoordinates(data, coords)
	}
	return data, nil
}

// LoadStage reads the network file of one stage in dir. It works on a copy
// of coords, so pseudonyms added for one stage never reach another.
func LoadStage(dir, stage string, coords map[string]models.Location) (*models.NetworkData, error) {
	return LoadFile(filepath.Join(dir, FileName(stage)), maps.Clone(coords))
}

// LoadCoordinatesFile reads the coordinates CSV; a missing file yields no coordinates
func LoadCoordinatesFile(path string) (map[string]models.Location, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCoordinates(f)
}

// Stages lists the network stages available in dir
func Stages(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, filePrefix+"*"+fileSuffix))
	if err != nil {
		return nil, err
	}
	var stages []string
	for _, m := range matches {
		if stage, ok := StageName(m); ok {
			stages = append(stages, stage)
		}
	}
	sort.Strings(stages)
	return stages, nil
}

type built struct {
	name  string
	graph *graph.Graph
}

// LoadDir parses and builds every network stage in dir concurrently.
// Any failing stage fails the whole load.
func LoadDir(ctx context.Context, dir string, opts graph.Options, maxWorkers int) (map[string]*graph.Graph, error) {
	stages, err := Stages(dir)
	if err != nil {
		return nil, err
	}
	if len(stages) == 0 {
		return nil, fmt.Errorf("no %s*%s files in %s", filePrefix, fileSuffix, dir)
	}

	coords, err := LoadCoordinatesFile(filepath.Join(dir, CoordinatesFile))
	if err != nil {
		return nil, err
	}

	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	p := pool.NewWithResults[built]().WithContext(ctx).WithMaxGoroutines(maxWorkers)

	for _, stage := range stages {
		p.Go(func(ctx context.Context) (built, error) {
			if err := ctx.Err(); err != nil {
				return built{}, err
			}

			data, err := LoadStage(dir, stage, coords)
			if err != nil {
				return built{}, err
			}
			g, err := graph.Build(data, opts)
			if err != nil {
				return built{}, fmt.Errorf("network %s: %w", stage, err)
			}

			log.Debug().
				Str("network", stage).
				Int("stations", len(g.Stations())).
				Int("segments", g.SegmentCount()).
				Msg("Built network")
			return built{name: stage, graph: g}, nil
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	graphs := make(map[string]*graph.Graph, len(results))
	for _, r := range results {
		graphs[r.name] = r.graph
	}
	return graphs, nil
}

func splitPair(key string) (string, string, error) {
	parts := strings.Split(key, "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("must be in format 'AB1-AB2', got %q", key)
	}
	return parts[0], parts[1], nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
