package graph

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/jusunglee/mrt-go/internal/models"
	"github.com/jusunglee/mrt-go/internal/stationcode"
)

// TransferPolicy decides what happens to a transfer declared in one direction only
type TransferPolicy int

const (
	// TransferStrict rejects one-directional transfers with ErrAsymmetricTransfer
	TransferStrict TransferPolicy = iota
	// TransferMirror adds the missing direction with the same duration
	TransferMirror
)

func (p TransferPolicy) String() string {
	if p == TransferMirror {
		return "mirror"
	}
	return "strict"
}

// ParseTransferPolicy maps "strict" or "mirror" to a policy
func ParseTransferPolicy(s string) (TransferPolicy, error) {
	switch s {
	case "", "strict":
		return TransferStrict, nil
	case "mirror":
		return TransferMirror, nil
	}
	return TransferStrict, fmt.Errorf("invalid transfer policy: %q", s)
}

// Options control graph construction
type Options struct {
	Transfers TransferPolicy
}

// EdgeKind distinguishes track segments from interchange transfers
type EdgeKind int

const (
	KindSegment EdgeKind = iota
	KindTransfer
)

func (k EdgeKind) String() string {
	if k == KindTransfer {
		return "transfer"
	}
	return "segment"
}

// Edge is a segment (Low/High set) or a directed transfer (From/To set)
type Edge struct {
	Kind            EdgeKind
	Low             string
	High            string
	From            string
	To              string
	Duration        int
	DwellAscending  int
	DwellDescending int
	Mode            models.Mode
	EdgeType        string
}

func (e *Edge) IsWalk() bool {
	return e.Kind == KindSegment && e.Mode == models.ModeWalk
}

func (e *Edge) IsTrain() bool {
	return e.Kind == KindSegment && e.Mode != models.ModeWalk
}

// Arc is an edge leaving a station towards To
type Arc struct {
	To   string
	Edge *Edge
}

// Direction of travel along a line, by station code order
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "descending"
	}
	return "ascending"
}

// Graph is an immutable rail network. It is safe for concurrent reads.
type Graph struct {
	name       string
	stations   map[string]models.Station
	codes      map[string]stationcode.Code
	adj        map[string][]Arc
	segments   map[stationcode.Pair]*Edge
	transfers  map[[2]string]*Edge
	rules      ConditionalRules
	terminals  map[string][]stationcode.Code
	lineCodes  map[string][]stationcode.Code
	lines      []string
	pseudonyms map[string]string
}

type builder struct {
	g    *Graph
	opts Options
}

// Build validates network data and constructs its graph.
// Pseudonyms are resolved everywhere and pseudonym station rows are dropped.
func Build(data *models.NetworkData, opts Options) (*Graph, error) {
	b := &builder{
		g: &Graph{
			name:       data.Name,
			stations:   make(map[string]models.Station),
			codes:      make(map[string]stationcode.Code),
			adj:        make(map[string][]Arc),
			segments:   make(map[stationcode.Pair]*Edge),
			transfers:  make(map[[2]string]*Edge),
			rules:      make(ConditionalRules),
			terminals:  make(map[string][]stationcode.Code),
			lineCodes:  make(map[string][]stationcode.Code),
			pseudonyms: make(map[string]string, len(data.Pseudonyms)),
		},
		opts: opts,
	}
	for pseudo, canonical := range data.Pseudonyms {
		b.g.pseudonyms[pseudo] = canonical
	}

	if err := b.addStations(data.Stations); err != nil {
		return nil, err
	}
	if err := b.addSegments(data.Segments); err != nil {
		return nil, err
	}
	if err := b.addTransfers(data.Transfers); err != nil {
		return nil, err
	}
	if err := b.addRules(data.ConditionalTransfers); err != nil {
		return nil, err
	}
	if err := b.addTerminals(data.NonLinearTerminals); err != nil {
		return nil, err
	}
	b.index()

	return b.g, nil
}

func (b *builder) addStations(stations []models.Station) error {
	for _, st := range stations {
		if _, ok := b.g.pseudonyms[st.Code]; ok {
			continue
		}
		code, err := stationcode.Parse(st.Code)
		if err != nil {
			return err
		}
		if _, ok := b.g.stations[st.Code]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateStation, st.Code)
		}
		b.g.stations[st.Code] = st
		b.g.codes[st.Code] = code
	}

	for pseudo, canonical := range b.g.pseudonyms {
		if _, ok := b.g.stations[canonical]; !ok {
			return fmt.Errorf("%w: pseudonym %s maps to %s", ErrUnknownStation, pseudo, canonical)
		}
	}
	return nil
}

func (b *builder) lookup(raw string) (string, stationcode.Code, error) {
	code := stationcode.Resolve(raw, b.g.pseudonyms)
	parsed, ok := b.g.codes[code]
	if !ok {
		return "", stationcode.Code{}, fmt.Errorf("%w: %s", ErrUnknownStation, raw)
	}
	return code, parsed, nil
}

func (b *builder) addSegments(segments []models.Segment) error {
	for _, seg := range segments {
		from, fromCode, err := b.lookup(seg.From)
		if err != nil {
			return fmt.Errorf("segment %s-%s: %w", seg.From, seg.To, err)
		}
		to, toCode, err := b.lookup(seg.To)
		if err != nil {
			return fmt.Errorf("segment %s-%s: %w", seg.From, seg.To, err)
		}

		pair, err := stationcode.NewPair(fromCode, toCode)
		if err != nil {
			return fmt.Errorf("%w: %s-%s: %v", ErrInvalidSegment, seg.From, seg.To, err)
		}
		if _, ok := b.g.segments[pair]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateSegment, pair)
		}

		mode := seg.Mode
		switch mode {
		case "":
			mode = models.ModeTrain
		case models.ModeTrain, models.ModeWalk:
		default:
			return fmt.Errorf("%w: %s: unknown mode %q", ErrInvalidSegment, pair, seg.Mode)
		}
		if seg.Duration < 0 || seg.DwellAscending < 0 || seg.DwellDescending < 0 {
			return fmt.Errorf("%w: %s: negative duration or dwell", ErrInvalidSegment, pair)
		}
		if mode == models.ModeWalk && (seg.DwellAscending != 0 || seg.DwellDescending != 0) {
			return fmt.Errorf("%w: %s: walking segment with dwell time", ErrInvalidSegment, pair)
		}

		low, high := from, to
		if pair.Low != fromCode {
			low, high = to, from
		}
		edge := &Edge{
			Kind:            KindSegment,
			Low:             low,
			High:            high,
			Duration:        seg.Duration,
			DwellAscending:  seg.DwellAscending,
			DwellDescending: seg.DwellDescending,
			Mode:            mode,
			EdgeType:        seg.EdgeType,
		}
		b.g.segments[pair] = edge
		b.g.adj[low] = append(b.g.adj[low], Arc{To: high, Edge: edge})
		b.g.adj[high] = append(b.g.adj[high], Arc{To: low, Edge: edge})
	}
	return nil
}

func (b *builder) addTransfers(transfers []models.Transfer) error {
	order := make([][2]string, 0, len(transfers))
	for _, tr := range transfers {
		from, _, err := b.lookup(tr.From)
		if err != nil {
			return fmt.Errorf("transfer %s->%s: %w", tr.From, tr.To, err)
		}
		to, _, err := b.lookup(tr.To)
		if err != nil {
			return fmt.Errorf("transfer %s->%s: %w", tr.From, tr.To, err)
		}

		switch {
		case from == to:
			return fmt.Errorf("%w: %s->%s: endpoints resolve to the same code", ErrInvalidTransfer, tr.From, tr.To)
		case b.g.stations[from].Name != b.g.stations[to].Name:
			return fmt.Errorf("%w: %s->%s: %q and %q are different stations", ErrInvalidTransfer, from, to, b.g.stations[from].Name, b.g.stations[to].Name)
		case tr.Duration < 0:
			return fmt.Errorf("%w: %s->%s: negative duration", ErrInvalidTransfer, from, to)
		}

		key := [2]string{from, to}
		if _, ok := b.g.transfers[key]; ok {
			return fmt.Errorf("%w: %s->%s declared twice", ErrInvalidTransfer, from, to)
		}
		b.g.transfers[key] = &Edge{Kind: KindTransfer, From: from, To: to, Duration: tr.Duration}
		order = append(order, key)
	}

	for _, key := range order {
		reverse := [2]string{key[1], key[0]}
		if _, ok := b.g.transfers[reverse]; ok {
			continue
		}
		if b.opts.Transfers != TransferMirror {
			return fmt.Errorf("%w: %s->%s has no %s->%s counterpart", ErrAsymmetricTransfer, key[0], key[1], key[1], key[0])
		}
		b.g.transfers[reverse] = &Edge{Kind: KindTransfer, From: reverse[0], To: reverse[1], Duration: b.g.transfers[key].Duration}
		order = append(order, reverse)
		log.Debug().
			Str("network", b.g.name).
			Str("from", reverse[0]).
			Str("to", reverse[1]).
			Msg("Mirrored one-directional transfer")
	}

	for _, key := range order {
		edge := b.g.transfers[key]
		b.g.adj[edge.From] = append(b.g.adj[edge.From], Arc{To: edge.To, Edge: edge})
	}
	return nil
}

func (b *builder) addRules(rules []models.ConditionalTransfer) error {
	for _, r := range rules {
		if r.Prior == "" || r.Next == "" {
			return fmt.Errorf("%w: conditional transfer needs both edge types, got %q -> %q", ErrInvalidTransfer, r.Prior, r.Next)
		}
		if r.Duration < 0 {
			return fmt.Errorf("%w: conditional transfer %s -> %s: negative duration", ErrInvalidTransfer, r.Prior, r.Next)
		}
		key := RuleKey{Prior: r.Prior, Next: r.Next}
		if _, ok := b.g.rules[key]; ok {
			return fmt.Errorf("%w: conditional transfer %s -> %s declared twice", ErrInvalidTransfer, r.Prior, r.Next)
		}
		b.g.rules[key] = r.Duration
	}
	return nil
}

func (b *builder) addTerminals(terminals map[string][]string) error {
	for line, raws := range terminals {
		for _, raw := range raws {
			_, code, err := b.lookup(raw)
			if err != nil {
				return fmt.Errorf("terminal of line %s: %w", line, err)
			}
			b.g.terminals[line] = append(b.g.terminals[line], code)
		}
		sort.Slice(b.g.terminals[line], func(i, j int) bool {
			return b.g.terminals[line][i].Less(b.g.terminals[line][j])
		})
	}
	return nil
}

// index sorts adjacency lists and groups codes by line
func (b *builder) index() {
	g := b.g
	for code, arcs := range g.adj {
		sort.SliceStable(arcs, func(i, j int) bool {
			c := stationcode.Compare(g.codes[arcs[i].To], g.codes[arcs[j].To])
			if c != 0 {
				return c < 0
			}
			return arcs[i].Edge.Kind < arcs[j].Edge.Kind
		})
		g.adj[code] = arcs
	}

	for _, code := range g.codes {
		g.lineCodes[code.Line] = append(g.lineCodes[code.Line], code)
	}
	for line, codes := range g.lineCodes {
		sort.Slice(codes, func(i, j int) bool { return codes[i].Less(codes[j]) })
		g.lines = append(g.lines, line)
	}
	sort.Strings(g.lines)
}

// Name returns the network stage name
func (g *Graph) Name() string {
	return g.name
}

// Resolve maps a pseudonym to its canonical code
func (g *Graph) Resolve(code string) string {
	return stationcode.Resolve(code, g.pseudonyms)
}

// Station returns the station declared under a canonical code
func (g *Graph) Station(code string) (models.Station, bool) {
	st, ok := g.stations[code]
	return st, ok
}

// Code returns the parsed form of a canonical code
func (g *Graph) Code(code string) (stationcode.Code, bool) {
	c, ok := g.codes[code]
	return c, ok
}

// Ref returns the code and name of a station for itineraries
func (g *Graph) Ref(code string) models.StationRef {
	return models.StationRef{Code: code, Name: g.stations[code].Name}
}

// Stations returns all stations ordered by code
func (g *Graph) Stations() []models.Station {
	result := make([]models.Station, 0, len(g.stations))
	for _, line := range g.lines {
		for _, code := range g.lineCodes[line] {
			result = append(result, g.stations[code.String()])
		}
	}
	return result
}

// StationsByLine returns the stations of one line ordered by code
func (g *Graph) StationsByLine(line string) ([]models.Station, bool) {
	codes, ok := g.lineCodes[line]
	if !ok {
		return nil, false
	}
	result := make([]models.Station, len(codes))
	for i, code := range codes {
		result[i] = g.stations[code.String()]
	}
	return result, true
}

// Lines returns every line code in the network
func (g *Graph) Lines() []string {
	result := make([]string, len(g.lines))
	copy(result, g.lines)
	return result
}

// Neighbors returns the arcs leaving code ordered by target code, segments
// before transfers. The returned slice must not be modified.
func (g *Graph) Neighbors(code string) []Arc {
	return g.adj[code]
}

// Rules returns the conditional transfer table
func (g *Graph) Rules() ConditionalRules {
	return g.rules
}

// SegmentCount returns the number of distinct segments
func (g *Graph) SegmentCount() int {
	return len(g.segments)
}

// TerminalFor returns the terminus reached by travelling along line in dir.
// A declared non-linear terminal wins; several declared terminals resolve to
// the highest one ascending and the lowest one descending.
func (g *Graph) TerminalFor(line string, dir Direction) (string, bool) {
	candidates, ok := g.terminals[line]
	if !ok || len(candidates) == 0 {
		candidates, ok = g.lineCodes[line]
		if !ok || len(candidates) == 0 {
			return "", false
		}
	}
	if len(candidates) == 1 {
		return candidates[0].String(), true
	}
	if dir == Ascending {
		return candidates[len(candidates)-1].String(), true
	}
	return candidates[0].String(), true
}
