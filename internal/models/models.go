package models

import (
	"fmt"
	"time"
)

// Location represents a geographic coordinate
type Location struct {
	Lat float64 `json:"lat" csv:"lat"`
	Lon float64 `json:"lon" csv:"lon"`
}

// Station is a single platform code; interchanges share a name, not a code
type Station struct {
	Code     string    `json:"code"`
	Name     string    `json:"name"`
	Location *Location `json:"location,omitempty"`
}

// Mode is how a segment is traversed
type Mode string

const (
	ModeTrain Mode = "train"
	ModeWalk  Mode = "walk"
)

// Segment connects two adjacent codes. From/To are as declared; the graph
// canonicalizes them so that the lower code comes first.
// DwellAscending is charged when departing the lower code towards the higher one,
// DwellDescending when departing the higher code.
type Segment struct {
	From            string `json:"from"`
	To              string `json:"to"`
	Duration        int    `json:"duration"`
	DwellAscending  int    `json:"dwell_time_asc"`
	DwellDescending int    `json:"dwell_time_desc"`
	Mode            Mode   `json:"mode,omitempty"`
	EdgeType        string `json:"edge_type,omitempty"`
}

// IsWalk reports whether the segment is a walking link
func (s Segment) IsWalk() bool {
	return s.Mode == ModeWalk
}

// Transfer is a directed interchange link between two codes of the same station
type Transfer struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Duration int    `json:"duration"`
}

// ConditionalTransfer charges an implicit alight/re-board when a rider
// goes directly from a segment tagged Prior into one tagged Next
type ConditionalTransfer struct {
	Prior    string `json:"prior"`
	Next     string `json:"next"`
	Duration int    `json:"duration"`
}

// NetworkData is the parsed configuration of one network stage
type NetworkData struct {
	Name                 string
	Stations             []Station
	Segments             []Segment
	Transfers            []Transfer
	ConditionalTransfers []ConditionalTransfer
	NonLinearTerminals   map[string][]string
	Pseudonyms           map[string]string
}

// LegKind identifies a step of an itinerary
type LegKind string

const (
	LegBoard      LegKind = "board"
	LegAlight     LegKind = "alight"
	LegTransfer   LegKind = "transfer"
	LegSwitchOver LegKind = "switch_over"
	LegWalk       LegKind = "walk"
)

// StationRef names a station in an itinerary
type StationRef struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (r StationRef) String() string {
	return r.Code + " " + r.Name
}

// Leg is one instruction of an itinerary.
// At is the boarding, alighting or switch-over station, or the origin of a transfer or walk.
// Towards is the terminus of a boarded train, or the next station when Terminus is false.
type Leg struct {
	Kind     LegKind     `json:"kind"`
	Line     string      `json:"line,omitempty"`
	At       StationRef  `json:"at"`
	To       *StationRef `json:"to,omitempty"`
	Towards  *StationRef `json:"towards,omitempty"`
	Terminus bool        `json:"terminus,omitempty"`
}

func BoardLeg(line string, from, towards StationRef, terminus bool) Leg {
	return Leg{Kind: LegBoard, Line: line, At: from, Towards: &towards, Terminus: terminus}
}

func AlightLeg(at StationRef) Leg {
	return Leg{Kind: LegAlight, At: at}
}

func TransferLeg(from, to StationRef) Leg {
	return Leg{Kind: LegTransfer, At: from, To: &to}
}

func SwitchOverLeg(at StationRef) Leg {
	return Leg{Kind: LegSwitchOver, At: at}
}

func WalkLeg(from, to StationRef) Leg {
	return Leg{Kind: LegWalk, At: from, To: &to}
}

// Describe renders the leg as a direction line
func (l Leg) Describe() string {
	switch l.Kind {
	case LegBoard:
		if l.Towards == nil {
			return fmt.Sprintf("Board %s train", l.Line)
		}
		if !l.Terminus {
			return fmt.Sprintf("Board train in direction of %s", l.Towards)
		}
		return fmt.Sprintf("Board train towards terminus %s", l.Towards)
	case LegAlight:
		return fmt.Sprintf("Alight at %s", l.At)
	case LegTransfer:
		return fmt.Sprintf("Transfer to %s", l.To)
	case LegSwitchOver:
		return fmt.Sprintf("Switch over at %s", l.At)
	case LegWalk:
		return fmt.Sprintf("Walk to %s", l.To)
	}
	return string(l.Kind)
}

// DistanceReport holds the great-circle measurements of a route.
// Circuity is nil when the origin and destination coincide.
type DistanceReport struct {
	PathMetres      float64  `json:"path_metres"`
	HaversineMetres float64  `json:"haversine_metres"`
	Circuity        *float64 `json:"circuity,omitempty"`
}

// Itinerary is the fastest route between two stations
type Itinerary struct {
	Network  string          `json:"network"`
	Start    StationRef      `json:"start"`
	End      StationRef      `json:"end"`
	Legs     []Leg           `json:"legs"`
	Duration int             `json:"duration"`
	Distance *DistanceReport `json:"distance,omitempty"`
}

// Directions renders the itinerary as human-readable lines
func (it *Itinerary) Directions() []string {
	lines := make([]string, 0, len(it.Legs)+1)
	lines = append(lines, fmt.Sprintf("Start at %s", it.Start))
	for _, leg := range it.Legs {
		lines = append(lines, leg.Describe())
	}
	return lines
}

// ItineraryResponse is the API response format for an itinerary
type ItineraryResponse struct {
	Network    string          `json:"network"`
	Start      StationRef      `json:"start"`
	End        StationRef      `json:"end"`
	Duration   int             `json:"duration"`
	Legs       []Leg           `json:"legs"`
	Directions []string        `json:"directions"`
	Distance   *DistanceReport `json:"distance,omitempty"`
}

// ConvertToResponse converts an Itinerary to ItineraryResponse format
func (it *Itinerary) ConvertToResponse() ItineraryResponse {
	return ItineraryResponse{
		Network:    it.Network,
		Start:      it.Start,
		End:        it.End,
		Duration:   it.Duration,
		Legs:       it.Legs,
		Directions: it.Directions(),
		Distance:   it.Distance,
	}
}

// StationResponse is the API response format for a station
type StationResponse struct {
	Code     string      `json:"code"`
	Name     string      `json:"name"`
	Line     string      `json:"line"`
	Location *[2]float64 `json:"location,omitempty"`
}

// ConvertToResponse converts a Station to StationResponse format
func (s *Station) ConvertToResponse(line string) StationResponse {
	resp := StationResponse{Code: s.Code, Name: s.Name, Line: line}
	if s.Location != nil {
		resp.Location = &[2]float64{s.Location.Lat, s.Location.Lon}
	}
	return resp
}

// NetworkInfo contains metadata about a loaded network stage
type NetworkInfo struct {
	Name       string    `json:"name"`
	Stations   int       `json:"stations"`
	Lines      []string  `json:"lines"`
	LastUpdate time.Time `json:"last_update"`
}

// RouteQuery is one entry of a batch request
type RouteQuery struct {
	Start        string `json:"start" csv:"start" validate:"required"`
	End          string `json:"end" csv:"end" validate:"required"`
	AllowWalking bool   `json:"allow_walking" csv:"allow_walking"`
}

// RouteResult pairs a batch query with its outcome
type RouteResult struct {
	Query     RouteQuery         `json:"query"`
	Itinerary *ItineraryResponse `json:"itinerary,omitempty"`
	Error     string             `json:"error,omitempty"`
}
