package itinerary

import (
	"context"
	"errors"
	"testing"

	"github.com/jusunglee/mrt-go/internal/graph"
	"github.com/jusunglee/mrt-go/internal/models"
	"github.com/jusunglee/mrt-go/internal/search"
)

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	data := &models.NetworkData{
		Name: "test",
		Stations: []models.Station{
			{Code: "CC2", Name: "Bras Basah"},
			{Code: "CC3", Name: "Esplanade"},
			{Code: "CC4", Name: "Promenade"},
			{Code: "CC5", Name: "Nicoll Highway"},
			{Code: "CC6", Name: "Stadium"},
			{Code: "CE0Z", Name: "Promenade"},
			{Code: "CE1", Name: "Bayfront"},
			{Code: "CE2", Name: "Marina Bay"},
			{Code: "DT15", Name: "Promenade"},
			{Code: "DT16", Name: "Bayfront"},
			{Code: "DT20", Name: "Fort Canning"},
			{Code: "DT21", Name: "Bencoolen"},
			{Code: "EW12", Name: "Bugis"},
		},
		Segments: []models.Segment{
			{From: "CC2", To: "CC3", Duration: 85, DwellAscending: 28, DwellDescending: 28},
			{From: "CC3", To: "CC4", Duration: 110, DwellAscending: 28, DwellDescending: 45, EdgeType: "promenade_west"},
			{From: "CC4", To: "CC5", Duration: 105, DwellAscending: 45, DwellDescending: 28, EdgeType: "promenade_east"},
			{From: "CC5", To: "CC6", Duration: 120, DwellAscending: 28, DwellDescending: 28},
			{From: "CE0Z", To: "CE1", Duration: 115, DwellAscending: 45, DwellDescending: 45, EdgeType: "promenade_south"},
			{From: "CE1", To: "CE2", Duration: 110, DwellAscending: 45, DwellDescending: 60},
			{From: "DT15", To: "DT16", Duration: 95, DwellAscending: 45, DwellDescending: 45},
			{From: "DT20", To: "DT21", Duration: 75, DwellAscending: 28, DwellDescending: 28},
			{From: "CC2", To: "DT21", Duration: 120, Mode: models.ModeWalk},
			{From: "DT21", To: "EW12", Duration: 300, Mode: models.ModeWalk},
		},
		Transfers: []models.Transfer{
			{From: "CC4", To: "DT15", Duration: 420},
			{From: "DT15", To: "CC4", Duration: 420},
			{From: "CE1", To: "DT16", Duration: 360},
			{From: "DT16", To: "CE1", Duration: 360},
		},
		ConditionalTransfers: []models.ConditionalTransfer{
			{Prior: "promenade_west", Next: "promenade_south", Duration: 420},
			{Prior: "promenade_south", Next: "promenade_west", Duration: 420},
			{Prior: "promenade_east", Next: "promenade_south", Duration: 420},
		},
		NonLinearTerminals: map[string][]string{"CE": {"CE2"}},
		Pseudonyms:         map[string]string{"CE0Z": "CC4"},
	}
	g, err := graph.Build(data, graph.Options{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return g
}

func route(t *testing.T, g *graph.Graph, start, end string, walk bool) []models.Leg {
	t.Helper()
	res, err := search.FindPath(context.Background(), g, start, end, search.Options{AllowWalking: walk})
	if err != nil {
		t.Fatalf("FindPath %s->%s failed: %v", start, end, err)
	}
	legs, err := Build(g, res)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return legs
}

func describe(legs []models.Leg) []string {
	lines := make([]string, len(legs))
	for i, leg := range legs {
		lines[i] = leg.Describe()
	}
	return lines
}

func assertLines(t *testing.T, expected, got []string) {
	t.Helper()
	if len(expected) != len(got) {
		t.Fatalf("Expected %d legs %q, got %d legs %q", len(expected), expected, len(got), got)
	}
	for i := range expected {
		if expected[i] != got[i] {
			t.Errorf("Leg %d: expected %q, got %q", i, expected[i], got[i])
		}
	}
}

func TestBuild(t *testing.T) {
	g := testGraph(t)

	tests := []struct {
		name     string
		start    string
		end      string
		walk     bool
		expected []string
	}{
		{
			name:  "single run",
			start: "CC2",
			end:   "CC4",
			expected: []string{
				"Board train towards terminus CC6 Stadium",
				"Alight at CC4 Promenade",
			},
		},
		{
			name:  "boarding at the only declared terminal",
			start: "CE2",
			end:   "CE1",
			expected: []string{
				"Board train in direction of CE1 Bayfront",
				"Alight at CE1 Bayfront",
			},
		},
		{
			name:  "switch over",
			start: "CC3",
			end:   "CE2",
			expected: []string{
				"Board train towards terminus CC6 Stadium",
				"Switch over at CC4 Promenade",
				"Board train towards terminus CE2 Marina Bay",
				"Alight at CE2 Marina Bay",
			},
		},
		{
			name:  "leading transfer",
			start: "DT15",
			end:   "CC3",
			expected: []string{
				"Transfer to CC4 Promenade",
				"Board train towards terminus CC2 Bras Basah",
				"Alight at CC3 Esplanade",
			},
		},
		{
			name:  "walk then ride",
			start: "DT21",
			end:   "CC3",
			walk:  true,
			expected: []string{
				"Walk to CC2 Bras Basah",
				"Board train towards terminus CC6 Stadium",
				"Alight at CC3 Esplanade",
			},
		},
		{
			name:  "run continuing onto another line",
			start: "CE1",
			end:   "CC6",
			expected: []string{
				"Board train towards terminus CC6 Stadium",
				"Alight at CC6 Stadium",
			},
		},
		{
			name:  "doubling back splits the run",
			start: "CE2",
			end:   "CC3",
			expected: []string{
				"Board train in direction of CE1 Bayfront",
				"Alight at CC5 Nicoll Highway",
				"Board train towards terminus CC2 Bras Basah",
				"Alight at CC3 Esplanade",
			},
		},
		{
			name:  "ride then consecutive walks",
			start: "CC3",
			end:   "EW12",
			walk:  true,
			expected: []string{
				"Board train towards terminus CC2 Bras Basah",
				"Alight at CC2 Bras Basah",
				"Walk to EW12 Bugis",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertLines(t, tt.expected, describe(route(t, g, tt.start, tt.end, tt.walk)))
		})
	}
}

func TestBuildLegDetails(t *testing.T) {
	g := testGraph(t)
	legs := route(t, g, "CC3", "CE2", false)

	board := legs[2]
	if board.Kind != models.LegBoard || board.Line != "CE" || board.At.Code != "CC4" {
		t.Errorf("Unexpected second board leg: %+v", board)
	}
	if !board.Terminus || board.Towards == nil || board.Towards.Code != "CE2" {
		t.Errorf("Expected terminus CE2, got %+v", board.Towards)
	}
	if legs[0].Line != "CC" {
		t.Errorf("Expected first run on CC, got %s", legs[0].Line)
	}
}

func TestBuildDoublingBack(t *testing.T) {
	g := testGraph(t)
	legs := route(t, g, "CE2", "CC3", false)

	if len(legs) != 4 {
		t.Fatalf("Expected two board/alight pairs, got %q", describe(legs))
	}
	if legs[0].Line != "CE" || legs[0].Terminus {
		t.Errorf("Expected first run on CE without a terminus, got %+v", legs[0])
	}
	if legs[1].Kind != models.LegAlight || legs[1].At.Code != "CC5" {
		t.Errorf("Expected to alight at CC5, got %+v", legs[1])
	}
	if legs[2].Kind != models.LegBoard || legs[2].Line != "CC" || legs[2].At.Code != "CC5" {
		t.Errorf("Expected to board CC at CC5, got %+v", legs[2])
	}
	if legs[2].Towards == nil || legs[2].Towards.Code != "CC2" {
		t.Errorf("Expected terminus CC2, got %+v", legs[2].Towards)
	}
}

func TestBuildWalkMerging(t *testing.T) {
	g := testGraph(t)
	legs := route(t, g, "CC2", "EW12", true)

	if len(legs) != 1 {
		t.Fatalf("Expected one merged walk leg, got %q", describe(legs))
	}
	if legs[0].Kind != models.LegWalk || legs[0].At.Code != "CC2" || legs[0].To.Code != "EW12" {
		t.Errorf("Expected walk CC2 -> EW12, got %+v", legs[0])
	}
}

func TestBuildEmpty(t *testing.T) {
	g := testGraph(t)
	if _, err := Build(g, &search.Result{}); !errors.Is(err, search.ErrNoRoute) {
		t.Errorf("Expected ErrNoRoute, got %v", err)
	}
	if _, err := Build(g, nil); !errors.Is(err, search.ErrNoRoute) {
		t.Errorf("Expected ErrNoRoute for nil result, got %v", err)
	}
}
