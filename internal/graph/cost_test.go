package graph

import (
	"errors"
	"testing"

	"github.com/jusunglee/mrt-go/internal/models"
)

func TestEdgeCost(t *testing.T) {
	rules := ConditionalRules{
		{Prior: "promenade_west", Next: "promenade_south"}: 420,
	}
	west := &Edge{Kind: KindSegment, Low: "CC3", High: "CC4", Duration: 110, DwellAscending: 28, DwellDescending: 45, Mode: models.ModeTrain, EdgeType: "promenade_west"}
	south := &Edge{Kind: KindSegment, Low: "CC4", High: "CE1", Duration: 115, DwellAscending: 45, DwellDescending: 45, Mode: models.ModeTrain, EdgeType: "promenade_south"}
	plain := &Edge{Kind: KindSegment, Low: "CE1", High: "CE2", Duration: 110, DwellAscending: 45, DwellDescending: 60, Mode: models.ModeTrain}
	walk := &Edge{Kind: KindSegment, Low: "CC2", High: "DT21", Duration: 120, Mode: models.ModeWalk}
	transfer := &Edge{Kind: KindTransfer, From: "CC4", To: "DT15", Duration: 420}

	tests := []struct {
		name     string
		edge     *Edge
		from, to string
		prior    string
		expected Cost
	}{
		{"ascending", plain, "CE1", "CE2", "", Cost{Seconds: 155}},
		{"descending", plain, "CE2", "CE1", "", Cost{Seconds: 170}},
		{"tagged sets state", west, "CC3", "CC4", "", Cost{Seconds: 138, State: "promenade_west"}},
		{"conditional surcharge", south, "CC4", "CE1", "promenade_west", Cost{Seconds: 580, State: "promenade_south", SwitchOver: true}},
		{"reverse pair not declared", west, "CC4", "CC3", "promenade_south", Cost{Seconds: 155, State: "promenade_west"}},
		{"same edge type", south, "CC4", "CE1", "promenade_south", Cost{Seconds: 160, State: "promenade_south"}},
		{"untagged clears state", plain, "CE1", "CE2", "promenade_south", Cost{Seconds: 155}},
		{"walk ignores dwell and state", walk, "DT21", "CC2", "promenade_west", Cost{Seconds: 120}},
		{"transfer resets state", transfer, "CC4", "DT15", "promenade_west", Cost{Seconds: 420}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EdgeCost(tt.edge, tt.from, tt.to, tt.prior, rules)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestEdgeCostInvalidDirection(t *testing.T) {
	seg := &Edge{Kind: KindSegment, Low: "CE1", High: "CE2", Duration: 110}
	if _, err := EdgeCost(seg, "CE1", "CE3", "", nil); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("Expected ErrInvalidDirection, got %v", err)
	}

	tr := &Edge{Kind: KindTransfer, From: "CC4", To: "DT15", Duration: 420}
	if _, err := EdgeCost(tr, "DT15", "CC4", "", nil); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("Expected ErrInvalidDirection for reversed transfer, got %v", err)
	}
}

func TestConditionalRulesLookup(t *testing.T) {
	rules := ConditionalRules{{Prior: "a", Next: "b"}: 60}

	if d, ok := rules.Lookup("a", "b"); !ok || d != 60 {
		t.Errorf("Expected (60, true), got (%d, %v)", d, ok)
	}
	if _, ok := rules.Lookup("b", "a"); ok {
		t.Error("Reverse pair should not match")
	}
	if _, ok := rules.Lookup("", "b"); ok {
		t.Error("Empty prior state should never match")
	}
}
