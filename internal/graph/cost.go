package graph

import "fmt"

// RuleKey is an ordered (prior, next) edge type pair
type RuleKey struct {
	Prior string
	Next  string
}

// ConditionalRules maps an edge type transition to its surcharge in seconds
type ConditionalRules map[RuleKey]int

// Lookup returns the surcharge for going from prior directly into next
func (r ConditionalRules) Lookup(prior, next string) (int, bool) {
	if prior == "" || next == "" {
		return 0, false
	}
	d, ok := r[RuleKey{Prior: prior, Next: next}]
	return d, ok
}

// Cost is the price of traversing one edge.
// State is the edge type carried into the next traversal; empty means none.
type Cost struct {
	Seconds    int
	State      string
	SwitchOver bool
}

// EdgeCost prices a traversal of edge from one code to another, given the
// edge type state the rider arrived with.
func EdgeCost(edge *Edge, from, to string, prior string, rules ConditionalRules) (Cost, error) {
	if edge.Kind == KindTransfer {
		if from != edge.From || to != edge.To {
			return Cost{}, fmt.Errorf("%w: transfer %s->%s traversed as %s->%s", ErrInvalidDirection, edge.From, edge.To, from, to)
		}
		return Cost{Seconds: edge.Duration}, nil
	}

	var dwell int
	switch {
	case from == edge.Low && to == edge.High:
		dwell = edge.DwellAscending
	case from == edge.High && to == edge.Low:
		dwell = edge.DwellDescending
	default:
		return Cost{}, fmt.Errorf("%w: segment %s-%s traversed as %s->%s", ErrInvalidDirection, edge.Low, edge.High, from, to)
	}

	if edge.IsWalk() {
		return Cost{Seconds: edge.Duration}, nil
	}

	cost := Cost{Seconds: edge.Duration + dwell, State: edge.EdgeType}
	if surcharge, ok := rules.Lookup(prior, edge.EdgeType); ok {
		cost.Seconds += surcharge
		cost.SwitchOver = true
	}
	return cost, nil
}
