package search

import (
	"container/heap"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jusunglee/mrt-go/internal/graph"
	"github.com/jusunglee/mrt-go/internal/stationcode"
)

// ErrNoRoute is returned when no itinerary connects the two stations
var ErrNoRoute = errors.New("no route found")

// Options control a single search
type Options struct {
	AllowWalking bool
}

// Step is one traversed edge of a path.
// Cost is the raw edge cost, Charged is what the trip accounting kept of it.
type Step struct {
	From       string
	To         string
	Edge       *graph.Edge
	Cost       int
	Charged    int
	State      string
	SwitchOver bool
}

// Result is the cheapest path between two canonical codes
type Result struct {
	Start string
	End   string
	Steps []Step
	Total int
}

type link struct {
	prev nodeKey
	step Step
}

// FindPath runs a Dijkstra search over (station, edge type) states.
// Transfers leaving the start station or arriving at the end station are free,
// as is any dwell at the end since dwell is charged on departure.
func FindPath(ctx context.Context, g *graph.Graph, start, end string, opts Options) (*Result, error) {
	from, err := resolve(g, start)
	if err != nil {
		return nil, err
	}
	to, err := resolve(g, end)
	if err != nil {
		return nil, err
	}
	if from == to {
		return nil, fmt.Errorf("%w: %s and %s are the same station", ErrNoRoute, start, end)
	}

	seed := nodeKey{code: from}
	best := map[nodeKey]int{seed: 0}
	parent := make(map[nodeKey]link)
	visited := make(map[nodeKey]bool)
	rules := g.Rules()

	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, queueItem{key: seed})
	var seq uint64 = 1

	for pq.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("search %s -> %s aborted: %w", from, to, err)
		}

		cur := heap.Pop(pq).(queueItem)
		if visited[cur.key] {
			continue
		}
		visited[cur.key] = true

		if cur.key.code == to {
			res, err := reconstruct(parent, seed, cur.key, cur.cost)
			if err != nil {
				return nil, err
			}
			log.Debug().
				Str("network", g.Name()).
				Str("start", from).
				Str("end", to).
				Int("expanded", len(visited)).
				Int("total", res.Total).
				Msg("Path found")
			return res, nil
		}

		for _, arc := range g.Neighbors(cur.key.code) {
			if arc.Edge.IsWalk() && !opts.AllowWalking {
				continue
			}

			c, err := graph.EdgeCost(arc.Edge, cur.key.code, arc.To, cur.key.state, rules)
			if err != nil {
				return nil, err
			}

			charged := c.Seconds
			if arc.Edge.Kind == graph.KindTransfer && (cur.key == seed || arc.To == to) {
				charged = 0
			}

			next := nodeKey{code: arc.To, state: c.State}
			if visited[next] {
				continue
			}
			total := cur.cost + charged
			if b, ok := best[next]; ok && total >= b {
				continue
			}

			best[next] = total
			parent[next] = link{
				prev: cur.key,
				step: Step{
					From:       cur.key.code,
					To:         arc.To,
					Edge:       arc.Edge,
					Cost:       c.Seconds,
					Charged:    charged,
					State:      c.State,
					SwitchOver: c.SwitchOver,
				},
			}
			heap.Push(pq, queueItem{key: next, cost: total, seq: seq})
			seq++
		}
	}

	return nil, fmt.Errorf("%w: %s is unreachable from %s", ErrNoRoute, to, from)
}

func resolve(g *graph.Graph, raw string) (string, error) {
	if _, err := stationcode.Parse(raw); err != nil {
		return "", err
	}
	code := g.Resolve(raw)
	if _, ok := g.Station(code); !ok {
		return "", fmt.Errorf("%w: %s", graph.ErrUnknownStation, raw)
	}
	return code, nil
}

func reconstruct(parent map[nodeKey]link, seed, end nodeKey, total int) (*Result, error) {
	var steps []Step
	for cur := end; cur != seed; {
		l, ok := parent[cur]
		if !ok {
			break
		}
		steps = append(steps, l.step)
		cur = l.prev
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}

	var rides bool
	for _, s := range steps {
		if s.Edge.Kind == graph.KindSegment {
			rides = true
			break
		}
	}
	if !rides {
		return nil, fmt.Errorf("%w: %s and %s are connected by transfers only", ErrNoRoute, seed.code, end.code)
	}

	return &Result{Start: seed.code, End: end.code, Steps: steps, Total: total}, nil
}
