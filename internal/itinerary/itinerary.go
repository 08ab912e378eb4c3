package itinerary

import (
	"fmt"

	"github.com/jusunglee/mrt-go/internal/graph"
	"github.com/jusunglee/mrt-go/internal/models"
	"github.com/jusunglee/mrt-go/internal/search"
	"github.com/jusunglee/mrt-go/internal/stationcode"
)

type status int

const (
	atStation status = iota
	inTrain
	walking
)

// builder accumulates legs while walking the steps of a path
type builder struct {
	g    *graph.Graph
	legs []models.Leg

	status     status
	runOrigin  string
	runArrival string
	runLast    string
	runLine    string
	runDir     graph.Direction
	runHeaded  bool
	boardIdx   int

	// heading of the latest step whose endpoints share a line
	lastLine   string
	lastDir    graph.Direction
	lastHeaded bool
}

// Build groups the steps of a path into board, alight, transfer, switch-over and walk legs
func Build(g *graph.Graph, res *search.Result) ([]models.Leg, error) {
	if res == nil || len(res.Steps) == 0 {
		return nil, fmt.Errorf("%w: empty path", search.ErrNoRoute)
	}

	b := &builder{g: g}
	for _, step := range res.Steps {
		switch {
		case step.Edge.Kind == graph.KindTransfer:
			b.closeRun()
			b.legs = append(b.legs, models.TransferLeg(g.Ref(step.From), g.Ref(step.To)))
			b.status = atStation

		case step.Edge.IsWalk():
			b.closeRun()
			if b.status == walking {
				// Consecutive walks merge into one leg
				last := &b.legs[len(b.legs)-1]
				to := g.Ref(step.To)
				last.To = &to
			} else {
				b.legs = append(b.legs, models.WalkLeg(g.Ref(step.From), g.Ref(step.To)))
			}
			b.status = walking

		case b.status == inTrain && step.SwitchOver:
			b.finishBoard()
			b.legs = append(b.legs, models.SwitchOverLeg(g.Ref(step.From)))
			b.board(step)

		case b.status == inTrain && b.reverses(step):
			// The rider doubles back along the line and has to change trains
			b.closeRun()
			b.board(step)

		case b.status == inTrain:
			b.runLast = step.To
			b.track(step)

		default:
			b.board(step)
		}
	}
	b.closeRun()

	return b.legs, nil
}

// board starts a train run; the terminus is filled in when the run ends
func (b *builder) board(step search.Step) {
	b.status = inTrain
	b.runOrigin = step.From
	b.runArrival = step.To
	b.runLast = step.To
	b.runLine = step.To
	if c, ok := b.g.Code(step.To); ok {
		b.runLine = c.Line
	}
	b.runHeaded = false
	b.lastHeaded = false
	b.boardIdx = len(b.legs)
	b.legs = append(b.legs, models.Leg{Kind: models.LegBoard, At: b.g.Ref(step.From)})
	b.track(step)
}

// heading returns the line and direction of a step between two codes of one line
func (b *builder) heading(step search.Step) (string, graph.Direction, bool) {
	from, okF := b.g.Code(step.From)
	to, okT := b.g.Code(step.To)
	if !okF || !okT || from.Line != to.Line {
		return "", graph.Ascending, false
	}
	if stationcode.Compare(from, to) > 0 {
		return from.Line, graph.Descending, true
	}
	return from.Line, graph.Ascending, true
}

// track records the heading of a step taken within the open run.
// The run direction comes from its first step that stays on the run line.
func (b *builder) track(step search.Step) {
	line, dir, ok := b.heading(step)
	if !ok {
		return
	}
	if !b.runHeaded && line == b.runLine {
		b.runDir, b.runHeaded = dir, true
	}
	b.lastLine, b.lastDir, b.lastHeaded = line, dir, true
}

// reverses reports whether step heads back the way the run came on the same line
func (b *builder) reverses(step search.Step) bool {
	line, dir, ok := b.heading(step)
	return ok && b.lastHeaded && line == b.lastLine && dir != b.lastDir
}

// finishBoard resolves the terminus of the open run's Board leg
func (b *builder) finishBoard() {
	dir := b.runDir
	if !b.runHeaded {
		// Only cross-line segments in the run; fall back to its endpoints
		dir = graph.Ascending
		origin, okO := b.g.Code(b.runOrigin)
		dest, okD := b.g.Code(b.runLast)
		if okO && okD && stationcode.Compare(origin, dest) > 0 {
			dir = graph.Descending
		}
	}

	leg := &b.legs[b.boardIdx]
	if terminal, ok := b.g.TerminalFor(b.runLine, dir); ok && terminal != b.runOrigin {
		*leg = models.BoardLeg(b.runLine, leg.At, b.g.Ref(terminal), true)
		return
	}
	*leg = models.BoardLeg(b.runLine, leg.At, b.g.Ref(b.runArrival), false)
}

func (b *builder) closeRun() {
	if b.status != inTrain {
		return
	}
	b.finishBoard()
	b.legs = append(b.legs, models.AlightLeg(b.g.Ref(b.runLast)))
	b.status = atStation
}
