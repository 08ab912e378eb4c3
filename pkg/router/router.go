package router

import (
	"context"

	"github.com/jusunglee/mrt-go/internal/geo"
	"github.com/jusunglee/mrt-go/internal/graph"
	"github.com/jusunglee/mrt-go/internal/itinerary"
	"github.com/jusunglee/mrt-go/internal/models"
	"github.com/jusunglee/mrt-go/internal/search"
)

// FindRoute returns the fastest itinerary between two station codes of g.
// Walking segments are only used when allowWalking is set.
func FindRoute(ctx context.Context, g *graph.Graph, start, end string, allowWalking bool) (*models.Itinerary, error) {
	res, err := search.FindPath(ctx, g, start, end, search.Options{AllowWalking: allowWalking})
	if err != nil {
		return nil, err
	}

	legs, err := itinerary.Build(g, res)
	if err != nil {
		return nil, err
	}

	return &models.Itinerary{
		Network:  g.Name(),
		Start:    g.Ref(res.Start),
		End:      g.Ref(res.End),
		Legs:     legs,
		Duration: res.Total,
		Distance: distance(g, res),
	}, nil
}

// distance measures the visited stations; nil when any of them has no coordinates
func distance(g *graph.Graph, res *search.Result) *models.DistanceReport {
	codes := make([]string, 0, len(res.Steps)+1)
	codes = append(codes, res.Start)
	for _, step := range res.Steps {
		codes = append(codes, step.To)
	}

	points := make([]models.Location, 0, len(codes))
	for _, code := range codes {
		st, ok := g.Station(code)
		if !ok || st.Location == nil {
			return nil
		}
		points = append(points, *st.Location)
	}

	report := &models.DistanceReport{
		PathMetres:      geo.PathDistance(points),
		HaversineMetres: geo.Haversine(points[0], points[len(points)-1]),
	}
	if c, err := geo.Circuity(report.PathMetres, report.HaversineMetres); err == nil {
		report.Circuity = &c
	}
	return report
}
