package geo

import (
	"errors"
	"math"

	"github.com/jusunglee/mrt-go/internal/models"
)

// EarthRadius is the WGS-84 equatorial radius in metres
const EarthRadius = 6378137.0

// ErrUndefinedCircuity is returned when origin and destination coincide
var ErrUndefinedCircuity = errors.New("circuity undefined for zero direct distance")

// Haversine returns the great-circle distance between two points in metres
func Haversine(a, b models.Location) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	deltaLat := (b.Lat - a.Lat) * math.Pi / 180
	deltaLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadius * c
}

// PathDistance sums the great-circle hops between consecutive points
func PathDistance(points []models.Location) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Haversine(points[i-1], points[i])
	}
	return total
}

// Circuity is the ratio of path distance to direct distance
func Circuity(path, direct float64) (float64, error) {
	if direct == 0 {
		return 0, ErrUndefinedCircuity
	}
	return path / direct, nil
}
