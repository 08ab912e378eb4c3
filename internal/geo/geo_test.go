package geo

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/jusunglee/mrt-go/internal/models"
)

func TestHaversine(t *testing.T) {
	// Dhoby Ghaut to Marina Bay, roughly 2.75 km
	dhobyGhaut := models.Location{Lat: 1.2993, Lon: 103.8455}
	marinaBay := models.Location{Lat: 1.2763, Lon: 103.8546}

	dist := Haversine(dhobyGhaut, marinaBay)
	if dist < 2600 || dist > 2900 {
		t.Errorf("Expected distance ~2.75 km, got %.0f m", dist)
	}

	if d := Haversine(dhobyGhaut, dhobyGhaut); d != 0 {
		t.Errorf("Expected distance 0, got %.2f", d)
	}

	if math.Abs(Haversine(dhobyGhaut, marinaBay)-Haversine(marinaBay, dhobyGhaut)) > 1e-9 {
		t.Error("Haversine should be symmetric")
	}

	// A quarter of the equator
	quarter := Haversine(models.Location{Lat: 0, Lon: 0}, models.Location{Lat: 0, Lon: 90})
	if math.Abs(quarter-EarthRadius*math.Pi/2) > 1e-6 {
		t.Errorf("Expected %.3f, got %.3f", EarthRadius*math.Pi/2, quarter)
	}
}

func TestPathDistance(t *testing.T) {
	points := []models.Location{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 1},
		{Lat: 0, Lon: 2},
	}
	expected := Haversine(points[0], points[1]) + Haversine(points[1], points[2])
	if got := PathDistance(points); math.Abs(got-expected) > 1e-9 {
		t.Errorf("Expected %.3f, got %.3f", expected, got)
	}

	if PathDistance(nil) != 0 || PathDistance(points[:1]) != 0 {
		t.Error("Expected zero distance for fewer than two points")
	}
}

func TestCircuity(t *testing.T) {
	c, err := Circuity(1500, 1000)
	if err != nil || c != 1.5 {
		t.Errorf("Expected 1.5, got %v, %v", c, err)
	}

	if _, err := Circuity(1500, 0); !errors.Is(err, ErrUndefinedCircuity) {
		t.Errorf("Expected ErrUndefinedCircuity, got %v", err)
	}
}

func TestCircuityAtLeastOne(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 200; i++ {
		n := 2 + rng.Intn(6)
		points := make([]models.Location, n)
		for j := range points {
			points[j] = models.Location{
				Lat: 1.2 + rng.Float64()*0.25,
				Lon: 103.6 + rng.Float64()*0.4,
			}
		}

		direct := Haversine(points[0], points[n-1])
		c, err := Circuity(PathDistance(points), direct)
		if err != nil {
			continue
		}
		if c < 1-1e-9 {
			t.Errorf("Expected circuity >= 1, got %f for %v", c, points)
		}
	}
}
