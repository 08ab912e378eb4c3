package models

import (
	"testing"
)

func TestLegDescribe(t *testing.T) {
	outram := StationRef{Code: "TE17", Name: "Outram Park"}
	outramNE := StationRef{Code: "NE3", Name: "Outram Park"}
	punggol := StationRef{Code: "NE17", Name: "Punggol"}
	petir := StationRef{Code: "BP7", Name: "Petir"}
	rochor := StationRef{Code: "DT13", Name: "Rochor"}
	jalanBesar := StationRef{Code: "DT22", Name: "Jalan Besar"}

	tests := []struct {
		name     string
		leg      Leg
		expected string
	}{
		{"board", BoardLeg("NE", outramNE, punggol, true), "Board train towards terminus NE17 Punggol"},
		{"board without terminus", BoardLeg("BP", outram, petir, false), "Board train in direction of BP7 Petir"},
		{"alight", AlightLeg(outram), "Alight at TE17 Outram Park"},
		{"transfer", TransferLeg(outram, outramNE), "Transfer to NE3 Outram Park"},
		{"switch over", SwitchOverLeg(outramNE), "Switch over at NE3 Outram Park"},
		{"walk", WalkLeg(jalanBesar, rochor), "Walk to DT13 Rochor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.leg.Describe(); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestItineraryConvertToResponse(t *testing.T) {
	circuity := 1.25
	it := &Itinerary{
		Network: "tel_4",
		Start:   StationRef{Code: "DT3", Name: "Hillview"},
		End:     StationRef{Code: "DT7", Name: "Sixth Avenue"},
		Legs: []Leg{
			BoardLeg("DT", StationRef{Code: "DT3", Name: "Hillview"}, StationRef{Code: "DT35", Name: "Expo"}, true),
			AlightLeg(StationRef{Code: "DT7", Name: "Sixth Avenue"}),
		},
		Duration: 454,
		Distance: &DistanceReport{PathMetres: 5000, HaversineMetres: 4000, Circuity: &circuity},
	}

	response := it.ConvertToResponse()

	if response.Duration != it.Duration {
		t.Errorf("Expected duration %d, got %d", it.Duration, response.Duration)
	}
	if len(response.Legs) != 2 {
		t.Errorf("Expected 2 legs, got %d", len(response.Legs))
	}

	expected := []string{
		"Start at DT3 Hillview",
		"Board train towards terminus DT35 Expo",
		"Alight at DT7 Sixth Avenue",
	}
	if len(response.Directions) != len(expected) {
		t.Fatalf("Expected %d directions, got %d", len(expected), len(response.Directions))
	}
	for i, line := range expected {
		if response.Directions[i] != line {
			t.Errorf("Direction %d: expected %q, got %q", i, line, response.Directions[i])
		}
	}
	if response.Distance == nil || *response.Distance.Circuity != circuity {
		t.Errorf("Distance report not carried over: %+v", response.Distance)
	}
}

func TestStationConvertToResponse(t *testing.T) {
	station := &Station{Code: "CC4", Name: "Promenade", Location: &Location{Lat: 1.2934, Lon: 103.8611}}

	response := station.ConvertToResponse("CC")
	if response.Code != "CC4" || response.Line != "CC" {
		t.Errorf("Unexpected response: %+v", response)
	}
	if response.Location == nil || response.Location[0] != 1.2934 || response.Location[1] != 103.8611 {
		t.Errorf("Location mismatch: got %v", response.Location)
	}

	bare := &Station{Code: "CC5", Name: "Nicoll Highway"}
	if bare.ConvertToResponse("CC").Location != nil {
		t.Error("Expected no location for station without coordinates")
	}
}

func TestSegmentIsWalk(t *testing.T) {
	if (Segment{Mode: ModeTrain}).IsWalk() {
		t.Error("Train segment reported as walk")
	}
	if (Segment{}).IsWalk() {
		t.Error("Segment without mode should default to train")
	}
	if !(Segment{Mode: ModeWalk}).IsWalk() {
		t.Error("Walk segment not reported as walk")
	}
}
