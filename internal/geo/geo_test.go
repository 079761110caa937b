package geo

import (
	"math"
	"testing"
	"time"
)

func TestDistanceIdenticalPoints(t *testing.T) {
	points := [][2]float64{
		{0, 0},
		{-26.2041, 28.0473},
		{90, 180},
		{-90, -180},
	}

	for _, p := range points {
		if d := Distance(p[0], p[1], p[0], p[1]); d != 0 {
			t.Errorf("Distance(%v, %v, same) = %v, want 0", p[0], p[1], d)
		}
	}
}

func TestDistanceSymmetric(t *testing.T) {
	d1 := Distance(-26.2041, 28.0473, -26.2141, 28.0573)
	d2 := Distance(-26.2141, 28.0573, -26.2041, 28.0473)

	if d1 != d2 {
		t.Errorf("distance not symmetric: %v != %v", d1, d2)
	}
	if d1 <= 0 {
		t.Errorf("distance between distinct points = %v, want > 0", d1)
	}
}

func TestDistanceKnownPoints(t *testing.T) {
	// Anchor in Sandton, Johannesburg.
	const anchorLat, anchorLon = -26.2041, 28.0473

	near := Distance(anchorLat, anchorLon, -26.2045, 28.0475)
	if near < 20 || near > 80 {
		t.Errorf("near sample distance = %v, want roughly 50m", near)
	}

	far := Distance(anchorLat, anchorLon, -26.2141, 28.0573)
	if far < 1000 || far > 2000 {
		t.Errorf("far sample distance = %v, want roughly 1.2km", far)
	}
}

func TestDistanceRounding(t *testing.T) {
	d := Distance(-26.2041, 28.0473, -26.2141, 28.0573)
	if d != math.Round(d*100)/100 {
		t.Errorf("distance %v not rounded to 2 decimals", d)
	}
}

func TestContained(t *testing.T) {
	tests := []struct {
		distance float64
		radius   float64
		want     bool
	}{
		{0, 500, true},
		{499.99, 500, true},
		{500, 500, true}, // boundary is inside
		{500.01, 500, false},
		{1200, 500, false},
	}

	for _, tt := range tests {
		if got := Contained(tt.distance, tt.radius); got != tt.want {
			t.Errorf("Contained(%v, %v) = %v, want %v", tt.distance, tt.radius, got, tt.want)
		}
	}
}

func TestSpeed(t *testing.T) {
	t1 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	d := Distance(-26.2041, 28.0473, -26.2141, 28.0573)
	got := Speed(-26.2041, 28.0473, -26.2141, 28.0573, t1, t2)
	want := d / 1000

	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Speed over one hour = %v, want %v", got, want)
	}
}

func TestSpeedZeroElapsed(t *testing.T) {
	now := time.Now()

	if got := Speed(0, 0, 1, 1, now, now); got != 0 {
		t.Errorf("Speed with zero elapsed time = %v, want 0", got)
	}
	if got := Speed(0, 0, 1, 1, now, now.Add(-time.Minute)); got != 0 {
		t.Errorf("Speed with negative elapsed time = %v, want 0", got)
	}
}

func TestValidCoordinates(t *testing.T) {
	tests := []struct {
		lat, lon float64
		want     bool
	}{
		{0, 0, true},
		{-26.2041, 28.0473, true},
		{90, 180, true},
		{-90, -180, true},
		{90.1, 0, false},
		{-90.1, 0, false},
		{0, 180.1, false},
		{0, -180.1, false},
		{math.NaN(), 0, false},
		{0, math.NaN(), false},
		{math.Inf(1), 0, false},
		{0, math.Inf(-1), false},
	}

	for _, tt := range tests {
		if got := ValidCoordinates(tt.lat, tt.lon); got != tt.want {
			t.Errorf("ValidCoordinates(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
		}
	}
}
