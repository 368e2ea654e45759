package geom

import (
	"math"
	"testing"
)

func square(x1, y1, x2, y2 float64) LaneRegion {
	return LaneRegion{Vertices: []Point{
		{X: x1, Y: y1},
		{X: x2, Y: y1},
		{X: x2, Y: y2},
		{X: x1, Y: y2},
	}}
}

func TestBox_Anchor(t *testing.T) {
	b := Box{X1: 10, Y1: 20, X2: 30, Y2: 60}

	anchor := b.Anchor()
	if anchor.X != 20 {
		t.Errorf("expected anchor X=20, got %v", anchor.X)
	}
	if anchor.Y != 60 {
		t.Errorf("expected anchor Y=60 (bottom edge), got %v", anchor.Y)
	}
	if b.Height() != 40 {
		t.Errorf("expected height 40, got %d", b.Height())
	}
	if b.Width() != 20 {
		t.Errorf("expected width 20, got %d", b.Width())
	}
}

func TestLaneRegion_SignedDistance(t *testing.T) {
	lane := square(0, 0, 100, 100)

	tests := []struct {
		name string
		p    Point
		want float64
	}{
		{"centre", Point{X: 50, Y: 50}, 50},
		{"near left edge inside", Point{X: 10, Y: 50}, 10},
		{"outside left", Point{X: -20, Y: 50}, -20},
		{"outside corner", Point{X: -30, Y: -40}, -50},
		{"on edge", Point{X: 0, Y: 50}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lane.SignedDistance(tt.p)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SignedDistance(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestLaneRegion_Degenerate(t *testing.T) {
	lane := LaneRegion{Vertices: []Point{{X: 0, Y: 0}, {X: 10, Y: 10}}}

	if lane.Contains(Point{X: 5, Y: 5}) {
		t.Error("degenerate region must contain nothing")
	}
}

func TestClassifier_OutsideLane(t *testing.T) {
	c := NewClassifier(5.0)
	lanes := []LaneRegion{square(0, 0, 100, 100)}

	// Anchor well inside the lane.
	if c.OutsideLane(Box{X1: 40, Y1: 10, X2: 60, Y2: 50}, lanes) {
		t.Error("box anchored at (50,50) should be in lane")
	}

	// Anchor inside but within the tolerance band of the border.
	if !c.OutsideLane(Box{X1: 40, Y1: 10, X2: 60, Y2: 98}, lanes) {
		t.Error("anchor 2px from border is within tolerance, should count as outside")
	}

	// Anchor outside the lane entirely.
	if !c.OutsideLane(Box{X1: 140, Y1: 10, X2: 160, Y2: 50}, lanes) {
		t.Error("box anchored at (150,50) should be outside")
	}
}

func TestClassifier_MultipleLanes(t *testing.T) {
	c := NewClassifier(5.0)
	lanes := []LaneRegion{
		square(0, 0, 100, 100),
		square(200, 0, 300, 100),
	}

	// In the second lane.
	if c.OutsideLane(Box{X1: 240, Y1: 10, X2: 260, Y2: 50}, lanes) {
		t.Error("anchor in second lane should be in lane")
	}

	// Between the two lanes.
	if !c.OutsideLane(Box{X1: 140, Y1: 10, X2: 160, Y2: 50}, lanes) {
		t.Error("anchor between lanes should be outside")
	}
}

func TestClassifier_NoLanesMeansOutside(t *testing.T) {
	c := NewClassifier(5.0)

	if !c.OutsideLane(Box{X1: 0, Y1: 0, X2: 10, Y2: 10}, nil) {
		t.Error("with no lane regions every vehicle is outside")
	}
}
