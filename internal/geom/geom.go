// Package geom implements the lane-membership test for detected vehicles.
// Lane boundaries arrive per frame as closed pixel-space polygons from the
// external lane detector; the classifier answers a single question per
// vehicle per frame: is this bounding box outside every lane region?
package geom

import "math"

// Point is a pixel-space coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is a pixel-space bounding box (top-left inclusive, bottom-right exclusive).
type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Width returns the box width in pixels.
func (b Box) Width() int { return b.X2 - b.X1 }

// Height returns the box height in pixels.
func (b Box) Height() int { return b.Y2 - b.Y1 }

// Anchor returns the ground-contact reference point of a vehicle box: the
// centre of the bottom edge. Lane membership is judged at the anchor rather
// than the box centre because the box top covers bodywork above the roadway.
func (b Box) Anchor() Point {
	return Point{
		X: float64(b.X1+b.X2) / 2,
		Y: float64(b.Y2),
	}
}

// LaneRegion is a closed polygon describing one drivable lane area in pixel
// coordinates. Vertices are ordered; the closing edge from the last vertex
// back to the first is implicit.
type LaneRegion struct {
	Vertices []Point `json:"vertices"`
}

// SignedDistance returns the distance from p to the nearest polygon edge,
// positive when p lies inside the region and negative when outside. Degenerate
// regions (fewer than 3 vertices) contain nothing.
func (r LaneRegion) SignedDistance(p Point) float64 {
	if len(r.Vertices) < 3 {
		return math.Inf(-1)
	}

	minDist := math.Inf(1)
	inside := false

	n := len(r.Vertices)
	for i := 0; i < n; i++ {
		a := r.Vertices[i]
		b := r.Vertices[(i+1)%n]

		if d := distanceToSegment(p, a, b); d < minDist {
			minDist = d
		}

		// Ray casting: count edge crossings of a horizontal ray from p.
		if (a.Y > p.Y) != (b.Y > p.Y) {
			xCross := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if p.X < xCross {
				inside = !inside
			}
		}
	}

	if inside {
		return minDist
	}
	return -minDist
}

// Contains reports whether p lies inside the region.
func (r LaneRegion) Contains(p Point) bool {
	return r.SignedDistance(p) >= 0
}

func distanceToSegment(p, a, b Point) float64 {
	abx := b.X - a.X
	aby := b.Y - a.Y
	apx := p.X - a.X
	apy := p.Y - a.Y

	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return math.Hypot(apx, apy)
	}

	t := (apx*abx + apy*aby) / lenSq
	t = math.Max(0, math.Min(1, t))

	dx := p.X - (a.X + t*abx)
	dy := p.Y - (a.Y + t*aby)
	return math.Hypot(dx, dy)
}

// Classifier decides lane membership for vehicle boxes. Tolerance is the
// minimum depth, in pixels, the anchor must sit inside a lane region before
// the vehicle counts as in-lane; it absorbs mask jitter at the lane border.
type Classifier struct {
	Tolerance float64
}

// NewClassifier creates a classifier with the given border tolerance.
func NewClassifier(tolerance float64) *Classifier {
	return &Classifier{Tolerance: tolerance}
}

// OutsideLane reports whether the vehicle box is outside every lane region
// this frame. With no lane regions detected the vehicle is treated as
// outside; the confirmation threshold upstream absorbs sporadic lane-detector
// dropouts.
func (c *Classifier) OutsideLane(box Box, lanes []LaneRegion) bool {
	anchor := box.Anchor()
	for _, lane := range lanes {
		if lane.SignedDistance(anchor) >= c.Tolerance {
			return false
		}
	}
	return true
}
