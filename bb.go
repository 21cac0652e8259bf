package rigid

import (
	"fmt"
	"math"

	"github.com/setanarut/vec"
)

// BB is an axis-aligned 2D bounding box type. (left, bottom, right, top)
//
// A well formed box keeps L <= R and B <= T.
type BB struct {
	L, B, R, T float64
}

// NewBB is convenience constructor for BB structs.
func NewBB(l, b, r, t float64) BB {
	return BB{
		L: l,
		B: b,
		R: r,
		T: t,
	}
}

// NewBBFromPoints returns the smallest box containing both corners, whatever their order.
func NewBBFromPoints(p, q vec.Vec2) BB {
	return BB{
		L: math.Min(p.X, q.X),
		B: math.Min(p.Y, q.Y),
		R: math.Max(p.X, q.X),
		T: math.Max(p.Y, q.Y),
	}
}

func (bb BB) String() string {
	return fmt.Sprintf("%v %v %v %v", bb.L, bb.B, bb.R, bb.T)
}

// NewBBForExtents constructs a BB centered on a point with the given extents (half sizes).
func NewBBForExtents(c vec.Vec2, hw, hh float64) BB {
	return BB{
		L: c.X - hw,
		B: c.Y - hh,
		R: c.X + hw,
		T: c.Y + hh,
	}
}

// NewBBForCircle constructs a BB for a circle with the given position and radius.
func NewBBForCircle(p vec.Vec2, r float64) BB {
	return NewBBForExtents(p, r, r)
}

// Min returns the bottom left corner.
func (bb BB) Min() vec.Vec2 {
	return vec.Vec2{X: bb.L, Y: bb.B}
}

// Max returns the top right corner.
func (bb BB) Max() vec.Vec2 {
	return vec.Vec2{X: bb.R, Y: bb.T}
}

// Valid reports whether the box is finite and not inverted.
func (bb BB) Valid() bool {
	return isFinite(bb.L) && isFinite(bb.B) && isFinite(bb.R) && isFinite(bb.T) &&
		bb.L <= bb.R && bb.B <= bb.T
}

// Intersects returns true if a and b intersect.
func (bb BB) Intersects(b BB) bool {
	return bb.L <= b.R && b.L <= bb.R && bb.B <= b.T && b.B <= bb.T
}

// Contains returns true if other lies completely within bb.
func (bb BB) Contains(other BB) bool {
	return bb.L <= other.L && bb.R >= other.R && bb.B <= other.B && bb.T >= other.T
}

// ContainsVect returns true if bb contains v.
func (bb BB) ContainsVect(v vec.Vec2) bool {
	return bb.L <= v.X && bb.R >= v.X && bb.B <= v.Y && bb.T >= v.Y
}

// Merge returns a bounding box that holds both bounding boxes.
func (bb BB) Merge(b BB) BB {
	return BB{
		math.Min(bb.L, b.L),
		math.Min(bb.B, b.B),
		math.Max(bb.R, b.R),
		math.Max(bb.T, b.T),
	}
}

// Expand returns a bounding box that holds both bb and v.
func (bb BB) Expand(v vec.Vec2) BB {
	return BB{
		math.Min(bb.L, v.X),
		math.Min(bb.B, v.Y),
		math.Max(bb.R, v.X),
		math.Max(bb.T, v.Y),
	}
}

// Center returns the center of a bounding box.
func (bb BB) Center() vec.Vec2 {
	return vec.Vec2{X: (bb.L + bb.R) * 0.5, Y: (bb.B + bb.T) * 0.5}
}

// Area returns the area of the bounding box.
func (bb BB) Area() float64 {
	return (bb.R - bb.L) * (bb.T - bb.B)
}

// MergedArea merges a and b and returns the area of the merged bounding box.
func (bb BB) MergedArea(b BB) float64 {
	return (math.Max(bb.R, b.R) - math.Min(bb.L, b.L)) * (math.Max(bb.T, b.T) - math.Min(bb.B, b.B))
}

// SegmentQuery returns the fraction along the segment query the BB is hit.
// Returns infinity if it doesn't hit.
func (bb BB) SegmentQuery(a, b vec.Vec2) float64 {
	delta := b.Sub(a)
	tmin := -infinity
	tmax := infinity

	if delta.X == 0 {
		if a.X < bb.L || bb.R < a.X {
			return infinity
		}
	} else {
		t1 := (bb.L - a.X) / delta.X
		t2 := (bb.R - a.X) / delta.X
		tmin = math.Max(tmin, math.Min(t1, t2))
		tmax = math.Min(tmax, math.Max(t1, t2))
	}

	if delta.Y == 0 {
		if a.Y < bb.B || bb.T < a.Y {
			return infinity
		}
	} else {
		t1 := (bb.B - a.Y) / delta.Y
		t2 := (bb.T - a.Y) / delta.Y
		tmin = math.Max(tmin, math.Min(t1, t2))
		tmax = math.Min(tmax, math.Max(t1, t2))
	}

	if tmin <= tmax && 0 <= tmax && tmin <= 1.0 {
		return math.Max(tmin, 0.0)
	}
	return infinity
}

// IntersectsSegment returns true if the bounding box intersects the line segment with ends a and b.
func (bb BB) IntersectsSegment(a, b vec.Vec2) bool {
	return bb.SegmentQuery(a, b) != infinity
}

// ClampVect clamps a vector to bounding box.
func (bb BB) ClampVect(v vec.Vec2) vec.Vec2 {
	return vec.Vec2{X: clamp(v.X, bb.L, bb.R), Y: clamp(v.Y, bb.B, bb.T)}
}

// Offset returns a bounding box offseted by v.
func (bb BB) Offset(v vec.Vec2) BB {
	return BB{
		bb.L + v.X,
		bb.B + v.Y,
		bb.R + v.X,
		bb.T + v.Y,
	}
}

// Grow returns bb extended by r on every side.
func (bb BB) Grow(r float64) BB {
	return BB{bb.L - r, bb.B - r, bb.R + r, bb.T + r}
}

// Proximity is a cheap distance estimate between box centers, used as an insertion tie-breaker.
func (bb BB) Proximity(b BB) float64 {
	return math.Abs(bb.L+bb.R-b.L-b.R) + math.Abs(bb.B+bb.T-b.B-b.T)
}
