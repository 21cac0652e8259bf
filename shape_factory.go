package rigid

import (
	"math"

	"github.com/setanarut/vec"
)

// Geometry describes the shape to build in Space.CreateShape.
// It is one of CircleGeometry, SegmentGeometry or PolyGeometry.
type Geometry interface {
	build(sh *Shape) (IShape, error)
}

// CircleGeometry is a circle with the given radius centered at Offset in body coordinates.
type CircleGeometry struct {
	Radius float64
	Offset vec.Vec2
}

// SegmentGeometry is a line segment from A to B, thickened by Radius.
type SegmentGeometry struct {
	A, B   vec.Vec2
	Radius float64
}

// PolyGeometry is the convex hull of Vertices, rounded by Radius.
type PolyGeometry struct {
	Vertices []vec.Vec2
	Radius   float64
}

// NewBoxGeometry returns a w by h box centered on the body.
func NewBoxGeometry(w, h, radius float64) PolyGeometry {
	hw := w / 2.0
	hh := h / 2.0
	return NewBoxGeometryBB(BB{-hw, -hh, hw, hh}, radius)
}

// NewBoxGeometryBB returns a box covering bb in body coordinates.
func NewBoxGeometryBB(bb BB, radius float64) PolyGeometry {
	return PolyGeometry{
		Vertices: []vec.Vec2{
			{X: bb.R, Y: bb.B},
			{X: bb.R, Y: bb.T},
			{X: bb.L, Y: bb.T},
			{X: bb.L, Y: bb.B},
		},
		Radius: radius,
	}
}

func checkRadius(op string, r float64) error {
	if !(r >= 0) || !isFinite(r) {
		return newError(InvalidGeometry, op, "radius %v must be a non-negative number", r)
	}
	return nil
}

func (g CircleGeometry) build(sh *Shape) (IShape, error) {
	if err := checkRadius("CircleGeometry", g.Radius); err != nil {
		return nil, err
	}
	if !isFiniteVec(g.Offset) {
		return nil, newError(InvalidGeometry, "CircleGeometry", "offset %v is not finite", g.Offset)
	}
	circle := &Circle{Shape: sh, c: g.Offset, radius: g.Radius}
	sh.massInfo = circleMassInfo(0, g.Radius, g.Offset)
	return circle, nil
}

func (g SegmentGeometry) build(sh *Shape) (IShape, error) {
	if err := checkRadius("SegmentGeometry", g.Radius); err != nil {
		return nil, err
	}
	if !isFiniteVec(g.A) || !isFiniteVec(g.B) {
		return nil, newError(InvalidGeometry, "SegmentGeometry", "endpoints %v %v are not finite", g.A, g.B)
	}
	seg := &Segment{
		Shape:  sh,
		a:      g.A,
		b:      g.B,
		n:      reversePerp(normalize(g.B.Sub(g.A))),
		radius: g.Radius,
	}
	sh.massInfo = segmentMassInfo(0, g.A, g.B, g.Radius)
	return seg, nil
}

func (g PolyGeometry) build(sh *Shape) (IShape, error) {
	if err := checkRadius("PolyGeometry", g.Radius); err != nil {
		return nil, err
	}
	for _, v := range g.Vertices {
		if !isFiniteVec(v) {
			return nil, newError(InvalidGeometry, "PolyGeometry", "vertex %v is not finite", v)
		}
	}
	if len(g.Vertices) < 3 {
		return nil, newError(InvalidGeometry, "PolyGeometry", "need at least 3 vertices, got %d", len(g.Vertices))
	}

	hullVerts := make([]vec.Vec2, len(g.Vertices))
	copy(hullVerts, g.Vertices)
	hullCount := convexHull(len(hullVerts), hullVerts, nil, 0)
	if hullCount < 3 || AreaForPoly(hullCount, hullVerts[:hullCount], 0) == 0 {
		return nil, newError(InvalidGeometry, "PolyGeometry", "vertices are collinear")
	}

	poly := &PolyShape{Shape: sh, radius: g.Radius}
	poly.setVerts(hullCount, hullVerts[:hullCount])
	sh.massInfo = polyMassInfo(0, hullCount, hullVerts[:hullCount], g.Radius)
	return poly, nil
}

// MomentForBox calculates the moment of inertia for a solid box.
func MomentForBox(mass, width, height float64) float64 {
	return mass * (width*width + height*height) / 12.0
}

// MomentForBoxBB calculates the moment of inertia for a solid box offset from the center of gravity.
func MomentForBoxBB(mass float64, box BB) float64 {
	width := box.R - box.L
	height := box.T - box.B
	offset := box.Center()
	return MomentForBox(mass, width, height) + mass*magSq(offset)
}

// MomentForCircle calculates the moment of inertia for a circle.
//
// r1 and r2 are the inner and outer radii. A solid circle has an inner
// radius of 0. offset is the displacement of the circle's center from the
// axis of rotation.
func MomentForCircle(mass, r1, r2 float64, offset vec.Vec2) float64 {
	return mass * (0.5*(r1*r1+r2*r2) + magSq(offset))
}

// MomentForSegment calculates the moment of inertia for a line segment.
func MomentForSegment(mass float64, a, b vec.Vec2, radius float64) float64 {
	offset := a.Lerp(b, 0.5)
	length := b.Distance(a) + 2.0*radius
	return mass * ((length*length+4.0*radius*radius)/12.0 + magSq(offset))
}

// MomentForPoly calculates the moment of inertia for a solid polygon shape
// assuming it's center of gravity is at it's centroid.
//
// The offset is added to each vertex.
func MomentForPoly(mass float64, count int, verts []vec.Vec2, offset vec.Vec2, r float64) float64 {
	if count == 2 {
		return MomentForSegment(mass, verts[0], verts[1], 0)
	}

	var sum1 float64
	var sum2 float64
	for i := range count {
		v1 := verts[i].Add(offset)
		v2 := verts[(i+1)%count].Add(offset)

		a := v2.Cross(v1)
		b := v1.Dot(v1) + v1.Dot(v2) + v2.Dot(v2)

		sum1 += a * b
		sum2 += a
	}

	return (mass * sum1) / (6.0 * sum2)
}

// AreaForCircle returns area of a hollow circle.
//
// r1 and r2 are the inner and outer radii. A solid circle has an inner radius of 0.
func AreaForCircle(r1, r2 float64) float64 {
	return math.Pi * math.Abs(r1*r1-r2*r2)
}

// AreaForSegment calculates the area of a fattened (capsule shaped) line segment.
func AreaForSegment(a, b vec.Vec2, r float64) float64 {
	return r * (math.Pi*r + 2.0*a.Distance(b))
}

// AreaForPoly calculates the signed area of a polygon, counter-clockwise winding is positive.
func AreaForPoly(count int, verts []vec.Vec2, r float64) float64 {
	var area float64
	var perimeter float64
	for i := range count {
		v1 := verts[i]
		v2 := verts[(i+1)%count]

		area += v1.Cross(v2)
		perimeter += v1.Distance(v2)
	}

	return r*(math.Pi*math.Abs(r)+perimeter) + area/2.0
}

// CentroidForPoly calculates the natural centroid of a polygon.
func CentroidForPoly(count int, verts []vec.Vec2) vec.Vec2 {
	var sum float64
	vsum := vec.Vec2{}

	for i := range count {
		v1 := verts[i]
		v2 := verts[(i+1)%count]
		cross := v1.Cross(v2)

		sum += cross
		vsum = vsum.Add(v1.Add(v2).Scale(cross))
	}

	return vsum.Scale(1.0 / (3.0 * sum))
}
