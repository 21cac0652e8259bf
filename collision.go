package rigid

import (
	"math"

	"github.com/setanarut/vec"
)

const (
	maxGjkIterations = 30
	maxEpaIterations = 30
)

type supportPoint struct {
	p vec.Vec2
	// Save an index of the point so it can be cheaply looked up as a starting point for the next frame.
	index uint32
}

type supportPointFunc func(shape *Shape, n vec.Vec2) supportPoint

func polySupportPoint(shape *Shape, n vec.Vec2) supportPoint {
	poly := shape.Class.(*PolyShape)
	planes := poly.planes
	i := polySupportPointIndex(poly.count, planes, n)
	return supportPoint{planes[i].V0, uint32(i)}
}

func segmentSupportPoint(shape *Shape, n vec.Vec2) supportPoint {
	seg := shape.Class.(*Segment)
	if seg.transformA.Dot(n) > seg.transformB.Dot(n) {
		return supportPoint{seg.transformA, 0}
	}
	return supportPoint{seg.transformB, 1}
}

func circleSupportPoint(shape *Shape, _ vec.Vec2) supportPoint {
	return supportPoint{shape.Class.(*Circle).transformC, 0}
}

func polySupportPointIndex(count int, planes []SplittingPlane, n vec.Vec2) int {
	max := -infinity
	var index int
	for i := range count {
		d := planes[i].V0.Dot(n)
		if d > max {
			max = d
			index = i
		}
	}
	return index
}

// point returns the support point with the given cached index.
func (sh *Shape) point(i uint32) supportPoint {
	switch class := sh.Class.(type) {
	case *Circle:
		return supportPoint{class.transformC, 0}
	case *Segment:
		if i == 0 {
			return supportPoint{class.transformA, i}
		}
		return supportPoint{class.transformB, 1}
	case *PolyShape:
		var index int
		if i < uint32(class.count) {
			index = int(i)
		}
		return supportPoint{class.planes[index].V0, uint32(index)}
	default:
		return supportPoint{}
	}
}

type supportContext struct {
	shape1, shape2 *Shape
	func1, func2   supportPointFunc
}

// support calculates the maximal point on the minkowski difference of two shapes along a particular axis.
func (ctx *supportContext) support(n vec.Vec2) minkowskiPoint {
	a := ctx.func1(ctx.shape1, n.Neg())
	b := ctx.func2(ctx.shape2, n)
	return newMinkowskiPoint(a, b)
}

type closestPoints struct {
	// Surface points in absolute coordinates.
	a, b vec.Vec2
	// Minimum separating axis of the two shapes.
	n vec.Vec2
	// Signed distance between the points.
	d float64
	// Concatenation of the id's of the minkoski points.
	collisionID uint32
}

type collisionFunc func(info *CollisionInfo)

func circleToCircle(info *CollisionInfo) {
	c1 := info.a.Class.(*Circle)
	c2 := info.b.Class.(*Circle)

	mindist := c1.radius + c2.radius
	delta := c2.transformC.Sub(c1.transformC)
	distsq := magSq(delta)

	if distsq < mindist*mindist {
		dist := math.Sqrt(distsq)
		if dist != 0 {
			info.n = delta.Scale(1.0 / dist)
		} else {
			info.n = vec.Vec2{X: 1, Y: 0}
		}
		info.pushContact(c1.transformC.Add(info.n.Scale(c1.radius)), c2.transformC.Add(info.n.Scale(-c2.radius)), 0)
	}
}

func collisionError(_ *CollisionInfo) {
	panic("rigid: shape types are not sorted")
}

func circleToSegment(info *CollisionInfo) {
	circle := info.a.Class.(*Circle)
	segment := info.b.Class.(*Segment)

	segA := segment.transformA
	segB := segment.transformB
	center := circle.transformC

	segDelta := segB.Sub(segA)
	var closestT float64
	if dd := magSq(segDelta); dd != 0 {
		closestT = clamp01(segDelta.Dot(center.Sub(segA)) / dd)
	}
	closest := segA.Add(segDelta.Scale(closestT))

	mindist := circle.radius + segment.radius
	delta := closest.Sub(center)
	distsq := magSq(delta)
	if distsq < mindist*mindist {
		dist := math.Sqrt(distsq)
		if dist != 0 {
			info.n = delta.Scale(1 / dist)
		} else if segment.transformN != (vec.Vec2{}) {
			info.n = segment.transformN
		} else {
			info.n = vec.Vec2{X: 1, Y: 0}
		}
		n := info.n

		// Reject endcap collisions if tangents are provided.
		if (closestT != 0.0 || n.Dot(segment.transformATangent) >= 0.0) &&
			(closestT != 1.0 || n.Dot(segment.transformBTangent) >= 0.0) {
			info.pushContact(center.Add(n.Scale(circle.radius)), closest.Add(n.Scale(-segment.radius)), 0)
		}
	}
}

func segmentToSegment(info *CollisionInfo) {
	seg1 := info.a.Class.(*Segment)
	seg2 := info.b.Class.(*Segment)

	context := supportContext{info.a, info.b, segmentSupportPoint, segmentSupportPoint}
	points := gjk(context, &info.collisionID)

	n := points.n

	if points.d > (seg1.radius + seg2.radius) {
		return
	}

	if (points.a != seg1.transformA || n.Dot(seg1.transformATangent) <= 0) &&
		(points.a != seg1.transformB || n.Dot(seg1.transformBTangent) <= 0) &&
		(points.b != seg2.transformA || n.Dot(seg2.transformATangent) >= 0) &&
		(points.b != seg2.transformB || n.Dot(seg2.transformBTangent) >= 0) {
		contactPoints(supportEdgeForSegment(seg1, n), supportEdgeForSegment(seg2, n.Neg()), points, info)
	}
}

func circleToPoly(info *CollisionInfo) {
	context := supportContext{info.a, info.b, circleSupportPoint, polySupportPoint}
	points := gjk(context, &info.collisionID)

	circle := info.a.Class.(*Circle)
	poly := info.b.Class.(*PolyShape)

	if points.d <= circle.radius+poly.radius {
		info.n = points.n
		info.pushContact(points.a.Add(info.n.Scale(circle.radius)), points.b.Add(info.n.Scale(poly.radius)), 0)
	}
}

func segmentToPoly(info *CollisionInfo) {
	context := supportContext{info.a, info.b, segmentSupportPoint, polySupportPoint}
	points := gjk(context, &info.collisionID)

	n := points.n

	segment := info.a.Class.(*Segment)
	poly := info.b.Class.(*PolyShape)

	// If the closest points are nearer than the sum of the radii...
	if points.d-segment.radius-poly.radius <= 0 &&
		// Reject endcap collisions if tangents are provided.
		(points.a != segment.transformA || n.Dot(segment.transformATangent) <= 0) &&
		(points.a != segment.transformB || n.Dot(segment.transformBTangent) <= 0) {
		contactPoints(supportEdgeForSegment(segment, n), supportEdgeForPoly(poly, n.Neg()), points, info)
	}
}

func polyToPoly(info *CollisionInfo) {
	context := supportContext{info.a, info.b, polySupportPoint, polySupportPoint}
	points := gjk(context, &info.collisionID)

	poly1 := info.a.Class.(*PolyShape)
	poly2 := info.b.Class.(*PolyShape)
	if points.d-poly1.radius-poly2.radius <= 0 {
		contactPoints(supportEdgeForPoly(poly1, points.n), supportEdgeForPoly(poly2, points.n.Neg()), points, info)
	}
}

// minkowskiPoint is a point on the surface of two shapes' minkowski difference.
type minkowskiPoint struct {
	// Cache the two original support points.
	a, b vec.Vec2
	// b - a
	ab vec.Vec2
	// Concatenate the two support point indexes.
	collisionID uint32
}

func newMinkowskiPoint(a, b supportPoint) minkowskiPoint {
	return minkowskiPoint{a.p, b.p, b.p.Sub(a.p), (a.index&0xFF)<<8 | (b.index & 0xFF)}
}

// closest calculates the closest points on two shapes given the closest edge on their minkowski difference to (0, 0)
func (v0 minkowskiPoint) closest(v1 minkowskiPoint) closestPoints {
	// Find the closest p(t) on the minkowski difference to (0, 0)
	t := closestT(v0.ab, v1.ab)
	p := lerpT(v0.ab, v1.ab, t)

	// Interpolate the original support points using the same 't' value as above.
	// This gives you the closest surface points in absolute coordinates.
	pa := lerpT(v0.a, v1.a, t)
	pb := lerpT(v0.b, v1.b, t)
	id := (v0.collisionID&0xFFFF)<<16 | (v1.collisionID & 0xFFFF)

	// First try calculating the MSA from the minkowski difference edge.
	// This gives us a nice, accurate MSA when the surfaces are close together.
	delta := v1.ab.Sub(v0.ab)
	n := normalize(reversePerp(delta))
	d := n.Dot(p)

	if n != (vec.Vec2{}) && (d <= 0 || (-1 < t && t < 1)) {
		// If the shapes are overlapping, or we have a regular vertex/edge collision, we are done.
		return closestPoints{pa, pb, n, d, id}
	}

	// Vertex/vertex collisions need special treatment since the MSA won't be shared with an axis of the minkowski difference.
	d2 := p.Mag()
	n2 := p.Scale(1 / (d2 + math.SmallestNonzeroFloat64))
	if d2 == 0 {
		// Touching at a single point with no edge to take a normal from.
		n2 = vec.Vec2{X: 1, Y: 0}
	}

	return closestPoints{pa, pb, n2, d2, id}
}

type edgePoint struct {
	p vec.Vec2
	// Keep a hash value for the contact feature so impulses can be matched between steps.
	hash hashValue
}

type edge struct {
	a, b edgePoint
	r    float64
	n    vec.Vec2
}

func supportEdgeForSegment(seg *Segment, n vec.Vec2) edge {
	hashid := seg.Shape.hash()
	if seg.transformN.Dot(n) > 0 {
		return edge{
			a: edgePoint{seg.transformA, hashPair(hashid, 0)},
			b: edgePoint{seg.transformB, hashPair(hashid, 1)},
			r: seg.radius,
			n: seg.transformN,
		}
	}

	return edge{
		a: edgePoint{seg.transformB, hashPair(hashid, 1)},
		b: edgePoint{seg.transformA, hashPair(hashid, 0)},
		r: seg.radius,
		n: seg.transformN.Neg(),
	}
}

func supportEdgeForPoly(poly *PolyShape, n vec.Vec2) edge {
	count := poly.count
	i1 := polySupportPointIndex(poly.count, poly.planes, n)

	i0 := (i1 - 1 + count) % count
	i2 := (i1 + 1) % count

	planes := poly.planes
	hashid := poly.Shape.hash()

	if n.Dot(planes[i1].N) > n.Dot(planes[i2].N) {
		return edge{
			edgePoint{planes[i0].V0, hashPair(hashid, hashValue(i0))},
			edgePoint{planes[i1].V0, hashPair(hashid, hashValue(i1))},
			poly.radius,
			planes[i1].N,
		}
	}

	return edge{
		edgePoint{planes[i1].V0, hashPair(hashid, hashValue(i1))},
		edgePoint{planes[i2].V0, hashPair(hashid, hashValue(i2))},
		poly.radius,
		planes[i2].N,
	}
}

// contactPoints finds contact point pairs on two support edges' surfaces
func contactPoints(e1, e2 edge, points closestPoints, info *CollisionInfo) {
	mindist := e1.r + e2.r

	if points.d > mindist {
		return
	}

	n := points.n
	info.n = points.n

	dE1A := e1.a.p.Cross(n)
	dE1B := e1.b.p.Cross(n)
	dE2A := e2.a.p.Cross(n)
	dE2B := e2.b.p.Cross(n)

	e1Denom := safeInverse(dE1B - dE1A)
	e2Denom := safeInverse(dE2B - dE2A)

	// Project the endpoints of the two edges onto the opposing edge, clamping them as necessary.
	// Compare the projected points to the collision normal to see if the shapes overlap there.
	{
		p1 := n.Scale(e1.r).Add(e1.a.p.Lerp(e1.b.p, clamp01((dE2B-dE1A)*e1Denom)))
		p2 := n.Scale(-e2.r).Add(e2.a.p.Lerp(e2.b.p, clamp01((dE1A-dE2A)*e2Denom)))
		dist := p2.Sub(p1).Dot(n)
		if dist <= 0 {
			info.pushContact(p1, p2, hashPair(e1.a.hash, e2.b.hash))
		}
	}
	{
		p1 := n.Scale(e1.r).Add(e1.a.p.Lerp(e1.b.p, clamp01((dE2A-dE1A)*e1Denom)))
		p2 := n.Scale(-e2.r).Add(e2.a.p.Lerp(e2.b.p, clamp01((dE1B-dE2A)*e2Denom)))
		dist := p2.Sub(p1).Dot(n)
		if dist <= 0 {
			info.pushContact(p1, p2, hashPair(e1.b.hash, e2.a.hash))
		}
	}
}

// safeInverse returns 1/x, or 0 for a degenerate (zero length) edge.
func safeInverse(x float64) float64 {
	if x == 0 {
		return 0
	}
	return 1 / x
}

// gjk finds the closest points between two shapes using the GJK algorithm.
func gjk(ctx supportContext, collisionID *uint32) closestPoints {
	var v0, v1 minkowskiPoint

	if *collisionID != 0 {
		// Use the minkowski points from the last frame as a starting point using the cached indexes.
		v0 = newMinkowskiPoint(ctx.shape1.point((*collisionID>>24)&0xFF), ctx.shape2.point((*collisionID>>16)&0xFF))
		v1 = newMinkowskiPoint(ctx.shape1.point((*collisionID>>8)&0xFF), ctx.shape2.point((*collisionID)&0xFF))
	} else {
		// No cached indexes, use the shapes' bounding box centers as a guess for a starting axis.
		axis := perp(ctx.shape1.bb.Center().Sub(ctx.shape2.bb.Center()))
		if axis == (vec.Vec2{}) {
			axis = vec.Vec2{X: 1, Y: 0}
		}
		v0 = ctx.support(axis)
		v1 = ctx.support(axis.Neg())
	}

	points := gjkRecurse(ctx, v0, v1, 1)
	*collisionID = points.collisionID
	return points
}

// gjkRecurse implementation of the GJK loop.
func gjkRecurse(ctx supportContext, v0, v1 minkowskiPoint, iteration int) closestPoints {
	if iteration > maxGjkIterations {
		return v0.closest(v1)
	}

	if pointGreater(v1.ab, v0.ab, vec.Vec2{}) {
		// Origin is behind axis. Flip and try again.
		return gjkRecurse(ctx, v1, v0, iteration+1)
	}
	t := closestT(v0.ab, v1.ab)
	var n vec.Vec2
	if -1.0 < t && t < 1.0 {
		n = perp(v1.ab.Sub(v0.ab))
	} else {
		n = lerpT(v0.ab, v1.ab, t).Neg()
	}
	p := ctx.support(n)

	if pointGreater(p.ab, v0.ab, vec.Vec2{}) && pointGreater(v1.ab, p.ab, vec.Vec2{}) {
		return epa(ctx, v0, p, v1)
	}

	if checkAxis(v0.ab, v1.ab, p.ab, n) {
		return v0.closest(v1)
	}

	if closestDist(v0.ab, p.ab) < closestDist(p.ab, v1.ab) {
		return gjkRecurse(ctx, v0, p, iteration+1)
	}

	return gjkRecurse(ctx, p, v1, iteration+1)
}

// epa is called from gjk when two shapes overlap.
// Finds the closest points on the surface of two overlapping shapes using the EPA algorithm.
func epa(ctx supportContext, v0, v1, v2 minkowskiPoint) closestPoints {
	hull := []minkowskiPoint{v0, v1, v2}
	return epaRecurse(ctx, 3, hull, 1)
}

// epaRecurse adds a point to the convex hull per recursion until it's known
// that we have the closest point on the surface.
func epaRecurse(ctx supportContext, count int, hull []minkowskiPoint, iteration int) closestPoints {
	mini := 0
	minDist := infinity

	// Find the closest segment hull[i] and hull[i + 1] to (0, 0)
	i := count - 1
	j := 0
	for j < count {
		d := closestDist(hull[i].ab, hull[j].ab)
		if d < minDist {
			minDist = d
			mini = i
		}
		i = j
		j++
	}

	v0 := hull[mini]
	v1 := hull[(mini+1)%count]

	p := ctx.support(perp(v1.ab.Sub(v0.ab)))

	duplicate := p.collisionID == v0.collisionID || p.collisionID == v1.collisionID

	if !duplicate && pointGreater(v0.ab, v1.ab, p.ab) && iteration < maxEpaIterations {
		// Rebuild the convex hull by inserting p.
		hull2 := make([]minkowskiPoint, count+1)
		count2 := 1
		hull2[0] = p

		for i := range count {
			index := (mini + 1 + i) % count

			h0 := hull2[count2-1].ab
			h1 := hull[index].ab
			var h2 vec.Vec2
			if i+1 < count {
				h2 = hull[(index+1)%count].ab
			} else {
				h2 = p.ab
			}

			if pointGreater(h0, h2, h1) {
				hull2[count2] = hull[index]
				count2++
			}
		}

		return epaRecurse(ctx, count2, hull2, iteration+1)
	}

	// Could not find a new point to insert, so we have found the closest edge of the minkowski difference.
	return v0.closest(v1)
}

var builtinCollisionFuncs = [shapeTypeNum * shapeTypeNum]collisionFunc{
	circleToCircle,
	collisionError,
	collisionError,
	circleToSegment,
	segmentToSegment,
	collisionError,
	circleToPoly,
	segmentToPoly,
	polyToPoly,
}

// Collide runs the narrow-phase test for two shapes whose geometry has been
// cached. The shapes are sorted by type (circle, segment, polygon), so the
// result may hold them in swapped order. collisionID is the GJK warm start
// value of the previous step, 0 if there is none.
func Collide(a, b *Shape, collisionID uint32) CollisionInfo {
	info := CollisionInfo{
		a:           a,
		b:           b,
		collisionID: collisionID,
	}

	// Make sure the shape types are in order.
	if a.order() > b.order() {
		info.a = b
		info.b = a
	}

	builtinCollisionFuncs[info.a.order()+info.b.order()*shapeTypeNum](&info)
	return info
}

// ShapesCollide returns contact information about two shapes, in the order given.
func ShapesCollide(a, b *Shape) ContactPointSet {
	info := Collide(a, b, 0)

	var set ContactPointSet
	set.Count = info.count

	// Collide may have swapped the contact order, flip the normal.
	swapped := a != info.a
	if swapped {
		set.Normal = info.n.Neg()
	} else {
		set.Normal = info.n
	}

	for i := 0; i < info.count; i++ {
		p1 := info.arr[i].r1
		p2 := info.arr[i].r2

		if swapped {
			set.Points[i].PointA = p2
			set.Points[i].PointB = p1
		} else {
			set.Points[i].PointA = p1
			set.Points[i].PointB = p2
		}
		set.Points[i].Distance = set.Points[i].PointB.Sub(set.Points[i].PointA).Dot(set.Normal)
	}

	return set
}
