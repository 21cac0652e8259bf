package rigid

import (
	"math"

	"github.com/setanarut/vec"
)

type PolyShape struct {
	*Shape
	radius float64
	count  int
	// The untransformed planes are appended at the end of the transformed planes.
	planes []SplittingPlane
}

func (ps *PolyShape) CacheData(transform Transform) BB {
	count := ps.count
	dst := ps.planes[0:count]
	src := ps.planes[count:]

	l := infinity
	r := -infinity
	b := infinity
	t := -infinity

	for i := range count {
		v := transform.Apply(src[i].V0)
		n := transform.ApplyVector(src[i].N)

		dst[i].V0 = v
		dst[i].N = n

		l = math.Min(l, v.X)
		r = math.Max(r, v.X)
		b = math.Min(b, v.Y)
		t = math.Max(t, v.Y)
	}

	return BB{l, b, r, t}.Grow(ps.radius)
}

func (ps *PolyShape) PointQuery(p vec.Vec2, info *PointQueryInfo) {
	count := ps.count
	planes := ps.planes
	r := ps.radius

	v0 := planes[count-1].V0
	minDist := infinity
	closestPoint := vec.Vec2{}
	closestNormal := vec.Vec2{}
	outside := false

	for i := range count {
		v1 := planes[i].V0
		if !outside {
			outside = planes[i].N.Dot(p.Sub(v1)) > 0
		}

		closest := closestPointOnSegment(p, v0, v1)

		dist := p.Distance(closest)
		if dist < minDist {
			minDist = dist
			closestPoint = closest
			closestNormal = planes[i].N
		}

		v0 = v1
	}

	dist := -minDist
	if outside {
		dist = minDist
	}

	info.Shape = ps.Shape
	info.Distance = dist - r

	if minDist > magicEpsilon {
		info.Gradient = p.Sub(closestPoint).Scale(1.0 / dist)
	} else {
		info.Gradient = closestNormal
	}
	info.Point = closestPoint.Add(info.Gradient.Scale(r))
}

func (ps *PolyShape) SegmentQuery(a, b vec.Vec2, r2 float64, info *SegmentQueryInfo) {
	planes := ps.planes
	count := ps.count
	r := ps.radius
	rsum := r + r2

	for i := range count {
		n := planes[i].N
		an := a.Dot(n)
		d := an - planes[i].V0.Dot(n) - rsum
		if d < 0 {
			continue
		}

		bn := b.Dot(n)
		if an == bn {
			continue
		}
		t := d / (an - bn)
		if t < 0 || 1 < t {
			continue
		}

		point := a.Lerp(b, t)
		dt := n.Cross(point)
		dtMin := n.Cross(planes[(i-1+count)%count].V0)
		dtMax := n.Cross(planes[i].V0)

		if dtMin <= dt && dt <= dtMax {
			info.Shape = ps.Shape
			info.Point = a.Lerp(b, t).Sub(n.Scale(r2))
			info.Normal = n
			info.Alpha = t
		}
	}

	// Also check against the beveled vertexes
	if rsum > 0 {
		for i := range count {
			circleInfo := SegmentQueryInfo{nil, b, vec.Vec2{}, 1}
			circleSegmentQuery(ps.Shape, planes[i].V0, r, a, b, r2, &circleInfo)
			if circleInfo.Alpha < info.Alpha {
				*info = circleInfo
			}
		}
	}
}

// Count returns the number of hull vertices.
func (ps *PolyShape) Count() int {
	return ps.count
}

// Vert returns a hull vertex in body coordinates.
func (ps *PolyShape) Vert(i int) vec.Vec2 {
	return ps.planes[i+ps.count].V0
}

// TransformVert returns a hull vertex in world coordinates.
func (ps *PolyShape) TransformVert(i int) vec.Vec2 {
	return ps.planes[i].V0
}

func (ps *PolyShape) Radius() float64 {
	return ps.radius
}

// setVerts expects a convex hull with counter-clockwise winding.
func (ps *PolyShape) setVerts(count int, verts []vec.Vec2) {
	ps.count = count
	ps.planes = make([]SplittingPlane, count*2)

	for i := range count {
		a := verts[(i-1+count)%count]
		b := verts[i]
		n := normalize(reversePerp(b.Sub(a)))

		ps.planes[i+count].V0 = b
		ps.planes[i+count].N = n
	}
}

// convexHull reduces verts in place to its convex hull with counter-clockwise
// winding and returns the hull vertex count. QuickHull, using the result array
// as scratch space.
func convexHull(count int, verts []vec.Vec2, first *int, tol float64) int {
	start, end := loopIndexes(verts, count)
	if start == end {
		if first != nil {
			*first = 0
		}
		return 1
	}

	verts[0], verts[start] = verts[start], verts[0]
	if end == 0 {
		verts[1], verts[start] = verts[start], verts[1]
	} else {
		verts[1], verts[end] = verts[end], verts[1]
	}

	a := verts[0]
	b := verts[1]

	if first != nil {
		*first = start
	}

	return qHullReduce(tol, verts[2:], count-2, a, b, a, verts[1:]) + 1
}

// ConvexHull returns the convex hull of verts with counter-clockwise winding.
// verts is not modified.
func ConvexHull(verts []vec.Vec2, tol float64) []vec.Vec2 {
	if len(verts) == 0 {
		return nil
	}
	hull := make([]vec.Vec2, len(verts))
	copy(hull, verts)
	return hull[:convexHull(len(hull), hull, nil, tol)]
}

func loopIndexes(verts []vec.Vec2, count int) (int, int) {
	start := 0
	end := 0

	min := verts[0]
	max := min

	for i := 1; i < count; i++ {
		v := verts[i]

		if v.X < min.X || (v.X == min.X && v.Y < min.Y) {
			min = v
			start = i
		} else if v.X > max.X || (v.X == max.X && v.Y > max.Y) {
			max = v
			end = i
		}
	}

	return start, end
}

func qHullReduce(tol float64, verts []vec.Vec2, count int, a, pivot, b vec.Vec2, result []vec.Vec2) int {
	if count == 0 {
		result[0] = pivot
		return 1
	}

	leftCount := qHullPartition(verts, count, a, pivot, tol)
	var index int
	if leftCount-1 >= 0 {
		index = qHullReduce(tol, verts[1:], leftCount-1, a, verts[0], pivot, result)
	}

	result[index] = pivot
	index++

	rightCount := qHullPartition(verts[leftCount:], count-leftCount, pivot, b, tol)
	if rightCount-1 < 0 {
		return index
	}
	return index + qHullReduce(tol, verts[leftCount+1:], rightCount-1, pivot, verts[leftCount], b, result[index:])
}

func qHullPartition(verts []vec.Vec2, count int, a, b vec.Vec2, tol float64) int {
	if count == 0 {
		return 0
	}

	max := 0.0
	pivot := 0

	delta := b.Sub(a)
	valueTol := tol * delta.Mag()

	head := 0
	for tail := count - 1; head <= tail; {
		value := verts[head].Sub(a).Cross(delta)
		if value > valueTol {
			if value > max {
				max = value
				pivot = head
			}

			head++
		} else {
			verts[head], verts[tail] = verts[tail], verts[head]
			tail--
		}
	}

	// move the new pivot to the front if it's not already there.
	if pivot != 0 {
		verts[0], verts[pivot] = verts[pivot], verts[0]
	}
	return head
}

func polyMassInfo(mass float64, count int, verts []vec.Vec2, r float64) ShapeMassInfo {
	centroid := CentroidForPoly(count, verts)
	return ShapeMassInfo{
		m:    mass,
		i:    MomentForPoly(1, count, verts, centroid.Neg(), r),
		cog:  centroid,
		area: AreaForPoly(count, verts, r),
	}
}
