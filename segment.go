package rigid

import (
	"github.com/setanarut/vec"
)

type Segment struct {
	*Shape

	a, b, n                            vec.Vec2
	transformA, transformB, transformN vec.Vec2
	radius                             float64

	aTangent, bTangent                   vec.Vec2
	transformATangent, transformBTangent vec.Vec2
}

func (seg *Segment) CacheData(transform Transform) BB {
	seg.transformA = transform.Apply(seg.a)
	seg.transformB = transform.Apply(seg.b)
	seg.transformN = transform.ApplyVector(seg.n)
	seg.transformATangent = transform.ApplyVector(seg.aTangent)
	seg.transformBTangent = transform.ApplyVector(seg.bTangent)

	return NewBBFromPoints(seg.transformA, seg.transformB).Grow(seg.radius)
}

func (seg *Segment) PointQuery(p vec.Vec2, info *PointQueryInfo) {
	closest := closestPointOnSegment(p, seg.transformA, seg.transformB)

	delta := p.Sub(closest)
	d := delta.Mag()
	r := seg.radius

	info.Shape = seg.Shape
	info.Distance = d - r

	// Use the segment's normal if the distance is very small.
	if d > magicEpsilon {
		info.Gradient = delta.Scale(1 / d)
	} else {
		info.Gradient = seg.transformN
	}
	if d != 0 {
		info.Point = closest.Add(info.Gradient.Scale(r))
	} else {
		info.Point = closest
	}
}

func (seg *Segment) SegmentQuery(a, b vec.Vec2, r2 float64, info *SegmentQueryInfo) {
	n := seg.transformN
	d := seg.transformA.Sub(a).Dot(n)
	r := seg.radius + r2

	flippedN := n
	if d > 0 {
		flippedN = n.Neg()
	}
	segOffset := flippedN.Scale(r).Sub(a)

	// Make the endpoints relative to 'a' and move them by the thickness of the segment.
	segA := seg.transformA.Add(segOffset)
	segB := seg.transformB.Add(segOffset)
	delta := b.Sub(a)

	if delta.Cross(segA)*delta.Cross(segB) <= 0 {
		dOffset := d
		if d > 0 {
			dOffset -= r
		} else {
			dOffset += r
		}
		ad := -dOffset
		bd := delta.Dot(n) - dOffset

		if ad*bd < 0 {
			t := ad / (ad - bd)

			info.Shape = seg.Shape
			info.Point = a.Lerp(b, t).Sub(flippedN.Scale(r2))
			info.Normal = flippedN
			info.Alpha = t
		}
	} else if r != 0 {
		info1 := SegmentQueryInfo{nil, b, vec.Vec2{}, 1}
		info2 := SegmentQueryInfo{nil, b, vec.Vec2{}, 1}
		circleSegmentQuery(seg.Shape, seg.transformA, seg.radius, a, b, r2, &info1)
		circleSegmentQuery(seg.Shape, seg.transformB, seg.radius, a, b, r2, &info2)

		if info1.Alpha < info2.Alpha {
			*info = info1
		} else {
			*info = info2
		}
	}
}

// SetNeighbors lets a chain of segments avoid catching on the joints between
// them. prev and next are the neighbouring endpoints in body coordinates.
func (seg *Segment) SetNeighbors(prev, next vec.Vec2) {
	seg.aTangent = prev.Sub(seg.a)
	seg.bTangent = next.Sub(seg.b)
}

// A returns the first endpoint in body coordinates.
func (seg *Segment) A() vec.Vec2 {
	return seg.a
}

// B returns the second endpoint in body coordinates.
func (seg *Segment) B() vec.Vec2 {
	return seg.b
}

// Normal returns the normal in body coordinates.
func (seg *Segment) Normal() vec.Vec2 {
	return seg.n
}

func (seg *Segment) Radius() float64 {
	return seg.radius
}

// TransformA returns the first endpoint in world coordinates.
func (seg *Segment) TransformA() vec.Vec2 {
	return seg.transformA
}

// TransformB returns the second endpoint in world coordinates.
func (seg *Segment) TransformB() vec.Vec2 {
	return seg.transformB
}

func segmentMassInfo(mass float64, a, b vec.Vec2, r float64) ShapeMassInfo {
	return ShapeMassInfo{
		m:    mass,
		i:    MomentForBox(1, a.Distance(b)+2*r, 2*r),
		cog:  a.Lerp(b, 0.5),
		area: AreaForSegment(a, b, r),
	}
}
