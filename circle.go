package rigid

import (
	"math"

	"github.com/setanarut/vec"
)

type Circle struct {
	*Shape
	c, transformC vec.Vec2
	radius        float64
}

func (circle *Circle) CacheData(transform Transform) BB {
	circle.transformC = transform.Apply(circle.c)
	return NewBBForCircle(circle.transformC, circle.radius)
}

func (circle *Circle) PointQuery(p vec.Vec2, info *PointQueryInfo) {
	delta := p.Sub(circle.transformC)
	d := delta.Mag()
	r := circle.radius

	info.Shape = circle.Shape
	info.Distance = d - r

	if d > magicEpsilon {
		info.Gradient = delta.Scale(1 / d)
	} else {
		info.Gradient = vec.Vec2{X: 0, Y: 1}
	}
	info.Point = circle.transformC.Add(info.Gradient.Scale(r))
}

func (circle *Circle) SegmentQuery(a, b vec.Vec2, radius float64, info *SegmentQueryInfo) {
	circleSegmentQuery(circle.Shape, circle.transformC, circle.radius, a, b, radius, info)
}

// Radius returns the radius of the circle.
func (circle *Circle) Radius() float64 {
	return circle.radius
}

// Offset returns the center of the circle in body coordinates.
func (circle *Circle) Offset() vec.Vec2 {
	return circle.c
}

// TransformC returns the center of the circle in world coordinates.
func (circle *Circle) TransformC() vec.Vec2 {
	return circle.transformC
}

func circleMassInfo(mass, radius float64, center vec.Vec2) ShapeMassInfo {
	return ShapeMassInfo{
		m:    mass,
		i:    MomentForCircle(1, 0, radius, vec.Vec2{}),
		cog:  center,
		area: AreaForCircle(0, radius),
	}
}

func circleSegmentQuery(shape *Shape, center vec.Vec2, r1 float64, a, b vec.Vec2, r2 float64, info *SegmentQueryInfo) {
	da := a.Sub(center)
	db := b.Sub(center)
	rsum := r1 + r2

	qa := da.Dot(da) - 2*da.Dot(db) + db.Dot(db)
	if qa == 0 {
		// zero length query
		return
	}
	qb := da.Dot(db) - da.Dot(da)
	det := qb*qb - qa*(da.Dot(da)-rsum*rsum)

	if det >= 0 {
		t := (-qb - math.Sqrt(det)) / qa
		if 0 <= t && t <= 1 {
			n := normalize(da.Lerp(db, t))

			info.Shape = shape
			info.Point = a.Lerp(b, t).Sub(n.Scale(r2))
			info.Normal = n
			info.Alpha = t
		}
	}
}
