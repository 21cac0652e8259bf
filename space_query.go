package rigid

import (
	"math"
	"slices"

	"github.com/setanarut/vec"
)

// SpaceBBQueryFunc is called for each shape found by Space.BBQuery.
type SpaceBBQueryFunc func(shape *Shape)

// SpacePointQueryFunc is called for each shape found by Space.PointQuery and
// Space.NearestPointQuery with the closest surface point, the signed distance
// to it and the gradient of the distance.
type SpacePointQueryFunc func(shape *Shape, point vec.Vec2, distance float64, gradient vec.Vec2)

// SpaceSegmentQueryFunc is called for each shape hit by Space.SegmentQuery.
type SpaceSegmentQueryFunc func(shape *Shape, point, normal vec.Vec2, alpha float64)

// SpaceShapeQueryFunc is called for each shape touching the query shape of Space.ShapeQuery.
type SpaceShapeQueryFunc func(shape *Shape, points *ContactPointSet)

// EachBody calls f for each body in the space, dynamic and kinematic bodies
// first, each group in the order it was added.
//
// The space is locked while f runs. Use AddPostStepCallback to add or remove
// objects from f.
//
// Example:
//
//	space.EachBody(func(body *rigid.Body) {
//		fmt.Println(body.Position())
//	})
func (s *Space) EachBody(f func(*Body)) {
	s.lock()
	defer s.unlock(true)

	for _, body := range s.bodyList() {
		f(body)
	}
}

// EachShape calls f for each shape in the space in the order the shapes were created.
func (s *Space) EachShape(f func(*Shape)) {
	s.lock()
	defer s.unlock(true)

	for _, id := range s.shapes.snapshot() {
		if shape, ok := s.shapes.get(id); ok && shape.inSpace {
			f(shape)
		}
	}
}

// EachConstraint calls f for each constraint in the space in the order they were added.
func (s *Space) EachConstraint(f func(*Constraint)) {
	s.lock()
	defer s.unlock(true)

	for _, c := range slices.Clone(s.constraintList) {
		f(c)
	}
}

// EachArbiter calls f for each pair of shapes touching after the last step.
func (s *Space) EachArbiter(f func(*Arbiter)) {
	s.lock()
	defer s.unlock(true)

	for _, arb := range slices.Clone(s.arbiters) {
		f(arb)
	}
}

// BBQuery calls f for each shape whose bounding box overlaps bb.
// Sensors are included.
func (s *Space) BBQuery(bb BB, filter ShapeFilter, f SpaceBBQueryFunc) {
	query := func(id ShapeID) {
		shape, ok := s.shapes.get(id)
		if ok && !shape.Filter.Reject(filter) && shape.bb.Intersects(bb) {
			f(shape)
		}
	}

	s.lock()
	defer s.unlock(true)

	s.dynamicShapes.Query(bb, query)
	s.staticShapes.Query(bb, query)
}

// PointQuery calls f for each shape that contains point.
func (s *Space) PointQuery(point vec.Vec2, filter ShapeFilter, f SpacePointQueryFunc) {
	s.pointQuery(point, 0, filter, false, f)
}

// NearestPointQuery calls f for each shape within maxDistance of point.
// A maxDistance of 0 finds the shapes containing the point, a negative
// maxDistance only finds shapes the point is at least that deep inside.
func (s *Space) NearestPointQuery(point vec.Vec2, maxDistance float64, filter ShapeFilter, f SpacePointQueryFunc) {
	s.pointQuery(point, maxDistance, filter, true, f)
}

func (s *Space) pointQuery(point vec.Vec2, maxDistance float64, filter ShapeFilter, exclusive bool, f SpacePointQueryFunc) {
	query := func(id ShapeID) {
		shape, ok := s.shapes.get(id)
		if !ok || shape.Filter.Reject(filter) {
			return
		}
		info := shape.PointQuery(point)
		if info.Shape == nil {
			return
		}
		if info.Distance < maxDistance || (!exclusive && info.Distance == maxDistance) {
			f(shape, info.Point, info.Distance, info.Gradient)
		}
	}

	bb := NewBBForCircle(point, math.Max(maxDistance, 0))

	s.lock()
	defer s.unlock(true)

	s.dynamicShapes.Query(bb, query)
	s.staticShapes.Query(bb, query)
}

// PointQueryNearest returns the shape nearest to point within maxDistance.
// info.Shape is nil if no shape was found. Sensors are ignored.
func (s *Space) PointQueryNearest(point vec.Vec2, maxDistance float64, filter ShapeFilter) PointQueryInfo {
	info := PointQueryInfo{nil, vec.Vec2{}, maxDistance, vec.Vec2{}}

	query := func(id ShapeID) {
		shape, ok := s.shapes.get(id)
		if !ok || shape.Sensor || shape.Filter.Reject(filter) {
			return
		}
		if found := shape.PointQuery(point); found.Shape != nil && found.Distance < info.Distance {
			info = found
		}
	}

	bb := NewBBForCircle(point, math.Max(maxDistance, 0))
	s.dynamicShapes.Query(bb, query)
	s.staticShapes.Query(bb, query)

	return info
}

// SegmentQuery calls f for each shape hit by the segment from start to end
// swept with radius. Sensors are included.
func (s *Space) SegmentQuery(start, end vec.Vec2, radius float64, filter ShapeFilter, f SpaceSegmentQueryFunc) {
	query := func(id ShapeID) float64 {
		var info SegmentQueryInfo
		shape, ok := s.shapes.get(id)
		if ok && !shape.Filter.Reject(filter) && shape.SegmentQuery(start, end, radius, &info) {
			f(shape, info.Point, info.Normal, info.Alpha)
		}
		return 1
	}

	s.lock()
	defer s.unlock(true)

	s.staticShapes.SegmentQuery(start, end, 1, query)
	s.dynamicShapes.SegmentQuery(start, end, 1, query)
}

// SegmentQueryFirst returns the first shape hit by the segment from start to
// end. info.Shape is nil if nothing was hit. Sensors are ignored.
func (s *Space) SegmentQueryFirst(start, end vec.Vec2, radius float64, filter ShapeFilter) SegmentQueryInfo {
	out := SegmentQueryInfo{nil, end, vec.Vec2{}, 1}

	query := func(id ShapeID) float64 {
		var info SegmentQueryInfo
		shape, ok := s.shapes.get(id)
		if ok && !shape.Sensor && !shape.Filter.Reject(filter) &&
			shape.SegmentQuery(start, end, radius, &info) && info.Alpha < out.Alpha {
			out = info
		}
		return out.Alpha
	}

	s.staticShapes.SegmentQuery(start, end, 1, query)
	s.dynamicShapes.SegmentQuery(start, end, out.Alpha, query)
	return out
}

// ShapeQuery calls f for each shape in the space touching shape and reports
// whether any of them would produce a solid collision. The shape does not
// need to be in the space; its geometry is taken from its body's current
// transform.
func (s *Space) ShapeQuery(shape *Shape, f SpaceShapeQueryFunc) bool {
	bb := shape.CacheBB()

	var anyCollision bool
	query := func(id ShapeID) {
		b, ok := s.shapes.get(id)
		if !ok || b == shape || shape.Filter.Reject(b.Filter) {
			return
		}

		set := ShapesCollide(shape, b)
		if set.Count > 0 {
			if f != nil {
				f(b, &set)
			}
			anyCollision = anyCollision || !(shape.Sensor || b.Sensor)
		}
	}

	s.lock()
	defer s.unlock(true)

	s.dynamicShapes.Query(bb, query)
	s.staticShapes.Query(bb, query)

	return anyCollision
}
