package rigid_test

import (
	"errors"
	"math"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/setanarut/rigid"
	"github.com/setanarut/vec"
)

func TestSpaceShapeQuery(t *testing.T) {
	space := rigid.NewSpace()
	circleID, err := space.CreateShape(space.StaticBody(), rigid.CircleGeometry{Radius: 1}, rigid.ShapeFilterAll)
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, space.Add(circleID))
	circle, _ := space.Shape(circleID)

	space.ShapeQuery(circle, func(shape *rigid.Shape, points *rigid.ContactPointSet) {
		t.Fatal("Shouldn't collide with itself")
	})

	b, boxID := addBox(t, space, vec.Vec2{}, 1, 1)
	box, _ := space.Shape(boxID)

	var called int
	hit := space.ShapeQuery(box, func(shape *rigid.Shape, points *rigid.ContactPointSet) {
		called++
	})
	if called != 1 {
		t.Error("Expected box to collide with circle")
	}
	assert.T(t, hit)

	mustBody(t, space, b).SetPosition(vec.Vec2{X: 3})

	space.ShapeQuery(box, func(shape *rigid.Shape, points *rigid.ContactPointSet) {
		t.Error("Box should be just out of range")
	})
}

func TestSpaceEach(t *testing.T) {
	s := rigid.NewSpace()
	a, shapeA := addBall(t, s, vec.Vec2{}, 1)
	b, shapeB := addBall(t, s, vec.Vec2{X: 10}, 1)
	ground := addGround(t, s)
	c, err := s.CreateConstraint(a, b, rigid.NewPinJoint(vec.Vec2{}, vec.Vec2{}))
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, s.Add(c))

	var bodies []rigid.BodyID
	s.EachBody(func(body *rigid.Body) {
		bodies = append(bodies, body.ID())
	})
	assert.Equal(t, []rigid.BodyID{a, b, s.StaticBody()}, bodies)

	var shapes []rigid.ShapeID
	s.EachShape(func(shape *rigid.Shape) {
		shapes = append(shapes, shape.ID())
	})
	assert.Equal(t, []rigid.ShapeID{shapeA, shapeB, ground}, shapes)

	var constraints []rigid.ConstraintID
	s.EachConstraint(func(c *rigid.Constraint) {
		constraints = append(constraints, c.ID())
	})
	assert.Equal(t, []rigid.ConstraintID{c}, constraints)
}

func TestSpaceEachRejectsMutation(t *testing.T) {
	s := rigid.NewSpace()
	_, shape := addBall(t, s, vec.Vec2{}, 1)

	var errs []error
	s.EachShape(func(*rigid.Shape) {
		errs = append(errs, s.Remove(shape), s.Free(shape), s.Destroy(), s.ReindexStatic())
		_, err := s.CreateShape(s.StaticBody(), rigid.CircleGeometry{Radius: 1}, rigid.ShapeFilterAll)
		assert.Equal(t, nil, err)
	})
	for _, err := range errs {
		assert.T(t, errors.Is(err, rigid.ErrReentrancy))
	}
	assert.T(t, s.ContainsShape(shape))
}

func TestSpaceEachArbiter(t *testing.T) {
	s := rigid.NewSpace()
	a, _ := addBall(t, s, vec.Vec2{}, 1)
	b, _ := addBall(t, s, vec.Vec2{X: 1.5}, 1)
	addBall(t, s, vec.Vec2{X: 20}, 1)
	assert.Equal(t, nil, s.Step(1.0/60))

	var count int
	s.EachArbiter(func(arb *rigid.Arbiter) {
		count++
		bodyA, bodyB := arb.Bodies()
		assert.Equal(t, a, bodyA.ID())
		assert.Equal(t, b, bodyB.ID())
		assert.Equal(t, 1, arb.Count())
		assert.T(t, arb.IsFirstContact() == false)
		assert.T(t, arb.Depth(0) < 0)
	})
	assert.Equal(t, 1, count)

	count = 0
	mustBody(t, s, a).EachArbiter(func(arb *rigid.Arbiter) {
		count++
		bodyA, _ := arb.Bodies()
		assert.Equal(t, a, bodyA.ID())
	})
	assert.Equal(t, 1, count)
}

func TestSpaceBBQuery(t *testing.T) {
	s := rigid.NewSpace()
	_, near := addBall(t, s, vec.Vec2{}, 1)
	_, far := addBall(t, s, vec.Vec2{X: 10}, 1)
	_, sensor := addBall(t, s, vec.Vec2{X: 1}, 0.5)
	sh, _ := s.Shape(sensor)
	sh.Sensor = true
	_ = far

	found := map[rigid.ShapeID]bool{}
	s.BBQuery(rigid.NewBB(-2, -2, 2, 2), rigid.ShapeFilterAll, func(shape *rigid.Shape) {
		found[shape.ID()] = true
	})
	assert.Equal(t, map[rigid.ShapeID]bool{near: true, sensor: true}, found)

	// Filtered out by mask.
	found = map[rigid.ShapeID]bool{}
	s.BBQuery(rigid.NewBB(-2, -2, 2, 2), rigid.ShapeFilterNone, func(shape *rigid.Shape) {
		found[shape.ID()] = true
	})
	assert.Equal(t, 0, len(found))
}

func TestSpacePointQuery(t *testing.T) {
	s := rigid.NewSpace()
	_, circle := addBall(t, s, vec.Vec2{}, 1)
	_, box := addBox(t, s, vec.Vec2{X: 5}, 2, 2)

	var hits []rigid.ShapeID
	s.PointQuery(vec.Vec2{X: 0.5}, rigid.ShapeFilterAll, func(shape *rigid.Shape, point vec.Vec2, distance float64, gradient vec.Vec2) {
		hits = append(hits, shape.ID())
		assert.T(t, distance < 0)
	})
	assert.Equal(t, []rigid.ShapeID{circle}, hits)

	hits = nil
	s.PointQuery(vec.Vec2{X: 2.5}, rigid.ShapeFilterAll, func(shape *rigid.Shape, point vec.Vec2, distance float64, gradient vec.Vec2) {
		hits = append(hits, shape.ID())
	})
	assert.Equal(t, 0, len(hits))

	hits = nil
	s.NearestPointQuery(vec.Vec2{X: 2.5}, 2, rigid.ShapeFilterAll, func(shape *rigid.Shape, point vec.Vec2, distance float64, gradient vec.Vec2) {
		hits = append(hits, shape.ID())
		if math.Abs(distance-1.5) > 1e-9 {
			t.Errorf("distance to %v = %v, want 1.5", shape, distance)
		}
	})
	assert.Equal(t, 2, len(hits))

	info := s.PointQueryNearest(vec.Vec2{X: 3.5}, 10, rigid.ShapeFilterAll)
	assert.Equal(t, box, info.Shape.ID())
	if math.Abs(info.Distance-0.5) > 1e-9 {
		t.Errorf("distance = %v, want 0.5", info.Distance)
	}
	assert.Equal(t, vec.Vec2{X: 4}, info.Point)

	info = s.PointQueryNearest(vec.Vec2{X: 20}, 1, rigid.ShapeFilterAll)
	assert.T(t, info.Shape == nil)
}

func TestSpaceSegmentQuery(t *testing.T) {
	s := rigid.NewSpace()
	_, first := addBall(t, s, vec.Vec2{X: 3}, 1)
	_, second := addBox(t, s, vec.Vec2{X: 8}, 2, 2)
	_, sensor := addBall(t, s, vec.Vec2{X: 1}, 0.25)
	sh, _ := s.Shape(sensor)
	sh.Sensor = true

	hits := map[rigid.ShapeID]float64{}
	s.SegmentQuery(vec.Vec2{}, vec.Vec2{X: 10}, 0, rigid.ShapeFilterAll, func(shape *rigid.Shape, point, normal vec.Vec2, alpha float64) {
		hits[shape.ID()] = alpha
	})
	assert.Equal(t, 3, len(hits))
	if math.Abs(hits[first]-0.2) > 1e-9 {
		t.Errorf("alpha of circle = %v, want 0.2", hits[first])
	}
	if math.Abs(hits[second]-0.7) > 1e-9 {
		t.Errorf("alpha of box = %v, want 0.7", hits[second])
	}

	info := s.SegmentQueryFirst(vec.Vec2{}, vec.Vec2{X: 10}, 0, rigid.ShapeFilterAll)
	assert.Equal(t, first, info.Shape.ID())
	if math.Abs(info.Point.X-2) > 1e-9 || math.Abs(info.Normal.X+1) > 1e-9 {
		t.Errorf("hit %v with normal %v, want (2, 0) and (-1, 0)", info.Point, info.Normal)
	}

	info = s.SegmentQueryFirst(vec.Vec2{Y: 5}, vec.Vec2{X: 10, Y: 5}, 0, rigid.ShapeFilterAll)
	assert.T(t, info.Shape == nil)
	assert.Equal(t, 1.0, info.Alpha)
}

func TestShapeFilterTruthTable(t *testing.T) {
	const (
		catA uint = 1 << iota
		catB
	)
	tests := []struct {
		name   string
		a, b   rigid.ShapeFilter
		reject bool
	}{
		{"both masks match", rigid.NewShapeFilter(0, catA, catB), rigid.NewShapeFilter(0, catB, catA), false},
		{"a mask misses b", rigid.NewShapeFilter(0, catA, catA), rigid.NewShapeFilter(0, catB, catA), true},
		{"b mask misses a", rigid.NewShapeFilter(0, catA, catB), rigid.NewShapeFilter(0, catB, catB), true},
		{"neither matches", rigid.NewShapeFilter(0, catA, catA), rigid.NewShapeFilter(0, catB, catB), true},
		{"same group", rigid.NewShapeFilter(7, catA, catB), rigid.NewShapeFilter(7, catB, catA), true},
		{"different groups", rigid.NewShapeFilter(7, catA, catB), rigid.NewShapeFilter(8, catB, catA), false},
		{"no group", rigid.ShapeFilterAll, rigid.ShapeFilterAll, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Reject(tt.b); got != tt.reject {
				t.Errorf("a.Reject(b) = %v, want %v", got, tt.reject)
			}
			if got := tt.b.Reject(tt.a); got != tt.reject {
				t.Errorf("b.Reject(a) = %v, want %v", got, tt.reject)
			}
		})
	}
}

func TestShapeFilterGroupNeverCollides(t *testing.T) {
	s := rigid.NewSpace()
	_, shapeA := addBall(t, s, vec.Vec2{}, 1)
	_, shapeB := addBall(t, s, vec.Vec2{X: 0.5}, 1)
	for _, id := range []rigid.ShapeID{shapeA, shapeB} {
		shape, _ := s.Shape(id)
		shape.Filter = rigid.NewShapeFilter(3, rigid.AllCategories, rigid.AllCategories)
	}

	for i := 0; i < 10; i++ {
		assert.Equal(t, nil, s.Step(1.0/60))
		s.EachArbiter(func(arb *rigid.Arbiter) {
			t.Fatalf("grouped shapes produced %v contacts", arb.Count())
		})
	}
}
