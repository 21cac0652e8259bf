package rigid_test

import (
	"math"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/setanarut/rigid"
	"github.com/setanarut/vec"
)

const tolerance = 1e-6

func near(a, b vec.Vec2) bool {
	return a.Distance(b) < tolerance
}

func staticShape(t *testing.T, s *rigid.Space, g rigid.Geometry) *rigid.Shape {
	t.Helper()
	shape := newShape(t, s, s.StaticBody(), g)
	shape.CacheBB()
	return shape
}

func TestCollideCircles(t *testing.T) {
	s := rigid.NewSpace()
	a := staticShape(t, s, rigid.CircleGeometry{Radius: 1})
	b := staticShape(t, s, rigid.CircleGeometry{Radius: 1, Offset: vec.Vec2{X: 1.5}})

	set := rigid.ShapesCollide(a, b)
	assert.Equal(t, 1, set.Count)
	assert.T(t, near(set.Normal, vec.Vec2{X: 1}))
	if math.Abs(set.Points[0].Distance+0.5) > tolerance {
		t.Errorf("distance = %v, want -0.5", set.Points[0].Distance)
	}
	assert.T(t, near(set.Points[0].PointA, vec.Vec2{X: 1}))
	assert.T(t, near(set.Points[0].PointB, vec.Vec2{X: 0.5}))

	// Reversed order flips the normal.
	set = rigid.ShapesCollide(b, a)
	assert.T(t, near(set.Normal, vec.Vec2{X: -1}))

	far := staticShape(t, s, rigid.CircleGeometry{Radius: 1, Offset: vec.Vec2{X: 5}})
	assert.Equal(t, 0, rigid.ShapesCollide(a, far).Count)
}

func TestCollideSegmentCircle(t *testing.T) {
	s := rigid.NewSpace()
	seg := staticShape(t, s, rigid.SegmentGeometry{A: vec.Vec2{X: -5}, B: vec.Vec2{X: 5}})
	circle := staticShape(t, s, rigid.CircleGeometry{Radius: 1, Offset: vec.Vec2{Y: 0.5}})

	set := rigid.ShapesCollide(seg, circle)
	assert.Equal(t, 1, set.Count)
	assert.T(t, near(set.Normal, vec.Vec2{Y: 1}))
	if math.Abs(set.Points[0].Distance+0.5) > tolerance {
		t.Errorf("distance = %v, want -0.5", set.Points[0].Distance)
	}

	set = rigid.ShapesCollide(circle, seg)
	assert.T(t, near(set.Normal, vec.Vec2{Y: -1}))
}

func TestCollideBoxes(t *testing.T) {
	s := rigid.NewSpace()
	a := staticShape(t, s, rigid.NewBoxGeometry(2, 2, 0))
	b := staticShape(t, s, rigid.NewBoxGeometryBB(rigid.NewBB(0.5, -1, 2.5, 1), 0))

	set := rigid.ShapesCollide(a, b)
	assert.Equal(t, 2, set.Count)
	assert.T(t, near(set.Normal, vec.Vec2{X: 1}))
	for i := 0; i < set.Count; i++ {
		if d := set.Points[i].Distance; math.Abs(d+0.5) > tolerance {
			t.Errorf("contact %d distance = %v, want -0.5", i, d)
		}
	}

	c := staticShape(t, s, rigid.NewBoxGeometryBB(rigid.NewBB(3, -1, 5, 1), 0))
	assert.Equal(t, 0, rigid.ShapesCollide(a, c).Count)
}

func TestCollideSegmentBox(t *testing.T) {
	s := rigid.NewSpace()
	ground := staticShape(t, s, rigid.SegmentGeometry{A: vec.Vec2{X: -5}, B: vec.Vec2{X: 5}, Radius: 0.1})
	box := staticShape(t, s, rigid.NewBoxGeometryBB(rigid.NewBB(-1, 0.05, 1, 2.05), 0))

	set := rigid.ShapesCollide(ground, box)
	assert.Equal(t, 2, set.Count)
	assert.T(t, near(set.Normal, vec.Vec2{Y: 1}))
	for i := 0; i < set.Count; i++ {
		if d := set.Points[i].Distance; math.Abs(d+0.05) > tolerance {
			t.Errorf("contact %d distance = %v, want -0.05", i, d)
		}
	}
}

func TestCollideCircleBox(t *testing.T) {
	s := rigid.NewSpace()
	box := staticShape(t, s, rigid.NewBoxGeometry(2, 2, 0))
	circle := staticShape(t, s, rigid.CircleGeometry{Radius: 1, Offset: vec.Vec2{Y: 1.75}})

	set := rigid.ShapesCollide(box, circle)
	assert.Equal(t, 1, set.Count)
	assert.T(t, near(set.Normal, vec.Vec2{Y: 1}))
	if math.Abs(set.Points[0].Distance+0.25) > tolerance {
		t.Errorf("distance = %v, want -0.25", set.Points[0].Distance)
	}
}
