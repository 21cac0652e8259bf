package rigid

import (
	"fmt"

	"github.com/setanarut/vec"
)

// IShape is the geometry of a Shape: *Circle, *Segment or *PolyShape.
type IShape interface {
	// CacheData updates the world space geometry and returns the new bounding box.
	CacheData(transform Transform) BB
	PointQuery(p vec.Vec2, info *PointQueryInfo)
	SegmentQuery(a, b vec.Vec2, radius float64, info *SegmentQueryInfo)
}

const shapeTypeNum = 3

// Shape is a collision shape attached to a body. Shapes are created with
// Space.CreateShape and belong to the space that created them.
type Shape struct {
	Class    IShape
	UserData any
	Filter   ShapeFilter
	// You can assign types to collision shapes that trigger callbacks when objects
	// of certain types touch.
	CollisionType CollisionType
	// Sensors only call collision callbacks, and never generate real collisions.
	Sensor bool
	// The surface velocity of the object. Useful for creating conveyor belts or
	// players that move around. This value is only used when calculating friction,
	// not resolving the collision.
	SurfaceVelocity      vec.Vec2
	Elasticity, Friction float64

	id       ShapeID
	body     BodyID
	space    *Space
	bb       BB
	massInfo ShapeMassInfo
	inSpace  bool
}

func (sh *Shape) String() string {
	return fmt.Sprintf("%v %T", sh.id, sh.Class)
}

func (sh *Shape) order() int {
	switch sh.Class.(type) {
	case *Circle:
		return 0
	case *Segment:
		return 1
	case *PolyShape:
		return 2
	default:
		return shapeTypeNum
	}
}

// ID returns the id of the shape.
func (sh *Shape) ID() ShapeID {
	return sh.id
}

// BodyID returns the id of the body the shape is attached to.
func (sh *Shape) BodyID() BodyID {
	return sh.body
}

// Body returns the body the shape is attached to.
func (sh *Shape) Body() *Body {
	body, _ := sh.space.bodies.get(sh.body)
	return body
}

// Space returns the space that created the shape.
func (sh *Shape) Space() *Space {
	return sh.space
}

// InSpace reports whether the shape takes part in the simulation.
func (sh *Shape) InSpace() bool {
	return sh.inSpace
}

// BB returns the bounding box cached at the last step, query or reindex.
func (sh *Shape) BB() BB {
	return sh.bb
}

func (sh *Shape) MassInfo() ShapeMassInfo {
	return sh.massInfo
}

func (sh *Shape) Mass() float64 {
	return sh.massInfo.m
}

// SetMass sets the mass of the shape and recomputes the mass of a dynamic body from its shapes.
func (sh *Shape) SetMass(mass float64) error {
	if !(mass >= 0) || !isFinite(mass) {
		return newError(InvalidGeometry, "SetMass", "shape mass %v must be a non-negative number", mass)
	}
	prev := sh.massInfo.m
	sh.massInfo.m = mass
	if body := sh.Body(); body != nil {
		if err := body.AccumulateMassFromShapes(); err != nil {
			sh.massInfo.m = prev
			return err
		}
	}
	return nil
}

func (sh *Shape) Density() float64 {
	if sh.massInfo.area == 0 {
		return 0
	}
	return sh.massInfo.m / sh.massInfo.area
}

// SetDensity sets the mass of the shape from its area.
func (sh *Shape) SetDensity(density float64) error {
	return sh.SetMass(density * sh.massInfo.area)
}

func (sh *Shape) Moment() float64 {
	return sh.massInfo.m * sh.massInfo.i
}

func (sh *Shape) Area() float64 {
	return sh.massInfo.area
}

// CenterOfGravity returns the centroid of the shape in body local coordinates.
func (sh *Shape) CenterOfGravity() vec.Vec2 {
	return sh.massInfo.cog
}

// CacheBB updates the world space geometry from the body transform.
func (sh *Shape) CacheBB() BB {
	if body := sh.Body(); body != nil {
		return sh.update(body.transform)
	}
	return sh.bb
}

func (sh *Shape) update(transform Transform) BB {
	sh.bb = sh.Class.CacheData(transform)
	return sh.bb
}

func (sh *Shape) hash() hashValue {
	return hashValue(sh.id)
}

// PointQuery finds the closest point on the surface of shape to a specific point.
// A negative distance means the point is inside the shape.
func (sh *Shape) PointQuery(p vec.Vec2) PointQueryInfo {
	info := PointQueryInfo{nil, vec.Vec2{}, infinity, vec.Vec2{}}
	sh.Class.PointQuery(p, &info)
	return info
}

// SegmentQuery performs a segment query against a shape.
// info may be nil.
func (sh *Shape) SegmentQuery(a, b vec.Vec2, radius float64, info *SegmentQueryInfo) bool {
	blank := SegmentQueryInfo{nil, b, vec.Vec2{}, 1}
	if info != nil {
		*info = blank
	} else {
		info = &blank
	}

	var nearest PointQueryInfo
	sh.Class.PointQuery(a, &nearest)
	if nearest.Distance <= radius {
		info.Shape = sh
		info.Alpha = 0
		info.Normal = normalize(a.Sub(nearest.Point))
		info.Point = a
	} else {
		sh.Class.SegmentQuery(a, b, radius, info)
	}

	return info.Shape != nil
}
