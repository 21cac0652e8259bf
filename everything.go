package rigid

import (
	"fmt"
	"math"

	"github.com/setanarut/vec"
)

const (
	infinity     float64 = math.MaxFloat64
	magicEpsilon float64 = 1e-5

	// MaxContactsPerArbiter is the largest contact manifold the narrow-phase produces.
	MaxContactsPerArbiter int = 2
)

// Arbiter states
const (
	// Arbiter is active and its the first collision.
	ArbiterStateFirstCollision = iota
	// Arbiter is active and its not the first collision.
	ArbiterStateNormal
	// Collision has been explicitly ignored. Either by returning false from a
	// begin collision handler or calling Arbiter.Ignore().
	ArbiterStateIgnore
	// Collison is no longer active. A space will cache an arbiter for up to
	// Space.CollisionPersistence more steps.
	ArbiterStateCached
	// Collison arbiter is invalid because one of the shapes was removed.
	ArbiterStateInvalidated
)

const (
	// Value for group signifying that a shape is in no group.
	NoGroup uint = 0
	// Value for Shape categories signifying that a shape is in every category.
	AllCategories uint = ^uint(0)
)

// ShapeFilterAll is a collision filter value for a shape that will collide with
// anything except ShapeFilterNone.
var ShapeFilterAll = ShapeFilter{NoGroup, AllCategories, AllCategories}

// ShapeFilterNone is a collision filter value for a shape that does not collide
// with anything.
var ShapeFilterNone = ShapeFilter{NoGroup, ^AllCategories, ^AllCategories}

// CollisionType tags shapes so that collision handlers can be selected per pair of types.
type CollisionType uint

// ShapeFilter is fast collision filtering type that is used to determine if two
// objects collide before calling collision or query callbacks.
type ShapeFilter struct {
	// Two objects with the same non-zero group value do not collide.
	// This is generally used to group objects in a composite object together to disable self collisions.
	Group uint
	// A bitmask of user definable categories that this object belongs to.
	// The category/mask combinations of both objects in a collision must agree for a collision to occur.
	Categories uint
	// A bitmask of user definable category types that this object object collides with.
	// The category/mask combinations of both objects in a collision must agree for a collision to occur.
	Mask uint
}

// NewShapeFilter returns a filter with the given group, categories and mask.
func NewShapeFilter(group, categories, mask uint) ShapeFilter {
	return ShapeFilter{Group: group, Categories: categories, Mask: mask}
}

// Reject checks whether two ShapeFilter objects should be considered incompatible.
// It returns true if the filters should be rejected based on the following conditions:
//   - If both filters belong to the same group (and the group is not 0).
//   - If the category/mask combination of either filter does not match the other.
func (sf ShapeFilter) Reject(other ShapeFilter) bool {
	return (sf.Group != 0 && sf.Group == other.Group) ||
		(sf.Categories&other.Mask) == 0 ||
		(other.Categories&sf.Mask) == 0
}

// Contact is a single solver contact point of an arbiter.
type Contact struct {
	// Offsets of the contact from the centers of gravity of body A and B.
	// The narrow-phase stores absolute points here, the arbiter makes them relative.
	r1, r2 vec.Vec2

	nMass, tMass float64
	bounce       float64

	jnAcc, jtAcc, jBias float64
	bias                float64

	hash hashValue
}

// CollisionInfo is the result of a narrow-phase test between two shapes.
type CollisionInfo struct {
	a, b        *Shape
	collisionID uint32

	n     vec.Vec2
	count int
	arr   [MaxContactsPerArbiter]Contact
}

// Count returns the number of contacts found.
func (info *CollisionInfo) Count() int {
	return info.count
}

// Normal returns the collision normal pointing from the first to the second shape of the info.
func (info *CollisionInfo) Normal() vec.Vec2 {
	return info.n
}

// Shapes returns the shapes in the order the collision function sorted them.
func (info *CollisionInfo) Shapes() (*Shape, *Shape) {
	return info.a, info.b
}

func (info *CollisionInfo) pushContact(p1, p2 vec.Vec2, hash hashValue) {
	if info.count >= MaxContactsPerArbiter {
		return
	}
	con := &info.arr[info.count]
	con.r1 = p1
	con.r2 = p2
	con.hash = hash

	info.count++
}

// ShapeMassInfo is mass info struct
type ShapeMassInfo struct {
	m, i, area float64
	// Center of gravity
	cog vec.Vec2
}

// PointQueryInfo is point query info struct.
type PointQueryInfo struct {
	// The nearest shape, nil if no shape was within range.
	Shape *Shape
	// The closest point on the shape's surface. (in world space coordinates)
	Point vec.Vec2
	// The distance to the point. The distance is negative if the point is inside the shape.
	Distance float64
	// The gradient of the signed distance function.
	Gradient vec.Vec2
}

// SegmentQueryInfo is segment query info struct.
type SegmentQueryInfo struct {
	// The shape that was hit, or nil if no collision occurred.
	Shape *Shape
	// The point of impact.
	Point vec.Vec2
	// The normal of the surface hit.
	Normal vec.Vec2
	// The normalized distance along the query segment in the range [0, 1].
	Alpha float64
}

// SplittingPlane is a polygon edge stored as a vertex and its outward normal.
type SplittingPlane struct {
	V0, N vec.Vec2
}

// Mat2x2 is a 2x2 matrix type used for tensors and such.
type Mat2x2 struct {
	a, b, c, d float64
}

// Transform transforms Vector a
func (m *Mat2x2) Transform(a vec.Vec2) vec.Vec2 {
	return vec.Vec2{X: a.X*m.a + a.Y*m.b, Y: a.X*m.c + a.Y*m.d}
}

// DebugInfo returns a summary of the space's last step.
func DebugInfo(space *Space) string {
	arbiters := len(space.arbiters)
	points := 0
	for _, arb := range space.arbiters {
		points += arb.count
	}

	constraints := (len(space.constraintList) + points) * int(space.Iterations)

	var ke float64
	for _, body := range space.bodyList() {
		if body.Type() != Dynamic {
			continue
		}
		ke += body.mass*body.velocity.Dot(body.velocity) + body.moment*body.w*body.w
	}

	return fmt.Sprintf(`Arbiters: %d - Contact Points: %d
Other Constraints: %d, Iterations: %d
Constraints x Iterations: %d
KE: %e`, arbiters, points, len(space.constraintList), space.Iterations, constraints, ke)
}

type hashValue uint64

const hashCoef = 3344921057

func hashPair(a, b hashValue) hashValue {
	return a*hashCoef ^ b*hashCoef
}

func kScalarBody(body *Body, r, n vec.Vec2) float64 {
	rcn := r.Cross(n)
	return body.massInverse + body.momentInverse*rcn*rcn
}

func kScalar(a, b *Body, r1, r2, n vec.Vec2) float64 {
	return kScalarBody(a, r1, n) + kScalarBody(b, r2, n)
}

func normalRelativeVelocity(a, b *Body, r1, r2, n vec.Vec2) float64 {
	return relativeVelocity(a, b, r1, r2).Dot(n)
}

func relativeVelocity(a, b *Body, r1, r2 vec.Vec2) vec.Vec2 {
	return perp(r2).Scale(b.w).Add(b.velocity).Sub(perp(r1).Scale(a.w).Add(a.velocity))
}

func kTensor(a, b *Body, r1, r2 vec.Vec2) Mat2x2 {
	mSum := a.massInverse + b.massInverse

	// start with Identity*mSum
	k11 := mSum
	k12 := 0.0
	k21 := 0.0
	k22 := mSum

	// add the influence from r1
	aIInv := a.momentInverse
	r1xsq := r1.X * r1.X * aIInv
	r1ysq := r1.Y * r1.Y * aIInv
	r1nxy := -r1.X * r1.Y * aIInv
	k11 += r1ysq
	k12 += r1nxy
	k21 += r1nxy
	k22 += r1xsq

	// add the influence from r2
	bIInv := b.momentInverse
	r2xsq := r2.X * r2.X * bIInv
	r2ysq := r2.Y * r2.Y * bIInv
	r2nxy := -r2.X * r2.Y * bIInv
	k11 += r2ysq
	k12 += r2nxy
	k21 += r2nxy
	k22 += r2xsq

	det := k11*k22 - k12*k21
	if det == 0 {
		return Mat2x2{}
	}

	detInv := 1.0 / det
	return Mat2x2{
		k22 * detInv, -k12 * detInv,
		-k21 * detInv, k11 * detInv,
	}
}

func biasCoef(errorBias, dt float64) float64 {
	return 1.0 - math.Pow(errorBias, dt)
}

func clamp(f, min, max float64) float64 {
	if f > min {
		return math.Min(f, max)
	}
	return math.Min(min, max)
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(f, 1))
}

// collision related
func lerpT(a, b vec.Vec2, t float64) vec.Vec2 {
	ht := 0.5 * t
	return a.Scale(0.5 - ht).Add(b.Scale(0.5 + ht))
}

func closestDist(v0, v1 vec.Vec2) float64 {
	return magSq(lerpT(v0, v1, closestT(v0, v1)))
}

func closestT(a, b vec.Vec2) float64 {
	delta := b.Sub(a)
	dd := magSq(delta)
	if dd == 0 {
		return -1
	}
	return -clamp(delta.Dot(a.Add(b))/dd, -1.0, 1.0)
}

func closestPointOnSegment(p, a, b vec.Vec2) vec.Vec2 {
	delta := a.Sub(b)
	dd := magSq(delta)
	if dd == 0 {
		return b
	}
	t := clamp01(delta.Dot(p.Sub(b)) / dd)
	return b.Add(delta.Scale(t))
}

func checkAxis(v0, v1, p, n vec.Vec2) bool {
	return p.Dot(n) <= math.Max(v0.Dot(n), v1.Dot(n))
}

func pointGreater(a, b, c vec.Vec2) bool {
	return (b.Y-a.Y)*(a.X+b.X-2*c.X) > (b.X-a.X)*(a.Y+b.Y-2*c.Y)
}

// rotateComplex uses complex number multiplication to rotate this by other.
//
// Scaling will occur if this is not a unit vector.
func rotateComplex(this, other vec.Vec2) vec.Vec2 {
	return vec.Vec2{X: this.X*other.X - this.Y*other.Y, Y: this.X*other.Y + this.Y*other.X}
}

// perp returns a perpendicular vector. (90 degree rotation)
func perp(a vec.Vec2) vec.Vec2 {
	return vec.Vec2{X: -a.Y, Y: a.X}
}

// reversePerp returns a perpendicular vector. (-90 degree rotation)
func reversePerp(a vec.Vec2) vec.Vec2 {
	return vec.Vec2{X: a.Y, Y: -a.X}
}

func magSq(a vec.Vec2) float64 {
	return a.Dot(a)
}

func distSq(a, b vec.Vec2) float64 {
	return magSq(a.Sub(b))
}

// normalize returns the unit vector of a, or the zero vector when a has no length.
func normalize(a vec.Vec2) vec.Vec2 {
	m := a.Mag()
	if m == 0 {
		return vec.Vec2{}
	}
	return a.Scale(1 / m)
}

func project(a, b vec.Vec2) vec.Vec2 {
	bb := magSq(b)
	if bb == 0 {
		return vec.Vec2{}
	}
	return b.Scale(a.Dot(b) / bb)
}

// clampMag clamps this vector magnitude to m.
func clampMag(a vec.Vec2, m float64) vec.Vec2 {
	if a.Dot(a) > m*m {
		return normalize(a).Scale(m)
	}
	return a
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func isFiniteVec(a vec.Vec2) bool {
	return isFinite(a.X) && isFinite(a.Y)
}
