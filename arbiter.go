package rigid

import (
	"math"
	"sync"

	"github.com/setanarut/vec"
)

// Arbiter struct tracks pairs of colliding shapes.
//
// They are also used in conjuction with collision handler callbacks allowing you to retrieve information on the collision or change it.
// A unique arbiter value is used for each pair of colliding objects. It persists until the shapes separate.
type Arbiter struct {
	UserData any

	key            pairKey
	shapeA, shapeB *Shape
	bodyA, bodyB   *Body
	e, u           float64
	count          int
	state          int // Arbiter state enum
	contacts       [MaxContactsPerArbiter]Contact
	surfaceVr      vec.Vec2
	normal         vec.Vec2
	handler        *CollisionHandler
	swapped        bool
	stamp          uint
	collisionID    uint32
}

var arbiterPool = sync.Pool{
	New: func() any {
		return &Arbiter{}
	},
}

func newArbiter(key pairKey, a, b *Shape) *Arbiter {
	arb := arbiterPool.Get().(*Arbiter)
	*arb = Arbiter{
		key:    key,
		shapeA: a,
		bodyA:  a.Body(),
		shapeB: b,
		bodyB:  b.Body(),
		state:  ArbiterStateFirstCollision,
	}
	return arb
}

func recycleArbiter(arb *Arbiter) {
	*arb = Arbiter{}
	arbiterPool.Put(arb)
}

func (arb *Arbiter) applyCachedImpulse(dtCoef float64) {
	if arb.IsFirstContact() {
		return
	}

	for i := 0; i < arb.count; i++ {
		con := &arb.contacts[i]
		j := rotateComplex(arb.normal, vec.Vec2{X: con.jnAcc, Y: con.jtAcc})
		applyImpulses(arb.bodyA, arb.bodyB, con.r1, con.r2, j.Scale(dtCoef))
	}
}

func (arb *Arbiter) applyImpulse() {
	a := arb.bodyA
	b := arb.bodyB
	n := arb.normal
	surfaceVR := arb.surfaceVr
	friction := arb.u

	for i := 0; i < arb.count; i++ {
		con := &arb.contacts[i]
		nMass := con.nMass
		r1 := con.r1
		r2 := con.r2

		vb1 := a.vBias.Add(perp(r1).Scale(a.wBias))
		vb2 := b.vBias.Add(perp(r2).Scale(b.wBias))
		vr := relativeVelocity(a, b, r1, r2).Add(surfaceVR)

		vbn := vb2.Sub(vb1).Dot(n)
		vrn := vr.Dot(n)
		vrt := vr.Dot(perp(n))

		jbn := (con.bias - vbn) * nMass
		jbnOld := con.jBias
		con.jBias = math.Max(jbnOld+jbn, 0)

		jn := -(con.bounce + vrn) * nMass
		jnOld := con.jnAcc
		con.jnAcc = math.Max(jnOld+jn, 0)

		// Coulomb friction clamped by the accumulated normal impulse.
		jtMax := friction * con.jnAcc
		jt := -vrt * con.tMass
		jtOld := con.jtAcc
		con.jtAcc = clamp(jtOld+jt, -jtMax, jtMax)

		applyBiasImpulses(a, b, r1, r2, n.Scale(con.jBias-jbnOld))
		applyImpulses(a, b, r1, r2, rotateComplex(n, vec.Vec2{
			X: con.jnAcc - jnOld,
			Y: con.jtAcc - jtOld,
		}))
	}
}

func (arb *Arbiter) preStep(dt, slop, bias float64) {
	a := arb.bodyA
	b := arb.bodyB
	n := arb.normal
	bodyDelta := b.position.Sub(a.position)

	for i := 0; i < arb.count; i++ {
		con := &arb.contacts[i]

		// Calculate the mass normal and mass tangent.
		con.nMass = safeInverse(kScalar(a, b, con.r1, con.r2, n))
		con.tMass = safeInverse(kScalar(a, b, con.r1, con.r2, perp(n)))

		// Calculate the target bias velocity.
		dist := con.r2.Sub(con.r1).Add(bodyDelta).Dot(n)
		con.bias = -bias * math.Min(0, dist+slop) / dt
		con.jBias = 0.0

		// Calculate the target bounce velocity.
		con.bounce = normalRelativeVelocity(a, b, con.r1, con.r2, n) * arb.e
	}
}

// update copies a fresh narrow-phase result into the arbiter, keeping the
// accumulated impulses of contacts whose feature hash did not change.
func (arb *Arbiter) update(info *CollisionInfo, space *Space) {
	a := info.a
	b := info.b

	// For collisions between two similar primitive types, the order could have
	// been swapped since the last frame.
	arb.shapeA = a
	arb.bodyA = a.Body()
	arb.shapeB = b
	arb.bodyB = b.Body()
	arb.collisionID = info.collisionID

	var contacts [MaxContactsPerArbiter]Contact
	for i := 0; i < info.count; i++ {
		con := info.arr[i]

		// r1 and r2 store absolute offsets at init time.
		// Need to convert them to relative offsets.
		con.r1 = con.r1.Sub(arb.bodyA.position)
		con.r2 = con.r2.Sub(arb.bodyB.position)

		con.jnAcc = 0
		con.jtAcc = 0

		for j := 0; j < arb.count; j++ {
			old := arb.contacts[j]

			// This could trigger false positives, but is fairly unlikely nor serious if it does.
			if con.hash == old.hash {
				con.jnAcc = old.jnAcc
				con.jtAcc = old.jtAcc
			}
		}
		contacts[i] = con
	}

	arb.contacts = contacts
	arb.count = info.count
	arb.normal = info.n

	arb.e = a.Elasticity * b.Elasticity
	arb.u = a.Friction * b.Friction

	surfaceVr := b.SurfaceVelocity.Sub(a.SurfaceVelocity)
	arb.surfaceVr = surfaceVr.Sub(info.n.Scale(surfaceVr.Dot(info.n)))

	arb.handler, arb.swapped = space.lookupHandler(a.CollisionType, b.CollisionType)

	// mark it as new if it's been cached
	if arb.state == ArbiterStateCached {
		arb.state = ArbiterStateFirstCollision
	}
}

// Ignore marks a collision pair to be ignored until the two objects separate.
//
// Pre-solve and post-solve callbacks will not be called, but the separate callback will be called.
func (arb *Arbiter) Ignore() bool {
	arb.state = ArbiterStateIgnore
	return false
}

// IsFirstContact reports whether this is the first step the two shapes touch.
func (arb *Arbiter) IsFirstContact() bool {
	return arb.state == ArbiterStateFirstCollision
}

// IsRemoval reports whether the separate callback runs because a shape was removed.
func (arb *Arbiter) IsRemoval() bool {
	return arb.state == ArbiterStateInvalidated
}

// TotalImpulse calculates the total impulse including the friction that was applied by this arbiter.
//
// This function should only be called from a post-solve, post-step or EachArbiter callback.
func (arb *Arbiter) TotalImpulse() vec.Vec2 {
	var sum vec.Vec2

	count := arb.Count()
	for i := 0; i < count; i++ {
		con := arb.contacts[i]
		sum = sum.Add(rotateComplex(arb.normal, vec.Vec2{X: con.jnAcc, Y: con.jtAcc}))
	}

	if arb.swapped {
		return sum
	}
	return sum.Neg()
}

// TotalKE returns the amount of energy lost in a collision including static, but not dynamic friction.
//
// This function should only be called from a post-solve, post-step or EachArbiter callback.
func (arb *Arbiter) TotalKE() float64 {
	eCoef := (1 - arb.e) / (1 + arb.e)
	var sum float64

	count := arb.Count()
	for i := 0; i < count; i++ {
		con := arb.contacts[i]
		jnAcc := con.jnAcc
		jtAcc := con.jtAcc

		sum += eCoef*jnAcc*jnAcc/con.nMass + jtAcc*jtAcc/con.tMass
	}
	return sum
}

// Count returns the number of contacts, 0 once the shapes separated.
func (arb *Arbiter) Count() int {
	if arb.state < ArbiterStateCached {
		return arb.count
	}
	return 0
}

// Shapes return the colliding shapes involved for this arbiter.
// The order of their CollisionType values will match the order set when the collision handler was registered.
func (arb *Arbiter) Shapes() (*Shape, *Shape) {
	if arb.swapped {
		return arb.shapeB, arb.shapeA
	}
	return arb.shapeA, arb.shapeB
}

// Bodies returns the colliding bodies involved for this arbiter, in the order of Shapes.
func (arb *Arbiter) Bodies() (*Body, *Body) {
	if arb.swapped {
		return arb.bodyB, arb.bodyA
	}
	return arb.bodyA, arb.bodyB
}

// Normal returns the collision normal pointing from the first to the second shape of Shapes.
func (arb *Arbiter) Normal() vec.Vec2 {
	if arb.swapped {
		return arb.normal.Neg()
	}
	return arb.normal
}

// PointA returns the contact point i on the surface of the first shape.
func (arb *Arbiter) PointA(i int) vec.Vec2 {
	set := arb.ContactPointSet()
	return set.Points[i].PointA
}

// PointB returns the contact point i on the surface of the second shape.
func (arb *Arbiter) PointB(i int) vec.Vec2 {
	set := arb.ContactPointSet()
	return set.Points[i].PointB
}

// Depth returns the signed distance of contact i, negative when overlapping.
func (arb *Arbiter) Depth(i int) float64 {
	con := arb.contacts[i]
	return con.r2.Add(arb.bodyB.position).Sub(con.r1.Add(arb.bodyA.position)).Dot(arb.normal)
}

// Elasticity returns the restitution of the collision, the product of the shape elasticities.
func (arb *Arbiter) Elasticity() float64 {
	return arb.e
}

// SetElasticity overrides the restitution for this step. Call it from a preSolve callback.
func (arb *Arbiter) SetElasticity(e float64) {
	arb.e = e
}

// Friction returns the friction coefficient of the collision.
func (arb *Arbiter) Friction() float64 {
	return arb.u
}

// SetFriction overrides the friction coefficient for this step.
func (arb *Arbiter) SetFriction(u float64) {
	arb.u = u
}

// SurfaceVelocity returns the relative surface velocity of the two shapes.
func (arb *Arbiter) SurfaceVelocity() vec.Vec2 {
	return arb.surfaceVr.Scale(arb.flip())
}

// SetSurfaceVelocity overrides the relative surface velocity for this step.
func (arb *Arbiter) SetSurfaceVelocity(vr vec.Vec2) {
	arb.surfaceVr = vr.Scale(arb.flip())
}

func (arb *Arbiter) flip() float64 {
	if arb.swapped {
		return -1
	}
	return 1
}

// ContactPointSet wraps up the important collision data for an arbiter.
type ContactPointSet struct {
	// Count is the number of contact points in the set.
	Count int
	// Normal is the normal of the collision.
	Normal vec.Vec2

	Points [MaxContactsPerArbiter]struct {
		// The position of the contact on the surface of each shape.
		PointA, PointB vec.Vec2
		// Distance is penetration distance of the two shapes. Overlapping means it will be negative.
		//
		// This value is calculated as p2.Sub(p1).Dot(n) and is ignored by Arbiter.SetContactPointSet().
		Distance float64
	}
}

// ContactPointSet returns the contacts of the arbiter in world coordinates.
func (arb *Arbiter) ContactPointSet() ContactPointSet {
	var set ContactPointSet
	set.Count = arb.Count()

	swapped := arb.swapped
	n := arb.normal
	if swapped {
		set.Normal = n.Neg()
	} else {
		set.Normal = n
	}

	for i := 0; i < set.Count; i++ {
		// Contact points are relative to body CoGs;
		p1 := arb.bodyA.position.Add(arb.contacts[i].r1)
		p2 := arb.bodyB.position.Add(arb.contacts[i].r2)

		if swapped {
			set.Points[i].PointA = p2
			set.Points[i].PointB = p1
		} else {
			set.Points[i].PointA = p1
			set.Points[i].PointB = p2
		}

		set.Points[i].Distance = p2.Sub(p1).Dot(n)
	}

	return set
}

// SetContactPointSet replaces the contact point set. The count must match the arbiter's.
//
// This can be a very powerful feature, but use it with caution!
func (arb *Arbiter) SetContactPointSet(set *ContactPointSet) error {
	count := set.Count
	if count != arb.count {
		return newError(InvalidGeometry, "SetContactPointSet", "contact count %d, arbiter has %d", count, arb.count)
	}
	swapped := arb.swapped
	if swapped {
		arb.normal = set.Normal.Neg()
	} else {
		arb.normal = set.Normal
	}

	for i := 0; i < count; i++ {
		p1 := set.Points[i].PointA
		p2 := set.Points[i].PointB

		if swapped {
			arb.contacts[i].r1 = p2.Sub(arb.bodyA.position)
			arb.contacts[i].r2 = p1.Sub(arb.bodyB.position)
		} else {
			arb.contacts[i].r1 = p1.Sub(arb.bodyA.position)
			arb.contacts[i].r2 = p2.Sub(arb.bodyB.position)
		}
	}
	return nil
}
