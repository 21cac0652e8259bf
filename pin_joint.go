package rigid

import (
	"math"

	"github.com/setanarut/vec"
)

// PinJoint keeps the anchor points of two bodies at a fixed distance, the
// distance between them when the constraint is created.
type PinJoint struct {
	*Constraint
	AnchorA, AnchorB vec.Vec2
	Dist             float64

	link anchorLink
}

// NewPinJoint returns a pin joint between anchors given in body local coordinates.
func NewPinJoint(anchorA, anchorB vec.Vec2) *PinJoint {
	return &PinJoint{AnchorA: anchorA, AnchorB: anchorB}
}

func (joint *PinJoint) bind(c *Constraint) {
	joint.Constraint = c
	joint.link = anchorLink{}
	pa := c.bodyA.LocalToWorld(joint.AnchorA)
	joint.Dist = c.bodyB.LocalToWorld(joint.AnchorB).Distance(pa)
}

func (joint *PinJoint) preStep(dt float64) {
	delta := joint.link.measure(joint.bodyA, joint.bodyB, joint.AnchorA, joint.AnchorB)
	joint.link.aim(joint.Constraint, normalize(delta), delta.Mag()-joint.Dist, dt)
}

func (joint *PinJoint) applyCachedImpulse(dtCoef float64) {
	joint.link.warmStart(joint.Constraint, dtCoef)
}

func (joint *PinJoint) applyImpulse(dt float64) {
	jMax := joint.maxForce * dt
	joint.link.solve(joint.Constraint, -jMax, jMax)
}

func (joint *PinJoint) Impulse() float64 {
	return math.Abs(joint.link.jnAcc)
}
