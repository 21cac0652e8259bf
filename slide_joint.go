package rigid

import (
	"math"

	"github.com/setanarut/vec"
)

// SlideJoint is a pin joint with a distance range instead of a fixed distance.
// Between Min and Max the anchors move freely.
type SlideJoint struct {
	*Constraint

	AnchorA, AnchorB vec.Vec2
	Min, Max         float64

	link anchorLink
}

func NewSlideJoint(anchorA, anchorB vec.Vec2, min, max float64) *SlideJoint {
	return &SlideJoint{AnchorA: anchorA, AnchorB: anchorB, Min: min, Max: max}
}

func (joint *SlideJoint) bind(c *Constraint) {
	joint.Constraint = c
	joint.link = anchorLink{}
}

func (joint *SlideJoint) preStep(dt float64) {
	delta := joint.link.measure(joint.bodyA, joint.bodyB, joint.AnchorA, joint.AnchorB)
	dist := delta.Mag()

	// The axis points so that a negative impulse pulls the anchors back into range.
	var n vec.Vec2
	var err float64
	switch {
	case dist > joint.Max:
		n, err = normalize(delta), dist-joint.Max
	case dist < joint.Min:
		n, err = normalize(delta).Neg(), joint.Min-dist
	default:
		joint.link.jnAcc = 0
	}
	joint.link.aim(joint.Constraint, n, err, dt)
}

func (joint *SlideJoint) applyCachedImpulse(dtCoef float64) {
	joint.link.warmStart(joint.Constraint, dtCoef)
}

func (joint *SlideJoint) applyImpulse(dt float64) {
	if joint.link.n == (vec.Vec2{}) {
		return
	}
	joint.link.solve(joint.Constraint, -joint.maxForce*dt, 0)
}

func (joint *SlideJoint) Impulse() float64 {
	return math.Abs(joint.link.jnAcc)
}
