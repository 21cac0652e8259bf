package rigid

import "github.com/setanarut/vec"

// PivotJoint lets two bodies rotate around a shared point.
type PivotJoint struct {
	*Constraint
	AnchorA, AnchorB vec.Vec2

	// pivot in world coordinates, converted to anchors when bound
	pivot    vec.Vec2
	hasPivot bool

	r1, r2 vec.Vec2
	k      Mat2x2

	jAcc, bias vec.Vec2
}

// NewPivotJoint returns a pivot joint around a point given in world coordinates.
func NewPivotJoint(pivot vec.Vec2) *PivotJoint {
	return &PivotJoint{pivot: pivot, hasPivot: true}
}

// NewPivotJoint2 returns a pivot joint from anchors given in body local coordinates.
func NewPivotJoint2(anchorA, anchorB vec.Vec2) *PivotJoint {
	return &PivotJoint{
		AnchorA: anchorA,
		AnchorB: anchorB,
	}
}

func (joint *PivotJoint) bind(c *Constraint) {
	joint.Constraint = c
	if joint.hasPivot {
		joint.AnchorA = c.bodyA.WorldToLocal(joint.pivot)
		joint.AnchorB = c.bodyB.WorldToLocal(joint.pivot)
	}
	joint.jAcc = vec.Vec2{}
}

func (joint *PivotJoint) preStep(dt float64) {
	a := joint.Constraint.bodyA
	b := joint.Constraint.bodyB

	joint.r1 = a.transform.ApplyVector(joint.AnchorA.Sub(a.centerOfGravity))
	joint.r2 = b.transform.ApplyVector(joint.AnchorB.Sub(b.centerOfGravity))

	// Calculate mass tensor
	joint.k = kTensor(a, b, joint.r1, joint.r2)

	// calculate bias velocity
	delta := b.position.Add(joint.r2).Sub(a.position.Add(joint.r1))
	joint.bias = clampMag(delta.Scale(-biasCoef(joint.Constraint.errorBias, dt)/dt), joint.Constraint.maxBias)
}

func (joint *PivotJoint) applyCachedImpulse(dtCoef float64) {
	applyImpulses(joint.bodyA, joint.bodyB, joint.r1, joint.r2, joint.jAcc.Scale(dtCoef))
}

func (joint *PivotJoint) applyImpulse(dt float64) {
	a := joint.Constraint.bodyA
	b := joint.Constraint.bodyB

	r1 := joint.r1
	r2 := joint.r2

	// compute relative velocity
	vr := relativeVelocity(a, b, r1, r2)

	// compute normal impulse
	j := joint.k.Transform(joint.bias.Sub(vr))
	jOld := joint.jAcc
	joint.jAcc = clampMag(joint.jAcc.Add(j), joint.Constraint.maxForce*dt)
	j = joint.jAcc.Sub(jOld)

	applyImpulses(a, b, joint.r1, joint.r2, j)
}

func (joint *PivotJoint) Impulse() float64 {
	return joint.jAcc.Mag()
}
