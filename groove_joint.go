package rigid

import "github.com/setanarut/vec"

// GrooveJoint holds an anchor of body B on a segment (the groove) of body A.
type GrooveJoint struct {
	*Constraint

	GrooveN, GrooveA, GrooveB vec.Vec2
	AnchorB                   vec.Vec2

	grooveTn vec.Vec2
	clamp    float64
	r1, r2   vec.Vec2
	k        Mat2x2

	jAcc, bias vec.Vec2
}

// NewGrooveJoint returns a groove joint. The groove goes from grooveA to
// grooveB on body A, the anchor is on body B, all in body local coordinates.
func NewGrooveJoint(grooveA, grooveB, anchorB vec.Vec2) *GrooveJoint {
	return &GrooveJoint{
		GrooveA: grooveA,
		GrooveB: grooveB,
		GrooveN: perp(normalize(grooveB.Sub(grooveA))),
		AnchorB: anchorB,
	}
}

func (joint *GrooveJoint) bind(c *Constraint) {
	joint.Constraint = c
	joint.jAcc = vec.Vec2{}
}

func (joint *GrooveJoint) preStep(dt float64) {
	a := joint.bodyA
	b := joint.bodyB

	ta := a.transform.Apply(joint.GrooveA)
	tb := a.transform.Apply(joint.GrooveB)

	n := a.transform.ApplyVector(joint.GrooveN)
	d := ta.Dot(n)

	joint.grooveTn = n
	joint.r2 = b.transform.ApplyVector(joint.AnchorB.Sub(b.centerOfGravity))

	td := b.position.Add(joint.r2).Cross(n)

	if td <= ta.Cross(n) {
		joint.clamp = 1
		joint.r1 = ta.Sub(a.position)
	} else if td >= tb.Cross(n) {
		joint.clamp = -1
		joint.r1 = tb.Sub(a.position)
	} else {
		joint.clamp = 0
		joint.r1 = perp(n).Scale(-td).Add(n.Scale(d)).Sub(a.position)
	}

	joint.k = kTensor(a, b, joint.r1, joint.r2)

	delta := b.position.Add(joint.r2).Sub(a.position.Add(joint.r1))
	joint.bias = clampMag(delta.Scale(-biasCoef(joint.errorBias, dt)/dt), joint.maxBias)
}

func (joint *GrooveJoint) applyCachedImpulse(dtCoef float64) {
	a := joint.bodyA
	b := joint.bodyB

	applyImpulses(a, b, joint.r1, joint.r2, joint.jAcc.Scale(dtCoef))
}

func (joint *GrooveJoint) grooveConstrain(j vec.Vec2, dt float64) vec.Vec2 {
	n := joint.grooveTn
	var jClamp vec.Vec2
	if joint.clamp*j.Cross(n) > 0 {
		jClamp = j
	} else {
		jClamp = project(j, n)
	}
	return clampMag(jClamp, joint.maxForce*dt)
}

func (joint *GrooveJoint) applyImpulse(dt float64) {
	a := joint.bodyA
	b := joint.bodyB

	r1 := joint.r1
	r2 := joint.r2

	vr := relativeVelocity(a, b, r1, r2)

	j := joint.k.Transform(joint.bias.Sub(vr))
	jOld := joint.jAcc
	joint.jAcc = joint.grooveConstrain(jOld.Add(j), dt)
	j = joint.jAcc.Sub(jOld)

	applyImpulses(a, b, joint.r1, joint.r2, j)
}

func (joint *GrooveJoint) Impulse() float64 {
	return joint.jAcc.Mag()
}
