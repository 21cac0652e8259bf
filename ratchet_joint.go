package rigid

import "math"

// RatchetJoint works like a socket wrench: the relative angle may only grow
// in the direction of Ratchet, in steps of Ratchet.
type RatchetJoint struct {
	*Constraint

	Angle, Phase, Ratchet float64

	iSum, bias, jAcc float64
}

func NewRatchetJoint(phase, ratchet float64) *RatchetJoint {
	return &RatchetJoint{
		Phase:   phase,
		Ratchet: ratchet,
	}
}

func (joint *RatchetJoint) bind(c *Constraint) {
	joint.Constraint = c
	joint.Angle = c.bodyB.angle - c.bodyA.angle
}

func (joint *RatchetJoint) preStep(dt float64) {
	a := joint.bodyA
	b := joint.bodyB

	angle := joint.Angle
	phase := joint.Phase
	ratchet := joint.Ratchet

	delta := b.angle - a.angle
	diff := angle - delta
	pdist := 0.0

	if diff*ratchet > 0 {
		pdist = diff
	} else if ratchet != 0 {
		joint.Angle = math.Floor((delta-phase)/ratchet)*ratchet + phase
	}

	joint.iSum = safeInverse(a.momentInverse + b.momentInverse)

	maxBias := joint.maxBias
	joint.bias = clamp(-biasCoef(joint.errorBias, dt)*pdist/dt, -maxBias, maxBias)

	if joint.bias == 0 {
		joint.jAcc = 0
	}
}

func (joint *RatchetJoint) applyCachedImpulse(dtCoef float64) {
	a := joint.bodyA
	b := joint.bodyB

	j := joint.jAcc * dtCoef
	a.w -= j * a.momentInverse
	b.w += j * b.momentInverse
}

func (joint *RatchetJoint) applyImpulse(dt float64) {
	if joint.bias == 0 {
		return
	}

	a := joint.bodyA
	b := joint.bodyB

	wr := b.w - a.w
	ratchet := joint.Ratchet

	jMax := joint.maxForce * dt

	j := -(joint.bias + wr) * joint.iSum
	jOld := joint.jAcc
	joint.jAcc = clamp((jOld+j)*ratchet, 0, jMax*math.Abs(ratchet)) / ratchet
	j = joint.jAcc - jOld

	a.w -= j * a.momentInverse
	b.w += j * b.momentInverse
}

func (joint *RatchetJoint) Impulse() float64 {
	return math.Abs(joint.jAcc)
}
