package rigid

import "math"

// GearJoint keeps the angular velocity ratio of two bodies constant.
type GearJoint struct {
	*Constraint
	phase, ratio float64
	ratioInv     float64

	iSum float64

	bias, jAcc float64
}

func NewGearJoint(phase, ratio float64) *GearJoint {
	return &GearJoint{
		phase:    phase,
		ratio:    ratio,
		ratioInv: safeInverse(ratio),
	}
}

func (joint *GearJoint) bind(c *Constraint) {
	joint.Constraint = c
	joint.jAcc = 0
}

func (joint *GearJoint) Phase() float64 {
	return joint.phase
}

func (joint *GearJoint) SetPhase(phase float64) {
	joint.phase = phase
}

func (joint *GearJoint) Ratio() float64 {
	return joint.ratio
}

func (joint *GearJoint) SetRatio(ratio float64) {
	joint.ratio = ratio
	joint.ratioInv = safeInverse(ratio)
}

func (joint *GearJoint) preStep(dt float64) {
	a := joint.bodyA
	b := joint.bodyB

	// calculate moment of inertia coefficient.
	joint.iSum = safeInverse(a.momentInverse*joint.ratioInv + joint.ratio*b.momentInverse)

	// calculate bias velocity
	maxBias := joint.Constraint.maxBias
	joint.bias = clamp(-biasCoef(joint.errorBias, dt)*(b.angle*joint.ratio-a.angle-joint.phase)/dt, -maxBias, maxBias)
}

func (joint *GearJoint) applyCachedImpulse(dtCoef float64) {
	a := joint.bodyA
	b := joint.bodyB

	j := joint.jAcc * dtCoef
	a.w -= j * a.momentInverse * joint.ratioInv
	b.w += j * b.momentInverse
}

func (joint *GearJoint) applyImpulse(dt float64) {
	a := joint.bodyA
	b := joint.bodyB

	// compute relative rotational velocity
	wr := b.w*joint.ratio - a.w

	jMax := joint.Constraint.maxForce * dt

	// compute normal impulse
	j := (joint.bias - wr) * joint.iSum
	jOld := joint.jAcc
	joint.jAcc = clamp(jOld+j, -jMax, jMax)
	j = joint.jAcc - jOld

	// apply impulse
	a.w -= j * a.momentInverse * joint.ratioInv
	b.w += j * b.momentInverse
}

func (joint *GearJoint) Impulse() float64 {
	return math.Abs(joint.jAcc)
}
