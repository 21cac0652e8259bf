package rigid

import "math"

// RotaryLimitJoint keeps the relative angle of two bodies between Min and Max.
type RotaryLimitJoint struct {
	*Constraint

	Min, Max float64

	iSum, bias, jAcc float64
}

func NewRotaryLimitJoint(min, max float64) *RotaryLimitJoint {
	return &RotaryLimitJoint{
		Min: min,
		Max: max,
	}
}

func (joint *RotaryLimitJoint) bind(c *Constraint) {
	joint.Constraint = c
}

func (joint *RotaryLimitJoint) preStep(dt float64) {
	a := joint.bodyA
	b := joint.bodyB

	dist := b.angle - a.angle
	pdist := 0.0
	if dist > joint.Max {
		pdist = joint.Max - dist
	} else if dist < joint.Min {
		pdist = joint.Min - dist
	}

	joint.iSum = safeInverse(a.momentInverse + b.momentInverse)

	maxBias := joint.maxBias
	joint.bias = clamp(-biasCoef(joint.errorBias, dt)*pdist/dt, -maxBias, maxBias)

	if joint.bias == 0 {
		joint.jAcc = 0
	}
}

func (joint *RotaryLimitJoint) applyCachedImpulse(dtCoef float64) {
	a := joint.bodyA
	b := joint.bodyB

	j := joint.jAcc * dtCoef
	a.w -= j * a.momentInverse
	b.w += j * b.momentInverse
}

func (joint *RotaryLimitJoint) applyImpulse(dt float64) {
	if joint.bias == 0 {
		return
	}

	a := joint.bodyA
	b := joint.bodyB

	wr := b.w - a.w

	jMax := joint.maxForce * dt

	j := -(joint.bias + wr) * joint.iSum
	jOld := joint.jAcc
	if joint.bias < 0 {
		joint.jAcc = clamp(jOld+j, 0, jMax)
	} else {
		joint.jAcc = clamp(jOld+j, -jMax, 0)
	}
	j = joint.jAcc - jOld

	a.w -= j * a.momentInverse
	b.w += j * b.momentInverse
}

func (joint *RotaryLimitJoint) Impulse() float64 {
	return math.Abs(joint.jAcc)
}
