package rigid

import "math"

// SimpleMotor keeps the relative angular velocity of two bodies at Rate.
type SimpleMotor struct {
	*Constraint

	Rate float64

	iSum, jAcc float64
}

func NewSimpleMotor(rate float64) *SimpleMotor {
	return &SimpleMotor{Rate: rate}
}

func (motor *SimpleMotor) bind(c *Constraint) {
	motor.Constraint = c
}

func (motor *SimpleMotor) preStep(dt float64) {
	a := motor.bodyA
	b := motor.bodyB

	// moment of inertia coefficient
	motor.iSum = safeInverse(a.momentInverse + b.momentInverse)
}

func (motor *SimpleMotor) applyCachedImpulse(dtCoef float64) {
	a := motor.bodyA
	b := motor.bodyB

	j := motor.jAcc * dtCoef
	a.w -= j * a.momentInverse
	b.w += j * b.momentInverse
}

func (motor *SimpleMotor) applyImpulse(dt float64) {
	a := motor.bodyA
	b := motor.bodyB

	wr := b.w - a.w + motor.Rate

	jMax := motor.maxForce * dt

	j := -wr * motor.iSum
	jOld := motor.jAcc
	motor.jAcc = clamp(jOld+j, -jMax, jMax)
	j = motor.jAcc - jOld

	a.w -= j * a.momentInverse
	b.w += j * b.momentInverse
}

func (motor *SimpleMotor) Impulse() float64 {
	return math.Abs(motor.jAcc)
}
