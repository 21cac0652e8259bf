package rigid

import "math"

// DampedRotarySpring is an angular spring between two bodies.
type DampedRotarySpring struct {
	*Constraint

	RestAngle, Stiffness, Damping float64
	SpringTorqueFunc              func(spring *DampedRotarySpring, relativeAngle float64) float64

	targetWrn, wCoef float64
	iSum, jAcc       float64
}

func defaultSpringTorque(spring *DampedRotarySpring, relativeAngle float64) float64 {
	return (relativeAngle - spring.RestAngle) * spring.Stiffness
}

func NewDampedRotarySpring(restAngle, stiffness, damping float64) *DampedRotarySpring {
	return &DampedRotarySpring{
		RestAngle:        restAngle,
		Stiffness:        stiffness,
		Damping:          damping,
		SpringTorqueFunc: defaultSpringTorque,
	}
}

func (spring *DampedRotarySpring) bind(c *Constraint) {
	spring.Constraint = c
	if spring.SpringTorqueFunc == nil {
		spring.SpringTorqueFunc = defaultSpringTorque
	}
}

func (spring *DampedRotarySpring) preStep(dt float64) {
	a := spring.bodyA
	b := spring.bodyB

	moment := a.momentInverse + b.momentInverse
	spring.iSum = safeInverse(moment)

	spring.wCoef = 1.0 - math.Exp(-spring.Damping*dt*moment)
	spring.targetWrn = 0

	jSpring := spring.SpringTorqueFunc(spring, a.angle-b.angle) * dt
	spring.jAcc = jSpring

	a.w -= jSpring * a.momentInverse
	b.w += jSpring * b.momentInverse
}

func (spring *DampedRotarySpring) applyCachedImpulse(dtCoef float64) {}

func (spring *DampedRotarySpring) applyImpulse(dt float64) {
	a := spring.bodyA
	b := spring.bodyB

	wrn := a.w - b.w

	wDamp := (spring.targetWrn - wrn) * spring.wCoef
	spring.targetWrn = wrn + wDamp

	jDamp := wDamp * spring.iSum
	spring.jAcc += jDamp

	a.w += jDamp * a.momentInverse
	b.w -= jDamp * b.momentInverse
}

func (spring *DampedRotarySpring) Impulse() float64 {
	return spring.jAcc
}
