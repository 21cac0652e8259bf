package rigid

import (
	"math"

	"github.com/setanarut/vec"
)

type DampedSpringForceFunc func(spring *DampedSpring, dist float64) float64

// DampedSpring is a linear spring between two anchor points.
type DampedSpring struct {
	*Constraint

	AnchorA, AnchorB               vec.Vec2
	RestLength, Stiffness, Damping float64
	SpringForceFunc                DampedSpringForceFunc

	targetVrn, vCoef float64

	r1, r2 vec.Vec2
	nMass  float64
	n      vec.Vec2

	jAcc float64
}

func NewDampedSpring(anchorA, anchorB vec.Vec2, restLength, stiffness, damping float64) *DampedSpring {
	return &DampedSpring{
		AnchorA:         anchorA,
		AnchorB:         anchorB,
		RestLength:      restLength,
		Stiffness:       stiffness,
		Damping:         damping,
		SpringForceFunc: DefaultSpringForce,
	}
}

func (spring *DampedSpring) bind(c *Constraint) {
	spring.Constraint = c
	if spring.SpringForceFunc == nil {
		spring.SpringForceFunc = DefaultSpringForce
	}
}

func (spring *DampedSpring) preStep(dt float64) {
	a := spring.bodyA
	b := spring.bodyB

	spring.r1 = a.transform.ApplyVector(spring.AnchorA.Sub(a.centerOfGravity))
	spring.r2 = b.transform.ApplyVector(spring.AnchorB.Sub(b.centerOfGravity))

	delta := b.position.Add(spring.r2).Sub(a.position.Add(spring.r1))
	dist := delta.Mag()
	if dist != 0 {
		spring.n = delta.Scale(1.0 / dist)
	} else {
		spring.n = vec.Vec2{}
	}

	k := kScalar(a, b, spring.r1, spring.r2, spring.n)
	spring.nMass = safeInverse(k)

	spring.targetVrn = 0
	spring.vCoef = 1.0 - math.Exp(-spring.Damping*dt*k)

	fSpring := spring.SpringForceFunc(spring, dist)
	spring.jAcc = fSpring * dt
	applyImpulses(a, b, spring.r1, spring.r2, spring.n.Scale(spring.jAcc))
}

func (spring *DampedSpring) applyCachedImpulse(dtCoef float64) {}

func (spring *DampedSpring) applyImpulse(dt float64) {
	a := spring.bodyA
	b := spring.bodyB

	n := spring.n
	r1 := spring.r1
	r2 := spring.r2

	vrn := normalRelativeVelocity(a, b, r1, r2, n)

	vDamp := (spring.targetVrn - vrn) * spring.vCoef
	spring.targetVrn = vrn + vDamp

	jDamp := vDamp * spring.nMass
	spring.jAcc += jDamp
	applyImpulses(a, b, spring.r1, spring.r2, spring.n.Scale(jDamp))
}

func (spring *DampedSpring) Impulse() float64 {
	return spring.jAcc
}

// DefaultSpringForce is Hooke's law.
func DefaultSpringForce(spring *DampedSpring, dist float64) float64 {
	return (spring.RestLength - dist) * spring.Stiffness
}
