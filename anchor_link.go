package rigid

import "github.com/setanarut/vec"

// anchorLink solves the velocity of two anchor points along a single axis.
// Pin and slide joints only differ in how they pick the axis and in the
// range of the accumulated impulse.
type anchorLink struct {
	r1, r2, n vec.Vec2
	nMass     float64
	jnAcc     float64
	bias      float64
}

// measure caches the lever arms of the anchors and returns the world vector
// from the anchor on a to the anchor on b.
func (l *anchorLink) measure(a, b *Body, anchorA, anchorB vec.Vec2) vec.Vec2 {
	l.r1 = a.transform.ApplyVector(anchorA.Sub(a.centerOfGravity))
	l.r2 = b.transform.ApplyVector(anchorB.Sub(b.centerOfGravity))
	return b.position.Add(l.r2).Sub(a.position.Add(l.r1))
}

// aim sets the axis and turns the positional error along it into a bias velocity.
func (l *anchorLink) aim(c *Constraint, n vec.Vec2, err, dt float64) {
	l.n = n
	l.nMass = safeInverse(kScalar(c.bodyA, c.bodyB, l.r1, l.r2, n))
	l.bias = clamp(-biasCoef(c.errorBias, dt)*err/dt, -c.maxBias, c.maxBias)
}

func (l *anchorLink) warmStart(c *Constraint, dtCoef float64) {
	applyImpulses(c.bodyA, c.bodyB, l.r1, l.r2, l.n.Scale(l.jnAcc*dtCoef))
}

// solve drives the velocity along the axis towards the bias. The accumulated
// impulse stays within [lo, hi].
func (l *anchorLink) solve(c *Constraint, lo, hi float64) {
	vrn := normalRelativeVelocity(c.bodyA, c.bodyB, l.r1, l.r2, l.n)
	jn := (l.bias - vrn) * l.nMass
	old := l.jnAcc
	l.jnAcc = clamp(old+jn, lo, hi)
	applyImpulses(c.bodyA, c.bodyB, l.r1, l.r2, l.n.Scale(l.jnAcc-old))
}
