package rigid

import "math"

// solve runs the sequential impulse solver for one step.
//
// Arbiters are visited before constraints, both in the order given, so the
// result only depends on insertion and discovery order. dtCoef scales the
// impulses cached from the previous step, 0 disables warm starting.
func solve(constraints []*Constraint, arbiters []*Arbiter, dt, dtCoef float64, iterations uint, slop, bias float64) {
	// Prestep the arbiters and constraints.
	for _, arb := range arbiters {
		arb.preStep(dt, slop, bias)
	}
	for _, c := range constraints {
		c.Class.preStep(dt)
	}

	// Apply cached impulses
	for _, arb := range arbiters {
		arb.applyCachedImpulse(dtCoef)
	}
	for _, c := range constraints {
		c.Class.applyCachedImpulse(dtCoef)
	}

	// Run the impulse solver.
	for range iterations {
		for _, arb := range arbiters {
			arb.applyImpulse()
		}
		for _, c := range constraints {
			c.Class.applyImpulse(dt)
		}
	}
}

// collisionBiasCoef converts the fraction of overlap left after one second
// into the fraction corrected in one step of length dt.
func collisionBiasCoef(collisionBias, dt float64) float64 {
	return 1 - math.Pow(collisionBias, dt)
}
