package rigid

import (
	"fmt"
	"math"
)

// Joint is the type specific part of a constraint: *PinJoint, *SlideJoint,
// *PivotJoint, *GrooveJoint, *DampedSpring, *DampedRotarySpring,
// *RotaryLimitJoint, *RatchetJoint, *GearJoint or *SimpleMotor.
//
// A Joint is handed to Space.CreateConstraint once; it is bound to the new
// Constraint there.
type Joint interface {
	// Impulse returns the most recent impulse the joint applied.
	Impulse() float64

	constraint() *Constraint
	bind(c *Constraint)
	preStep(dt float64)
	applyCachedImpulse(dtCoef float64)
	applyImpulse(dt float64)
}

// ConstraintPreSolveFunc is called before the solver runs.
type ConstraintPreSolveFunc func(*Constraint, *Space)

// ConstraintPostSolveFunc is called after the solver runs.
type ConstraintPostSolveFunc func(*Constraint, *Space)

// Constraint joins two bodies. Constraints are created with
// Space.CreateConstraint and refer to their bodies by id.
type Constraint struct {
	Class    Joint
	UserData any

	// PreSolve is called before the solver runs each step. It may change joint parameters.
	PreSolve ConstraintPreSolveFunc
	// PostSolve is called after the solver runs each step.
	PostSolve ConstraintPostSolveFunc

	id      ConstraintID
	space   *Space
	a, b    BodyID
	inSpace bool

	// resolved from a and b at creation, freeing a body frees its constraints
	bodyA, bodyB *Body

	maxForce, errorBias, maxBias float64

	collideBodies bool
}

func newConstraint(space *Space, joint Joint, a, b *Body) *Constraint {
	c := &Constraint{
		Class:         joint,
		space:         space,
		a:             a.id,
		b:             b.id,
		bodyA:         a,
		bodyB:         b,
		maxForce:      infinity,
		errorBias:     math.Pow(1.0-0.1, 60.0),
		maxBias:       infinity,
		collideBodies: true,
	}
	joint.bind(c)
	return c
}

func (c *Constraint) String() string {
	return fmt.Sprintf("%v %T (%v, %v)", c.id, c.Class, c.a, c.b)
}

func (c *Constraint) ID() ConstraintID {
	return c.id
}

func (c *Constraint) Space() *Space {
	return c.space
}

// InSpace reports whether the constraint takes part in the simulation.
func (c *Constraint) InSpace() bool {
	return c.inSpace
}

// Bodies returns the ids of the two constrained bodies.
func (c *Constraint) Bodies() (BodyID, BodyID) {
	return c.a, c.b
}

// BodyA returns the first body, nil if it was freed.
func (c *Constraint) BodyA() *Body {
	body, _ := c.space.bodies.get(c.a)
	return body
}

// BodyB returns the second body, nil if it was freed.
func (c *Constraint) BodyB() *Body {
	body, _ := c.space.bodies.get(c.b)
	return body
}

// MaxForce returns the maximum force the constraint can use to act on the two bodies.
func (c *Constraint) MaxForce() float64 {
	return c.maxForce
}

// SetMaxForce sets the maximum force. Defaults to infinity.
func (c *Constraint) SetMaxForce(max float64) error {
	if !(max >= 0) {
		return newError(InvalidGeometry, "SetMaxForce", "max force %v must be non-negative", max)
	}
	c.maxForce = max
	return nil
}

// MaxBias returns the maximum rate at which joint error is corrected.
func (c *Constraint) MaxBias() float64 {
	return c.maxBias
}

// SetMaxBias sets the maximum rate at which joint error is corrected. Defaults to infinity.
func (c *Constraint) SetMaxBias(max float64) error {
	if !(max >= 0) {
		return newError(InvalidGeometry, "SetMaxBias", "max bias %v must be non-negative", max)
	}
	c.maxBias = max
	return nil
}

// ErrorBias returns the fraction of joint error left uncorrected after one second.
func (c *Constraint) ErrorBias() float64 {
	return c.errorBias
}

// SetErrorBias sets the fraction of joint error left uncorrected after one
// second. Defaults to math.Pow(0.9, 60).
func (c *Constraint) SetErrorBias(errorBias float64) error {
	if !(errorBias >= 0) {
		return newError(InvalidGeometry, "SetErrorBias", "error bias %v must be non-negative", errorBias)
	}
	c.errorBias = errorBias
	return nil
}

func (c *Constraint) CollideBodies() bool {
	return c.collideBodies
}

// SetCollideBodies sets whether the two bodies may collide. Defaults to true.
func (c *Constraint) SetCollideBodies(collideBodies bool) {
	c.collideBodies = collideBodies
}

// Impulse returns the last impulse applied by the joint.
func (c *Constraint) Impulse() float64 {
	return c.Class.Impulse()
}

func (c *Constraint) constraint() *Constraint {
	return c
}

// joins reports whether the constraint connects a and b, in either order.
func (c *Constraint) joins(a, b BodyID) bool {
	return (c.a == a && c.b == b) || (c.a == b && c.b == a)
}
