package rigid

import (
	"fmt"
	"math"
	"slices"

	"github.com/setanarut/vec"
)

// BodyType for bodies; Dynamic, Kinematic or Static
type BodyType uint8

const (
	// Dynamic bodies are moved by forces, gravity and collisions.
	Dynamic BodyType = iota
	// Kinematic bodies move with the velocity you give them and are never pushed back.
	Kinematic
	// Static bodies never move on their own.
	Static
)

func (t BodyType) String() string {
	switch t {
	case Dynamic:
		return "dynamic"
	case Kinematic:
		return "kinematic"
	case Static:
		return "static"
	default:
		return fmt.Sprintf("BodyType(%d)", uint8(t))
	}
}

// BodyVelocityFunc is rigid body velocity update function type.
type BodyVelocityFunc func(body *Body, gravity vec.Vec2, damping float64, dt float64)

// BodyPositionFunc is rigid body position update function type.
type BodyPositionFunc func(body *Body, dt float64)

// Body is a rigid body. Bodies are created with Space.CreateBody and friends
// and belong to the space that created them.
type Body struct {
	// UserData is an object that this body is associated with.
	//
	// You can use this get a reference to your game object or controller object from within callbacks.
	UserData any

	id          BodyID
	space       *Space
	kind        BodyType
	shapes      []ShapeID
	constraints []ConstraintID
	inSpace     bool
	moved       bool

	velocityFunc    BodyVelocityFunc // Integration function
	positionFunc    BodyPositionFunc // Integration function
	mass            float64          // Mass
	massInverse     float64          // Mass inverse
	moment          float64          // Moment of inertia
	momentInverse   float64          // Inverse of moment of inertia
	angle           float64          // Angle (radians)
	w               float64          // Angular velocity
	torque          float64          // Torque
	centerOfGravity vec.Vec2         // Center of gravity
	position        vec.Vec2         // Position of the center of gravity
	velocity        vec.Vec2         // Velocity
	force           vec.Vec2         // Force
	transform       Transform
	vBias           vec.Vec2 // "pseudo-velocities" used for eliminating overlap. (Erin Catto)
	wBias           float64  // "pseudo-velocities" used for eliminating overlap. (Erin Catto)

	velocityLimit        float64
	angularVelocityLimit float64

	// Sleeping bodies form a list through sleepingNext that starts at
	// sleepingRoot. Awake bodies only hold these while the space builds
	// its components.
	sleepingRoot     *Body
	sleepingNext     *Body
	sleepingIdleTime float64
}

func newBody(space *Space, kind BodyType, mass, moment float64) *Body {
	body := &Body{
		space:        space,
		kind:         kind,
		transform:    NewTransformIdentity(),
		velocityFunc: BodyUpdateVelocity,
		positionFunc: BodyUpdatePosition,

		velocityLimit:        infinity,
		angularVelocityLimit: infinity,
	}
	if kind == Dynamic {
		body.setMass(mass)
		body.setMoment(moment)
	} else {
		body.setInfiniteMass()
	}
	return body
}

// String returns body id as string
func (body *Body) String() string {
	return fmt.Sprint(body.id, ", Shapes ", body.shapes)
}

// ID returns the id of the body.
func (body *Body) ID() BodyID {
	return body.id
}

// Space returns the space that created the body.
func (body *Body) Space() *Space {
	return body.space
}

// InSpace reports whether the body takes part in the simulation.
func (body *Body) InSpace() bool {
	return body.inSpace
}

// Type returns the type of the body.
func (body *Body) Type() BodyType {
	return body.kind
}

// SetType sets the type of the body. It fails while the space is locked.
func (body *Body) SetType(bt BodyType) error {
	oldType := body.kind
	if oldType == bt {
		return nil
	}
	if body.inSpace && body.space.locked > 0 {
		return errLocked("SetType")
	}
	body.Activate()

	body.kind = bt
	if bt == Dynamic {
		body.mass = 0
		body.moment = 0
		body.massInverse = infinity
		body.momentInverse = infinity

		body.AccumulateMassFromShapes()
		if body.inSpace && !body.validMass() {
			body.kind = oldType
			body.setInfiniteMass()
			return newError(InvalidGeometry, "SetType", "%v has no mass, give its shapes a mass or density first", body.id)
		}
	} else {
		body.setInfiniteMass()
		body.velocity = vec.Vec2{}
		body.w = 0
	}

	if body.inSpace {
		body.space.bodyTypeChanged(body, oldType)
	}
	return nil
}

func (body *Body) setInfiniteMass() {
	body.mass = infinity
	body.moment = infinity
	body.massInverse = 0
	body.momentInverse = 0
}

// Mass returns mass of the body
func (body *Body) Mass() float64 {
	return body.mass
}

// SetMass sets mass of a dynamic body.
func (body *Body) SetMass(mass float64) error {
	if body.kind != Dynamic {
		return newError(InvalidGeometry, "SetMass", "%v body has infinite mass", body.kind)
	}
	if !(mass > 0) || !isFinite(mass) {
		return newError(InvalidGeometry, "SetMass", "mass %v must be positive", mass)
	}
	body.Activate()
	body.setMass(mass)
	return nil
}

func (body *Body) setMass(mass float64) {
	body.mass = mass
	body.massInverse = 1 / mass
}

// Moment returns moment of inertia of the body.
func (body *Body) Moment() float64 {
	return body.moment
}

// SetMoment sets moment of inertia of a dynamic body.
func (body *Body) SetMoment(moment float64) error {
	if body.kind != Dynamic {
		return newError(InvalidGeometry, "SetMoment", "%v body has infinite moment", body.kind)
	}
	if !(moment > 0) || !isFinite(moment) {
		return newError(InvalidGeometry, "SetMoment", "moment %v must be positive", moment)
	}
	body.Activate()
	body.setMoment(moment)
	return nil
}

func (body *Body) setMoment(moment float64) {
	body.moment = moment
	body.momentInverse = 1 / moment
}

// validMass reports whether a dynamic body can be simulated.
func (body *Body) validMass() bool {
	if body.kind != Dynamic {
		return true
	}
	return body.mass > 0 && isFinite(body.mass) && body.moment > 0 && isFinite(body.moment)
}

// AccumulateMassFromShapes recomputes mass, moment and center of gravity of
// a dynamic body from the shapes that have mass.
//
// A dynamic body in the space must keep a positive mass and moment. When the
// shapes no longer provide one, the previous mass is kept and an
// InvalidGeometry error is returned.
func (body *Body) AccumulateMassFromShapes() error {
	if body.kind != Dynamic {
		return nil
	}

	prevMass, prevMoment, prevCog := body.mass, body.moment, body.centerOfGravity

	body.mass = 0
	body.moment = 0
	body.centerOfGravity = vec.Vec2{}

	// cache position, realign at the end
	pos := body.Position()

	for _, id := range body.shapes {
		shape, ok := body.space.shapes.get(id)
		if !ok {
			continue
		}
		info := shape.massInfo
		m := info.m

		if m > 0 {
			msum := body.mass + m
			body.moment += m*info.i + distSq(body.centerOfGravity, info.cog)*(m*body.mass)/msum
			body.centerOfGravity = body.centerOfGravity.Lerp(info.cog, m/msum)
			body.mass = msum
		}
	}

	var err error
	if body.inSpace && !body.validMass() {
		body.mass, body.moment, body.centerOfGravity = prevMass, prevMoment, prevCog
		err = newError(InvalidGeometry, "AccumulateMassFromShapes",
			"%v would be left with mass %v and moment %v", body.id, body.mass, body.moment)
	}

	body.massInverse = 1.0 / body.mass
	body.momentInverse = 1.0 / body.moment

	body.SetPosition(pos)
	return err
}

// CenterOfGravity returns the offset of the center of gravity in body local coordinates.
func (body *Body) CenterOfGravity() vec.Vec2 {
	return body.centerOfGravity
}

// SetCenterOfGravity sets the offset of the center of gravity in body local coordinates.
func (body *Body) SetCenterOfGravity(cog vec.Vec2) {
	body.centerOfGravity = cog
	body.SetTransform(body.position, body.angle)
}

// Angle returns the angle of the body.
func (body *Body) Angle() float64 {
	return body.angle
}

// SetAngle sets the angle of body.
func (body *Body) SetAngle(angle float64) {
	body.Activate()
	body.angle = angle
	body.SetTransform(body.position, angle)
	body.markMoved()
}

// Rotation returns the rotation vector of the body.
//
// (The x basis vector of it's transform.)
func (body *Body) Rotation() vec.Vec2 {
	return vec.Vec2{X: body.transform.a, Y: body.transform.b}
}

// Position returns the position of the body.
func (body *Body) Position() vec.Vec2 {
	return body.transform.Apply(vec.Vec2{})
}

// SetPosition sets the position of the body.
func (body *Body) SetPosition(position vec.Vec2) {
	body.Activate()
	body.position = body.transform.ApplyVector(body.centerOfGravity).Add(position)
	body.SetTransform(body.position, body.angle)
	body.markMoved()
}

func (body *Body) markMoved() {
	if body.inSpace {
		body.space.bodyMoved(body)
	}
}

// Velocity returns the velocity of the body.
func (body *Body) Velocity() vec.Vec2 {
	return body.velocity
}

// SetVelocity sets the velocity of the body.
//
// Shorthand for Body.SetVelocityVector()
func (body *Body) SetVelocity(x, y float64) {
	body.SetVelocityVector(vec.Vec2{X: x, Y: y})
}

// SetVelocityVector sets the velocity of the body
func (body *Body) SetVelocityVector(v vec.Vec2) {
	if body.kind == Static {
		return
	}
	body.Activate()
	body.velocity = v
}

// Force returns the force applied to the body for the next time step.
func (body *Body) Force() vec.Vec2 {
	return body.force
}

// SetForce sets the force applied to the body for the next time step.
func (body *Body) SetForce(force vec.Vec2) {
	body.Activate()
	body.force = force
}

// Torque returns the torque applied to the body for the next time step.
func (body *Body) Torque() float64 {
	return body.torque
}

// SetTorque sets the torque applied to the body for the next time step.
func (body *Body) SetTorque(torque float64) {
	body.Activate()
	body.torque = torque
}

// AngularVelocity returns the angular velocity of the body.
func (body *Body) AngularVelocity() float64 {
	return body.w
}

// SetAngularVelocity sets the angular velocity of the body.
func (body *Body) SetAngularVelocity(angularVelocity float64) {
	if body.kind == Static {
		return
	}
	body.Activate()
	body.w = angularVelocity
}

// SetTransform sets transform from the position of the center of gravity and the angle.
func (body *Body) SetTransform(p vec.Vec2, a float64) {
	rot := vec.Vec2{X: math.Cos(a), Y: math.Sin(a)}
	c := body.centerOfGravity

	body.transform = NewTransformTranspose(
		rot.X, -rot.Y, p.X-(c.X*rot.X-c.Y*rot.Y),
		rot.Y, rot.X, p.Y-(c.X*rot.Y+c.Y*rot.X),
	)
}

// Transform returns body's transform
func (body *Body) Transform() Transform {
	return body.transform
}

// KineticEnergy returns the kinetic energy of this body.
func (body *Body) KineticEnergy() float64 {
	// Need to do some fudging to avoid NaNs
	vsq := body.velocity.Dot(body.velocity)
	wsq := body.w * body.w
	var a, b float64
	if vsq != 0 {
		a = vsq * body.mass
	}
	if wsq != 0 {
		b = wsq * body.moment
	}
	return a + b
}

// WorldToLocal converts from world to body local Coordinates.
func (body *Body) WorldToLocal(point vec.Vec2) vec.Vec2 {
	return NewTransformRigidInverse(body.transform).Apply(point)
}

// LocalToWorld converts from body local to world coordinates.
func (body *Body) LocalToWorld(point vec.Vec2) vec.Vec2 {
	return body.transform.Apply(point)
}

// ApplyForceAtWorldPoint applies a force at world point.
func (body *Body) ApplyForceAtWorldPoint(force, point vec.Vec2) {
	body.Activate()
	body.force = body.force.Add(force)

	r := point.Sub(body.transform.Apply(body.centerOfGravity))
	body.torque += r.Cross(force)
}

// ApplyForceAtLocalPoint applies a force at local point.
func (body *Body) ApplyForceAtLocalPoint(force, point vec.Vec2) {
	body.ApplyForceAtWorldPoint(body.transform.ApplyVector(force), body.transform.Apply(point))
}

// ApplyImpulseAtWorldPoint applies impulse at world point
func (body *Body) ApplyImpulseAtWorldPoint(impulse, point vec.Vec2) {
	body.Activate()
	r := point.Sub(body.transform.Apply(body.centerOfGravity))
	applyImpulse(body, impulse, r)
}

// ApplyImpulseAtLocalPoint applies impulse at local point
func (body *Body) ApplyImpulseAtLocalPoint(impulse, point vec.Vec2) {
	body.ApplyImpulseAtWorldPoint(body.transform.ApplyVector(impulse), body.transform.Apply(point))
}

// VelocityAtLocalPoint returns the world velocity of a point given in body local coordinates.
func (body *Body) VelocityAtLocalPoint(point vec.Vec2) vec.Vec2 {
	r := body.transform.ApplyVector(point.Sub(body.centerOfGravity))
	return body.velocity.Add(perp(r).Scale(body.w))
}

// VelocityAtWorldPoint returns the world velocity of a point given in world coordinates.
func (body *Body) VelocityAtWorldPoint(point vec.Vec2) vec.Vec2 {
	r := point.Sub(body.transform.Apply(body.centerOfGravity))
	return body.velocity.Add(perp(r).Scale(body.w))
}

// VelocityLimit returns the maximum speed the velocity integration leaves the body with.
func (body *Body) VelocityLimit() float64 {
	return body.velocityLimit
}

// SetVelocityLimit sets the maximum speed of the body. Defaults to MaxFloat64.
func (body *Body) SetVelocityLimit(limit float64) error {
	if !(limit >= 0) {
		return newError(InvalidGeometry, "SetVelocityLimit", "limit %v must not be negative", limit)
	}
	body.velocityLimit = limit
	return nil
}

// AngularVelocityLimit returns the maximum rotational rate in radians per second.
func (body *Body) AngularVelocityLimit() float64 {
	return body.angularVelocityLimit
}

// SetAngularVelocityLimit sets the maximum rotational rate of the body. Defaults to MaxFloat64.
func (body *Body) SetAngularVelocityLimit(limit float64) error {
	if !(limit >= 0) {
		return newError(InvalidGeometry, "SetAngularVelocityLimit", "limit %v must not be negative", limit)
	}
	body.angularVelocityLimit = limit
	return nil
}

// IsSleeping returns true if the body is sleeping.
func (body *Body) IsSleeping() bool {
	return body.sleepingRoot != nil
}

// Activate wakes the body up, together with every body it was sleeping with,
// and resets its idle timer. Changing a body through its setters or applying
// forces and impulses activates it.
func (body *Body) Activate() {
	if body.kind != Dynamic {
		return
	}
	body.sleepingIdleTime = 0
	if root := body.sleepingRoot; root != nil && body.space != nil {
		body.space.wakeComponent(root)
	}
}

// componentAdd links body into the component of root.
func (root *Body) componentAdd(body *Body) {
	body.sleepingRoot = root
	if body != root {
		body.sleepingNext = root.sleepingNext
		root.sleepingNext = body
	}
}

// Shapes returns the ids of the shapes attached to the body.
func (body *Body) Shapes() []ShapeID {
	return slices.Clone(body.shapes)
}

// Constraints returns the ids of the constraints attached to the body.
func (body *Body) Constraints() []ConstraintID {
	return slices.Clone(body.constraints)
}

func (body *Body) attachShape(shape *Shape) {
	body.shapes = append(body.shapes, shape.id)
	if shape.massInfo.m > 0 {
		body.AccumulateMassFromShapes()
	}
}

// detachShape takes shape off the body. It fails, leaving the body as it
// was, when shape carries the last mass of a dynamic body in the space.
func (body *Body) detachShape(shape *Shape) error {
	shapes := body.shapes
	body.shapes = slices.DeleteFunc(slices.Clone(shapes), func(id ShapeID) bool {
		return id == shape.id
	})
	if body.kind != Dynamic || shape.massInfo.m <= 0 {
		return nil
	}
	if err := body.AccumulateMassFromShapes(); err != nil {
		body.shapes = shapes
		return err
	}
	return nil
}

func (body *Body) attachConstraint(id ConstraintID) {
	body.constraints = append(body.constraints, id)
}

func (body *Body) detachConstraint(id ConstraintID) {
	body.constraints = slices.DeleteFunc(body.constraints, func(c ConstraintID) bool {
		return c == id
	})
}

// SetVelocityUpdateFunc sets the callback used to update a body's velocity.
func (body *Body) SetVelocityUpdateFunc(f BodyVelocityFunc) {
	body.velocityFunc = f
}

// SetPositionUpdateFunc sets the callback used to update a body's position.
func (body *Body) SetPositionUpdateFunc(f BodyPositionFunc) {
	body.positionFunc = f
}

// EachArbiter calls f once for each arbiter that is currently active on the body.
// The body is always the first body of the arbiter during the call.
func (body *Body) EachArbiter(f func(*Arbiter)) {
	for _, arb := range slices.Clone(body.space.arbiters) {
		if arb.bodyA != body && arb.bodyB != body {
			continue
		}
		swapped := arb.swapped

		arb.swapped = body == arb.bodyB
		f(arb)

		arb.swapped = swapped
	}
}

// EachShape calls f once for each shape attached to this body
func (body *Body) EachShape(f func(*Shape)) {
	for _, id := range slices.Clone(body.shapes) {
		if shape, ok := body.space.shapes.get(id); ok {
			f(shape)
		}
	}
}

// EachConstraint calls f once for each constraint attached to this body
func (body *Body) EachConstraint(f func(*Constraint)) {
	for _, id := range slices.Clone(body.constraints) {
		if c, ok := body.space.constraints.get(id); ok {
			f(c)
		}
	}
}

// BodyUpdateVelocity is default velocity integration function.
func BodyUpdateVelocity(body *Body, gravity vec.Vec2, damping, dt float64) {
	if body.kind != Dynamic {
		return
	}

	v := body.velocity.Scale(damping).Add(gravity.Add(body.force.Scale(body.massInverse)).Scale(dt))
	body.velocity = clampMag(v, body.velocityLimit)
	wLimit := body.angularVelocityLimit
	body.w = clamp(body.w*damping+body.torque*body.momentInverse*dt, -wLimit, wLimit)

	body.force = vec.Vec2{}
	body.torque = 0
}

// BodyUpdatePosition is default position integration function.
func BodyUpdatePosition(body *Body, dt float64) {
	body.position = body.position.Add(body.velocity.Add(body.vBias).Scale(dt))
	body.angle = body.angle + (body.w+body.wBias)*dt
	body.SetTransform(body.position, body.angle)

	body.vBias = vec.Vec2{}
	body.wBias = 0
}

func applyImpulses(a, b *Body, r1, r2, j vec.Vec2) {
	applyImpulse(a, j.Neg(), r1)
	applyImpulse(b, j, r2)
}

func applyImpulse(body *Body, j, r vec.Vec2) {
	body.velocity.X += j.X * body.massInverse
	body.velocity.Y += j.Y * body.massInverse
	body.w += body.momentInverse * r.Cross(j)
}

func applyBiasImpulses(a, b *Body, r1, r2, j vec.Vec2) {
	applyBiasImpulse(a, j.Neg(), r1)
	applyBiasImpulse(b, j, r2)
}

func applyBiasImpulse(body *Body, j, r vec.Vec2) {
	body.vBias.X += j.X * body.massInverse
	body.vBias.Y += j.Y * body.massInverse
	body.wBias += body.momentInverse * r.Cross(j)
}
