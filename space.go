package rigid

import (
	"errors"
	"fmt"
	"log"
	"math"
	"slices"

	"github.com/setanarut/vec"
)

var defaultCollisionBias = math.Pow(0.9, 60)

// Space is the simulation world. It owns every body, shape and constraint it
// creates; the rest of the API refers to them by id.
//
// A Space is not safe for concurrent use. Separate spaces share nothing and
// may be stepped from different goroutines.
type Space struct {
	UserData any

	// Iterations is number of iterations to use in the impulse solver to solve
	// contacts and other constrain. Must be non-zero.
	Iterations uint

	// Gravity to pass to rigid bodies when integrating velocity. Use
	// SetGravity to also wake the sleeping bodies.
	Gravity vec.Vec2

	// Damping rate expressed as the fraction of velocity bodies retain each second.
	//
	// A value of 0.9 would mean that each body's velocity will drop 10% per second.
	// The default value is 1.0, meaning no Damping is applied.
	// @note This Damping value is different than those of DampedSpring and DampedRotarySpring.
	Damping float64

	// CollisionSlop is amount of encouraged penetration between colliding shapes.
	//
	// Used to reduce oscillating contacts and keep the collision cache warm.
	// Defaults to 0.1. If you have poor simulation quality,
	// increase this number as much as possible without allowing visible amounts of overlap.
	CollisionSlop float64

	// CollisionBias determines how fast overlapping shapes are pushed apart.
	//
	// Expressed as a fraction of the error remaining after each second.
	// Defaults to math.Pow(0.9, 60) meaning that 10% of overlap is fixed each frame at 60Hz.
	CollisionBias float64

	// Number of steps that contact information should persist after the
	// shapes stopped touching. Defaults to 3.
	CollisionPersistence uint

	// SleepTimeThreshold is the time a group of bodies must remain idle in
	// order to fall asleep. The default of MaxFloat64 disables sleeping.
	SleepTimeThreshold float64

	// IdleSpeedThreshold is the speed under which a body counts as idle. 0
	// derives it from the gravity and the time step.
	IdleSpeedThreshold float64

	// Logger receives callback failures. Defaults to log.Default().
	Logger *log.Logger

	// OnCallbackError is called with every recovered callback panic, wrapped
	// in an *Error of kind CallbackFailure.
	OnCallbackError func(error)

	bodies      arena[BodyID, Body]
	shapes      arena[ShapeID, Shape]
	constraints arena[ConstraintID, Constraint]

	// in-space entities in insertion order
	dynamicBodies  []*Body // dynamic and kinematic
	staticBodies   []*Body
	constraintList []*Constraint
	staticBody     BodyID

	// roots of the sleeping components
	sleepingComponents []*Body
	// constraints with at least one awake body, rebuilt every step
	activeConstraints []*Constraint

	staticShapes  *BBTree
	dynamicShapes *BBTree

	cachedArbiters *arbiterSet
	// arbiters touching this step, in discovery order
	arbiters []*Arbiter
	solving  []*Arbiter

	handlers       map[handlerKey]*CollisionHandler
	defaultHandler *CollisionHandler

	postStepCallbacks []*postStepCallback
	runningPostStep   bool

	locked      int
	movedBodies []*Body
	stamp       uint
	currDT      float64
}

// NewSpace allocates and initializes a Space with DefaultConfig.
func NewSpace() *Space {
	space, _ := NewSpaceWithConfig(DefaultConfig())
	return space
}

// NewSpaceWithConfig returns a Space tuned by cfg.
func NewSpaceWithConfig(cfg Config) (*Space, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	space := &Space{
		Iterations:           cfg.Iterations,
		Gravity:              cfg.Gravity.Vec2(),
		Damping:              cfg.Damping,
		CollisionSlop:        cfg.CollisionSlop,
		CollisionBias:        cfg.CollisionBias,
		CollisionPersistence: cfg.CollisionPersistence,
		SleepTimeThreshold:   cfg.SleepTimeThreshold,
		IdleSpeedThreshold:   cfg.IdleSpeedThreshold,
		Logger:               log.Default(),
		bodies:               newArena[BodyID, Body](),
		shapes:               newArena[ShapeID, Shape](),
		constraints:          newArena[ConstraintID, Constraint](),
		staticShapes:         NewBBTree(false, 0),
		dynamicShapes:        NewBBTree(true, cfg.RebuildThreshold),
		cachedArbiters:       newArbiterSet(),
		handlers:             make(map[handlerKey]*CollisionHandler),
		defaultHandler:       &CollisionHandler{},
	}
	space.initStaticBody()
	return space, nil
}

func (s *Space) initStaticBody() {
	body := newBody(s, Static, 0, 0)
	body.id = s.bodies.alloc(body)
	body.inSpace = true
	s.staticBodies = append(s.staticBodies, body)
	s.staticBody = body.id
}

// StaticBody returns the id of the static body every space provides for
// anchoring joints and static shapes.
func (s *Space) StaticBody() BodyID {
	return s.staticBody
}

// Body returns the body with the given id.
func (s *Space) Body(id BodyID) (*Body, error) {
	body, ok := s.bodies.get(id)
	if !ok {
		return nil, newError(InvalidHandle, "Body", "unknown %v", id)
	}
	return body, nil
}

// Shape returns the shape with the given id.
func (s *Space) Shape(id ShapeID) (*Shape, error) {
	shape, ok := s.shapes.get(id)
	if !ok {
		return nil, newError(InvalidHandle, "Shape", "unknown %v", id)
	}
	return shape, nil
}

// Constraint returns the constraint with the given id.
func (s *Space) Constraint(id ConstraintID) (*Constraint, error) {
	c, ok := s.constraints.get(id)
	if !ok {
		return nil, newError(InvalidHandle, "Constraint", "unknown %v", id)
	}
	return c, nil
}

// CreateBody creates a dynamic body. A body created with mass and moment 0
// takes both from the shapes attached to it.
func (s *Space) CreateBody(mass, moment float64) BodyID {
	body := newBody(s, Dynamic, mass, moment)
	body.id = s.bodies.alloc(body)
	return body.id
}

// CreateKinematicBody creates a body that is moved only by its velocity.
func (s *Space) CreateKinematicBody() BodyID {
	body := newBody(s, Kinematic, 0, 0)
	body.id = s.bodies.alloc(body)
	return body.id
}

// CreateStaticBody creates a body that never moves on its own.
func (s *Space) CreateStaticBody() BodyID {
	body := newBody(s, Static, 0, 0)
	body.id = s.bodies.alloc(body)
	return body.id
}

// CreateShape builds the geometry g, attaches it to body and returns its id.
// The shape takes part in the simulation once it is added with Add.
func (s *Space) CreateShape(body BodyID, g Geometry, filter ShapeFilter) (ShapeID, error) {
	b, ok := s.bodies.get(body)
	if !ok {
		return 0, newError(InvalidHandle, "CreateShape", "unknown %v", body)
	}
	if g == nil {
		return 0, newError(InvalidGeometry, "CreateShape", "nil geometry")
	}

	shape := &Shape{
		Filter: filter,
		body:   body,
		space:  s,
	}
	class, err := g.build(shape)
	if err != nil {
		return 0, err
	}
	shape.Class = class
	shape.id = s.shapes.alloc(shape)
	shape.update(b.transform)
	b.attachShape(shape)
	return shape.id, nil
}

// CreateConstraint binds joint to the bodies a and b and returns the id of
// the new constraint. Joint parameters that depend on the body positions,
// like the PinJoint distance, are measured now.
func (s *Space) CreateConstraint(a, b BodyID, joint Joint) (ConstraintID, error) {
	bodyA, ok := s.bodies.get(a)
	if !ok {
		return 0, newError(InvalidHandle, "CreateConstraint", "unknown %v", a)
	}
	bodyB, ok := s.bodies.get(b)
	if !ok {
		return 0, newError(InvalidHandle, "CreateConstraint", "unknown %v", b)
	}
	if a == b {
		return 0, newError(InvalidGeometry, "CreateConstraint", "%v is constrained to itself", a)
	}
	if joint == nil {
		return 0, newError(InvalidGeometry, "CreateConstraint", "nil joint")
	}
	if joint.constraint() != nil {
		return 0, newError(InvalidGeometry, "CreateConstraint", "joint already belongs to %v", joint.constraint().id)
	}

	c := newConstraint(s, joint, bodyA, bodyB)
	c.id = s.constraints.alloc(c)
	bodyA.attachConstraint(c.id)
	bodyB.attachConstraint(c.id)
	return c.id, nil
}

// Add puts bodies, shapes and constraints into the simulation. Adding a body
// also adds the shapes attached to it. A shape needs its body and a
// constraint needs both bodies in the space first.
//
// Add fails with ReentrancyViolation while the space is locked.
func (s *Space) Add(handles ...Handle) error {
	if s.locked > 0 {
		return errLocked("Add")
	}
	var errs []error
	for _, h := range handles {
		var err error
		switch id := h.(type) {
		case BodyID:
			err = s.addBody(id)
		case ShapeID:
			err = s.addShape(id)
		case ConstraintID:
			err = s.addConstraint(id)
		default:
			err = newError(InvalidHandle, "Add", "unsupported handle %v", h)
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Space) addBody(id BodyID) error {
	body, ok := s.bodies.get(id)
	if !ok {
		return newError(InvalidHandle, "AddBody", "unknown %v", id)
	}
	if body.inSpace {
		return newError(InvalidHandle, "AddBody", "%v already added", id)
	}
	if !body.validMass() {
		return newError(InvalidGeometry, "AddBody", "%v needs a positive mass and moment, got %v and %v", id, body.mass, body.moment)
	}

	if body.kind == Static {
		s.staticBodies = append(s.staticBodies, body)
	} else {
		s.dynamicBodies = append(s.dynamicBodies, body)
	}
	body.inSpace = true

	var errs []error
	for _, shapeID := range body.shapes {
		if shape, ok := s.shapes.get(shapeID); ok && !shape.inSpace {
			errs = append(errs, s.addShape(shapeID))
		}
	}
	return errors.Join(errs...)
}

func (s *Space) addShape(id ShapeID) error {
	shape, ok := s.shapes.get(id)
	if !ok {
		return newError(InvalidHandle, "AddShape", "unknown %v", id)
	}
	if shape.inSpace {
		return newError(InvalidHandle, "AddShape", "%v already added", id)
	}
	body, ok := s.bodies.get(shape.body)
	if !ok || !body.inSpace {
		return newError(InvalidHandle, "AddShape", "body of %v is not in the space", id)
	}

	body.Activate()
	bb := shape.update(body.transform)
	if err := s.indexFor(body).Insert(id, bb, body.velocity); err != nil {
		return err
	}
	shape.inSpace = true
	return nil
}

func (s *Space) addConstraint(id ConstraintID) error {
	c, ok := s.constraints.get(id)
	if !ok {
		return newError(InvalidHandle, "AddConstraint", "unknown %v", id)
	}
	if c.inSpace {
		return newError(InvalidHandle, "AddConstraint", "%v already added", id)
	}
	if !c.bodyA.inSpace || !c.bodyB.inSpace {
		return newError(InvalidHandle, "AddConstraint", "bodies of %v are not in the space", id)
	}
	c.bodyA.Activate()
	c.bodyB.Activate()
	s.constraintList = append(s.constraintList, c)
	c.inSpace = true
	return nil
}

// Remove takes bodies, shapes and constraints out of the simulation. They
// stay valid and may be added again. Removing a body also removes its shapes
// and constraints. Removing a touching shape fires its separate callbacks.
//
// Remove fails with ReentrancyViolation while the space is locked.
func (s *Space) Remove(handles ...Handle) error {
	if s.locked > 0 {
		return errLocked("Remove")
	}
	var errs []error
	for _, h := range handles {
		var err error
		switch id := h.(type) {
		case BodyID:
			err = s.removeBody(id)
		case ShapeID:
			err = s.removeShape(id)
		case ConstraintID:
			err = s.removeConstraint(id)
		default:
			err = newError(InvalidHandle, "Remove", "unsupported handle %v", h)
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Space) removeBody(id BodyID) error {
	body, ok := s.bodies.get(id)
	if !ok {
		return newError(InvalidHandle, "RemoveBody", "unknown %v", id)
	}
	if !body.inSpace {
		return newError(InvalidHandle, "RemoveBody", "%v not in the space", id)
	}
	if id == s.staticBody {
		return newError(InvalidHandle, "RemoveBody", "%v is the space's static body", id)
	}
	body.Activate()

	for _, cid := range body.constraints {
		if c, ok := s.constraints.get(cid); ok && c.inSpace {
			s.removeConstraint(cid)
		}
	}
	for _, sid := range body.shapes {
		if shape, ok := s.shapes.get(sid); ok && shape.inSpace {
			s.removeShape(sid)
		}
	}
	s.filterArbiters(body, nil)

	if body.kind == Static {
		s.staticBodies = slices.DeleteFunc(s.staticBodies, func(b *Body) bool {
			return b == body
		})
	} else {
		s.dynamicBodies = slices.DeleteFunc(s.dynamicBodies, func(b *Body) bool {
			return b == body
		})
	}
	s.movedBodies = slices.DeleteFunc(s.movedBodies, func(b *Body) bool {
		return b == body
	})
	body.moved = false
	body.inSpace = false
	return nil
}

func (s *Space) removeShape(id ShapeID) error {
	shape, ok := s.shapes.get(id)
	if !ok {
		return newError(InvalidHandle, "RemoveShape", "unknown %v", id)
	}
	if !shape.inSpace {
		return newError(InvalidHandle, "RemoveShape", "%v not in the space", id)
	}
	body := shape.Body()
	body.Activate()

	s.filterArbiters(body, shape)
	if err := s.indexFor(body).Remove(id); err != nil {
		return err
	}
	shape.inSpace = false
	return nil
}

func (s *Space) removeConstraint(id ConstraintID) error {
	c, ok := s.constraints.get(id)
	if !ok {
		return newError(InvalidHandle, "RemoveConstraint", "unknown %v", id)
	}
	if !c.inSpace {
		return newError(InvalidHandle, "RemoveConstraint", "%v not in the space", id)
	}
	c.bodyA.Activate()
	c.bodyB.Activate()
	s.constraintList = slices.DeleteFunc(s.constraintList, func(other *Constraint) bool {
		return other == c
	})
	c.inSpace = false
	return nil
}

// Free destroys bodies, shapes and constraints, removing them from the
// simulation first. Freeing a body frees its shapes and constraints. Freed
// ids are never handed out again.
//
// Free fails with ReentrancyViolation while the space is locked.
func (s *Space) Free(handles ...Handle) error {
	if s.locked > 0 {
		return errLocked("Free")
	}
	var errs []error
	for _, h := range handles {
		var err error
		switch id := h.(type) {
		case BodyID:
			err = s.freeBody(id)
		case ShapeID:
			err = s.freeShape(id)
		case ConstraintID:
			err = s.freeConstraint(id)
		default:
			err = newError(InvalidHandle, "Free", "unsupported handle %v", h)
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Space) freeBody(id BodyID) error {
	body, ok := s.bodies.get(id)
	if !ok {
		return newError(InvalidHandle, "FreeBody", "unknown %v", id)
	}
	if id == s.staticBody {
		return newError(InvalidHandle, "FreeBody", "%v is the space's static body", id)
	}
	for _, cid := range slices.Clone(body.constraints) {
		s.freeConstraint(cid)
	}
	// Out of the space first so the shapes can take the mass with them.
	if body.inSpace {
		if err := s.removeBody(id); err != nil {
			return err
		}
	}
	for _, sid := range slices.Clone(body.shapes) {
		s.freeShape(sid)
	}
	s.bodies.free(id)
	body.space = nil
	return nil
}

func (s *Space) freeShape(id ShapeID) error {
	shape, ok := s.shapes.get(id)
	if !ok {
		return newError(InvalidHandle, "FreeShape", "unknown %v", id)
	}
	if body := shape.Body(); body != nil {
		if err := body.detachShape(shape); err != nil {
			return err
		}
	}
	if shape.inSpace {
		if err := s.removeShape(id); err != nil {
			return err
		}
	}
	s.shapes.free(id)
	shape.space = nil
	return nil
}

func (s *Space) freeConstraint(id ConstraintID) error {
	c, ok := s.constraints.get(id)
	if !ok {
		return newError(InvalidHandle, "FreeConstraint", "unknown %v", id)
	}
	if c.inSpace {
		if err := s.removeConstraint(id); err != nil {
			return err
		}
	}
	c.bodyA.detachConstraint(id)
	c.bodyB.detachConstraint(id)
	s.constraints.free(id)
	c.space = nil
	return nil
}

// Destroy releases every body, shape and constraint of the space. All ids
// handed out so far become invalid; a new static body is created. Handlers
// and tuning parameters are kept.
func (s *Space) Destroy() error {
	if s.locked > 0 {
		return errLocked("Destroy")
	}
	for _, arb := range s.cachedArbiters.list {
		recycleArbiter(arb)
	}
	s.cachedArbiters.Clear()
	s.arbiters = s.arbiters[:0]
	s.solving = s.solving[:0]

	for _, body := range s.bodies.items {
		body.space = nil
		body.inSpace = false
		body.sleepingRoot = nil
		body.sleepingNext = nil
	}
	for _, shape := range s.shapes.items {
		shape.space = nil
		shape.inSpace = false
	}
	for _, c := range s.constraints.items {
		c.space = nil
		c.inSpace = false
	}
	s.bodies.clear()
	s.shapes.clear()
	s.constraints.clear()
	s.sleepingComponents = nil
	s.activeConstraints = nil

	s.dynamicBodies = nil
	s.staticBodies = nil
	s.constraintList = nil
	s.movedBodies = nil
	s.postStepCallbacks = nil
	s.staticShapes = NewBBTree(false, 0)
	s.dynamicShapes = NewBBTree(true, s.dynamicShapes.rebuildThreshold)
	s.initStaticBody()
	return nil
}

// indexFor returns the tree holding the shapes of body.
func (s *Space) indexFor(body *Body) *BBTree {
	if body.kind == Static {
		return s.staticShapes
	}
	return s.dynamicShapes
}

// bodyList returns the bodies in the space, dynamic and kinematic first.
func (s *Space) bodyList() []*Body {
	list := make([]*Body, 0, len(s.dynamicBodies)+len(s.staticBodies))
	list = append(list, s.dynamicBodies...)
	return append(list, s.staticBodies...)
}

// DynamicBodyCount returns the number of dynamic and kinematic bodies in the space.
func (s *Space) DynamicBodyCount() int {
	return len(s.dynamicBodies)
}

// StaticBodyCount returns the number of static bodies in the space, the
// space's own static body included.
func (s *Space) StaticBodyCount() int {
	return len(s.staticBodies)
}

func (s *Space) DynamicShapeCount() int {
	return s.dynamicShapes.Count()
}

func (s *Space) StaticShapeCount() int {
	return s.staticShapes.Count()
}

func (s *Space) ShapeCount() int {
	return s.staticShapes.Count() + s.dynamicShapes.Count()
}

func (s *Space) ConstraintCount() int {
	return len(s.constraintList)
}

// ContainsBody reports whether the body is in the simulation.
func (s *Space) ContainsBody(id BodyID) bool {
	body, ok := s.bodies.get(id)
	return ok && body.inSpace
}

// ContainsShape reports whether the shape is in the simulation.
func (s *Space) ContainsShape(id ShapeID) bool {
	shape, ok := s.shapes.get(id)
	return ok && shape.inSpace
}

// ContainsConstraint reports whether the constraint is in the simulation.
func (s *Space) ContainsConstraint(id ConstraintID) bool {
	c, ok := s.constraints.get(id)
	return ok && c.inSpace
}

// SetGravity sets the gravity and wakes up the sleeping bodies since the
// gravity changed.
func (s *Space) SetGravity(gravity vec.Vec2) {
	s.Gravity = gravity
	for _, root := range slices.Clone(s.sleepingComponents) {
		s.wakeComponent(root)
	}
}

// SleepingBodyCount returns the number of bodies in sleeping components.
func (s *Space) SleepingBodyCount() int {
	var n int
	for _, root := range s.sleepingComponents {
		for body := root; body != nil; body = body.sleepingNext {
			n++
		}
	}
	return n
}

// wakeComponent wakes every body of the sleeping component of root. Their
// cached arbiters are stamped so that they do not time out right away.
func (s *Space) wakeComponent(root *Body) {
	for _, arb := range s.cachedArbiters.list {
		if arb.bodyA.sleepingRoot == root || arb.bodyB.sleepingRoot == root {
			arb.stamp = s.stamp
		}
	}
	for body := root; body != nil; {
		next := body.sleepingNext
		body.sleepingIdleTime = 0
		body.sleepingRoot = nil
		body.sleepingNext = nil
		body = next
	}
	s.sleepingComponents = slices.DeleteFunc(s.sleepingComponents, func(b *Body) bool {
		return b == root
	})
}

// TimeStep returns the dt of the current or last step.
func (s *Space) TimeStep() float64 {
	return s.currDT
}

// IsLocked returns true from inside a callback when objects cannot be added/removed.
func (s *Space) IsLocked() bool {
	return s.locked > 0
}

func (s *Space) lock() {
	s.locked++
}

// unlock releases one lock level. The outermost unlock reindexes bodies that
// were moved while locked and, if runPostStep, drains the post-step queue.
func (s *Space) unlock(runPostStep bool) {
	s.locked--
	if s.locked < 0 {
		panic("rigid: space unlocked more often than locked")
	}
	if s.locked > 0 {
		return
	}

	moved := s.movedBodies
	s.movedBodies = nil
	for _, body := range moved {
		body.moved = false
		if body.inSpace {
			s.reindexBody(body)
		}
	}

	if runPostStep {
		s.runPostStepCallbacks()
	}
}

// bodyMoved keeps the shape boxes of a body moved by the caller in sync with the index.
func (s *Space) bodyMoved(body *Body) {
	if s.locked > 0 {
		if !body.moved {
			body.moved = true
			s.movedBodies = append(s.movedBodies, body)
		}
		return
	}
	s.reindexBody(body)
}

func (s *Space) reindexBody(body *Body) {
	index := s.indexFor(body)
	for _, id := range body.shapes {
		shape, ok := s.shapes.get(id)
		if !ok || !shape.inSpace {
			continue
		}
		bb := shape.update(body.transform)
		if body.kind == Static {
			index.Remove(id)
			index.Insert(id, bb, vec.Vec2{})
		} else {
			index.Update(id, bb, body.velocity)
		}
	}
}

// bodyTypeChanged moves the body and its shapes between the static and dynamic sets.
func (s *Space) bodyTypeChanged(body *Body, oldType BodyType) {
	s.filterArbiters(body, nil)

	wasStatic := oldType == Static
	isStatic := body.kind == Static
	if wasStatic == isStatic {
		return
	}

	from, to := s.dynamicShapes, s.staticShapes
	if wasStatic {
		from, to = to, from
		s.staticBodies = slices.DeleteFunc(s.staticBodies, func(b *Body) bool { return b == body })
		s.dynamicBodies = append(s.dynamicBodies, body)
	} else {
		s.dynamicBodies = slices.DeleteFunc(s.dynamicBodies, func(b *Body) bool { return b == body })
		s.staticBodies = append(s.staticBodies, body)
	}

	for _, id := range body.shapes {
		shape, ok := s.shapes.get(id)
		if !ok || !shape.inSpace {
			continue
		}
		from.Remove(id)
		to.Insert(id, shape.update(body.transform), body.velocity)
	}
}

// filterArbiters drops the cached arbiters of body, or of shape if not nil.
func (s *Space) filterArbiters(body *Body, shape *Shape) {
	s.lock()
	s.cachedArbiters.Filter(func(arb *Arbiter) bool {
		return cachedArbitersFilter(arb, s, shape, body)
	})
	s.unlock(true)
}

// ReindexShape updates the bounding box of a shape in the index. Use it after
// changing a shape's geometry or moving a body while no step runs.
func (s *Space) ReindexShape(id ShapeID) error {
	if s.locked > 0 {
		return errLocked("ReindexShape")
	}
	shape, ok := s.shapes.get(id)
	if !ok {
		return newError(InvalidHandle, "ReindexShape", "unknown %v", id)
	}
	if !shape.inSpace {
		return nil
	}
	body := shape.Body()
	bb := shape.update(body.transform)
	index := s.indexFor(body)
	if err := index.Remove(id); err != nil {
		return err
	}
	return index.Insert(id, bb, body.velocity)
}

// ReindexShapesForBody reindexes all the shapes of a body.
func (s *Space) ReindexShapesForBody(id BodyID) error {
	if s.locked > 0 {
		return errLocked("ReindexShapesForBody")
	}
	body, ok := s.bodies.get(id)
	if !ok {
		return newError(InvalidHandle, "ReindexShapesForBody", "unknown %v", id)
	}
	if body.inSpace {
		s.reindexBody(body)
	}
	return nil
}

// ReindexStatic recomputes every static shape box and rebuilds the static tree.
func (s *Space) ReindexStatic() error {
	if s.locked > 0 {
		return errLocked("ReindexStatic")
	}
	for _, body := range s.staticBodies {
		s.reindexBody(body)
	}
	s.staticShapes.Rebuild()
	return nil
}

// protect runs a user callback. A panic is recovered, logged and reported
// through OnCallbackError as an *Error of kind CallbackFailure.
func (s *Space) protect(op string, f func()) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		var cause error
		if err, ok := r.(error); ok {
			cause = fmt.Errorf("panic: %w", err)
		} else {
			cause = fmt.Errorf("panic: %v", r)
		}
		err := &Error{Kind: CallbackFailure, Op: op, Err: cause}
		if s.Logger != nil {
			s.Logger.Println(err)
		}
		if s.OnCallbackError != nil {
			s.OnCallbackError(err)
		}
	}()
	f()
}
