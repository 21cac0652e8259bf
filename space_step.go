package rigid

import (
	"math"
	"slices"
)

// Step advances the simulation by dt.
//
// A step integrates forces, refreshes the broad-phase, finds contacts, puts
// idle groups of bodies to sleep, calls the begin and preSolve handlers,
// runs the solver, integrates positions, calls the postSolve and separate
// handlers and finally runs the post-step callbacks. The space is locked until the post-step callbacks run.
func (s *Space) Step(dt float64) error {
	if s.locked > 0 {
		return errLocked("Step")
	}
	if dt == 0 {
		return nil
	}
	if !(dt > 0) || !isFinite(dt) {
		return newError(InvalidGeometry, "Step", "dt %v must be a positive number", dt)
	}

	s.stamp++

	prevDT := s.currDT
	s.currDT = dt

	clear(s.arbiters)
	s.arbiters = s.arbiters[:0]

	s.lock()
	{
		s.updateIdleTime(dt)
		s.integrateForces(dt)
		s.refreshBroadPhase()
		s.collidePairs()
		s.processComponents()

		// Begin runs for every new pair before any preSolve.
		for _, arb := range s.arbiters {
			if arb.state == ArbiterStateFirstCollision && !s.callBegin(arb) {
				arb.Ignore()
			}
		}

		s.solving = s.solving[:0]
		for _, arb := range s.arbiters {
			if s.acceptArbiter(arb) {
				s.solving = append(s.solving, arb)
			}
		}

		for _, c := range s.activeConstraints {
			if c.PreSolve != nil {
				s.protect("constraint preSolve", func() {
					c.PreSolve(c, s)
				})
			}
		}

		var dtCoef float64
		if prevDT != 0 {
			dtCoef = dt / prevDT
		}
		solve(s.activeConstraints, s.solving, dt, dtCoef, s.Iterations, s.CollisionSlop, collisionBiasCoef(s.CollisionBias, dt))

		s.integratePositions(dt)

		for _, c := range s.activeConstraints {
			if c.PostSolve != nil {
				s.protect("constraint postSolve", func() {
					c.PostSolve(c, s)
				})
			}
		}

		for _, arb := range s.solving {
			s.callPostSolve(arb)
		}

		// The pairs are no longer new.
		for _, arb := range s.arbiters {
			if arb.state == ArbiterStateFirstCollision {
				arb.state = ArbiterStateNormal
			}
		}

		// Clear out old cached arbiters and call separate callbacks
		s.cachedArbiters.Filter(func(arb *Arbiter) bool {
			return arbiterSetFilter(arb, s)
		})
	}
	s.unlock(true)
	return nil
}

func (s *Space) integrateForces(dt float64) {
	damping := math.Pow(s.Damping, dt)
	gravity := s.Gravity
	for _, body := range s.dynamicBodies {
		if !body.IsSleeping() {
			body.velocityFunc(body, gravity, damping, dt)
		}
	}
}

func (s *Space) integratePositions(dt float64) {
	for _, body := range s.dynamicBodies {
		if !body.IsSleeping() {
			body.positionFunc(body, dt)
		}
	}
}

// refreshBroadPhase caches the shape geometry of every moving body and
// updates the dynamic tree.
func (s *Space) refreshBroadPhase() {
	for _, body := range s.dynamicBodies {
		if body.IsSleeping() {
			continue
		}
		for _, id := range body.shapes {
			shape, ok := s.shapes.get(id)
			if !ok || !shape.inSpace {
				continue
			}
			s.dynamicShapes.Update(id, shape.update(body.transform), body.velocity)
		}
	}
}

// collidePairs runs the narrow-phase over the broad-phase candidates: moving
// shapes against each other in body order, then against the static tree.
// Sleeping bodies only collide with awake ones.
func (s *Space) collidePairs() {
	for _, body := range s.dynamicBodies {
		if body.IsSleeping() {
			continue
		}
		for _, id := range body.shapes {
			a, ok := s.shapes.get(id)
			if !ok || !a.inSpace {
				continue
			}
			s.dynamicShapes.Query(a.bb, func(other ShapeID) {
				b, ok := s.shapes.get(other)
				if !ok {
					return
				}
				// each awake pair once, sleeping partners from the awake side
				if other <= id && !b.Body().IsSleeping() {
					return
				}
				s.collideShapes(a, b)
			})
		}
	}

	collideStatic(s.dynamicShapes, s.staticShapes, s.shapeBB, func(a, b ShapeID) {
		sa, okA := s.shapes.get(a)
		sb, okB := s.shapes.get(b)
		if okA && okB && !sa.Body().IsSleeping() {
			s.collideShapes(sa, sb)
		}
	})
}

// processComponents wakes the sleeping bodies touched by awake ones and puts
// the components that stayed idle for SleepTimeThreshold to sleep. A component is a group of dynamic
// bodies joined by contacts or constraints. It also collects the constraints
// the solver sees this step.
func (s *Space) processComponents() {
	sleep := s.SleepTimeThreshold < infinity
	if !sleep {
		// sleeping was switched off
		for len(s.sleepingComponents) > 0 {
			s.wakeComponent(s.sleepingComponents[0])
		}
	}

	var graph map[*Body][]*Body
	if sleep {
		graph = make(map[*Body][]*Body)
		for _, arb := range s.arbiters {
			a, b := arb.bodyA, arb.bodyB
			if b.kind == Kinematic || a.IsSleeping() {
				a.Activate()
			}
			if a.kind == Kinematic || b.IsSleeping() {
				b.Activate()
			}
			graph[a] = append(graph[a], b)
			graph[b] = append(graph[b], a)
		}
		// Bodies should be held active if connected by a joint to a kinematic.
		for _, c := range s.constraintList {
			a, b := c.bodyA, c.bodyB
			if b.kind == Kinematic {
				a.Activate()
			}
			if a.kind == Kinematic {
				b.Activate()
			}
			if !a.IsSleeping() && !b.IsSleeping() {
				graph[a] = append(graph[a], b)
				graph[b] = append(graph[b], a)
			}
		}

		var fallen []*Body
		for _, body := range s.dynamicBodies {
			if body.kind != Dynamic || body.sleepingRoot != nil {
				continue
			}
			floodFillComponent(graph, body, body)
			if !componentActive(body, s.SleepTimeThreshold) {
				fallen = append(fallen, body)
			}
		}
		// Only sleeping bodies keep their component links.
		for _, body := range s.dynamicBodies {
			root := body.sleepingRoot
			if root == nil || slices.Contains(fallen, root) || slices.Contains(s.sleepingComponents, root) {
				continue
			}
			body.sleepingRoot = nil
			body.sleepingNext = nil
		}
		s.sleepingComponents = append(s.sleepingComponents, fallen...)

		// The solver leaves the sleeping pairs alone.
		s.arbiters = slices.DeleteFunc(s.arbiters, func(arb *Arbiter) bool {
			return arb.bodyA.IsSleeping() || arb.bodyB.IsSleeping()
		})
	}

	s.activeConstraints = s.activeConstraints[:0]
	for _, c := range s.constraintList {
		if !c.bodyA.IsSleeping() && !c.bodyB.IsSleeping() {
			s.activeConstraints = append(s.activeConstraints, c)
		}
	}
}

// updateIdleTime measures how long each awake dynamic body has been moving
// slower than IdleSpeedThreshold, as left by the last solve.
func (s *Space) updateIdleTime(dt float64) {
	if !(s.SleepTimeThreshold < infinity) {
		return
	}
	dv := s.IdleSpeedThreshold
	dvsq := dv * dv
	if dv == 0 {
		dvsq = s.Gravity.LengthSq() * dt * dt
	}

	for _, body := range s.dynamicBodies {
		if body.kind != Dynamic || body.IsSleeping() {
			continue
		}
		// Need to deal with infinite mass objects
		var keThreshold float64
		if dvsq != 0 {
			keThreshold = body.mass * dvsq
		}
		if body.KineticEnergy() > keThreshold {
			body.sleepingIdleTime = 0
		} else {
			body.sleepingIdleTime += dt
		}
	}
}

// componentActive reports whether a body of the component of root has not
// been idle long enough to sleep.
func componentActive(root *Body, threshold float64) bool {
	for item := root; item != nil; item = item.sleepingNext {
		if item.sleepingIdleTime < threshold {
			return true
		}
	}
	return false
}

// floodFillComponent marks the component of body in the contact graph with
// root. Kinematic bodies cannot be put to sleep and static bodies are
// effectively sleeping all the time, so neither joins a component.
func floodFillComponent(graph map[*Body][]*Body, root, body *Body) {
	if body.kind != Dynamic || body.sleepingRoot != nil {
		return
	}
	root.componentAdd(body)
	for _, other := range graph[body] {
		floodFillComponent(graph, root, other)
	}
}

func (s *Space) shapeBB(id ShapeID) BB {
	if shape, ok := s.shapes.get(id); ok {
		return shape.bb
	}
	return BB{}
}

// collideShapes finds the contacts of a candidate pair and updates its arbiter.
func (s *Space) collideShapes(a, b *Shape) {
	if s.queryReject(a, b) {
		return
	}

	key := makePairKey(a.id, b.id)
	arb, cached := s.cachedArbiters.Find(key)
	var collisionID uint32
	if cached {
		collisionID = arb.collisionID
	}

	// Narrow-phase collision detection.
	info := Collide(a, b, collisionID)
	if info.count == 0 {
		// shapes are not colliding
		if cached {
			arb.collisionID = info.collisionID
		}
		return
	}

	// This is where the persistent contact magic comes from.
	if !cached {
		arb = newArbiter(key, info.a, info.b)
		s.cachedArbiters.Insert(arb)
	}
	arb.update(&info, s)

	// Time stamp the arbiter so we know it was used recently.
	arb.stamp = s.stamp
	s.arbiters = append(s.arbiters, arb)
}

// acceptArbiter runs preSolve and decides whether the solver sees the arbiter this step.
func (s *Space) acceptArbiter(arb *Arbiter) bool {
	if arb.state == ArbiterStateIgnore {
		return false
	}
	if !s.callPreSolve(arb) || arb.state == ArbiterStateIgnore {
		return false
	}
	// Process, but don't add collisions for sensors.
	if arb.shapeA.Sensor || arb.shapeB.Sensor {
		return false
	}
	// Don't process collisions between two infinite mass bodies.
	// This includes collisions between two kinematic bodies, or a kinematic body and a static body.
	if arb.bodyA.kind != Dynamic && arb.bodyB.kind != Dynamic {
		return false
	}
	return true
}

// queryReject returns true if shapes a and b can not collide.
func (s *Space) queryReject(a, b *Shape) bool {
	if a.body == b.body {
		return true
	}
	if a.Filter.Reject(b.Filter) {
		return true
	}
	if !a.bb.Intersects(b.bb) {
		return true
	}
	return s.queryRejectConstraints(a.Body(), b.body)
}

func (s *Space) queryRejectConstraints(a *Body, b BodyID) bool {
	for _, id := range a.constraints {
		c, ok := s.constraints.get(id)
		if ok && c.inSpace && !c.collideBodies && c.joins(a.id, b) {
			return true
		}
	}
	return false
}
